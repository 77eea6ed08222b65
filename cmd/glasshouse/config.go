package main

import "time"

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultLogLevel        = "info"
	defaultCHHost          = "localhost"
	defaultCHPort          = 9000
	defaultCHDatabase      = "system"
	defaultCHUsername      = "default"
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = time.Hour
	defaultDialTimeout     = 10 * time.Second
	defaultQueryTimeout    = 30 * time.Second
	defaultMaxQuerySeconds = 70
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	HTTPAddr    string   `mapstructure:"http-addr"`
	CORSOrigins []string `mapstructure:"cors-origins"`
	LogLevel    string   `mapstructure:"log-level"`

	ClickHouseHost     string `mapstructure:"clickhouse-host"`
	ClickHousePort     int    `mapstructure:"clickhouse-port"`
	ClickHouseDatabase string `mapstructure:"clickhouse-database"`
	ClickHouseUsername string `mapstructure:"clickhouse-username"`
	ClickHousePassword string `mapstructure:"clickhouse-password"`
	ClickHouseSecure   bool   `mapstructure:"clickhouse-secure"`

	MaxOpenConns    int           `mapstructure:"max-open-conns"`
	MaxIdleConns    int           `mapstructure:"max-idle-conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn-max-lifetime"`
	DialTimeout     time.Duration `mapstructure:"dial-timeout"`
	QueryTimeout    time.Duration `mapstructure:"query-timeout"`
	MaxQuerySeconds int           `mapstructure:"max-query-seconds"`

	ConfigPath string `mapstructure:"-"` // not from config file
}
