package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Build variables - set by ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var configPath string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/glasshouse/config.yml)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("Glasshouse - ClickHouse Query Log Monitor\n")
		fmt.Printf("  Version: %s\n", version)
		fmt.Printf("  Commit:  %s\n", commit)
		return
	}

	// A local .env is convenient in development; absence is not an error.
	_ = godotenv.Load()

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := runServer(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	v := viper.New()
	v.SetEnvPrefix("GLASSHOUSE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("http-addr", defaultHTTPAddr)
	v.SetDefault("cors-origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
	v.SetDefault("log-level", defaultLogLevel)
	v.SetDefault("clickhouse-host", defaultCHHost)
	v.SetDefault("clickhouse-port", defaultCHPort)
	v.SetDefault("clickhouse-database", defaultCHDatabase)
	v.SetDefault("clickhouse-username", defaultCHUsername)
	v.SetDefault("clickhouse-password", "")
	v.SetDefault("clickhouse-secure", false)
	v.SetDefault("max-open-conns", defaultMaxOpenConns)
	v.SetDefault("max-idle-conns", defaultMaxIdleConns)
	v.SetDefault("conn-max-lifetime", defaultConnMaxLifetime)
	v.SetDefault("dial-timeout", defaultDialTimeout)
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("max-query-seconds", defaultMaxQuerySeconds)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.SetConfigFile(home + "/.config/glasshouse/config.yml")
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if cfg.ClickHousePort <= 0 || cfg.ClickHousePort > 65535 {
		return cfg, fmt.Errorf("invalid clickhouse-port: %d", cfg.ClickHousePort)
	}
	return cfg, nil
}

// newLogger builds the process-wide slog logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
