package clickhouse

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// Options configures the ClickHouse connection.
type Options struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string

	// Secure switches to the HTTP protocol with TLS, as required by
	// ClickHouse Cloud. Self-hosted deployments normally use the native
	// protocol on port 9000.
	Secure bool

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	DialTimeout time.Duration

	// QueryTimeout bounds every query issued through the store.
	QueryTimeout time.Duration

	// MaxQuerySeconds is passed to ClickHouse as max_execution_time so the
	// server kills runaway queries even if the client deadline is missed.
	MaxQuerySeconds int
}

// Store manages the ClickHouse connection and provides the query-log
// retrieval operations. It holds no per-request state; concurrent use is
// safe, bounded only by the connection pool.
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// NewStore opens a ClickHouse connection pool and verifies it with a ping.
func NewStore(opts Options) (*Store, error) {
	protocol := clickhouse.Native
	if opts.Secure {
		protocol = clickhouse.HTTP
	}

	chOpts := &clickhouse.Options{
		Addr:     []string{fmt.Sprintf("%s:%d", opts.Host, opts.Port)},
		Protocol: protocol,
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		Settings: clickhouse.Settings{
			// Cap per-query memory so a pathological dashboard query cannot
			// OOM the cluster.
			"max_memory_usage":   1_000_000_000,
			"max_execution_time": opts.MaxQuerySeconds,
		},
		DialTimeout: opts.DialTimeout,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	}
	if opts.Secure {
		chOpts.TLS = &tls.Config{}
	}

	db := clickhouse.OpenDB(chOpts)
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	qt := opts.QueryTimeout
	if qt <= 0 {
		qt = 30 * time.Second
	}

	return &Store{db: db, queryTimeout: qt}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks basic connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// HealthCheck verifies connectivity and that the store answers a trivial
// query, for the readiness endpoint.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("health check query failed: %w", err)
	}
	return nil
}

// queryCtx derives a context bounded by the store's query timeout.
func (s *Store) queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}
