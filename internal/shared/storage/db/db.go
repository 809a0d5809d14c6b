package db

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"status-backend/internal/shared/config"
)

// Options controls database pool and connectivity behavior.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
	PingTimeout     time.Duration
}

var openDB = func(cc *pgx.ConnConfig) *sql.DB {
	return stdlib.OpenDB(*cc)
}

// DefaultServerOptions returns the static pool limits for the API process.
func DefaultServerOptions() Options {
	return Options{
		MaxOpenConns:    5,
		MaxIdleConns:    5,
		ConnMaxIdleTime: 10 * time.Second,
		ConnectTimeout:  2 * time.Second,
		PingTimeout:     2 * time.Second,
	}
}

// DefaultMigrateOptions returns defaults for short-lived CLI migrations.
func DefaultMigrateOptions() Options {
	return Options{
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxIdleTime: 2 * time.Minute,
		ConnMaxLifetime: time.Hour,
		ConnectTimeout:  5 * time.Second,
		PingTimeout:     5 * time.Second,
	}
}

// URL renders the connection parameters as a postgres:// URL. Credentials are
// percent-encoded so any password survives the round trip.
func URL(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// ConnConfig builds the pgx connection config for cfg with the connect
// timeout from opts applied to every new connection.
func ConnConfig(cfg config.DBConfig, opts Options) (*pgx.ConnConfig, error) {
	cc, err := pgx.ParseConfig(URL(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if opts.ConnectTimeout > 0 {
		cc.ConnectTimeout = opts.ConnectTimeout
	}
	return cc, nil
}

// Open creates the shared connection pool. It does not require the database
// to be reachable: a failed startup ping is logged and requests report the
// database as unavailable until it comes back.
func Open(ctx context.Context, cfg config.DBConfig, opts Options, logger *zap.Logger) (*sql.DB, error) {
	cc, err := ConnConfig(cfg, opts)
	if err != nil {
		return nil, err
	}

	db := openDB(cc)
	applyOptions(db, opts)

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 2 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	fields := []zap.Field{
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Name),
	}
	if err := db.PingContext(pingCtx); err != nil {
		logger.Warn("db.ping_failed", append(fields, zap.Error(err))...)
	} else {
		logger.Info("db.connected", fields...)
	}

	logPoolStats(logger, db, "db.init")
	return db, nil
}

// Connect opens the pool and fails if the database cannot be reached.
// Used by tooling that has nothing to do without a database.
func Connect(ctx context.Context, cfg config.DBConfig, opts Options) (*sql.DB, error) {
	cc, err := ConnConfig(cfg, opts)
	if err != nil {
		return nil, err
	}
	db := openDB(cc)
	applyOptions(db, opts)

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func applyOptions(db *sql.DB, opts Options) {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 5
	}
	if opts.MaxIdleConns <= 0 || opts.MaxIdleConns > opts.MaxOpenConns {
		opts.MaxIdleConns = opts.MaxOpenConns
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}

func logPoolStats(logger *zap.Logger, db *sql.DB, label string) {
	stats := db.Stats()
	logger.Debug(label,
		zap.Int("open", stats.OpenConnections),
		zap.Int("in_use", stats.InUse),
		zap.Int("idle", stats.Idle),
		zap.Int64("wait", stats.WaitCount),
		zap.Int("max_open", stats.MaxOpenConnections),
	)
}
