// internal/adapters/db/postgres.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/tracelog"

	"github.com/ammerola/consum-be/internal/core/domain"
	"github.com/ammerola/consum-be/internal/core/ports"
)

var errConnClosed = errors.New("connection is closed")

// Config holds database configuration
type Config struct {
	URL                string
	Host               string
	Port               string
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int32
	AcquireTimeout     time.Duration
	ConnectTimeout     time.Duration
	HealthCheckTimeout time.Duration
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	TestOnCheckout     bool
	StatementCacheMode string
	EnableQueryLogging bool
}

// DefaultConfig returns default database configuration
func DefaultConfig() *Config {
	return &Config{
		Host:               "localhost",
		Port:               "5432",
		User:               "consum",
		Password:           "consum_dev",
		Database:           "consum",
		SSLMode:            "disable",
		MaxConnections:     10,
		AcquireTimeout:     time.Second * 30,
		ConnectTimeout:     time.Second * 10,
		HealthCheckTimeout: time.Second * 2,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    time.Minute * 30,
		TestOnCheckout:     true,
		StatementCacheMode: "describe",
		EnableQueryLogging: false,
	}
}

// PoolConfig derives pool settings from the database configuration
func (c *Config) PoolConfig() PoolConfig {
	return PoolConfig{
		MaxSize:        c.MaxConnections,
		AcquireTimeout: c.AcquireTimeout,
		MaxLifetime:    c.MaxConnLifetime,
		MaxIdleTime:    c.MaxConnIdleTime,
		TestOnCheckout: c.TestOnCheckout,
		CloseTimeout:   c.ConnectTimeout,
	}
}

// ConnFactory opens and checks PostgreSQL connections for the pool
type ConnFactory struct {
	connConfig   *pgx.ConnConfig
	addr         string
	checkTimeout time.Duration
}

// NewConnFactory builds a factory from config
func NewConnFactory(config *Config, logger *slog.Logger) (*ConnFactory, error) {
	dsn := config.URL
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
			config.Host, config.Port, config.User, config.Password,
			config.Database, config.SSLMode, int(config.ConnectTimeout.Seconds()),
		)
	}

	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	mode, err := queryExecMode(config.StatementCacheMode)
	if err != nil {
		return nil, err
	}
	connConfig.DefaultQueryExecMode = mode
	connConfig.StatementCacheCapacity = 512

	dialer := &net.Dialer{Timeout: config.ConnectTimeout, KeepAlive: 5 * time.Minute}
	connConfig.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if tcp, ok := conn.(*net.TCPConn); ok {
			if err := tcp.SetNoDelay(true); err != nil {
				_ = conn.Close()
				return nil, err
			}
		}
		return conn, nil
	}

	if config.EnableQueryLogging {
		connConfig.Tracer = &tracelog.TraceLog{
			Logger:   newPgxLogger(logger),
			LogLevel: tracelog.LogLevelDebug,
		}
	}

	checkTimeout := config.HealthCheckTimeout
	if checkTimeout <= 0 {
		checkTimeout = 2 * time.Second
	}

	return &ConnFactory{
		connConfig:   connConfig,
		addr:         net.JoinHostPort(connConfig.Host, strconv.Itoa(int(connConfig.Port))),
		checkTimeout: checkTimeout,
	}, nil
}

func queryExecMode(mode string) (pgx.QueryExecMode, error) {
	switch mode {
	case "", "describe":
		return pgx.QueryExecModeCacheDescribe, nil
	case "statement":
		return pgx.QueryExecModeCacheStatement, nil
	case "exec":
		return pgx.QueryExecModeExec, nil
	case "simple":
		return pgx.QueryExecModeSimpleProtocol, nil
	default:
		return 0, fmt.Errorf("unknown statement cache mode %q", mode)
	}
}

// Connect dials the server and completes the startup handshake
func (f *ConnFactory) Connect(ctx context.Context) (*pgx.Conn, error) {
	conn, err := pgx.ConnectConfig(ctx, f.connConfig)
	if err != nil {
		return nil, &domain.ConnectError{Addr: f.addr, Err: err}
	}
	return conn, nil
}

// IsValid sends an empty statement and waits for the reply
func (f *ConnFactory) IsValid(ctx context.Context, conn *pgx.Conn) error {
	if conn.IsClosed() {
		return errConnClosed
	}
	ctx, cancel := context.WithTimeout(ctx, f.checkTimeout)
	defer cancel()
	return conn.Ping(ctx)
}

// HasBroken reports a closed transport
func (f *ConnFactory) HasBroken(conn *pgx.Conn) bool {
	return conn.IsClosed()
}

// Close terminates the session
func (f *ConnFactory) Close(ctx context.Context, conn *pgx.Conn) error {
	return conn.Close(ctx)
}

// Database owns the connection pool used by the repositories
type Database struct {
	pool   *Pool[*pgx.Conn]
	config *Config
	logger *slog.Logger
}

var _ ports.Database = (*Database)(nil)

// NewDatabase creates the pool and verifies connectivity
func NewDatabase(ctx context.Context, config *Config, logger *slog.Logger) (*Database, error) {
	if config == nil {
		config = DefaultConfig()
	}

	factory, err := NewConnFactory(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build connection factory: %w", err)
	}

	db := &Database{
		pool:   NewPool[*pgx.Conn](factory, config.PoolConfig(), logger),
		config: config,
		logger: logger,
	}

	if err := db.Ping(ctx); err != nil {
		db.pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		slog.String("host", config.Host),
		slog.String("database", config.Database),
		slog.Int("max_connections", int(config.MaxConnections)),
	)

	return db, nil
}

// Pool returns the underlying connection pool
func (db *Database) Pool() *Pool[*pgx.Conn] {
	return db.pool
}

// WithConn runs fn on a pooled connection
func (db *Database) WithConn(ctx context.Context, fn func(ports.Querier) error) error {
	return db.pool.WithConn(ctx, func(conn *pgx.Conn) error {
		return fn(conn)
	})
}

// Close closes all database connections
func (db *Database) Close() {
	db.pool.Close()
	db.logger.Info("database connections closed")
}

// Ping verifies database connectivity
func (db *Database) Ping(ctx context.Context) error {
	return db.pool.WithConn(ctx, func(conn *pgx.Conn) error {
		return conn.Ping(ctx)
	})
}

// Health returns database health information
func (db *Database) Health(ctx context.Context) map[string]interface{} {
	stats := db.pool.Stat()
	health := map[string]interface{}{
		"status":               "healthy",
		"open_connections":     stats.OpenConns,
		"idle_connections":     stats.IdleConns,
		"acquired_connections": stats.InUseConns,
		"max_connections":      stats.MaxSize,
		"waiting":              stats.WaitingCount,
		"new_connections":      stats.CreatedCount,
		"discarded":            stats.DiscardedCount,
		"exhausted":            stats.ExhaustedCount,
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*2)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
	}

	return health
}

// pgxLogger adapts slog for pgx logging
type pgxLogger struct {
	logger *slog.Logger
}

func newPgxLogger(logger *slog.Logger) *pgxLogger {
	return &pgxLogger{
		logger: logger.With(slog.String("component", "pgx")),
	}
}

func (l *pgxLogger) Log(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]interface{}) {
	attrs := make([]slog.Attr, 0, len(data))
	for k, v := range data {
		attrs = append(attrs, slog.Any(k, v))
	}

	switch level {
	case tracelog.LogLevelError:
		l.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	case tracelog.LogLevelWarn:
		l.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
	case tracelog.LogLevelInfo:
		l.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
	default:
		l.logger.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
	}
}
