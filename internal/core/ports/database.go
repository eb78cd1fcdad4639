// internal/core/ports/database.go
package ports

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the statement surface of a single checked-out connection.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ConnectionPool lends a connection to fn and takes it back when fn returns.
type ConnectionPool interface {
	WithConn(ctx context.Context, fn func(Querier) error) error
}

// Database defines the port for database operations, abstracting away the
// concrete pool implementation from handlers that need basic DB access.
type Database interface {
	ConnectionPool
	Close()
	Ping(ctx context.Context) error
	Health(ctx context.Context) map[string]interface{}
}
