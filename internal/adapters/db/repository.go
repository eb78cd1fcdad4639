// internal/adapters/db/repository.go
package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/ammerola/consum-be/internal/core/domain"
	"github.com/ammerola/consum-be/internal/core/ports"
)

// queryAll runs a query and maps every row. No rows is an empty slice.
func queryAll[T any](ctx context.Context, q ports.Querier, op string, mapFn func(Row) (T, error), sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, statementError(op, err)
	}

	items, err := pgx.CollectRows(rows, RowMapper(mapFn))
	if err != nil {
		return nil, statementError(op, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// queryOne runs a query expected to return at most one row.
func queryOne[T any](ctx context.Context, q ports.Querier, op string, mapFn func(Row) (T, error), sql string, args ...any) (T, error) {
	var zero T

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return zero, statementError(op, err)
	}

	item, err := pgx.CollectOneRow(rows, RowMapper(mapFn))
	if err != nil {
		return zero, statementError(op, err)
	}
	return item, nil
}

// execAffecting runs a statement and fails with ErrRecordNotFound when it
// touched no rows.
func execAffecting(ctx context.Context, q ports.Querier, op string, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return statementError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// insertReturningID runs a write whose result set carries the new identity
// in an "id" column.
func insertReturningID(ctx context.Context, q ports.Querier, op string, sql string, args ...any) (int32, error) {
	id, err := queryOne(ctx, q, op, func(r Row) (*int32, error) {
		return Optional[int32](r, "id")
	}, sql, args...)
	if err != nil {
		return 0, err
	}
	if id == nil {
		return 0, domain.ErrRecordNotFound
	}
	return *id, nil
}

// statementError classifies err. Row mapping errors and pool errors pass
// through untouched, no rows becomes ErrRecordNotFound and the rest is
// attributed to the statement.
func statementError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return domain.ErrRecordNotFound
	case domain.IsMappingError(err),
		errors.Is(err, domain.ErrRecordNotFound):
		return err
	default:
		return &domain.StatementError{Op: op, Err: err}
	}
}
