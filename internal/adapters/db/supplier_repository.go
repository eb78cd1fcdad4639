// internal/adapters/db/supplier_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ammerola/consum-be/internal/core/domain"
	"github.com/ammerola/consum-be/internal/core/ports"
)

const supplierColumns = `supplier_id, supplier_name, inn, address, phone, comment`

// supplierRepository implements ports.SupplierRepository
type supplierRepository struct {
	db     ports.ConnectionPool
	logger *slog.Logger
}

// NewSupplierRepository creates a new supplier repository
func NewSupplierRepository(db ports.ConnectionPool, logger *slog.Logger) ports.SupplierRepository {
	return &supplierRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "supplier")),
	}
}

// GetSupplierByID retrieves a supplier by ID
func (r *supplierRepository) GetSupplierByID(ctx context.Context, id int32) (*domain.Supplier, error) {
	var s domain.Supplier
	err := r.db.WithConn(ctx, func(q ports.Querier) error {
		var err error
		s, err = r.getSupplier(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSupplierByName retrieves the first supplier with an exactly matching name
func (r *supplierRepository) GetSupplierByName(ctx context.Context, name string) (*domain.Supplier, error) {
	query := `SELECT ` + supplierColumns + `
		FROM cons_suppliers
		WHERE supplier_name = $1
		ORDER BY supplier_id
		LIMIT 1`

	var s domain.Supplier
	err := r.db.WithConn(ctx, func(q ports.Querier) error {
		var err error
		s, err = queryOne(ctx, q, "query supplier by name", mapSupplier, query, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *supplierRepository) getSupplier(ctx context.Context, q ports.Querier, id int32) (domain.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM cons_suppliers WHERE supplier_id = $1`
	return queryOne(ctx, q, "query supplier", mapSupplier, query, id)
}

// CreateSupplier inserts a supplier and returns the stored row
func (r *supplierRepository) CreateSupplier(ctx context.Context, in domain.CreateSupplier) (*domain.Supplier, error) {
	query := `
		INSERT INTO cons_suppliers (supplier_name, inn, address, phone, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING supplier_id AS id`

	var s domain.Supplier
	err := r.db.WithConn(ctx, func(q ports.Querier) error {
		id, err := insertReturningID(ctx, q, "create supplier", query,
			in.SupplierName, in.INN, in.Address, in.Phone, in.Comment)
		if err != nil {
			return err
		}

		s, err = r.getSupplier(ctx, q, id)
		if err != nil {
			return fmt.Errorf("failed to reload supplier %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "supplier created",
		slog.Int("supplier_id", int(s.SupplierID)),
		slog.String("supplier_name", s.SupplierName))

	return &s, nil
}

func mapSupplier(row Row) (domain.Supplier, error) {
	var (
		s   domain.Supplier
		err error
	)

	if s.SupplierID, err = Required[int32](row, "supplier_id"); err != nil {
		return s, err
	}
	if s.SupplierName, err = Required[string](row, "supplier_name"); err != nil {
		return s, err
	}
	if s.INN, err = String(row, "inn"); err != nil {
		return s, err
	}
	if s.Address, err = String(row, "address"); err != nil {
		return s, err
	}
	if s.Phone, err = String(row, "phone"); err != nil {
		return s, err
	}
	if s.Comment, err = String(row, "comment"); err != nil {
		return s, err
	}

	return s, nil
}
