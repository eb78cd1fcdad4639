// internal/core/ports/repositories.go
package ports

import (
	"context"

	"github.com/ammerola/consum-be/internal/core/domain"
)

// OrderRepository defines the persistence port for orders.
// Lookups that match nothing fail with domain.ErrRecordNotFound.
type OrderRepository interface {
	GetOrders(ctx context.Context) ([]domain.Order, error)
	GetOrder(ctx context.Context, id int32) (*domain.Order, error)
	CreateOrder(ctx context.Context, in domain.CreateOrder) (*domain.Order, error)
}

// CategoryRepository defines the persistence port for categories.
type CategoryRepository interface {
	GetCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id int32) (*domain.Category, error)
	CreateCategory(ctx context.Context, in domain.CreateCategory) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int32) error
}

// SupplierRepository defines the persistence port for suppliers.
type SupplierRepository interface {
	GetSupplierByID(ctx context.Context, id int32) (*domain.Supplier, error)
	GetSupplierByName(ctx context.Context, name string) (*domain.Supplier, error)
	CreateSupplier(ctx context.Context, in domain.CreateSupplier) (*domain.Supplier, error)
}
