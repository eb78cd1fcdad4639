// internal/adapters/db/order_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ammerola/consum-be/internal/core/domain"
	"github.com/ammerola/consum-be/internal/core/ports"
)

// DefaultOrdersLimit bounds GetOrders when no limit is configured
const DefaultOrdersLimit = 100

const orderColumns = `
	cons_id, order_state, income_date, account_num, account_date,
	by_self, has_trust, seller_id, trust_num, trust_ser, comment`

// orderRepository implements ports.OrderRepository
type orderRepository struct {
	db     ports.ConnectionPool
	limit  int
	logger *slog.Logger
}

// NewOrderRepository creates a new order repository. limit bounds the list
// query; values below 1 fall back to DefaultOrdersLimit.
func NewOrderRepository(db ports.ConnectionPool, limit int, logger *slog.Logger) ports.OrderRepository {
	if limit < 1 {
		limit = DefaultOrdersLimit
	}
	return &orderRepository{
		db:     db,
		limit:  limit,
		logger: logger.With(slog.String("repository", "order")),
	}
}

// GetOrders returns the first orders by identity
func (r *orderRepository) GetOrders(ctx context.Context) ([]domain.Order, error) {
	query := `SELECT` + orderColumns + `
		FROM cons_orders
		ORDER BY cons_id
		LIMIT $1`

	var orders []domain.Order
	err := r.db.WithConn(ctx, func(q ports.Querier) error {
		var err error
		orders, err = queryAll(ctx, q, "query orders", mapOrder, query, r.limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "orders loaded", slog.Int("count", len(orders)))
	return orders, nil
}

// GetOrder retrieves an order by ID
func (r *orderRepository) GetOrder(ctx context.Context, id int32) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithConn(ctx, func(q ports.Querier) error {
		var err error
		order, err = r.getOrder(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) getOrder(ctx context.Context, q ports.Querier, id int32) (domain.Order, error) {
	query := `SELECT` + orderColumns + `
		FROM cons_orders
		WHERE cons_id = $1`

	return queryOne(ctx, q, "query order", mapOrder, query, id)
}

// CreateOrder registers a new order through up_new_account and returns the
// stored row
func (r *orderRepository) CreateOrder(ctx context.Context, in domain.CreateOrder) (*domain.Order, error) {
	query := `SELECT up_new_account($1, $2, $3, $4, $5, $6, $7, $8, $9) AS id`

	var order domain.Order
	err := r.db.WithConn(ctx, func(q ports.Querier) error {
		id, err := insertReturningID(ctx, q, "create order", query,
			in.AccountNum, in.AccountDate.Ptr(), in.IncomeDate.Ptr(),
			in.HasTrust, in.TrustSer, in.TrustNum,
			in.SellerID, in.BySelf, in.Comment,
		)
		if err != nil {
			return err
		}

		order, err = r.getOrder(ctx, q, id)
		if err != nil {
			return fmt.Errorf("failed to reload order %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "order created",
		slog.Int("cons_id", int(order.ConsID)),
		slog.Int("seller_id", int(order.SellerID)))

	return &order, nil
}

func mapOrder(row Row) (domain.Order, error) {
	var (
		o   domain.Order
		err error
	)

	if o.ConsID, err = Required[int32](row, "cons_id"); err != nil {
		return o, err
	}
	o.OrderState = Defaulted[int32](row, "order_state")
	if o.IncomeDate, err = DateTime(row, "income_date"); err != nil {
		return o, err
	}
	if o.AccountNum, err = String(row, "account_num"); err != nil {
		return o, err
	}
	if o.AccountDate, err = DateTime(row, "account_date"); err != nil {
		return o, err
	}
	if o.BySelf, err = Optional[bool](row, "by_self"); err != nil {
		return o, err
	}
	if o.HasTrust, err = Optional[bool](row, "has_trust"); err != nil {
		return o, err
	}
	o.SellerID = Defaulted[int32](row, "seller_id")
	if o.TrustNum, err = Optional[int32](row, "trust_num"); err != nil {
		return o, err
	}
	if o.TrustSer, err = String(row, "trust_ser"); err != nil {
		return o, err
	}
	if o.Comment, err = String(row, "comment"); err != nil {
		return o, err
	}

	return o, nil
}
