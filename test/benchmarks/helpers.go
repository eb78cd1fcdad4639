// test/benchmarks/helpers.go
package benchmarks

import (
	"context"
	"fmt"
	"time"

	"github.com/ammerola/consum-be/internal/core/domain"
	"github.com/ammerola/consum-be/internal/core/ports"
	"github.com/ammerola/consum-be/test/helpers"
)

// orderColumns matches the column order of a cons_orders result row
var orderColumns = []string{
	"cons_id", "order_state", "income_date", "account_num", "account_date",
	"by_self", "has_trust", "seller_id", "trust_num", "trust_ser", "comment",
}

// orderValues builds driver-shaped values for one order row. Every fourth row
// carries NULLs in the optional columns.
func orderValues(i int) []any {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour)
	if i%4 == 0 {
		return []any{int32(i), nil, nil, nil, nil, nil, nil, int64(i % 50), nil, nil, nil}
	}
	return []any{
		int32(i), int16(1), ts, fmt.Sprintf("A-%05d", i), ts.Add(-24 * time.Hour),
		false, true, int64(i % 50), int32(i), "AB", "bench",
	}
}

// seedOrders registers n orders and returns their identities
func seedOrders(ctx context.Context, repo ports.OrderRepository, n int) ([]int32, error) {
	ids := make([]int32, 0, n)
	for i := 0; i < n; i++ {
		o, err := repo.CreateOrder(ctx, helpers.NewCreateOrder(func(in *domain.CreateOrder) {
			in.AccountNum = helpers.Ptr(fmt.Sprintf("SEED-%d", i))
			in.SellerID = int32(i % 50)
		}))
		if err != nil {
			return nil, err
		}
		ids = append(ids, o.ConsID)
	}
	return ids, nil
}
