package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/consum-be/internal/adapters/db"
	"github.com/ammerola/consum-be/internal/core/domain"
	"github.com/ammerola/consum-be/test/helpers"
)

var orderCols = []string{
	"cons_id", "order_state", "income_date", "account_num", "account_date",
	"by_self", "has_trust", "seller_id", "trust_num", "trust_ser", "comment",
}

var categoryCols = []string{"cat_id", "parent_id", "cat_name", "cat_unit_code", "code"}

var supplierCols = []string{"supplier_id", "supplier_name", "inn", "address", "phone", "comment"}

func TestOrderRepository_GetOrders(t *testing.T) {
	income := time.Date(2023, 5, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		rows      *fakeRows
		queryErr  error
		wantLen   int
		wantError func(t *testing.T, err error)
	}{
		{
			name:    "empty_table_is_empty_list",
			rows:    newRows(orderCols),
			wantLen: 0,
		},
		{
			name: "maps_rows_with_nulls",
			rows: newRows(orderCols,
				[]any{int32(1), int32(2), income, "A-1", nil, true, nil, int32(7), int32(3), "AB", nil},
				[]any{int32(2), nil, nil, nil, nil, nil, false, nil, nil, nil, "note"},
			),
			wantLen: 2,
		},
		{
			name: "null_identity_is_missing_required_field",
			rows: newRows(orderCols,
				[]any{nil, int32(0), nil, nil, nil, nil, nil, int32(0), nil, nil, nil},
			),
			wantError: func(t *testing.T, err error) {
				var missing *domain.MissingRequiredFieldError
				require.ErrorAs(t, err, &missing)
				assert.Equal(t, "cons_id", missing.Column)
			},
		},
		{
			name:     "driver_failure_is_statement_error",
			queryErr: errors.New("relation \"cons_orders\" does not exist"),
			wantError: func(t *testing.T, err error) {
				var stmt *domain.StatementError
				require.ErrorAs(t, err, &stmt)
				assert.Equal(t, "query orders", stmt.Op)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &fakeConn{}
			conn.push(result{rows: tt.rows, err: tt.queryErr})
			pool := newQuerierPool(t, conn)
			repo := db.NewOrderRepository(pool, 0, helpers.TestLogger())

			orders, err := repo.GetOrders(context.Background())
			assert.Equal(t, int32(0), pool.Stat().InUseConns)

			if tt.wantError != nil {
				tt.wantError(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, orders)
			assert.Len(t, orders, tt.wantLen)

			calls := conn.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, []any{db.DefaultOrdersLimit}, calls[0].args)
		})
	}
}

func TestOrderRepository_GetOrders_FieldMapping(t *testing.T) {
	income := time.Date(2023, 5, 1, 9, 30, 0, 0, time.UTC)
	conn := &fakeConn{}
	conn.push(result{rows: newRows(orderCols,
		[]any{int32(1), int32(2), income, "A-1", nil, true, nil, int32(7), int64(3), "AB", nil},
	)})
	repo := db.NewOrderRepository(newQuerierPool(t, conn), 25, helpers.TestLogger())

	orders, err := repo.GetOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)

	o := orders[0]
	assert.Equal(t, int32(1), o.ConsID)
	assert.Equal(t, int32(2), o.OrderState)
	assert.True(t, o.IncomeDate.Valid)
	assert.True(t, income.Equal(o.IncomeDate.Time))
	assert.Equal(t, "A-1", *o.AccountNum)
	assert.False(t, o.AccountDate.Valid)
	assert.True(t, *o.BySelf)
	assert.Nil(t, o.HasTrust)
	assert.Equal(t, int32(7), o.SellerID)
	assert.Equal(t, int32(3), *o.TrustNum)
	assert.Equal(t, "AB", *o.TrustSer)
	assert.Nil(t, o.Comment)

	assert.Equal(t, []any{25}, conn.Calls()[0].args)
}

func TestOrderRepository_GetOrder_NotFound(t *testing.T) {
	conn := &fakeConn{}
	conn.push(result{rows: newRows(orderCols)})
	repo := db.NewOrderRepository(newQuerierPool(t, conn), 0, helpers.TestLogger())

	order, err := repo.GetOrder(context.Background(), 404)
	assert.Nil(t, order)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	assert.Equal(t, []any{int32(404)}, conn.Calls()[0].args)
}

func TestOrderRepository_CreateOrder(t *testing.T) {
	accountNum := "ACC-9"
	in := domain.CreateOrder{
		AccountNum: &accountNum,
		IncomeDate: domain.NewDateTime(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)),
		SellerID:   4,
	}

	t.Run("rereads_created_order", func(t *testing.T) {
		conn := &fakeConn{}
		conn.push(result{rows: newRows([]string{"id"}, []any{int32(55)})})
		conn.push(result{rows: newRows(orderCols,
			[]any{int32(55), int32(1), in.IncomeDate.Time, accountNum, nil, nil, nil, int32(4), nil, nil, nil},
		)})
		pool := newQuerierPool(t, conn)
		repo := db.NewOrderRepository(pool, 0, helpers.TestLogger())

		order, err := repo.CreateOrder(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, int32(55), order.ConsID)
		assert.Equal(t, int32(1), order.OrderState, "state comes from the stored row")
		assert.Equal(t, accountNum, *order.AccountNum)

		calls := conn.Calls()
		require.Len(t, calls, 2)
		assert.Contains(t, calls[0].sql, "up_new_account")
		assert.Len(t, calls[0].args, 9)
		assert.Equal(t, []any{int32(55)}, calls[1].args)
		assert.Equal(t, uint64(1), pool.Stat().AcquireCount, "both statements share one connection")
	})

	t.Run("null_identity_is_not_found", func(t *testing.T) {
		conn := &fakeConn{}
		conn.push(result{rows: newRows([]string{"id"}, []any{nil})})
		repo := db.NewOrderRepository(newQuerierPool(t, conn), 0, helpers.TestLogger())

		_, err := repo.CreateOrder(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
		assert.Len(t, conn.Calls(), 1)
	})

	t.Run("no_identity_row_is_not_found", func(t *testing.T) {
		conn := &fakeConn{}
		conn.push(result{rows: newRows([]string{"id"})})
		repo := db.NewOrderRepository(newQuerierPool(t, conn), 0, helpers.TestLogger())

		_, err := repo.CreateOrder(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})
}

func TestCategoryRepository_CreateCategory(t *testing.T) {
	name := "Fruit"
	in := domain.CreateCategory{ParentID: nil, CatName: &name, CatUnitCode: 1, Code: 100}

	conn := &fakeConn{}
	conn.push(result{rows: newRows([]string{"id"}, []any{int32(12)})})
	conn.push(result{rows: newRows(categoryCols, []any{int32(12), nil, "Fruit", int32(1), int32(100)})})
	repo := db.NewCategoryRepository(newQuerierPool(t, conn), helpers.TestLogger())

	cat, err := repo.CreateCategory(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, &domain.Category{
		CatID:       12,
		ParentID:    nil,
		CatName:     &name,
		CatUnitCode: 1,
		Code:        100,
	}, cat)

	calls := conn.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []any{in.ParentID, in.CatName, int32(1), int32(100)}, calls[0].args)
	assert.Equal(t, []any{int32(12)}, calls[1].args)
}

func TestCategoryRepository_GetCategories(t *testing.T) {
	conn := &fakeConn{}
	conn.push(result{rows: newRows(categoryCols,
		[]any{int32(1), nil, "Root", nil, nil},
		[]any{int32(2), int64(1), nil, int16(3), int32(200)},
	)})
	repo := db.NewCategoryRepository(newQuerierPool(t, conn), helpers.TestLogger())

	cats, err := repo.GetCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 2)

	assert.Nil(t, cats[0].ParentID)
	assert.Equal(t, int32(0), cats[0].CatUnitCode)
	assert.Equal(t, int32(1), *cats[1].ParentID)
	assert.Nil(t, cats[1].CatName)
	assert.Equal(t, int32(3), cats[1].CatUnitCode)
	assert.Equal(t, int32(200), cats[1].Code)
}

func TestCategoryRepository_GetCategory_ConversionError(t *testing.T) {
	conn := &fakeConn{}
	conn.push(result{rows: newRows(categoryCols, []any{int32(1), "not-a-number", nil, nil, nil})})
	repo := db.NewCategoryRepository(newQuerierPool(t, conn), helpers.TestLogger())

	_, err := repo.GetCategory(context.Background(), 1)
	var conv *domain.ConversionError
	require.ErrorAs(t, err, &conv)
	assert.Equal(t, "parent_id", conv.Column)
}

func TestCategoryRepository_DeleteCategory(t *testing.T) {
	tests := []struct {
		name    string
		res     result
		wantErr error
	}{
		{name: "deleted", res: result{tag: "DELETE 1"}},
		{name: "missing_row", res: result{tag: "DELETE 0"}, wantErr: domain.ErrRecordNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &fakeConn{}
			conn.push(tt.res)
			pool := newQuerierPool(t, conn)
			repo := db.NewCategoryRepository(pool, helpers.TestLogger())

			err := repo.DeleteCategory(context.Background(), 9)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, int32(0), pool.Stat().InUseConns)
		})
	}
}

func TestSupplierRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("get_by_name", func(t *testing.T) {
		conn := &fakeConn{}
		conn.push(result{rows: newRows(supplierCols, []any{int32(3), "Acme & Sons", "7707083893", nil, "+7 495", nil})})
		repo := db.NewSupplierRepository(newQuerierPool(t, conn), helpers.TestLogger())

		s, err := repo.GetSupplierByName(ctx, "Acme & Sons")
		require.NoError(t, err)
		assert.Equal(t, int32(3), s.SupplierID)
		assert.Equal(t, "7707083893", *s.INN)
		assert.Nil(t, s.Address)
		assert.Equal(t, []any{"Acme & Sons"}, conn.Calls()[0].args)
	})

	t.Run("get_by_id_not_found", func(t *testing.T) {
		conn := &fakeConn{}
		conn.push(result{rows: newRows(supplierCols)})
		repo := db.NewSupplierRepository(newQuerierPool(t, conn), helpers.TestLogger())

		_, err := repo.GetSupplierByID(ctx, 1)
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("null_name_is_missing_required_field", func(t *testing.T) {
		conn := &fakeConn{}
		conn.push(result{rows: newRows(supplierCols, []any{int32(3), nil, nil, nil, nil, nil})})
		repo := db.NewSupplierRepository(newQuerierPool(t, conn), helpers.TestLogger())

		_, err := repo.GetSupplierByID(ctx, 3)
		var missing *domain.MissingRequiredFieldError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "supplier_name", missing.Column)
	})

	t.Run("create", func(t *testing.T) {
		conn := &fakeConn{}
		conn.push(result{rows: newRows([]string{"id"}, []any{int32(8)})})
		conn.push(result{rows: newRows(supplierCols, []any{int32(8), "Acme", nil, nil, nil, nil})})
		repo := db.NewSupplierRepository(newQuerierPool(t, conn), helpers.TestLogger())

		s, err := repo.CreateSupplier(ctx, domain.CreateSupplier{SupplierName: "Acme"})
		require.NoError(t, err)
		assert.Equal(t, int32(8), s.SupplierID)
		assert.Equal(t, "Acme", s.SupplierName)
	})

	t.Run("insert_failure_is_statement_error", func(t *testing.T) {
		conn := &fakeConn{}
		conn.push(result{err: errors.New("duplicate key value violates unique constraint")})
		repo := db.NewSupplierRepository(newQuerierPool(t, conn), helpers.TestLogger())

		_, err := repo.CreateSupplier(ctx, domain.CreateSupplier{SupplierName: "Acme"})
		var stmt *domain.StatementError
		require.ErrorAs(t, err, &stmt)
		assert.Equal(t, "create supplier", stmt.Op)
	})
}

func TestRepository_CancelledQueryDoesNotLeakConnection(t *testing.T) {
	conn := &fakeConn{block: true}
	pool := newQuerierPool(t, conn)
	repo := db.NewOrderRepository(pool, 0, helpers.TestLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := repo.GetOrders(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	stat := pool.Stat()
	assert.Equal(t, int32(0), stat.InUseConns)
	assert.Equal(t, int32(0), stat.OpenConns)
	assert.Equal(t, uint64(1), stat.DiscardedCount)
}
