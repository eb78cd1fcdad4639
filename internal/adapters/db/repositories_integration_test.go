//go:build integration
// +build integration

package db_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ammerola/consum-be/internal/adapters/db"
	"github.com/ammerola/consum-be/internal/core/domain"
	"github.com/ammerola/consum-be/internal/core/ports"
	"github.com/ammerola/consum-be/test/helpers"
)

type RepositoriesSuite struct {
	suite.Suite
	testDB     *helpers.TestDB
	orders     ports.OrderRepository
	categories ports.CategoryRepository
	suppliers  ports.SupplierRepository
	ctx        context.Context
}

func (s *RepositoriesSuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.orders = db.NewOrderRepository(s.testDB.Database, 2, helpers.TestLogger())
	s.categories = db.NewCategoryRepository(s.testDB.Database, helpers.TestLogger())
	s.suppliers = db.NewSupplierRepository(s.testDB.Database, helpers.TestLogger())
	s.ctx = context.Background()
}

func (s *RepositoriesSuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.Database)
}

func (s *RepositoriesSuite) TestCreateOrder_RoundTrip() {
	in := helpers.NewCreateOrder()

	created, err := s.orders.CreateOrder(s.ctx, in)
	s.Require().NoError(err)
	s.Positive(created.ConsID)
	s.Equal(int32(1), created.OrderState)
	s.True(in.IncomeDate.Equal(created.IncomeDate))
	s.True(in.AccountDate.Equal(created.AccountDate))
	s.Equal(*in.AccountNum, *created.AccountNum)
	s.Equal(*in.TrustNum, *created.TrustNum)
	s.Equal(*in.TrustSer, *created.TrustSer)
	s.Equal(in.SellerID, created.SellerID)

	fetched, err := s.orders.GetOrder(s.ctx, created.ConsID)
	s.Require().NoError(err)
	s.Equal(created, fetched)
}

func (s *RepositoriesSuite) TestCreateOrder_NullableFields() {
	created, err := s.orders.CreateOrder(s.ctx, domain.CreateOrder{SellerID: 3})
	s.Require().NoError(err)

	s.False(created.IncomeDate.Valid)
	s.False(created.AccountDate.Valid)
	s.Nil(created.AccountNum)
	s.Nil(created.TrustNum)
	s.Nil(created.Comment)
}

func (s *RepositoriesSuite) TestGetOrders_AppliesLimit() {
	for i := 0; i < 3; i++ {
		_, err := s.orders.CreateOrder(s.ctx, helpers.NewCreateOrder())
		s.Require().NoError(err)
	}

	orders, err := s.orders.GetOrders(s.ctx)
	s.Require().NoError(err)
	s.Len(orders, 2)
	s.Less(orders[0].ConsID, orders[1].ConsID)
}

func (s *RepositoriesSuite) TestGetOrder_NotFound() {
	_, err := s.orders.GetOrder(s.ctx, 4242)
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *RepositoriesSuite) TestCategories_Lifecycle() {
	parent, err := s.categories.CreateCategory(s.ctx, helpers.NewCreateCategory())
	s.Require().NoError(err)
	s.Nil(parent.ParentID)

	child, err := s.categories.CreateCategory(s.ctx, helpers.NewCreateCategory(func(c *domain.CreateCategory) {
		c.ParentID = &parent.CatID
		c.CatName = helpers.Ptr("Apples")
	}))
	s.Require().NoError(err)
	s.Equal(parent.CatID, *child.ParentID)

	all, err := s.categories.GetCategories(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 2)

	s.Require().NoError(s.categories.DeleteCategory(s.ctx, child.CatID))
	_, err = s.categories.GetCategory(s.ctx, child.CatID)
	s.ErrorIs(err, domain.ErrRecordNotFound)

	s.ErrorIs(s.categories.DeleteCategory(s.ctx, child.CatID), domain.ErrRecordNotFound)
}

func (s *RepositoriesSuite) TestCategories_DeleteReferencedParentFails() {
	parent, err := s.categories.CreateCategory(s.ctx, helpers.NewCreateCategory())
	s.Require().NoError(err)
	_, err = s.categories.CreateCategory(s.ctx, helpers.NewCreateCategory(func(c *domain.CreateCategory) {
		c.ParentID = &parent.CatID
	}))
	s.Require().NoError(err)

	err = s.categories.DeleteCategory(s.ctx, parent.CatID)
	var stmtErr *domain.StatementError
	s.ErrorAs(err, &stmtErr)
}

func (s *RepositoriesSuite) TestSuppliers() {
	created, err := s.suppliers.CreateSupplier(s.ctx, helpers.NewCreateSupplier())
	s.Require().NoError(err)

	byID, err := s.suppliers.GetSupplierByID(s.ctx, created.SupplierID)
	s.Require().NoError(err)
	s.Equal(created, byID)

	_, err = s.suppliers.CreateSupplier(s.ctx, helpers.NewCreateSupplier())
	s.Require().NoError(err)

	byName, err := s.suppliers.GetSupplierByName(s.ctx, "Acme Farms")
	s.Require().NoError(err)
	s.Equal(created.SupplierID, byName.SupplierID)

	_, err = s.suppliers.GetSupplierByName(s.ctx, "acme farms")
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *RepositoriesSuite) TestPool_ConcurrentCallersShareBoundedConnections() {
	var wg sync.WaitGroup
	errs := make(chan error, 20)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.orders.GetOrders(s.ctx)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.NoError(err)
	}

	stat := s.testDB.Database.Pool().Stat()
	s.LessOrEqual(stat.OpenConns, s.testDB.Config.MaxConnections)
	s.Zero(stat.InUseConns)
}

func (s *RepositoriesSuite) TestHealth() {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	s.Require().NoError(s.testDB.Database.Ping(ctx))
	s.Equal("healthy", s.testDB.Database.Health(ctx)["status"])
}

func TestRepositoriesSuite(t *testing.T) {
	suite.Run(t, new(RepositoriesSuite))
}
