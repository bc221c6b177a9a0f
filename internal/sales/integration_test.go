package sales

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/bizinsight360/bizinsight360/internal/products"
	"github.com/bizinsight360/bizinsight360/internal/shared"
)

// ============================================================================
// INTEGRATION TEST SUITE
// ============================================================================

// SaleWorkflowTestSuite drives sales through the HTTP handler down to the
// transactional repository.
type SaleWorkflowTestSuite struct {
	suite.Suite
	router chi.Router
	repo   *mockRepository
	inv    *countingInvalidator
	ctx    context.Context
}

// SetupTest runs before each test in the suite.
func (s *SaleWorkflowTestSuite) SetupTest() {
	svc, repo, inv := newTestService()
	s.repo, s.inv = repo, inv
	s.router = chi.NewRouter()
	s.router.Route("/sales", NewHandler(nil, svc).MountRoutes)
	s.ctx = context.Background()
}

func (s *SaleWorkflowTestSuite) sell(productID int64, qty int) (int, Sale) {
	rec := postSale(s.router, fmt.Sprintf(`{"productId":%d,"quantity":%d,"userId":1}`, productID, qty), "")
	var sale Sale
	if rec.Code == http.StatusCreated {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &sale))
	}
	return rec.Code, sale
}

// TestSaleDecrementsStockAndPricesExactly records a sale of two headphones.
func (s *SaleWorkflowTestSuite) TestSaleDecrementsStockAndPricesExactly() {
	code, sale := s.sell(1, 2)
	s.Require().Equal(http.StatusCreated, code)

	s.Equal(48, s.repo.products[1].Stock)
	s.True(sale.Total.Equal(decimal.RequireFromString("259.98")), "total %s", sale.Total)
	s.Equal("2025-10-27T12:00:00.000Z", sale.Date)
	s.Require().Len(s.repo.audits, 1)
	s.Equal(1, s.inv.calls)
}

// TestStockAndTotalHoldAcrossProducts checks every product's stock and
// total after a sale.
func (s *SaleWorkflowTestSuite) TestStockAndTotalHoldAcrossProducts() {
	catalog := []products.Product{
		{ID: 2, Name: "Desk", Stock: 7, Price: decimal.RequireFromString("300.00")},
		{ID: 3, Name: "Cable", Stock: 1000, Price: decimal.RequireFromString("0.10")},
		{ID: 4, Name: "Lamp", Stock: 3, Price: decimal.RequireFromString("19.99")},
	}
	for _, p := range catalog {
		s.repo.products[p.ID] = p
	}
	for _, p := range catalog {
		for _, qty := range []int{1, p.Stock - 1} {
			before := s.repo.products[p.ID]
			code, sale := s.sell(p.ID, qty)
			s.Require().Equal(http.StatusCreated, code, "product %d qty %d", p.ID, qty)
			s.Equal(before.Stock-qty, s.repo.products[p.ID].Stock)
			s.True(sale.Total.Equal(before.Price.Mul(decimal.NewFromInt(int64(qty)))), "product %d qty %d total %s", p.ID, qty, sale.Total)
		}
	}
}

// TestOverdrawLeavesStockUnchanged requests more than is on hand.
func (s *SaleWorkflowTestSuite) TestOverdrawLeavesStockUnchanged() {
	code, _ := s.sell(1, 51)
	s.Equal(http.StatusBadRequest, code)
	s.Equal(50, s.repo.products[1].Stock)
	s.Empty(s.repo.sales)
	s.Zero(s.inv.calls)
}

// TestUnknownReferencesHaveNoSideEffects covers missing products and users.
func (s *SaleWorkflowTestSuite) TestUnknownReferencesHaveNoSideEffects() {
	code, _ := s.sell(999, 1)
	s.Equal(http.StatusNotFound, code)

	rec := postSale(s.router, `{"productId":1,"quantity":1,"userId":999}`, "")
	s.Equal(http.StatusNotFound, rec.Code)

	s.Equal(50, s.repo.products[1].Stock)
	s.Empty(s.repo.sales)
	s.Empty(s.repo.audits)
	s.Zero(s.inv.calls)
}

// TestSequentialSalesConsumeRemainingStock drains a product in two sales.
func (s *SaleWorkflowTestSuite) TestSequentialSalesConsumeRemainingStock() {
	code, _ := s.sell(1, 30)
	s.Require().Equal(http.StatusCreated, code)
	code, _ = s.sell(1, 20)
	s.Require().Equal(http.StatusCreated, code)
	code, _ = s.sell(1, 1)
	s.Equal(http.StatusBadRequest, code)

	s.Equal(0, s.repo.products[1].Stock)
	s.Len(s.repo.sales, 2)

	_, err := s.repo.Get(s.ctx, 3)
	s.ErrorIs(err, shared.ErrNotFound)
}

// TestSaleWorkflowSuite runs the sale workflow suite.
func TestSaleWorkflowSuite(t *testing.T) {
	suite.Run(t, new(SaleWorkflowTestSuite))
}
