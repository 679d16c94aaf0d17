package http

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/insightmart/insightmart/internal/domain"
)

func TestSellerReport_TopLevelSections(t *testing.T) {
	env := newTestEnv(t)
	lamp := domain.ProductSales{ProductID: productID, Name: "Desk Lamp", TotalQuantity: 3, TotalSales: decimal.NewFromInt(270)}
	env.analytics.On("SellerReport", mock.Anything, sellerID).Return(&domain.SellerReport{
		SalesPerProduct:   []domain.ProductSales{lamp},
		MostOrdered:       []domain.ProductSales{lamp},
		OrderCount:        []domain.DailyOrderCount{{Date: "2026-03-01", Count: 2}},
		CategoryBreakdown: []domain.CategorySales{{Category: "lighting", TotalQuantity: 3, TotalSales: decimal.NewFromInt(270)}},
		Summary:           domain.AnalyticsSummary{TotalRevenue: decimal.NewFromInt(270), TotalUnits: 3, TotalProductsWithSales: 1, TotalOrderDays: 1},
	}, nil)

	rec := env.do(t, http.MethodGet, "/api/analytics", nil, sellerToken)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeJSON(t, rec)
	for _, key := range []string{"salesPerProduct", "mostOrdered", "orderCount", "categoryBreakdown", "summary"} {
		assert.Contains(t, body, key)
	}
	summary := body["summary"].(map[string]any)
	assert.Equal(t, float64(270), summary["totalRevenue"])
	assert.Equal(t, map[string]any{"_id": "2026-03-01", "count": float64(2)}, body["orderCount"].([]any)[0])
}

func TestSellerReport_ForbiddenForCustomers(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/analytics", nil, customerToken)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCustomerSummary(t *testing.T) {
	env := newTestEnv(t)
	env.analytics.On("CustomerSummary", mock.Anything, customerID).Return(domain.CustomerSummary{
		OrderCount: 2, TotalSpent: decimal.RequireFromString("199.90"), TotalUnits: 5,
	}, nil)

	rec := env.do(t, http.MethodGet, "/api/analytics/me", nil, customerToken)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, float64(2), body["orderCount"])
	assert.Equal(t, 199.9, body["totalSpent"])
	assert.Equal(t, float64(5), body["totalUnits"])
}
