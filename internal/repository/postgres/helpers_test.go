package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/insightmart/insightmart/internal/domain"
	"github.com/insightmart/insightmart/pkg/database"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func strPtr(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

const (
	sellerID   = "5b0d6c8e-3c1f-4f4e-9d0a-1e2f3a4b5c6d"
	customerID = "7c1e8a9f-0b2d-4e3c-8f1a-2b3c4d5e6f70"
	productID  = "0b6f0b8e-8a4e-4d8e-9d6a-2f1d3c4b5a69"
)

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

var productCols = []string{
	"id", "name", "slug", "sku", "price", "discount", "category",
	"rating", "reviews", "stock", "owner_id", "created_at", "updated_at",
}

var productColsWithCount = append(append([]string{}, productCols...), "total_count")

func sampleProduct() domain.Product {
	return domain.Product{
		ID:        productID,
		Name:      "Desk Lamp",
		Slug:      "desk-lamp-lamp-01",
		SKU:       "LAMP-01",
		Price:     dec("100"),
		Discount:  dec("10"),
		Category:  "lighting",
		Rating:    4.5,
		Reviews:   2,
		Stock:     3,
		OwnerID:   strPtr(sellerID),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func productRow(p domain.Product) []any {
	return []any{
		p.ID, p.Name, p.Slug, p.SKU, p.Price.String(), p.Discount.String(), p.Category,
		p.Rating, p.Reviews, p.Stock, p.OwnerID, p.CreatedAt, p.UpdatedAt,
	}
}
