package postgres

import (
	"context"
	"fmt"

	"github.com/insightmart/insightmart/internal/domain"
	"github.com/insightmart/insightmart/pkg/database"
)

// AnalyticsRepository implements repository.AnalyticsRepository using PostgreSQL.
type AnalyticsRepository struct {
	db database.DBTX
}

// NewAnalyticsRepository creates a new PostgreSQL-backed analytics repository.
func NewAnalyticsRepository(db database.DBTX) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// SellerOrderLines returns the order lines of sellerID's products joined with
// their current price, discount and category.
func (r *AnalyticsRepository) SellerOrderLines(ctx context.Context, sellerID string) (lines []domain.SellerOrderLine, err error) {
	query := `
		SELECT o.id, o.created_at, p.id, p.name, p.category, p.price::text, p.discount::text, i.quantity
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		JOIN products p ON p.id = i.product_id
		WHERE p.owner_id = $1
		ORDER BY o.created_at, o.id, i.position`

	ctx, end := database.TraceQuery(ctx, "analytics.SellerOrderLines", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, sellerID)
	if err != nil {
		return nil, fmt.Errorf("query seller order lines: %w", err)
	}
	defer rows.Close()

	lines = []domain.SellerOrderLine{}
	for rows.Next() {
		var (
			l                     domain.SellerOrderLine
			rawPrice, rawDiscount string
		)
		if err := rows.Scan(&l.OrderID, &l.OrderedAt, &l.ProductID, &l.Name, &l.Category, &rawPrice, &rawDiscount, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan seller order line: %w", err)
		}
		if l.Price, err = parseDecimal("price", rawPrice); err != nil {
			return nil, err
		}
		if l.Discount, err = parseDecimal("discount", rawDiscount); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seller order lines: %w", err)
	}
	return lines, nil
}
