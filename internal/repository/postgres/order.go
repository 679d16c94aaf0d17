package postgres

import (
	"context"
	"fmt"

	"github.com/insightmart/insightmart/internal/domain"
	"github.com/insightmart/insightmart/pkg/database"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	db database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(db database.DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order and its lines. Call it inside a transaction so a
// failed line insert cannot leave a partial order.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	query := `INSERT INTO orders (id, user_id, total_amount, created_at) VALUES ($1, $2, $3, $4)`

	ctx, end := database.TraceQuery(ctx, "orders.Create", query)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, query, o.ID, o.UserID, o.TotalAmount, o.CreatedAt); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, l := range o.Lines {
		_, err = r.db.Exec(ctx,
			`INSERT INTO order_items (order_id, position, product_id, quantity) VALUES ($1, $2, $3, $4)`,
			o.ID, i, l.ProductID, l.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order item %d: %w", i, err)
		}
	}
	return nil
}

// ListByUser returns a customer's orders, newest first, with lines in submitted order.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	query := `
		SELECT o.id, o.user_id, o.total_amount::text, o.created_at, i.product_id, i.quantity
		FROM orders o
		JOIN order_items i ON i.order_id = o.id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, o.id, i.position`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var (
			o        domain.Order
			rawTotal string
			line     domain.OrderLine
		)
		if err := rows.Scan(&o.ID, &o.UserID, &rawTotal, &o.CreatedAt, &line.ProductID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		if n := len(orders); n > 0 && orders[n-1].ID == o.ID {
			orders[n-1].Lines = append(orders[n-1].Lines, line)
			continue
		}

		if o.TotalAmount, err = parseDecimal("total_amount", rawTotal); err != nil {
			return nil, err
		}
		o.Lines = []domain.OrderLine{line}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, nil
}
