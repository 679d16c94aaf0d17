package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/insightmart/insightmart/internal/domain"
	"github.com/insightmart/insightmart/internal/repository"
	apperrors "github.com/insightmart/insightmart/pkg/errors"
)

// MaxOrderLines bounds the number of lines in one order.
const MaxOrderLines = 100

// OrderEvents publishes order lifecycle events.
type OrderEvents interface {
	OrderPlaced(ctx context.Context, order *domain.Order, sellerIDs []string) error
}

// CartClearer empties a customer's cart once an order is placed.
type CartClearer interface {
	ClearCart(ctx context.Context, userID string) error
}

// OrderLineInput is one requested line of a new order.
type OrderLineInput struct {
	ProductID string
	Quantity  int
}

// OrderService places and lists customer orders.
type OrderService struct {
	tx       repository.Transactor
	orders   repository.OrderRepository
	products repository.ProductRepository
	carts    CartClearer
	events   OrderEvents
	reports  ReportInvalidator
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	tx repository.Transactor,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	carts CartClearer,
	events OrderEvents,
	reports ReportInvalidator,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		tx:       tx,
		orders:   orders,
		products: products,
		carts:    carts,
		events:   events,
		reports:  reports,
		logger:   logger,
	}
}

// PlaceOrder validates stock for every line in submitted order, stores the
// order with a frozen total and decrements stock, all in one transaction.
// The rows are locked in product id order, so two orders for the last unit
// cannot both succeed and overlapping orders cannot deadlock.
//
// After commit the sellers' cached reports are dropped and order.placed is
// published. Clearing the cart comes last and is not compensated: if it
// fails the order stands and an internal error is returned.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, lines []OrderLineInput) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, apperrors.InvalidInput("No products given")
	}
	if len(lines) > MaxOrderLines {
		return nil, apperrors.InvalidInput(fmt.Sprintf("An order can contain at most %d lines", MaxOrderLines))
	}
	for _, l := range lines {
		if l.Quantity < 1 {
			return nil, apperrors.InvalidInput("Quantity must be at least 1")
		}
	}

	order := &domain.Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		Lines:     make([]domain.OrderLine, len(lines)),
		CreatedAt: time.Now().UTC(),
	}
	for i, l := range lines {
		order.Lines[i] = domain.OrderLine{ProductID: l.ProductID, Quantity: l.Quantity}
	}

	var sellerIDs []string
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		products := repos.Products()

		locked := make(map[string]*domain.Product, len(lines))
		for _, id := range lockOrder(order.Lines) {
			p, err := products.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			locked[id] = p
		}

		total := decimal.Zero
		for _, l := range order.Lines {
			p := locked[l.ProductID]
			switch {
			case p.Stock == 0:
				return apperrors.OutOfStock(p.Name)
			case p.Stock < l.Quantity:
				return apperrors.InsufficientStock(p.Name, p.Stock)
			}
			total = total.Add(domain.LineTotal(p.Price, p.Discount, l.Quantity))
		}
		order.TotalAmount = domain.RoundMoney(total)

		if err := repos.Orders().Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		// A product repeated across lines can pass the per-line check and
		// still run short here.
		for _, l := range order.Lines {
			p := locked[l.ProductID]
			ok, err := products.DecrementStock(ctx, l.ProductID, l.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if !ok {
				return apperrors.InsufficientStock(p.Name, p.Stock)
			}
			p.Stock -= l.Quantity
		}

		sellerIDs = distinctOwners(locked)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("user_id", userID),
		slog.String("total", order.TotalAmount.StringFixed(2)),
		slog.Int("items", order.ItemCount()),
	)

	invalidateReports(ctx, s.reports, s.logger, sellerIDs...)

	if s.events != nil {
		if err := s.events.OrderPlaced(ctx, order, sellerIDs); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish order.placed event",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.carts.ClearCart(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "order placed but cart was not cleared",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Internal(fmt.Errorf("clear cart after order %s: %w", order.ID, err))
	}

	return order, nil
}

// lockOrder returns the distinct product ids of lines, sorted.
func lockOrder(lines []domain.OrderLine) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	sort.Strings(ids)
	return ids
}

func distinctOwners(products map[string]*domain.Product) []string {
	seen := make(map[string]struct{}, len(products))
	owners := []string{}
	for _, p := range products {
		if p.OwnerID == nil {
			continue
		}
		if _, ok := seen[*p.OwnerID]; ok {
			continue
		}
		seen[*p.OwnerID] = struct{}{}
		owners = append(owners, *p.OwnerID)
	}
	return owners
}

// ListOrders returns the customer's orders, newest first, with product
// details attached to lines whose product still exists.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if len(orders) == 0 {
		return []domain.Order{}, nil
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, o := range orders {
		for _, l := range o.Lines {
			if _, ok := seen[l.ProductID]; !ok {
				seen[l.ProductID] = struct{}{}
				ids = append(ids, l.ProductID)
			}
		}
	}

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load order products: %w", err)
	}
	byID := indexProducts(products)
	for i := range orders {
		for j := range orders[i].Lines {
			if p, ok := byID[orders[i].Lines[j].ProductID]; ok {
				orders[i].Lines[j].Product = p.Summary()
			}
		}
	}
	return orders, nil
}
