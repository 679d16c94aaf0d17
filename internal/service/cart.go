package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/insightmart/insightmart/internal/domain"
	"github.com/insightmart/insightmart/internal/repository"
	apperrors "github.com/insightmart/insightmart/pkg/errors"
)

// maxCartWriteAttempts bounds optimistic-lock retries on a contended cart.
const maxCartWriteAttempts = 3

var errCartContended = apperrors.Conflict("cart was modified concurrently, please retry")

func errItemNotInCart() error {
	err := apperrors.NotFound("Item")
	err.Message = "Item not found in cart"
	return err
}

// CartService implements cart operations. Every write is a versioned
// read-modify-write retried on a lost race.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	logger   *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(carts repository.CartRepository, products repository.ProductRepository, logger *slog.Logger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		logger:   logger,
	}
}

// GetCart returns the customer's cart with product details filled in. A
// customer without a cart gets an empty one, which is not stored.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return &domain.Cart{UserID: userID, Items: []domain.CartLine{}}, nil
	case err != nil:
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return s.withProducts(ctx, cart)
}

// AddItem adds quantity units of a product, merging with an existing line.
// The cart is created on first use. Stock is not checked here.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, apperrors.InvalidInput("Quantity must be at least 1")
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	cart, err := s.mutate(ctx, userID, true, func(c *domain.Cart) (bool, error) {
		c.Add(productID, quantity)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)
	return cart, nil
}

// UpdateItem sets a line's quantity. Zero removes the line.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity < 0 {
		return nil, apperrors.InvalidInput("Quantity must not be negative")
	}

	cart, err := s.mutate(ctx, userID, false, func(c *domain.Cart) (bool, error) {
		i := c.FindLine(productID)
		if i < 0 {
			return false, errItemNotInCart()
		}
		if quantity == 0 {
			c.Remove(productID)
		} else {
			c.Items[i].Quantity = quantity
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart item updated",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)
	return cart, nil
}

// RemoveItem drops a line. Removing an absent line is not an error.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, false, func(c *domain.Cart) (bool, error) {
		return c.Remove(productID), nil
	})
}

// ClearCart empties the customer's cart. A customer without a cart is left
// without one.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get cart: %w", err)
	}

	cart.Items = []domain.CartLine{}
	cart.UpdatedAt = time.Now().UTC()
	if err := s.carts.Save(ctx, cart); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// mutate loads the cart, applies fn and saves it if the stored version has
// not moved. fn reports whether it changed anything. create allows a missing
// cart to start empty.
func (s *CartService) mutate(ctx context.Context, userID string, create bool, fn func(*domain.Cart) (bool, error)) (*domain.Cart, error) {
	for attempt := 0; attempt < maxCartWriteAttempts; attempt++ {
		cart, err := s.carts.Get(ctx, userID)
		switch {
		case errors.Is(err, apperrors.ErrNotFound) && create:
			now := time.Now().UTC()
			cart = &domain.Cart{
				ID:        uuid.New().String(),
				UserID:    userID,
				Items:     []domain.CartLine{},
				CreatedAt: now,
			}
		case errors.Is(err, apperrors.ErrNotFound):
			return nil, apperrors.NotFound("Cart")
		case err != nil:
			return nil, fmt.Errorf("get cart: %w", err)
		}

		changed, err := fn(cart)
		if err != nil {
			return nil, err
		}
		if !changed {
			return s.withProducts(ctx, cart)
		}

		expected := cart.Version
		cart.UpdatedAt = time.Now().UTC()
		ok, err := s.carts.SaveIfVersion(ctx, cart, expected)
		if err != nil {
			return nil, fmt.Errorf("save cart: %w", err)
		}
		if ok {
			return s.withProducts(ctx, cart)
		}

		s.logger.DebugContext(ctx, "cart version moved, retrying",
			slog.String("user_id", userID),
			slog.Int("attempt", attempt+1),
		)
	}
	return nil, errCartContended
}

// withProducts attaches product summaries. Lines whose product was deleted
// keep no summary.
func (s *CartService) withProducts(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	if len(cart.Items) == 0 {
		return cart, nil
	}
	products, err := s.products.GetByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}
	byID := indexProducts(products)
	for i := range cart.Items {
		if p, ok := byID[cart.Items[i].ProductID]; ok {
			cart.Items[i].Product = p.Summary()
		}
	}
	return cart, nil
}

func indexProducts(products []domain.Product) map[string]*domain.Product {
	byID := make(map[string]*domain.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return byID
}
