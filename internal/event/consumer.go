package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/insightmart/insightmart/pkg/kafka"
)

// CacheInvalidator drops cached seller analytics.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, sellerIDs ...string) error
}

// Consumer keeps the analytics cache consistent with orders and catalog changes.
type Consumer struct {
	cache  CacheInvalidator
	logger *slog.Logger
}

// NewConsumer creates a new analytics cache consumer.
func NewConsumer(cache CacheInvalidator, logger *slog.Logger) *Consumer {
	return &Consumer{
		cache:  cache,
		logger: logger,
	}
}

// HandleOrderPlaced invalidates the report of every seller in the order.
func (c *Consumer) HandleOrderPlaced(ctx context.Context, event *pkgkafka.Event) error {
	var data OrderPlacedData
	if err := event.Decode(&data); err != nil {
		return err
	}

	if err := c.cache.Invalidate(ctx, data.SellerIDs...); err != nil {
		return fmt.Errorf("invalidate analytics for order %s: %w", data.OrderID, err)
	}

	c.logger.InfoContext(ctx, "analytics invalidated for order",
		slog.String("order_id", data.OrderID),
		slog.Int("sellers", len(data.SellerIDs)),
	)
	return nil
}

// HandleProductChanged invalidates the owner's report after a price,
// discount or category change or a deletion.
func (c *Consumer) HandleProductChanged(ctx context.Context, event *pkgkafka.Event) error {
	var data ProductData
	if err := event.Decode(&data); err != nil {
		return err
	}
	if data.OwnerID == "" {
		return nil
	}

	if err := c.cache.Invalidate(ctx, data.OwnerID); err != nil {
		return fmt.Errorf("invalidate analytics for product %s: %w", data.ProductID, err)
	}

	c.logger.DebugContext(ctx, "analytics invalidated for product",
		slog.String("event_type", event.Type),
		slog.String("product_id", data.ProductID),
	)
	return nil
}
