package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/insightmart/insightmart/internal/domain"
	pkgkafka "github.com/insightmart/insightmart/pkg/kafka"
	"github.com/insightmart/insightmart/pkg/logger"
)

// Kafka topics for InsightMart domain events.
var (
	TopicOrderPlaced    = pkgkafka.Topic("order", "placed")
	TopicProductCreated = pkgkafka.Topic("product", "created")
	TopicProductUpdated = pkgkafka.Topic("product", "updated")
	TopicProductDeleted = pkgkafka.Topic("product", "deleted")
)

// Aggregate types.
const (
	AggregateTypeOrder   = "order"
	AggregateTypeProduct = "product"
)

// SourceAPI identifies events published by the API process.
const SourceAPI = "insightmart-api"

// OrderPlacedData is the payload of an order.placed event.
type OrderPlacedData struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	Lines       []OrderLineData `json:"lines"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	SellerIDs   []string        `json:"seller_ids"`
}

// OrderLineData is one line of an order.placed event.
type OrderLineData struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ProductData is the payload of product.* events. Only the fields consumers
// use are carried.
type ProductData struct {
	ProductID string          `json:"product_id"`
	OwnerID   string          `json:"owner_id"`
	SKU       string          `json:"sku,omitempty"`
	Category  string          `json:"category,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Discount  decimal.Decimal `json:"discount"`
	Stock     int             `json:"stock"`
}

// Publisher writes an event to a topic. *pkgkafka.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes InsightMart domain events. With a nil publisher every
// publish is a no-op, which is how the API runs with Kafka disabled.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new domain event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// OrderPlaced publishes an order.placed event naming the sellers whose
// products were ordered.
func (p *Producer) OrderPlaced(ctx context.Context, order *domain.Order, sellerIDs []string) error {
	lines := make([]OrderLineData, len(order.Lines))
	for i, l := range order.Lines {
		lines[i] = OrderLineData{ProductID: l.ProductID, Quantity: l.Quantity}
	}

	data := OrderPlacedData{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Lines:       lines,
		TotalAmount: order.TotalAmount,
		SellerIDs:   sellerIDs,
	}
	return p.publish(ctx, TopicOrderPlaced, "order.placed", AggregateTypeOrder, order.ID, data)
}

// ProductCreated publishes a product.created event.
func (p *Producer) ProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductCreated, "product.created", AggregateTypeProduct, product.ID, productData(product))
}

// ProductUpdated publishes a product.updated event.
func (p *Producer) ProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductUpdated, "product.updated", AggregateTypeProduct, product.ID, productData(product))
}

// ProductDeleted publishes a product.deleted event.
func (p *Producer) ProductDeleted(ctx context.Context, productID, ownerID string) error {
	data := ProductData{ProductID: productID, OwnerID: ownerID}
	return p.publish(ctx, TopicProductDeleted, "product.deleted", AggregateTypeProduct, productID, data)
}

func productData(product *domain.Product) ProductData {
	d := ProductData{
		ProductID: product.ID,
		SKU:       product.SKU,
		Category:  product.Category,
		Price:     product.Price,
		Discount:  product.Discount,
		Stock:     product.Stock,
	}
	if product.OwnerID != nil {
		d.OwnerID = *product.OwnerID
	}
	return d
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateType, aggregateID string, data any) error {
	if p.publisher == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(eventType, aggregateType, aggregateID, SourceAPI, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("event_type", eventType),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}
