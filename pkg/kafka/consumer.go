package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	maxHandlerAttempts = 3
	consumerTracerName = "github.com/insightmart/insightmart/pkg/kafka"
)

// Handler processes one event. A returned error triggers a retry.
type Handler func(ctx context.Context, event *Event) error

// MessageReader is the subset of *kafka.Reader used by Consumer.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers []string
	GroupID string
	Topic   string
}

// Consumer reads one topic as part of a consumer group. Messages are committed
// after they are handled, dead-lettered or found unparseable, so a poison
// message never blocks its partition.
type Consumer struct {
	reader  MessageReader
	topic   string
	group   string
	handler Handler
	dlq     *DLQ
	logger  *slog.Logger
	backoff func(attempt int) time.Duration

	closeOnce sync.Once
	closeErr  error
}

// NewConsumer creates a consumer backed by a kafka-go reader. dlq may be nil.
func NewConsumer(cfg ConsumerConfig, handler Handler, dlq *DLQ, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return NewConsumerWithReader(r, cfg.Topic, cfg.GroupID, handler, dlq, logger)
}

// NewConsumerWithReader creates a consumer on top of an existing reader.
func NewConsumerWithReader(r MessageReader, topic, group string, handler Handler, dlq *DLQ, logger *slog.Logger) *Consumer {
	return &Consumer{
		reader:  r,
		topic:   topic,
		group:   group,
		handler: handler,
		dlq:     dlq,
		logger:  logger.With(slog.String("topic", topic), slog.String("group", group)),
		backoff: func(attempt int) time.Duration { return time.Duration(attempt) * 200 * time.Millisecond },
	}
}

// Start consumes until ctx is canceled or the reader is closed.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.logger.Info("consumer stopped")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			c.logger.Error("fetch message failed", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.backoff(1)):
			}
			continue
		}
		c.process(ctx, msg)
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	ctx = otel.GetTextMapPropagator().Extract(ctx, NewHeaderCarrier(&msg))
	ctx, span := otel.Tracer(consumerTracerName).Start(ctx, "consume "+msg.Topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.String("messaging.kafka.consumer.group", c.group),
			attribute.Int64("messaging.kafka.message.offset", msg.Offset),
		),
	)
	defer span.End()

	event, err := ParseEvent(msg.Value)
	if err != nil {
		c.logger.ErrorContext(ctx, "dropping unparseable message",
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		span.SetStatus(codes.Error, "unparseable")
		c.deadLetter(ctx, msg, err)
		c.commit(ctx, msg)
		return
	}
	span.SetAttributes(attribute.String("event.type", event.Type))

	start := time.Now()
	err = c.handleWithRetry(ctx, event)
	consumerDuration.WithLabelValues(c.topic, c.group).Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		consumerFailed.WithLabelValues(c.topic, c.group).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.ErrorContext(ctx, "handler failed after retries",
			slog.String("event_type", event.Type),
			slog.String("event_id", event.ID),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		c.deadLetter(ctx, msg, err)
	} else {
		consumerProcessed.WithLabelValues(c.topic, c.group).Inc()
	}
	c.commit(ctx, msg)
}

func (c *Consumer) handleWithRetry(ctx context.Context, event *Event) error {
	var err error
	for attempt := 1; attempt <= maxHandlerAttempts; attempt++ {
		if err = c.handler(ctx, event); err == nil {
			return nil
		}
		if attempt == maxHandlerAttempts {
			break
		}
		c.logger.WarnContext(ctx, "handler failed, retrying",
			slog.String("event_type", event.Type),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff(attempt)):
		}
	}
	return fmt.Errorf("after %d attempts: %w", maxHandlerAttempts, err)
}

func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message, cause error) {
	if c.dlq == nil {
		return
	}
	if err := c.dlq.Publish(ctx, msg, cause, c.group); err != nil {
		c.logger.ErrorContext(ctx, "dead-letter publish failed", slog.String("error", err.Error()))
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
		c.logger.ErrorContext(ctx, "commit failed",
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
	}
}

// Close closes the reader. It is safe to call more than once.
func (c *Consumer) Close() error {
	c.closeOnce.Do(func() { c.closeErr = c.reader.Close() })
	return c.closeErr
}
