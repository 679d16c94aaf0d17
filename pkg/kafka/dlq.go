package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// DLQTopic returns the dead-letter topic for source.
func DLQTopic(source string) string {
	return source + ".dlq"
}

// DLQ forwards messages whose handler kept failing to "<topic>.dlq", keeping
// the original key, value and headers and adding where it came from.
type DLQ struct {
	writer MessageWriter
	logger *slog.Logger
}

// NewDLQ creates a dead-letter publisher.
func NewDLQ(w MessageWriter, logger *slog.Logger) *DLQ {
	return &DLQ{writer: w, logger: logger}
}

// NewDLQWriter returns a writer suitable for NewDLQ.
func NewDLQWriter(brokers []string) *kafka.Writer {
	cfg := DefaultProducerConfig(brokers)
	return newWriter(cfg)
}

// Publish sends msg to its dead-letter topic with the failure recorded in headers.
func (d *DLQ) Publish(ctx context.Context, msg kafka.Message, cause error, group string) error {
	topic := DLQTopic(msg.Topic)

	headers := make([]kafka.Header, 0, len(msg.Headers)+5)
	headers = append(headers, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: "dlq.original_topic", Value: []byte(msg.Topic)},
		kafka.Header{Key: "dlq.original_partition", Value: []byte(strconv.Itoa(msg.Partition))},
		kafka.Header{Key: "dlq.original_offset", Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		kafka.Header{Key: "dlq.consumer_group", Value: []byte(group)},
	)
	if cause != nil {
		headers = append(headers, kafka.Header{Key: "dlq.error", Value: []byte(cause.Error())})
	}

	err := d.writer.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	dlqPublished.WithLabelValues(msg.Topic).Inc()

	d.logger.WarnContext(ctx, "message dead-lettered",
		slog.String("dlq_topic", topic),
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
		slog.String("group", group),
	)
	return nil
}

// Close closes the underlying writer.
func (d *DLQ) Close() error {
	return d.writer.Close()
}
