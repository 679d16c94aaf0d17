package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	consumerProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insightmart_kafka_consumer_messages_processed_total",
		Help: "Messages handled successfully.",
	}, []string{"topic", "group"})

	consumerFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insightmart_kafka_consumer_messages_failed_total",
		Help: "Messages that exhausted handler retries.",
	}, []string{"topic", "group"})

	consumerDuplicates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insightmart_kafka_consumer_messages_duplicate_total",
		Help: "Messages skipped because their event ID was already processed.",
	}, []string{"type"})

	consumerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "insightmart_kafka_consumer_processing_duration_seconds",
		Help:    "Handler latency per message.",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic", "group"})

	dlqPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insightmart_kafka_dlq_published_total",
		Help: "Messages forwarded to a dead-letter topic.",
	}, []string{"topic"})

	producerPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insightmart_kafka_producer_messages_published_total",
		Help: "Events written to Kafka.",
	}, []string{"topic"})

	producerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insightmart_kafka_producer_publish_errors_total",
		Help: "Events that could not be written to Kafka.",
	}, []string{"topic"})
)
