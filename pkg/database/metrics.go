package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolSnapshot is the subset of pool statistics exported as metrics.
type PoolSnapshot struct {
	Acquired        int32
	Idle            int32
	Total           int32
	Max             int32
	AcquireCount    int64
	EmptyAcquires   int64
	Canceled        int64
	AcquireDuration time.Duration
}

func snapshotOf(pool *pgxpool.Pool) func() PoolSnapshot {
	return func() PoolSnapshot {
		s := pool.Stat()
		return PoolSnapshot{
			Acquired:        s.AcquiredConns(),
			Idle:            s.IdleConns(),
			Total:           s.TotalConns(),
			Max:             s.MaxConns(),
			AcquireCount:    s.AcquireCount(),
			EmptyAcquires:   s.EmptyAcquireCount(),
			Canceled:        s.CanceledAcquireCount(),
			AcquireDuration: s.AcquireDuration(),
		}
	}
}

// PoolStatsCollector exports connection pool statistics to Prometheus.
type PoolStatsCollector struct {
	stats   func() PoolSnapshot
	service string

	acquired, idle, total, max        *prometheus.Desc
	acquires, emptyAcquires, canceled *prometheus.Desc
	acquireSeconds                    *prometheus.Desc
}

// NewPoolStatsCollector builds a collector reading from stats on every scrape.
func NewPoolStatsCollector(stats func() PoolSnapshot, service string) *PoolStatsCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("insightmart_db_pool_"+name, help, []string{"service"}, nil)
	}
	return &PoolStatsCollector{
		stats:          stats,
		service:        service,
		acquired:       desc("acquired_connections", "Connections currently checked out of the pool."),
		idle:           desc("idle_connections", "Idle connections in the pool."),
		total:          desc("total_connections", "Open connections in the pool."),
		max:            desc("max_connections", "Configured pool size."),
		acquires:       desc("acquires_total", "Connection acquisitions."),
		emptyAcquires:  desc("empty_acquires_total", "Acquisitions that had to wait for a connection."),
		canceled:       desc("canceled_acquires_total", "Acquisitions canceled by their context."),
		acquireSeconds: desc("acquire_seconds_total", "Time spent acquiring connections."),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.acquired, c.idle, c.total, c.max,
		c.acquires, c.emptyAcquires, c.canceled, c.acquireSeconds,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, c.service)
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, c.service)
	}
	gauge(c.acquired, float64(s.Acquired))
	gauge(c.idle, float64(s.Idle))
	gauge(c.total, float64(s.Total))
	gauge(c.max, float64(s.Max))
	counter(c.acquires, float64(s.AcquireCount))
	counter(c.emptyAcquires, float64(s.EmptyAcquires))
	counter(c.canceled, float64(s.Canceled))
	counter(c.acquireSeconds, s.AcquireDuration.Seconds())
}

// RegisterPoolMetrics registers a collector for pool on reg.
func RegisterPoolMetrics(reg prometheus.Registerer, pool *pgxpool.Pool, service string) error {
	return reg.Register(NewPoolStatsCollector(snapshotOf(pool), service))
}
