// internal/adapters/db/metrics.go
package db

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StatSource is anything that can report pool counters
type StatSource interface {
	Stat() PoolStat
}

// PoolCollector exposes pool counters to Prometheus
type PoolCollector struct {
	source StatSource

	maxConns    *prometheus.Desc
	openConns   *prometheus.Desc
	idleConns   *prometheus.Desc
	inUseConns  *prometheus.Desc
	waiting     *prometheus.Desc
	acquires    *prometheus.Desc
	created     *prometheus.Desc
	discarded   *prometheus.Desc
	exhausted   *prometheus.Desc
	failedCheck *prometheus.Desc
}

var _ prometheus.Collector = (*PoolCollector)(nil)

// NewPoolCollector creates a collector for source. Metric names are prefixed
// with "db_pool_".
func NewPoolCollector(source StatSource, labels prometheus.Labels) *PoolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("db", "pool", name), help, nil, labels)
	}

	return &PoolCollector{
		source:      source,
		maxConns:    desc("max_connections", "Maximum number of connections the pool may hold."),
		openConns:   desc("open_connections", "Connections currently open, idle or in use."),
		idleConns:   desc("idle_connections", "Connections currently idle."),
		inUseConns:  desc("in_use_connections", "Connections currently checked out."),
		waiting:     desc("waiting", "Callers currently waiting for a connection."),
		acquires:    desc("acquires_total", "Successful connection checkouts."),
		created:     desc("created_total", "Connections opened by the factory."),
		discarded:   desc("discarded_total", "Connections destroyed."),
		exhausted:   desc("exhausted_total", "Acquires that timed out waiting for a connection."),
		failedCheck: desc("failed_checks_total", "Idle connections rejected at checkout."),
	}
}

// Describe implements prometheus.Collector
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.maxConns
	ch <- c.openConns
	ch <- c.idleConns
	ch <- c.inUseConns
	ch <- c.waiting
	ch <- c.acquires
	ch <- c.created
	ch <- c.discarded
	ch <- c.exhausted
	ch <- c.failedCheck
}

// Collect implements prometheus.Collector
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stat()

	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}

	gauge(c.maxConns, float64(s.MaxSize))
	gauge(c.openConns, float64(s.OpenConns))
	gauge(c.idleConns, float64(s.IdleConns))
	gauge(c.inUseConns, float64(s.InUseConns))
	gauge(c.waiting, float64(s.WaitingCount))
	counter(c.acquires, s.AcquireCount)
	counter(c.created, s.CreatedCount)
	counter(c.discarded, s.DiscardedCount)
	counter(c.exhausted, s.ExhaustedCount)
	counter(c.failedCheck, s.FailedCheckCount)
}
