// Package metric exposes engine counters in Prometheus format.
//
// The engine keeps its own in-memory counters so metrics work without
// an exporter; this package bridges them onto a prometheus.Registry
// for scrape-based monitoring.
//
// @req RQ-0403
// @design DS-0503
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/strata-go/internal/engine"
)

// StateFunc supplies the current engine counters on each scrape.
type StateFunc func() engine.MetricsState

// Collector adapts engine counters to prometheus.Collector.
type Collector struct {
	state StateFunc

	reads       *prometheus.Desc
	writes      *prometheus.Desc
	deletes     *prometheus.Desc
	cacheHits   *prometheus.Desc
	readLatency *prometheus.Desc
	writeLat    *prometheus.Desc
	errorsTotal *prometheus.Desc
}

// NewCollector creates a collector over the given state source.
func NewCollector(state StateFunc) *Collector {
	return &Collector{
		state: state,
		reads: prometheus.NewDesc(
			"strata_reads_total", "Completed read operations.", nil, nil),
		writes: prometheus.NewDesc(
			"strata_writes_total", "Committed write operations.", nil, nil),
		deletes: prometheus.NewDesc(
			"strata_deletes_total", "Committed delete operations.", nil, nil),
		cacheHits: prometheus.NewDesc(
			"strata_cache_hits_total", "Reads served from the read cache.", nil, nil),
		readLatency: prometheus.NewDesc(
			"strata_read_latency_seconds", "Mean read latency over the sample window.", nil, nil),
		writeLat: prometheus.NewDesc(
			"strata_write_latency_seconds", "Mean write latency over the sample window.", nil, nil),
		errorsTotal: prometheus.NewDesc(
			"strata_errors_total", "Operation failures in the retained window.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.reads
	ch <- c.writes
	ch <- c.deletes
	ch <- c.cacheHits
	ch <- c.readLatency
	ch <- c.writeLat
	ch <- c.errorsTotal
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.state()
	ch <- prometheus.MustNewConstMetric(c.reads, prometheus.CounterValue, float64(st.Reads))
	ch <- prometheus.MustNewConstMetric(c.writes, prometheus.CounterValue, float64(st.Writes))
	ch <- prometheus.MustNewConstMetric(c.deletes, prometheus.CounterValue, float64(st.Deletes))
	ch <- prometheus.MustNewConstMetric(c.cacheHits, prometheus.CounterValue, float64(st.CacheHit))
	ch <- prometheus.MustNewConstMetric(c.readLatency, prometheus.GaugeValue, st.MeanReadLatency.Seconds())
	ch <- prometheus.MustNewConstMetric(c.writeLat, prometheus.GaugeValue, st.MeanWriteLatency.Seconds())
	ch <- prometheus.MustNewConstMetric(c.errorsTotal, prometheus.CounterValue, float64(len(st.Errors)))
}

// Register creates a fresh registry with the engine collector
// installed.
func Register(state StateFunc) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollector(state)); err != nil {
		return nil, err
	}
	return reg, nil
}

// Handler returns an HTTP handler serving the registry in Prometheus
// exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
