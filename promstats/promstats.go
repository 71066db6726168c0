// Package promstats exports index operation metrics to Prometheus.
//
// Collector implements hnswindex.MetricsCollector; register it with a
// Catalog via hnswindex.WithMetricsCollector.
package promstats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records operation counts, errors and latencies.
type Collector struct {
	inserts        prometheus.Counter
	insertErrors   prometheus.Counter
	insertDuration prometheus.Histogram

	searches       prometheus.Counter
	searchErrors   prometheus.Counter
	searchDuration prometheus.Histogram
	searchK        prometheus.Histogram

	radiusSearches prometheus.Counter
	radiusErrors   prometheus.Counter
	radiusDuration prometheus.Histogram

	erases prometheus.Counter
	sets   prometheus.Counter
}

// latencyBuckets cover from in-memory hits to large-graph searches.
var latencyBuckets = []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}

// NewCollector creates a Collector registered with reg. A nil reg uses the
// default Prometheus registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		inserts: factory.NewCounter(prometheus.CounterOpts{
			Name: "hnswindex_inserts_total",
			Help: "Total number of insert operations",
		}),
		insertErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "hnswindex_insert_errors_total",
			Help: "Total number of failed insert operations",
		}),
		insertDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hnswindex_insert_duration_seconds",
			Help:    "Duration of insert operations in seconds",
			Buckets: latencyBuckets,
		}),
		searches: factory.NewCounter(prometheus.CounterOpts{
			Name: "hnswindex_searches_total",
			Help: "Total number of k-NN searches",
		}),
		searchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "hnswindex_search_errors_total",
			Help: "Total number of failed k-NN searches",
		}),
		searchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hnswindex_search_duration_seconds",
			Help:    "Duration of k-NN searches in seconds",
			Buckets: latencyBuckets,
		}),
		searchK: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hnswindex_search_k",
			Help:    "Requested neighbour counts",
			Buckets: []float64{1, 5, 10, 20, 50, 100, 500},
		}),
		radiusSearches: factory.NewCounter(prometheus.CounterOpts{
			Name: "hnswindex_radius_searches_total",
			Help: "Total number of radius searches",
		}),
		radiusErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "hnswindex_radius_search_errors_total",
			Help: "Total number of failed radius searches",
		}),
		radiusDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hnswindex_radius_search_duration_seconds",
			Help:    "Duration of radius searches in seconds",
			Buckets: latencyBuckets,
		}),
		erases: factory.NewCounter(prometheus.CounterOpts{
			Name: "hnswindex_erases_total",
			Help: "Total number of erase operations",
		}),
		sets: factory.NewCounter(prometheus.CounterOpts{
			Name: "hnswindex_sets_total",
			Help: "Total number of set operations",
		}),
	}
}

// RecordInsert implements hnswindex.MetricsCollector.
func (c *Collector) RecordInsert(duration time.Duration, err error) {
	c.inserts.Inc()
	c.insertDuration.Observe(duration.Seconds())
	if err != nil {
		c.insertErrors.Inc()
	}
}

// RecordSearch implements hnswindex.MetricsCollector.
func (c *Collector) RecordSearch(k int, duration time.Duration, err error) {
	c.searches.Inc()
	c.searchK.Observe(float64(k))
	c.searchDuration.Observe(duration.Seconds())
	if err != nil {
		c.searchErrors.Inc()
	}
}

// RecordRadiusSearch implements hnswindex.MetricsCollector.
func (c *Collector) RecordRadiusSearch(duration time.Duration, err error) {
	c.radiusSearches.Inc()
	c.radiusDuration.Observe(duration.Seconds())
	if err != nil {
		c.radiusErrors.Inc()
	}
}

// RecordErase implements hnswindex.MetricsCollector.
func (c *Collector) RecordErase(duration time.Duration, err error) {
	c.erases.Inc()
}

// RecordSet implements hnswindex.MetricsCollector.
func (c *Collector) RecordSet(duration time.Duration, err error) {
	c.sets.Inc()
}
