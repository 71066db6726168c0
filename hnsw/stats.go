package hnsw

import (
	"sync/atomic"
	"time"
)

// Stats is a point-in-time summary of the index shape.
type Stats struct {
	// NumVectors is the number of indexed vectors.
	NumVectors int

	// MaxLayer is the entry point's layer, -1 when empty.
	MaxLayer int

	// Dimension is the fixed vector length, 0 until the first insert.
	Dimension int
}

// Stats returns the current index statistics.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	_, entryLayer := ix.nodes.entry()
	return Stats{
		NumVectors: ix.nodes.size(),
		MaxLayer:   entryLayer,
		Dimension:  ix.cfg.Dimension,
	}
}

// opMetrics are the per-operation counters. They are plain atomics: Insert
// and Set update them after releasing the index lock, Erase and the
// searches while still holding it. Readers get monotone, possibly slightly
// stale values.
type opMetrics struct {
	insertCount       atomic.Uint64
	eraseCount        atomic.Uint64
	searchCount       atomic.Uint64
	radiusSearchCount atomic.Uint64

	insertNanos       atomic.Uint64
	searchNanos       atomic.Uint64
	radiusSearchNanos atomic.Uint64
}

func (m *opMetrics) recordInsert(d time.Duration) {
	m.insertCount.Add(1)
	m.insertNanos.Add(uint64(d.Nanoseconds()))
}

func (m *opMetrics) recordErase() {
	m.eraseCount.Add(1)
}

func (m *opMetrics) recordSearch(d time.Duration) {
	m.searchCount.Add(1)
	m.searchNanos.Add(uint64(d.Nanoseconds()))
}

func (m *opMetrics) recordRadiusSearch(d time.Duration) {
	m.radiusSearchCount.Add(1)
	m.radiusSearchNanos.Add(uint64(d.Nanoseconds()))
}

// MetricsSnapshot is a consistent-enough copy of the operation counters.
type MetricsSnapshot struct {
	InsertCount       uint64
	EraseCount        uint64
	SearchCount       uint64
	RadiusSearchCount uint64

	AvgInsertMillis       float64
	AvgSearchMillis       float64
	AvgRadiusSearchMillis float64
}

// Metrics returns the accumulated operation counters with averages in
// milliseconds.
func (ix *Index) Metrics() MetricsSnapshot {
	s := MetricsSnapshot{
		InsertCount:       ix.metrics.insertCount.Load(),
		EraseCount:        ix.metrics.eraseCount.Load(),
		SearchCount:       ix.metrics.searchCount.Load(),
		RadiusSearchCount: ix.metrics.radiusSearchCount.Load(),
	}

	if s.InsertCount > 0 {
		s.AvgInsertMillis = float64(ix.metrics.insertNanos.Load()) / 1e6 / float64(s.InsertCount)
	}
	if s.SearchCount > 0 {
		s.AvgSearchMillis = float64(ix.metrics.searchNanos.Load()) / 1e6 / float64(s.SearchCount)
	}
	if s.RadiusSearchCount > 0 {
		s.AvgRadiusSearchMillis = float64(ix.metrics.radiusSearchNanos.Load()) / 1e6 / float64(s.RadiusSearchCount)
	}
	return s
}
