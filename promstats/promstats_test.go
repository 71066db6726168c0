package promstats

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hnswindex "github.com/mohit67890/realm-core-hnsw"
)

var _ hnswindex.MetricsCollector = (*Collector)(nil)

func TestCollectorCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordInsert(time.Millisecond, nil)
	c.RecordInsert(time.Millisecond, errors.New("boom"))
	c.RecordSearch(10, time.Millisecond, nil)
	c.RecordRadiusSearch(time.Millisecond, nil)
	c.RecordErase(time.Millisecond, nil)
	c.RecordSet(time.Millisecond, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.inserts))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.insertErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.searches))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.searchErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.radiusSearches))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.erases))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sets))
}

func TestCollectorRegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]struct{}, len(families))
	for _, f := range families {
		names[f.GetName()] = struct{}{}
	}
	assert.Contains(t, names, "hnswindex_inserts_total")
	assert.Contains(t, names, "hnswindex_search_duration_seconds")
}
