package hnswindex

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mohit67890/realm-core-hnsw/distance"
	"github.com/mohit67890/realm-core-hnsw/hnsw"
	"github.com/mohit67890/realm-core-hnsw/model"
	"github.com/mohit67890/realm-core-hnsw/reftree"
	"github.com/mohit67890/realm-core-hnsw/rowset"
)

// Column names an indexed vector column of the host database.
type Column string

// Catalog binds columns to HNSW engines and exposes the host-facing query
// surface. It is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	indexes map[Column]*hnsw.Index
	opts    options
}

// NewCatalog creates an empty catalog.
func NewCatalog(optFns ...Option) *Catalog {
	return &Catalog{
		indexes: make(map[Column]*hnsw.Index),
		opts:    applyOptions(optFns),
	}
}

// CreateIndex binds an HNSW index to column, pulling vectors through
// source and persisting into store. A nil store keeps the index in an
// in-memory tree. If the store already holds a committed image the graph
// is loaded from it. Binding an already-indexed column is an error.
func (c *Catalog) CreateIndex(column Column, source hnsw.VectorSource, store reftree.Store, cfgFns ...func(*hnsw.Config)) error {
	cfg := hnsw.DefaultConfig(distance.MetricEuclidean)
	for _, fn := range cfgFns {
		if fn != nil {
			fn(&cfg)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.indexes[column]; ok {
		return fmt.Errorf("%w: column %q already indexed", ErrBadArgument, column)
	}

	ix, err := hnsw.New(source, store, cfg)
	if err != nil {
		return translateError(err)
	}

	c.indexes[column] = ix
	c.opts.logger.InfoContext(context.Background(), "index created",
		"column", string(column),
		"metric", cfg.Metric.String(),
		"m", cfg.M,
	)
	return nil
}

// RemoveIndex unbinds the index from column.
func (c *Catalog) RemoveIndex(column Column) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.indexes[column]; !ok {
		return fmt.Errorf("%w: %q", ErrNoIndex, column)
	}
	delete(c.indexes, column)
	return nil
}

// HasIndex reports whether column has an index bound.
func (c *Catalog) HasIndex(column Column) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.indexes[column]
	return ok
}

func (c *Catalog) index(column Column) (*hnsw.Index, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ix, ok := c.indexes[column]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoIndex, column)
	}
	return ix, nil
}

// Insert indexes the vector stored for row. Rows without a vector are
// silently ignored.
func (c *Catalog) Insert(column Column, row model.RowID) error {
	ix, err := c.index(column)
	if err != nil {
		return err
	}

	start := time.Now()
	err = translateError(ix.Insert(row))
	c.opts.metricsCollector.RecordInsert(time.Since(start), err)
	c.opts.logger.LogInsert(context.Background(), string(column), uint64(row), err)
	return err
}

// InsertBulk indexes a batch of rows one by one, stopping at the first
// failure.
func (c *Catalog) InsertBulk(column Column, rows []model.RowID) error {
	ix, err := c.index(column)
	if err != nil {
		return err
	}

	for _, row := range rows {
		start := time.Now()
		err := translateError(ix.Insert(row))
		c.opts.metricsCollector.RecordInsert(time.Since(start), err)
		if err != nil {
			c.opts.logger.LogInsert(context.Background(), string(column), uint64(row), err)
			return err
		}
	}
	return nil
}

// Erase removes row from the index. Unknown rows are a no-op.
func (c *Catalog) Erase(column Column, row model.RowID) error {
	ix, err := c.index(column)
	if err != nil {
		return err
	}

	start := time.Now()
	err = translateError(ix.Erase(row))
	c.opts.metricsCollector.RecordErase(time.Since(start), err)
	c.opts.logger.LogErase(context.Background(), string(column), uint64(row), err)
	return err
}

// Set replaces the indexed vector for row with the host's current value.
func (c *Catalog) Set(column Column, row model.RowID) error {
	ix, err := c.index(column)
	if err != nil {
		return err
	}

	start := time.Now()
	err = translateError(ix.Set(row))
	c.opts.metricsCollector.RecordSet(time.Since(start), err)
	return err
}

// SearchKNN returns the approximately k nearest rows to q on column,
// ascending by distance. efSearch overrides the configured candidate list
// size when positive.
func (c *Catalog) SearchKNN(column Column, q []float64, k int, efSearch int) ([]model.Result, error) {
	ix, err := c.index(column)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("%w: nil query vector", ErrBadArgument)
	}

	start := time.Now()
	res, err := ix.SearchKNN(q, k, efSearch)
	err = translateError(err)
	c.opts.metricsCollector.RecordSearch(k, time.Since(start), err)
	c.opts.logger.LogSearch(context.Background(), string(column), k, len(res), err)
	return res, err
}

// SearchKNNFiltered is SearchKNN intersected with a caller-supplied row
// set, preserving distance order. The predicate that produced the set
// stays host-side; a nil set disables filtering.
func (c *Catalog) SearchKNNFiltered(column Column, q []float64, k int, efSearch int, set *rowset.Set) ([]model.Result, error) {
	res, err := c.SearchKNN(column, q, k, efSearch)
	if err != nil {
		return nil, err
	}
	return rowset.Filter(res, set), nil
}

// SearchRadius returns every row on column within maxDistance of q,
// ascending by distance. A negative radius yields an empty result.
func (c *Catalog) SearchRadius(column Column, q []float64, maxDistance float64) ([]model.Result, error) {
	ix, err := c.index(column)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("%w: nil query vector", ErrBadArgument)
	}

	start := time.Now()
	res, err := ix.SearchRadius(q, maxDistance)
	err = translateError(err)
	c.opts.metricsCollector.RecordRadiusSearch(time.Since(start), err)
	return res, err
}

// FindFirst returns the nearest indexed row to q, if any.
func (c *Catalog) FindFirst(column Column, q []float64) (model.RowID, bool, error) {
	res, err := c.SearchKNN(column, q, 1, 0)
	if err != nil || len(res) == 0 {
		return 0, false, err
	}
	return res[0].Row, true, nil
}

// FindAll returns the rows of the top 10 nearest vectors to q. Exact
// value matching is not meaningful for vector columns; nearest rows are
// the closest analogue.
func (c *Catalog) FindAll(column Column, q []float64) ([]model.RowID, error) {
	res, err := c.SearchKNN(column, q, 10, 0)
	if err != nil {
		return nil, err
	}
	rows := make([]model.RowID, 0, len(res))
	for _, r := range res {
		rows = append(rows, r.Row)
	}
	return rows, nil
}

// Count returns the number of indexed vectors on column.
func (c *Catalog) Count(column Column) (int, error) {
	ix, err := c.index(column)
	if err != nil {
		return 0, err
	}
	return ix.Count(), nil
}

// IsEmpty reports whether column's index holds no vectors.
func (c *Catalog) IsEmpty(column Column) (bool, error) {
	ix, err := c.index(column)
	if err != nil {
		return false, err
	}
	return ix.IsEmpty(), nil
}

// Stats returns the index shape for column.
func (c *Catalog) Stats(column Column) (hnsw.Stats, error) {
	ix, err := c.index(column)
	if err != nil {
		return hnsw.Stats{}, err
	}
	return ix.Stats(), nil
}

// Metrics returns the accumulated operation counters for column.
func (c *Catalog) Metrics(column Column) (hnsw.MetricsSnapshot, error) {
	ix, err := c.index(column)
	if err != nil {
		return hnsw.MetricsSnapshot{}, err
	}
	return ix.Metrics(), nil
}

// SetEFSearch overrides the query-time candidate list size for column.
func (c *Catalog) SetEFSearch(column Column, ef int) error {
	ix, err := c.index(column)
	if err != nil {
		return err
	}
	ix.SetEFSearch(ef)
	return nil
}

// Rebuild reconstructs column's graph from its indexed vectors, waiting
// for a background slot when a resource controller is configured.
func (c *Catalog) Rebuild(ctx context.Context, column Column) error {
	ix, err := c.index(column)
	if err != nil {
		return err
	}

	if err := c.opts.controller.AcquireBackground(ctx); err != nil {
		return err
	}
	defer c.opts.controller.ReleaseBackground()

	err = translateError(ix.Rebuild())
	c.opts.logger.LogRebuild(ctx, string(column), ix.Count(), err)
	return err
}

// Verify checks the structural invariants of column's graph. Intended for
// tests and debugging.
func (c *Catalog) Verify(column Column) error {
	ix, err := c.index(column)
	if err != nil {
		return err
	}
	return ix.Verify()
}
