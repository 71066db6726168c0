package hnsw

import (
	"math"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/mohit67890/realm-core-hnsw/distance"
	"github.com/mohit67890/realm-core-hnsw/model"
	"github.com/mohit67890/realm-core-hnsw/reftree"
)

// VectorSource is the seam through which the index pulls stored vectors
// from the host. A nil or empty result means the row has no vector.
type VectorSource interface {
	Vector(row model.RowID) []float64
}

// VectorSourceFunc adapts a function to the VectorSource interface.
type VectorSourceFunc func(row model.RowID) []float64

// Vector implements VectorSource.
func (f VectorSourceFunc) Vector(row model.RowID) []float64 { return f(row) }

// Index is a persistent HNSW graph over one vector column.
//
// Readers (searches, stats) take the shared lock; mutating operations take
// the exclusive lock and rewrite the persistent image before returning.
type Index struct {
	mu sync.RWMutex

	cfg    Config
	distFn distance.Func
	source VectorSource
	tree   reftree.Store

	nodes *nodeStore
	rng   *rand.Rand

	metrics opMetrics
}

// New creates an index over source, persisting into tree. If the tree
// already holds a committed root, the graph is loaded from it.
func New(source VectorSource, tree reftree.Store, cfg Config) (*Index, error) {
	if source == nil {
		return nil, ErrNilVectorSource
	}
	if tree == nil {
		tree = reftree.NewMemStore()
	}

	cfg.normalize()

	distFn, err := distance.Provider(cfg.Metric)
	if err != nil {
		return nil, err
	}

	ix := &Index{
		cfg:    cfg,
		distFn: distFn,
		source: source,
		tree:   tree,
		nodes:  newNodeStore(),
		rng:    rand.New(rand.NewSource(int64(cfg.RandomSeed))),
	}

	if tree.Root() != 0 {
		if err := ix.loadFromStorage(); err != nil {
			return nil, err
		}
	}

	return ix, nil
}

// Config returns a snapshot of the index configuration.
func (ix *Index) Config() Config {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.cfg
}

// SetEFSearch overrides the query-time candidate list size.
func (ix *Index) SetEFSearch(ef int) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ef > 0 {
		ix.cfg.EFSearch = ef
	}
}

// Count returns the number of indexed vectors.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.nodes.size()
}

// IsEmpty reports whether the index holds no vectors.
func (ix *Index) IsEmpty() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.nodes.empty()
}

// EntryPoint returns the current entry row and its layer (-1 when empty).
func (ix *Index) EntryPoint() (model.RowID, int) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.nodes.entry()
}

// Insert pulls the vector for row from the host and adds it to the graph.
// A row without a vector is silently ignored. The first non-empty insert
// fixes the index dimension; later inserts of a different length fail with
// *ErrDimensionMismatch before any state is touched.
func (ix *Index) Insert(row model.RowID) error {
	start := time.Now()

	ix.mu.Lock()
	indexed, err := ix.insertLocked(row)
	ix.mu.Unlock()

	if indexed && err == nil {
		ix.metrics.recordInsert(time.Since(start))
	}
	return err
}

func (ix *Index) insertLocked(row model.RowID) (bool, error) {
	vec := ix.source.Vector(row)
	if len(vec) == 0 {
		return false, nil
	}
	if err := ix.checkDimension(len(vec)); err != nil {
		return false, err
	}

	if err := ix.insertVectorLocked(row, slices.Clone(vec)); err != nil {
		return false, err
	}
	return true, nil
}

// insertVectorLocked adds an already-validated vector. The vector must be
// owned by the index (callers clone host memory first).
func (ix *Index) insertVectorLocked(row model.RowID, vec []float64) error {
	nodeLayer := ix.selectLayer()

	node := &Node{
		Row:         row,
		Vector:      vec,
		Layer:       nodeLayer,
		Connections: make([][]model.RowID, nodeLayer+1),
	}

	if ix.nodes.empty() {
		ix.nodes.put(node)
		ix.nodes.setEntry(row, nodeLayer)
		return ix.saveToStorage()
	}

	entryRow, entryLayer := ix.nodes.entry()

	// Greedy descent through the layers above the node's top layer.
	curr := entryRow
	for lc := entryLayer; lc > nodeLayer; lc-- {
		if res := ix.searchLayer(vec, curr, 1, lc); len(res) > 0 {
			curr = res[0].Row
		}
	}

	// The node joins the mapping before linking so neighbour lists can
	// reference it symmetrically.
	ix.nodes.put(node)

	// Layers above the current entry layer hold no other node yet, so
	// linking starts at the lower of the two top layers.
	startLayer := nodeLayer
	if entryLayer < startLayer {
		startLayer = entryLayer
	}

	for lc := startLayer; lc >= 0; lc-- {
		candidates := ix.searchLayer(vec, curr, ix.cfg.EFConstruction, lc)

		var neighbours []model.RowID
		if lc == 0 {
			neighbours = ix.selectNeighboursSimple(candidates, ix.cfg.M0)
		} else {
			neighbours = ix.selectNeighboursHeuristic(vec, candidates, ix.cfg.M, lc, true)
		}

		for _, n := range neighbours {
			ix.connect(row, n, lc)
		}
		for _, n := range neighbours {
			ix.prune(n, lc)
		}

		if len(candidates) > 0 {
			curr = candidates[0].Row
		}
	}

	if nodeLayer > entryLayer {
		ix.nodes.setEntry(row, nodeLayer)
	}

	return ix.saveToStorage()
}

// Erase removes the row from the graph. Unknown rows are a no-op.
func (ix *Index) Erase(row model.RowID) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	removed, err := ix.eraseLocked(row)
	if removed && err == nil {
		ix.metrics.recordErase()
	}
	return err
}

func (ix *Index) eraseLocked(row model.RowID) (bool, error) {
	node, ok := ix.nodes.get(row)
	if !ok {
		return false, nil
	}

	for layer := 0; layer <= node.Layer && layer < len(node.Connections); layer++ {
		for _, neighbour := range slices.Clone(node.Connections[layer]) {
			ix.disconnect(row, neighbour, layer)
		}
	}

	ix.nodes.remove(row)

	if entryRow, _ := ix.nodes.entry(); entryRow == row {
		ix.nodes.electEntry()
	}

	return true, ix.saveToStorage()
}

// Set replaces the row's indexed vector: an erase followed by an insert
// under one exclusive critical section, so readers never observe the gap.
func (ix *Index) Set(row model.RowID) error {
	start := time.Now()

	ix.mu.Lock()
	_, err := ix.eraseLocked(row)
	var indexed bool
	if err == nil {
		indexed, err = ix.insertLocked(row)
	}
	ix.mu.Unlock()

	if indexed && err == nil {
		ix.metrics.recordInsert(time.Since(start))
	}
	return err
}

// Clear removes every node and persists the empty image.
func (ix *Index) Clear() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.nodes.reset()
	return ix.saveToStorage()
}

// Rebuild reconstructs the graph from the currently indexed vectors. Used
// after parameter changes; expensive, so callers invoke it rarely.
func (ix *Index) Rebuild() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	type snapshot struct {
		row model.RowID
		vec []float64
	}

	old := make([]snapshot, 0, ix.nodes.size())
	for row, node := range ix.nodes.nodes {
		old = append(old, snapshot{row: row, vec: node.Vector})
	}

	ix.nodes.reset()

	for _, s := range old {
		if err := ix.insertVectorLocked(s.row, s.vec); err != nil {
			return err
		}
	}

	if len(old) == 0 {
		return ix.saveToStorage()
	}
	return nil
}

// checkDimension fixes the dimension on first use and validates it after.
func (ix *Index) checkDimension(n int) error {
	if ix.cfg.Dimension == 0 {
		ix.cfg.Dimension = n
		return nil
	}
	if n != ix.cfg.Dimension {
		return &ErrDimensionMismatch{Expected: ix.cfg.Dimension, Actual: n}
	}
	return nil
}

// selectLayer samples the top layer for a new node from a geometric
// distribution, capped to bound graph height. Caller holds the exclusive
// lock; the RNG is part of the mutable state.
func (ix *Index) selectLayer() int {
	u := ix.rng.Float64()
	if u == 0 {
		u = math.SmallestNonzeroFloat64
	}
	layer := int(math.Floor(-math.Log(u) * ix.cfg.ML))
	if layer > maxLayerCap {
		layer = maxLayerCap
	}
	return layer
}
