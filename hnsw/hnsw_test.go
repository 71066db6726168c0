package hnsw

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohit67890/realm-core-hnsw/distance"
	"github.com/mohit67890/realm-core-hnsw/model"
	"github.com/mohit67890/realm-core-hnsw/testutil"
)

// mapSource is a VectorSource over an in-memory column.
type mapSource struct {
	vectors map[model.RowID][]float64
}

func newMapSource() *mapSource {
	return &mapSource{vectors: make(map[model.RowID][]float64)}
}

func (s *mapSource) Vector(row model.RowID) []float64 {
	return s.vectors[row]
}

func (s *mapSource) set(row model.RowID, vec []float64) {
	s.vectors[row] = vec
}

func newTestIndex(t *testing.T, metric distance.Metric) (*Index, *mapSource) {
	t.Helper()

	src := newMapSource()
	ix, err := New(src, nil, DefaultConfig(metric))
	require.NoError(t, err)
	return ix, src
}

func insertAll(t *testing.T, ix *Index, src *mapSource, vecs map[model.RowID][]float64) {
	t.Helper()

	rows := make([]model.RowID, 0, len(vecs))
	for row, vec := range vecs {
		src.set(row, vec)
		rows = append(rows, row)
	}
	slices.Sort(rows)
	for _, row := range rows {
		require.NoError(t, ix.Insert(row))
	}
}

func TestNew(t *testing.T) {
	ix, _ := newTestIndex(t, distance.MetricEuclidean)

	cfg := ix.Config()
	assert.Equal(t, 16, cfg.M)
	assert.Equal(t, 32, cfg.M0)
	assert.Equal(t, 200, cfg.EFConstruction)
	assert.Equal(t, 128, cfg.EFSearch) // max(64, 8*M)
	assert.InDelta(t, 1.4426950408889634, cfg.ML, 1e-12)
	assert.True(t, ix.IsEmpty())
}

func TestNewNilSource(t *testing.T) {
	_, err := New(nil, nil, DefaultConfig(distance.MetricEuclidean))
	assert.ErrorIs(t, err, ErrNilVectorSource)
}

func TestOriginGrid(t *testing.T) {
	ix, src := newTestIndex(t, distance.MetricEuclidean)

	insertAll(t, ix, src, map[model.RowID][]float64{
		0: {0, 0, 0},
		1: {3, 4, 0},
		2: {1, 0, 0},
		3: {6, 8, 0},
	})

	res, err := ix.SearchKNN([]float64{0, 0, 0}, 4, 0)
	require.NoError(t, err)
	require.Len(t, res, 4)

	wantRows := []model.RowID{0, 2, 1, 3}
	wantDists := []float64{0, 1, 5, 10}
	for i := range res {
		assert.Equal(t, wantRows[i], res[i].Row)
		assert.InDelta(t, wantDists[i], res[i].Distance, 0.01)
	}
}

func lineVectors(n int) map[model.RowID][]float64 {
	vecs := make(map[model.RowID][]float64, n)
	for i := 0; i < n; i++ {
		f := float64(i)
		vecs[model.RowID(i)] = []float64{f, 2 * f, 0.5 * f}
	}
	return vecs
}

func TestSelfExact(t *testing.T) {
	ix, src := newTestIndex(t, distance.MetricEuclidean)
	insertAll(t, ix, src, lineVectors(10))

	res, err := ix.SearchKNN([]float64{5, 10, 2.5}, 5, 0)
	require.NoError(t, err)
	require.Len(t, res, 5)
	assert.Equal(t, model.RowID(5), res[0].Row)
	assert.Less(t, res[0].Distance, 0.01)
}

func TestDeleteThenSearch(t *testing.T) {
	ix, src := newTestIndex(t, distance.MetricEuclidean)
	insertAll(t, ix, src, lineVectors(10))

	for row := model.RowID(0); row < 3; row++ {
		require.NoError(t, ix.Erase(row))
	}

	res, err := ix.SearchKNN([]float64{5, 10, 2.5}, 10, 0)
	require.NoError(t, err)
	require.Len(t, res, 7)
	for _, r := range res {
		assert.GreaterOrEqual(t, uint64(r.Row), uint64(3))
	}

	// Erased rows must not linger in any surviving neighbour list.
	require.NoError(t, ix.Verify())
	for _, node := range ix.nodes.nodes {
		for _, conns := range node.Connections {
			for _, nb := range conns {
				assert.GreaterOrEqual(t, uint64(nb), uint64(3))
			}
		}
	}
}

func TestDimensionGuard(t *testing.T) {
	ix, src := newTestIndex(t, distance.MetricEuclidean)

	src.set(1, []float64{1, 2, 3})
	require.NoError(t, ix.Insert(1))

	src.set(2, []float64{1, 2})
	err := ix.Insert(2)
	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 3, dm.Expected)
	assert.Equal(t, 2, dm.Actual)
	assert.Equal(t, 1, ix.Count())

	_, err = ix.SearchKNN([]float64{1, 2}, 1, 0)
	require.ErrorAs(t, err, &dm)

	_, err = ix.SearchRadius([]float64{1, 2}, 1)
	require.ErrorAs(t, err, &dm)
}

func TestRadius(t *testing.T) {
	ix, src := newTestIndex(t, distance.MetricEuclidean)

	for i := 0; i < 10; i++ {
		src.set(model.RowID(i), []float64{float64(i)})
		require.NoError(t, ix.Insert(model.RowID(i)))
	}

	res, err := ix.SearchRadius([]float64{0}, 3.5)
	require.NoError(t, err)
	require.Len(t, res, 4)
	for i, r := range res {
		assert.Equal(t, model.RowID(i), r.Row)
		assert.LessOrEqual(t, r.Distance, 3.5)
	}
}

func TestNegativeRadius(t *testing.T) {
	ix, src := newTestIndex(t, distance.MetricEuclidean)
	insertAll(t, ix, src, lineVectors(3))

	res, err := ix.SearchRadius([]float64{0, 0, 0}, -1)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestEmptyIndexQueries(t *testing.T) {
	ix, _ := newTestIndex(t, distance.MetricEuclidean)

	res, err := ix.SearchKNN([]float64{1, 2, 3}, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, res)

	res, err = ix.SearchRadius([]float64{1, 2, 3}, 10)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestZeroKReturnsEmpty(t *testing.T) {
	ix, src := newTestIndex(t, distance.MetricEuclidean)
	insertAll(t, ix, src, lineVectors(3))

	res, err := ix.SearchKNN([]float64{0, 0, 0}, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestEmptyVectorIgnored(t *testing.T) {
	ix, src := newTestIndex(t, distance.MetricEuclidean)

	src.set(7, nil)
	require.NoError(t, ix.Insert(7))
	assert.True(t, ix.IsEmpty())
	assert.Equal(t, 0, ix.Config().Dimension)
}

func TestEntryPointPromotionAndReelection(t *testing.T) {
	ix, src := newTestIndex(t, distance.MetricEuclidean)
	insertAll(t, ix, src, lineVectors(50))

	entryRow, entryLayer := ix.EntryPoint()
	require.GreaterOrEqual(t, entryLayer, 0)

	maxLayer := -1
	for _, node := range ix.nodes.nodes {
		if node.Layer > maxLayer {
			maxLayer = node.Layer
		}
	}
	assert.Equal(t, maxLayer, entryLayer)

	// Removing the entry point elects the highest remaining node.
	require.NoError(t, ix.Erase(entryRow))

	newEntry, newLayer := ix.EntryPoint()
	require.NotEqual(t, entryRow, newEntry)
	maxLayer = -1
	for _, node := range ix.nodes.nodes {
		if node.Layer > maxLayer {
			maxLayer = node.Layer
		}
	}
	assert.Equal(t, maxLayer, newLayer)
}

func TestEraseToEmpty(t *testing.T) {
	ix, src := newTestIndex(t, distance.MetricEuclidean)
	insertAll(t, ix, src, lineVectors(3))

	for row := model.RowID(0); row < 3; row++ {
		require.NoError(t, ix.Erase(row))
	}

	assert.True(t, ix.IsEmpty())
	_, layer := ix.EntryPoint()
	assert.Equal(t, -1, layer)
}

func TestClearIsIdempotent(t *testing.T) {
	ix, src := newTestIndex(t, distance.MetricEuclidean)
	insertAll(t, ix, src, lineVectors(10))

	require.NoError(t, ix.Clear())
	assert.True(t, ix.IsEmpty())

	require.NoError(t, ix.Clear())
	assert.True(t, ix.IsEmpty())
	_, layer := ix.EntryPoint()
	assert.Equal(t, -1, layer)
}

func TestSetReplacesVector(t *testing.T) {
	ix, src := newTestIndex(t, distance.MetricEuclidean)
	insertAll(t, ix, src, lineVectors(10))

	src.set(3, []float64{100, 100, 100})
	require.NoError(t, ix.Set(3))
	assert.Equal(t, 10, ix.Count())

	res, err := ix.SearchKNN([]float64{100, 100, 100}, 1, 0)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, model.RowID(3), res[0].Row)
	assert.Less(t, res[0].Distance, 0.01)
}

func TestSetUnknownRowInserts(t *testing.T) {
	ix, src := newTestIndex(t, distance.MetricEuclidean)

	src.set(42, []float64{1, 1, 1})
	require.NoError(t, ix.Set(42))
	assert.Equal(t, 1, ix.Count())
}

func TestRebuild(t *testing.T) {
	ix, src := newTestIndex(t, distance.MetricEuclidean)
	insertAll(t, ix, src, lineVectors(30))

	require.NoError(t, ix.Rebuild())
	assert.Equal(t, 30, ix.Count())
	require.NoError(t, ix.Verify())

	res, err := ix.SearchKNN([]float64{5, 10, 2.5}, 1, 0)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, model.RowID(5), res[0].Row)
}

func TestRebuildEmpty(t *testing.T) {
	ix, _ := newTestIndex(t, distance.MetricEuclidean)
	require.NoError(t, ix.Rebuild())
	assert.True(t, ix.IsEmpty())
}

func TestSelfQueryCosine(t *testing.T) {
	ix, src := newTestIndex(t, distance.MetricCosine)

	rng := testutil.NewRNG(4711)
	vecs := make(map[model.RowID][]float64, 20)
	for i := 0; i < 20; i++ {
		vecs[model.RowID(i)] = rng.UniformVector(8)
	}
	insertAll(t, ix, src, vecs)

	for row, vec := range vecs {
		res, err := ix.SearchKNN(vec, 1, 0)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, row, res[0].Row)
		assert.Less(t, res[0].Distance, 0.01)
	}
}

func TestDotProductTopK(t *testing.T) {
	ix, src := newTestIndex(t, distance.MetricDotProduct)

	insertAll(t, ix, src, map[model.RowID][]float64{
		1: {1, 0, 0},
		2: {2, 0, 0},
		3: {-1, 0, 0},
	})

	res, err := ix.SearchKNN([]float64{1, 0, 0}, 3, 0)
	require.NoError(t, err)
	require.Len(t, res, 3)

	// The most aligned vector wins; distances are negative inner products.
	assert.Equal(t, model.RowID(2), res[0].Row)
	assert.InDelta(t, -2.0, res[0].Distance, 1e-9)
	assert.Equal(t, model.RowID(1), res[1].Row)
	assert.Equal(t, model.RowID(3), res[2].Row)

	// The queried vector itself appears in the top k.
	found := false
	for _, r := range res {
		if r.Row == 1 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRecallAgainstBruteForce(t *testing.T) {
	tests := []struct {
		n, dim, k int
		minRecall float64
	}{
		{n: 500, dim: 8, k: 10, minRecall: 0.95},
		{n: 1000, dim: 16, k: 10, minRecall: 0.95},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("n=%d,dim=%d", tc.n, tc.dim), func(t *testing.T) {
			ix, src := newTestIndex(t, distance.MetricEuclidean)

			rng := testutil.NewRNG(1234)
			vecs := make(map[model.RowID][]float64, tc.n)
			for i := 0; i < tc.n; i++ {
				vecs[model.RowID(i)] = rng.UniformVector(tc.dim)
			}
			insertAll(t, ix, src, vecs)
			require.NoError(t, ix.Verify())

			total := 0.0
			queries := 0
			for i := 0; i < tc.n; i += tc.n / 50 {
				q := vecs[model.RowID(i)]
				exact := testutil.ExactTopK(q, vecs, tc.k, distance.Euclidean)
				approx, err := ix.SearchKNN(q, tc.k, 0)
				require.NoError(t, err)
				total += testutil.Recall(approx, exact)
				queries++
			}

			recall := total / float64(queries)
			t.Logf("recall=%.4f over %d queries", recall, queries)
			assert.GreaterOrEqual(t, recall, tc.minRecall)
		})
	}
}

func TestMonotoneEF(t *testing.T) {
	ix, src := newTestIndex(t, distance.MetricEuclidean)

	rng := testutil.NewRNG(99)
	vecs := make(map[model.RowID][]float64, 400)
	for i := 0; i < 400; i++ {
		vecs[model.RowID(i)] = rng.UniformVector(12)
	}
	insertAll(t, ix, src, vecs)

	q := rng.UniformVector(12)
	exact := testutil.ExactTopK(q, vecs, 10, distance.Euclidean)

	prev := -1.0
	for _, ef := range []int{10, 50, 100, 200, 400} {
		approx, err := ix.SearchKNN(q, 10, ef)
		require.NoError(t, err)
		recall := testutil.Recall(approx, exact)
		assert.GreaterOrEqual(t, recall+1e-9, prev, "recall must not decrease as ef grows (ef=%d)", ef)
		prev = recall
	}
}

func TestResultsAscending(t *testing.T) {
	ix, src := newTestIndex(t, distance.MetricEuclidean)

	rng := testutil.NewRNG(7)
	vecs := make(map[model.RowID][]float64, 200)
	for i := 0; i < 200; i++ {
		vecs[model.RowID(i)] = rng.UniformVector(6)
	}
	insertAll(t, ix, src, vecs)

	res, err := ix.SearchKNN(rng.UniformVector(6), 50, 0)
	require.NoError(t, err)
	for i := 1; i < len(res); i++ {
		assert.LessOrEqual(t, res[i-1].Distance, res[i].Distance)
	}
}

func TestVerifyAfterChurn(t *testing.T) {
	ix, src := newTestIndex(t, distance.MetricEuclidean)

	rng := testutil.NewRNG(31337)
	for i := 0; i < 300; i++ {
		row := model.RowID(i)
		src.set(row, rng.UniformVector(8))
		require.NoError(t, ix.Insert(row))
	}
	require.NoError(t, ix.Verify())

	for i := 0; i < 150; i++ {
		require.NoError(t, ix.Erase(model.RowID(rng.Intn(300))))
	}
	require.NoError(t, ix.Verify())

	for i := 300; i < 400; i++ {
		row := model.RowID(i)
		src.set(row, rng.UniformVector(8))
		require.NoError(t, ix.Insert(row))
	}
	require.NoError(t, ix.Verify())
}

func TestMetricsCounters(t *testing.T) {
	ix, src := newTestIndex(t, distance.MetricEuclidean)
	insertAll(t, ix, src, lineVectors(5))

	_, err := ix.SearchKNN([]float64{0, 0, 0}, 3, 0)
	require.NoError(t, err)
	_, err = ix.SearchRadius([]float64{0, 0, 0}, 2)
	require.NoError(t, err)
	require.NoError(t, ix.Erase(0))

	m := ix.Metrics()
	assert.Equal(t, uint64(5), m.InsertCount)
	assert.Equal(t, uint64(1), m.SearchCount)
	assert.Equal(t, uint64(1), m.RadiusSearchCount)
	assert.Equal(t, uint64(1), m.EraseCount)
	assert.GreaterOrEqual(t, m.AvgInsertMillis, 0.0)
}

func TestStats(t *testing.T) {
	ix, src := newTestIndex(t, distance.MetricEuclidean)

	s := ix.Stats()
	assert.Equal(t, 0, s.NumVectors)
	assert.Equal(t, -1, s.MaxLayer)

	insertAll(t, ix, src, lineVectors(10))

	s = ix.Stats()
	assert.Equal(t, 10, s.NumVectors)
	assert.GreaterOrEqual(t, s.MaxLayer, 0)
	assert.Equal(t, 3, s.Dimension)
}

func TestDeterministicLayers(t *testing.T) {
	build := func() []int {
		ix, src := newTestIndex(t, distance.MetricEuclidean)
		insertAll(t, ix, src, lineVectors(20))

		layers := make([]int, 0, 20)
		for i := 0; i < 20; i++ {
			node, ok := ix.nodes.get(model.RowID(i))
			require.True(t, ok)
			layers = append(layers, node.Layer)
		}
		return layers
	}

	// Same seed, same insertion order: identical layer assignments.
	assert.Equal(t, build(), build())
}

func TestSetEFSearch(t *testing.T) {
	ix, _ := newTestIndex(t, distance.MetricEuclidean)

	ix.SetEFSearch(77)
	assert.Equal(t, 77, ix.Config().EFSearch)

	ix.SetEFSearch(0) // ignored
	assert.Equal(t, 77, ix.Config().EFSearch)
}
