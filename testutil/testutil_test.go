package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohit67890/realm-core-hnsw/distance"
	"github.com/mohit67890/realm-core-hnsw/model"
)

func TestRNGDeterminism(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)
	assert.Equal(t, a.UniformVector(8), b.UniformVector(8))

	a.Reset()
	c := NewRNG(42)
	assert.Equal(t, c.UniformVector(4), a.UniformVector(4))
}

func TestUniformVectors(t *testing.T) {
	vecs := NewRNG(1).UniformVectors(10, 5)
	require.Len(t, vecs, 10)
	for _, v := range vecs {
		require.Len(t, v, 5)
		for _, x := range v {
			assert.GreaterOrEqual(t, x, 0.0)
			assert.Less(t, x, 1.0)
		}
	}
}

func TestExactTopK(t *testing.T) {
	vectors := map[model.RowID][]float64{
		1: {0},
		2: {5},
		3: {1},
		4: {3},
	}

	got := ExactTopK([]float64{0}, vectors, 2, distance.Euclidean)
	require.Len(t, got, 2)
	assert.Equal(t, model.RowID(1), got[0].Row)
	assert.Equal(t, model.RowID(3), got[1].Row)
}

func TestRecall(t *testing.T) {
	exact := []model.Result{{Row: 1}, {Row: 2}, {Row: 3}, {Row: 4}}
	approx := []model.Result{{Row: 1}, {Row: 3}, {Row: 9}, {Row: 4}}

	assert.InDelta(t, 0.75, Recall(approx, exact), 1e-12)
	assert.Equal(t, 1.0, Recall(nil, nil))
}
