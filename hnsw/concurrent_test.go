package hnsw

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/mohit67890/realm-core-hnsw/distance"
	"github.com/mohit67890/realm-core-hnsw/model"
	"github.com/mohit67890/realm-core-hnsw/testutil"
)

// Readers run concurrently with a writer; the lock discipline must keep
// every observed state consistent. Run with -race.
func TestConcurrentReadersAndWriter(t *testing.T) {
	src := newMapSource()
	ix, err := New(src, nil, DefaultConfig(distance.MetricEuclidean))
	require.NoError(t, err)

	rng := testutil.NewRNG(2024)
	const seedRows = 100
	for i := 0; i < seedRows; i++ {
		src.set(model.RowID(i), rng.UniformVector(8))
	}
	for i := 0; i < seedRows; i++ {
		require.NoError(t, ix.Insert(model.RowID(i)))
	}

	var g errgroup.Group

	g.Go(func() error {
		for i := seedRows; i < seedRows+100; i++ {
			row := model.RowID(i)
			src.set(row, rng.UniformVector(8))
			if err := ix.Insert(row); err != nil {
				return err
			}
			if i%10 == 0 {
				if err := ix.Erase(model.RowID(i - seedRows)); err != nil {
					return err
				}
			}
		}
		return nil
	})

	for r := 0; r < 4; r++ {
		g.Go(func() error {
			q := rng.UniformVector(8)
			for i := 0; i < 200; i++ {
				res, err := ix.SearchKNN(q, 5, 0)
				if err != nil {
					return err
				}
				for j := 1; j < len(res); j++ {
					if res[j-1].Distance > res[j].Distance {
						t.Errorf("results out of order")
					}
				}
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
	require.NoError(t, ix.Verify())
}

// A query that starts after a write completes must observe it.
func TestReadYourWrites(t *testing.T) {
	src := newMapSource()
	ix, err := New(src, nil, DefaultConfig(distance.MetricEuclidean))
	require.NoError(t, err)

	src.set(1, []float64{1, 0})
	require.NoError(t, ix.Insert(1))

	res, err := ix.SearchKNN([]float64{1, 0}, 1, 0)
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, model.RowID(1), res[0].Row)

	require.NoError(t, ix.Erase(1))

	res, err = ix.SearchKNN([]float64{1, 0}, 1, 0)
	require.NoError(t, err)
	require.Empty(t, res)
}
