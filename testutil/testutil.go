package testutil

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/mohit67890/realm-core-hnsw/distance"
	"github.com/mohit67890/realm-core-hnsw/model"
)

// RNG encapsulates a seeded random number generator. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Float64 returns a pseudo-random number in [0, 1).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Intn returns a non-negative pseudo-random number in [0, n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// UniformVector returns one vector with components uniform in [0, 1).
func (r *RNG) UniformVector(dim int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := make([]float64, dim)
	for i := range v {
		v[i] = r.rand.Float64()
	}
	return v
}

// UniformVectors returns n vectors with components uniform in [0, 1).
func (r *RNG) UniformVectors(n, dim int) [][]float64 {
	vecs := make([][]float64, n)
	for i := range vecs {
		vecs[i] = r.UniformVector(dim)
	}
	return vecs
}

// ExactTopK computes the exact k nearest rows by brute force, ascending by
// distance. Ties are broken by row id for determinism.
func ExactTopK(q []float64, vectors map[model.RowID][]float64, k int, fn distance.Func) []model.Result {
	all := make([]model.Result, 0, len(vectors))
	for row, vec := range vectors {
		all = append(all, model.Result{Row: row, Distance: fn(q, vec)})
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Distance != all[j].Distance {
			return all[i].Distance < all[j].Distance
		}
		return all[i].Row < all[j].Row
	})

	if len(all) > k {
		all = all[:k]
	}
	return all
}

// Recall returns the fraction of exact results present in approx.
func Recall(approx, exact []model.Result) float64 {
	if len(exact) == 0 {
		return 1
	}

	got := make(map[model.RowID]struct{}, len(approx))
	for _, r := range approx {
		got[r.Row] = struct{}{}
	}

	hits := 0
	for _, r := range exact {
		if _, ok := got[r.Row]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(exact))
}
