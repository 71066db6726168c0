package hnsw

import (
	"math"

	"github.com/mohit67890/realm-core-hnsw/distance"
)

const (
	// DefaultM is the default out-degree target on upper layers.
	DefaultM = 16

	// DefaultEFConstruction is the default dynamic candidate list size
	// used during insertion.
	DefaultEFConstruction = 200

	// DefaultRandomSeed seeds the layer sampler unless overridden.
	DefaultRandomSeed = 42

	// maxLayerCap bounds worst-case graph height.
	maxLayerCap = 32
)

// Config holds the construction and search parameters of one index.
//
// Metric, M, M0, ML and RandomSeed are immutable after construction.
// Dimension is fixed by the first non-empty insert (or restored from the
// persistent image) and immutable from then on.
type Config struct {
	// Metric selects the distance function.
	Metric distance.Metric

	// M is the out-degree target on layers above 0.
	M int

	// M0 is the out-degree target on layer 0. 0 means 2*M.
	M0 int

	// EFConstruction is the dynamic candidate list size during insertion.
	// Larger values improve graph quality at the cost of insert speed.
	EFConstruction int

	// EFSearch is the dynamic candidate list size during queries.
	// 0 means max(64, 8*M). Larger values raise recall, slow searches.
	EFSearch int

	// ML is the layer-sampling scale. 0 means 1/ln 2.
	ML float64

	// Dimension is the fixed vector length. 0 until the first non-empty
	// insert sets it.
	Dimension int

	// RandomSeed seeds the deterministic layer sampler.
	RandomSeed uint64
}

// DefaultConfig returns the default configuration for the given metric.
func DefaultConfig(metric distance.Metric) Config {
	return Config{
		Metric:         metric,
		M:              DefaultM,
		EFConstruction: DefaultEFConstruction,
		RandomSeed:     DefaultRandomSeed,
	}
}

// normalize fills in derived defaults.
func (c *Config) normalize() {
	if c.M <= 0 {
		c.M = DefaultM
	}
	if c.M0 <= 0 {
		c.M0 = 2 * c.M
	}
	if c.EFConstruction <= 0 {
		c.EFConstruction = DefaultEFConstruction
	}
	if c.EFSearch <= 0 {
		c.EFSearch = 8 * c.M
		if c.EFSearch < 64 {
			c.EFSearch = 64
		}
	}
	if c.ML <= 0 {
		c.ML = 1 / math.Ln2
	}
}
