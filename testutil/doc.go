// Package testutil provides testing utilities: seeded random vector
// generation, exact nearest-neighbour ground truth, and recall
// computation.
//
// This package is intended for use in tests and benchmarks only.
package testutil
