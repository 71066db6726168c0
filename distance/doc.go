// Package distance provides the metric kernel for vector comparison.
//
// All metrics return an ordered distance where smaller means more similar.
// Consumers must not assume non-negativity (the dot-product metric negates
// the inner product, so distances can be negative) or a triangle inequality.
package distance
