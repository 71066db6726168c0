package hnsw

import (
	"errors"
	"fmt"

	"github.com/mohit67890/realm-core-hnsw/distance"
)

// ErrNilVectorSource is returned when an index is constructed without a
// vector source.
var ErrNilVectorSource = errors.New("hnsw: nil vector source")

// ErrDimensionMismatch is a named error type for dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch.
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("hnsw: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrFormatVersion indicates a persistent image with an unsupported format
// version.
type ErrFormatVersion struct {
	Version   int64
	Supported int64
}

// Error returns the error message for a format version mismatch.
func (e *ErrFormatVersion) Error() string {
	return fmt.Sprintf("hnsw: unsupported persistent format version %d (supported %d)", e.Version, e.Supported)
}

// ErrMetricMismatch indicates that a persistent image was built with a
// different metric than the runtime configuration.
type ErrMetricMismatch struct {
	Stored  distance.Metric
	Runtime distance.Metric
}

// Error returns the error message for a metric mismatch.
func (e *ErrMetricMismatch) Error() string {
	return fmt.Sprintf("hnsw: persisted metric %v does not match configured metric %v", e.Stored, e.Runtime)
}
