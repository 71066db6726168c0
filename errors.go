package hnswindex

import (
	"errors"
	"fmt"

	"github.com/mohit67890/realm-core-hnsw/hnsw"
)

var (
	// ErrNoIndex is returned when a column has no index bound.
	ErrNoIndex = errors.New("no index on column")

	// ErrBadArgument is returned for malformed query-surface input.
	ErrBadArgument = errors.New("bad argument")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// translateError normalizes engine errors into the surface error kinds.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *hnsw.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	return err
}
