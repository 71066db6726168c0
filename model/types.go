package model

import "fmt"

// RowID is the stable external identifier supplied by the host database.
// The index does not interpret it beyond equality and hashing. Zero doubles
// as the "no entry point" sentinel in persisted metadata, but emptiness is
// always decided by the node count, so zero remains a legal row key.
type RowID uint64

// String returns a string representation of the RowID.
func (r RowID) String() string {
	return fmt.Sprintf("Row(%d)", uint64(r))
}

// Result is a single search hit: a row and its distance to the query.
// Smaller distance means more similar regardless of the configured metric;
// for the dot-product metric the value can be negative.
type Result struct {
	Row      RowID
	Distance float64
}
