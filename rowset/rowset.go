// Package rowset provides row-id sets for composing vector search results
// with host-side predicates.
//
// The index returns an ascending (row, distance) sequence; the host
// evaluates its predicates into a Set and intersects. Sets are backed by
// 64-bit roaring bitmaps so large sparse row-id populations stay cheap.
package rowset

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/mohit67890/realm-core-hnsw/model"
)

// Set is a set of row-ids.
// It wraps a 64-bit roaring bitmap; operations are not safe for concurrent
// mutation.
type Set struct {
	rb *roaring64.Bitmap
}

// New creates an empty set.
func New() *Set {
	return &Set{rb: roaring64.New()}
}

// FromRows creates a set holding the given rows.
func FromRows(rows ...model.RowID) *Set {
	s := New()
	for _, row := range rows {
		s.Add(row)
	}
	return s
}

// Add inserts a row into the set.
func (s *Set) Add(row model.RowID) {
	s.rb.Add(uint64(row))
}

// Remove deletes a row from the set.
func (s *Set) Remove(row model.RowID) {
	s.rb.Remove(uint64(row))
}

// Contains reports whether the row is in the set.
func (s *Set) Contains(row model.RowID) bool {
	return s.rb.Contains(uint64(row))
}

// Len returns the number of rows in the set.
func (s *Set) Len() int {
	return int(s.rb.GetCardinality())
}

// And intersects the set with other in place.
func (s *Set) And(other *Set) {
	s.rb.And(other.rb)
}

// Or unions the set with other in place.
func (s *Set) Or(other *Set) {
	s.rb.Or(other.rb)
}

// Clone returns a copy of the set.
func (s *Set) Clone() *Set {
	return &Set{rb: s.rb.Clone()}
}

// Rows returns the rows in ascending order.
func (s *Set) Rows() []model.RowID {
	out := make([]model.RowID, 0, s.rb.GetCardinality())
	it := s.rb.Iterator()
	for it.HasNext() {
		out = append(out, model.RowID(it.Next()))
	}
	return out
}

// Filter returns the results whose rows are members of set, preserving the
// input order. A nil set passes everything through.
func Filter(results []model.Result, set *Set) []model.Result {
	if set == nil {
		return results
	}
	out := make([]model.Result, 0, len(results))
	for _, r := range results {
		if set.Contains(r.Row) {
			out = append(out, r)
		}
	}
	return out
}
