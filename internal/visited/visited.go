// Package visited tracks the rows touched by a single layer search.
//
// Row identifiers are opaque and potentially sparse across the full 63-bit
// range, so the set is hash-based rather than a dense bitset.
package visited

import "github.com/mohit67890/realm-core-hnsw/model"

// Set records visited rows for one traversal.
type Set struct {
	rows map[model.RowID]struct{}
}

// New creates a visited set with room for roughly capacity rows.
func New(capacity int) *Set {
	return &Set{
		rows: make(map[model.RowID]struct{}, capacity),
	}
}

// Visit marks a row as visited.
func (s *Set) Visit(row model.RowID) {
	s.rows[row] = struct{}{}
}

// Visited returns true if the row has been visited.
func (s *Set) Visited(row model.RowID) bool {
	_, ok := s.rows[row]
	return ok
}

// Len returns the number of visited rows.
func (s *Set) Len() int {
	return len(s.rows)
}

// Reset clears the set for reuse.
func (s *Set) Reset() {
	clear(s.rows)
}
