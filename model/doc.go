// Package model defines the shared identifier and result types exchanged
// between the index engine and the host-facing query surface.
//
// These types are deliberately tiny: the engine treats row identifiers as
// opaque and communicates results as (row, distance) pairs that the host can
// join against its own predicate-derived row sets.
package model
