// Package hnsw implements a persistent Hierarchical Navigable Small World
// graph over vectors stored in a host database column.
//
// The graph is layered: upper layers are sparse and provide long-range
// navigation, layer 0 holds every node. Inserts pick a top layer from a
// geometric distribution, greedily descend to it, then connect the node on
// each layer it belongs to, pruning neighbours that exceed their degree
// caps. Searches descend with a beam of one to layer 0 and widen to ef
// there. Both queries are approximate; recall is tuned with EFConstruction
// and EFSearch.
//
// Readers share a lock, writers are exclusive, and every mutating
// operation rewrites the persistent image into the host's array-of-refs
// tree before it returns, swapping the new root in atomically.
package hnsw
