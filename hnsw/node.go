package hnsw

import "github.com/mohit67890/realm-core-hnsw/model"

// Node is one indexed vector and its per-layer adjacency.
type Node struct {
	// Row is the host-supplied identifier of the indexed row.
	Row model.RowID

	// Vector is the indexed value; its length equals the index dimension.
	Vector []float64

	// Layer is the highest layer this node appears on.
	Layer int

	// Connections holds one neighbour list per layer in [0, Layer], so it
	// has Layer+1 entries. A list stays nil until its first edge is added.
	Connections [][]model.RowID
}

// nodeStore owns the row -> node mapping and the entry point. All access
// is mediated by the index lock.
type nodeStore struct {
	nodes      map[model.RowID]*Node
	entryRow   model.RowID
	entryLayer int
}

func newNodeStore() *nodeStore {
	return &nodeStore{
		nodes:      make(map[model.RowID]*Node),
		entryLayer: -1,
	}
}

func (s *nodeStore) get(row model.RowID) (*Node, bool) {
	n, ok := s.nodes[row]
	return n, ok
}

func (s *nodeStore) put(n *Node) {
	s.nodes[n.Row] = n
}

func (s *nodeStore) remove(row model.RowID) {
	delete(s.nodes, row)
}

func (s *nodeStore) size() int {
	return len(s.nodes)
}

func (s *nodeStore) empty() bool {
	return len(s.nodes) == 0
}

// entry returns a snapshot of the entry point.
func (s *nodeStore) entry() (model.RowID, int) {
	return s.entryRow, s.entryLayer
}

func (s *nodeStore) setEntry(row model.RowID, layer int) {
	s.entryRow = row
	s.entryLayer = layer
}

// electEntry scans all nodes and installs the one with the maximum top
// layer as the entry point, or clears it when no nodes remain.
func (s *nodeStore) electEntry() {
	s.entryRow = 0
	s.entryLayer = -1
	for _, n := range s.nodes {
		if n.Layer > s.entryLayer {
			s.entryRow = n.Row
			s.entryLayer = n.Layer
		}
	}
}

func (s *nodeStore) reset() {
	s.nodes = make(map[model.RowID]*Node)
	s.entryRow = 0
	s.entryLayer = -1
}
