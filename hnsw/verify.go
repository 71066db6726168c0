package hnsw

import (
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/mohit67890/realm-core-hnsw/model"
)

// degreeSlack is tolerated above the layer cap; a multi-step prune can
// leave a node briefly over the target.
const degreeSlack = 2

// Verify checks the structural invariants of the whole graph: every edge
// has its inverse, no node links to itself or lists a neighbour twice, and
// no neighbour list exceeds its layer cap by more than the allowed slack.
//
// It takes the shared lock and scans node shards in parallel; intended for
// tests and debugging, not for hot paths.
func (ix *Index) Verify() error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	rows := make([]model.RowID, 0, ix.nodes.size())
	for row := range ix.nodes.nodes {
		rows = append(rows, row)
	}

	shards := runtime.NumCPU()
	if shards > len(rows) {
		shards = len(rows)
	}
	if shards == 0 {
		return nil
	}

	var g errgroup.Group
	chunk := (len(rows) + shards - 1) / shards

	for s := 0; s < shards; s++ {
		lo := s * chunk
		hi := lo + chunk
		if hi > len(rows) {
			hi = len(rows)
		}
		part := rows[lo:hi]

		g.Go(func() error {
			for _, row := range part {
				if err := ix.verifyNode(row); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}

func (ix *Index) verifyNode(row model.RowID) error {
	node, ok := ix.nodes.get(row)
	if !ok {
		return nil
	}

	for layer := 0; layer <= node.Layer && layer < len(node.Connections); layer++ {
		conns := node.Connections[layer]

		maxConn := ix.cfg.M
		if layer == 0 {
			maxConn = ix.cfg.M0
		}
		if len(conns) > maxConn+degreeSlack {
			return fmt.Errorf("hnsw: verify: node %v layer %d has %d neighbours (cap %d+%d)",
				row, layer, len(conns), maxConn, degreeSlack)
		}

		seen := make(map[model.RowID]struct{}, len(conns))
		for _, nb := range conns {
			if nb == row {
				return fmt.Errorf("hnsw: verify: node %v layer %d links to itself", row, layer)
			}
			if _, dup := seen[nb]; dup {
				return fmt.Errorf("hnsw: verify: node %v layer %d lists %v twice", row, layer, nb)
			}
			seen[nb] = struct{}{}

			nbNode, ok := ix.nodes.get(nb)
			if !ok {
				return fmt.Errorf("hnsw: verify: node %v layer %d links to missing row %v", row, layer, nb)
			}
			if layer >= len(nbNode.Connections) || !slices.Contains(nbNode.Connections[layer], row) {
				return fmt.Errorf("hnsw: verify: edge %v -> %v on layer %d has no inverse", row, nb, layer)
			}
		}
	}

	return nil
}
