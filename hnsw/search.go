package hnsw

import (
	"slices"
	"sort"
	"time"

	"github.com/mohit67890/realm-core-hnsw/internal/queue"
	"github.com/mohit67890/realm-core-hnsw/internal/visited"
	"github.com/mohit67890/realm-core-hnsw/model"
)

// SearchKNN returns the approximately k nearest rows to q, ascending by
// distance. efSearch overrides the configured candidate list size when
// positive; the effective ef is never below k. An empty index or k == 0
// yields an empty result.
func (ix *Index) SearchKNN(q []float64, k int, efSearch int) ([]model.Result, error) {
	start := time.Now()

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	res, err := ix.searchKNNLocked(q, k, efSearch)
	if err != nil {
		return nil, err
	}
	if k > 0 {
		ix.metrics.recordSearch(time.Since(start))
	}
	return res, nil
}

func (ix *Index) searchKNNLocked(q []float64, k int, efSearch int) ([]model.Result, error) {
	if ix.nodes.empty() || k == 0 {
		return nil, nil
	}
	if len(q) != ix.cfg.Dimension {
		return nil, &ErrDimensionMismatch{Expected: ix.cfg.Dimension, Actual: len(q)}
	}

	ef := efSearch
	if ef <= 0 {
		ef = ix.cfg.EFSearch
	}
	if ef < k {
		ef = k
	}
	if n := ix.nodes.size(); ef > n {
		ef = n
	}
	if n := ix.nodes.size(); k > n {
		k = n
	}

	entryRow, entryLayer := ix.nodes.entry()

	curr := entryRow
	for lc := entryLayer; lc > 0; lc-- {
		if res := ix.searchLayer(q, curr, 1, lc); len(res) > 0 {
			curr = res[0].Row
		}
	}

	results := ix.searchLayer(q, curr, ef, 0)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// SearchRadius returns every row within maxDistance of q, ascending by
// distance. A negative radius yields an empty result.
func (ix *Index) SearchRadius(q []float64, maxDistance float64) ([]model.Result, error) {
	start := time.Now()

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.nodes.empty() {
		ix.metrics.recordRadiusSearch(time.Since(start))
		return nil, nil
	}
	if maxDistance < 0 {
		return nil, nil
	}

	// Widen ef so the exhaustive k can actually be reached.
	n := ix.nodes.size()
	efLarge := ix.cfg.EFSearch
	if n > efLarge {
		efLarge = n
	}
	if limit := 2 * ix.cfg.EFSearch; efLarge > limit {
		efLarge = limit
	}

	results, err := ix.searchKNNLocked(q, n, efLarge)
	if err != nil {
		return nil, err
	}

	// Results are sorted, so the first out-of-radius entry ends the scan.
	cut := len(results)
	for i, r := range results {
		if r.Distance > maxDistance {
			cut = i
			break
		}
	}
	results = results[:cut]

	ix.metrics.recordRadiusSearch(time.Since(start))
	return results, nil
}

// searchLayer runs a greedy beam search on one layer from a single seed,
// returning up to ef rows ascending by distance. Rows that vanished from
// the mapping are skipped silently.
func (ix *Index) searchLayer(q []float64, entry model.RowID, ef int, layer int) []model.Result {
	entryNode, ok := ix.nodes.get(entry)
	if !ok {
		return nil
	}

	seen := visited.New(ef * 4)
	seen.Visit(entry)

	frontier := queue.NewMin(ef + 1)
	results := queue.NewMax(ef + 1)

	entryDist := ix.distFn(q, entryNode.Vector)
	frontier.PushItem(queue.Item{Row: entry, Distance: entryDist})
	results.PushItem(queue.Item{Row: entry, Distance: entryDist})

	for frontier.Len() > 0 {
		curr, _ := frontier.PopItem()

		if worst, _ := results.TopItem(); curr.Distance > worst.Distance && results.Len() >= ef {
			break
		}

		node, ok := ix.nodes.get(curr.Row)
		if !ok || layer >= len(node.Connections) {
			continue
		}

		for _, nb := range node.Connections[layer] {
			if seen.Visited(nb) {
				continue
			}
			seen.Visit(nb)

			nbNode, ok := ix.nodes.get(nb)
			if !ok {
				continue
			}

			d := ix.distFn(q, nbNode.Vector)
			worst, _ := results.TopItem()
			if d < worst.Distance || results.Len() < ef {
				item := queue.Item{Row: nb, Distance: d}
				frontier.PushItem(item)
				results.PushItem(item)
				if results.Len() > ef {
					results.PopItem()
				}
			}
		}
	}

	out := make([]model.Result, results.Len())
	for i := results.Len() - 1; i >= 0; i-- {
		item, _ := results.PopItem()
		out[i] = model.Result{Row: item.Row, Distance: item.Distance}
	}
	return out
}

// selectNeighboursSimple keeps the first min(m, len) candidates. The input
// is already ascending by distance.
func (ix *Index) selectNeighboursSimple(candidates []model.Result, m int) []model.RowID {
	if m > len(candidates) {
		m = len(candidates)
	}
	out := make([]model.RowID, 0, m)
	for _, c := range candidates[:m] {
		out = append(out, c.Row)
	}
	return out
}

// selectNeighboursHeuristic admits a candidate only if it is closer to the
// pivot than to every already-admitted neighbour, preserving directional
// diversity. With extend, the candidate set is first widened with the
// layer neighbours of each candidate, re-ranked against the pivot.
func (ix *Index) selectNeighboursHeuristic(pivot []float64, candidates []model.Result, m int, layer int, extend bool) []model.RowID {
	working := candidates

	if extend {
		working = slices.Clone(candidates)
		inSet := make(map[model.RowID]struct{}, len(candidates))
		for _, c := range candidates {
			inSet[c.Row] = struct{}{}
		}

		for _, c := range candidates {
			node, ok := ix.nodes.get(c.Row)
			if !ok || layer >= len(node.Connections) {
				continue
			}
			for _, nb := range node.Connections[layer] {
				if _, dup := inSet[nb]; dup {
					continue
				}
				nbNode, ok := ix.nodes.get(nb)
				if !ok {
					continue
				}
				working = append(working, model.Result{Row: nb, Distance: ix.distFn(pivot, nbNode.Vector)})
				inSet[nb] = struct{}{}
			}
		}

		sort.Slice(working, func(i, j int) bool {
			return working[i].Distance < working[j].Distance
		})
	}

	result := make([]model.RowID, 0, m)
	resultVecs := make([][]float64, 0, m)

	for _, candidate := range working {
		if len(result) >= m {
			break
		}

		candNode, ok := ix.nodes.get(candidate.Row)
		if !ok {
			continue
		}

		admit := true
		for _, selected := range resultVecs {
			if ix.distFn(candNode.Vector, selected) < candidate.Distance {
				admit = false
				break
			}
		}

		if admit {
			result = append(result, candidate.Row)
			resultVecs = append(resultVecs, candNode.Vector)
		}
	}

	return result
}

// connect adds the bidirectional edge (a, b) on layer, growing neighbour
// lists lazily. Self-loops and duplicates are never created.
func (ix *Index) connect(a, b model.RowID, layer int) {
	if a == b {
		return
	}

	na, ok := ix.nodes.get(a)
	if !ok {
		return
	}
	nb, ok := ix.nodes.get(b)
	if !ok {
		return
	}

	for len(na.Connections) <= layer {
		na.Connections = append(na.Connections, nil)
	}
	for len(nb.Connections) <= layer {
		nb.Connections = append(nb.Connections, nil)
	}

	if !slices.Contains(na.Connections[layer], b) {
		na.Connections[layer] = append(na.Connections[layer], b)
	}
	if !slices.Contains(nb.Connections[layer], a) {
		nb.Connections[layer] = append(nb.Connections[layer], a)
	}
}

// disconnect removes the edge (a, b) on layer in both directions.
func (ix *Index) disconnect(a, b model.RowID, layer int) {
	if na, ok := ix.nodes.get(a); ok && layer < len(na.Connections) {
		na.Connections[layer] = removeRow(na.Connections[layer], b)
	}
	if nb, ok := ix.nodes.get(b); ok && layer < len(nb.Connections) {
		nb.Connections[layer] = removeRow(nb.Connections[layer], a)
	}
}

func removeRow(rows []model.RowID, row model.RowID) []model.RowID {
	for i, r := range rows {
		if r == row {
			return append(rows[:i], rows[i+1:]...)
		}
	}
	return rows
}

// prune re-selects the neighbours of row on layer when its degree exceeds
// the layer cap, disconnecting everything the heuristic rejects.
func (ix *Index) prune(row model.RowID, layer int) {
	node, ok := ix.nodes.get(row)
	if !ok || layer >= len(node.Connections) {
		return
	}

	maxConn := ix.cfg.M
	if layer == 0 {
		maxConn = ix.cfg.M0
	}
	if len(node.Connections[layer]) <= maxConn {
		return
	}

	candidates := make([]model.Result, 0, len(node.Connections[layer]))
	for _, nb := range node.Connections[layer] {
		nbNode, ok := ix.nodes.get(nb)
		if !ok {
			continue
		}
		candidates = append(candidates, model.Result{Row: nb, Distance: ix.distFn(node.Vector, nbNode.Vector)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})

	kept := ix.selectNeighboursHeuristic(node.Vector, candidates, maxConn, layer, false)

	for _, old := range slices.Clone(node.Connections[layer]) {
		if !slices.Contains(kept, old) {
			ix.disconnect(row, old, layer)
		}
	}

	node.Connections[layer] = kept
}
