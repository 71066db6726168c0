package hnsw

import (
	"math"
	"math/rand"

	"github.com/mohit67890/realm-core-hnsw/distance"
	"github.com/mohit67890/realm-core-hnsw/model"
	"github.com/mohit67890/realm-core-hnsw/reftree"
)

// formatVersion is the persistent image format. Readers are strict: any
// other version aborts the load.
const formatVersion = 1

// Metadata slots. The first seven are the v1 layout; the extended slots
// carry the remaining configuration so a reopen can restore the full
// config and reject a metric mismatch. Images without them still load.
const (
	metaSlotVersion = iota
	metaSlotEntryRow
	metaSlotEntryLayer
	metaSlotDimension
	metaSlotM
	metaSlotEFConstruction
	metaSlotEFSearch
	metaSlotMetric
	metaSlotM0
	metaSlotML
	metaSlotSeed

	metaSlotsV1       = 7
	metaSlotsExtended = 11
)

// saveToStorage rewrites the persistent image. A brand-new root is built
// beside the committed one; only after it is complete is the old root
// destroyed and the new one swapped in, so a failed save leaves the
// previous image intact. Caller holds the exclusive lock.
func (ix *Index) saveToStorage() error {
	rootRef, root := ix.tree.AllocRefs()

	metaRef, meta := ix.tree.AllocInts()
	entryRow, entryLayer := ix.nodes.entry()
	meta.Add(formatVersion)
	meta.Add(int64(entryRow))
	meta.Add(int64(entryLayer))
	meta.Add(int64(ix.cfg.Dimension))
	meta.Add(int64(ix.cfg.M))
	meta.Add(int64(ix.cfg.EFConstruction))
	meta.Add(int64(ix.cfg.EFSearch))
	meta.Add(int64(ix.cfg.Metric))
	meta.Add(int64(ix.cfg.M0))
	meta.Add(int64(math.Float64bits(ix.cfg.ML)))
	meta.Add(int64(ix.cfg.RandomSeed))
	root.Add(metaRef)

	for _, node := range ix.nodes.nodes {
		nodeRef, nodeArr := ix.tree.AllocRefs()

		infoRef, info := ix.tree.AllocInts()
		info.Add(int64(node.Row))
		info.Add(int64(node.Layer))
		nodeArr.Add(infoRef)

		vecRef, vec := ix.tree.AllocInts()
		for _, v := range node.Vector {
			vec.Add(int64(math.Float64bits(v)))
		}
		nodeArr.Add(vecRef)

		for layer := 0; layer <= node.Layer; layer++ {
			connRef, conn := ix.tree.AllocInts()
			if layer < len(node.Connections) {
				for _, nb := range node.Connections[layer] {
					conn.Add(int64(nb))
				}
			}
			nodeArr.Add(connRef)
		}

		root.Add(nodeRef)
	}

	if old := ix.tree.Root(); old != 0 {
		ix.tree.Destroy(old)
	}
	ix.tree.SetRoot(rootRef)

	return ix.tree.Commit()
}

// loadFromStorage rebuilds the in-memory graph from the committed root.
// Called during construction, before the index is shared.
func (ix *Index) loadFromStorage() error {
	rootRef := ix.tree.Root()
	if rootRef == 0 {
		return nil
	}

	root, err := ix.tree.Refs(rootRef)
	if err != nil {
		return err
	}
	if root.Len() == 0 {
		return nil
	}

	if metaRef := root.Get(0); metaRef != 0 {
		meta, err := ix.tree.Ints(metaRef)
		if err != nil {
			return err
		}
		if err := ix.loadMetadata(meta); err != nil {
			return err
		}
	}

	for i := 1; i < root.Len(); i++ {
		nodeRef := root.Get(i)
		if nodeRef == 0 {
			continue
		}
		if err := ix.loadNode(nodeRef); err != nil {
			return err
		}
	}

	return nil
}

func (ix *Index) loadMetadata(meta *reftree.Ints) error {
	if meta.Len() < metaSlotsV1 {
		return nil
	}

	if v := meta.Get(metaSlotVersion); v != formatVersion {
		return &ErrFormatVersion{Version: v, Supported: formatVersion}
	}

	ix.nodes.setEntry(model.RowID(meta.Get(metaSlotEntryRow)), int(meta.Get(metaSlotEntryLayer)))
	ix.cfg.Dimension = int(meta.Get(metaSlotDimension))
	ix.cfg.M = int(meta.Get(metaSlotM))
	ix.cfg.EFConstruction = int(meta.Get(metaSlotEFConstruction))
	ix.cfg.EFSearch = int(meta.Get(metaSlotEFSearch))

	if meta.Len() >= metaSlotsExtended {
		stored := distance.Metric(meta.Get(metaSlotMetric))
		if stored != ix.cfg.Metric {
			return &ErrMetricMismatch{Stored: stored, Runtime: ix.cfg.Metric}
		}
		ix.cfg.M0 = int(meta.Get(metaSlotM0))
		ix.cfg.ML = math.Float64frombits(uint64(meta.Get(metaSlotML)))
		ix.cfg.RandomSeed = uint64(meta.Get(metaSlotSeed))
		ix.rng = rand.New(rand.NewSource(int64(ix.cfg.RandomSeed)))
	}

	ix.cfg.normalize()
	return nil
}

func (ix *Index) loadNode(nodeRef reftree.Ref) error {
	nodeArr, err := ix.tree.Refs(nodeRef)
	if err != nil {
		return err
	}
	if nodeArr.Len() < 2 {
		return nil
	}

	node := &Node{}

	if infoRef := nodeArr.Get(0); infoRef != 0 {
		info, err := ix.tree.Ints(infoRef)
		if err != nil {
			return err
		}
		if info.Len() >= 2 {
			node.Row = model.RowID(info.Get(0))
			node.Layer = int(info.Get(1))
		}
	}

	if vecRef := nodeArr.Get(1); vecRef != 0 {
		vec, err := ix.tree.Ints(vecRef)
		if err != nil {
			return err
		}
		node.Vector = make([]float64, 0, vec.Len())
		for j := 0; j < vec.Len(); j++ {
			node.Vector = append(node.Vector, math.Float64frombits(uint64(vec.Get(j))))
		}
	}

	node.Connections = make([][]model.RowID, node.Layer+1)
	for layer := 0; layer <= node.Layer && 2+layer < nodeArr.Len(); layer++ {
		connRef := nodeArr.Get(2 + layer)
		if connRef == 0 {
			continue
		}
		conn, err := ix.tree.Ints(connRef)
		if err != nil {
			return err
		}
		for j := 0; j < conn.Len(); j++ {
			node.Connections[layer] = append(node.Connections[layer], model.RowID(conn.Get(j)))
		}
	}

	ix.nodes.put(node)
	return nil
}
