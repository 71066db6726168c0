// Package hnswindex embeds persistent HNSW vector indexes in a host
// object database.
//
// A Catalog binds columns of []float64 vectors to hnsw.Index engines and
// exposes the host-facing query surface: k-nearest-neighbour and radius
// search, index lifecycle (create, remove, rebuild), statistics and
// metrics. Vectors are pulled from the host through a narrow
// hnsw.VectorSource seam; results come back as ascending (row, distance)
// pairs that callers can intersect with predicate-derived rowset.Sets for
// filtered search.
//
// Basic usage:
//
//	catalog := hnswindex.NewCatalog()
//	_ = catalog.CreateIndex("embeddings", source, nil)
//	_ = catalog.Insert("embeddings", row)
//	results, _ := catalog.SearchKNN("embeddings", query, 10, 0)
package hnswindex
