package main

import (
	"time"

	"github.com/google/btree"
	"github.com/rs/zerolog/log"
)

// TestBtree runs the same insert-then-remove workload TestInsert and
// TestRemove drive through the radix trie, but against an in-memory
// google/btree.BTreeG — a reference container to compare against, the
// way the teacher's collectionv2.BTreeContainer stands in for a Row
// container alongside its trie-backed ones.
func TestBtree(c Config) {
	tree := btree.NewG(32, func(a, b int64) bool { return a < b })

	t0 := time.Now()
	for i := int64(0); i < c.N; i++ {
		tree.ReplaceOrInsert(i)
	}
	insertTook := time.Since(t0)
	log.Info().
		Int64("sent", c.N).
		Dur("took", insertTook).
		Float64("rows_per_sec", float64(c.N)/insertTook.Seconds()).
		Msg("btree insert done")

	t1 := time.Now()
	for i := int64(0); i < c.N; i++ {
		tree.Delete(i)
	}
	removeTook := time.Since(t1)
	log.Info().
		Int64("removed", c.N).
		Dur("took", removeTook).
		Float64("rows_per_sec", float64(c.N)/removeTook.Seconds()).
		Msg("btree remove done")
}
