package main

import (
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fulldump/radixstore/document"
	"github.com/fulldump/radixstore/trie"
)

// TestRemove preloads c.N documents, then has c.Workers remove the
// slice each owns via Collection.RemoveWhere on its "worker" field —
// grounded on the teacher's TestRemove (cmd/bench/test_remove.go),
// rewired off its `:remove` HTTP endpoint onto direct Collection calls.
func TestRemove(c Config) {
	db := document.NewDatabase(trie.Empty())
	col := db.Collection([]byte("bench"))

	log.Info().Msg("preloading documents")
	for i := int64(0); i < c.N; i++ {
		col.Insert(map[string]any{
			"id":     strconv.FormatInt(i, 10),
			"value":  0,
			"worker": i % int64(c.Workers),
		})
	}

	var mu sync.Mutex
	var removed int64

	t0 := time.Now()

	worker := int64(-1)
	var workerMu sync.Mutex
	Parallel(c.Workers, func() {
		workerMu.Lock()
		worker++
		w := worker
		workerMu.Unlock()

		mu.Lock()
		n, err := col.RemoveWhere(map[string]any{"worker": float64(w)})
		if err == nil {
			removed += int64(n)
		}
		mu.Unlock()
		if err != nil {
			log.Error().Err(err).Msg("removeWhere failed")
		}
	})

	took := time.Since(t0)
	log.Info().
		Int64("removed", removed).
		Dur("took", took).
		Float64("rows_per_sec", float64(removed)/took.Seconds()).
		Msg("remove done")
}
