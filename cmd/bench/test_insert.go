package main

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fulldump/radixstore/document"
	"github.com/fulldump/radixstore/trie"
)

// TestInsert inserts c.N documents from c.Workers goroutines into one
// shared document.Collection, guarded by a mutex the way the teacher's
// Collection.rowsMutex guards concurrent Insert calls — the trie's own
// concurrency model gives each *working copy* to a single task at a
// time, so concurrent writers into one collection still need an
// external lock, just as spec §5 describes. Grounded on the teacher's
// TestInsert (cmd/bench/test_insert.go), rewired off HTTP pipes onto
// direct Collection.Insert calls.
func TestInsert(c Config) {
	db := document.NewDatabase(trie.Empty())
	col := db.Collection([]byte("bench"))
	var mu sync.Mutex

	items := c.N

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				log.Info().Int64("remaining", atomic.LoadInt64(&items)).Msg("insert progress")
			case <-stop:
				return
			}
		}
	}()

	t0 := time.Now()
	Parallel(c.Workers, func() {
		for {
			n := atomic.AddInt64(&items, -1)
			if n < 0 {
				break
			}
			doc := map[string]any{
				"id": n,
				"n":  strconv.FormatInt(n, 10),
			}
			mu.Lock()
			col.Insert(doc)
			mu.Unlock()
		}
	})
	close(stop)

	took := time.Since(t0)
	log.Info().
		Int64("sent", c.N).
		Dur("took", took).
		Float64("rows_per_sec", float64(c.N)/took.Seconds()).
		Msg("insert done")
}
