package main

import (
	"strconv"
	"sync"

	"github.com/fulldump/goconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fulldump/radixstore/document"
	"github.com/fulldump/radixstore/trie"
)

// Config drives replbench's workload, grounded on the teacher's
// cmd/patchbench benchmark (many concurrent clients patching a small
// set of hot rows), rewired off HTTP patching onto Database.Transact
// so the three-way merges it forces can be counted and reported
// instead of being hidden behind a server's shared-collection lock.
type Config struct {
	N          int64 `usage:"number of preloaded documents"`
	Workers    int   `usage:"number of concurrent transactions"`
	Iterations int   `usage:"patches attempted per worker"`
	HotKeys    int64 `usage:"number of distinct ids patches target, lower means more contention"`
}

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	c := Config{
		N:          1024,
		Workers:    16,
		Iterations: 200,
		HotKeys:    8,
	}
	goconfig.Read(&c)

	db := document.NewDatabase(trie.Empty())
	ident := []byte("patchbench")

	db.CreateIndex(ident, "by_id", []string{"id"}, true)

	col := db.Collection(ident)
	for i := int64(0); i < c.N; i++ {
		col.Insert(map[string]any{"id": strconv.FormatInt(i, 10), "value": float64(0)})
	}

	var mu sync.Mutex
	var committed, conflicted int64

	Parallel(c.Workers, func(worker int) {
		for i := 0; i < c.Iterations; i++ {
			targetID := strconv.FormatInt(int64(worker)%c.HotKeys, 10)

			err := db.Transact(ident, func(tcol *document.Collection) error {
				ids, err := tcol.FindBy("by_id", map[string]any{"id": targetID})
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					return nil
				}
				return tcol.Patch(ids[0], map[string]any{"value": float64(i)})
			})

			mu.Lock()
			if err != nil {
				conflicted++
				log.Debug().Str("id", targetID).Err(err).Msg("merge conflict")
			} else {
				committed++
			}
			mu.Unlock()
		}
	})

	log.Info().
		Int64("committed", committed).
		Int64("conflicted", conflicted).
		Msg("replbench done")
}

// Parallel runs f once per worker index 0..workers-1 concurrently and
// waits for every goroutine to return, the worker-index variant of
// cmd/bench's Parallel helper.
func Parallel(workers int, f func(worker int)) {
	wg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			f(worker)
		}(i)
	}
	wg.Wait()
}
