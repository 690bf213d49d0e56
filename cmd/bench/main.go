package main

import (
	"strings"
	"sync"

	"github.com/fulldump/goconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config mirrors the teacher's cmd/bench Config, minus the HTTP base
// URL: this benchmark drives the in-process engine directly instead of
// going through a server.
type Config struct {
	Test    string `usage:"name of the test: INSERT | REMOVE | BTREE"`
	N       int64  `usage:"number of documents"`
	Workers int    `usage:"number of workers"`
}

func Parallel(workers int, f func()) {
	wg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}
	wg.Wait()
}

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	c := Config{
		Test:    "INSERT",
		N:       1_000_000,
		Workers: 16,
	}
	goconfig.Read(&c)

	switch strings.ToUpper(c.Test) {
	case "INSERT":
		TestInsert(c)
	case "REMOVE":
		TestRemove(c)
	case "BTREE":
		TestBtree(c)
	default:
		log.Fatal().Str("test", c.Test).Msg("unknown test")
	}
}
