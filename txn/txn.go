// Package txn implements the external transaction-collaborator
// contract (spec §6.2): one working copy per Txn, forked lazily from
// a shared base and reconciled back into it with trie.Merge3 on
// commit. Grounded on the teacher's Collection.rowsMutex/lockBlock
// locking discipline (collection/collection.go), adapted from
// guarding a []*Row slice to guarding the commit-time mutation of a
// trie root pointer, and on Command.Uuid for per-transaction
// identification.
package txn

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fulldump/radixstore/trie"
)

// Base is the shared trie every Txn forks from and commits back into.
// Its mutex serializes the read-merge-install sequence across
// concurrently committing transactions, mirroring the teacher's
// rowsMutex guarding concurrent writers to one Collection.
type Base struct {
	mu    sync.Mutex
	store *trie.Store
}

// NewBase wraps store for use by one or more Txns.
func NewBase(store *trie.Store) *Base {
	return &Base{store: store}
}

// snapshot returns a cheap clone of the current store, used both as a
// transaction's ancestor and as the seed for its working copy.
func (b *Base) snapshot() *trie.Store {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.Clone()
}

// Store exposes the live underlying trie to callers that read or write
// committed state directly without going through a Txn (e.g.
// document.Database.Collection). Such writes are not serialized by
// Base's mutex.
func (b *Base) Store() *trie.Store {
	return b.store
}

// Txn is one transaction's view of the shared trie: a frozen snapshot
// of the base taken at fork time (the three-way merge's common
// ancestor) and, once ForkIfNeeded has run, a private working copy
// the caller mutates freely.
type Txn struct {
	ID   string
	base *Base

	mu       sync.Mutex
	ancestor *trie.Store
	work     *trie.Store
	forked   bool
	done     bool
	logger   zerolog.Logger
}

// New starts a transaction against base. The working copy is not
// created until the first call to ForkIfNeeded.
func New(base *Base) *Txn {
	return &Txn{
		ID:     uuid.New().String(),
		base:   base,
		logger: log.Logger,
	}
}

// lockBlock runs f while holding m, mirroring the teacher's
// collection.lockBlock helper.
func lockBlock(m *sync.Mutex, f func() error) error {
	m.Lock()
	defer m.Unlock()
	return f()
}

// WorkingCopy returns the transaction's private trie root, forking it
// from the base first if this is the first call.
func (t *Txn) WorkingCopy() *trie.Store {
	t.ForkIfNeeded()
	return t.work
}

// ForkIfNeeded takes a frozen ancestor snapshot of the current base and
// clones it again into a private working copy, exactly once; subsequent
// calls are no-ops (spec §6.2 "idempotent; on first mutation...").
func (t *Txn) ForkIfNeeded() {
	lockBlock(&t.mu, func() error {
		if t.forked {
			return nil
		}
		t.ancestor = t.base.snapshot()
		t.work = t.ancestor.Clone()
		t.forked = true
		return nil
	})
}

// Commit three-way-merges the working copy against the live shared
// base, using the fork-time snapshot as the common ancestor, and
// installs the result as the new base. Returns *trie.MergeConflictError
// on conflict, leaving base untouched.
func (t *Txn) Commit() error {
	var err error
	lockBlock(&t.mu, func() error {
		if t.done {
			err = fmt.Errorf("txn: already finished")
			return nil
		}
		if !t.forked {
			t.done = true
			return nil
		}

		lockBlock(&t.base.mu, func() error {
			var merged *trie.Store
			merged, err = t.work.Merge3(t.ancestor, t.base.store)
			if err != nil {
				t.logger.Warn().Str("txn", t.ID).Err(err).Msg("commit: merge conflict")
				return nil
			}
			*t.base.store = *merged
			return nil
		})

		// Merge3 never shares structure with its inputs, so ancestor and
		// work are done the moment Commit has attempted the merge,
		// whether or not it succeeded; hold onto them any longer and
		// their root stays permanently "shared" in the eyes of
		// ensureUniqueRoot.
		t.ancestor.Release()
		t.work.Release()
		t.ancestor = nil
		t.work = nil

		t.done = true
		if err == nil {
			t.logger.Debug().Str("txn", t.ID).Msg("commit: merged working copy into base")
		}
		return nil
	})
	return err
}

// Abort drops the working copy without touching the base, mirroring
// spec §5 "Cancellation": reference counting reclaims any nodes not
// shared with the base.
func (t *Txn) Abort() {
	lockBlock(&t.mu, func() error {
		if t.forked && !t.done {
			t.work.Release()
			t.ancestor.Release()
			t.work = nil
			t.ancestor = nil
		}
		t.done = true
		t.logger.Debug().Str("txn", t.ID).Msg("abort: dropped working copy")
		return nil
	})
}
