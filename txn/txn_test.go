package txn

import (
	"testing"

	. "github.com/fulldump/biff"

	"github.com/fulldump/radixstore/trie"
)

func TestWorkingCopyForksLazily(t *testing.T) {
	base := NewBase(trie.Empty())
	base.Store().Insert([]byte("a"), []byte("1"))

	tx := New(base)
	wc := tx.WorkingCopy()

	v, ok := wc.Find([]byte("a"))
	AssertTrue(ok)
	AssertEqual(string(v), "1")
}

func TestForkIfNeededIsIdempotent(t *testing.T) {
	base := NewBase(trie.Empty())
	tx := New(base)

	tx.ForkIfNeeded()
	wc1 := tx.work
	tx.ForkIfNeeded()
	wc2 := tx.work

	AssertTrue(wc1 == wc2)
}

func TestCommitAppliesWorkingCopyChanges(t *testing.T) {
	base := NewBase(trie.Empty())
	tx := New(base)

	wc := tx.WorkingCopy()
	wc.Insert([]byte("x"), []byte("1"))

	err := tx.Commit()
	AssertNil(err)

	v, ok := base.Store().Find([]byte("x"))
	AssertTrue(ok)
	AssertEqual(string(v), "1")
}

func TestAbortDropsWorkingCopyChanges(t *testing.T) {
	base := NewBase(trie.Empty())
	tx := New(base)

	wc := tx.WorkingCopy()
	wc.Insert([]byte("x"), []byte("1"))

	tx.Abort()

	_, ok := base.Store().Find([]byte("x"))
	AssertFalse(ok)
}

func TestCommitWithoutForkIsNoOp(t *testing.T) {
	base := NewBase(trie.Empty())
	tx := New(base)

	err := tx.Commit()
	AssertNil(err)
	AssertEqual(base.Store().Size(), 0)
}

func TestConcurrentTxnsMergeNonConflictingChanges(t *testing.T) {
	base := NewBase(trie.Empty())
	base.Store().Insert([]byte("shared"), []byte("0"))

	tx1 := New(base)
	tx2 := New(base)

	wc1 := tx1.WorkingCopy()
	wc2 := tx2.WorkingCopy()

	wc1.Insert([]byte("a"), []byte("1"))
	wc2.Insert([]byte("b"), []byte("2"))

	AssertNil(tx1.Commit())
	AssertNil(tx2.Commit())

	_, ok := base.Store().Find([]byte("a"))
	AssertTrue(ok)
	_, ok = base.Store().Find([]byte("b"))
	AssertTrue(ok)
}

func TestConcurrentTxnsConflictOnSameKey(t *testing.T) {
	base := NewBase(trie.Empty())
	base.Store().Insert([]byte("x"), []byte("0"))

	tx1 := New(base)
	tx2 := New(base)

	tx1.WorkingCopy().Update([]byte("x"), []byte("1"))
	tx2.WorkingCopy().Update([]byte("x"), []byte("2"))

	AssertNil(tx1.Commit())

	err := tx2.Commit()
	_, ok := err.(*trie.MergeConflictError)
	AssertTrue(ok)
}

func TestEachTxnGetsAUniqueID(t *testing.T) {
	base := NewBase(trie.Empty())
	tx1 := New(base)
	tx2 := New(base)

	AssertFalse(tx1.ID == tx2.ID)
}
