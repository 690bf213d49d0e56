package indexstore

import (
	"testing"

	. "github.com/fulldump/biff"

	"github.com/fulldump/radixstore/keycodec"
	"github.com/fulldump/radixstore/trie"
)

func newTestIndex(store *trie.Store, unique bool) *IndexStore {
	return New(store, Options{
		Ident:    []byte("idx1"),
		Ordering: keycodec.ParseOrdering([]string{"name"}),
		Unique:   unique,
	})
}

func TestInsertAndFindByCursor(t *testing.T) {
	s := trie.Empty()
	idx := newTestIndex(s, false)

	AssertNil(idx.Insert(map[string]any{"name": "alice"}, 1, true))
	AssertNil(idx.Insert(map[string]any{"name": "bob"}, 2, true))

	c := idx.Cursor(true)
	defer c.Close()

	e, ok, err := c.Next()
	AssertNil(err)
	AssertTrue(ok)
	AssertEqual(e.Key.(map[string]any)["name"], "alice")
	AssertEqual(e.RowID, int64(1))

	e, ok, err = c.Next()
	AssertNil(err)
	AssertTrue(ok)
	AssertEqual(e.Key.(map[string]any)["name"], "bob")

	_, ok, err = c.Next()
	AssertNil(err)
	AssertFalse(ok)
}

func TestUniqueIndexRejectsDifferentRowID(t *testing.T) {
	s := trie.Empty()
	idx := newTestIndex(s, true)

	AssertNil(idx.Insert(map[string]any{"name": "x"}, 1, false))

	err := idx.Insert(map[string]any{"name": "x"}, 2, false)
	AssertEqual(err, ErrDuplicateKey)
}

func TestUniqueIndexInsertIsIdempotent(t *testing.T) {
	s := trie.Empty()
	idx := newTestIndex(s, true)

	AssertNil(idx.Insert(map[string]any{"name": "x"}, 1, false))
	err := idx.Insert(map[string]any{"name": "x"}, 1, false)
	AssertNil(err)
}

func TestNonUniqueIndexAllowsMultipleRowIDs(t *testing.T) {
	s := trie.Empty()
	idx := newTestIndex(s, false)

	AssertNil(idx.Insert(map[string]any{"name": "x"}, 1, true))
	AssertNil(idx.Insert(map[string]any{"name": "x"}, 2, true))

	count := 0
	for it := idx.Cursor(true); ; {
		_, ok, _ := it.Next()
		if !ok {
			break
		}
		count++
	}
	AssertEqual(count, 2)
}

func TestUnindex(t *testing.T) {
	s := trie.Empty()
	idx := newTestIndex(s, false)

	idx.Insert(map[string]any{"name": "x"}, 1, true)
	AssertNil(idx.Unindex(map[string]any{"name": "x"}, 1))
	AssertTrue(idx.IsEmpty())
}

func TestDuplicateKeyCheck(t *testing.T) {
	s := trie.Empty()
	idx := newTestIndex(s, true)

	idx.Insert(map[string]any{"name": "x"}, 1, false)

	existing, dup, err := idx.DuplicateKeyCheck(map[string]any{"name": "x"}, 2)
	AssertNil(err)
	AssertTrue(dup)
	AssertEqual(existing, int64(1))

	_, dup, err = idx.DuplicateKeyCheck(map[string]any{"name": "x"}, 1)
	AssertNil(err)
	AssertFalse(dup)
}

func TestTruncate(t *testing.T) {
	s := trie.Empty()
	idx := newTestIndex(s, false)

	idx.Insert(map[string]any{"name": "a"}, 1, true)
	idx.Insert(map[string]any{"name": "b"}, 2, true)

	n := idx.Truncate()
	AssertEqual(n, 2)
	AssertTrue(idx.IsEmpty())
}

func TestFullValidate(t *testing.T) {
	s := trie.Empty()
	idx := newTestIndex(s, false)

	idx.Insert(map[string]any{"name": "a"}, 1, true)
	idx.Insert(map[string]any{"name": "b"}, 2, true)
	idx.Insert(map[string]any{"name": "c"}, 3, true)

	count, err := idx.FullValidate()
	AssertNil(err)
	AssertEqual(count, int64(3))
}

func TestBulkBuilderAppendsInOrder(t *testing.T) {
	s := trie.Empty()
	idx := newTestIndex(s, false)

	b := idx.NewBulkBuilder(true)
	AssertNil(b.Add(map[string]any{"name": "a"}, 1))
	AssertNil(b.Add(map[string]any{"name": "b"}, 2))
	AssertNil(b.Commit())

	count, err := idx.FullValidate()
	AssertNil(err)
	AssertEqual(count, int64(2))
}

func TestBulkBuilderRejectsOutOfOrder(t *testing.T) {
	s := trie.Empty()
	idx := newTestIndex(s, false)

	b := idx.NewBulkBuilder(true)
	AssertNil(b.Add(map[string]any{"name": "b"}, 1))
	err := b.Add(map[string]any{"name": "a"}, 2)
	AssertEqual(err, ErrOrderingViolation)
}

func TestBulkBuilderRejectsDuplicateWhenNotAllowed(t *testing.T) {
	s := trie.Empty()
	idx := newTestIndex(s, false)

	b := idx.NewBulkBuilder(false)
	AssertNil(b.Add(map[string]any{"name": "a"}, 1))
	err := b.Add(map[string]any{"name": "a"}, 2)
	AssertEqual(err, ErrDuplicateKey)
}

// invariant 7: unique-index find after save/restore around an
// unrelated insert returns the same row id for the same decoded key.
func TestUniqueIndexCursorSaveRestoreAroundUnrelatedInsert(t *testing.T) {
	s := trie.Empty()
	idx := newTestIndex(s, true)

	idx.Insert(map[string]any{"name": "alice"}, 1, false)
	idx.Insert(map[string]any{"name": "carol"}, 3, false)

	c := idx.Cursor(true)
	defer c.Close()

	e, ok, err := c.Next()
	AssertNil(err)
	AssertTrue(ok)
	AssertEqual(e.Key.(map[string]any)["name"], "alice")

	c.Save()
	idx.Insert(map[string]any{"name": "bob"}, 2, false)
	c.Restore(s)

	e, ok, err = c.Next()
	AssertNil(err)
	AssertTrue(ok)
	AssertEqual(e.Key.(map[string]any)["name"], "alice")
	AssertEqual(e.RowID, int64(1))
}

func TestSetEndPositionStopsIteration(t *testing.T) {
	s := trie.Empty()
	idx := newTestIndex(s, false)

	idx.Insert(map[string]any{"name": "a"}, 1, true)
	idx.Insert(map[string]any{"name": "b"}, 2, true)
	idx.Insert(map[string]any{"name": "c"}, 3, true)

	c := idx.Cursor(true)
	defer c.Close()
	AssertNil(c.SetEndPosition(map[string]any{"name": "b"}, true))

	var names []string
	for {
		e, ok, err := c.Next()
		AssertNil(err)
		if !ok {
			break
		}
		names = append(names, e.Key.(map[string]any)["name"].(string))
	}
	AssertEqual(names, []string{"a", "b"})
}
