package trie

import "bytes"

// Iterator walks a Store's entries in byte-lexicographic order, or its
// reverse. It pins the root it was created from (by holding a strong
// reference and retaining its refcount), so the node graph it was
// created over stays valid for its whole lifetime even if the owning
// Store is mutated or dropped afterward — see spec §4.3 "Concurrency".
//
// Iterators never mutate the trie and are not safe to share between
// goroutines without external synchronization, matching the "single
// logical task at a time" scheduling model in spec §5.
type Iterator struct {
	root    *node
	cur     *node
	reverse bool

	positioned bool
	savedKey   []byte
	unpositioned bool

	lastMoveWasRestore bool
}

func newIterator(s *Store, reverse bool) *Iterator {
	s.root.refs.Add(1)
	return &Iterator{root: s.root, reverse: reverse}
}

// Begin returns a forward iterator positioned at the smallest key.
func Begin(s *Store) *Iterator {
	it := newIterator(s, false)
	if s.numEntries > 0 {
		it.cur = leftmostPayload(s.root)
		it.positioned = true
	}
	return it
}

// End returns a forward iterator positioned past the last entry.
func End(s *Store) *Iterator {
	return newIterator(s, false)
}

// RBegin returns a reverse iterator positioned at the largest key.
func RBegin(s *Store) *Iterator {
	it := newIterator(s, true)
	if s.numEntries > 0 {
		it.cur = rightmostLeaf(s.root)
		it.positioned = true
	}
	return it
}

// REnd returns a reverse iterator positioned past the first entry.
func REnd(s *Store) *Iterator {
	return newIterator(s, true)
}

// LowerBound returns a forward iterator at the first entry with key >= k.
func LowerBound(s *Store, k []byte) *Iterator {
	it := newIterator(s, false)
	it.cur = lowerBoundNode(s.root, k)
	it.positioned = it.cur != nil
	return it
}

// UpperBound returns a forward iterator at the first entry with key > k.
func UpperBound(s *Store, k []byte) *Iterator {
	it := newIterator(s, false)
	it.cur = upperBoundNode(s.root, k)
	it.positioned = it.cur != nil
	return it
}

// ReverseLowerBound returns a reverse iterator at the last entry with key <= k.
func ReverseLowerBound(s *Store, k []byte) *Iterator {
	it := newIterator(s, true)
	it.cur = reverseLowerBoundNode(s.root, k)
	it.positioned = it.cur != nil
	return it
}

// ReverseUpperBound returns a reverse iterator at the last entry with key < k.
func ReverseUpperBound(s *Store, k []byte) *Iterator {
	it := newIterator(s, true)
	it.cur = reverseUpperBoundNode(s.root, k)
	it.positioned = it.cur != nil
	return it
}

// Valid reports whether the iterator is positioned at an entry.
func (it *Iterator) Valid() bool {
	return it.cur != nil
}

// Key returns the current entry's key. Valid must be true.
func (it *Iterator) Key() []byte {
	return it.cur.payload.key
}

// Value returns the current entry's value. Valid must be true.
func (it *Iterator) Value() []byte {
	return it.cur.payload.value
}

// Next advances the iterator to its in-order successor (forward) or
// predecessor (reverse). If the iterator's last move was a Restore
// that landed it exactly on the position it was already about to
// visit, this first Next is a no-op — see Restore.
func (it *Iterator) Next() {
	if it.lastMoveWasRestore {
		it.lastMoveWasRestore = false
		return
	}
	if it.cur == nil {
		return
	}
	if it.reverse {
		it.cur = predecessor(it.root, it.cur)
	} else {
		it.cur = successor(it.root, it.cur)
	}
}

// Save captures the iterator's current key so it can be restored after
// the underlying trie is mutated (spec §4.3 "Save / restore").
func (it *Iterator) Save() {
	if it.cur == nil {
		it.unpositioned = true
		it.savedKey = nil
		return
	}
	it.unpositioned = false
	it.savedKey = append([]byte(nil), it.cur.payload.key...)
}

// Restore re-seeks the iterator against s (typically the same logical
// collection after further writes) via lower_bound/reverse_lower_bound
// of the saved key. If uniqueSkip is true and the restored position is
// the key that was about to be visited next (i.e. it is unchanged),
// the following Next is suppressed so the caller doesn't see it twice
// — this is the "unique-index mode" behavior referenced from spec
// §4.6, plumbed through by indexstore's Cursor.
func (it *Iterator) Restore(s *Store, uniqueSkip bool) {
	it.root.refs.Add(-1)
	s.root.refs.Add(1)
	it.root = s.root

	if it.unpositioned {
		it.cur = nil
		it.positioned = false
		return
	}

	var resumed *node
	if it.reverse {
		resumed = reverseLowerBoundNode(s.root, it.savedKey)
	} else {
		resumed = lowerBoundNode(s.root, it.savedKey)
	}

	sameKey := resumed != nil && bytes.Equal(resumed.payload.key, it.savedKey)
	it.cur = resumed
	it.positioned = resumed != nil
	if uniqueSkip && sameKey {
		it.lastMoveWasRestore = true
	}
}

// Close releases the iterator's pin on the root it was created from.
// Skipping Close is safe (Go's GC still reclaims the nodes; the only
// effect is that writers may be conservative about copy-on-write for
// slightly longer), but calling it promptly keeps refcounts tight.
func (it *Iterator) Close() {
	if it.root != nil {
		it.root.refs.Add(-1)
		it.root = nil
	}
}
