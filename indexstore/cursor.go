package indexstore

import (
	"bytes"

	"github.com/fulldump/radixstore/trie"
)

// Entry is one decoded (key, rowID) pair yielded by a Cursor.
type Entry struct {
	Key   any
	RowID int64
}

// Cursor walks index entries in encoded-key order, forward or
// reverse, with an optional end position and unique-index-aware
// save/restore (spec §4.6, §4.7).
type Cursor struct {
	idx     *IndexStore
	it      *trie.Iterator
	forward bool

	end    []byte
	hasEnd bool

	savedKey     []byte
	saved        bool
	unpositioned bool

	lastMoveWasRestore bool
}

// Cursor opens a fresh cursor in the fresh state (spec §4.7).
func (idx *IndexStore) Cursor(forward bool) *Cursor {
	c := &Cursor{idx: idx, forward: forward}
	if forward {
		c.it = idx.view.Begin()
	} else {
		c.it = idx.view.ReverseBegin()
	}
	return c
}

// rowIDBoundary picks the smallest (all 0x00) or largest (all 0xff)
// row-id suffix for a seek/end boundary key, per the
// direction+inclusivity rule in spec §4.6: forward+inclusive or
// reverse+exclusive use the largest, the remaining two combinations use
// the smallest.
func rowIDBoundary(forward, inclusive bool) []byte {
	if forward == inclusive {
		return maxRowID()
	}
	return minRowID()
}

// SetEndPosition bounds subsequent Next calls to stop once the cursor
// would cross this boundary.
func (c *Cursor) SetEndPosition(key any, inclusive bool) error {
	encoded, _, err := c.idx.entryKey(key, 0)
	if err != nil {
		return err
	}
	boundary := append(append([]byte(nil), encoded...), rowIDBoundary(c.forward, inclusive)...)
	c.end = boundary
	c.hasEnd = true
	return nil
}

// Seek repositions the cursor at the first entry matching key given
// the cursor's direction and inclusive, using the inverted min/max
// row-id rule from spec §4.6.
func (c *Cursor) Seek(key any, inclusive bool) error {
	encoded, _, err := c.idx.entryKey(key, 0)
	if err != nil {
		return err
	}
	target := append(append([]byte(nil), encoded...), rowIDBoundary(c.forward, !inclusive)...)
	c.seekTo(target)
	return nil
}

// seekTo repositions the cursor at the view-scoped inner key target.
func (c *Cursor) seekTo(innerTarget []byte) {
	c.it.Close()
	if c.forward {
		c.it = c.idx.view.LowerBound(innerTarget)
	} else {
		c.it = c.idx.view.ReverseLowerBound(innerTarget)
	}
	c.lastMoveWasRestore = false
}

// pastBound reports whether the cursor has crossed its configured end
// position or left the index's own prefix range.
func (c *Cursor) pastBound() bool {
	if !c.it.Valid() || !c.idx.view.InRange(c.it.Key()) {
		return true
	}
	if !c.hasEnd {
		return false
	}
	inner := c.idx.view.InnerKey(c.it.Key())
	cmp := bytes.Compare(inner, c.end)
	if c.forward {
		return cmp > 0
	}
	return cmp < 0
}

// Next returns the next entry, or (Entry{}, false) at the end
// boundary. If the previous operation was a restore that landed
// exactly on the same logical entry it had saved (unique-index mode),
// this call is a no-op that just returns the current position, per
// spec §4.6/§4.7.
func (c *Cursor) Next() (Entry, bool, error) {
	if c.pastBound() {
		return Entry{}, false, nil
	}

	entry, err := c.decodeCurrent()
	if err != nil {
		return Entry{}, false, err
	}

	if c.lastMoveWasRestore {
		c.lastMoveWasRestore = false
		return entry, true, nil
	}

	c.it.Next()
	return entry, true, nil
}

func (c *Cursor) decodeCurrent() (Entry, error) {
	inner := c.idx.view.InnerKey(c.it.Key())
	typeBits := c.it.Value()
	rowID := decodeRowID(inner[len(inner)-rowIDWidth:])
	encodedKey := inner[:len(inner)-rowIDWidth]

	key, err := c.idx.encoder.Decode(encodedKey, typeBits, c.idx.opts.Ordering)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Key: key, RowID: rowID}, nil
}

// Save captures the current position for a later Restore.
func (c *Cursor) Save() {
	if c.it.Valid() {
		c.savedKey = append([]byte(nil), c.it.Key()...)
		c.unpositioned = false
	} else {
		c.unpositioned = true
	}
	c.saved = true
}

// Restore re-seeks to the saved position. For a unique index, if the
// entry now found at or after the saved key shares the same
// structured key (ignoring the trailing row id, per
// Encoder.SizeWithoutRowID), last_move_was_restore is set so the
// following Next does not skip past it (spec §4.6).
func (c *Cursor) Restore(store *trie.Store) {
	c.it.Close()
	if c.unpositioned {
		if c.forward {
			c.it = trie.LowerBound(store, c.idx.view.PrefixHi)
		} else {
			c.it = trie.ReverseLowerBound(store, c.idx.view.PrefixLo)
		}
		c.saved = false
		return
	}

	if c.forward {
		c.it = trie.LowerBound(store, c.savedKey)
	} else {
		c.it = trie.ReverseLowerBound(store, c.savedKey)
	}

	if c.idx.opts.Unique && c.it.Valid() {
		savedInner := c.idx.view.InnerKey(c.savedKey)
		nowInner := c.idx.view.InnerKey(c.it.Key())
		n := c.idx.encoder.SizeWithoutRowID(savedInner)
		if n <= len(nowInner) && bytes.Equal(savedInner[:n], nowInner[:n]) {
			c.lastMoveWasRestore = true
		}
	}
	c.saved = false
}

// Close releases the cursor's underlying iterator.
func (c *Cursor) Close() {
	c.it.Close()
}
