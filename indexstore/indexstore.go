// Package indexstore implements the ordered (key,rowid) index store
// (spec §4.6): uniqueness enforcement, a bulk builder for ascending
// input, and a seekable save/restore cursor, all layered over a
// prefix-scoped trie.View the same way recordstore is, grounded on
// the teacher's collection.IndexBtree (comparator/uniqueness logic,
// adapted from an in-memory btree.BTreeG to the shared trie).
package indexstore

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/fulldump/radixstore/keycodec"
	"github.com/fulldump/radixstore/trie"
)

var (
	ErrDuplicateKey      = fmt.Errorf("indexstore: duplicate key")
	ErrOrderingViolation = fmt.Errorf("indexstore: bulk builder received out-of-order input")
)

const rowIDWidth = 8

// Options configures one IndexStore at construction (spec §6 table).
type Options struct {
	Ident    []byte
	Ordering keycodec.Ordering
	Unique   bool
	Encoder  keycodec.Encoder
}

// IndexStore is an ordered (key, rowid) store scoped to one prefix
// range of a shared trie.
type IndexStore struct {
	view    *trie.View
	opts    Options
	encoder keycodec.Encoder
}

// New creates an IndexStore. If opts.Encoder is nil, keycodec.Default
// is used.
func New(store *trie.Store, opts Options) *IndexStore {
	enc := opts.Encoder
	if enc == nil {
		enc = keycodec.Default{}
	}
	log.Debug().Bytes("ident", opts.Ident).Bool("unique", opts.Unique).Int("fields", len(opts.Ordering.Fields)).Msg("indexstore opened")
	return &IndexStore{
		view:    trie.NewView(store, opts.Ident),
		opts:    opts,
		encoder: enc,
	}
}

func encodeRowID(id int64) []byte {
	b := make([]byte, rowIDWidth)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func decodeRowID(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

func minRowID() []byte { return encodeRowID(0) }
func maxRowID() []byte {
	b := make([]byte, rowIDWidth)
	for i := range b {
		b[i] = 0xff
	}
	return b
}

// entryKey returns the trie key for (structuredKey, rowID), plus the
// structured key's encoded bytes on their own (without the row id).
func (idx *IndexStore) entryKey(structuredKey any, rowID int64) (encodedKey, fullTrieKey []byte, err error) {
	encoded, _, err := idx.encoder.Encode(structuredKey, idx.opts.Ordering)
	if err != nil {
		return nil, nil, err
	}
	full := append(append([]byte(nil), encoded...), encodeRowID(rowID)...)
	return encoded, full, nil
}

// duplicateRowID scans [lower_bound(encoded||min), upper_bound(encoded||max)]
// looking for an entry with the same structured key but a different row id.
func (idx *IndexStore) duplicateRowID(encoded []byte, rowID int64) (int64, bool) {
	lo := append(append([]byte(nil), encoded...), minRowID()...)
	it := idx.view.LowerBound(lo)
	defer it.Close()

	for it.Valid() && idx.view.InRange(it.Key()) {
		inner := idx.view.InnerKey(it.Key())
		if len(inner) < rowIDWidth || !bytes.HasPrefix(inner, encoded) {
			break
		}
		existingRowID := decodeRowID(inner[len(inner)-rowIDWidth:])
		if existingRowID != rowID {
			return existingRowID, true
		}
		it.Next()
	}
	return 0, false
}

// Insert adds (key, rowID), idempotent on an exact repeat, rejecting a
// different row id under the same structured key when dupsAllowed is
// false (spec §4.6).
func (idx *IndexStore) Insert(key any, rowID int64, dupsAllowed bool) error {
	encoded, full, err := idx.entryKey(key, rowID)
	if err != nil {
		return err
	}

	if _, ok := idx.view.Find(full); ok {
		return nil
	}

	if !dupsAllowed {
		if _, dup := idx.duplicateRowID(encoded, rowID); dup {
			return ErrDuplicateKey
		}
	}

	_, typeBits, err := idx.encoder.Encode(key, idx.opts.Ordering)
	if err != nil {
		return err
	}
	_, err = idx.view.Insert(full, typeBits)
	return err
}

// Unindex erases the exact (key, rowID) entry.
func (idx *IndexStore) Unindex(key any, rowID int64) error {
	_, full, err := idx.entryKey(key, rowID)
	if err != nil {
		return err
	}
	idx.view.Erase(full)
	return nil
}

// DuplicateKeyCheck runs insert's uniqueness probe without inserting.
func (idx *IndexStore) DuplicateKeyCheck(key any, rowID int64) (int64, bool, error) {
	encoded, _, err := idx.entryKey(key, rowID)
	if err != nil {
		return 0, false, err
	}
	existing, dup := idx.duplicateRowID(encoded, rowID)
	return existing, dup, nil
}

// Truncate erases the whole index range.
func (idx *IndexStore) Truncate() int {
	return idx.view.Truncate()
}

// IsEmpty reports whether the index has no entries.
func (idx *IndexStore) IsEmpty() bool {
	it := idx.view.Begin()
	defer it.Close()
	return !it.Valid() || !idx.view.InRange(it.Key())
}

// SpaceUsedBytes sums the encoded key lengths (trie keys) plus stored
// type-bits values over the whole index range.
func (idx *IndexStore) SpaceUsedBytes() int64 {
	it := idx.view.Begin()
	defer it.Close()
	var total int64
	for ; it.Valid() && idx.view.InRange(it.Key()); it.Next() {
		total += int64(len(it.Key())) + int64(len(it.Value()))
	}
	return total
}

// FullValidate walks the whole index once, verifying strictly
// increasing key order and that every entry is long enough to carry a
// trailing row id, and returns the entry count, per
// biggie_sorted_impl.cpp (spec §4.6 supplement, SPEC_FULL §4.6). It
// does not decode the keys or row ids it visits.
func (idx *IndexStore) FullValidate() (int64, error) {
	var count int64
	var prev []byte
	havePrev := false

	it := idx.view.Begin()
	defer it.Close()
	for ; it.Valid() && idx.view.InRange(it.Key()); it.Next() {
		inner := idx.view.InnerKey(it.Key())
		if havePrev && bytes.Compare(inner, prev) <= 0 {
			return count, fmt.Errorf("indexstore: full_validate found non-monotonic key order at entry %d", count)
		}
		if len(inner) < rowIDWidth {
			return count, fmt.Errorf("indexstore: full_validate found entry shorter than a row id at entry %d", count)
		}
		prev = append([]byte(nil), inner...)
		havePrev = true
		count++
	}
	return count, nil
}
