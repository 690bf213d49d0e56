package indexstore

import "bytes"

// BulkBuilder accepts (key, rowID) pairs in ascending (key, rowID)
// order and appends them directly, skipping the read-before-write
// uniqueness probe Insert performs — grounded on spec §4.6's bulk
// builder contract, used by index creation from an existing
// record store.
type BulkBuilder struct {
	idx         *IndexStore
	dupsAllowed bool
	prev        []byte
	havePrev    bool
}

// NewBulkBuilder starts a bulk load against idx.
func (idx *IndexStore) NewBulkBuilder(dupsAllowed bool) *BulkBuilder {
	return &BulkBuilder{idx: idx, dupsAllowed: dupsAllowed}
}

// Add appends one (key, rowID) pair. The encoded key (ignoring the
// trailing row id) must not be strictly less than the previous call's;
// equal keys require either dupsAllowed with a strictly greater row id,
// or distinct row ids are rejected outright when !dupsAllowed.
func (b *BulkBuilder) Add(key any, rowID int64) error {
	encoded, full, err := b.idx.entryKey(key, rowID)
	if err != nil {
		return err
	}

	if b.havePrev {
		prevKey := b.prev[:len(b.prev)-rowIDWidth]
		prevRowID := decodeRowID(b.prev[len(b.prev)-rowIDWidth:])

		switch cmp := bytes.Compare(encoded, prevKey); {
		case cmp < 0:
			return ErrOrderingViolation
		case cmp == 0:
			if b.dupsAllowed {
				if rowID <= prevRowID {
					return ErrOrderingViolation
				}
			} else if rowID != prevRowID {
				return ErrDuplicateKey
			}
		}
	}

	_, typeBits, err := b.idx.encoder.Encode(key, b.idx.opts.Ordering)
	if err != nil {
		return err
	}
	if _, err := b.idx.view.Insert(full, typeBits); err != nil {
		return err
	}

	b.prev = append([]byte(nil), full...)
	b.havePrev = true
	return nil
}

// Commit is a no-op that always returns nil: entries were written to
// the trie as they arrived, and committing the working copy they live
// in is up to the caller's transaction.
func (b *BulkBuilder) Commit() error {
	return nil
}
