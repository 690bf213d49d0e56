// Package recordstore implements the auto-id row store (spec §4.5):
// monotonically increasing int64 row ids mapped to opaque byte blobs,
// forward/reverse cursors, and capped-collection hooks, all collapsed
// onto one prefix-scoped slice of a shared trie (see
// github.com/fulldump/radixstore/trie).
package recordstore

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fulldump/radixstore/trie"
)

// Writer lets InsertMany stream a batch of payloads without
// materializing every one of them as a separate []byte up front,
// grounded on the teacher's streaming insert handlers
// (api/apicollectionv1/insertStream.go).
type Writer interface {
	Size() int
	WriteInto(buf []byte)
}

// Damage describes an in-place byte patch applied by
// UpdateWithDamages: Size bytes are copied from source[SourceOffset:]
// into the stored value at TargetOffset.
type Damage struct {
	SourceOffset int
	TargetOffset int
	Size         int
}

// EvictionFunc is invoked before a capped store evicts a record to
// make room for a new one. Its exact semantics are an open question in
// spec §9 ("Capped collection trimming semantics... are unimplemented
// in the source") — RecordStore only guarantees it is called with the
// row about to be dropped, before the drop happens.
type EvictionFunc func(rowID int64, data []byte) error

// Options configures one RecordStore, matching the per-store
// configuration table in spec §6.
type Options struct {
	Ident          []byte
	Capped         bool
	CappedMaxBytes int64
	CappedMaxDocs  int64
	OnEvict        EvictionFunc
	Logger         zerolog.Logger
}

var ErrNotFound = fmt.Errorf("recordstore: row not found")
var ErrNotCapped = fmt.Errorf("recordstore: store is not capped")

// RecordStore is an auto-id row store over one prefix-scoped view of a
// shared trie.
type RecordStore struct {
	view      *trie.View
	nextRowID atomic.Int64
	opts      Options
}

// New creates a RecordStore scoped to opts.Ident within store. The
// row-id counter starts at 1 and is never reused within this
// RecordStore's lifetime (spec §3 "Record").
func New(store *trie.Store, opts Options) *RecordStore {
	if reflect.DeepEqual(opts.Logger, zerolog.Logger{}) {
		opts.Logger = log.Logger
	}
	rs := &RecordStore{
		view: trie.NewView(store, opts.Ident),
		opts: opts,
	}
	rs.nextRowID.Store(1)
	rs.opts.Logger.Debug().Bytes("ident", opts.Ident).Bool("capped", opts.Capped).Msg("recordstore opened")
	return rs
}

func encodeRowID(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func decodeRowID(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

// allocRowID hands out the next row id and advances the counter.
func (rs *RecordStore) allocRowID() int64 {
	return rs.nextRowID.Add(1) - 1
}

// Insert stores data under a freshly allocated row id.
func (rs *RecordStore) Insert(data []byte) (int64, error) {
	id := rs.allocRowID()
	if _, err := rs.view.Insert(encodeRowID(id), data); err != nil {
		return 0, err
	}
	if rs.opts.Capped {
		rs.enforceCap()
	}
	return id, nil
}

// InsertMany batches a sequence of writers into consecutive row ids.
func (rs *RecordStore) InsertMany(writers []Writer) ([]int64, error) {
	ids := make([]int64, 0, len(writers))
	for _, w := range writers {
		buf := make([]byte, w.Size())
		w.WriteInto(buf)
		id, err := rs.Insert(buf)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Find returns the data stored at rowID.
func (rs *RecordStore) Find(rowID int64) ([]byte, bool) {
	return rs.view.Find(encodeRowID(rowID))
}

// Update replaces the data at an existing rowID.
func (rs *RecordStore) Update(rowID int64, data []byte) error {
	_, err := rs.view.Update(encodeRowID(rowID), data)
	return err
}

// UpdateWithDamages applies a sequence of in-place byte patches copied
// from source, returning the patched value (spec §4.5).
func (rs *RecordStore) UpdateWithDamages(rowID int64, source []byte, damages []Damage) ([]byte, error) {
	data, ok := rs.Find(rowID)
	if !ok {
		return nil, ErrNotFound
	}
	patched := append([]byte(nil), data...)
	for _, d := range damages {
		copy(patched[d.TargetOffset:d.TargetOffset+d.Size], source[d.SourceOffset:d.SourceOffset+d.Size])
	}
	if err := rs.Update(rowID, patched); err != nil {
		return nil, err
	}
	return patched, nil
}

// Delete removes rowID, erasing exactly one entry.
func (rs *RecordStore) Delete(rowID int64) error {
	if rs.view.Erase(encodeRowID(rowID)) != 1 {
		return ErrNotFound
	}
	return nil
}

// DataSize sums the value lengths of every record in this store.
func (rs *RecordStore) DataSize() int64 {
	it := rs.view.Begin()
	defer it.Close()
	var total int64
	for ; it.Valid() && rs.view.InRange(it.Key()); it.Next() {
		total += int64(len(it.Value()))
	}
	return total
}

// NumRecords is the distance between lower_bound(prefix_lo) and
// upper_bound(prefix_hi), per spec §4.5.
func (rs *RecordStore) NumRecords() int {
	it := rs.view.Begin()
	defer it.Close()
	n := 0
	for ; it.Valid() && rs.view.InRange(it.Key()); it.Next() {
		n++
	}
	return n
}

// Truncate erases every record in this store.
func (rs *RecordStore) Truncate() int {
	return rs.view.Truncate()
}

// CappedTruncateAfter erases every record with a row id greater than
// (or, if inclusive, greater than or equal to) rowID, walking backward
// from the end. Resolves the open question left unimplemented by the
// original source (biggie_record_store.cpp cappedTruncateAfter) —
// spec §4.5 and §9.
func (rs *RecordStore) CappedTruncateAfter(rowID int64, inclusive bool) (int, error) {
	if !rs.opts.Capped {
		return 0, ErrNotCapped
	}
	from := rowID
	if inclusive {
		from--
	}
	count := 0
	for {
		it := rs.view.ReverseBegin()
		if !it.Valid() || !rs.view.InRange(it.Key()) {
			it.Close()
			break
		}
		id := decodeRowID(rs.view.InnerKey(it.Key()))
		it.Close()
		if id <= from {
			break
		}
		if err := rs.Delete(id); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// enforceCap evicts records lowest row id first, invoking OnEvict
// before each drop, until the store is back under its configured
// bytes/docs limits. OnEvict does not choose which record goes; an
// error from it stops eviction and leaves the store over its limit.
func (rs *RecordStore) enforceCap() {
	for rs.overCap() {
		it := rs.view.Begin()
		if !it.Valid() || !rs.view.InRange(it.Key()) {
			it.Close()
			return
		}
		id := decodeRowID(rs.view.InnerKey(it.Key()))
		data := append([]byte(nil), it.Value()...)
		it.Close()

		if rs.opts.OnEvict != nil {
			if err := rs.opts.OnEvict(id, data); err != nil {
				rs.opts.Logger.Warn().Err(err).Int64("rowID", id).Msg("capped eviction callback failed")
				return
			}
		}
		rs.Delete(id)
	}
}

func (rs *RecordStore) overCap() bool {
	if rs.opts.CappedMaxDocs > 0 && int64(rs.NumRecords()) > rs.opts.CappedMaxDocs {
		return true
	}
	if rs.opts.CappedMaxBytes > 0 && rs.DataSize() > rs.opts.CappedMaxBytes {
		return true
	}
	return false
}

// Record is one (row id, data) pair yielded by a Cursor.
type Record struct {
	RowID int64
	Data  []byte
}

// Cursor walks records in row-id order, forward or reverse.
type Cursor struct {
	rs      *RecordStore
	it      *trie.Iterator
	forward bool
}

// Cursor returns a fresh cursor positioned before the first (forward)
// or after the last (reverse) record.
func (rs *RecordStore) Cursor(forward bool) *Cursor {
	c := &Cursor{rs: rs, forward: forward}
	if forward {
		c.it = rs.view.Begin()
	} else {
		c.it = rs.view.ReverseBegin()
	}
	return c
}

// SeekExact positions a cursor exactly at rowID, or past the end if absent.
func (rs *RecordStore) SeekExact(rowID int64) *Cursor {
	c := &Cursor{rs: rs, forward: true}
	c.it = rs.view.LowerBound(encodeRowID(rowID))
	if c.it.Valid() && decodeRowID(rs.view.InnerKey(c.it.Key())) != rowID {
		c.it.Close()
		c.it = rs.view.End()
	}
	return c
}

// Next returns the next record, or (Record{}, false) once exhausted.
func (c *Cursor) Next() (Record, bool) {
	if !c.it.Valid() || !c.rs.view.InRange(c.it.Key()) {
		return Record{}, false
	}
	rec := Record{
		RowID: decodeRowID(c.rs.view.InnerKey(c.it.Key())),
		Data:  append([]byte(nil), c.it.Value()...),
	}
	c.it.Next()
	return rec, true
}

// Close releases resources held by the cursor's iterator.
func (c *Cursor) Close() {
	c.it.Close()
}
