// Package document is a thin JSON-document layer composing
// recordstore, indexstore, keycodec and txn over one shared trie:
// a Collection stores arbitrary map[string]any documents, keeps
// secondary indexes in sync, and supports filtered scans. Grounded
// on the teacher's collection.go (Insert/Remove/addRow) and
// api/apicollectionv1/0_traverse.go (connor.Match full scans), with
// marshaling via go-json-experiment/json in place of encoding/json.
package document

import (
	"fmt"
	"sync"

	"github.com/SierraSoftworks/connor"
	jsonpatch "github.com/evanphx/json-patch"
	json2 "github.com/go-json-experiment/json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fulldump/radixstore/indexstore"
	"github.com/fulldump/radixstore/keycodec"
	"github.com/fulldump/radixstore/recordstore"
	"github.com/fulldump/radixstore/trie"
	"github.com/fulldump/radixstore/utils"
)

// ErrIndexExists reports a CreateIndex call naming an index that
// already exists.
var ErrIndexExists = fmt.Errorf("document: index already exists")

// ErrIndexNotFound reports an operation against an unknown index name.
var ErrIndexNotFound = fmt.Errorf("document: index not found")

// boundIndex pairs one named secondary index with the field list it
// was created from, so Insert/Remove can keep it in sync.
type boundIndex struct {
	store  *indexstore.IndexStore
	fields []string
	unique bool
}

// Collection is one named set of JSON documents, backed by a
// recordstore for the documents themselves and zero or more
// indexstores for secondary lookups, all sharing one trie under a
// common ident prefix.
type Collection struct {
	ident   []byte
	store   *trie.Store
	records *recordstore.RecordStore

	mu      sync.Mutex
	indexes map[string]*boundIndex

	logger zerolog.Logger
}

// NewCollection creates a Collection scoped to ident within store.
func NewCollection(store *trie.Store, ident []byte) *Collection {
	return &Collection{
		ident: ident,
		store: store,
		records: recordstore.New(store, recordstore.Options{
			Ident: append(append([]byte(nil), ident...), ':', 'r'),
		}),
		indexes: map[string]*boundIndex{},
		logger:  log.Logger,
	}
}

func marshalDoc(doc map[string]any) ([]byte, error) {
	return json2.Marshal(doc)
}

func unmarshalDoc(data []byte) (map[string]any, error) {
	doc := map[string]any{}
	if err := json2.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Insert stores doc, assigning it a fresh row id, and fans the write
// out to every secondary index.
func (c *Collection) Insert(doc map[string]any) (int64, error) {
	data, err := marshalDoc(doc)
	if err != nil {
		return 0, fmt.Errorf("document: marshal: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rowID, err := c.records.Insert(data)
	if err != nil {
		return 0, err
	}

	for name, bi := range c.indexes {
		if err := bi.store.Insert(doc, rowID, !bi.unique); err != nil {
			c.logger.Warn().Str("index", name).Int64("rowID", rowID).Err(err).Msg("insert: index update failed")
			return rowID, fmt.Errorf("document: index %q: %w", name, err)
		}
	}
	return rowID, nil
}

// Find returns the document stored at rowID.
func (c *Collection) Find(rowID int64) (map[string]any, bool, error) {
	data, ok := c.records.Find(rowID)
	if !ok {
		return nil, false, nil
	}
	doc, err := unmarshalDoc(data)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// Remove deletes the document at rowID and unindexes it everywhere.
func (c *Collection) Remove(rowID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok, err := c.findLocked(rowID)
	if err != nil {
		return err
	}
	if !ok {
		return recordstore.ErrNotFound
	}

	for name, bi := range c.indexes {
		if err := bi.store.Unindex(doc, rowID); err != nil {
			return fmt.Errorf("document: index %q: %w", name, err)
		}
	}
	return c.records.Delete(rowID)
}

// Patch applies a JSON merge patch (RFC 7386) to the document at
// rowID and re-syncs every bound index, grounded on the teacher's
// Collection.Patch/patchByRow.
func (c *Collection) Patch(rowID int64, patch map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.records.Find(rowID)
	if !ok {
		return recordstore.ErrNotFound
	}

	patchBytes, err := json2.Marshal(patch)
	if err != nil {
		return fmt.Errorf("document: patch: marshal patch: %w", err)
	}

	newData, err := jsonpatch.MergePatch(data, patchBytes)
	if err != nil {
		return fmt.Errorf("document: patch: merge: %w", err)
	}

	oldDoc, err := unmarshalDoc(data)
	if err != nil {
		return err
	}
	newDoc, err := unmarshalDoc(newData)
	if err != nil {
		return err
	}

	for name, bi := range c.indexes {
		if err := bi.store.Unindex(oldDoc, rowID); err != nil {
			return fmt.Errorf("document: index %q: %w", name, err)
		}
	}

	if err := c.records.Update(rowID, newData); err != nil {
		return err
	}

	for name, bi := range c.indexes {
		if err := bi.store.Insert(newDoc, rowID, true); err != nil {
			return fmt.Errorf("document: index %q: %w", name, err)
		}
	}
	return nil
}

func (c *Collection) findLocked(rowID int64) (map[string]any, bool, error) {
	data, ok := c.records.Find(rowID)
	if !ok {
		return nil, false, nil
	}
	doc, err := unmarshalDoc(data)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// CreateIndex builds a secondary index named name over fields (a
// leading "-" marks a field descending, per keycodec.ParseOrdering),
// back-filling it from every existing document via a BulkBuilder.
func (c *Collection) CreateIndex(name string, fields []string, unique bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.indexes[name]; exists {
		return ErrIndexExists
	}

	idx := c.bindIndex(name, fields, unique)

	builder := idx.NewBulkBuilder(!unique)
	cur := c.records.Cursor(true)
	defer cur.Close()

	for {
		rec, ok := cur.Next()
		if !ok {
			break
		}
		doc, err := unmarshalDoc(rec.Data)
		if err != nil {
			return fmt.Errorf("document: create index %q: decode row %d: %w", name, rec.RowID, err)
		}
		if err := builder.Add(doc, rec.RowID); err != nil {
			return fmt.Errorf("document: create index %q: %w", name, err)
		}
	}
	if err := builder.Commit(); err != nil {
		return err
	}

	c.logger.Info().Str("index", name).Strs("fields", fields).Bool("unique", unique).Msg("index created")
	return nil
}

// bindIndex wires an IndexStore for name/fields/unique into c without
// touching existing entries — used both by CreateIndex (which backfills
// right after) and by Database's rebind-on-fork path (where the
// underlying index data already exists in the trie being bound to).
func (c *Collection) bindIndex(name string, fields []string, unique bool) *indexstore.IndexStore {
	ident := append([]byte(nil), c.ident...)
	ident = append(ident, ':', 'i', ':')
	ident = append(ident, name...)
	ident = append(ident, ':')

	idx := indexstore.New(c.store, indexstore.Options{
		Ident:    ident,
		Ordering: keycodec.ParseOrdering(fields),
		Unique:   unique,
	})
	c.indexes[name] = &boundIndex{store: idx, fields: fields, unique: unique}
	return idx
}

// DropIndex removes a secondary index and all of its entries.
func (c *Collection) DropIndex(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	bi, ok := c.indexes[name]
	if !ok {
		return ErrIndexNotFound
	}
	bi.store.Truncate()
	delete(c.indexes, name)
	return nil
}

// FindBy returns every row id whose indexed fields equal the
// corresponding fields of value, using the named secondary index.
func (c *Collection) FindBy(name string, value map[string]any) ([]int64, error) {
	c.mu.Lock()
	bi, ok := c.indexes[name]
	c.mu.Unlock()
	if !ok {
		return nil, ErrIndexNotFound
	}

	cursor := bi.store.Cursor(true)
	defer cursor.Close()

	if err := cursor.SetEndPosition(value, true); err != nil {
		return nil, err
	}
	if err := cursor.Seek(value, true); err != nil {
		return nil, err
	}

	var rowIDs []int64
	for {
		entry, ok, err := cursor.Next()
		if err != nil {
			return rowIDs, err
		}
		if !ok {
			break
		}
		rowIDs = append(rowIDs, entry.RowID)
	}
	return rowIDs, nil
}

// Scan performs a filtered full scan using connor.Match against filter,
// skipping skip matches and returning at most limit documents — grounded
// on the teacher's traverseFullscan.
func (c *Collection) Scan(filter map[string]any, skip, limit int64) ([]map[string]any, error) {
	hasFilter := len(filter) > 0

	cursor := c.records.Cursor(true)
	defer cursor.Close()

	var results []map[string]any
	for {
		if limit == 0 {
			break
		}
		rec, ok := cursor.Next()
		if !ok {
			break
		}

		doc, err := unmarshalDoc(rec.Data)
		if err != nil {
			return results, fmt.Errorf("document: scan: decode row %d: %w", rec.RowID, err)
		}

		if hasFilter {
			match, err := connor.Match(filter, doc)
			if err != nil {
				return results, fmt.Errorf("document: scan: match: %w", err)
			}
			if !match {
				continue
			}
		}

		if skip > 0 {
			skip--
			continue
		}

		limit--
		results = append(results, doc)
	}
	return results, nil
}

// RemoveWhere scans every document with connor.Match against filter and
// removes each match, fanning out to bound indexes the same way Remove
// does. It walks the record cursor directly instead of Scan because
// Scan's decoded results drop the row id removal needs — grounded on
// the teacher's traverseFullscan paired with its `:remove` handler.
func (c *Collection) RemoveWhere(filter map[string]any) (int, error) {
	cursor := c.records.Cursor(true)

	var matches []int64
	for {
		rec, ok := cursor.Next()
		if !ok {
			break
		}

		doc, err := unmarshalDoc(rec.Data)
		if err != nil {
			cursor.Close()
			return 0, fmt.Errorf("document: removeWhere: decode row %d: %w", rec.RowID, err)
		}

		match, err := connor.Match(filter, doc)
		if err != nil {
			cursor.Close()
			return 0, fmt.Errorf("document: removeWhere: match: %w", err)
		}
		if match {
			matches = append(matches, rec.RowID)
		}
	}
	cursor.Close()

	removed := 0
	for _, rowID := range matches {
		if err := c.Remove(rowID); err != nil {
			return removed, fmt.Errorf("document: removeWhere: remove row %d: %w", rowID, err)
		}
		removed++
	}
	return removed, nil
}

// NumDocuments returns the number of documents currently stored.
func (c *Collection) NumDocuments() int {
	return c.records.NumRecords()
}

// indexOptions is the shape handed to Remarshal when describing a
// bound index generically, mirroring the teacher's listIndexesItem.
type indexOptions struct {
	Fields []string `json:"fields"`
	Unique bool     `json:"unique"`
}

// IndexNames lists the names of every bound index, sorted.
func (c *Collection) IndexNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return utils.GetKeys(c.indexes)
}

// IndexInfo describes the index named name as a generic map suitable
// for JSON serving, grounded on the teacher's listIndexesItem.
func (c *Collection) IndexInfo(name string) (map[string]any, error) {
	c.mu.Lock()
	bi, ok := c.indexes[name]
	c.mu.Unlock()
	if !ok {
		return nil, ErrIndexNotFound
	}

	result := map[string]any{
		"name": name,
		"type": "btree",
	}
	if err := utils.Remarshal(indexOptions{Fields: bi.fields, Unique: bi.unique}, &result); err != nil {
		return nil, fmt.Errorf("document: index info %q: %w", name, err)
	}
	return result, nil
}
