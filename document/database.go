package document

import (
	"sync"

	"github.com/fulldump/radixstore/trie"
	"github.com/fulldump/radixstore/txn"
)

// indexDef is a recorded CreateIndex call, replayed against every
// fresh Collection struct a Database hands out for the same ident so
// a transaction's working copy knows about indexes created before it
// forked — the index *data* already lives in the shared trie, but the
// name-to-ordering mapping is a Collection-local artifact (spec says
// nothing about persisting index definitions, since spec.md has no
// concept of handing out a new Collection struct per transaction;
// this bookkeeping exists only because Database does).
type indexDef struct {
	name   string
	fields []string
	unique bool
}

// Database owns the shared trie a set of Collections live in and
// hands out transactions against it, composing txn.Base/txn.Txn with
// Collection the way document's top-level doc comment promises.
type Database struct {
	base *txn.Base

	mu        sync.Mutex
	indexDefs map[string][]indexDef
}

// NewDatabase wraps store as a Database's shared base.
func NewDatabase(store *trie.Store) *Database {
	return &Database{base: txn.NewBase(store), indexDefs: map[string][]indexDef{}}
}

// Collection opens a Collection bound directly to the Database's live
// store, for callers that don't need transactional isolation. Indexes
// previously created through CreateIndex are rebound automatically.
func (d *Database) Collection(ident []byte) *Collection {
	col := NewCollection(d.base.Store(), ident)
	d.rebind(col, ident)
	return col
}

// CreateIndex creates an index on the Database's live collection named
// ident and records the definition so every future Collection/Transact
// call for that ident rebinds it, without repeating the backfill.
func (d *Database) CreateIndex(ident []byte, name string, fields []string, unique bool) error {
	col := d.Collection(ident)
	if err := col.CreateIndex(name, fields, unique); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.indexDefs[string(ident)] = append(d.indexDefs[string(ident)], indexDef{name: name, fields: fields, unique: unique})
	return nil
}

func (d *Database) rebind(col *Collection, ident []byte) {
	d.mu.Lock()
	defs := append([]indexDef(nil), d.indexDefs[string(ident)]...)
	d.mu.Unlock()

	for _, def := range defs {
		col.bindIndex(def.name, def.fields, def.unique)
	}
}

// Transact runs fn against a Collection bound to a fresh working copy,
// committing the three-way merge back into the shared base if fn
// succeeds and aborting (discarding every change fn made) otherwise.
func (d *Database) Transact(ident []byte, fn func(*Collection) error) error {
	tx := txn.New(d.base)
	col := NewCollection(tx.WorkingCopy(), ident)
	d.rebind(col, ident)

	if err := fn(col); err != nil {
		tx.Abort()
		return err
	}
	return tx.Commit()
}
