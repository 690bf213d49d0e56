package trie

import "bytes"

// View bounds a Store to one byte-prefix identity, so several logical
// collections can share a single underlying trie (spec §3, §4.4). All
// keys a View hands to the underlying Store are of the form
// PrefixLo || innerKey; PrefixHi is the exclusive upper sentinel of
// that range.
type View struct {
	Store    *Store
	Ident    []byte
	PrefixLo []byte
	PrefixHi []byte
}

// NewView scopes store to the range bounded by ident.
func NewView(store *Store, ident []byte) *View {
	id := append([]byte(nil), ident...)
	return &View{
		Store:    store,
		Ident:    id,
		PrefixLo: append(append([]byte(nil), id...), 0x01),
		PrefixHi: append(append([]byte(nil), id...), 0x02),
	}
}

func (v *View) encode(innerKey []byte) []byte {
	out := make([]byte, 0, len(v.PrefixLo)+len(innerKey))
	out = append(out, v.PrefixLo...)
	out = append(out, innerKey...)
	return out
}

// Find looks up innerKey within the view's range.
func (v *View) Find(innerKey []byte) ([]byte, bool) {
	return v.Store.Find(v.encode(innerKey))
}

// Insert adds (innerKey, value) within the view's range.
func (v *View) Insert(innerKey, value []byte) ([]byte, error) {
	return v.Store.Insert(v.encode(innerKey), value)
}

// Update replaces the value at innerKey within the view's range.
func (v *View) Update(innerKey, value []byte) ([]byte, error) {
	return v.Store.Update(v.encode(innerKey), value)
}

// Erase removes innerKey within the view's range.
func (v *View) Erase(innerKey []byte) int {
	return v.Store.Erase(v.encode(innerKey))
}

// LowerBound returns a forward iterator at the first entry with
// encoded key >= PrefixLo||innerKey, but never past PrefixHi — the
// caller should stop once Iterator.Key no longer has PrefixLo as a
// prefix (InRange reports exactly that).
func (v *View) LowerBound(innerKey []byte) *Iterator {
	return LowerBound(v.Store, v.encode(innerKey))
}

func (v *View) UpperBound(innerKey []byte) *Iterator {
	return UpperBound(v.Store, v.encode(innerKey))
}

func (v *View) ReverseLowerBound(innerKey []byte) *Iterator {
	return ReverseLowerBound(v.Store, v.encode(innerKey))
}

func (v *View) ReverseUpperBound(innerKey []byte) *Iterator {
	return ReverseUpperBound(v.Store, v.encode(innerKey))
}

// Begin returns a forward iterator at the view's first entry, if any.
func (v *View) Begin() *Iterator {
	return LowerBound(v.Store, v.PrefixLo)
}

// End returns a forward iterator at the view's upper sentinel.
func (v *View) End() *Iterator {
	return LowerBound(v.Store, v.PrefixHi)
}

// ReverseBegin returns a reverse iterator at the view's last entry, if any.
func (v *View) ReverseBegin() *Iterator {
	return ReverseUpperBound(v.Store, v.PrefixHi)
}

// ReverseEnd returns a reverse iterator before the view's first entry.
func (v *View) ReverseEnd() *Iterator {
	return ReverseLowerBound(v.Store, v.PrefixLo)
}

// InRange reports whether encodedKey still falls within this view's
// [PrefixLo, PrefixHi) range, i.e. whether an iterator positioned at
// encodedKey has not wandered into a neighboring collection.
func (v *View) InRange(encodedKey []byte) bool {
	return bytes.Compare(encodedKey, v.PrefixLo) >= 0 && bytes.Compare(encodedKey, v.PrefixHi) < 0
}

// InnerKey strips the PrefixLo prefix off an encoded key, for callers
// that read it back off an Iterator.
func (v *View) InnerKey(encodedKey []byte) []byte {
	return encodedKey[len(v.PrefixLo):]
}

// Truncate enumerates every entry in [PrefixLo, PrefixHi) and erases it.
func (v *View) Truncate() int {
	count := 0
	for {
		it := v.Begin()
		if !it.Valid() || !v.InRange(it.Key()) {
			it.Close()
			break
		}
		key := append([]byte(nil), it.Key()...)
		it.Close()
		v.Store.Erase(key)
		count++
	}
	return count
}
