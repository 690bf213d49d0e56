package trie

// The following are the Store-rooted spellings of the package-level
// iterator constructors, matching the operation names listed in spec
// §4.2 exactly. Both spellings exist because indexstore and
// recordstore construct iterators from a *trie.View (see view.go) and
// read more naturally calling trie.LowerBound(store, key); tests and
// direct callers of a bare *Store read more naturally calling
// store.LowerBound(key).

func (s *Store) Begin() *Iterator                     { return Begin(s) }
func (s *Store) End() *Iterator                        { return End(s) }
func (s *Store) ReverseBegin() *Iterator               { return RBegin(s) }
func (s *Store) ReverseEnd() *Iterator                 { return REnd(s) }
func (s *Store) LowerBound(k []byte) *Iterator         { return LowerBound(s, k) }
func (s *Store) UpperBound(k []byte) *Iterator         { return UpperBound(s, k) }
func (s *Store) ReverseLowerBound(k []byte) *Iterator  { return ReverseLowerBound(s, k) }
func (s *Store) ReverseUpperBound(k []byte) *Iterator  { return ReverseUpperBound(s, k) }
