package trie

import "bytes"

// Merge3 reconciles the receiver ("this") and other against their
// common ancestor base, per spec §4.2. It returns a fresh Store built
// by ordinary inserts (no structural sharing with the inputs is
// required) or, the moment any key is found to carry incompatible
// edits on both sides, a *MergeConflictError naming the first
// conflicting key — the base and both inputs are left untouched
// either way.
//
// merge3(B, X, X) == X, merge3(B, B, X) == X and merge3(B, X, B) == X
// whenever there is no conflict (spec §8 invariant 6): this is a
// semilattice join over non-conflicting edits.
func (this *Store) Merge3(base, other *Store) (*Store, error) {
	result := Empty()

	for it := Begin(this); it.Valid(); it.Next() {
		k, v := it.Key(), it.Value()
		baseVal, inBase := base.Find(k)
		otherVal, inOther := other.Find(k)

		switch {
		case inBase && inOther:
			thisChanged := !bytes.Equal(v, baseVal)
			otherChanged := !bytes.Equal(otherVal, baseVal)
			if thisChanged && otherChanged && !bytes.Equal(v, otherVal) {
				return nil, conflict(k)
			}
			if thisChanged {
				result.Insert(k, v)
			} else {
				result.Insert(k, otherVal)
			}
		case inBase && !inOther:
			if !bytes.Equal(v, baseVal) {
				return nil, conflict(k) // modify-vs-delete
			}
			// else: other deleted it, this left it untouched -> drop.
		case !inBase:
			if inOther && !bytes.Equal(v, otherVal) {
				return nil, conflict(k) // insert-vs-insert, different values
			}
			result.Insert(k, v) // either this alone inserted it, or both inserted the same value
		}
	}

	for it := Begin(other); it.Valid(); it.Next() {
		k, v := it.Key(), it.Value()
		baseVal, inBase := base.Find(k)
		thisVal, inThis := this.Find(k)

		if !inBase {
			if !inThis {
				result.Insert(k, v) // other inserted it, this never had it.
			} else if !bytes.Equal(v, thisVal) {
				return nil, conflict(k) // insert-vs-insert, different values
			}
			// else: both inserted the same value — already settled by the first pass.
			continue
		}
		if !inThis && !bytes.Equal(v, baseVal) {
			return nil, conflict(k) // this deleted it, other modified it.
		}
	}

	return result, nil
}

func conflict(key []byte) *MergeConflictError {
	return &MergeConflictError{Key: append([]byte(nil), key...)}
}
