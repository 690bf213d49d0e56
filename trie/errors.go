package trie

import "fmt"

var (
	// ErrKeyNotFound is returned by Update when the key is absent.
	// Erase reports the same situation by returning 0 instead, per spec.
	ErrKeyNotFound = fmt.Errorf("trie: key not found")

	// ErrInvalidArgument is returned for an empty key on Insert/Update.
	ErrInvalidArgument = fmt.Errorf("trie: invalid argument")

	// ErrKeyExists is the failure indicator Insert returns when the key
	// is already present; Insert returns the already-stored value
	// alongside it.
	ErrKeyExists = fmt.Errorf("trie: key already exists")
)

// MergeConflictError is returned by Merge3 when the same key was
// modified, inserted or deleted incompatibly by both sides. It carries
// the first conflicting key encountered, per spec §4.2/§7.
type MergeConflictError struct {
	Key []byte
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("trie: merge conflict on key %q", e.Key)
}
