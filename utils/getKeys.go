package utils

import "sort"

// GetKeys returns the keys of m, sorted ascending — used wherever a
// stable, deterministic listing of names matters (index names, for
// instance) more than raw map iteration order.
func GetKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
