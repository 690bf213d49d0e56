package utils

import "encoding/json"

// Remarshal round-trips input through JSON into output, the cheap way
// to convert between two Go types that only agree on their JSON shape
// (e.g. a typed index-options struct into a generic map for serving).
func Remarshal(input interface{}, output interface{}) error {
	b, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, output)
}
