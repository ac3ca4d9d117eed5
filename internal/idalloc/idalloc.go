// Package idalloc computes identifiers for spreadsheet collections.
//
// Identifiers are decimal strings allocated as max+1 over the ids already
// present, so a deleted row never frees its id for reuse. Callers must hold
// the collection's create lock between reading the ids and appending the row.
package idalloc

import (
	"math/big"
	"strings"
)

// NextID returns the smallest id strictly greater than every numeric id in
// existing. Non-numeric ids are ignored. An empty collection yields "1".
func NextID(existing []string) string {
	max := new(big.Int)
	for _, raw := range existing {
		n, ok := parse(raw)
		if !ok {
			continue
		}
		if n.Cmp(max) > 0 {
			max = n
		}
	}
	return max.Add(max, big.NewInt(1)).String()
}

// IsNumeric reports whether id consists solely of decimal digits.
func IsNumeric(id string) bool {
	_, ok := parse(id)
	return ok
}

func parse(raw string) (*big.Int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil, false
		}
	}
	n, ok := new(big.Int).SetString(s, 10)
	return n, ok
}
