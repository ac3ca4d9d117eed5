// Package search implements the whole-word filter shared by every list view.
package search

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Matches reports whether needle occurs in haystack as a whole word,
// ignoring case. The needle is literal text; a blank needle matches
// everything. A word boundary is a string edge or any rune that is not a
// letter, digit or underscore, so "queso" matches "Queso tequeño" but not
// "quesos", and "tequeño" does not match "tequeños".
func Matches(haystack, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return true
	}
	want := []rune(needle)
	for i := 0; i < len(haystack); {
		if i > 0 {
			prev, _ := utf8.DecodeLastRuneInString(haystack[:i])
			if isWord(prev) {
				_, size := utf8.DecodeRuneInString(haystack[i:])
				i += size
				continue
			}
		}
		if end, ok := foldPrefix(haystack[i:], want); ok {
			next, _ := utf8.DecodeRuneInString(haystack[i+end:])
			if i+end == len(haystack) || !isWord(next) {
				return true
			}
		}
		_, size := utf8.DecodeRuneInString(haystack[i:])
		i += size
	}
	return false
}

// MatchesAny reports whether any of the fields matches needle.
func MatchesAny(needle string, fields ...string) bool {
	if strings.TrimSpace(needle) == "" {
		return true
	}
	for _, f := range fields {
		if Matches(f, needle) {
			return true
		}
	}
	return false
}

// foldPrefix reports whether s starts with want under simple case folding
// and returns the byte length of the matched prefix.
func foldPrefix(s string, want []rune) (int, bool) {
	pos := 0
	for _, w := range want {
		if pos >= len(s) {
			return 0, false
		}
		r, size := utf8.DecodeRuneInString(s[pos:])
		if !equalFold(r, w) {
			return 0, false
		}
		pos += size
	}
	return pos, true
}

func equalFold(a, b rune) bool {
	if a == b {
		return true
	}
	for f := unicode.SimpleFold(a); f != a; f = unicode.SimpleFold(f) {
		if f == b {
			return true
		}
	}
	return false
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
