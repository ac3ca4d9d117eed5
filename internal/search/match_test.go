package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		haystack string
		needle   string
		want     bool
	}{
		{"Queso tequeño", "queso", true},
		{"Queso tequeño", "tequeño", true},
		{"Queso tequeño", "TEQUEÑO", true},
		{"quesos", "queso", false},
		{"tequeños", "tequeño", false},
		{"quesos tequeños", "tequeño", false},
		{"anything", "", true},
		{"anything", "   ", true},
		{"", "x", false},
		{"Pan de queso", "de queso", true},
		{"Pan de quesos", "de queso", false},
		{"precio 12.5 ARS", "12.5", true},
		{"precio 112.5", "12.5", false},
		{"a+b combo", "a+b", true},
		{"a.b", "a*b", false},
		{"(grande)", "grande", true},
		{"2024-05-01", "2024", true},
		{"2024-05-01", "05", true},
		{"id_12", "12", false},
		{"ÁRBOL verde", "árbol", true},
		{"sándwich", "andwich", false},
	}
	for _, tt := range tests {
		t.Run(tt.haystack+"/"+tt.needle, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.haystack, tt.needle))
		})
	}
}

func TestMatchesAny(t *testing.T) {
	assert.True(t, MatchesAny("queso", "pan", "queso rallado"))
	assert.False(t, MatchesAny("queso", "pan", "quesos"))
	assert.True(t, MatchesAny(""))
}
