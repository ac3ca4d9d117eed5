// Package rowcodec maps typed records onto spreadsheet rows.
//
// Sheets carry no schema: columns can be reordered, renamed in case, or be
// missing entirely on rows written before a column existed. Decoding is
// therefore header-driven and lenient. Only an unusable identifier makes a
// row malformed; every other cell falls back to its zero value.
package rowcodec

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedRow marks a row whose identifier is empty or non-numeric.
var ErrMalformedRow = errors.New("malformed row")

// Header maps a lowercased column name to its position in the row.
type Header map[string]int

// NewHeader indexes a header row. The first occurrence of a name wins.
func NewHeader(row []string) Header {
	h := make(Header, len(row))
	for i, name := range row {
		key := normalizeName(name)
		if key == "" {
			continue
		}
		if _, exists := h[key]; !exists {
			h[key] = i
		}
	}
	return h
}

// Has reports whether the header contains column.
func (h Header) Has(column string) bool {
	_, ok := h[normalizeName(column)]
	return ok
}

// Width is the number of cells a row needs to cover every known column.
func (h Header) Width() int {
	width := 0
	for _, pos := range h {
		if pos+1 > width {
			width = pos + 1
		}
	}
	return width
}

// Cell returns the cleaned value of column in row, or "" when the column is
// unknown or the row is too short.
func (h Header) Cell(row []string, column string) string {
	pos, ok := h[normalizeName(column)]
	if !ok || pos >= len(row) {
		return ""
	}
	return CleanCell(row[pos])
}

// Arrange places values, given in the order of columns, into a row laid out
// by h. Columns h does not know are dropped; cells h knows but columns does
// not set are left empty.
func Arrange(h Header, columns []string, values []string) []string {
	row := make([]string, h.Width())
	for i, column := range columns {
		if i >= len(values) {
			break
		}
		if pos, ok := h[normalizeName(column)]; ok {
			row[pos] = values[i]
		}
	}
	return row
}

// Overlay is Arrange on top of base: cells in columns the codec does not
// write keep their current values.
func Overlay(base []string, h Header, columns []string, values []string) []string {
	width := h.Width()
	if len(base) > width {
		width = len(base)
	}
	row := make([]string, width)
	copy(row, base)
	for i, column := range columns {
		if i >= len(values) {
			break
		}
		if pos, ok := h[normalizeName(column)]; ok {
			row[pos] = values[i]
		}
	}
	return row
}

// CleanCell strips surrounding whitespace and the Excel formula wrapper
// ="..." that exported sheets use to force text cells.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return s
}

func normalizeName(name string) string {
	return strings.ToLower(strings.ReplaceAll(CleanCell(name), " ", ""))
}

func malformed(collection, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedRow, collection, reason)
}
