package rowcodec

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/elifred2022/bokadillo/internal/entity"
)

// ParseDecimal reads a monetary cell. Currency symbols, spaces and
// thousands separators are ignored; a lone comma is taken as the decimal
// separator. Anything unparsable reads as zero.
func ParseDecimal(s string) decimal.Decimal {
	s = CleanCell(s)
	if s == "" {
		return decimal.Zero
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", "€", "", "£", "", " ", "", "\u00a0", "").Replace(s)

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		d = d.Neg()
	}
	return d
}

// ParseInt reads an integer cell, truncating any fraction. Unparsable cells
// read as zero.
func ParseInt(s string) int64 {
	return ParseDecimal(s).IntPart()
}

// ParseBool accepts the spellings operators type into sheets.
func ParseBool(s string) bool {
	switch strings.ToLower(CleanCell(s)) {
	case "true", "t", "yes", "y", "si", "sí", "s", "1", "x":
		return true
	default:
		return false
	}
}

// FormatBool writes booleans the way Sheets renders checkbox values.
func FormatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// Optional converts an empty cell to nil.
func Optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref writes nil as an empty cell.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type lineCell struct {
	ArticleID string      `json:"idarticulo"`
	Name      string      `json:"nombre"`
	Quantity  json.Number `json:"cantidad"`
	Total     json.Number `json:"total"`
}

// EncodeLines writes a line list as a JSON array. No lines encode as an
// empty cell, which is how legacy rows look.
func EncodeLines(lines []entity.Line) string {
	if len(lines) == 0 {
		return ""
	}
	cells := make([]lineCell, 0, len(lines))
	for _, l := range lines {
		cells = append(cells, lineCell{
			ArticleID: l.ArticleID,
			Name:      l.Name,
			Quantity:  json.Number(decimal.NewFromInt(l.Quantity).String()),
			Total:     json.Number(l.Total.String()),
		})
	}
	b, err := json.Marshal(cells)
	if err != nil {
		return ""
	}
	return string(b)
}

// DecodeLines parses a JSON line list. Empty or unreadable cells yield no
// lines so the row is treated as legacy instead of failing the list.
func DecodeLines(s string) []entity.Line {
	s = CleanCell(s)
	if s == "" {
		return nil
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil || len(raw) == 0 {
		return nil
	}
	lines := make([]entity.Line, 0, len(raw))
	for _, item := range raw {
		lines = append(lines, entity.Line{
			ArticleID: anyString(item["idarticulo"]),
			Name:      anyString(item["nombre"]),
			Quantity:  ParseInt(anyString(item["cantidad"])),
			Total:     ParseDecimal(anyString(item["total"])),
		})
	}
	return lines
}

func anyString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
