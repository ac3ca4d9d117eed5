package entity

import "github.com/shopspring/decimal"

// Purchase records goods bought from a supplier. Legacy rows have no Lines
// and keep a free-text Description instead.
type Purchase struct {
	ID          string
	Date        string
	Supplier    string
	Invoice     *string
	Description *string
	Lines       []Line
	Total       decimal.Decimal
}

// IsLegacy reports whether the purchase predates itemized lines.
func (p Purchase) IsLegacy() bool {
	return len(p.Lines) == 0
}
