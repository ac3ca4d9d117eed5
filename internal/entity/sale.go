package entity

import "github.com/shopspring/decimal"

// Sale is a customer order. Client holds the client's name, not its id.
// Delivery is operator-entered free text; see package status.
type Sale struct {
	ID            string
	Date          string
	Client        string
	LegacyName    *string
	Lines         []Line
	Total         decimal.Decimal
	Delivery      string
	Manufacturing bool
}

// IsLegacy reports whether the sale predates itemized lines.
func (s Sale) IsLegacy() bool {
	return len(s.Lines) == 0
}
