package entity

import "github.com/shopspring/decimal"

// Article is a catalog item. Barcode is assigned externally; ID by the store.
type Article struct {
	Barcode     string
	ID          string
	Name        string
	Description *string
	Price       decimal.Decimal
	Stock       int64
	Category    *string
}
