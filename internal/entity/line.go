package entity

import "github.com/shopspring/decimal"

// Line is one article on a purchase or sale. Name is a snapshot taken when
// the transaction was recorded and is never refreshed from the article.
type Line struct {
	ArticleID string
	Name      string
	Quantity  int64
	Total     decimal.Decimal
}

// UnitPrice derives the per-unit price; zero quantity yields zero.
func (l Line) UnitPrice() decimal.Decimal {
	if l.Quantity <= 0 {
		return decimal.Zero
	}
	return l.Total.Div(decimal.NewFromInt(l.Quantity))
}

// SumLines adds up line totals.
func SumLines(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total)
	}
	return sum
}
