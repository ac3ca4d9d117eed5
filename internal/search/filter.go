package search

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/elifred2022/bokadillo/internal/entity"
	"github.com/elifred2022/bokadillo/internal/status"
)

// Articles keeps the articles whose barcode, id, name or description
// matches q.
func Articles(items []entity.Article, q string) []entity.Article {
	return keep(items, q, func(a entity.Article) []string {
		return []string{a.Barcode, a.ID, a.Name, deref(a.Description)}
	})
}

// Clients keeps the clients whose id, name, phone, email, address or
// creation date matches q.
func Clients(items []entity.Client, q string) []entity.Client {
	return keep(items, q, func(c entity.Client) []string {
		return []string{c.ID, c.Name, deref(c.Phone), c.Email, deref(c.Address), c.CreatedAt}
	})
}

// Suppliers keeps the suppliers whose id, name, phone, email, address or
// contact matches q.
func Suppliers(items []entity.Supplier, q string) []entity.Supplier {
	return keep(items, q, func(s entity.Supplier) []string {
		return []string{s.ID, s.Name, deref(s.Phone), deref(s.Email), deref(s.Address), deref(s.Contact)}
	})
}

// Purchases keeps the purchases matching q on header fields, the legacy
// description or any line, sorted newest first.
func Purchases(items []entity.Purchase, q string) []entity.Purchase {
	out := keep(items, q, func(p entity.Purchase) []string {
		fields := []string{p.ID, p.Date, p.Supplier, deref(p.Invoice), p.Total.String(), deref(p.Description)}
		return append(fields, lineFields(p.Lines)...)
	})
	sort.SliceStable(out, func(i, j int) bool {
		return newerFirst(out[i].Date, out[i].ID, out[j].Date, out[j].ID)
	})
	return out
}

// SaleQuery narrows the sales list.
type SaleQuery struct {
	Text string
	// From and To bound the sale date (YYYY-MM-DD, inclusive). Sales with an
	// empty date are never excluded by the range.
	From          string
	To            string
	HideNew       bool
	HideDelivered bool
}

// Sales applies query to items and sorts the result newest first.
func Sales(items []entity.Sale, query SaleQuery) []entity.Sale {
	from := strings.TrimSpace(query.From)
	to := strings.TrimSpace(query.To)

	out := make([]entity.Sale, 0, len(items))
	for _, s := range items {
		st := status.Derive(s.Delivery)
		if query.HideNew && st.IsNew() {
			continue
		}
		if query.HideDelivered && st.IsDelivered() {
			continue
		}
		date := strings.TrimSpace(s.Date)
		if from != "" && date != "" && date < from {
			continue
		}
		if to != "" && date != "" && date > to {
			continue
		}
		fields := []string{s.ID, s.Date, s.Client, s.Total.String(), deref(s.LegacyName)}
		if !MatchesAny(query.Text, append(fields, lineFields(s.Lines)...)...) {
			continue
		}
		out = append(out, s)
	}
	SortSales(out)
	return out
}

// SortSales orders sales by date, then id, newest first.
func SortSales(items []entity.Sale) {
	sort.SliceStable(items, func(i, j int) bool {
		return newerFirst(items[i].Date, items[i].ID, items[j].Date, items[j].ID)
	})
}

// SalesTotal adds up the grand totals of items.
func SalesTotal(items []entity.Sale) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range items {
		sum = sum.Add(s.Total)
	}
	return sum
}

// PurchasesTotal adds up the grand totals of items.
func PurchasesTotal(items []entity.Purchase) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range items {
		sum = sum.Add(p.Total)
	}
	return sum
}

func keep[T any](items []T, q string, fields func(T) []string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if MatchesAny(q, fields(item)...) {
			out = append(out, item)
		}
	}
	return out
}

func lineFields(lines []entity.Line) []string {
	fields := make([]string, 0, len(lines)*2)
	for _, l := range lines {
		fields = append(fields, l.Name, l.ArticleID)
	}
	return fields
}

// newerFirst compares dates as text, matching how the sheet stores them;
// ties fall back to the id, compared numerically.
func newerFirst(dateA, idA, dateB, idB string) bool {
	if dateA != dateB {
		return dateA > dateB
	}
	a := strings.TrimLeft(idA, "0")
	b := strings.TrimLeft(idB, "0")
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a > b
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
