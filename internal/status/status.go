// Package status classifies the free-text delivery field of a sale.
package status

import (
	"regexp"
	"strings"
)

// Kind is the coarse delivery state of a sale.
type Kind string

const (
	KindNew        Kind = "new"
	KindInProgress Kind = "in_progress"
	KindDelivered  Kind = "delivered"
)

// Pending is the operator keyword for an order nobody has started.
const Pending = "pendiente"

var deliveredDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Status is the result of Derive. Date is set for delivered sales, Raw for
// in-progress ones.
type Status struct {
	Kind Kind
	Date string
	Raw  string
}

// Derive classifies a delivery field. A YYYY-MM-DD date means delivered on
// that date; an empty value or "pendiente" means a new order; anything else
// is an in-progress note such as "en reparto".
//
// Only the date test trims. The new-order test compares the raw text, so
// " " and " pendiente " are in-progress notes.
func Derive(text string) Status {
	trimmed := strings.TrimSpace(text)
	if deliveredDate.MatchString(trimmed) {
		return Status{Kind: KindDelivered, Date: trimmed}
	}
	if text == "" || strings.ToLower(text) == Pending {
		return Status{Kind: KindNew}
	}
	return Status{Kind: KindInProgress, Raw: text}
}

// Label renders the status the way order lists show it.
func (s Status) Label() string {
	switch s.Kind {
	case KindDelivered:
		return "Entregado - " + s.Date
	case KindNew:
		return "Nuevo pedido"
	default:
		return s.Raw
	}
}

// IsDelivered reports whether the sale has a delivery date.
func (s Status) IsDelivered() bool { return s.Kind == KindDelivered }

// IsNew reports whether the sale is still untouched.
func (s Status) IsNew() bool { return s.Kind == KindNew }
