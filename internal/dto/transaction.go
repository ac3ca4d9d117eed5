package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/elifred2022/bokadillo/internal/entity"
	"github.com/elifred2022/bokadillo/internal/status"
)

// Line is one itemized line.
type Line struct {
	ArticleID string          `json:"articleId"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

func linesToEntity(lines []Line) []entity.Line {
	if len(lines) == 0 {
		return nil
	}
	out := make([]entity.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, entity.Line{ArticleID: l.ArticleID, Name: l.Name, Quantity: l.Quantity, Total: l.Total})
	}
	return out
}

func linesFromEntity(lines []entity.Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, Line{ArticleID: l.ArticleID, Name: l.Name, Quantity: l.Quantity, Total: l.Total})
	}
	return out
}

// total returns the explicit total or, when omitted, the sum of lines.
func total(explicit *decimal.Decimal, lines []entity.Line) decimal.Decimal {
	if explicit != nil {
		return *explicit
	}
	return entity.SumLines(lines)
}

// PurchaseRequest is the create/update payload for purchases. An omitted
// total is computed from the lines.
type PurchaseRequest struct {
	Date        string           `json:"date"`
	Supplier    string           `json:"supplier"`
	Invoice     *string          `json:"invoice"`
	Description *string          `json:"description"`
	Lines       []Line           `json:"lines"`
	Total       *decimal.Decimal `json:"total"`
}

// Entity converts the request.
func (r PurchaseRequest) Entity() entity.Purchase {
	lines := linesToEntity(r.Lines)
	return entity.Purchase{
		Date:        r.Date,
		Supplier:    r.Supplier,
		Invoice:     blankToNil(r.Invoice),
		Description: blankToNil(r.Description),
		Lines:       lines,
		Total:       total(r.Total, lines),
	}
}

// PurchaseResponse represents a purchase.
type PurchaseResponse struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Supplier    string          `json:"supplier"`
	Invoice     *string         `json:"invoice,omitempty"`
	Description *string         `json:"description,omitempty"`
	Lines       []Line          `json:"lines"`
	Total       decimal.Decimal `json:"total"`
	Legacy      bool            `json:"legacy"`
}

// Purchase converts an entity for output.
func Purchase(p entity.Purchase) PurchaseResponse {
	return PurchaseResponse{
		ID:          p.ID,
		Date:        p.Date,
		Supplier:    p.Supplier,
		Invoice:     p.Invoice,
		Description: p.Description,
		Lines:       linesFromEntity(p.Lines),
		Total:       p.Total,
		Legacy:      p.IsLegacy(),
	}
}

// SaleRequest is the create/update payload for sales.
type SaleRequest struct {
	Date          string           `json:"date"`
	Client        string           `json:"client"`
	LegacyName    *string          `json:"legacyName"`
	Lines         []Line           `json:"lines"`
	Total         *decimal.Decimal `json:"total"`
	Delivery      string           `json:"delivery"`
	Manufacturing bool             `json:"manufacturing"`
}

// Entity converts the request.
func (r SaleRequest) Entity() entity.Sale {
	lines := linesToEntity(r.Lines)
	return entity.Sale{
		Date:          r.Date,
		Client:        r.Client,
		LegacyName:    blankToNil(r.LegacyName),
		Lines:         lines,
		Total:         total(r.Total, lines),
		Delivery:      r.Delivery,
		Manufacturing: r.Manufacturing,
	}
}

// DeliveryStatus is the derived reading of a sale's delivery text.
type DeliveryStatus struct {
	Kind  string `json:"kind"`
	Date  string `json:"date,omitempty"`
	Label string `json:"label"`
}

// SaleResponse represents a sale with its derived status.
type SaleResponse struct {
	ID            string          `json:"id"`
	Date          string          `json:"date"`
	Client        string          `json:"client"`
	LegacyName    *string         `json:"legacyName,omitempty"`
	Lines         []Line          `json:"lines"`
	Total         decimal.Decimal `json:"total"`
	Delivery      string          `json:"delivery"`
	Status        DeliveryStatus  `json:"status"`
	Manufacturing bool            `json:"manufacturing"`
	Legacy        bool            `json:"legacy"`
}

// Sale converts an entity for output.
func Sale(s entity.Sale) SaleResponse {
	st := status.Derive(s.Delivery)
	return SaleResponse{
		ID:            s.ID,
		Date:          s.Date,
		Client:        s.Client,
		LegacyName:    s.LegacyName,
		Lines:         linesFromEntity(s.Lines),
		Total:         s.Total,
		Delivery:      s.Delivery,
		Status:        DeliveryStatus{Kind: string(st.Kind), Date: st.Date, Label: st.Label()},
		Manufacturing: s.Manufacturing,
		Legacy:        s.IsLegacy(),
	}
}

// OrderRequest is the customer order form.
type OrderRequest struct {
	Items []OrderItem `json:"items"`
}

// OrderItem is one quantity on the order form.
type OrderItem struct {
	ArticleID string `json:"articleId"`
	Quantity  int64  `json:"quantity"`
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
