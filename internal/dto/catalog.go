package dto

import (
	"github.com/shopspring/decimal"

	"github.com/elifred2022/bokadillo/internal/entity"
)

// ArticleRequest is the create/update payload for articles.
type ArticleRequest struct {
	Barcode     string          `json:"barcode"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	Category    *string         `json:"category"`
}

// Entity converts the request.
func (r ArticleRequest) Entity() entity.Article {
	return entity.Article{
		Barcode:     r.Barcode,
		Name:        r.Name,
		Description: blankToNil(r.Description),
		Price:       r.Price,
		Stock:       r.Stock,
		Category:    blankToNil(r.Category),
	}
}

// ArticleResponse represents an article as exposed via transport layers.
type ArticleResponse struct {
	ID          string          `json:"id"`
	Barcode     string          `json:"barcode"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	Category    *string         `json:"category,omitempty"`
}

// Article converts an entity for output.
func Article(a entity.Article) ArticleResponse {
	return ArticleResponse{
		ID:          a.ID,
		Barcode:     a.Barcode,
		Name:        a.Name,
		Description: a.Description,
		Price:       a.Price,
		Stock:       a.Stock,
		Category:    a.Category,
	}
}

// SupplierRequest is the create/update payload for suppliers.
type SupplierRequest struct {
	Name    string  `json:"name"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
	Contact *string `json:"contact"`
}

// Entity converts the request.
func (r SupplierRequest) Entity() entity.Supplier {
	return entity.Supplier{
		Name:    r.Name,
		Phone:   blankToNil(r.Phone),
		Email:   blankToNil(r.Email),
		Address: blankToNil(r.Address),
		Contact: blankToNil(r.Contact),
	}
}

// SupplierResponse represents a supplier.
type SupplierResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
	Contact *string `json:"contact,omitempty"`
}

// Supplier converts an entity for output.
func Supplier(s entity.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:      s.ID,
		Name:    s.Name,
		Phone:   s.Phone,
		Email:   s.Email,
		Address: s.Address,
		Contact: s.Contact,
	}
}

// Map converts a slice with fn.
func Map[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
