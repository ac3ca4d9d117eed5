package repository

import (
	"context"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/backend"
	"github.com/elifred2022/bokadillo/internal/entity"
	"github.com/elifred2022/bokadillo/internal/lock"
	"github.com/elifred2022/bokadillo/internal/rowcodec"
)

// Module provides the per-entity stores to Fx.
var Module = fx.Provide(
	NewArticles,
	NewClients,
	NewSuppliers,
	NewPurchases,
	NewSales,
)

// Params defines dependencies shared by every store.
type Params struct {
	fx.In

	Backend backend.Backend
	Locker  lock.Locker
	Logger  *zap.Logger
}

// Articles stores the catalog.
type Articles struct {
	*Table[entity.Article]
}

// NewArticles wires the articulos store.
func NewArticles(p Params) *Articles {
	return &Articles{NewTable[entity.Article](p.Backend, rowcodec.ArticleCodec{}, p.Locker, p.Logger)}
}

// GetByBarcode finds an article by its external barcode.
func (s *Articles) GetByBarcode(ctx context.Context, barcode string) (entity.Article, error) {
	barcode = strings.TrimSpace(barcode)
	return s.Find(ctx, func(a entity.Article) bool {
		return a.Barcode == barcode
	})
}

// Clients stores customer accounts. Emails are unique.
type Clients struct {
	*Table[entity.Client]
}

// NewClients wires the clientes store.
func NewClients(p Params) *Clients {
	t := NewTable[entity.Client](p.Backend, rowcodec.ClientCodec{}, p.Locker, p.Logger).
		Unique(func(existing, candidate entity.Client) bool {
			return strings.TrimSpace(candidate.Email) != "" && entity.SameEmail(existing.Email, candidate.Email)
		})
	return &Clients{t}
}

// GetByEmail finds a client by email, ignoring case.
func (s *Clients) GetByEmail(ctx context.Context, email string) (entity.Client, error) {
	return s.Find(ctx, func(c entity.Client) bool {
		return entity.SameEmail(c.Email, email)
	})
}

// Suppliers stores vendors.
type Suppliers struct {
	*Table[entity.Supplier]
}

// NewSuppliers wires the proveedores store.
func NewSuppliers(p Params) *Suppliers {
	return &Suppliers{NewTable[entity.Supplier](p.Backend, rowcodec.SupplierCodec{}, p.Locker, p.Logger)}
}

// Purchases stores goods received from suppliers.
type Purchases struct {
	*Table[entity.Purchase]
}

// NewPurchases wires the compras store.
func NewPurchases(p Params) *Purchases {
	return &Purchases{NewTable[entity.Purchase](p.Backend, rowcodec.PurchaseCodec{}, p.Locker, p.Logger)}
}

// Sales stores customer orders.
type Sales struct {
	*Table[entity.Sale]
}

// NewSales wires the ventas store.
func NewSales(p Params) *Sales {
	return &Sales{NewTable[entity.Sale](p.Backend, rowcodec.SaleCodec{}, p.Locker, p.Logger)}
}

// ForClient lists the sales whose client name matches name.
func (s *Sales) ForClient(ctx context.Context, name string) ([]entity.Sale, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Sale, 0)
	for _, sale := range all {
		if entity.SameName(sale.Client, name) {
			out = append(out, sale)
		}
	}
	return out, nil
}
