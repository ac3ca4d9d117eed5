package supplier

import (
	"context"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/cache"
	"github.com/elifred2022/bokadillo/internal/config"
	"github.com/elifred2022/bokadillo/internal/entity"
	"github.com/elifred2022/bokadillo/internal/repository"
	"github.com/elifred2022/bokadillo/internal/search"
	"github.com/elifred2022/bokadillo/internal/service"
	"github.com/elifred2022/bokadillo/pkg/errorbank"
)

// Module provides the supplier service to Fx.
var Module = fx.Provide(NewService)

// Service manages suppliers.
type Service struct {
	*service.Records[entity.Supplier]
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Suppliers *repository.Suppliers
	Cache     cache.Store
	Config    config.Config
	Logger    *zap.Logger
	Publisher *service.Publisher
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		Records: service.NewRecords[entity.Supplier](p.Suppliers, service.RecordsConfig[entity.Supplier]{
			Name:    "SupplierService",
			What:    "supplier",
			ID:      func(s entity.Supplier) string { return s.ID },
			Cache:   p.Cache,
			ListTTL: p.Config.Cache.ListTTL,
			Events:  p.Publisher,
			Logger:  p.Logger,
		}),
	}
}

// List returns the suppliers matching q.
func (s *Service) List(ctx context.Context, q string) ([]entity.Supplier, error) {
	items, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return search.Suppliers(items, q), nil
}

// Create validates and stores a new supplier.
func (s *Service) Create(ctx context.Context, in entity.Supplier) (entity.Supplier, error) {
	if err := validate(&in); err != nil {
		return entity.Supplier{}, err
	}
	return s.Records.Create(ctx, in)
}

// Update validates and replaces a supplier.
func (s *Service) Update(ctx context.Context, id string, in entity.Supplier) (entity.Supplier, error) {
	if err := validate(&in); err != nil {
		return entity.Supplier{}, err
	}
	return s.Records.Update(ctx, id, in)
}

func validate(in *entity.Supplier) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return errorbank.BadRequest("name is required")
	}
	return nil
}
