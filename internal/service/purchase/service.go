package purchase

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
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

// Module provides the purchase service to Fx.
var Module = fx.Provide(NewService)

// Service records goods bought from suppliers.
type Service struct {
	*service.Records[entity.Purchase]
	articles *repository.Articles
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Purchases *repository.Purchases
	Articles  *repository.Articles
	Cache     cache.Store
	Config    config.Config
	Logger    *zap.Logger
	Publisher *service.Publisher
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	records := service.NewRecords[entity.Purchase](p.Purchases, service.RecordsConfig[entity.Purchase]{
		Name:    "PurchaseService",
		What:    "purchase",
		ID:      func(pu entity.Purchase) string { return pu.ID },
		Cache:   p.Cache,
		ListTTL: p.Config.Cache.ListTTL,
		Events:  p.Publisher,
		Logger:  p.Logger,
	})
	records.Annotate(func(pu entity.Purchase, ev *service.Event) {
		ev.Total = pu.Total.String()
	})
	return &Service{Records: records, articles: p.Articles}
}

// Listing is a filtered set of purchases with its grand total.
type Listing struct {
	Items []entity.Purchase
	Total decimal.Decimal
}

// List returns the purchases matching q, newest first.
func (s *Service) List(ctx context.Context, q string) (Listing, error) {
	items, err := s.All(ctx)
	if err != nil {
		return Listing{}, err
	}
	filtered := search.Purchases(items, q)
	return Listing{Items: filtered, Total: search.PurchasesTotal(filtered)}, nil
}

// Create validates and stores a purchase.
func (s *Service) Create(ctx context.Context, in entity.Purchase) (entity.Purchase, error) {
	in, err := s.prepare(ctx, in)
	if err != nil {
		return entity.Purchase{}, err
	}
	return s.Records.Create(ctx, in)
}

// Update validates and replaces a purchase.
func (s *Service) Update(ctx context.Context, id string, in entity.Purchase) (entity.Purchase, error) {
	in, err := s.prepare(ctx, in)
	if err != nil {
		return entity.Purchase{}, err
	}
	return s.Records.Update(ctx, id, in)
}

func (s *Service) prepare(ctx context.Context, in entity.Purchase) (entity.Purchase, error) {
	in.Date = strings.TrimSpace(in.Date)
	in.Supplier = strings.TrimSpace(in.Supplier)
	if !service.ValidDate(in.Date) {
		return in, errorbank.BadRequest("date must be YYYY-MM-DD")
	}
	if in.Supplier == "" {
		return in, errorbank.BadRequest("supplier is required")
	}
	if len(in.Lines) == 0 && (in.Description == nil || strings.TrimSpace(*in.Description) == "") {
		return in, errorbank.BadRequest("at least one line is required")
	}
	lines, err := service.SnapshotNames(ctx, in.Lines, s.lookup)
	if err != nil {
		return in, err
	}
	in.Lines = lines
	if err := service.ValidateLines(in.Lines, in.Total); err != nil {
		return in, err
	}
	return in, nil
}

func (s *Service) lookup(ctx context.Context, id string) (entity.Article, error) {
	a, err := s.articles.Get(ctx, id)
	return a, service.Translate(err, "article")
}
