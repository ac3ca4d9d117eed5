package article

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

// Module provides the article service to Fx.
var Module = fx.Provide(NewService)

// Service manages the catalog.
type Service struct {
	*service.Records[entity.Article]
	articles *repository.Articles
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Articles  *repository.Articles
	Cache     cache.Store
	Config    config.Config
	Logger    *zap.Logger
	Publisher *service.Publisher
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		Records: service.NewRecords[entity.Article](p.Articles, service.RecordsConfig[entity.Article]{
			Name:    "ArticleService",
			What:    "article",
			ID:      func(a entity.Article) string { return a.ID },
			Cache:   p.Cache,
			ListTTL: p.Config.Cache.ListTTL,
			Events:  p.Publisher,
			Logger:  p.Logger,
		}),
		articles: p.Articles,
	}
}

// List returns the articles matching q.
func (s *Service) List(ctx context.Context, q string) ([]entity.Article, error) {
	items, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return search.Articles(items, q), nil
}

// GetByBarcode finds an article by barcode.
func (s *Service) GetByBarcode(ctx context.Context, barcode string) (entity.Article, error) {
	if strings.TrimSpace(barcode) == "" {
		return entity.Article{}, errorbank.BadRequest("barcode is required")
	}
	a, err := s.articles.GetByBarcode(ctx, barcode)
	if err != nil {
		return entity.Article{}, service.Translate(err, "article")
	}
	return a, nil
}

// Create validates and stores a new article.
func (s *Service) Create(ctx context.Context, a entity.Article) (entity.Article, error) {
	if err := validate(&a); err != nil {
		return entity.Article{}, err
	}
	return s.Records.Create(ctx, a)
}

// Update validates and replaces an article.
func (s *Service) Update(ctx context.Context, id string, a entity.Article) (entity.Article, error) {
	if err := validate(&a); err != nil {
		return entity.Article{}, err
	}
	return s.Records.Update(ctx, id, a)
}

func validate(a *entity.Article) error {
	a.Name = strings.TrimSpace(a.Name)
	a.Barcode = strings.TrimSpace(a.Barcode)
	if a.Name == "" {
		return errorbank.BadRequest("name is required")
	}
	if a.Price.IsNegative() {
		return errorbank.BadRequest("price must not be negative")
	}
	return nil
}
