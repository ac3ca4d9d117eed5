package seeder

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/entity"
	"github.com/elifred2022/bokadillo/internal/repository"
)

// Module provides the Seeder to Fx.
var Module = fx.Provide(New)

// Seeder fills an empty store with sample data for local/dev setups.
type Seeder struct {
	articles  *repository.Articles
	suppliers *repository.Suppliers
	logger    *zap.Logger
}

// New constructs a Seeder writing through the repositories.
func New(articles *repository.Articles, suppliers *repository.Suppliers, logger *zap.Logger) *Seeder {
	return &Seeder{articles: articles, suppliers: suppliers, logger: logger}
}

func text(s string) *string { return &s }

// Articles seeds sample articles unless the catalog already has some.
func (s *Seeder) Articles(ctx context.Context) (int, error) {
	samples := []entity.Article{
		{Barcode: "7790001000011", Name: "Tequeños x 12", Price: decimal.NewFromInt(1500), Stock: 40, Category: text("congelados")},
		{Barcode: "7790001000028", Name: "Salsa de ajo", Price: decimal.RequireFromString("300.50"), Stock: 25, Category: text("salsas")},
		{Barcode: "7790001000035", Name: "Empanada de carne", Description: text("horneada"), Price: decimal.NewFromInt(450), Stock: 60},
	}
	return seed(ctx, s.articles.Table, samples, s.logger)
}

// Suppliers seeds sample suppliers unless some already exist.
func (s *Seeder) Suppliers(ctx context.Context) (int, error) {
	samples := []entity.Supplier{
		{Name: "Molino del Sur", Phone: text("011 4000-1000"), Contact: text("Marta")},
		{Name: "Lácteos La Vaca", Email: text("ventas@lavaca.example")},
	}
	return seed(ctx, s.suppliers.Table, samples, s.logger)
}

func seed[T any](ctx context.Context, table *repository.Table[T], samples []T, logger *zap.Logger) (int, error) {
	existing, err := table.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", table.Collection(), err)
	}
	if len(existing) > 0 {
		logger.Info("collection already has data; skipping", zap.String("collection", table.Collection()))
		return 0, nil
	}
	for _, sample := range samples {
		if _, err := table.Create(ctx, sample); err != nil {
			return 0, fmt.Errorf("seed %s: %w", table.Collection(), err)
		}
	}
	logger.Info("seeded collection", zap.String("collection", table.Collection()), zap.Int("count", len(samples)))
	return len(samples), nil
}
