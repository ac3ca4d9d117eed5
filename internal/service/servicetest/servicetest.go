// Package servicetest assembles services on the in-memory backend for tests.
package servicetest

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/backend"
	"github.com/elifred2022/bokadillo/internal/cache"
	"github.com/elifred2022/bokadillo/internal/config"
	"github.com/elifred2022/bokadillo/internal/lock"
	"github.com/elifred2022/bokadillo/internal/messaging"
	"github.com/elifred2022/bokadillo/internal/repository"
	"github.com/elifred2022/bokadillo/internal/service"
)

// Bus records published messages.
type Bus struct {
	mu     sync.Mutex
	events []service.Event
}

func (b *Bus) Publish(_ context.Context, _ []byte, value []byte) error {
	var ev service.Event
	if err := json.Unmarshal(value, &ev); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return nil
}

func (b *Bus) Consume(ctx context.Context, _ messaging.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (b *Bus) Topic() string { return "test.events" }

// Events returns a copy of what was published.
func (b *Bus) Events() []service.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]service.Event(nil), b.events...)
}

// Types lists the published event types in order.
func (b *Bus) Types() []string {
	out := make([]string, 0)
	for _, ev := range b.Events() {
		out = append(out, ev.Collection+"."+ev.Type)
	}
	return out
}

// Env bundles the stores and collaborators a service needs.
type Env struct {
	Backend   *backend.Memory
	Config    config.Config
	Logger    *zap.Logger
	Cache     cache.Store
	Bus       *Bus
	Publisher *service.Publisher
	Articles  *repository.Articles
	Clients   *repository.Clients
	Suppliers *repository.Suppliers
	Purchases *repository.Purchases
	Sales     *repository.Sales
}

// New builds an Env with messaging enabled and caching disabled.
func New() *Env {
	cfg := config.Config{
		Cache:     config.Cache{Driver: "noop", ListTTL: time.Minute},
		Messaging: config.Messaging{Enabled: true},
		Orders: config.Orders{
			TimeZone:      "America/Argentina/Buenos_Aires",
			MinQuantities: map[string]int64{"123": 15},
			AlwaysAllowed: []string{"126"},
		},
	}
	logger := zap.NewNop()
	mem := backend.NewMemory()
	params := repository.Params{Backend: mem, Locker: lock.NewLocal(), Logger: logger}
	bus := &Bus{}
	return &Env{
		Backend:   mem,
		Config:    cfg,
		Logger:    logger,
		Cache:     cache.Noop(),
		Bus:       bus,
		Publisher: service.NewPublisher(bus, cfg, logger),
		Articles:  repository.NewArticles(params),
		Clients:   repository.NewClients(params),
		Suppliers: repository.NewSuppliers(params),
		Purchases: repository.NewPurchases(params),
		Sales:     repository.NewSales(params),
	}
}
