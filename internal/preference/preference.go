// Package preference keeps per-user view settings out of the spreadsheet.
package preference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/config"
)

// SalesList holds the filters the sales list opens with.
type SalesList struct {
	HideNew       bool `json:"hideNew"`
	HideDelivered bool `json:"hideDelivered"`
}

// Store reads and writes preferences by owner. A missing entry reads as
// the zero value.
type Store interface {
	SalesList(ctx context.Context, owner string) (SalesList, error)
	SetSalesList(ctx context.Context, owner string, prefs SalesList) error
}

// ErrOwnerRequired is returned for blank owners.
var ErrOwnerRequired = errors.New("preference owner is required")

// Module provides the preference store to Fx.
var Module = fx.Provide(New)

// New keeps preferences in redis when the cache uses it, in memory
// otherwise.
func New(cfg config.Config, client *goredis.Client, logger *zap.Logger) Store {
	if cfg.Cache.Driver == "redis" && client != nil {
		return NewRedis(client)
	}
	logger.Info("preferences kept in memory")
	return NewMemory()
}

func ownerKey(owner string) (string, error) {
	owner = strings.ToLower(strings.TrimSpace(owner))
	if owner == "" {
		return "", ErrOwnerRequired
	}
	return owner, nil
}

// Memory is a process-local Store.
type Memory struct {
	mu    sync.RWMutex
	sales map[string]SalesList
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{sales: make(map[string]SalesList)}
}

func (m *Memory) SalesList(_ context.Context, owner string) (SalesList, error) {
	key, err := ownerKey(owner)
	if err != nil {
		return SalesList{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sales[key], nil
}

func (m *Memory) SetSalesList(_ context.Context, owner string, prefs SalesList) error {
	key, err := ownerKey(owner)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales[key] = prefs
	return nil
}

// Redis stores each owner's preferences in one hash without expiry.
type Redis struct {
	client *goredis.Client
}

const salesListField = "sales-list"

// NewRedis builds the store on an existing client.
func NewRedis(client *goredis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) key(owner string) (string, error) {
	k, err := ownerKey(owner)
	if err != nil {
		return "", err
	}
	return "bokadillo:prefs:" + k, nil
}

func (r *Redis) SalesList(ctx context.Context, owner string) (SalesList, error) {
	key, err := r.key(owner)
	if err != nil {
		return SalesList{}, err
	}
	raw, err := r.client.HGet(ctx, key, salesListField).Bytes()
	if errors.Is(err, goredis.Nil) {
		return SalesList{}, nil
	}
	if err != nil {
		return SalesList{}, fmt.Errorf("read preferences: %w", err)
	}
	var prefs SalesList
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return SalesList{}, nil
	}
	return prefs, nil
}

func (r *Redis) SetSalesList(ctx context.Context, owner string, prefs SalesList) error {
	key, err := r.key(owner)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	if err := r.client.HSet(ctx, key, salesListField, raw).Err(); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}
