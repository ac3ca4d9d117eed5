// Package service holds what the entity services share: error translation,
// list caching and domain event publication.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/backend"
	"github.com/elifred2022/bokadillo/internal/cache"
	"github.com/elifred2022/bokadillo/internal/lock"
	"github.com/elifred2022/bokadillo/internal/repository"
	"github.com/elifred2022/bokadillo/pkg/errorbank"
)

// Module provides the shared event publisher.
var Module = fx.Provide(NewPublisher)

// Translate maps store errors onto application errors. what names the
// record kind in messages, e.g. "article".
func Translate(err error, what string) error {
	if err == nil {
		return nil
	}
	var appErr *errorbank.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, backend.ErrNotFound):
		return errorbank.NotFound(what+" not found", errorbank.WithCause(err))
	case errors.Is(err, repository.ErrDuplicateKey):
		return errorbank.Conflict(what+" already exists", errorbank.WithCause(err))
	case errors.Is(err, backend.ErrUnavailable),
		errors.Is(err, backend.ErrPermission),
		errors.Is(err, lock.ErrAcquireTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return errorbank.Unavailable("spreadsheet backend unavailable", errorbank.WithCause(err))
	default:
		return errorbank.Internal("failed to access "+what, errorbank.WithCause(err))
	}
}

// ListCache memoizes a whole collection read.
type ListCache[T any] struct {
	store  cache.Store
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewListCache keys the cache by collection.
func NewListCache[T any](store cache.Store, collection string, ttl time.Duration, logger *zap.Logger) *ListCache[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListCache[T]{
		store:  store,
		key:    ListKey(collection),
		ttl:    ttl,
		logger: logger,
	}
}

// ListKey is the cache key of a collection listing.
func ListKey(collection string) string {
	return "bokadillo:list:" + collection
}

// Load returns the cached list or calls fetch and caches its result. Cache
// failures are logged and never fail the call.
func (c *ListCache[T]) Load(ctx context.Context, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if c == nil || c.store == nil || c.ttl <= 0 {
		return fetch(ctx)
	}
	var items []T
	err := cache.GetJSON(ctx, c.store, c.key, &items)
	if err == nil {
		return items, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Warn("list cache read failed", zap.String("key", c.key), zap.Error(err))
	}

	items, err = fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, c.store, c.key, items, c.ttl); err != nil {
		c.logger.Warn("list cache write failed", zap.String("key", c.key), zap.Error(err))
	}
	return items, nil
}

// Invalidate drops the cached list after a write.
func (c *ListCache[T]) Invalidate(ctx context.Context) {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.Delete(ctx, c.key); err != nil {
		c.logger.Warn("list cache invalidate failed", zap.String("key", c.key), zap.Error(err))
	}
}
