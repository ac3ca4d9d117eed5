// Package lock serializes writers per collection so that id allocation
// and row-position lookups never interleave.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/config"
)

// ErrAcquireTimeout is returned when a lock could not be taken in time.
var ErrAcquireTimeout = errors.New("lock: acquire timeout")

// Locker hands out exclusive access per key. The returned release must be
// called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Module provides the configured Locker.
var Module = fx.Provide(New)

// New selects the lock driver named by LOCK_DRIVER.
func New(cfg config.Config, client *goredis.Client, logger *zap.Logger) (Locker, error) {
	switch cfg.Lock.Driver {
	case "local":
		return NewLocal(), nil
	case "redis":
		if client == nil {
			return nil, errors.New("redis lock requires a redis client")
		}
		return NewRedis(client, RedisOptions{
			TTL:            cfg.Lock.TTL,
			AcquireTimeout: cfg.Lock.AcquireTimeout,
			RetryInterval:  cfg.Lock.RetryInterval,
			Logger:         logger,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported lock driver: %s", cfg.Lock.Driver)
	}
}

// Local is an in-process keyed mutex. Waiting honors context cancellation.
type Local struct {
	mu   sync.Mutex
	keys map[string]chan struct{}
}

// NewLocal returns an empty keyed mutex.
func NewLocal() *Local {
	return &Local{keys: make(map[string]chan struct{})}
}

func (l *Local) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.keys[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.keys[key] = ch
	}
	return ch
}

func (l *Local) Acquire(ctx context.Context, key string) (func(), error) {
	ch := l.slot(key)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() { <-ch })
	}, nil
}

// RedisOptions tunes the redis lock.
type RedisOptions struct {
	// TTL bounds how long a crashed holder can block others.
	TTL            time.Duration
	AcquireTimeout time.Duration
	RetryInterval  time.Duration
	Prefix         string
	Logger         *zap.Logger
}

// Redis is a single-instance advisory lock shared by every process that
// talks to the same redis.
type Redis struct {
	client *goredis.Client
	opts   RedisOptions
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedis builds the lock on an existing client.
func NewRedis(client *goredis.Client, opts RedisOptions) *Redis {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Second
	}
	if opts.AcquireTimeout <= 0 {
		opts.AcquireTimeout = 10 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 50 * time.Millisecond
	}
	if opts.Prefix == "" {
		opts.Prefix = "bokadillo:lock:"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Redis{client: client, opts: opts}
}

func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	name := r.opts.Prefix + key
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, r.opts.AcquireTimeout)
	defer cancel()

	ticker := time.NewTicker(r.opts.RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, name, token, r.opts.TTL).Result()
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			return r.releaser(name, token), nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s", ErrAcquireTimeout, key)
			}
			return nil, ctx.Err()
		}
	}
}

func (r *Redis) releaser(name, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, r.client, []string{name}, token).Err(); err != nil {
				r.opts.Logger.Warn("lock release failed", zap.String("key", name), zap.Error(err))
			}
		})
	}
}
