package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/config"
	"github.com/elifred2022/bokadillo/internal/messaging"
)

// scriptedClient fails its first Consume calls, then delivers one message
// per call and blocks until cancelled.
type scriptedClient struct {
	failures atomic.Int32
	calls    atomic.Int32
}

func (c *scriptedClient) Publish(context.Context, []byte, []byte) error { return nil }
func (c *scriptedClient) Topic() string                                 { return "events" }

func (c *scriptedClient) Consume(ctx context.Context, handler messaging.Handler) error {
	if c.calls.Add(1) <= c.failures.Load() {
		return errors.New("broker down")
	}
	_ = handler(ctx, messaging.Message{Topic: "events"})
	<-ctx.Done()
	return ctx.Err()
}

func workerConfig(workers int) config.Config {
	return config.Config{Messaging: config.Messaging{
		Enabled: true,
		Workers: config.Worker{Enabled: true, Concurrency: workers, PollInterval: time.Millisecond},
	}}
}

func TestRunRestartsFailedConsumers(t *testing.T) {
	client := &scriptedClient{}
	client.failures.Store(2)

	var mu sync.Mutex
	seen := 0
	engine := NewEngine(Params{
		Client: client,
		Logger: zap.NewNop(),
		Config: workerConfig(1),
		Registrations: []HandlerRegistration{{Name: "count", Topic: "events", Handler: func(context.Context, messaging.Message) error {
			mu.Lock()
			defer mu.Unlock()
			seen++
			return nil
		}}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), client.calls.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop")
	}
}

func TestLifecycleStartsEveryWorker(t *testing.T) {
	client := &scriptedClient{}
	var seen atomic.Int32
	engine := NewEngine(Params{
		Client: client,
		Logger: zap.NewNop(),
		Config: workerConfig(3),
		Registrations: []HandlerRegistration{{Name: "count", Topic: "events", Handler: func(context.Context, messaging.Message) error {
			seen.Add(1)
			return nil
		}}},
	})

	lc := fxtest.NewLifecycle(t)
	lc.Append(fxHook(engine))
	lc.RequireStart()
	require.Eventually(t, func() bool { return seen.Load() == 3 }, time.Second, 5*time.Millisecond)
	lc.RequireStop()
}

func TestDisabledEngineDoesNotConsume(t *testing.T) {
	client := &scriptedClient{}
	cfg := workerConfig(2)
	cfg.Messaging.Workers.Enabled = false
	engine := NewEngine(Params{
		Client:        client,
		Logger:        zap.NewNop(),
		Config:        cfg,
		Registrations: []HandlerRegistration{{Name: "x", Topic: "events", Handler: func(context.Context, messaging.Message) error { return nil }}},
	})

	require.NoError(t, engine.start(context.Background()))
	require.NoError(t, engine.stop(context.Background()))
	assert.Zero(t, client.calls.Load())
}
