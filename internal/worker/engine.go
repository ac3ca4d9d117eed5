package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elifred2022/bokadillo/internal/config"
	"github.com/elifred2022/bokadillo/internal/messaging"
)

const maxRestartDelay = 30 * time.Second

var (
	engineTracer = otel.Tracer("github.com/elifred2022/bokadillo/worker")
	engineMeter  = otel.Meter("github.com/elifred2022/bokadillo/worker")
)

// HandlerRegistration binds a topic to a handler. Several handlers may
// share a topic; they run in registration order.
type HandlerRegistration struct {
	Name    string
	Topic   string
	Handler messaging.Handler
}

// Params collects the engine's dependencies. Handlers are contributed to
// the "worker.handlers" group.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// Engine runs a pool of consumers that fan each message out to the
// handlers registered for its topic.
type Engine struct {
	client    messaging.Client
	logger    *zap.Logger
	enabled   bool
	workers   int
	restart   time.Duration
	handlers  map[string][]HandlerRegistration
	processed metric.Int64Counter
	cancel    context.CancelFunc
	done      chan error
}

// Module wires the engine into the Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fxHook(engine))
	}),
)

func fxHook(e *Engine) fx.Hook {
	return fx.Hook{OnStart: e.start, OnStop: e.stop}
}

func NewEngine(p Params) *Engine {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	handlers := make(map[string][]HandlerRegistration)
	for _, r := range p.Registrations {
		if r.Topic == "" || r.Handler == nil {
			continue
		}
		handlers[r.Topic] = append(handlers[r.Topic], r)
	}

	processed, err := engineMeter.Int64Counter("bokadillo.worker.messages",
		metric.WithDescription("Messages dispatched to worker handlers"),
	)
	if err != nil {
		logger.Warn("worker message counter unavailable", zap.Error(err))
	}

	workers := p.Config.Messaging.Workers.Concurrency
	if workers <= 0 {
		workers = 1
	}
	restart := p.Config.Messaging.Workers.PollInterval
	if restart <= 0 {
		restart = time.Second
	}

	return &Engine{
		client:    p.Client,
		logger:    logger,
		enabled:   p.Config.Messaging.Enabled && p.Config.Messaging.Workers.Enabled,
		workers:   workers,
		restart:   restart,
		handlers:  handlers,
		processed: processed,
	}
}

// Run consumes with the configured number of workers until ctx ends.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for id := 0; id < e.workers; id++ {
		g.Go(func() error {
			e.consume(ctx, id)
			return nil
		})
	}
	e.logger.Info("worker engine running", zap.Int("workers", e.workers), zap.Int("topics", len(e.handlers)))
	return g.Wait()
}

func (e *Engine) start(context.Context) error {
	switch {
	case !e.enabled:
		e.logger.Info("worker engine disabled")
		return nil
	case len(e.handlers) == 0:
		e.logger.Info("worker engine has no handlers")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan error, 1)
	go func() { e.done <- e.Run(ctx) }()
	return nil
}

func (e *Engine) stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()
	select {
	case err := <-e.done:
		e.logger.Info("worker engine stopped")
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// consume keeps one consumer alive, restarting it with a growing delay
// when the client fails.
func (e *Engine) consume(ctx context.Context, id int) {
	delay := e.restart
	for ctx.Err() == nil {
		err := e.client.Consume(ctx, e.dispatch)
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		e.logger.Error("consumer failed, restarting", zap.Int("worker", id), zap.Duration("delay", delay), zap.Error(err))

		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return
		}
		delay = min(delay*2, maxRestartDelay)
	}
}

// dispatch runs the topic's handlers in order. The first failure stops the
// chain and is returned so the client can redeliver.
func (e *Engine) dispatch(ctx context.Context, msg messaging.Message) error {
	handlers, ok := e.handlers[msg.Topic]
	if !ok {
		e.logger.Warn("no handler for topic", zap.String("topic", msg.Topic))
		return nil
	}

	ctx, span := engineTracer.Start(ctx, "worker.dispatch",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int64("messaging.offset", msg.Offset),
		),
	)
	defer span.End()

	for _, r := range handlers {
		err := r.Handler(ctx, msg)
		e.count(ctx, r.Name, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, r.Name)
			return fmt.Errorf("handler %s: %w", r.Name, err)
		}
	}
	return nil
}

func (e *Engine) count(ctx context.Context, handler string, err error) {
	if e.processed == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	e.processed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("handler", handler),
		attribute.String("outcome", outcome),
	))
}
