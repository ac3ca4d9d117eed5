package events

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/cache"
	"github.com/elifred2022/bokadillo/internal/config"
	"github.com/elifred2022/bokadillo/internal/messaging"
	"github.com/elifred2022/bokadillo/internal/rowcodec"
	"github.com/elifred2022/bokadillo/internal/service"
	"github.com/elifred2022/bokadillo/internal/worker"
)

var (
	workerTracer = otel.Tracer("github.com/elifred2022/bokadillo/worker/events")
	workerMeter  = otel.Meter("github.com/elifred2022/bokadillo/worker/events")
)

// Module registers the domain event handlers.
var Module = fx.Module("worker_events",
	fx.Provide(
		fx.Annotate(
			NewCacheInvalidation,
			fx.ResultTags(`group:"worker.handlers"`),
		),
		fx.Annotate(
			NewManufacturingOrders,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

func decode(ctx context.Context, logger *zap.Logger, msg messaging.Message) (context.Context, trace.Span, service.Event, error) {
	ctx, span := workerTracer.Start(ctx, "worker.events.process", trace.WithAttributes(
		attribute.String("messaging.topic", msg.Topic),
	))
	var ev service.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		logger.Error("failed to decode event", zap.Error(err))

		span.RecordError(err)
		span.SetStatus(codes.Error, "decode error")
		return ctx, span, ev, err
	}
	span.SetAttributes(
		attribute.String("event.type", ev.Type),
		attribute.String("event.collection", ev.Collection),
	)
	return ctx, span, ev, nil
}

// NewCacheInvalidation drops cached listings when another process writes
// to a collection.
func NewCacheInvalidation(store cache.Store, logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span, ev, err := decode(ctx, logger, msg)
		defer span.End()
		if err != nil {
			return err
		}
		if ev.Collection == "" {
			return nil
		}
		if err := store.Delete(ctx, service.ListKey(ev.Collection)); err != nil {
			logger.Warn("list cache invalidate failed", zap.String("collection", ev.Collection), zap.Error(err))
			span.RecordError(err)
			return err
		}
		return nil
	}

	return worker.HandlerRegistration{
		Name:    "cache_invalidation",
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}

// NewManufacturingOrders reports orders that need production.
func NewManufacturingOrders(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	counter, err := workerMeter.Int64Counter("bokadillo.orders.manufacturing",
		metric.WithDescription("Customer orders that require manufacturing"))
	if err != nil {
		logger.Warn("manufacturing counter unavailable", zap.Error(err))
	}

	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span, ev, err := decode(ctx, logger, msg)
		defer span.End()
		if err != nil {
			return err
		}
		if ev.Collection != rowcodec.Sales || ev.Type != service.EventOrderPlaced || !ev.Manufacturing {
			return nil
		}
		logger.Info("manufacturing order received",
			zap.String("sale_id", ev.ID),
			zap.String("client", ev.Client),
			zap.String("total", ev.Total),
		)
		if counter != nil {
			counter.Add(ctx, 1)
		}
		return nil
	}

	return worker.HandlerRegistration{
		Name:    "manufacturing_orders",
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
