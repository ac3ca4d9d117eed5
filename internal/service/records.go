package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/cache"
	"github.com/elifred2022/bokadillo/internal/idalloc"
	"github.com/elifred2022/bokadillo/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/elifred2022/bokadillo/service")

// Store is the repository surface Records builds on.
type Store[T any] interface {
	Collection() string
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, id string, item T) (T, error)
	Delete(ctx context.Context, id string) error
}

// Records adds caching, error translation, tracing and events on top of a
// Store. Entity services embed it and add validation.
type Records[T any] struct {
	store    Store[T]
	list     *ListCache[T]
	events   *Publisher
	name     string
	what     string
	idOf     func(T) string
	annotate func(T, *Event)
}

// RecordsConfig names the record kind and how to read its id.
type RecordsConfig[T any] struct {
	// Name prefixes span names, e.g. "ArticleService".
	Name string
	// What names the record in error messages, e.g. "article".
	What    string
	ID      func(T) string
	Cache   cache.Store
	ListTTL time.Duration
	Events  *Publisher
	Logger  *zap.Logger
}

// NewRecords wires Records for store.
func NewRecords[T any](store Store[T], cfg RecordsConfig[T]) *Records[T] {
	return &Records[T]{
		store:  store,
		list:   NewListCache[T](cfg.Cache, store.Collection(), cfg.ListTTL, cfg.Logger),
		events: cfg.Events,
		name:   cfg.Name,
		what:   cfg.What,
		idOf:   cfg.ID,
	}
}

// Annotate lets a service enrich the events of its writes.
func (r *Records[T]) Annotate(fn func(T, *Event)) {
	r.annotate = fn
}

func (r *Records[T]) span(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return serviceTracer.Start(ctx, r.name+"."+op, trace.WithAttributes(attrs...))
}

func (r *Records[T]) fail(span trace.Span, err error) error {
	err = Translate(err, r.what)
	if errorbank.Is(err, errorbank.KindInternal) || errorbank.Is(err, errorbank.KindUnavailable) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
	}
	return err
}

// CheckID rejects identifiers that cannot exist in the store.
func (r *Records[T]) CheckID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if !idalloc.IsNumeric(id) {
		return "", errorbank.BadRequest("invalid "+r.what+" id", errorbank.WithDetail("id", id))
	}
	return id, nil
}

// All returns the whole collection, from cache when fresh.
func (r *Records[T]) All(ctx context.Context) ([]T, error) {
	ctx, span := r.span(ctx, "List")
	defer span.End()

	items, err := r.list.Load(ctx, r.store.List)
	if err != nil {
		return nil, r.fail(span, err)
	}
	return items, nil
}

// Get returns one record.
func (r *Records[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	id, err := r.CheckID(id)
	if err != nil {
		return zero, err
	}
	ctx, span := r.span(ctx, "Get", attribute.String("id", id))
	defer span.End()

	item, err := r.store.Get(ctx, id)
	if err != nil {
		return zero, r.fail(span, err)
	}
	return item, nil
}

// Create stores a new record and returns it with its allocated id.
func (r *Records[T]) Create(ctx context.Context, item T) (T, error) {
	ctx, span := r.span(ctx, "Create")
	defer span.End()

	created, err := r.store.Create(ctx, item)
	if err != nil {
		var zero T
		return zero, r.fail(span, err)
	}
	span.SetAttributes(attribute.String("id", r.idOf(created)))
	r.written(ctx, EventCreated, created)
	return created, nil
}

// Update replaces the record with id.
func (r *Records[T]) Update(ctx context.Context, id string, item T) (T, error) {
	var zero T
	id, err := r.CheckID(id)
	if err != nil {
		return zero, err
	}
	ctx, span := r.span(ctx, "Update", attribute.String("id", id))
	defer span.End()

	updated, err := r.store.Update(ctx, id, item)
	if err != nil {
		return zero, r.fail(span, err)
	}
	r.written(ctx, EventUpdated, updated)
	return updated, nil
}

// Delete removes the record with id.
func (r *Records[T]) Delete(ctx context.Context, id string) error {
	id, err := r.CheckID(id)
	if err != nil {
		return err
	}
	ctx, span := r.span(ctx, "Delete", attribute.String("id", id))
	defer span.End()

	if err := r.store.Delete(ctx, id); err != nil {
		return r.fail(span, err)
	}
	r.list.Invalidate(ctx)
	r.events.Publish(ctx, Event{Type: EventDeleted, Collection: r.store.Collection(), ID: id})
	return nil
}

// Publish emits an event of type typ for item, annotated like write events.
func (r *Records[T]) Publish(ctx context.Context, typ string, item T) {
	ev := Event{Type: typ, Collection: r.store.Collection(), ID: r.idOf(item)}
	if r.annotate != nil {
		r.annotate(item, &ev)
	}
	r.events.Publish(ctx, ev)
}

func (r *Records[T]) written(ctx context.Context, typ string, item T) {
	r.list.Invalidate(ctx)
	r.Publish(ctx, typ, item)
}
