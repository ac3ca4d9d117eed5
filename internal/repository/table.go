// Package repository stores typed entities as rows of a backend collection.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/backend"
	"github.com/elifred2022/bokadillo/internal/idalloc"
	"github.com/elifred2022/bokadillo/internal/lock"
	"github.com/elifred2022/bokadillo/internal/rowcodec"
)

var (
	repoTracer = otel.Tracer("github.com/elifred2022/bokadillo/repository")
	repoMeter  = otel.Meter("github.com/elifred2022/bokadillo/repository")
)

var (
	// ErrNotFound is returned when no row carries the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when a write would break a uniqueness rule.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Table is the CRUD surface shared by every collection.
type Table[T any] struct {
	backend   backend.Backend
	codec     rowcodec.Codec[T]
	locker    lock.Locker
	logger    *zap.Logger
	malformed metric.Int64Counter
	conflicts func(existing, candidate T) bool
}

// NewTable binds codec to its collection on b. Writes are serialized
// through locker.
func NewTable[T any](b backend.Backend, codec rowcodec.Codec[T], locker lock.Locker, logger *zap.Logger) *Table[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	counter, err := repoMeter.Int64Counter("bokadillo.rows.malformed",
		metric.WithDescription("Rows skipped because their identifier is unusable"))
	if err != nil {
		logger.Warn("malformed row counter unavailable", zap.Error(err))
	}
	return &Table[T]{
		backend:   b,
		codec:     codec,
		locker:    locker,
		logger:    logger.With(zap.String("collection", codec.Collection())),
		malformed: counter,
	}
}

// Unique rejects creates and updates for which fn reports a clash with
// another stored record.
func (t *Table[T]) Unique(fn func(existing, candidate T) bool) *Table[T] {
	t.conflicts = fn
	return t
}

// Collection returns the backend collection name.
func (t *Table[T]) Collection() string {
	return t.codec.Collection()
}

// snapshot is one full read of the collection.
type snapshot struct {
	rows      [][]string
	header    rowcodec.Header
	hasHeader bool
	// first is the index of the first data row.
	first int
}

func (t *Table[T]) read(ctx context.Context) (snapshot, error) {
	rows, err := t.backend.ReadAllRows(ctx, t.codec.Collection())
	if errors.Is(err, backend.ErrNotFound) {
		rows, err = nil, nil
	}
	if err != nil {
		return snapshot{}, fmt.Errorf("read %s: %w", t.codec.Collection(), err)
	}
	if len(rows) > 0 {
		if h := rowcodec.NewHeader(rows[0]); h.Has(t.codec.IDColumn()) {
			return snapshot{rows: rows, header: h, hasHeader: true, first: 1}, nil
		}
	}
	return snapshot{rows: rows, header: rowcodec.NewHeader(t.codec.Columns())}, nil
}

// decoded pairs a record with its row position.
type decoded[T any] struct {
	index int
	item  T
}

func (t *Table[T]) decodeAll(ctx context.Context, snap snapshot) []decoded[T] {
	out := make([]decoded[T], 0, len(snap.rows)-snap.first)
	for i := snap.first; i < len(snap.rows); i++ {
		row := snap.rows[i]
		if isBlank(row) {
			continue
		}
		item, err := t.codec.Decode(row, snap.header)
		if err != nil {
			t.logger.Warn("skipping malformed row", zap.Int("row", i), zap.Error(err))
			if t.malformed != nil {
				t.malformed.Add(ctx, 1, metric.WithAttributes(attribute.String("collection", t.codec.Collection())))
			}
			continue
		}
		out = append(out, decoded[T]{index: i, item: item})
	}
	return out
}

func (t *Table[T]) locate(records []decoded[T], id string) (decoded[T], bool) {
	id = strings.TrimSpace(id)
	for _, r := range records {
		if t.codec.ID(r.item) == id {
			return r, true
		}
	}
	return decoded[T]{}, false
}

func (t *Table[T]) span(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("collection", t.codec.Collection()))
	return repoTracer.Start(ctx, "Table."+op, trace.WithAttributes(attrs...))
}

func fail(span trace.Span, err error, msg string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
}

// List returns every well-formed record in row order.
func (t *Table[T]) List(ctx context.Context) ([]T, error) {
	ctx, span := t.span(ctx, "List")
	defer span.End()

	snap, err := t.read(ctx)
	if err != nil {
		fail(span, err, "read failed")
		return nil, err
	}
	records := t.decodeAll(ctx, snap)
	items := make([]T, 0, len(records))
	for _, r := range records {
		items = append(items, r.item)
	}
	span.SetAttributes(attribute.Int("rows", len(items)))
	return items, nil
}

// Get returns the record with id.
func (t *Table[T]) Get(ctx context.Context, id string) (T, error) {
	ctx, span := t.span(ctx, "Get", attribute.String("id", id))
	defer span.End()

	var zero T
	snap, err := t.read(ctx)
	if err != nil {
		fail(span, err, "read failed")
		return zero, err
	}
	r, ok := t.locate(t.decodeAll(ctx, snap), id)
	if !ok {
		span.SetStatus(codes.Error, "not found")
		return zero, fmt.Errorf("%s %s: %w", t.codec.Collection(), id, ErrNotFound)
	}
	return r.item, nil
}

// Find returns the first record matching pred.
func (t *Table[T]) Find(ctx context.Context, pred func(T) bool) (T, error) {
	var zero T
	items, err := t.List(ctx)
	if err != nil {
		return zero, err
	}
	for _, item := range items {
		if pred(item) {
			return item, nil
		}
	}
	return zero, fmt.Errorf("%s: %w", t.codec.Collection(), ErrNotFound)
}

// Create allocates the next id and appends item. Uniqueness is checked
// before an id is allocated. The returned record carries the new id.
func (t *Table[T]) Create(ctx context.Context, item T) (T, error) {
	ctx, span := t.span(ctx, "Create")
	defer span.End()

	var zero T
	release, err := t.locker.Acquire(ctx, t.codec.Collection())
	if err != nil {
		fail(span, err, "lock failed")
		return zero, fmt.Errorf("lock %s: %w", t.codec.Collection(), err)
	}
	defer release()

	snap, err := t.read(ctx)
	if err != nil {
		fail(span, err, "read failed")
		return zero, err
	}

	if t.conflicts != nil {
		for _, r := range t.decodeAll(ctx, snap) {
			if t.conflicts(r.item, item) {
				span.SetStatus(codes.Error, "duplicate key")
				return zero, fmt.Errorf("%s: %w", t.codec.Collection(), ErrDuplicateKey)
			}
		}
	}

	ids := make([]string, 0, len(snap.rows))
	for i := snap.first; i < len(snap.rows); i++ {
		ids = append(ids, snap.header.Cell(snap.rows[i], t.codec.IDColumn()))
	}
	id := idalloc.NextID(ids)
	item = t.codec.WithID(item, id)
	span.SetAttributes(attribute.String("id", id))

	if !snap.hasHeader && len(snap.rows) == 0 {
		if err := t.backend.AppendRow(ctx, t.codec.Collection(), t.codec.Columns()); err != nil {
			fail(span, err, "write header failed")
			return zero, fmt.Errorf("write %s header: %w", t.codec.Collection(), err)
		}
	}

	row := rowcodec.Arrange(snap.header, t.codec.Columns(), t.codec.Encode(item))
	if err := t.backend.AppendRow(ctx, t.codec.Collection(), row); err != nil {
		fail(span, err, "append failed")
		return zero, fmt.Errorf("append %s: %w", t.codec.Collection(), err)
	}
	return item, nil
}

// Update replaces the row of id with item. Cells in columns the codec does
// not know are kept.
func (t *Table[T]) Update(ctx context.Context, id string, item T) (T, error) {
	ctx, span := t.span(ctx, "Update", attribute.String("id", id))
	defer span.End()

	var zero T
	release, err := t.locker.Acquire(ctx, t.codec.Collection())
	if err != nil {
		fail(span, err, "lock failed")
		return zero, fmt.Errorf("lock %s: %w", t.codec.Collection(), err)
	}
	defer release()

	snap, err := t.read(ctx)
	if err != nil {
		fail(span, err, "read failed")
		return zero, err
	}
	records := t.decodeAll(ctx, snap)
	target, ok := t.locate(records, id)
	if !ok {
		span.SetStatus(codes.Error, "not found")
		return zero, fmt.Errorf("%s %s: %w", t.codec.Collection(), id, ErrNotFound)
	}

	item = t.codec.WithID(item, t.codec.ID(target.item))
	if t.conflicts != nil {
		for _, r := range records {
			if r.index != target.index && t.conflicts(r.item, item) {
				span.SetStatus(codes.Error, "duplicate key")
				return zero, fmt.Errorf("%s: %w", t.codec.Collection(), ErrDuplicateKey)
			}
		}
	}

	row := rowcodec.Overlay(snap.rows[target.index], snap.header, t.codec.Columns(), t.codec.Encode(item))
	if err := t.backend.ReplaceRow(ctx, t.codec.Collection(), target.index, row); err != nil {
		fail(span, err, "replace failed")
		return zero, fmt.Errorf("replace %s %s: %w", t.codec.Collection(), id, err)
	}
	return item, nil
}

// Delete removes the row of id.
func (t *Table[T]) Delete(ctx context.Context, id string) error {
	ctx, span := t.span(ctx, "Delete", attribute.String("id", id))
	defer span.End()

	release, err := t.locker.Acquire(ctx, t.codec.Collection())
	if err != nil {
		fail(span, err, "lock failed")
		return fmt.Errorf("lock %s: %w", t.codec.Collection(), err)
	}
	defer release()

	snap, err := t.read(ctx)
	if err != nil {
		fail(span, err, "read failed")
		return err
	}
	target, ok := t.locate(t.decodeAll(ctx, snap), id)
	if !ok {
		span.SetStatus(codes.Error, "not found")
		return fmt.Errorf("%s %s: %w", t.codec.Collection(), id, ErrNotFound)
	}
	if err := t.backend.DeleteRow(ctx, t.codec.Collection(), target.index); err != nil {
		fail(span, err, "delete failed")
		return fmt.Errorf("delete %s %s: %w", t.codec.Collection(), id, err)
	}
	return nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
