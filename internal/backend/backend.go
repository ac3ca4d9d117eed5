// Package backend defines the tabular store the entity repositories write to
// and provides its drivers: Google Sheets, a SQL row table, and memory.
//
// Rows are addressed by collection and zero-based position; position 0 is
// the header row when a collection has one. Backends offer no uniqueness or
// transaction guarantees; callers serialize writes through package lock.
package backend

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable marks transient failures: timeouts, rate limits,
	// connectivity. Callers may retry with backoff.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrNotFound marks a missing collection or row position.
	ErrNotFound = errors.New("backend: not found")
	// ErrPermission marks credentials that cannot access the store.
	ErrPermission = errors.New("backend: permission denied")
)

// Backend is the row-level contract of the tabular store.
type Backend interface {
	ReadAllRows(ctx context.Context, collection string) ([][]string, error)
	AppendRow(ctx context.Context, collection string, row []string) error
	ReplaceRow(ctx context.Context, collection string, index int, row []string) error
	DeleteRow(ctx context.Context, collection string, index int) error
}

// Description summarizes the store for health checks.
type Description struct {
	Title       string   `json:"title"`
	Collections []string `json:"collections"`
}

// Describer is implemented by backends that can report what they hold.
type Describer interface {
	Describe(ctx context.Context) (Description, error)
}

func cloneRow(row []string) []string {
	return append([]string(nil), row...)
}
