package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Backend for local runs and tests. It keeps the
// same row semantics as a sheet, including positional deletes.
type Memory struct {
	mu      sync.Mutex
	sheets  map[string][][]string
	latency time.Duration
}

// MemoryOption configures a Memory backend.
type MemoryOption func(*Memory)

// WithLatency delays every call, widening race windows in tests the way a
// remote round-trip would.
func WithLatency(d time.Duration) MemoryOption {
	return func(m *Memory) { m.latency = d }
}

// NewMemory returns an empty in-memory backend.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{sheets: make(map[string][][]string)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Seed replaces a collection's rows wholesale.
func (m *Memory) Seed(collection string, rows ...[]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]string, 0, len(rows))
	for _, r := range rows {
		copied = append(copied, cloneRow(r))
	}
	m.sheets[collection] = copied
}

func (m *Memory) wait(ctx context.Context) error {
	if m.latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(m.latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Memory) ReadAllRows(ctx context.Context, collection string) ([][]string, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.sheets[collection]
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, cloneRow(r))
	}
	return out, nil
}

func (m *Memory) AppendRow(ctx context.Context, collection string, row []string) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheets[collection] = append(m.sheets[collection], cloneRow(row))
	return nil
}

func (m *Memory) ReplaceRow(ctx context.Context, collection string, index int, row []string) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.sheets[collection]
	if index < 0 || index >= len(rows) {
		return fmt.Errorf("%w: %s row %d", ErrNotFound, collection, index)
	}
	rows[index] = cloneRow(row)
	return nil
}

func (m *Memory) DeleteRow(ctx context.Context, collection string, index int) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.sheets[collection]
	if index < 0 || index >= len(rows) {
		return fmt.Errorf("%w: %s row %d", ErrNotFound, collection, index)
	}
	m.sheets[collection] = append(rows[:index:index], rows[index+1:]...)
	return nil
}

func (m *Memory) Describe(ctx context.Context) (Description, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.sheets))
	for name := range m.sheets {
		names = append(names, name)
	}
	sort.Strings(names)
	return Description{Title: "memory", Collections: names}, nil
}
