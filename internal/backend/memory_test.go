package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRowOperations(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Seed("articulos", []string{"codbarra", "idarticulo"}, []string{"779", "1"})

	require.NoError(t, m.AppendRow(ctx, "articulos", []string{"780", "2"}))
	require.NoError(t, m.ReplaceRow(ctx, "articulos", 1, []string{"779", "1", "x"}))

	rows, err := m.ReadAllRows(ctx, "articulos")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"codbarra", "idarticulo"}, {"779", "1", "x"}, {"780", "2"}}, rows)

	require.NoError(t, m.DeleteRow(ctx, "articulos", 1))
	rows, err = m.ReadAllRows(ctx, "articulos")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"codbarra", "idarticulo"}, {"780", "2"}}, rows)
}

func TestMemoryOutOfRange(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	assert.ErrorIs(t, m.ReplaceRow(ctx, "ventas", 0, []string{"x"}), ErrNotFound)
	assert.ErrorIs(t, m.DeleteRow(ctx, "ventas", 3), ErrNotFound)

	rows, err := m.ReadAllRows(ctx, "ventas")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Seed("clientes", []string{"idcliente"}, []string{"1"})

	rows, err := m.ReadAllRows(ctx, "clientes")
	require.NoError(t, err)
	rows[1][0] = "99"

	again, err := m.ReadAllRows(ctx, "clientes")
	require.NoError(t, err)
	assert.Equal(t, "1", again[1][0])
}

func TestMemoryLatencyHonorsContext(t *testing.T) {
	m := NewMemory(WithLatency(time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.ReadAllRows(ctx, "articulos")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryDescribe(t *testing.T) {
	m := NewMemory()
	m.Seed("ventas")
	m.Seed("articulos")

	d, err := m.Describe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "memory", d.Title)
	assert.Equal(t, []string{"articulos", "ventas"}, d.Collections)
}
