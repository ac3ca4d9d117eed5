package preference

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/config"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	prefs, err := store.SalesList(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, SalesList{}, prefs)

	require.NoError(t, store.SetSalesList(ctx, " Ana@Example.com ", SalesList{HideDelivered: true}))
	prefs, err = store.SalesList(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.True(t, prefs.HideDelivered)
	assert.False(t, prefs.HideNew)

	assert.ErrorIs(t, store.SetSalesList(ctx, " ", SalesList{}), ErrOwnerRequired)
	_, err = store.SalesList(ctx, "")
	assert.ErrorIs(t, err, ErrOwnerRequired)
}

func TestNewFallsBackToMemory(t *testing.T) {
	store := New(config.Config{Cache: config.Cache{Driver: "redis"}}, nil, zap.NewNop())
	assert.IsType(t, &Memory{}, store)
}
