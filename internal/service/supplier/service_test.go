package supplier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elifred2022/bokadillo/internal/entity"
	"github.com/elifred2022/bokadillo/internal/service/servicetest"
	"github.com/elifred2022/bokadillo/pkg/errorbank"
)

func TestSupplierLifecycle(t *testing.T) {
	ctx := context.Background()
	env := servicetest.New()
	svc := NewService(Params{
		Suppliers: env.Suppliers,
		Cache:     env.Cache,
		Config:    env.Config,
		Logger:    env.Logger,
		Publisher: env.Publisher,
	})

	contact := "Marta"
	created, err := svc.Create(ctx, entity.Supplier{Name: "Molino Sur", Contact: &contact})
	require.NoError(t, err)
	assert.Equal(t, "1", created.ID)

	found, err := svc.List(ctx, "marta")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = svc.Create(ctx, entity.Supplier{Name: ""})
	assert.True(t, errorbank.Is(err, errorbank.KindBadRequest))

	_, err = svc.Update(ctx, "2", entity.Supplier{Name: "x"})
	assert.True(t, errorbank.Is(err, errorbank.KindNotFound))

	require.NoError(t, svc.Delete(ctx, "1"))
	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}
