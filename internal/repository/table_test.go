package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/backend"
	"github.com/elifred2022/bokadillo/internal/entity"
	"github.com/elifred2022/bokadillo/internal/lock"
)

func newParams(b backend.Backend) Params {
	return Params{Backend: b, Locker: lock.NewLocal(), Logger: zap.NewNop()}
}

func TestCreateWritesHeaderAndAllocatesIDs(t *testing.T) {
	ctx := context.Background()
	mem := backend.NewMemory()
	store := NewSuppliers(newParams(mem))

	first, err := store.Create(ctx, entity.Supplier{Name: "Molino Sur"})
	require.NoError(t, err)
	second, err := store.Create(ctx, entity.Supplier{Name: "Lácteos Norte"})
	require.NoError(t, err)
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "2", second.ID)

	rows, err := mem.ReadAllRows(ctx, "proveedores")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"idproveedor", "nombre", "telefono", "email", "direccion", "contacto"}, rows[0])
	assert.Equal(t, "Molino Sur", rows[1][1])
}

func TestCreateFollowsExistingHeaderOrder(t *testing.T) {
	ctx := context.Background()
	mem := backend.NewMemory()
	mem.Seed("proveedores",
		[]string{"Nombre", "IdProveedor"},
		[]string{"Molino Sur", "41"},
		[]string{"sin id", "abc"},
	)
	store := NewSuppliers(newParams(mem))

	created, err := store.Create(ctx, entity.Supplier{Name: "Harinera"})
	require.NoError(t, err)
	assert.Equal(t, "42", created.ID)

	rows, err := mem.ReadAllRows(ctx, "proveedores")
	require.NoError(t, err)
	assert.Equal(t, []string{"Harinera", "42"}, rows[3])
}

func TestListSkipsMalformedAndBlankRows(t *testing.T) {
	ctx := context.Background()
	mem := backend.NewMemory()
	mem.Seed("articulos",
		[]string{"codbarra", "idarticulo", "nombre", "precio"},
		[]string{"779", "1", "Pan", "100"},
		[]string{"", "", "", ""},
		[]string{"780", "", "Sin id", "5"},
		[]string{"781", "x1", "Id raro", "5"},
		[]string{"782", "3", "Queso", "$ 1.250,50"},
	)
	store := NewArticles(newParams(mem))

	items, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Pan", items[0].Name)
	assert.True(t, decimal.RequireFromString("1250.50").Equal(items[1].Price))
}

func TestGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	mem := backend.NewMemory()
	mem.Seed("articulos",
		[]string{"codbarra", "idarticulo", "nombre", "precio", "notas"},
		[]string{"779", "1", "Pan", "100", "no tocar"},
		[]string{"780", "2", "Queso", "200", ""},
	)
	store := NewArticles(newParams(mem))

	got, err := store.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Queso", got.Name)

	byBarcode, err := store.GetByBarcode(ctx, " 779 ")
	require.NoError(t, err)
	assert.Equal(t, "1", byBarcode.ID)

	updated, err := store.Update(ctx, "1", entity.Article{Barcode: "779", Name: "Pan casero", Price: decimal.NewFromInt(120)})
	require.NoError(t, err)
	assert.Equal(t, "1", updated.ID)

	rows, err := mem.ReadAllRows(ctx, "articulos")
	require.NoError(t, err)
	assert.Equal(t, []string{"779", "1", "Pan casero", "120", "no tocar"}, rows[1])

	require.NoError(t, store.Delete(ctx, "1"))
	_, err = store.Get(ctx, "1")
	assert.ErrorIs(t, err, ErrNotFound)

	again, err := store.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Queso", again.Name)

	_, err = store.Update(ctx, "9", entity.Article{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "9"), ErrNotFound)

	_, err = store.GetByBarcode(ctx, "000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateEmailAllocatesNoID(t *testing.T) {
	ctx := context.Background()
	mem := backend.NewMemory()
	store := NewClients(newParams(mem))

	ana, err := store.Create(ctx, entity.Client{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "1", ana.ID)

	_, err = store.Create(ctx, entity.Client{Name: "Otra Ana", Email: " ANA@example.com "})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	bruno, err := store.Create(ctx, entity.Client{Name: "Bruno", Email: "bruno@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "2", bruno.ID)

	_, err = store.Update(ctx, "2", entity.Client{Name: "Bruno", Email: "ana@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	_, err = store.Update(ctx, "1", entity.Client{Name: "Ana B", Email: "ana@example.com"})
	require.NoError(t, err)

	found, err := store.GetByEmail(ctx, "Ana@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ana B", found.Name)
}

func TestConcurrentCreatesGetDistinctIDs(t *testing.T) {
	ctx := context.Background()
	mem := backend.NewMemory(backend.WithLatency(time.Millisecond))
	store := NewSales(newParams(mem))

	const n = 25
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sale, err := store.Create(ctx, entity.Sale{Client: fmt.Sprintf("cliente %d", i), Date: "2024-05-01"})
			if assert.NoError(t, err) {
				ids[i] = sale.ID
			}
		}(i)
	}
	wg.Wait()

	nums := make([]int, 0, n)
	for _, id := range ids {
		v, err := strconv.Atoi(id)
		require.NoError(t, err)
		nums = append(nums, v)
	}
	sort.Ints(nums)
	for i, v := range nums {
		assert.Equal(t, i+1, v)
	}
}

func TestSalesForClient(t *testing.T) {
	ctx := context.Background()
	mem := backend.NewMemory()
	store := NewSales(newParams(mem))

	for _, name := range []string{"Ana", " ana ", "Bruno"} {
		_, err := store.Create(ctx, entity.Sale{Client: name, Date: "2024-05-01"})
		require.NoError(t, err)
	}

	sales, err := store.ForClient(ctx, "ANA")
	require.NoError(t, err)
	assert.Len(t, sales, 2)
}

type failingBackend struct {
	backend.Backend
}

func (failingBackend) ReadAllRows(context.Context, string) ([][]string, error) {
	return nil, backend.ErrUnavailable
}

func TestBackendErrorsPropagate(t *testing.T) {
	store := NewArticles(newParams(failingBackend{}))
	_, err := store.List(context.Background())
	assert.True(t, errors.Is(err, backend.ErrUnavailable))

	_, err = store.Create(context.Background(), entity.Article{Name: "Pan"})
	assert.ErrorIs(t, err, backend.ErrUnavailable)
}
