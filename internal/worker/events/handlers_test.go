package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/elifred2022/bokadillo/internal/cache"
	"github.com/elifred2022/bokadillo/internal/config"
	"github.com/elifred2022/bokadillo/internal/messaging"
	"github.com/elifred2022/bokadillo/internal/service"
)

type deletes struct {
	cache.Store
	keys []string
}

func (d *deletes) Delete(_ context.Context, key string) error {
	d.keys = append(d.keys, key)
	return nil
}

func message(t *testing.T, ev service.Event) messaging.Message {
	t.Helper()
	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	return messaging.Message{Topic: "bokadillo.events", Value: raw, Time: time.Now()}
}

func testConfig() config.Config {
	return config.Config{Messaging: config.Messaging{Kafka: config.Kafka{Topic: "bokadillo.events"}}}
}

func TestCacheInvalidation(t *testing.T) {
	store := &deletes{Store: cache.Noop()}
	reg := NewCacheInvalidation(store, zap.NewNop(), testConfig())
	assert.Equal(t, "bokadillo.events", reg.Topic)

	require.NoError(t, reg.Handler(context.Background(), message(t, service.Event{Type: service.EventUpdated, Collection: "articulos", ID: "3"})))
	assert.Equal(t, []string{service.ListKey("articulos")}, store.keys)

	err := reg.Handler(context.Background(), messaging.Message{Value: []byte("{")})
	assert.Error(t, err)
}

func TestManufacturingOrders(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	reg := NewManufacturingOrders(zap.New(core), testConfig())

	require.NoError(t, reg.Handler(context.Background(), message(t, service.Event{
		Type: service.EventOrderPlaced, Collection: "ventas", ID: "12", Client: "Ana", Manufacturing: true,
	})))
	require.NoError(t, reg.Handler(context.Background(), message(t, service.Event{
		Type: service.EventCreated, Collection: "ventas", ID: "13",
	})))

	entries := logs.FilterMessage("manufacturing order received").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "12", entries[0].ContextMap()["sale_id"])
}
