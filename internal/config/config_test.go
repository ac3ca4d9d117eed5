package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsWithMemoryBackend(t *testing.T) {
	t.Setenv("BACKEND_DRIVER", "memory")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("MESSAGING_ENABLED", "false")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Backend.Driver)
	assert.Equal(t, "noop", cfg.Cache.Driver)
	assert.Equal(t, "noop", cfg.Messaging.Driver)
	assert.Equal(t, "local", cfg.Lock.Driver)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, int64(15), cfg.Orders.MinQuantities["123"])
	assert.Equal(t, []string{"126"}, cfg.Orders.AlwaysAllowed)
	assert.Equal(t, "bokadillo", cfg.Observability.ServiceName)
}

func TestNewRequiresSheetsSettings(t *testing.T) {
	t.Setenv("BACKEND_DRIVER", "sheets")
	t.Setenv("SHEETS_SPREADSHEET", "")
	_, err := New()
	require.Error(t, err)

	t.Setenv("SHEETS_SPREADSHEET", "abc")
	t.Setenv("SHEETS_CREDENTIALS_FILE", "")
	t.Setenv("SHEETS_CREDENTIALS_JSON", "")
	_, err = New()
	require.Error(t, err)

	t.Setenv("SHEETS_CREDENTIALS_FILE", "/tmp/creds.json")
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.Backend.SpreadsheetID)
}

func TestNewRejectsUnknownDrivers(t *testing.T) {
	t.Setenv("BACKEND_DRIVER", "excel")
	_, err := New()
	assert.Error(t, err)

	t.Setenv("BACKEND_DRIVER", "memory")
	t.Setenv("LOCK_DRIVER", "zookeeper")
	_, err = New()
	assert.Error(t, err)
}

func TestNewRejectsBadTimeZone(t *testing.T) {
	t.Setenv("BACKEND_DRIVER", "memory")
	t.Setenv("ORDERS_TIME_ZONE", "Mars/Olympus")
	_, err := New()
	assert.Error(t, err)
}

func TestGetEnvAsQuantities(t *testing.T) {
	defaults := map[string]int64{"1": 2}

	t.Setenv("QTY", "123:15, 200:3")
	assert.Equal(t, map[string]int64{"123": 15, "200": 3}, getEnvAsQuantities("QTY", defaults))

	t.Setenv("QTY", "123-15")
	assert.Equal(t, defaults, getEnvAsQuantities("QTY", defaults))

	t.Setenv("QTY", "")
	assert.Empty(t, getEnvAsQuantities("QTY", defaults))
}
