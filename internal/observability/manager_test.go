package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/config"
)

func TestManagerDisabled(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{Observability: config.Observability{ServiceName: "bokadillo"}}

	m, err := NewManager(lc, cfg, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, m.TracingEnabled())
	assert.False(t, m.MetricsEnabled())
	assert.Nil(t, m.MetricsHandler())
	assert.Nil(t, m.Registerer())

	lc.RequireStart().RequireStop()
}

func TestManagerStdoutMetrics(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{Observability: config.Observability{
		ServiceName:     "bokadillo",
		EnableTracing:   true,
		TraceExporter:   "none",
		EnableMetrics:   true,
		MetricsExporter: "stdout",
	}}

	m, err := NewManager(lc, cfg, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, m.TracingEnabled())
	assert.True(t, m.MetricsEnabled())
	assert.Nil(t, m.MetricsHandler(), "only the prometheus exporter serves a scrape handler")

	require.NoError(t, m.shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, sampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}
