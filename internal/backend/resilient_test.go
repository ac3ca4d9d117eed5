package backend

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

type flakyBackend struct {
	*Memory
	readFailures  int32
	reads         atomic.Int32
	appends       atomic.Int32
	appendErr     error
	blockAppendOn bool
}

func (f *flakyBackend) ReadAllRows(ctx context.Context, collection string) ([][]string, error) {
	n := f.reads.Add(1)
	if n <= f.readFailures {
		return nil, ErrUnavailable
	}
	return f.Memory.ReadAllRows(ctx, collection)
}

func (f *flakyBackend) AppendRow(ctx context.Context, collection string, row []string) error {
	f.appends.Add(1)
	if f.blockAppendOn {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.appendErr != nil {
		return f.appendErr
	}
	return f.Memory.AppendRow(ctx, collection, row)
}

func newFlaky() *flakyBackend {
	return &flakyBackend{Memory: NewMemory()}
}

func TestResilientRetriesReads(t *testing.T) {
	next := newFlaky()
	next.readFailures = 2
	r := NewResilient(next, Policy{Timeout: time.Second, MaxRetries: 3, Backoff: time.Millisecond}, zap.NewNop())

	_, err := r.ReadAllRows(context.Background(), "articulos")
	require.NoError(t, err)
	assert.Equal(t, int32(3), next.reads.Load())
}

func TestResilientGivesUpAfterMaxRetries(t *testing.T) {
	next := newFlaky()
	next.readFailures = 10
	r := NewResilient(next, Policy{Timeout: time.Second, MaxRetries: 2, Backoff: time.Millisecond}, zap.NewNop())

	_, err := r.ReadAllRows(context.Background(), "articulos")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(3), next.reads.Load())
}

func TestResilientDoesNotRetryWrites(t *testing.T) {
	next := newFlaky()
	next.appendErr = ErrUnavailable
	r := NewResilient(next, Policy{Timeout: time.Second, MaxRetries: 5, Backoff: time.Millisecond}, zap.NewNop())

	err := r.AppendRow(context.Background(), "articulos", []string{"1"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(1), next.appends.Load())
}

func TestResilientTimeoutBecomesUnavailable(t *testing.T) {
	next := newFlaky()
	next.blockAppendOn = true
	r := NewResilient(next, Policy{Timeout: 10 * time.Millisecond}, zap.NewNop())

	err := r.AppendRow(context.Background(), "articulos", []string{"1"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestResilientKeepsCallerCancellation(t *testing.T) {
	next := newFlaky()
	next.blockAppendOn = true
	r := NewResilient(next, Policy{Timeout: time.Second}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.AppendRow(ctx, "articulos", []string{"1"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrUnavailable))
}

func TestResilientPassesThroughNotFound(t *testing.T) {
	r := NewResilient(NewMemory(), Policy{}, nil)
	err := r.ReplaceRow(context.Background(), "ventas", 4, []string{"x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", outcome(nil))
	assert.Equal(t, "not_found", outcome(ErrNotFound))
	assert.Equal(t, "permission", outcome(ErrPermission))
	assert.Equal(t, "unavailable", outcome(ErrUnavailable))
	assert.Equal(t, "error", outcome(errors.New("boom")))
}

func TestResilientRecordsCallDuration(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	r := NewResilient(NewMemory(), Policy{Timeout: time.Second}, zap.NewNop())
	hist, err := provider.Meter("test").Float64Histogram(CallDurationMetric)
	require.NoError(t, err)
	r.duration = hist

	require.NoError(t, r.AppendRow(context.Background(), "articulos", []string{"id"}))
	_, err = r.ReadAllRows(context.Background(), "articulos")
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	data, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	ops := map[string]uint64{}
	for _, dp := range data.DataPoints {
		op, _ := dp.Attributes.Value(attribute.Key("op"))
		ops[op.AsString()] += dp.Count
	}
	assert.Equal(t, map[string]uint64{"append": 1, "read": 1}, ops)
}
