package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// CallDurationMetric is the histogram of individual backend calls.
const CallDurationMetric = "bokadillo.backend.call.duration"

var backendMeter = otel.Meter("github.com/elifred2022/bokadillo/backend")

// Policy bounds backend calls.
type Policy struct {
	// Timeout applies to each individual call.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts for reads.
	MaxRetries int
	// Backoff is the delay before the first retry; it doubles each attempt.
	Backoff time.Duration
}

// Resilient decorates a Backend with per-call timeouts and retry of reads.
// Writes are attempted once: a timed-out append may still have been applied
// by the remote store, so repeating it could duplicate a row.
type Resilient struct {
	next     Backend
	policy   Policy
	logger   *zap.Logger
	duration metric.Float64Histogram
}

// NewResilient wraps next with policy.
func NewResilient(next Backend, policy Policy, logger *zap.Logger) *Resilient {
	if policy.Timeout <= 0 {
		policy.Timeout = 10 * time.Second
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.Backoff <= 0 {
		policy.Backoff = 200 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	duration, err := backendMeter.Float64Histogram(CallDurationMetric,
		metric.WithDescription("Duration of single backend calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		logger.Warn("backend duration histogram unavailable", zap.Error(err))
	}
	return &Resilient{next: next, policy: policy, logger: logger, duration: duration}
}

func (r *Resilient) ReadAllRows(ctx context.Context, collection string) ([][]string, error) {
	var rows [][]string
	backoff := r.policy.Backoff
	for attempt := 0; ; attempt++ {
		err := r.call(ctx, "read", collection, func(ctx context.Context) error {
			var err error
			rows, err = r.next.ReadAllRows(ctx, collection)
			return err
		})
		if err == nil {
			return rows, nil
		}
		if !errors.Is(err, ErrUnavailable) || attempt >= r.policy.MaxRetries {
			return nil, err
		}
		r.logger.Warn("backend read failed; retrying",
			zap.String("collection", collection),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		}
		backoff *= 2
	}
}

func (r *Resilient) AppendRow(ctx context.Context, collection string, row []string) error {
	return r.call(ctx, "append", collection, func(ctx context.Context) error {
		return r.next.AppendRow(ctx, collection, row)
	})
}

func (r *Resilient) ReplaceRow(ctx context.Context, collection string, index int, row []string) error {
	return r.call(ctx, "replace", collection, func(ctx context.Context) error {
		return r.next.ReplaceRow(ctx, collection, index, row)
	})
}

func (r *Resilient) DeleteRow(ctx context.Context, collection string, index int) error {
	return r.call(ctx, "delete", collection, func(ctx context.Context) error {
		return r.next.DeleteRow(ctx, collection, index)
	})
}

// Describe forwards to the wrapped backend when it supports descriptions.
func (r *Resilient) Describe(ctx context.Context) (Description, error) {
	d, ok := r.next.(Describer)
	if !ok {
		return Description{}, errors.New("backend does not support describe")
	}
	var out Description
	err := r.call(ctx, "describe", "", func(ctx context.Context) error {
		var err error
		out, err = d.Describe(ctx)
		return err
	})
	return out, err
}

func (r *Resilient) call(ctx context.Context, op, collection string, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, r.policy.Timeout)
	defer cancel()

	start := time.Now()
	err := classify(ctx, fn(callCtx))
	if r.duration != nil {
		r.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("collection", collection),
			attribute.String("outcome", outcome(err)),
		))
	}
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPermission):
		return "permission"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// classify folds timeouts and network failures into ErrUnavailable. A
// cancellation of the caller's own context is returned as is.
func classify(parent context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrPermission) {
		return err
	}
	if parent.Err() != nil && errors.Is(err, parent.Err()) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: timed out: %v", ErrUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
