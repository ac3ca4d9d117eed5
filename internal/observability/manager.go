package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	stdoutmetric "go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	stdouttrace "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/backend"
	"github.com/elifred2022/bokadillo/internal/config"
)

const (
	shutdownTimeout = 10 * time.Second
	exporterTimeout = 10 * time.Second
	stdoutInterval  = 30 * time.Second
)

// backendBuckets fit spreadsheet round-trips, which sit well above local
// database latencies.
var backendBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

// Module exposes the observability manager to Fx.
var Module = fx.Provide(NewManager)

// Manager owns the trace and meter providers and installs them globally
// while the application runs.
type Manager struct {
	cfg    config.Observability
	logger *zap.Logger

	tracer     *sdktrace.TracerProvider
	meter      *sdkmetric.MeterProvider
	handler    http.Handler
	registerer prometheus.Registerer
}

// NewManager builds the providers selected by configuration. Nothing is
// installed until Fx starts.
func NewManager(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	res, err := resourceFor(cfg)
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	m := &Manager{cfg: cfg.Observability, logger: logger}
	if m.cfg.EnableTracing {
		if err := m.setupTracing(res); err != nil {
			return nil, fmt.Errorf("tracing: %w", err)
		}
	}
	if m.cfg.EnableMetrics {
		if err := m.setupMetrics(res); err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			m.install()
			return nil
		},
		OnStop: m.shutdown,
	})
	return m, nil
}

func resourceFor(cfg config.Config) (*sdkresource.Resource, error) {
	version := cfg.Observability.ServiceVersion
	if version == "" {
		version = "dev"
	}
	return sdkresource.New(context.Background(),
		sdkresource.WithFromEnv(),
		sdkresource.WithHost(),
		sdkresource.WithAttributes(
			semconv.ServiceName(cfg.Observability.ServiceName),
			semconv.ServiceVersion(version),
			attribute.String("service.environment", cfg.Observability.Environment),
			attribute.String("bokadillo.backend", cfg.Backend.Driver),
		),
	)
}

func (m *Manager) install() {
	if m.tracer != nil {
		otel.SetTracerProvider(m.tracer)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}
	if m.meter != nil {
		otel.SetMeterProvider(m.meter)
	}
	m.logger.Info("observability ready",
		zap.Bool("tracing", m.TracingEnabled()),
		zap.Bool("metrics", m.MetricsEnabled()),
		zap.Float64("sample_ratio", m.cfg.TraceSampleRatio),
	)
}

func (m *Manager) shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs error
	if m.tracer != nil {
		errs = errors.Join(errs, m.tracer.Shutdown(ctx))
	}
	if m.meter != nil {
		errs = errors.Join(errs, m.meter.Shutdown(ctx))
	}
	return errs
}

// TracingEnabled reports whether a tracer provider was built.
func (m *Manager) TracingEnabled() bool { return m.tracer != nil }

// MetricsEnabled reports whether a meter provider was built.
func (m *Manager) MetricsEnabled() bool { return m.meter != nil }

// MetricsHandler serves the Prometheus scrape endpoint. It is nil unless
// the prometheus exporter is selected.
func (m *Manager) MetricsHandler() http.Handler { return m.handler }

// Registerer is where collectors outside the otel pipeline, such as the
// HTTP request metrics, register. It is nil unless the prometheus exporter
// is active.
func (m *Manager) Registerer() prometheus.Registerer { return m.registerer }

// PrometheusPath returns the configured metrics endpoint path.
func (m *Manager) PrometheusPath() string { return m.cfg.PrometheusPath }

func (m *Manager) setupTracing(res *sdkresource.Resource) error {
	exporter, err := m.spanExporter()
	if err != nil || exporter == nil {
		return err
	}
	m.tracer = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(m.cfg.TraceSampleRatio)),
	)
	return nil
}

// sampler keeps the parent's decision and samples root spans by ratio.
func sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

func (m *Manager) spanExporter() (sdktrace.SpanExporter, error) {
	switch m.cfg.TraceExporter {
	case "", "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		if m.cfg.TraceEndpoint == "" {
			return nil, errors.New("OBS_OTLP_ENDPOINT must be set for the otlp exporter")
		}
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(m.cfg.TraceEndpoint)}
		if m.cfg.TraceInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		ctx, cancel := context.WithTimeout(context.Background(), exporterTimeout)
		defer cancel()
		return otlptracegrpc.New(ctx, opts...)
	case "none":
		return nil, nil
	default:
		m.logger.Warn("unsupported trace exporter, tracing disabled", zap.String("exporter", m.cfg.TraceExporter))
		return nil, nil
	}
}

func (m *Manager) setupMetrics(res *sdkresource.Resource) error {
	var reader sdkmetric.Reader
	switch m.cfg.MetricsExporter {
	case "prometheus":
		exporter, err := promexporter.New(promexporter.WithRegisterer(prometheus.DefaultRegisterer))
		if err != nil {
			return err
		}
		reader = exporter
		m.handler = promhttp.Handler()
		m.registerer = prometheus.DefaultRegisterer
	case "stdout":
		exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stdout))
		if err != nil {
			return err
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(stdoutInterval))
	case "none":
		return nil
	default:
		m.logger.Warn("unsupported metrics exporter, metrics disabled", zap.String("exporter", m.cfg.MetricsExporter))
		return nil
	}

	m.meter = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
		sdkmetric.WithView(backendDurationView()),
	)
	return nil
}

func backendDurationView() sdkmetric.View {
	return sdkmetric.NewView(
		sdkmetric.Instrument{Name: backend.CallDurationMetric},
		sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
			Boundaries: backendBuckets,
		}},
	)
}
