package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/config"
	"github.com/elifred2022/bokadillo/internal/observability"
	"github.com/elifred2022/bokadillo/internal/presentation/http/response"
	"github.com/elifred2022/bokadillo/pkg/errorbank"
)

// Module exposes the HTTP server lifecycle to Fx.
var Module = fx.Module("http_server",
	fx.Provide(NewEcho),
	fx.Invoke(Run),
)

// NewEcho builds the router shared by every transport package. Route
// registration happens in the transport modules.
func NewEcho(cfg config.Config, obs *observability.Manager, logger *zap.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit("1M"))

	if obs != nil && obs.TracingEnabled() {
		e.Use(otelecho.Middleware(cfg.Observability.ServiceName))
	}
	if obs != nil && obs.Registerer() != nil {
		metrics, err := NewMetrics(obs.Registerer())
		if err != nil {
			return nil, fmt.Errorf("http metrics: %w", err)
		}
		e.Use(metrics.Middleware)
	}

	e.GET("/health", func(c echo.Context) error {
		return response.New(c).WithData(map[string]string{"status": "ok"}).Build()
	})
	if obs != nil && obs.MetricsHandler() != nil {
		e.GET(obs.PrometheusPath(), echo.WrapHandler(obs.MetricsHandler()))
	}
	return e, nil
}

// errorHandler renders errors that escape handlers, such as unknown routes
// or oversized bodies, in the same envelope as handler errors.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		b := response.New(c)

		var he *echo.HTTPError
		switch {
		case errors.As(err, &he):
			msg := http.StatusText(he.Code)
			if s, ok := he.Message.(string); ok {
				msg = s
			}
			b.WithStatus(he.Code).WithError(errorbank.New(kindFor(he.Code), msg))
		default:
			logger.Error("unhandled http error",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			b.WithError(err)
		}
		if err := b.Build(); err != nil {
			logger.Warn("write error response", zap.Error(err))
		}
	}
}

func kindFor(status int) errorbank.Kind {
	switch {
	case status == http.StatusNotFound:
		return errorbank.KindNotFound
	case status == http.StatusUnauthorized:
		return errorbank.KindUnauthorized
	case status == http.StatusConflict:
		return errorbank.KindConflict
	case status >= 400 && status < 500:
		return errorbank.KindBadRequest
	default:
		return errorbank.KindInternal
	}
}

// Run binds the listener during startup, so a taken port fails the
// application instead of a background goroutine.
func Run(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg config.Config, e *echo.Echo, logger *zap.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{Addr: addr, Handler: e}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}
			logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping http server")
			return server.Shutdown(ctx)
		},
	})
}
