package health

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"

	"github.com/elifred2022/bokadillo/internal/backend"
	"github.com/elifred2022/bokadillo/internal/presentation/http/response"
	"github.com/elifred2022/bokadillo/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/elifred2022/bokadillo/transport/http/health")

// Module wires the backend health endpoint.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)

// Handler reports whether the tabular store is reachable.
type Handler struct {
	backend backend.Describer
}

// NewHandler constructs a health Handler.
func NewHandler(d backend.Describer) *Handler {
	return &Handler{backend: d}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/health/backend", h.backendStatus)
}

func (h *Handler) backendStatus(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "health.backend")
	defer span.End()

	d, err := h.backend.Describe(ctx)
	if err != nil {
		return b.WithError(errorbank.Unavailable("backend unreachable", errorbank.WithCause(err))).Build()
	}
	return b.WithData(d).WithMeta("status", "ok").Build()
}
