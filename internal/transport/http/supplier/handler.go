package supplier

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/elifred2022/bokadillo/internal/dto"
	"github.com/elifred2022/bokadillo/internal/presentation/http/response"
	service "github.com/elifred2022/bokadillo/internal/service/supplier"
	"github.com/elifred2022/bokadillo/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/elifred2022/bokadillo/transport/http/supplier")

// Module wires HTTP supplier handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)

// Handler exposes supplier endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a supplier Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/suppliers")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.getByID)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "suppliers.list")
	defer span.End()

	items, err := h.svc.List(ctx, c.QueryParam("q"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithList(dto.Map(items, dto.Supplier), len(items)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), "suppliers.getByID", trace.WithAttributes(attribute.String("supplier.id", id)))
	defer span.End()

	s, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.Supplier(s)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)
	var payload dto.SupplierRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "suppliers.create")
	defer span.End()

	s, err := h.svc.Create(ctx, payload.Entity())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.Created(dto.Supplier(s)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)
	var payload dto.SupplierRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	id := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), "suppliers.update", trace.WithAttributes(attribute.String("supplier.id", id)))
	defer span.End()

	s, err := h.svc.Update(ctx, id, payload.Entity())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.Supplier(s)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	id := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), "suppliers.delete", trace.WithAttributes(attribute.String("supplier.id", id)))
	defer span.End()

	return response.New(c).WithError(h.svc.Delete(ctx, id)).NoContent()
}
