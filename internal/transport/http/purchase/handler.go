package purchase

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/elifred2022/bokadillo/internal/dto"
	"github.com/elifred2022/bokadillo/internal/presentation/http/response"
	service "github.com/elifred2022/bokadillo/internal/service/purchase"
	"github.com/elifred2022/bokadillo/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/elifred2022/bokadillo/transport/http/purchase")

// Module wires HTTP purchase handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)

// Handler exposes purchase endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a purchase Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/purchases")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.getByID)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "purchases.list")
	defer span.End()

	listing, err := h.svc.List(ctx, c.QueryParam("q"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithList(dto.Map(listing.Items, dto.Purchase), len(listing.Items)).
		WithMeta("total", listing.Total).
		Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), "purchases.getByID", trace.WithAttributes(attribute.String("purchase.id", id)))
	defer span.End()

	p, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.Purchase(p)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)
	var payload dto.PurchaseRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "purchases.create")
	defer span.End()

	p, err := h.svc.Create(ctx, payload.Entity())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.Created(dto.Purchase(p)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)
	var payload dto.PurchaseRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	id := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), "purchases.update", trace.WithAttributes(attribute.String("purchase.id", id)))
	defer span.End()

	p, err := h.svc.Update(ctx, id, payload.Entity())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.Purchase(p)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	id := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), "purchases.delete", trace.WithAttributes(attribute.String("purchase.id", id)))
	defer span.End()

	return response.New(c).WithError(h.svc.Delete(ctx, id)).NoContent()
}
