package sale

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/elifred2022/bokadillo/internal/dto"
	"github.com/elifred2022/bokadillo/internal/presentation/http/response"
	"github.com/elifred2022/bokadillo/internal/search"
	service "github.com/elifred2022/bokadillo/internal/service/sale"
	"github.com/elifred2022/bokadillo/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/elifred2022/bokadillo/transport/http/sale")

// Module wires HTTP sale handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)

// Handler exposes sale endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a sale Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/sales")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.getByID)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	query, err := saleQuery(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "sales.list", trace.WithAttributes(
		attribute.Bool("filter.hide_new", query.HideNew),
		attribute.Bool("filter.hide_delivered", query.HideDelivered),
	))
	defer span.End()

	listing, err := h.svc.List(ctx, query)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithList(dto.Map(listing.Items, dto.Sale), len(listing.Items)).
		WithMeta("total", listing.Total).
		Build()
}

func saleQuery(c echo.Context) (search.SaleQuery, error) {
	q := search.SaleQuery{
		Text: c.QueryParam("q"),
		From: c.QueryParam("from"),
		To:   c.QueryParam("to"),
	}
	var err error
	if q.HideNew, err = flag(c, "hideNew"); err != nil {
		return q, err
	}
	if q.HideDelivered, err = flag(c, "hideDelivered"); err != nil {
		return q, err
	}
	return q, nil
}

func flag(c echo.Context, name string) (bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errorbank.BadRequest("invalid "+name, errorbank.WithCause(err))
	}
	return v, nil
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), "sales.getByID", trace.WithAttributes(attribute.String("sale.id", id)))
	defer span.End()

	s, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.Sale(s)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)
	var payload dto.SaleRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "sales.create")
	defer span.End()

	s, err := h.svc.Create(ctx, payload.Entity())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.Created(dto.Sale(s)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)
	var payload dto.SaleRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	id := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), "sales.update", trace.WithAttributes(attribute.String("sale.id", id)))
	defer span.End()

	s, err := h.svc.Update(ctx, id, payload.Entity())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.Sale(s)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	id := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), "sales.delete", trace.WithAttributes(attribute.String("sale.id", id)))
	defer span.End()

	return response.New(c).WithError(h.svc.Delete(ctx, id)).NoContent()
}
