package client

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/elifred2022/bokadillo/internal/dto"
	"github.com/elifred2022/bokadillo/internal/presentation/http/response"
	clientservice "github.com/elifred2022/bokadillo/internal/service/client"
	saleservice "github.com/elifred2022/bokadillo/internal/service/sale"
	"github.com/elifred2022/bokadillo/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/elifred2022/bokadillo/transport/http/client")

// Module wires HTTP client handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)

// Handler exposes client endpoints, including the customer order form.
type Handler struct {
	clients *clientservice.Service
	sales   *saleservice.Service
}

// NewHandler constructs a client Handler.
func NewHandler(clients *clientservice.Service, sales *saleservice.Service) *Handler {
	return &Handler{clients: clients, sales: sales}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/clients")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.getByID)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.PUT("/:id/password", h.setPassword)
	g.GET("/:id/orders", h.orders)
	g.POST("/:id/orders", h.placeOrder)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "clients.list")
	defer span.End()

	items, err := h.clients.List(ctx, c.QueryParam("q"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithList(dto.Map(items, dto.Client), len(items)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), "clients.getByID", trace.WithAttributes(attribute.String("client.id", id)))
	defer span.End()

	cl, err := h.clients.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.Client(cl)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)
	var payload dto.ClientRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "clients.create")
	defer span.End()

	cl, err := h.clients.Create(ctx, payload.Entity())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.Created(dto.Client(cl)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)
	var payload dto.ClientRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	id := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), "clients.update", trace.WithAttributes(attribute.String("client.id", id)))
	defer span.End()

	cl, err := h.clients.Update(ctx, id, payload.Entity())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.Client(cl)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	id := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), "clients.delete", trace.WithAttributes(attribute.String("client.id", id)))
	defer span.End()

	return response.New(c).WithError(h.clients.Delete(ctx, id)).NoContent()
}

func (h *Handler) setPassword(c echo.Context) error {
	b := response.New(c)
	var payload dto.PasswordRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	id := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), "clients.setPassword", trace.WithAttributes(attribute.String("client.id", id)))
	defer span.End()

	cl, err := h.clients.SetPassword(ctx, id, payload.Password)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.Client(cl)).Build()
}

func (h *Handler) orders(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), "clients.orders", trace.WithAttributes(attribute.String("client.id", id)))
	defer span.End()

	listing, err := h.sales.ClientOrders(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithList(dto.Map(listing.Items, dto.Sale), len(listing.Items)).
		WithMeta("total", listing.Total).
		Build()
}

func (h *Handler) placeOrder(c echo.Context) error {
	b := response.New(c)
	var payload dto.OrderRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	id := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), "clients.placeOrder", trace.WithAttributes(
		attribute.String("client.id", id),
		attribute.Int("order.items", len(payload.Items)),
	))
	defer span.End()

	items := make([]saleservice.OrderItem, 0, len(payload.Items))
	for _, it := range payload.Items {
		items = append(items, saleservice.OrderItem{ArticleID: it.ArticleID, Quantity: it.Quantity})
	}
	sale, err := h.sales.PlaceOrder(ctx, id, items)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.Created(dto.Sale(sale)).Build()
}
