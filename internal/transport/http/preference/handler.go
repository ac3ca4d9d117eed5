package preference

import (
	"errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/elifred2022/bokadillo/internal/preference"
	"github.com/elifred2022/bokadillo/internal/presentation/http/response"
	"github.com/elifred2022/bokadillo/pkg/errorbank"
)

// Module wires HTTP preference handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)

// Handler exposes per-user view settings.
type Handler struct {
	store preference.Store
}

// NewHandler constructs a preference Handler.
func NewHandler(store preference.Store) *Handler {
	return &Handler{store: store}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/preferences/:owner")
	g.GET("/sales-list", h.salesList)
	g.PUT("/sales-list", h.setSalesList)
}

func (h *Handler) salesList(c echo.Context) error {
	b := response.New(c)
	prefs, err := h.store.SalesList(c.Request().Context(), c.Param("owner"))
	if err != nil {
		return b.WithError(translate(err)).Build()
	}
	return b.WithData(prefs).Build()
}

func (h *Handler) setSalesList(c echo.Context) error {
	b := response.New(c)
	var prefs preference.SalesList
	if err := c.Bind(&prefs); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if err := h.store.SetSalesList(c.Request().Context(), c.Param("owner"), prefs); err != nil {
		return b.WithError(translate(err)).Build()
	}
	return b.WithData(prefs).Build()
}

func translate(err error) error {
	if errors.Is(err, preference.ErrOwnerRequired) {
		return errorbank.BadRequest(err.Error())
	}
	return errorbank.Unavailable("preferences unavailable", errorbank.WithCause(err))
}
