package auth

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"

	"github.com/elifred2022/bokadillo/internal/dto"
	"github.com/elifred2022/bokadillo/internal/presentation/http/response"
	service "github.com/elifred2022/bokadillo/internal/service/client"
	"github.com/elifred2022/bokadillo/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/elifred2022/bokadillo/transport/http/auth")

// Module wires HTTP auth handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)

// Handler exposes customer login and sign-up.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an auth Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/auth")
	g.POST("/login", h.login)
	g.POST("/register", h.register)
}

func (h *Handler) login(c echo.Context) error {
	b := response.New(c)
	var payload dto.LoginRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.login")
	defer span.End()

	cl, err := h.svc.Login(ctx, payload.Email, payload.Password)
	if err != nil {
		return b.WithError(err).Build()
	}
	span.SetAttributes(attribute.String("client.id", cl.ID))
	return b.WithData(dto.ProfileOf(cl)).Build()
}

func (h *Handler) register(c echo.Context) error {
	b := response.New(c)
	var payload dto.RegisterRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.register")
	defer span.End()

	cl, err := h.svc.Register(ctx, service.Registration{
		Name:     payload.Name,
		Phone:    payload.Phone,
		Email:    payload.Email,
		Address:  payload.Address,
		Password: payload.Password,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.Created(dto.ProfileOf(cl)).Build()
}
