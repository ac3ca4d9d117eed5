package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	service "github.com/elifred2022/bokadillo/internal/service/client"
	"github.com/elifred2022/bokadillo/internal/service/servicetest"
)

type envelope struct {
	Success bool `json:"success"`
	Data    struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"data"`
	Error struct {
		Kind    string         `json:"kind"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newServer(t *testing.T) (*echo.Echo, *servicetest.Env) {
	t.Helper()
	env := servicetest.New()
	svc, err := service.NewService(service.Params{
		Clients:   env.Clients,
		Cache:     env.Cache,
		Config:    env.Config,
		Logger:    env.Logger,
		Publisher: env.Publisher,
	})
	require.NoError(t, err)
	e := echo.New()
	Register(e, NewHandler(svc))
	return e, env
}

func post(t *testing.T, e *echo.Echo, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestRegisterThenLogin(t *testing.T) {
	e, _ := newServer(t)

	status, body := post(t, e, "/auth/register", `{"name":"Ana","email":"ana@example.com","password":"secreto"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "1", body.Data.ID)
	assert.Equal(t, "Ana", body.Data.Name)

	status, _ = post(t, e, "/auth/register", `{"name":"Otra","email":"ANA@example.com","password":"secreto"}`)
	assert.Equal(t, http.StatusConflict, status)

	status, body = post(t, e, "/auth/login", `{"email":"ana@example.com","password":"secreto"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ana@example.com", body.Data.Email)
}

func TestLoginFailures(t *testing.T) {
	e, env := newServer(t)
	env.Backend.Seed("clientes",
		[]string{"idcliente", "nombre", "email", "clave"},
		[]string{"1", "Bruno", "bruno@example.com", ""},
	)
	_, _ = post(t, e, "/auth/register", `{"name":"Ana","email":"ana@example.com","password":"secreto"}`)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"missing fields", `{"email":"ana@example.com"}`, http.StatusBadRequest, ""},
		{"unknown email", `{"email":"nadie@example.com","password":"x"}`, http.StatusNotFound, "not_registered"},
		{"no password", `{"email":"bruno@example.com","password":"x"}`, http.StatusBadRequest, "no_password_set"},
		{"wrong password", `{"email":"ana@example.com","password":"otra"}`, http.StatusUnauthorized, "invalid_credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := post(t, e, "/auth/login", tt.body)
			assert.Equal(t, tt.status, status)
			assert.False(t, body.Success)
			if tt.code != "" {
				assert.Equal(t, tt.code, body.Error.Details["code"])
			}
		})
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	e, _ := newServer(t)
	status, body := post(t, e, "/auth/register", `{"name":"Ana","email":"ana@example.com","password":"  12345  "}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "bad_request", body.Error.Kind)
}
