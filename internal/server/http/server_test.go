package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/config"
	"github.com/elifred2022/bokadillo/internal/presentation/http/response"
)

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	e, err := NewEcho(config.Config{}, nil, zap.NewNop())
	require.NoError(t, err)
	return e
}

func serve(t *testing.T, e *echo.Echo, method, path, body string) (int, response.Envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	e.ServeHTTP(rec, req)

	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestHealthUsesEnvelope(t *testing.T) {
	code, env := serve(t, newTestEcho(t), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Equal(t, map[string]any{"status": "ok"}, env.Data)
}

func TestUnknownRouteRendersEnvelope(t *testing.T) {
	code, env := serve(t, newTestEcho(t), http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_found", env.Error.Kind)
	assert.NotEmpty(t, env.Meta["request_id"])
}

func TestErrorHandlerKinds(t *testing.T) {
	e := newTestEcho(t)
	e.GET("/boom", func(echo.Context) error { return errors.New("boom") })
	e.POST("/big", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	code, env := serve(t, e, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal", env.Error.Kind)
	assert.Equal(t, "internal error", env.Error.Message)

	code, env = serve(t, e, http.MethodPost, "/big", strings.Repeat("x", 2<<20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)
	assert.Equal(t, "bad_request", env.Error.Kind)
}

func TestKindFor(t *testing.T) {
	assert.Equal(t, "unauthorized", string(kindFor(http.StatusUnauthorized)))
	assert.Equal(t, "conflict", string(kindFor(http.StatusConflict)))
	assert.Equal(t, "bad_request", string(kindFor(http.StatusMethodNotAllowed)))
	assert.Equal(t, "internal", string(kindFor(http.StatusBadGateway)))
}
