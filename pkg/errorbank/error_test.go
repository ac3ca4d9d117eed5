package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
		code   codes.Code
	}{
		{BadRequest("x"), http.StatusBadRequest, codes.InvalidArgument},
		{Unauthorized("x"), http.StatusUnauthorized, codes.Unauthenticated},
		{NotFound("x"), http.StatusNotFound, codes.NotFound},
		{Conflict("x"), http.StatusConflict, codes.AlreadyExists},
		{Unavailable("x"), http.StatusInternalServerError, codes.Unavailable},
		{Internal("x"), http.StatusInternalServerError, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Kind()), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode())
			assert.Equal(t, tt.code, tt.err.GRPCCode())
		})
	}
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("boom")
	appErr := From(cause)
	assert.Equal(t, KindInternal, appErr.Kind())
	assert.ErrorIs(t, appErr, cause)

	conflict := Conflict("email taken", WithCode("duplicate_email"))
	wrapped := fmt.Errorf("register: %w", conflict)
	assert.Same(t, conflict, From(wrapped))
	assert.True(t, Is(wrapped, KindConflict))
	assert.Equal(t, "duplicate_email", conflict.Details()["code"])
	assert.Nil(t, From(nil))
}

func TestCodeAndGRPCStatus(t *testing.T) {
	err := Unauthorized("wrong password", WithCode("wrong_password"))
	assert.Equal(t, "wrong_password", err.Code())
	assert.Empty(t, NotFound("x").Code())

	st, ok := status.FromError(err)
	assert.True(t, ok)
	assert.Equal(t, codes.Unauthenticated, st.Code())
	assert.Equal(t, "wrong password", st.Message())

	wrapped, ok := status.FromError(fmt.Errorf("login: %w", err))
	assert.True(t, ok)
	assert.Equal(t, codes.Unauthenticated, wrapped.Code())
}

func TestUnknownKindIsInternal(t *testing.T) {
	err := New(Kind("teapot"), "")
	assert.Equal(t, "teapot", err.Message())
	assert.Equal(t, http.StatusInternalServerError, err.StatusCode())
	assert.Equal(t, codes.Internal, err.GRPCCode())

	var nilErr *AppError
	assert.Equal(t, KindInternal, nilErr.Kind())
	assert.Empty(t, nilErr.Code())
}
