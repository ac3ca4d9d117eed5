// Package response renders the JSON envelope every endpoint answers with:
//
//	{"success": true, "data": ..., "meta": {...}}
//	{"success": false, "error": {"kind": ..., "message": ..., "details": {...}}, "meta": {...}}
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/elifred2022/bokadillo/pkg/errorbank"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *ErrorBody     `json:"error,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Builder accumulates one response. Handlers finish with Build or
// NoContent.
type Builder struct {
	c      echo.Context
	status int
	data   any
	err    error
	meta   map[string]any
}

func New(c echo.Context) *Builder {
	return &Builder{c: c, status: http.StatusOK}
}

// WithStatus overrides the status. For errors it only applies when it is
// itself an error status.
func (b *Builder) WithStatus(status int) *Builder {
	if status > 0 {
		b.status = status
	}
	return b
}

func (b *Builder) WithData(data any) *Builder {
	b.data = data
	return b
}

// WithError switches the response to the error envelope. A nil err is
// ignored.
func (b *Builder) WithError(err error) *Builder {
	b.err = err
	return b
}

func (b *Builder) WithMeta(key string, value any) *Builder {
	if key == "" {
		return b
	}
	if b.meta == nil {
		b.meta = make(map[string]any, 2)
	}
	b.meta[key] = value
	return b
}

// WithList attaches a collection and its size as meta "count".
func (b *Builder) WithList(items any, count int) *Builder {
	return b.WithData(items).WithMeta("count", count)
}

// Created is WithData with status 201.
func (b *Builder) Created(data any) *Builder {
	return b.WithStatus(http.StatusCreated).WithData(data)
}

// NoContent answers 204 with no body, unless an error was recorded.
func (b *Builder) NoContent() error {
	if b.err != nil {
		return b.Build()
	}
	return b.c.NoContent(http.StatusNoContent)
}

func (b *Builder) Build() error {
	if b.err == nil {
		return b.c.JSON(b.status, Envelope{Success: true, Data: b.data, Meta: b.meta})
	}

	appErr := errorbank.From(b.err)
	status := appErr.StatusCode()
	if b.status >= http.StatusBadRequest {
		status = b.status
	}
	if id := b.c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		b.WithMeta("request_id", id)
	}
	return b.c.JSON(status, Envelope{
		Error: &ErrorBody{
			Kind:    string(appErr.Kind()),
			Message: appErr.Message(),
			Details: appErr.Details(),
		},
		Meta: b.meta,
	})
}
