// Package errorbank is the error vocabulary shared by services and
// transports. Services return *AppError; transports only translate it.
package errorbank

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind is the category of an AppError. It is also the "kind" field of the
// HTTP error envelope.
type Kind string

const (
	KindBadRequest   Kind = "bad_request"
	KindUnauthorized Kind = "unauthorized"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	// KindUnavailable means the backend stayed unreachable after retries.
	KindUnavailable Kind = "backend_unavailable"
	KindInternal    Kind = "internal"
)

type mapping struct {
	status int
	code   codes.Code
}

// Unavailable deliberately maps to 500: clients only distinguish it by kind.
var mappings = map[Kind]mapping{
	KindBadRequest:   {http.StatusBadRequest, codes.InvalidArgument},
	KindUnauthorized: {http.StatusUnauthorized, codes.Unauthenticated},
	KindNotFound:     {http.StatusNotFound, codes.NotFound},
	KindConflict:     {http.StatusConflict, codes.AlreadyExists},
	KindUnavailable:  {http.StatusInternalServerError, codes.Unavailable},
	KindInternal:     {http.StatusInternalServerError, codes.Internal},
}

func (k Kind) mapping() mapping {
	if m, ok := mappings[k]; ok {
		return m
	}
	return mappings[KindInternal]
}

// AppError is a categorized error with a client-safe message.
type AppError struct {
	kind    Kind
	message string
	details map[string]any
	cause   error
}

// Option configures an AppError.
type Option func(*AppError)

// WithCause wraps err. It shows up in Error() and errors.Is, never in the
// HTTP payload.
func WithCause(err error) Option {
	return func(e *AppError) { e.cause = err }
}

// WithDetail sets one entry of the details object.
func WithDetail(key string, value any) Option {
	return func(e *AppError) {
		if e.details == nil {
			e.details = make(map[string]any, 1)
		}
		e.details[key] = value
	}
}

// WithCode sets the machine-readable reason, e.g. "not_registered".
func WithCode(code string) Option {
	return WithDetail("code", code)
}

// New builds an AppError. An empty message falls back to the kind.
func New(kind Kind, message string, opts ...Option) *AppError {
	if message == "" {
		message = string(kind)
	}
	e := &AppError{kind: kind, message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func BadRequest(message string, opts ...Option) *AppError {
	return New(KindBadRequest, message, opts...)
}

func Unauthorized(message string, opts ...Option) *AppError {
	return New(KindUnauthorized, message, opts...)
}

func NotFound(message string, opts ...Option) *AppError {
	return New(KindNotFound, message, opts...)
}

func Conflict(message string, opts ...Option) *AppError {
	return New(KindConflict, message, opts...)
}

func Unavailable(message string, opts ...Option) *AppError {
	return New(KindUnavailable, message, opts...)
}

func Internal(message string, opts ...Option) *AppError {
	return New(KindInternal, message, opts...)
}

func (e *AppError) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.cause != nil:
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	default:
		return e.message
	}
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Kind returns the category. A nil error reads as internal.
func (e *AppError) Kind() Kind {
	if e == nil {
		return KindInternal
	}
	return e.kind
}

func (e *AppError) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *AppError) Details() map[string]any {
	if e == nil {
		return nil
	}
	return e.details
}

// Code returns the reason set by WithCode, or "".
func (e *AppError) Code() string {
	code, _ := e.Details()["code"].(string)
	return code
}

// StatusCode is the HTTP status for the kind.
func (e *AppError) StatusCode() int {
	return e.Kind().mapping().status
}

// GRPCCode is the gRPC code for the kind.
func (e *AppError) GRPCCode() codes.Code {
	return e.Kind().mapping().code
}

// GRPCStatus lets status.FromError recognise an AppError.
func (e *AppError) GRPCStatus() *status.Status {
	return status.New(e.GRPCCode(), e.Message())
}

// Is reports whether err wraps an AppError of the given kind.
func Is(err error, kind Kind) bool {
	var e *AppError
	return errors.As(err, &e) && e.Kind() == kind
}

// From extracts the AppError wrapped by err. Anything else becomes an
// internal error carrying err as its cause.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var e *AppError
	if errors.As(err, &e) {
		return e
	}
	return Internal("internal error", WithCause(err))
}
