package router

import (
	"errors"

	"github.com/wefthq/weft/core/handler"
	"github.com/wefthq/weft/core/response"
)

var (
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrNotFound         = errors.New("not found")
	ErrNilResponse      = errors.New("nil response")
	ErrNilHandler       = errors.New("nil route handler")
	ErrInvalidMethod    = errors.New("invalid http method")
	ErrInvalidPattern   = errors.New("invalid route path pattern")
	ErrNilSubrouter     = errors.New("nil subrouter callback")

	// Tree errors
	ErrDuplicateRoute   = errors.New("duplicate route registration")
	ErrDuplicateParam   = errors.New("conflicting parameter name")
	ErrWildcardPosition = errors.New("wildcard must be the last path segment")
)

// ErrorHandler renders routing-level failures: unmatched paths, disallowed
// methods, render errors and panics escaping the pipeline.
type ErrorHandler func(ctx *handler.Context, err error)

// defaultErrorHandler maps routing errors to structured JSON responses.
// Errors arriving after the response started are unrecoverable and ignored
// here; the router logs them instead.
func defaultErrorHandler(ctx *handler.Context, err error) {
	if ww, ok := ctx.ResponseWriter().(*responseWriter); ok && ww.Written() {
		return
	}

	httpErr := routingError(err)
	_ = response.JSONWithStatus(httpErr, httpErr.Status)(ctx.ResponseWriter(), ctx.Request())
}

func routingError(err error) response.HTTPError {
	switch {
	case errors.Is(err, ErrNotFound):
		return response.ErrNotFound
	case errors.Is(err, ErrMethodNotAllowed):
		return response.ErrMethodNotAllowed
	default:
		return response.ToHTTPError(err)
	}
}
