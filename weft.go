package weft

import (
	"context"
	"net/http"

	"github.com/wefthq/weft/core/handler"
	"github.com/wefthq/weft/core/router"
	"github.com/wefthq/weft/core/server"
	"github.com/wefthq/weft/core/validation"
)

// Core types re-exported so simple applications import one package.
type (
	// Context carries one request through hooks, validation and the
	// handler.
	Context = handler.Context

	// Response renders an HTTP response.
	Response = handler.Response

	// HandlerFunc is the route handler signature.
	HandlerFunc = handler.HandlerFunc

	// Hook runs before the handler and may replace the context, abort
	// with a response, or raise an error.
	Hook = handler.Hook

	// ResponseHook runs after the handler and may adjust the response.
	ResponseHook = handler.ResponseHook

	// ErrorHook handles errors raised anywhere in the pipeline.
	ErrorHook = handler.ErrorHook

	// FinallyHook runs during finalization, on every outcome.
	FinallyHook = handler.FinallyHook

	// Router registers routes and serves HTTP.
	Router = router.Router

	// RequestSchema declares validation for the parts of a request.
	RequestSchema = validation.RequestSchema

	// ResponseSchema declares validation for outgoing responses.
	ResponseSchema = validation.ResponseSchema
)

// NewRouter creates a router. See the router package for options.
func NewRouter(opts ...router.Option) *Router {
	return router.New(opts...)
}

// Run serves h on addr until ctx is cancelled, then shuts down
// gracefully. It is the minimal entry point; applications needing
// timeouts or TLS use the server package directly.
func Run(ctx context.Context, addr string, h http.Handler) error {
	return server.Run(ctx, addr, h)
}
