package router

import (
	"log/slog"

	"github.com/wefthq/weft/core/handler"
	"github.com/wefthq/weft/core/pipeline"
	"github.com/wefthq/weft/core/validation"
)

// Option configures a Router during creation.
type Option func(*Router)

// WithValidator sets the schema validator used by routes that declare
// request or response schemas. Registering such a route without a
// validator panics at registration time.
func WithValidator(v validation.Validator) Option {
	return func(r *Router) {
		r.validator = v
	}
}

// WithErrorHandler sets a custom handler for routing-level failures.
func WithErrorHandler(h ErrorHandler) Option {
	return func(r *Router) {
		if h != nil {
			r.errh = h
		}
	}
}

// WithLogger sets the logger propagated to every request context.
func WithLogger(log *slog.Logger) Option {
	return func(r *Router) {
		if log != nil {
			r.log = log
		}
	}
}

// WithEnv sets the instance environment exposed on every request context.
// The map must not be mutated after the router starts serving.
func WithEnv(env handler.Env) Option {
	return func(r *Router) {
		r.env = env
	}
}

// WithDefaultRequestFailureHandler sets the instance-level request
// validation-failure handler, consulted when the failing route has no
// handler of its own.
func WithDefaultRequestFailureHandler(h pipeline.FailureHandler) Option {
	return func(r *Router) {
		r.requestFailure = h
	}
}

// WithDefaultResponseFailureHandler sets the instance-level response
// validation-failure handler.
func WithDefaultResponseFailureHandler(h pipeline.FailureHandler) Option {
	return func(r *Router) {
		r.responseFailure = h
	}
}
