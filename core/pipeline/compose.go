package pipeline

import (
	"log/slog"

	"github.com/wefthq/weft/core/handler"
	"github.com/wefthq/weft/core/logger"
	"github.com/wefthq/weft/core/response"
	"github.com/wefthq/weft/core/validation"
)

// Composed is a fully assembled per-route entry point. The router calls it
// once per matched request and renders the returned response.
type Composed func(ctx *handler.Context) handler.Response

// Options carries the instance-level configuration shared by every route
// composed against one router: the validator, the hook sets and the
// instance-level failure handlers.
type Options struct {
	Validator validation.Validator

	RequestHooks  []handler.Hook
	ResponseHooks []handler.ResponseHook
	ErrorHooks    []handler.ErrorHook
	FinallyHooks  []handler.FinallyHook

	RequestFailure  FailureHandler
	ResponseFailure FailureHandler

	Logger *slog.Logger
}

// Route carries one route's handler, its declared schemas and its
// route-level failure handlers, which take precedence over the
// instance-level ones.
type Route struct {
	Handler handler.HandlerFunc

	RequestSchema  *validation.RequestSchema
	ResponseSchema *validation.ResponseSchema

	RequestFailure  FailureHandler
	ResponseFailure FailureHandler
}

// Compose assembles the per-route pipeline once, at registration time.
// Validation steps are resolved eagerly so misconfiguration (a schema with
// no validator) fails registration instead of failing requests.
//
// Routes with no hooks, no schemas and no failure handlers get a minimal
// wrapper that skips the executor machinery entirely.
func Compose(route Route, opts Options) (Composed, error) {
	if route.Handler == nil {
		return nil, ErrNilHandler
	}

	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	reqCheck, err := resolveRequestCheck(opts.Validator, route.RequestSchema)
	if err != nil {
		return nil, err
	}
	respCheck, err := resolveResponseCheck(opts.Validator, route.ResponseSchema)
	if err != nil {
		return nil, err
	}

	if fastPath(route, opts, reqCheck, respCheck) {
		return composeBare(route.Handler, log), nil
	}

	exec := newExecutor(opts, log)
	reqFail := requestFailureCascade(route.RequestFailure, opts.RequestFailure, log)
	respFail := responseFailureCascade(route.ResponseFailure, opts.ResponseFailure, log)

	main := func(ctx *handler.Context) (handler.Response, error) {
		if reqCheck != nil {
			validated, reason := reqCheck(ctx)
			if reason != nil {
				return reqFail(ctx, reason)
			}
			ctx = ctx.WithValidated(validated)
		}

		resp, err := route.Handler(ctx)
		if err != nil {
			return nil, err
		}

		if respCheck != nil {
			if resp != nil {
				// Park the response on the builder so validation and later
				// phases observe a single source of truth.
				ctx.Response().SetBody(resp)
				resp = nil
			}
			if reason := respCheck(ctx); reason != nil {
				fresp, ferr := respFail(ctx, reason)
				if ferr != nil {
					return nil, ferr
				}
				if fresp != nil {
					return fresp, nil
				}
				// Cascade declined: the response ships as-is.
			}
		}

		return resp, nil
	}

	return func(ctx *handler.Context) handler.Response {
		return exec.Execute(ctx, main)
	}, nil
}

func fastPath(route Route, opts Options, reqCheck requestCheck, respCheck responseCheck) bool {
	return reqCheck == nil && respCheck == nil &&
		len(opts.RequestHooks) == 0 &&
		len(opts.ResponseHooks) == 0 &&
		len(opts.ErrorHooks) == 0 &&
		len(opts.FinallyHooks) == 0 &&
		route.RequestFailure == nil && opts.RequestFailure == nil &&
		route.ResponseFailure == nil && opts.ResponseFailure == nil
}

// composeBare wraps a plain handler with just the guarantees every route
// keeps: panic safety, error mapping and the deferred-callback flush.
func composeBare(h handler.HandlerFunc, log *slog.Logger) Composed {
	return func(ctx *handler.Context) handler.Response {
		defer ctx.FlushDefers()

		resp, err := runBare(ctx, h)
		if err != nil {
			httpErr := response.ToHTTPError(err)
			log.ErrorContext(ctx, "unhandled request error",
				logger.Component("pipeline"),
				logger.Method(ctx.Request().Method),
				logger.Path(ctx.Request().URL.Path),
				logger.StatusCode(httpErr.Status),
				logger.Error(err),
			)
			ctx.Response().SetBody(response.JSONWithStatus(httpErr, httpErr.Status))
		} else if resp != nil {
			ctx.Response().SetBody(resp)
		}

		return ctx.Response().Build()
	}
}

func runBare(ctx *handler.Context, h handler.HandlerFunc) (resp handler.Response, err error) {
	defer func() {
		if p := recover(); p != nil {
			resp = nil
			err = newPanicError(p)
		}
	}()
	return h(ctx)
}
