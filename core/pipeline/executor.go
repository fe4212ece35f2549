package pipeline

import (
	"log/slog"
	"slices"

	"github.com/wefthq/weft/core/handler"
	"github.com/wefthq/weft/core/logger"
	"github.com/wefthq/weft/core/response"
)

// Executor drives one request through the hook phases:
//
//  1. request hooks, in registration order; a hook may replace the
//     context, abort with a response, or raise an error;
//  2. the main step (request validation plus the route handler);
//  3. response hooks;
//  4. on any error, the error-hook cascade;
//  5. finalization: the deferred-callback flush, then finally hooks.
//
// Finalization always runs, exactly once, whatever happened before it.
// Panics anywhere in phases 1-3 are recovered and converted into errors so
// the error cascade sees them like any other failure.
type Executor struct {
	requestHooks  []handler.Hook
	responseHooks []handler.ResponseHook
	errorHooks    []handler.ErrorHook
	finallyHooks  []handler.FinallyHook
	log           *slog.Logger
}

func newExecutor(opts Options, log *slog.Logger) *Executor {
	return &Executor{
		requestHooks:  slices.Clone(opts.RequestHooks),
		responseHooks: slices.Clone(opts.ResponseHooks),
		errorHooks:    slices.Clone(opts.ErrorHooks),
		finallyHooks:  slices.Clone(opts.FinallyHooks),
		log:           log,
	}
}

// Execute runs the full pipeline and returns the final renderer built from
// the context's response builder. The builder accumulates every mutation
// made along the way, so the returned renderer reflects the whole run.
func (e *Executor) Execute(ctx *handler.Context, main handler.HandlerFunc) handler.Response {
	cur := ctx
	defer func() {
		cur.FlushDefers()
		for _, hook := range e.finallyHooks {
			e.runFinally(cur, hook)
		}
	}()

	out, resp, err := e.run(cur, main)
	cur = out

	if err == nil {
		if resp != nil {
			cur.Response().SetBody(resp)
		}
		err = e.runResponseHooks(cur)
	}

	if err != nil {
		if resp := e.handleError(cur, err); resp != nil {
			cur.Response().SetBody(resp)
		}
	}

	return cur.Response().Build()
}

// run executes the request-hook phase and the main step. It returns the
// context in effect when it stopped, so later phases observe replacements
// made by request hooks.
func (e *Executor) run(ctx *handler.Context, main handler.HandlerFunc) (out *handler.Context, resp handler.Response, err error) {
	out = ctx
	defer func() {
		if p := recover(); p != nil {
			resp = nil
			err = newPanicError(p)
		}
	}()

	for _, hook := range e.requestHooks {
		next, abort, hookErr := hook(out)
		if hookErr != nil {
			return out, nil, hookErr
		}
		if abort != nil {
			// Short-circuit: remaining request hooks and the main step are
			// skipped, but response hooks and finalization still run.
			return out, abort, nil
		}
		if next != nil {
			out = next
		}
	}

	resp, err = main(out)
	if err != nil {
		return out, nil, err
	}
	return out, resp, nil
}

func (e *Executor) runResponseHooks(ctx *handler.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = newPanicError(p)
		}
	}()

	for _, hook := range e.responseHooks {
		if err := hook(ctx); err != nil {
			return err
		}
	}
	return nil
}

// handleError runs the error-hook cascade. The first hook returning a
// response wins. A hook that itself errors (or panics) is logged and the
// cascade continues with the original error. When no hook produces a
// response, the error is logged and mapped to a structured HTTP error,
// defaulting to 500.
func (e *Executor) handleError(ctx *handler.Context, err error) handler.Response {
	for _, hook := range e.errorHooks {
		resp, hookErr := e.runErrorHook(ctx, hook, err)
		if hookErr != nil {
			e.log.ErrorContext(ctx, "error hook failed",
				logger.Component("pipeline"),
				logger.Error(hookErr),
			)
			continue
		}
		if resp != nil {
			return resp
		}
	}

	httpErr := response.ToHTTPError(err)
	attrs := []any{
		logger.Component("pipeline"),
		logger.Method(ctx.Request().Method),
		logger.Path(ctx.Request().URL.Path),
		logger.StatusCode(httpErr.Status),
		logger.Error(err),
	}
	if pe, ok := err.(PanicError); ok {
		attrs = append(attrs, logger.Key("stack", string(pe.Stack())))
	}
	e.log.ErrorContext(ctx, "unhandled request error", attrs...)

	return response.JSONWithStatus(httpErr, httpErr.Status)
}

func (e *Executor) runErrorHook(ctx *handler.Context, hook handler.ErrorHook, err error) (resp handler.Response, hookErr error) {
	defer func() {
		if p := recover(); p != nil {
			resp = nil
			hookErr = newPanicError(p)
		}
	}()
	return hook(ctx, err)
}

func (e *Executor) runFinally(ctx *handler.Context, hook handler.FinallyHook) {
	defer func() {
		if p := recover(); p != nil {
			e.log.ErrorContext(ctx, "finally hook panicked",
				logger.Component("pipeline"),
				logger.Key("panic", p),
			)
		}
	}()
	hook(ctx)
}
