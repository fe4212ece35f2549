package handler

import "net/http"

// Response is a function that renders HTTP responses.
// It sets headers, status code, and writes the response body.
// Rendering errors are handled by the router's error handler.
type Response func(w http.ResponseWriter, r *http.Request) error

// HandlerFunc is the route handler signature. A non-nil Response becomes
// the response body; a non-nil error is routed through the error-hook
// cascade. Handlers may instead build their response entirely through
// ctx.Response() and return (nil, nil).
type HandlerFunc func(ctx *Context) (Response, error)

// Hook is a request hook. It returns up to one of three signals:
//
//   - a replacement context: processing continues with it;
//   - a Response: the pipeline aborts, skipping remaining request hooks
//     and the main handler;
//   - an error: the error-hook cascade runs.
//
// Returning (nil, nil, nil) continues with the unchanged context.
type Hook func(ctx *Context) (*Context, Response, error)

// ResponseHook runs after the main handler (or after an abort) and may
// mutate the context's response builder. A returned error is routed
// through the error-hook cascade.
type ResponseHook func(ctx *Context) error

// ErrorHook handles an error raised by request hooks, the main handler or
// response hooks. Returning a non-nil Response stops the cascade and makes
// it the response. Returning (nil, nil) passes the error to the next error
// hook. An error returned by the hook itself is logged and the cascade
// continues.
type ErrorHook func(ctx *Context, err error) (Response, error)

// FinallyHook runs during finalization, after the deferred-callback flush.
// Panics are recovered and logged per hook.
type FinallyHook func(ctx *Context)
