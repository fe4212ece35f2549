package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/wefthq/weft/core/logger"
)

// Env is the instance-level environment shared by every request served by
// one router instance. It must only be mutated during initialization,
// before request serving begins; there is no synchronization protecting it.
type Env map[string]any

// Validated holds the per-part results of a successful request validation.
// Values may be type-transformed by the validator (e.g. coerced from
// strings), so they are exposed as any.
type Validated struct {
	Params  any
	Headers any
	Queries any
	Body    any
}

// deferStack is the per-request list of deferred callbacks. It is shared
// by pointer between a context and every context derived from it, so
// defers registered before a WithReq call survive the derivation. The
// flushed flag guarantees exactly one flush per request.
type deferStack struct {
	fns     []func(*Context)
	flushed bool
}

// Context is the per-request value threaded through hooks and the route
// handler. The response builder and defer stack are mutated in place and
// shared across derived contexts; the request-extension map and env are
// replaced by shallow merge, never mutated.
//
// A Context is owned exclusively by one request's execution path and is
// not safe for concurrent use.
type Context struct {
	w         http.ResponseWriter
	r         *http.Request
	params    map[string]string
	env       Env
	ext       map[string]any
	validated *Validated
	res       *ResponseBuilder
	defers    *deferStack
	log       *slog.Logger
}

// ContextOption configures a Context at creation time.
type ContextOption func(*Context)

// WithLogger sets the context's logger.
func WithLogger(log *slog.Logger) ContextOption {
	return func(c *Context) {
		if log != nil {
			c.log = log
		}
	}
}

// WithContextEnv sets the shared instance environment.
func WithContextEnv(env Env) ContextOption {
	return func(c *Context) {
		c.env = env
	}
}

// NewContext creates a per-request Context.
func NewContext(w http.ResponseWriter, r *http.Request, params map[string]string, opts ...ContextOption) *Context {
	c := &Context{
		w:      w,
		r:      r,
		params: params,
		res:    NewResponseBuilder(),
		defers: &deferStack{},
		log:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deadline delegates to the request's context.
func (c *Context) Deadline() (deadline time.Time, ok bool) {
	return c.r.Context().Deadline()
}

// Done delegates to the request's context.
func (c *Context) Done() <-chan struct{} {
	return c.r.Context().Done()
}

// Err delegates to the request's context.
func (c *Context) Err() error {
	return c.r.Context().Err()
}

// Value delegates to the request's context.
func (c *Context) Value(key any) any {
	return c.r.Context().Value(key)
}

// Request returns the *http.Request associated with the context. The raw
// request carries the caller's cancellation signal; the pipeline itself
// imposes no timeout.
func (c *Context) Request() *http.Request {
	return c.r
}

// ResponseWriter returns the http.ResponseWriter associated with the context.
func (c *Context) ResponseWriter() http.ResponseWriter {
	return c.w
}

// Param returns the value of the URL parameter by key.
func (c *Context) Param(key string) string {
	if c.params == nil {
		return ""
	}
	return c.params[key]
}

// Params returns the full path-parameter map.
func (c *Context) Params() map[string]string {
	return c.params
}

// Env returns the instance environment value for key, or nil.
func (c *Context) Env(key string) any {
	if c.env == nil {
		return nil
	}
	return c.env[key]
}

// ReqValue returns a request-extension value set by an earlier hook via
// WithReq, or nil.
func (c *Context) ReqValue(key string) any {
	if c.ext == nil {
		return nil
	}
	return c.ext[key]
}

// WithReq returns a new context whose request extensions are the shallow
// merge of the current extensions and ext. The response builder, defer
// stack and logger are carried over by reference: defers registered before
// the call are still flushed, and the response object mutated afterwards
// is the same object visible to hooks that ran earlier.
func (c *Context) WithReq(ext map[string]any) *Context {
	merged := make(map[string]any, len(c.ext)+len(ext))
	for k, v := range c.ext {
		merged[k] = v
	}
	for k, v := range ext {
		merged[k] = v
	}

	next := *c
	next.ext = merged
	return &next
}

// WithEnv returns a new context whose environment is the shallow merge of
// the current env and ext. The shared instance env map itself is never
// mutated.
func (c *Context) WithEnv(ext Env) *Context {
	merged := make(Env, len(c.env)+len(ext))
	for k, v := range c.env {
		merged[k] = v
	}
	for k, v := range ext {
		merged[k] = v
	}

	next := *c
	next.env = merged
	return &next
}

// WithValidated returns a new context exposing the validated request
// parts. It is called by the pipeline after successful request validation;
// the validated accessors return nil before that point.
func (c *Context) WithValidated(v *Validated) *Context {
	next := *c
	next.validated = v
	return &next
}

// ValidatedBody returns the validated request body. Calling it for a part
// with no declared schema returns nil.
func (c *Context) ValidatedBody() any {
	if c.validated == nil {
		return nil
	}
	return c.validated.Body
}

// ValidatedParams returns the validated path parameters.
func (c *Context) ValidatedParams() any {
	if c.validated == nil {
		return nil
	}
	return c.validated.Params
}

// ValidatedQueries returns the validated query parameters.
func (c *Context) ValidatedQueries() any {
	if c.validated == nil {
		return nil
	}
	return c.validated.Queries
}

// ValidatedHeaders returns the validated request headers.
func (c *Context) ValidatedHeaders() any {
	if c.validated == nil {
		return nil
	}
	return c.validated.Headers
}

// Response returns the mutable response builder. The same builder instance
// flows through the whole pipeline for one request.
func (c *Context) Response() *ResponseBuilder {
	return c.res
}

// Logger returns the logger bound to this context's lifecycle.
func (c *Context) Logger() *slog.Logger {
	return c.log
}

// Defer registers a callback to run after the main handler and the
// error-hook cascade have completed, regardless of outcome. Callbacks run
// in reverse registration order (LIFO), exactly once per request.
func (c *Context) Defer(fn func(*Context)) {
	if fn == nil {
		return
	}
	c.defers.fns = append(c.defers.fns, fn)
}

// FlushDefers runs the deferred callbacks in LIFO order. A panicking
// callback is logged and never prevents the remaining callbacks from
// running. Repeated calls are no-ops; the pipeline calls this once during
// finalization.
func (c *Context) FlushDefers() {
	if c.defers.flushed {
		return
	}
	c.defers.flushed = true

	for i := len(c.defers.fns) - 1; i >= 0; i-- {
		c.runDefer(c.defers.fns[i])
	}
}

func (c *Context) runDefer(fn func(*Context)) {
	defer func() {
		if p := recover(); p != nil {
			c.log.Error("deferred callback panicked", logger.Key("panic", p))
		}
	}()
	fn(c)
}
