package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/wefthq/weft/core/handler"
	"github.com/wefthq/weft/core/logger"
	"github.com/wefthq/weft/core/pipeline"
	"github.com/wefthq/weft/core/validation"
)

var allowedMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodHead:    {},
	http.MethodOptions: {},
	http.MethodConnect: {},
	http.MethodTrace:   {},
}

// registry is the routing state shared between a root router and every
// group derived from it: one tree, one route record list.
type registry struct {
	tree   *node
	routes []Route
}

// Router registers routes and serves them over HTTP. Each route's pipeline
// is composed once at registration from the route's own configuration plus
// the hooks, validator and failure handlers registered on this router
// before it.
//
// Registration is not safe for concurrent use; register everything during
// startup, then serve.
type Router struct {
	reg    *registry
	prefix string

	validator validation.Validator
	env       handler.Env
	log       *slog.Logger
	errh      ErrorHandler

	requestHooks  []handler.Hook
	responseHooks []handler.ResponseHook
	errorHooks    []handler.ErrorHook
	finallyHooks  []handler.FinallyHook

	requestFailure  pipeline.FailureHandler
	responseFailure pipeline.FailureHandler

	routed bool
}

// New creates a router with the given options.
func New(opts ...Option) *Router {
	r := &Router{
		reg:  &registry{tree: newNode()},
		log:  logger.Discard(),
		errh: defaultErrorHandler,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnRequest registers request hooks for routes registered after this call.
// Hooks must be registered before routes; late registration panics because
// it would silently apply to only some routes.
func (r *Router) OnRequest(hooks ...handler.Hook) {
	r.checkNotRouted()
	r.requestHooks = append(r.requestHooks, hooks...)
}

// OnResponse registers response hooks for routes registered after this call.
func (r *Router) OnResponse(hooks ...handler.ResponseHook) {
	r.checkNotRouted()
	r.responseHooks = append(r.responseHooks, hooks...)
}

// OnError registers error hooks for routes registered after this call.
func (r *Router) OnError(hooks ...handler.ErrorHook) {
	r.checkNotRouted()
	r.errorHooks = append(r.errorHooks, hooks...)
}

// OnFinally registers finalization hooks for routes registered after this
// call.
func (r *Router) OnFinally(hooks ...handler.FinallyHook) {
	r.checkNotRouted()
	r.finallyHooks = append(r.finallyHooks, hooks...)
}

func (r *Router) checkNotRouted() {
	if r.routed {
		panic("weft: all hooks must be registered before routes on a router")
	}
}

// Get registers a handler for GET requests.
func (r *Router) Get(pattern string, fn handler.HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodGet, pattern, fn, opts...)
}

// Post registers a handler for POST requests.
func (r *Router) Post(pattern string, fn handler.HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodPost, pattern, fn, opts...)
}

// Put registers a handler for PUT requests.
func (r *Router) Put(pattern string, fn handler.HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodPut, pattern, fn, opts...)
}

// Patch registers a handler for PATCH requests.
func (r *Router) Patch(pattern string, fn handler.HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodPatch, pattern, fn, opts...)
}

// Delete registers a handler for DELETE requests.
func (r *Router) Delete(pattern string, fn handler.HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodDelete, pattern, fn, opts...)
}

// Head registers a handler for HEAD requests.
func (r *Router) Head(pattern string, fn handler.HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodHead, pattern, fn, opts...)
}

// Options registers a handler for OPTIONS requests.
func (r *Router) Options(pattern string, fn handler.HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodOptions, pattern, fn, opts...)
}

// Handle registers a handler for one HTTP method. The route's pipeline is
// composed here, once; a misconfigured route (schema without validator,
// nil handler, invalid pattern) panics at registration instead of failing
// requests later.
func (r *Router) Handle(method, pattern string, fn handler.HandlerFunc, opts ...RouteOption) {
	method = strings.ToUpper(method)
	if _, ok := allowedMethods[method]; !ok {
		panic(fmt.Errorf("%w: %s", ErrInvalidMethod, method))
	}
	if len(pattern) == 0 || pattern[0] != '/' {
		panic(fmt.Errorf("%w: '%s'", ErrInvalidPattern, pattern))
	}
	if fn == nil {
		panic(fmt.Errorf("%w: %s '%s'", ErrNilHandler, method, pattern))
	}

	cfg := routeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	composed, err := pipeline.Compose(pipeline.Route{
		Handler:         fn,
		RequestSchema:   cfg.requestSchema,
		ResponseSchema:  cfg.responseSchema,
		RequestFailure:  cfg.requestFailure,
		ResponseFailure: cfg.responseFailure,
	}, pipeline.Options{
		Validator:       r.validator,
		RequestHooks:    r.requestHooks,
		ResponseHooks:   r.responseHooks,
		ErrorHooks:      r.errorHooks,
		FinallyHooks:    r.finallyHooks,
		RequestFailure:  r.requestFailure,
		ResponseFailure: r.responseFailure,
		Logger:          r.log,
	})
	if err != nil {
		panic(fmt.Errorf("weft: route %s '%s': %w", method, pattern, err))
	}

	full := r.prefix + pattern
	if r.prefix != "" && pattern == "/" {
		full = r.prefix
	}

	r.reg.tree.insert(method, full, composed)
	r.reg.routes = append(r.reg.routes, Route{
		Method:         method,
		Path:           full,
		Summary:        cfg.summary,
		Description:    cfg.description,
		Tags:           slices.Clone(cfg.tags),
		RequestSchema:  cfg.requestSchema,
		ResponseSchema: cfg.responseSchema,
	})
	r.routed = true
}

// Group creates a derived router under prefix. The group snapshots the
// parent's hooks, validator and failure handlers at creation; hooks added
// to the group afterwards affect only routes registered through it. Routes
// land in the shared tree, so the root router serves them all.
func (r *Router) Group(prefix string, fn func(g *Router)) *Router {
	if prefix != "" && prefix != "/" {
		if prefix[0] != '/' {
			panic(fmt.Errorf("%w: group prefix '%s'", ErrInvalidPattern, prefix))
		}
		prefix = strings.TrimSuffix(prefix, "/")
	}
	if prefix == "/" {
		prefix = ""
	}

	g := &Router{
		reg:    r.reg,
		prefix: r.prefix + prefix,

		validator: r.validator,
		env:       r.env,
		log:       r.log,
		errh:      r.errh,

		requestHooks:  slices.Clone(r.requestHooks),
		responseHooks: slices.Clone(r.responseHooks),
		errorHooks:    slices.Clone(r.errorHooks),
		finallyHooks:  slices.Clone(r.finallyHooks),

		requestFailure:  r.requestFailure,
		responseFailure: r.responseFailure,
	}
	if fn != nil {
		fn(g)
	}
	return g
}

// Route is an alias for Group matching the chaining style of sub-resource
// registration.
func (r *Router) Route(prefix string, fn func(g *Router)) *Router {
	if fn == nil {
		panic(fmt.Errorf("%w on '%s'", ErrNilSubrouter, prefix))
	}
	return r.Group(prefix, fn)
}

// Routes returns the registered route records, including those added via
// groups. The records feed documentation generators and debugging output.
func (r *Router) Routes() []Route {
	return slices.Clone(r.reg.routes)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ww := newResponseWriter(w)

	path := req.URL.Path
	if path == "" {
		path = "/"
	}

	ctxOpts := []handler.ContextOption{
		handler.WithLogger(r.log),
		handler.WithContextEnv(r.env),
	}

	composed, params, allowed := r.reg.tree.match(req.Method, path)
	if composed == nil {
		ctx := handler.NewContext(ww, req, nil, ctxOpts...)
		if len(allowed) > 0 {
			// Allow header per RFC 9110 before responding with 405.
			slices.Sort(allowed)
			ww.Header().Set("Allow", strings.Join(allowed, ", "))
			r.errh(ctx, ErrMethodNotAllowed)
		} else {
			r.errh(ctx, ErrNotFound)
		}
		return
	}

	ctx := handler.NewContext(ww, req, params, ctxOpts...)

	// The pipeline recovers its own panics; this guard covers rendering and
	// the error handler itself.
	defer func() {
		if p := recover(); p != nil {
			panicErr := pipeline.NewPanicError(p)
			if ww.Written() {
				r.log.Error("panic after response written",
					logger.Component("router"),
					logger.Method(req.Method),
					logger.Path(req.URL.Path),
					logger.StatusCode(ww.Status()),
					logger.Key("panic", panicErr.Value()),
					logger.Key("stack", string(panicErr.Stack())),
				)
				return
			}
			r.errh(ctx, panicErr)
		}
	}()

	resp := composed(ctx)
	if resp == nil {
		r.errh(ctx, ErrNilResponse)
		return
	}

	if err := resp(ww, req); err != nil {
		r.errh(ctx, err)
	}
}
