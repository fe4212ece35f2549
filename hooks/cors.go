package hooks

import (
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/wefthq/weft/core/handler"
)

type corsConfig struct {
	allowOrigins     []string
	allowMethods     []string
	allowHeaders     []string
	exposeHeaders    []string
	allowCredentials bool
	maxAge           int
	originFunc       func(origin string) (string, bool)
}

// CORSOption configures the CORS hook.
type CORSOption func(*corsConfig)

// WithAllowedOrigins sets the exact origins allowed to make cross-origin
// requests. Use "*" (the default) to allow any origin.
func WithAllowedOrigins(origins ...string) CORSOption {
	return func(c *corsConfig) {
		c.allowOrigins = origins
	}
}

// WithAllowedMethods sets the methods advertised in preflight responses.
func WithAllowedMethods(methods ...string) CORSOption {
	return func(c *corsConfig) {
		c.allowMethods = methods
	}
}

// WithAllowedHeaders sets the request headers advertised in preflight
// responses.
func WithAllowedHeaders(headers ...string) CORSOption {
	return func(c *corsConfig) {
		c.allowHeaders = headers
	}
}

// WithExposedHeaders sets the response headers exposed to browser scripts.
func WithExposedHeaders(headers ...string) CORSOption {
	return func(c *corsConfig) {
		c.exposeHeaders = headers
	}
}

// WithAllowCredentials permits cookies and authorization headers on
// cross-origin requests. Ignored for wildcard origins: the CORS spec
// forbids credentials with "*".
func WithAllowCredentials() CORSOption {
	return func(c *corsConfig) {
		c.allowCredentials = true
	}
}

// WithMaxAge sets how long browsers may cache preflight results, in
// seconds.
func WithMaxAge(seconds int) CORSOption {
	return func(c *corsConfig) {
		c.maxAge = seconds
	}
}

// WithOriginFunc installs custom origin validation. It takes precedence
// over WithAllowedOrigins. The function returns the origin value to echo
// and whether the origin is allowed.
func WithOriginFunc(fn func(origin string) (string, bool)) CORSOption {
	return func(c *corsConfig) {
		c.originFunc = fn
	}
}

// AllowSubdomains returns an origin function that accepts the given domain
// and all of its subdomains, with or without a port. The domain is given
// without protocol, e.g. "example.com".
func AllowSubdomains(domain string) func(origin string) (string, bool) {
	domain = strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(domain, "*."), "."))
	suffix := "." + domain

	return func(origin string) (string, bool) {
		if origin == "" {
			return "", false
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return "", false
		}
		host := strings.ToLower(u.Hostname())
		if host == domain || strings.HasSuffix(host, suffix) {
			return origin, true
		}
		return "", false
	}
}

// CORS returns a hook implementing Cross-Origin Resource Sharing. It
// answers preflight OPTIONS requests by aborting the pipeline with the
// preflight response, and stages the CORS headers on the response builder
// for actual requests.
//
// The default configuration allows any origin without credentials. For
// production, pin the origins:
//
//	hooks.CORS(
//		hooks.WithAllowedOrigins("https://app.example.com"),
//		hooks.WithAllowCredentials(),
//	)
func CORS(opts ...CORSOption) handler.Hook {
	cfg := corsConfig{
		allowMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPut,
			http.MethodPatch,
			http.MethodPost,
			http.MethodDelete,
		},
		allowHeaders: []string{
			"Accept",
			"Accept-Language",
			"Content-Language",
			"Content-Type",
			"Origin",
			"Authorization",
			DefaultRequestIDHeader,
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	allowMethods := strings.Join(cfg.allowMethods, ",")
	allowHeaders := strings.Join(cfg.allowHeaders, ",")
	exposeHeaders := strings.Join(cfg.exposeHeaders, ",")

	originSet := make(map[string]bool, len(cfg.allowOrigins))
	for _, origin := range cfg.allowOrigins {
		originSet[origin] = true
	}

	resolve := func(origin string) (string, bool) {
		if cfg.originFunc != nil {
			return cfg.originFunc(origin)
		}
		if len(cfg.allowOrigins) == 0 || originSet["*"] {
			return "*", true
		}
		if originSet[origin] {
			return origin, true
		}
		return "", false
	}

	return func(ctx *handler.Context) (*handler.Context, handler.Response, error) {
		req := ctx.Request()
		origin := req.Header.Get("Origin")
		allowedOrigin, allowed := resolve(origin)

		// Preflight: OPTIONS with Access-Control-Request-Method set.
		if req.Method == http.MethodOptions && req.Header.Get("Access-Control-Request-Method") != "" {
			return nil, preflight(cfg, allowedOrigin, allowed, allowMethods, allowHeaders, req), nil
		}

		if !allowed {
			return nil, nil, nil
		}

		headers := ctx.Response().Header()
		headers.Set("Access-Control-Allow-Origin", allowedOrigin)
		if cfg.allowCredentials && allowedOrigin != "*" {
			headers.Set("Access-Control-Allow-Credentials", "true")
		}
		if exposeHeaders != "" {
			headers.Set("Access-Control-Expose-Headers", exposeHeaders)
		}
		headers.Add("Vary", "Origin")

		return nil, nil, nil
	}
}

func preflight(cfg corsConfig, allowedOrigin string, allowed bool, allowMethods, allowHeaders string, req *http.Request) handler.Response {
	requestMethod := req.Header.Get("Access-Control-Request-Method")
	requestHeaders := req.Header.Get("Access-Control-Request-Headers")

	if !allowed || !slices.Contains(cfg.allowMethods, requestMethod) {
		return func(w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusForbidden)
			return nil
		}
	}

	return func(w http.ResponseWriter, r *http.Request) error {
		headers := w.Header()
		headers.Set("Access-Control-Allow-Origin", allowedOrigin)
		headers.Set("Access-Control-Allow-Methods", allowMethods)
		if requestHeaders != "" {
			headers.Set("Access-Control-Allow-Headers", allowHeaders)
		}
		if cfg.allowCredentials && allowedOrigin != "*" {
			headers.Set("Access-Control-Allow-Credentials", "true")
		}
		if cfg.maxAge > 0 {
			headers.Set("Access-Control-Max-Age", strconv.Itoa(cfg.maxAge))
		}
		headers.Add("Vary", "Origin")
		headers.Add("Vary", "Access-Control-Request-Method")
		headers.Add("Vary", "Access-Control-Request-Headers")

		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}
