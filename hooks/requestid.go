package hooks

import (
	"github.com/google/uuid"

	"github.com/wefthq/weft/core/handler"
)

// requestIDKey is the request-scoped value key under which the request ID
// is stored.
const requestIDKey = "request_id"

// DefaultRequestIDHeader is the header carrying the request ID.
const DefaultRequestIDHeader = "X-Request-ID"

type requestIDConfig struct {
	header      string
	generator   func() string
	useExisting bool
}

// RequestIDOption configures the request-ID hook.
type RequestIDOption func(*requestIDConfig)

// WithRequestIDHeader overrides the header name used to read and echo the
// request ID.
func WithRequestIDHeader(name string) RequestIDOption {
	return func(c *requestIDConfig) {
		if name != "" {
			c.header = name
		}
	}
}

// WithRequestIDGenerator overrides the ID generator.
func WithRequestIDGenerator(fn func() string) RequestIDOption {
	return func(c *requestIDConfig) {
		if fn != nil {
			c.generator = fn
		}
	}
}

// WithTrustedRequestID reuses an ID supplied by the client in the request
// header instead of generating a new one. Only enable this behind a proxy
// that sets or strips the header.
func WithTrustedRequestID() RequestIDOption {
	return func(c *requestIDConfig) {
		c.useExisting = true
	}
}

// RequestID returns a hook that assigns each request a unique ID, stores
// it as a request-scoped value, and echoes it in the response header.
// The default generator produces UUID v4.
func RequestID(opts ...RequestIDOption) handler.Hook {
	cfg := requestIDConfig{
		header: DefaultRequestIDHeader,
		generator: func() string {
			return uuid.New().String()
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(ctx *handler.Context) (*handler.Context, handler.Response, error) {
		var id string
		if cfg.useExisting {
			id = ctx.Request().Header.Get(cfg.header)
		}
		if id == "" {
			id = cfg.generator()
		}

		ctx.Response().Header().Set(cfg.header, id)

		return ctx.WithReq(map[string]any{requestIDKey: id}), nil, nil
	}
}

// GetRequestID retrieves the request ID stored by the RequestID hook.
func GetRequestID(ctx *handler.Context) (string, bool) {
	id, ok := ctx.ReqValue(requestIDKey).(string)
	return id, ok
}
