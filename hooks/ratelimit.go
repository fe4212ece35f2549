package hooks

import (
	"fmt"
	"strconv"

	"github.com/wefthq/weft/core/handler"
	"github.com/wefthq/weft/core/response"
	"github.com/wefthq/weft/pkg/clientip"
	"github.com/wefthq/weft/pkg/ratelimiter"
)

type rateLimitConfig struct {
	keyFunc       func(ctx *handler.Context) string
	deniedHandler func(ctx *handler.Context, result ratelimiter.Result) handler.Response
	noHeaders     bool
}

// RateLimitOption configures the rate-limit hook.
type RateLimitOption func(*rateLimitConfig)

// WithRateLimitKeyFunc sets the function extracting the limiting key from
// a request. Defaults to the client IP.
func WithRateLimitKeyFunc(fn func(ctx *handler.Context) string) RateLimitOption {
	return func(c *rateLimitConfig) {
		if fn != nil {
			c.keyFunc = fn
		}
	}
}

// WithRateLimitDeniedHandler sets the response produced when a request is
// over the limit. Defaults to a 429 with retry information.
func WithRateLimitDeniedHandler(fn func(ctx *handler.Context, result ratelimiter.Result) handler.Response) RateLimitOption {
	return func(c *rateLimitConfig) {
		if fn != nil {
			c.deniedHandler = fn
		}
	}
}

// WithoutRateLimitHeaders disables the X-RateLimit-* response headers.
func WithoutRateLimitHeaders() RateLimitOption {
	return func(c *rateLimitConfig) {
		c.noHeaders = true
	}
}

// RateLimit returns a hook enforcing the given limiter per client. Allowed
// requests continue with X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset headers staged on the response; requests over the
// limit abort with 429 and a Retry-After header. A store failure raises an
// error through the pipeline's error cascade.
//
// Panics if limiter is nil: a route group configured for rate limiting
// without a limiter is a programming error.
func RateLimit(limiter ratelimiter.RateLimiter, opts ...RateLimitOption) handler.Hook {
	if limiter == nil {
		panic("hooks: rate limit hook requires a limiter")
	}

	cfg := rateLimitConfig{
		keyFunc: func(ctx *handler.Context) string {
			return clientip.GetIP(ctx.Request())
		},
		deniedHandler: func(ctx *handler.Context, result ratelimiter.Result) handler.Response {
			err := response.ErrTooManyRequests
			if retry := result.RetryAfter(); retry > 0 {
				err = err.WithDetails(map[string]any{
					"retry_after": fmt.Sprintf("%.0f", retry.Seconds()),
				})
			}
			return response.Error(err)
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(ctx *handler.Context) (*handler.Context, handler.Response, error) {
		result, err := limiter.Allow(ctx, cfg.keyFunc(ctx))
		if err != nil {
			return nil, nil, fmt.Errorf("rate limit check: %w", err)
		}

		if !cfg.noHeaders {
			headers := ctx.Response().Header()
			headers.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			headers.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
			headers.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
		}

		if !result.Allowed() {
			if retry := result.RetryAfter(); retry > 0 {
				ctx.Response().Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
			}
			return nil, cfg.deniedHandler(ctx, result), nil
		}

		return nil, nil, nil
	}
}
