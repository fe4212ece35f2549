package hooks

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/wefthq/weft/core/handler"
	"github.com/wefthq/weft/core/logger"
	"github.com/wefthq/weft/core/router"
)

type loggingConfig struct {
	log           *slog.Logger
	component     string
	slowThreshold time.Duration
	skip          func(ctx *handler.Context) bool
}

// LoggingOption configures the logging hook.
type LoggingOption func(*loggingConfig)

// WithLogger sets the logger used for request log lines. Defaults to the
// context's logger.
func WithLogger(log *slog.Logger) LoggingOption {
	return func(c *loggingConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// WithComponent sets the component attribute on log lines.
func WithComponent(name string) LoggingOption {
	return func(c *loggingConfig) {
		if name != "" {
			c.component = name
		}
	}
}

// WithSlowThreshold sets the duration above which a completed request is
// logged at warning level.
func WithSlowThreshold(d time.Duration) LoggingOption {
	return func(c *loggingConfig) {
		if d > 0 {
			c.slowThreshold = d
		}
	}
}

// WithLoggingSkip skips logging for requests matching fn, typically health
// checks and metrics endpoints.
func WithLoggingSkip(fn func(ctx *handler.Context) bool) LoggingOption {
	return func(c *loggingConfig) {
		c.skip = fn
	}
}

// Logging returns a hook that logs one structured line per completed
// request: method, path, status, bytes written, and elapsed time. The line
// is emitted after the response body renders, so it reflects what actually
// went over the wire, error responses included.
//
// Requests slower than the threshold (default 5s) and 4xx responses log at
// warning level; 5xx responses log at error level.
func Logging(opts ...LoggingOption) handler.Hook {
	cfg := loggingConfig{
		component:     "http",
		slowThreshold: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(ctx *handler.Context) (*handler.Context, handler.Response, error) {
		if cfg.skip != nil && cfg.skip(ctx) {
			return nil, nil, nil
		}

		start := time.Now()

		// The wrap is installed at finalization, after the error cascade
		// has settled the body, so every outcome passes through it.
		ctx.Defer(func(ctx *handler.Context) {
			log := cfg.log
			if log == nil {
				log = ctx.Logger()
			}
			body := ctx.Response().Body()

			ctx.Response().SetBody(func(w http.ResponseWriter, r *http.Request) error {
				var err error
				if body != nil {
					err = body(w, r)
				} else {
					w.WriteHeader(ctx.Response().Status())
				}

				status := router.ResponseStatus(w)
				if status == 0 {
					status = ctx.Response().Status()
				}

				attrs := []slog.Attr{
					logger.Component(cfg.component),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.StatusCode(status),
					logger.Key("bytes_out", router.ResponseBytes(w)),
					logger.Elapsed(start),
				}
				if id, ok := GetRequestID(ctx); ok {
					attrs = append(attrs, logger.RequestID(id))
				}

				level := slog.LevelInfo
				switch {
				case status >= http.StatusInternalServerError:
					level = slog.LevelError
					if err != nil {
						attrs = append(attrs, logger.Error(err))
					}
				case status >= http.StatusBadRequest:
					level = slog.LevelWarn
				case time.Since(start) > cfg.slowThreshold:
					level = slog.LevelWarn
					attrs = append(attrs, slog.Bool("slow_request", true))
				}

				log.LogAttrs(r.Context(), level, "request completed", attrs...)
				return err
			})
		})

		return nil, nil, nil
	}
}
