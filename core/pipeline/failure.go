package pipeline

import (
	"log/slog"
	"net/http"

	"github.com/wefthq/weft/core/handler"
	"github.com/wefthq/weft/core/logger"
	"github.com/wefthq/weft/core/response"
	"github.com/wefthq/weft/core/validation"
)

// FailureHandler turns a validation failure into a response. Returning
// (nil, nil) declines the failure, passing it to the next handler in the
// cascade. A returned error is routed through the error-hook cascade.
type FailureHandler func(ctx *handler.Context, reason *validation.Reason) (handler.Response, error)

// requestFailureCascade chains the route-level handler, the instance-level
// handler and the built-in fallback. The fallback always produces a
// response: 415 for content-type rejections, 400 for everything else. The
// reason detail is logged, never sent to clients.
func requestFailureCascade(route, instance FailureHandler, log *slog.Logger) FailureHandler {
	return func(ctx *handler.Context, reason *validation.Reason) (handler.Response, error) {
		for _, h := range []FailureHandler{route, instance} {
			if h == nil {
				continue
			}
			resp, err := h(ctx, reason)
			if err != nil {
				return nil, err
			}
			if resp != nil {
				return resp, nil
			}
		}

		if reason.MediaTypeProblem() {
			return response.JSONWithStatus(response.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType), nil
		}

		log.WarnContext(ctx, "request validation failed",
			logger.Component("pipeline"),
			logger.Method(ctx.Request().Method),
			logger.Path(ctx.Request().URL.Path),
			logger.Error(reason),
		)
		return response.JSONWithStatus(response.ErrBadRequest, http.StatusBadRequest), nil
	}
}

// responseFailureCascade chains the route-level handler, the instance-level
// handler and the built-in fallback. The fallback fails open: it logs a
// warning and declines, so the original (invalid) response is still sent.
func responseFailureCascade(route, instance FailureHandler, log *slog.Logger) FailureHandler {
	return func(ctx *handler.Context, reason *validation.Reason) (handler.Response, error) {
		for _, h := range []FailureHandler{route, instance} {
			if h == nil {
				continue
			}
			resp, err := h(ctx, reason)
			if err != nil {
				return nil, err
			}
			if resp != nil {
				return resp, nil
			}
		}

		log.WarnContext(ctx, "response validation failed, sending response as-is",
			logger.Component("pipeline"),
			logger.Method(ctx.Request().Method),
			logger.Path(ctx.Request().URL.Path),
			logger.StatusCode(ctx.Response().Status()),
			logger.Error(reason),
		)
		return nil, nil
	}
}
