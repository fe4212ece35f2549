package router

import (
	"github.com/wefthq/weft/core/pipeline"
	"github.com/wefthq/weft/core/validation"
)

// Route describes a registered route. Schemas and documentation metadata
// are recorded as declared, for introspection and OpenAPI generation.
type Route struct {
	Method         string
	Path           string
	Summary        string
	Description    string
	Tags           []string
	RequestSchema  *validation.RequestSchema
	ResponseSchema *validation.ResponseSchema
}

// RouteOption configures a single route at registration time.
type RouteOption func(*routeConfig)

type routeConfig struct {
	requestSchema   *validation.RequestSchema
	responseSchema  *validation.ResponseSchema
	requestFailure  pipeline.FailureHandler
	responseFailure pipeline.FailureHandler
	summary         string
	description     string
	tags            []string
}

// WithRequestSchema declares the route's request schema. Parts left nil
// are not validated.
func WithRequestSchema(s validation.RequestSchema) RouteOption {
	return func(cfg *routeConfig) {
		cfg.requestSchema = &s
	}
}

// WithResponseSchema declares the route's response schema.
func WithResponseSchema(s validation.ResponseSchema) RouteOption {
	return func(cfg *routeConfig) {
		cfg.responseSchema = &s
	}
}

// WithRequestFailureHandler sets the route-level request
// validation-failure handler, consulted before the instance-level one.
func WithRequestFailureHandler(h pipeline.FailureHandler) RouteOption {
	return func(cfg *routeConfig) {
		cfg.requestFailure = h
	}
}

// WithResponseFailureHandler sets the route-level response
// validation-failure handler.
func WithResponseFailureHandler(h pipeline.FailureHandler) RouteOption {
	return func(cfg *routeConfig) {
		cfg.responseFailure = h
	}
}

// WithSummary sets the route's one-line documentation summary.
func WithSummary(summary string) RouteOption {
	return func(cfg *routeConfig) {
		cfg.summary = summary
	}
}

// WithDescription sets the route's long-form documentation.
func WithDescription(description string) RouteOption {
	return func(cfg *routeConfig) {
		cfg.description = description
	}
}

// WithTags sets the route's documentation tags.
func WithTags(tags ...string) RouteOption {
	return func(cfg *routeConfig) {
		cfg.tags = tags
	}
}
