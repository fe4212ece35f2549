package openapi

import (
	"fmt"

	"github.com/swaggest/openapi-go/openapi3"

	"github.com/wefthq/weft/core/handler"
	"github.com/wefthq/weft/core/response"
	"github.com/wefthq/weft/core/router"
)

type config struct {
	description string
	servers     []string
}

// Option configures document generation.
type Option func(*config)

// WithDescription sets the document-level description.
func WithDescription(description string) Option {
	return func(c *config) {
		c.description = description
	}
}

// WithServers adds server URLs to the document.
func WithServers(urls ...string) Option {
	return func(c *config) {
		c.servers = append(c.servers, urls...)
	}
}

// Generate builds an OpenAPI 3.0 document from route records. Each route
// becomes one operation; its declared request and response schemas are
// reflected into JSON Schema. Routes without schemas are documented with
// an empty 200 response.
func Generate(title, version string, routes []router.Route, opts ...Option) (*openapi3.Spec, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	spec := &openapi3.Spec{
		Openapi: "3.0.3",
		Info: openapi3.Info{
			Title:   title,
			Version: version,
		},
	}
	if cfg.description != "" {
		spec.Info.Description = &cfg.description
	}
	for _, url := range cfg.servers {
		spec.Servers = append(spec.Servers, openapi3.Server{URL: url})
	}

	for _, rt := range routes {
		op, err := operationFor(rt)
		if err != nil {
			return nil, fmt.Errorf("route %s %s: %w", rt.Method, rt.Path, err)
		}
		if err := spec.AddOperation(rt.Method, rt.Path, op); err != nil {
			return nil, fmt.Errorf("route %s %s: %w", rt.Method, rt.Path, err)
		}
	}

	return spec, nil
}

// Handler returns a route handler serving the document as JSON, typically
// registered at /openapi.json.
func Handler(spec *openapi3.Spec) handler.HandlerFunc {
	return func(ctx *handler.Context) (handler.Response, error) {
		return response.JSON(spec), nil
	}
}
