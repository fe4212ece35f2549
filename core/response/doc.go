// Package response provides renderers for common HTTP response kinds:
// plain text, HTML, JSON, redirects, Server-Sent Events, WebSocket
// upgrades and templ components, plus structured HTTPError values used by
// the router's error handling.
//
// Renderers return handler.Response functions that write headers, status
// and body when invoked. Handlers that participate in response validation
// should build bodies through the context's response builder instead, so
// the logical response value stays observable to the pipeline.
package response
