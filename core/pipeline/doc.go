// Package pipeline assembles per-route request pipelines. A pipeline is
// composed once at registration time from the route's handler, its request
// and response schemas, and the hook sets registered on the owning router
// instance; serving a request then runs the precomposed steps with no
// per-request assembly cost.
//
// A full pipeline runs request hooks, request validation, the route
// handler, response validation, response hooks, the error-hook cascade on
// failure, and a finalization phase (deferred callbacks plus finally
// hooks) that is guaranteed to run exactly once. Routes that declare none
// of these get a minimal wrapper instead.
//
// Validation failures are routed through a cascade of failure handlers:
// route-level first, then instance-level, then a built-in fallback.
// Request failures always produce an HTTP error (415 for media-type
// rejections, 400 otherwise); response failures fail open and ship the
// response as-is unless a handler intervenes.
package pipeline
