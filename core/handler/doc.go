// Package handler defines the per-request Context, the response builder,
// and the hook and handler signatures shared by the router and the request
// pipeline.
//
// The Context mixes two mutation styles on purpose. The response builder
// and the deferred-callback stack are owned, single-writer values mutated
// in place; the request-extension map and the instance environment are
// replaced by shallow merge (WithReq, WithEnv), so a hook can hand a
// widened context to the next stage without affecting what earlier stages
// captured. Derived contexts share the builder and defer stack by
// reference: a defer registered before WithReq is still flushed, and the
// response object stays identical across the whole pipeline.
package handler
