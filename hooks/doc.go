// Package hooks provides ready-made request hooks for common HTTP
// concerns: request IDs, structured request logging, CORS, and rate
// limiting.
//
// Every hook in this package is an ordinary handler.Hook and registers
// through the router like any user-written hook:
//
//	r := router.New(router.WithLogger(log))
//	r.OnRequest(hooks.RequestID())
//	r.OnRequest(hooks.Logging(hooks.WithLogger(log)))
//	r.OnRequest(hooks.CORS(hooks.WithAllowedOrigins("https://app.example.com")))
//	r.OnRequest(hooks.RateLimit(limiter))
//
// Hooks run in registration order. RequestID should be registered before
// Logging so log lines carry the request ID.
package hooks
