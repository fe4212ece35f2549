// Package weft is an HTTP toolkit built around a per-route request
// pipeline: hooks, declarative request and response validation, and
// structured failure handling are composed once at route registration,
// so misconfigured routes fail at startup instead of at request time.
//
// A minimal service:
//
//	r := weft.NewRouter(router.WithValidator(validation.Tags()))
//	r.OnRequest(hooks.RequestID())
//	r.OnRequest(hooks.Logging())
//
//	r.Post("/users", createUser,
//		router.WithRequestSchema(weft.RequestSchema{Body: createUserRequest{}}),
//	)
//
//	if err := weft.Run(ctx, ":8080", r); err != nil {
//		log.Fatal(err)
//	}
//
// The root package re-exports the types most applications touch.
// Everything else lives in focused packages:
//
//   - core/router: routing, route groups, hook registration
//   - core/handler: request context, hook and handler signatures
//   - core/pipeline: route composition and the execution state machine
//   - core/validation: schema declarations and validators
//   - core/binder: request data binding
//   - core/response: response renderers and HTTP errors
//   - core/server: graceful HTTP server lifecycle
//   - core/config, core/logger: environment config and logging
//   - hooks: ready-made request hooks (request ID, logging, CORS, rate
//     limiting)
//   - openapi: OpenAPI 3.0 document generation from route records
package weft
