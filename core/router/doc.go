// Package router provides HTTP routing with per-route composed pipelines.
//
// Routes are matched by a segment tree supporting static segments, {name}
// parameters and a trailing * wildcard, with static-over-parameter
// precedence. At registration each route is composed with the hooks,
// validator and failure handlers configured on the owning router, so
// serving a request runs no per-request assembly.
//
// Basic usage:
//
//	r := router.New(
//		router.WithLogger(log),
//		router.WithValidator(validation.Tags()),
//	)
//	r.OnRequest(requestid.Hook())
//
//	r.Get("/users/{id}", getUser)
//	r.Post("/users", createUser,
//		router.WithRequestSchema(validation.RequestSchema{Body: CreateUserRequest{}}),
//		router.WithSummary("Create a user"),
//	)
//
//	http.ListenAndServe(":8080", r)
//
// Groups derive routers sharing the same tree under a path prefix. A group
// snapshots its parent's hook sets at creation, so hooks registered on the
// parent afterwards do not leak into it:
//
//	r.Group("/admin", func(g *router.Router) {
//		g.OnRequest(auth.RequireRole("admin"))
//		g.Get("/stats", stats)
//	})
package router
