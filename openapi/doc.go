// Package openapi generates OpenAPI 3.0 documents from a router's route
// records. Route schemas declared for validation double as the source of
// truth for the document: request and response prototypes are reflected
// into JSON Schema, and binding tags (path, query, header) become
// operation parameters.
//
//	r := router.New(router.WithValidator(validation.Tags()))
//	r.Post("/users", createUser,
//		router.WithSummary("Create a user"),
//		router.WithRequestSchema(validation.RequestSchema{Body: createUserRequest{}}),
//		router.WithResponseSchema(validation.ResponseSchema{Default: userResponse{}}),
//	)
//
//	spec, err := openapi.Generate("User API", "1.0.0", r.Routes())
//	if err != nil {
//		return err
//	}
//	r.Get("/openapi.json", openapi.Handler(spec))
package openapi
