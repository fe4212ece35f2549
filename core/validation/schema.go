package validation

// RequestSchema declares validation schemas for the individual parts of an
// incoming request. Each sub-schema is independently optional; a nil field
// means that part is not validated. The meaning of a schema value is
// provider-specific: the built-in Tags provider expects struct prototypes
// whose fields carry binding and `validate` tags.
type RequestSchema struct {
	Params  any
	Headers any
	Queries any
	Body    any
}

// Empty reports whether no sub-schema is declared.
func (s *RequestSchema) Empty() bool {
	return s == nil || (s.Params == nil && s.Headers == nil && s.Queries == nil && s.Body == nil)
}

// ResponseSchema declares validation schemas for outgoing responses,
// selected by status code. Default applies when no per-status schema
// matches.
type ResponseSchema struct {
	Default  any
	ByStatus map[int]any
}

// Empty reports whether no schema is declared.
func (s *ResponseSchema) Empty() bool {
	return s == nil || (s.Default == nil && len(s.ByStatus) == 0)
}

// ForStatus returns the schema for the given status code, falling back to
// Default. Returns nil when the status has no schema.
func (s *ResponseSchema) ForStatus(code int) any {
	if s == nil {
		return nil
	}
	if schema, ok := s.ByStatus[code]; ok {
		return schema
	}
	return s.Default
}
