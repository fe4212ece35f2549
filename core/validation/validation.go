package validation

import "context"

// Validator is the schema-checking capability consumed by the request
// pipeline. Implementations decide what a schema is: the built-in Tags
// provider accepts struct prototypes with `validate` tags, while custom
// providers may accept arbitrary schema descriptions.
type Validator interface {
	// Validate checks value against schema. The returned Result carries
	// either the validated (possibly transformed) value or a structured
	// failure reason.
	Validate(ctx context.Context, schema, value any) Result
}

// ValidatorFunc is an adapter to allow the use of ordinary functions
// as Validators.
type ValidatorFunc func(ctx context.Context, schema, value any) Result

// Validate implements the Validator interface.
func (f ValidatorFunc) Validate(ctx context.Context, schema, value any) Result {
	return f(ctx, schema, value)
}

// Result is the outcome of a single validation call.
type Result struct {
	OK     bool
	Value  any     // validated value, set when OK
	Reason *Reason // structured failure detail, set when !OK
}

// Valid builds a successful Result carrying the validated value.
func Valid(value any) Result {
	return Result{OK: true, Value: value}
}

// Invalid builds a failed Result with the given reason.
func Invalid(reason *Reason) Result {
	return Result{OK: false, Reason: reason}
}
