package validation

import (
	"fmt"
	"strings"
)

// Validation stages. Pre-validation failures are detected before schema
// checking proper (e.g. a missing content-type header) and map to a
// different HTTP status than schema mismatches.
const (
	StagePreValidation = "pre-validation"
	StageSchema        = "schema"
)

// Pre-validation failure types.
const (
	TypeMissingContentType   = "MISSING_CONTENT_TYPE"
	TypeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	TypeMalformedBody        = "MALFORMED_BODY"
)

// Request part names used as keys in aggregated reasons.
const (
	PartParams  = "params"
	PartHeaders = "headers"
	PartQueries = "queries"
	PartBody    = "body"
)

// Reason is provider-specific structured failure data. A reason produced
// by request validation nests per-part detail under Parts, so failure
// handlers can branch on which part failed and why.
type Reason struct {
	// Stage is StagePreValidation or StageSchema.
	Stage string

	// Type classifies pre-validation failures (e.g. TypeMissingContentType).
	// Empty for schema mismatches.
	Type string

	// Err carries the underlying provider error, if any.
	Err error

	// Parts holds per-request-part failure detail for aggregated request
	// validation reasons, keyed by PartParams, PartHeaders, PartQueries
	// and PartBody. Nil for single-value (response) reasons.
	Parts map[string]*Reason
}

// SchemaMismatch builds a schema-stage reason wrapping the provider error.
func SchemaMismatch(err error) *Reason {
	return &Reason{Stage: StageSchema, Err: err}
}

// PreValidation builds a pre-validation reason of the given type.
func PreValidation(typ string, err error) *Reason {
	return &Reason{Stage: StagePreValidation, Type: typ, Err: err}
}

// Aggregate builds a request-level reason from per-part failures.
// Returns nil when parts contains no entries.
func Aggregate(parts map[string]*Reason) *Reason {
	if len(parts) == 0 {
		return nil
	}
	r := &Reason{Stage: StageSchema, Parts: parts}
	// Promote the pre-validation marker so top-level checks work without
	// walking the part map.
	for _, p := range parts {
		if p != nil && p.Stage == StagePreValidation {
			r.Stage = StagePreValidation
			r.Type = p.Type
			break
		}
	}
	return r
}

// Part returns the nested reason for a request part, or nil.
func (r *Reason) Part(name string) *Reason {
	if r == nil || r.Parts == nil {
		return nil
	}
	return r.Parts[name]
}

// IsPreValidation reports whether the failure (or any nested part failure)
// happened before schema checking.
func (r *Reason) IsPreValidation() bool {
	if r == nil {
		return false
	}
	return r.Stage == StagePreValidation
}

// MediaTypeProblem reports whether the failure is a content-type based
// rejection, which maps to HTTP 415 instead of 400.
func (r *Reason) MediaTypeProblem() bool {
	if r == nil {
		return false
	}
	if r.Type == TypeMissingContentType || r.Type == TypeUnsupportedMediaType {
		return true
	}
	for _, p := range r.Parts {
		if p.MediaTypeProblem() {
			return true
		}
	}
	return false
}

// Error implements the error interface for logging purposes. The rendered
// message is never sent to clients by the built-in fallback handlers.
func (r *Reason) Error() string {
	if r == nil {
		return ""
	}
	if len(r.Parts) > 0 {
		parts := make([]string, 0, len(r.Parts))
		for name, p := range r.Parts {
			parts = append(parts, fmt.Sprintf("%s: %s", name, p.Error()))
		}
		return strings.Join(parts, "; ")
	}
	if r.Err != nil {
		return fmt.Sprintf("%s: %v", r.Stage, r.Err)
	}
	return r.Stage
}

// Unwrap exposes the underlying provider error to errors.Is/As.
func (r *Reason) Unwrap() error {
	if r == nil {
		return nil
	}
	return r.Err
}
