// Package validation defines the schema-checking capability used by the
// request pipeline, the structured failure Reason consumed by cascading
// validation-failure handlers, and a built-in struct-tag provider.
//
// A Validator is deliberately small: it checks one value against one
// schema and reports a Result. The pipeline's validation resolver is
// responsible for splitting a request into parts (params, headers,
// queries, body), invoking the validator per declared sub-schema, and
// aggregating part failures into a single nested Reason.
//
// Pre-validation failures (missing or unsupported content type) are kept
// distinguishable from schema mismatches because they map to HTTP 415
// rather than 400.
package validation
