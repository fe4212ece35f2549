package binder

import "errors"

// Error variables define common binding failures that can occur during
// request processing. ErrMissingContentType and ErrUnsupportedMediaType
// are detected before any schema checking and map to HTTP 415 in the
// pipeline's fallback handling; the remaining failures map to 400.
var (
	// ErrUnsupportedMediaType indicates the Content-Type header specifies
	// a media type the binder doesn't support.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrMissingContentType indicates the request lacks a Content-Type
	// header when one is required for parsing.
	ErrMissingContentType = errors.New("missing content type")

	// ErrFailedToParseJSON indicates the request body contains invalid
	// JSON or doesn't match the target struct schema.
	ErrFailedToParseJSON = errors.New("failed to parse JSON request body")

	// ErrFailedToParseForm indicates form data parsing failed.
	ErrFailedToParseForm = errors.New("failed to parse form data")

	// ErrFailedToParseQuery indicates query parameter parsing failed,
	// typically due to type conversion errors.
	ErrFailedToParseQuery = errors.New("failed to parse query parameters")

	// ErrFailedToParsePath indicates path parameter conversion failed.
	ErrFailedToParsePath = errors.New("failed to parse path parameters")

	// ErrFailedToParseHeader indicates header parameter conversion failed.
	ErrFailedToParseHeader = errors.New("failed to parse header parameters")
)
