package response

import (
	"errors"
	"net/http"
)

// HTTPError represents a structured error response that implements the
// error interface.
type HTTPError struct {
	Status  int            `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e HTTPError) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status code for the error. This allows
// HTTPError to work with the router's statusCode interface.
func (e HTTPError) StatusCode() int {
	return e.Status
}

// WithMessage returns a copy of the error with a custom message.
func (e HTTPError) WithMessage(message string) HTTPError {
	e.Message = message
	return e
}

// WithDetails returns a copy of the error with the given details merged
// over any existing ones.
func (e HTTPError) WithDetails(details map[string]any) HTTPError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	e.Details = merged
	return e
}

// WithError returns a copy of the error with an error cause attached to
// its details.
func (e HTTPError) WithError(err error) HTTPError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details["cause"] = err.Error()
	e.Details = details
	return e
}

// Predefined HTTP errors using http.StatusText for default messages.
var (
	ErrBadRequest = HTTPError{
		Status:  http.StatusBadRequest,
		Code:    "bad_request",
		Message: http.StatusText(http.StatusBadRequest),
	}

	ErrUnauthorized = HTTPError{
		Status:  http.StatusUnauthorized,
		Code:    "unauthorized",
		Message: http.StatusText(http.StatusUnauthorized),
	}

	ErrForbidden = HTTPError{
		Status:  http.StatusForbidden,
		Code:    "forbidden",
		Message: http.StatusText(http.StatusForbidden),
	}

	ErrNotFound = HTTPError{
		Status:  http.StatusNotFound,
		Code:    "not_found",
		Message: http.StatusText(http.StatusNotFound),
	}

	ErrMethodNotAllowed = HTTPError{
		Status:  http.StatusMethodNotAllowed,
		Code:    "method_not_allowed",
		Message: http.StatusText(http.StatusMethodNotAllowed),
	}

	ErrUnsupportedMediaType = HTTPError{
		Status:  http.StatusUnsupportedMediaType,
		Code:    "unsupported_media_type",
		Message: http.StatusText(http.StatusUnsupportedMediaType),
	}

	ErrUnprocessableEntity = HTTPError{
		Status:  http.StatusUnprocessableEntity,
		Code:    "unprocessable_entity",
		Message: http.StatusText(http.StatusUnprocessableEntity),
	}

	ErrTooManyRequests = HTTPError{
		Status:  http.StatusTooManyRequests,
		Code:    "too_many_requests",
		Message: http.StatusText(http.StatusTooManyRequests),
	}

	ErrInternalServerError = HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_server_error",
		Message: http.StatusText(http.StatusInternalServerError),
	}
)

// statusCode is an interface that errors can implement to provide a custom
// HTTP status code.
type statusCode interface {
	StatusCode() int
}

// ToHTTPError converts any error into an HTTPError, preserving an existing
// HTTPError, honoring the statusCode interface, and defaulting to 500.
func ToHTTPError(err error) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	if sc, ok := err.(statusCode); ok {
		switch sc.StatusCode() {
		case http.StatusBadRequest:
			return ErrBadRequest.WithError(err)
		case http.StatusUnauthorized:
			return ErrUnauthorized.WithError(err)
		case http.StatusForbidden:
			return ErrForbidden.WithError(err)
		case http.StatusNotFound:
			return ErrNotFound.WithError(err)
		case http.StatusMethodNotAllowed:
			return ErrMethodNotAllowed.WithError(err)
		case http.StatusUnsupportedMediaType:
			return ErrUnsupportedMediaType.WithError(err)
		case http.StatusUnprocessableEntity:
			return ErrUnprocessableEntity.WithError(err)
		case http.StatusTooManyRequests:
			return ErrTooManyRequests.WithError(err)
		default:
			he := HTTPError{
				Status:  sc.StatusCode(),
				Code:    "error",
				Message: http.StatusText(sc.StatusCode()),
			}
			return he.WithError(err)
		}
	}

	return ErrInternalServerError.WithError(err)
}
