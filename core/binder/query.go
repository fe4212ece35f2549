package binder

import "net/http"

// Query creates a query parameter binder. Fields are matched by the
// `query` struct tag, defaulting to the lowercase field name. Slices
// accept repeated parameters or comma-separated values; pointers mark
// optional fields.
func Query() Binder {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrFailedToParseQuery)
	}
}
