package binder

import "net/http"

// Path creates a path parameter binder from the router's extracted
// parameter map. Fields are matched by the `path` struct tag, defaulting
// to the lowercase field name.
func Path(params map[string]string) Binder {
	return func(r *http.Request, v any) error {
		values := make(map[string][]string, len(params))
		for k, val := range params {
			values[k] = []string{val}
		}
		return bindToStruct(v, "path", values, ErrFailedToParsePath)
	}
}
