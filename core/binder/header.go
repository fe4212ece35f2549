package binder

import (
	"net/http"
	"net/textproto"
)

// Header creates a header binder. Fields are matched by the `header`
// struct tag, defaulting to the lowercase field name; lookups use
// canonical MIME header form, so `header:"x-api-key"` matches X-Api-Key.
func Header() Binder {
	return func(r *http.Request, v any) error {
		values := make(map[string][]string, len(r.Header))
		for k, vs := range r.Header {
			values[k] = vs
		}
		return bindToStructFunc(v, "header", func(name string) []string {
			return values[textproto.CanonicalMIMEHeaderKey(name)]
		}, ErrFailedToParseHeader)
	}
}

// bindToStructFunc is bindToStruct with a lookup function instead of a
// value map, for sources with non-literal key matching.
func bindToStructFunc(v any, tagName string, lookup func(string) []string, bindErr error) error {
	collected := make(map[string][]string)
	probe := func(name string) {
		if vs := lookup(name); len(vs) > 0 {
			collected[name] = vs
		}
	}

	// Walk the struct once to learn which names are wanted.
	names, err := fieldNames(v, tagName, bindErr)
	if err != nil {
		return err
	}
	for _, name := range names {
		probe(name)
	}

	return bindToStruct(v, tagName, collected, bindErr)
}
