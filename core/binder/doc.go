// Package binder extracts and maps HTTP request data into strongly-typed
// Go structures. Binders exist for JSON bodies, form bodies, query
// parameters, path parameters and headers; each uses its own struct tag
// (`json`, `form`, `query`, `path`, `header`).
//
// Content-type failures (missing or unsupported media type) are reported
// with dedicated sentinel errors so callers can distinguish them from
// parse failures; the request pipeline maps them to HTTP 415.
package binder
