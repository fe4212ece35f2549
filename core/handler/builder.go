package handler

import (
	"encoding/json"
	"net/http"
	"reflect"
)

// ResponseBuilder accumulates the response for one request. It is created
// with the context and mutated in place by hooks and the handler: status,
// headers and body all land on the same instance, so a hook that ran early
// observes mutations made later in the pipeline.
//
// Bodies produced through the builder (JSON, Text, HTML, NoContent) record
// the logical response value, which is what response validation checks.
// A standalone Response set via SetBody renders itself and records no value.
type ResponseBuilder struct {
	status   int
	header   http.Header
	body     Response
	value    any
	valueSet bool
	owned    bool
}

// NewResponseBuilder creates an empty builder.
func NewResponseBuilder() *ResponseBuilder {
	return &ResponseBuilder{header: make(http.Header)}
}

// SetStatus sets the response status code for builder-produced bodies.
func (b *ResponseBuilder) SetStatus(code int) *ResponseBuilder {
	b.status = code
	return b
}

// Status returns the status code that a builder-produced body will write,
// defaulting to 200.
func (b *ResponseBuilder) Status() int {
	if b.status == 0 {
		return http.StatusOK
	}
	return b.status
}

// Header returns the header map applied to the response before the body
// renders.
func (b *ResponseBuilder) Header() http.Header {
	return b.header
}

// SetBody replaces the response body with a standalone renderer. The
// recorded logical value, if any, is cleared. Handing back the renderer a
// builder body method just produced is a no-op: handlers commonly return
// ctx.Response().JSON(v) directly, and reinstalling that renderer must not
// discard the value it recorded.
func (b *ResponseBuilder) SetBody(resp Response) {
	if resp == nil {
		return
	}
	if b.owned && b.body != nil &&
		reflect.ValueOf(resp).Pointer() == reflect.ValueOf(b.body).Pointer() {
		return
	}
	b.body = resp
	b.owned = false
	b.value = nil
	b.valueSet = false
}

// Body returns the current body renderer, or nil.
func (b *ResponseBuilder) Body() Response {
	return b.body
}

// Value returns the logical response value recorded by a builder-produced
// body, and whether one was recorded.
func (b *ResponseBuilder) Value() (any, bool) {
	return b.value, b.valueSet
}

// JSON sets an application/json body encoding v and records v as the
// logical response value. The returned Response may be returned from a
// handler directly.
func (b *ResponseBuilder) JSON(v any) Response {
	b.value = v
	b.valueSet = true
	b.owned = true
	b.body = func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(b.Status())
		return json.NewEncoder(w).Encode(v)
	}
	return b.body
}

// Text sets a text/plain body and records the string as the logical value.
func (b *ResponseBuilder) Text(s string) Response {
	b.value = s
	b.valueSet = true
	b.owned = true
	b.body = func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(b.Status())
		if s != "" {
			_, err := w.Write([]byte(s))
			return err
		}
		return nil
	}
	return b.body
}

// HTML sets a text/html body and records the string as the logical value.
func (b *ResponseBuilder) HTML(s string) Response {
	b.value = s
	b.valueSet = true
	b.owned = true
	b.body = func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(b.Status())
		if s != "" {
			_, err := w.Write([]byte(s))
			return err
		}
		return nil
	}
	return b.body
}

// NoContent sets an empty body with 204 No Content.
func (b *ResponseBuilder) NoContent() Response {
	b.status = http.StatusNoContent
	b.value = nil
	b.valueSet = false
	b.owned = true
	b.body = func(w http.ResponseWriter, r *http.Request) error {
		w.WriteHeader(b.Status())
		return nil
	}
	return b.body
}

// Build returns the final renderer for this request: it applies the
// accumulated headers, then renders the body. With no body set it writes
// the status code alone.
func (b *ResponseBuilder) Build() Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		dst := w.Header()
		for k, vs := range b.header {
			dst[k] = vs
		}
		if b.body == nil {
			w.WriteHeader(b.Status())
			return nil
		}
		return b.body(w, r)
	}
}
