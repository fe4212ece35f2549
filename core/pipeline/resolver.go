package pipeline

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/wefthq/weft/core/binder"
	"github.com/wefthq/weft/core/handler"
	"github.com/wefthq/weft/core/validation"
)

// requestCheck binds and validates the declared request parts. It returns
// the validated parts on success, or an aggregated per-part reason.
type requestCheck func(ctx *handler.Context) (*handler.Validated, *validation.Reason)

// responseCheck validates the logical response value recorded on the
// context's response builder. A nil result means the response passed or no
// schema applies to its status code.
type responseCheck func(ctx *handler.Context) *validation.Reason

// resolveRequestCheck turns a declared request schema into a bound
// validation step. A nil or empty schema resolves to nil (no validation).
// Declaring a schema without a validator is a configuration error surfaced
// at composition time, not per request.
func resolveRequestCheck(v validation.Validator, schema *validation.RequestSchema) (requestCheck, error) {
	if schema.Empty() {
		return nil, nil
	}
	if v == nil {
		return nil, ErrNoRequestValidator
	}

	return func(ctx *handler.Context) (*handler.Validated, *validation.Reason) {
		parts := make(map[string]*validation.Reason)
		out := &handler.Validated{}

		if schema.Params != nil {
			out.Params = checkPart(ctx, v, schema.Params, binder.Path(ctx.Params()), parts, validation.PartParams)
		}
		if schema.Queries != nil {
			out.Queries = checkPart(ctx, v, schema.Queries, binder.Query(), parts, validation.PartQueries)
		}
		if schema.Headers != nil {
			out.Headers = checkPart(ctx, v, schema.Headers, binder.Header(), parts, validation.PartHeaders)
		}
		if schema.Body != nil {
			out.Body = checkPart(ctx, v, schema.Body, bodyBinder(ctx.Request()), parts, validation.PartBody)
		}

		if reason := validation.Aggregate(parts); reason != nil {
			return nil, reason
		}
		return out, nil
	}, nil
}

// resolveResponseCheck turns a declared response schema into a bound
// validation step over the response builder's recorded value.
func resolveResponseCheck(v validation.Validator, schema *validation.ResponseSchema) (responseCheck, error) {
	if schema.Empty() {
		return nil, nil
	}
	if v == nil {
		return nil, ErrNoResponseValidator
	}

	return func(ctx *handler.Context) *validation.Reason {
		s := schema.ForStatus(ctx.Response().Status())
		if s == nil {
			return nil
		}

		value, ok := ctx.Response().Value()
		if !ok {
			// The handler bypassed the builder with an opaque renderer, so
			// there is nothing to check against the declared schema.
			return validation.SchemaMismatch(errors.New("response value not observable: body was not produced through the response builder"))
		}

		res := v.Validate(ctx, s, ensurePointer(value))
		if !res.OK {
			if res.Reason != nil {
				return res.Reason
			}
			return validation.SchemaMismatch(errors.New("response validation failed"))
		}
		return nil
	}, nil
}

// checkPart binds one request part into a fresh instance of the schema's
// prototype, validates it, and either records the failure under parts or
// returns the validated value.
func checkPart(ctx *handler.Context, v validation.Validator, schema any, bind binder.Binder, parts map[string]*validation.Reason, part string) any {
	target := newSchemaTarget(schema)
	if err := bind(ctx.Request(), target); err != nil {
		parts[part] = bindFailure(err)
		return nil
	}

	res := v.Validate(ctx, schema, target)
	if !res.OK {
		if res.Reason != nil {
			parts[part] = res.Reason
		} else {
			parts[part] = validation.SchemaMismatch(fmt.Errorf("%s validation failed", part))
		}
		return nil
	}
	if res.Value != nil {
		return res.Value
	}
	return target
}

// bodyBinder picks the body decoder by the request's media type. Requests
// without a Content-Type header, or with one the framework cannot decode,
// fail before schema checking and map to 4xx statuses distinct from schema
// mismatches.
func bodyBinder(r *http.Request) binder.Binder {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return failingBinder(binder.ErrMissingContentType)
	}

	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return failingBinder(fmt.Errorf("%w: %q", binder.ErrUnsupportedMediaType, ct))
	}

	switch {
	case mediaType == "application/json":
		return binder.JSON()
	case mediaType == "application/x-www-form-urlencoded", strings.HasPrefix(mediaType, "multipart/"):
		return binder.Form()
	default:
		return failingBinder(fmt.Errorf("%w: %q", binder.ErrUnsupportedMediaType, mediaType))
	}
}

func failingBinder(err error) binder.Binder {
	return func(*http.Request, any) error {
		return err
	}
}

// bindFailure classifies a binding error. Content-type problems and
// undecodable bodies are pre-validation failures; type-conversion errors
// on params, queries and headers count as ordinary schema mismatches.
func bindFailure(err error) *validation.Reason {
	switch {
	case errors.Is(err, binder.ErrMissingContentType):
		return validation.PreValidation(validation.TypeMissingContentType, err)
	case errors.Is(err, binder.ErrUnsupportedMediaType):
		return validation.PreValidation(validation.TypeUnsupportedMediaType, err)
	case errors.Is(err, binder.ErrFailedToParseJSON), errors.Is(err, binder.ErrFailedToParseForm):
		return validation.PreValidation(validation.TypeMalformedBody, err)
	default:
		return validation.SchemaMismatch(err)
	}
}

// newSchemaTarget allocates a fresh instance of the schema's prototype
// type for binding. Prototypes may be declared as values or pointers.
func newSchemaTarget(schema any) any {
	t := reflect.TypeOf(schema)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return reflect.New(t).Interface()
}

// ensurePointer wraps an addressable copy of value so providers that
// expect struct pointers (like the tags provider) work with values
// recorded by the response builder.
func ensurePointer(value any) any {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() == reflect.Pointer {
		return value
	}
	pv := reflect.New(rv.Type())
	pv.Elem().Set(rv)
	return pv.Interface()
}
