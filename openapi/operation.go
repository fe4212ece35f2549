package openapi

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/wefthq/weft/core/router"
	"github.com/wefthq/weft/core/validation"
)

var errNotStruct = errors.New("schema prototype must be a struct")

func operationFor(rt router.Route) (openapi3.Operation, error) {
	var op openapi3.Operation

	if rt.Summary != "" {
		op.Summary = ptr(rt.Summary)
	}
	if rt.Description != "" {
		op.Description = ptr(rt.Description)
	}
	op.Tags = rt.Tags

	if s := rt.RequestSchema; s != nil {
		parts := []struct {
			prototype any
			in        openapi3.ParameterIn
			tag       string
		}{
			{s.Params, openapi3.ParameterInPath, "path"},
			{s.Queries, openapi3.ParameterInQuery, "query"},
			{s.Headers, openapi3.ParameterInHeader, "header"},
		}
		for _, part := range parts {
			if part.prototype == nil {
				continue
			}
			params, err := structParameters(part.prototype, part.in, part.tag)
			if err != nil {
				return op, fmt.Errorf("%s parameters: %w", part.in, err)
			}
			op.Parameters = append(op.Parameters, params...)
		}

		if s.Body != nil {
			body, err := requestBody(s.Body)
			if err != nil {
				return op, fmt.Errorf("request body: %w", err)
			}
			op.RequestBody = body
		}
	}

	// Path params without a declared schema are documented as plain
	// strings so the operation still matches its path template.
	declared := make(map[string]bool)
	for _, p := range op.Parameters {
		if p.Parameter != nil && p.Parameter.In == openapi3.ParameterInPath {
			declared[p.Parameter.Name] = true
		}
	}
	for _, name := range pathParamNames(rt.Path) {
		if declared[name] {
			continue
		}
		schema, err := reflectSchema("")
		if err != nil {
			return op, err
		}
		op.Parameters = append(op.Parameters, openapi3.ParameterOrRef{
			Parameter: &openapi3.Parameter{
				Name:     name,
				In:       openapi3.ParameterInPath,
				Required: ptr(true),
				Schema:   schema,
			},
		})
	}

	responses, err := responsesFor(rt.ResponseSchema)
	if err != nil {
		return op, fmt.Errorf("responses: %w", err)
	}
	op.Responses = responses

	return op, nil
}

// structParameters turns one schema prototype into OpenAPI parameters,
// one per field carrying the binding tag. Path parameters are always
// required; other parameters are required when the validate tag says so.
func structParameters(prototype any, in openapi3.ParameterIn, tag string) ([]openapi3.ParameterOrRef, error) {
	t := reflect.TypeOf(prototype)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, errNotStruct
	}

	var params []openapi3.ParameterOrRef
	for i := range t.NumField() {
		field := t.Field(i)
		name := strings.Split(field.Tag.Get(tag), ",")[0]
		if name == "" || name == "-" || !field.IsExported() {
			continue
		}

		schema, err := reflectSchema(reflect.New(field.Type).Elem().Interface())
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}

		required := in == openapi3.ParameterInPath || hasRequiredRule(field.Tag.Get("validate"))
		params = append(params, openapi3.ParameterOrRef{
			Parameter: &openapi3.Parameter{
				Name:     name,
				In:       in,
				Required: &required,
				Schema:   schema,
			},
		})
	}
	return params, nil
}

func requestBody(prototype any) (*openapi3.RequestBodyOrRef, error) {
	schema, err := reflectSchema(prototype)
	if err != nil {
		return nil, err
	}
	return &openapi3.RequestBodyOrRef{
		RequestBody: &openapi3.RequestBody{
			Required: ptr(true),
			Content: map[string]openapi3.MediaType{
				"application/json": {Schema: schema},
			},
		},
	}, nil
}

// responsesFor maps the response schema to documented responses: Default
// documents 200, ByStatus entries document their own codes. With no
// schema at all, an empty 200 is documented.
func responsesFor(s *validation.ResponseSchema) (openapi3.Responses, error) {
	responses := openapi3.Responses{
		MapOfResponseOrRefValues: make(map[string]openapi3.ResponseOrRef),
	}

	if s == nil || s.Empty() {
		responses.MapOfResponseOrRefValues["200"] = jsonResponseDef(http.StatusOK, nil)
		return responses, nil
	}

	if s.Default != nil {
		schema, err := reflectSchema(s.Default)
		if err != nil {
			return responses, err
		}
		responses.MapOfResponseOrRefValues["200"] = jsonResponseDef(http.StatusOK, schema)
	}
	for code, prototype := range s.ByStatus {
		schema, err := reflectSchema(prototype)
		if err != nil {
			return responses, fmt.Errorf("status %d: %w", code, err)
		}
		responses.MapOfResponseOrRefValues[strconv.Itoa(code)] = jsonResponseDef(code, schema)
	}

	return responses, nil
}

func jsonResponseDef(code int, schema *openapi3.SchemaOrRef) openapi3.ResponseOrRef {
	resp := &openapi3.Response{Description: http.StatusText(code)}
	if schema != nil {
		resp.Content = map[string]openapi3.MediaType{
			"application/json": {Schema: schema},
		}
	}
	return openapi3.ResponseOrRef{Response: resp}
}

func reflectSchema(v any) (*openapi3.SchemaOrRef, error) {
	var reflector jsonschema.Reflector
	schema, err := reflector.Reflect(v, jsonschema.InlineRefs)
	if err != nil {
		return nil, err
	}

	var ref openapi3.SchemaOrRef
	ref.FromJSONSchema(schema.ToSchemaOrBool())
	return &ref, nil
}

// pathParamNames extracts {param} segment names from a route pattern.
func pathParamNames(path string) []string {
	var names []string
	for _, segment := range strings.Split(path, "/") {
		if len(segment) > 1 && segment[0] == '{' && segment[len(segment)-1] == '}' {
			names = append(names, segment[1:len(segment)-1])
		}
	}
	return names
}

// hasRequiredRule reports whether a validate tag contains the required
// rule, matching the tag grammar of the built-in validator.
func hasRequiredRule(tag string) bool {
	for rule := range strings.SplitSeq(tag, ";") {
		name, _, _ := strings.Cut(strings.TrimSpace(rule), ":")
		if name == "required" {
			return true
		}
	}
	return false
}

func ptr[T any](v T) *T {
	return &v
}
