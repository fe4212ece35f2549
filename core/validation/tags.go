package validation

import (
	"context"
	"fmt"
	"net/mail"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// FieldError describes a single failed rule on a struct field.
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FieldErrors aggregates all failed rules for a validated value.
type FieldErrors []FieldError

// Error implements the error interface.
func (e FieldErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// RuleFunc checks a single field value against rule parameters and returns
// a failure message, or "" when the value passes.
type RuleFunc func(value reflect.Value, params []string) string

var (
	ruleMu   sync.RWMutex
	ruleFns  = map[string]RuleFunc{
		"required": requiredRule,
		"min":      minRule,
		"max":      maxRule,
		"len":      lenRule,
		"email":    emailRule,
		"url":      urlRule,
		"uuid":     uuidRule,
		"in":       inRule,
		"regex":    regexRule,
		"numeric":  numericRule,
		"alpha":    alphaRule,
		"alphanum": alphanumRule,
		"prefix":   prefixRule,
		"suffix":   suffixRule,
		"nonzero":  nonzeroRule,
	}
	uuidRe = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// RegisterRule adds a custom rule to the tag provider's registry.
func RegisterRule(name string, fn RuleFunc) {
	ruleMu.Lock()
	defer ruleMu.Unlock()
	ruleFns[name] = fn
}

// Tags returns the built-in struct-tag validation provider. Schemas are
// struct prototypes; the value under validation must be a pointer to a
// struct of the same type, typically produced by the request binder.
//
// Rules are declared in a `validate` tag, separated by semicolons, with
// colon-separated parameters:
//
//	type CreateUser struct {
//		Name  string `json:"name" validate:"required;min:2;max:50"`
//		Email string `json:"email" validate:"required;email"`
//	}
func Tags() Validator {
	return ValidatorFunc(func(ctx context.Context, schema, value any) Result {
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Pointer || rv.IsNil() {
			return Invalid(SchemaMismatch(fmt.Errorf("validation target must be a non-nil pointer, got %T", value)))
		}
		rv = rv.Elem()
		if rv.Kind() != reflect.Struct {
			return Invalid(SchemaMismatch(fmt.Errorf("validation target must be a struct, got %s", rv.Kind())))
		}

		var errs FieldErrors
		validateStructTags(rv, "", &errs)
		if len(errs) > 0 {
			return Invalid(SchemaMismatch(errs))
		}
		return Valid(value)
	})
}

func validateStructTags(rv reflect.Value, prefix string, errs *FieldErrors) {
	rt := rv.Type()

	for i := range rv.NumField() {
		field := rv.Field(i)
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}

		tag := sf.Tag.Get("validate")
		if tag == "-" {
			continue
		}

		path := sf.Name
		if prefix != "" {
			path = prefix + "." + sf.Name
		}

		// Recurse into untagged nested structs.
		if field.Kind() == reflect.Struct && tag == "" {
			validateStructTags(field, path, errs)
			continue
		}

		if field.Kind() == reflect.Pointer {
			if field.IsNil() {
				if tag != "" {
					validateField(path, field, tag, errs)
				}
				continue
			}
			elem := field.Elem()
			if elem.Kind() == reflect.Struct && tag == "" {
				validateStructTags(elem, path, errs)
				continue
			}
			if tag != "" {
				validateField(path, elem, tag, errs)
			}
			continue
		}

		if tag == "" {
			continue
		}
		validateField(path, field, tag, errs)
	}
}

func validateField(path string, field reflect.Value, tag string, errs *FieldErrors) {
	ruleMu.RLock()
	defer ruleMu.RUnlock()

	for _, raw := range strings.Split(tag, ";") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		name, paramStr, _ := strings.Cut(raw, ":")
		name = strings.TrimSpace(name)

		var params []string
		if paramStr != "" {
			params = strings.Split(paramStr, ",")
			for i := range params {
				params[i] = strings.TrimSpace(params[i])
			}
		}

		fn, ok := ruleFns[name]
		if !ok {
			continue
		}
		if msg := fn(field, params); msg != "" {
			*errs = append(*errs, FieldError{Field: path, Rule: name, Message: msg})
		}
	}
}

func requiredRule(v reflect.Value, _ []string) string {
	ok := false
	switch v.Kind() {
	case reflect.String:
		ok = strings.TrimSpace(v.String()) != ""
	case reflect.Slice, reflect.Map, reflect.Array:
		ok = v.Len() > 0
	case reflect.Pointer, reflect.Interface:
		ok = !v.IsNil()
	case reflect.Invalid:
		ok = false
	default:
		ok = !v.IsZero()
	}
	if !ok {
		return "field is required"
	}
	return ""
}

func minRule(v reflect.Value, params []string) string {
	if len(params) < 1 {
		return ""
	}
	switch v.Kind() {
	case reflect.String:
		n, _ := strconv.Atoi(params[0])
		if len(v.String()) < n {
			return fmt.Sprintf("must be at least %d characters", n)
		}
	case reflect.Slice, reflect.Array, reflect.Map:
		n, _ := strconv.Atoi(params[0])
		if v.Len() < n {
			return fmt.Sprintf("must have at least %d items", n)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, _ := strconv.ParseInt(params[0], 10, 64)
		if v.Int() < n {
			return fmt.Sprintf("must be at least %d", n)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, _ := strconv.ParseUint(params[0], 10, 64)
		if v.Uint() < n {
			return fmt.Sprintf("must be at least %d", n)
		}
	case reflect.Float32, reflect.Float64:
		n, _ := strconv.ParseFloat(params[0], 64)
		if v.Float() < n {
			return fmt.Sprintf("must be at least %g", n)
		}
	}
	return ""
}

func maxRule(v reflect.Value, params []string) string {
	if len(params) < 1 {
		return ""
	}
	switch v.Kind() {
	case reflect.String:
		n, _ := strconv.Atoi(params[0])
		if len(v.String()) > n {
			return fmt.Sprintf("must be at most %d characters", n)
		}
	case reflect.Slice, reflect.Array, reflect.Map:
		n, _ := strconv.Atoi(params[0])
		if v.Len() > n {
			return fmt.Sprintf("must have at most %d items", n)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, _ := strconv.ParseInt(params[0], 10, 64)
		if v.Int() > n {
			return fmt.Sprintf("must be at most %d", n)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, _ := strconv.ParseUint(params[0], 10, 64)
		if v.Uint() > n {
			return fmt.Sprintf("must be at most %d", n)
		}
	case reflect.Float32, reflect.Float64:
		n, _ := strconv.ParseFloat(params[0], 64)
		if v.Float() > n {
			return fmt.Sprintf("must be at most %g", n)
		}
	}
	return ""
}

func lenRule(v reflect.Value, params []string) string {
	if len(params) < 1 {
		return ""
	}
	n, _ := strconv.Atoi(params[0])
	switch v.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		if v.Len() != n {
			return fmt.Sprintf("must have exactly %d elements", n)
		}
	}
	return ""
}

func emailRule(v reflect.Value, _ []string) string {
	if v.Kind() != reflect.String || v.String() == "" {
		return ""
	}
	if _, err := mail.ParseAddress(v.String()); err != nil {
		return "must be a valid email address"
	}
	return ""
}

func urlRule(v reflect.Value, _ []string) string {
	if v.Kind() != reflect.String || v.String() == "" {
		return ""
	}
	u, err := url.Parse(v.String())
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "must be a valid URL"
	}
	return ""
}

func uuidRule(v reflect.Value, _ []string) string {
	if v.Kind() != reflect.String || v.String() == "" {
		return ""
	}
	if !uuidRe.MatchString(v.String()) {
		return "must be a valid UUID"
	}
	return ""
}

func inRule(v reflect.Value, params []string) string {
	if v.Kind() != reflect.String || len(params) == 0 {
		return ""
	}
	for _, p := range params {
		if v.String() == p {
			return ""
		}
	}
	return fmt.Sprintf("must be one of: %s", strings.Join(params, ", "))
}

func regexRule(v reflect.Value, params []string) string {
	if v.Kind() != reflect.String || len(params) < 1 {
		return ""
	}
	re, err := regexp.Compile(params[0])
	if err != nil {
		return fmt.Sprintf("invalid regex rule: %v", err)
	}
	if !re.MatchString(v.String()) {
		return "does not match required pattern"
	}
	return ""
}

func numericRule(v reflect.Value, _ []string) string {
	if v.Kind() != reflect.String || v.String() == "" {
		return ""
	}
	if _, err := strconv.ParseFloat(v.String(), 64); err != nil {
		return "must be numeric"
	}
	return ""
}

func alphaRule(v reflect.Value, _ []string) string {
	if v.Kind() != reflect.String {
		return ""
	}
	for _, r := range v.String() {
		if !isAlpha(r) {
			return "must contain only letters"
		}
	}
	return ""
}

func alphanumRule(v reflect.Value, _ []string) string {
	if v.Kind() != reflect.String {
		return ""
	}
	for _, r := range v.String() {
		if !isAlpha(r) && (r < '0' || r > '9') {
			return "must contain only letters and digits"
		}
	}
	return ""
}

func prefixRule(v reflect.Value, params []string) string {
	if v.Kind() != reflect.String || len(params) < 1 {
		return ""
	}
	if !strings.HasPrefix(v.String(), params[0]) {
		return fmt.Sprintf("must start with %q", params[0])
	}
	return ""
}

func suffixRule(v reflect.Value, params []string) string {
	if v.Kind() != reflect.String || len(params) < 1 {
		return ""
	}
	if !strings.HasSuffix(v.String(), params[0]) {
		return fmt.Sprintf("must end with %q", params[0])
	}
	return ""
}

func nonzeroRule(v reflect.Value, _ []string) string {
	if v.IsZero() {
		return "must not be zero"
	}
	return ""
}

func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
