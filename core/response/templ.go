package response

import (
	"fmt"
	"net/http"

	"github.com/wefthq/weft/core/handler"

	"github.com/a-h/templ"
)

// Templ creates an HTML response rendering a templ component with 200 OK
// status. The component is rendered with the request's context, so it can
// access request-scoped values.
func Templ(component templ.Component) handler.Response {
	return TemplWithStatus(component, http.StatusOK)
}

// TemplWithStatus creates an HTML response rendering a templ component
// with a custom status code. Useful for error pages.
func TemplWithStatus(component templ.Component, status int) handler.Response {
	if component == nil {
		return nil
	}
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)

		if err := component.Render(r.Context(), w); err != nil {
			return fmt.Errorf("templ component render error: %w", err)
		}
		return nil
	}
}
