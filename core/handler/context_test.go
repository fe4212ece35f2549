package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wefthq/weft/core/handler"
)

func newContext(t *testing.T) (*handler.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/users/42", nil)
	return handler.NewContext(w, r, map[string]string{"id": "42"}), w
}

func TestContext(t *testing.T) {
	t.Parallel()

	t.Run("exposes request and params", func(t *testing.T) {
		t.Parallel()

		ctx, _ := newContext(t)
		assert.Equal(t, "/users/42", ctx.Request().URL.Path)
		assert.Equal(t, "42", ctx.Param("id"))
		assert.Empty(t, ctx.Param("missing"))
		assert.Equal(t, map[string]string{"id": "42"}, ctx.Params())
	})

	t.Run("implements context.Context via the request", func(t *testing.T) {
		t.Parallel()

		reqCtx, cancel := context.WithCancel(context.Background())
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/", nil).WithContext(reqCtx)
		ctx := handler.NewContext(w, r, nil)

		var _ context.Context = ctx
		require.NoError(t, ctx.Err())

		cancel()
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
			t.Fatal("Done channel never closed")
		}
	})

	t.Run("env lookups", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/", nil)
		ctx := handler.NewContext(w, r, nil, handler.WithContextEnv(handler.Env{"region": "eu-west-1"}))

		assert.Equal(t, "eu-west-1", ctx.Env("region"))
		assert.Nil(t, ctx.Env("missing"))
	})

	t.Run("with req merges extensions without mutating the parent", func(t *testing.T) {
		t.Parallel()

		ctx, _ := newContext(t)
		child := ctx.WithReq(map[string]any{"user": "alice"})
		grandchild := child.WithReq(map[string]any{"role": "admin"})

		assert.Nil(t, ctx.ReqValue("user"))
		assert.Equal(t, "alice", child.ReqValue("user"))
		assert.Equal(t, "alice", grandchild.ReqValue("user"))
		assert.Equal(t, "admin", grandchild.ReqValue("role"))
	})

	t.Run("with env merges over the instance env", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/", nil)
		shared := handler.Env{"region": "eu-west-1"}
		ctx := handler.NewContext(w, r, nil, handler.WithContextEnv(shared))

		child := ctx.WithEnv(handler.Env{"region": "us-east-1", "tier": "pro"})
		assert.Equal(t, "us-east-1", child.Env("region"))
		assert.Equal(t, "pro", child.Env("tier"))
		assert.Equal(t, "eu-west-1", shared["region"])
	})

	t.Run("derived contexts share the response builder", func(t *testing.T) {
		t.Parallel()

		ctx, _ := newContext(t)
		child := ctx.WithReq(map[string]any{"k": "v"})

		child.Response().SetStatus(http.StatusTeapot)
		assert.Equal(t, http.StatusTeapot, ctx.Response().Status())
	})

	t.Run("validated accessors are nil before validation", func(t *testing.T) {
		t.Parallel()

		ctx, _ := newContext(t)
		assert.Nil(t, ctx.ValidatedBody())
		assert.Nil(t, ctx.ValidatedParams())
		assert.Nil(t, ctx.ValidatedQueries())
		assert.Nil(t, ctx.ValidatedHeaders())

		child := ctx.WithValidated(&handler.Validated{Body: "payload", Queries: 7})
		assert.Equal(t, "payload", child.ValidatedBody())
		assert.Equal(t, 7, child.ValidatedQueries())
		assert.Nil(t, ctx.ValidatedBody())
	})
}

func TestDefers(t *testing.T) {
	t.Parallel()

	t.Run("flush runs in lifo order exactly once", func(t *testing.T) {
		t.Parallel()

		ctx, _ := newContext(t)
		var order []string
		ctx.Defer(func(*handler.Context) { order = append(order, "first") })
		ctx.Defer(func(*handler.Context) { order = append(order, "second") })

		ctx.FlushDefers()
		ctx.FlushDefers()

		assert.Equal(t, []string{"second", "first"}, order)
	})

	t.Run("defers survive context derivation", func(t *testing.T) {
		t.Parallel()

		ctx, _ := newContext(t)
		ran := false
		ctx.Defer(func(*handler.Context) { ran = true })

		child := ctx.WithReq(map[string]any{"k": "v"})
		child.FlushDefers()

		assert.True(t, ran)
	})

	t.Run("panicking defer does not stop the rest", func(t *testing.T) {
		t.Parallel()

		ctx, _ := newContext(t)
		ran := false
		ctx.Defer(func(*handler.Context) { ran = true })
		ctx.Defer(func(*handler.Context) { panic("boom") })

		ctx.FlushDefers()
		assert.True(t, ran)
	})

	t.Run("nil defer is ignored", func(t *testing.T) {
		t.Parallel()

		ctx, _ := newContext(t)
		ctx.Defer(nil)
		ctx.FlushDefers()
	})
}

func TestResponseBuilder(t *testing.T) {
	t.Parallel()

	render := func(t *testing.T, ctx *handler.Context, w *httptest.ResponseRecorder) {
		t.Helper()
		require.NoError(t, ctx.Response().Build()(w, ctx.Request()))
	}

	t.Run("json body records the logical value", func(t *testing.T) {
		t.Parallel()

		ctx, w := newContext(t)
		ctx.Response().SetStatus(http.StatusCreated)
		ctx.Response().JSON(map[string]string{"id": "42"})

		value, ok := ctx.Response().Value()
		require.True(t, ok)
		assert.Equal(t, map[string]string{"id": "42"}, value)

		render(t, ctx, w)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "42", body["id"])
	})

	t.Run("text body", func(t *testing.T) {
		t.Parallel()

		ctx, w := newContext(t)
		ctx.Response().Text("hello")

		render(t, ctx, w)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hello", w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	})

	t.Run("no content", func(t *testing.T) {
		t.Parallel()

		ctx, w := newContext(t)
		ctx.Response().NoContent()

		render(t, ctx, w)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("set body clears the recorded value", func(t *testing.T) {
		t.Parallel()

		ctx, _ := newContext(t)
		ctx.Response().JSON(map[string]string{"id": "42"})
		ctx.Response().SetBody(func(w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusOK)
			return nil
		})

		_, ok := ctx.Response().Value()
		assert.False(t, ok)
	})

	t.Run("set body with the builder's own renderer keeps the value", func(t *testing.T) {
		t.Parallel()

		ctx, _ := newContext(t)
		resp := ctx.Response().JSON(map[string]string{"id": "42"})
		ctx.Response().SetBody(resp)

		value, ok := ctx.Response().Value()
		require.True(t, ok)
		assert.Equal(t, map[string]string{"id": "42"}, value)
	})

	t.Run("build applies accumulated headers", func(t *testing.T) {
		t.Parallel()

		ctx, w := newContext(t)
		ctx.Response().Header().Set("X-Custom", "yes")
		ctx.Response().Text("ok")

		render(t, ctx, w)
		assert.Equal(t, "yes", w.Header().Get("X-Custom"))
	})

	t.Run("empty builder writes the status alone", func(t *testing.T) {
		t.Parallel()

		ctx, w := newContext(t)
		ctx.Response().SetStatus(http.StatusAccepted)

		render(t, ctx, w)
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("late body mutation is visible to an earlier build", func(t *testing.T) {
		t.Parallel()

		ctx, w := newContext(t)
		built := ctx.Response().Build()
		ctx.Response().Text("late")

		require.NoError(t, built(w, ctx.Request()))
		assert.Equal(t, "late", w.Body.String())
	})
}
