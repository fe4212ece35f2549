package pipeline_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wefthq/weft/core/handler"
	"github.com/wefthq/weft/core/pipeline"
	"github.com/wefthq/weft/core/response"
)

func newTestContext(t *testing.T, r *http.Request) (*handler.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	return handler.NewContext(w, r, nil), w
}

func serve(t *testing.T, composed pipeline.Composed, ctx *handler.Context, w *httptest.ResponseRecorder) {
	t.Helper()
	resp := composed(ctx)
	require.NotNil(t, resp)
	require.NoError(t, resp(w, ctx.Request()))
}

func TestExecutorRequestHooks(t *testing.T) {
	t.Parallel()

	t.Run("hooks run in registration order before the handler", func(t *testing.T) {
		t.Parallel()

		var order []string
		composed, err := pipeline.Compose(pipeline.Route{
			Handler: func(ctx *handler.Context) (handler.Response, error) {
				order = append(order, "handler")
				return ctx.Response().Text("ok"), nil
			},
		}, pipeline.Options{
			RequestHooks: []handler.Hook{
				func(ctx *handler.Context) (*handler.Context, handler.Response, error) {
					order = append(order, "first")
					return nil, nil, nil
				},
				func(ctx *handler.Context) (*handler.Context, handler.Response, error) {
					order = append(order, "second")
					return nil, nil, nil
				},
			},
		})
		require.NoError(t, err)

		ctx, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
		serve(t, composed, ctx, w)

		assert.Equal(t, []string{"first", "second", "handler"}, order)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})

	t.Run("context replaced by a hook is visible downstream", func(t *testing.T) {
		t.Parallel()

		var seen any
		composed, err := pipeline.Compose(pipeline.Route{
			Handler: func(ctx *handler.Context) (handler.Response, error) {
				seen = ctx.ReqValue("user")
				return ctx.Response().Text("ok"), nil
			},
		}, pipeline.Options{
			RequestHooks: []handler.Hook{
				func(ctx *handler.Context) (*handler.Context, handler.Response, error) {
					return ctx.WithReq(map[string]any{"user": "alice"}), nil, nil
				},
				func(ctx *handler.Context) (*handler.Context, handler.Response, error) {
					// The replacement from the previous hook must be in effect here.
					assert.Equal(t, "alice", ctx.ReqValue("user"))
					return nil, nil, nil
				},
			},
		})
		require.NoError(t, err)

		ctx, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
		serve(t, composed, ctx, w)

		assert.Equal(t, "alice", seen)
	})

	t.Run("abort skips remaining hooks and the handler", func(t *testing.T) {
		t.Parallel()

		var handlerRan, laterHookRan bool
		composed, err := pipeline.Compose(pipeline.Route{
			Handler: func(ctx *handler.Context) (handler.Response, error) {
				handlerRan = true
				return ctx.Response().Text("ok"), nil
			},
		}, pipeline.Options{
			RequestHooks: []handler.Hook{
				func(ctx *handler.Context) (*handler.Context, handler.Response, error) {
					return nil, response.StringWithStatus("denied", http.StatusUnauthorized), nil
				},
				func(ctx *handler.Context) (*handler.Context, handler.Response, error) {
					laterHookRan = true
					return nil, nil, nil
				},
			},
		})
		require.NoError(t, err)

		ctx, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
		serve(t, composed, ctx, w)

		assert.False(t, handlerRan)
		assert.False(t, laterHookRan)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "denied", w.Body.String())
	})

	t.Run("abort still runs response hooks and finalization", func(t *testing.T) {
		t.Parallel()

		var responseHookRan, finallyRan bool
		composed, err := pipeline.Compose(pipeline.Route{
			Handler: func(ctx *handler.Context) (handler.Response, error) {
				return ctx.Response().Text("ok"), nil
			},
		}, pipeline.Options{
			RequestHooks: []handler.Hook{
				func(ctx *handler.Context) (*handler.Context, handler.Response, error) {
					return nil, response.Status(http.StatusTooManyRequests), nil
				},
			},
			ResponseHooks: []handler.ResponseHook{
				func(ctx *handler.Context) error {
					responseHookRan = true
					return nil
				},
			},
			FinallyHooks: []handler.FinallyHook{
				func(ctx *handler.Context) {
					finallyRan = true
				},
			},
		})
		require.NoError(t, err)

		ctx, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
		serve(t, composed, ctx, w)

		assert.True(t, responseHookRan)
		assert.True(t, finallyRan)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})
}

func TestExecutorErrorCascade(t *testing.T) {
	t.Parallel()

	t.Run("first error hook returning a response wins", func(t *testing.T) {
		t.Parallel()

		var secondRan bool
		composed, err := pipeline.Compose(pipeline.Route{
			Handler: func(ctx *handler.Context) (handler.Response, error) {
				return nil, errors.New("boom")
			},
		}, pipeline.Options{
			ErrorHooks: []handler.ErrorHook{
				func(ctx *handler.Context, err error) (handler.Response, error) {
					return response.StringWithStatus("handled: "+err.Error(), http.StatusServiceUnavailable), nil
				},
				func(ctx *handler.Context, err error) (handler.Response, error) {
					secondRan = true
					return nil, nil
				},
			},
		})
		require.NoError(t, err)

		ctx, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
		serve(t, composed, ctx, w)

		assert.False(t, secondRan)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "handled: boom", w.Body.String())
	})

	t.Run("declining hook passes the error to the next one", func(t *testing.T) {
		t.Parallel()

		var firstSaw error
		composed, err := pipeline.Compose(pipeline.Route{
			Handler: func(ctx *handler.Context) (handler.Response, error) {
				return nil, errors.New("boom")
			},
		}, pipeline.Options{
			ErrorHooks: []handler.ErrorHook{
				func(ctx *handler.Context, err error) (handler.Response, error) {
					firstSaw = err
					return nil, nil
				},
				func(ctx *handler.Context, err error) (handler.Response, error) {
					return response.Status(http.StatusBadGateway), nil
				},
			},
		})
		require.NoError(t, err)

		ctx, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
		serve(t, composed, ctx, w)

		assert.EqualError(t, firstSaw, "boom")
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("failing error hook is skipped and the cascade continues", func(t *testing.T) {
		t.Parallel()

		composed, err := pipeline.Compose(pipeline.Route{
			Handler: func(ctx *handler.Context) (handler.Response, error) {
				return nil, errors.New("boom")
			},
		}, pipeline.Options{
			ErrorHooks: []handler.ErrorHook{
				func(ctx *handler.Context, err error) (handler.Response, error) {
					return nil, errors.New("hook itself failed")
				},
				func(ctx *handler.Context, err error) (handler.Response, error) {
					// Still receives the original error, not the hook's own.
					assert.EqualError(t, err, "boom")
					return response.Status(http.StatusConflict), nil
				},
			},
		})
		require.NoError(t, err)

		ctx, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
		serve(t, composed, ctx, w)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unhandled error maps to structured 500", func(t *testing.T) {
		t.Parallel()

		composed, err := pipeline.Compose(pipeline.Route{
			Handler: func(ctx *handler.Context) (handler.Response, error) {
				return nil, errors.New("boom")
			},
		}, pipeline.Options{
			ErrorHooks: []handler.ErrorHook{
				func(ctx *handler.Context, err error) (handler.Response, error) {
					return nil, nil
				},
			},
		})
		require.NoError(t, err)

		ctx, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
		serve(t, composed, ctx, w)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "internal_server_error")
	})

	t.Run("handler error carrying a status code keeps it", func(t *testing.T) {
		t.Parallel()

		composed, err := pipeline.Compose(pipeline.Route{
			Handler: func(ctx *handler.Context) (handler.Response, error) {
				return nil, response.ErrNotFound
			},
		}, pipeline.Options{
			ErrorHooks: []handler.ErrorHook{
				func(ctx *handler.Context, err error) (handler.Response, error) { return nil, nil },
			},
		})
		require.NoError(t, err)

		ctx, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/missing", nil))
		serve(t, composed, ctx, w)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "not_found")
	})

	t.Run("response hook error goes through the cascade", func(t *testing.T) {
		t.Parallel()

		var cascadeSaw error
		composed, err := pipeline.Compose(pipeline.Route{
			Handler: func(ctx *handler.Context) (handler.Response, error) {
				return ctx.Response().Text("ok"), nil
			},
		}, pipeline.Options{
			ResponseHooks: []handler.ResponseHook{
				func(ctx *handler.Context) error {
					return errors.New("post-processing failed")
				},
			},
			ErrorHooks: []handler.ErrorHook{
				func(ctx *handler.Context, err error) (handler.Response, error) {
					cascadeSaw = err
					return response.Status(http.StatusBadGateway), nil
				},
			},
		})
		require.NoError(t, err)

		ctx, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
		serve(t, composed, ctx, w)

		assert.EqualError(t, cascadeSaw, "post-processing failed")
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestExecutorPanicRecovery(t *testing.T) {
	t.Parallel()

	t.Run("handler panic reaches error hooks as PanicError", func(t *testing.T) {
		t.Parallel()

		var caught error
		composed, err := pipeline.Compose(pipeline.Route{
			Handler: func(ctx *handler.Context) (handler.Response, error) {
				panic("kaboom")
			},
		}, pipeline.Options{
			ErrorHooks: []handler.ErrorHook{
				func(ctx *handler.Context, err error) (handler.Response, error) {
					caught = err
					return response.Status(http.StatusInternalServerError), nil
				},
			},
		})
		require.NoError(t, err)

		ctx, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
		serve(t, composed, ctx, w)

		require.Error(t, caught)
		var pe pipeline.PanicError
		require.ErrorAs(t, caught, &pe)
		assert.Equal(t, "kaboom", pe.Value())
		assert.NotEmpty(t, pe.Stack())
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("panic value that is an error unwraps", func(t *testing.T) {
		t.Parallel()

		sentinel := errors.New("wrapped cause")
		var caught error
		composed, err := pipeline.Compose(pipeline.Route{
			Handler: func(ctx *handler.Context) (handler.Response, error) {
				panic(sentinel)
			},
		}, pipeline.Options{
			ErrorHooks: []handler.ErrorHook{
				func(ctx *handler.Context, err error) (handler.Response, error) {
					caught = err
					return response.Status(http.StatusInternalServerError), nil
				},
			},
		})
		require.NoError(t, err)

		ctx, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
		serve(t, composed, ctx, w)

		assert.ErrorIs(t, caught, sentinel)
	})

	t.Run("hook panic is recovered without a 200 leak", func(t *testing.T) {
		t.Parallel()

		composed, err := pipeline.Compose(pipeline.Route{
			Handler: func(ctx *handler.Context) (handler.Response, error) {
				return ctx.Response().Text("never"), nil
			},
		}, pipeline.Options{
			RequestHooks: []handler.Hook{
				func(ctx *handler.Context) (*handler.Context, handler.Response, error) {
					panic("hook down")
				},
			},
		})
		require.NoError(t, err)

		ctx, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
		serve(t, composed, ctx, w)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "never")
	})

	t.Run("panicking error hook does not break the cascade", func(t *testing.T) {
		t.Parallel()

		composed, err := pipeline.Compose(pipeline.Route{
			Handler: func(ctx *handler.Context) (handler.Response, error) {
				return nil, errors.New("boom")
			},
		}, pipeline.Options{
			ErrorHooks: []handler.ErrorHook{
				func(ctx *handler.Context, err error) (handler.Response, error) {
					panic("error hook panicked")
				},
				func(ctx *handler.Context, err error) (handler.Response, error) {
					return response.Status(http.StatusServiceUnavailable), nil
				},
			},
		})
		require.NoError(t, err)

		ctx, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
		serve(t, composed, ctx, w)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestExecutorFinalization(t *testing.T) {
	t.Parallel()

	t.Run("defers flush LIFO after the handler", func(t *testing.T) {
		t.Parallel()

		var order []string
		composed, err := pipeline.Compose(pipeline.Route{
			Handler: func(ctx *handler.Context) (handler.Response, error) {
				ctx.Defer(func(*handler.Context) { order = append(order, "first registered") })
				ctx.Defer(func(*handler.Context) { order = append(order, "second registered") })
				order = append(order, "handler")
				return ctx.Response().Text("ok"), nil
			},
		}, pipeline.Options{
			FinallyHooks: []handler.FinallyHook{
				func(ctx *handler.Context) { order = append(order, "finally") },
			},
		})
		require.NoError(t, err)

		ctx, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
		serve(t, composed, ctx, w)

		assert.Equal(t, []string{"handler", "second registered", "first registered", "finally"}, order)
	})

	t.Run("hook defers flush LIFO when a later hook responds early", func(t *testing.T) {
		t.Parallel()

		var order []string
		composed, err := pipeline.Compose(pipeline.Route{
			Handler: func(ctx *handler.Context) (handler.Response, error) {
				order = append(order, "handler")
				return ctx.Response().Text("ok"), nil
			},
		}, pipeline.Options{
			RequestHooks: []handler.Hook{
				func(ctx *handler.Context) (*handler.Context, handler.Response, error) {
					ctx.Defer(func(*handler.Context) { order = append(order, "hook1 cleanup") })
					return nil, nil, nil
				},
				func(ctx *handler.Context) (*handler.Context, handler.Response, error) {
					ctx.Defer(func(*handler.Context) { order = append(order, "hook2 cleanup") })
					return nil, ctx.Response().Text("early"), nil
				},
			},
		})
		require.NoError(t, err)

		ctx, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
		serve(t, composed, ctx, w)

		assert.Equal(t, []string{"hook2 cleanup", "hook1 cleanup"}, order)
		assert.Equal(t, "early", w.Body.String())
	})

	t.Run("defers flush even when the handler panics", func(t *testing.T) {
		t.Parallel()

		var flushed bool
		composed, err := pipeline.Compose(pipeline.Route{
			Handler: func(ctx *handler.Context) (handler.Response, error) {
				ctx.Defer(func(*handler.Context) { flushed = true })
				panic("down")
			},
		}, pipeline.Options{
			FinallyHooks: []handler.FinallyHook{func(ctx *handler.Context) {}},
		})
		require.NoError(t, err)

		ctx, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
		serve(t, composed, ctx, w)

		assert.True(t, flushed)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("defers registered before a context replacement still flush", func(t *testing.T) {
		t.Parallel()

		var flushed bool
		composed, err := pipeline.Compose(pipeline.Route{
			Handler: func(ctx *handler.Context) (handler.Response, error) {
				return ctx.Response().Text("ok"), nil
			},
		}, pipeline.Options{
			RequestHooks: []handler.Hook{
				func(ctx *handler.Context) (*handler.Context, handler.Response, error) {
					ctx.Defer(func(*handler.Context) { flushed = true })
					return ctx.WithReq(map[string]any{"k": "v"}), nil, nil
				},
			},
		})
		require.NoError(t, err)

		ctx, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
		serve(t, composed, ctx, w)

		assert.True(t, flushed)
	})

	t.Run("panicking defer does not stop the remaining ones", func(t *testing.T) {
		t.Parallel()

		var secondRan bool
		composed, err := pipeline.Compose(pipeline.Route{
			Handler: func(ctx *handler.Context) (handler.Response, error) {
				ctx.Defer(func(*handler.Context) { secondRan = true })
				ctx.Defer(func(*handler.Context) { panic("cleanup failed") })
				return ctx.Response().Text("ok"), nil
			},
		}, pipeline.Options{
			FinallyHooks: []handler.FinallyHook{func(ctx *handler.Context) {}},
		})
		require.NoError(t, err)

		ctx, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
		serve(t, composed, ctx, w)

		assert.True(t, secondRan)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("finally hooks run even on the error path", func(t *testing.T) {
		t.Parallel()

		var finallyRan bool
		composed, err := pipeline.Compose(pipeline.Route{
			Handler: func(ctx *handler.Context) (handler.Response, error) {
				return nil, errors.New("boom")
			},
		}, pipeline.Options{
			FinallyHooks: []handler.FinallyHook{
				func(ctx *handler.Context) {
					finallyRan = true
				},
			},
		})
		require.NoError(t, err)

		ctx, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
		serve(t, composed, ctx, w)

		assert.True(t, finallyRan)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
