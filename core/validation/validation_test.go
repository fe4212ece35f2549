package validation_test

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wefthq/weft/core/validation"
)

type account struct {
	Name  string `validate:"required;min:2;max:10"`
	Email string `validate:"required;email"`
	Role  string `validate:"in:admin,member"`
	Age   int    `validate:"min:18"`
}

func validate(t *testing.T, value any) validation.Result {
	t.Helper()
	return validation.Tags().Validate(context.Background(), nil, value)
}

func fieldErrors(t *testing.T, res validation.Result) validation.FieldErrors {
	t.Helper()
	require.False(t, res.OK)
	require.NotNil(t, res.Reason)

	var errs validation.FieldErrors
	require.ErrorAs(t, res.Reason.Err, &errs)
	return errs
}

func TestTags(t *testing.T) {
	t.Parallel()

	t.Run("valid struct passes", func(t *testing.T) {
		t.Parallel()

		res := validate(t, &account{Name: "alice", Email: "alice@example.com", Role: "admin", Age: 30})
		require.True(t, res.OK)
		assert.Equal(t, "alice", res.Value.(*account).Name)
	})

	t.Run("collects all failures", func(t *testing.T) {
		t.Parallel()

		errs := fieldErrors(t, validate(t, &account{Name: "a", Email: "nope", Role: "guest", Age: 12}))

		rules := map[string]string{}
		for _, fe := range errs {
			rules[fe.Field] = fe.Rule
		}
		assert.Equal(t, "min", rules["Name"])
		assert.Equal(t, "email", rules["Email"])
		assert.Equal(t, "in", rules["Role"])
		assert.Equal(t, "min", rules["Age"])
	})

	t.Run("required rejects blank strings", func(t *testing.T) {
		t.Parallel()

		errs := fieldErrors(t, validate(t, &account{Name: "   ", Email: "a@b.co", Role: "admin", Age: 20}))
		require.Len(t, errs, 1)
		assert.Equal(t, "Name", errs[0].Field)
		assert.Equal(t, "required", errs[0].Rule)
	})

	t.Run("uuid rule", func(t *testing.T) {
		t.Parallel()

		type ref struct {
			ID string `validate:"uuid"`
		}

		res := validate(t, &ref{ID: "de305d54-75b4-431b-adb2-eb6b9e546014"})
		assert.True(t, res.OK)

		res = validate(t, &ref{ID: "not-a-uuid"})
		assert.False(t, res.OK)
	})

	t.Run("nested structs validate with path", func(t *testing.T) {
		t.Parallel()

		type address struct {
			City string `validate:"required"`
		}
		type person struct {
			Name    string `validate:"required"`
			Address address
		}

		errs := fieldErrors(t, validate(t, &person{Name: "alice"}))
		require.Len(t, errs, 1)
		assert.Equal(t, "Address.City", errs[0].Field)
	})

	t.Run("skipped tag is ignored", func(t *testing.T) {
		t.Parallel()

		type loose struct {
			Anything string `validate:"-"`
		}

		assert.True(t, validate(t, &loose{}).OK)
	})

	t.Run("non-pointer target fails", func(t *testing.T) {
		t.Parallel()

		res := validate(t, account{})
		require.False(t, res.OK)
		assert.Equal(t, validation.StageSchema, res.Reason.Stage)
	})

	t.Run("unknown rule is ignored", func(t *testing.T) {
		t.Parallel()

		type odd struct {
			V string `validate:"nosuchrule:1"`
		}

		assert.True(t, validate(t, &odd{V: "x"}).OK)
	})

	t.Run("registered custom rule runs", func(t *testing.T) {
		validation.RegisterRule("even", func(v reflect.Value, _ []string) string {
			if v.Kind() == reflect.Int && v.Int()%2 != 0 {
				return "must be even"
			}
			return ""
		})

		type counter struct {
			N int `validate:"even"`
		}

		assert.True(t, validate(t, &counter{N: 4}).OK)

		errs := fieldErrors(t, validate(t, &counter{N: 3}))
		require.Len(t, errs, 1)
		assert.Equal(t, "even", errs[0].Rule)
	})
}

func TestValidatorFunc(t *testing.T) {
	t.Parallel()

	called := false
	v := validation.ValidatorFunc(func(ctx context.Context, schema, value any) validation.Result {
		called = true
		return validation.Valid(value)
	})

	res := v.Validate(context.Background(), "schema", 42)
	assert.True(t, called)
	require.True(t, res.OK)
	assert.Equal(t, 42, res.Value)
}

func TestReason(t *testing.T) {
	t.Parallel()

	t.Run("aggregate promotes pre-validation", func(t *testing.T) {
		t.Parallel()

		reason := validation.Aggregate(map[string]*validation.Reason{
			validation.PartQueries: validation.SchemaMismatch(errors.New("bad limit")),
			validation.PartBody: validation.PreValidation(
				validation.TypeUnsupportedMediaType, errors.New("text/csv"),
			),
		})

		require.NotNil(t, reason)
		assert.True(t, reason.IsPreValidation())
		assert.True(t, reason.MediaTypeProblem())
		assert.NotNil(t, reason.Part(validation.PartBody))
		assert.Nil(t, reason.Part(validation.PartParams))
	})

	t.Run("aggregate of nothing is nil", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, validation.Aggregate(nil))
	})

	t.Run("schema mismatch is not a media type problem", func(t *testing.T) {
		t.Parallel()

		reason := validation.SchemaMismatch(errors.New("field missing"))
		assert.False(t, reason.IsPreValidation())
		assert.False(t, reason.MediaTypeProblem())
	})

	t.Run("nil reason helpers are safe", func(t *testing.T) {
		t.Parallel()

		var reason *validation.Reason
		assert.False(t, reason.IsPreValidation())
		assert.False(t, reason.MediaTypeProblem())
		assert.Nil(t, reason.Part(validation.PartBody))
	})
}

func TestSchemas(t *testing.T) {
	t.Parallel()

	t.Run("request schema emptiness", func(t *testing.T) {
		t.Parallel()

		var nilSchema *validation.RequestSchema
		assert.True(t, nilSchema.Empty())
		assert.True(t, (&validation.RequestSchema{}).Empty())
		assert.False(t, (&validation.RequestSchema{Body: account{}}).Empty())
	})

	t.Run("response schema status lookup", func(t *testing.T) {
		t.Parallel()

		s := &validation.ResponseSchema{
			Default: account{},
			ByStatus: map[int]any{
				http.StatusCreated: struct{ ID string }{},
			},
		}

		assert.IsType(t, struct{ ID string }{}, s.ForStatus(http.StatusCreated))
		assert.IsType(t, account{}, s.ForStatus(http.StatusOK))

		var nilSchema *validation.ResponseSchema
		assert.True(t, nilSchema.Empty())
		assert.Nil(t, nilSchema.ForStatus(http.StatusOK))
	})
}
