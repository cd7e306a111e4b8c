package expr_test

import (
	"container/list"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	expr "github.com/hanpama/objrow/internal/expr"
	row "github.com/hanpama/objrow/internal/row"
	types "github.com/hanpama/objrow/internal/types"
)

var personSchema = types.StructOf(
	types.Field("id", types.Integer, false),
	types.Field("name", types.String, true),
)

func TestCreateExternalRow(t *testing.T) {
	n := must[*expr.CreateExternalRow](t)(expr.NewCreateExternalRow([]expr.Expression{expr.Lit(1), expr.Lit("x")}, personSchema))
	require.False(t, n.Nullable())

	got := mustEval(t, n, row.Empty)
	want := row.NewExternalRow(personSchema, []any{int32(1), "x"})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExternalRow mismatch (-want +got):\n%s", diff)
	}

	t.Run("nulls kept", func(t *testing.T) {
		n := must[*expr.CreateExternalRow](t)(expr.NewCreateExternalRow([]expr.Expression{
			expr.NewBoundReference(0, types.Integer, false),
			expr.NewBoundReference(1, types.String, true),
		}, personSchema))
		got := mustEval(t, n, row.New(int32(2), nil)).(*row.ExternalRow)
		require.Equal(t, 2, got.Len())
		require.True(t, got.IsNullAt(1))
		v, ok := got.GetAs("id")
		require.True(t, ok)
		require.Equal(t, int32(2), v)
	})

	t.Run("arity", func(t *testing.T) {
		_, err := expr.NewCreateExternalRow([]expr.Expression{expr.Lit(1)}, personSchema)
		require.True(t, expr.ErrSchemaArity.Is(err), err)
		require.EqualError(t, err, "schema struct<id:int,name:string> has 2 fields but 1 values were given")
	})

	t.Run("not a struct", func(t *testing.T) {
		_, err := expr.NewCreateExternalRow(nil, types.Integer)
		require.True(t, expr.ErrTypeMismatch.Is(err), err)
	})
}

func TestGetExternalRowField(t *testing.T) {
	ref := expr.NewBoundReference(0, types.ObjectOf(reflect.TypeOf((*row.ExternalRow)(nil))), true)
	name := must[*expr.GetExternalRowField](t)(expr.NewGetExternalRowField(ref, 1, "name"))
	require.False(t, name.Nullable())

	t.Run("value", func(t *testing.T) {
		r := row.NewExternalRow(personSchema, []any{int32(1), "ann"})
		require.Equal(t, "ann", mustEval(t, name, row.New(r)))
	})

	t.Run("null row", func(t *testing.T) {
		_, err := evalBoth(t, name, row.New(nil))
		require.True(t, expr.ErrNullExternalRow.Is(err), err)
		require.EqualError(t, err, "The input external row cannot be null.")

		_, err = evalBoth(t, name, row.New((*row.ExternalRow)(nil)))
		require.True(t, expr.ErrNullExternalRow.Is(err), err)
	})

	t.Run("null field", func(t *testing.T) {
		r := row.NewExternalRow(personSchema, []any{int32(1), nil})
		_, err := evalBoth(t, name, row.New(r))
		require.True(t, expr.ErrNullExternalRowField.Is(err), err)
		require.EqualError(t, err, "The 1th field 'name' of input row cannot be null.")
	})

	t.Run("ordinal out of range", func(t *testing.T) {
		far := must[*expr.GetExternalRowField](t)(expr.NewGetExternalRowField(ref, 5, "far"))
		_, err := evalBoth(t, far, row.New(row.NewExternalRow(personSchema, []any{int32(1), "a"})))
		require.True(t, expr.ErrFieldOrdinalOutOfRange.Is(err), err)
	})

	t.Run("wrong child type", func(t *testing.T) {
		_, err := expr.NewGetExternalRowField(expr.Lit("x"), 0, "id")
		require.True(t, expr.ErrTypeMismatch.Is(err), err)
	})
}

func TestValidateExternalType(t *testing.T) {
	for _, tc := range []struct {
		name  string
		dt    *types.DataType
		value any
		ok    bool
	}{
		{"int32", types.Integer, int32(1), true},
		{"int", types.Integer, 1, true},
		{"string for int", types.Integer, "1", false},
		{"time for date", types.Date, time.Now(), true},
		{"bytes", types.Binary, []byte("x"), true},
		{"slice for array", types.ArrayOf(types.String, true), []string{"a"}, true},
		{"list for array", types.ArrayOf(types.String, true), list.New(), true},
		{"map for array", types.ArrayOf(types.String, true), map[string]bool{}, false},
		{"row for struct", personSchema, row.NewExternalRow(personSchema, []any{int32(1), "a"}), true},
		{"object", types.ObjectOf(accountType), &Account{}, true},
		{"wrong object", types.ObjectOf(accountType), Account{}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ref := expr.NewBoundReference(0, types.ObjectOf(nil), true)
			n := must[*expr.ValidateExternalType](t)(expr.NewValidateExternalType(ref, tc.dt))
			got, err := evalBoth(t, n, row.New(tc.value))
			if !tc.ok {
				require.True(t, expr.ErrInvalidExternalType.Is(err), err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
		})
	}

	t.Run("null passes", func(t *testing.T) {
		ref := expr.NewBoundReference(0, types.ObjectOf(nil), true)
		n := must[*expr.ValidateExternalType](t)(expr.NewValidateExternalType(ref, types.Integer))
		require.Nil(t, mustEval(t, n, row.New(nil)))
	})
}
