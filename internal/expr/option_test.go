package expr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	expr "github.com/hanpama/objrow/internal/expr"
	option "github.com/hanpama/objrow/internal/option"
	row "github.com/hanpama/objrow/internal/row"
	types "github.com/hanpama/objrow/internal/types"
)

func TestWrapOption(t *testing.T) {
	ref := expr.NewBoundReference(0, types.String, true)
	n := must[*expr.WrapOption](t)(expr.NewWrapOption(ref, types.String))

	require.False(t, n.Nullable())
	require.True(t, types.Equal(types.ObjectOf(option.Type), n.DataType()))
	require.Equal(t, option.None(), mustEval(t, n, row.New(nil)))
	require.Equal(t, option.Some("a"), mustEval(t, n, row.New("a")))
}

func TestUnwrapOption(t *testing.T) {
	ref := expr.NewBoundReference(0, types.ObjectOf(option.Type), true)
	n := must[*expr.UnwrapOption](t)(expr.NewUnwrapOption(types.String, ref))
	require.True(t, n.Nullable())

	for _, tc := range []struct {
		name string
		in   any
		want any
	}{
		{"some", option.Some("a"), "a"},
		{"none", option.None(), nil},
		{"some nil", option.Some(nil), nil},
		{"null", nil, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, mustEval(t, n, row.New(tc.in)))
		})
	}

	t.Run("pointer", func(t *testing.T) {
		ptrRef := expr.NewBoundReference(0, types.ObjectOf(option.PtrType), true)
		pn := must[*expr.UnwrapOption](t)(expr.NewUnwrapOption(types.String, ptrRef))
		some := option.Some("p")
		require.Equal(t, "p", mustEval(t, pn, row.New(&some)))
		require.Nil(t, mustEval(t, pn, row.New((*option.Option)(nil))))
	})

	t.Run("round trip", func(t *testing.T) {
		w := must[*expr.WrapOption](t)(expr.NewWrapOption(expr.NewBoundReference(0, types.String, true), types.String))
		u := must[*expr.UnwrapOption](t)(expr.NewUnwrapOption(types.String, w))
		require.Equal(t, "v", mustEval(t, u, row.New("v")))
		require.Nil(t, mustEval(t, u, row.New(nil)))
	})

	t.Run("rewrap", func(t *testing.T) {
		some := option.Some("p")
		for _, tc := range []struct {
			name    string
			typ     *types.DataType
			in      any
			present bool
			want    any
		}{
			{"some", types.ObjectOf(option.Type), option.Some("v"), true, "v"},
			{"none", types.ObjectOf(option.Type), option.None(), false, nil},
			{"null", types.ObjectOf(option.Type), nil, false, nil},
			{"pointer some", types.ObjectOf(option.PtrType), &some, true, "p"},
			{"nil pointer", types.ObjectOf(option.PtrType), (*option.Option)(nil), false, nil},
		} {
			t.Run(tc.name, func(t *testing.T) {
				u := must[*expr.UnwrapOption](t)(expr.NewUnwrapOption(types.String, expr.NewBoundReference(0, tc.typ, true)))
				w := must[*expr.WrapOption](t)(expr.NewWrapOption(u, types.String))

				got, ok := mustEval(t, w, row.New(tc.in)).(option.Option)
				require.True(t, ok)
				require.Equal(t, tc.present, got.IsPresent())
				require.Equal(t, tc.want, got.Get())
			})
		}
	})

	t.Run("not an option", func(t *testing.T) {
		_, err := expr.NewUnwrapOption(types.String, expr.Lit("x"))
		require.True(t, expr.ErrTypeMismatch.Is(err), err)
	})
}
