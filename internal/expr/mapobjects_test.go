package expr_test

import (
	"container/list"
	"iter"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	collection "github.com/hanpama/objrow/internal/collection"
	expr "github.com/hanpama/objrow/internal/expr"
	row "github.com/hanpama/objrow/internal/row"
	types "github.com/hanpama/objrow/internal/types"
)

func incResolver(t *testing.T) expr.Resolver {
	fns := expr.NewFunctions()
	require.NoError(t, fns.Register("inc", func(v int32) int32 { return v + 1 }))
	return expr.NewResolver(fns)
}

func incLambda(rsv expr.Resolver, opts ...expr.InvokeOption) func(expr.Expression) (expr.Expression, error) {
	return func(v expr.Expression) (expr.Expression, error) {
		return expr.NewStaticInvoke(rsv, "inc", types.Integer, []expr.Expression{v}, opts...)
	}
}

func identity(v expr.Expression) (expr.Expression, error) { return v, nil }

func TestMapObjects(t *testing.T) {
	rsv := incResolver(t)
	ints := expr.NewBoundReference(0, types.ArrayOf(types.Integer, false), true)
	in := row.New(row.NewArray(int32(1), int32(2), int32(3)))

	for _, tc := range []struct {
		name   string
		custom reflect.Type
		want   any
	}{
		{"native", nil, []any{int32(2), int32(3), int32(4)}},
		{"list", reflect.TypeOf((*list.List)(nil)), []any{int32(2), int32(3), int32(4)}},
		{"slice", reflect.TypeOf([]int32(nil)), []int32{2, 3, 4}},
		{"widening slice", reflect.TypeOf([]int64(nil)), []int64{2, 3, 4}},
		{"fixed array", reflect.TypeOf([3]int32{}), [3]int32{2, 3, 4}},
		{"seq", reflect.TypeOf(iter.Seq[int32](nil)), []any{int32(2), int32(3), int32(4)}},
		{"set", reflect.TypeOf(map[int32]struct{}(nil)), map[int32]struct{}{2: {}, 3: {}, 4: {}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			n := must[*expr.MapObjects](t)(expr.NewMapObjects(incLambda(rsv), ints, types.Integer, false, tc.custom))
			got := mustEval(t, n, in)
			if diff := cmp.Diff(tc.want, collection.Snapshot(got)); diff != "" {
				t.Fatalf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMapObjectsFixedArrayCount(t *testing.T) {
	ints := expr.NewBoundReference(0, types.ArrayOf(types.Integer, false), true)
	n := must[*expr.MapObjects](t)(expr.NewMapObjects(identity, ints, types.Integer, false, reflect.TypeOf([3]int32{})))

	t.Run("exact", func(t *testing.T) {
		got := mustEval(t, n, row.New(row.NewArray(int32(1), int32(2), int32(3))))
		require.Equal(t, [3]int32{1, 2, 3}, got)
	})

	t.Run("too few", func(t *testing.T) {
		got, err := evalBoth(t, n, row.New(row.NewArray(int32(1))))
		require.Nil(t, got)
		require.True(t, collection.ErrCollectionUnderflow.Is(err), err)
		require.EqualError(t, err, "collection [3]int32 needs 3 elements, got 1")
	})

	t.Run("too many", func(t *testing.T) {
		_, err := evalBoth(t, n, row.New(row.NewArray(int32(1), int32(2), int32(3), int32(4))))
		require.True(t, collection.ErrCollectionOverflow.Is(err), err)
	})
}

func TestMapObjectsResultType(t *testing.T) {
	rsv := incResolver(t)
	ints := expr.NewBoundReference(0, types.ArrayOf(types.Integer, false), false)

	native := must[*expr.MapObjects](t)(expr.NewMapObjects(incLambda(rsv), ints, types.Integer, false, nil))
	require.True(t, types.Equal(types.ArrayOf(types.Integer, true), native.DataType()), native.DataType().String())
	require.True(t, native.ChecksNulls())
	require.False(t, native.Nullable())

	strict := must[*expr.MapObjects](t)(expr.NewMapObjects(incLambda(rsv, expr.WithReturnNullable(false)), ints, types.Integer, false, nil))
	require.True(t, types.Equal(types.ArrayOf(types.Integer, false), strict.DataType()))
	require.False(t, strict.ChecksNulls())

	slice := reflect.TypeOf([]int32(nil))
	custom := must[*expr.MapObjects](t)(expr.NewMapObjects(incLambda(rsv, expr.WithReturnNullable(false)), ints, types.Integer, false, slice))
	require.True(t, types.Equal(types.ObjectOf(slice), custom.DataType()))
	require.True(t, custom.ChecksNulls())

	objects := expr.NewBoundReference(0, types.ArrayOf(types.ObjectOf(accountType), false), false)
	obj := must[*expr.MapObjects](t)(expr.NewMapObjects(identity, objects, types.ObjectOf(accountType), false, nil))
	require.True(t, obj.ChecksNulls())
}

func TestMapObjectsNulls(t *testing.T) {
	rsv := incResolver(t)
	ints := expr.NewBoundReference(0, types.ArrayOf(types.Integer, true), true)

	t.Run("null input", func(t *testing.T) {
		n := must[*expr.MapObjects](t)(expr.NewMapObjects(incLambda(rsv), ints, types.Integer, true, nil))
		require.Nil(t, mustEval(t, n, row.New(nil)))
	})

	t.Run("null element into native", func(t *testing.T) {
		n := must[*expr.MapObjects](t)(expr.NewMapObjects(incLambda(rsv), ints, types.Integer, true, nil))
		got := mustEval(t, n, row.New(row.NewArray(int32(1), nil)))
		require.Equal(t, []any{int32(2), nil}, collection.Snapshot(got))
	})

	t.Run("null element into pointer slice", func(t *testing.T) {
		n := must[*expr.MapObjects](t)(expr.NewMapObjects(identity, ints, types.Integer, true, reflect.TypeOf([]*int32(nil))))
		got := mustEval(t, n, row.New(row.NewArray(nil)))
		require.Equal(t, []*int32{nil}, got)
	})

	t.Run("null element into value slice", func(t *testing.T) {
		n := must[*expr.MapObjects](t)(expr.NewMapObjects(identity, ints, types.Integer, true, reflect.TypeOf([]int32(nil))))
		_, err := evalBoth(t, n, row.New(row.NewArray(int32(1), nil)))
		require.True(t, expr.ErrNullElement.Is(err), err)
	})
}

func TestMapObjectsObjectInput(t *testing.T) {
	names := must[*expr.Literal](t)(expr.NewLiteral([]string{"a", "b"}, types.ObjectOf(reflect.TypeOf([]string(nil)))))

	t.Run("slice to native", func(t *testing.T) {
		n := must[*expr.MapObjects](t)(expr.NewMapObjects(identity, names, types.String, false, nil))
		require.Equal(t, []any{"a", "b"}, collection.Snapshot(mustEval(t, n, row.Empty)))
	})

	t.Run("list to slice", func(t *testing.T) {
		l := list.New()
		l.PushBack("x")
		l.PushBack("y")
		in := must[*expr.Literal](t)(expr.NewLiteral(l, types.ObjectOf(reflect.TypeOf(l))))
		n := must[*expr.MapObjects](t)(expr.NewMapObjects(identity, in, types.String, true, reflect.TypeOf([]string(nil))))
		require.Equal(t, []string{"x", "y"}, mustEval(t, n, row.Empty))
	})

	t.Run("set dedup", func(t *testing.T) {
		rsv := expr.NewResolver(expr.Builtins())
		set := map[int32]bool{1: true, 2: true, 3: false}
		in := must[*expr.Literal](t)(expr.NewLiteral(set, types.ObjectOf(reflect.TypeOf(set))))
		constant := func(v expr.Expression) (expr.Expression, error) {
			return expr.NewStaticInvoke(rsv, "stringOf", types.String, []expr.Expression{expr.Lit(0)})
		}
		n := must[*expr.MapObjects](t)(expr.NewMapObjects(constant, in, types.Integer, false, reflect.TypeOf(map[string]struct{}(nil))))
		require.Equal(t, map[string]struct{}{"0": {}}, mustEval(t, n, row.Empty))
	})
}

func TestMapObjectsNested(t *testing.T) {
	rsv := incResolver(t)
	inner := types.ArrayOf(types.Integer, false)
	outer := expr.NewBoundReference(0, types.ArrayOf(inner, false), false)

	n := must[*expr.MapObjects](t)(expr.NewMapObjects(func(v expr.Expression) (expr.Expression, error) {
		return expr.NewMapObjects(incLambda(rsv), v, types.Integer, false, reflect.TypeOf([]int32(nil)))
	}, outer, inner, false, reflect.TypeOf([][]int32(nil))))

	in := row.New(row.NewArray(row.NewArray(int32(1), int32(2)), row.NewArray(), row.NewArray(int32(9))))
	got := mustEval(t, n, in)
	if diff := cmp.Diff([][]int32{{2, 3}, {}, {10}}, got); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestMapObjectsBuildErrors(t *testing.T) {
	rsv := incResolver(t)
	ints := expr.NewBoundReference(0, types.ArrayOf(types.Integer, false), false)

	t.Run("unsupported output collection", func(t *testing.T) {
		_, err := expr.NewMapObjects(incLambda(rsv), ints, types.Integer, false, reflect.TypeOf(map[string]int(nil)))
		require.True(t, collection.ErrUnsupportedCollection.Is(err), err)
		require.EqualError(t, err, "unsupported collection type map[string]int")
	})

	t.Run("unsupported input collection", func(t *testing.T) {
		in := must[*expr.Literal](t)(expr.NewLiteral(struct{}{}, types.ObjectOf(reflect.TypeOf(struct{}{}))))
		_, err := expr.NewMapObjects(identity, in, types.Integer, false, nil)
		require.True(t, collection.ErrUnsupportedCollection.Is(err), err)
	})

	t.Run("scalar input", func(t *testing.T) {
		_, err := expr.NewMapObjects(identity, expr.Lit(1), types.Integer, false, nil)
		require.True(t, expr.ErrUnsupportedInput.Is(err), err)
	})
}
