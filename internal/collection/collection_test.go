package collection_test

import (
	"container/list"
	"iter"
	"reflect"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	collection "github.com/hanpama/objrow/internal/collection"
	row "github.com/hanpama/objrow/internal/row"
)

func TestResolve(t *testing.T) {
	for _, tc := range []struct {
		name  string
		typ   reflect.Type
		shape collection.Shape
		elem  reflect.Type
	}{
		{"nil is native", nil, collection.Native, reflect.TypeOf((*any)(nil)).Elem()},
		{"slice", reflect.TypeOf([]int32{}), collection.Array, reflect.TypeOf(int32(0))},
		{"fixed array", reflect.TypeOf([3]string{}), collection.Array, reflect.TypeOf("")},
		{"list", reflect.TypeOf(list.New()), collection.List, reflect.TypeOf((*any)(nil)).Elem()},
		{"iter.Seq", reflect.TypeOf((iter.Seq[int])(nil)), collection.Seq, reflect.TypeOf(0)},
		{"set of struct{}", reflect.TypeOf(map[string]struct{}{}), collection.Set, reflect.TypeOf("")},
		{"set of bool", reflect.TypeOf(map[int]bool{}), collection.Set, reflect.TypeOf(0)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a, err := collection.Resolve(tc.typ)
			require.NoError(t, err)
			require.Equal(t, tc.shape, a.Shape())
			require.Equal(t, tc.elem, a.Elem())
		})
	}
}

func TestResolveUnsupported(t *testing.T) {
	for _, typ := range []reflect.Type{
		reflect.TypeOf(map[string]int{}),
		reflect.TypeOf(0),
		reflect.TypeOf(struct{ A int }{}),
		reflect.TypeOf(func(int) bool { return false }),
	} {
		_, err := collection.Resolve(typ)
		require.True(t, collection.ErrUnsupportedCollection.Is(err), typ.String())
		require.Contains(t, err.Error(), typ.String())
	}
}

func build(t *testing.T, typ reflect.Type, elems ...any) any {
	t.Helper()
	a, err := collection.Resolve(typ)
	require.NoError(t, err)
	b := a.NewBuilder(len(elems), true)
	for _, e := range elems {
		require.NoError(t, b.Add(e))
	}
	got, err := b.Result()
	require.NoError(t, err)
	return got
}

func TestBuilders(t *testing.T) {
	t.Run("native", func(t *testing.T) {
		got := build(t, nil, int32(2), nil, int32(4))
		require.Equal(t, []any{int32(2), nil, int32(4)}, got.(row.ArrayData).Values())
	})

	t.Run("native normalizes typed nils", func(t *testing.T) {
		got := build(t, nil, (*int)(nil))
		require.Equal(t, []any{nil}, got.(row.ArrayData).Values())
	})

	t.Run("native without null checks stores values as given", func(t *testing.T) {
		a, _ := collection.Resolve(nil)
		b := a.NewBuilder(1, false)
		require.NoError(t, b.Add((*int)(nil)))
		got, err := b.Result()
		require.NoError(t, err)
		require.Equal(t, (*int)(nil), got.(row.ArrayData).Get(0))
	})

	t.Run("slice converts numeric elements", func(t *testing.T) {
		got := build(t, reflect.TypeOf([]int64{}), int32(2), int32(3))
		require.Equal(t, []int64{2, 3}, got)
	})

	t.Run("fixed array", func(t *testing.T) {
		got := build(t, reflect.TypeOf([3]string{}), "a", "b", "c")
		require.Equal(t, [3]string{"a", "b", "c"}, got)
	})

	t.Run("list", func(t *testing.T) {
		got := build(t, reflect.TypeOf(list.New()), int32(2), int32(3), int32(4))
		require.Equal(t, []any{int32(2), int32(3), int32(4)}, collection.Snapshot(got))
	})

	t.Run("seq", func(t *testing.T) {
		got := build(t, reflect.TypeOf((iter.Seq[int])(nil)), 1, 2, 3)
		require.Equal(t, []int{1, 2, 3}, slices.Collect(got.(iter.Seq[int])))
	})

	t.Run("set deduplicates", func(t *testing.T) {
		got := build(t, reflect.TypeOf(map[string]struct{}{}), "a", "b", "a")
		require.Equal(t, map[string]struct{}{"a": {}, "b": {}}, got)
	})

	t.Run("bool set", func(t *testing.T) {
		got := build(t, reflect.TypeOf(map[int]bool{}), 1, 1)
		require.Equal(t, map[int]bool{1: true}, got)
	})

	t.Run("pointer elements accept null", func(t *testing.T) {
		got := build(t, reflect.TypeOf([]*int{}), nil)
		require.Equal(t, []*int{nil}, got)
	})
}

func TestBuilderErrors(t *testing.T) {
	t.Run("null into non-nilable element", func(t *testing.T) {
		a, _ := collection.Resolve(reflect.TypeOf([]int32{}))
		err := a.NewBuilder(1, true).Add(nil)
		require.True(t, collection.ErrNullElement.Is(err))
	})

	t.Run("wrong element type", func(t *testing.T) {
		a, _ := collection.Resolve(reflect.TypeOf([]int32{}))
		err := a.NewBuilder(1, true).Add("x")
		require.True(t, collection.ErrElementType.Is(err))
	})

	t.Run("fixed array overflow", func(t *testing.T) {
		a, _ := collection.Resolve(reflect.TypeOf([1]int{}))
		b := a.NewBuilder(2, true)
		require.NoError(t, b.Add(1))
		require.True(t, collection.ErrCollectionOverflow.Is(b.Add(2)))
	})

	t.Run("fixed array underflow", func(t *testing.T) {
		a, _ := collection.Resolve(reflect.TypeOf([3]string{}))
		b := a.NewBuilder(2, true)
		require.NoError(t, b.Add("a"))
		require.NoError(t, b.Add("b"))
		got, err := b.Result()
		require.Nil(t, got)
		require.True(t, collection.ErrCollectionUnderflow.Is(err))
		require.EqualError(t, err, "collection [3]string needs 3 elements, got 2")
	})
}

func TestRange(t *testing.T) {
	collect := func(t *testing.T, v any) []any {
		t.Helper()
		a, err := collection.Resolve(reflect.TypeOf(v))
		require.NoError(t, err)
		got, err := a.Elements(v)
		require.NoError(t, err)
		return got
	}

	require.Equal(t, []any{1, 2, 3}, collect(t, []int{1, 2, 3}))
	require.Equal(t, []any{"a", "b", "c"}, collect(t, map[string]struct{}{"c": {}, "a": {}, "b": {}}))
	require.Equal(t, []any{2}, collect(t, map[int]bool{1: false, 2: true}))
	require.Equal(t, []any{1, 2}, collect(t, iter.Seq[int](slices.Values([]int{1, 2}))))

	l := list.New()
	l.PushBack("x")
	l.PushBack(nil)
	require.Equal(t, []any{"x", nil}, collect(t, l))

	native, err := collection.NativeAdapter.Elements(row.NewArray(int32(1), nil))
	require.NoError(t, err)
	require.Equal(t, []any{int32(1), nil}, native)

	t.Run("stops at first error", func(t *testing.T) {
		a, _ := collection.Resolve(reflect.TypeOf((iter.Seq[int])(nil)))
		var seen []any
		err := a.Range(iter.Seq[int](slices.Values([]int{1, 2, 3})), func(i int, e any) error {
			seen = append(seen, e)
			if i == 1 {
				return collection.ErrNullElement.New("int")
			}
			return nil
		})
		require.Error(t, err)
		require.Equal(t, []any{1, 2}, seen)
	})

	t.Run("type mismatch", func(t *testing.T) {
		a, _ := collection.Resolve(reflect.TypeOf([]int{}))
		err := a.Range([]string{"x"}, func(int, any) error { return nil })
		require.True(t, collection.ErrNotCollection.Is(err))
	})
}

func TestSnapshot(t *testing.T) {
	seq := iter.Seq[int](slices.Values([]int{1, 2}))
	nested := row.NewArray(row.NewArray(int32(1)), row.New("a", nil))
	want := []any{[]any{int32(1)}, []any{"a", nil}}
	if diff := cmp.Diff(want, collection.Snapshot(nested)); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []any{1, 2}, collection.Snapshot(seq))
	require.Equal(t, 5, collection.Snapshot(5))
	require.Nil(t, collection.Snapshot(nil))
}
