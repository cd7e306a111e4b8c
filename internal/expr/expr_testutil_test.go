package expr_test

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	collection "github.com/hanpama/objrow/internal/collection"
	expr "github.com/hanpama/objrow/internal/expr"
	row "github.com/hanpama/objrow/internal/row"
)

var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

// evalBoth evaluates e interpreted and compiled and requires both paths to
// agree on the value or the error text. The interpreted result is returned.
func evalBoth(t *testing.T, e expr.Expression, in row.InternalRow) (any, error) {
	t.Helper()
	got, err := e.Eval(in)

	fn, cerr := expr.Compile(e)
	require.NoError(t, cerr)
	gotGen, errGen := fn(in)

	if err != nil || errGen != nil {
		require.Error(t, err, "interpreted path succeeded, generated failed with %v", errGen)
		require.Error(t, errGen, "generated path succeeded, interpreted failed with %v", err)
		require.Equal(t, err.Error(), errGen.Error())
		return nil, err
	}
	if diff := cmp.Diff(collection.Snapshot(got), collection.Snapshot(gotGen), exportAll); diff != "" {
		t.Fatalf("interpreted and generated results differ (-interpreted +generated):\n%s", diff)
	}
	return got, nil
}

func mustEval(t *testing.T, e expr.Expression, in row.InternalRow) any {
	t.Helper()
	got, err := evalBoth(t, e, in)
	require.NoError(t, err)
	return got
}

func must[T any](t *testing.T) func(v T, err error) T {
	return func(v T, err error) T {
		t.Helper()
		require.NoError(t, err)
		return v
	}
}
