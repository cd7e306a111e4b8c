package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	expr "github.com/hanpama/objrow/internal/expr"
	row "github.com/hanpama/objrow/internal/row"
	types "github.com/hanpama/objrow/internal/types"
)

func TestVerifyAgreeingPaths(t *testing.T) {
	rec := record(t)
	identity := func(v expr.Expression) (expr.Expression, error) { return v, nil }
	input := expr.NewBoundReference(0, types.ArrayOf(types.Integer, true), true)
	tree, err := expr.NewMapObjects(identity, input, types.Integer, true, nil)
	require.NoError(t, err)

	in := []row.InternalRow{
		row.New(row.NewArray(int32(1), nil, int32(3))),
		row.New(nil),
	}
	got, err := Verify(context.Background(), tree, in)
	require.NoError(t, err)
	require.Empty(t, got)

	require.Len(t, rec.batches, 1)
	require.Equal(t, "verify", rec.batches[0].Mode)
	require.Equal(t, 2, rec.batches[0].Evaluated)
}

func TestVerifyReportsMismatch(t *testing.T) {
	record(t)
	tree := &skew{expr.Lit("interpreted")}

	got, err := Verify(context.Background(), tree, rows(nil, nil))
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, 1, got[1].Row)
	require.Equal(t, "interpreted", got[0].Interpreted)
	require.Equal(t, "generated", got[0].Generated)
	require.Contains(t, got[0].Diff, `"interpreted"`)
	require.Contains(t, got[0].Diff, `"generated"`)
	require.Contains(t, got[0].String(), "row 0:")
}

func TestVerifyReportsErrorMismatch(t *testing.T) {
	record(t)
	tree := &skew{expr.NewBoundReference(2, types.Integer, true)}

	got, err := Verify(context.Background(), tree, rows(int32(1)))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Error(t, got[0].InterpretedErr)
	require.NoError(t, got[0].GeneratedErr)
	require.Equal(t, "interpreted error: ordinal 2 is out of range for a row of 1 fields\ngenerated error: <nil>", got[0].Diff)
}

func TestVerifyRequiresCompilableTree(t *testing.T) {
	rec := record(t)
	_, err := Verify(context.Background(), &opaque{intRef()}, rows(int32(1)))
	require.True(t, expr.ErrNotCompilable.Is(err))
	require.Len(t, rec.batches, 1)
	require.Equal(t, 0, rec.batches[0].Evaluated)
}
