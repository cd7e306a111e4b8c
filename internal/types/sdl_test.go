package types_test

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	types "github.com/hanpama/objrow/internal/types"
)

func mustReadData(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestParseSDL(t *testing.T) {
	s, err := types.ParseSDL("person.graphql", mustReadData(t, "testdata/good/person.graphql"))
	require.NoError(t, err)
	require.Equal(t, []string{"Address", "Person"}, s.Names)

	address := types.StructOf(
		types.Field("street", types.String, false),
		types.Field("zip", types.String, true),
	)
	want := types.StructOf(
		types.Field("id", types.Long, false),
		types.Field("name", types.String, false),
		types.Field("age", types.Integer, true),
		types.Field("tags", types.ArrayOf(types.String, false), true),
		types.Field("scores", types.ArrayOf(types.Double, true), true),
		types.Field("status", types.String, true),
		types.Field("joined", types.Timestamp, true),
		types.Field("home", address, true),
	)
	got, ok := s.Struct("Person")
	require.True(t, ok)
	if !types.Equal(want, got) {
		t.Fatalf("Person mismatch (-want +got):\n%s", cmp.Diff(want.String(), got.String()))
	}
}

func TestParseSDLViolations(t *testing.T) {
	_, err := types.ParseSDL("errors.graphql", mustReadData(t, "testdata/bad/errors.graphql"))
	require.Error(t, err)

	var verr types.ValidationError
	require.ErrorAs(t, err, &verr)

	var msgs []string
	for _, v := range verr {
		require.Equal(t, "errors.graphql", v.File)
		require.NotZero(t, v.Line)
		msgs = append(msgs, v.Message)
	}
	want := []string{
		`Unknown scalar "Money"`,
		"INTERFACE type Node is abstract and has no row representation",
		"UNION type Shape is abstract and has no row representation",
		"Type Loop contains itself through field next",
		`Unknown type "Customer" on field owner of type Item`,
		`Duplicate field "name" found in type "Item"`,
	}
	if diff := cmp.Diff(want, msgs); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSDLSyntaxError(t *testing.T) {
	_, err := types.ParseSDL("broken.graphql", "type Person {")
	var verr types.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr, 1)
	require.Equal(t, "broken.graphql", verr[0].File)
	require.Contains(t, err.Error(), "violations found:")
}
