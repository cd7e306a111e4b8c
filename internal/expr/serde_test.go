package expr_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	expr "github.com/hanpama/objrow/internal/expr"
	row "github.com/hanpama/objrow/internal/row"
	serializer "github.com/hanpama/objrow/internal/serializer"
	types "github.com/hanpama/objrow/internal/types"
)

type payload struct {
	Name string
	Tags []string
	At   time.Time
	Next *payload
}

var payloadType = reflect.TypeOf((*payload)(nil))

func TestSerializerRoundTrip(t *testing.T) {
	factory := serializer.NewFactory()
	require.NoError(t, factory.Registry().Register(payloadType))

	value := &payload{
		Name: "a",
		Tags: []string{"x", "y"},
		At:   time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.UTC),
		Next: &payload{Name: "b"},
	}
	ref := expr.NewBoundReference(0, types.ObjectOf(payloadType), true)

	for _, kind := range []serializer.Kind{serializer.General, serializer.Fast} {
		t.Run(kind.String(), func(t *testing.T) {
			enc := must[*expr.EncodeUsingSerializer](t)(expr.NewEncodeUsingSerializer(factory, ref, kind))
			require.True(t, types.Equal(types.Binary, enc.DataType()))
			dec := must[*expr.DecodeUsingSerializer](t)(expr.NewDecodeUsingSerializer(factory, enc, payloadType, kind))
			require.True(t, types.Equal(types.ObjectOf(payloadType), dec.DataType()))

			got := mustEval(t, dec, row.New(value))
			if diff := cmp.Diff(value, got, exportAll); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}

			require.Nil(t, mustEval(t, enc, row.New(nil)))
			require.Nil(t, mustEval(t, dec, row.New(nil)))
		})
	}
}

func TestSerializerBinaryInput(t *testing.T) {
	factory := serializer.NewFactory()
	s, err := factory.New(serializer.General)
	require.NoError(t, err)
	data, err := s.Serialize(&payload{Name: "c"})
	require.NoError(t, err)

	dec := must[*expr.DecodeUsingSerializer](t)(expr.NewDecodeUsingSerializer(factory, expr.NewBoundReference(0, types.Binary, true), payloadType, serializer.General))
	got := mustEval(t, dec, row.New(data)).(*payload)
	require.Equal(t, "c", got.Name)

	_, err = evalBoth(t, dec, row.New([]byte{0xff}))
	require.True(t, serializer.ErrDecode.Is(err), err)
}

func TestSerializerBuildErrors(t *testing.T) {
	factory := serializer.NewFactory()
	bin := expr.NewBoundReference(0, types.Binary, true)

	_, err := expr.NewDecodeUsingSerializer(factory, bin, payloadType, serializer.Fast)
	require.True(t, serializer.ErrUnregisteredType.Is(err), err)

	_, err = expr.NewDecodeUsingSerializer(factory, expr.Lit("x"), payloadType, serializer.General)
	require.True(t, expr.ErrTypeMismatch.Is(err), err)

	_, err = expr.NewEncodeUsingSerializer(factory, bin, serializer.Kind(9))
	require.True(t, serializer.ErrUnknownKind.Is(err), err)

	t.Run("unregistered value at evaluation", func(t *testing.T) {
		enc := must[*expr.EncodeUsingSerializer](t)(expr.NewEncodeUsingSerializer(factory, expr.Lit(&Account{}), serializer.Fast))
		_, err := evalBoth(t, enc, row.Empty)
		require.True(t, serializer.ErrUnregisteredType.Is(err), err)
	})
}
