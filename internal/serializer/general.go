package serializer

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var cborEncMode cbor.EncMode

func init() {
	opts := cbor.CanonicalEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("serializer: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// generalSerializer encodes any value CBOR can represent.
type generalSerializer struct{}

func (s *generalSerializer) Serialize(v any) ([]byte, error) {
	b, err := cborEncMode.Marshal(v)
	if err != nil {
		return nil, ErrEncode.Wrap(err, reflect.TypeOf(v))
	}
	return b, nil
}

func (s *generalSerializer) Deserialize(data []byte, t reflect.Type) (any, error) {
	ptr := reflect.New(t)
	if err := cbor.Unmarshal(data, ptr.Interface()); err != nil {
		return nil, ErrDecode.Wrap(err, t)
	}
	return ptr.Elem().Interface(), nil
}
