package serializer

import "gopkg.in/src-d/go-errors.v1"

var (
	ErrUnknownKind          = errors.NewKind("unknown serializer %q")
	ErrEncode               = errors.NewKind("cannot serialize value of type %s")
	ErrDecode               = errors.NewKind("cannot deserialize into %s")
	ErrUnregisteredType     = errors.NewKind("type %s is not registered with the fast serializer")
	ErrUnsupportedFieldType = errors.NewKind("type %s at %s cannot be registered with the fast serializer")
	ErrTypeMismatch         = errors.NewKind("payload holds registration %d, expected %d for %s")
	ErrNilElement           = errors.NewKind("nil element at %s cannot be serialized")
)
