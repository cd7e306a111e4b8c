package serializer

import (
	"reflect"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// fastSerializer writes the registration id as a varint followed by the
// deterministic protobuf encoding of the value's message.
type fastSerializer struct {
	reg *Registry
}

var marshalOptions = proto.MarshalOptions{Deterministic: true}

func (s *fastSerializer) Serialize(v any) ([]byte, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, ErrEncode.New("nil")
	}
	e, ok := s.reg.lookup(t)
	if !ok {
		return nil, ErrUnregisteredType.New(t)
	}
	rv := reflect.ValueOf(v)
	switch {
	case e.ptr:
		if rv.IsNil() {
			return nil, ErrNilElement.New(t.String())
		}
		rv = rv.Elem()
	case e.wrapped != nil:
		w := reflect.New(e.wrapped).Elem()
		w.Field(0).Set(rv)
		rv = w
	}
	msg, err := encodeStruct(rv, e.codec)
	if err != nil {
		return nil, err
	}
	buf := protowire.AppendVarint(nil, uint64(e.id))
	buf, err = marshalOptions.MarshalAppend(buf, msg)
	if err != nil {
		return nil, ErrEncode.Wrap(err, t)
	}
	return buf, nil
}

func (s *fastSerializer) Deserialize(data []byte, t reflect.Type) (any, error) {
	e, ok := s.reg.lookup(t)
	if !ok {
		return nil, ErrUnregisteredType.New(t)
	}
	id, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return nil, ErrDecode.Wrap(protowire.ParseError(n), t)
	}
	if uint32(id) != e.id || id > uint64(^uint32(0)) {
		return nil, ErrTypeMismatch.New(id, e.id, t)
	}
	msg := dynamicpb.NewMessage(e.codec.md)
	if err := proto.Unmarshal(data[n:], msg); err != nil {
		return nil, ErrDecode.Wrap(err, t)
	}

	switch {
	case e.ptr:
		out := reflect.New(t.Elem())
		if err := decodeStruct(msg, e.codec, out.Elem()); err != nil {
			return nil, err
		}
		return out.Interface(), nil
	case e.wrapped != nil:
		w := reflect.New(e.wrapped).Elem()
		if err := decodeStruct(msg, e.codec, w); err != nil {
			return nil, err
		}
		return w.Field(0).Interface(), nil
	}
	out := reflect.New(t).Elem()
	if err := decodeStruct(msg, e.codec, out); err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

func encodeStruct(rv reflect.Value, c *structCodec) (*dynamicpb.Message, error) {
	msg := dynamicpb.NewMessage(c.md)
	for _, p := range c.fields {
		fv := rv.Field(p.index)
		if p.repeated {
			if fv.Len() == 0 {
				continue
			}
			lst := msg.Mutable(p.fd).List()
			for i := range fv.Len() {
				pv, err := encodeSingle(fv.Index(i), p)
				if err != nil {
					return nil, err
				}
				lst.Append(pv)
			}
			continue
		}
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		pv, err := encodeSingle(fv, p)
		if err != nil {
			return nil, err
		}
		msg.Set(p.fd, pv)
	}
	return msg, nil
}

func encodeSingle(v reflect.Value, p *fieldPlan) (protoreflect.Value, error) {
	if p.msg != nil {
		if v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return protoreflect.Value{}, ErrNilElement.New(p.path)
			}
			v = v.Elem()
		}
		m, err := encodeStruct(v, p.msg)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfMessage(m), nil
	}
	switch p.conv {
	case convTime:
		// time's binary form keeps nanoseconds and the zone offset.
		b, err := v.Interface().(time.Time).MarshalBinary()
		if err != nil {
			return protoreflect.Value{}, ErrEncode.Wrap(err, v.Type())
		}
		return protoreflect.ValueOfBytes(b), nil
	case convDecimal:
		return protoreflect.ValueOfString(v.Interface().(decimal.Decimal).String()), nil
	}
	switch p.fd.Kind() {
	case protoreflect.BoolKind:
		return protoreflect.ValueOfBool(v.Bool()), nil
	case protoreflect.Int32Kind:
		return protoreflect.ValueOfInt32(int32(v.Int())), nil
	case protoreflect.Int64Kind:
		return protoreflect.ValueOfInt64(v.Int()), nil
	case protoreflect.Uint32Kind:
		return protoreflect.ValueOfUint32(uint32(v.Uint())), nil
	case protoreflect.Uint64Kind:
		return protoreflect.ValueOfUint64(v.Uint()), nil
	case protoreflect.FloatKind:
		return protoreflect.ValueOfFloat32(float32(v.Float())), nil
	case protoreflect.DoubleKind:
		return protoreflect.ValueOfFloat64(v.Float()), nil
	case protoreflect.StringKind:
		return protoreflect.ValueOfString(v.String()), nil
	case protoreflect.BytesKind:
		return protoreflect.ValueOfBytes(v.Bytes()), nil
	}
	return protoreflect.Value{}, ErrEncode.New(v.Type())
}

func decodeStruct(msg protoreflect.Message, c *structCodec, out reflect.Value) error {
	for _, p := range c.fields {
		fv := out.Field(p.index)
		switch {
		case p.repeated:
			if !msg.Has(p.fd) {
				continue
			}
			lst := msg.Get(p.fd).List()
			n := lst.Len()
			if fv.Kind() == reflect.Slice {
				fv.Set(reflect.MakeSlice(fv.Type(), n, n))
			} else if n > fv.Len() {
				n = fv.Len()
			}
			for i := range n {
				if err := decodeSingle(lst.Get(i), p, fv.Index(i)); err != nil {
					return err
				}
			}
		case p.ptr:
			if !msg.Has(p.fd) {
				continue
			}
			if err := decodeSingle(msg.Get(p.fd), p, fv); err != nil {
				return err
			}
		case p.msg != nil:
			if !msg.Has(p.fd) {
				continue
			}
			if err := decodeSingle(msg.Get(p.fd), p, fv); err != nil {
				return err
			}
		default:
			if err := decodeSingle(msg.Get(p.fd), p, fv); err != nil {
				return err
			}
		}
	}
	return nil
}

// decodeSingle stores pv into dst, allocating when dst is a pointer.
func decodeSingle(pv protoreflect.Value, p *fieldPlan, dst reflect.Value) error {
	if dst.Kind() == reflect.Ptr {
		nv := reflect.New(dst.Type().Elem())
		if err := decodeSingle(pv, p, nv.Elem()); err != nil {
			return err
		}
		dst.Set(nv)
		return nil
	}
	if p.msg != nil {
		return decodeStruct(pv.Message(), p.msg, dst)
	}
	switch p.conv {
	case convTime:
		var ts time.Time
		if b := pv.Bytes(); len(b) > 0 {
			if err := ts.UnmarshalBinary(b); err != nil {
				return ErrDecode.Wrap(err, dst.Type())
			}
		}
		dst.Set(reflect.ValueOf(ts))
		return nil
	case convDecimal:
		d, err := decimal.NewFromString(pv.String())
		if err != nil {
			return ErrDecode.Wrap(err, dst.Type())
		}
		dst.Set(reflect.ValueOf(d))
		return nil
	}
	switch dst.Kind() {
	case reflect.Bool:
		dst.SetBool(pv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dst.SetInt(pv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		dst.SetUint(pv.Uint())
	case reflect.Float32, reflect.Float64:
		dst.SetFloat(pv.Float())
	case reflect.String:
		dst.SetString(pv.String())
	case reflect.Slice:
		dst.SetBytes(append([]byte(nil), pv.Bytes()...))
	default:
		return ErrDecode.New(dst.Type())
	}
	return nil
}
