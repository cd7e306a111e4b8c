package expr

import (
	"fmt"
	"reflect"

	row "github.com/hanpama/objrow/internal/row"
	serializer "github.com/hanpama/objrow/internal/serializer"
	types "github.com/hanpama/objrow/internal/types"
)

// EncodeUsingSerializer serializes an object into a BINARY value. A fresh
// serializer is obtained from the factory for every non-null value.
type EncodeUsingSerializer struct {
	factory *serializer.Factory
	child   Expression
	kind    serializer.Kind
	interp  EvalFunc
}

// NewEncodeUsingSerializer fails for an unknown serializer kind.
func NewEncodeUsingSerializer(factory *serializer.Factory, child Expression, kind serializer.Kind) (*EncodeUsingSerializer, error) {
	if _, err := serializer.ParseKind(kind.String()); err != nil {
		return nil, err
	}
	return &EncodeUsingSerializer{factory: factory, child: child, kind: kind, interp: child.Eval}, nil
}

func (n *EncodeUsingSerializer) DataType() *types.DataType { return types.Binary }
func (n *EncodeUsingSerializer) Nullable() bool { return n.child.Nullable() }
func (n *EncodeUsingSerializer) Children() []Expression { return []Expression{n.child} }

func (n *EncodeUsingSerializer) String() string {
	return fmt.Sprintf("encodeusingserializer(%s, %s)", n.child, n.kind)
}

func (n *EncodeUsingSerializer) Eval(in row.InternalRow) (any, error) { return n.eval(in, n.interp) }

func (n *EncodeUsingSerializer) GenCode(g *CodeGen) (EvalFunc, error) {
	fn, err := g.Gen(n.child)
	if err != nil {
		return nil, err
	}
	return func(in row.InternalRow) (any, error) { return n.eval(in, fn) }, nil
}

func (n *EncodeUsingSerializer) eval(in row.InternalRow, child EvalFunc) (any, error) {
	v, err := child(in)
	if err != nil {
		return nil, err
	}
	if row.IsNullish(v) {
		return nil, nil
	}
	s, err := n.factory.New(n.kind)
	if err != nil {
		return nil, err
	}
	return s.Serialize(v)
}

// DecodeUsingSerializer deserializes a BINARY value into an instance of the
// target type.
type DecodeUsingSerializer struct {
	factory *serializer.Factory
	child   Expression
	target  reflect.Type
	kind    serializer.Kind
	interp  EvalFunc
}

// NewDecodeUsingSerializer checks that the child produces BINARY values and,
// for the fast backend, that target is registered.
func NewDecodeUsingSerializer(factory *serializer.Factory, child Expression, target reflect.Type, kind serializer.Kind) (*DecodeUsingSerializer, error) {
	if _, err := serializer.ParseKind(kind.String()); err != nil {
		return nil, err
	}
	if ct := child.DataType(); ct.Kind != types.KindBinary {
		return nil, ErrTypeMismatch.New("decodeusingserializer", types.Binary, ct)
	}
	if kind == serializer.Fast && !factory.Registry().Registered(target) {
		return nil, serializer.ErrUnregisteredType.New(target)
	}
	return &DecodeUsingSerializer{factory: factory, child: child, target: target, kind: kind, interp: child.Eval}, nil
}

func (n *DecodeUsingSerializer) DataType() *types.DataType { return types.ObjectOf(n.target) }
func (n *DecodeUsingSerializer) Nullable() bool { return n.child.Nullable() }
func (n *DecodeUsingSerializer) Children() []Expression { return []Expression{n.child} }

func (n *DecodeUsingSerializer) String() string {
	return fmt.Sprintf("decodeusingserializer(%s, %s, %s)", n.child, n.target, n.kind)
}

func (n *DecodeUsingSerializer) Eval(in row.InternalRow) (any, error) { return n.eval(in, n.interp) }

func (n *DecodeUsingSerializer) GenCode(g *CodeGen) (EvalFunc, error) {
	fn, err := g.Gen(n.child)
	if err != nil {
		return nil, err
	}
	return func(in row.InternalRow) (any, error) { return n.eval(in, fn) }, nil
}

func (n *DecodeUsingSerializer) eval(in row.InternalRow, child EvalFunc) (any, error) {
	v, err := child(in)
	if err != nil {
		return nil, err
	}
	if row.IsNullish(v) {
		return nil, nil
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, ErrTypeMismatch.New(n.String(), types.Binary, fmt.Sprintf("%T", v))
	}
	s, err := n.factory.New(n.kind)
	if err != nil {
		return nil, err
	}
	return s.Deserialize(data, n.target)
}
