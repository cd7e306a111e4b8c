package expr

import (
	"fmt"

	option "github.com/hanpama/objrow/internal/option"
	row "github.com/hanpama/objrow/internal/row"
	types "github.com/hanpama/objrow/internal/types"
)

// WrapOption turns a nullable value into an option.Option.
type WrapOption struct {
	child       Expression
	wrappedType *types.DataType
	interp      EvalFunc
}

// NewWrapOption wraps values of child, typed wrappedType, in an option.
func NewWrapOption(child Expression, wrappedType *types.DataType) (*WrapOption, error) {
	return &WrapOption{child: child, wrappedType: wrappedType, interp: child.Eval}, nil
}

func (n *WrapOption) DataType() *types.DataType { return types.ObjectOf(option.Type) }
func (n *WrapOption) Nullable() bool { return false }
func (n *WrapOption) Children() []Expression { return []Expression{n.child} }
func (n *WrapOption) String() string { return fmt.Sprintf("wrapoption(%s, %s)", n.child, n.wrappedType) }

func (n *WrapOption) Eval(in row.InternalRow) (any, error) { return n.eval(in, n.interp) }

func (n *WrapOption) GenCode(g *CodeGen) (EvalFunc, error) {
	fn, err := g.Gen(n.child)
	if err != nil {
		return nil, err
	}
	return func(in row.InternalRow) (any, error) { return n.eval(in, fn) }, nil
}

func (n *WrapOption) eval(in row.InternalRow, child EvalFunc) (any, error) {
	v, err := child(in)
	if err != nil {
		return nil, err
	}
	if row.IsNullish(v) {
		return option.None(), nil
	}
	return option.Some(v), nil
}

// UnwrapOption extracts the value of an option.Option or *option.Option.
type UnwrapOption struct {
	dt     *types.DataType
	child  Expression
	interp EvalFunc
}

// NewUnwrapOption requires child to produce option.Option or *option.Option.
func NewUnwrapOption(dataType *types.DataType, child Expression) (*UnwrapOption, error) {
	ct := child.DataType()
	if ct.Kind != types.KindObject || (ct.GoType != option.Type && ct.GoType != option.PtrType) {
		return nil, ErrTypeMismatch.New("unwrapoption", types.ObjectOf(option.Type), ct)
	}
	return &UnwrapOption{dt: dataType, child: child, interp: child.Eval}, nil
}

func (n *UnwrapOption) DataType() *types.DataType { return n.dt }
func (n *UnwrapOption) Nullable() bool { return true }
func (n *UnwrapOption) Children() []Expression { return []Expression{n.child} }
func (n *UnwrapOption) String() string { return fmt.Sprintf("unwrapoption(%s, %s)", n.dt, n.child) }

func (n *UnwrapOption) Eval(in row.InternalRow) (any, error) { return n.eval(in, n.interp) }

func (n *UnwrapOption) GenCode(g *CodeGen) (EvalFunc, error) {
	fn, err := g.Gen(n.child)
	if err != nil {
		return nil, err
	}
	return func(in row.InternalRow) (any, error) { return n.eval(in, fn) }, nil
}

func (n *UnwrapOption) eval(in row.InternalRow, child EvalFunc) (any, error) {
	v, err := child(in)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	val, present, ok := option.Unwrap(v)
	if !ok {
		return nil, ErrTypeMismatch.New(n.String(), types.ObjectOf(option.Type), fmt.Sprintf("%T", v))
	}
	if !present {
		return nil, nil
	}
	return val, nil
}
