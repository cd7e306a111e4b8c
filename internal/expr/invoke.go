package expr

import (
	"fmt"
	"reflect"

	row "github.com/hanpama/objrow/internal/row"
	types "github.com/hanpama/objrow/internal/types"
)

// InvokeOptions controls null handling of Invoke, StaticInvoke and
// NewInstance.
type InvokeOptions struct {
	// PropagateNull makes a null argument produce null without dispatching.
	PropagateNull bool
	// ReturnNullable declares that the callee may return nil. When false a
	// nil return is an error.
	ReturnNullable bool
}

type InvokeOption func(*InvokeOptions)

func defaultInvokeOptions() *InvokeOptions {
	return &InvokeOptions{PropagateNull: true, ReturnNullable: true}
}

func WithPropagateNull(v bool) InvokeOption {
	return func(o *InvokeOptions) { o.PropagateNull = v }
}

func WithReturnNullable(v bool) InvokeOption {
	return func(o *InvokeOptions) { o.ReturnNullable = v }
}

func applyInvokeOptions(opts []InvokeOption) *InvokeOptions {
	o := defaultInvokeOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Invoke calls a method on the value of its target expression.
type Invoke struct {
	target     Expression
	name       string
	returnType *types.DataType
	args       []Expression
	method     Method
	opts       *InvokeOptions
	interp     []EvalFunc
}

// NewInvoke resolves method on the target's Go type. The target must be an
// OBJECT expression.
func NewInvoke(resolver Resolver, target Expression, method string, returnType *types.DataType, args []Expression, opts ...InvokeOption) (*Invoke, error) {
	tt := target.DataType()
	if tt.Kind != types.KindObject {
		return nil, ErrTypeMismatch.New("invoke "+method, "object", tt)
	}
	m, err := resolver.ResolveMethod(tt.GoType, method, argTypes(args))
	if err != nil {
		return nil, err
	}
	n := &Invoke{
		target:     target,
		name:       method,
		returnType: returnType,
		args:       args,
		method:     m,
		opts:       applyInvokeOptions(opts),
	}
	n.interp = evalFuncs(n.Children())
	return n, nil
}

func (n *Invoke) DataType() *types.DataType { return n.returnType }

func (n *Invoke) Nullable() bool {
	return n.opts.ReturnNullable || n.target.Nullable() || (n.opts.PropagateNull && anyNullable(n.args))
}

func (n *Invoke) Children() []Expression {
	return append([]Expression{n.target}, n.args...)
}

func (n *Invoke) String() string {
	return fmt.Sprintf("invoke(%s.%s(%s))", n.target, n.name, joinExprs(n.args))
}

func (n *Invoke) Eval(in row.InternalRow) (any, error) { return n.eval(in, n.interp) }

func (n *Invoke) GenCode(g *CodeGen) (EvalFunc, error) {
	fns, err := g.genAll(n.Children())
	if err != nil {
		return nil, err
	}
	return func(in row.InternalRow) (any, error) { return n.eval(in, fns) }, nil
}

// eval runs the invocation with fns[0] evaluating the target and fns[1:] the
// arguments.
func (n *Invoke) eval(in row.InternalRow, fns []EvalFunc) (any, error) {
	t, err := fns[0](in)
	if err != nil {
		return nil, err
	}
	if row.IsNullish(t) {
		return nil, nil
	}
	vals, isNull, err := evalArgs(in, fns[1:], n.opts.PropagateNull)
	if err != nil || isNull {
		return nil, err
	}
	return dispatch(n.method, n.name, t, vals, n.returnType, n.opts.ReturnNullable)
}

// StaticInvoke calls a registered function.
type StaticInvoke struct {
	name       string
	returnType *types.DataType
	args       []Expression
	method     Method
	opts       *InvokeOptions
	interp     []EvalFunc
}

// NewStaticInvoke resolves function by name and argument types.
func NewStaticInvoke(resolver Resolver, function string, returnType *types.DataType, args []Expression, opts ...InvokeOption) (*StaticInvoke, error) {
	m, err := resolver.ResolveFunction(function, argTypes(args))
	if err != nil {
		return nil, err
	}
	n := &StaticInvoke{
		name:       function,
		returnType: returnType,
		args:       args,
		method:     m,
		opts:       applyInvokeOptions(opts),
	}
	n.interp = evalFuncs(args)
	return n, nil
}

func (n *StaticInvoke) DataType() *types.DataType { return n.returnType }

func (n *StaticInvoke) Nullable() bool {
	return n.opts.ReturnNullable || (n.opts.PropagateNull && anyNullable(n.args))
}

func (n *StaticInvoke) Children() []Expression { return n.args }

func (n *StaticInvoke) String() string {
	return fmt.Sprintf("staticinvoke(%s(%s))", n.name, joinExprs(n.args))
}

func (n *StaticInvoke) Eval(in row.InternalRow) (any, error) { return n.eval(in, n.interp) }

func (n *StaticInvoke) GenCode(g *CodeGen) (EvalFunc, error) {
	fns, err := g.genAll(n.args)
	if err != nil {
		return nil, err
	}
	return func(in row.InternalRow) (any, error) { return n.eval(in, fns) }, nil
}

func (n *StaticInvoke) eval(in row.InternalRow, fns []EvalFunc) (any, error) {
	vals, isNull, err := evalArgs(in, fns, n.opts.PropagateNull)
	if err != nil || isNull {
		return nil, err
	}
	return dispatch(n.method, n.name, nil, vals, n.returnType, n.opts.ReturnNullable)
}

// dispatch calls m and converts its result to returnType.
func dispatch(m Method, name string, target any, args []any, returnType *types.DataType, returnNullable bool) (any, error) {
	out, err := m.Call(target, args)
	if err != nil {
		return nil, ErrInvocationFailed.Wrap(err, name)
	}
	if row.IsNullish(out) {
		if !returnNullable {
			return nil, ErrUnexpectedNull.New(name)
		}
		return nil, nil
	}
	if returnType.Kind == types.KindObject {
		return out, nil
	}
	return types.ToEngine(returnType, out)
}

func argTypes(args []Expression) []reflect.Type {
	out := make([]reflect.Type, len(args))
	for i, a := range args {
		if a.DataType().Kind == types.KindNull {
			continue
		}
		out[i] = row.GoType(a.DataType())
	}
	return out
}
