package expr

import (
	"fmt"
	"strings"

	row "github.com/hanpama/objrow/internal/row"
	types "github.com/hanpama/objrow/internal/types"
)

// AssertNotNull fails evaluation when its child is null. path names the
// value for the error message, e.g. "person.address".
type AssertNotNull struct {
	child  Expression
	path   string
	interp EvalFunc
}

// NewAssertNotNull guards child, naming it path in errors.
func NewAssertNotNull(child Expression, path string) *AssertNotNull {
	return &AssertNotNull{child: child, path: path, interp: child.Eval}
}

func (n *AssertNotNull) DataType() *types.DataType { return n.child.DataType() }
func (n *AssertNotNull) Nullable() bool { return false }
func (n *AssertNotNull) Children() []Expression { return []Expression{n.child} }
func (n *AssertNotNull) String() string { return fmt.Sprintf("assertnotnull(%s)", n.child) }

func (n *AssertNotNull) Eval(in row.InternalRow) (any, error) { return n.eval(in, n.interp) }

func (n *AssertNotNull) GenCode(g *CodeGen) (EvalFunc, error) {
	fn, err := g.Gen(n.child)
	if err != nil {
		return nil, err
	}
	return func(in row.InternalRow) (any, error) { return n.eval(in, fn) }, nil
}

func (n *AssertNotNull) eval(in row.InternalRow, child EvalFunc) (any, error) {
	v, err := child(in)
	if err != nil {
		return nil, err
	}
	if row.IsNullish(v) {
		return nil, ErrNullValue.New(n.path)
	}
	return v, nil
}

// IsNull reports whether its child is null.
type IsNull struct {
	child  Expression
	interp EvalFunc
}

// NewIsNull tests child for null.
func NewIsNull(child Expression) *IsNull {
	return &IsNull{child: child, interp: child.Eval}
}

func (n *IsNull) DataType() *types.DataType { return types.Boolean }
func (n *IsNull) Nullable() bool { return false }
func (n *IsNull) Children() []Expression { return []Expression{n.child} }
func (n *IsNull) String() string { return fmt.Sprintf("isnull(%s)", n.child) }

func (n *IsNull) Eval(in row.InternalRow) (any, error) { return n.eval(in, n.interp) }

func (n *IsNull) GenCode(g *CodeGen) (EvalFunc, error) {
	fn, err := g.Gen(n.child)
	if err != nil {
		return nil, err
	}
	return func(in row.InternalRow) (any, error) { return n.eval(in, fn) }, nil
}

func (n *IsNull) eval(in row.InternalRow, child EvalFunc) (any, error) {
	v, err := child(in)
	if err != nil {
		return nil, err
	}
	return row.IsNullish(v), nil
}

// If evaluates one of two branches. A null condition selects the else
// branch. Only the selected branch is evaluated.
type If struct {
	cond, then, els Expression
	interp          []EvalFunc
}

// NewIf requires a BOOLEAN condition. els must share then's type or be NULL.
func NewIf(cond, then, els Expression) (*If, error) {
	if cond.DataType().Kind != types.KindBoolean {
		return nil, ErrTypeMismatch.New("if", types.Boolean, cond.DataType())
	}
	if !types.Equal(then.DataType(), els.DataType()) && els.DataType().Kind != types.KindNull {
		return nil, ErrTypeMismatch.New("if", then.DataType(), els.DataType())
	}
	n := &If{cond: cond, then: then, els: els}
	n.interp = evalFuncs(n.Children())
	return n, nil
}

func (n *If) DataType() *types.DataType { return n.then.DataType() }
func (n *If) Nullable() bool { return n.then.Nullable() || n.els.Nullable() }
func (n *If) Children() []Expression { return []Expression{n.cond, n.then, n.els} }
func (n *If) String() string { return fmt.Sprintf("if(%s, %s, %s)", n.cond, n.then, n.els) }

func (n *If) Eval(in row.InternalRow) (any, error) { return n.eval(in, n.interp) }

func (n *If) GenCode(g *CodeGen) (EvalFunc, error) {
	fns, err := g.genAll(n.Children())
	if err != nil {
		return nil, err
	}
	return func(in row.InternalRow) (any, error) { return n.eval(in, fns) }, nil
}

func (n *If) eval(in row.InternalRow, fns []EvalFunc) (any, error) {
	c, err := fns[0](in)
	if err != nil {
		return nil, err
	}
	if b, ok := c.(bool); ok && b {
		return fns[1](in)
	}
	return fns[2](in)
}

// GetStructField reads a field of an engine struct value.
type GetStructField struct {
	child   Expression
	ordinal int
	field   *types.StructField
	access  row.AccessorFunc
	interp  EvalFunc
}

// NewGetStructField requires child to be of STRUCT type.
func NewGetStructField(child Expression, ordinal int) (*GetStructField, error) {
	ct := child.DataType()
	if ct.Kind != types.KindStruct {
		return nil, ErrTypeMismatch.New("getstructfield", "struct", ct)
	}
	if ordinal < 0 || ordinal >= len(ct.Fields) {
		return nil, ErrFieldOrdinalOutOfRange.New(ordinal, len(ct.Fields))
	}
	f := ct.Fields[ordinal]
	return &GetStructField{
		child:   child,
		ordinal: ordinal,
		field:   f,
		access:  row.Accessor(f.Type),
		interp:  child.Eval,
	}, nil
}

func (n *GetStructField) DataType() *types.DataType { return n.field.Type }
func (n *GetStructField) Nullable() bool { return n.child.Nullable() || n.field.Nullable }
func (n *GetStructField) Children() []Expression { return []Expression{n.child} }
func (n *GetStructField) String() string { return fmt.Sprintf("%s.%s", n.child, n.field.Name) }

func (n *GetStructField) Eval(in row.InternalRow) (any, error) { return n.eval(in, n.interp) }

func (n *GetStructField) GenCode(g *CodeGen) (EvalFunc, error) {
	fn, err := g.Gen(n.child)
	if err != nil {
		return nil, err
	}
	return func(in row.InternalRow) (any, error) { return n.eval(in, fn) }, nil
}

func (n *GetStructField) eval(in row.InternalRow, child EvalFunc) (any, error) {
	v, err := child(in)
	if err != nil {
		return nil, err
	}
	if row.IsNullish(v) {
		return nil, nil
	}
	r, ok := v.(row.InternalRow)
	if !ok {
		return nil, ErrTypeMismatch.New(n.String(), n.child.DataType(), fmt.Sprintf("%T", v))
	}
	if n.ordinal >= r.NumFields() {
		return nil, ErrFieldOrdinalOutOfRange.New(n.ordinal, r.NumFields())
	}
	return n.access(r, n.ordinal), nil
}

// CreateStruct builds an engine struct value from named children.
type CreateStruct struct {
	children []Expression
	dt       *types.DataType
	interp   []EvalFunc
}

// NewCreateStruct pairs names with children positionally.
func NewCreateStruct(names []string, children []Expression) (*CreateStruct, error) {
	if len(names) != len(children) {
		return nil, ErrSchemaArity.New("struct<"+strings.Join(names, ",")+">", len(names), len(children))
	}
	fields := make([]*types.StructField, len(children))
	for i, c := range children {
		fields[i] = types.Field(names[i], c.DataType(), c.Nullable())
	}
	return &CreateStruct{children: children, dt: types.StructOf(fields...), interp: evalFuncs(children)}, nil
}

func (n *CreateStruct) DataType() *types.DataType { return n.dt }
func (n *CreateStruct) Nullable() bool { return false }
func (n *CreateStruct) Children() []Expression { return n.children }
func (n *CreateStruct) String() string { return fmt.Sprintf("struct(%s)", joinExprs(n.children)) }

func (n *CreateStruct) Eval(in row.InternalRow) (any, error) { return n.eval(in, n.interp) }

func (n *CreateStruct) GenCode(g *CodeGen) (EvalFunc, error) {
	fns, err := g.genAll(n.children)
	if err != nil {
		return nil, err
	}
	return func(in row.InternalRow) (any, error) { return n.eval(in, fns) }, nil
}

func (n *CreateStruct) eval(in row.InternalRow, fns []EvalFunc) (any, error) {
	vals, _, err := evalArgs(in, fns, false)
	if err != nil {
		return nil, err
	}
	return row.New(vals...), nil
}
