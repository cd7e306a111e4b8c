package expr

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	row "github.com/hanpama/objrow/internal/row"
	types "github.com/hanpama/objrow/internal/types"
)

// NewInstance constructs a struct value from its arguments, assigned to the
// exported fields in declaration order.
type NewInstance struct {
	cls    reflect.Type
	st     reflect.Type
	fields []int
	args   []Expression
	opts   *InvokeOptions
	interp []EvalFunc
}

// NewNewInstance builds a constructor for cls, a struct or pointer-to-struct
// type.
func NewNewInstance(cls reflect.Type, args []Expression, opts ...InvokeOption) (*NewInstance, error) {
	st := cls
	if st != nil && st.Kind() == reflect.Ptr {
		st = st.Elem()
	}
	if st == nil || st.Kind() != reflect.Struct {
		return nil, ErrTypeMismatch.New("newinstance", "struct", cls)
	}
	var fields []int
	for i := range st.NumField() {
		if st.Field(i).IsExported() {
			fields = append(fields, i)
		}
	}
	if len(fields) != len(args) {
		return nil, ErrArgumentCount.New(cls, len(fields), len(args))
	}
	ats := argTypes(args)
	for i, fi := range fields {
		ft := st.Field(fi).Type
		if !acceptsArg(ats[i], ft) {
			return nil, ErrArgumentMismatch.New(cls, i, ats[i], ft)
		}
	}
	n := &NewInstance{cls: cls, st: st, fields: fields, args: args, opts: applyInvokeOptions(opts)}
	n.interp = evalFuncs(args)
	return n, nil
}

func (n *NewInstance) DataType() *types.DataType { return types.ObjectOf(n.cls) }
func (n *NewInstance) Nullable() bool { return n.opts.PropagateNull && anyNullable(n.args) }
func (n *NewInstance) Children() []Expression { return n.args }

func (n *NewInstance) String() string {
	return fmt.Sprintf("newinstance(%s, %s)", n.cls, joinExprs(n.args))
}

func (n *NewInstance) Eval(in row.InternalRow) (any, error) { return n.eval(in, n.interp) }

func (n *NewInstance) GenCode(g *CodeGen) (EvalFunc, error) {
	fns, err := g.genAll(n.args)
	if err != nil {
		return nil, err
	}
	return func(in row.InternalRow) (any, error) { return n.eval(in, fns) }, nil
}

// eval leaves fields zero for null arguments when nulls are not propagated.
func (n *NewInstance) eval(in row.InternalRow, fns []EvalFunc) (any, error) {
	vals, isNull, err := evalArgs(in, fns, n.opts.PropagateNull)
	if err != nil || isNull {
		return nil, err
	}
	ptr := reflect.New(n.st)
	v := ptr.Elem()
	for i, fi := range n.fields {
		if vals[i] == nil {
			continue
		}
		f := v.Field(fi)
		cv, err := convertArg(vals[i], f.Type())
		if err != nil {
			return nil, ErrArgumentMismatch.New(n.cls, i, reflect.TypeOf(vals[i]), f.Type())
		}
		f.Set(cv)
	}
	if n.cls.Kind() == reflect.Ptr {
		return ptr.Interface(), nil
	}
	return v.Interface(), nil
}

// InitializeBean sets named fields on a copy of the struct its instance
// child returns.
type InitializeBean struct {
	instance Expression
	st       reflect.Type
	names    []string
	fields   []int
	setters  []Expression
	interp   []EvalFunc
}

// NewInitializeBean builds setters for a pointer-to-struct instance.
// Setters run in field-name order.
func NewInitializeBean(instance Expression, setters map[string]Expression) (*InitializeBean, error) {
	it := instance.DataType()
	if it.Kind != types.KindObject || it.GoType == nil ||
		it.GoType.Kind() != reflect.Ptr || it.GoType.Elem().Kind() != reflect.Struct {
		return nil, ErrTypeMismatch.New("initializebean", "pointer to struct", it)
	}
	st := it.GoType.Elem()
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)

	n := &InitializeBean{instance: instance, st: st, names: names}
	for _, name := range names {
		f, ok := st.FieldByName(name)
		if !ok || !f.IsExported() || len(f.Index) != 1 {
			return nil, ErrUnknownField.New(st, name)
		}
		s := setters[name]
		if s == nil {
			return nil, ErrTypeMismatch.New(st.String()+"."+name, "setter expression", "nil")
		}
		at := argTypes([]Expression{s})[0]
		if !acceptsArg(at, f.Type) {
			return nil, ErrArgumentMismatch.New(st.String()+"."+name, 0, at, f.Type)
		}
		n.fields = append(n.fields, f.Index[0])
		n.setters = append(n.setters, s)
	}
	n.interp = evalFuncs(n.Children())
	return n, nil
}

func (n *InitializeBean) DataType() *types.DataType { return n.instance.DataType() }
func (n *InitializeBean) Nullable() bool { return n.instance.Nullable() }

func (n *InitializeBean) Children() []Expression {
	return append([]Expression{n.instance}, n.setters...)
}

func (n *InitializeBean) String() string {
	parts := make([]string, len(n.names))
	for i, name := range n.names {
		parts[i] = name + "=" + n.setters[i].String()
	}
	return fmt.Sprintf("initializebean(%s, %s)", n.instance, strings.Join(parts, ", "))
}

func (n *InitializeBean) Eval(in row.InternalRow) (any, error) { return n.eval(in, n.interp) }

func (n *InitializeBean) GenCode(g *CodeGen) (EvalFunc, error) {
	fns, err := g.genAll(n.Children())
	if err != nil {
		return nil, err
	}
	return func(in row.InternalRow) (any, error) { return n.eval(in, fns) }, nil
}

func (n *InitializeBean) eval(in row.InternalRow, fns []EvalFunc) (any, error) {
	inst, err := fns[0](in)
	if err != nil {
		return nil, err
	}
	if row.IsNullish(inst) {
		return nil, nil
	}
	// Setters write to a copy; the instance may be shared across rows.
	cp := reflect.New(n.st)
	cp.Elem().Set(reflect.ValueOf(inst).Elem())
	v := cp.Elem()
	for i, fn := range fns[1:] {
		sv, err := fn(in)
		if err != nil {
			return nil, err
		}
		f := v.Field(n.fields[i])
		if row.IsNullish(sv) {
			f.Set(reflect.Zero(f.Type()))
			continue
		}
		cv, err := convertArg(sv, f.Type())
		if err != nil {
			return nil, ErrArgumentMismatch.New(n.names[i], 0, reflect.TypeOf(sv), f.Type())
		}
		f.Set(cv)
	}
	return cp.Interface(), nil
}
