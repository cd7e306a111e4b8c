package expr

import (
	"container/list"
	"fmt"
	"reflect"
	"time"

	"github.com/shopspring/decimal"

	collection "github.com/hanpama/objrow/internal/collection"
	row "github.com/hanpama/objrow/internal/row"
	types "github.com/hanpama/objrow/internal/types"
)

var externalRowType = reflect.TypeOf((*row.ExternalRow)(nil))

// CreateExternalRow assembles a *row.ExternalRow from its children.
type CreateExternalRow struct {
	children []Expression
	schema   *types.DataType
	interp   []EvalFunc
}

// NewCreateExternalRow requires a STRUCT schema with one field per child.
func NewCreateExternalRow(children []Expression, schema *types.DataType) (*CreateExternalRow, error) {
	if schema == nil || schema.Kind != types.KindStruct {
		return nil, ErrTypeMismatch.New("createexternalrow", "struct", schema)
	}
	if len(schema.Fields) != len(children) {
		return nil, ErrSchemaArity.New(schema, len(schema.Fields), len(children))
	}
	return &CreateExternalRow{children: children, schema: schema, interp: evalFuncs(children)}, nil
}

func (n *CreateExternalRow) Schema() *types.DataType { return n.schema }
func (n *CreateExternalRow) DataType() *types.DataType { return types.ObjectOf(externalRowType) }
func (n *CreateExternalRow) Nullable() bool { return false }
func (n *CreateExternalRow) Children() []Expression { return n.children }

func (n *CreateExternalRow) String() string {
	return fmt.Sprintf("createexternalrow(%s)", joinExprs(n.children))
}

func (n *CreateExternalRow) Eval(in row.InternalRow) (any, error) { return n.eval(in, n.interp) }

func (n *CreateExternalRow) GenCode(g *CodeGen) (EvalFunc, error) {
	fns, err := g.genAll(n.children)
	if err != nil {
		return nil, err
	}
	return func(in row.InternalRow) (any, error) { return n.eval(in, fns) }, nil
}

func (n *CreateExternalRow) eval(in row.InternalRow, fns []EvalFunc) (any, error) {
	vals := make([]any, len(fns))
	for i, fn := range fns {
		v, err := fn(in)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return row.NewExternalRow(n.schema, vals), nil
}

// GetExternalRowField reads a field of an external row that must not be
// null.
type GetExternalRowField struct {
	child     Expression
	ordinal   int
	fieldName string
	interp    EvalFunc
}

// NewGetExternalRowField requires child to produce *row.ExternalRow values.
func NewGetExternalRowField(child Expression, ordinal int, fieldName string) (*GetExternalRowField, error) {
	ct := child.DataType()
	if ct.Kind != types.KindObject || ct.GoType != externalRowType {
		return nil, ErrTypeMismatch.New("getexternalrowfield", types.ObjectOf(externalRowType), ct)
	}
	return &GetExternalRowField{child: child, ordinal: ordinal, fieldName: fieldName, interp: child.Eval}, nil
}

func (n *GetExternalRowField) DataType() *types.DataType { return types.ObjectOf(nil) }
func (n *GetExternalRowField) Nullable() bool { return false }
func (n *GetExternalRowField) Children() []Expression { return []Expression{n.child} }

func (n *GetExternalRowField) String() string {
	return fmt.Sprintf("getexternalrowfield(%s, %d, %s)", n.child, n.ordinal, n.fieldName)
}

func (n *GetExternalRowField) Eval(in row.InternalRow) (any, error) { return n.eval(in, n.interp) }

func (n *GetExternalRowField) GenCode(g *CodeGen) (EvalFunc, error) {
	fn, err := g.Gen(n.child)
	if err != nil {
		return nil, err
	}
	return func(in row.InternalRow) (any, error) { return n.eval(in, fn) }, nil
}

func (n *GetExternalRowField) eval(in row.InternalRow, child EvalFunc) (any, error) {
	v, err := child(in)
	if err != nil {
		return nil, err
	}
	if row.IsNullish(v) {
		return nil, ErrNullExternalRow.New()
	}
	r, ok := v.(*row.ExternalRow)
	if !ok {
		return nil, ErrTypeMismatch.New(n.String(), types.ObjectOf(externalRowType), fmt.Sprintf("%T", v))
	}
	if n.ordinal < 0 || n.ordinal >= r.Len() {
		return nil, ErrFieldOrdinalOutOfRange.New(n.ordinal, r.Len())
	}
	f := r.Get(n.ordinal)
	if row.IsNullish(f) {
		return nil, ErrNullExternalRowField.New(n.ordinal, n.fieldName)
	}
	return f, nil
}

// ValidateExternalType checks that an external value has a Go type that can
// be converted to the expected engine type. The value is passed through.
type ValidateExternalType struct {
	child    Expression
	expected *types.DataType
	interp   EvalFunc
}

// NewValidateExternalType checks values of child against expected.
func NewValidateExternalType(child Expression, expected *types.DataType) (*ValidateExternalType, error) {
	return &ValidateExternalType{child: child, expected: expected, interp: child.Eval}, nil
}

func (n *ValidateExternalType) DataType() *types.DataType { return types.ObjectOf(nil) }
func (n *ValidateExternalType) Nullable() bool { return n.child.Nullable() }
func (n *ValidateExternalType) Children() []Expression { return []Expression{n.child} }

func (n *ValidateExternalType) String() string {
	return fmt.Sprintf("validateexternaltype(%s, %s)", n.child, n.expected)
}

func (n *ValidateExternalType) Eval(in row.InternalRow) (any, error) { return n.eval(in, n.interp) }

func (n *ValidateExternalType) GenCode(g *CodeGen) (EvalFunc, error) {
	fn, err := g.Gen(n.child)
	if err != nil {
		return nil, err
	}
	return func(in row.InternalRow) (any, error) { return n.eval(in, fn) }, nil
}

func (n *ValidateExternalType) eval(in row.InternalRow, child EvalFunc) (any, error) {
	v, err := child(in)
	if err != nil {
		return nil, err
	}
	if row.IsNullish(v) {
		return nil, nil
	}
	if !validExternal(n.expected, v) {
		return nil, ErrInvalidExternalType.New(fmt.Sprintf("%T", v), n.expected)
	}
	return v, nil
}

func validExternal(t *types.DataType, v any) bool {
	switch t.Kind {
	case types.KindBoolean:
		_, ok := v.(bool)
		return ok
	case types.KindByte:
		_, ok := v.(int8)
		return ok
	case types.KindShort:
		_, ok := v.(int16)
		return ok
	case types.KindInteger:
		switch v.(type) {
		case int32, int:
			return true
		}
	case types.KindLong:
		switch v.(type) {
		case int64, int:
			return true
		}
	case types.KindFloat:
		_, ok := v.(float32)
		return ok
	case types.KindDouble:
		_, ok := v.(float64)
		return ok
	case types.KindDecimal:
		_, ok := v.(decimal.Decimal)
		return ok
	case types.KindDate, types.KindTimestamp:
		_, ok := v.(time.Time)
		return ok
	case types.KindString:
		_, ok := v.(string)
		return ok
	case types.KindBinary:
		_, ok := v.([]byte)
		return ok
	case types.KindStruct:
		_, ok := v.(*row.ExternalRow)
		return ok
	case types.KindArray:
		if _, ok := v.(*list.List); ok {
			return true
		}
		a, err := collection.Resolve(reflect.TypeOf(v))
		return err == nil && a.Shape() == collection.Array
	case types.KindObject:
		return t.GoType == nil || reflect.TypeOf(v).AssignableTo(t.GoType)
	}
	return false
}
