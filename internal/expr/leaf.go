package expr

import (
	"fmt"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	row "github.com/hanpama/objrow/internal/row"
	types "github.com/hanpama/objrow/internal/types"
)

// BoundReference reads one slot of the input row.
type BoundReference struct {
	ordinal  int
	dt       *types.DataType
	nullable bool
	access   row.AccessorFunc
}

// NewBoundReference reads slot ordinal of the input row as dt.
func NewBoundReference(ordinal int, dt *types.DataType, nullable bool) *BoundReference {
	return &BoundReference{ordinal: ordinal, dt: dt, nullable: nullable, access: row.Accessor(dt)}
}

func (b *BoundReference) Ordinal() int { return b.ordinal }
func (b *BoundReference) DataType() *types.DataType { return b.dt }
func (b *BoundReference) Nullable() bool { return b.nullable }
func (b *BoundReference) Children() []Expression { return nil }
func (b *BoundReference) Eval(in row.InternalRow) (any, error) { return b.read(in) }

func (b *BoundReference) String() string {
	return fmt.Sprintf("input[%d, %s, %t]", b.ordinal, b.dt, b.nullable)
}

func (b *BoundReference) GenCode(*CodeGen) (EvalFunc, error) { return b.read, nil }

func (b *BoundReference) read(in row.InternalRow) (any, error) {
	if in == nil || b.ordinal < 0 || b.ordinal >= in.NumFields() {
		n := 0
		if in != nil {
			n = in.NumFields()
		}
		return nil, ErrOrdinalOutOfRange.New(b.ordinal, n)
	}
	return b.access(in, b.ordinal), nil
}

// Literal is a constant.
type Literal struct {
	value any
	dt    *types.DataType
}

// NewLiteral returns a literal of type dt. Scalar values are converted to
// the engine representation of dt.
func NewLiteral(v any, dt *types.DataType) (*Literal, error) {
	if row.IsNullish(v) {
		return &Literal{dt: dt}, nil
	}
	ev, err := types.ToEngine(dt, v)
	if err != nil {
		return nil, err
	}
	return &Literal{value: ev, dt: dt}, nil
}

// Lit returns a literal whose type is inferred from the Go type of v.
// Untyped ints become INTEGER. Values without a scalar mapping become OBJECT
// literals.
func Lit(v any) *Literal {
	dt := inferType(v)
	l, err := NewLiteral(v, dt)
	if err != nil {
		// Only an int outside the int32 range can fail here.
		l, _ = NewLiteral(v, types.Long)
	}
	return l
}

func inferType(v any) *types.DataType {
	switch v.(type) {
	case nil:
		return types.Null
	case bool:
		return types.Boolean
	case int8:
		return types.Byte
	case int16:
		return types.Short
	case int32, int:
		return types.Integer
	case int64:
		return types.Long
	case float32:
		return types.Float
	case float64:
		return types.Double
	case decimal.Decimal:
		return types.Decimal
	case time.Time:
		return types.Timestamp
	case string:
		return types.String
	case []byte:
		return types.Binary
	}
	return types.ObjectOf(reflect.TypeOf(v))
}

func (l *Literal) Value() any { return l.value }
func (l *Literal) DataType() *types.DataType { return l.dt }
func (l *Literal) Nullable() bool { return l.value == nil }
func (l *Literal) Children() []Expression { return nil }
func (l *Literal) Eval(row.InternalRow) (any, error) { return l.value, nil }
func (l *Literal) String() string {
	if l.value == nil {
		return "null"
	}
	return fmt.Sprint(l.value)
}

func (l *Literal) GenCode(*CodeGen) (EvalFunc, error) {
	v := l.value
	return func(row.InternalRow) (any, error) { return v, nil }, nil
}

var lambdaIDs atomic.Int64

// LambdaVariable stands for the current element inside a MapObjects
// transform. Its value is bound per element on a scoped row wrapper.
type LambdaVariable struct {
	id       int64
	dt       *types.DataType
	nullable bool
}

// NewLambdaVariable returns a variable with a process-unique id.
func NewLambdaVariable(dt *types.DataType, nullable bool) *LambdaVariable {
	return &LambdaVariable{id: lambdaIDs.Add(1), dt: dt, nullable: nullable}
}

func (v *LambdaVariable) ID() int64 { return v.id }
func (v *LambdaVariable) DataType() *types.DataType { return v.dt }
func (v *LambdaVariable) Nullable() bool { return v.nullable }
func (v *LambdaVariable) Children() []Expression { return nil }
func (v *LambdaVariable) String() string { return fmt.Sprintf("lambdavariable(%d, %s)", v.id, v.dt) }

func (v *LambdaVariable) Eval(in row.InternalRow) (any, error) { return v.lookup(in) }

func (v *LambdaVariable) GenCode(*CodeGen) (EvalFunc, error) { return v.lookup, nil }

func (v *LambdaVariable) lookup(in row.InternalRow) (any, error) {
	for in != nil {
		lr, ok := in.(*lambdaRow)
		if !ok {
			break
		}
		if lr.id == v.id {
			return lr.value, nil
		}
		in = lr.InternalRow
	}
	return nil, ErrUnboundLambda.New(v.id)
}

// lambdaRow binds one lambda variable on top of an input row. Slot access
// goes to the wrapped row.
type lambdaRow struct {
	row.InternalRow
	id    int64
	value any
}

func bindLambda(in row.InternalRow, id int64, value any) row.InternalRow {
	if in == nil {
		in = row.Empty
	}
	return &lambdaRow{InternalRow: in, id: id, value: value}
}
