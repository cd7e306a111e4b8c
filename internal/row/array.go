package row

import "github.com/shopspring/decimal"

// ArrayData is the engine's native array representation.
type ArrayData interface {
	Getters
	NumElements() int

	// Values returns the elements as a slice. Callers must not modify it.
	Values() []any
}

// GenericArray is an ArrayData backed by a slice of engine values.
type GenericArray struct {
	values []any
}

// NewArray returns an array holding values. The slice is used as-is.
func NewArray(values ...any) *GenericArray {
	return &GenericArray{values: values}
}

func (a *GenericArray) NumElements() int { return len(a.values) }
func (a *GenericArray) IsNullAt(i int) bool { return a.values[i] == nil }
func (a *GenericArray) Get(i int) any { return a.values[i] }
func (a *GenericArray) Values() []any { return a.values }

func (a *GenericArray) GetBoolean(i int) bool { return a.values[i].(bool) }
func (a *GenericArray) GetByte(i int) int8 { return a.values[i].(int8) }
func (a *GenericArray) GetShort(i int) int16 { return a.values[i].(int16) }
func (a *GenericArray) GetInt(i int) int32 { return a.values[i].(int32) }
func (a *GenericArray) GetLong(i int) int64 { return a.values[i].(int64) }
func (a *GenericArray) GetFloat(i int) float32 { return a.values[i].(float32) }
func (a *GenericArray) GetDouble(i int) float64 { return a.values[i].(float64) }
func (a *GenericArray) GetDecimal(i int) decimal.Decimal { return a.values[i].(decimal.Decimal) }
func (a *GenericArray) GetString(i int) string { return a.values[i].(string) }
func (a *GenericArray) GetBinary(i int) []byte { return a.values[i].([]byte) }
func (a *GenericArray) GetStruct(i int) InternalRow { return a.values[i].(InternalRow) }
func (a *GenericArray) GetArray(i int) ArrayData { return a.values[i].(ArrayData) }

func (a *GenericArray) String() string {
	return "[" + joinValues(a.values) + "]"
}
