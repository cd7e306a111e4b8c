package row

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// InternalRow is the engine's ordinal-addressed row. Each slot is
// independently nullable; a nil slot is null.
//
// The typed getters assume the caller knows the slot type from the schema.
// A representation mismatch is a contract violation by the row producer and
// panics.
type InternalRow interface {
	Getters
	NumFields() int
}

// Getters is the typed slot access shared by rows and arrays.
type Getters interface {
	IsNullAt(ordinal int) bool
	Get(ordinal int) any

	GetBoolean(ordinal int) bool
	GetByte(ordinal int) int8
	GetShort(ordinal int) int16
	GetInt(ordinal int) int32
	GetLong(ordinal int) int64
	GetFloat(ordinal int) float32
	GetDouble(ordinal int) float64
	GetDecimal(ordinal int) decimal.Decimal
	GetString(ordinal int) string
	GetBinary(ordinal int) []byte
	GetStruct(ordinal int) InternalRow
	GetArray(ordinal int) ArrayData
}

// GenericRow is an InternalRow backed by a slice of engine values.
type GenericRow struct {
	values []any
}

// Empty is a row without fields.
var Empty InternalRow = &GenericRow{}

// New returns a row holding values. The slice is used as-is.
func New(values ...any) *GenericRow {
	return &GenericRow{values: values}
}

func (r *GenericRow) NumFields() int { return len(r.values) }
func (r *GenericRow) IsNullAt(ordinal int) bool { return r.values[ordinal] == nil }
func (r *GenericRow) Get(ordinal int) any { return r.values[ordinal] }

func (r *GenericRow) GetBoolean(ordinal int) bool { return r.values[ordinal].(bool) }
func (r *GenericRow) GetByte(ordinal int) int8 { return r.values[ordinal].(int8) }
func (r *GenericRow) GetShort(ordinal int) int16 { return r.values[ordinal].(int16) }
func (r *GenericRow) GetInt(ordinal int) int32 { return r.values[ordinal].(int32) }
func (r *GenericRow) GetLong(ordinal int) int64 { return r.values[ordinal].(int64) }
func (r *GenericRow) GetFloat(ordinal int) float32 { return r.values[ordinal].(float32) }
func (r *GenericRow) GetDouble(ordinal int) float64 { return r.values[ordinal].(float64) }
func (r *GenericRow) GetDecimal(ordinal int) decimal.Decimal { return r.values[ordinal].(decimal.Decimal) }
func (r *GenericRow) GetString(ordinal int) string { return r.values[ordinal].(string) }
func (r *GenericRow) GetBinary(ordinal int) []byte { return r.values[ordinal].([]byte) }
func (r *GenericRow) GetStruct(ordinal int) InternalRow { return r.values[ordinal].(InternalRow) }
func (r *GenericRow) GetArray(ordinal int) ArrayData { return r.values[ordinal].(ArrayData) }

// Values returns the backing slice.
func (r *GenericRow) Values() []any { return r.values }

func (r *GenericRow) String() string {
	return "[" + joinValues(r.values) + "]"
}

func joinValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if v == nil {
			parts[i] = "null"
			continue
		}
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}
