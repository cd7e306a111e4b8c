package row

import (
	"reflect"

	"github.com/shopspring/decimal"

	types "github.com/hanpama/objrow/internal/types"
)

// AccessorFunc reads one slot of a row or array.
type AccessorFunc func(g Getters, ordinal int) any

// Accessor returns the typed slot reader for dt. Null slots read as nil.
func Accessor(dt *types.DataType) AccessorFunc {
	get := typedGetter(dt)
	return func(g Getters, ordinal int) any {
		if g.IsNullAt(ordinal) {
			return nil
		}
		return get(g, ordinal)
	}
}

func typedGetter(dt *types.DataType) AccessorFunc {
	switch dt.Kind {
	case types.KindBoolean:
		return func(g Getters, i int) any { return g.GetBoolean(i) }
	case types.KindByte:
		return func(g Getters, i int) any { return g.GetByte(i) }
	case types.KindShort:
		return func(g Getters, i int) any { return g.GetShort(i) }
	case types.KindInteger, types.KindDate:
		return func(g Getters, i int) any { return g.GetInt(i) }
	case types.KindLong, types.KindTimestamp:
		return func(g Getters, i int) any { return g.GetLong(i) }
	case types.KindFloat:
		return func(g Getters, i int) any { return g.GetFloat(i) }
	case types.KindDouble:
		return func(g Getters, i int) any { return g.GetDouble(i) }
	case types.KindDecimal:
		return func(g Getters, i int) any { return g.GetDecimal(i) }
	case types.KindString:
		return func(g Getters, i int) any { return g.GetString(i) }
	case types.KindBinary:
		return func(g Getters, i int) any { return g.GetBinary(i) }
	case types.KindStruct:
		return func(g Getters, i int) any { return g.GetStruct(i) }
	case types.KindArray:
		return func(g Getters, i int) any { return g.GetArray(i) }
	}
	return func(g Getters, i int) any { return g.Get(i) }
}

var (
	anyType         = reflect.TypeOf((*any)(nil)).Elem()
	internalRowType = reflect.TypeOf((*InternalRow)(nil)).Elem()
	arrayDataType   = reflect.TypeOf((*ArrayData)(nil)).Elem()
)

// GoType returns the Go type of the engine representation of dt.
func GoType(dt *types.DataType) reflect.Type {
	switch dt.Kind {
	case types.KindBoolean:
		return reflect.TypeOf(false)
	case types.KindByte:
		return reflect.TypeOf(int8(0))
	case types.KindShort:
		return reflect.TypeOf(int16(0))
	case types.KindInteger, types.KindDate:
		return reflect.TypeOf(int32(0))
	case types.KindLong, types.KindTimestamp:
		return reflect.TypeOf(int64(0))
	case types.KindFloat:
		return reflect.TypeOf(float32(0))
	case types.KindDouble:
		return reflect.TypeOf(float64(0))
	case types.KindDecimal:
		return reflect.TypeOf(decimal.Decimal{})
	case types.KindString:
		return reflect.TypeOf("")
	case types.KindBinary:
		return reflect.TypeOf([]byte(nil))
	case types.KindStruct:
		return internalRowType
	case types.KindArray:
		return arrayDataType
	case types.KindObject:
		if dt.GoType != nil {
			return dt.GoType
		}
	}
	return anyType
}
