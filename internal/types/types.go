package types

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind identifies the engine-level type of a value slot.
type Kind string

const (
	KindBoolean   Kind = "BOOLEAN"
	KindByte      Kind = "BYTE"
	KindShort     Kind = "SHORT"
	KindInteger   Kind = "INTEGER"
	KindLong      Kind = "LONG"
	KindFloat     Kind = "FLOAT"
	KindDouble    Kind = "DOUBLE"
	KindDecimal   Kind = "DECIMAL"
	KindDate      Kind = "DATE"
	KindTimestamp Kind = "TIMESTAMP"
	KindString    Kind = "STRING"
	KindBinary    Kind = "BINARY"
	KindArray     Kind = "ARRAY"
	KindStruct    Kind = "STRUCT"
	KindObject    Kind = "OBJECT"
	KindNull      Kind = "NULL"
)

// DataType describes the type of a value produced by an expression or held
// in a row slot. Only the payload fields relevant to Kind are set.
// Values are shared and must not be modified after construction.
type DataType struct {
	Kind Kind

	// ARRAY
	Elem         *DataType
	ContainsNull bool

	// STRUCT
	Fields []*StructField

	// OBJECT
	GoType reflect.Type

	// DECIMAL
	Precision int
	Scale     int
}

// StructField is a named, ordered member of a STRUCT type.
type StructField struct {
	Name     string
	Type     *DataType
	Nullable bool
}

var (
	Boolean   = &DataType{Kind: KindBoolean}
	Byte      = &DataType{Kind: KindByte}
	Short     = &DataType{Kind: KindShort}
	Integer   = &DataType{Kind: KindInteger}
	Long      = &DataType{Kind: KindLong}
	Float     = &DataType{Kind: KindFloat}
	Double    = &DataType{Kind: KindDouble}
	Date      = &DataType{Kind: KindDate}
	Timestamp = &DataType{Kind: KindTimestamp}
	String    = &DataType{Kind: KindString}
	Binary    = &DataType{Kind: KindBinary}
	Null      = &DataType{Kind: KindNull}

	// Decimal is the system default decimal type.
	Decimal = DecimalOf(38, 18)
)

func ArrayOf(elem *DataType, containsNull bool) *DataType {
	return &DataType{Kind: KindArray, Elem: elem, ContainsNull: containsNull}
}

func StructOf(fields ...*StructField) *DataType {
	return &DataType{Kind: KindStruct, Fields: fields}
}

// ObjectOf returns the type of slots holding Go values of type t.
func ObjectOf(t reflect.Type) *DataType {
	return &DataType{Kind: KindObject, GoType: t}
}

func DecimalOf(precision, scale int) *DataType {
	return &DataType{Kind: KindDecimal, Precision: precision, Scale: scale}
}

// Field is shorthand for building struct fields.
func Field(name string, t *DataType, nullable bool) *StructField {
	return &StructField{Name: name, Type: t, Nullable: nullable}
}

// IsPrimitive reports whether values of t have a fixed-width scalar engine
// representation.
func IsPrimitive(t *DataType) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindBoolean, KindByte, KindShort, KindInteger, KindLong,
		KindFloat, KindDouble, KindDate, KindTimestamp:
		return true
	}
	return false
}

// FieldIndex returns the ordinal of the named field, or -1.
func (t *DataType) FieldIndex(name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// FieldNames returns the names of a STRUCT type's fields in order.
func (t *DataType) FieldNames() []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	return names
}

func (t *DataType) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindBoolean:
		return "boolean"
	case KindByte:
		return "tinyint"
	case KindShort:
		return "smallint"
	case KindInteger:
		return "int"
	case KindLong:
		return "bigint"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindDecimal:
		return fmt.Sprintf("decimal(%d,%d)", t.Precision, t.Scale)
	case KindDate:
		return "date"
	case KindTimestamp:
		return "timestamp"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindNull:
		return "null"
	case KindArray:
		return "array<" + t.Elem.String() + ">"
	case KindStruct:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.Name + ":" + f.Type.String()
		}
		return "struct<" + strings.Join(parts, ",") + ">"
	case KindObject:
		if t.GoType == nil {
			return "object<any>"
		}
		return "object<" + t.GoType.String() + ">"
	}
	return string(t.Kind)
}

// Equal reports whether a and b describe the same type.
func Equal(a, b *DataType) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindArray:
		return a.ContainsNull == b.ContainsNull && Equal(a.Elem, b.Elem)
	case KindStruct:
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			fa, fb := a.Fields[i], b.Fields[i]
			if fa.Name != fb.Name || fa.Nullable != fb.Nullable || !Equal(fa.Type, fb.Type) {
				return false
			}
		}
		return true
	case KindObject:
		return a.GoType == b.GoType
	case KindDecimal:
		return a.Precision == b.Precision && a.Scale == b.Scale
	}
	return true
}
