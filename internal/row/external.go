package row

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	types "github.com/hanpama/objrow/internal/types"
)

var cborRowMode = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// ExternalRow is the user-facing row: an ordered list of Go values with an
// optional STRUCT schema. It is immutable after construction.
type ExternalRow struct {
	schema *types.DataType
	values []any
}

// NewExternalRow returns a row over a copy of values. schema may be nil.
func NewExternalRow(schema *types.DataType, values []any) *ExternalRow {
	return &ExternalRow{schema: schema, values: append([]any(nil), values...)}
}

func (r *ExternalRow) Len() int { return len(r.values) }
func (r *ExternalRow) Get(i int) any { return r.values[i] }
func (r *ExternalRow) IsNullAt(i int) bool { return r.values[i] == nil }
func (r *ExternalRow) Schema() *types.DataType { return r.schema }
func (r *ExternalRow) Values() []any { return append([]any(nil), r.values...) }
func (r *ExternalRow) String() string { return "[" + joinValues(r.values) + "]" }

// FieldIndex returns the ordinal of the named field, or -1 when the row has
// no schema or no such field.
func (r *ExternalRow) FieldIndex(name string) int {
	if r.schema == nil {
		return -1
	}
	return r.schema.FieldIndex(name)
}

// GetAs returns the value of the named field.
func (r *ExternalRow) GetAs(name string) (any, bool) {
	i := r.FieldIndex(name)
	if i < 0 || i >= len(r.values) {
		return nil, false
	}
	return r.values[i], true
}

// Equal reports whether both rows hold deeply equal values under equal
// schemas.
func (r *ExternalRow) Equal(other *ExternalRow) bool {
	if r == nil || other == nil {
		return r == other
	}
	if (r.schema == nil) != (other.schema == nil) {
		return false
	}
	if r.schema != nil && !types.Equal(r.schema, other.schema) {
		return false
	}
	return reflect.DeepEqual(r.values, other.values)
}

// MarshalJSON renders the row as an object keyed by field name, or as an
// array when the row has no schema.
func (r *ExternalRow) MarshalJSON() ([]byte, error) {
	if r.schema == nil || len(r.schema.Fields) != len(r.values) {
		return json.Marshal(r.values)
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.schema.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalCBOR encodes the row with the same shape as MarshalJSON: a map keyed
// by field name, or an array when the row has no schema.
func (r *ExternalRow) MarshalCBOR() ([]byte, error) {
	if r.schema == nil || len(r.schema.Fields) != len(r.values) {
		return cborRowMode.Marshal(r.values)
	}
	m := make(map[string]any, len(r.values))
	for i, f := range r.schema.Fields {
		m[f.Name] = r.values[i]
	}
	return cborRowMode.Marshal(m)
}
