package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	row "github.com/hanpama/objrow/internal/row"
	types "github.com/hanpama/objrow/internal/types"
)

// readRows loads a JSON array of rows. Each row is either an array of
// positional values or an object keyed by field name.
func readRows(path string, schema *types.DataType) ([]row.InternalRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	rows := make([]row.InternalRow, len(raw))
	for i, r := range raw {
		in, err := toStruct(schema, r)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i, err)
		}
		rows[i] = in
	}
	return rows, nil
}

func toStruct(t *types.DataType, v any) (row.InternalRow, error) {
	values := make([]any, len(t.Fields))
	switch r := v.(type) {
	case []any:
		if len(r) != len(t.Fields) {
			return nil, fmt.Errorf("%s has %d fields but %d values were given", t, len(t.Fields), len(r))
		}
		for i, f := range t.Fields {
			fv, err := toField(f, r[i])
			if err != nil {
				return nil, err
			}
			values[i] = fv
		}
	case map[string]any:
		for name := range r {
			if t.FieldIndex(name) < 0 {
				return nil, fmt.Errorf("%s has no field %q", t, name)
			}
		}
		for i, f := range t.Fields {
			fv, err := toField(f, r[f.Name])
			if err != nil {
				return nil, err
			}
			values[i] = fv
		}
	default:
		return nil, fmt.Errorf("expected an array or object for %s, got %T", t, v)
	}
	return row.New(values...), nil
}

func toField(f *types.StructField, v any) (any, error) {
	if v == nil && !f.Nullable {
		return nil, fmt.Errorf("field %s cannot be null", f.Name)
	}
	out, err := toValue(f.Type, v)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.Name, err)
	}
	return out, nil
}

func toValue(t *types.DataType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t.Kind {
	case types.KindStruct:
		return toStruct(t, v)
	case types.KindArray:
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("expected an array for %s, got %T", t, v)
		}
		out := make([]any, len(items))
		for i, item := range items {
			if item == nil && !t.ContainsNull {
				return nil, fmt.Errorf("element %d cannot be null", i)
			}
			ev, err := toValue(t.Elem, item)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return row.NewArray(out...), nil
	}
	if n, ok := v.(json.Number); ok {
		v = number(t, n)
	}
	return types.ToEngine(t, v)
}

// number picks the Go representation of a JSON number that converts to t
// without losing precision.
func number(t *types.DataType, n json.Number) any {
	switch t.Kind {
	case types.KindDecimal:
		return n.String()
	case types.KindFloat, types.KindDouble:
		if f, err := n.Float64(); err == nil {
			return f
		}
	default:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return n.String()
}
