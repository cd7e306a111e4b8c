package collection

import (
	"container/list"
	"reflect"

	row "github.com/hanpama/objrow/internal/row"
)

// Snapshot materializes v into values that compare structurally: engine
// arrays and rows become []any, lists and sequences become []any of their
// elements, recursively. Other values are returned unchanged.
func Snapshot(v any) any {
	switch c := v.(type) {
	case nil:
		return nil
	case row.ArrayData:
		return snapshotAll(c.Values())
	case row.InternalRow:
		out := make([]any, c.NumFields())
		for i := range out {
			out[i] = Snapshot(c.Get(i))
		}
		return out
	case *row.ExternalRow:
		return row.NewExternalRow(c.Schema(), snapshotAll(c.Values()))
	case *list.List:
		if c == nil {
			return nil
		}
		out := make([]any, 0, c.Len())
		for e := c.Front(); e != nil; e = e.Next() {
			out = append(out, Snapshot(e.Value))
		}
		return out
	}
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Func {
		if _, ok := seqElem(t); ok {
			if reflect.ValueOf(v).IsNil() {
				return nil
			}
			elems, err := (&Adapter{typ: t, shape: Seq}).Elements(v)
			if err != nil {
				return v
			}
			return snapshotAll(elems)
		}
	}
	return v
}

func snapshotAll(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = Snapshot(v)
	}
	return out
}
