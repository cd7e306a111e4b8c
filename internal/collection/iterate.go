package collection

import (
	"cmp"
	"container/list"
	"fmt"
	"reflect"
	"slices"

	row "github.com/hanpama/objrow/internal/row"
)

// Len returns the number of elements in v, or -1 when the count is not known
// without iterating.
func (a *Adapter) Len(v any) int {
	switch a.shape {
	case Native:
		if arr, ok := v.(row.ArrayData); ok {
			return arr.NumElements()
		}
	case List:
		if l, ok := v.(*list.List); ok {
			return l.Len()
		}
	case Array, Set:
		return reflect.ValueOf(v).Len()
	}
	return -1
}

// Range calls fn for each element of v in order. Set keys are visited in
// ascending order so iteration is repeatable. Iteration stops at the first
// error returned by fn.
func (a *Adapter) Range(v any, fn func(i int, elem any) error) error {
	switch a.shape {
	case Native:
		arr, ok := v.(row.ArrayData)
		if !ok {
			return ErrNotCollection.New(reflect.TypeOf(v), a)
		}
		for i := range arr.NumElements() {
			if err := fn(i, arr.Get(i)); err != nil {
				return err
			}
		}
		return nil
	case List:
		l, ok := v.(*list.List)
		if !ok {
			return ErrNotCollection.New(reflect.TypeOf(v), a)
		}
		i := 0
		for e := l.Front(); e != nil; e = e.Next() {
			if err := fn(i, e.Value); err != nil {
				return err
			}
			i++
		}
		return nil
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Type() != a.typ {
		return ErrNotCollection.New(reflect.TypeOf(v), a)
	}
	switch a.shape {
	case Array:
		for i := range rv.Len() {
			if err := fn(i, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
	case Set:
		keys := rv.MapKeys()
		sortKeys(keys)
		i := 0
		for _, k := range keys {
			if a.typ.Elem().Kind() == reflect.Bool && !rv.MapIndex(k).Bool() {
				continue
			}
			if err := fn(i, k.Interface()); err != nil {
				return err
			}
			i++
		}
	case Seq:
		if rv.IsNil() {
			return nil
		}
		var (
			i   int
			err error
		)
		yieldType := a.typ.In(0)
		yield := reflect.MakeFunc(yieldType, func(args []reflect.Value) []reflect.Value {
			if err = fn(i, args[0].Interface()); err != nil {
				return []reflect.Value{reflect.ValueOf(false)}
			}
			i++
			return []reflect.Value{reflect.ValueOf(true)}
		})
		rv.Call([]reflect.Value{yield})
		return err
	}
	return nil
}

// Elements collects the elements of v into a slice.
func (a *Adapter) Elements(v any) ([]any, error) {
	n := a.Len(v)
	if n < 0 {
		n = 0
	}
	out := make([]any, 0, n)
	err := a.Range(v, func(_ int, elem any) error {
		out = append(out, elem)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func sortKeys(keys []reflect.Value) {
	if len(keys) == 0 {
		return
	}
	switch keys[0].Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		slices.SortFunc(keys, func(x, y reflect.Value) int { return cmp.Compare(x.Int(), y.Int()) })
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		slices.SortFunc(keys, func(x, y reflect.Value) int { return cmp.Compare(x.Uint(), y.Uint()) })
	case reflect.Float32, reflect.Float64:
		slices.SortFunc(keys, func(x, y reflect.Value) int { return cmp.Compare(x.Float(), y.Float()) })
	case reflect.String:
		slices.SortFunc(keys, func(x, y reflect.Value) int { return cmp.Compare(x.String(), y.String()) })
	default:
		slices.SortFunc(keys, func(x, y reflect.Value) int {
			return cmp.Compare(fmt.Sprint(x.Interface()), fmt.Sprint(y.Interface()))
		})
	}
}
