package collection

import (
	"container/list"
	"reflect"

	row "github.com/hanpama/objrow/internal/row"
)

// Builder accumulates elements into a new collection value.
type Builder interface {
	Add(elem any) error
	// Result returns the built collection. The builder must not be used
	// afterwards.
	Result() (any, error)
}

// NewBuilder returns a builder for the adapter's type. sizeHint is the
// expected element count, or -1 when unknown.
//
// checkNulls only affects Native builders: when false, elements are stored
// exactly as given, without normalizing typed nils to null. Callers pass
// false only when elements are statically known to be non-null primitives.
func (a *Adapter) NewBuilder(sizeHint int, checkNulls bool) Builder {
	if sizeHint < 0 {
		sizeHint = 0
	}
	switch a.shape {
	case Array:
		if a.typ.Kind() == reflect.Array {
			return &fixedArrayBuilder{a: a, v: reflect.New(a.typ).Elem()}
		}
		return &sliceBuilder{a: a, v: reflect.MakeSlice(a.typ, 0, sizeHint)}
	case List:
		return &listBuilder{l: list.New()}
	case Seq:
		return &seqBuilder{a: a, vals: make([]reflect.Value, 0, sizeHint)}
	case Set:
		return &setBuilder{a: a, m: reflect.MakeMapWithSize(a.typ, sizeHint)}
	}
	return &nativeBuilder{values: make([]any, 0, sizeHint), checkNulls: checkNulls}
}

type nativeBuilder struct {
	values     []any
	checkNulls bool
}

func (b *nativeBuilder) Add(elem any) error {
	if b.checkNulls && row.IsNullish(elem) {
		elem = nil
	}
	b.values = append(b.values, elem)
	return nil
}

func (b *nativeBuilder) Result() (any, error) { return row.NewArray(b.values...), nil }

type sliceBuilder struct {
	a *Adapter
	v reflect.Value
}

func (b *sliceBuilder) Add(elem any) error {
	ev, err := convertElem(elem, b.a.elem)
	if err != nil {
		return err
	}
	b.v = reflect.Append(b.v, ev)
	return nil
}

func (b *sliceBuilder) Result() (any, error) { return b.v.Interface(), nil }

type fixedArrayBuilder struct {
	a *Adapter
	v reflect.Value
	n int
}

func (b *fixedArrayBuilder) Add(elem any) error {
	if b.n >= b.v.Len() {
		return ErrCollectionOverflow.New(b.a.typ, b.v.Len())
	}
	ev, err := convertElem(elem, b.a.elem)
	if err != nil {
		return err
	}
	b.v.Index(b.n).Set(ev)
	b.n++
	return nil
}

// Result fails unless every slot was filled.
func (b *fixedArrayBuilder) Result() (any, error) {
	if b.n != b.v.Len() {
		return nil, ErrCollectionUnderflow.New(b.a.typ, b.v.Len(), b.n)
	}
	return b.v.Interface(), nil
}

type listBuilder struct {
	l *list.List
}

func (b *listBuilder) Add(elem any) error {
	if row.IsNullish(elem) {
		elem = nil
	}
	b.l.PushBack(elem)
	return nil
}

func (b *listBuilder) Result() (any, error) { return b.l, nil }

type seqBuilder struct {
	a    *Adapter
	vals []reflect.Value
}

func (b *seqBuilder) Add(elem any) error {
	ev, err := convertElem(elem, b.a.elem)
	if err != nil {
		return err
	}
	b.vals = append(b.vals, ev)
	return nil
}

func (b *seqBuilder) Result() (any, error) {
	vals := b.vals
	fn := reflect.MakeFunc(b.a.typ, func(args []reflect.Value) []reflect.Value {
		yield := args[0]
		for _, v := range vals {
			if !yield.Call([]reflect.Value{v})[0].Bool() {
				break
			}
		}
		return nil
	})
	return fn.Interface(), nil
}

type setBuilder struct {
	a *Adapter
	m reflect.Value
}

func (b *setBuilder) Add(elem any) error {
	kv, err := convertElem(elem, b.a.elem)
	if err != nil {
		return err
	}
	present := reflect.New(b.a.typ.Elem()).Elem()
	if present.Kind() == reflect.Bool {
		present.SetBool(true)
	}
	b.m.SetMapIndex(kv, present)
	return nil
}

func (b *setBuilder) Result() (any, error) { return b.m.Interface(), nil }

// convertElem adapts elem to the element type t. Numeric values convert
// between numeric kinds; other values must be assignable or share t's kind.
func convertElem(elem any, t reflect.Type) (reflect.Value, error) {
	if row.IsNullish(elem) {
		if nilable(t) {
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, ErrNullElement.New(t)
	}
	v := reflect.ValueOf(elem)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if v.Type().ConvertibleTo(t) && (v.Kind() == t.Kind() || (isNumeric(v.Kind()) && isNumeric(t.Kind()))) {
		return v.Convert(t), nil
	}
	return reflect.Value{}, ErrElementType.New(v.Type(), t)
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
