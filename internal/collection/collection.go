// Package collection adapts Go collection types for element-wise
// transformation: it classifies a collection type into a Shape, iterates
// values of that type in order, and builds new values of it one element at a
// time.
package collection

import (
	"container/list"
	"fmt"
	"reflect"

	"gopkg.in/src-d/go-errors.v1"

	row "github.com/hanpama/objrow/internal/row"
)

var (
	// ErrUnsupportedCollection is returned by Resolve for types that are not
	// one of the supported shapes.
	ErrUnsupportedCollection = errors.NewKind("unsupported collection type %s")
	// ErrNullElement is returned when a null is stored into an element type
	// that cannot represent it.
	ErrNullElement = errors.NewKind("cannot store null into collection element of type %s")
	// ErrElementType is returned when an element cannot be converted to the
	// collection's element type.
	ErrElementType = errors.NewKind("cannot store value of type %s into collection element of type %s")
	// ErrCollectionOverflow is returned when a fixed-size array receives more
	// elements than it holds.
	ErrCollectionOverflow = errors.NewKind("collection %s holds at most %d elements")
	// ErrCollectionUnderflow is returned when a fixed-size array is completed
	// with fewer elements than it holds.
	ErrCollectionUnderflow = errors.NewKind("collection %s needs %d elements, got %d")
	// ErrNotCollection is returned when a value does not match the adapter's type.
	ErrNotCollection = errors.NewKind("value of type %s is not a %s")
)

// Shape is the structural family of a collection type.
type Shape int

const (
	// Native is the engine array (row.ArrayData).
	Native Shape = iota
	// Array is a Go slice or fixed-size array.
	Array
	// List is a *container/list.List.
	List
	// Seq is a push iterator: func(yield func(T) bool), e.g. iter.Seq[T].
	Seq
	// Set is a map[K]struct{} or map[K]bool keyed by element.
	Set
)

func (s Shape) String() string {
	switch s {
	case Native:
		return "native"
	case Array:
		return "array"
	case List:
		return "list"
	case Seq:
		return "seq"
	case Set:
		return "set"
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

var (
	listType      = reflect.TypeOf((*list.List)(nil))
	arrayDataType = reflect.TypeOf((*row.ArrayData)(nil)).Elem()
	anyType       = reflect.TypeOf((*any)(nil)).Elem()
)

// Adapter describes one collection type.
type Adapter struct {
	typ   reflect.Type
	shape Shape
	elem  reflect.Type
}

// NativeAdapter is the adapter for engine arrays.
var NativeAdapter = &Adapter{typ: arrayDataType, shape: Native, elem: anyType}

// Resolve classifies t. A nil type resolves to the native engine array.
func Resolve(t reflect.Type) (*Adapter, error) {
	if t == nil || t == arrayDataType {
		return NativeAdapter, nil
	}
	if t == listType {
		return &Adapter{typ: t, shape: List, elem: anyType}, nil
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return &Adapter{typ: t, shape: Array, elem: t.Elem()}, nil
	case reflect.Map:
		if isSetValue(t.Elem()) {
			return &Adapter{typ: t, shape: Set, elem: t.Key()}, nil
		}
	case reflect.Func:
		if elem, ok := seqElem(t); ok {
			return &Adapter{typ: t, shape: Seq, elem: elem}, nil
		}
	}
	return nil, ErrUnsupportedCollection.New(t)
}

func isSetValue(t reflect.Type) bool {
	if t.Kind() == reflect.Bool {
		return true
	}
	return t.Kind() == reflect.Struct && t.NumField() == 0
}

func seqElem(t reflect.Type) (reflect.Type, bool) {
	if t.NumIn() != 1 || t.NumOut() != 0 || t.IsVariadic() {
		return nil, false
	}
	yield := t.In(0)
	if yield.Kind() != reflect.Func || yield.NumIn() != 1 || yield.NumOut() != 1 || yield.Out(0).Kind() != reflect.Bool {
		return nil, false
	}
	return yield.In(0), true
}

func (a *Adapter) Shape() Shape { return a.shape }

// Type returns the collection type. For Native it is row.ArrayData.
func (a *Adapter) Type() reflect.Type { return a.typ }

// Elem returns the element type (the key type for sets).
func (a *Adapter) Elem() reflect.Type { return a.elem }

func (a *Adapter) String() string {
	if a.shape == Native {
		return "native"
	}
	return a.shape.String() + "<" + a.typ.String() + ">"
}
