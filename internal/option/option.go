package option

import (
	"fmt"
	"reflect"
)

// Option is a present/absent marker around a value. The zero value is None.
type Option struct {
	value   any
	present bool
}

// Type is the reflect.Type of Option.
var Type = reflect.TypeOf(Option{})

// PtrType is the reflect.Type of *Option.
var PtrType = reflect.TypeOf((*Option)(nil))

func Some(v any) Option { return Option{value: v, present: true} }

func None() Option { return Option{} }

func (o Option) IsPresent() bool { return o.present }

// Get returns the wrapped value. It is nil for None, and may be nil for a
// present option wrapping nil.
func (o Option) Get() any { return o.value }

func (o Option) String() string {
	if !o.present {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", o.value)
}

// Unwrap returns the value held by an Option or *Option. A nil pointer and
// None both yield (nil, false). ok is false for values of any other type.
func Unwrap(v any) (value any, present bool, ok bool) {
	switch o := v.(type) {
	case Option:
		return o.value, o.present, true
	case *Option:
		if o == nil {
			return nil, false, true
		}
		return o.value, o.present, true
	}
	return nil, false, false
}
