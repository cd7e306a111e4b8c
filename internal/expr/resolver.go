package expr

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	row "github.com/hanpama/objrow/internal/row"
	types "github.com/hanpama/objrow/internal/types"
)

// Resolver looks up callables while a tree is built. Lookups happen once per
// node; the returned Method is invoked per row.
type Resolver interface {
	ResolveMethod(recv reflect.Type, name string, args []reflect.Type) (Method, error)
	ResolveFunction(name string, args []reflect.Type) (Method, error)
}

// Method is a resolved callable. target is nil for functions.
type Method interface {
	Call(target any, args []any) (any, error)
}

// DefaultResolver resolves methods through reflection and functions through
// a Functions table.
type DefaultResolver struct {
	fns *Functions
}

// NewResolver returns a resolver over fns. A nil table resolves no functions.
func NewResolver(fns *Functions) *DefaultResolver {
	if fns == nil {
		fns = NewFunctions()
	}
	return &DefaultResolver{fns: fns}
}

func (r *DefaultResolver) ResolveMethod(recv reflect.Type, name string, args []reflect.Type) (Method, error) {
	if recv == nil {
		return nil, ErrMethodNotFound.New(name, "any")
	}
	m, ok := recv.MethodByName(name)
	if !ok {
		return nil, ErrMethodNotFound.New(name, recv)
	}
	qualified := recv.String() + "." + name
	if recv.Kind() == reflect.Interface {
		// Interface methods have no Func; dispatch on the dynamic value.
		rm, err := newReflectMethod(qualified, reflect.Value{}, m.Type, args, 0)
		if err != nil {
			return nil, err
		}
		rm.dynamic = name
		return rm, nil
	}
	return newReflectMethod(qualified, m.Func, m.Func.Type(), args, 1)
}

func (r *DefaultResolver) ResolveFunction(name string, args []reflect.Type) (Method, error) {
	fn, ok := r.fns.lookup(name)
	if !ok {
		return nil, ErrFunctionNotFound.New(name)
	}
	return newReflectMethod(name, fn, fn.Type(), args, 0)
}

// Functions is a table of named Go functions callable by StaticInvoke.
type Functions struct {
	mu  sync.RWMutex
	fns map[string]reflect.Value
}

// NewFunctions returns an empty function table.
func NewFunctions() *Functions {
	return &Functions{fns: map[string]reflect.Value{}}
}

// Register adds fn under name. fn must be a func returning one value,
// optionally followed by an error.
func (f *Functions) Register(name string, fn any) error {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return fmt.Errorf("function %s: %T is not a func", name, fn)
	}
	if _, err := resultShape(name, v.Type()); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fns[name] = v
	return nil
}

// Names returns the registered function names in sorted order.
func (f *Functions) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.fns))
	for n := range f.fns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (f *Functions) lookup(name string) (reflect.Value, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.fns[name]
	return v, ok
}

// Builtins returns a table with the standard conversion functions.
func Builtins() *Functions {
	f := NewFunctions()
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(f.Register("timeToMicros", func(t time.Time) int64 { return t.UnixMicro() }))
	must(f.Register("microsToTime", func(us int64) time.Time { return time.UnixMicro(us).UTC() }))
	must(f.Register("timeToDays", func(t time.Time) int32 { return types.DaysSinceEpoch(t) }))
	must(f.Register("daysToTime", func(days int32) time.Time { return types.DateFromDays(days) }))
	must(f.Register("decimalFromString", decimal.NewFromString))
	must(f.Register("stringOf", func(v any) string { return fmt.Sprint(v) }))
	return f
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// resultShape validates that t returns T or (T, error) and reports whether
// an error is returned.
func resultShape(name string, t reflect.Type) (hasErr bool, err error) {
	switch {
	case t.NumOut() == 1 && t.Out(0) != errorType:
		return false, nil
	case t.NumOut() == 2 && t.Out(1) == errorType:
		return true, nil
	}
	return false, ErrBadSignature.New(name)
}

// reflectMethod calls a func value. For methods the receiver is the first
// parameter (skip == 1). When dynamic is set the method is looked up by name
// on the target at call time.
type reflectMethod struct {
	name    string
	fn      reflect.Value
	dynamic string
	params  []reflect.Type
	skip    int
	hasErr  bool
}

func newReflectMethod(name string, fn reflect.Value, ft reflect.Type, args []reflect.Type, skip int) (*reflectMethod, error) {
	if ft.IsVariadic() {
		return nil, ErrBadSignature.New(name)
	}
	if ft.NumIn()-skip != len(args) {
		return nil, ErrArgumentCount.New(name, ft.NumIn()-skip, len(args))
	}
	hasErr, err := resultShape(name, ft)
	if err != nil {
		return nil, err
	}
	params := make([]reflect.Type, len(args))
	for i, at := range args {
		pt := ft.In(i + skip)
		if !acceptsArg(at, pt) {
			return nil, ErrArgumentMismatch.New(name, i, at, pt)
		}
		params[i] = pt
	}
	return &reflectMethod{name: name, fn: fn, params: params, skip: skip, hasErr: hasErr}, nil
}

func (m *reflectMethod) Call(target any, args []any) (out any, err error) {
	in := make([]reflect.Value, 0, len(args)+m.skip)
	if m.skip == 1 {
		in = append(in, reflect.ValueOf(target))
	}
	for i, a := range args {
		v, err := convertArg(a, m.params[i])
		if err != nil {
			return nil, ErrArgumentMismatch.New(m.name, i, reflect.TypeOf(a), m.params[i])
		}
		in = append(in, v)
	}
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%s panicked: %v", m.name, r)
		}
	}()
	fn := m.fn
	if m.dynamic != "" {
		fn = reflect.ValueOf(target).MethodByName(m.dynamic)
	}
	res := fn.Call(in)
	if m.hasErr && !res[1].IsNil() {
		return nil, res[1].Interface().(error)
	}
	return res[0].Interface(), nil
}

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// acceptsArg reports whether values of static type at may be passed for a
// parameter of type pt. Interface-typed arguments are checked per call.
func acceptsArg(at, pt reflect.Type) bool {
	if at == nil || at == anyType || at.AssignableTo(pt) {
		return true
	}
	return convertible(at, pt)
}

func convertible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	return from.Kind() == to.Kind() || (isNumeric(from.Kind()) && isNumeric(to.Kind()))
}

func convertArg(a any, pt reflect.Type) (reflect.Value, error) {
	if row.IsNullish(a) {
		switch pt.Kind() {
		case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return reflect.Zero(pt), nil
		}
		return reflect.Value{}, fmt.Errorf("nil for %s", pt)
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(pt) {
		return v, nil
	}
	if convertible(v.Type(), pt) {
		return v.Convert(pt), nil
	}
	return reflect.Value{}, fmt.Errorf("%s for %s", v.Type(), pt)
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
