package expr

import (
	"reflect"
	"sync"
)

// MockMethod implements a mocked method or function in tests.
type MockMethod func(target any, args []any) (any, error)

// NewMockValueMethod returns a MockMethod that always returns val.
func NewMockValueMethod(val any) MockMethod {
	return func(target any, args []any) (any, error) { return val, nil }
}

// NewMockErrorMethod returns a MockMethod that always fails with err.
func NewMockErrorMethod(err error) MockMethod {
	return func(target any, args []any) (any, error) { return nil, err }
}

// Call records one dispatch through a MockResolver.
type Call struct {
	Receiver reflect.Type // nil for functions
	Name     string
	Target   any
	Args     []any
}

// MockResolver resolves methods and functions from a fixed table and records
// every dispatch. Methods are keyed by receiver type and name, functions by
// name alone; argument types are not checked.
type MockResolver struct {
	mu        sync.Mutex
	methods   map[mockKey]MockMethod
	functions map[string]MockMethod
	calls     []Call
}

type mockKey struct {
	recv reflect.Type
	name string
}

// NewMockResolver returns a resolver with nothing registered.
func NewMockResolver() *MockResolver {
	return &MockResolver{methods: map[mockKey]MockMethod{}, functions: map[string]MockMethod{}}
}

// SetMethod registers or replaces a method on recv.
func (m *MockResolver) SetMethod(recv reflect.Type, name string, fn MockMethod) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.methods[mockKey{recv, name}] = fn
}

// SetFunction registers or replaces a function.
func (m *MockResolver) SetFunction(name string, fn MockMethod) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.functions[name] = fn
}

func (m *MockResolver) ResolveMethod(recv reflect.Type, name string, args []reflect.Type) (Method, error) {
	m.mu.Lock()
	fn, ok := m.methods[mockKey{recv, name}]
	m.mu.Unlock()
	if !ok {
		return nil, ErrMethodNotFound.New(name, recv)
	}
	return &mockMethod{r: m, recv: recv, name: name, fn: fn}, nil
}

func (m *MockResolver) ResolveFunction(name string, args []reflect.Type) (Method, error) {
	m.mu.Lock()
	fn, ok := m.functions[name]
	m.mu.Unlock()
	if !ok {
		return nil, ErrFunctionNotFound.New(name)
	}
	return &mockMethod{r: m, name: name, fn: fn}, nil
}

// GetCalls returns a copy of the recorded dispatches.
func (m *MockResolver) GetCalls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// ResetCalls clears the call log.
func (m *MockResolver) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

type mockMethod struct {
	r    *MockResolver
	recv reflect.Type
	name string
	fn   MockMethod
}

func (mm *mockMethod) Call(target any, args []any) (any, error) {
	mm.r.mu.Lock()
	mm.r.calls = append(mm.r.calls, Call{
		Receiver: mm.recv,
		Name:     mm.name,
		Target:   target,
		Args:     append([]any(nil), args...),
	})
	mm.r.mu.Unlock()
	return mm.fn(target, args)
}
