// Package serializer provides the pluggable binary codecs used to move opaque
// Go objects through binary columns.
//
// Two backends exist. General is reflective and needs no setup. Fast encodes
// only types registered ahead of time in a Registry and produces compact,
// schema-driven payloads. The two formats are not interchangeable.
package serializer

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind selects a serializer backend.
type Kind int

const (
	General Kind = iota
	Fast
)

func (k Kind) String() string {
	switch k {
	case General:
		return "general"
	case Fast:
		return "fast"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind parses a backend name as used in configuration.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "general", "":
		return General, nil
	case "fast":
		return Fast, nil
	}
	return 0, ErrUnknownKind.New(s)
}

// Serializer converts values to bytes and back. Instances are not safe for
// concurrent use; obtain one per operation from a Factory.
type Serializer interface {
	Serialize(v any) ([]byte, error)
	Deserialize(data []byte, t reflect.Type) (any, error)
}

// Factory creates fresh Serializer instances.
type Factory struct {
	opts *Options
}

// NewFactory returns a factory. Without WithRegistry the fast backend uses
// an empty registry of its own.
func NewFactory(opts ...Option) *Factory {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Factory{opts: o}
}

// Registry returns the registry backing the fast serializer.
func (f *Factory) Registry() *Registry { return f.opts.registry }

// New returns a new serializer of the given kind.
func (f *Factory) New(kind Kind) (Serializer, error) {
	switch kind {
	case General:
		return &generalSerializer{}, nil
	case Fast:
		return &fastSerializer{reg: f.opts.registry}, nil
	}
	return nil, ErrUnknownKind.New(kind.String())
}
