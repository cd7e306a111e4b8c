package serializer

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/jhump/protoreflect/v2/protobuilder"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Registry holds the types known to the fast serializer. Each registered type
// gets a stable registration id and a protobuf message descriptor derived
// from its Go structure.
//
// Registration is expected during setup; lookups are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[reflect.Type]*entry
	nextID  uint32
	files   int
}

type entry struct {
	id      uint32
	typ     reflect.Type
	wrapped reflect.Type // synthetic struct holding a non-struct value
	ptr     bool         // typ is a pointer to the message struct
	codec   *structCodec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[reflect.Type]*entry{}, nextID: 1}
}

// Register derives descriptors for the given types. Types already registered
// are skipped. Either all new types are registered or none are.
//
// Supported: booleans, integers, floats, strings, []byte, time.Time,
// decimal.Decimal, structs (exported fields), pointers to those, and slices
// or arrays of them. Maps, interfaces, channels and funcs are rejected.
func (r *Registry) Register(types ...reflect.Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.files++
	b := newDescBuilder(r.files)
	var pending []*entry
	seen := map[reflect.Type]bool{}
	for _, t := range types {
		if _, ok := r.entries[t]; ok || seen[t] {
			continue
		}
		seen[t] = true
		e := &entry{typ: t}
		msgType := t
		switch {
		case t.Kind() == reflect.Ptr && isMessageStruct(t.Elem()):
			e.ptr = true
			msgType = t.Elem()
		case !isMessageStruct(t):
			msgType = reflect.StructOf([]reflect.StructField{{Name: "Value", Type: t}})
			e.wrapped = msgType
		}
		if _, err := b.message(msgType, t.String()); err != nil {
			return err
		}
		e.codec = b.codecs[msgType]
		pending = append(pending, e)
	}
	if len(pending) == 0 {
		return nil
	}
	if err := b.build(); err != nil {
		return fmt.Errorf("build descriptors: %w", err)
	}
	for _, e := range pending {
		e.id = r.nextID
		r.nextID++
		r.entries[e.typ] = e
	}
	return nil
}

// ID returns the registration id of t.
func (r *Registry) ID(t reflect.Type) (uint32, bool) {
	e, ok := r.lookup(t)
	if !ok {
		return 0, false
	}
	return e.id, true
}

// Registered reports whether t can be used with the fast serializer.
func (r *Registry) Registered(t reflect.Type) bool {
	_, ok := r.lookup(t)
	return ok
}

// Descriptor returns the message descriptor used for t.
func (r *Registry) Descriptor(t reflect.Type) (protoreflect.MessageDescriptor, bool) {
	e, ok := r.lookup(t)
	if !ok {
		return nil, false
	}
	return e.codec.md, true
}

func (r *Registry) lookup(t reflect.Type) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[t]
	return e, ok
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

func isBytes(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}

func isMessageStruct(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t != timeType && t != decimalType
}

type scalarConv int

const (
	convPlain scalarConv = iota
	convTime
	convDecimal
)

// fieldPlan maps one exported struct field to its protobuf field.
type fieldPlan struct {
	index    int
	path     string
	repeated bool
	ptr      bool
	conv     scalarConv
	msg      *structCodec
	fb       *protobuilder.FieldBuilder
	fd       protoreflect.FieldDescriptor
}

type structCodec struct {
	mb     *protobuilder.MessageBuilder
	md     protoreflect.MessageDescriptor
	fields []*fieldPlan
}

type descBuilder struct {
	file   *protobuilder.FileBuilder
	codecs map[reflect.Type]*structCodec
	names  map[string]int
}

func newDescBuilder(seq int) *descBuilder {
	fb := protobuilder.NewFile(fmt.Sprintf("objrow/fast/r%d.proto", seq))
	fb.SetPackageName(protoreflect.FullName(fmt.Sprintf("objrow.fast.r%d", seq)))
	fb.SetSyntax(protoreflect.Proto3)
	return &descBuilder{file: fb, codecs: map[reflect.Type]*structCodec{}, names: map[string]int{}}
}

func (b *descBuilder) message(t reflect.Type, path string) (*structCodec, error) {
	if c, ok := b.codecs[t]; ok {
		return c, nil
	}
	c := &structCodec{mb: protobuilder.NewMessage(b.messageName(t))}
	b.codecs[t] = c
	b.file.AddMessage(c.mb)

	used := map[protoreflect.Name]bool{}
	var fbs []*protobuilder.FieldBuilder
	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		fieldPath := path + "." + sf.Name
		p, ft, err := b.plan(sf.Type, fieldPath)
		if err != nil {
			return nil, err
		}
		name := protoreflect.Name(snakeCase(sf.Name))
		for used[name] {
			name += "_"
		}
		used[name] = true
		p.index = i
		p.path = fieldPath
		p.fb = protobuilder.NewField(name, ft)
		if p.ptr && p.msg == nil {
			p.fb.SetOptional()
		}
		if p.repeated {
			p.fb.SetRepeated()
		}
		c.mb.AddField(p.fb)
		c.fields = append(c.fields, p)
		fbs = append(fbs, p.fb)
	}
	allocateFieldNumbers(fbs)
	return c, nil
}

func (b *descBuilder) plan(t reflect.Type, path string) (*fieldPlan, *protobuilder.FieldType, error) {
	p := &fieldPlan{}
	if !isBytes(t) && (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) {
		p.repeated = true
		t = t.Elem()
		if !isBytes(t) && (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) {
			return nil, nil, ErrUnsupportedFieldType.New(t, path)
		}
		if t.Kind() == reflect.Ptr && !isMessageStruct(t.Elem()) {
			return nil, nil, ErrUnsupportedFieldType.New(t, path)
		}
	}
	if t.Kind() == reflect.Ptr {
		p.ptr = true
		t = t.Elem()
	}
	if isMessageStruct(t) {
		c, err := b.message(t, path)
		if err != nil {
			return nil, nil, err
		}
		p.msg = c
		return p, protobuilder.FieldTypeMessage(c.mb), nil
	}
	kind, conv, ok := scalarKind(t)
	if !ok {
		return nil, nil, ErrUnsupportedFieldType.New(t, path)
	}
	p.conv = conv
	return p, protobuilder.FieldTypeScalar(kind), nil
}

func scalarKind(t reflect.Type) (protoreflect.Kind, scalarConv, bool) {
	switch t {
	case timeType:
		return protoreflect.BytesKind, convTime, true
	case decimalType:
		return protoreflect.StringKind, convDecimal, true
	}
	switch t.Kind() {
	case reflect.Bool:
		return protoreflect.BoolKind, convPlain, true
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return protoreflect.Int32Kind, convPlain, true
	case reflect.Int, reflect.Int64:
		return protoreflect.Int64Kind, convPlain, true
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return protoreflect.Uint32Kind, convPlain, true
	case reflect.Uint, reflect.Uint64:
		return protoreflect.Uint64Kind, convPlain, true
	case reflect.Float32:
		return protoreflect.FloatKind, convPlain, true
	case reflect.Float64:
		return protoreflect.DoubleKind, convPlain, true
	case reflect.String:
		return protoreflect.StringKind, convPlain, true
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return protoreflect.BytesKind, convPlain, true
		}
	}
	return 0, 0, false
}

func (b *descBuilder) messageName(t reflect.Type) protoreflect.Name {
	var sb strings.Builder
	for _, r := range t.Name() {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			sb.WriteRune(r)
		}
	}
	name := sb.String()
	if name == "" || !unicode.IsLetter(rune(name[0])) {
		name = "Value" + name
	}
	b.names[name]++
	if n := b.names[name]; n > 1 {
		name = fmt.Sprintf("%s_%d", name, n)
	}
	return protoreflect.Name(name)
}

// build finalizes the file and resolves descriptors for every codec.
func (b *descBuilder) build() error {
	fd, err := b.file.Build()
	if err != nil {
		return err
	}
	for _, c := range b.codecs {
		c.md = fd.Messages().ByName(c.mb.Name())
		if c.md == nil {
			return fmt.Errorf("message %s missing from %s", c.mb.Name(), fd.Path())
		}
		for _, p := range c.fields {
			p.fd = c.md.Fields().ByName(p.fb.Name())
			if p.fd == nil {
				return fmt.Errorf("field %s missing from %s", p.fb.Name(), c.md.FullName())
			}
		}
	}
	return nil
}
