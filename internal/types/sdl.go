package types

import (
	"errors"

	language "github.com/hanpama/objrow/internal/language"
)

// Schema is a set of named STRUCT types loaded from SDL.
type Schema struct {
	Names   []string
	Structs map[string]*DataType
}

// Struct returns the named struct type.
func (s *Schema) Struct(name string) (*DataType, bool) {
	t, ok := s.Structs[name]
	return t, ok
}

var scalarTypes = map[string]*DataType{
	"Boolean":   Boolean,
	"Byte":      Byte,
	"Short":     Short,
	"Int":       Integer,
	"Long":      Long,
	"Float":     Double,
	"Decimal":   Decimal,
	"Date":      Date,
	"Timestamp": Timestamp,
	"String":    String,
	"ID":        String,
	"Binary":    Binary,
}

// ParseSDL loads struct types from GraphQL SDL. Object and input object
// definitions become STRUCT types, enums map to STRING, and list types map
// to ARRAY. All problems are reported together as a ValidationError.
func ParseSDL(name, source string) (*Schema, error) {
	doc, err := language.ParseSchema(name, source)
	if err != nil {
		var se *language.SyntaxError
		if errors.As(err, &se) {
			return nil, ValidationError{violationSyntax(se)}
		}
		return nil, err
	}

	b := &sdlBuilder{
		defs:     map[string]*language.Definition{},
		resolved: map[string]*DataType{},
		visiting: map[string]bool{},
	}
	var order []string
	for _, def := range doc.Definitions {
		if _, dup := b.defs[def.Name]; dup {
			b.violations = append(b.violations, violationDuplicateType(def.Name, def.Position))
			continue
		}
		switch def.Kind {
		case language.Object, language.InputObject:
			order = append(order, def.Name)
		case language.Enum:
		case language.Scalar:
			if _, ok := scalarTypes[def.Name]; !ok {
				b.violations = append(b.violations, violationUnknownScalar(def.Name, def.Position))
			}
		case language.Interface, language.Union:
			b.violations = append(b.violations, violationAbstractType(def.Kind, def.Name, def.Position))
			continue
		default:
			b.violations = append(b.violations, violationUnsupportedKind(def.Kind, def.Name, def.Position))
			continue
		}
		b.defs[def.Name] = def
	}

	s := &Schema{Structs: map[string]*DataType{}}
	for _, n := range order {
		if t := b.structType(b.defs[n]); t != nil {
			s.Names = append(s.Names, n)
			s.Structs[n] = t
		}
	}
	if len(b.violations) > 0 {
		return nil, b.violations
	}
	return s, nil
}

type sdlBuilder struct {
	defs       map[string]*language.Definition
	resolved   map[string]*DataType
	visiting   map[string]bool
	violations ValidationError
}

func (b *sdlBuilder) structType(def *language.Definition) *DataType {
	if t, ok := b.resolved[def.Name]; ok {
		return t
	}
	b.visiting[def.Name] = true
	defer delete(b.visiting, def.Name)

	seen := map[string]bool{}
	fields := make([]*StructField, 0, len(def.Fields))
	ok := true
	for _, fd := range def.Fields {
		if seen[fd.Name] {
			b.violations = append(b.violations, violationDuplicateField(fd.Name, def.Name, fd.Position))
			ok = false
			continue
		}
		seen[fd.Name] = true
		ft := b.fieldType(def, fd, fd.Type)
		if ft == nil {
			ok = false
			continue
		}
		fields = append(fields, Field(fd.Name, ft, !fd.Type.NonNull))
	}
	var t *DataType
	if ok {
		t = StructOf(fields...)
	}
	b.resolved[def.Name] = t
	return t
}

func (b *sdlBuilder) fieldType(owner *language.Definition, fd *language.FieldDefinition, t *language.Type) *DataType {
	if t.Elem != nil {
		elem := b.fieldType(owner, fd, t.Elem)
		if elem == nil {
			return nil
		}
		return ArrayOf(elem, !t.Elem.NonNull)
	}
	if st, ok := scalarTypes[t.NamedType]; ok {
		return st
	}
	def, ok := b.defs[t.NamedType]
	if !ok {
		b.violations = append(b.violations, violationUnknownType(t.NamedType, fd.Name, owner.Name, fd.Position))
		return nil
	}
	switch def.Kind {
	case language.Enum:
		return String
	case language.Scalar:
		return nil
	}
	if b.visiting[def.Name] {
		b.violations = append(b.violations, violationRecursiveType(def.Name, fd.Name, fd.Position))
		return nil
	}
	return b.structType(def)
}
