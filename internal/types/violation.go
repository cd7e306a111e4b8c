package types

import (
	"fmt"

	language "github.com/hanpama/objrow/internal/language"
)

type Violation struct {
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

type ValidationError []*Violation

func (e ValidationError) Error() string {
	msg := "violations found:\n"
	for _, v := range e {
		line := "- " + v.Message
		if v.File != "" {
			line += fmt.Sprintf(" %s:%d:%d", v.File, v.Line, v.Column)
		}
		msg += line + "\n"
	}
	return msg
}

func violationWithPosition(message string, pos *language.Position) *Violation {
	v := &Violation{Message: message}
	if pos != nil {
		v.Line = pos.Line
		v.Column = pos.Column
		if pos.Src != nil {
			v.File = pos.Src.Name
		}
	}
	return v
}

func violationSyntax(se *language.SyntaxError) *Violation {
	return &Violation{Message: se.Message, File: se.File, Line: se.Line, Column: se.Column}
}

func violationDuplicateType(name string, pos *language.Position) *Violation {
	return violationWithPosition(fmt.Sprintf("Duplicate type %q", name), pos)
}

func violationDuplicateField(fieldName, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Duplicate field %q found in type %q", fieldName, typeName),
		pos,
	)
}

func violationUnknownType(name, fieldName, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Unknown type %q on field %s of type %s", name, fieldName, typeName),
		pos,
	)
}

func violationUnsupportedKind(kind language.DefinitionKind, name string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("%s type %s has no row representation", kind, name),
		pos,
	)
}

func violationAbstractType(kind language.DefinitionKind, name string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("%s type %s is abstract and has no row representation", kind, name),
		pos,
	)
}

func violationUnknownScalar(name string, pos *language.Position) *Violation {
	return violationWithPosition(fmt.Sprintf("Unknown scalar %q", name), pos)
}

func violationRecursiveType(typeName, fieldName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Type %s contains itself through field %s", typeName, fieldName),
		pos,
	)
}
