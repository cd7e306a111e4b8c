package language

import (
	"errors"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
)

// SyntaxError is a parse failure with the location reported by the parser.
type SyntaxError struct {
	Message string
	File    string
	Line    int
	Column  int
}

func (e *SyntaxError) Error() string { return e.Message }

// ParseSchema parses SDL source. Parse failures are returned as *SyntaxError.
func ParseSchema(name, source string) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, toSyntaxError(name, err)
	}
	return doc, nil
}

func toSyntaxError(name string, err error) error {
	var gqlErr *gqlerror.Error
	if !errors.As(err, &gqlErr) || gqlErr == nil {
		return err
	}
	se := &SyntaxError{Message: gqlErr.Message, File: name}
	if len(gqlErr.Locations) > 0 {
		se.Line = gqlErr.Locations[0].Line
		se.Column = gqlErr.Locations[0].Column
	}
	return se
}
