package language

import "github.com/vektah/gqlparser/v2/ast"

type (
	SchemaDocument  = ast.SchemaDocument
	FieldDefinition = ast.FieldDefinition
	FieldList       = ast.FieldList
	Type            = ast.Type
	Definition      = ast.Definition
	DefinitionList  = ast.DefinitionList
	Position        = ast.Position
)

type DefinitionKind = ast.DefinitionKind

const (
	Object      DefinitionKind = ast.Object
	Interface   DefinitionKind = ast.Interface
	Union       DefinitionKind = ast.Union
	Scalar      DefinitionKind = ast.Scalar
	Enum        DefinitionKind = ast.Enum
	InputObject DefinitionKind = ast.InputObject
)
