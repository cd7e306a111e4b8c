package expr

import (
	"gopkg.in/src-d/go-errors.v1"

	collection "github.com/hanpama/objrow/internal/collection"
)

var (
	// ErrNullExternalRow is returned by GetExternalRowField for a nil row.
	ErrNullExternalRow = errors.NewKind("The input external row cannot be null.")

	// ErrNullExternalRowField is returned by GetExternalRowField for a null field.
	ErrNullExternalRowField = errors.NewKind("The %dth field '%s' of input row cannot be null.")

	ErrFieldOrdinalOutOfRange = errors.NewKind("field ordinal %d is out of range for a row of %d fields")
	ErrNullValue              = errors.NewKind("null value appeared in non-nullable field: %s")
	ErrUnexpectedNull         = errors.NewKind("%s returned null but is declared non-nullable")

	ErrMethodNotFound   = errors.NewKind("method %s not found on %s")
	ErrFunctionNotFound = errors.NewKind("function %s not found")
	ErrArgumentMismatch = errors.NewKind("%s: argument %d of type %s does not match parameter type %s")
	ErrArgumentCount    = errors.NewKind("%s takes %d arguments, got %d")
	ErrBadSignature     = errors.NewKind("%s must return a value, optionally followed by an error")
	ErrInvocationFailed = errors.NewKind("invocation of %s failed")

	ErrTypeMismatch        = errors.NewKind("%s: expected %s, got %s")
	ErrUnsupportedInput    = errors.NewKind("cannot iterate values of type %s")
	ErrSchemaArity         = errors.NewKind("schema %s has %d fields but %d values were given")
	ErrUnknownField        = errors.NewKind("%s has no settable field %s")
	ErrInvalidExternalType = errors.NewKind("%s is not a valid external type for schema of %s")
	ErrUnboundLambda       = errors.NewKind("lambda variable %d is not bound")
	ErrOrdinalOutOfRange   = errors.NewKind("ordinal %d is out of range for a row of %d fields")

	ErrNotCompilable = errors.NewKind("expression %s cannot be compiled")

	// ErrNullElement is returned when MapObjects stores a null into a
	// collection whose element type cannot hold it.
	ErrNullElement = collection.ErrNullElement
)
