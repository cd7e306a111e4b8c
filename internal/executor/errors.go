package executor

import (
	"fmt"

	"gopkg.in/src-d/go-errors.v1"
)

// ErrUnknownMode is returned for a mode name that is not recognised.
var ErrUnknownMode = errors.NewKind("unknown evaluation mode %q")

// RowError reports the batch row whose evaluation failed.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
