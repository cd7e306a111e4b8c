package executor

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/go-cmp/cmp"

	collection "github.com/hanpama/objrow/internal/collection"
	eventbus "github.com/hanpama/objrow/internal/eventbus"
	events "github.com/hanpama/objrow/internal/events"
	expr "github.com/hanpama/objrow/internal/expr"
	reqid "github.com/hanpama/objrow/internal/reqid"
	row "github.com/hanpama/objrow/internal/row"
)

const modeVerify = "verify"

// Mismatch describes a row on which the interpreted and compiled paths
// disagree.
type Mismatch struct {
	Row            int
	Interpreted    any
	Generated      any
	InterpretedErr error
	GeneratedErr   error
	// Diff is the go-cmp diff of the results (-interpreted +generated), or a
	// description of the differing errors.
	Diff           string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("row %d:\n%s", m.Row, m.Diff)
}

var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

// Verify evaluates tree against every row along both paths and returns the
// rows on which they differ. It fails only when tree cannot be compiled.
func Verify(ctx context.Context, tree expr.Expression, rows []row.InternalRow) ([]Mismatch, error) {
	ctx, _ = reqid.Ensure(ctx)
	name := tree.String()
	start := time.Now()
	eventbus.Publish(ctx, events.BatchStart{Tree: name, Mode: modeVerify, Rows: len(rows)})

	mismatches, err := verify(tree, rows)

	fin := events.BatchFinish{Tree: name, Mode: modeVerify, Rows: len(rows), Err: err, Duration: time.Since(start)}
	if err == nil {
		fin.Evaluated = len(rows)
	}
	eventbus.Publish(ctx, fin)
	return mismatches, err
}

func verify(tree expr.Expression, rows []row.InternalRow) ([]Mismatch, error) {
	fn, err := expr.Compile(tree)
	if err != nil {
		return nil, err
	}
	var out []Mismatch
	for i, in := range rows {
		iv, ierr := tree.Eval(in)
		gv, gerr := fn(in)
		if diff := compare(iv, ierr, gv, gerr); diff != "" {
			out = append(out, Mismatch{
				Row:            i,
				Interpreted:    iv,
				Generated:      gv,
				InterpretedErr: ierr,
				GeneratedErr:   gerr,
				Diff:           diff,
			})
		}
	}
	return out, nil
}

func compare(iv any, ierr error, gv any, gerr error) string {
	if ierr != nil || gerr != nil {
		if errText(ierr) == errText(gerr) {
			return ""
		}
		return fmt.Sprintf("interpreted error: %s\ngenerated error: %s", errText(ierr), errText(gerr))
	}
	return cmp.Diff(collection.Snapshot(iv), collection.Snapshot(gv), exportAll)
}

func errText(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}
