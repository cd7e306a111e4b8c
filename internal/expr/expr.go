// Package expr implements the expression nodes that marshal values between
// Go objects and engine rows.
//
// Every node can be evaluated two ways. Eval walks the tree directly.
// Compile turns the tree into a tree of closures once; the closures are then
// invoked per row. Both paths call the same per-node evaluation function, so
// they produce the same values, nulls and errors.
package expr

import (
	"fmt"
	"strings"

	row "github.com/hanpama/objrow/internal/row"
	types "github.com/hanpama/objrow/internal/types"
)

// Expression is a node of an evaluation tree. Trees are immutable once
// built and may be evaluated concurrently.
type Expression interface {
	fmt.Stringer
	DataType() *types.DataType
	// Nullable reports whether evaluation may produce nil.
	Nullable() bool
	Children() []Expression
	Eval(in row.InternalRow) (any, error)
}

// EvalFunc evaluates a compiled expression against one row.
type EvalFunc func(in row.InternalRow) (any, error)

// Generator is implemented by nodes that can be compiled.
type Generator interface {
	GenCode(g *CodeGen) (EvalFunc, error)
}

// CodeGen carries state for one compilation.
type CodeGen struct {
	nodes int
}

// Gen compiles e and its children.
func (g *CodeGen) Gen(e Expression) (EvalFunc, error) {
	gen, ok := e.(Generator)
	if !ok {
		return nil, ErrNotCompilable.New(e.String())
	}
	g.nodes++
	return gen.GenCode(g)
}

// Nodes returns the number of nodes compiled so far.
func (g *CodeGen) Nodes() int { return g.nodes }

// Compile compiles the whole tree rooted at e.
func Compile(e Expression) (EvalFunc, error) {
	return new(CodeGen).Gen(e)
}

func (g *CodeGen) genAll(es []Expression) ([]EvalFunc, error) {
	out := make([]EvalFunc, len(es))
	for i, e := range es {
		f, err := g.Gen(e)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// evalFuncs returns the interpreted evaluators of es.
func evalFuncs(es []Expression) []EvalFunc {
	out := make([]EvalFunc, len(es))
	for i, e := range es {
		out[i] = e.Eval
	}
	return out
}

// evalArgs evaluates args in order. With propagateNull, evaluation stops at
// the first nil and isNull is true.
func evalArgs(in row.InternalRow, args []EvalFunc, propagateNull bool) (vals []any, isNull bool, err error) {
	vals = make([]any, len(args))
	for i, arg := range args {
		v, err := arg(in)
		if err != nil {
			return nil, false, err
		}
		if row.IsNullish(v) {
			if propagateNull {
				return nil, true, nil
			}
			v = nil
		}
		vals[i] = v
	}
	return vals, false, nil
}

func anyNullable(es []Expression) bool {
	for _, e := range es {
		if e.Nullable() {
			return true
		}
	}
	return false
}

func joinExprs(es []Expression) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// Walk calls fn for e and each of its descendants in depth-first order,
// stopping early when fn returns false.
func Walk(e Expression, fn func(Expression) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.Children() {
		Walk(c, fn)
	}
}
