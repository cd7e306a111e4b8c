package expr

import (
	"fmt"
	"reflect"

	collection "github.com/hanpama/objrow/internal/collection"
	row "github.com/hanpama/objrow/internal/row"
	types "github.com/hanpama/objrow/internal/types"
)

// MapObjects applies a transform to every element of a collection and
// collects the results into a native array or a Go collection.
type MapObjects struct {
	loopVar    *LambdaVariable
	lambda     Expression
	input      Expression
	in         *collection.Adapter
	elemAccess row.AccessorFunc // native input only
	out        *collection.Adapter
	custom     reflect.Type
	checkNulls bool
	dt         *types.DataType
	interp     []EvalFunc
}

// NewMapObjects builds the loop. fn receives the loop variable and returns
// the per-element transform. customCollection selects the output collection
// type; nil builds a native array.
func NewMapObjects(
	fn func(loopVar Expression) (Expression, error),
	input Expression,
	elementType *types.DataType,
	elementNullable bool,
	customCollection reflect.Type,
) (*MapObjects, error) {
	n := &MapObjects{
		loopVar: NewLambdaVariable(elementType, elementNullable),
		input:   input,
		custom:  customCollection,
	}

	it := input.DataType()
	switch it.Kind {
	case types.KindArray:
		n.in = collection.NativeAdapter
		n.elemAccess = row.Accessor(it.Elem)
	case types.KindObject:
		if it.GoType == nil {
			return nil, ErrUnsupportedInput.New(it)
		}
		a, err := collection.Resolve(it.GoType)
		if err != nil {
			return nil, err
		}
		n.in = a
		if a.Shape() == collection.Native {
			n.elemAccess = row.Accessor(elementType)
		}
	default:
		return nil, ErrUnsupportedInput.New(it)
	}

	out, err := collection.Resolve(customCollection)
	if err != nil {
		return nil, err
	}
	n.out = out

	lambda, err := fn(n.loopVar)
	if err != nil {
		return nil, err
	}
	n.lambda = lambda

	if customCollection == nil {
		n.dt = types.ArrayOf(lambda.DataType(), lambda.Nullable())
	} else {
		n.dt = types.ObjectOf(customCollection)
	}
	n.checkNulls = customCollection != nil || !types.IsPrimitive(lambda.DataType()) || lambda.Nullable()
	n.interp = evalFuncs(n.Children())
	return n, nil
}

func (n *MapObjects) LoopVar() *LambdaVariable { return n.loopVar }
func (n *MapObjects) DataType() *types.DataType { return n.dt }
func (n *MapObjects) Nullable() bool { return n.input.Nullable() }
func (n *MapObjects) Children() []Expression { return []Expression{n.input, n.lambda} }

// ChecksNulls reports whether produced elements are normalized for typed
// nils before being stored.
func (n *MapObjects) ChecksNulls() bool { return n.checkNulls }

func (n *MapObjects) String() string {
	return fmt.Sprintf("mapobjects(%s, %s, %s, %s)", n.loopVar, n.lambda, n.input, n.out)
}

func (n *MapObjects) Eval(in row.InternalRow) (any, error) { return n.eval(in, n.interp) }

func (n *MapObjects) GenCode(g *CodeGen) (EvalFunc, error) {
	fns, err := g.genAll(n.Children())
	if err != nil {
		return nil, err
	}
	return func(in row.InternalRow) (any, error) { return n.eval(in, fns) }, nil
}

// eval iterates the value produced by fns[0], binding each element for
// fns[1].
func (n *MapObjects) eval(in row.InternalRow, fns []EvalFunc) (any, error) {
	v, err := fns[0](in)
	if err != nil {
		return nil, err
	}
	if row.IsNullish(v) {
		return nil, nil
	}
	b := n.out.NewBuilder(n.in.Len(v), n.checkNulls)
	apply := func(elem any) error {
		r, err := fns[1](bindLambda(in, n.loopVar.id, elem))
		if err != nil {
			return err
		}
		return b.Add(r)
	}

	if n.elemAccess != nil {
		arr, ok := v.(row.ArrayData)
		if !ok {
			return nil, collection.ErrNotCollection.New(reflect.TypeOf(v), n.in)
		}
		for i := range arr.NumElements() {
			if err := apply(n.elemAccess(arr, i)); err != nil {
				return nil, err
			}
		}
		return b.Result()
	}

	err = n.in.Range(v, func(_ int, elem any) error { return apply(elem) })
	if err != nil {
		return nil, err
	}
	return b.Result()
}
