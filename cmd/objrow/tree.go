package main

import (
	"reflect"
	"time"

	expr "github.com/hanpama/objrow/internal/expr"
	row "github.com/hanpama/objrow/internal/row"
	types "github.com/hanpama/objrow/internal/types"
)

var (
	externalRowType = reflect.TypeOf((*row.ExternalRow)(nil))
	timeType        = reflect.TypeOf(time.Time{})
	listType        = reflect.TypeOf([]any(nil))
)

// deserializer builds the tree that turns an engine row of schema into an
// *row.ExternalRow. Nested structs become nested external rows, arrays become
// []any, and dates and timestamps become time.Time.
func deserializer(resolver expr.Resolver, schema *types.DataType) (expr.Expression, error) {
	children := make([]expr.Expression, len(schema.Fields))
	for i, f := range schema.Fields {
		c, err := external(resolver, expr.NewBoundReference(i, f.Type, f.Nullable), f.Type)
		if err != nil {
			return nil, err
		}
		children[i] = c
	}
	return expr.NewCreateExternalRow(children, schema)
}

func external(resolver expr.Resolver, in expr.Expression, t *types.DataType) (expr.Expression, error) {
	switch t.Kind {
	case types.KindStruct:
		return externalStruct(resolver, in, t)
	case types.KindArray:
		return expr.NewMapObjects(func(v expr.Expression) (expr.Expression, error) {
			return external(resolver, v, t.Elem)
		}, in, t.Elem, t.ContainsNull, listType)
	case types.KindDate:
		return expr.NewStaticInvoke(resolver, "daysToTime", types.ObjectOf(timeType), []expr.Expression{in})
	case types.KindTimestamp:
		return expr.NewStaticInvoke(resolver, "microsToTime", types.ObjectOf(timeType), []expr.Expression{in})
	}
	return in, nil
}

func externalStruct(resolver expr.Resolver, in expr.Expression, t *types.DataType) (expr.Expression, error) {
	children := make([]expr.Expression, len(t.Fields))
	for i, f := range t.Fields {
		field, err := expr.NewGetStructField(in, i)
		if err != nil {
			return nil, err
		}
		c, err := external(resolver, field, f.Type)
		if err != nil {
			return nil, err
		}
		children[i] = c
	}
	r, err := expr.NewCreateExternalRow(children, t)
	if err != nil {
		return nil, err
	}
	if !in.Nullable() {
		return r, nil
	}
	null, err := expr.NewLiteral(nil, types.ObjectOf(externalRowType))
	if err != nil {
		return nil, err
	}
	return expr.NewIf(expr.NewIsNull(in), null, r)
}
