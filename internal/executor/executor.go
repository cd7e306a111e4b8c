// Package executor drives evaluation of expression trees over batches of
// rows, choosing between the interpreted and the compiled path.
package executor

import (
	"context"
	"reflect"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	eventbus "github.com/hanpama/objrow/internal/eventbus"
	events "github.com/hanpama/objrow/internal/events"
	expr "github.com/hanpama/objrow/internal/expr"
	reqid "github.com/hanpama/objrow/internal/reqid"
	row "github.com/hanpama/objrow/internal/row"
)

// Executor prepares trees into plans and evaluates them. It is safe for
// concurrent use.
type Executor struct {
	opts  Options
	cache *lru.Cache[expr.Expression, *Plan]
}

// New returns an Executor configured by opts.
func New(opts ...Option) (*Executor, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if _, err := ParseMode(string(o.Mode)); err != nil {
		return nil, err
	}
	e := &Executor{opts: o}
	if o.CacheSize > 0 {
		c, err := lru.New[expr.Expression, *Plan](o.CacheSize)
		if err != nil {
			return nil, err
		}
		e.cache = c
	}
	return e, nil
}

// Mode returns the executor's evaluation mode.
func (e *Executor) Mode() Mode { return e.opts.Mode }

// Plan is a tree prepared for evaluation.
type Plan struct {
	tree     expr.Expression
	eval     expr.EvalFunc
	compiled bool
	nodes    int
}

// Eval evaluates the plan against one row.
func (p *Plan) Eval(in row.InternalRow) (any, error) { return p.eval(in) }

// Tree returns the tree the plan was prepared from.
func (p *Plan) Tree() expr.Expression { return p.tree }

// Compiled reports whether the plan runs compiled closures.
func (p *Plan) Compiled() bool { return p.compiled }

// Nodes returns the number of nodes in the tree.
func (p *Plan) Nodes() int { return p.nodes }

// Prepare returns the plan for tree, compiling it unless the executor runs
// interpreted. Plans are cached by tree identity.
func (e *Executor) Prepare(ctx context.Context, tree expr.Expression) (*Plan, error) {
	name := tree.String()
	mode := string(e.opts.Mode)
	start := time.Now()
	eventbus.Publish(ctx, events.CompileStart{Tree: name, Mode: mode})

	p, cached, err := e.prepare(ctx, tree)

	fin := events.CompileFinish{Tree: name, Mode: mode, Cached: cached, Err: err, Duration: time.Since(start)}
	if p != nil {
		fin.Nodes = p.nodes
	}
	eventbus.Publish(ctx, fin)
	return p, err
}

func (e *Executor) prepare(ctx context.Context, tree expr.Expression) (*Plan, bool, error) {
	// Trees of non-comparable dynamic type would panic as map keys.
	cacheable := e.cache != nil && reflect.TypeOf(tree).Comparable()
	if cacheable {
		if p, ok := e.cache.Get(tree); ok {
			return p, true, nil
		}
	}
	p, err := e.build(ctx, tree)
	if err != nil {
		return nil, false, err
	}
	if cacheable {
		e.cache.Add(tree, p)
	}
	return p, false, nil
}

func (e *Executor) build(ctx context.Context, tree expr.Expression) (*Plan, error) {
	interpreted := &Plan{tree: tree, eval: tree.Eval, nodes: countNodes(tree)}
	if e.opts.Mode == ModeInterpreted {
		return interpreted, nil
	}
	g := new(expr.CodeGen)
	fn, err := g.Gen(tree)
	if err == nil {
		return &Plan{tree: tree, eval: fn, compiled: true, nodes: g.Nodes()}, nil
	}
	if e.opts.Mode == ModeFallback && expr.ErrNotCompilable.Is(err) {
		eventbus.Publish(ctx, events.CodegenFallback{Tree: tree.String(), Err: err})
		return interpreted, nil
	}
	return nil, err
}

func countNodes(tree expr.Expression) int {
	n := 0
	expr.Walk(tree, func(expr.Expression) bool {
		n++
		return true
	})
	return n
}

// EvaluateBatch evaluates tree against each row in order. It stops at the
// first failing row and returns a *RowError naming it.
func (e *Executor) EvaluateBatch(ctx context.Context, tree expr.Expression, rows []row.InternalRow) ([]any, error) {
	ctx, _ = reqid.Ensure(ctx)
	name := tree.String()
	mode := string(e.opts.Mode)
	start := time.Now()
	eventbus.Publish(ctx, events.BatchStart{Tree: name, Mode: mode, Rows: len(rows)})

	out, err := e.evaluate(ctx, tree, rows)

	eventbus.Publish(ctx, events.BatchFinish{
		Tree:      name,
		Mode:      mode,
		Rows:      len(rows),
		Evaluated: len(out),
		Err:       err,
		Duration:  time.Since(start),
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Executor) evaluate(ctx context.Context, tree expr.Expression, rows []row.InternalRow) ([]any, error) {
	p, err := e.Prepare(ctx, tree)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(rows))
	for i, in := range rows {
		v, err := p.Eval(in)
		if err != nil {
			return out, &RowError{Row: i, Err: err}
		}
		out = append(out, v)
	}
	return out, nil
}
