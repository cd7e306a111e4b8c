package events

import "time"

// CompileStart is emitted before a tree is prepared for evaluation.
type CompileStart struct {
	Tree string
	Mode string
}

// CompileFinish is emitted after a tree has been prepared. Cached reports a
// compile cache hit.
type CompileFinish struct {
	Tree     string
	Mode     string
	Nodes    int
	Cached   bool
	Err      error
	Duration time.Duration
}

// CodegenFallback is emitted when a tree cannot be compiled and is evaluated
// by the interpreter instead.
type CodegenFallback struct {
	Tree string
	Err  error
}
