package executor

// Mode selects how a tree is evaluated.
type Mode string

const (
	// ModeInterpreted always walks the tree with Eval.
	ModeInterpreted Mode = "interpreted"
	// ModeCodegen compiles the tree and fails when compilation fails.
	ModeCodegen Mode = "codegen"
	// ModeFallback compiles the tree and falls back to Eval for trees
	// containing nodes that cannot be compiled.
	ModeFallback Mode = "fallback"
)

// ParseMode returns the mode named s.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeInterpreted, ModeCodegen, ModeFallback:
		return m, nil
	}
	return "", ErrUnknownMode.New(s)
}

// Options configures an Executor.
type Options struct {
	Mode Mode
	// CacheSize bounds the number of prepared plans kept per executor.
	// Zero or less disables caching.
	CacheSize int
}

// Option mutates Options.
type Option func(*Options)

func defaultOptions() Options {
	return Options{Mode: ModeFallback, CacheSize: 256}
}

// WithMode sets the evaluation mode.
func WithMode(m Mode) Option {
	return func(o *Options) { o.Mode = m }
}

// WithCacheSize sets the plan cache size.
func WithCacheSize(n int) Option {
	return func(o *Options) { o.CacheSize = n }
}
