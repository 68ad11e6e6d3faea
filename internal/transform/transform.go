// Package transform rewrites a parsed ast.Program before evaluation: constant
// folding, plus computing the var/function hoisting info every function body
// and the Program itself need before internal/interp walks them (spec.md
// §3.3, §4.3). Generators and async functions are not lowered here — the
// evaluator runs their bodies directly, suspending at yield/await via a
// goroutine+channel handoff (internal/interp/generator.go) rather than an
// AST-level CPS rewrite. Passes are grounded on the named-pass,
// functional-options shape of the teacher's bytecode optimizer
// (internal/bytecode/optimizer.go).
package transform

import "github.com/asynkron/jsengine/internal/ast"

// Pass names a single rewrite so callers can selectively disable one, as
// the teacher does for its bytecode optimizer passes.
type Pass string

// PassGeneratorLower and PassAsyncLower rewrite no generator or async body;
// Program runs the var/function hoisting computation (lowerProgram) when
// either of them is enabled.
const (
	PassConstantFold   Pass = "constant-fold"
	PassGeneratorLower Pass = "generator-lower"
	PassAsyncLower     Pass = "async-lower"
)

// Option toggles a Pass.
type Option func(*config)

type config struct {
	enabled map[Pass]bool
}

func defaultConfig() config {
	return config{enabled: map[Pass]bool{
		PassConstantFold:   true,
		PassGeneratorLower: true,
		PassAsyncLower:     true,
	}}
}

func (c config) isEnabled(p Pass) bool {
	v, ok := c.enabled[p]
	return !ok || v
}

// WithPass enables or disables a named pass.
func WithPass(p Pass, enabled bool) Option {
	return func(c *config) { c.enabled[p] = enabled }
}

// Program runs every enabled pass over prog in a fixed order and returns the
// rewritten tree. The AST is mutated in place; prog itself is also returned
// for call-chaining convenience.
func Program(prog *ast.Program, opts ...Option) *ast.Program {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.isEnabled(PassConstantFold) {
		foldProgram(prog)
	}
	if cfg.isEnabled(PassGeneratorLower) || cfg.isEnabled(PassAsyncLower) {
		lowerProgram(prog, cfg)
	}
	return prog
}
