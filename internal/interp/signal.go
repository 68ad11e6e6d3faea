// Package interp is the tree-walking evaluator: it executes a parsed and
// transformed ast.Program directly against internal/runtime's Value/Object/
// Environment/Realm types (spec.md §4.5). Grounded on the teacher's
// internal/interp/evaluator package, whose EvalResult (result.go) wraps a
// single Value and signals errors by type-switching on an ERROR variant;
// here every statement-level Eval instead returns an explicit Completion,
// closer to ECMA-262's completion records, because spec.md §4.5 names
// Break/Continue/Return/Yield as first-class signals a single error-typed
// Value can't distinguish from a thrown exception.
package interp

import (
	"github.com/asynkron/jsengine/internal/jserror"
	"github.com/asynkron/jsengine/internal/runtime"
)

// CompletionType is the kind of a statement's abrupt (or normal) completion
// (spec.md §4.5 "Control-flow signals").
type CompletionType int

const (
	Normal CompletionType = iota
	Return
	Break
	Continue
	Throw
)

// Completion is the result of evaluating a Statement. Expression evaluation
// uses the plain (runtime.Value, error) pair instead; Throw from an
// expression is reported as a *ThrownError through the error return so
// ordinary Go error propagation (defer/if err != nil) still works for the
// expression evaluator, and gets wrapped into a Completion only at
// statement boundaries.
type Completion struct {
	Type  CompletionType
	Value runtime.Value // Return's value, or Throw's thrown value
	Label string        // Break/Continue target label, "" for unlabeled
}

// NormalCompletion is returned by statements that neither throw nor
// transfer control.
var NormalCompletion = Completion{Type: Normal}

func ReturnCompletion(v runtime.Value) Completion { return Completion{Type: Return, Value: v} }

func BreakCompletion(label string) Completion { return Completion{Type: Break, Label: label} }

func ContinueCompletion(label string) Completion { return Completion{Type: Continue, Label: label} }

func ThrowCompletion(v runtime.Value) Completion { return Completion{Type: Throw, Value: v} }

// IsAbrupt reports whether c should unwind past the current statement.
func (c Completion) IsAbrupt() bool { return c.Type != Normal }

// ThrownError adapts a thrown JS Value to Go's error interface, the bridge
// between expression-level (value, error) returns and statement-level
// Completion{Type: Throw} (mirrors the teacher's pattern of giving errors a
// typed Go shape rather than a string, internal/interp/evaluator/result.go).
// It is an alias for internal/jserror.Throw so every package boxing a
// thrown JS Value — the evaluator here, and internal/builtins via
// interp.Throw — shares one representation instead of each rolling its own
// (a second incompatible wrapper type would mean a rejection from, say,
// internal/module's loader wouldn't be catchable by a JS try/catch the same
// way an in-language exception is).
type ThrownError = jserror.Throw

// Throw constructs the (nil, error) pair an expression-evaluating method
// returns when it raises a JS exception.
func Throw(v runtime.Value) (runtime.Value, error) {
	return nil, jserror.NewThrow(v)
}
