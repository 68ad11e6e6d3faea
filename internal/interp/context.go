package interp

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/asynkron/jsengine/internal/runtime"
)

// Interpreter is the per-Realm evaluator: shared state that doesn't change
// across calls (the Realm, the call stack, cancellation, logging). One
// Interpreter serves every task the event loop runs against one Realm,
// mirroring the teacher's single long-lived *Interpreter driving many
// Eval calls.
type Interpreter struct {
	Realm     *runtime.Realm
	Stack     *CallStack
	Log       logrus.FieldLogger
	Ctx       context.Context
	Microtask func(func()) // enqueues a microtask on the event loop; nil outside a loop (tests may run synchronously)

	// Source is the exact text the currently running Program was parsed
	// from, kept so NewFunction can slice out each function's original
	// source for Function.prototype.toString (SPEC_FULL.md §4.7) — free
	// since every AST node already carries a byte-offset span.
	Source string

	// Loader backs dynamic `import()`; nil means dynamic import throws
	// (spec.md §6.1 "Without a resolver..." only describes SetModuleLoader
	// for static imports, but the same resolver serves both).
	Loader ModuleLoader

	// Linker backs static `import`/`export` declarations (spec.md §6.2); nil
	// means a module-level import/export statement throws a TypeError, the
	// same fallback Loader uses for dynamic import. internal/module wires
	// both Loader and Linker onto the same underlying module cache.
	Linker ModuleLinker

	// currentModulePath is the referrer used to resolve a relative dynamic
	// import specifier; set by internal/module while evaluating a module
	// body, empty for plain Evaluate.
	currentModulePath string
}

// SetCurrentModulePath lets internal/module record the referrer path before
// evaluating a module body, without exposing the field directly.
func (it *Interpreter) SetCurrentModulePath(path string) { it.currentModulePath = path }

// CurrentModulePath returns the path most recently set by
// SetCurrentModulePath, letting internal/module find the record it is
// currently evaluating from inside a ModuleLinker callback.
func (it *Interpreter) CurrentModulePath() string { return it.currentModulePath }

func New(realm *runtime.Realm, maxCallDepth int, log logrus.FieldLogger) *Interpreter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	realm.Log = log
	return &Interpreter{
		Realm: realm,
		Stack: NewCallStack(maxCallDepth),
		Log:   log,
		Ctx:   context.Background(),
	}
}

// EvalContext is the per-invocation frame: the lexical environment, `this`,
// `new.target`, strictness, and the generator/async suspension channel when
// evaluating inside a goroutine-backed generator body (spec.md §4.5
// EvaluationContext; strictness is a per-frame field, while call depth
// lives on the Interpreter's CallStack).
type EvalContext struct {
	Interp *Interpreter
	Env    *runtime.Environment
	This   runtime.Value
	NewTarget *runtime.Object // non-nil only inside a [[Construct]] invocation
	Strict    bool

	// HomeObject is the [[HomeObject]] internal slot used to resolve
	// `super.method()` / `super.prop` inside methods (spec.md class design).
	HomeObject *runtime.Object

	// Labels accumulates the labels immediately preceding the statement
	// currently being evaluated, so `break label`/`continue label` inside a
	// labeled loop can match without threading a label parameter through
	// every statement Eval call.
	Labels []string

	// gen is non-nil while evaluating a generator/async function body; it
	// carries the goroutine+channel plumbing used to implement `yield`/
	// `await` suspension (see generator.go).
	gen *generatorState

	// SuperCtor is the parent class's constructor function, non-nil only
	// while evaluating a derived class constructor body, so `super(...)`
	// calls (evalCall's *ast.SuperExpression callee case) know what to
	// invoke (classes.go).
	SuperCtor *runtime.Object

	// ClassInfo is the class currently being constructed, non-nil only
	// inside its constructor body, so evalSuperCall can trigger this
	// class's own instance-field initializers once the parent constructor
	// returns (classes.go).
	ClassInfo *classInfo

	// PrivateKeys maps each `#name` lexically visible at this point to the
	// per-class-declaration key branding it (spec.md class design); methods
	// and the constructor inherit it from the userFunction that created
	// their frame, arrows from the captured outer context.
	PrivateKeys map[string]*runtime.PrivateFieldKey
}

// Child derives a new EvalContext sharing Interp but with its own lexical
// Environment, e.g. entering a block or function body.
func (c *EvalContext) Child(env *runtime.Environment) *EvalContext {
	n := *c
	n.Env = env
	n.Labels = nil
	return &n
}
