package interp

import (
	"github.com/asynkron/jsengine/internal/ast"
	"github.com/asynkron/jsengine/internal/runtime"
)

// NewGlobalContext builds the root EvalContext for a Realm's global code:
// This is the global object itself in sloppy mode (spec.md §4.5 "Strict
// mode" table).
func NewGlobalContext(it *Interpreter) *EvalContext {
	return &EvalContext{
		Interp: it,
		Env:    it.Realm.GlobalEnv,
		This:   it.Realm.GlobalObject,
	}
}

// RunProgram is the embedder-facing entry point: it runs a fully parsed and
// transform-annotated Program (constant-folded, hoisting-annotated) against
// a fresh global-scope EvalContext, honoring the Program's own strictness.
func (it *Interpreter) RunProgram(prog *ast.Program) (runtime.Value, error) {
	ec := NewGlobalContext(it)
	ec.Strict = prog.IsStrict
	return it.ExecProgram(ec, prog)
}

// NewRegExpLiteral constructs a RegExp object from a `/pattern/flags`
// literal by invoking the Realm's "RegExp" intrinsic constructor —
// internal/builtins owns the actual regexp2-backed implementation
// (SPEC_FULL.md §2.1); internal/interp only knows the Construct contract,
// avoiding an interp->builtins import cycle (builtins calls back into the
// evaluator for callback-taking Array/String methods).
func (it *Interpreter) NewRegExpLiteral(pattern, flags string) (runtime.Value, error) {
	ctor := it.Realm.Intrinsic("RegExp")
	if ctor == nil || ctor.Construct == nil {
		return nil, it.typeErr("RegExp intrinsic is not installed")
	}
	return ctor.Construct([]runtime.Value{runtime.String(pattern), runtime.String(flags)}, ctor)
}

// ModuleLoader resolves an import specifier and returns the loaded module's
// namespace object (spec.md §6.1 SetModuleLoader); internal/module implements the
// resolve->load->parse->evaluate->cache pipeline on top of this contract.
// Declared here (rather than in internal/module) so the evaluator's dynamic
// `import()` expression can call it without an interp->module import cycle.
type ModuleLoader interface {
	Load(specifier, referrer string) (runtime.Value, error)
}

func (it *Interpreter) evalDynamicImport(ec *EvalContext, e *ast.ImportExpression) (runtime.Value, error) {
	specVal, err := it.Eval(ec, e.Source)
	if err != nil {
		return nil, err
	}
	spec, err := it.ToStringValue(specVal)
	if err != nil {
		return nil, err
	}
	if it.Loader == nil {
		return nil, it.typeErr("dynamic import is not supported: no ModuleLoader installed")
	}
	ns, err := it.Loader.Load(spec, it.currentModulePath)
	if err != nil {
		return nil, err
	}
	return it.newResolvedPromise(ns), nil
}
