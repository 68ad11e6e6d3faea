package module

import (
	"fmt"

	"github.com/asynkron/jsengine/internal/ast"
	"github.com/asynkron/jsengine/internal/interp"
	"github.com/asynkron/jsengine/internal/runtime"
)

// Import implements interp.ModuleLinker for `import ... from "m"`: it loads
// (or reuses) the target module, then binds decl's default/namespace/named
// targets into ec.Env. Named bindings are live (DefineAlias onto the
// source module's own environment record, spec.md §6.2); default and
// namespace imports bind a fixed snapshot, since neither is a per-variable
// live binding in the source module.
func (l *Loader) Import(ec *interp.EvalContext, decl *ast.ImportDeclaration, referrer string) error {
	rec, err := l.resolveAndLoad(decl.Source, referrer)
	if err != nil {
		return err
	}

	if decl.Default != "" {
		if !rec.hasDefault {
			return l.throw("SyntaxError", fmt.Sprintf("the requested module %q does not provide an export named 'default'", decl.Source))
		}
		bindConst(ec.Env, decl.Default, rec.defaultVal)
	}

	if decl.Namespace != "" {
		bindConst(ec.Env, decl.Namespace, rec.namespace)
	}

	for _, spec := range decl.Named {
		b, ok := rec.exports[spec.Imported]
		if !ok {
			return l.throw("SyntaxError", fmt.Sprintf("the requested module %q does not provide an export named %q", decl.Source, spec.Imported))
		}
		if b.isValue {
			bindConst(ec.Env, spec.Local, b.value)
			continue
		}
		if !ec.Env.DefineAlias(spec.Local, b.env, b.name) {
			return l.throw("ReferenceError", fmt.Sprintf("cannot access %q before initialization", spec.Imported))
		}
	}
	return nil
}

// ExportAll implements `export * from "m"` (alias == "", every named export
// of m becomes a named export of the current module, passed through so it
// stays live) and `export * as ns from "m"` (alias != "", m's whole
// namespace object becomes one named export of the current module).
func (l *Loader) ExportAll(ec *interp.EvalContext, specifier, alias, referrer string) error {
	rec, err := l.resolveAndLoad(specifier, referrer)
	if err != nil {
		return err
	}
	cur := l.currentRecord()
	if cur == nil {
		return nil
	}
	if alias != "" {
		cur.exports[alias] = exportBinding{value: rec.namespace, isValue: true}
		return nil
	}
	for name, b := range rec.exports {
		cur.exports[name] = b
	}
	return nil
}

// ReExport implements `export { a, b as c } from "m"`: specifiers' Local
// field names m's own export, Exported is the name the current module
// re-exports it as — both pass through whatever binding m itself has for
// that name (env-backed or fixed), preserving liveness transitively.
func (l *Loader) ReExport(ec *interp.EvalContext, specifier string, specifiers []ast.ExportSpecifier, referrer string) error {
	rec, err := l.resolveAndLoad(specifier, referrer)
	if err != nil {
		return err
	}
	cur := l.currentRecord()
	if cur == nil {
		return nil
	}
	for _, spec := range specifiers {
		if spec.Local == "default" {
			if !rec.hasDefault {
				return l.throw("SyntaxError", fmt.Sprintf("the requested module %q does not provide an export named 'default'", specifier))
			}
			cur.exports[spec.Exported] = exportBinding{value: rec.defaultVal, isValue: true}
			continue
		}
		b, ok := rec.exports[spec.Local]
		if !ok {
			return l.throw("SyntaxError", fmt.Sprintf("the requested module %q does not provide an export named %q", specifier, spec.Local))
		}
		cur.exports[spec.Exported] = b
	}
	return nil
}

// Export records a local binding of the module currently evaluating as one
// of its named exports (`export const x = 1`, `export function f(){}`,
// `export { a }`). The binding stays env-backed so later mutation of the
// local is observed through the namespace object (spec.md §6.2).
func (l *Loader) Export(ec *interp.EvalContext, localName, exportedName string) {
	cur := l.currentRecord()
	if cur == nil {
		return
	}
	cur.exports[exportedName] = exportBinding{env: ec.Env, name: localName}
}

// ExportDefault records the module currently evaluating's default export
// value (a snapshot, not a live binding — see the record.defaultVal doc
// comment).
func (l *Loader) ExportDefault(ec *interp.EvalContext, v runtime.Value) {
	cur := l.currentRecord()
	if cur == nil {
		return
	}
	cur.hasDefault = true
	cur.defaultVal = v
}

// bindConst declares name as an already-initialized const binding in env,
// the shape every import clause except named live bindings uses.
func bindConst(env *runtime.Environment, name string, v runtime.Value) {
	env.DefineLexical(name, true)
	env.InitializeBinding(name, v)
}
