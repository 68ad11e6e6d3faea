package interp

import (
	"github.com/asynkron/jsengine/internal/ast"
	"github.com/asynkron/jsengine/internal/runtime"
)

// ModuleLinker resolves the module-level import/export declarations
// ExecStatement delegates to (spec.md §6.2). internal/module implements it
// on top of ModuleLoader's resolve->load->parse->evaluate->cache pipeline;
// declaring the interface here (rather than in internal/module) keeps the
// evaluator ignorant of specifier resolution, caching, or the host's
// SourceReader, the same one-directional shape as internal/builtins' own
// dependency on interp.Throw.
type ModuleLinker interface {
	// Import resolves specifier against referrer and binds decl's
	// default/namespace/named targets into ec.Env. Named imports are live
	// bindings (spec.md §6.2) aliasing the source module's own environment;
	// default and namespace imports are bound to fixed values.
	Import(ec *EvalContext, decl *ast.ImportDeclaration, referrer string) error

	// ExportAll implements `export * from "m"` (alias == "") and
	// `export * as ns from "m"` (alias != "").
	ExportAll(ec *EvalContext, specifier, alias, referrer string) error

	// ReExport implements `export { a, b as c } from "m"`.
	ReExport(ec *EvalContext, specifier string, specifiers []ast.ExportSpecifier, referrer string) error

	// Export records a local binding of the module currently evaluating in
	// ec as one of its named exports (`export const x = 1`, `export { a }`).
	Export(ec *EvalContext, localName, exportedName string)

	// ExportDefault records the module's default export value.
	ExportDefault(ec *EvalContext, v runtime.Value)
}

func (it *Interpreter) execImportDeclaration(ec *EvalContext, s *ast.ImportDeclaration) (Completion, error) {
	if it.Linker == nil {
		return it.asThrow(it.typeErr("import declarations require a module loader"))
	}
	if err := it.Linker.Import(ec, s, it.currentModulePath); err != nil {
		return it.asThrow(err)
	}
	return NormalCompletion, nil
}

func (it *Interpreter) execExportNamedDeclaration(ec *EvalContext, s *ast.ExportNamedDeclaration) (Completion, error) {
	if s.Source != "" {
		if it.Linker == nil {
			return it.asThrow(it.typeErr("re-export declarations require a module loader"))
		}
		if err := it.Linker.ReExport(ec, s.Source, s.Specifiers, it.currentModulePath); err != nil {
			return it.asThrow(err)
		}
		return NormalCompletion, nil
	}

	if s.Declaration != nil {
		comp, err := it.ExecStatement(ec, s.Declaration)
		if err != nil || comp.IsAbrupt() {
			return comp, err
		}
		if it.Linker != nil {
			for _, name := range exportedDeclarationNames(s.Declaration) {
				it.Linker.Export(ec, name, name)
			}
		}
		return NormalCompletion, nil
	}

	if it.Linker != nil {
		for _, spec := range s.Specifiers {
			it.Linker.Export(ec, spec.Local, spec.Exported)
		}
	}
	return NormalCompletion, nil
}

func (it *Interpreter) execExportDefaultDeclaration(ec *EvalContext, s *ast.ExportDefaultDeclaration) (Completion, error) {
	v, err := it.evalExportDefaultValue(ec, s.Declaration)
	if err != nil {
		return it.asThrow(err)
	}
	if it.Linker != nil {
		it.Linker.ExportDefault(ec, v)
	}
	return NormalCompletion, nil
}

func (it *Interpreter) execExportAllDeclaration(ec *EvalContext, s *ast.ExportAllDeclaration) (Completion, error) {
	if it.Linker == nil {
		return it.asThrow(it.typeErr("export * declarations require a module loader"))
	}
	if err := it.Linker.ExportAll(ec, s.Source, s.Exported, it.currentModulePath); err != nil {
		return it.asThrow(err)
	}
	return NormalCompletion, nil
}

// evalExportDefaultValue handles the three shapes `export default` accepts
// (spec.md §6.2): a bare expression, a named/anonymous function
// declaration, or a named/anonymous class declaration — the latter two
// both declare a local binding (so the module can also reference its own
// default export by name) in addition to producing the exported value.
func (it *Interpreter) evalExportDefaultValue(ec *EvalContext, decl ast.Node) (runtime.Value, error) {
	switch d := decl.(type) {
	case *ast.FunctionDeclaration:
		fn := it.NewFunction(ec, it.makeUserFunction(ec, d.Name, d.Params, d.Body, nil, d.IsAsync, d.IsGenerator, d.IsStrict, d))
		if d.Name != nil {
			ec.Env.DefineLexical(d.Name.Name, false)
			ec.Env.InitializeBinding(d.Name.Name, fn)
		}
		return fn, nil
	case *ast.ClassDeclaration:
		cls, err := it.evalClass(ec, d.Name, d.SuperClass, d.Members)
		if err != nil {
			return nil, err
		}
		if d.Name != nil {
			ec.Env.DefineLexical(d.Name.Name, false)
			ec.Env.InitializeBinding(d.Name.Name, cls)
		}
		return cls, nil
	case ast.Expression:
		return it.Eval(ec, d)
	default:
		return nil, it.typeErr("unsupported export default declaration")
	}
}

// exportedDeclarationNames returns the binding names `export <decl>`
// introduces, reusing collectPatternNames for destructuring var/let/const.
func exportedDeclarationNames(decl ast.Statement) []string {
	var names []string
	switch d := decl.(type) {
	case *ast.VariableDeclaration:
		for _, v := range d.Declarations {
			collectPatternNames(v.Target, func(n string) { names = append(names, n) })
		}
	case *ast.FunctionDeclaration:
		if d.Name != nil {
			names = append(names, d.Name.Name)
		}
	case *ast.ClassDeclaration:
		if d.Name != nil {
			names = append(names, d.Name.Name)
		}
	}
	return names
}
