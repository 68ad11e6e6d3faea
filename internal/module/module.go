// Package module implements the ES module subsystem spec.md §6.2 asks for:
// resolving import/export specifiers to source text, parsing and evaluating
// each module body exactly once, and exposing its exports as live bindings.
// It implements both internal/interp's ModuleLoader (dynamic `import()`)
// and ModuleLinker (static `import`/`export` declarations) interfaces on
// top of one shared module-record cache, grounded on the
// resolve->load->parse->evaluate->cache pipeline interp.go's doc comments
// already describe for dynamic import, generalized here to also cover the
// static form.
package module

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/asynkron/jsengine/internal/interp"
	"github.com/asynkron/jsengine/internal/jserror"
	"github.com/asynkron/jsengine/internal/parser"
	"github.com/asynkron/jsengine/internal/runtime"
	"github.com/asynkron/jsengine/internal/transform"
)

// SourceReader is the raw host resolver an embedder installs via
// pkg/jsengine's SetModuleLoader (spec.md §6.1: "the resolver receives
// (specifier, referrer?) and returns source text"). specifier is always
// already resolved to Loader's canonical form (see resolveSpecifier); the
// reader only has to turn that into source text, e.g. by reading a file.
type SourceReader func(specifier, referrer string) (string, error)

type status int

const (
	statusLoading status = iota
	statusReady
)

// record is one module's linkage state: its own lexical environment (so
// imports can DefineAlias into it for live bindings), its public surface
// (the namespace object `import * as ns` binds to), and the export-name ->
// local-name map Export/ExportAll/ReExport populate while the body runs.
type record struct {
	path   string
	status status

	env       *runtime.Environment
	namespace *runtime.Object

	// exports maps each named export to how to read its current value.
	// Most entries are env-backed (a live binding: read env.Get(name) every
	// time, so mutations in the source module are observed); `export * as
	// ns from "m"` and re-exporting another module's own re-export both
	// produce a fixed value instead (a namespace object or a value passed
	// through from a deeper module), so exportBinding covers both shapes
	// rather than forcing everything through env.Get.
	exports map[string]exportBinding

	// "default" isn't tracked in exports: ES default exports are a
	// snapshot of the value at the point `export default` ran, not a live
	// binding, so it's simpler to keep it out of the live-binding map.
	hasDefault bool
	defaultVal runtime.Value

	err error
}

// exportBinding is either env-backed (read env.Get(name) on every access,
// for a live binding) or a fixed value (for `export * as ns from "m"` and
// re-exports of another module's own fixed exports).
type exportBinding struct {
	env     *runtime.Environment
	name    string
	value   runtime.Value
	isValue bool
}

// Loader owns the module cache for one Realm. It implements
// interp.ModuleLoader and interp.ModuleLinker; wire both onto the same
// *interp.Interpreter (it.Loader = l; it.Linker = l) so dynamic import()
// and static import/export share one cache and one notion of "currently
// evaluating module".
type Loader struct {
	it   *interp.Interpreter
	read SourceReader

	mu      sync.Mutex
	records map[string]*record
}

// NewLoader constructs a Loader that resolves specifiers against read. it
// must be the same Interpreter the embedder evaluates every Program with,
// since Export/ExportDefault find "the module currently evaluating" via
// it.CurrentModulePath.
func NewLoader(it *interp.Interpreter, read SourceReader) *Loader {
	return &Loader{it: it, read: read, records: make(map[string]*record)}
}

// resolveSpecifier turns a possibly-relative specifier into the canonical
// cache key (spec.md §6.1 "./"/"../"-relative resolution with "/"
// normalization). Bare specifiers ("lodash", "node:fs") pass through
// unchanged — resolving those, if at all, is the host SourceReader's job.
func resolveSpecifier(specifier, referrer string) string {
	if !strings.HasPrefix(specifier, "./") && !strings.HasPrefix(specifier, "../") {
		return specifier
	}
	dir := "."
	if referrer != "" {
		dir = path.Dir(referrer)
	}
	return path.Clean(path.Join(dir, specifier))
}

// Load implements interp.ModuleLoader for dynamic `import(specifier)`: it
// returns the resolved module's namespace object, wrapped the same way a
// static `import * as ns` binding is.
func (l *Loader) Load(specifier, referrer string) (runtime.Value, error) {
	rec, err := l.resolveAndLoad(specifier, referrer)
	if err != nil {
		return nil, err
	}
	return rec.namespace, nil
}

// resolveAndLoad returns the cached record for specifier/referrer, loading
// and evaluating it first if this is the first time it's been requested. A
// specifier requested again while still statusLoading means a circular
// import; rather than guess at partially-live bindings, this reports it as
// an error the caller can catch, same as any other load failure.
func (l *Loader) resolveAndLoad(specifier, referrer string) (*record, error) {
	key := resolveSpecifier(specifier, referrer)

	l.mu.Lock()
	if rec, ok := l.records[key]; ok {
		l.mu.Unlock()
		if rec.status == statusLoading {
			return nil, l.throw("TypeError", fmt.Sprintf("circular module import detected: %s", key))
		}
		if rec.err != nil {
			return nil, rec.err
		}
		return rec, nil
	}
	rec := &record{path: key, status: statusLoading, exports: make(map[string]exportBinding)}
	l.records[key] = rec
	l.mu.Unlock()

	if err := l.evaluate(rec, referrer); err != nil {
		rec.err = err
		rec.status = statusReady
		return nil, err
	}
	rec.status = statusReady
	return rec, nil
}

// evaluate reads, parses, and runs a module's body, then finalizes its
// namespace object from whatever Export/ExportDefault/ExportAll recorded
// while the body ran.
func (l *Loader) evaluate(rec *record, referrer string) error {
	if l.read == nil {
		return l.throw("TypeError", "no module loader installed")
	}
	src, err := l.read(rec.path, referrer)
	if err != nil {
		return jserror.HostFailure(err)
	}

	p := parser.New(src, parser.Options{IsModule: true})
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return l.throw("SyntaxError", strings.Join(msgs, "; "))
	}
	transform.Program(prog)

	rec.env = runtime.NewEnclosedEnvironment(l.it.Realm.GlobalEnv)
	ec := &interp.EvalContext{Interp: l.it, Env: rec.env, This: runtime.Undefined, Strict: true}

	prevPath := l.it.CurrentModulePath()
	l.it.SetCurrentModulePath(rec.path)
	defer l.it.SetCurrentModulePath(prevPath)

	if _, err := l.it.ExecProgram(ec, prog); err != nil {
		return err
	}

	l.buildNamespace(rec)
	return nil
}

// buildNamespace installs one live accessor property per named export plus
// a snapshot "default" data property (ES default exports aren't live
// bindings; they're the value at the point `export default` ran), then
// seals the object — a module namespace object never gains new properties
// after evaluation. Named exports are installed in sorted-name order
// (spec.md §6.2 "keys are M's exports in sorted order"); "default" is
// always installed last regardless of name order, matching where it sits
// in a real module namespace object's key ordering.
func (l *Loader) buildNamespace(rec *record) {
	ns := runtime.NewObject(nil)
	names := make([]string, 0, len(rec.exports))
	for name := range rec.exports {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, exported := range names {
		b := rec.exports[exported]
		if b.isValue {
			ns.DefineOwnProperty(runtime.StringKey(exported), &runtime.Property{
				Value:      b.value,
				Enumerable: true,
			})
			continue
		}
		env, name := b.env, b.name
		getter := &runtime.Object{Call: func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
			v, err, ok := env.Get(name)
			if err != nil {
				return nil, err
			}
			if !ok {
				return runtime.Undefined, nil
			}
			return v, nil
		}}
		ns.DefineOwnProperty(runtime.StringKey(exported), &runtime.Property{
			IsAccessor: true,
			Get:        getter,
			Enumerable: true,
		})
	}
	if rec.hasDefault {
		ns.DefineOwnProperty(runtime.StringKey("default"), &runtime.Property{
			Value:      rec.defaultVal,
			Enumerable: true,
		})
	}
	ns.Extensible = false
	rec.namespace = ns
}

func (l *Loader) currentRecord() *record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.records[l.it.CurrentModulePath()]
}

func (l *Loader) throw(kind, msg string) error {
	return jserror.NewThrow(l.it.Realm.NewError(kind, msg))
}
