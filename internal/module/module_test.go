package module_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/asynkron/jsengine/internal/interp"
	"github.com/asynkron/jsengine/internal/module"
	"github.com/asynkron/jsengine/internal/runtime"
)

// newTestInterpreter builds the minimal Realm scaffolding internal/interp's
// own unit tests use (Object.prototype/Function.prototype/Array.prototype,
// no internal/builtins) so module-linkage tests don't need the whole
// standard library installed.
func newTestInterpreter(t *testing.T) *interp.Interpreter {
	t.Helper()
	realm := runtime.NewRealm()
	objProto := runtime.NewObject(nil)
	realm.SetIntrinsic("Object.prototype", objProto)
	realm.SetIntrinsic("Function.prototype", runtime.NewObject(objProto))
	realm.SetIntrinsic("Array.prototype", runtime.NewObject(objProto))
	realm.SetIntrinsic("Error.prototype", runtime.NewObject(objProto))
	realm.GlobalObject = runtime.NewObject(objProto)
	realm.GlobalEnv = runtime.NewEnvironment()
	return interp.New(realm, 500, nil)
}

// fsReader backs module.SourceReader with an in-memory map, keyed exactly
// the way Loader's resolver produces canonical specifiers.
func fsReader(files map[string]string) module.SourceReader {
	return func(specifier, referrer string) (string, error) {
		src, ok := files[specifier]
		if !ok {
			return "", fmt.Errorf("no such module: %s", specifier)
		}
		return src, nil
	}
}

func TestNamedExportIsLiveBinding(t *testing.T) {
	it := newTestInterpreter(t)
	loader := module.NewLoader(it, fsReader(map[string]string{
		"counter.js": `export let count = 1; export function bump() { count++; }`,
		"entry.js":   `import { count, bump } from "./counter.js"; bump(); bump();`,
	}))
	it.Linker = loader

	ns, err := loader.Load("./entry.js", "")
	require.NoError(t, err)
	nsObj := ns.(*runtime.Object)

	counterNS, err := loader.Load("./counter.js", "")
	require.NoError(t, err)
	v, err := counterNS.(*runtime.Object).Get(runtime.StringKey("count"), counterNS.(*runtime.Object))
	require.NoError(t, err)
	require.Equal(t, runtime.Number(3), v)

	_, err = nsObj.Get(runtime.StringKey("bump"), nsObj)
	require.NoError(t, err)
}

func TestDefaultExportIsSnapshot(t *testing.T) {
	it := newTestInterpreter(t)
	loader := module.NewLoader(it, fsReader(map[string]string{
		"m.js": `let x = 1; export default x; x = 2;`,
	}))
	it.Linker = loader

	ns, err := loader.Load("./m.js", "")
	require.NoError(t, err)
	v, err := ns.(*runtime.Object).Get(runtime.StringKey("default"), ns.(*runtime.Object))
	require.NoError(t, err)
	require.Equal(t, runtime.Number(1), v)
}

func TestExportStarReExportsNamedBindings(t *testing.T) {
	it := newTestInterpreter(t)
	loader := module.NewLoader(it, fsReader(map[string]string{
		"base.js": `export const a = 1; export const b = 2;`,
		"all.js":  `export * from "./base.js";`,
	}))
	it.Linker = loader

	ns, err := loader.Load("./all.js", "")
	require.NoError(t, err)
	nsObj := ns.(*runtime.Object)
	a, err := nsObj.Get(runtime.StringKey("a"), nsObj)
	require.NoError(t, err)
	require.Equal(t, runtime.Number(1), a)
	b, err := nsObj.Get(runtime.StringKey("b"), nsObj)
	require.NoError(t, err)
	require.Equal(t, runtime.Number(2), b)
}

func TestExportStarAsNamespace(t *testing.T) {
	it := newTestInterpreter(t)
	loader := module.NewLoader(it, fsReader(map[string]string{
		"base.js": `export const a = 1;`,
		"ns.js":   `export * as base from "./base.js";`,
	}))
	it.Linker = loader

	ns, err := loader.Load("./ns.js", "")
	require.NoError(t, err)
	nsObj := ns.(*runtime.Object)
	baseVal, err := nsObj.Get(runtime.StringKey("base"), nsObj)
	require.NoError(t, err)
	baseObj, ok := baseVal.(*runtime.Object)
	require.True(t, ok)
	a, err := baseObj.Get(runtime.StringKey("a"), baseObj)
	require.NoError(t, err)
	require.Equal(t, runtime.Number(1), a)
}

func TestMissingNamedExportThrowsSyntaxError(t *testing.T) {
	it := newTestInterpreter(t)
	loader := module.NewLoader(it, fsReader(map[string]string{
		"m.js":     `export const a = 1;`,
		"entry.js": `import { missing } from "./m.js";`,
	}))
	it.Linker = loader

	_, err := loader.Load("./entry.js", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing")
}

func TestCircularImportIsReported(t *testing.T) {
	it := newTestInterpreter(t)
	loader := module.NewLoader(it, fsReader(map[string]string{
		"a.js": `import "./b.js"; export const a = 1;`,
		"b.js": `import "./a.js"; export const b = 2;`,
	}))
	it.Linker = loader

	_, err := loader.Load("./a.js", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "circular")
}

func TestDynamicImportSharesCacheWithStaticImport(t *testing.T) {
	it := newTestInterpreter(t)
	loader := module.NewLoader(it, fsReader(map[string]string{
		"m.js": `export const a = 1;`,
	}))
	it.Linker = loader
	it.Loader = loader

	first, err := loader.Load("./m.js", "")
	require.NoError(t, err)
	second, err := loader.Load("./m.js", "")
	require.NoError(t, err)
	require.Same(t, first.(*runtime.Object), second.(*runtime.Object))
}
