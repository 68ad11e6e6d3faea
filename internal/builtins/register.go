// Package builtins' bootstrap entry point. Grounded on the teacher's
// internal/interp/builtins.RegisterAll, which populates one shared registry
// before any source runs; here the equivalent is pre-creating every bare
// prototype object a given installX expects to already exist (since several
// of them mutate realm.Intrinsic("X.prototype") in place rather than create
// it), then calling each installX once in dependency order.
package builtins

import "github.com/asynkron/jsengine/internal/runtime"

// Install populates realm with the full standard library and wires
// globalThis, leaving realm ready for internal/interp to evaluate source
// against (spec.md §3.4, §4.6). opts is forwarded verbatim to
// installPromise, installTimers and installDebug (see promise.go's
// Options) — every field is nil-safe there, so Install can be called
// before internal/eventloop exists, e.g. from a test.
func Install(realm *runtime.Realm, opts Options) {
	bootstrapPrototypes(realm)

	installObject(realm)
	installFunction(realm)
	installArray(realm)
	installString(realm)
	installNumber(realm)
	installBoolean(realm)
	installMath(realm)
	installJSON(realm)
	installBigInt(realm)
	installErrors(realm)
	installSymbol(realm)
	installMapSet(realm)
	installDate(realm)
	installRegExp(realm)
	installArrayBuffer(realm)
	installPromise(realm, opts)
	installTimers(realm, opts)
	installProxyReflect(realm)
	installConsole(realm)
	installDebug(realm, opts)

	installGlobalThis(realm)
}

// bootstrapPrototypes creates the bare .prototype objects every installX
// above expects to find already in realm.Intrinsics, in dependency order:
// Object.prototype has no prototype of its own, everything else chains to
// it, and Error.prototype must exist before installErrors builds the
// per-kind subclass prototypes on top of it.
func bootstrapPrototypes(realm *runtime.Realm) {
	if realm.GlobalEnv == nil {
		realm.GlobalEnv = runtime.NewEnvironment()
	}

	objProto := runtime.NewObject(nil)
	realm.SetIntrinsic("Object.prototype", objProto)

	if realm.GlobalObject == nil {
		realm.GlobalObject = runtime.NewObject(objProto)
	}
	// The global environment's object record (spec.md §3.4): every name
	// installX below sets on GlobalObject becomes resolvable as a bare
	// identifier, the same way a `with` object's properties already are.
	realm.GlobalEnv.BindGlobalObject(realm.GlobalObject)

	bare := func(name string) {
		realm.SetIntrinsic(name, runtime.NewObject(objProto))
	}
	bare("Function.prototype")
	bare("Array.prototype")
	bare("String.prototype")
	bare("Number.prototype")
	bare("Boolean.prototype")
	bare("BigInt.prototype")
	bare("Symbol.prototype")
	bare("Date.prototype")
	bare("RegExp.prototype")
	bare("Map.prototype")
	bare("Set.prototype")
	bare("WeakMap.prototype")
	bare("WeakSet.prototype")
	bare("Promise.prototype")
	bare("ArrayBuffer.prototype")
	bare("Error.prototype")
}

// installGlobalThis exposes the global object under its own name plus the
// handful of free-standing values every realm needs regardless of which
// built-ins installed them (spec.md §4.6 "globalThis").
func installGlobalThis(realm *runtime.Realm) {
	g := realm.GlobalObject
	g.SetHidden(runtime.StringKey("globalThis"), g)
	g.SetHidden(runtime.StringKey("undefined"), runtime.Undefined)
	g.SetHidden(runtime.StringKey("NaN"), runtime.Number(nan()))
	g.SetHidden(runtime.StringKey("Infinity"), runtime.Number(inf()))
}
