// Package builtins installs the standard library of intrinsic objects onto
// a *runtime.Realm: Object/Function/Array/String/Number/BigInt/Boolean,
// Math/JSON, the Error family, Map/Set/WeakMap/WeakSet, ArrayBuffer-backed
// typed arrays, Promise, Proxy/Reflect, Symbol, Date, RegExp, and the
// console/globalThis host conveniences (SPEC_FULL.md §4.6, §4.7).
//
// Grounded on the teacher's internal/interp/builtins package: one file per
// concern, a RegisterAll-style entry point (register.go), native functions
// built from a plain Go closure. Unlike the teacher's Registry (name ->
// Go func, invoked by the interpreter's call dispatch), every built-in here
// is a first-class *runtime.Object with its Call field set, since
// JavaScript functions are values, not a side-table the evaluator consults.
//
// builtins imports internal/interp for exactly one reason: reusing
// interp.Throw/*ThrownError to box a thrown Error object, so a native
// function's `return nil, typeErr(...)` is catchable by JS try/catch the
// same way an exception raised from source is (see typeErr/rangeErr
// below). It never needs interp for callback dispatch — a callback
// argument (Array.prototype.map's fn, a Promise executor, ...) is itself a
// *runtime.Object, and invoking it is just calling its Call field. Since
// interp never imports builtins (internal/runtime/realm.go), this is a
// one-directional dependency, not the cycle that boundary guards against.
package builtins

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/asynkron/jsengine/internal/interp"
	"github.com/asynkron/jsengine/internal/runtime"
)

// toNumber is a minimal standalone ToNumber (ECMA-262 §7.1.4), duplicated
// in spirit (not copied) from internal/interp/operators.go's fuller
// version: builtins only ever needs to coerce its own arguments, never
// BigInt/Symbol-aware arithmetic, so it doesn't need the evaluator's
// Interpreter receiver or its error-producing strictness.
func toNumber(v runtime.Value) float64 {
	switch t := v.(type) {
	case runtime.Number:
		return float64(t)
	case runtime.Boolean:
		if t {
			return 1
		}
		return 0
	case runtime.String:
		s := strings.TrimSpace(string(t))
		if s == "" {
			return 0
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return math.NaN()
	case nil:
		return math.NaN()
	default:
		if v == runtime.Undefined {
			return math.NaN()
		}
		if v == runtime.Null {
			return 0
		}
		if o, ok := v.(*runtime.Object); ok {
			return toNumber(toPrimitive(o, "number"))
		}
		return math.NaN()
	}
}

func toInt(v runtime.Value) int {
	f := toNumber(v)
	if math.IsNaN(f) {
		return 0
	}
	return int(f)
}

func toBool(v runtime.Value) bool {
	switch t := v.(type) {
	case runtime.Boolean:
		return bool(t)
	case runtime.Number:
		f := float64(t)
		return f != 0 && !math.IsNaN(f)
	case runtime.String:
		return len(string(t)) > 0
	case nil:
		return false
	default:
		return v != runtime.Undefined && v != runtime.Null
	}
}

// toPrimitive implements OrdinaryToPrimitive for the builtins package's own
// coercions (valueOf before toString, unless hint is "string").
func toPrimitive(o *runtime.Object, hint string) runtime.Value {
	methods := []string{"valueOf", "toString"}
	if hint == "string" {
		methods = []string{"toString", "valueOf"}
	}
	for _, name := range methods {
		m, _ := o.Get(runtime.StringKey(name), o)
		fn, ok := m.(*runtime.Object)
		if !ok || fn.Call == nil {
			continue
		}
		res, err := fn.Call(o, nil)
		if err != nil {
			continue
		}
		if _, isObj := res.(*runtime.Object); !isObj {
			return res
		}
	}
	return runtime.String(fmt.Sprintf("%v", o))
}

func toStr(v runtime.Value) string {
	switch t := v.(type) {
	case runtime.String:
		return string(t)
	case nil:
		return "undefined"
	case *runtime.Object:
		return toStr(toPrimitive(t, "string"))
	default:
		return v.String()
	}
}

func arg(args []runtime.Value, i int) runtime.Value {
	if i < len(args) {
		return args[i]
	}
	return runtime.Undefined
}

// native builds a callable Object the same shape the evaluator's own
// nativeFunction does (internal/interp/iteration.go), so host-written and
// JS-written functions are indistinguishable to user code.
func native(realm *runtime.Realm, name string, length int, fn func(this runtime.Value, args []runtime.Value) (runtime.Value, error)) *runtime.Object {
	o := runtime.NewObject(realm.Intrinsic("Function.prototype"))
	o.Class = "Function"
	o.Call = fn
	o.SetHidden(runtime.StringKey("name"), runtime.String(name))
	o.SetHidden(runtime.StringKey("length"), runtime.Number(length))
	return o
}

func method(realm *runtime.Realm, proto *runtime.Object, name string, length int, fn func(this runtime.Value, args []runtime.Value) (runtime.Value, error)) {
	proto.SetHidden(runtime.StringKey(name), native(realm, name, length, fn))
}

func arrayFrom(realm *runtime.Realm, vals []runtime.Value) *runtime.Object {
	return realm.NewArray(vals)
}

func arrayElements(o *runtime.Object) []runtime.Value {
	n := arrayLen(o)
	out := make([]runtime.Value, n)
	for i := 0; i < n; i++ {
		out[i], _ = o.Get(runtime.StringKey(strconv.Itoa(i)), o)
	}
	return out
}

func arrayLen(o *runtime.Object) int {
	lenV, _ := o.Get(runtime.StringKey("length"), o)
	n, _ := lenV.(runtime.Number)
	return int(n)
}

func sortStable(vals []runtime.Value, less func(a, b runtime.Value) bool) {
	sort.SliceStable(vals, func(i, j int) bool { return less(vals[i], vals[j]) })
}

// newError builds an Error-family instance the way Realm.NewError does,
// re-exposed here so builtins' own throwing helpers (typeErr etc.) don't
// need a *runtime.Realm receiver juggled through every call site.
func newError(realm *runtime.Realm, kind, message string) *runtime.Object {
	return realm.NewError(kind, message)
}

// typeErr/rangeErr build a *interp.ThrownError (by way of interp.Throw) so
// a native function can `return nil, typeErr(...)` and have
// internal/interp's asThrow (statements.go) recognize and catch it exactly
// like an exception raised from JS source. builtins -> interp is not a
// cycle: interp never imports builtins (internal/runtime/realm.go), so
// reusing its thrown-value boxing here is safe and avoids a second
// competing error-wrapper type.
func jsErr(realm *runtime.Realm, kind, format string, args ...interface{}) error {
	_, err := interp.Throw(newError(realm, kind, fmt.Sprintf(format, args...)))
	return err
}

func typeErr(realm *runtime.Realm, format string, args ...interface{}) error {
	return jsErr(realm, "TypeError", format, args...)
}

func rangeErr(realm *runtime.Realm, format string, args ...interface{}) error {
	return jsErr(realm, "RangeError", format, args...)
}

func syntaxErr(realm *runtime.Realm, format string, args ...interface{}) error {
	return jsErr(realm, "SyntaxError", format, args...)
}
