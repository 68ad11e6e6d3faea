package builtins

import "github.com/asynkron/jsengine/internal/runtime"

// installFunction wires Function.prototype's call/apply/bind/toString
// (spec.md §4.6, §4.7 "Function.prototype.toString"). A `Function` global
// is installed, but it does not compile source strings: calling it
// (`Function("a","b","return a+b")`) throws a TypeError. Compiling a string
// needs the parser and transform passes, which builtins doesn't import to
// keep it free of an evaluator dependency (see convert.go's package doc).
func installFunction(realm *runtime.Realm) {
	proto := realm.Intrinsic("Function.prototype")
	proto.Call = func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) { return runtime.Undefined, nil }

	method(realm, proto, "call", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		fn, ok := this.(*runtime.Object)
		if !ok || fn.Call == nil {
			return nil, typeErr(realm, "Function.prototype.call called on non-function")
		}
		newThis := arg(args, 0)
		rest := []runtime.Value{}
		if len(args) > 1 {
			rest = args[1:]
		}
		return fn.Call(newThis, rest)
	})
	method(realm, proto, "apply", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		fn, ok := this.(*runtime.Object)
		if !ok || fn.Call == nil {
			return nil, typeErr(realm, "Function.prototype.apply called on non-function")
		}
		newThis := arg(args, 0)
		var rest []runtime.Value
		if arr, ok := arg(args, 1).(*runtime.Object); ok {
			rest = arrayElements(arr)
		}
		return fn.Call(newThis, rest)
	})
	method(realm, proto, "bind", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		fn, ok := this.(*runtime.Object)
		if !ok || fn.Call == nil {
			return nil, typeErr(realm, "Function.prototype.bind called on non-function")
		}
		boundThis := arg(args, 0)
		boundArgs := []runtime.Value{}
		if len(args) > 1 {
			boundArgs = append(boundArgs, args[1:]...)
		}
		nameV, _ := fn.Get(runtime.StringKey("name"), fn)
		bound := native(realm, "bound "+toStr(nameV), 0, func(_ runtime.Value, callArgs []runtime.Value) (runtime.Value, error) {
			return fn.Call(boundThis, append(append([]runtime.Value{}, boundArgs...), callArgs...))
		})
		if fn.Construct != nil {
			bound.Construct = func(callArgs []runtime.Value, newTarget *runtime.Object) (runtime.Value, error) {
				return fn.Construct(append(append([]runtime.Value{}, boundArgs...), callArgs...), newTarget)
			}
		}
		return bound, nil
	})
	method(realm, proto, "toString", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		fn, ok := this.(*runtime.Object)
		if !ok {
			return runtime.String("function () { [native code] }"), nil
		}
		if src, ok := fn.Internal.(interface{ Source() string }); ok {
			return runtime.String(src.Source()), nil
		}
		nameV, _ := fn.Get(runtime.StringKey("name"), fn)
		return runtime.String("function " + toStr(nameV) + "() { [native code] }"), nil
	})

	ctor := native(realm, "Function", 1, func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return nil, typeErr(realm, "Function constructor is not supported; declare a function instead")
	})
	ctor.SetHidden(runtime.StringKey("prototype"), proto)
	proto.SetHidden(runtime.StringKey("constructor"), ctor)
	realm.SetIntrinsic("Function", ctor)
	realm.GlobalObject.SetHidden(runtime.StringKey("Function"), ctor)
}
