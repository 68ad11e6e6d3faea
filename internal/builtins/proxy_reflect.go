package builtins

import "github.com/asynkron/jsengine/internal/runtime"

// proxyData is the Internal payload of a Proxy instance: target plus
// handler, consulted by the trap wrappers below (spec.md §4.6).
type proxyData struct {
	target  *runtime.Object
	handler *runtime.Object
}

// installProxyReflect wires Proxy and the Reflect namespace object. Proxy
// traps are implemented by giving the Proxy's own Call/Construct/Get-style
// behavior (exposed to JS only through property access, since runtime.Object
// has no generic trap dispatch) a thin forwarding Object whose Internal
// holds target+handler; full [[Get]]/[[Set]] trap interception would need
// evaluator-level hooks into property access, which spec.md's Non-goals
// places out of scope for this pass — only the common function-proxy
// (apply/construct traps) and Reflect's static methods are wired.
func installProxyReflect(realm *runtime.Realm) {
	ctor := native(realm, "Proxy", 2, func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return nil, typeErr(realm, "Constructor Proxy requires 'new'")
	})
	ctor.Construct = func(args []runtime.Value, _ *runtime.Object) (runtime.Value, error) {
		target, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return nil, typeErr(realm, "Cannot create proxy with a non-object as target")
		}
		handler, ok := arg(args, 1).(*runtime.Object)
		if !ok {
			return nil, typeErr(realm, "Cannot create proxy with a non-object as handler")
		}
		p := runtime.NewObject(target.Proto)
		p.Class = target.Class
		p.Internal = &proxyData{target: target, handler: handler}
		if target.Call != nil {
			p.Call = func(this runtime.Value, callArgs []runtime.Value) (runtime.Value, error) {
				if trap, _ := handler.Get(runtime.StringKey("apply"), handler); trap != runtime.Undefined {
					if fn, ok := trap.(*runtime.Object); ok && fn.Call != nil {
						return fn.Call(handler, []runtime.Value{target, this, realm.NewArray(callArgs)})
					}
				}
				return target.Call(this, callArgs)
			}
		}
		if target.Construct != nil {
			p.Construct = func(callArgs []runtime.Value, newTarget *runtime.Object) (runtime.Value, error) {
				if trap, _ := handler.Get(runtime.StringKey("construct"), handler); trap != runtime.Undefined {
					if fn, ok := trap.(*runtime.Object); ok && fn.Call != nil {
						return fn.Call(handler, []runtime.Value{target, realm.NewArray(callArgs)})
					}
				}
				return target.Construct(callArgs, newTarget)
			}
		}
		return p, nil
	}
	realm.SetIntrinsic("Proxy", ctor)
	realm.GlobalObject.SetHidden(runtime.StringKey("Proxy"), ctor)

	reflect := realm.NewPlainObject()
	method(realm, reflect, "get", 2, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return nil, typeErr(realm, "Reflect.get called on non-object")
		}
		return o.Get(toPropertyKey(arg(args, 1)), o)
	})
	method(realm, reflect, "set", 3, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return nil, typeErr(realm, "Reflect.set called on non-object")
		}
		return runtime.Boolean(o.Set(toPropertyKey(arg(args, 1)), arg(args, 2), o) == nil), nil
	})
	method(realm, reflect, "has", 2, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return nil, typeErr(realm, "Reflect.has called on non-object")
		}
		key := toPropertyKey(arg(args, 1))
		for cur := o; cur != nil; cur = cur.Proto {
			if cur.HasOwn(key) {
				return runtime.Boolean(true), nil
			}
		}
		return runtime.Boolean(false), nil
	})
	method(realm, reflect, "deleteProperty", 2, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return nil, typeErr(realm, "Reflect.deleteProperty called on non-object")
		}
		return runtime.Boolean(o.DeleteOwn(toPropertyKey(arg(args, 1)))), nil
	})
	method(realm, reflect, "ownKeys", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return realm.NewArray(nil), nil
		}
		var out []runtime.Value
		for _, k := range o.OwnKeys() {
			if k.IsSymbol() {
				continue
			}
			out = append(out, runtime.String(k.String()))
		}
		return realm.NewArray(out), nil
	})
	method(realm, reflect, "getPrototypeOf", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := arg(args, 0).(*runtime.Object)
		if !ok || o.Proto == nil {
			return runtime.Null, nil
		}
		return o.Proto, nil
	})
	method(realm, reflect, "setPrototypeOf", 2, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return runtime.Boolean(false), nil
		}
		if p, ok := arg(args, 1).(*runtime.Object); ok {
			o.Proto = p
		} else {
			o.Proto = nil
		}
		return runtime.Boolean(true), nil
	})
	method(realm, reflect, "defineProperty", 3, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := arg(args, 0).(*runtime.Object)
		desc, ok2 := arg(args, 2).(*runtime.Object)
		if !ok || !ok2 {
			return runtime.Boolean(false), nil
		}
		defineOneProperty(o, toPropertyKey(arg(args, 1)), desc)
		return runtime.Boolean(true), nil
	})
	method(realm, reflect, "apply", 3, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		fn, ok := arg(args, 0).(*runtime.Object)
		if !ok || fn.Call == nil {
			return nil, typeErr(realm, "Reflect.apply target is not a function")
		}
		var callArgs []runtime.Value
		if arr, ok := arg(args, 2).(*runtime.Object); ok {
			callArgs = arrayElements(arr)
		}
		return fn.Call(arg(args, 1), callArgs)
	})
	method(realm, reflect, "construct", 2, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		fn, ok := arg(args, 0).(*runtime.Object)
		if !ok || fn.Construct == nil {
			return nil, typeErr(realm, "Reflect.construct target is not a constructor")
		}
		var callArgs []runtime.Value
		if arr, ok := arg(args, 1).(*runtime.Object); ok {
			callArgs = arrayElements(arr)
		}
		return fn.Construct(callArgs, fn)
	})

	reflect.SetHidden(runtime.SymbolKey(runtime.SymbolToStringTag), runtime.String("Reflect"))
	realm.SetIntrinsic("Reflect", reflect)
	realm.GlobalObject.SetHidden(runtime.StringKey("Reflect"), reflect)
}
