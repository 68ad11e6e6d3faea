package builtins

import "github.com/asynkron/jsengine/internal/runtime"

// installObject wires Object.prototype and the Object constructor
// (spec.md §4.6), grounded on the teacher's internal/interp/builtins
// /type.go (TypeOf/TypeOfClass) generalized to the full ES object-static
// surface.
func installObject(realm *runtime.Realm) {
	proto := realm.Intrinsic("Object.prototype")

	method(realm, proto, "hasOwnProperty", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := this.(*runtime.Object)
		if !ok {
			return runtime.Boolean(false), nil
		}
		return runtime.Boolean(o.HasOwn(toPropertyKey(arg(args, 0)))), nil
	})
	method(realm, proto, "isPrototypeOf", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := this.(*runtime.Object)
		target, ok2 := arg(args, 0).(*runtime.Object)
		if !ok || !ok2 {
			return runtime.Boolean(false), nil
		}
		for cur := target.Proto; cur != nil; cur = cur.Proto {
			if cur == o {
				return runtime.Boolean(true), nil
			}
		}
		return runtime.Boolean(false), nil
	})
	method(realm, proto, "propertyIsEnumerable", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := this.(*runtime.Object)
		if !ok {
			return runtime.Boolean(false), nil
		}
		p := o.GetOwnProperty(toPropertyKey(arg(args, 0)))
		return runtime.Boolean(p != nil && p.Enumerable), nil
	})
	method(realm, proto, "toString", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		o, ok := this.(*runtime.Object)
		if !ok {
			return runtime.String("[object Undefined]"), nil
		}
		return runtime.String("[object " + o.Class + "]"), nil
	})
	method(realm, proto, "valueOf", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return this, nil
	})

	ctor := native(realm, "Object", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return objectConstruct(realm, args)
	})
	ctor.Construct = func(args []runtime.Value, _ *runtime.Object) (runtime.Value, error) {
		return objectConstruct(realm, args)
	}
	ctor.SetHidden(runtime.StringKey("prototype"), proto)
	proto.SetHidden(runtime.StringKey("constructor"), ctor)

	method(realm, ctor, "keys", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return arrayFrom(realm, ownEnumerableKeys(arg(args, 0))), nil
	})
	method(realm, ctor, "values", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return realm.NewArray(nil), nil
		}
		var out []runtime.Value
		for _, k := range o.OwnKeys() {
			if k.IsSymbol() {
				continue
			}
			p := o.GetOwnProperty(k)
			if p == nil || !p.Enumerable {
				continue
			}
			v, _ := o.Get(k, o)
			out = append(out, v)
		}
		return realm.NewArray(out), nil
	})
	method(realm, ctor, "entries", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return realm.NewArray(nil), nil
		}
		var out []runtime.Value
		for _, k := range o.OwnKeys() {
			if k.IsSymbol() {
				continue
			}
			p := o.GetOwnProperty(k)
			if p == nil || !p.Enumerable {
				continue
			}
			v, _ := o.Get(k, o)
			out = append(out, realm.NewArray([]runtime.Value{runtime.String(k.String()), v}))
		}
		return realm.NewArray(out), nil
	})
	method(realm, ctor, "assign", 2, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		target, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return nil, typeErr(realm, "Object.assign target must be an object")
		}
		for _, src := range args[1:] {
			s, ok := src.(*runtime.Object)
			if !ok {
				continue
			}
			for _, k := range s.OwnKeys() {
				p := s.GetOwnProperty(k)
				if p == nil || !p.Enumerable {
					continue
				}
				v, _ := s.Get(k, s)
				target.Set(k, v, target)
			}
		}
		return target, nil
	})
	method(realm, ctor, "freeze", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return arg(args, 0), nil
		}
		o.Extensible = false
		for _, k := range o.OwnKeys() {
			p := o.GetOwnProperty(k)
			p.Writable = false
			p.Configurable = false
		}
		return o, nil
	})
	method(realm, ctor, "isFrozen", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return runtime.Boolean(true), nil
		}
		if o.Extensible {
			return runtime.Boolean(false), nil
		}
		for _, k := range o.OwnKeys() {
			p := o.GetOwnProperty(k)
			if p.Writable || p.Configurable {
				return runtime.Boolean(false), nil
			}
		}
		return runtime.Boolean(true), nil
	})
	method(realm, ctor, "create", 2, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		var proto *runtime.Object
		switch p := arg(args, 0).(type) {
		case *runtime.Object:
			proto = p
		case nil:
		default:
			if p != runtime.Null {
				return nil, typeErr(realm, "Object prototype may only be an Object or null")
			}
		}
		o := runtime.NewObject(proto)
		if descs, ok := arg(args, 1).(*runtime.Object); ok {
			defineProperties(realm, o, descs)
		}
		return o, nil
	})
	method(realm, ctor, "getPrototypeOf", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := arg(args, 0).(*runtime.Object)
		if !ok || o.Proto == nil {
			return runtime.Null, nil
		}
		return o.Proto, nil
	})
	method(realm, ctor, "setPrototypeOf", 2, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return arg(args, 0), nil
		}
		if p, ok := arg(args, 1).(*runtime.Object); ok {
			o.Proto = p
		} else {
			o.Proto = nil
		}
		return o, nil
	})
	method(realm, ctor, "defineProperty", 3, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return nil, typeErr(realm, "Object.defineProperty called on non-object")
		}
		desc, ok := arg(args, 2).(*runtime.Object)
		if !ok {
			return nil, typeErr(realm, "Property description must be an object")
		}
		defineOneProperty(o, toPropertyKey(arg(args, 1)), desc)
		return o, nil
	})
	method(realm, ctor, "defineProperties", 2, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return nil, typeErr(realm, "Object.defineProperties called on non-object")
		}
		if descs, ok := arg(args, 1).(*runtime.Object); ok {
			defineProperties(realm, o, descs)
		}
		return o, nil
	})
	method(realm, ctor, "getOwnPropertyNames", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return realm.NewArray(nil), nil
		}
		var out []runtime.Value
		for _, k := range o.OwnKeys() {
			if !k.IsSymbol() {
				out = append(out, runtime.String(k.String()))
			}
		}
		return realm.NewArray(out), nil
	})
	method(realm, ctor, "fromEntries", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		entries, err := iteratorToSlice(realm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		o := realm.NewPlainObject()
		for _, e := range entries {
			pair, ok := e.(*runtime.Object)
			if !ok {
				continue
			}
			k, _ := pair.Get(runtime.StringKey("0"), pair)
			v, _ := pair.Get(runtime.StringKey("1"), pair)
			o.SetData(toPropertyKey(k), v)
		}
		return o, nil
	})
	method(realm, ctor, "is", 2, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Boolean(sameValue(arg(args, 0), arg(args, 1))), nil
	})

	realm.SetIntrinsic("Object", ctor)
	realm.GlobalObject.SetHidden(runtime.StringKey("Object"), ctor)
}

func objectConstruct(realm *runtime.Realm, args []runtime.Value) (runtime.Value, error) {
	v := arg(args, 0)
	if o, ok := v.(*runtime.Object); ok {
		return o, nil
	}
	if v == runtime.Undefined || v == runtime.Null || v == nil {
		return realm.NewPlainObject(), nil
	}
	return realm.NewPlainObject(), nil
}

func ownEnumerableKeys(v runtime.Value) []runtime.Value {
	o, ok := v.(*runtime.Object)
	if !ok {
		return nil
	}
	var out []runtime.Value
	for _, k := range o.OwnKeys() {
		if k.IsSymbol() {
			continue
		}
		p := o.GetOwnProperty(k)
		if p == nil || !p.Enumerable {
			continue
		}
		out = append(out, runtime.String(k.String()))
	}
	return out
}

func defineProperties(realm *runtime.Realm, o *runtime.Object, descs *runtime.Object) {
	for _, k := range descs.OwnKeys() {
		p := descs.GetOwnProperty(k)
		if p == nil || !p.Enumerable {
			continue
		}
		descObj, ok := p.Value.(*runtime.Object)
		if !ok {
			continue
		}
		defineOneProperty(o, k, descObj)
	}
}

func defineOneProperty(o *runtime.Object, key runtime.PropertyKey, desc *runtime.Object) {
	prop := &runtime.Property{}
	if getV, _ := desc.Get(runtime.StringKey("get"), desc); getV != runtime.Undefined {
		prop.IsAccessor = true
		prop.Get = getV
	}
	if setV, _ := desc.Get(runtime.StringKey("set"), desc); setV != runtime.Undefined {
		prop.IsAccessor = true
		prop.Set = setV
	}
	if !prop.IsAccessor {
		v, _ := desc.Get(runtime.StringKey("value"), desc)
		prop.Value = v
	}
	if w, _ := desc.Get(runtime.StringKey("writable"), desc); w != runtime.Undefined {
		prop.Writable = toBool(w)
	}
	if e, _ := desc.Get(runtime.StringKey("enumerable"), desc); e != runtime.Undefined {
		prop.Enumerable = toBool(e)
	}
	if c, _ := desc.Get(runtime.StringKey("configurable"), desc); c != runtime.Undefined {
		prop.Configurable = toBool(c)
	}
	o.DefineOwnProperty(key, prop)
}

func toPropertyKey(v runtime.Value) runtime.PropertyKey {
	if sym, ok := v.(*runtime.Symbol); ok {
		return runtime.SymbolKey(sym)
	}
	return runtime.StringKey(toStr(v))
}

// sameValue implements SameValue (Object.is), distinguishing +0/-0 and
// treating NaN as equal to itself, unlike ===.
func sameValue(a, b runtime.Value) bool {
	an, aok := a.(runtime.Number)
	bn, bok := b.(runtime.Number)
	if aok && bok {
		if an != an && bn != bn { // both NaN
			return true
		}
		return an == bn
	}
	if c, ok := a.(runtime.ComparableValue); ok {
		return c.Equals(b)
	}
	return a == b
}
