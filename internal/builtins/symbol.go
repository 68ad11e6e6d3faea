package builtins

import "github.com/asynkron/jsengine/internal/runtime"

// installSymbol wires the Symbol() factory, Symbol.for's global registry,
// and re-exposes the runtime's well-known symbols as properties of the
// Symbol constructor (spec.md §3.1, §4.6).
func installSymbol(realm *runtime.Realm) {
	proto := realm.Intrinsic("Symbol.prototype")
	method(realm, proto, "toString", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		s, ok := this.(*runtime.Symbol)
		if !ok {
			return runtime.String("Symbol()"), nil
		}
		return runtime.String(s.String()), nil
	})
	descGetter := native(realm, "get description", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		if s, ok := this.(*runtime.Symbol); ok {
			return runtime.String(s.Description), nil
		}
		return runtime.Undefined, nil
	})
	proto.DefineOwnProperty(runtime.StringKey("description"), &runtime.Property{IsAccessor: true, Get: descGetter, Configurable: true})

	registry := map[string]*runtime.Symbol{}

	ctor := native(realm, "Symbol", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		desc := ""
		if arg(args, 0) != runtime.Undefined {
			desc = toStr(args[0])
		}
		return &runtime.Symbol{Description: desc}, nil
	})
	method(realm, ctor, "for", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		key := toStr(arg(args, 0))
		if s, ok := registry[key]; ok {
			return s, nil
		}
		s := &runtime.Symbol{Description: key}
		registry[key] = s
		return s, nil
	})
	method(realm, ctor, "keyFor", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s, ok := arg(args, 0).(*runtime.Symbol)
		if !ok {
			return nil, typeErr(realm, "Symbol.keyFor argument must be a Symbol")
		}
		for k, v := range registry {
			if v == s {
				return runtime.String(k), nil
			}
		}
		return runtime.Undefined, nil
	})
	ctor.SetHidden(runtime.StringKey("prototype"), proto)
	proto.SetHidden(runtime.StringKey("constructor"), ctor)
	ctor.SetHidden(runtime.StringKey("iterator"), runtime.SymbolIterator)
	ctor.SetHidden(runtime.StringKey("asyncIterator"), runtime.SymbolAsyncIterator)
	ctor.SetHidden(runtime.StringKey("toStringTag"), runtime.SymbolToStringTag)
	ctor.SetHidden(runtime.StringKey("hasInstance"), runtime.SymbolHasInstance)
	ctor.SetHidden(runtime.StringKey("toPrimitive"), runtime.SymbolToPrimitive)
	ctor.SetHidden(runtime.StringKey("match"), runtime.SymbolMatch)
	ctor.SetHidden(runtime.StringKey("replace"), runtime.SymbolReplace)
	ctor.SetHidden(runtime.StringKey("search"), runtime.SymbolSearch)
	ctor.SetHidden(runtime.StringKey("split"), runtime.SymbolSplit)

	realm.SetIntrinsic("Symbol", ctor)
	realm.GlobalObject.SetHidden(runtime.StringKey("Symbol"), ctor)
}
