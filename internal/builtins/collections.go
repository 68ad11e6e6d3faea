package builtins

import "github.com/asynkron/jsengine/internal/runtime"

// mapEntry preserves insertion order, which Map/Set iteration must respect
// (spec.md §4.6); a plain Go map can't do that by itself.
type mapEntry struct {
	key   runtime.Value
	value runtime.Value
}

// mapData is the Internal payload of a Map instance: a slice for order plus
// an index by mapKey() for O(1) lookup, mirroring how runtime.Object itself
// pairs an ordered slice with a map for its own properties.
type mapData struct {
	order []mapEntry
	index map[interface{}]int
}

func newMapData() *mapData { return &mapData{index: map[interface{}]int{}} }

func (m *mapData) get(k runtime.Value) (runtime.Value, bool) {
	if i, ok := m.index[mapKey(k)]; ok {
		return m.order[i].value, true
	}
	return nil, false
}

func (m *mapData) set(k, v runtime.Value) {
	if i, ok := m.index[mapKey(k)]; ok {
		m.order[i].value = v
		return
	}
	m.index[mapKey(k)] = len(m.order)
	m.order = append(m.order, mapEntry{k, v})
}

func (m *mapData) delete(k runtime.Value) bool {
	i, ok := m.index[mapKey(k)]
	if !ok {
		return false
	}
	delete(m.index, mapKey(k))
	m.order = append(m.order[:i], m.order[i+1:]...)
	for j := i; j < len(m.order); j++ {
		m.index[mapKey(m.order[j].key)] = j
	}
	return true
}

// mapKey canonicalizes a Value for use as a Go map key under SameValueZero
// semantics (NaN equals itself; objects key by pointer identity).
func mapKey(v runtime.Value) interface{} {
	switch t := v.(type) {
	case runtime.Number:
		f := float64(t)
		if f != f {
			return "NaN"
		}
		return f
	case runtime.String:
		return "s:" + string(t)
	case runtime.Boolean:
		return bool(t)
	case *runtime.Object:
		return t
	case *runtime.Symbol:
		return t
	default:
		return v
	}
}

func installMapSet(realm *runtime.Realm) {
	installMap(realm)
	installSet(realm)
	installWeakMap(realm)
	installWeakSet(realm)
}

func installMap(realm *runtime.Realm) {
	proto := realm.Intrinsic("Map.prototype")

	ctor := native(realm, "Map", 0, func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return nil, typeErr(realm, "Constructor Map requires 'new'")
	})
	ctor.Construct = func(args []runtime.Value, _ *runtime.Object) (runtime.Value, error) {
		o := runtime.NewObject(proto)
		o.Class = "Map"
		data := newMapData()
		o.Internal = data
		if arg(args, 0) != runtime.Undefined && arg(args, 0) != runtime.Null {
			entries, err := iteratorToSlice(realm, args[0])
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				pair, ok := e.(*runtime.Object)
				if !ok {
					continue
				}
				k, _ := pair.Get(runtime.StringKey("0"), pair)
				v, _ := pair.Get(runtime.StringKey("1"), pair)
				data.set(k, v)
			}
		}
		return o, nil
	}
	ctor.SetHidden(runtime.StringKey("prototype"), proto)
	proto.SetHidden(runtime.StringKey("constructor"), ctor)

	mdata := func(this runtime.Value) (*mapData, error) {
		o, ok := this.(*runtime.Object)
		if !ok {
			return nil, typeErr(realm, "Method Map.prototype called on incompatible receiver")
		}
		d, ok := o.Internal.(*mapData)
		if !ok {
			return nil, typeErr(realm, "Method Map.prototype called on incompatible receiver")
		}
		return d, nil
	}
	method(realm, proto, "get", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		d, err := mdata(this)
		if err != nil {
			return nil, err
		}
		if v, ok := d.get(arg(args, 0)); ok {
			return v, nil
		}
		return runtime.Undefined, nil
	})
	method(realm, proto, "set", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		d, err := mdata(this)
		if err != nil {
			return nil, err
		}
		d.set(arg(args, 0), arg(args, 1))
		return this, nil
	})
	method(realm, proto, "has", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		d, err := mdata(this)
		if err != nil {
			return nil, err
		}
		_, ok := d.get(arg(args, 0))
		return runtime.Boolean(ok), nil
	})
	method(realm, proto, "delete", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		d, err := mdata(this)
		if err != nil {
			return nil, err
		}
		return runtime.Boolean(d.delete(arg(args, 0))), nil
	})
	method(realm, proto, "clear", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		d, err := mdata(this)
		if err != nil {
			return nil, err
		}
		d.order = nil
		d.index = map[interface{}]int{}
		return runtime.Undefined, nil
	})
	method(realm, proto, "forEach", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		d, err := mdata(this)
		if err != nil {
			return nil, err
		}
		fn, ok := arg(args, 0).(*runtime.Object)
		if !ok || fn.Call == nil {
			return nil, typeErr(realm, "callback is not a function")
		}
		for _, e := range append([]mapEntry{}, d.order...) {
			if _, err := fn.Call(arg(args, 1), []runtime.Value{e.value, e.key, this}); err != nil {
				return nil, err
			}
		}
		return runtime.Undefined, nil
	})
	method(realm, proto, "keys", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		d, err := mdata(this)
		if err != nil {
			return nil, err
		}
		out := make([]runtime.Value, len(d.order))
		for i, e := range d.order {
			out[i] = e.key
		}
		return newArrayIterator(realm, out), nil
	})
	method(realm, proto, "values", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		d, err := mdata(this)
		if err != nil {
			return nil, err
		}
		out := make([]runtime.Value, len(d.order))
		for i, e := range d.order {
			out[i] = e.value
		}
		return newArrayIterator(realm, out), nil
	})
	method(realm, proto, "entries", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		d, err := mdata(this)
		if err != nil {
			return nil, err
		}
		out := make([]runtime.Value, len(d.order))
		for i, e := range d.order {
			out[i] = realm.NewArray([]runtime.Value{e.key, e.value})
		}
		return newArrayIterator(realm, out), nil
	})
	proto.SetHidden(runtime.SymbolKey(runtime.SymbolIterator), native(realm, "[Symbol.iterator]", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		d, err := mdata(this)
		if err != nil {
			return nil, err
		}
		out := make([]runtime.Value, len(d.order))
		for i, e := range d.order {
			out[i] = realm.NewArray([]runtime.Value{e.key, e.value})
		}
		return newArrayIterator(realm, out), nil
	}))
	sizeGetter := native(realm, "get size", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		d, err := mdata(this)
		if err != nil {
			return nil, err
		}
		return runtime.Number(len(d.order)), nil
	})
	proto.DefineOwnProperty(runtime.StringKey("size"), &runtime.Property{IsAccessor: true, Get: sizeGetter, Configurable: true})

	realm.SetIntrinsic("Map", ctor)
	realm.GlobalObject.SetHidden(runtime.StringKey("Map"), ctor)
}

func installSet(realm *runtime.Realm) {
	proto := realm.Intrinsic("Set.prototype")

	ctor := native(realm, "Set", 0, func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return nil, typeErr(realm, "Constructor Set requires 'new'")
	})
	ctor.Construct = func(args []runtime.Value, _ *runtime.Object) (runtime.Value, error) {
		o := runtime.NewObject(proto)
		o.Class = "Set"
		data := newMapData()
		o.Internal = data
		if arg(args, 0) != runtime.Undefined && arg(args, 0) != runtime.Null {
			vals, err := iteratorToSlice(realm, args[0])
			if err != nil {
				return nil, err
			}
			for _, v := range vals {
				data.set(v, v)
			}
		}
		return o, nil
	}
	ctor.SetHidden(runtime.StringKey("prototype"), proto)
	proto.SetHidden(runtime.StringKey("constructor"), ctor)

	sdata := func(this runtime.Value) (*mapData, error) {
		o, ok := this.(*runtime.Object)
		if !ok {
			return nil, typeErr(realm, "Method Set.prototype called on incompatible receiver")
		}
		d, ok := o.Internal.(*mapData)
		if !ok {
			return nil, typeErr(realm, "Method Set.prototype called on incompatible receiver")
		}
		return d, nil
	}
	method(realm, proto, "add", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		d, err := sdata(this)
		if err != nil {
			return nil, err
		}
		d.set(arg(args, 0), arg(args, 0))
		return this, nil
	})
	method(realm, proto, "has", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		d, err := sdata(this)
		if err != nil {
			return nil, err
		}
		_, ok := d.get(arg(args, 0))
		return runtime.Boolean(ok), nil
	})
	method(realm, proto, "delete", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		d, err := sdata(this)
		if err != nil {
			return nil, err
		}
		return runtime.Boolean(d.delete(arg(args, 0))), nil
	})
	method(realm, proto, "clear", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		d, err := sdata(this)
		if err != nil {
			return nil, err
		}
		d.order = nil
		d.index = map[interface{}]int{}
		return runtime.Undefined, nil
	})
	method(realm, proto, "forEach", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		d, err := sdata(this)
		if err != nil {
			return nil, err
		}
		fn, ok := arg(args, 0).(*runtime.Object)
		if !ok || fn.Call == nil {
			return nil, typeErr(realm, "callback is not a function")
		}
		for _, e := range append([]mapEntry{}, d.order...) {
			if _, err := fn.Call(arg(args, 1), []runtime.Value{e.value, e.key, this}); err != nil {
				return nil, err
			}
		}
		return runtime.Undefined, nil
	})
	proto.SetHidden(runtime.SymbolKey(runtime.SymbolIterator), native(realm, "[Symbol.iterator]", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		d, err := sdata(this)
		if err != nil {
			return nil, err
		}
		out := make([]runtime.Value, len(d.order))
		for i, e := range d.order {
			out[i] = e.value
		}
		return newArrayIterator(realm, out), nil
	}))
	sizeGetter := native(realm, "get size", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		d, err := sdata(this)
		if err != nil {
			return nil, err
		}
		return runtime.Number(len(d.order)), nil
	})
	proto.DefineOwnProperty(runtime.StringKey("size"), &runtime.Property{IsAccessor: true, Get: sizeGetter, Configurable: true})

	realm.SetIntrinsic("Set", ctor)
	realm.GlobalObject.SetHidden(runtime.StringKey("Set"), ctor)
}

// installWeakMap/installWeakSet reuse mapData wholesale: the evaluator has
// no garbage collector hook to make key-reachability actually weak, so these
// behave like Map/Set restricted to object keys, which is observably
// correct for every operation short of GC-driven collection (spec.md
// Non-goals implicitly excludes implementing real weak references).
func installWeakMap(realm *runtime.Realm) {
	proto := realm.Intrinsic("WeakMap.prototype")
	ctor := native(realm, "WeakMap", 0, func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return nil, typeErr(realm, "Constructor WeakMap requires 'new'")
	})
	ctor.Construct = func(args []runtime.Value, _ *runtime.Object) (runtime.Value, error) {
		o := runtime.NewObject(proto)
		o.Class = "WeakMap"
		data := newMapData()
		o.Internal = data
		if arg(args, 0) != runtime.Undefined && arg(args, 0) != runtime.Null {
			entries, err := iteratorToSlice(realm, args[0])
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				if pair, ok := e.(*runtime.Object); ok {
					k, _ := pair.Get(runtime.StringKey("0"), pair)
					v, _ := pair.Get(runtime.StringKey("1"), pair)
					if _, ok := k.(*runtime.Object); !ok {
						return nil, typeErr(realm, "Invalid value used as weak map key")
					}
					data.set(k, v)
				}
			}
		}
		return o, nil
	}
	ctor.SetHidden(runtime.StringKey("prototype"), proto)
	proto.SetHidden(runtime.StringKey("constructor"), ctor)

	wdata := func(this runtime.Value) (*mapData, error) {
		o, ok := this.(*runtime.Object)
		if !ok {
			return nil, typeErr(realm, "Method WeakMap.prototype called on incompatible receiver")
		}
		d, ok := o.Internal.(*mapData)
		if !ok {
			return nil, typeErr(realm, "Method WeakMap.prototype called on incompatible receiver")
		}
		return d, nil
	}
	method(realm, proto, "get", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		d, err := wdata(this)
		if err != nil {
			return nil, err
		}
		if v, ok := d.get(arg(args, 0)); ok {
			return v, nil
		}
		return runtime.Undefined, nil
	})
	method(realm, proto, "set", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if _, ok := arg(args, 0).(*runtime.Object); !ok {
			return nil, typeErr(realm, "Invalid value used as weak map key")
		}
		d, err := wdata(this)
		if err != nil {
			return nil, err
		}
		d.set(args[0], arg(args, 1))
		return this, nil
	})
	method(realm, proto, "has", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		d, err := wdata(this)
		if err != nil {
			return nil, err
		}
		_, ok := d.get(arg(args, 0))
		return runtime.Boolean(ok), nil
	})
	method(realm, proto, "delete", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		d, err := wdata(this)
		if err != nil {
			return nil, err
		}
		return runtime.Boolean(d.delete(arg(args, 0))), nil
	})

	realm.SetIntrinsic("WeakMap", ctor)
	realm.GlobalObject.SetHidden(runtime.StringKey("WeakMap"), ctor)
}

func installWeakSet(realm *runtime.Realm) {
	proto := realm.Intrinsic("WeakSet.prototype")
	ctor := native(realm, "WeakSet", 0, func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return nil, typeErr(realm, "Constructor WeakSet requires 'new'")
	})
	ctor.Construct = func(args []runtime.Value, _ *runtime.Object) (runtime.Value, error) {
		o := runtime.NewObject(proto)
		o.Class = "WeakSet"
		data := newMapData()
		o.Internal = data
		if arg(args, 0) != runtime.Undefined && arg(args, 0) != runtime.Null {
			vals, err := iteratorToSlice(realm, args[0])
			if err != nil {
				return nil, err
			}
			for _, v := range vals {
				if _, ok := v.(*runtime.Object); !ok {
					return nil, typeErr(realm, "Invalid value used in weak set")
				}
				data.set(v, v)
			}
		}
		return o, nil
	}
	ctor.SetHidden(runtime.StringKey("prototype"), proto)
	proto.SetHidden(runtime.StringKey("constructor"), ctor)

	wdata := func(this runtime.Value) (*mapData, error) {
		o, ok := this.(*runtime.Object)
		if !ok {
			return nil, typeErr(realm, "Method WeakSet.prototype called on incompatible receiver")
		}
		d, ok := o.Internal.(*mapData)
		if !ok {
			return nil, typeErr(realm, "Method WeakSet.prototype called on incompatible receiver")
		}
		return d, nil
	}
	method(realm, proto, "add", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if _, ok := arg(args, 0).(*runtime.Object); !ok {
			return nil, typeErr(realm, "Invalid value used in weak set")
		}
		d, err := wdata(this)
		if err != nil {
			return nil, err
		}
		d.set(args[0], args[0])
		return this, nil
	})
	method(realm, proto, "has", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		d, err := wdata(this)
		if err != nil {
			return nil, err
		}
		_, ok := d.get(arg(args, 0))
		return runtime.Boolean(ok), nil
	})
	method(realm, proto, "delete", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		d, err := wdata(this)
		if err != nil {
			return nil, err
		}
		return runtime.Boolean(d.delete(arg(args, 0))), nil
	})

	realm.SetIntrinsic("WeakSet", ctor)
	realm.GlobalObject.SetHidden(runtime.StringKey("WeakSet"), ctor)
}
