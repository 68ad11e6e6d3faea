package builtins

import "github.com/asynkron/jsengine/internal/runtime"

// iteratorToSlice drains v's iterator (Array.from, Map/Set/WeakMap/WeakSet
// constructors' iterable-of-entries argument, spec.md §4.6), re-implemented
// here rather than imported from internal/interp/iteration.go since that
// helper hangs off *Interpreter; the protocol itself is just two property
// lookups and a loop.
func iteratorToSlice(realm *runtime.Realm, v runtime.Value) ([]runtime.Value, error) {
	o, ok := v.(*runtime.Object)
	if !ok {
		if s, ok := v.(runtime.String); ok {
			runes := []rune(string(s))
			out := make([]runtime.Value, len(runes))
			for i, r := range runes {
				out[i] = runtime.String(string(r))
			}
			return out, nil
		}
		return nil, typeErr(realm, "%s is not iterable", jsType(v))
	}
	iterFnV, err := o.Get(runtime.SymbolKey(runtime.SymbolIterator), o)
	if err != nil {
		return nil, err
	}
	iterFn, ok := iterFnV.(*runtime.Object)
	if !ok || iterFn.Call == nil {
		return nil, typeErr(realm, "%s is not iterable", jsType(v))
	}
	iterV, err := iterFn.Call(o, nil)
	if err != nil {
		return nil, err
	}
	iter, ok := iterV.(*runtime.Object)
	if !ok {
		return nil, typeErr(realm, "Result of the Symbol.iterator method is not an object")
	}
	var out []runtime.Value
	for {
		nextV, err := iter.Get(runtime.StringKey("next"), iter)
		if err != nil {
			return nil, err
		}
		nextFn, ok := nextV.(*runtime.Object)
		if !ok || nextFn.Call == nil {
			return nil, typeErr(realm, "iterator.next is not a function")
		}
		res, err := nextFn.Call(iter, nil)
		if err != nil {
			return nil, err
		}
		resObj, ok := res.(*runtime.Object)
		if !ok {
			return nil, typeErr(realm, "Iterator result is not an object")
		}
		doneV, _ := resObj.Get(runtime.StringKey("done"), resObj)
		if toBool(doneV) {
			return out, nil
		}
		val, _ := resObj.Get(runtime.StringKey("value"), resObj)
		out = append(out, val)
	}
}

func jsType(v runtime.Value) string {
	if v == nil {
		return "undefined"
	}
	return v.Type()
}

// newArrayIterator builds an iterator that yields elements in order, the
// shared shape Array/Map/Set/String all expose via Symbol.iterator (spec.md
// §4.6 "Iteration protocol"). Callers wanting entries()-style [k,v] pairs
// (Map/Set, Array.prototype.entries) pre-build the pair Objects and pass
// them as elements; the iterator itself is agnostic to what it yields.
func newArrayIterator(realm *runtime.Realm, elements []runtime.Value) *runtime.Object {
	i := 0
	iter := realm.NewPlainObject()
	iter.SetHidden(runtime.StringKey("next"), native(realm, "next", 0, func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		res := realm.NewPlainObject()
		if i >= len(elements) {
			res.SetData(runtime.StringKey("done"), runtime.Boolean(true))
			res.SetData(runtime.StringKey("value"), runtime.Undefined)
			return res, nil
		}
		res.SetData(runtime.StringKey("done"), runtime.Boolean(false))
		res.SetData(runtime.StringKey("value"), elements[i])
		i++
		return res, nil
	}))
	iter.SetHidden(runtime.SymbolKey(runtime.SymbolIterator), native(realm, "[Symbol.iterator]", 0, func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return iter, nil
	}))
	return iter
}
