package builtins

import (
	"strconv"
	"strings"

	"github.com/asynkron/jsengine/internal/runtime"
)

// installArray wires Array.prototype and the Array constructor (spec.md
// §4.6), grounded on the teacher's internal/interp/builtins/array.go
// (Length/Copy/IndexOf/Contains/Reverse/Sort/Add/Delete/Concat/Slice)
// generalized to the mutating/non-mutating split and callback-taking
// methods (map/filter/reduce/...) ES arrays add.
func installArray(realm *runtime.Realm) {
	proto := realm.Intrinsic("Array.prototype")
	proto.IsArrayExotic = false // the prototype itself is not an exotic array

	method(realm, proto, "push", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o := mustArray(realm, this)
		n := arrayLen(o)
		for i, v := range args {
			o.SetData(runtime.StringKey(strconv.Itoa(n+i)), v)
		}
		return runtime.Number(n + len(args)), nil
	})
	method(realm, proto, "pop", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		o := mustArray(realm, this)
		n := arrayLen(o)
		if n == 0 {
			return runtime.Undefined, nil
		}
		v, _ := o.Get(runtime.StringKey(strconv.Itoa(n-1)), o)
		o.DeleteOwn(runtime.StringKey(strconv.Itoa(n - 1)))
		o.SetArrayLength(uint32(n - 1))
		return v, nil
	})
	method(realm, proto, "shift", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		o := mustArray(realm, this)
		elems := arrayElements(o)
		if len(elems) == 0 {
			return runtime.Undefined, nil
		}
		rewriteArray(o, elems[1:])
		return elems[0], nil
	})
	method(realm, proto, "unshift", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o := mustArray(realm, this)
		elems := append(append([]runtime.Value{}, args...), arrayElements(o)...)
		rewriteArray(o, elems)
		return runtime.Number(len(elems)), nil
	})
	method(realm, proto, "slice", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		elems := arrayElements(mustArray(realm, this))
		start, end := sliceBounds(len(elems), arg(args, 0), arg(args, 1))
		return realm.NewArray(append([]runtime.Value{}, elems[start:end]...)), nil
	})
	method(realm, proto, "splice", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o := mustArray(realm, this)
		elems := arrayElements(o)
		n := len(elems)
		start := normalizeIndex(toInt(arg(args, 0)), n)
		deleteCount := n - start
		if len(args) > 1 {
			dc := toInt(args[1])
			if dc < 0 {
				dc = 0
			}
			if dc < deleteCount {
				deleteCount = dc
			}
		}
		removed := append([]runtime.Value{}, elems[start:start+deleteCount]...)
		var inserted []runtime.Value
		if len(args) > 2 {
			inserted = args[2:]
		}
		next := append([]runtime.Value{}, elems[:start]...)
		next = append(next, inserted...)
		next = append(next, elems[start+deleteCount:]...)
		rewriteArray(o, next)
		return realm.NewArray(removed), nil
	})
	method(realm, proto, "concat", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		out := arrayElements(mustArray(realm, this))
		for _, a := range args {
			if o, ok := a.(*runtime.Object); ok && o.IsArrayExotic {
				out = append(out, arrayElements(o)...)
				continue
			}
			out = append(out, a)
		}
		return realm.NewArray(out), nil
	})
	method(realm, proto, "join", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		sep := ","
		if arg(args, 0) != runtime.Undefined {
			sep = toStr(args[0])
		}
		elems := arrayElements(mustArray(realm, this))
		parts := make([]string, len(elems))
		for i, e := range elems {
			if e == runtime.Undefined || e == runtime.Null || e == nil {
				parts[i] = ""
				continue
			}
			parts[i] = toStr(e)
		}
		return runtime.String(strings.Join(parts, sep)), nil
	})
	method(realm, proto, "reverse", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		o := mustArray(realm, this)
		elems := arrayElements(o)
		for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
			elems[i], elems[j] = elems[j], elems[i]
		}
		rewriteArray(o, elems)
		return o, nil
	})
	method(realm, proto, "indexOf", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		elems := arrayElements(mustArray(realm, this))
		target := arg(args, 0)
		for i, e := range elems {
			if strictEquals(e, target) {
				return runtime.Number(i), nil
			}
		}
		return runtime.Number(-1), nil
	})
	method(realm, proto, "lastIndexOf", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		elems := arrayElements(mustArray(realm, this))
		target := arg(args, 0)
		for i := len(elems) - 1; i >= 0; i-- {
			if strictEquals(elems[i], target) {
				return runtime.Number(i), nil
			}
		}
		return runtime.Number(-1), nil
	})
	method(realm, proto, "includes", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		elems := arrayElements(mustArray(realm, this))
		target := arg(args, 0)
		for _, e := range elems {
			if sameValueZero(e, target) {
				return runtime.Boolean(true), nil
			}
		}
		return runtime.Boolean(false), nil
	})
	method(realm, proto, "flat", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		depth := 1
		if arg(args, 0) != runtime.Undefined {
			depth = toInt(args[0])
		}
		return realm.NewArray(flatten(arrayElements(mustArray(realm, this)), depth)), nil
	})
	method(realm, proto, "fill", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o := mustArray(realm, this)
		elems := arrayElements(o)
		start, end := sliceBounds(len(elems), arg(args, 1), arg(args, 2))
		v := arg(args, 0)
		for i := start; i < end; i++ {
			elems[i] = v
		}
		rewriteArray(o, elems)
		return o, nil
	})

	installArrayCallbackMethods(realm, proto)

	proto.SetHidden(runtime.SymbolKey(runtime.SymbolIterator), native(realm, "[Symbol.iterator]", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return newArrayIterator(realm, arrayElements(mustArray(realm, this))), nil
	}))
	method(realm, proto, "entries", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		elems := arrayElements(mustArray(realm, this))
		pairs := make([]runtime.Value, len(elems))
		for i, e := range elems {
			pairs[i] = realm.NewArray([]runtime.Value{runtime.Number(i), e})
		}
		return newArrayIterator(realm, pairs), nil
	})
	method(realm, proto, "keys", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		n := arrayLen(mustArray(realm, this))
		keys := make([]runtime.Value, n)
		for i := 0; i < n; i++ {
			keys[i] = runtime.Number(i)
		}
		return newArrayIterator(realm, keys), nil
	})
	method(realm, proto, "toString", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		elems := arrayElements(mustArray(realm, this))
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = toStr(e)
		}
		return runtime.String(strings.Join(parts, ",")), nil
	})

	ctor := native(realm, "Array", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return arrayConstruct(realm, args)
	})
	ctor.Construct = func(args []runtime.Value, _ *runtime.Object) (runtime.Value, error) {
		return arrayConstruct(realm, args)
	}
	ctor.SetHidden(runtime.StringKey("prototype"), proto)
	proto.SetHidden(runtime.StringKey("constructor"), ctor)

	method(realm, ctor, "isArray", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := arg(args, 0).(*runtime.Object)
		return runtime.Boolean(ok && o.IsArrayExotic), nil
	})
	method(realm, ctor, "of", 0, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return realm.NewArray(append([]runtime.Value{}, args...)), nil
	})
	method(realm, ctor, "from", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		src := arg(args, 0)
		var mapFn *runtime.Object
		if f, ok := arg(args, 1).(*runtime.Object); ok && f.Call != nil {
			mapFn = f
		}
		var elems []runtime.Value
		if o, ok := src.(*runtime.Object); ok && !o.HasOwn(runtime.SymbolKey(runtime.SymbolIterator)) && o.HasOwn(runtime.StringKey("length")) {
			elems = arrayElements(o)
		} else {
			vals, err := iteratorToSlice(realm, src)
			if err != nil {
				return nil, err
			}
			elems = vals
		}
		if mapFn != nil {
			for i, v := range elems {
				mapped, err := mapFn.Call(runtime.Undefined, []runtime.Value{v, runtime.Number(i)})
				if err != nil {
					return nil, err
				}
				elems[i] = mapped
			}
		}
		return realm.NewArray(elems), nil
	})

	realm.SetIntrinsic("Array", ctor)
	realm.GlobalObject.SetHidden(runtime.StringKey("Array"), ctor)
}

func installArrayCallbackMethods(realm *runtime.Realm, proto *runtime.Object) {
	call := func(fn runtime.Value, thisArg runtime.Value, fargs ...runtime.Value) (runtime.Value, error) {
		f, ok := fn.(*runtime.Object)
		if !ok || f.Call == nil {
			return nil, typeErr(realm, "callback is not a function")
		}
		return f.Call(thisArg, fargs)
	}

	method(realm, proto, "forEach", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		elems := arrayElements(mustArray(realm, this))
		for i, e := range elems {
			if _, err := call(arg(args, 0), arg(args, 1), e, runtime.Number(i), this); err != nil {
				return nil, err
			}
		}
		return runtime.Undefined, nil
	})
	method(realm, proto, "map", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		elems := arrayElements(mustArray(realm, this))
		out := make([]runtime.Value, len(elems))
		for i, e := range elems {
			v, err := call(arg(args, 0), arg(args, 1), e, runtime.Number(i), this)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return realm.NewArray(out), nil
	})
	method(realm, proto, "filter", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		elems := arrayElements(mustArray(realm, this))
		var out []runtime.Value
		for i, e := range elems {
			v, err := call(arg(args, 0), arg(args, 1), e, runtime.Number(i), this)
			if err != nil {
				return nil, err
			}
			if toBool(v) {
				out = append(out, e)
			}
		}
		return realm.NewArray(out), nil
	})
	method(realm, proto, "find", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		elems := arrayElements(mustArray(realm, this))
		for i, e := range elems {
			v, err := call(arg(args, 0), arg(args, 1), e, runtime.Number(i), this)
			if err != nil {
				return nil, err
			}
			if toBool(v) {
				return e, nil
			}
		}
		return runtime.Undefined, nil
	})
	method(realm, proto, "findIndex", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		elems := arrayElements(mustArray(realm, this))
		for i, e := range elems {
			v, err := call(arg(args, 0), arg(args, 1), e, runtime.Number(i), this)
			if err != nil {
				return nil, err
			}
			if toBool(v) {
				return runtime.Number(i), nil
			}
		}
		return runtime.Number(-1), nil
	})
	method(realm, proto, "some", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		elems := arrayElements(mustArray(realm, this))
		for i, e := range elems {
			v, err := call(arg(args, 0), arg(args, 1), e, runtime.Number(i), this)
			if err != nil {
				return nil, err
			}
			if toBool(v) {
				return runtime.Boolean(true), nil
			}
		}
		return runtime.Boolean(false), nil
	})
	method(realm, proto, "every", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		elems := arrayElements(mustArray(realm, this))
		for i, e := range elems {
			v, err := call(arg(args, 0), arg(args, 1), e, runtime.Number(i), this)
			if err != nil {
				return nil, err
			}
			if !toBool(v) {
				return runtime.Boolean(false), nil
			}
		}
		return runtime.Boolean(true), nil
	})
	method(realm, proto, "reduce", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		elems := arrayElements(mustArray(realm, this))
		i := 0
		var acc runtime.Value
		if len(args) > 1 {
			acc = args[1]
		} else {
			if len(elems) == 0 {
				return nil, typeErr(realm, "Reduce of empty array with no initial value")
			}
			acc = elems[0]
			i = 1
		}
		for ; i < len(elems); i++ {
			v, err := call(arg(args, 0), runtime.Undefined, acc, elems[i], runtime.Number(i), this)
			if err != nil {
				return nil, err
			}
			acc = v
		}
		return acc, nil
	})
	method(realm, proto, "reduceRight", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		elems := arrayElements(mustArray(realm, this))
		i := len(elems) - 1
		var acc runtime.Value
		if len(args) > 1 {
			acc = args[1]
		} else {
			if len(elems) == 0 {
				return nil, typeErr(realm, "Reduce of empty array with no initial value")
			}
			acc = elems[i]
			i--
		}
		for ; i >= 0; i-- {
			v, err := call(arg(args, 0), runtime.Undefined, acc, elems[i], runtime.Number(i), this)
			if err != nil {
				return nil, err
			}
			acc = v
		}
		return acc, nil
	})
	method(realm, proto, "sort", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o := mustArray(realm, this)
		elems := arrayElements(o)
		var sortErr error
		cmp, hasCmp := arg(args, 0).(*runtime.Object)
		sortStable(elems, func(a, b runtime.Value) bool {
			if sortErr != nil {
				return false
			}
			if hasCmp && cmp.Call != nil {
				v, err := cmp.Call(runtime.Undefined, []runtime.Value{a, b})
				if err != nil {
					sortErr = err
					return false
				}
				return toNumber(v) < 0
			}
			return toStr(a) < toStr(b)
		})
		if sortErr != nil {
			return nil, sortErr
		}
		rewriteArray(o, elems)
		return o, nil
	})
}

func mustArray(realm *runtime.Realm, v runtime.Value) *runtime.Object {
	o, ok := v.(*runtime.Object)
	if !ok {
		return realm.NewArray(nil)
	}
	return o
}

func rewriteArray(o *runtime.Object, elems []runtime.Value) {
	old := arrayLen(o)
	for i := len(elems); i < old; i++ {
		o.DeleteOwn(runtime.StringKey(strconv.Itoa(i)))
	}
	o.SetArrayLength(uint32(len(elems)))
	for i, v := range elems {
		o.SetData(runtime.StringKey(strconv.Itoa(i)), v)
	}
}

func arrayConstruct(realm *runtime.Realm, args []runtime.Value) (runtime.Value, error) {
	if len(args) == 1 {
		if n, ok := args[0].(runtime.Number); ok {
			ln := int(n)
			if float64(ln) != float64(n) || ln < 0 {
				return nil, rangeErr(realm, "Invalid array length")
			}
			arr := realm.NewArray(nil)
			arr.SetArrayLength(uint32(ln))
			return arr, nil
		}
	}
	return realm.NewArray(append([]runtime.Value{}, args...)), nil
}

func sliceBounds(n int, startV, endV runtime.Value) (int, int) {
	start := 0
	if startV != runtime.Undefined {
		start = normalizeIndex(toInt(startV), n)
	}
	end := n
	if endV != runtime.Undefined {
		end = normalizeIndex(toInt(endV), n)
	}
	if end < start {
		end = start
	}
	return start, end
}

func normalizeIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func flatten(elems []runtime.Value, depth int) []runtime.Value {
	if depth <= 0 {
		return elems
	}
	var out []runtime.Value
	for _, e := range elems {
		if o, ok := e.(*runtime.Object); ok && o.IsArrayExotic {
			out = append(out, flatten(arrayElements(o), depth-1)...)
			continue
		}
		out = append(out, e)
	}
	return out
}

// strictEquals/sameValueZero are small local re-implementations of the
// evaluator's === and Array.includes comparison semantics (the latter
// treats NaN as equal to itself, unlike ===), kept self-contained per
// convert.go's package doc.
func strictEquals(a, b runtime.Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type() != b.Type() {
		return false
	}
	if c, ok := a.(runtime.ComparableValue); ok {
		an, aIsNum := a.(runtime.Number)
		bn, bIsNum := b.(runtime.Number)
		if aIsNum && bIsNum && an != an && bn != bn {
			return false // NaN !== NaN
		}
		return c.Equals(b)
	}
	return a == b
}

func sameValueZero(a, b runtime.Value) bool {
	an, aok := a.(runtime.Number)
	bn, bok := b.(runtime.Number)
	if aok && bok {
		if an != an && bn != bn {
			return true
		}
		return an == bn
	}
	return strictEquals(a, b)
}
