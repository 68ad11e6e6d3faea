package interp

import (
	"github.com/asynkron/jsengine/internal/ast"
	"github.com/asynkron/jsengine/internal/runtime"
)

// GetIterator performs `v[@@iterator]()` (or `[@@asyncIterator]()` when
// async is true, falling back to the sync iterator itself, unwrapped;
// execForAwaitOf awaits each value it produces, spec.md §4.5 "for
// await...of").
func (it *Interpreter) GetIterator(v runtime.Value, async bool) (*runtime.Object, error) {
	o, ok := v.(*runtime.Object)
	if ok {
		sym := runtime.SymbolIterator
		if async {
			sym = runtime.SymbolAsyncIterator
		}
		fn, err := o.Get(runtime.SymbolKey(sym), o)
		if err != nil {
			return nil, err
		}
		if fnObj, ok := fn.(*runtime.Object); ok && fnObj.Call != nil {
			res, err := fnObj.Call(o, nil)
			if err != nil {
				return nil, err
			}
			iter, ok := res.(*runtime.Object)
			if !ok {
				return nil, it.typeErr("Result of the Symbol.iterator method is not an object")
			}
			return iter, nil
		}
		if async {
			return it.GetIterator(v, false)
		}
	}
	if s, ok := v.(runtime.String); ok {
		return it.newStringIterator(string(s)), nil
	}
	return nil, it.typeErr(jsTypeOf(v) + " is not iterable")
}

// IteratorStep calls iterator.next(), returning (value, done, error).
func (it *Interpreter) IteratorStep(iter *runtime.Object) (runtime.Value, bool, error) {
	nextFn, err := iter.Get(runtime.StringKey("next"), iter)
	if err != nil {
		return nil, false, err
	}
	fn, ok := nextFn.(*runtime.Object)
	if !ok || fn.Call == nil {
		return nil, false, it.typeErr("iterator.next is not a function")
	}
	res, err := fn.Call(iter, nil)
	if err != nil {
		return nil, false, err
	}
	resObj, ok := res.(*runtime.Object)
	if !ok {
		return nil, false, it.typeErr("Iterator result is not an object")
	}
	doneV, err := resObj.Get(runtime.StringKey("done"), resObj)
	if err != nil {
		return nil, false, err
	}
	valV, err := resObj.Get(runtime.StringKey("value"), resObj)
	if err != nil {
		return nil, false, err
	}
	return valV, it.ToBoolean(doneV), nil
}

// IteratorClose invokes iterator.return() if present, for early-exit
// closure (spec.md §4.5 "Iteration protocol").
func (it *Interpreter) IteratorClose(iter *runtime.Object) {
	retFn, err := iter.Get(runtime.StringKey("return"), iter)
	if err != nil {
		return
	}
	fn, ok := retFn.(*runtime.Object)
	if !ok || fn.Call == nil {
		return
	}
	_, _ = fn.Call(iter, nil)
}

func (it *Interpreter) iterableToSlice(ec *EvalContext, expr ast.Expression) ([]runtime.Value, error) {
	v, err := it.Eval(ec, expr)
	if err != nil {
		return nil, err
	}
	iter, err := it.GetIterator(v, false)
	if err != nil {
		return nil, err
	}
	var out []runtime.Value
	for {
		val, done, err := it.IteratorStep(iter)
		if err != nil {
			return nil, err
		}
		if done {
			return out, nil
		}
		out = append(out, val)
	}
}

// newStringIterator builds an iterator object yielding full Unicode code
// points one at a time (spec.md §8 scenario 2: "string iteration yields
// full code points").
func (it *Interpreter) newStringIterator(s string) *runtime.Object {
	runes := []rune(s)
	i := 0
	iter := it.Realm.NewPlainObject()
	iter.SetHidden(runtime.StringKey("next"), it.nativeFunction("next", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		result := it.Realm.NewPlainObject()
		if i >= len(runes) {
			result.SetData(runtime.StringKey("done"), runtime.Boolean(true))
			result.SetData(runtime.StringKey("value"), runtime.Undefined)
			return result, nil
		}
		result.SetData(runtime.StringKey("done"), runtime.Boolean(false))
		result.SetData(runtime.StringKey("value"), runtime.String(string(runes[i])))
		i++
		return result, nil
	}))
	iter.SetHidden(runtime.SymbolKey(runtime.SymbolIterator), it.nativeFunction("[Symbol.iterator]", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return iter, nil
	}))
	return iter
}

// nativeFunction wraps a Go closure as a callable Object, the same shape
// internal/builtins uses for every intrinsic method.
func (it *Interpreter) nativeFunction(name string, fn func(this runtime.Value, args []runtime.Value) (runtime.Value, error)) *runtime.Object {
	o := runtime.NewObject(it.Realm.Intrinsic("Function.prototype"))
	o.Class = "Function"
	o.Call = fn
	o.SetHidden(runtime.StringKey("name"), runtime.String(name))
	return o
}

// execForInOf implements both `for (x in obj)` (enumerable-key walk over
// the prototype chain) and `for (x of obj)` / `for await (x of obj)`
// (iterator protocol, closing the iterator on early exit).
func (it *Interpreter) execForInOf(ec *EvalContext, s *ast.ForInStatement, label string) (Completion, error) {
	rightVal, err := it.Eval(ec, s.Right)
	if err != nil {
		return it.asThrow(err)
	}

	assign := func(loopEC *EvalContext, v runtime.Value) error {
		switch left := s.Left.(type) {
		case *ast.VariableDeclaration:
			d := left.Declarations[0]
			if left.Kind != ast.Var {
				collectPatternNames(d.Target, func(n string) { loopEC.Env.DefineLexical(n, left.Kind == ast.Const) })
			}
			return it.bindPattern(loopEC, d.Target, v, left.Kind != ast.Var)
		default:
			target, ok := left.(ast.Expression)
			if !ok {
				return it.typeErr("invalid for-in/of target")
			}
			return it.assignTo(loopEC, target, v)
		}
	}

	runBody := func(v runtime.Value) (Completion, error) {
		loopEC := ec.Child(runtime.NewEnclosedEnvironment(ec.Env))
		if err := assign(loopEC, v); err != nil {
			return it.asThrow(err)
		}
		return it.ExecStatement(loopEC, s.Body)
	}

	if s.IsOf {
		if s.IsAwait {
			return it.execForAwaitOf(ec, s, rightVal, runBody, label)
		}
		iter, err := it.GetIterator(rightVal, false)
		if err != nil {
			return it.asThrow(err)
		}
		for {
			val, done, err := it.IteratorStep(iter)
			if err != nil {
				return it.asThrow(err)
			}
			if done {
				return NormalCompletion, nil
			}
			comp, err := runBody(val)
			if err != nil {
				it.IteratorClose(iter)
				return Completion{}, err
			}
			switch comp.Type {
			case Break:
				it.IteratorClose(iter)
				if matchesLabel(comp, label) {
					return NormalCompletion, nil
				}
				return comp, nil
			case Continue:
				if !matchesLabel(comp, label) {
					it.IteratorClose(iter)
					return comp, nil
				}
			case Return, Throw:
				it.IteratorClose(iter)
				return comp, nil
			}
		}
	}

	// for-in: walk own+inherited enumerable string keys, de-duplicating by
	// name as we walk up the prototype chain.
	o, ok := rightVal.(*runtime.Object)
	if !ok {
		return NormalCompletion, nil
	}
	seen := map[string]bool{}
	for cur := o; cur != nil; cur = cur.Proto {
		for _, k := range cur.OwnKeys() {
			if k.IsSymbol() || seen[k.String()] {
				continue
			}
			seen[k.String()] = true
			p := cur.GetOwnProperty(k)
			if p == nil || !p.Enumerable {
				continue
			}
			comp, err := runBody(runtime.String(k.String()))
			if err != nil {
				return Completion{}, err
			}
			switch comp.Type {
			case Break:
				if matchesLabel(comp, label) {
					return NormalCompletion, nil
				}
				return comp, nil
			case Continue:
				if !matchesLabel(comp, label) {
					return comp, nil
				}
			case Return, Throw:
				return comp, nil
			}
		}
	}
	return NormalCompletion, nil
}

func (it *Interpreter) execForAwaitOf(ec *EvalContext, s *ast.ForInStatement, rightVal runtime.Value, runBody func(runtime.Value) (Completion, error), label string) (Completion, error) {
	iter, err := it.GetIterator(rightVal, true)
	if err != nil {
		return it.asThrow(err)
	}
	for {
		val, done, err := it.IteratorStep(iter)
		if err != nil {
			return it.asThrow(err)
		}
		awaited, err := it.suspendAwait(ec, val)
		if err != nil {
			it.IteratorClose(iter)
			return it.asThrow(err)
		}
		if done {
			return NormalCompletion, nil
		}
		comp, err := runBody(awaited)
		if err != nil {
			it.IteratorClose(iter)
			return Completion{}, err
		}
		switch comp.Type {
		case Break:
			it.IteratorClose(iter)
			if matchesLabel(comp, label) {
				return NormalCompletion, nil
			}
			return comp, nil
		case Continue:
			if !matchesLabel(comp, label) {
				it.IteratorClose(iter)
				return comp, nil
			}
		case Return, Throw:
			it.IteratorClose(iter)
			return comp, nil
		}
	}
}
