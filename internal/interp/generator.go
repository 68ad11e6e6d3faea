package interp

import (
	"github.com/asynkron/jsengine/internal/ast"
	"github.com/asynkron/jsengine/internal/runtime"
)

// Generators and async functions are implemented with a goroutine per
// invocation plus a pair of unbuffered channels forming a baton handoff:
// at any instant exactly one side (the driver or the body goroutine) is
// running, preserving JavaScript's single-threaded illusion even though
// the body executes on its own Go stack. This replaces the CPS/state-
// machine AST lowering spec.md §4.3 describes with Go's native coroutine
// primitive, goroutines+channels, which is the idiomatic way to express
// suspend/resume control flow in Go.
type generatorState struct {
	resumeCh chan resumeMsg
	yieldCh  chan yieldMsg
	done     bool
}

type resumeMsg struct {
	value    runtime.Value
	throwVal runtime.Value
	isThrow  bool
}

type yieldMsg struct {
	value     runtime.Value
	done      bool
	hasThrown bool
	thrown    runtime.Value
}

// forceReturnSignal is raised by generator.return(v): it unwinds the
// generator body exactly like any other Go-level error (running enclosing
// `finally` blocks along the way, per execTry's generic-error path) but is
// recognized by startGenerator's goroutine as "treat this as Return(v)"
// rather than an uncaught host failure.
type forceReturnSignal struct{ value runtime.Value }

func (f *forceReturnSignal) Error() string { return "generator forced return" }

// startGenerator builds the JS-visible generator object returned by calling
// a `function*`: an iterator (and iterable, via Symbol.iterator returning
// itself) whose next/return/throw drive the suspended body goroutine.
func (it *Interpreter) startGenerator(fnObj *runtime.Object, uf *userFunction, defEC *EvalContext, this runtime.Value, args []runtime.Value) runtime.Value {
	callEC, err := it.enterFunctionFrame(uf, defEC, this, args, nil)
	gen := &generatorState{resumeCh: make(chan resumeMsg), yieldCh: make(chan yieldMsg)}
	if err != nil {
		gen.done = true
	} else {
		callEC.gen = gen
		go func() {
			<-gen.resumeCh
			comp, berr := it.evalFunctionBody(callEC, uf)
			if fr, ok := berr.(*forceReturnSignal); ok {
				gen.yieldCh <- yieldMsg{value: fr.value, done: true}
				return
			}
			if berr != nil {
				gen.yieldCh <- yieldMsg{done: true, hasThrown: true, thrown: it.Realm.NewError("Error", berr.Error())}
				return
			}
			switch comp.Type {
			case Return:
				gen.yieldCh <- yieldMsg{value: comp.Value, done: true}
			case Throw:
				gen.yieldCh <- yieldMsg{done: true, hasThrown: true, thrown: comp.Value}
			default:
				gen.yieldCh <- yieldMsg{value: runtime.Undefined, done: true}
			}
		}()
	}

	genObj := it.Realm.NewPlainObject()
	step := func(msg resumeMsg) (runtime.Value, error) {
		if gen.done {
			return it.iterResult(runtime.Undefined, true), nil
		}
		gen.resumeCh <- msg
		out := <-gen.yieldCh
		if out.done {
			gen.done = true
		}
		if out.hasThrown {
			return Throw(out.thrown)
		}
		return it.iterResult(out.value, out.done), nil
	}
	genObj.SetHidden(runtime.StringKey("next"), it.nativeFunction("next", func(_ runtime.Value, a []runtime.Value) (runtime.Value, error) {
		var v runtime.Value = runtime.Undefined
		if len(a) > 0 {
			v = a[0]
		}
		return step(resumeMsg{value: v})
	}))
	genObj.SetHidden(runtime.StringKey("return"), it.nativeFunction("return", func(_ runtime.Value, a []runtime.Value) (runtime.Value, error) {
		var v runtime.Value = runtime.Undefined
		if len(a) > 0 {
			v = a[0]
		}
		if gen.done {
			return it.iterResult(v, true), nil
		}
		gen.done = true
		return it.iterResult(v, true), nil
	}))
	genObj.SetHidden(runtime.StringKey("throw"), it.nativeFunction("throw", func(_ runtime.Value, a []runtime.Value) (runtime.Value, error) {
		var v runtime.Value = runtime.Undefined
		if len(a) > 0 {
			v = a[0]
		}
		if gen.done {
			return Throw(v)
		}
		return step(resumeMsg{isThrow: true, throwVal: v})
	}))
	genObj.SetHidden(runtime.SymbolKey(runtime.SymbolIterator), it.nativeFunction("[Symbol.iterator]", func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return genObj, nil
	}))
	return genObj
}

func (it *Interpreter) iterResult(v runtime.Value, done bool) *runtime.Object {
	r := it.Realm.NewPlainObject()
	r.SetData(runtime.StringKey("value"), v)
	r.SetData(runtime.StringKey("done"), runtime.Boolean(done))
	return r
}

// runAsync drives an `async function` body to completion, returning the
// Promise it must synchronously produce (spec.md §5.2). Suspension at each
// `await` is implemented via the same resumeCh/yieldCh handoff as
// generators; resumption is scheduled through the awaited value's own
// `.then`, so ordering matches the real event loop's microtask queue
// (internal/eventloop) rather than this goroutine blocking it.
func (it *Interpreter) runAsync(ec *EvalContext, uf *userFunction) runtime.Value {
	promise, resolve, reject := it.newPendingPromise()
	gen := &generatorState{resumeCh: make(chan resumeMsg), yieldCh: make(chan yieldMsg)}
	ec.gen = gen

	go func() {
		<-gen.resumeCh
		comp, err := it.evalFunctionBody(ec, uf)
		if err != nil {
			gen.yieldCh <- yieldMsg{done: true, hasThrown: true, thrown: it.Realm.NewError("Error", err.Error())}
			return
		}
		switch comp.Type {
		case Return:
			gen.yieldCh <- yieldMsg{value: comp.Value, done: true}
		case Throw:
			gen.yieldCh <- yieldMsg{done: true, hasThrown: true, thrown: comp.Value}
		default:
			gen.yieldCh <- yieldMsg{value: runtime.Undefined, done: true}
		}
	}()

	var pump func(yieldMsg)
	pump = func(msg yieldMsg) {
		if msg.done {
			if msg.hasThrown {
				reject(msg.thrown)
			} else {
				resolve(msg.value)
			}
			return
		}
		it.attachThen(msg.value,
			func(v runtime.Value) { gen.resumeCh <- resumeMsg{value: v}; pump(<-gen.yieldCh) },
			func(v runtime.Value) { gen.resumeCh <- resumeMsg{isThrow: true, throwVal: v}; pump(<-gen.yieldCh) },
		)
	}

	gen.resumeCh <- resumeMsg{}
	pump(<-gen.yieldCh)
	return promise
}

// suspendAwait is the shared implementation of `await` (expressions.go) and
// `for await...of` (iteration.go): both need to yield control to whatever
// is driving this EvalContext's generatorState and resume with either a
// value or an injected exception.
func (it *Interpreter) suspendAwait(ec *EvalContext, v runtime.Value) (runtime.Value, error) {
	if ec.gen == nil {
		return nil, it.typeErr("'await' is only valid inside an async function")
	}
	ec.gen.yieldCh <- yieldMsg{value: v, done: false}
	msg := <-ec.gen.resumeCh
	if msg.isThrow {
		return Throw(msg.throwVal)
	}
	return msg.value, nil
}

func (it *Interpreter) evalAwait(ec *EvalContext, e *ast.AwaitExpression) (runtime.Value, error) {
	v, err := it.Eval(ec, e.Argument)
	if err != nil {
		return nil, err
	}
	return it.suspendAwait(ec, v)
}

func (it *Interpreter) evalYield(ec *EvalContext, e *ast.YieldExpression) (runtime.Value, error) {
	if ec.gen == nil {
		return nil, it.typeErr("'yield' is only valid inside a generator function")
	}
	var v runtime.Value = runtime.Undefined
	if e.Argument != nil {
		val, err := it.Eval(ec, e.Argument)
		if err != nil {
			return nil, err
		}
		v = val
	}
	if e.Delegate {
		return it.yieldDelegate(ec, v)
	}
	ec.gen.yieldCh <- yieldMsg{value: v, done: false}
	msg := <-ec.gen.resumeCh
	if msg.isThrow {
		return Throw(msg.throwVal)
	}
	return msg.value, nil
}

// yieldDelegate implements `yield*`: pump the inner iterable's iterator,
// forwarding each of its values out through this generator and each
// resumption value back into the inner iterator's next().
func (it *Interpreter) yieldDelegate(ec *EvalContext, iterable runtime.Value) (runtime.Value, error) {
	iter, err := it.GetIterator(iterable, false)
	if err != nil {
		return nil, err
	}
	var sent runtime.Value = runtime.Undefined
	for {
		next, err := iter.Get(runtime.StringKey("next"), iter)
		if err != nil {
			return nil, err
		}
		nextFn, ok := next.(*runtime.Object)
		if !ok || nextFn.Call == nil {
			return nil, it.typeErr("inner iterator has no next method")
		}
		res, err := nextFn.Call(iter, []runtime.Value{sent})
		if err != nil {
			return nil, err
		}
		resObj, ok := res.(*runtime.Object)
		if !ok {
			return nil, it.typeErr("iterator result is not an object")
		}
		doneV, _ := resObj.Get(runtime.StringKey("done"), resObj)
		val, _ := resObj.Get(runtime.StringKey("value"), resObj)
		if it.ToBoolean(doneV) {
			return val, nil
		}
		ec.gen.yieldCh <- yieldMsg{value: val, done: false}
		msg := <-ec.gen.resumeCh
		if msg.isThrow {
			return Throw(msg.throwVal)
		}
		sent = msg.value
	}
}
