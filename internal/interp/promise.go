package interp

import "github.com/asynkron/jsengine/internal/runtime"

// newPendingPromise constructs a Promise via the Realm's "Promise" intrinsic
// constructor, capturing its executor's resolve/reject functions so Go code
// (runAsync's driver loop, dynamic import) can settle it later. internal/
// interp never touches Promise internals directly — only the public
// new Promise(executor) / .then contract — so internal/builtins stays free
// to own reaction scheduling on the microtask queue (SPEC_FULL.md §4.3).
func (it *Interpreter) newPendingPromise() (promise *runtime.Object, resolve, reject func(runtime.Value)) {
	ctor := it.Realm.Intrinsic("Promise")
	var resolveFn, rejectFn runtime.Value
	executor := it.nativeFunction("executor", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) > 0 {
			resolveFn = args[0]
		}
		if len(args) > 1 {
			rejectFn = args[1]
		}
		return runtime.Undefined, nil
	})
	if ctor == nil || ctor.Construct == nil {
		// No Promise intrinsic installed (e.g. evaluator unit tests run
		// without internal/builtins wired up yet): fall back to a bare
		// object carrying just enough shape for attachThen to drive.
		return it.bareDeferred()
	}
	v, err := ctor.Construct([]runtime.Value{executor}, ctor)
	if err != nil {
		return it.bareDeferred()
	}
	obj, _ := v.(*runtime.Object)
	resolve = func(val runtime.Value) {
		if fn, ok := resolveFn.(*runtime.Object); ok && fn.Call != nil {
			_, _ = fn.Call(runtime.Undefined, []runtime.Value{val})
		}
	}
	reject = func(val runtime.Value) {
		if fn, ok := rejectFn.(*runtime.Object); ok && fn.Call != nil {
			_, _ = fn.Call(runtime.Undefined, []runtime.Value{val})
		}
	}
	return obj, resolve, reject
}

// bareDeferred is the no-Promise-intrinsic fallback: a plain thenable object
// recording its own settlement so attachThen can still be driven without
// internal/builtins present.
func (it *Interpreter) bareDeferred() (*runtime.Object, func(runtime.Value), func(runtime.Value)) {
	obj := it.Realm.NewPlainObject()
	var settled bool
	var value runtime.Value
	var rejected bool
	var onFulfilled, onRejected []func(runtime.Value)

	settle := func(v runtime.Value, isReject bool) {
		if settled {
			return
		}
		settled, value, rejected = true, v, isReject
		cbs := onFulfilled
		if isReject {
			cbs = onRejected
		}
		for _, cb := range cbs {
			cb(v)
		}
	}
	obj.SetHidden(runtime.StringKey("then"), it.nativeFunction("then", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		var okFn, errFn func(runtime.Value)
		if len(args) > 0 {
			if f, ok := args[0].(*runtime.Object); ok && f.Call != nil {
				okFn = func(v runtime.Value) { _, _ = f.Call(runtime.Undefined, []runtime.Value{v}) }
			}
		}
		if len(args) > 1 {
			if f, ok := args[1].(*runtime.Object); ok && f.Call != nil {
				errFn = func(v runtime.Value) { _, _ = f.Call(runtime.Undefined, []runtime.Value{v}) }
			}
		}
		if settled {
			if rejected && errFn != nil {
				errFn(value)
			} else if !rejected && okFn != nil {
				okFn(value)
			}
			return runtime.Undefined, nil
		}
		if okFn != nil {
			onFulfilled = append(onFulfilled, okFn)
		}
		if errFn != nil {
			onRejected = append(onRejected, errFn)
		}
		return runtime.Undefined, nil
	}))
	return obj, func(v runtime.Value) { settle(v, false) }, func(v runtime.Value) { settle(v, true) }
}

// attachThen calls v.then(onFulfilled, onRejected) when v is thenable,
// otherwise invokes onFulfilled synchronously (Promise.resolve semantics
// for a plain value, spec.md §4.5 async/await).
func (it *Interpreter) attachThen(v runtime.Value, onFulfilled, onRejected func(runtime.Value)) {
	obj, ok := v.(*runtime.Object)
	if ok {
		thenV, err := obj.Get(runtime.StringKey("then"), obj)
		if err == nil {
			if thenFn, ok := thenV.(*runtime.Object); ok && thenFn.Call != nil {
				res := it.nativeFunction("onFulfilled", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
					var a runtime.Value = runtime.Undefined
					if len(args) > 0 {
						a = args[0]
					}
					onFulfilled(a)
					return runtime.Undefined, nil
				})
				rej := it.nativeFunction("onRejected", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
					var a runtime.Value = runtime.Undefined
					if len(args) > 0 {
						a = args[0]
					}
					onRejected(a)
					return runtime.Undefined, nil
				})
				_, _ = thenFn.Call(obj, []runtime.Value{res, rej})
				return
			}
		}
	}
	onFulfilled(v)
}

// newResolvedPromise wraps a value already in hand (e.g. a loaded module's
// namespace object) in a settled Promise, as dynamic `import()` requires.
func (it *Interpreter) newResolvedPromise(v runtime.Value) runtime.Value {
	promise, resolve, _ := it.newPendingPromise()
	resolve(v)
	return promise
}
