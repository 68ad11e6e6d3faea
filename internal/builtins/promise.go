package builtins

import (
	"time"

	"github.com/asynkron/jsengine/internal/interp"
	"github.com/asynkron/jsengine/internal/runtime"
)

// promiseState is the Internal payload of a Promise instance: its settled
// state plus the reaction queues ECMA-262 calls [[PromiseFulfillReactions]]
// /[[PromiseRejectReactions]] (spec.md §5 "Promises").
type promiseState struct {
	status    string // "pending" | "fulfilled" | "rejected"
	value     runtime.Value
	onFulfill []func(runtime.Value)
	onReject  []func(runtime.Value)
	handled   bool
}

// Options configures installPromise's and installTimers' link to the host
// event loop without builtins importing internal/eventloop directly:
// Schedule enqueues a microtask/macrotask on the loop's single FIFO
// (spec.md §5.2), UnhandledRejection (optional) is invoked once per promise
// that settles rejected with no handler attached before the microtask
// checkpoint ends, and SetTimeout/SetInterval/ClearTimer (optional) back
// the setTimeout/setInterval/clearTimeout/clearInterval globals (spec.md
// §5.4). A zero Options runs Promise reactions synchronously; the timer
// globals are still installed but throw a TypeError when called. That is
// the shape internal/interp's own unit tests construct a Realm with.
type Options struct {
	Schedule           func(func())
	UnhandledRejection func(value runtime.Value)

	SetTimeout  func(delay time.Duration, fn func()) int
	SetInterval func(delay time.Duration, fn func()) int
	ClearTimer  func(id int)

	// Debug backs the `__debug` global (debug.go): a host hook for capturing
	// a diagnostic message from running script without going through
	// console (spec.md §5.6 "Debug messages captured by the `__debug` host
	// function"). nil means `__debug` is a no-op.
	Debug func(message string, fields map[string]interface{})
}

// installPromise wires the Promise constructor/prototype (resolve/reject/
// then/catch/finally/all/race/allSettled/any), grounded on how the teacher's
// generator-based suspension already expects a Promise intrinsic
// (internal/interp/promise.go's bareDeferred fallback) — this Install call
// is what finally makes that fallback path dead code in a fully-wired Realm.
func installPromise(realm *runtime.Realm, opts Options) {
	if opts.Schedule == nil {
		opts.Schedule = func(f func()) { f() }
	}
	proto := realm.Intrinsic("Promise.prototype")

	newPromise := func() *runtime.Object {
		o := runtime.NewObject(proto)
		o.Class = "Promise"
		o.Internal = &promiseState{status: "pending"}
		return o
	}

	var settle func(o *runtime.Object, status string, v runtime.Value)
	settle = func(o *runtime.Object, status string, v runtime.Value) {
		st := o.Internal.(*promiseState)
		if st.status != "pending" {
			return
		}
		if status == "fulfilled" {
			if inner, ok := v.(*runtime.Object); ok {
				if innerSt, ok := inner.Internal.(*promiseState); ok {
					addReactions(innerSt, opts, func(iv runtime.Value) { settle(o, "fulfilled", iv) }, func(iv runtime.Value) { settle(o, "rejected", iv) })
					return
				}
				if thenV, _ := inner.Get(runtime.StringKey("then"), inner); thenV != runtime.Undefined {
					if thenFn, ok := thenV.(*runtime.Object); ok && thenFn.Call != nil {
						resFn := native(realm, "", 1, func(_ runtime.Value, a []runtime.Value) (runtime.Value, error) {
							settle(o, "fulfilled", arg(a, 0))
							return runtime.Undefined, nil
						})
						rejFn := native(realm, "", 1, func(_ runtime.Value, a []runtime.Value) (runtime.Value, error) {
							settle(o, "rejected", arg(a, 0))
							return runtime.Undefined, nil
						})
						opts.Schedule(func() { thenFn.Call(inner, []runtime.Value{resFn, rejFn}) })
						return
					}
				}
			}
		}
		st.status = status
		st.value = v
		fns := st.onFulfill
		if status == "rejected" {
			fns = st.onReject
		}
		st.onFulfill, st.onReject = nil, nil
		if status == "rejected" && len(fns) == 0 && opts.UnhandledRejection != nil {
			opts.Schedule(func() {
				if !st.handled {
					opts.UnhandledRejection(v)
				}
			})
		}
		for _, f := range fns {
			f := f
			opts.Schedule(func() { f(v) })
		}
	}

	ctor := native(realm, "Promise", 1, func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return nil, typeErr(realm, "Constructor Promise requires 'new'")
	})
	ctor.Construct = func(args []runtime.Value, _ *runtime.Object) (runtime.Value, error) {
		executor, ok := arg(args, 0).(*runtime.Object)
		if !ok || executor.Call == nil {
			return nil, typeErr(realm, "Promise resolver is not a function")
		}
		p := newPromise()
		resolveFn := native(realm, "", 1, func(_ runtime.Value, a []runtime.Value) (runtime.Value, error) {
			settle(p, "fulfilled", arg(a, 0))
			return runtime.Undefined, nil
		})
		rejectFn := native(realm, "", 1, func(_ runtime.Value, a []runtime.Value) (runtime.Value, error) {
			settle(p, "rejected", arg(a, 0))
			return runtime.Undefined, nil
		})
		if _, err := executor.Call(runtime.Undefined, []runtime.Value{resolveFn, rejectFn}); err != nil {
			if v, ok := errToValue(err); ok {
				settle(p, "rejected", v)
			} else {
				return nil, err
			}
		}
		return p, nil
	}
	ctor.SetHidden(runtime.StringKey("prototype"), proto)
	proto.SetHidden(runtime.StringKey("constructor"), ctor)

	method(realm, ctor, "resolve", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		v := arg(args, 0)
		if o, ok := v.(*runtime.Object); ok {
			if _, ok := o.Internal.(*promiseState); ok {
				return o, nil
			}
		}
		p := newPromise()
		settle(p, "fulfilled", v)
		return p, nil
	})
	method(realm, ctor, "reject", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		p := newPromise()
		settle(p, "rejected", arg(args, 0))
		return p, nil
	})
	method(realm, ctor, "all", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		items, err := iteratorToSlice(realm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		p := newPromise()
		results := make([]runtime.Value, len(items))
		remaining := len(items)
		if remaining == 0 {
			settle(p, "fulfilled", realm.NewArray(nil))
			return p, nil
		}
		for i, item := range items {
			i := i
			onFulfilled(realm, item, func(v runtime.Value) {
				results[i] = v
				remaining--
				if remaining == 0 {
					settle(p, "fulfilled", realm.NewArray(results))
				}
			}, func(v runtime.Value) { settle(p, "rejected", v) })
		}
		return p, nil
	})
	method(realm, ctor, "allSettled", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		items, err := iteratorToSlice(realm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		p := newPromise()
		results := make([]runtime.Value, len(items))
		remaining := len(items)
		if remaining == 0 {
			settle(p, "fulfilled", realm.NewArray(nil))
			return p, nil
		}
		for i, item := range items {
			i := i
			onFulfilled(realm, item, func(v runtime.Value) {
				r := realm.NewPlainObject()
				r.SetData(runtime.StringKey("status"), runtime.String("fulfilled"))
				r.SetData(runtime.StringKey("value"), v)
				results[i] = r
				remaining--
				if remaining == 0 {
					settle(p, "fulfilled", realm.NewArray(results))
				}
			}, func(v runtime.Value) {
				r := realm.NewPlainObject()
				r.SetData(runtime.StringKey("status"), runtime.String("rejected"))
				r.SetData(runtime.StringKey("reason"), v)
				results[i] = r
				remaining--
				if remaining == 0 {
					settle(p, "fulfilled", realm.NewArray(results))
				}
			})
		}
		return p, nil
	})
	method(realm, ctor, "race", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		items, err := iteratorToSlice(realm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		p := newPromise()
		for _, item := range items {
			onFulfilled(realm, item, func(v runtime.Value) { settle(p, "fulfilled", v) }, func(v runtime.Value) { settle(p, "rejected", v) })
		}
		return p, nil
	})
	method(realm, ctor, "any", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		items, err := iteratorToSlice(realm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		p := newPromise()
		errs := make([]runtime.Value, len(items))
		remaining := len(items)
		if remaining == 0 {
			settle(p, "rejected", newError(realm, "AggregateError", "All promises were rejected"))
			return p, nil
		}
		for i, item := range items {
			i := i
			onFulfilled(realm, item, func(v runtime.Value) { settle(p, "fulfilled", v) }, func(v runtime.Value) {
				errs[i] = v
				remaining--
				if remaining == 0 {
					settle(p, "rejected", newError(realm, "AggregateError", "All promises were rejected"))
				}
			})
		}
		return p, nil
	})

	method(realm, proto, "then", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		self, ok := this.(*runtime.Object)
		if !ok {
			return nil, typeErr(realm, "Promise.prototype.then called on non-Promise")
		}
		st, ok := self.Internal.(*promiseState)
		if !ok {
			return nil, typeErr(realm, "Promise.prototype.then called on non-Promise")
		}
		st.handled = true
		onF, _ := arg(args, 0).(*runtime.Object)
		onR, _ := arg(args, 1).(*runtime.Object)
		out := newPromise()
		fulfill := func(v runtime.Value) {
			if onF != nil && onF.Call != nil {
				r, err := onF.Call(runtime.Undefined, []runtime.Value{v})
				if err != nil {
					if ev, ok := errToValue(err); ok {
						settle(out, "rejected", ev)
					}
					return
				}
				settle(out, "fulfilled", r)
				return
			}
			settle(out, "fulfilled", v)
		}
		reject := func(v runtime.Value) {
			if onR != nil && onR.Call != nil {
				r, err := onR.Call(runtime.Undefined, []runtime.Value{v})
				if err != nil {
					if ev, ok := errToValue(err); ok {
						settle(out, "rejected", ev)
					}
					return
				}
				settle(out, "fulfilled", r)
				return
			}
			settle(out, "rejected", v)
		}
		addReactions(st, opts, fulfill, reject)
		return out, nil
	})
	method(realm, proto, "catch", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		thenV, _ := proto.Get(runtime.StringKey("then"), proto)
		thenFn := thenV.(*runtime.Object)
		return thenFn.Call(this, []runtime.Value{runtime.Undefined, arg(args, 0)})
	})
	method(realm, proto, "finally", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		fn, _ := arg(args, 0).(*runtime.Object)
		runFinalizer := func() {
			if fn != nil && fn.Call != nil {
				fn.Call(runtime.Undefined, nil)
			}
		}
		passThrough := native(realm, "", 1, func(_ runtime.Value, a []runtime.Value) (runtime.Value, error) {
			runFinalizer()
			return arg(a, 0), nil
		})
		rethrow := native(realm, "", 1, func(_ runtime.Value, a []runtime.Value) (runtime.Value, error) {
			runFinalizer()
			return Throw(arg(a, 0))
		})
		thenV, _ := proto.Get(runtime.StringKey("then"), proto)
		thenFn := thenV.(*runtime.Object)
		return thenFn.Call(this, []runtime.Value{passThrough, rethrow})
	})

	realm.SetIntrinsic("Promise", ctor)
	realm.GlobalObject.SetHidden(runtime.StringKey("Promise"), ctor)
}

func addReactions(st *promiseState, opts Options, onF, onR func(runtime.Value)) {
	switch st.status {
	case "pending":
		st.onFulfill = append(st.onFulfill, onF)
		st.onReject = append(st.onReject, onR)
	case "fulfilled":
		opts.Schedule(func() { onF(st.value) })
	case "rejected":
		st.handled = true
		opts.Schedule(func() { onR(st.value) })
	}
}

func onFulfilled(realm *runtime.Realm, v runtime.Value, onF, onR func(runtime.Value)) {
	o, ok := v.(*runtime.Object)
	if !ok {
		onF(v)
		return
	}
	st, ok := o.Internal.(*promiseState)
	if !ok {
		onF(v)
		return
	}
	addReactions(st, Options{Schedule: func(f func()) { f() }}, onF, onR)
}

// errToValue recovers the thrown JS value from a native function's Go error
// return via internal/interp's own *ThrownError, so a throwing executor/
// reaction rejects the promise with the right value instead of propagating
// a bare Go error out of the engine. Reuses the same boxing convert.go's
// jsErr does rather than inventing a second one.
func errToValue(err error) (runtime.Value, bool) {
	if te, ok := err.(*interp.ThrownError); ok {
		return te.Value, true
	}
	return nil, false
}

// Throw re-exposes interp.Throw so Promise reactions that need to propagate
// a rejection as a Go error (finally's passthrough) use the one boxing
// convention the rest of builtins does.
func Throw(v runtime.Value) (runtime.Value, error) {
	return interp.Throw(v)
}
