package builtins

import (
	"time"

	"github.com/asynkron/jsengine/internal/runtime"
)

// installTimers wires setTimeout/setInterval/clearTimeout/clearInterval
// (spec.md §5.4) onto the global object. opts.SetTimeout/SetInterval/
// ClearTimer are nil-safe: without an event loop behind them (e.g. a bare
// interp unit test), the globals still exist but scheduling a timer throws
// rather than silently doing nothing, since a script that calls
// setTimeout almost certainly depends on it actually firing.
func installTimers(realm *runtime.Realm, opts Options) {
	g := realm.GlobalObject

	arm := func(name string, repeat bool) *runtime.Object {
		return native(realm, name, 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			fn, ok := arg(args, 0).(*runtime.Object)
			if !ok || fn.Call == nil {
				return nil, typeErr(realm, "%s callback is not a function", name)
			}
			delay := time.Duration(toNumber(arg(args, 1))) * time.Millisecond
			if delay < 0 {
				delay = 0
			}
			extra := append([]runtime.Value{}, args[min(2, len(args)):]...)
			fire := func() {
				if _, err := fn.Call(runtime.Undefined, extra); err != nil {
					if v, ok := errToValue(err); ok {
						realm.Logger().WithField("timer", name).Error(inspectArgs([]runtime.Value{v}))
					} else {
						realm.Logger().WithField("timer", name).Error(err)
					}
				}
			}
			var id int
			switch {
			case repeat && opts.SetInterval != nil:
				id = opts.SetInterval(delay, fire)
			case !repeat && opts.SetTimeout != nil:
				id = opts.SetTimeout(delay, fire)
			default:
				return nil, typeErr(realm, "%s requires an event loop", name)
			}
			return runtime.Number(id), nil
		})
	}

	g.SetHidden(runtime.StringKey("setTimeout"), arm("setTimeout", false))
	g.SetHidden(runtime.StringKey("setInterval"), arm("setInterval", true))

	clear := native(realm, "clearTimer", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if opts.ClearTimer != nil {
			opts.ClearTimer(toInt(arg(args, 0)))
		}
		return runtime.Undefined, nil
	})
	g.SetHidden(runtime.StringKey("clearTimeout"), clear)
	g.SetHidden(runtime.StringKey("clearInterval"), clear)

	g.SetHidden(runtime.StringKey("queueMicrotask"), native(realm, "queueMicrotask", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		fn, ok := arg(args, 0).(*runtime.Object)
		if !ok || fn.Call == nil {
			return nil, typeErr(realm, "queueMicrotask callback is not a function")
		}
		schedule := opts.Schedule
		if schedule == nil {
			schedule = func(f func()) { f() }
		}
		schedule(func() {
			if _, err := fn.Call(runtime.Undefined, nil); err != nil {
				realm.Logger().WithField("timer", "queueMicrotask").Error(err)
			}
		})
		return runtime.Undefined, nil
	}))
}
