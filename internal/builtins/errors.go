package builtins

import "github.com/asynkron/jsengine/internal/runtime"

// errorKinds are every Error-family constructor name the evaluator/
// internal/jserror can raise (spec.md §7's closed Kind taxonomy), plus two
// further ECMA-262 names (EvalError/URIError) that are installed even
// though the evaluator itself never throws them.
var errorKinds = []string{"Error", "TypeError", "RangeError", "ReferenceError", "SyntaxError", "EvalError", "URIError"}

// installErrors wires the Error family: a base Error.prototype/constructor
// plus one subclass constructor per kind, each with its own .prototype
// chained to Error.prototype and a `name` matching its constructor
// (spec.md §4.6, §4.7 ".stack").
func installErrors(realm *runtime.Realm) {
	baseProto := realm.Intrinsic("Error.prototype")
	baseProto.SetHidden(runtime.StringKey("name"), runtime.String("Error"))
	baseProto.SetHidden(runtime.StringKey("message"), runtime.String(""))
	method(realm, baseProto, "toString", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		o, ok := this.(*runtime.Object)
		if !ok {
			return runtime.String("Error"), nil
		}
		nameV, _ := o.Get(runtime.StringKey("name"), o)
		msgV, _ := o.Get(runtime.StringKey("message"), o)
		name := toStr(nameV)
		msg := toStr(msgV)
		if msg == "" {
			return runtime.String(name), nil
		}
		if name == "" {
			return runtime.String(msg), nil
		}
		return runtime.String(name + ": " + msg), nil
	})

	for _, kind := range errorKinds {
		kind := kind
		proto := baseProto
		if kind != "Error" {
			proto = realm.Intrinsic(kind + ".prototype")
			if proto == nil {
				proto = runtime.NewObject(baseProto)
				realm.SetIntrinsic(kind+".prototype", proto)
			} else {
				proto.Proto = baseProto
			}
			proto.SetHidden(runtime.StringKey("name"), runtime.String(kind))
			proto.SetHidden(runtime.StringKey("message"), runtime.String(""))
		}

		ctor := native(realm, kind, 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return newErrorInstance(realm, proto, kind, args), nil
		})
		ctor.Construct = func(args []runtime.Value, newTarget *runtime.Object) (runtime.Value, error) {
			p := proto
			if newTarget != nil {
				if pv, _ := newTarget.Get(runtime.StringKey("prototype"), newTarget); pv != runtime.Undefined {
					if po, ok := pv.(*runtime.Object); ok {
						p = po
					}
				}
			}
			return newErrorInstance(realm, p, kind, args), nil
		}
		ctor.SetHidden(runtime.StringKey("prototype"), proto)
		proto.SetHidden(runtime.StringKey("constructor"), ctor)
		if kind != "Error" {
			ctor.Proto = realm.Intrinsic("Error")
		}
		realm.SetIntrinsic(kind, ctor)
		realm.GlobalObject.SetHidden(runtime.StringKey(kind), ctor)
	}
}

func newErrorInstance(realm *runtime.Realm, proto *runtime.Object, kind string, args []runtime.Value) *runtime.Object {
	e := runtime.NewObject(proto)
	e.Class = "Error"
	if arg(args, 0) != runtime.Undefined {
		e.SetData(runtime.StringKey("message"), runtime.String(toStr(args[0])))
	}
	if opts, ok := arg(args, 1).(*runtime.Object); ok {
		if cause, _ := opts.Get(runtime.StringKey("cause"), opts); cause != runtime.Undefined {
			e.SetData(runtime.StringKey("cause"), cause)
		}
	}
	nameV, _ := e.Get(runtime.StringKey("name"), e)
	msgV, _ := e.Get(runtime.StringKey("message"), e)
	stack := toStr(nameV)
	if m := toStr(msgV); m != "" {
		stack += ": " + m
	}
	e.SetHidden(runtime.StringKey("stack"), runtime.String(stack))
	return e
}
