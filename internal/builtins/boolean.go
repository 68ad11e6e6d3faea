package builtins

import "github.com/asynkron/jsengine/internal/runtime"

// installBoolean wires Boolean.prototype and the Boolean constructor, the
// smallest of the primitive wrapper types (spec.md §4.6).
func installBoolean(realm *runtime.Realm) {
	proto := realm.Intrinsic("Boolean.prototype")

	method(realm, proto, "toString", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		if thisBool(this) {
			return runtime.String("true"), nil
		}
		return runtime.String("false"), nil
	})
	method(realm, proto, "valueOf", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.Boolean(thisBool(this)), nil
	})

	ctor := native(realm, "Boolean", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Boolean(toBool(arg(args, 0))), nil
	})
	ctor.Construct = func(args []runtime.Value, _ *runtime.Object) (runtime.Value, error) {
		o := runtime.NewObject(proto)
		o.Class = "Boolean"
		o.Internal = runtime.Boolean(toBool(arg(args, 0)))
		return o, nil
	}
	ctor.SetHidden(runtime.StringKey("prototype"), proto)
	proto.SetHidden(runtime.StringKey("constructor"), ctor)

	realm.SetIntrinsic("Boolean", ctor)
	realm.GlobalObject.SetHidden(runtime.StringKey("Boolean"), ctor)
}

func thisBool(this runtime.Value) bool {
	if b, ok := this.(runtime.Boolean); ok {
		return bool(b)
	}
	if o, ok := this.(*runtime.Object); ok {
		if b, ok := o.Internal.(runtime.Boolean); ok {
			return bool(b)
		}
	}
	return toBool(this)
}
