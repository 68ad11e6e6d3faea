package builtins

import (
	"math/big"

	"github.com/asynkron/jsengine/internal/runtime"
)

// installBigInt wires BigInt.prototype and the BigInt() conversion function
// (spec.md §3.1, §4.6). BigInt has no `new` form (ECMA-262 throws TypeError
// on `new BigInt()`); arithmetic on the resulting values is the evaluator's
// job (internal/interp/operators.go), this package only needs to construct
// and format them, so math/big covers it without needing interp.
func installBigInt(realm *runtime.Realm) {
	proto := realm.Intrinsic("BigInt.prototype")

	method(realm, proto, "toString", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		b, ok := this.(*runtime.BigInt)
		if !ok {
			return runtime.String("0"), nil
		}
		radix := 10
		if arg(args, 0) != runtime.Undefined {
			radix = toInt(args[0])
		}
		if radix == 10 {
			return runtime.String(b.Digits), nil
		}
		n := new(big.Int)
		n.SetString(b.Digits, 10)
		return runtime.String(n.Text(radix)), nil
	})
	method(realm, proto, "valueOf", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return this, nil
	})

	ctor := native(realm, "BigInt", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return toBigInt(realm, arg(args, 0))
	})
	ctor.SetHidden(runtime.StringKey("prototype"), proto)
	proto.SetHidden(runtime.StringKey("constructor"), ctor)
	realm.SetIntrinsic("BigInt", ctor)
	realm.GlobalObject.SetHidden(runtime.StringKey("BigInt"), ctor)
}

func toBigInt(realm *runtime.Realm, v runtime.Value) (runtime.Value, error) {
	switch t := v.(type) {
	case *runtime.BigInt:
		return t, nil
	case runtime.Number:
		f := float64(t)
		if f != float64(int64(f)) {
			return nil, rangeErr(realm, "The number %v cannot be converted to a BigInt because it is not an integer", f)
		}
		return &runtime.BigInt{Digits: big.NewInt(int64(f)).String()}, nil
	case runtime.String:
		n := new(big.Int)
		if _, ok := n.SetString(string(t), 10); !ok {
			return nil, syntaxErr(realm, "Cannot convert %s to a BigInt", string(t))
		}
		return &runtime.BigInt{Digits: n.String()}, nil
	case runtime.Boolean:
		if t {
			return &runtime.BigInt{Digits: "1"}, nil
		}
		return &runtime.BigInt{Digits: "0"}, nil
	default:
		return nil, typeErr(realm, "Cannot convert to a BigInt")
	}
}
