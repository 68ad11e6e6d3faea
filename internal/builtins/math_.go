package builtins

import (
	"math"
	"math/rand"

	"github.com/asynkron/jsengine/internal/runtime"
)

// installMath wires the Math namespace object (spec.md §4.6), grounded on
// the teacher's internal/interp/builtins/mathematics*.go (Abs/Ceil/Floor/
// Power/SquareRoot/...) one-to-one onto their Go math package equivalents.
func installMath(realm *runtime.Realm) {
	m := realm.NewPlainObject()
	m.SetHidden(runtime.StringKey("PI"), runtime.Number(math.Pi))
	m.SetHidden(runtime.StringKey("E"), runtime.Number(math.E))
	m.SetHidden(runtime.StringKey("LN2"), runtime.Number(math.Ln2))
	m.SetHidden(runtime.StringKey("LN10"), runtime.Number(math.Log(10)))
	m.SetHidden(runtime.StringKey("LOG2E"), runtime.Number(1/math.Ln2))
	m.SetHidden(runtime.StringKey("LOG10E"), runtime.Number(1/math.Log(10)))
	m.SetHidden(runtime.StringKey("SQRT2"), runtime.Number(math.Sqrt2))
	m.SetHidden(runtime.StringKey("SQRT1_2"), runtime.Number(math.Sqrt(0.5)))

	unary := func(name string, fn func(float64) float64) {
		m.SetHidden(runtime.StringKey(name), native(realm, name, 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return runtime.Number(fn(toNumber(arg(args, 0)))), nil
		}))
	}
	unary("abs", math.Abs)
	unary("ceil", math.Ceil)
	unary("floor", math.Floor)
	unary("trunc", math.Trunc)
	unary("sqrt", math.Sqrt)
	unary("cbrt", math.Cbrt)
	unary("sign", func(f float64) float64 {
		switch {
		case f > 0:
			return 1
		case f < 0:
			return -1
		default:
			return f
		}
	})
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("asin", math.Asin)
	unary("acos", math.Acos)
	unary("atan", math.Atan)
	unary("sinh", math.Sinh)
	unary("cosh", math.Cosh)
	unary("tanh", math.Tanh)
	unary("log", math.Log)
	unary("log2", math.Log2)
	unary("log10", math.Log10)
	unary("exp", math.Exp)
	unary("round", func(f float64) float64 { return math.Floor(f + 0.5) })

	m.SetHidden(runtime.StringKey("atan2"), native(realm, "atan2", 2, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Number(math.Atan2(toNumber(arg(args, 0)), toNumber(arg(args, 1)))), nil
	}))
	m.SetHidden(runtime.StringKey("pow"), native(realm, "pow", 2, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Number(math.Pow(toNumber(arg(args, 0)), toNumber(arg(args, 1)))), nil
	}))
	m.SetHidden(runtime.StringKey("hypot"), native(realm, "hypot", 2, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		sum := 0.0
		for _, a := range args {
			v := toNumber(a)
			sum += v * v
		}
		return runtime.Number(math.Sqrt(sum)), nil
	}))
	m.SetHidden(runtime.StringKey("max"), native(realm, "max", 2, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		best := math.Inf(-1)
		for _, a := range args {
			v := toNumber(a)
			if math.IsNaN(v) {
				return runtime.Number(math.NaN()), nil
			}
			if v > best {
				best = v
			}
		}
		return runtime.Number(best), nil
	}))
	m.SetHidden(runtime.StringKey("min"), native(realm, "min", 2, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		best := math.Inf(1)
		for _, a := range args {
			v := toNumber(a)
			if math.IsNaN(v) {
				return runtime.Number(math.NaN()), nil
			}
			if v < best {
				best = v
			}
		}
		return runtime.Number(best), nil
	}))
	m.SetHidden(runtime.StringKey("random"), native(realm, "random", 0, func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.Number(rand.Float64()), nil
	}))

	m.SetHidden(runtime.SymbolKey(runtime.SymbolToStringTag), runtime.String("Math"))
	realm.SetIntrinsic("Math", m)
	realm.GlobalObject.SetHidden(runtime.StringKey("Math"), m)
}
