package builtins

import (
	"math"
	"strconv"

	"github.com/asynkron/jsengine/internal/runtime"
)

// installNumber wires Number.prototype/statics and the global parseInt/
// parseFloat/isNaN/isFinite functions (spec.md §4.6), grounded on the
// teacher's internal/interp/builtins/conversion.go (StrToInt/StrToFloat/
// IntToStr) generalized to ES Number's formatting methods.
func installNumber(realm *runtime.Realm) {
	proto := realm.Intrinsic("Number.prototype")

	method(realm, proto, "toString", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		n := thisNum(this)
		radix := 10
		if arg(args, 0) != runtime.Undefined {
			radix = toInt(args[0])
		}
		if radix == 10 {
			return runtime.String(formatNumber(n)), nil
		}
		if n != math.Trunc(n) {
			return runtime.String(strconv.FormatFloat(n, 'g', -1, 64)), nil
		}
		return runtime.String(strconv.FormatInt(int64(n), radix)), nil
	})
	method(realm, proto, "valueOf", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.Number(thisNum(this)), nil
	})
	method(realm, proto, "toFixed", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		digits := toInt(arg(args, 0))
		return runtime.String(strconv.FormatFloat(thisNum(this), 'f', digits, 64)), nil
	})
	method(realm, proto, "toPrecision", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		n := thisNum(this)
		if arg(args, 0) == runtime.Undefined {
			return runtime.String(formatNumber(n)), nil
		}
		prec := toInt(args[0])
		return runtime.String(strconv.FormatFloat(n, 'g', prec, 64)), nil
	})
	method(realm, proto, "toExponential", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		digits := -1
		if arg(args, 0) != runtime.Undefined {
			digits = toInt(args[0])
		}
		return runtime.String(strconv.FormatFloat(thisNum(this), 'e', digits, 64)), nil
	})

	ctor := native(realm, "Number", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 {
			return runtime.Number(0), nil
		}
		return runtime.Number(toNumber(args[0])), nil
	})
	ctor.Construct = func(args []runtime.Value, _ *runtime.Object) (runtime.Value, error) {
		n := 0.0
		if len(args) > 0 {
			n = toNumber(args[0])
		}
		o := runtime.NewObject(proto)
		o.Class = "Number"
		o.Internal = runtime.Number(n)
		return o, nil
	}
	ctor.SetHidden(runtime.StringKey("prototype"), proto)
	proto.SetHidden(runtime.StringKey("constructor"), ctor)
	ctor.SetHidden(runtime.StringKey("MAX_SAFE_INTEGER"), runtime.Number(9007199254740991))
	ctor.SetHidden(runtime.StringKey("MIN_SAFE_INTEGER"), runtime.Number(-9007199254740991))
	ctor.SetHidden(runtime.StringKey("MAX_VALUE"), runtime.Number(math.MaxFloat64))
	ctor.SetHidden(runtime.StringKey("MIN_VALUE"), runtime.Number(5e-324))
	ctor.SetHidden(runtime.StringKey("EPSILON"), runtime.Number(2.220446049250313e-16))
	ctor.SetHidden(runtime.StringKey("POSITIVE_INFINITY"), runtime.Number(math.Inf(1)))
	ctor.SetHidden(runtime.StringKey("NEGATIVE_INFINITY"), runtime.Number(math.Inf(-1)))
	ctor.SetHidden(runtime.StringKey("NaN"), runtime.Number(math.NaN()))
	method(realm, ctor, "isInteger", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		n, ok := arg(args, 0).(runtime.Number)
		return runtime.Boolean(ok && !math.IsInf(float64(n), 0) && !math.IsNaN(float64(n)) && float64(n) == math.Trunc(float64(n))), nil
	})
	method(realm, ctor, "isSafeInteger", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		n, ok := arg(args, 0).(runtime.Number)
		if !ok {
			return runtime.Boolean(false), nil
		}
		f := float64(n)
		return runtime.Boolean(f == math.Trunc(f) && math.Abs(f) <= 9007199254740991), nil
	})
	method(realm, ctor, "isFinite", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		n, ok := arg(args, 0).(runtime.Number)
		return runtime.Boolean(ok && !math.IsInf(float64(n), 0) && !math.IsNaN(float64(n))), nil
	})
	method(realm, ctor, "isNaN", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		n, ok := arg(args, 0).(runtime.Number)
		return runtime.Boolean(ok && math.IsNaN(float64(n))), nil
	})
	method(realm, ctor, "parseFloat", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Number(parseFloatPrefix(toStr(arg(args, 0)))), nil
	})
	method(realm, ctor, "parseInt", 2, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		radix := 0
		if len(args) > 1 {
			radix = toInt(args[1])
		}
		return runtime.Number(parseIntPrefix(toStr(arg(args, 0)), radix)), nil
	})

	realm.SetIntrinsic("Number", ctor)
	realm.GlobalObject.SetHidden(runtime.StringKey("Number"), ctor)

	realm.GlobalObject.SetHidden(runtime.StringKey("parseInt"), native(realm, "parseInt", 2, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		radix := 0
		if len(args) > 1 {
			radix = toInt(args[1])
		}
		return runtime.Number(parseIntPrefix(toStr(arg(args, 0)), radix)), nil
	}))
	realm.GlobalObject.SetHidden(runtime.StringKey("parseFloat"), native(realm, "parseFloat", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Number(parseFloatPrefix(toStr(arg(args, 0)))), nil
	}))
	realm.GlobalObject.SetHidden(runtime.StringKey("isNaN"), native(realm, "isNaN", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Boolean(math.IsNaN(toNumber(arg(args, 0)))), nil
	}))
	realm.GlobalObject.SetHidden(runtime.StringKey("isFinite"), native(realm, "isFinite", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		f := toNumber(arg(args, 0))
		return runtime.Boolean(!math.IsNaN(f) && !math.IsInf(f, 0)), nil
	}))
}

func thisNum(this runtime.Value) float64 {
	if n, ok := this.(runtime.Number); ok {
		return float64(n)
	}
	if o, ok := this.(*runtime.Object); ok {
		if n, ok := o.Internal.(runtime.Number); ok {
			return float64(n)
		}
	}
	return toNumber(this)
}

func formatNumber(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func parseFloatPrefix(s string) float64 {
	s = trimLeadingSpace(s)
	i := 0
	for i < len(s) && (isDigit(s[i]) || s[i] == '.' || s[i] == '+' || s[i] == '-' || s[i] == 'e' || s[i] == 'E') {
		i++
	}
	for i > 0 {
		if f, err := strconv.ParseFloat(s[:i], 64); err == nil {
			return f
		}
		i--
	}
	return math.NaN()
}

func parseIntPrefix(s string, radix int) float64 {
	s = trimLeadingSpace(s)
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if radix == 0 {
		if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
			radix = 16
			s = s[2:]
		} else {
			radix = 10
		}
	} else if radix == 16 && len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	i := 0
	for i < len(s) && digitVal(s[i]) < radix {
		i++
	}
	if i == 0 {
		return math.NaN()
	}
	n, err := strconv.ParseInt(s[:i], radix, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s[:i], 64)
		if ferr != nil {
			return math.NaN()
		}
		if neg {
			return -f
		}
		return f
	}
	if neg {
		return float64(-n)
	}
	return float64(n)
}

func digitVal(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'z':
		return int(b-'a') + 10
	case b >= 'A' && b <= 'Z':
		return int(b-'A') + 10
	default:
		return 99
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func trimLeadingSpace(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return s[i:]
}
