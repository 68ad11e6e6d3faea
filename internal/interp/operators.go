package interp

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/asynkron/jsengine/internal/runtime"
)

// ---- Abstract operations (spec.md §4.5 operator semantics table) ---------

// ToBoolean never fails: every Value has a truthiness (ECMA-262 §7.1.2).
func (it *Interpreter) ToBoolean(v runtime.Value) bool {
	if v == nil {
		return false
	}
	switch t := v.(type) {
	case runtime.Boolean:
		return bool(t)
	case runtime.Number:
		f := float64(t)
		return f != 0 && !math.IsNaN(f)
	case runtime.String:
		return len(string(t)) > 0
	case *runtime.BigInt:
		return t.Digits != "0" && t.Digits != ""
	default:
		return v.Type() != "undefined" && v != runtime.Null
	}
}

// ToPrimitive performs OrdinaryToPrimitive: for an Object, tries
// valueOf/toString (or the reverse when hint is "string"); everything else
// is already primitive (ECMA-262 §7.1.1). hint is "default", "number", or
// "string".
func (it *Interpreter) ToPrimitive(v runtime.Value, hint string) (runtime.Value, error) {
	obj, ok := v.(*runtime.Object)
	if !ok {
		return v, nil
	}
	methods := []string{"valueOf", "toString"}
	if hint == "string" {
		methods = []string{"toString", "valueOf"}
	}
	for _, name := range methods {
		m, err := obj.Get(runtime.StringKey(name), obj)
		if err != nil {
			return nil, err
		}
		fn, ok := m.(*runtime.Object)
		if !ok || fn.Call == nil {
			continue
		}
		res, err := fn.Call(obj, nil)
		if err != nil {
			return nil, err
		}
		if _, isObj := res.(*runtime.Object); !isObj {
			return res, nil
		}
	}
	return nil, it.typeError("Cannot convert object to primitive value")
}

// ToNumber implements ECMA-262 §7.1.4.
func (it *Interpreter) ToNumber(v runtime.Value) (runtime.Number, error) {
	switch t := v.(type) {
	case runtime.Number:
		return t, nil
	case runtime.Boolean:
		if t {
			return 1, nil
		}
		return 0, nil
	case runtime.String:
		return stringToNumber(string(t)), nil
	case *runtime.BigInt:
		return 0, it.typeErr("Cannot convert a BigInt value to a number")
	case *runtime.Symbol:
		return 0, it.typeErr("Cannot convert a Symbol value to a number")
	case *runtime.Object:
		prim, err := it.ToPrimitive(t, "number")
		if err != nil {
			return 0, err
		}
		return it.ToNumber(prim)
	default:
		if v == runtime.Null {
			return 0, nil
		}
		return runtime.Number(math.NaN()), nil // undefined
	}
}

func stringToNumber(s string) runtime.Number {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if s == "Infinity" || s == "+Infinity" {
		return runtime.Number(math.Inf(1))
	}
	if s == "-Infinity" {
		return runtime.Number(math.Inf(-1))
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return runtime.Number(math.NaN())
		}
		return runtime.Number(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return runtime.Number(math.NaN())
	}
	return runtime.Number(f)
}

// ToStringValue implements ECMA-262 §7.1.17 (named to avoid colliding with
// Value's own String() method, which instead renders a value for debug
// display and does not perform ToPrimitive on objects).
func (it *Interpreter) ToStringValue(v runtime.Value) (string, error) {
	switch t := v.(type) {
	case runtime.String:
		return string(t), nil
	case *runtime.Symbol:
		return "", it.typeErr("Cannot convert a Symbol value to a string")
	case *runtime.Object:
		prim, err := it.ToPrimitive(t, "string")
		if err != nil {
			return "", err
		}
		return it.ToStringValue(prim)
	case nil:
		return "undefined", nil
	default:
		return v.String(), nil
	}
}

func (it *Interpreter) ToInt32(v runtime.Value) (int32, error) {
	n, err := it.ToNumber(v)
	if err != nil {
		return 0, err
	}
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, nil
	}
	return int32(uint32(int64(math.Trunc(f)))), nil
}

func (it *Interpreter) ToUint32(v runtime.Value) (uint32, error) {
	n, err := it.ToNumber(v)
	if err != nil {
		return 0, err
	}
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, nil
	}
	return uint32(int64(math.Trunc(f))), nil
}

func (it *Interpreter) typeErr(msg string) error {
	return &ThrownError{Value: it.Realm.NewError("TypeError", msg)}
}

func (it *Interpreter) typeError(msg string) error { return it.typeErr(msg) }

func (it *Interpreter) rangeErr(msg string) error {
	return &ThrownError{Value: it.Realm.NewError("RangeError", msg)}
}

func (it *Interpreter) refErr(msg string) error {
	return &ThrownError{Value: it.Realm.NewError("ReferenceError", msg)}
}

// ---- typeof ----------------------------------------------------------------

func jsTypeOf(v runtime.Value) string {
	if v == nil || v == runtime.Undefined {
		return "undefined"
	}
	if obj, ok := v.(*runtime.Object); ok {
		if obj.Call != nil {
			return "function"
		}
	}
	return v.Type()
}

// ---- Equality ---------------------------------------------------------------

// StrictEquals implements ECMA-262 `===`.
func (it *Interpreter) StrictEquals(a, b runtime.Value) bool {
	if a == nil {
		a = runtime.Undefined
	}
	if b == nil {
		b = runtime.Undefined
	}
	if a.Type() != b.Type() {
		return false
	}
	switch av := a.(type) {
	case runtime.Number:
		bv := b.(runtime.Number)
		return float64(av) == float64(bv) // NaN !== NaN, unlike Equals(SameValueZero)
	case runtime.String:
		return av == b.(runtime.String)
	case runtime.Boolean:
		return av == b.(runtime.Boolean)
	case *runtime.BigInt:
		return av.Digits == b.(*runtime.BigInt).Digits
	default:
		return a == b // undefined/null/object/Symbol identity
	}
}

// AbstractEquals implements ECMA-262 `==` (§7.2.15), recursing through
// ToPrimitive/ToNumber coercions.
func (it *Interpreter) AbstractEquals(a, b runtime.Value) (bool, error) {
	if a == nil {
		a = runtime.Undefined
	}
	if b == nil {
		b = runtime.Undefined
	}
	if a.Type() == b.Type() {
		return it.StrictEquals(a, b), nil
	}
	aNullish := a == runtime.Undefined || a == runtime.Null
	bNullish := b == runtime.Undefined || b == runtime.Null
	if aNullish || bNullish {
		return aNullish && bNullish, nil
	}
	// number <-> string
	if a.Type() == "number" && b.Type() == "string" {
		bn, err := it.ToNumber(b)
		if err != nil {
			return false, err
		}
		return it.AbstractEquals(a, bn)
	}
	if a.Type() == "string" && b.Type() == "number" {
		an, err := it.ToNumber(a)
		if err != nil {
			return false, err
		}
		return it.AbstractEquals(an, b)
	}
	if a.Type() == "boolean" {
		an, err := it.ToNumber(a)
		if err != nil {
			return false, err
		}
		return it.AbstractEquals(an, b)
	}
	if b.Type() == "boolean" {
		bn, err := it.ToNumber(b)
		if err != nil {
			return false, err
		}
		return it.AbstractEquals(a, bn)
	}
	if (a.Type() == "number" || a.Type() == "string" || a.Type() == "bigint") && b.Type() == "object" {
		bp, err := it.ToPrimitive(b, "default")
		if err != nil {
			return false, err
		}
		return it.AbstractEquals(a, bp)
	}
	if a.Type() == "object" && (b.Type() == "number" || b.Type() == "string" || b.Type() == "bigint") {
		ap, err := it.ToPrimitive(a, "default")
		if err != nil {
			return false, err
		}
		return it.AbstractEquals(ap, b)
	}
	if a.Type() == "bigint" && b.Type() == "number" {
		bi := a.(*runtime.BigInt)
		n := b.(runtime.Number)
		return bigIntEqualsNumber(bi, n), nil
	}
	if a.Type() == "number" && b.Type() == "bigint" {
		bi := b.(*runtime.BigInt)
		n := a.(runtime.Number)
		return bigIntEqualsNumber(bi, n), nil
	}
	return false, nil
}

func bigIntEqualsNumber(b *runtime.BigInt, n runtime.Number) bool {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return false
	}
	bi, ok := new(big.Int).SetString(b.Digits, 10)
	if !ok {
		return false
	}
	return bi.Cmp(big.NewInt(int64(f))) == 0
}

// ---- Binary operators --------------------------------------------------------

// BinaryOp evaluates every non-short-circuiting binary operator (spec.md
// §4.5 operator table). Logical && || ?? are handled by the expression
// evaluator directly since they must not evaluate their right operand
// eagerly.
func (it *Interpreter) BinaryOp(op string, l, r runtime.Value) (runtime.Value, error) {
	switch op {
	case "+":
		return it.add(l, r)
	case "-", "*", "/", "%", "**", "&", "|", "^", "<<", ">>", ">>>":
		return it.arith(op, l, r)
	case "==":
		ok, err := it.AbstractEquals(l, r)
		return runtime.Boolean(ok), err
	case "!=":
		ok, err := it.AbstractEquals(l, r)
		return runtime.Boolean(!ok), err
	case "===":
		return runtime.Boolean(it.StrictEquals(l, r)), nil
	case "!==":
		return runtime.Boolean(!it.StrictEquals(l, r)), nil
	case "<", "<=", ">", ">=":
		return it.relational(op, l, r)
	case "instanceof":
		return it.instanceOf(l, r)
	case "in":
		return it.inOp(l, r)
	}
	return nil, it.typeErr("unsupported operator " + op)
}

func (it *Interpreter) add(l, r runtime.Value) (runtime.Value, error) {
	lp, err := it.ToPrimitive(l, "default")
	if err != nil {
		return nil, err
	}
	rp, err := it.ToPrimitive(r, "default")
	if err != nil {
		return nil, err
	}
	if lp.Type() == "string" || rp.Type() == "string" {
		ls, err := it.ToStringValue(lp)
		if err != nil {
			return nil, err
		}
		rs, err := it.ToStringValue(rp)
		if err != nil {
			return nil, err
		}
		return runtime.String(ls + rs), nil
	}
	if lp.Type() == "bigint" || rp.Type() == "bigint" {
		return it.bigIntArith("+", lp, rp)
	}
	ln, err := it.ToNumber(lp)
	if err != nil {
		return nil, err
	}
	rn, err := it.ToNumber(rp)
	if err != nil {
		return nil, err
	}
	return ln + rn, nil
}

func (it *Interpreter) arith(op string, l, r runtime.Value) (runtime.Value, error) {
	lIsBig := l.Type() == "bigint"
	rIsBig := r.Type() == "bigint"
	if lIsBig != rIsBig {
		return nil, it.typeErr("Cannot mix BigInt and other types, use explicit conversions")
	}
	if lIsBig {
		return it.bigIntArith(op, l, r)
	}
	ln, err := it.ToNumber(l)
	if err != nil {
		return nil, err
	}
	rn, err := it.ToNumber(r)
	if err != nil {
		return nil, err
	}
	a, b := float64(ln), float64(rn)
	switch op {
	case "-":
		return runtime.Number(a - b), nil
	case "*":
		return runtime.Number(a * b), nil
	case "/":
		return runtime.Number(a / b), nil
	case "%":
		return runtime.Number(math.Mod(a, b)), nil
	case "**":
		return runtime.Number(math.Pow(a, b)), nil
	case "&":
		ai, _ := it.ToInt32(ln)
		bi, _ := it.ToInt32(rn)
		return runtime.Number(ai & bi), nil
	case "|":
		ai, _ := it.ToInt32(ln)
		bi, _ := it.ToInt32(rn)
		return runtime.Number(ai | bi), nil
	case "^":
		ai, _ := it.ToInt32(ln)
		bi, _ := it.ToInt32(rn)
		return runtime.Number(ai ^ bi), nil
	case "<<":
		ai, _ := it.ToInt32(ln)
		bi, _ := it.ToUint32(rn)
		return runtime.Number(ai << (bi & 31)), nil
	case ">>":
		ai, _ := it.ToInt32(ln)
		bi, _ := it.ToUint32(rn)
		return runtime.Number(ai >> (bi & 31)), nil
	case ">>>":
		ai, _ := it.ToUint32(ln)
		bi, _ := it.ToUint32(rn)
		return runtime.Number(ai >> (bi & 31)), nil
	}
	return nil, it.typeErr("unsupported operator " + op)
}

func (it *Interpreter) bigIntArith(op string, l, r runtime.Value) (runtime.Value, error) {
	lb, lok := l.(*runtime.BigInt)
	rb, rok := r.(*runtime.BigInt)
	if !lok || !rok {
		return nil, it.typeErr("Cannot mix BigInt and other types, use explicit conversions")
	}
	la, ok1 := new(big.Int).SetString(lb.Digits, 10)
	ra, ok2 := new(big.Int).SetString(rb.Digits, 10)
	if !ok1 || !ok2 {
		return nil, it.typeErr("invalid BigInt")
	}
	res := new(big.Int)
	switch op {
	case "+":
		res.Add(la, ra)
	case "-":
		res.Sub(la, ra)
	case "*":
		res.Mul(la, ra)
	case "/":
		if ra.Sign() == 0 {
			return nil, it.rangeErr("Division by zero")
		}
		res.Quo(la, ra)
	case "%":
		if ra.Sign() == 0 {
			return nil, it.rangeErr("Division by zero")
		}
		res.Rem(la, ra)
	case "**":
		if ra.Sign() < 0 {
			return nil, it.rangeErr("Exponent must be non-negative")
		}
		res.Exp(la, ra, nil)
	case "&":
		res.And(la, ra)
	case "|":
		res.Or(la, ra)
	case "^":
		res.Xor(la, ra)
	case "<<":
		res.Lsh(la, uint(ra.Int64()))
	case ">>":
		res.Rsh(la, uint(ra.Int64()))
	default:
		return nil, it.typeErr("unsupported BigInt operator " + op)
	}
	return &runtime.BigInt{Digits: res.String()}, nil
}

func (it *Interpreter) relational(op string, l, r runtime.Value) (runtime.Value, error) {
	lp, err := it.ToPrimitive(l, "number")
	if err != nil {
		return nil, err
	}
	rp, err := it.ToPrimitive(r, "number")
	if err != nil {
		return nil, err
	}
	var less, greater bool
	if lp.Type() == "string" && rp.Type() == "string" {
		ls, rs := string(lp.(runtime.String)), string(rp.(runtime.String))
		less, greater = ls < rs, ls > rs
	} else {
		ln, err := it.ToNumber(lp)
		if err != nil {
			return nil, err
		}
		rn, err := it.ToNumber(rp)
		if err != nil {
			return nil, err
		}
		a, b := float64(ln), float64(rn)
		if math.IsNaN(a) || math.IsNaN(b) {
			return runtime.Boolean(false), nil
		}
		less, greater = a < b, a > b
	}
	switch op {
	case "<":
		return runtime.Boolean(less), nil
	case "<=":
		return runtime.Boolean(!greater), nil
	case ">":
		return runtime.Boolean(greater), nil
	case ">=":
		return runtime.Boolean(!less), nil
	}
	return nil, it.typeErr("unsupported operator " + op)
}

func (it *Interpreter) instanceOf(l, r runtime.Value) (runtime.Value, error) {
	rf, ok := r.(*runtime.Object)
	if !ok || rf.Call == nil {
		return nil, it.typeErr("Right-hand side of 'instanceof' is not callable")
	}
	if hi, err := rf.Get(runtime.SymbolKey(runtime.SymbolHasInstance), rf); err == nil {
		if hiFn, ok := hi.(*runtime.Object); ok && hiFn.Call != nil {
			res, err := hiFn.Call(rf, []runtime.Value{l})
			if err != nil {
				return nil, err
			}
			return runtime.Boolean(it.ToBoolean(res)), nil
		}
	}
	lo, ok := l.(*runtime.Object)
	if !ok {
		return runtime.Boolean(false), nil
	}
	proto, err := rf.Get(runtime.StringKey("prototype"), rf)
	if err != nil {
		return nil, err
	}
	protoObj, ok := proto.(*runtime.Object)
	if !ok {
		return nil, it.typeErr("Function has non-object prototype in instanceof check")
	}
	for cur := lo.Proto; cur != nil; cur = cur.Proto {
		if cur == protoObj {
			return runtime.Boolean(true), nil
		}
	}
	return runtime.Boolean(false), nil
}

func (it *Interpreter) inOp(l, r runtime.Value) (runtime.Value, error) {
	ro, ok := r.(*runtime.Object)
	if !ok {
		return nil, it.typeErr("Cannot use 'in' operator to search for a key in a non-object")
	}
	key, err := it.toPropertyKey(l)
	if err != nil {
		return nil, err
	}
	return runtime.Boolean(ro.HasPropertyInChain(key)), nil
}

// toPropertyKey implements ECMA-262 ToPropertyKey: Symbols pass through
// unchanged, everything else is stringified.
func (it *Interpreter) toPropertyKey(v runtime.Value) (runtime.PropertyKey, error) {
	if sym, ok := v.(*runtime.Symbol); ok {
		return runtime.SymbolKey(sym), nil
	}
	s, err := it.ToStringValue(v)
	if err != nil {
		return runtime.PropertyKey{}, err
	}
	return runtime.StringKey(s), nil
}

// UnaryOp evaluates the unary operators that don't need special lvalue
// handling (delete/typeof on a reference are handled by the expression
// evaluator since they need the unevaluated reference, not just a value).
func (it *Interpreter) UnaryOp(op string, v runtime.Value) (runtime.Value, error) {
	switch op {
	case "-":
		if v.Type() == "bigint" {
			b := v.(*runtime.BigInt)
			n, _ := new(big.Int).SetString(b.Digits, 10)
			return &runtime.BigInt{Digits: n.Neg(n).String()}, nil
		}
		n, err := it.ToNumber(v)
		if err != nil {
			return nil, err
		}
		return -n, nil
	case "+":
		return it.ToNumber(v)
	case "!":
		return runtime.Boolean(!it.ToBoolean(v)), nil
	case "~":
		if v.Type() == "bigint" {
			b := v.(*runtime.BigInt)
			n, _ := new(big.Int).SetString(b.Digits, 10)
			return &runtime.BigInt{Digits: n.Not(n).String()}, nil
		}
		n, err := it.ToInt32(v)
		if err != nil {
			return nil, err
		}
		return runtime.Number(^n), nil
	case "typeof":
		return runtime.String(jsTypeOf(v)), nil
	case "void":
		return runtime.Undefined, nil
	}
	return nil, it.typeErr("unsupported unary operator " + op)
}
