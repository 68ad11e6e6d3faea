// Package runtime implements the JavaScript value and object model:
// primitive values, prototype-based objects with property descriptors, the
// lexical environment chain, and the per-evaluation Realm of intrinsics
// (spec.md §3). The interface shape is grounded on the teacher's
// internal/interp/runtime package (Value/NumericValue/ComparableValue/...);
// the store itself drops the teacher's case-insensitive ident.Map since
// JavaScript identifiers are case-sensitive.
package runtime

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Value is implemented by every runtime value: the seven ECMAScript
// primitives (Undefined, Null, Boolean, Number, String, *BigInt, *Symbol)
// plus *Object for every reference type (spec.md §3.1).
type Value interface {
	Type() string
	String() string
}

// NumericValue is implemented by values that participate directly in
// arithmetic without going through ToNumber (Number and *BigInt, which
// must not silently interconvert — spec.md §3.1 "BigInt does not implicitly
// coerce with Number").
type NumericValue interface {
	Value
	IsNumeric()
}

// ComparableValue exposes SameValueZero-style equality, used by Map/Set keys
// and strict-equality fallback for object identity.
type ComparableValue interface {
	Value
	Equals(other Value) bool
}

// OrderableValue extends ComparableValue for relational operators.
type OrderableValue interface {
	ComparableValue
	CompareTo(other Value) (int, bool)
}

// ---- Undefined / Null -------------------------------------------------------

type undefinedType struct{}

func (undefinedType) Type() string   { return "undefined" }
func (undefinedType) String() string { return "undefined" }

// Undefined is the single Undefined value.
var Undefined Value = undefinedType{}

type nullType struct{}

func (nullType) Type() string   { return "object" }
func (nullType) String() string { return "null" }

// Null is the single Null value.
var Null Value = nullType{}

// ---- Boolean -----------------------------------------------------------------

type Boolean bool

func (b Boolean) Type() string   { return "boolean" }
func (b Boolean) String() string { return strconv.FormatBool(bool(b)) }
func (b Boolean) Equals(other Value) bool {
	o, ok := other.(Boolean)
	return ok && b == o
}

// ---- Number ------------------------------------------------------------------

type Number float64

func (n Number) Type() string { return "number" }
func (n Number) IsNumeric()   {}

func (n Number) String() string {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		if math.Signbit(f) {
			return "0"
		}
		return "0"
	}
	return formatECMANumber(f)
}

// formatECMANumber approximates ECMA-262's Number::toString (radix 10):
// shortest round-tripping decimal, switching to exponential notation
// outside [1e-6, 1e21).
func formatECMANumber(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		return normalizeExponent(s)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func normalizeExponent(s string) string {
	// Go pads a one-digit exponent to two digits ("1e-07"); JS does not
	// ("1e-7").
	for i := 0; i+3 < len(s); i++ {
		if s[i] == 'e' && s[i+2] == '0' {
			return s[:i+2] + s[i+3:]
		}
	}
	return s
}

func (n Number) Equals(other Value) bool {
	o, ok := other.(Number)
	if !ok {
		return false
	}
	if math.IsNaN(float64(n)) && math.IsNaN(float64(o)) {
		return true // SameValueZero, unlike ===
	}
	return n == o
}

func (n Number) CompareTo(other Value) (int, bool) {
	o, ok := other.(Number)
	if !ok {
		return 0, false
	}
	switch {
	case float64(n) < float64(o):
		return -1, true
	case float64(n) > float64(o):
		return 1, true
	default:
		return 0, true
	}
}

// ---- String ------------------------------------------------------------------

type String string

func (s String) Type() string   { return "string" }
func (s String) String() string { return string(s) }
func (s String) Equals(other Value) bool {
	o, ok := other.(String)
	return ok && s == o
}
func (s String) CompareTo(other Value) (int, bool) {
	o, ok := other.(String)
	if !ok {
		return 0, false
	}
	switch {
	case s < o:
		return -1, true
	case s > o:
		return 1, true
	default:
		return 0, true
	}
}

// ---- BigInt ------------------------------------------------------------------

// BigInt wraps an arbitrary-precision integer. Arithmetic is delegated to
// math/big by the evaluator; this type only carries identity and string
// conversion (spec.md §3.1).
type BigInt struct {
	Digits string // decimal digits, sign-prefixed; canonicalized by the evaluator
}

func (b *BigInt) Type() string   { return "bigint" }
func (b *BigInt) String() string { return b.Digits }
func (b *BigInt) IsNumeric()     {}
func (b *BigInt) Equals(other Value) bool {
	o, ok := other.(*BigInt)
	return ok && b.Digits == o.Digits
}

// ---- Symbol ------------------------------------------------------------------

// Symbol is a unique, non-forgeable primitive (spec.md §3.1). Equality is
// always by identity (pointer), never by Description.
type Symbol struct {
	Description string
}

func (s *Symbol) Type() string   { return "symbol" }
func (s *Symbol) String() string { return fmt.Sprintf("Symbol(%s)", s.Description) }

// Well-known symbols shared by every Realm.
var (
	SymbolIterator      = &Symbol{Description: "Symbol.iterator"}
	SymbolAsyncIterator = &Symbol{Description: "Symbol.asyncIterator"}
	SymbolToStringTag   = &Symbol{Description: "Symbol.toStringTag"}
	SymbolHasInstance   = &Symbol{Description: "Symbol.hasInstance"}
	SymbolToPrimitive   = &Symbol{Description: "Symbol.toPrimitive"}
	SymbolMatch         = &Symbol{Description: "Symbol.match"}
	SymbolReplace       = &Symbol{Description: "Symbol.replace"}
	SymbolSearch        = &Symbol{Description: "Symbol.search"}
	SymbolSplit         = &Symbol{Description: "Symbol.split"}
)

// PropertyKey is either a String or a *Symbol; Go's type system can't
// express that union directly, so we normalize both to this comparable
// struct for use as a map key while keeping enumeration order separate
// (spec.md §3.2 "integer-index, then insertion-order string, then symbol").
type PropertyKey struct {
	str string
	sym *Symbol
}

func StringKey(s string) PropertyKey  { return PropertyKey{str: s} }
func SymbolKey(s *Symbol) PropertyKey { return PropertyKey{sym: s} }

func (k PropertyKey) IsSymbol() bool { return k.sym != nil }
func (k PropertyKey) String() string {
	if k.sym != nil {
		return k.sym.String()
	}
	return k.str
}
func (k PropertyKey) Symbol() *Symbol { return k.sym }

// isArrayIndex reports whether k is a canonical array index string
// ("0".."4294967294") per spec.md §3.2's Array length invariant.
func (k PropertyKey) isArrayIndex() (uint32, bool) {
	if k.sym != nil || k.str == "" {
		return 0, false
	}
	if k.str == "0" {
		return 0, true
	}
	if k.str[0] < '1' || k.str[0] > '9' {
		return 0, false
	}
	n, err := strconv.ParseUint(k.str, 10, 32)
	if err != nil || n >= math.MaxUint32-1 {
		return 0, false
	}
	if strconv.FormatUint(n, 10) != k.str {
		return 0, false
	}
	return uint32(n), true
}

// sortPropertyKeys orders keys per spec.md §3.2: ascending array indices,
// then remaining strings in insertion order, then symbols in insertion
// order. insertionOrder gives each key's original insertion index.
func sortPropertyKeys(keys []PropertyKey, insertionOrder map[PropertyKey]int) []PropertyKey {
	out := make([]PropertyKey, len(keys))
	copy(out, keys)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ai, aIsIdx := a.isArrayIndex()
		bi, bIsIdx := b.isArrayIndex()
		switch {
		case aIsIdx && bIsIdx:
			return ai < bi
		case aIsIdx != bIsIdx:
			return aIsIdx
		case a.IsSymbol() != b.IsSymbol():
			return !a.IsSymbol()
		default:
			return insertionOrder[a] < insertionOrder[b]
		}
	})
	return out
}
