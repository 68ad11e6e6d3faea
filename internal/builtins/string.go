package builtins

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/asynkron/jsengine/internal/runtime"
)

// installString wires String.prototype and the String constructor (spec.md
// §4.6), grounded on the teacher's internal/interp/builtins/strings*.go
// (Trim/Pad/Split/Replace/Upper/Lower) generalized to the full ES string
// surface. normalize/toLocale* reach for golang.org/x/text (a domain-stack
// dependency, SPEC_FULL.md §2.1) rather than Go's bare strings.ToUpper,
// since Unicode case-folding and NFC/NFKC normalization aren't expressible
// with stdlib alone.
func installString(realm *runtime.Realm) {
	proto := realm.Intrinsic("String.prototype")

	method(realm, proto, "toString", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.String(thisStr(this)), nil
	})
	method(realm, proto, "valueOf", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.String(thisStr(this)), nil
	})
	method(realm, proto, "charAt", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		runes := []rune(thisStr(this))
		i := toInt(arg(args, 0))
		if i < 0 || i >= len(runes) {
			return runtime.String(""), nil
		}
		return runtime.String(string(runes[i])), nil
	})
	method(realm, proto, "charCodeAt", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		units := utf16Units(thisStr(this))
		i := toInt(arg(args, 0))
		if i < 0 || i >= len(units) {
			return runtime.Number(nan()), nil
		}
		return runtime.Number(units[i]), nil
	})
	method(realm, proto, "codePointAt", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		runes := []rune(thisStr(this))
		i := toInt(arg(args, 0))
		if i < 0 || i >= len(runes) {
			return runtime.Undefined, nil
		}
		return runtime.Number(runes[i]), nil
	})
	method(realm, proto, "indexOf", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s := thisStr(this)
		sub := toStr(arg(args, 0))
		start := 0
		if len(args) > 1 {
			start = normalizeIndex(toInt(args[1]), len(s))
		}
		if start > len(s) {
			return runtime.Number(-1), nil
		}
		idx := strings.Index(s[start:], sub)
		if idx < 0 {
			return runtime.Number(-1), nil
		}
		return runtime.Number(idx + start), nil
	})
	method(realm, proto, "lastIndexOf", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s := thisStr(this)
		sub := toStr(arg(args, 0))
		return runtime.Number(strings.LastIndex(s, sub)), nil
	})
	method(realm, proto, "includes", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Boolean(strings.Contains(thisStr(this), toStr(arg(args, 0)))), nil
	})
	method(realm, proto, "startsWith", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s := thisStr(this)
		pos := 0
		if len(args) > 1 {
			pos = normalizeIndex(toInt(args[1]), len(s))
		}
		if pos > len(s) {
			return runtime.Boolean(false), nil
		}
		return runtime.Boolean(strings.HasPrefix(s[pos:], toStr(arg(args, 0)))), nil
	})
	method(realm, proto, "endsWith", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s := thisStr(this)
		end := len(s)
		if len(args) > 1 {
			end = normalizeIndex(toInt(args[1]), len(s))
		}
		if end > len(s) {
			end = len(s)
		}
		return runtime.Boolean(strings.HasSuffix(s[:end], toStr(arg(args, 0)))), nil
	})
	method(realm, proto, "slice", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		runes := []rune(thisStr(this))
		start, end := sliceBounds(len(runes), arg(args, 0), arg(args, 1))
		return runtime.String(string(runes[start:end])), nil
	})
	method(realm, proto, "substring", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		runes := []rune(thisStr(this))
		n := len(runes)
		start := clamp(toInt(arg(args, 0)), 0, n)
		end := n
		if arg(args, 1) != runtime.Undefined {
			end = clamp(toInt(args[1]), 0, n)
		}
		if start > end {
			start, end = end, start
		}
		return runtime.String(string(runes[start:end])), nil
	})
	method(realm, proto, "split", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s := thisStr(this)
		if arg(args, 0) == runtime.Undefined {
			return realm.NewArray([]runtime.Value{runtime.String(s)}), nil
		}
		sep := toStr(args[0])
		var parts []string
		if sep == "" {
			for _, r := range s {
				parts = append(parts, string(r))
			}
		} else {
			parts = strings.Split(s, sep)
		}
		if len(args) > 1 && args[1] != runtime.Undefined {
			limit := toInt(args[1])
			if limit < len(parts) {
				parts = parts[:limit]
			}
		}
		out := make([]runtime.Value, len(parts))
		for i, p := range parts {
			out[i] = runtime.String(p)
		}
		return realm.NewArray(out), nil
	})
	method(realm, proto, "replace", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return stringReplace(realm, thisStr(this), arg(args, 0), arg(args, 1), false)
	})
	method(realm, proto, "replaceAll", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return stringReplace(realm, thisStr(this), arg(args, 0), arg(args, 1), true)
	})
	method(realm, proto, "repeat", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		n := toInt(arg(args, 0))
		if n < 0 {
			return nil, rangeErr(realm, "Invalid count value")
		}
		return runtime.String(strings.Repeat(thisStr(this), n)), nil
	})
	method(realm, proto, "trim", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.String(strings.TrimSpace(thisStr(this))), nil
	})
	method(realm, proto, "trimStart", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.String(strings.TrimLeft(thisStr(this), " \t\n\r\f\v")), nil
	})
	method(realm, proto, "trimEnd", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.String(strings.TrimRight(thisStr(this), " \t\n\r\f\v")), nil
	})
	method(realm, proto, "padStart", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.String(pad(thisStr(this), toInt(arg(args, 0)), padStr(args), true)), nil
	})
	method(realm, proto, "padEnd", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.String(pad(thisStr(this), toInt(arg(args, 0)), padStr(args), false)), nil
	})
	method(realm, proto, "concat", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		var b strings.Builder
		b.WriteString(thisStr(this))
		for _, a := range args {
			b.WriteString(toStr(a))
		}
		return runtime.String(b.String()), nil
	})
	method(realm, proto, "toUpperCase", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.String(cases.Upper(language.Und).String(thisStr(this))), nil
	})
	method(realm, proto, "toLowerCase", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.String(cases.Lower(language.Und).String(thisStr(this))), nil
	})
	method(realm, proto, "toLocaleUpperCase", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.String(cases.Upper(localeTag(args)).String(thisStr(this))), nil
	})
	method(realm, proto, "toLocaleLowerCase", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.String(cases.Lower(localeTag(args)).String(thisStr(this))), nil
	})
	method(realm, proto, "normalize", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		form := "NFC"
		if arg(args, 0) != runtime.Undefined {
			form = toStr(args[0])
		}
		var f norm.Form
		switch form {
		case "NFD":
			f = norm.NFD
		case "NFKC":
			f = norm.NFKC
		case "NFKD":
			f = norm.NFKD
		case "NFC":
			f = norm.NFC
		default:
			return nil, rangeErr(realm, "The normalization form should be one of NFC, NFD, NFKC, NFKD")
		}
		return runtime.String(f.String(thisStr(this))), nil
	})
	method(realm, proto, "at", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		runes := []rune(thisStr(this))
		i := toInt(arg(args, 0))
		if i < 0 {
			i += len(runes)
		}
		if i < 0 || i >= len(runes) {
			return runtime.Undefined, nil
		}
		return runtime.String(string(runes[i])), nil
	})
	proto.SetHidden(runtime.SymbolKey(runtime.SymbolIterator), native(realm, "[Symbol.iterator]", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		runes := []rune(thisStr(this))
		elems := make([]runtime.Value, len(runes))
		for i, r := range runes {
			elems[i] = runtime.String(string(r))
		}
		return newArrayIterator(realm, elems), nil
	}))

	ctor := native(realm, "String", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 {
			return runtime.String(""), nil
		}
		return runtime.String(toStr(args[0])), nil
	})
	ctor.Construct = func(args []runtime.Value, _ *runtime.Object) (runtime.Value, error) {
		s := ""
		if len(args) > 0 {
			s = toStr(args[0])
		}
		o := runtime.NewObject(proto)
		o.Class = "String"
		o.Internal = runtime.String(s)
		o.SetHidden(runtime.StringKey("length"), runtime.Number(len([]rune(s))))
		return o, nil
	}
	ctor.SetHidden(runtime.StringKey("prototype"), proto)
	proto.SetHidden(runtime.StringKey("constructor"), ctor)
	method(realm, ctor, "fromCharCode", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		var b strings.Builder
		for _, a := range args {
			b.WriteRune(rune(toInt(a)))
		}
		return runtime.String(b.String()), nil
	})
	method(realm, ctor, "raw", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		cooked, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return runtime.String(""), nil
		}
		rawV, _ := cooked.Get(runtime.StringKey("raw"), cooked)
		raw, ok := rawV.(*runtime.Object)
		if !ok {
			return runtime.String(""), nil
		}
		parts := arrayElements(raw)
		subs := args[1:]
		var b strings.Builder
		for i, p := range parts {
			b.WriteString(toStr(p))
			if i < len(subs) {
				b.WriteString(toStr(subs[i]))
			}
		}
		return runtime.String(b.String()), nil
	})

	realm.SetIntrinsic("String", ctor)
	realm.GlobalObject.SetHidden(runtime.StringKey("String"), ctor)
}

func thisStr(this runtime.Value) string {
	if s, ok := this.(runtime.String); ok {
		return string(s)
	}
	if o, ok := this.(*runtime.Object); ok {
		if s, ok := o.Internal.(runtime.String); ok {
			return string(s)
		}
	}
	return toStr(this)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func pad(s string, target int, padding string, start bool) string {
	runes := []rune(s)
	if padding == "" || len(runes) >= target {
		return s
	}
	need := target - len(runes)
	var b strings.Builder
	for len([]rune(b.String())) < need {
		b.WriteString(padding)
	}
	fill := []rune(b.String())[:need]
	if start {
		return string(fill) + s
	}
	return s + string(fill)
}

func padStr(args []runtime.Value) string {
	if len(args) > 1 && args[1] != runtime.Undefined {
		return toStr(args[1])
	}
	return " "
}

func localeTag(args []runtime.Value) language.Tag {
	if len(args) > 0 {
		if s, ok := args[0].(runtime.String); ok {
			if t, err := language.Parse(string(s)); err == nil {
				return t
			}
		}
	}
	return language.Und
}

func utf16Units(s string) []int {
	var out []int
	for _, r := range s {
		if r > 0xFFFF {
			r -= 0x10000
			out = append(out, int(0xD800+(r>>10)), int(0xDC00+(r&0x3FF)))
			continue
		}
		out = append(out, int(r))
	}
	return out
}

func nan() float64 { return math.NaN() }

func inf() float64 { return math.Inf(1) }

// stringReplace implements String.prototype.replace/replaceAll's
// string-pattern case; RegExp patterns are handled by regexp.go, which
// installs its own Symbol.replace on RegExp.prototype that this defers to
// when the search value is a RegExp.
func stringReplace(realm *runtime.Realm, s string, search, replacement runtime.Value, all bool) (runtime.Value, error) {
	if reObj, ok := search.(*runtime.Object); ok && reObj.Class == "RegExp" {
		if fn, _ := reObj.Get(runtime.SymbolKey(runtime.SymbolReplace), reObj); fn != runtime.Undefined {
			if f, ok := fn.(*runtime.Object); ok && f.Call != nil {
				return f.Call(reObj, []runtime.Value{runtime.String(s), replacement})
			}
		}
	}
	pat := toStr(search)
	replace := func(match string) string {
		if rfn, ok := replacement.(*runtime.Object); ok && rfn.Call != nil {
			idx := strings.Index(s, match)
			v, err := rfn.Call(runtime.Undefined, []runtime.Value{runtime.String(match), runtime.Number(idx), runtime.String(s)})
			if err != nil || v == nil {
				return ""
			}
			return toStr(v)
		}
		return expandReplacement(toStr(replacement), match)
	}
	if all {
		if pat == "" {
			return runtime.String(s), nil
		}
		var b strings.Builder
		rest := s
		for {
			idx := strings.Index(rest, pat)
			if idx < 0 {
				b.WriteString(rest)
				break
			}
			b.WriteString(rest[:idx])
			b.WriteString(replace(pat))
			rest = rest[idx+len(pat):]
		}
		return runtime.String(b.String()), nil
	}
	idx := strings.Index(s, pat)
	if idx < 0 {
		return runtime.String(s), nil
	}
	return runtime.String(s[:idx] + replace(pat) + s[idx+len(pat):]), nil
}

func expandReplacement(repl, match string) string {
	return strings.ReplaceAll(repl, "$&", match)
}
