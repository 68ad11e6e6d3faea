package builtins

import (
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/asynkron/jsengine/internal/runtime"
)

// regexpData is the Internal payload of a RegExp instance: the compiled
// pattern plus the bits lastIndex/global/sticky matching needs, grounded on
// dlclark/regexp2 (SPEC_FULL.md §2.1 domain-stack table) rather than Go's
// native regexp/RE2, since RE2 cannot express backreferences or lookaround
// that ECMA-262 regexes allow.
type regexpData struct {
	re     *regexp2.Regexp
	source string
	flags  string
}

func installRegExp(realm *runtime.Realm) {
	proto := realm.Intrinsic("RegExp.prototype")
	proto.SetHidden(runtime.StringKey("lastIndex"), runtime.Number(0))

	ctor := native(realm, "RegExp", 2, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return regexpConstruct(realm, proto, args)
	})
	ctor.Construct = func(args []runtime.Value, _ *runtime.Object) (runtime.Value, error) {
		return regexpConstruct(realm, proto, args)
	}
	ctor.SetHidden(runtime.StringKey("prototype"), proto)
	proto.SetHidden(runtime.StringKey("constructor"), ctor)

	field := func(name string, fn func(*regexpData) runtime.Value) {
		getter := native(realm, "get "+name, 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
			d, err := thisRegExp(realm, this)
			if err != nil {
				return nil, err
			}
			return fn(d), nil
		})
		proto.DefineOwnProperty(runtime.StringKey(name), &runtime.Property{IsAccessor: true, Get: getter, Configurable: true})
	}
	field("source", func(d *regexpData) runtime.Value { return runtime.String(d.source) })
	field("flags", func(d *regexpData) runtime.Value { return runtime.String(d.flags) })
	field("global", func(d *regexpData) runtime.Value { return runtime.Boolean(strings.Contains(d.flags, "g")) })
	field("ignoreCase", func(d *regexpData) runtime.Value { return runtime.Boolean(strings.Contains(d.flags, "i")) })
	field("multiline", func(d *regexpData) runtime.Value { return runtime.Boolean(strings.Contains(d.flags, "m")) })
	field("sticky", func(d *regexpData) runtime.Value { return runtime.Boolean(strings.Contains(d.flags, "y")) })
	field("unicode", func(d *regexpData) runtime.Value { return runtime.Boolean(strings.Contains(d.flags, "u")) })
	field("dotAll", func(d *regexpData) runtime.Value { return runtime.Boolean(strings.Contains(d.flags, "s")) })

	method(realm, proto, "test", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		m, err := regexpExec(realm, this, toStr(arg(args, 0)))
		if err != nil {
			return nil, err
		}
		return runtime.Boolean(m != runtime.Null), nil
	})
	method(realm, proto, "exec", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return regexpExec(realm, this, toStr(arg(args, 0)))
	})
	method(realm, proto, "toString", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		d, err := thisRegExp(realm, this)
		if err != nil {
			return nil, err
		}
		return runtime.String("/" + d.source + "/" + d.flags), nil
	})
	proto.SetHidden(runtime.SymbolKey(runtime.SymbolReplace), native(realm, "[Symbol.replace]", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return regexpReplace(realm, this, toStr(arg(args, 0)), arg(args, 1))
	}))
	proto.SetHidden(runtime.SymbolKey(runtime.SymbolMatch), native(realm, "[Symbol.match]", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return regexpMatch(realm, this, toStr(arg(args, 0)))
	}))

	realm.SetIntrinsic("RegExp", ctor)
	realm.GlobalObject.SetHidden(runtime.StringKey("RegExp"), ctor)
}

func regexpConstruct(realm *runtime.Realm, proto *runtime.Object, args []runtime.Value) (runtime.Value, error) {
	pattern := ""
	flags := ""
	switch p := arg(args, 0).(type) {
	case runtime.String:
		pattern = string(p)
	case *runtime.Object:
		if d, ok := p.Internal.(*regexpData); ok {
			pattern = d.source
			flags = d.flags
		}
	}
	if arg(args, 1) != runtime.Undefined {
		flags = toStr(args[1])
	}
	opts := regexp2.None
	if strings.Contains(flags, "i") {
		opts |= regexp2.IgnoreCase
	}
	if strings.Contains(flags, "m") {
		opts |= regexp2.Multiline
	}
	if strings.Contains(flags, "s") {
		opts |= regexp2.Singleline
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, syntaxErr(realm, "Invalid regular expression: %s", err.Error())
	}
	o := runtime.NewObject(proto)
	o.Class = "RegExp"
	o.Internal = &regexpData{re: re, source: pattern, flags: flags}
	o.SetData(runtime.StringKey("lastIndex"), runtime.Number(0))
	return o, nil
}

func thisRegExp(realm *runtime.Realm, v runtime.Value) (*regexpData, error) {
	o, ok := v.(*runtime.Object)
	if !ok {
		return nil, typeErr(realm, "Method called on incompatible receiver")
	}
	d, ok := o.Internal.(*regexpData)
	if !ok {
		return nil, typeErr(realm, "Method called on incompatible receiver")
	}
	return d, nil
}

func regexpExec(realm *runtime.Realm, this runtime.Value, s string) (runtime.Value, error) {
	o, ok := this.(*runtime.Object)
	if !ok {
		return nil, typeErr(realm, "RegExp.prototype.exec called on non-RegExp")
	}
	d, ok := o.Internal.(*regexpData)
	if !ok {
		return nil, typeErr(realm, "RegExp.prototype.exec called on non-RegExp")
	}
	global := strings.ContainsAny(d.flags, "gy")
	start := 0
	if global {
		lastIdxV, _ := o.Get(runtime.StringKey("lastIndex"), o)
		start = toInt(lastIdxV)
	}
	if start < 0 || start > len(s) {
		o.SetData(runtime.StringKey("lastIndex"), runtime.Number(0))
		return runtime.Null, nil
	}
	m, err := d.re.FindStringMatchStartingAt(s, start)
	if err != nil || m == nil {
		if global {
			o.SetData(runtime.StringKey("lastIndex"), runtime.Number(0))
		}
		return runtime.Null, nil
	}
	if global {
		o.SetData(runtime.StringKey("lastIndex"), runtime.Number(m.Index+m.Length))
	}
	return matchToArray(realm, s, m), nil
}

func matchToArray(realm *runtime.Realm, s string, m *regexp2.Match) *runtime.Object {
	groups := m.Groups()
	elems := make([]runtime.Value, len(groups))
	for i, g := range groups {
		if len(g.Captures) == 0 {
			elems[i] = runtime.Undefined
			continue
		}
		elems[i] = runtime.String(g.String())
	}
	arr := realm.NewArray(elems)
	arr.SetData(runtime.StringKey("index"), runtime.Number(m.Index))
	arr.SetData(runtime.StringKey("input"), runtime.String(s))
	groupsObj := realm.NewPlainObject()
	hasNamed := false
	for _, g := range groups {
		if g.Name != "" && g.Name != strconv.Itoa(0) {
			if _, err := strconv.Atoi(g.Name); err != nil {
				hasNamed = true
				if len(g.Captures) > 0 {
					groupsObj.SetData(runtime.StringKey(g.Name), runtime.String(g.String()))
				} else {
					groupsObj.SetData(runtime.StringKey(g.Name), runtime.Undefined)
				}
			}
		}
	}
	if hasNamed {
		arr.SetData(runtime.StringKey("groups"), groupsObj)
	} else {
		arr.SetData(runtime.StringKey("groups"), runtime.Undefined)
	}
	return arr
}

func regexpMatch(realm *runtime.Realm, this runtime.Value, s string) (runtime.Value, error) {
	d, err := thisRegExp(realm, this)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(d.flags, "g") {
		return regexpExec(realm, this, s)
	}
	var out []runtime.Value
	m, _ := d.re.FindStringMatch(s)
	for m != nil {
		out = append(out, runtime.String(m.String()))
		next, _ := d.re.FindNextMatch(m)
		m = next
	}
	if len(out) == 0 {
		return runtime.Null, nil
	}
	return realm.NewArray(out), nil
}

func regexpReplace(realm *runtime.Realm, this runtime.Value, s string, replacement runtime.Value) (runtime.Value, error) {
	d, err := thisRegExp(realm, this)
	if err != nil {
		return nil, err
	}
	global := strings.Contains(d.flags, "g")
	var b strings.Builder
	last := 0
	m, _ := d.re.FindStringMatch(s)
	for m != nil {
		b.WriteString(s[last:m.Index])
		if fn, ok := replacement.(*runtime.Object); ok && fn.Call != nil {
			groups := m.Groups()
			callArgs := []runtime.Value{runtime.String(m.String())}
			for _, g := range groups[1:] {
				if len(g.Captures) > 0 {
					callArgs = append(callArgs, runtime.String(g.String()))
				} else {
					callArgs = append(callArgs, runtime.Undefined)
				}
			}
			callArgs = append(callArgs, runtime.Number(m.Index), runtime.String(s))
			v, err := fn.Call(runtime.Undefined, callArgs)
			if err != nil {
				return nil, err
			}
			b.WriteString(toStr(v))
		} else {
			b.WriteString(expandReplacement(toStr(replacement), m.String()))
		}
		last = m.Index + m.Length
		if !global {
			break
		}
		next, _ := d.re.FindNextMatch(m)
		m = next
	}
	b.WriteString(s[last:])
	return runtime.String(b.String()), nil
}
