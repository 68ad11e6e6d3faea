package builtins

import (
	"fmt"
	"strings"

	"github.com/asynkron/jsengine/internal/runtime"
)

// installConsole wires console.log/info/warn/error/debug onto realm.Log
// (set by interp.New, falling back to logrus.StandardLogger via
// Realm.Logger), so embedder-visible script output flows through the same
// structured logger as the rest of the engine instead of going straight to
// stdout (spec.md §5.6, SPEC_FULL.md ambient-stack "logging").
func installConsole(realm *runtime.Realm) {
	console := realm.NewPlainObject()

	logAt := func(name string, logf func(args ...interface{})) {
		method(realm, console, name, 0, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			logf(inspectArgs(args))
			return runtime.Undefined, nil
		})
	}
	logAt("log", func(a ...interface{}) { realm.Logger().Info(a...) })
	logAt("info", func(a ...interface{}) { realm.Logger().Info(a...) })
	logAt("debug", func(a ...interface{}) { realm.Logger().Debug(a...) })
	logAt("warn", func(a ...interface{}) { realm.Logger().Warn(a...) })
	logAt("error", func(a ...interface{}) { realm.Logger().Error(a...) })
	method(realm, console, "trace", 0, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		realm.Logger().WithField("trace", true).Debug(inspectArgs(args))
		return runtime.Undefined, nil
	})
	method(realm, console, "assert", 0, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if !toBool(arg(args, 0)) {
			realm.Logger().WithField("assertion", "failed").Error(inspectArgs(args[min(1, len(args)):]))
		}
		return runtime.Undefined, nil
	})

	realm.SetIntrinsic("console", console)
	realm.GlobalObject.SetHidden(runtime.StringKey("console"), console)
}

func inspectArgs(args []runtime.Value) string {
	parts := make([]string, len(args))
	for i, v := range args {
		parts[i] = inspect(v, map[*runtime.Object]bool{})
	}
	return strings.Join(parts, " ")
}

// inspect renders a value the way a console transcript would: strings bare,
// everything else in a compact JS-literal-ish form, recursing into
// objects/arrays with a seen-set to survive cycles the way jsonStringify
// does for JSON.stringify.
func inspect(v runtime.Value, seen map[*runtime.Object]bool) string {
	if v == nil || v == runtime.Undefined {
		return "undefined"
	}
	if v == runtime.Null {
		return "null"
	}
	switch t := v.(type) {
	case runtime.String:
		return string(t)
	case runtime.Number, runtime.Boolean:
		return t.String()
	case *runtime.Symbol:
		return "Symbol(" + t.Description + ")"
	case *runtime.Object:
		if seen[t] {
			return "[Circular]"
		}
		seen[t] = true
		defer delete(seen, t)
		if t.Call != nil {
			name, _ := t.Get(runtime.StringKey("name"), t)
			return fmt.Sprintf("[Function: %s]", toStr(name))
		}
		if t.IsArrayExotic {
			elems := arrayElements(t)
			parts := make([]string, len(elems))
			for i, e := range elems {
				parts[i] = inspect(e, seen)
			}
			return "[ " + strings.Join(parts, ", ") + " ]"
		}
		if d, ok := t.Internal.(*regexpData); ok {
			return "/" + d.source + "/" + d.flags
		}
		var parts []string
		for _, k := range t.OwnKeys() {
			if k.IsSymbol() {
				continue
			}
			fv, _ := t.Get(k, t)
			parts = append(parts, k.String()+": "+inspect(fv, seen))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	default:
		return fmt.Sprintf("%v", v)
	}
}
