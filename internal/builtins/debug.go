package builtins

import "github.com/asynkron/jsengine/internal/runtime"

// installDebug wires the `__debug` global (spec.md §5.6: "Debug messages
// captured by the `__debug` host function"): a script calls
// `__debug(message)` or `__debug(message, fields)` to emit one record on
// the embedder's debug diagnostics stream (internal/diagnostics.Recorder),
// without it going through console and realm.Log. opts.Debug is nil-safe:
// with no recorder wired, `__debug` still returns undefined but records
// nothing, the same no-op shape installPromise/installTimers use for an
// unwired Options.
func installDebug(realm *runtime.Realm, opts Options) {
	fn := opts.Debug
	if fn == nil {
		fn = func(string, map[string]interface{}) {}
	}

	realm.GlobalObject.SetHidden(runtime.StringKey("__debug"), native(realm, "__debug", 1,
		func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			message := toStr(arg(args, 0))
			var fields map[string]interface{}
			if obj, ok := arg(args, 1).(*runtime.Object); ok {
				if m, ok := runtime.ToGo(obj).(map[string]interface{}); ok {
					fields = m
				}
			}
			fn(message, fields)
			return runtime.Undefined, nil
		}))
}
