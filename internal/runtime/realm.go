package runtime

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Realm holds the intrinsic objects (built-in prototypes and constructors)
// shared by every function created while it is active, plus the global
// object and global lexical environment (spec.md §3.4).
//
// internal/builtins populates Intrinsics; runtime only defines the
// container so internal/interp can depend on it without importing
// internal/builtins (avoiding the import cycle builtins -> interp would
// otherwise create, since builtins' native functions call back into the
// evaluator for e.g. Array.prototype.map's callback invocation).
type Realm struct {
	// ID uniquely identifies this realm for diagnostics correlation, so a
	// host running several realms can tell their exception/debug records
	// apart (internal/diagnostics).
	ID string

	GlobalObject *Object
	GlobalEnv    *Environment

	// Intrinsics maps a well-known name ("Object.prototype",
	// "Array.prototype", "Function.prototype", "Promise", "TypeError", ...)
	// to its object, so builtins and the evaluator can cross-reference
	// without a Go-level import of each other's constructor functions.
	Intrinsics map[string]*Object

	// Log is where console.* built-ins and internal diagnostics write to;
	// nil until interp.New (or a host embedding this realm directly) sets
	// one, in which case console falls back to logrus.StandardLogger().
	Log logrus.FieldLogger
}

func NewRealm() *Realm {
	return &Realm{ID: uuid.NewString(), Intrinsics: make(map[string]*Object)}
}

// Logger returns r.Log, falling back to the standard logrus logger so
// console built-ins never need a nil check.
func (r *Realm) Logger() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}

func (r *Realm) Intrinsic(name string) *Object { return r.Intrinsics[name] }

func (r *Realm) SetIntrinsic(name string, obj *Object) { r.Intrinsics[name] = obj }

// NewPlainObject creates an object whose prototype is this realm's
// Object.prototype, the common case for object literals and Object.create
// defaults.
func (r *Realm) NewPlainObject() *Object {
	return NewObject(r.Intrinsic("Object.prototype"))
}

// NewArray creates an Array exotic object with this realm's
// Array.prototype.
func (r *Realm) NewArray(elements []Value) *Object {
	return NewArray(r.Intrinsic("Array.prototype"), elements)
}

// NewError constructs an Error-family object (name one of "Error",
// "TypeError", "RangeError", "ReferenceError", "SyntaxError",
// "EvalError", "URIError") with the given message, prototype-chained to
// that constructor's .prototype (spec.md §4.6).
func (r *Realm) NewError(name, message string) *Object {
	proto := r.Intrinsic(name + ".prototype")
	if proto == nil {
		proto = r.Intrinsic("Error.prototype")
	}
	e := NewObject(proto)
	e.Class = "Error"
	e.SetHidden(StringKey("message"), String(message))
	e.SetHidden(StringKey("stack"), String(name+": "+message))
	return e
}
