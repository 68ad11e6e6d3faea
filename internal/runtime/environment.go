package runtime

import "fmt"

// bindingKind distinguishes var/let/const/function bindings for TDZ and
// mutability enforcement (spec.md §3.3).
type bindingKind int

const (
	bindVar bindingKind = iota
	bindLet
	bindConst
	bindFunction
)

type binding struct {
	value      Value
	kind       bindingKind
	initialized bool // false while in the temporal dead zone
}

// Environment is a single scope's symbol table with a parent-chain lookup,
// grounded on the teacher's Environment (internal/interp/runtime
// /environment.go). Unlike the teacher's ident.Map-backed store, lookups
// here are case-sensitive, matching JavaScript identifier semantics.
type Environment struct {
	store map[string]*binding
	outer *Environment

	// withObject is non-nil for the scope introduced by a `with` statement:
	// unqualified identifier lookups in this scope first probe the object's
	// properties before falling through to normal bindings (spec.md §4.4).
	withObject *Object

	// globalObject, set only on a realm's root GlobalEnv via
	// BindGlobalObject, is the global object record half of the global
	// environment (spec.md §3.4): identifiers not bound as a var/let/const/
	// function fall back to it, so a built-in installed only onto
	// realm.GlobalObject (internal/builtins' installX functions) still
	// resolves as a bare identifier the way `with` already lets an object's
	// properties resolve.
	globalObject *Object
}

func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]*binding)}
}

func NewEnclosedEnvironment(outer *Environment) *Environment {
	return &Environment{store: make(map[string]*binding), outer: outer}
}

// NewWithEnvironment creates the scope introduced by `with (obj) { ... }`.
func NewWithEnvironment(outer *Environment, obj *Object) *Environment {
	return &Environment{store: make(map[string]*binding), outer: outer, withObject: obj}
}

func (e *Environment) Outer() *Environment { return e.outer }

// BindGlobalObject wires obj as this environment's global object record.
// Called once, by internal/builtins' bootstrapPrototypes, on a realm's root
// GlobalEnv right after both it and realm.GlobalObject exist.
func (e *Environment) BindGlobalObject(obj *Object) { e.globalObject = obj }

// DefineVar creates (or re-uses) a `var`/function-scoped binding, already
// initialized to Undefined per hoisting semantics. Redeclaration is legal
// and a no-op if a value already exists.
func (e *Environment) DefineVar(name string) {
	if b, ok := e.store[name]; ok {
		b.kind = bindVar
		return
	}
	e.store[name] = &binding{value: Undefined, kind: bindVar, initialized: true}
}

// DefineLexical creates a `let`/`const` binding in the temporal dead zone;
// it must be initialized via InitializeBinding before first read (spec.md
// §3.3).
func (e *Environment) DefineLexical(name string, isConst bool) {
	kind := bindLet
	if isConst {
		kind = bindConst
	}
	e.store[name] = &binding{kind: kind, initialized: false}
}

// DefineFunction creates a hoisted function-declaration binding, already
// initialized to its closure value.
func (e *Environment) DefineFunction(name string, fn Value) {
	e.store[name] = &binding{value: fn, kind: bindFunction, initialized: true}
}

// InitializeBinding assigns the first value to a `let`/`const` binding,
// leaving the TDZ.
func (e *Environment) InitializeBinding(name string, v Value) {
	if b, ok := e.store[name]; ok {
		b.value = v
		b.initialized = true
		return
	}
	e.store[name] = &binding{value: v, kind: bindLet, initialized: true}
}

// ErrTDZ is returned by Get when a binding exists but hasn't left the
// temporal dead zone.
var ErrTDZ = fmt.Errorf("ReferenceError: cannot access binding before initialization")

// Get resolves name up the scope chain, returning ErrTDZ if found but
// uninitialized, or ok=false if not bound anywhere.
func (e *Environment) Get(name string) (Value, error, bool) {
	for env := e; env != nil; env = env.outer {
		if env.withObject != nil {
			if env.withObject.HasPropertyInChain(StringKey(name)) {
				v, err := env.withObject.Get(StringKey(name), env.withObject)
				return v, err, true
			}
		}
		if b, ok := env.store[name]; ok {
			if !b.initialized {
				return nil, ErrTDZ, true
			}
			return b.value, nil, true
		}
		if env.globalObject != nil && env.globalObject.HasPropertyInChain(StringKey(name)) {
			v, err := env.globalObject.Get(StringKey(name), env.globalObject)
			return v, err, true
		}
	}
	return nil, nil, false
}

// Set assigns to an existing binding, walking outward. Returns an error if
// the binding is const, in its TDZ, or undeclared (the caller decides
// whether undeclared-assignment is a ReferenceError, per strict mode).
func (e *Environment) Set(name string, v Value) (err error, found bool) {
	for env := e; env != nil; env = env.outer {
		if env.withObject != nil && env.withObject.HasPropertyInChain(StringKey(name)) {
			return env.withObject.Set(StringKey(name), v, env.withObject), true
		}
		if b, ok := env.store[name]; ok {
			if !b.initialized {
				return ErrTDZ, true
			}
			if b.kind == bindConst {
				return fmt.Errorf("TypeError: Assignment to constant variable."), true
			}
			b.value = v
			return nil, true
		}
		if env.globalObject != nil && env.globalObject.HasPropertyInChain(StringKey(name)) {
			return env.globalObject.Set(StringKey(name), v, env.globalObject), true
		}
	}
	return nil, false
}

// Has reports whether name is bound anywhere in the chain (including TDZ
// bindings, for `typeof` and declaration-merging checks).
func (e *Environment) Has(name string) bool {
	for env := e; env != nil; env = env.outer {
		if _, ok := env.store[name]; ok {
			return true
		}
		if env.withObject != nil && env.withObject.HasPropertyInChain(StringKey(name)) {
			return true
		}
		if env.globalObject != nil && env.globalObject.HasPropertyInChain(StringKey(name)) {
			return true
		}
	}
	return false
}

// HasLocal reports whether name is bound directly in e, not an ancestor.
func (e *Environment) HasLocal(name string) bool {
	_, ok := e.store[name]
	return ok
}

// DefineAlias binds localName in e to the very same binding record that
// sourceName resolves to in source, so a write through either name is
// visible through the other. This is how internal/module implements ES
// module live bindings (spec.md §6.2 "imported names observe subsequent
// mutations"): the importing module's environment entry and the exporting
// module's entry are literally the same *binding, not a copy.
func (e *Environment) DefineAlias(localName string, source *Environment, sourceName string) bool {
	for env := source; env != nil; env = env.outer {
		if b, ok := env.store[sourceName]; ok {
			e.store[localName] = b
			return true
		}
	}
	return false
}

// HasPropertyInChain walks the prototype chain checking for key, used by
// `with` resolution and the `in` operator.
func (o *Object) HasPropertyInChain(key PropertyKey) bool {
	for cur := o; cur != nil; cur = cur.Proto {
		if cur.HasOwn(key) {
			return true
		}
	}
	return false
}
