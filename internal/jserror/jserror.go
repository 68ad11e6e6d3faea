// Package jserror holds the Go error types the evaluator and host-facing
// surfaces use to represent JavaScript exceptions and engine failures,
// grounded on the teacher's internal/errors + internal/interp/errors pair
// (InterpreterError with a Category and token.Position). ECMA-262 only
// fixes the *name* of each error constructor (TypeError, RangeError, ...);
// jserror has one JSError type whose Kind field carries that name, so host
// code can match it with errors.As and switch on Kind instead of
// string-matching a message.
package jserror

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/asynkron/jsengine/internal/runtime"
	"github.com/asynkron/jsengine/internal/token"
)

// Kind names one of the built-in error constructors (spec.md §7).
type Kind string

const (
	Syntax    Kind = "SyntaxError"
	Type      Kind = "TypeError"
	Range     Kind = "RangeError"
	Reference Kind = "ReferenceError"
)

// JSError is a Go error carrying the JS-visible pieces of a thrown error
// value: its constructor name, message, and the source position where it
// was raised, mirroring the teacher's InterpreterError (Category/Pos/
// Message) but keyed to ECMA-262's fixed error-name taxonomy instead of the
// teacher's open Category string.
type JSError struct {
	Kind    Kind
	Message string
	Pos     token.Position
}

func (e *JSError) Error() string {
	if e.Pos == (token.Position{}) {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (at %s)", e.Kind, e.Message, e.Pos)
}

func NewSyntaxError(pos token.Position, format string, args ...interface{}) *JSError {
	return &JSError{Kind: Syntax, Message: fmt.Sprintf(format, args...), Pos: pos}
}

func NewTypeError(pos token.Position, format string, args ...interface{}) *JSError {
	return &JSError{Kind: Type, Message: fmt.Sprintf(format, args...), Pos: pos}
}

func NewRangeError(pos token.Position, format string, args ...interface{}) *JSError {
	return &JSError{Kind: Range, Message: fmt.Sprintf(format, args...), Pos: pos}
}

func NewReferenceError(pos token.Position, format string, args ...interface{}) *JSError {
	return &JSError{Kind: Reference, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// HostFailure wraps a failure that originates outside the JS call stack
// entirely — an ExecutionTimeout firing, a context cancellation, a
// ModuleLoader I/O error (spec.md §7 "host-triggered failures") — with
// github.com/pkg/errors.WithStack so Exceptions() can report a Go call
// stack alongside whatever JS stack was active, instead of just a message.
func HostFailure(cause error) error {
	return errors.WithStack(cause)
}

// Throw boxes a JS value as a Go error so it can ride errors.As/Is through
// Go-level call chains that don't carry runtime.Value directly (e.g. a
// ModuleLoader implementation reporting a load-time exception). ToValue
// recovers the original value.
type Throw struct {
	Value runtime.Value
}

func (t *Throw) Error() string {
	if t.Value == nil {
		return "uncaught exception"
	}
	if o, ok := t.Value.(*runtime.Object); ok && o.Class == "Error" {
		name, _ := o.Get(runtime.StringKey("name"), o)
		msg, _ := o.Get(runtime.StringKey("message"), o)
		if n, ok := name.(runtime.String); ok && n != "" {
			return fmt.Sprintf("uncaught exception: %s: %v", n, msg)
		}
		return fmt.Sprintf("uncaught exception: Error: %v", msg)
	}
	return "uncaught exception: " + t.Value.String()
}

// NewThrow wraps v as an error.
func NewThrow(v runtime.Value) error { return &Throw{Value: v} }

// ToValue recovers the boxed JS value from err, if err (or something it
// wraps) is a *Throw.
func ToValue(err error) (runtime.Value, bool) {
	var t *Throw
	if errors.As(err, &t) {
		return t.Value, true
	}
	return nil, false
}

// ToObject materializes a JSError as the runtime.Object a thrown exception
// carries, via the realm's Error-family prototypes (spec.md §4.6).
func (e *JSError) ToObject(realm *runtime.Realm) *runtime.Object {
	return realm.NewError(string(e.Kind), e.Message)
}
