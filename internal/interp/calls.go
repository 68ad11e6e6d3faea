package interp

import (
	"github.com/asynkron/jsengine/internal/ast"
	"github.com/asynkron/jsengine/internal/runtime"
)

// evalArgs evaluates a call/new argument list, flattening any
// *ast.SpreadElement entries via the iterator protocol (spec.md §4.5
// "spread in call position").
func (it *Interpreter) evalArgs(ec *EvalContext, args []ast.Expression) ([]runtime.Value, error) {
	out := make([]runtime.Value, 0, len(args))
	for _, a := range args {
		if sp, ok := a.(*ast.SpreadElement); ok {
			vals, err := it.iterableToSlice(ec, sp.Argument)
			if err != nil {
				return nil, err
			}
			out = append(out, vals...)
			continue
		}
		v, err := it.Eval(ec, a)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// evalCall implements call-expression dispatch (spec.md §4.5 "Call
// dispatch"): recover the receiver from a MemberExpression callee for
// method calls, special-case `super(...)` constructor chaining and
// optional-call short-circuiting, then invoke.
func (it *Interpreter) evalCall(ec *EvalContext, e *ast.CallExpression) (runtime.Value, error) {
	if _, ok := e.Callee.(*ast.SuperExpression); ok {
		return it.evalSuperCall(ec, e)
	}

	var callee runtime.Value
	var this runtime.Value = runtime.Undefined
	if me, ok := e.Callee.(*ast.MemberExpression); ok {
		v, base, shortCircuited, err := it.evalMember(ec, me)
		if err != nil {
			return nil, err
		}
		if shortCircuited {
			return runtime.Undefined, nil
		}
		callee, this = v, base
	} else {
		v, err := it.Eval(ec, e.Callee)
		if err != nil {
			return nil, err
		}
		callee = v
	}

	if e.Optional && (callee == runtime.Undefined || callee == runtime.Null || callee == nil) {
		return runtime.Undefined, nil
	}

	fn, ok := callee.(*runtime.Object)
	if !ok || fn.Call == nil {
		return nil, it.typeErr(calleeName(e.Callee) + " is not a function")
	}
	args, err := it.evalArgs(ec, e.Arguments)
	if err != nil {
		return nil, err
	}
	return fn.Call(this, args)
}

// evalSuperCall implements `super(...)` inside a derived class constructor:
// invoke the parent constructor with the current `this`, then run any
// pending instance field initializers declared on the current class
// (spec.md's class construction order: super() first, then own fields).
func (it *Interpreter) evalSuperCall(ec *EvalContext, e *ast.CallExpression) (runtime.Value, error) {
	if ec.SuperCtor == nil {
		return nil, it.typeErr("'super' keyword is only valid inside a derived class constructor")
	}
	args, err := it.evalArgs(ec, e.Arguments)
	if err != nil {
		return nil, err
	}
	instance, _ := ec.This.(*runtime.Object)

	switch parent := ec.SuperCtor.Internal.(type) {
	case *classInfo:
		// The parent is itself a class: construct against the already
		// allocated instance rather than allocating a new one.
		if _, err := it.constructClass(parent, ec, instance, args, ec.NewTarget); err != nil {
			return nil, err
		}
	case *userFunction:
		parentEC, err := it.enterFunctionFrame(parent, ec, ec.This, args, ec.NewTarget)
		if err != nil {
			return nil, err
		}
		comp, err := it.evalFunctionBody(parentEC, parent)
		if err != nil {
			return nil, err
		}
		if comp.Type == Throw {
			return Throw(comp.Value)
		}
	default:
		if ec.SuperCtor.Call != nil {
			if _, err := ec.SuperCtor.Call(ec.This, args); err != nil {
				return nil, err
			}
		}
	}

	if ec.ClassInfo != nil {
		if err := it.initInstanceFields(ec, ec.ClassInfo, instance); err != nil {
			return nil, err
		}
	}
	return runtime.Undefined, nil
}

// evalNew implements `new Callee(...)` (spec.md §4.5 "new semantics").
func (it *Interpreter) evalNew(ec *EvalContext, e *ast.NewExpression) (runtime.Value, error) {
	calleeVal, err := it.Eval(ec, e.Callee)
	if err != nil {
		return nil, err
	}
	ctor, ok := calleeVal.(*runtime.Object)
	if !ok || ctor.Construct == nil {
		return nil, it.typeErr(calleeName(e.Callee) + " is not a constructor")
	}
	args, err := it.evalArgs(ec, e.Arguments)
	if err != nil {
		return nil, err
	}
	return ctor.Construct(args, ctor)
}

func calleeName(e ast.Expression) string {
	switch t := e.(type) {
	case *ast.Identifier:
		return t.Name
	case *ast.MemberExpression:
		if !t.Computed {
			if id, ok := t.Property.(*ast.Identifier); ok {
				return calleeName(t.Object) + "." + id.Name
			}
		}
	}
	return "expression"
}
