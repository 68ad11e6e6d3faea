package interp

import (
	"github.com/asynkron/jsengine/internal/ast"
	"github.com/asynkron/jsengine/internal/runtime"
	"github.com/asynkron/jsengine/internal/token"
)

// functionKind distinguishes the callable shapes the evaluator must build:
// ordinary user functions, arrows (no own `this`/`arguments`), generators,
// and async functions, mirroring the teacher's user_function_helpers.go
// split between "compiled" function records and the call dispatcher that
// interprets them.
type functionKind int

const (
	kindNormal functionKind = iota
	kindArrow
	kindGenerator
	kindAsync
	kindAsyncGenerator
)

// userFunction is the Internal payload of a *runtime.Object backing a
// user-defined JS function (closure + AST body), installed on Object.Call.
type userFunction struct {
	Name       string
	Params     []ast.Param
	Body       *ast.BlockStatement
	ExprBody   ast.Expression // arrow concise-body; Body is nil when set
	Closure    *runtime.Environment
	Strict     bool
	Kind       functionKind
	HomeObject *runtime.Object // for super.* resolution inside methods
	ThisArrow  *EvalContext    // captured outer EvalContext for arrows (lexical this/arguments/super)
	Ctor       *classInfo      // non-nil when this function is a class constructor
	PrivateKeys map[string]*runtime.PrivateFieldKey // #name -> key, for methods/ctor declared in a class body

	// bodyNode is whichever AST node (FunctionDeclaration/FunctionExpression/
	// ArrowFunctionExpression) this closure was built from, kept around so
	// HoistedVarsOf/HoistedFuncsOf can read internal/transform's hoisting
	// annotations and so stack frames can report a call site.
	bodyNode ast.Node

	// sourceText is this function's exact source slice, computed once at
	// NewFunction time from Interpreter.Source; empty when the interpreter
	// was never given source text (e.g. unit tests building functions by
	// hand). Exposed via Source() for internal/builtins'
	// Function.prototype.toString (SPEC_FULL.md §4.7).
	sourceText string
}

// Source returns the exact original text this function was parsed from, or
// "" if unavailable.
func (uf *userFunction) Source() string { return uf.sourceText }

// NewFunction builds the callable Object for a function/arrow declaration
// or expression, wiring Call (and Construct, for kindNormal functions, i.e.
// not arrows, async functions or generators) to the interpreter's
// call-dispatch logic (spec.md §4.5 "Call dispatch").
func (it *Interpreter) NewFunction(ec *EvalContext, uf *userFunction) *runtime.Object {
	fnObj := runtime.NewObject(it.Realm.Intrinsic("Function.prototype"))
	fnObj.Class = "Function"
	fnObj.Internal = uf
	if it.Source != "" && uf.bodyNode != nil {
		sp := uf.bodyNode.Span()
		if sp.Start.Offset >= 0 && sp.End.Offset <= len(it.Source) && sp.Start.Offset <= sp.End.Offset {
			uf.sourceText = it.Source[sp.Start.Offset:sp.End.Offset]
		}
	}
	fnObj.SetHidden(runtime.StringKey("length"), runtime.Number(countNonDefaultParams(uf.Params)))
	fnObj.SetHidden(runtime.StringKey("name"), runtime.String(uf.Name))

	fnObj.Call = func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return it.callUser(fnObj, uf, ec, this, args, nil)
	}
	if uf.Kind == kindNormal {
		proto := it.Realm.NewPlainObject()
		proto.SetHidden(runtime.StringKey("constructor"), fnObj)
		fnObj.SetData(runtime.StringKey("prototype"), proto)
		fnObj.Construct = func(args []runtime.Value, newTarget *runtime.Object) (runtime.Value, error) {
			return it.constructUser(fnObj, uf, ec, args, newTarget)
		}
	}
	return fnObj
}

func countNonDefaultParams(params []ast.Param) int {
	n := 0
	for _, p := range params {
		if p.Default != nil || p.Rest {
			break
		}
		n++
	}
	return n
}

// callUser implements the call-dispatch algorithm of spec.md §4.5: resolve
// `this`, create a function environment, bind parameters (destructuring/
// defaults/rest), build `arguments`, run the body, translate the resulting
// Completion into a (Value, error).
func (it *Interpreter) callUser(fnObj *runtime.Object, uf *userFunction, defEC *EvalContext, this runtime.Value, args []runtime.Value, newTarget *runtime.Object) (runtime.Value, error) {
	if uf.Kind == kindGenerator || uf.Kind == kindAsyncGenerator {
		return it.startGenerator(fnObj, uf, defEC, this, args), nil
	}

	callEC, err := it.enterFunctionFrame(uf, defEC, this, args, newTarget)
	if err != nil {
		return nil, err
	}
	if err := it.Stack.Push(uf.Name, uf.bodySpanStart()); err != nil {
		if err == ErrStackOverflow {
			return Throw(it.Realm.NewError("RangeError", "Maximum call stack size exceeded"))
		}
		return nil, err
	}
	defer it.Stack.Pop()

	if uf.Kind == kindAsync {
		return it.runAsync(callEC, uf), nil
	}

	comp, err := it.evalFunctionBody(callEC, uf)
	if err != nil {
		return nil, err
	}
	switch comp.Type {
	case Return:
		return comp.Value, nil
	case Throw:
		return Throw(comp.Value)
	default:
		return runtime.Undefined, nil
	}
}

func (uf *userFunction) bodySpanStart() token.Position {
	if uf.bodyNode == nil {
		return token.Position{}
	}
	return uf.bodyNode.Span().Start
}

// enterFunctionFrame builds the function Environment: arrows inherit the
// enclosing `this`/`arguments`/`new.target`/HomeObject lexically (ECMA-262
// arrow functions have no own binding for any of them); ordinary functions
// get fresh ones.
func (it *Interpreter) enterFunctionFrame(uf *userFunction, defEC *EvalContext, this runtime.Value, args []runtime.Value, newTarget *runtime.Object) (*EvalContext, error) {
	env := runtime.NewEnclosedEnvironment(uf.Closure)
	ec := &EvalContext{Interp: it, Env: env, Strict: uf.Strict || (defEC != nil && defEC.Strict)}

	if uf.Kind == kindArrow {
		ec.This = uf.ThisArrow.This
		ec.NewTarget = uf.ThisArrow.NewTarget
		ec.HomeObject = uf.ThisArrow.HomeObject
		ec.PrivateKeys = uf.ThisArrow.PrivateKeys
		ec.ClassInfo = uf.ThisArrow.ClassInfo
		ec.SuperCtor = uf.ThisArrow.SuperCtor
	} else {
		if this == nil || this == runtime.Undefined {
			if ec.Strict {
				ec.This = runtime.Undefined
			} else {
				ec.This = it.Realm.GlobalObject
			}
		} else {
			ec.This = this
		}
		ec.NewTarget = newTarget
		ec.HomeObject = uf.HomeObject
		ec.PrivateKeys = uf.PrivateKeys

		argsObj := it.Realm.NewArray(args)
		env.DefineVar("arguments")
		env.InitializeBinding("arguments", argsObj)
	}

	if err := it.bindParams(ec, uf.Params, args); err != nil {
		return nil, err
	}
	return ec, nil
}

// bindParams implements parameter binding including destructuring, default
// values, and a rest parameter (spec.md §4.5 "bind parameters including
// default values, destructuring, and rest").
func (it *Interpreter) bindParams(ec *EvalContext, params []ast.Param, args []runtime.Value) error {
	for i, p := range params {
		if p.Rest {
			rest := []runtime.Value{}
			if i < len(args) {
				rest = append(rest, args[i:]...)
			}
			return it.bindPattern(ec, p.Pattern, it.Realm.NewArray(rest), true)
		}
		var v runtime.Value = runtime.Undefined
		if i < len(args) {
			v = args[i]
		}
		if v == runtime.Undefined && p.Default != nil {
			dv, err := it.Eval(ec, p.Default)
			if err != nil {
				return err
			}
			v = dv
		}
		if err := it.bindPattern(ec, p.Pattern, v, true); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interpreter) evalFunctionBody(ec *EvalContext, uf *userFunction) (Completion, error) {
	if uf.ExprBody != nil {
		v, err := it.Eval(ec, uf.ExprBody)
		if err != nil {
			if te, ok := err.(*ThrownError); ok {
				return ThrowCompletion(te.Value), nil
			}
			return Completion{}, err
		}
		return ReturnCompletion(v), nil
	}
	it.hoistDeclarations(ec, uf.HoistedVarsOf(), uf.HoistedFuncsOf())
	return it.ExecBlockBody(ec, uf.Body.Body)
}

// HoistedVarsOf/HoistedFuncsOf read the hoisting-pass annotations computed
// by internal/transform for whichever function-shaped AST node uf wraps.
func (uf *userFunction) HoistedVarsOf() []string {
	switch b := uf.bodyNode.(type) {
	case *ast.FunctionDeclaration:
		return b.HoistedVars
	case *ast.FunctionExpression:
		return b.HoistedVars
	case *ast.ArrowFunctionExpression:
		return b.HoistedVars
	}
	return nil
}

func (uf *userFunction) HoistedFuncsOf() []*ast.FunctionDeclaration {
	switch b := uf.bodyNode.(type) {
	case *ast.FunctionDeclaration:
		return b.HoistedFuncs
	case *ast.FunctionExpression:
		return b.HoistedFuncs
	case *ast.ArrowFunctionExpression:
		return b.HoistedFuncs
	}
	return nil
}

// constructUser implements `new` for a user function (spec.md §4.5 "new
// semantics"): allocate an instance with F.prototype, invoke F with
// this=instance, use F's return value only if it is an Object.
func (it *Interpreter) constructUser(fnObj *runtime.Object, uf *userFunction, defEC *EvalContext, args []runtime.Value, newTarget *runtime.Object) (runtime.Value, error) {
	if newTarget == nil {
		newTarget = fnObj
	}
	protoVal, err := newTarget.Get(runtime.StringKey("prototype"), newTarget)
	if err != nil {
		return nil, err
	}
	proto, ok := protoVal.(*runtime.Object)
	if !ok {
		proto = it.Realm.Intrinsic("Object.prototype")
	}
	instance := runtime.NewObject(proto)

	if uf.Ctor != nil {
		return it.constructClass(uf.Ctor, defEC, instance, args, newTarget)
	}

	callEC, err := it.enterFunctionFrame(uf, defEC, instance, args, newTarget)
	if err != nil {
		return nil, err
	}
	if err := it.Stack.Push(uf.Name, uf.bodySpanStart()); err != nil {
		if err == ErrStackOverflow {
			return Throw(it.Realm.NewError("RangeError", "Maximum call stack size exceeded"))
		}
		return nil, err
	}
	defer it.Stack.Pop()

	comp, err := it.evalFunctionBody(callEC, uf)
	if err != nil {
		return nil, err
	}
	switch comp.Type {
	case Return:
		if ro, ok := comp.Value.(*runtime.Object); ok {
			return ro, nil
		}
		return instance, nil
	case Throw:
		return Throw(comp.Value)
	default:
		return instance, nil
	}
}
