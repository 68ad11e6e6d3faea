package interp

import (
	"github.com/asynkron/jsengine/internal/ast"
	"github.com/asynkron/jsengine/internal/runtime"
	"github.com/asynkron/jsengine/internal/token"
)

// classInfo is the compiled shape of a `class` declaration/expression: the
// constructor's params/body (or nil when synthesized), the instance field
// initializers run at construction time, and the private-name table shared
// by every method/field the class declares (spec.md class semantics).
type classInfo struct {
	Name         string
	SuperCtor    *runtime.Object
	IsDerived    bool
	Proto        *runtime.Object
	CtorParams   []ast.Param
	CtorBody     *ast.BlockStatement
	CtorNode     ast.Node
	HoistedVars  []string
	HoistedFuncs []*ast.FunctionDeclaration
	Fields       []classField
	PrivateKeys  map[string]*runtime.PrivateFieldKey
	DefEC        *EvalContext
}

type classField struct {
	Key      ast.Expression // nil when Private != ""
	Private  string
	Computed bool
	Init     ast.Expression
}

// evalClass builds the constructor Object for a class declaration or
// expression: the prototype chain, methods/accessors/private methods on the
// prototype, static members on the constructor itself, and a classInfo
// recording what must run at `new` time (field initializers, super chain).
func (it *Interpreter) evalClass(ec *EvalContext, name *ast.Identifier, superClassExpr ast.Expression, members []ast.ClassMember) (runtime.Value, error) {
	ci := &classInfo{PrivateKeys: map[string]*runtime.PrivateFieldKey{}}
	if name != nil {
		ci.Name = name.Name
	}

	var superProto *runtime.Object
	if superClassExpr != nil {
		ci.IsDerived = true
		superVal, err := it.Eval(ec, superClassExpr)
		if err != nil {
			return nil, err
		}
		if superVal != runtime.Null {
			sc, ok := superVal.(*runtime.Object)
			if !ok || sc.Construct == nil {
				return nil, it.typeErr("Class extends value " + jsTypeOf(superVal) + " is not a constructor")
			}
			ci.SuperCtor = sc
			pv, err := sc.Get(runtime.StringKey("prototype"), sc)
			if err != nil {
				return nil, err
			}
			superProto, _ = pv.(*runtime.Object)
		}
	} else {
		superProto = it.Realm.Intrinsic("Object.prototype")
	}
	ci.Proto = runtime.NewObject(superProto)

	for _, m := range members {
		if pn, ok := m.Key.(*ast.PrivateName); ok {
			if _, exists := ci.PrivateKeys[pn.Name]; !exists {
				ci.PrivateKeys[pn.Name] = &runtime.PrivateFieldKey{Name: pn.Name}
			}
		}
	}

	classEnv := runtime.NewEnclosedEnvironment(ec.Env)
	classEC := ec.Child(classEnv)
	classEC.Strict = true
	classEC.HomeObject = ci.Proto
	classEC.PrivateKeys = ci.PrivateKeys
	ci.DefEC = classEC

	fnObj := runtime.NewObject(it.Realm.Intrinsic("Function.prototype"))
	fnObj.Class = "Function"
	fnObj.Internal = ci
	fnObj.SetHidden(runtime.StringKey("prototype"), ci.Proto)
	fnObj.SetHidden(runtime.StringKey("name"), runtime.String(ci.Name))
	ci.Proto.SetHidden(runtime.StringKey("constructor"), fnObj)
	if ci.SuperCtor != nil {
		fnObj.Proto = ci.SuperCtor
	}
	fnObj.Call = func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return nil, it.typeErr("Class constructor " + ci.Name + " cannot be invoked without 'new'")
	}
	fnObj.Construct = func(args []runtime.Value, newTarget *runtime.Object) (runtime.Value, error) {
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
		return it.constructClass(ci, ci.DefEC, instance, args, newTarget)
	}

	if name != nil {
		classEnv.DefineLexical(name.Name, true)
		classEnv.InitializeBinding(name.Name, fnObj)
	}

	for _, m := range members {
		target := ci.Proto
		if m.Static {
			target = fnObj
		}
		switch m.Kind {
		case ast.MethodKind:
			if m.IsCtor {
				fe := m.Value.(*ast.FunctionExpression)
				ci.CtorParams = fe.Params
				ci.CtorBody = fe.Body
				ci.CtorNode = fe
				ci.HoistedVars = fe.HoistedVars
				ci.HoistedFuncs = fe.HoistedFuncs
				continue
			}
			key, err := it.classMemberKey(classEC, m)
			if err != nil {
				return nil, err
			}
			fn := it.buildClassMethod(classEC, target, m)
			target.SetHidden(key, fn)

		case ast.GetterKind, ast.SetterKind:
			key, err := it.classMemberKey(classEC, m)
			if err != nil {
				return nil, err
			}
			fn := it.buildClassMethod(classEC, target, m)
			existing := target.GetOwnProperty(key)
			p := &runtime.Property{IsAccessor: true, Enumerable: false, Configurable: true}
			if existing != nil && existing.IsAccessor {
				p.Get, p.Set = existing.Get, existing.Set
			}
			if m.Kind == ast.GetterKind {
				p.Get = fn
			} else {
				p.Set = fn
			}
			target.DefineOwnProperty(key, p)

		case ast.FieldKind:
			f := classField{Computed: m.Computed, Init: m.Value}
			if pn, ok := m.Key.(*ast.PrivateName); ok {
				f.Private = pn.Name
			} else {
				f.Key = m.Key
			}
			if m.Static {
				v := runtime.Value(runtime.Undefined)
				if f.Init != nil {
					val, err := it.Eval(classEC, f.Init)
					if err != nil {
						return nil, err
					}
					v = val
				}
				if f.Private != "" {
					if fnObj.PrivateFields == nil {
						fnObj.PrivateFields = map[*runtime.PrivateFieldKey]runtime.Value{}
					}
					fnObj.PrivateFields[ci.PrivateKeys[f.Private]] = v
				} else {
					key, err := it.fieldKey(classEC, f)
					if err != nil {
						return nil, err
					}
					fnObj.SetData(key, v)
				}
			} else {
				ci.Fields = append(ci.Fields, f)
			}

		case ast.StaticBlockKind:
			blockEC := classEC.Child(runtime.NewEnclosedEnvironment(classEC.Env))
			blockEC.This = fnObj
			it.declareLexical(blockEC, m.Body.Body)
			if _, err := it.ExecBlockBody(blockEC, m.Body.Body); err != nil {
				return nil, err
			}
		}
	}

	return fnObj, nil
}

func (it *Interpreter) buildClassMethod(classEC *EvalContext, homeObject *runtime.Object, m ast.ClassMember) *runtime.Object {
	fe := m.Value.(*ast.FunctionExpression)
	uf := it.makeUserFunction(classEC, nil, fe.Params, fe.Body, nil, fe.IsAsync, fe.IsGenerator, true, fe)
	uf.HomeObject = homeObject
	uf.PrivateKeys = classEC.PrivateKeys
	return it.NewFunction(classEC, uf)
}

func (it *Interpreter) classMemberKey(ec *EvalContext, m ast.ClassMember) (runtime.PropertyKey, error) {
	if pn, ok := m.Key.(*ast.PrivateName); ok {
		// Private methods/accessors are stored on the prototype under the
		// string key "#name", while getPrivateField's map lookup path
		// handles private *fields* directly.
		return runtime.StringKey("#" + pn.Name), nil
	}
	return it.fieldKey(ec, classField{Key: m.Key, Computed: m.Computed})
}

func (it *Interpreter) fieldKey(ec *EvalContext, f classField) (runtime.PropertyKey, error) {
	if !f.Computed {
		switch k := f.Key.(type) {
		case *ast.Identifier:
			return runtime.StringKey(k.Name), nil
		case *ast.StringLiteral:
			return runtime.StringKey(k.Value), nil
		case *ast.NumberLiteral:
			return runtime.StringKey(k.Raw), nil
		}
	}
	v, err := it.Eval(ec, f.Key)
	if err != nil {
		return runtime.PropertyKey{}, err
	}
	return it.toPropertyKey(v)
}

// constructClass runs a class's construction algorithm (spec.md `new`
// semantics generalized to classes): bind constructor params, run the body
// (or the synthesized default constructor, which forwards to super() for a
// derived class), initializing instance fields either immediately (base
// class) or right after super() returns (derived class, via evalSuperCall).
func (it *Interpreter) constructClass(ci *classInfo, defEC *EvalContext, instance *runtime.Object, args []runtime.Value, newTarget *runtime.Object) (runtime.Value, error) {
	env := runtime.NewEnclosedEnvironment(ci.DefEC.Env)
	ctorEC := &EvalContext{
		Interp: it, Env: env, This: instance, NewTarget: newTarget, Strict: true,
		HomeObject: ci.Proto, PrivateKeys: ci.PrivateKeys, ClassInfo: ci,
	}
	if ci.IsDerived {
		ctorEC.SuperCtor = ci.SuperCtor
	}

	if err := it.bindParams(ctorEC, ci.CtorParams, args); err != nil {
		return nil, err
	}

	if !ci.IsDerived {
		if err := it.initInstanceFields(ctorEC, ci, instance); err != nil {
			return nil, err
		}
	}

	if ci.CtorBody == nil {
		if ci.IsDerived && ci.SuperCtor != nil {
			if _, err := it.callDefaultSuper(ctorEC, ci, args); err != nil {
				return nil, err
			}
		} else if ci.IsDerived {
			if err := it.initInstanceFields(ctorEC, ci, instance); err != nil {
				return nil, err
			}
		}
		return instance, nil
	}

	it.hoistDeclarations(ctorEC, ci.HoistedVars, ci.HoistedFuncs)
	if err := it.Stack.Push(ci.Name, ci.bodySpanStart()); err != nil {
		if err == ErrStackOverflow {
			return Throw(it.Realm.NewError("RangeError", "Maximum call stack size exceeded"))
		}
		return nil, err
	}
	defer it.Stack.Pop()
	comp, err := it.ExecBlockBody(ctorEC, ci.CtorBody.Body)
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

func (ci *classInfo) bodySpanStart() token.Position {
	if ci.CtorNode == nil {
		return token.Position{}
	}
	return ci.CtorNode.Span().Start
}

// callDefaultSuper implements the implicit `super(...args)` body of a
// derived class that declares no explicit constructor.
func (it *Interpreter) callDefaultSuper(ctorEC *EvalContext, ci *classInfo, args []runtime.Value) (runtime.Value, error) {
	instance, _ := ctorEC.This.(*runtime.Object)
	switch parent := ci.SuperCtor.Internal.(type) {
	case *classInfo:
		if _, err := it.constructClass(parent, ctorEC, instance, args, ctorEC.NewTarget); err != nil {
			return nil, err
		}
	case *userFunction:
		parentEC, err := it.enterFunctionFrame(parent, ctorEC, ctorEC.This, args, ctorEC.NewTarget)
		if err != nil {
			return nil, err
		}
		if _, err := it.evalFunctionBody(parentEC, parent); err != nil {
			return nil, err
		}
	default:
		if ci.SuperCtor.Call != nil {
			if _, err := ci.SuperCtor.Call(ctorEC.This, args); err != nil {
				return nil, err
			}
		}
	}
	return it.initInstanceFieldsResult(ctorEC, ci)
}

func (it *Interpreter) initInstanceFieldsResult(ctorEC *EvalContext, ci *classInfo) (runtime.Value, error) {
	instance, _ := ctorEC.This.(*runtime.Object)
	if err := it.initInstanceFields(ctorEC, ci, instance); err != nil {
		return nil, err
	}
	return runtime.Undefined, nil
}

// initInstanceFields evaluates each instance field initializer with `this`
// bound to the new instance, storing private fields in the object's
// PrivateFields map and public fields as ordinary own data properties.
func (it *Interpreter) initInstanceFields(ctorEC *EvalContext, ci *classInfo, instance *runtime.Object) error {
	for _, f := range ci.Fields {
		var v runtime.Value = runtime.Undefined
		if f.Init != nil {
			val, err := it.Eval(ctorEC, f.Init)
			if err != nil {
				return err
			}
			v = val
		}
		if f.Private != "" {
			if instance.PrivateFields == nil {
				instance.PrivateFields = map[*runtime.PrivateFieldKey]runtime.Value{}
			}
			instance.PrivateFields[ci.PrivateKeys[f.Private]] = v
		} else {
			key, err := it.fieldKey(ctorEC, f)
			if err != nil {
				return err
			}
			instance.SetData(key, v)
		}
	}
	return nil
}
