package interp

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/asynkron/jsengine/internal/ast"
	"github.com/asynkron/jsengine/internal/jserror"
	"github.com/asynkron/jsengine/internal/runtime"
)

// Eval dispatches on the concrete Expression type. Thrown JS exceptions are
// reported via the (nil, *ThrownError) convention (signal.go); any other Go
// error is a genuine host failure (context cancellation) and gets
// jserror.HostFailure's Go stack attached so internal/diagnostics can report
// where the timeout/cancellation actually fired. Call-stack overflow is not
// one of these: it is thrown as a JS RangeError.
func (it *Interpreter) Eval(ec *EvalContext, expr ast.Expression) (runtime.Value, error) {
	select {
	case <-it.Ctx.Done():
		return nil, jserror.HostFailure(it.Ctx.Err())
	default:
	}

	switch e := expr.(type) {
	case *ast.Identifier:
		v, err, found := ec.Env.Get(e.Name)
		if err != nil {
			return nil, it.refErr(err.Error())
		}
		if !found {
			if ec.Strict {
				return nil, it.refErr(e.Name + " is not defined")
			}
			return runtime.Undefined, nil
		}
		return v, nil

	case *ast.ThisExpression:
		if ec.This == nil {
			return runtime.Undefined, nil
		}
		return ec.This, nil

	case *ast.NullLiteral:
		return runtime.Null, nil
	case *ast.BooleanLiteral:
		return runtime.Boolean(e.Value), nil
	case *ast.NumberLiteral:
		return runtime.Number(e.Value), nil
	case *ast.StringLiteral:
		return runtime.String(e.Value), nil
	case *ast.BigIntLiteral:
		n, ok := new(big.Int).SetString(e.Raw, 0)
		if !ok {
			return nil, it.typeErr("invalid BigInt literal")
		}
		return &runtime.BigInt{Digits: n.String()}, nil
	case *ast.RegExpLiteral:
		return it.NewRegExpLiteral(e.Pattern, e.Flags)

	case *ast.TemplateLiteral:
		return it.evalTemplate(ec, e)
	case *ast.TaggedTemplateExpression:
		return it.evalTaggedTemplate(ec, e)

	case *ast.ArrayLiteral:
		return it.evalArrayLiteral(ec, e)
	case *ast.ObjectLiteral:
		return it.evalObjectLiteral(ec, e)

	case *ast.FunctionExpression:
		uf := it.makeUserFunction(ec, e.Name, e.Params, e.Body, nil, e.IsAsync, e.IsGenerator, e.IsStrict, e)
		fnEnv := ec.Env
		if e.Name != nil {
			fnEnv = runtime.NewEnclosedEnvironment(ec.Env)
			uf.Closure = fnEnv
		}
		fn := it.NewFunction(ec, uf)
		if e.Name != nil {
			fnEnv.DefineLexical(e.Name.Name, true)
			fnEnv.InitializeBinding(e.Name.Name, fn)
		}
		return fn, nil

	case *ast.ArrowFunctionExpression:
		uf := it.makeUserFunction(ec, nil, e.Params, e.Body, e.ExprBody, e.IsAsync, false, false, e)
		uf.Kind = kindArrow
		uf.ThisArrow = ec
		return it.NewFunction(ec, uf), nil

	case *ast.ClassExpression:
		return it.evalClass(ec, e.Name, e.SuperClass, e.Members)

	case *ast.UnaryExpression:
		return it.evalUnary(ec, e)
	case *ast.UpdateExpression:
		return it.evalUpdate(ec, e)
	case *ast.BinaryExpression:
		l, err := it.Eval(ec, e.Left)
		if err != nil {
			return nil, err
		}
		r, err := it.Eval(ec, e.Right)
		if err != nil {
			return nil, err
		}
		return it.BinaryOp(e.Operator, l, r)
	case *ast.LogicalExpression:
		return it.evalLogical(ec, e)
	case *ast.ConditionalExpression:
		test, err := it.Eval(ec, e.Test)
		if err != nil {
			return nil, err
		}
		if it.ToBoolean(test) {
			return it.Eval(ec, e.Consequent)
		}
		return it.Eval(ec, e.Alternate)
	case *ast.SequenceExpression:
		var last runtime.Value = runtime.Undefined
		for _, sub := range e.Expressions {
			v, err := it.Eval(ec, sub)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil

	case *ast.AssignmentExpression:
		return it.evalAssignment(ec, e)

	case *ast.MemberExpression:
		v, _, _, err := it.evalMember(ec, e)
		return v, err

	case *ast.CallExpression:
		return it.evalCall(ec, e)
	case *ast.NewExpression:
		return it.evalNew(ec, e)

	case *ast.SpreadElement:
		return it.Eval(ec, e.Argument)

	case *ast.YieldExpression:
		return it.evalYield(ec, e)
	case *ast.AwaitExpression:
		return it.evalAwait(ec, e)

	case *ast.SuperExpression:
		return runtime.Undefined, nil // only meaningful inside member/call evaluation

	case *ast.ImportExpression:
		return it.evalDynamicImport(ec, e)
	case *ast.ImportMetaExpression:
		return it.Realm.NewPlainObject(), nil

	default:
		return nil, it.typeErr(fmt.Sprintf("unsupported expression %T", expr))
	}
}

func (it *Interpreter) evalUnary(ec *EvalContext, e *ast.UnaryExpression) (runtime.Value, error) {
	if e.Operator == "typeof" {
		if id, ok := e.Argument.(*ast.Identifier); ok {
			v, _, found := ec.Env.Get(id.Name)
			if !found {
				return runtime.String("undefined"), nil
			}
			return runtime.String(jsTypeOf(v)), nil
		}
	}
	if e.Operator == "delete" {
		return it.evalDelete(ec, e.Argument)
	}
	v, err := it.Eval(ec, e.Argument)
	if err != nil {
		return nil, err
	}
	return it.UnaryOp(e.Operator, v)
}

func (it *Interpreter) evalDelete(ec *EvalContext, target ast.Expression) (runtime.Value, error) {
	me, ok := target.(*ast.MemberExpression)
	if !ok {
		return runtime.Boolean(true), nil
	}
	obj, err := it.Eval(ec, me.Object)
	if err != nil {
		return nil, err
	}
	o, ok := obj.(*runtime.Object)
	if !ok {
		return runtime.Boolean(true), nil
	}
	key, err := it.memberKey(ec, me)
	if err != nil {
		return nil, err
	}
	ok2 := o.DeleteOwn(key)
	if !ok2 && ec.Strict {
		return nil, it.typeErr("Cannot delete property '" + key.String() + "'")
	}
	return runtime.Boolean(ok2), nil
}

func (it *Interpreter) evalUpdate(ec *EvalContext, e *ast.UpdateExpression) (runtime.Value, error) {
	old, err := it.Eval(ec, e.Argument)
	if err != nil {
		return nil, err
	}
	oldNum, err := it.ToNumber(old)
	if err != nil {
		return nil, err
	}
	var newNum runtime.Number
	if e.Operator == "++" {
		newNum = oldNum + 1
	} else {
		newNum = oldNum - 1
	}
	if err := it.assignTo(ec, e.Argument, newNum); err != nil {
		return nil, err
	}
	if e.Prefix {
		return newNum, nil
	}
	return oldNum, nil
}

func (it *Interpreter) evalLogical(ec *EvalContext, e *ast.LogicalExpression) (runtime.Value, error) {
	l, err := it.Eval(ec, e.Left)
	if err != nil {
		return nil, err
	}
	switch e.Operator {
	case "&&":
		if !it.ToBoolean(l) {
			return l, nil
		}
	case "||":
		if it.ToBoolean(l) {
			return l, nil
		}
	case "??":
		if l != runtime.Undefined && l != runtime.Null && l != nil {
			return l, nil
		}
	}
	return it.Eval(ec, e.Right)
}

// evalAssignment implements both plain `=` (with destructuring via the
// cover grammar already resolved by the parser into a Pattern-shaped
// Target when needed) and the compound/logical-assignment operators.
func (it *Interpreter) evalAssignment(ec *EvalContext, e *ast.AssignmentExpression) (runtime.Value, error) {
	if e.Operator == "=" {
		v, err := it.Eval(ec, e.Value)
		if err != nil {
			return nil, err
		}
		if p, ok := e.Target.(ast.Pattern); ok {
			if _, isIdent := p.(*ast.Identifier); !isIdent {
				if err := it.assignPattern(ec, p, v); err != nil {
					return nil, err
				}
				return v, nil
			}
		}
		if err := it.assignTo(ec, e.Target, v); err != nil {
			return nil, err
		}
		return v, nil
	}

	if e.Operator == "&&=" || e.Operator == "||=" || e.Operator == "??=" {
		cur, err := it.Eval(ec, e.Target)
		if err != nil {
			return nil, err
		}
		switch e.Operator {
		case "&&=":
			if !it.ToBoolean(cur) {
				return cur, nil
			}
		case "||=":
			if it.ToBoolean(cur) {
				return cur, nil
			}
		case "??=":
			if cur != runtime.Undefined && cur != runtime.Null && cur != nil {
				return cur, nil
			}
		}
		v, err := it.Eval(ec, e.Value)
		if err != nil {
			return nil, err
		}
		if err := it.assignTo(ec, e.Target, v); err != nil {
			return nil, err
		}
		return v, nil
	}

	op := strings.TrimSuffix(e.Operator, "=")
	cur, err := it.Eval(ec, e.Target)
	if err != nil {
		return nil, err
	}
	rhs, err := it.Eval(ec, e.Value)
	if err != nil {
		return nil, err
	}
	v, err := it.BinaryOp(op, cur, rhs)
	if err != nil {
		return nil, err
	}
	if err := it.assignTo(ec, e.Target, v); err != nil {
		return nil, err
	}
	return v, nil
}

// assignTo writes v to an Identifier or MemberExpression lvalue (spec.md
// §4.4 "PUT").
func (it *Interpreter) assignTo(ec *EvalContext, target ast.Expression, v runtime.Value) error {
	switch t := target.(type) {
	case *ast.Identifier:
		err, found := ec.Env.Set(t.Name, v)
		if err != nil {
			return it.typeErr(err.Error())
		}
		if !found {
			if ec.Strict {
				return it.refErr(t.Name + " is not defined")
			}
			it.Realm.GlobalEnv.DefineVar(t.Name)
			it.Realm.GlobalEnv.InitializeBinding(t.Name, v)
		}
		return nil
	case *ast.MemberExpression:
		obj, err := it.Eval(ec, t.Object)
		if err != nil {
			return err
		}
		o, ok := obj.(*runtime.Object)
		if !ok {
			return it.typeErr("Cannot set property of non-object")
		}
		if pn, ok := t.Property.(*ast.PrivateName); ok {
			return it.setPrivateField(ec, o, pn.Name, v)
		}
		key, err := it.memberKey(ec, t)
		if err != nil {
			return err
		}
		if err := o.Set(key, v, o); err != nil {
			return it.typeErr(err.Error())
		}
		return nil
	default:
		return it.refErr("Invalid left-hand side in assignment")
	}
}

func (it *Interpreter) memberKey(ec *EvalContext, me *ast.MemberExpression) (runtime.PropertyKey, error) {
	if !me.Computed {
		id := me.Property.(*ast.Identifier)
		return runtime.StringKey(id.Name), nil
	}
	v, err := it.Eval(ec, me.Property)
	if err != nil {
		return runtime.PropertyKey{}, err
	}
	return it.toPropertyKey(v)
}

// evalMember resolves a MemberExpression, also returning the base object
// and whether short-circuiting happened on an optional-chain `?.`, so call
// dispatch can recover the receiver (`this`) for method calls.
func (it *Interpreter) evalMember(ec *EvalContext, e *ast.MemberExpression) (runtime.Value, runtime.Value, bool, error) {
	if _, ok := e.Object.(*ast.SuperExpression); ok {
		key, err := it.memberKey(ec, e)
		if err != nil {
			return nil, nil, false, err
		}
		if ec.HomeObject == nil || ec.HomeObject.Proto == nil {
			return nil, nil, false, it.typeErr("'super' keyword is only valid inside a class")
		}
		v, err := ec.HomeObject.Proto.Get(key, ec.This)
		return v, ec.This, false, err
	}

	obj, err := it.Eval(ec, e.Object)
	if err != nil {
		return nil, nil, false, err
	}
	if e.Optional && (obj == runtime.Undefined || obj == runtime.Null || obj == nil) {
		return runtime.Undefined, obj, true, nil
	}
	o, ok := obj.(*runtime.Object)
	if !ok {
		if obj == runtime.Undefined || obj == runtime.Null || obj == nil {
			return nil, nil, false, it.typeErr("Cannot read properties of " + nullishName(obj) + " (reading member)")
		}
		return it.evalPrimitiveMember(ec, obj, e)
	}
	if pn, ok := e.Property.(*ast.PrivateName); ok {
		v, err := it.getPrivateField(ec, o, pn.Name)
		return v, obj, false, err
	}
	key, err := it.memberKey(ec, e)
	if err != nil {
		return nil, nil, false, err
	}
	v, err := o.Get(key, o)
	return v, obj, false, err
}

// getPrivateField reads `obj.#name`, requiring #name's branding key to be
// lexically visible (ec.PrivateKeys) and present on obj (spec.md class
// design: private fields are not inherited, not proxied, not enumerable).
func (it *Interpreter) getPrivateField(ec *EvalContext, o *runtime.Object, name string) (runtime.Value, error) {
	key, ok := ec.PrivateKeys[name]
	if !ok {
		return nil, it.typeErr("Private field '" + name + "' must be declared in an enclosing class")
	}
	if v, ok := o.PrivateFields[key]; ok {
		return v, nil
	}
	// Not an instance field: private methods/accessors live on the
	// prototype chain as ordinary hidden properties (classMemberKey).
	if o.HasPropertyInChain(runtime.StringKey("#" + name)) {
		return o.Get(runtime.StringKey("#"+name), o)
	}
	return nil, it.typeErr("Cannot read private member " + name + " from an object whose class did not declare it")
}

// setPrivateField writes `obj.#name = v`.
func (it *Interpreter) setPrivateField(ec *EvalContext, o *runtime.Object, name string, v runtime.Value) error {
	key, ok := ec.PrivateKeys[name]
	if !ok {
		return it.typeErr("Private field '" + name + "' must be declared in an enclosing class")
	}
	if _, ok := o.PrivateFields[key]; !ok {
		return it.typeErr("Cannot write private member " + name + " to an object whose class did not declare it")
	}
	if o.PrivateFields == nil {
		o.PrivateFields = map[*runtime.PrivateFieldKey]runtime.Value{}
	}
	o.PrivateFields[key] = v
	return nil
}

func nullishName(v runtime.Value) string {
	if v == runtime.Null {
		return "null"
	}
	return "undefined"
}

// evalPrimitiveMember looks a property up through the matching primitive
// wrapper prototype (String.prototype for a String receiver, etc.) since
// primitives box themselves only for the duration of the property access
// (ECMA-262 §9.1's [[Get]] on a primitive base).
func (it *Interpreter) evalPrimitiveMember(ec *EvalContext, v runtime.Value, e *ast.MemberExpression) (runtime.Value, runtime.Value, bool, error) {
	protoName := "Object.prototype"
	switch v.(type) {
	case runtime.String:
		protoName = "String.prototype"
		s := string(v.(runtime.String))
		key, err := it.memberKey(ec, e)
		if err != nil {
			return nil, nil, false, err
		}
		if key.String() == "length" {
			return runtime.Number(len([]rune(s))), nil, false, nil
		}
	case runtime.Number:
		protoName = "Number.prototype"
	case runtime.Boolean:
		protoName = "Boolean.prototype"
	}
	proto := it.Realm.Intrinsic(protoName)
	if proto == nil {
		return runtime.Undefined, v, false, nil
	}
	key, err := it.memberKey(ec, e)
	if err != nil {
		return nil, nil, false, err
	}
	res, err := proto.Get(key, v)
	return res, v, false, err
}

func (it *Interpreter) evalArrayLiteral(ec *EvalContext, e *ast.ArrayLiteral) (runtime.Value, error) {
	var elems []runtime.Value
	for _, el := range e.Elements {
		if el == nil {
			elems = append(elems, runtime.Undefined)
			continue
		}
		if sp, ok := el.(*ast.SpreadElement); ok {
			vs, err := it.iterableToSlice(ec, sp.Argument)
			if err != nil {
				return nil, err
			}
			elems = append(elems, vs...)
			continue
		}
		v, err := it.Eval(ec, el)
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
	return it.Realm.NewArray(elems), nil
}

func (it *Interpreter) evalObjectLiteral(ec *EvalContext, e *ast.ObjectLiteral) (runtime.Value, error) {
	obj := it.Realm.NewPlainObject()
	for _, prop := range e.Properties {
		if prop.Kind == ast.PropSpread {
			v, err := it.Eval(ec, prop.Value)
			if err != nil {
				return nil, err
			}
			if src, ok := v.(*runtime.Object); ok {
				for _, k := range src.OwnKeys() {
					p := src.GetOwnProperty(k)
					if p == nil || !p.Enumerable {
						continue
					}
					pv, err := src.Get(k, src)
					if err != nil {
						return nil, err
					}
					obj.SetData(k, pv)
				}
			}
			continue
		}
		var key runtime.PropertyKey
		if prop.Computed {
			kv, err := it.Eval(ec, prop.Key)
			if err != nil {
				return nil, err
			}
			key, err = it.toPropertyKey(kv)
			if err != nil {
				return nil, err
			}
		} else {
			switch k := prop.Key.(type) {
			case *ast.Identifier:
				key = runtime.StringKey(k.Name)
			case *ast.StringLiteral:
				key = runtime.StringKey(k.Value)
			case *ast.NumberLiteral:
				key = runtime.StringKey(k.Raw)
			}
		}
		switch prop.Kind {
		case ast.PropGet, ast.PropSet:
			fe := prop.Value.(*ast.FunctionExpression)
			uf := it.makeUserFunction(ec, nil, fe.Params, fe.Body, nil, false, false, fe.IsStrict, fe)
			fn := it.NewFunction(ec, uf)
			p := &runtime.Property{IsAccessor: true, Enumerable: true, Configurable: true}
			if existing := obj.GetOwnProperty(key); existing != nil && existing.IsAccessor {
				p.Get, p.Set = existing.Get, existing.Set
			}
			if prop.Kind == ast.PropGet {
				p.Get = fn
			} else {
				p.Set = fn
			}
			obj.DefineOwnProperty(key, p)
		default:
			v, err := it.Eval(ec, prop.Value)
			if err != nil {
				return nil, err
			}
			obj.SetData(key, v)
		}
	}
	return obj, nil
}

func (it *Interpreter) evalTemplate(ec *EvalContext, e *ast.TemplateLiteral) (runtime.Value, error) {
	var sb strings.Builder
	for i, q := range e.Quasis {
		sb.WriteString(q.Cooked)
		if i < len(e.Expressions) {
			v, err := it.Eval(ec, e.Expressions[i])
			if err != nil {
				return nil, err
			}
			s, err := it.ToStringValue(v)
			if err != nil {
				return nil, err
			}
			sb.WriteString(s)
		}
	}
	return runtime.String(sb.String()), nil
}

func (it *Interpreter) evalTaggedTemplate(ec *EvalContext, e *ast.TaggedTemplateExpression) (runtime.Value, error) {
	var cooked, raw []runtime.Value
	for _, q := range e.Quasi.Quasis {
		cooked = append(cooked, runtime.String(q.Cooked))
		raw = append(raw, runtime.String(q.Raw))
	}
	strings := it.Realm.NewArray(cooked)
	strings.SetData(runtime.StringKey("raw"), it.Realm.NewArray(raw))

	args := []runtime.Value{strings}
	for _, sub := range e.Quasi.Expressions {
		v, err := it.Eval(ec, sub)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	tagVal, err := it.Eval(ec, e.Tag)
	if err != nil {
		return nil, err
	}
	tagFn, ok := tagVal.(*runtime.Object)
	if !ok || tagFn.Call == nil {
		return nil, it.typeErr("Tag is not a function")
	}
	return tagFn.Call(runtime.Undefined, args)
}
