package interp

import (
	"github.com/asynkron/jsengine/internal/ast"
	"github.com/asynkron/jsengine/internal/runtime"
)

// bindPattern binds v to a declaration-position pattern (let/const/var/
// params/catch param/for-in/of declarations), recursing through array and
// object destructuring per spec.md §4.5 "Destructuring". declare selects
// between two binding styles:
//   - declare=true: the name is being introduced (or was already
//     pre-declared in TDZ by declareLexical/hoistDeclarations) — leave the
//     TDZ via InitializeBinding, creating a fresh var binding first if
//     nothing was pre-declared (function parameters).
//   - declare=false: the name already has a live binding somewhere up the
//     scope chain (a hoisted `var`) and this is a later re-assignment
//     (e.g. `for (var x of xs)` on each iteration) — walk up and Set it.
func (it *Interpreter) bindPattern(ec *EvalContext, p ast.Pattern, v runtime.Value, declare bool) error {
	switch t := p.(type) {
	case *ast.Identifier:
		if declare {
			if ec.Env.HasLocal(t.Name) {
				ec.Env.InitializeBinding(t.Name, v)
			} else {
				ec.Env.DefineVar(t.Name)
				ec.Env.InitializeBinding(t.Name, v)
			}
			return nil
		}
		return it.setIdentifier(ec, t.Name, v)

	case *ast.AssignmentPattern:
		if v == runtime.Undefined {
			dv, err := it.Eval(ec, t.Default)
			if err != nil {
				return err
			}
			v = dv
		}
		return it.bindPattern(ec, t.Target, v, declare)

	case *ast.ArrayPattern:
		iter, err := it.GetIterator(v, false)
		if err != nil {
			return err
		}
		done := false
		for _, el := range t.Elements {
			if rest, ok := el.(*ast.RestElement); ok {
				var remaining []runtime.Value
				for !done {
					val, d, err := it.IteratorStep(iter)
					if err != nil {
						return err
					}
					if d {
						done = true
						break
					}
					remaining = append(remaining, val)
				}
				return it.bindPattern(ec, rest.Argument, it.Realm.NewArray(remaining), declare)
			}
			var val runtime.Value = runtime.Undefined
			if !done {
				v2, d, err := it.IteratorStep(iter)
				if err != nil {
					return err
				}
				if d {
					done = true
				} else {
					val = v2
				}
			}
			if el == nil {
				continue // elision
			}
			if err := it.bindPattern(ec, el, val, declare); err != nil {
				return err
			}
		}
		if !done {
			it.IteratorClose(iter)
		}
		return nil

	case *ast.ObjectPattern:
		if v == runtime.Undefined || v == runtime.Null {
			return it.typeErr("Cannot destructure '" + jsTypeOf(v) + "' as it is " + nullishName(v) + ".")
		}
		used := map[runtime.PropertyKey]bool{}
		for _, prop := range t.Properties {
			key, err := it.patternPropertyKey(ec, prop)
			if err != nil {
				return err
			}
			used[key] = true
			val, err := it.getProperty(v, key)
			if err != nil {
				return err
			}
			if err := it.bindPattern(ec, prop.Value, val, declare); err != nil {
				return err
			}
		}
		if t.Rest != nil {
			rest := it.Realm.NewPlainObject()
			if o, ok := v.(*runtime.Object); ok {
				for _, k := range o.OwnKeys() {
					if used[k] || k.IsSymbol() {
						continue
					}
					p := o.GetOwnProperty(k)
					if p == nil || !p.Enumerable {
						continue
					}
					val, err := o.Get(k, o)
					if err != nil {
						return err
					}
					rest.SetData(k, val)
				}
			}
			if err := it.bindPattern(ec, t.Rest.Argument, rest, declare); err != nil {
				return err
			}
		}
		return nil
	}
	return it.typeErr("unsupported binding pattern")
}

// assignPattern is bindPattern's counterpart for `=`-assignment destructuring
// (`[a, b] = x`, not a declaration): Identifier/MemberExpression leaves are
// written via assignTo instead of introducing new bindings.
func (it *Interpreter) assignPattern(ec *EvalContext, p ast.Pattern, v runtime.Value) error {
	switch t := p.(type) {
	case *ast.Identifier:
		return it.assignTo(ec, t, v)

	case *ast.MemberExpression:
		return it.assignTo(ec, t, v)

	case *ast.AssignmentPattern:
		if v == runtime.Undefined {
			dv, err := it.Eval(ec, t.Default)
			if err != nil {
				return err
			}
			v = dv
		}
		return it.assignPattern(ec, t.Target, v)

	case *ast.ArrayPattern:
		iter, err := it.GetIterator(v, false)
		if err != nil {
			return err
		}
		done := false
		for _, el := range t.Elements {
			if rest, ok := el.(*ast.RestElement); ok {
				var remaining []runtime.Value
				for !done {
					val, d, err := it.IteratorStep(iter)
					if err != nil {
						return err
					}
					if d {
						done = true
						break
					}
					remaining = append(remaining, val)
				}
				return it.assignPattern(ec, rest.Argument, it.Realm.NewArray(remaining))
			}
			var val runtime.Value = runtime.Undefined
			if !done {
				v2, d, err := it.IteratorStep(iter)
				if err != nil {
					return err
				}
				if d {
					done = true
				} else {
					val = v2
				}
			}
			if el == nil {
				continue
			}
			if err := it.assignPattern(ec, el, val); err != nil {
				return err
			}
		}
		if !done {
			it.IteratorClose(iter)
		}
		return nil

	case *ast.ObjectPattern:
		if v == runtime.Undefined || v == runtime.Null {
			return it.typeErr("Cannot destructure '" + jsTypeOf(v) + "' as it is " + nullishName(v) + ".")
		}
		used := map[runtime.PropertyKey]bool{}
		for _, prop := range t.Properties {
			key, err := it.patternPropertyKey(ec, prop)
			if err != nil {
				return err
			}
			used[key] = true
			val, err := it.getProperty(v, key)
			if err != nil {
				return err
			}
			if err := it.assignPattern(ec, prop.Value, val); err != nil {
				return err
			}
		}
		if t.Rest != nil {
			rest := it.Realm.NewPlainObject()
			if o, ok := v.(*runtime.Object); ok {
				for _, k := range o.OwnKeys() {
					if used[k] || k.IsSymbol() {
						continue
					}
					p := o.GetOwnProperty(k)
					if p == nil || !p.Enumerable {
						continue
					}
					val, err := o.Get(k, o)
					if err != nil {
						return err
					}
					rest.SetData(k, val)
				}
			}
			if err := it.assignPattern(ec, t.Rest.Argument, rest); err != nil {
				return err
			}
		}
		return nil
	}
	return it.typeErr("invalid assignment target in destructuring")
}

func (it *Interpreter) patternPropertyKey(ec *EvalContext, prop ast.ObjectPatternProperty) (runtime.PropertyKey, error) {
	if !prop.Computed {
		id := prop.Key.(*ast.Identifier)
		return runtime.StringKey(id.Name), nil
	}
	v, err := it.Eval(ec, prop.Key)
	if err != nil {
		return runtime.PropertyKey{}, err
	}
	return it.toPropertyKey(v)
}

// getProperty reads a property off any value, boxing primitives through
// ToObject-equivalent behavior for the string/number/boolean cases that
// legally appear as a destructuring source (e.g. `{length} = "abc"`).
func (it *Interpreter) getProperty(v runtime.Value, key runtime.PropertyKey) (runtime.Value, error) {
	switch o := v.(type) {
	case *runtime.Object:
		return o.Get(key, o)
	case runtime.String:
		if key == runtime.StringKey("length") {
			return runtime.Number(len([]rune(string(o)))), nil
		}
		return runtime.Undefined, nil
	default:
		return runtime.Undefined, nil
	}
}

func (it *Interpreter) setIdentifier(ec *EvalContext, name string, v runtime.Value) error {
	err, found := ec.Env.Set(name, v)
	if err != nil {
		return it.typeErr(err.Error())
	}
	if !found {
		if ec.Strict {
			return it.refErr(name + " is not defined")
		}
		it.Realm.GlobalEnv.DefineVar(name)
		it.Realm.GlobalEnv.InitializeBinding(name, v)
	}
	return nil
}
