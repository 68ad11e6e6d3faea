package interp

import (
	"github.com/asynkron/jsengine/internal/ast"
	"github.com/asynkron/jsengine/internal/runtime"
)

// ExecProgram runs a whole parsed (and transform-annotated) Program: hoists
// its top-level var/function declarations, then executes its statement
// list, returning the value of the last ExpressionStatement (the
// Evaluate/EvaluateModule completion value, spec.md §6.1).
func (it *Interpreter) ExecProgram(ec *EvalContext, prog *ast.Program) (runtime.Value, error) {
	it.hoistDeclarations(ec, prog.HoistedVars, prog.HoistedFuncs)
	var last runtime.Value = runtime.Undefined
	for _, stmt := range prog.Body {
		if es, ok := stmt.(*ast.ExpressionStatement); ok {
			v, err := it.Eval(ec, es.Expression)
			if err != nil {
				return nil, err
			}
			last = v
			continue
		}
		comp, err := it.ExecStatement(ec, stmt)
		if err != nil {
			return nil, err
		}
		if comp.Type == Throw {
			return Throw(comp.Value)
		}
		if comp.IsAbrupt() {
			break
		}
	}
	return last, nil
}

// hoistDeclarations pre-binds every `var` name (to Undefined) and every
// hoisted function declaration (to its fully-initialized closure) before a
// function/program body runs (spec.md §4.4 "Hoisting").
func (it *Interpreter) hoistDeclarations(ec *EvalContext, vars []string, funcs []*ast.FunctionDeclaration) {
	for _, name := range vars {
		ec.Env.DefineVar(name)
	}
	for _, fd := range funcs {
		fn := it.NewFunction(ec, it.makeUserFunction(ec, fd.Name, fd.Params, fd.Body, nil, fd.IsAsync, fd.IsGenerator, fd.IsStrict, fd))
		ec.Env.DefineVar(fd.Name.Name)
		ec.Env.InitializeBinding(fd.Name.Name, fn)
	}
}

func (it *Interpreter) makeUserFunction(ec *EvalContext, name *ast.Identifier, params []ast.Param, body *ast.BlockStatement, exprBody ast.Expression, isAsync, isGenerator, isStrict bool, node ast.Node) *userFunction {
	kind := kindNormal
	switch {
	case isAsync && isGenerator:
		kind = kindAsyncGenerator
	case isAsync:
		kind = kindAsync
	case isGenerator:
		kind = kindGenerator
	}
	nm := ""
	if name != nil {
		nm = name.Name
	}
	return &userFunction{
		Name:     nm,
		Params:   params,
		Body:     body,
		ExprBody: exprBody,
		Closure:  ec.Env,
		Strict:   isStrict || ec.Strict,
		Kind:     kind,
		bodyNode: node,
	}
}

// ExecBlockBody runs a statement list in the current Environment without
// opening a new lexical scope (the caller already did, e.g. a function
// body or the top of a block), returning the composed Completion.
func (it *Interpreter) ExecBlockBody(ec *EvalContext, body []ast.Statement) (Completion, error) {
	for _, stmt := range body {
		comp, err := it.ExecStatement(ec, stmt)
		if err != nil {
			return Completion{}, err
		}
		if comp.IsAbrupt() {
			return comp, nil
		}
	}
	return NormalCompletion, nil
}

// ExecStatement dispatches on the concrete Statement type, returning a
// Completion (spec.md §4.5 "Control-flow signals").
func (it *Interpreter) ExecStatement(ec *EvalContext, stmt ast.Statement) (Completion, error) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		_, err := it.Eval(ec, s.Expression)
		if err != nil {
			return it.asThrow(err)
		}
		return NormalCompletion, nil

	case *ast.EmptyStatement, *ast.DebuggerStatement:
		return NormalCompletion, nil

	case *ast.BlockStatement:
		blockEC := ec.Child(runtime.NewEnclosedEnvironment(ec.Env))
		it.declareLexical(blockEC, s.Body)
		return it.ExecBlockBody(blockEC, s.Body)

	case *ast.VariableDeclaration:
		return it.execVarDecl(ec, s)

	case *ast.FunctionDeclaration:
		return NormalCompletion, nil // already bound during hoisting

	case *ast.ClassDeclaration:
		cls, err := it.evalClass(ec, s.Name, s.SuperClass, s.Members)
		if err != nil {
			return it.asThrow(err)
		}
		ec.Env.DefineLexical(s.Name.Name, false)
		ec.Env.InitializeBinding(s.Name.Name, cls)
		return NormalCompletion, nil

	case *ast.IfStatement:
		return it.execIf(ec, s)

	case *ast.WhileStatement:
		return it.execWhile(ec, s, "")

	case *ast.DoWhileStatement:
		return it.execDoWhile(ec, s, "")

	case *ast.ForStatement:
		return it.execFor(ec, s, "")

	case *ast.ForInStatement:
		return it.execForInOf(ec, s, "")

	case *ast.SwitchStatement:
		return it.execSwitch(ec, s)

	case *ast.LabeledStatement:
		return it.execLabeled(ec, s)

	case *ast.BreakStatement:
		return BreakCompletion(s.Label), nil

	case *ast.ContinueStatement:
		return ContinueCompletion(s.Label), nil

	case *ast.ReturnStatement:
		var v runtime.Value = runtime.Undefined
		if s.Argument != nil {
			val, err := it.Eval(ec, s.Argument)
			if err != nil {
				return it.asThrow(err)
			}
			v = val
		}
		return ReturnCompletion(v), nil

	case *ast.ThrowStatement:
		v, err := it.Eval(ec, s.Argument)
		if err != nil {
			return it.asThrow(err)
		}
		return ThrowCompletion(v), nil

	case *ast.TryStatement:
		return it.execTry(ec, s)

	case *ast.WithStatement:
		return it.execWith(ec, s)

	case *ast.ImportDeclaration:
		return it.execImportDeclaration(ec, s)

	case *ast.ExportNamedDeclaration:
		return it.execExportNamedDeclaration(ec, s)

	case *ast.ExportDefaultDeclaration:
		return it.execExportDefaultDeclaration(ec, s)

	case *ast.ExportAllDeclaration:
		return it.execExportAllDeclaration(ec, s)

	default:
		return Completion{}, it.typeErr("unsupported statement type")
	}
}

// asThrow unwraps a *ThrownError into a Throw Completion; any other Go
// error (context cancellation) propagates as a real error instead.
func (it *Interpreter) asThrow(err error) (Completion, error) {
	if te, ok := err.(*ThrownError); ok {
		return ThrowCompletion(te.Value), nil
	}
	return Completion{}, err
}

// declareLexical pre-declares (in TDZ) every let/const/class name directly
// in this block, so forward references inside the same block correctly
// observe the TDZ rather than falling through to an outer binding.
func (it *Interpreter) declareLexical(ec *EvalContext, body []ast.Statement) {
	for _, stmt := range body {
		switch s := stmt.(type) {
		case *ast.VariableDeclaration:
			if s.Kind == ast.Var {
				continue
			}
			for _, d := range s.Declarations {
				collectPatternNames(d.Target, func(n string) {
					ec.Env.DefineLexical(n, s.Kind == ast.Const)
				})
			}
		case *ast.ClassDeclaration:
			ec.Env.DefineLexical(s.Name.Name, false)
		case *ast.FunctionDeclaration:
			// function declarations inside a block are block-scoped in
			// strict mode; bind them eagerly so forward calls work.
			fn := it.makeUserFunction(ec, s.Name, s.Params, s.Body, nil, s.IsAsync, s.IsGenerator, s.IsStrict, s)
			ec.Env.DefineLexical(s.Name.Name, false)
			ec.Env.InitializeBinding(s.Name.Name, it.NewFunction(ec, fn))
		}
	}
}

func collectPatternNames(p ast.Pattern, add func(string)) {
	switch t := p.(type) {
	case *ast.Identifier:
		add(t.Name)
	case *ast.ArrayPattern:
		for _, el := range t.Elements {
			if el != nil {
				collectPatternNames(el, add)
			}
		}
	case *ast.ObjectPattern:
		for _, prop := range t.Properties {
			collectPatternNames(prop.Value, add)
		}
		if t.Rest != nil {
			collectPatternNames(t.Rest, add)
		}
	case *ast.RestElement:
		collectPatternNames(t.Argument, add)
	case *ast.AssignmentPattern:
		collectPatternNames(t.Target, add)
	}
}

func (it *Interpreter) execVarDecl(ec *EvalContext, s *ast.VariableDeclaration) (Completion, error) {
	for _, d := range s.Declarations {
		var v runtime.Value = runtime.Undefined
		if d.Init != nil {
			val, err := it.Eval(ec, d.Init)
			if err != nil {
				return it.asThrow(err)
			}
			v = val
		} else if s.Kind != ast.Var {
			// let/const without initializer still needs an Undefined
			// binding rather than leaving TDZ in place.
		}
		if s.Kind == ast.Var {
			if d.Init != nil {
				if err := it.bindPattern(ec, d.Target, v, false); err != nil {
					return it.asThrow(err)
				}
			}
			continue
		}
		if err := it.bindPattern(ec, d.Target, v, true); err != nil {
			return it.asThrow(err)
		}
	}
	return NormalCompletion, nil
}

func (it *Interpreter) execIf(ec *EvalContext, s *ast.IfStatement) (Completion, error) {
	test, err := it.Eval(ec, s.Test)
	if err != nil {
		return it.asThrow(err)
	}
	if it.ToBoolean(test) {
		return it.ExecStatement(ec, s.Consequent)
	}
	if s.Alternate != nil {
		return it.ExecStatement(ec, s.Alternate)
	}
	return NormalCompletion, nil
}

func matchesLabel(comp Completion, label string) bool {
	return comp.Label == "" || comp.Label == label
}

func (it *Interpreter) execWhile(ec *EvalContext, s *ast.WhileStatement, label string) (Completion, error) {
	for {
		test, err := it.Eval(ec, s.Test)
		if err != nil {
			return it.asThrow(err)
		}
		if !it.ToBoolean(test) {
			return NormalCompletion, nil
		}
		comp, err := it.ExecStatement(ec, s.Body)
		if err != nil {
			return Completion{}, err
		}
		switch comp.Type {
		case Break:
			if matchesLabel(comp, label) {
				return NormalCompletion, nil
			}
			return comp, nil
		case Continue:
			if !matchesLabel(comp, label) {
				return comp, nil
			}
		case Return, Throw:
			return comp, nil
		}
	}
}

func (it *Interpreter) execDoWhile(ec *EvalContext, s *ast.DoWhileStatement, label string) (Completion, error) {
	for {
		comp, err := it.ExecStatement(ec, s.Body)
		if err != nil {
			return Completion{}, err
		}
		switch comp.Type {
		case Break:
			if matchesLabel(comp, label) {
				return NormalCompletion, nil
			}
			return comp, nil
		case Continue:
			if !matchesLabel(comp, label) {
				return comp, nil
			}
		case Return, Throw:
			return comp, nil
		}
		test, err := it.Eval(ec, s.Test)
		if err != nil {
			return it.asThrow(err)
		}
		if !it.ToBoolean(test) {
			return NormalCompletion, nil
		}
	}
}

func (it *Interpreter) execFor(ec *EvalContext, s *ast.ForStatement, label string) (Completion, error) {
	loopEC := ec.Child(runtime.NewEnclosedEnvironment(ec.Env))
	if s.Init != nil {
		if vd, ok := s.Init.(*ast.VariableDeclaration); ok {
			if vd.Kind != ast.Var {
				for _, d := range vd.Declarations {
					collectPatternNames(d.Target, func(n string) { loopEC.Env.DefineLexical(n, vd.Kind == ast.Const) })
				}
			}
			if _, err := it.ExecStatement(loopEC, vd); err != nil {
				return Completion{}, err
			}
		} else if expr, ok := s.Init.(ast.Expression); ok {
			if _, err := it.Eval(loopEC, expr); err != nil {
				return it.asThrow(err)
			}
		}
	}
	for {
		if s.Test != nil {
			test, err := it.Eval(loopEC, s.Test)
			if err != nil {
				return it.asThrow(err)
			}
			if !it.ToBoolean(test) {
				return NormalCompletion, nil
			}
		}
		comp, err := it.ExecStatement(loopEC, s.Body)
		if err != nil {
			return Completion{}, err
		}
		switch comp.Type {
		case Break:
			if matchesLabel(comp, label) {
				return NormalCompletion, nil
			}
			return comp, nil
		case Continue:
			if !matchesLabel(comp, label) {
				return comp, nil
			}
		case Return, Throw:
			return comp, nil
		}
		if s.Update != nil {
			if _, err := it.Eval(loopEC, s.Update); err != nil {
				return it.asThrow(err)
			}
		}
	}
}

func (it *Interpreter) execLabeled(ec *EvalContext, s *ast.LabeledStatement) (Completion, error) {
	switch body := s.Body.(type) {
	case *ast.WhileStatement:
		return it.execWhile(ec, body, s.Label)
	case *ast.DoWhileStatement:
		return it.execDoWhile(ec, body, s.Label)
	case *ast.ForStatement:
		return it.execFor(ec, body, s.Label)
	case *ast.ForInStatement:
		return it.execForInOf(ec, body, s.Label)
	default:
		comp, err := it.ExecStatement(ec, s.Body)
		if err != nil {
			return Completion{}, err
		}
		if comp.Type == Break && comp.Label == s.Label {
			return NormalCompletion, nil
		}
		return comp, nil
	}
}

func (it *Interpreter) execSwitch(ec *EvalContext, s *ast.SwitchStatement) (Completion, error) {
	disc, err := it.Eval(ec, s.Discriminant)
	if err != nil {
		return it.asThrow(err)
	}
	switchEC := ec.Child(runtime.NewEnclosedEnvironment(ec.Env))
	for _, c := range s.Cases {
		it.declareLexical(switchEC, c.Consequent)
	}
	matched := -1
	for i, c := range s.Cases {
		if c.Test == nil {
			continue
		}
		tv, err := it.Eval(switchEC, c.Test)
		if err != nil {
			return it.asThrow(err)
		}
		if it.StrictEquals(disc, tv) {
			matched = i
			break
		}
	}
	if matched == -1 {
		for i, c := range s.Cases {
			if c.Test == nil {
				matched = i
				break
			}
		}
	}
	if matched == -1 {
		return NormalCompletion, nil
	}
	for i := matched; i < len(s.Cases); i++ {
		comp, err := it.ExecBlockBody(switchEC, s.Cases[i].Consequent)
		if err != nil {
			return Completion{}, err
		}
		if comp.Type == Break && comp.Label == "" {
			return NormalCompletion, nil
		}
		if comp.IsAbrupt() {
			return comp, nil
		}
	}
	return NormalCompletion, nil
}

func (it *Interpreter) execTry(ec *EvalContext, s *ast.TryStatement) (Completion, error) {
	blockEC := ec.Child(runtime.NewEnclosedEnvironment(ec.Env))
	it.declareLexical(blockEC, s.Block.Body)
	comp, err := it.ExecBlockBody(blockEC, s.Block.Body)
	if err != nil {
		if s.Finalizer == nil {
			return Completion{}, err
		}
		// A non-JS Go error (context cancellation) still must run finally,
		// but it isn't representable as a Completion; run finally for
		// effect and re-raise.
		fc, ferr := it.execFinally(ec, s.Finalizer)
		if ferr != nil {
			return Completion{}, ferr
		}
		if fc.IsAbrupt() {
			return fc, nil
		}
		return Completion{}, err
	}

	if comp.Type == Throw && s.Handler != nil {
		catchEC := ec.Child(runtime.NewEnclosedEnvironment(ec.Env))
		if s.Handler.Param != nil {
			collectPatternNames(s.Handler.Param, func(n string) { catchEC.Env.DefineLexical(n, false) })
			if err := it.bindPattern(catchEC, s.Handler.Param, comp.Value, true); err != nil {
				return it.asThrow(err)
			}
		}
		it.declareLexical(catchEC, s.Handler.Body.Body)
		comp, err = it.ExecBlockBody(catchEC, s.Handler.Body.Body)
		if err != nil {
			return Completion{}, err
		}
	}

	if s.Finalizer != nil {
		fc, ferr := it.execFinally(ec, s.Finalizer)
		if ferr != nil {
			return Completion{}, ferr
		}
		if fc.IsAbrupt() {
			return fc, nil // finally's completion overrides try/catch's
		}
	}
	return comp, nil
}

func (it *Interpreter) execFinally(ec *EvalContext, block *ast.BlockStatement) (Completion, error) {
	finEC := ec.Child(runtime.NewEnclosedEnvironment(ec.Env))
	it.declareLexical(finEC, block.Body)
	return it.ExecBlockBody(finEC, block.Body)
}

func (it *Interpreter) execWith(ec *EvalContext, s *ast.WithStatement) (Completion, error) {
	obj, err := it.Eval(ec, s.Object)
	if err != nil {
		return it.asThrow(err)
	}
	o, ok := obj.(*runtime.Object)
	if !ok {
		return it.asThrow(it.typeErr("Cannot convert value to object for 'with' statement"))
	}
	withEC := ec.Child(runtime.NewWithEnvironment(ec.Env, o))
	return it.ExecStatement(withEC, s.Body)
}
