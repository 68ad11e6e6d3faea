package transform

import "github.com/asynkron/jsengine/internal/ast"

// lowerProgram computes hoisting information for the program and every
// nested function body. `var` declarations and function declarations hoist
// to the nearest function (or Program) scope, diving into nested blocks,
// for-heads, and try/catch/switch bodies but never into a nested function
// or arrow body (spec.md §3.3).
func lowerProgram(prog *ast.Program, _ config) {
	vars, funcs := collectHoists(prog.Body)
	prog.HoistedVars = vars
	prog.HoistedFuncs = funcs
	hoistNestedFunctions(prog.Body)
}

// hoistNestedFunctions recurses into every function-valued node reachable
// from stmts and fills in its own hoisting info, without crossing into
// functions nested inside those.
func hoistNestedFunctions(stmts []ast.Statement) {
	for _, s := range stmts {
		walkStmtForFunctions(s)
	}
}

func walkStmtForFunctions(s ast.Statement) {
	switch v := s.(type) {
	case *ast.FunctionDeclaration:
		hoistFunctionBody(v.Body, &v.HoistedVars, &v.HoistedFuncs)
	case *ast.BlockStatement:
		hoistNestedFunctions(v.Body)
	case *ast.IfStatement:
		walkStmtForFunctions(v.Consequent)
		if v.Alternate != nil {
			walkStmtForFunctions(v.Alternate)
		}
		walkExprForFunctions(v.Test)
	case *ast.ForStatement:
		walkStmtForFunctions(v.Body)
	case *ast.ForInStatement:
		walkStmtForFunctions(v.Body)
	case *ast.WhileStatement:
		walkStmtForFunctions(v.Body)
	case *ast.DoWhileStatement:
		walkStmtForFunctions(v.Body)
	case *ast.LabeledStatement:
		walkStmtForFunctions(v.Body)
	case *ast.WithStatement:
		walkStmtForFunctions(v.Body)
	case *ast.TryStatement:
		hoistNestedFunctions(v.Block.Body)
		if v.Handler != nil {
			hoistNestedFunctions(v.Handler.Body.Body)
		}
		if v.Finalizer != nil {
			hoistNestedFunctions(v.Finalizer.Body)
		}
	case *ast.SwitchStatement:
		for _, c := range v.Cases {
			hoistNestedFunctions(c.Consequent)
		}
	case *ast.ExpressionStatement:
		walkExprForFunctions(v.Expression)
	case *ast.VariableDeclaration:
		for _, d := range v.Declarations {
			if d.Init != nil {
				walkExprForFunctions(d.Init)
			}
		}
	case *ast.ReturnStatement:
		if v.Argument != nil {
			walkExprForFunctions(v.Argument)
		}
	case *ast.ClassDeclaration:
		for _, m := range v.Members {
			if fn, ok := m.Value.(*ast.FunctionExpression); ok {
				hoistFunctionBody(fn.Body, &fn.HoistedVars, &fn.HoistedFuncs)
			}
		}
	}
}

// walkExprForFunctions finds function expressions nested in expression
// position (IIFEs, callback arguments, assigned closures) so they get their
// own hoisting info too.
func walkExprForFunctions(e ast.Expression) {
	switch v := e.(type) {
	case *ast.FunctionExpression:
		hoistFunctionBody(v.Body, &v.HoistedVars, &v.HoistedFuncs)
	case *ast.ArrowFunctionExpression:
		if v.Body != nil {
			hoistFunctionBody(v.Body, &v.HoistedVars, &v.HoistedFuncs)
		} else if v.ExprBody != nil {
			walkExprForFunctions(v.ExprBody)
		}
	case *ast.CallExpression:
		walkExprForFunctions(v.Callee)
		for _, a := range v.Arguments {
			walkExprForFunctions(a)
		}
	case *ast.NewExpression:
		if v.Callee != nil {
			walkExprForFunctions(v.Callee)
		}
		for _, a := range v.Arguments {
			walkExprForFunctions(a)
		}
	case *ast.BinaryExpression:
		walkExprForFunctions(v.Left)
		walkExprForFunctions(v.Right)
	case *ast.LogicalExpression:
		walkExprForFunctions(v.Left)
		walkExprForFunctions(v.Right)
	case *ast.AssignmentExpression:
		walkExprForFunctions(v.Value)
	case *ast.ConditionalExpression:
		walkExprForFunctions(v.Test)
		walkExprForFunctions(v.Consequent)
		walkExprForFunctions(v.Alternate)
	case *ast.SequenceExpression:
		for _, e := range v.Expressions {
			walkExprForFunctions(e)
		}
	case *ast.MemberExpression:
		walkExprForFunctions(v.Object)
	case *ast.ArrayLiteral:
		for _, e := range v.Elements {
			if e != nil {
				walkExprForFunctions(e)
			}
		}
	case *ast.ObjectLiteral:
		for _, p := range v.Properties {
			if p.Value != nil {
				walkExprForFunctions(p.Value)
			}
		}
	}
}

func hoistFunctionBody(body *ast.BlockStatement, outVars *[]string, outFuncs *[]*ast.FunctionDeclaration) {
	vars, funcs := collectHoists(body.Body)
	*outVars = vars
	*outFuncs = funcs
	hoistNestedFunctions(body.Body)
}

// collectHoists gathers every `var`-declared name and function declaration
// directly in scope of stmts, descending into nested blocks/loops/try but
// not into nested functions.
func collectHoists(stmts []ast.Statement) ([]string, []*ast.FunctionDeclaration) {
	var vars []string
	var funcs []*ast.FunctionDeclaration
	seen := make(map[string]bool)

	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			vars = append(vars, name)
		}
	}

	var walk func(s ast.Statement)
	walk = func(s ast.Statement) {
		switch v := s.(type) {
		case *ast.VariableDeclaration:
			if v.Kind == ast.Var {
				for _, d := range v.Declarations {
					collectPatternNames(d.Target, add)
				}
			}
		case *ast.FunctionDeclaration:
			funcs = append(funcs, v)
			if v.Name != nil {
				add(v.Name.Name)
			}
		case *ast.BlockStatement:
			for _, s2 := range v.Body {
				walk(s2)
			}
		case *ast.IfStatement:
			walk(v.Consequent)
			if v.Alternate != nil {
				walk(v.Alternate)
			}
		case *ast.ForStatement:
			if decl, ok := v.Init.(*ast.VariableDeclaration); ok && decl.Kind == ast.Var {
				for _, d := range decl.Declarations {
					collectPatternNames(d.Target, add)
				}
			}
			walk(v.Body)
		case *ast.ForInStatement:
			if decl, ok := v.Left.(*ast.VariableDeclaration); ok && decl.Kind == ast.Var {
				for _, d := range decl.Declarations {
					collectPatternNames(d.Target, add)
				}
			}
			walk(v.Body)
		case *ast.WhileStatement:
			walk(v.Body)
		case *ast.DoWhileStatement:
			walk(v.Body)
		case *ast.LabeledStatement:
			walk(v.Body)
		case *ast.WithStatement:
			walk(v.Body)
		case *ast.TryStatement:
			for _, s2 := range v.Block.Body {
				walk(s2)
			}
			if v.Handler != nil {
				for _, s2 := range v.Handler.Body.Body {
					walk(s2)
				}
			}
			if v.Finalizer != nil {
				for _, s2 := range v.Finalizer.Body {
					walk(s2)
				}
			}
		case *ast.SwitchStatement:
			for _, c := range v.Cases {
				for _, s2 := range c.Consequent {
					walk(s2)
				}
			}
		}
	}

	for _, s := range stmts {
		walk(s)
	}
	return vars, funcs
}

func collectPatternNames(p ast.Pattern, add func(string)) {
	switch v := p.(type) {
	case *ast.Identifier:
		add(v.Name)
	case *ast.ArrayPattern:
		for _, e := range v.Elements {
			if e != nil {
				collectPatternNames(e, add)
			}
		}
	case *ast.ObjectPattern:
		for _, prop := range v.Properties {
			collectPatternNames(prop.Value, add)
		}
		if v.Rest != nil {
			collectPatternNames(v.Rest.Argument, add)
		}
	case *ast.RestElement:
		collectPatternNames(v.Argument, add)
	case *ast.AssignmentPattern:
		collectPatternNames(v.Target, add)
	}
}
