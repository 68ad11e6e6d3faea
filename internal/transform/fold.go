package transform

import "github.com/asynkron/jsengine/internal/ast"

// foldProgram rewrites constant-foldable subtrees in place: arithmetic on
// two number literals, string concatenation of two string literals, and
// negation/logical-not of a literal. This mirrors the teacher's
// PassConstPropagation bytecode pass, applied at the AST level instead of
// bytecode (spec.md's evaluator has no bytecode stage).
func foldProgram(prog *ast.Program) {
	for i, s := range prog.Body {
		prog.Body[i] = foldStatement(s)
	}
}

func foldStatement(s ast.Statement) ast.Statement {
	switch v := s.(type) {
	case *ast.ExpressionStatement:
		v.Expression = foldExpr(v.Expression)
	case *ast.BlockStatement:
		for i, s2 := range v.Body {
			v.Body[i] = foldStatement(s2)
		}
	case *ast.IfStatement:
		v.Test = foldExpr(v.Test)
		v.Consequent = foldStatement(v.Consequent)
		if v.Alternate != nil {
			v.Alternate = foldStatement(v.Alternate)
		}
	case *ast.ForStatement:
		if v.Test != nil {
			v.Test = foldExpr(v.Test)
		}
		if v.Update != nil {
			v.Update = foldExpr(v.Update)
		}
		v.Body = foldStatement(v.Body)
	case *ast.WhileStatement:
		v.Test = foldExpr(v.Test)
		v.Body = foldStatement(v.Body)
	case *ast.DoWhileStatement:
		v.Test = foldExpr(v.Test)
		v.Body = foldStatement(v.Body)
	case *ast.ReturnStatement:
		if v.Argument != nil {
			v.Argument = foldExpr(v.Argument)
		}
	case *ast.VariableDeclaration:
		for i := range v.Declarations {
			if v.Declarations[i].Init != nil {
				v.Declarations[i].Init = foldExpr(v.Declarations[i].Init)
			}
		}
	case *ast.FunctionDeclaration:
		for i, s2 := range v.Body.Body {
			v.Body.Body[i] = foldStatement(s2)
		}
	}
	return s
}

func foldExpr(e ast.Expression) ast.Expression {
	switch v := e.(type) {
	case *ast.BinaryExpression:
		v.Left = foldExpr(v.Left)
		v.Right = foldExpr(v.Right)
		if folded := tryFoldBinary(v); folded != nil {
			return folded
		}
	case *ast.UnaryExpression:
		v.Argument = foldExpr(v.Argument)
		if folded := tryFoldUnary(v); folded != nil {
			return folded
		}
	case *ast.LogicalExpression:
		v.Left = foldExpr(v.Left)
		v.Right = foldExpr(v.Right)
	case *ast.ConditionalExpression:
		v.Test = foldExpr(v.Test)
		v.Consequent = foldExpr(v.Consequent)
		v.Alternate = foldExpr(v.Alternate)
	case *ast.AssignmentExpression:
		v.Value = foldExpr(v.Value)
	case *ast.CallExpression:
		v.Callee = foldExpr(v.Callee)
		for i, a := range v.Arguments {
			v.Arguments[i] = foldExpr(a)
		}
	case *ast.ArrayLiteral:
		for i, el := range v.Elements {
			if el != nil {
				v.Elements[i] = foldExpr(el)
			}
		}
	}
	return e
}

func tryFoldBinary(b *ast.BinaryExpression) ast.Expression {
	ln, lok := b.Left.(*ast.NumberLiteral)
	rn, rok := b.Right.(*ast.NumberLiteral)
	if lok && rok {
		if v, ok := foldNumericOp(b.Operator, ln.Value, rn.Value); ok {
			return &ast.NumberLiteral{Base: ast.NewBase(b.Span()), Value: v}
		}
	}
	ls, lsok := b.Left.(*ast.StringLiteral)
	rs, rsok := b.Right.(*ast.StringLiteral)
	if lsok && rsok && b.Operator == "+" {
		return &ast.StringLiteral{Base: ast.NewBase(b.Span()), Value: ls.Value + rs.Value}
	}
	return nil
}

func foldNumericOp(op string, l, r float64) (float64, bool) {
	switch op {
	case "+":
		return l + r, true
	case "-":
		return l - r, true
	case "*":
		return l * r, true
	case "/":
		return l / r, true
	case "%":
		return foldMod(l, r), true
	case "**":
		return foldPow(l, r)
	}
	return 0, false
}

func foldMod(l, r float64) float64 {
	if r == 0 {
		return jsNaN()
	}
	q := float64(int64(l / r))
	return l - q*r
}

// foldPow folds integer exponents only; fractional exponents are left
// unfolded so math.Pow's NaN/Inf edge cases are handled once, at evaluation
// time, instead of being duplicated here.
func foldPow(base, exp float64) (float64, bool) {
	neg := exp < 0
	n := exp
	if neg {
		n = -n
	}
	whole := int64(n)
	if float64(whole) != n || whole > 1<<20 {
		return 0, false
	}
	result := 1.0
	for i := int64(0); i < whole; i++ {
		result *= base
	}
	if neg {
		return 1 / result, true
	}
	return result, true
}

func jsNaN() float64 {
	var zero float64
	return zero / zero
}

func tryFoldUnary(u *ast.UnaryExpression) ast.Expression {
	switch arg := u.Argument.(type) {
	case *ast.NumberLiteral:
		switch u.Operator {
		case "-":
			return &ast.NumberLiteral{Base: ast.NewBase(u.Span()), Value: -arg.Value}
		case "+":
			return &ast.NumberLiteral{Base: ast.NewBase(u.Span()), Value: arg.Value}
		}
	case *ast.BooleanLiteral:
		if u.Operator == "!" {
			return &ast.BooleanLiteral{Base: ast.NewBase(u.Span()), Value: !arg.Value}
		}
	}
	return nil
}
