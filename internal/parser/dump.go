package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/asynkron/jsengine/internal/ast"
)

// Dump renders a parsed Program as a deterministic s-expression-shaped
// string, independent of Span/position data, so two parses of equivalent
// source produce identical output regardless of exact byte offsets. It
// exists to pin the "parse round-trip" property (SPEC_FULL.md §1.1) under
// github.com/gkampitakis/go-snaps golden tests: a snapshot of Dump's output
// catches an accidental grammar/precedence regression the same way a
// pretty-printer round-trip would, without this package needing its own
// source-emitting printer.
func Dump(prog *ast.Program) string {
	var b strings.Builder
	b.WriteString("(program")
	if prog.IsModule {
		b.WriteString(" module")
	}
	for _, s := range prog.Body {
		b.WriteString("\n  ")
		dumpStmt(&b, s, 1)
	}
	b.WriteString(")")
	return b.String()
}

func indent(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
}

func dumpStmt(b *strings.Builder, s ast.Statement, depth int) {
	switch n := s.(type) {
	case *ast.ExpressionStatement:
		b.WriteString("(expr ")
		dumpExpr(b, n.Expression)
		b.WriteString(")")
	case *ast.VariableDeclaration:
		b.WriteString("(" + n.Kind.String())
		for _, d := range n.Declarations {
			b.WriteString(" (")
			dumpPattern(b, d.Target)
			if d.Init != nil {
				b.WriteString(" = ")
				dumpExpr(b, d.Init)
			}
			b.WriteString(")")
		}
		b.WriteString(")")
	case *ast.FunctionDeclaration:
		name := "<anon>"
		if n.Name != nil {
			name = n.Name.Name
		}
		b.WriteString(fmt.Sprintf("(function %s (%s)", name, dumpParams(n.Params)))
		dumpBlockChildren(b, n.Body, depth)
		b.WriteString(")")
	case *ast.BlockStatement:
		b.WriteString("(block")
		dumpBlockChildren(b, n, depth)
		b.WriteString(")")
	case *ast.IfStatement:
		b.WriteString("(if ")
		dumpExpr(b, n.Test)
		b.WriteString("\n")
		indent(b, depth+1)
		dumpStmt(b, n.Consequent, depth+1)
		if n.Alternate != nil {
			b.WriteString("\n")
			indent(b, depth+1)
			dumpStmt(b, n.Alternate, depth+1)
		}
		b.WriteString(")")
	case *ast.ReturnStatement:
		b.WriteString("(return")
		if n.Argument != nil {
			b.WriteString(" ")
			dumpExpr(b, n.Argument)
		}
		b.WriteString(")")
	case *ast.WhileStatement:
		b.WriteString("(while ")
		dumpExpr(b, n.Test)
		b.WriteString("\n")
		indent(b, depth+1)
		dumpStmt(b, n.Body, depth+1)
		b.WriteString(")")
	case *ast.EmptyStatement:
		b.WriteString("(empty)")
	default:
		b.WriteString(fmt.Sprintf("(%T)", s))
	}
}

func dumpBlockChildren(b *strings.Builder, block *ast.BlockStatement, depth int) {
	for _, s := range block.Body {
		b.WriteString("\n")
		indent(b, depth+1)
		dumpStmt(b, s, depth+1)
	}
}

func dumpParams(params []ast.Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		var name strings.Builder
		dumpPattern(&name, p.Pattern)
		parts[i] = name.String()
	}
	return strings.Join(parts, " ")
}

func dumpPattern(b *strings.Builder, p ast.Pattern) {
	switch n := p.(type) {
	case *ast.Identifier:
		b.WriteString(n.Name)
	default:
		b.WriteString(fmt.Sprintf("%T", p))
	}
}

func dumpExpr(b *strings.Builder, e ast.Expression) {
	switch n := e.(type) {
	case *ast.Identifier:
		b.WriteString(n.Name)
	case *ast.NumberLiteral:
		b.WriteString(strconv.FormatFloat(n.Value, 'g', -1, 64))
	case *ast.StringLiteral:
		b.WriteString(strconv.Quote(n.Value))
	case *ast.BooleanLiteral:
		b.WriteString(strconv.FormatBool(n.Value))
	case *ast.NullLiteral:
		b.WriteString("null")
	case *ast.ThisExpression:
		b.WriteString("this")
	case *ast.BinaryExpression:
		b.WriteString("(" + n.Operator + " ")
		dumpExpr(b, n.Left)
		b.WriteString(" ")
		dumpExpr(b, n.Right)
		b.WriteString(")")
	case *ast.LogicalExpression:
		b.WriteString("(" + n.Operator + " ")
		dumpExpr(b, n.Left)
		b.WriteString(" ")
		dumpExpr(b, n.Right)
		b.WriteString(")")
	case *ast.UnaryExpression:
		b.WriteString("(" + n.Operator + " ")
		dumpExpr(b, n.Argument)
		b.WriteString(")")
	case *ast.AssignmentExpression:
		b.WriteString("(" + n.Operator + " ")
		dumpExpr(b, n.Target)
		b.WriteString(" ")
		dumpExpr(b, n.Value)
		b.WriteString(")")
	case *ast.ConditionalExpression:
		b.WriteString("(? ")
		dumpExpr(b, n.Test)
		b.WriteString(" ")
		dumpExpr(b, n.Consequent)
		b.WriteString(" ")
		dumpExpr(b, n.Alternate)
		b.WriteString(")")
	case *ast.CallExpression:
		b.WriteString("(call ")
		dumpExpr(b, n.Callee)
		for _, a := range n.Arguments {
			b.WriteString(" ")
			dumpExpr(b, a)
		}
		b.WriteString(")")
	case *ast.MemberExpression:
		b.WriteString("(member ")
		dumpExpr(b, n.Object)
		b.WriteString(".")
		dumpExpr(b, n.Property)
		b.WriteString(")")
	case *ast.ArrayLiteral:
		b.WriteString("(array")
		for _, el := range n.Elements {
			b.WriteString(" ")
			if el == nil {
				b.WriteString("<elision>")
				continue
			}
			dumpExpr(b, el)
		}
		b.WriteString(")")
	default:
		b.WriteString(fmt.Sprintf("%T", e))
	}
}
