package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/asynkron/jsengine/internal/ast"
)

func parseScript(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := New(src, Options{})
	prog := p.ParseProgram()
	require.Empty(t, p.Errors(), "unexpected parse errors: %v", p.Errors())
	return prog
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"5;", 5},
		{"10;", 10},
		{"0;", 0},
		{"0x1F;", 31},
		{"0b101;", 5},
		{"1_000;", 1000},
	}
	for _, tt := range tests {
		prog := parseScript(t, tt.input)
		require.Len(t, prog.Body, 1)
		stmt, ok := prog.Body[0].(*ast.ExpressionStatement)
		require.True(t, ok, "got %T", prog.Body[0])
		lit, ok := stmt.Expression.(*ast.NumberLiteral)
		require.True(t, ok, "got %T", stmt.Expression)
		require.Equal(t, tt.expected, lit.Value)
	}
}

func TestASINoSemicolonBeforeClosingBrace(t *testing.T) {
	prog := parseScript(t, "function f() { return\n1 }")
	require.Len(t, prog.Body, 1)
	fn, ok := prog.Body[0].(*ast.FunctionDeclaration)
	require.True(t, ok)
	require.Len(t, fn.Body.Body, 2)
	ret, ok := fn.Body.Body[0].(*ast.ReturnStatement)
	require.True(t, ok)
	require.Nil(t, ret.Argument, "ASI must insert a semicolon after 'return' before the newline")
}

func TestRegexVsDivisionDisambiguation(t *testing.T) {
	prog := parseScript(t, "a / b / c;")
	stmt := prog.Body[0].(*ast.ExpressionStatement)
	_, ok := stmt.Expression.(*ast.BinaryExpression)
	require.True(t, ok, "a/b/c must parse as division, not as a regex literal")

	prog = parseScript(t, "x = /abc/g;")
	stmt = prog.Body[0].(*ast.ExpressionStatement)
	assign := stmt.Expression.(*ast.AssignmentExpression)
	re, ok := assign.Value.(*ast.RegExpLiteral)
	require.True(t, ok, "got %T", assign.Value)
	require.Equal(t, "abc", re.Pattern)
	require.Equal(t, "g", re.Flags)
}

func TestArrowFunctionCoverGrammar(t *testing.T) {
	prog := parseScript(t, "const f = (a, b = 1, ...rest) => a + b;")
	decl := prog.Body[0].(*ast.VariableDeclaration)
	arrow, ok := decl.Declarations[0].Init.(*ast.ArrowFunctionExpression)
	require.True(t, ok)
	require.Len(t, arrow.Params, 3)
	require.True(t, arrow.Params[2].Rest)
	require.NotNil(t, arrow.ExprBody)

	prog = parseScript(t, "const g = (1, 2);")
	decl = prog.Body[0].(*ast.VariableDeclaration)
	_, ok = decl.Declarations[0].Init.(*ast.SequenceExpression)
	require.True(t, ok, "(1, 2) without '=>' must parse as a parenthesized sequence expression")
}

func TestDestructuringAssignmentTarget(t *testing.T) {
	prog := parseScript(t, "[a, {b: c}] = pair;")
	stmt := prog.Body[0].(*ast.ExpressionStatement)
	assign := stmt.Expression.(*ast.AssignmentExpression)
	arrPat, ok := assign.Target.(*ast.ArrayPattern)
	require.True(t, ok, "got %T", assign.Target)
	require.Len(t, arrPat.Elements, 2)
	_, ok = arrPat.Elements[1].(*ast.ObjectPattern)
	require.True(t, ok)
}

func TestTemplateLiteralWithSubstitution(t *testing.T) {
	prog := parseScript(t, "`a${1+1}b`;")
	stmt := prog.Body[0].(*ast.ExpressionStatement)
	tpl, ok := stmt.Expression.(*ast.TemplateLiteral)
	require.True(t, ok, "got %T", stmt.Expression)
	require.Len(t, tpl.Quasis, 2)
	require.Len(t, tpl.Expressions, 1)
	require.Equal(t, "a", tpl.Quasis[0].Cooked)
	require.Equal(t, "b", tpl.Quasis[1].Cooked)
}

func TestForOfStatement(t *testing.T) {
	prog := parseScript(t, "for (const x of xs) { sum += x; }")
	forOf, ok := prog.Body[0].(*ast.ForInStatement)
	require.True(t, ok)
	require.True(t, forOf.IsOf)
	decl, ok := forOf.Left.(*ast.VariableDeclaration)
	require.True(t, ok)
	require.Equal(t, ast.Const, decl.Kind)
}

func TestClassWithPrivateFieldAndAccessor(t *testing.T) {
	prog := parseScript(t, "class C { #x = 1; get x() { return this.#x; } static make() { return new C(); } }")
	cls, ok := prog.Body[0].(*ast.ClassDeclaration)
	require.True(t, ok)
	require.Len(t, cls.Members, 3)
	require.Equal(t, ast.FieldKind, cls.Members[0].Kind)
	require.Equal(t, ast.GetterKind, cls.Members[1].Kind)
	require.True(t, cls.Members[2].Static)
}

func TestImportExportDeclarations(t *testing.T) {
	p := New(`import Default, { a as b } from "mod"; export const z = 1; export default function named() {}`, Options{IsModule: true})
	prog := p.ParseProgram()
	require.Empty(t, p.Errors())
	require.Len(t, prog.Body, 3)

	imp, ok := prog.Body[0].(*ast.ImportDeclaration)
	require.True(t, ok)
	require.Equal(t, "Default", imp.Default)
	require.Equal(t, "mod", imp.Source)
	require.Len(t, imp.Named, 1)
	require.Equal(t, "a", imp.Named[0].Imported)
	require.Equal(t, "b", imp.Named[0].Local)

	_, ok = prog.Body[1].(*ast.ExportNamedDeclaration)
	require.True(t, ok)
	_, ok = prog.Body[2].(*ast.ExportDefaultDeclaration)
	require.True(t, ok)
}

func TestMissingCatchOrFinallyIsAnError(t *testing.T) {
	p := New("try { f(); }", Options{})
	p.ParseProgram()
	require.NotEmpty(t, p.Errors())
}
