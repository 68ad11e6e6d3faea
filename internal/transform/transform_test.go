package transform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/asynkron/jsengine/internal/ast"
	"github.com/asynkron/jsengine/internal/parser"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := parser.New(src, parser.Options{})
	prog := p.ParseProgram()
	require.Empty(t, p.Errors())
	return prog
}

func TestConstantFoldsArithmetic(t *testing.T) {
	prog := parse(t, "var x = 1 + 2 * 3;")
	Program(prog)
	decl := prog.Body[0].(*ast.VariableDeclaration)
	lit, ok := decl.Declarations[0].Init.(*ast.NumberLiteral)
	require.True(t, ok, "got %T", decl.Declarations[0].Init)
	require.Equal(t, float64(7), lit.Value)
}

func TestConstantFoldLeavesNonLiteralsAlone(t *testing.T) {
	prog := parse(t, "var x = a + 1;")
	Program(prog)
	decl := prog.Body[0].(*ast.VariableDeclaration)
	_, ok := decl.Declarations[0].Init.(*ast.BinaryExpression)
	require.True(t, ok)
}

func TestHoistingCollectsVarAndFunctionDeclarations(t *testing.T) {
	prog := parse(t, `
		var a = 1;
		function f() {}
		if (true) { var b = 2; }
		for (var i = 0; i < 1; i++) {}
	`)
	Program(prog)
	require.Contains(t, prog.HoistedVars, "a")
	require.Contains(t, prog.HoistedVars, "b")
	require.Contains(t, prog.HoistedVars, "i")
	require.Contains(t, prog.HoistedVars, "f")
	require.Len(t, prog.HoistedFuncs, 1)
}

func TestHoistingDoesNotCrossFunctionBoundary(t *testing.T) {
	prog := parse(t, `
		var outer = 1;
		function f() { var inner = 2; }
	`)
	Program(prog)
	require.NotContains(t, prog.HoistedVars, "inner")
	fn := prog.HoistedFuncs[0]
	require.Contains(t, fn.HoistedVars, "inner")
}
