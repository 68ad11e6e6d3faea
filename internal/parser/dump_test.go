package parser_test

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/asynkron/jsengine/internal/parser"
)

// TestDumpPinsParseRoundTrip golden-tests parser.Dump's output for a small
// set of representative scripts (SPEC_FULL.md §1.1 "AST... output golden-
// tested with go-snaps to pin the parse round-trip property from spec.md
// §8"): an accidental grammar or precedence change shows up as a snapshot
// diff instead of silently changing what a later interpreter stage sees.
func TestDumpPinsParseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"var-decl", `let x = 1 + 2 * 3;`},
		{"if-else", `if (a) { b(); } else { c(); }`},
		{"function", `function add(a, b) { return a + b; }`},
		{"member-call", `obj.method(1, "two", true);`},
		{"logical-and-conditional", `const r = a && b ? c : d;`},
		{"while-loop", `while (i < 10) { i = i + 1; }`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := parser.New(tc.src, parser.Options{})
			prog := p.ParseProgram()
			if len(p.Errors()) != 0 {
				t.Fatalf("unexpected parse errors: %v", p.Errors())
			}
			snaps.MatchSnapshot(t, parser.Dump(prog))
		})
	}
}
