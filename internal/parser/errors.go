package parser

import (
	"fmt"

	"github.com/asynkron/jsengine/internal/token"
)

// SyntaxError is a parse-time failure with its source span and a stable
// code, mirroring the lexer's Error (spec.md §4.2: "every production
// reports SyntaxError with span and code; no partial recovery").
type SyntaxError struct {
	Message string
	Span    token.Span
	Code    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("SyntaxError: %s (%s)", e.Message, e.Span.Start)
}
