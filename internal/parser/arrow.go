package parser

import (
	"github.com/asynkron/jsengine/internal/ast"
	"github.com/asynkron/jsengine/internal/token"
)

// tryParseArrowFunction speculatively parses an arrow-function head
// (either a bare identifier or a parenthesized, possibly-destructured
// parameter list) followed by `=>`. On failure it backtracks via the
// buffer-index mark/reset so the caller can fall through to ordinary
// expression parsing (spec.md §4.2's cover grammar for
// CoverParenthesizedExpressionAndArrowParameterList).
func (p *Parser) tryParseArrowFunction() (ast.Expression, bool) {
	start := p.cur().Span.Start

	isAsync := false
	m := p.mark()
	if p.at(token.ASYNC) && !p.peekAt(1).PrecedingNewline && (p.peekAt(1).Type == token.LPAREN || p.peekAt(1).Type == token.IDENT) {
		p.advance()
		isAsync = true
	}

	var params []ast.Param
	switch {
	case p.at(token.IDENT), p.at(token.YIELD), p.at(token.AWAIT):
		tok := p.advance()
		if p.at(token.ARROW) && !p.cur().PrecedingNewline {
			params = []ast.Param{{Pattern: &ast.Identifier{Base: mkB(tok.Span.Start, tok.Span.End), Name: tok.Literal}}}
			break
		}
		p.reset(m)
		return nil, false
	case p.at(token.LPAREN):
		if !p.looksLikeArrowParams() {
			p.reset(m)
			return nil, false
		}
		params = p.parseParamList()
		if !p.at(token.ARROW) || p.cur().PrecedingNewline {
			p.reset(m)
			return nil, false
		}
	default:
		p.reset(m)
		return nil, false
	}

	p.expect(token.ARROW)
	savedAwait := p.allowAwait
	p.allowAwait = isAsync
	var body *ast.BlockStatement
	var exprBody ast.Expression
	if p.at(token.LBRACE) {
		body = p.parseFunctionBody()
	} else {
		exprBody = p.parseAssignment()
	}
	p.allowAwait = savedAwait
	return &ast.ArrowFunctionExpression{Base: mkB(start, p.prevEnd()), Params: params, Body: body, ExprBody: exprBody, IsAsync: isAsync}, true
}

// looksLikeArrowParams does a cheap bracket-matching scan from the current
// '(' to find its matching ')' and checks whether '=>' follows, without
// building any AST. This avoids a full speculative parameter parse (which
// can have side effects like error recording) for the common case of a
// parenthesized non-arrow expression.
func (p *Parser) looksLikeArrowParams() bool {
	depth := 0
	i := 0
	for {
		t := p.peekAt(i)
		switch t.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
			if depth == 0 {
				nxt := p.peekAt(i + 1)
				return nxt.Type == token.ARROW && !nxt.PrecedingNewline
			}
		case token.EOF:
			return false
		}
		i++
		if i > 4096 {
			return false
		}
	}
}
