// Package parser builds a typed AST (internal/ast) from a token stream
// (internal/lexer). It is a hand-written recursive-descent parser with
// Pratt-style precedence climbing for expressions (spec.md §4.2).
package parser

import (
	"fmt"
	"strings"

	"github.com/asynkron/jsengine/internal/ast"
	"github.com/asynkron/jsengine/internal/lexer"
	"github.com/asynkron/jsengine/internal/token"
)

// Options configures grammar mode flags that vary the set of legal
// productions (spec.md §4.2).
type Options struct {
	ForceStrict       bool
	AllowTopLevelAwait bool
	AllowHTMLComments bool
	IsModule          bool
}

// Parser holds a growable token buffer over the lexer so that arrow-function
// cover-grammar disambiguation and other lookahead can backtrack by simply
// resetting an index, without re-lexing (grounded on the teacher's
// TokenCursor in internal/parser/cursor.go).
type Parser struct {
	lex *lexer.Lexer
	buf []token.Token
	pos int

	opts Options

	strict   bool
	inFunction bool
	inLoop     int
	inSwitch   int
	allowAwait bool
	allowYield bool
	labels     []string

	// depthStack tracks nesting of ( [ { so template-literal continuation
	// scanning knows when a `}` closes a `${ ... }` substitution rather
	// than a block/object literal.
	depthStack []token.Type
	tplStack   []int

	errors []*SyntaxError
}

// New creates a Parser over src with the given grammar options.
func New(src string, opts Options) *Parser {
	p := &Parser{
		lex:    lexer.New(src, opts.AllowHTMLComments && !opts.IsModule),
		opts:   opts,
		strict: opts.ForceStrict || opts.IsModule,
	}
	p.allowAwait = opts.AllowTopLevelAwait || opts.IsModule
	p.fill(1)
	return p
}

func (p *Parser) Errors() []*SyntaxError { return p.errors }

func (p *Parser) errorf(span token.Span, code, format string, args ...interface{}) {
	p.errors = append(p.errors, &SyntaxError{Message: fmt.Sprintf(format, args...), Span: span, Code: code})
}

// ---- token navigation -------------------------------------------------------

func (p *Parser) fill(n int) {
	for len(p.buf)-p.pos < n {
		p.buf = append(p.buf, p.nextRaw())
	}
}

// nextRaw pulls the next token from the lexer, tracking bracket depth and
// intercepting the '}' that closes a template substitution.
func (p *Parser) nextRaw() token.Token {
	if len(p.tplStack) > 0 && p.tplStack[len(p.tplStack)-1] == len(p.depthStack) {
		// We expect a '}' here; consume it, then resume template scanning.
		closing := p.lex.Next()
		p.tplStack = p.tplStack[:len(p.tplStack)-1]
		return p.lex.ScanTemplateContinuation(closing.Span.Start, closing.PrecedingNewline)
	}
	tok := p.lex.Next()
	switch tok.Type {
	case token.LBRACE, token.LPAREN, token.LBRACK:
		p.depthStack = append(p.depthStack, tok.Type)
	case token.RBRACE, token.RPAREN, token.RBRACK:
		if len(p.depthStack) > 0 {
			p.depthStack = p.depthStack[:len(p.depthStack)-1]
		}
	}
	if tok.Type == token.TEMPLATE_STRING {
		kind := templateKind(tok.Literal)
		if kind == "head" || kind == "middle" {
			p.tplStack = append(p.tplStack, len(p.depthStack))
		}
	}
	return tok
}

func templateKind(lit string) string {
	parts := strings.SplitN(lit, "\x00", 3)
	if len(parts) < 3 {
		return "full"
	}
	return parts[2]
}

func (p *Parser) cur() token.Token {
	p.fill(1)
	return p.buf[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	p.fill(n + 1)
	return p.buf[p.pos+n]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	p.pos++
	return t
}

func (p *Parser) at(tt token.Type) bool { return p.cur().Type == tt }

func (p *Parser) atAny(tts ...token.Type) bool {
	c := p.cur().Type
	for _, tt := range tts {
		if c == tt {
			return true
		}
	}
	return false
}

// mark/reset implement backtracking for cover-grammar disambiguation.
type mark struct {
	pos    int
	errLen int
}

func (p *Parser) mark() mark { return mark{pos: p.pos, errLen: len(p.errors)} }

func (p *Parser) reset(m mark) {
	p.pos = m.pos
	p.errors = p.errors[:m.errLen]
}

func (p *Parser) expect(tt token.Type) token.Token {
	if p.cur().Type != tt {
		p.errorf(p.cur().Span, "unexpected-token", "expected %s, got %s %q", tt, p.cur().Type, p.cur().Literal)
		return p.cur()
	}
	return p.advance()
}

// consumeSemicolon implements automatic semicolon insertion (spec.md §4.1):
// a semicolon is "inserted" if the current token is `}`, EOF, or preceded
// by a LineTerminator; otherwise an explicit `;` is required.
func (p *Parser) consumeSemicolon() {
	if p.at(token.SEMICOLON) {
		p.advance()
		return
	}
	if p.at(token.RBRACE) || p.at(token.EOF) || p.cur().PrecedingNewline {
		return
	}
	p.errorf(p.cur().Span, "expected-semicolon", "expected ';', got %q", p.cur().Literal)
}

// ---- entry points ------------------------------------------------------------

// ParseProgram parses the full token stream as either a Script or a Module
// according to Options.IsModule.
func (p *Parser) ParseProgram() *ast.Program {
	start := p.cur().Span.Start

	if !p.opts.IsModule {
		if lit, ok := p.peekDirectivePrologue(); ok && lit == "use strict" {
			p.strict = true
		}
	}

	var body []ast.Statement
	for !p.at(token.EOF) {
		body = append(body, p.parseStatementListItem())
	}
	end := p.cur().Span.End
	return &ast.Program{
		Base:     mkB(start, end),
		Body:     body,
		IsModule: p.opts.IsModule,
		IsStrict: p.strict,
	}
}

// peekDirectivePrologue reports whether the very first statement is a
// "use strict" directive, without consuming it.
func (p *Parser) peekDirectivePrologue() (string, bool) {
	if p.at(token.STRING) {
		nxt := p.peekAt(1)
		if nxt.Type == token.SEMICOLON || nxt.PrecedingNewline || nxt.Type == token.EOF || nxt.Type == token.RBRACE {
			return p.cur().Literal, true
		}
	}
	return "", false
}

// ---- statements --------------------------------------------------------------

func (p *Parser) parseStatementListItem() ast.Statement {
	switch p.cur().Type {
	case token.FUNCTION:
		return p.parseFunctionDeclaration(false)
	case token.ASYNC:
		if p.peekAt(1).Type == token.FUNCTION && !p.peekAt(1).PrecedingNewline {
			p.advance()
			return p.parseFunctionDeclaration(true)
		}
	case token.CLASS:
		return p.parseClassDeclaration()
	case token.CONST, token.LET:
		if p.isLexicalDeclarationStart() {
			return p.parseVariableStatement()
		}
	case token.IMPORT:
		if p.opts.IsModule {
			return p.parseImportDeclaration()
		}
	case token.EXPORT:
		if p.opts.IsModule {
			return p.parseExportDeclaration()
		}
	}
	return p.parseStatement()
}

// isLexicalDeclarationStart disambiguates `let` as a keyword vs identifier:
// `let` followed by an identifier, `[`, or `{` starts a declaration.
func (p *Parser) isLexicalDeclarationStart() bool {
	if p.cur().Type == token.CONST {
		return true
	}
	nxt := p.peekAt(1)
	return nxt.Type == token.IDENT || nxt.Type == token.LBRACK || nxt.Type == token.LBRACE || nxt.Type == token.YIELD || nxt.Type == token.AWAIT
}

func (p *Parser) parseStatement() ast.Statement {
	start := p.cur().Span.Start
	switch p.cur().Type {
	case token.LBRACE:
		return p.parseBlockStatement()
	case token.VAR:
		return p.parseVariableStatement()
	case token.SEMICOLON:
		tok := p.advance()
		return &ast.EmptyStatement{Base: mkB(tok.Span.Start, tok.Span.End)}
	case token.IF:
		return p.parseIfStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.DO:
		return p.parseDoWhileStatement()
	case token.SWITCH:
		return p.parseSwitchStatement()
	case token.BREAK:
		return p.parseBreakStatement()
	case token.CONTINUE:
		return p.parseContinueStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.THROW:
		return p.parseThrowStatement()
	case token.TRY:
		return p.parseTryStatement()
	case token.DEBUGGER:
		tok := p.advance()
		p.consumeSemicolon()
		return &ast.DebuggerStatement{Base: mkB(tok.Span.Start, p.prevEnd())}
	case token.WITH:
		return p.parseWithStatement()
	case token.FUNCTION, token.CLASS:
		p.errorf(p.cur().Span, "lexical-decl-not-allowed", "%s declaration not allowed in single-statement context", p.cur().Type)
		return p.parseStatementListItem()
	case token.IDENT:
		if p.peekAt(1).Type == token.COLON {
			return p.parseLabeledStatement()
		}
	}
	expr := p.parseExpression()
	p.consumeSemicolon()
	return &ast.ExpressionStatement{Base: mkB(start, p.prevEnd()), Expression: expr}
}

func (p *Parser) prevEnd() token.Position {
	if p.pos == 0 {
		return p.cur().Span.Start
	}
	return p.buf[p.pos-1].Span.End
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	start := p.expect(token.LBRACE).Span.Start
	var body []ast.Statement
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		body = append(body, p.parseStatementListItem())
	}
	end := p.expect(token.RBRACE).Span.End
	return &ast.BlockStatement{Base: mkB(start, end), Body: body}
}

// parseWithStatement parses `with (obj) body` into an ast.WithStatement,
// which the evaluator runs with obj added to the scope chain.
func (p *Parser) parseWithStatement() ast.Statement {
	start := p.advance().Span.Start
	p.expect(token.LPAREN)
	obj := p.parseExpression()
	p.expect(token.RPAREN)
	if p.strict {
		p.errorf(ast.NewSpan(start, start), "with-in-strict-mode", "'with' statement not allowed in strict mode")
	}
	body := p.parseStatement()
	return &ast.WithStatement{Base: mkB(start, body.Span().End), Object: obj, Body: body}
}

func (p *Parser) parseLabeledStatement() ast.Statement {
	start := p.cur().Span.Start
	label := p.advance().Literal
	p.expect(token.COLON)
	p.labels = append(p.labels, label)
	body := p.parseStatement()
	p.labels = p.labels[:len(p.labels)-1]
	return &ast.LabeledStatement{Base: mkB(start, body.Span().End), Label: label, Body: body}
}

func mkB(start, end token.Position) ast.Base {
	return ast.NewBase(ast.NewSpan(start, end))
}
