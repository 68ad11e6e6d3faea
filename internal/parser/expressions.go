package parser

import (
	"strconv"
	"strings"

	"github.com/asynkron/jsengine/internal/ast"
	"github.com/asynkron/jsengine/internal/token"
)

// precedence table for binary/logical operators (spec.md §4.2). Higher
// binds tighter. Exponentiation (**) is right-associative and handled
// separately in parseExponent.
var binPrec = map[token.Type]int{
	token.QQ:         1,
	token.PIPEPIPE:   2,
	token.AMPAMP:     3,
	token.PIPE:       4,
	token.CARET:      5,
	token.AMP:        6,
	token.EQ:         7,
	token.NEQ:        7,
	token.SEQ:        7,
	token.SNEQ:       7,
	token.LT:         8,
	token.GT:         8,
	token.LTE:        8,
	token.GTE:        8,
	token.INSTANCEOF: 8,
	token.IN:         8,
	token.SHL:        9,
	token.SHR:        9,
	token.USHR:       9,
	token.PLUS:       10,
	token.MINUS:      10,
	token.STAR:       11,
	token.SLASH:      11,
	token.PERCENT:    11,
}

var assignOps = map[token.Type]string{
	token.ASSIGN: "=", token.PLUS_ASSIGN: "+=", token.MINUS_ASSIGN: "-=",
	token.STAR_ASSIGN: "*=", token.PERCENT_ASSIGN: "%=", token.STARSTAR_ASSIGN: "**=",
	token.SHL_ASSIGN: "<<=", token.SHR_ASSIGN: ">>=", token.USHR_ASSIGN: ">>>=",
	token.AMP_ASSIGN: "&=", token.PIPE_ASSIGN: "|=", token.CARET_ASSIGN: "^=",
	token.AMPAMP_ASSIGN: "&&=", token.PIPEPIPE_ASSIGN: "||=", token.QQ_ASSIGN: "??=",
	token.SLASH_ASSIGN: "/=",
}

// parseExpression parses a full expression, including top-level comma
// sequences.
func (p *Parser) parseExpression() ast.Expression {
	start := p.cur().Span.Start
	first := p.parseAssignment()
	if !p.at(token.COMMA) {
		return first
	}
	exprs := []ast.Expression{first}
	for p.at(token.COMMA) {
		p.advance()
		exprs = append(exprs, p.parseAssignment())
	}
	return &ast.SequenceExpression{Base: mkB(start, p.prevEnd()), Expressions: exprs}
}

// parseAssignment parses an AssignmentExpression with `in` allowed as the
// relational operator; `for(...)` heads, where it must not be consumed, call
// parseAssignmentPrec(false) instead.
func (p *Parser) parseAssignment() ast.Expression {
	return p.parseAssignmentPrec(true)
}

func (p *Parser) parseAssignmentPrec(allowIn bool) ast.Expression {
	start := p.cur().Span.Start

	if p.at(token.YIELD) && p.allowYield {
		return p.parseYield()
	}

	if arrow, ok := p.tryParseArrowFunction(); ok {
		return arrow
	}

	left := p.parseConditional(allowIn)

	if op, ok := assignOps[p.cur().Type]; ok {
		p.advance()
		target := exprToAssignTarget(left)
		value := p.parseAssignmentPrec(allowIn)
		return &ast.AssignmentExpression{Base: mkB(start, p.prevEnd()), Operator: op, Target: target, Value: value}
	}
	return left
}

// exprToAssignTarget reinterprets an already-parsed expression as an
// assignment target, converting array/object literals into patterns
// (the destructuring-assignment cover grammar, spec.md §4.2).
func exprToAssignTarget(e ast.Expression) ast.Expression {
	switch v := e.(type) {
	case *ast.ArrayLiteral:
		return arrayLiteralToPattern(v).(ast.Expression)
	case *ast.ObjectLiteral:
		return objectLiteralToPattern(v).(ast.Expression)
	default:
		return e
	}
}

func (p *Parser) parseYield() ast.Expression {
	start := p.advance().Span.Start
	delegate := false
	if p.at(token.STAR) {
		p.advance()
		delegate = true
	}
	var arg ast.Expression
	if !p.cur().PrecedingNewline && !p.atAny(token.SEMICOLON, token.RPAREN, token.RBRACE, token.RBRACK, token.COMMA, token.COLON, token.EOF) {
		arg = p.parseAssignment()
	}
	return &ast.YieldExpression{Base: mkB(start, p.prevEnd()), Argument: arg, Delegate: delegate}
}

func (p *Parser) parseConditional(allowIn bool) ast.Expression {
	start := p.cur().Span.Start
	test := p.parseBinary(0, allowIn)
	if !p.at(token.QUESTION) {
		return test
	}
	p.advance()
	cons := p.parseAssignmentPrec(true)
	p.expect(token.COLON)
	alt := p.parseAssignmentPrec(allowIn)
	return &ast.ConditionalExpression{Base: mkB(start, p.prevEnd()), Test: test, Consequent: cons, Alternate: alt}
}

func (p *Parser) parseBinary(minPrec int, allowIn bool) ast.Expression {
	start := p.cur().Span.Start
	left := p.parseExponent()
	for {
		tt := p.cur().Type
		if tt == token.IN && !allowIn {
			break
		}
		prec, ok := binPrec[tt]
		if !ok || prec < minPrec {
			break
		}
		opTok := p.advance()
		right := p.parseBinary(prec+1, allowIn)
		if tt == token.AMPAMP || tt == token.PIPEPIPE || tt == token.QQ {
			left = &ast.LogicalExpression{Base: mkB(start, p.prevEnd()), Operator: opTok.Literal, Left: left, Right: right}
		} else {
			left = &ast.BinaryExpression{Base: mkB(start, p.prevEnd()), Operator: binOpLiteral(tt), Left: left, Right: right}
		}
	}
	return left
}

func binOpLiteral(tt token.Type) string {
	switch tt {
	case token.IN:
		return "in"
	case token.INSTANCEOF:
		return "instanceof"
	default:
		return tt.String()
	}
}

// parseExponent handles right-associative `**`.
func (p *Parser) parseExponent() ast.Expression {
	start := p.cur().Span.Start
	left := p.parseUnary()
	if p.at(token.STARSTAR) {
		p.advance()
		right := p.parseExponent()
		return &ast.BinaryExpression{Base: mkB(start, p.prevEnd()), Operator: "**", Left: left, Right: right}
	}
	return left
}

var unaryOps = map[token.Type]string{
	token.PLUS: "+", token.MINUS: "-", token.BANG: "!", token.TILDE: "~",
	token.TYPEOF: "typeof", token.VOID: "void", token.DELETE: "delete",
}

func (p *Parser) parseUnary() ast.Expression {
	start := p.cur().Span.Start
	if op, ok := unaryOps[p.cur().Type]; ok {
		p.advance()
		arg := p.parseUnary()
		return &ast.UnaryExpression{Base: mkB(start, p.prevEnd()), Operator: op, Argument: arg}
	}
	if p.at(token.AWAIT) && p.allowAwait {
		p.advance()
		arg := p.parseUnary()
		return &ast.AwaitExpression{Base: mkB(start, p.prevEnd()), Argument: arg}
	}
	if p.atAny(token.PLUSPLUS, token.MINUSMINUS) {
		op := p.advance()
		arg := p.parseUnary()
		return &ast.UpdateExpression{Base: mkB(start, p.prevEnd()), Operator: op.Literal, Argument: arg, Prefix: true}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expression {
	start := p.cur().Span.Start
	expr := p.parseLeftHandSide()
	if p.atAny(token.PLUSPLUS, token.MINUSMINUS) && !p.cur().PrecedingNewline {
		op := p.advance()
		return &ast.UpdateExpression{Base: mkB(start, p.prevEnd()), Operator: op.Literal, Argument: expr, Prefix: false}
	}
	return expr
}

// parseLeftHandSide parses NewExpression/CallExpression/MemberExpression,
// including optional chaining (spec.md §4.2).
func (p *Parser) parseLeftHandSide() ast.Expression {
	start := p.cur().Span.Start
	var expr ast.Expression
	if p.at(token.NEW) {
		expr = p.parseNewExpression()
	} else {
		expr = p.parsePrimary()
	}
	return p.parseCallTail(expr, start)
}

func (p *Parser) parseNewExpression() ast.Expression {
	start := p.advance().Span.Start
	if p.at(token.DOT) {
		p.advance()
		p.expect(token.IDENT) // "target"
		return &ast.NewExpression{Base: mkB(start, p.prevEnd()), Callee: nil, Arguments: nil}
	}
	var callee ast.Expression
	if p.at(token.NEW) {
		callee = p.parseNewExpression()
	} else {
		callee = p.parsePrimary()
	}
	callee = p.parseMemberTail(callee, start)
	var args []ast.Expression
	if p.at(token.LPAREN) {
		args = p.parseArguments()
	}
	return &ast.NewExpression{Base: mkB(start, p.prevEnd()), Callee: callee, Arguments: args}
}

// parseMemberTail parses only member accesses (no calls), used for the
// `new Callee` production which binds tighter than a following call.
func (p *Parser) parseMemberTail(expr ast.Expression, start token.Position) ast.Expression {
	for {
		switch {
		case p.at(token.DOT):
			p.advance()
			name := p.parseIdentifierName()
			expr = &ast.MemberExpression{Base: mkB(start, p.prevEnd()), Object: expr, Property: name, Computed: false}
		case p.at(token.LBRACK):
			p.advance()
			prop := p.parseExpression()
			p.expect(token.RBRACK)
			expr = &ast.MemberExpression{Base: mkB(start, p.prevEnd()), Object: expr, Property: prop, Computed: true}
		default:
			return expr
		}
	}
}

func (p *Parser) parseCallTail(expr ast.Expression, start token.Position) ast.Expression {
	for {
		switch {
		case p.at(token.DOT):
			p.advance()
			name := p.parseIdentifierName()
			expr = &ast.MemberExpression{Base: mkB(start, p.prevEnd()), Object: expr, Property: name, Computed: false}
		case p.at(token.QDOT):
			p.advance()
			if p.at(token.LPAREN) {
				args := p.parseArguments()
				expr = &ast.CallExpression{Base: mkB(start, p.prevEnd()), Callee: expr, Arguments: args, Optional: true}
			} else if p.at(token.LBRACK) {
				p.advance()
				prop := p.parseExpression()
				p.expect(token.RBRACK)
				expr = &ast.MemberExpression{Base: mkB(start, p.prevEnd()), Object: expr, Property: prop, Computed: true, Optional: true}
			} else {
				name := p.parseIdentifierName()
				expr = &ast.MemberExpression{Base: mkB(start, p.prevEnd()), Object: expr, Property: name, Computed: false, Optional: true}
			}
		case p.at(token.LBRACK):
			p.advance()
			prop := p.parseExpression()
			p.expect(token.RBRACK)
			expr = &ast.MemberExpression{Base: mkB(start, p.prevEnd()), Object: expr, Property: prop, Computed: true}
		case p.at(token.LPAREN):
			args := p.parseArguments()
			expr = &ast.CallExpression{Base: mkB(start, p.prevEnd()), Callee: expr, Arguments: args}
		case p.at(token.TEMPLATE_STRING):
			quasi := p.parseTemplateLiteral()
			expr = &ast.TaggedTemplateExpression{Base: mkB(start, p.prevEnd()), Tag: expr, Quasi: quasi}
		default:
			return expr
		}
	}
}

func (p *Parser) parseArguments() []ast.Expression {
	p.expect(token.LPAREN)
	var args []ast.Expression
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		if p.at(token.DOTDOTDOT) {
			start := p.advance().Span.Start
			arg := p.parseAssignment()
			args = append(args, &ast.SpreadElement{Base: mkB(start, p.prevEnd()), Argument: arg})
		} else {
			args = append(args, p.parseAssignment())
		}
		if p.at(token.COMMA) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(token.RPAREN)
	return args
}

func (p *Parser) parseIdentifierName() *ast.Identifier {
	tok := p.advance()
	return &ast.Identifier{Base: mkB(tok.Span.Start, tok.Span.End), Name: tok.Literal}
}

// ---- primary expressions ------------------------------------------------------

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.cur()
	switch tok.Type {
	case token.NUMBER:
		if p.strict && len(tok.Literal) > 1 && tok.Literal[0] == '0' && tok.Literal[1] >= '0' && tok.Literal[1] <= '7' {
			p.errorf(tok.Span, "legacy-octal-in-strict-mode", "octal literals are not allowed in strict mode")
		}
		p.advance()
		return &ast.NumberLiteral{Base: mkB(tok.Span.Start, tok.Span.End), Raw: tok.Literal, Value: parseNumericLiteral(tok.Literal)}
	case token.BIGINT:
		p.advance()
		return &ast.BigIntLiteral{Base: mkB(tok.Span.Start, tok.Span.End), Raw: tok.Literal}
	case token.STRING:
		p.advance()
		return &ast.StringLiteral{Base: mkB(tok.Span.Start, tok.Span.End), Value: tok.Literal}
	case token.TEMPLATE_STRING:
		return p.parseTemplateLiteral()
	case token.REGEXP:
		p.advance()
		parts := strings.SplitN(tok.Literal, "\x00", 2)
		pattern, flags := parts[0], ""
		if len(parts) == 2 {
			flags = parts[1]
		}
		return &ast.RegExpLiteral{Base: mkB(tok.Span.Start, tok.Span.End), Pattern: pattern, Flags: flags}
	case token.TRUE, token.FALSE:
		p.advance()
		return &ast.BooleanLiteral{Base: mkB(tok.Span.Start, tok.Span.End), Value: tok.Type == token.TRUE}
	case token.NULL:
		p.advance()
		return &ast.NullLiteral{Base: mkB(tok.Span.Start, tok.Span.End)}
	case token.THIS:
		p.advance()
		return &ast.ThisExpression{Base: mkB(tok.Span.Start, tok.Span.End)}
	case token.SUPER:
		p.advance()
		return &ast.SuperExpression{Base: mkB(tok.Span.Start, tok.Span.End)}
	case token.IDENT, token.OF, token.GET, token.SET, token.STATIC, token.LET, token.ASYNC, token.AWAIT, token.YIELD:
		if tok.Type == token.ASYNC && p.peekAt(1).Type == token.FUNCTION && !p.peekAt(1).PrecedingNewline {
			return p.parseFunctionExpression(true)
		}
		p.advance()
		return &ast.Identifier{Base: mkB(tok.Span.Start, tok.Span.End), Name: tok.Literal}
	case token.PRIVATE_IDENT:
		p.advance()
		return &ast.PrivateName{Base: mkB(tok.Span.Start, tok.Span.End), Name: tok.Literal}
	case token.FUNCTION:
		return p.parseFunctionExpression(false)
	case token.CLASS:
		return p.parseClassExpression()
	case token.LPAREN:
		return p.parseParenthesizedExpression()
	case token.LBRACK:
		return p.parseArrayLiteral()
	case token.LBRACE:
		return p.parseObjectLiteral()
	case token.IMPORT:
		return p.parseImportExpression()
	default:
		p.errorf(tok.Span, "unexpected-token", "unexpected token %q", tok.Literal)
		p.advance()
		return &ast.Identifier{Base: mkB(tok.Span.Start, tok.Span.End), Name: tok.Literal}
	}
}

func (p *Parser) parseImportExpression() ast.Expression {
	start := p.advance().Span.Start
	if p.at(token.DOT) {
		p.advance()
		p.expect(token.IDENT) // "meta"
		return &ast.ImportMetaExpression{Base: mkB(start, p.prevEnd())}
	}
	p.expect(token.LPAREN)
	src := p.parseAssignment()
	if p.at(token.COMMA) {
		p.advance()
		if !p.at(token.RPAREN) {
			p.parseAssignment() // import options, evaluated but unused in spec scope
		}
	}
	p.expect(token.RPAREN)
	return &ast.ImportExpression{Base: mkB(start, p.prevEnd()), Source: src}
}

func parseNumericLiteral(raw string) float64 {
	s := strings.ReplaceAll(raw, "_", "")
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			if v, err := strconv.ParseUint(s[2:], 16, 64); err == nil {
				return float64(v)
			}
		case 'o', 'O':
			if v, err := strconv.ParseUint(s[2:], 8, 64); err == nil {
				return float64(v)
			}
		case 'b', 'B':
			if v, err := strconv.ParseUint(s[2:], 2, 64); err == nil {
				return float64(v)
			}
		}
	}
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func (p *Parser) parseParenthesizedExpression() ast.Expression {
	p.expect(token.LPAREN)
	expr := p.parseExpression()
	p.expect(token.RPAREN)
	return expr
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	start := p.expect(token.LBRACK).Span.Start
	var elems []ast.Expression
	for !p.at(token.RBRACK) && !p.at(token.EOF) {
		if p.at(token.COMMA) {
			elems = append(elems, nil)
			p.advance()
			continue
		}
		if p.at(token.DOTDOTDOT) {
			sstart := p.advance().Span.Start
			arg := p.parseAssignment()
			elems = append(elems, &ast.SpreadElement{Base: mkB(sstart, p.prevEnd()), Argument: arg})
		} else {
			elems = append(elems, p.parseAssignment())
		}
		if p.at(token.COMMA) {
			p.advance()
		} else {
			break
		}
	}
	end := p.expect(token.RBRACK).Span.End
	return &ast.ArrayLiteral{Base: mkB(start, end), Elements: elems}
}

func (p *Parser) parseObjectLiteral() ast.Expression {
	start := p.expect(token.LBRACE).Span.Start
	var props []ast.ObjectProperty
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		props = append(props, p.parseObjectProperty())
		if p.at(token.COMMA) {
			p.advance()
		} else {
			break
		}
	}
	end := p.expect(token.RBRACE).Span.End
	return &ast.ObjectLiteral{Base: mkB(start, end), Properties: props}
}

func (p *Parser) parseObjectProperty() ast.ObjectProperty {
	if p.at(token.DOTDOTDOT) {
		p.advance()
		arg := p.parseAssignment()
		return ast.ObjectProperty{Kind: ast.PropSpread, Value: arg}
	}

	isAsync, isGen := false, false
	if p.at(token.ASYNC) && p.peekAt(1).Type != token.COLON && p.peekAt(1).Type != token.LPAREN && p.peekAt(1).Type != token.COMMA && p.peekAt(1).Type != token.RBRACE && !p.peekAt(1).PrecedingNewline {
		p.advance()
		isAsync = true
	}
	if p.at(token.STAR) {
		p.advance()
		isGen = true
	}
	if (p.at(token.GET) || p.at(token.SET)) && p.peekAt(1).Type != token.COLON && p.peekAt(1).Type != token.LPAREN && p.peekAt(1).Type != token.COMMA && p.peekAt(1).Type != token.RBRACE {
		kind := ast.PropGet
		if p.cur().Type == token.SET {
			kind = ast.PropSet
		}
		p.advance()
		key, computed := p.parsePropertyKey()
		fn := p.parseMethodBody(false, false)
		return ast.ObjectProperty{Kind: kind, Key: key, Computed: computed, Value: fn}
	}

	key, computed := p.parsePropertyKey()

	if p.at(token.LPAREN) {
		fn := p.parseMethodBody(isAsync, isGen)
		return ast.ObjectProperty{Kind: ast.PropMethod, Key: key, Computed: computed, Value: fn}
	}
	if p.at(token.COLON) {
		p.advance()
		val := p.parseAssignment()
		return ast.ObjectProperty{Kind: ast.PropInit, Key: key, Computed: computed, Value: val}
	}
	// shorthand, possibly with a default (only valid when reinterpreted as a pattern)
	ident, _ := key.(*ast.Identifier)
	if p.at(token.ASSIGN) {
		p.advance()
		def := p.parseAssignment()
		return ast.ObjectProperty{Kind: ast.PropInit, Key: key, Value: &ast.AssignmentPattern{Base: mkB(ident.Span().Start, p.prevEnd()), Target: ident, Default: def}, Shorthand: true}
	}
	return ast.ObjectProperty{Kind: ast.PropInit, Key: key, Value: ident, Shorthand: true}
}

func (p *Parser) parsePropertyKey() (ast.Expression, bool) {
	if p.at(token.LBRACK) {
		p.advance()
		key := p.parseAssignment()
		p.expect(token.RBRACK)
		return key, true
	}
	tok := p.cur()
	switch tok.Type {
	case token.STRING:
		p.advance()
		return &ast.StringLiteral{Base: mkB(tok.Span.Start, tok.Span.End), Value: tok.Literal}, false
	case token.NUMBER:
		p.advance()
		return &ast.NumberLiteral{Base: mkB(tok.Span.Start, tok.Span.End), Raw: tok.Literal, Value: parseNumericLiteral(tok.Literal)}, false
	case token.PRIVATE_IDENT:
		p.advance()
		return &ast.PrivateName{Base: mkB(tok.Span.Start, tok.Span.End), Name: tok.Literal}, false
	default:
		p.advance()
		return &ast.Identifier{Base: mkB(tok.Span.Start, tok.Span.End), Name: tok.Literal}, false
	}
}

func (p *Parser) parseMethodBody(isAsync, isGen bool) *ast.FunctionExpression {
	start := p.cur().Span.Start
	params := p.parseParamList()
	savedYield, savedAwait := p.allowYield, p.allowAwait
	p.allowYield, p.allowAwait = isGen, isAsync
	body := p.parseFunctionBody()
	p.allowYield, p.allowAwait = savedYield, savedAwait
	return &ast.FunctionExpression{Base: mkB(start, p.prevEnd()), Params: params, Body: body, IsAsync: isAsync, IsGenerator: isGen}
}

func (p *Parser) parseTemplateLiteral() *ast.TemplateLiteral {
	tok := p.cur()
	start := tok.Span.Start
	var quasis []ast.TemplateElement
	var exprs []ast.Expression
	for {
		t := p.advance()
		parts := strings.SplitN(t.Literal, "\x00", 3)
		cooked, raw, kind := "", "", "full"
		if len(parts) == 3 {
			cooked, raw, kind = parts[0], parts[1], parts[2]
		}
		tail := kind == "full" || kind == "tail"
		quasis = append(quasis, ast.TemplateElement{Cooked: cooked, Raw: raw, Tail: tail})
		if tail {
			break
		}
		exprs = append(exprs, p.parseExpression())
		// the next token must be the matching '}' resumed as a template
		// continuation; nextRaw() handles this via tplStack.
		if p.cur().Type != token.TEMPLATE_STRING {
			p.errorf(p.cur().Span, "unterminated-template", "expected template continuation")
			break
		}
	}
	return &ast.TemplateLiteral{Base: mkB(start, p.prevEnd()), Quasis: quasis, Expressions: exprs}
}
