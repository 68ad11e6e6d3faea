package parser

import (
	"github.com/asynkron/jsengine/internal/ast"
	"github.com/asynkron/jsengine/internal/token"
)

func (p *Parser) parseVariableStatement() ast.Statement {
	decl := p.parseVariableDeclaration(true)
	p.consumeSemicolon()
	return decl
}

func (p *Parser) parseVariableDeclaration(allowIn bool) *ast.VariableDeclaration {
	start := p.cur().Span.Start
	var kind ast.DeclarationKind
	switch p.advance().Type {
	case token.VAR:
		kind = ast.Var
	case token.LET:
		kind = ast.Let
	case token.CONST:
		kind = ast.Const
	}
	var decls []ast.VariableDeclarator
	for {
		target := p.parseBindingTarget()
		var init ast.Expression
		if p.at(token.ASSIGN) {
			p.advance()
			init = p.parseAssignmentPrec(allowIn)
		} else if kind == ast.Const && (allowIn || !(p.at(token.IN) || p.at(token.OF))) {
			p.errorf(target.Span(), "missing-initializer", "missing initializer in const declaration")
		}
		decls = append(decls, ast.VariableDeclarator{Target: target, Init: init})
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return &ast.VariableDeclaration{Base: mkB(start, p.prevEnd()), Kind: kind, Declarations: decls}
}

func (p *Parser) parseIfStatement() ast.Statement {
	start := p.advance().Span.Start
	p.expect(token.LPAREN)
	test := p.parseExpression()
	p.expect(token.RPAREN)
	cons := p.parseStatement()
	var alt ast.Statement
	if p.at(token.ELSE) {
		p.advance()
		alt = p.parseStatement()
	}
	end := p.prevEnd()
	return &ast.IfStatement{Base: mkB(start, end), Test: test, Consequent: cons, Alternate: alt}
}

func (p *Parser) parseWhileStatement() ast.Statement {
	start := p.advance().Span.Start
	p.expect(token.LPAREN)
	test := p.parseExpression()
	p.expect(token.RPAREN)
	p.inLoop++
	body := p.parseStatement()
	p.inLoop--
	return &ast.WhileStatement{Base: mkB(start, p.prevEnd()), Test: test, Body: body}
}

func (p *Parser) parseDoWhileStatement() ast.Statement {
	start := p.advance().Span.Start
	p.inLoop++
	body := p.parseStatement()
	p.inLoop--
	p.expect(token.WHILE)
	p.expect(token.LPAREN)
	test := p.parseExpression()
	p.expect(token.RPAREN)
	if p.at(token.SEMICOLON) {
		p.advance()
	}
	return &ast.DoWhileStatement{Base: mkB(start, p.prevEnd()), Body: body, Test: test}
}

// parseForStatement disambiguates classic `for(;;)`, `for(x in obj)`,
// `for(x of iter)`, and `for await(x of iter)` by speculatively parsing the
// head and checking for `in`/`of` (spec.md §4.4).
func (p *Parser) parseForStatement() ast.Statement {
	start := p.advance().Span.Start
	isAwait := false
	if p.at(token.AWAIT) {
		p.advance()
		isAwait = true
	}
	p.expect(token.LPAREN)

	var init ast.Node
	if p.at(token.SEMICOLON) {
		init = nil
	} else if p.atAny(token.VAR, token.LET, token.CONST) {
		declStart := p.cur().Span.Start
		kind := p.cur().Type
		decl := p.parseVariableDeclarationNoIn(kind)
		if p.atAny(token.IN, token.OF) && len(decl.Declarations) == 1 && decl.Declarations[0].Init == nil {
			return p.finishForInOf(start, decl, decl.Declarations[0].Target, isAwait)
		}
		_ = declStart
		init = decl
	} else {
		expr := p.parseExpressionNoIn()
		if p.atAny(token.IN, token.OF) {
			return p.finishForInOf(start, nil, exprToPattern(expr), isAwait)
		}
		init = &ast.ExpressionStatement{Base: mkB(start, p.prevEnd()), Expression: expr}
	}

	p.expect(token.SEMICOLON)
	var test ast.Expression
	if !p.at(token.SEMICOLON) {
		test = p.parseExpression()
	}
	p.expect(token.SEMICOLON)
	var update ast.Expression
	if !p.at(token.RPAREN) {
		update = p.parseExpression()
	}
	p.expect(token.RPAREN)
	p.inLoop++
	body := p.parseStatement()
	p.inLoop--
	return &ast.ForStatement{Base: mkB(start, p.prevEnd()), Init: init, Test: test, Update: update, Body: body}
}

func (p *Parser) finishForInOf(start token.Position, decl *ast.VariableDeclaration, target ast.Node, isAwait bool) ast.Statement {
	isOf := p.cur().Type == token.OF
	p.advance()
	var right ast.Expression
	if isOf {
		right = p.parseAssignment()
	} else {
		right = p.parseExpression()
	}
	p.expect(token.RPAREN)
	p.inLoop++
	body := p.parseStatement()
	p.inLoop--
	var left ast.Node = target
	if decl != nil {
		left = decl
	}
	return &ast.ForInStatement{Base: mkB(start, p.prevEnd()), Left: left, Right: right, Body: body, IsOf: isOf, IsAwait: isAwait}
}

func (p *Parser) parseVariableDeclarationNoIn(kind token.Type) *ast.VariableDeclaration {
	return p.parseVariableDeclaration(false)
}

func (p *Parser) parseExpressionNoIn() ast.Expression {
	return p.parseAssignmentPrec(false)
}

func (p *Parser) parseSwitchStatement() ast.Statement {
	start := p.advance().Span.Start
	p.expect(token.LPAREN)
	disc := p.parseExpression()
	p.expect(token.RPAREN)
	p.expect(token.LBRACE)
	p.inSwitch++
	var cases []ast.SwitchCase
	seenDefault := false
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		var test ast.Expression
		if p.at(token.CASE) {
			p.advance()
			test = p.parseExpression()
		} else {
			p.expect(token.DEFAULT)
			if seenDefault {
				p.errorf(p.cur().Span, "duplicate-default", "multiple default clauses in switch")
			}
			seenDefault = true
		}
		p.expect(token.COLON)
		var body []ast.Statement
		for !p.atAny(token.CASE, token.DEFAULT, token.RBRACE, token.EOF) {
			body = append(body, p.parseStatementListItem())
		}
		cases = append(cases, ast.SwitchCase{Test: test, Consequent: body})
	}
	p.inSwitch--
	end := p.expect(token.RBRACE).Span.End
	return &ast.SwitchStatement{Base: mkB(start, end), Discriminant: disc, Cases: cases}
}

func (p *Parser) parseBreakStatement() ast.Statement {
	start := p.advance().Span.Start
	label := ""
	if p.at(token.IDENT) && !p.cur().PrecedingNewline {
		label = p.advance().Literal
	}
	if label == "" && p.inLoop == 0 && p.inSwitch == 0 {
		p.errorf(token.Span{Start: start}, "illegal-break", "'break' outside loop or switch")
	}
	p.consumeSemicolon()
	return &ast.BreakStatement{Base: mkB(start, p.prevEnd()), Label: label}
}

func (p *Parser) parseContinueStatement() ast.Statement {
	start := p.advance().Span.Start
	label := ""
	if p.at(token.IDENT) && !p.cur().PrecedingNewline {
		label = p.advance().Literal
	}
	if p.inLoop == 0 {
		p.errorf(token.Span{Start: start}, "illegal-continue", "'continue' outside loop")
	}
	p.consumeSemicolon()
	return &ast.ContinueStatement{Base: mkB(start, p.prevEnd()), Label: label}
}

func (p *Parser) parseReturnStatement() ast.Statement {
	start := p.advance().Span.Start
	var arg ast.Expression
	if !p.cur().PrecedingNewline && !p.atAny(token.SEMICOLON, token.RBRACE, token.EOF) {
		arg = p.parseExpression()
	}
	p.consumeSemicolon()
	return &ast.ReturnStatement{Base: mkB(start, p.prevEnd()), Argument: arg}
}

func (p *Parser) parseThrowStatement() ast.Statement {
	start := p.advance().Span.Start
	if p.cur().PrecedingNewline {
		p.errorf(p.cur().Span, "illegal-newline", "no line break allowed between 'throw' and its argument")
	}
	arg := p.parseExpression()
	p.consumeSemicolon()
	return &ast.ThrowStatement{Base: mkB(start, p.prevEnd()), Argument: arg}
}

func (p *Parser) parseTryStatement() ast.Statement {
	start := p.advance().Span.Start
	block := p.parseBlockStatement()
	var handler *ast.CatchClause
	if p.at(token.CATCH) {
		p.advance()
		var param ast.Pattern
		if p.at(token.LPAREN) {
			p.advance()
			param = p.parseBindingTarget()
			p.expect(token.RPAREN)
		}
		body := p.parseBlockStatement()
		handler = &ast.CatchClause{Param: param, Body: body}
	}
	var finalizer *ast.BlockStatement
	if p.at(token.FINALLY) {
		p.advance()
		finalizer = p.parseBlockStatement()
	}
	if handler == nil && finalizer == nil {
		p.errorf(token.Span{Start: start}, "missing-catch-or-finally", "missing catch or finally after try")
	}
	return &ast.TryStatement{Base: mkB(start, p.prevEnd()), Block: block, Handler: handler, Finalizer: finalizer}
}

// ---- functions -----------------------------------------------------------

func (p *Parser) parseFunctionDeclaration(isAsync bool) ast.Statement {
	start := p.cur().Span.Start
	p.expect(token.FUNCTION)
	isGen := false
	if p.at(token.STAR) {
		p.advance()
		isGen = true
	}
	var name *ast.Identifier
	if !p.at(token.LPAREN) {
		name = p.parseIdentifierName()
	}
	params := p.parseParamList()
	savedYield, savedAwait := p.allowYield, p.allowAwait
	p.allowYield, p.allowAwait = isGen, isAsync
	body := p.parseFunctionBody()
	p.allowYield, p.allowAwait = savedYield, savedAwait
	return &ast.FunctionDeclaration{Base: mkB(start, p.prevEnd()), Name: name, Params: params, Body: body, IsAsync: isAsync, IsGenerator: isGen}
}

func (p *Parser) parseFunctionExpression(isAsync bool) ast.Expression {
	start := p.cur().Span.Start
	if isAsync {
		p.advance() // consume 'async'
	}
	p.expect(token.FUNCTION)
	isGen := false
	if p.at(token.STAR) {
		p.advance()
		isGen = true
	}
	var name *ast.Identifier
	if !p.at(token.LPAREN) {
		name = p.parseIdentifierName()
	}
	params := p.parseParamList()
	savedYield, savedAwait := p.allowYield, p.allowAwait
	p.allowYield, p.allowAwait = isGen, isAsync
	body := p.parseFunctionBody()
	p.allowYield, p.allowAwait = savedYield, savedAwait
	return &ast.FunctionExpression{Base: mkB(start, p.prevEnd()), Name: name, Params: params, Body: body, IsAsync: isAsync, IsGenerator: isGen}
}

func (p *Parser) parseParamList() []ast.Param {
	p.expect(token.LPAREN)
	var params []ast.Param
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		if p.at(token.DOTDOTDOT) {
			p.advance()
			target := p.parseBindingTarget()
			params = append(params, ast.Param{Pattern: target, Rest: true})
			break
		}
		target := p.parseBindingTarget()
		var def ast.Expression
		if p.at(token.ASSIGN) {
			p.advance()
			def = p.parseAssignment()
		}
		params = append(params, ast.Param{Pattern: target, Default: def})
		if p.at(token.COMMA) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(token.RPAREN)
	return params
}

func (p *Parser) parseFunctionBody() *ast.BlockStatement {
	start := p.expect(token.LBRACE).Span.Start
	savedStrict := p.strict
	if lit, ok := p.peekDirectivePrologue(); ok && lit == "use strict" {
		p.strict = true
	}
	var body []ast.Statement
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		body = append(body, p.parseStatementListItem())
	}
	end := p.expect(token.RBRACE).Span.End
	p.strict = savedStrict
	return &ast.BlockStatement{Base: mkB(start, end), Body: body}
}
