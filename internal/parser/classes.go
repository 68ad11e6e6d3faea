package parser

import (
	"github.com/asynkron/jsengine/internal/ast"
	"github.com/asynkron/jsengine/internal/token"
)

func (p *Parser) parseClassDeclaration() ast.Statement {
	start := p.cur().Span.Start
	name, super, members := p.parseClassBody()
	return &ast.ClassDeclaration{Base: mkB(start, p.prevEnd()), Name: name, SuperClass: super, Members: members}
}

func (p *Parser) parseClassExpression() ast.Expression {
	start := p.cur().Span.Start
	name, super, members := p.parseClassBody()
	return &ast.ClassExpression{Base: mkB(start, p.prevEnd()), Name: name, SuperClass: super, Members: members}
}

// parseClassBody parses from `class` through the closing `}`. Class bodies
// are always strict (spec.md §4.4).
func (p *Parser) parseClassBody() (*ast.Identifier, ast.Expression, []ast.ClassMember) {
	p.expect(token.CLASS)
	savedStrict := p.strict
	p.strict = true

	var name *ast.Identifier
	if p.at(token.IDENT) {
		name = p.parseIdentifierName()
	}
	var super ast.Expression
	if p.at(token.EXTENDS) {
		p.advance()
		super = p.parseLeftHandSide()
	}
	p.expect(token.LBRACE)
	var members []ast.ClassMember
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		if p.at(token.SEMICOLON) {
			p.advance()
			continue
		}
		members = append(members, p.parseClassMember())
	}
	p.expect(token.RBRACE)
	p.strict = savedStrict
	return name, super, members
}

func (p *Parser) parseClassMember() ast.ClassMember {
	static := false
	if p.at(token.STATIC) && !p.isMemberTerminator(p.peekAt(1)) {
		if p.peekAt(1).Type == token.LBRACE {
			p.advance()
			body := p.parseBlockStatement()
			return ast.ClassMember{Kind: ast.StaticBlockKind, Static: true, Body: body}
		}
		p.advance()
		static = true
	}

	isAsync, isGen := false, false
	if p.at(token.ASYNC) && !p.isMemberTerminator(p.peekAt(1)) && !p.peekAt(1).PrecedingNewline {
		p.advance()
		isAsync = true
	}
	if p.at(token.STAR) {
		p.advance()
		isGen = true
	}
	if (p.at(token.GET) || p.at(token.SET)) && !p.isMemberTerminator(p.peekAt(1)) {
		kind := ast.GetterKind
		if p.cur().Type == token.SET {
			kind = ast.SetterKind
		}
		p.advance()
		key, computed := p.parseClassKey()
		fn := p.parseMethodBody(false, false)
		return ast.ClassMember{Kind: kind, Key: key, Computed: computed, Static: static, Value: fn}
	}

	key, computed := p.parseClassKey()

	if p.at(token.LPAREN) {
		fn := p.parseMethodBody(isAsync, isGen)
		isCtor := !static && !computed && keyName(key) == "constructor"
		return ast.ClassMember{Kind: ast.MethodKind, Key: key, Computed: computed, Static: static, Value: fn, IsCtor: isCtor}
	}

	// field definition, with optional initializer
	var init ast.Expression
	if p.at(token.ASSIGN) {
		p.advance()
		init = p.parseAssignment()
	}
	p.consumeSemicolon()
	return ast.ClassMember{Kind: ast.FieldKind, Key: key, Computed: computed, Static: static, Value: init}
}

func (p *Parser) isMemberTerminator(t token.Token) bool {
	switch t.Type {
	case token.LPAREN, token.ASSIGN, token.SEMICOLON, token.RBRACE:
		return true
	}
	return false
}

func (p *Parser) parseClassKey() (ast.Expression, bool) {
	if p.at(token.PRIVATE_IDENT) {
		tok := p.advance()
		return &ast.PrivateName{Base: mkB(tok.Span.Start, tok.Span.End), Name: tok.Literal}, false
	}
	return p.parsePropertyKey()
}

func keyName(key ast.Expression) string {
	switch k := key.(type) {
	case *ast.Identifier:
		return k.Name
	case *ast.StringLiteral:
		return k.Value
	}
	return ""
}
