package parser

import (
	"github.com/asynkron/jsengine/internal/ast"
	"github.com/asynkron/jsengine/internal/token"
)

func (p *Parser) parseImportDeclaration() ast.Statement {
	start := p.advance().Span.Start

	// `import "specifier"` (side-effect only)
	if p.at(token.STRING) {
		src := p.advance().Literal
		p.consumeSemicolon()
		return &ast.ImportDeclaration{Base: mkB(start, p.prevEnd()), Source: src}
	}

	decl := &ast.ImportDeclaration{Base: mkB(start, start)}
	if p.at(token.IDENT) {
		decl.Default = p.advance().Literal
		if p.at(token.COMMA) {
			p.advance()
		}
	}
	if p.at(token.STAR) {
		p.advance()
		p.expect(token.IDENT) // "as"
		decl.Namespace = p.advance().Literal
	} else if p.at(token.LBRACE) {
		p.advance()
		for !p.at(token.RBRACE) && !p.at(token.EOF) {
			imported := p.advance().Literal
			local := imported
			if p.at(token.IDENT) && p.cur().Literal == "as" {
				p.advance()
				local = p.advance().Literal
			}
			decl.Named = append(decl.Named, ast.ImportSpecifier{Imported: imported, Local: local})
			if p.at(token.COMMA) {
				p.advance()
			} else {
				break
			}
		}
		p.expect(token.RBRACE)
	}
	p.expect(token.IDENT) // "from" (contextual keyword, lexed as IDENT)
	decl.Source = p.expect(token.STRING).Literal
	p.consumeSemicolon()
	decl.Base = mkB(start, p.prevEnd())
	return decl
}

func (p *Parser) parseExportDeclaration() ast.Statement {
	start := p.advance().Span.Start

	if p.at(token.DEFAULT) {
		p.advance()
		var inner ast.Node
		switch p.cur().Type {
		case token.FUNCTION:
			inner = p.parseFunctionDeclaration(false)
		case token.CLASS:
			inner = p.parseClassDeclaration()
		case token.ASYNC:
			p.advance()
			inner = p.parseFunctionDeclaration(true)
		default:
			inner = p.parseAssignment()
			p.consumeSemicolon()
		}
		return &ast.ExportDefaultDeclaration{Base: mkB(start, p.prevEnd()), Declaration: inner}
	}

	if p.at(token.STAR) {
		p.advance()
		exported := ""
		if p.at(token.IDENT) && p.cur().Literal == "as" {
			p.advance()
			exported = p.advance().Literal
		}
		p.expect(token.IDENT) // "from"
		src := p.expect(token.STRING).Literal
		p.consumeSemicolon()
		return &ast.ExportAllDeclaration{Base: mkB(start, p.prevEnd()), Exported: exported, Source: src}
	}

	if p.at(token.LBRACE) {
		p.advance()
		var specs []ast.ExportSpecifier
		for !p.at(token.RBRACE) && !p.at(token.EOF) {
			local := p.advance().Literal
			exported := local
			if p.at(token.IDENT) && p.cur().Literal == "as" {
				p.advance()
				exported = p.advance().Literal
			}
			specs = append(specs, ast.ExportSpecifier{Local: local, Exported: exported})
			if p.at(token.COMMA) {
				p.advance()
			} else {
				break
			}
		}
		p.expect(token.RBRACE)
		src := ""
		if p.at(token.IDENT) && p.cur().Literal == "from" {
			p.advance()
			src = p.expect(token.STRING).Literal
		}
		p.consumeSemicolon()
		return &ast.ExportNamedDeclaration{Base: mkB(start, p.prevEnd()), Specifiers: specs, Source: src}
	}

	// export <declaration>
	decl := p.parseStatementListItem()
	return &ast.ExportNamedDeclaration{Base: mkB(start, p.prevEnd()), Declaration: decl}
}
