package parser

import (
	"github.com/asynkron/jsengine/internal/ast"
	"github.com/asynkron/jsengine/internal/token"
)

// parseBindingTarget parses a declaration-side pattern: Identifier,
// ArrayPattern, or ObjectPattern (spec.md §4.2, destructuring).
func (p *Parser) parseBindingTarget() ast.Pattern {
	switch p.cur().Type {
	case token.LBRACK:
		return p.parseArrayPattern()
	case token.LBRACE:
		return p.parseObjectPattern()
	default:
		tok := p.advance()
		if p.strict && token.StrictReserved[tok.Literal] {
			p.errorf(tok.Span, "strict-reserved-word", "%q is a reserved word in strict mode", tok.Literal)
		}
		return &ast.Identifier{Base: mkB(tok.Span.Start, tok.Span.End), Name: tok.Literal}
	}
}

func (p *Parser) parseArrayPattern() ast.Pattern {
	start := p.expect(token.LBRACK).Span.Start
	var elems []ast.Pattern
	for !p.at(token.RBRACK) && !p.at(token.EOF) {
		if p.at(token.COMMA) {
			elems = append(elems, nil)
			p.advance()
			continue
		}
		if p.at(token.DOTDOTDOT) {
			rstart := p.advance().Span.Start
			arg := p.parseBindingTarget()
			elems = append(elems, &ast.RestElement{Base: mkB(rstart, p.prevEnd()), Argument: arg})
			break
		}
		target := p.parseBindingTarget()
		if p.at(token.ASSIGN) {
			astart := target.Span().Start
			p.advance()
			def := p.parseAssignment()
			target = &ast.AssignmentPattern{Base: mkB(astart, p.prevEnd()), Target: target, Default: def}
		}
		elems = append(elems, target)
		if p.at(token.COMMA) {
			p.advance()
		} else {
			break
		}
	}
	end := p.expect(token.RBRACK).Span.End
	return &ast.ArrayPattern{Base: mkB(start, end), Elements: elems}
}

func (p *Parser) parseObjectPattern() ast.Pattern {
	start := p.expect(token.LBRACE).Span.Start
	var props []ast.ObjectPatternProperty
	var rest *ast.RestElement
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		if p.at(token.DOTDOTDOT) {
			rstart := p.advance().Span.Start
			arg := p.parseBindingTarget()
			rest = &ast.RestElement{Base: mkB(rstart, p.prevEnd()), Argument: arg}
			break
		}
		key, computed := p.parsePropertyKey()
		var value ast.Pattern
		if p.at(token.COLON) {
			p.advance()
			value = p.parseBindingTarget()
		} else {
			ident, _ := key.(*ast.Identifier)
			value = ident
		}
		if p.at(token.ASSIGN) {
			astart := value.Span().Start
			p.advance()
			def := p.parseAssignment()
			value = &ast.AssignmentPattern{Base: mkB(astart, p.prevEnd()), Target: value, Default: def}
		}
		props = append(props, ast.ObjectPatternProperty{Key: key, Computed: computed, Value: value})
		if p.at(token.COMMA) {
			p.advance()
		} else {
			break
		}
	}
	end := p.expect(token.RBRACE).Span.End
	return &ast.ObjectPattern{Base: mkB(start, end), Properties: props, Rest: rest}
}

// ---- expression -> pattern reinterpretation (cover grammar) --------------

// exprToPattern converts an already-parsed expression into a Pattern for
// the `for (x of iter)` / `for (x in obj)` assignment-target position and
// for bare destructuring assignment, where the grammar initially parses an
// Expression and must later reinterpret it (spec.md §4.2).
func exprToPattern(e ast.Expression) ast.Node {
	switch v := e.(type) {
	case *ast.ArrayLiteral:
		return arrayLiteralToPattern(v)
	case *ast.ObjectLiteral:
		return objectLiteralToPattern(v)
	case *ast.Identifier, *ast.MemberExpression:
		return v
	default:
		return v
	}
}

func arrayLiteralToPattern(lit *ast.ArrayLiteral) ast.Pattern {
	elems := make([]ast.Pattern, len(lit.Elements))
	for i, el := range lit.Elements {
		elems[i] = exprElementToPattern(el)
	}
	return &ast.ArrayPattern{Base: ast.NewBase(lit.Span()), Elements: elems}
}

func exprElementToPattern(e ast.Expression) ast.Pattern {
	switch v := e.(type) {
	case nil:
		return nil
	case *ast.SpreadElement:
		return &ast.RestElement{Base: ast.NewBase(v.Span()), Argument: exprElementToPattern(v.Argument)}
	case *ast.AssignmentExpression:
		if v.Operator == "=" {
			return &ast.AssignmentPattern{Base: ast.NewBase(v.Span()), Target: exprElementToPattern(v.Target), Default: v.Value}
		}
	case *ast.ArrayLiteral:
		return arrayLiteralToPattern(v)
	case *ast.ObjectLiteral:
		return objectLiteralToPattern(v)
	case ast.Pattern:
		return v
	}
	if pat, ok := e.(ast.Pattern); ok {
		return pat
	}
	return &ast.AssignmentPattern{Target: nil} // unreachable for well-formed input
}

func objectLiteralToPattern(lit *ast.ObjectLiteral) ast.Pattern {
	var props []ast.ObjectPatternProperty
	var rest *ast.RestElement
	for _, prop := range lit.Properties {
		if prop.Kind == ast.PropSpread {
			rest = &ast.RestElement{Base: ast.NewBase(prop.Value.Span()), Argument: exprElementToPattern(prop.Value)}
			continue
		}
		props = append(props, ast.ObjectPatternProperty{
			Key:      prop.Key,
			Computed: prop.Computed,
			Value:    exprElementToPattern(prop.Value),
		})
	}
	return &ast.ObjectPattern{Base: ast.NewBase(lit.Span()), Properties: props, Rest: rest}
}
