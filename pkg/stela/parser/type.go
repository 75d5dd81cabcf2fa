package parser

import (
	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/token"
)

var builtinKeywordKinds = map[uint]ast.BuiltinKind{
	token.VOID: ast.Void, token.BOOL: ast.Bool, token.BYTE: ast.Byte,
	token.CHAR: ast.Char, token.REAL: ast.Real, token.SINT: ast.Sint,
	token.UINT: ast.Uint, token.OPAQ: ast.Opaq,
}

// parseType parses a type per §3's Type variants: builtin, `[T]` array,
// `(params) -> ret` function signature, `{ fields }` anonymous struct
// (no `struct` keyword), or a bare identifier naming an alias (resolved later by §4.4.1).
func (p *Parser) parseType() (ast.Type, bool) {
	p.push("type")
	defer p.pop()
	//
	start := p.index
	lookahead := p.lookahead()
	//
	switch {
	case token.IsBuiltinType(lookahead.Kind):
		p.advance()
		return ast.NewBuiltin(p.spanFrom(start), builtinKeywordKinds[lookahead.Kind]), true
	case lookahead.Kind == token.LSQUARE:
		p.advance()
		//
		elem, ok := p.parseType()
		if !ok {
			return nil, false
		}
		//
		if !p.expect(token.RSQUARE, "']' closing array type") {
			return nil, false
		}
		//
		return ast.NewArray(p.spanFrom(start), elem), true
	case lookahead.Kind == token.LBRACE:
		return p.parseFuncType(start)
	case lookahead.Kind == token.LCURLY:
		return p.parseStructType(start)
	case lookahead.Kind == token.IDENTIFIER:
		p.advance()
		return ast.NewNamed(p.spanFrom(start), p.file.Text(lookahead.Span)), true
	default:
		p.fail("expected type")
		return nil, false
	}
}

func (p *Parser) parseFuncType(start int) (ast.Type, bool) {
	if !p.expect(token.LBRACE, "'(' opening function type parameters") {
		return nil, false
	}
	//
	var params []ast.Param
	//
	for !p.follows(token.RBRACE) {
		byRef := p.match(token.INOUT)
		//
		paramType, ok := p.parseType()
		if !ok {
			return nil, false
		}
		//
		params = append(params, ast.Param{ByReference: byRef, Type: paramType})
		//
		if !p.match(token.COMMA) {
			break
		}
	}
	//
	if !p.expect(token.RBRACE, "')' closing function type parameters") {
		return nil, false
	}
	//
	if !p.expect(token.ARROW, "'->' before function type return type") {
		return nil, false
	}
	//
	ret, ok := p.parseType()
	if !ok {
		return nil, false
	}
	//
	return ast.NewFunc(p.spanFrom(start), params, ret), true
}

func (p *Parser) parseStructType(start int) (ast.Type, bool) {
	if !p.expect(token.LCURLY, "'{' opening struct fields") {
		return nil, false
	}
	//
	var fields []ast.StructField
	seen := map[string]bool{}
	//
	for !p.follows(token.RCURLY) {
		fieldStart := p.index
		//
		name, ok := p.expectIdentifier("field name")
		if !ok {
			return nil, false
		}
		//
		if seen[name] {
			p.fail("duplicate struct field '" + name + "'")
			return nil, false
		}
		//
		seen[name] = true
		//
		if !p.expect(token.COLON, "':' before field type") {
			return nil, false
		}
		//
		fieldType, ok := p.parseType()
		if !ok {
			return nil, false
		}
		//
		fields = append(fields, ast.StructField{Name: name, Type: fieldType, Span: p.spanFrom(fieldStart)})
		//
		if !p.match(token.SEMICOLON) && !p.match(token.COMMA) {
			break
		}
	}
	//
	if !p.expect(token.RCURLY, "'}' closing struct fields") {
		return nil, false
	}
	//
	return ast.NewStruct(p.spanFrom(start), fields), true
}
