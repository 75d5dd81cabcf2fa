package parser

import (
	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/token"
)

// parseFuncDecl parses `[extern] func [(recv: [inout] T)] name(params) [->
// ret] { body }` (§6: "Function declarations optionally take a receiver in
// `(ident: [inout] T)` form before the name, making the function
// member-like").
func (p *Parser) parseFuncDecl() (ast.Decl, bool) {
	p.push("function declaration")
	defer p.pop()
	//
	start := p.index
	extern := p.match(token.EXTERN)
	//
	if !p.expect(token.FUNC, "'func'") {
		return nil, false
	}
	//
	var receiver *ast.FuncParam
	//
	if p.follows(token.LBRACE) && p.followsReceiver() {
		r, ok := p.parseFuncParam()
		if !ok {
			return nil, false
		}
		//
		receiver = &r
	}
	//
	name, ok := p.expectIdentifier("function name")
	if !ok {
		return nil, false
	}
	//
	params, ok := p.parseParamList()
	if !ok {
		return nil, false
	}
	//
	var ret ast.Type = ast.NewBuiltin(p.previousSpan(), ast.Void)
	//
	if p.match(token.ARROW) {
		if ret, ok = p.parseType(); !ok {
			return nil, false
		}
	}
	//
	body, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	//
	return ast.NewFuncDecl(p.spanFrom(start), receiver, name, params, ret, body, extern), true
}

// followsReceiver disambiguates `(recv: T) name(...)` from a parameter list
// with no receiver (`name(...)`) by peeking for `( identifier :`.
func (p *Parser) followsReceiver() bool {
	return p.following(token.LBRACE, token.IDENTIFIER, token.COLON)
}

func (p *Parser) parseFuncParam() (ast.FuncParam, bool) {
	start := p.index
	//
	if !p.expect(token.LBRACE, "'(' opening receiver") {
		return ast.FuncParam{}, false
	}
	//
	name, ok := p.expectIdentifier("receiver name")
	if !ok {
		return ast.FuncParam{}, false
	}
	//
	if !p.expect(token.COLON, "':' before receiver type") {
		return ast.FuncParam{}, false
	}
	//
	byRef := p.match(token.INOUT)
	//
	paramType, ok := p.parseType()
	if !ok {
		return ast.FuncParam{}, false
	}
	//
	if !p.expect(token.RBRACE, "')' closing receiver") {
		return ast.FuncParam{}, false
	}
	//
	return ast.FuncParam{Name: name, Type: paramType, ByReference: byRef, Span: p.spanFrom(start)}, true
}

func (p *Parser) parseParamList() ([]ast.FuncParam, bool) {
	p.push("parameter list")
	defer p.pop()
	//
	if !p.expect(token.LBRACE, "'(' opening parameter list") {
		return nil, false
	}
	//
	var params []ast.FuncParam
	//
	for !p.follows(token.RBRACE) {
		start := p.index
		//
		name, ok := p.expectIdentifier("parameter name")
		if !ok {
			return nil, false
		}
		//
		if !p.expect(token.COLON, "':' before parameter type") {
			return nil, false
		}
		//
		byRef := p.match(token.INOUT)
		//
		paramType, ok := p.parseType()
		if !ok {
			return nil, false
		}
		//
		params = append(params, ast.FuncParam{Name: name, Type: paramType, ByReference: byRef, Span: p.spanFrom(start)})
		//
		if !p.match(token.COMMA) {
			break
		}
	}
	//
	if !p.expect(token.RBRACE, "')' closing parameter list") {
		return nil, false
	}
	//
	return params, true
}

// parseVarDecl parses `var name [: T] [= expr];` or `let name [: T] = expr;`
// (let requires an initializer, since it can never be assigned again).
func (p *Parser) parseVarDecl() (*ast.VarDecl, bool) {
	p.push("variable declaration")
	defer p.pop()
	//
	start := p.index
	mutability := ast.Var
	//
	if p.match(token.LET) {
		mutability = ast.Let
	} else if !p.expect(token.VAR, "'var' or 'let'") {
		return nil, false
	}
	//
	name, ok := p.expectIdentifier("variable name")
	if !ok {
		return nil, false
	}
	//
	var declaredType ast.Type
	//
	if p.match(token.COLON) {
		if declaredType, ok = p.parseType(); !ok {
			return nil, false
		}
	}
	//
	var init ast.Expr
	//
	if mutability == ast.Let && !p.follows(token.ASSIGN) {
		p.fail("'let' declaration requires an initializer")
		return nil, false
	}
	//
	if p.match(token.ASSIGN) {
		if init, ok = p.parseExpr(); !ok {
			return nil, false
		}
	}
	//
	if !p.expect(token.SEMICOLON, "';' after variable declaration") {
		return nil, false
	}
	//
	return ast.NewVarDecl(p.spanFrom(start), name, mutability, declaredType, init), true
}

// parseTypeAliasDecl parses `type Name = T;` (weak) or `type Name T;`
// (strong).
func (p *Parser) parseTypeAliasDecl() (*ast.TypeAliasDecl, bool) {
	p.push("type alias declaration")
	defer p.pop()
	//
	start := p.index
	//
	if !p.expect(token.TYPE, "'type'") {
		return nil, false
	}
	//
	name, ok := p.expectIdentifier("type alias name")
	if !ok {
		return nil, false
	}
	//
	strong := !p.match(token.ASSIGN)
	//
	of, ok := p.parseType()
	if !ok {
		return nil, false
	}
	//
	if !p.expect(token.SEMICOLON, "';' after type alias declaration") {
		return nil, false
	}
	//
	return ast.NewTypeAliasDecl(p.spanFrom(start), name, of, strong), true
}
