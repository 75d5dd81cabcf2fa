package parser

import (
	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/token"
)

// parseBlock parses a `{ stmt* }` block. Its Scope is left nil; semantic
// analysis allocates and attaches a *ast.Scope once it walks the block (§4.3).
func (p *Parser) parseBlock() (*ast.Block, bool) {
	p.push("block")
	defer p.pop()
	//
	start := p.index
	//
	if !p.expect(token.LCURLY, "'{' opening block") {
		return nil, false
	}
	//
	var stmts []ast.Stmt
	//
	for !p.follows(token.RCURLY) {
		stmt, ok := p.parseStmt()
		if !ok {
			return nil, false
		}
		//
		stmts = append(stmts, stmt)
	}
	//
	if !p.expect(token.RCURLY, "'}' closing block") {
		return nil, false
	}
	//
	return ast.NewBlock(p.spanFrom(start), stmts, nil), true
}

func (p *Parser) parseStmt() (ast.Stmt, bool) {
	switch {
	case p.follows(token.LCURLY):
		return p.parseBlock()
	case p.follows(token.IF):
		return p.parseIf()
	case p.follows(token.SWITCH):
		return p.parseSwitch()
	case p.follows(token.RETURN):
		return p.parseReturn()
	case p.follows(token.WHILE):
		return p.parseWhile()
	case p.follows(token.FOR):
		return p.parseFor()
	case p.follows(token.BREAK):
		start := p.index
		p.advance()
		//
		if !p.expect(token.SEMICOLON, "';' after 'break'") {
			return nil, false
		}
		//
		return ast.NewBreak(p.spanFrom(start)), true
	case p.follows(token.CONTINUE):
		start := p.index
		p.advance()
		//
		if !p.expect(token.SEMICOLON, "';' after 'continue'") {
			return nil, false
		}
		//
		return ast.NewContinue(p.spanFrom(start)), true
	case p.follows(token.TERMINATE):
		start := p.index
		p.advance()
		//
		if !p.expect(token.SEMICOLON, "';' after 'terminate'") {
			return nil, false
		}
		//
		return ast.NewTerminate(p.spanFrom(start)), true
	case p.follows(token.SEMICOLON):
		start := p.index
		p.advance()
		//
		return ast.NewEmpty(p.spanFrom(start)), true
	case p.follows(token.VAR, token.LET):
		return p.parseVarDecl()
	default:
		stmt, ok := p.parseSimpleStmt()
		if !ok {
			return nil, false
		}
		//
		if !p.expect(token.SEMICOLON, "';' after statement") {
			return nil, false
		}
		//
		return stmt, true
	}
}

func (p *Parser) parseIf() (*ast.If, bool) {
	p.push("if statement")
	defer p.pop()
	//
	start := p.index
	//
	if !p.expect(token.IF, "'if'") {
		return nil, false
	}
	//
	if !p.expect(token.LBRACE, "'(' opening if condition") {
		return nil, false
	}
	//
	cond, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	//
	if !p.expect(token.RBRACE, "')' closing if condition") {
		return nil, false
	}
	//
	then, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	//
	var elseBlock *ast.Block
	//
	if p.match(token.ELSE) {
		if p.follows(token.IF) {
			elseStart := p.index
			//
			inner, ok := p.parseIf()
			if !ok {
				return nil, false
			}
			//
			elseBlock = ast.NewBlock(p.spanFrom(elseStart), []ast.Stmt{inner}, nil)
		} else if elseBlock, ok = p.parseBlock(); !ok {
			return nil, false
		}
	}
	//
	return ast.NewIf(p.spanFrom(start), cond, then, elseBlock), true
}

func (p *Parser) parseSwitch() (*ast.Switch, bool) {
	p.push("switch statement")
	defer p.pop()
	//
	start := p.index
	//
	if !p.expect(token.SWITCH, "'switch'") {
		return nil, false
	}
	//
	if !p.expect(token.LBRACE, "'(' opening switch subject") {
		return nil, false
	}
	//
	subject, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	//
	if !p.expect(token.RBRACE, "')' closing switch subject") {
		return nil, false
	}
	//
	if !p.expect(token.LCURLY, "'{' opening switch body") {
		return nil, false
	}
	//
	var (
		cases []ast.Case
		def   *ast.Case
	)
	//
	for p.follows(token.CASE) {
		p.advance()
		//
		if !p.expect(token.LBRACE, "'(' opening case expression") {
			return nil, false
		}
		//
		expr, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		//
		if !p.expect(token.RBRACE, "')' closing case expression") {
			return nil, false
		}
		//
		body, ok := p.parseBlock()
		if !ok {
			return nil, false
		}
		//
		cases = append(cases, ast.Case{Expr: expr, Body: body})
	}
	//
	if p.match(token.DEFAULT) {
		body, ok := p.parseBlock()
		if !ok {
			return nil, false
		}
		//
		def = &ast.Case{Body: body}
	}
	//
	if !p.expect(token.RCURLY, "'}' closing switch body") {
		return nil, false
	}
	//
	return ast.NewSwitch(p.spanFrom(start), subject, cases, def), true
}

func (p *Parser) parseReturn() (*ast.Return, bool) {
	start := p.index
	p.advance()
	//
	var (
		expr ast.Expr
		ok   bool
	)
	//
	if !p.follows(token.SEMICOLON) {
		if expr, ok = p.parseExpr(); !ok {
			return nil, false
		}
	}
	//
	if !p.expect(token.SEMICOLON, "';' after return") {
		return nil, false
	}
	//
	return ast.NewReturn(p.spanFrom(start), expr), true
}

func (p *Parser) parseWhile() (*ast.While, bool) {
	p.push("while statement")
	defer p.pop()
	//
	start := p.index
	p.advance()
	//
	if !p.expect(token.LBRACE, "'(' opening while condition") {
		return nil, false
	}
	//
	cond, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	//
	if !p.expect(token.RBRACE, "')' closing while condition") {
		return nil, false
	}
	//
	body, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	//
	return ast.NewWhile(p.spanFrom(start), cond, body), true
}

func (p *Parser) parseFor() (*ast.For, bool) {
	p.push("for statement")
	defer p.pop()
	//
	start := p.index
	p.advance()
	//
	if !p.expect(token.LBRACE, "'(' opening for clauses") {
		return nil, false
	}
	//
	var (
		init ast.Stmt
		ok   bool
	)
	//
	switch {
	case p.follows(token.SEMICOLON):
		p.advance()
	case p.follows(token.VAR, token.LET):
		if init, ok = p.parseVarDecl(); !ok {
			return nil, false
		}
	default:
		if init, ok = p.parseSimpleStmt(); !ok {
			return nil, false
		}
		//
		if !p.expect(token.SEMICOLON, "';' after for-loop initializer") {
			return nil, false
		}
	}
	//
	var cond ast.Expr
	//
	if !p.follows(token.SEMICOLON) {
		if cond, ok = p.parseExpr(); !ok {
			return nil, false
		}
	}
	//
	if !p.expect(token.SEMICOLON, "';' after for-loop condition") {
		return nil, false
	}
	//
	var latch ast.Stmt
	//
	if !p.follows(token.RBRACE) {
		if latch, ok = p.parseSimpleStmt(); !ok {
			return nil, false
		}
	}
	//
	if !p.expect(token.RBRACE, "')' closing for clauses") {
		return nil, false
	}
	//
	body, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	//
	return ast.NewFor(p.spanFrom(start), init, cond, latch, body), true
}

var assignOpKinds = map[uint]ast.AssignOp{
	token.ASSIGN: ast.AssignSet, token.ADD_ASSIGN: ast.AssignAdd,
	token.SUB_ASSIGN: ast.AssignSub, token.MUL_ASSIGN: ast.AssignMul,
	token.DIV_ASSIGN: ast.AssignDiv, token.MOD_ASSIGN: ast.AssignMod,
	token.OR_ASSIGN: ast.AssignOr, token.AND_ASSIGN: ast.AssignAnd,
	token.XOR_ASSIGN: ast.AssignXor, token.SHL_ASSIGN: ast.AssignShl,
	token.SHR_ASSIGN: ast.AssignShr,
}

// parseSimpleStmt parses an assignment, increment/decrement, declare-assign,
// or bare expression statement, without consuming its trailing delimiter —
// callers (parseStmt, parseFor) decide what follows.
func (p *Parser) parseSimpleStmt() (ast.Stmt, bool) {
	start := p.index
	//
	expr, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	//
	switch {
	case p.follows(token.DECL_ASSIGN):
		ident, ok := expr.(*ast.Ident)
		if !ok {
			p.fail("left side of ':=' must be a plain name")
			return nil, false
		}
		//
		p.advance()
		//
		rhs, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		//
		return ast.NewDeclAssign(p.spanFrom(start), ident.Name, rhs), true
	case p.follows(token.INC), p.follows(token.DEC):
		increment := p.lookahead().Kind == token.INC
		p.advance()
		//
		return ast.NewIncDec(p.spanFrom(start), expr, increment), true
	default:
		if op, isAssign := assignOpKinds[p.lookahead().Kind]; isAssign {
			p.advance()
			//
			rhs, ok := p.parseExpr()
			if !ok {
				return nil, false
			}
			//
			return ast.NewAssign(p.spanFrom(start), op, expr, rhs), true
		}
		//
		return ast.NewExprStmt(p.spanFrom(start), expr), true
	}
}
