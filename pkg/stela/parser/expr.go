package parser

import (
	"strings"

	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/token"
)

// parseExpr is the entry point into precedence climbing (§4.2): ternary
// binds loosest, then the C-family chain of binary operator tiers down to
// unary and postfix, bottoming out at primary.
func (p *Parser) parseExpr() (ast.Expr, bool) {
	return p.parseTernary()
}

func (p *Parser) parseTernary() (ast.Expr, bool) {
	start := p.index
	//
	cond, ok := p.parseLogicalOr()
	if !ok {
		return nil, false
	}
	//
	if !p.match(token.QUESTION) {
		return cond, true
	}
	//
	then, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	//
	if !p.expect(token.COLON, "':' in ternary expression") {
		return nil, false
	}
	//
	els, ok := p.parseTernary()
	if !ok {
		return nil, false
	}
	//
	return ast.NewTernary(p.spanFrom(start), cond, then, els), true
}

// binaryTier generalizes one left-associative precedence level: parse next,
// then repeatedly consume an operator whose kind is in kinds and fold into a
// Binary node.
func (p *Parser) binaryTier(next func() (ast.Expr, bool), kinds map[uint]ast.BinOp) (ast.Expr, bool) {
	start := p.index
	//
	left, ok := next()
	if !ok {
		return nil, false
	}
	//
	for {
		op, matches := kinds[p.lookahead().Kind]
		if !matches {
			return left, true
		}
		//
		p.advance()
		//
		right, ok := next()
		if !ok {
			return nil, false
		}
		//
		left = ast.NewBinary(p.spanFrom(start), op, left, right)
	}
}

var (
	logicalOrKinds  = map[uint]ast.BinOp{token.OR_OR: ast.LogOr}
	logicalAndKinds = map[uint]ast.BinOp{token.AND_AND: ast.LogAnd}
	bitOrKinds      = map[uint]ast.BinOp{token.PIPE: ast.BitOr}
	bitXorKinds     = map[uint]ast.BinOp{token.CARET: ast.BitXor}
	bitAndKinds     = map[uint]ast.BinOp{token.AMP: ast.BitAnd}
	equalityKinds   = map[uint]ast.BinOp{token.EQ: ast.CmpEq, token.NEQ: ast.CmpNeq}
	orderKinds      = map[uint]ast.BinOp{
		token.LT: ast.CmpLt, token.LTEQ: ast.CmpLtEq,
		token.GT: ast.CmpGt, token.GTEQ: ast.CmpGtEq,
	}
	shiftKinds = map[uint]ast.BinOp{token.SHL: ast.ShiftL, token.SHR: ast.ShiftR}
	addKinds   = map[uint]ast.BinOp{token.ADD: ast.Add, token.SUB: ast.Sub}
	mulKinds   = map[uint]ast.BinOp{token.MUL: ast.Mul, token.DIV: ast.Div, token.MOD: ast.Mod}
)

func (p *Parser) parseLogicalOr() (ast.Expr, bool) {
	return p.binaryTier(p.parseLogicalAnd, logicalOrKinds)
}

func (p *Parser) parseLogicalAnd() (ast.Expr, bool) {
	return p.binaryTier(p.parseBitOr, logicalAndKinds)
}

func (p *Parser) parseBitOr() (ast.Expr, bool) {
	return p.binaryTier(p.parseBitXor, bitOrKinds)
}

func (p *Parser) parseBitXor() (ast.Expr, bool) {
	return p.binaryTier(p.parseBitAnd, bitXorKinds)
}

func (p *Parser) parseBitAnd() (ast.Expr, bool) {
	return p.binaryTier(p.parseEquality, bitAndKinds)
}

func (p *Parser) parseEquality() (ast.Expr, bool) {
	return p.binaryTier(p.parseOrder, equalityKinds)
}

func (p *Parser) parseOrder() (ast.Expr, bool) {
	return p.binaryTier(p.parseShift, orderKinds)
}

func (p *Parser) parseShift() (ast.Expr, bool) {
	return p.binaryTier(p.parseAdditive, shiftKinds)
}

func (p *Parser) parseAdditive() (ast.Expr, bool) {
	return p.binaryTier(p.parseMultiplicative, addKinds)
}

func (p *Parser) parseMultiplicative() (ast.Expr, bool) {
	return p.binaryTier(p.parseUnary, mulKinds)
}

var unaryOpKinds = map[uint]ast.UnOp{
	token.SUB: ast.Neg, token.NOT: ast.Not, token.TILDE: ast.BitNot,
}

func (p *Parser) parseUnary() (ast.Expr, bool) {
	start := p.index
	//
	if op, ok := unaryOpKinds[p.lookahead().Kind]; ok {
		p.advance()
		//
		operand, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		//
		return ast.NewUnary(p.spanFrom(start), op, operand), true
	}
	//
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, bool) {
	start := p.index
	//
	expr, ok := p.parsePrimary()
	if !ok {
		return nil, false
	}
	//
	for {
		switch {
		case p.match(token.LBRACE):
			var args []ast.Expr
			//
			for !p.follows(token.RBRACE) {
				arg, ok := p.parseExpr()
				if !ok {
					return nil, false
				}
				//
				args = append(args, arg)
				//
				if !p.match(token.COMMA) {
					break
				}
			}
			//
			if !p.expect(token.RBRACE, "')' closing call arguments") {
				return nil, false
			}
			//
			expr = ast.NewCall(p.spanFrom(start), expr, args)
		case p.match(token.LSQUARE):
			index, ok := p.parseExpr()
			if !ok {
				return nil, false
			}
			//
			if !p.expect(token.RSQUARE, "']' closing subscript") {
				return nil, false
			}
			//
			expr = ast.NewSubscript(p.spanFrom(start), expr, index)
		case p.match(token.DOT):
			field, ok := p.expectIdentifier("field name")
			if !ok {
				return nil, false
			}
			//
			expr = ast.NewMember(p.spanFrom(start), expr, field)
		default:
			return expr, true
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, bool) {
	p.push("expression")
	defer p.pop()
	//
	start := p.index
	lookahead := p.lookahead()
	//
	switch lookahead.Kind {
	case token.NUMBER:
		p.advance()
		return ast.NewNumberLit(p.spanFrom(start), p.file.Text(lookahead.Span)), true
	case token.STRING:
		p.advance()
		return ast.NewStringLit(p.spanFrom(start), unescapeLiteral(p.file.Text(lookahead.Span))), true
	case token.CHARACTER:
		p.advance()
		return ast.NewCharLit(p.spanFrom(start), decodeCharLiteral(p.file.Text(lookahead.Span))), true
	case token.TRUE:
		p.advance()
		return ast.NewBoolLit(p.spanFrom(start), true), true
	case token.FALSE:
		p.advance()
		return ast.NewBoolLit(p.spanFrom(start), false), true
	case token.IDENTIFIER:
		p.advance()
		return ast.NewIdent(p.spanFrom(start), p.file.Text(lookahead.Span)), true
	case token.LBRACE:
		p.advance()
		//
		inner, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		//
		if !p.expect(token.RBRACE, "')' closing parenthesized expression") {
			return nil, false
		}
		//
		return inner, true
	case token.LSQUARE:
		return p.parseArrayLit(start)
	case token.LCURLY:
		return p.parseInitListLit(start)
	case token.MAKE:
		return p.parseMakeExpr(start)
	case token.FUNC:
		return p.parseLambdaLit(start)
	default:
		p.fail("expected expression")
		return nil, false
	}
}

func (p *Parser) parseArrayLit(start int) (ast.Expr, bool) {
	p.advance()
	//
	var elems []ast.Expr
	//
	for !p.follows(token.RSQUARE) {
		elem, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		//
		elems = append(elems, elem)
		//
		if !p.match(token.COMMA) {
			break
		}
	}
	//
	if !p.expect(token.RSQUARE, "']' closing array literal") {
		return nil, false
	}
	//
	return ast.NewArrayLit(p.spanFrom(start), elems), true
}

func (p *Parser) parseInitListLit(start int) (ast.Expr, bool) {
	p.advance()
	//
	var elems []ast.Expr
	//
	for !p.follows(token.RCURLY) {
		elem, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		//
		elems = append(elems, elem)
		//
		if !p.match(token.COMMA) {
			break
		}
	}
	//
	if !p.expect(token.RCURLY, "'}' closing init-list literal") {
		return nil, false
	}
	//
	return ast.NewInitListLit(p.spanFrom(start), elems), true
}

// parseMakeExpr parses `make T`, `make T(expr)` (builtin cast / single-arg
// construction), or `make T{e1, e2, ...}` (aggregate construction), per §6's
// "make T is both cast (for builtins) and construct (for aggregates)".
func (p *Parser) parseMakeExpr(start int) (ast.Expr, bool) {
	p.advance()
	//
	targetType, ok := p.parseType()
	if !ok {
		return nil, false
	}
	//
	var arg ast.Expr
	//
	switch {
	case p.follows(token.LBRACE):
		p.advance()
		//
		if arg, ok = p.parseExpr(); !ok {
			return nil, false
		}
		//
		if !p.expect(token.RBRACE, "')' closing make argument") {
			return nil, false
		}
	case p.follows(token.LCURLY):
		if arg, ok = p.parseInitListLit(p.index); !ok {
			return nil, false
		}
	}
	//
	return ast.NewMake(p.spanFrom(start), targetType, arg), true
}

// parseLambdaLit parses `func (params) [-> ret] { body }` in expression
// position.
func (p *Parser) parseLambdaLit(start int) (ast.Expr, bool) {
	p.push("lambda literal")
	defer p.pop()
	//
	p.advance()
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
	return ast.NewLambdaLit(p.spanFrom(start), params, ret, body), true
}

// unescapeLiteral strips the surrounding quotes from a lexed string literal
// and resolves backslash escapes.
func unescapeLiteral(text string) string {
	inner := text[1 : len(text)-1]
	//
	var b strings.Builder
	//
	for i := 0; i < len(inner); i++ {
		if inner[i] != '\\' || i+1 >= len(inner) {
			b.WriteByte(inner[i])
			continue
		}
		//
		i++
		//
		switch inner[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case '\\', '"', '\'':
			b.WriteByte(inner[i])
		default:
			b.WriteByte(inner[i])
		}
	}
	//
	return b.String()
}

// decodeCharLiteral resolves a lexed `'c'` or `'\n'`-style character literal
// to its rune value.
func decodeCharLiteral(text string) rune {
	unescaped := unescapeLiteral(text)
	//
	if unescaped == "" {
		return 0
	}
	//
	r := []rune(unescaped)
	//
	return r[0]
}
