// Package parser implements STELA's recursive-descent parser (§4.2):
// mutable-cursor, precedence-climbing for expressions, with a context stack
// describing the enclosing productions attached to every diagnostic.
package parser

import (
	"fmt"
	"slices"

	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/diag"
	"github.com/stela-lang/stela/pkg/stela/source"
	"github.com/stela-lang/stela/pkg/stela/token"
)

// Parser is a cursor over a module's token stream. Every production either
// consumes input and returns a node, or emits a diagnostic (through sink,
// with the current context stack appended) and leaves failed set so the
// caller unwinds instead of continuing to parse garbage (§4.2, "Error
// handling": the first parse error in a module terminates parsing of that
// module; see REDESIGN FLAGS "Exceptions as control flow -> result type").
type Parser struct {
	file   *source.File
	tokens []token.Token
	index  int
	sink   diag.Sink
	module string
	stack  []string
	failed bool
}

// NewParser constructs a parser over an already-lexed token stream.
func NewParser(file *source.File, tokens []token.Token, sink diag.Sink) *Parser {
	return &Parser{file: file, tokens: tokens, sink: sink, module: ast.DefaultModuleName}
}

// Parse consumes the entire token stream and produces one module. The
// boolean result is false if any fatal diagnostic was raised.
func (p *Parser) Parse() (*ast.Module, bool) {
	var (
		start   = p.index
		imports []*ast.Import
		decls   []ast.Decl
	)
	//
	p.push("module")
	defer p.pop()
	//
	if p.follows(token.MODULE) {
		p.advance()
		//
		name, ok := p.expectIdentifier("module name")
		if !ok {
			return nil, false
		}
		//
		p.module = name
		//
		if !p.expect(token.SEMICOLON, "';' after module declaration") {
			return nil, false
		}
	}
	//
	for p.follows(token.IMPORT) {
		importSpan := p.lookahead().Span
		p.advance()
		//
		name, ok := p.expectIdentifier("imported module name")
		if !ok {
			return nil, false
		}
		//
		if !p.expect(token.SEMICOLON, "';' after import") {
			return nil, false
		}
		//
		imports = append(imports, ast.NewImport(importSpan.Union(p.previousSpan()), name))
	}
	//
	for !p.follows(token.EOF) {
		decl, ok := p.parseDecl()
		if !ok {
			return nil, false
		}
		//
		decls = append(decls, decl)
	}
	//
	return ast.NewModule(p.spanFrom(start), p.module, imports, decls), true
}

func (p *Parser) parseDecl() (ast.Decl, bool) {
	switch {
	case p.follows(token.FUNC, token.EXTERN):
		return p.parseFuncDecl()
	case p.follows(token.VAR, token.LET):
		decl, ok := p.parseVarDecl()
		return decl, ok
	case p.follows(token.TYPE):
		return p.parseTypeAliasDecl()
	default:
		p.fail("expected declaration (func, extern func, var, let, or type)")
		return nil, false
	}
}

// --- cursor primitives (grounded on pkg/asm/assembler/parser.go) ---

func (p *Parser) lookahead() token.Token {
	return p.tokens[p.index]
}

func (p *Parser) previousSpan() source.Span {
	if p.index == 0 {
		return p.tokens[0].Span
	}
	//
	return p.tokens[p.index-1].Span
}

func (p *Parser) advance() token.Token {
	tok := p.tokens[p.index]
	//
	if tok.Kind != token.EOF {
		p.index++
	}
	//
	return tok
}

// expect consumes the current token if it has kind, emitting what if it does
// not; what describes what was expected, e.g. "';' after statement".
func (p *Parser) expect(kind uint, what string) bool {
	if p.lookahead().Kind != kind {
		p.fail("expected " + what)
		return false
	}
	//
	p.advance()
	//
	return true
}

// expectIdentifier consumes an identifier token and returns its text.
func (p *Parser) expectIdentifier(what string) (string, bool) {
	if p.lookahead().Kind != token.IDENTIFIER {
		p.fail("expected " + what)
		return "", false
	}
	//
	tok := p.advance()
	//
	return p.file.Text(tok.Span), true
}

// match consumes the current token and returns true if it has kind.
func (p *Parser) match(kind uint) bool {
	if p.lookahead().Kind == kind {
		p.advance()
		return true
	}
	//
	return false
}

// follows reports whether the current token is one of kinds.
func (p *Parser) follows(kinds ...uint) bool {
	return slices.Contains(kinds, p.lookahead().Kind)
}

// following reports whether the upcoming tokens, starting at the current
// position, match kinds exactly.
func (p *Parser) following(kinds ...uint) bool {
	for i, kind := range kinds {
		n := p.index + i
		if n >= len(p.tokens) || p.tokens[n].Kind != kind {
			return false
		}
	}
	//
	return true
}

func (p *Parser) spanFrom(startIndex int) source.Span {
	last := p.index - 1
	if last < startIndex {
		last = startIndex
	}
	//
	return p.tokens[startIndex].Span.Union(p.tokens[last].Span)
}

// push enters a named production, for the context stack attached to
// diagnostics (§4.2).
func (p *Parser) push(production string) {
	p.stack = append(p.stack, production)
}

func (p *Parser) pop() {
	p.stack = p.stack[:len(p.stack)-1]
}

// fail emits a syntax-error diagnostic at the current token, with the
// context stack appended (e.g. "expected type in parameter list in function
// in module X"), and marks this parse as failed.
func (p *Parser) fail(msg string) {
	if p.failed {
		return
	}
	//
	p.failed = true
	full := msg
	//
	for i := len(p.stack) - 1; i >= 0; i-- {
		full += " in " + p.stack[i]
	}
	//
	full += fmt.Sprintf(" in module %s", p.module)
	//
	p.sink.Emit(diag.Record{
		Priority: diag.Fatal,
		Category: diag.Syntax,
		Module:   p.module,
		Span:     p.lookahead().Span,
		Message:  full,
	})
}
