package parser

import (
	"testing"

	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/diag"
	"github.com/stela-lang/stela/pkg/stela/internal/assert"
	"github.com/stela-lang/stela/pkg/stela/source"
	"github.com/stela-lang/stela/pkg/stela/token"
)

func parseText(t *testing.T, text string) (*ast.Module, *diag.CollectingSink) {
	t.Helper()
	//
	file := source.NewFile("t.stl", []byte(text))
	tokens, errs := token.Lex(file)
	//
	if len(errs) != 0 {
		t.Fatalf("unexpected lex errors: %v", errs)
	}
	//
	sink := diag.NewCollectingSink()
	mod, ok := NewParser(file, tokens, sink).Parse()
	//
	if !ok {
		t.Fatalf("unexpected parse failure: %+v", sink.Records)
	}
	//
	return mod, sink
}

func TestParseFactorial(t *testing.T) {
	mod, _ := parseText(t, `
		func factorial(n: uint) -> uint {
			if (n == 0u) {
				return 1u;
			}
			return n * factorial(n - 1u);
		}
	`)
	//
	assert.Equal(t, 1, len(mod.Decls))
	//
	fn, ok := mod.Decls[0].(*ast.FuncDecl)
	assert.True(t, ok)
	assert.Equal(t, "factorial", fn.Name)
	assert.Equal(t, 1, len(fn.Params))
	assert.Equal(t, 2, len(fn.Body.Stmts))
}

func TestParseVarAndAssignment(t *testing.T) {
	mod, _ := parseText(t, `
		func main() {
			var p = 0u;
			p += 1u;
			p++;
		}
	`)
	//
	fn := mod.Decls[0].(*ast.FuncDecl)
	assert.Equal(t, 3, len(fn.Body.Stmts))
	//
	_, isVarDecl := fn.Body.Stmts[0].(*ast.VarDecl)
	assert.True(t, isVarDecl)
	//
	_, isAssign := fn.Body.Stmts[1].(*ast.Assign)
	assert.True(t, isAssign)
	//
	_, isIncDec := fn.Body.Stmts[2].(*ast.IncDec)
	assert.True(t, isIncDec)
}

func TestParseSwitch(t *testing.T) {
	mod, _ := parseText(t, `
		func test(v: uint) -> bool {
			switch (v) {
				case (0u) {
					return false;
				}
				default {
					return true;
				}
			}
		}
	`)
	//
	fn := mod.Decls[0].(*ast.FuncDecl)
	sw, ok := fn.Body.Stmts[0].(*ast.Switch)
	assert.True(t, ok)
	assert.Equal(t, 1, len(sw.Cases))
	assert.True(t, sw.Default != nil)
}

func TestParseForLoop(t *testing.T) {
	mod, _ := parseText(t, `
		func sum(n: uint) -> uint {
			var total = 0u;
			for (var i = 0u; i < n; i++) {
				total += i;
			}
			return total;
		}
	`)
	//
	fn := mod.Decls[0].(*ast.FuncDecl)
	forStmt, ok := fn.Body.Stmts[1].(*ast.For)
	assert.True(t, ok)
	assert.True(t, forStmt.Init != nil)
	assert.True(t, forStmt.Cond != nil)
	assert.True(t, forStmt.Latch != nil)
}

func TestParseDeclAssignAndLambda(t *testing.T) {
	mod, _ := parseText(t, `
		func id() -> (uint) -> uint {
			f := func(x: uint) -> uint {
				return x;
			};
			return f;
		}
	`)
	//
	fn := mod.Decls[0].(*ast.FuncDecl)
	da, ok := fn.Body.Stmts[0].(*ast.DeclAssign)
	assert.True(t, ok)
	assert.Equal(t, "f", da.Name)
	//
	_, isLambda := da.Expr.(*ast.LambdaLit)
	assert.True(t, isLambda)
}

func TestParseTypeAliasAndMake(t *testing.T) {
	mod, _ := parseText(t, `
		type Weight = uint;
		func scale(w: Weight) -> Weight {
			return make Weight(w * 2u);
		}
	`)
	//
	assert.Equal(t, 2, len(mod.Decls))
	//
	alias, ok := mod.Decls[0].(*ast.TypeAliasDecl)
	assert.True(t, ok)
	assert.False(t, alias.Strong)
}

func TestParseModuleAndImports(t *testing.T) {
	mod, _ := parseText(t, `
		module geometry;
		import math;

		func area(w: uint, h: uint) -> uint {
			return w * h;
		}
	`)
	//
	assert.Equal(t, "geometry", mod.Name)
	assert.Equal(t, 1, len(mod.Imports))
	assert.Equal(t, "math", mod.Imports[0].Name)
}

func TestParseFuncDeclFatalOnMissingBrace(t *testing.T) {
	file := source.NewFile("t.stl", []byte("func foo( -> uint { return 0u; }"))
	tokens, errs := token.Lex(file)
	assert.Equal(t, 0, len(errs))
	//
	sink := diag.NewCollectingSink()
	_, ok := NewParser(file, tokens, sink).Parse()
	assert.False(t, ok)
	assert.True(t, sink.HasFatal())
}
