package sema

import (
	"testing"

	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/diag"
	"github.com/stela-lang/stela/pkg/stela/internal/assert"
	"github.com/stela-lang/stela/pkg/stela/parser"
	"github.com/stela-lang/stela/pkg/stela/source"
	"github.com/stela-lang/stela/pkg/stela/token"
)

// analyzeText lexes, parses, and analyzes text as a single module, failing
// the test immediately on a lex or parse error (those are exercised by their
// own packages) so failures surfacing here are attributable to sema.
func analyzeText(t *testing.T, text string) (*ast.Module, *Environment, *diag.CollectingSink, bool) {
	t.Helper()
	//
	file := source.NewFile("t.stl", []byte(text))
	tokens, lexErrs := token.Lex(file)
	if len(lexErrs) != 0 {
		t.Fatalf("unexpected lex errors: %v", lexErrs)
	}
	//
	sink := diag.NewCollectingSink()
	mod, ok := parser.NewParser(file, tokens, sink).Parse()
	if !ok {
		t.Fatalf("unexpected parse failure: %+v", sink.Records)
	}
	//
	env, ok := Analyze([]*ast.Module{mod}, sink)
	return mod, env, sink, ok
}

func TestAnalyzeFactorial(t *testing.T) {
	_, _, sink, ok := analyzeText(t, `
		func factorial(n: uint) -> uint {
			if (n == 0u) {
				return 1u;
			}
			return n * factorial(n - 1u);
		}
	`)
	//
	assert.True(t, ok, "unexpected failure: %+v", sink.Records)
}

func TestAnalyzeReturnOmissionAllowedForVoid(t *testing.T) {
	_, _, sink, ok := analyzeText(t, `
		func log(n: uint) {
			if (n == 0u) {
				return;
			}
		}
	`)
	//
	assert.True(t, ok, "unexpected failure: %+v", sink.Records)
}

func TestAnalyzeMissingReturnIsFatal(t *testing.T) {
	_, _, sink, ok := analyzeText(t, `
		func f(n: uint) -> uint {
			if (n == 0u) {
				return 1u;
			}
		}
	`)
	//
	assert.False(t, ok)
	assert.True(t, sink.HasFatal())
}

func TestAnalyzeDuplicateFunctionSameSignatureIsFatal(t *testing.T) {
	_, _, sink, ok := analyzeText(t, `
		func add(a: uint, b: uint) -> uint {
			return a + b;
		}
		func add(a: uint, b: uint) -> uint {
			return a - b;
		}
	`)
	//
	assert.False(t, ok)
	assert.True(t, sink.HasFatal())
}

func TestAnalyzeOverloadDifferingParamsAllowed(t *testing.T) {
	_, _, sink, ok := analyzeText(t, `
		func add(a: uint, b: uint) -> uint {
			return a + b;
		}
		func add(a: real, b: real) -> real {
			return a + b;
		}
	`)
	//
	assert.True(t, ok, "unexpected failure: %+v", sink.Records)
}

func TestAnalyzeReceiverFunctionWithDistinctSignatureAllowed(t *testing.T) {
	_, _, sink, ok := analyzeText(t, `
		func add(a: uint, b: uint) -> uint {
			return a + b;
		}
		func (r: real) add(b: real) -> real {
			return r + b;
		}
	`)
	//
	assert.True(t, ok, "unexpected failure: %+v", sink.Records)
}

func TestAnalyzeReceiverFunctionWithSameSignatureAsFreeFunctionIsFatal(t *testing.T) {
	_, _, sink, ok := analyzeText(t, `
		func add(a: uint, b: uint) -> uint {
			return a + b;
		}
		func (r: uint) add(b: uint) -> uint {
			return r + b;
		}
	`)
	//
	assert.False(t, ok)
	assert.True(t, sink.HasFatal())
}

func TestAnalyzeWeakAliasStructuralEquality(t *testing.T) {
	_, _, sink, ok := analyzeText(t, `
		type Weight = uint;
		func scale(w: Weight) -> uint {
			var total: uint = w;
			return total;
		}
	`)
	//
	assert.True(t, ok, "unexpected failure: %+v", sink.Records)
}

func TestAnalyzeStrongAliasRejectsImplicitConversion(t *testing.T) {
	_, _, sink, ok := analyzeText(t, `
		type Weight uint;
		func scale(w: Weight) -> uint {
			var total: uint = w;
			return total;
		}
	`)
	//
	assert.False(t, ok)
	assert.True(t, sink.HasFatal())
}

func TestAnalyzeSwitchWithDefaultAlwaysReturns(t *testing.T) {
	mod, _, sink, ok := analyzeText(t, `
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
	assert.True(t, ok, "unexpected failure: %+v", sink.Records)
	//
	fn := mod.Decls[0].(*ast.FuncDecl)
	sw := fn.Body.Stmts[0].(*ast.Switch)
	assert.True(t, sw.AlwaysReturns)
}

func TestAnalyzeSwitchWithoutDefaultDoesNotAlwaysReturn(t *testing.T) {
	mod, _, sink, ok := analyzeText(t, `
		func test(v: uint) -> uint {
			switch (v) {
				case (0u) {
					return 1u;
				}
			}
			return 0u;
		}
	`)
	//
	assert.True(t, ok, "unexpected failure: %+v", sink.Records)
	//
	fn := mod.Decls[0].(*ast.FuncDecl)
	sw := fn.Body.Stmts[0].(*ast.Switch)
	assert.False(t, sw.AlwaysReturns)
}

func TestAnalyzeBreakOutsideLoopIsFatal(t *testing.T) {
	_, _, sink, ok := analyzeText(t, `
		func f() {
			break;
		}
	`)
	//
	assert.False(t, ok)
	assert.True(t, sink.HasFatal())
}

func TestAnalyzeBreakInsideLoopIsAllowed(t *testing.T) {
	_, _, sink, ok := analyzeText(t, `
		func f(n: uint) {
			for (var i = 0u; i < n; i++) {
				break;
			}
		}
	`)
	//
	assert.True(t, ok, "unexpected failure: %+v", sink.Records)
}

func TestAnalyzeAssignToLetIsFatal(t *testing.T) {
	_, _, sink, ok := analyzeText(t, `
		func f() {
			let x: uint = 1u;
			x = 2u;
		}
	`)
	//
	assert.False(t, ok)
	assert.True(t, sink.HasFatal())
}

func TestAnalyzeInoutRequiresVarArgument(t *testing.T) {
	_, _, sink, ok := analyzeText(t, `
		func bump(inout x: uint) {
			x = x + 1u;
		}
		func f() {
			let x: uint = 1u;
			bump(x);
		}
	`)
	//
	assert.False(t, ok)
	assert.True(t, sink.HasFatal())
}

func TestAnalyzeInoutAcceptsVarArgument(t *testing.T) {
	_, _, sink, ok := analyzeText(t, `
		func bump(inout x: uint) {
			x = x + 1u;
		}
		func f() {
			var x: uint = 1u;
			bump(x);
		}
	`)
	//
	assert.True(t, ok, "unexpected failure: %+v", sink.Records)
}

func TestAnalyzeBuiltinSizeCall(t *testing.T) {
	mod, env, sink, ok := analyzeText(t, `
		func count(xs: [uint]) -> uint {
			return size(xs);
		}
	`)
	//
	assert.True(t, ok, "unexpected failure: %+v", sink.Records)
	//
	fn := mod.Decls[0].(*ast.FuncDecl)
	ret := fn.Body.Stmts[0].(*ast.Return)
	call := ret.Expr.(*ast.Call)
	assert.True(t, call.Definition.IsResolved())
	//
	binding := env.Arena.Get(call.Definition.Id())
	_, isBuiltin := binding.(*ast.BuiltinFuncBinding)
	assert.True(t, isBuiltin)
	//
	rt := call.ResolvedType()
	assert.True(t, rt != nil)
	assert.True(t, isBuiltinKind(rt.Type, ast.Uint))
}

func TestAnalyzeQualifiedCallViaReceiver(t *testing.T) {
	_, _, sink, ok := analyzeText(t, `
		func (r: uint) doubled() -> uint {
			return r * 2u;
		}
		func f() -> uint {
			let x: uint = 21u;
			return x.doubled();
		}
	`)
	//
	assert.True(t, ok, "unexpected failure: %+v", sink.Records)
}

func TestAnalyzeIndirectCallThroughFuncValue(t *testing.T) {
	mod, _, sink, ok := analyzeText(t, `
		func id(v: uint) -> uint {
			return v;
		}
		func apply(f: (uint) -> uint, v: uint) -> uint {
			return f(v);
		}
	`)
	//
	assert.True(t, ok, "unexpected failure: %+v", sink.Records)
	//
	fn := mod.Decls[1].(*ast.FuncDecl)
	ret := fn.Body.Stmts[0].(*ast.Return)
	call := ret.Expr.(*ast.Call)
	assert.True(t, call.Indirect)
}

func TestAnalyzeNumberLiteralSuffixClassification(t *testing.T) {
	mod, _, sink, ok := analyzeText(t, `
		func f() {
			var a = 0u;
			var b = 1;
			var c = 1.5;
		}
	`)
	//
	assert.True(t, ok, "unexpected failure: %+v", sink.Records)
	//
	fn := mod.Decls[0].(*ast.FuncDecl)
	//
	uintDecl := fn.Body.Stmts[0].(*ast.VarDecl)
	assert.True(t, isBuiltinKind(uintDecl.Init.ResolvedType().Type, ast.Uint))
	//
	sintDecl := fn.Body.Stmts[1].(*ast.VarDecl)
	assert.True(t, isBuiltinKind(sintDecl.Init.ResolvedType().Type, ast.Sint))
	//
	realDecl := fn.Body.Stmts[2].(*ast.VarDecl)
	assert.True(t, isBuiltinKind(realDecl.Init.ResolvedType().Type, ast.Real))
}

func TestAnalyzeStringLiteralIsArrayOfChar(t *testing.T) {
	mod, _, sink, ok := analyzeText(t, `
		func f() {
			var s = "hi";
		}
	`)
	//
	assert.True(t, ok, "unexpected failure: %+v", sink.Records)
	//
	fn := mod.Decls[0].(*ast.FuncDecl)
	decl := fn.Body.Stmts[0].(*ast.VarDecl)
	//
	arr, isArray := decl.Init.ResolvedType().Type.(*ast.Array)
	assert.True(t, isArray)
	assert.True(t, isBuiltinKind(arr.Elem, ast.Char))
}

func TestAnalyzeLambdaCaptureSameScope(t *testing.T) {
	mod, env, sink, ok := analyzeText(t, `
		func make_adder(n: uint) -> (uint) -> uint {
			f := func(x: uint) -> uint {
				return x + n;
			};
			return f;
		}
	`)
	//
	assert.True(t, ok, "unexpected failure: %+v", sink.Records)
	//
	fn := mod.Decls[0].(*ast.FuncDecl)
	da := fn.Body.Stmts[0].(*ast.DeclAssign)
	lambda := da.Expr.(*ast.LambdaLit)
	//
	binding := env.Arena.Get(lambda.Binding).(*ast.LambdaBinding)
	assert.Equal(t, 1, len(binding.Captures))
	assert.Equal(t, ast.NoParentCapture, binding.Captures[0].ParentCaptureIndex)
	assert.Equal(t, "n", binding.Captures[0].SourceObject.SymbolName())
}

func TestAnalyzeLambdaCaptureTransitiveThroughNestedClosure(t *testing.T) {
	mod, env, sink, ok := analyzeText(t, `
		func outer(n: uint) -> () -> () -> uint {
			middle := func() -> () -> uint {
				inner := func() -> uint {
					return n;
				};
				return inner;
			};
			return middle;
		}
	`)
	//
	assert.True(t, ok, "unexpected failure: %+v", sink.Records)
	//
	fn := mod.Decls[0].(*ast.FuncDecl)
	middleDa := fn.Body.Stmts[0].(*ast.DeclAssign)
	middleLambda := middleDa.Expr.(*ast.LambdaLit)
	middleBinding := env.Arena.Get(middleLambda.Binding).(*ast.LambdaBinding)
	//
	innerDa := middleLambda.Body.Stmts[0].(*ast.DeclAssign)
	innerLambda := innerDa.Expr.(*ast.LambdaLit)
	innerBinding := env.Arena.Get(innerLambda.Binding).(*ast.LambdaBinding)
	//
	assert.Equal(t, 1, len(middleBinding.Captures))
	assert.Equal(t, ast.NoParentCapture, middleBinding.Captures[0].ParentCaptureIndex)
	//
	assert.Equal(t, 1, len(innerBinding.Captures))
	assert.Equal(t, 0, innerBinding.Captures[0].ParentCaptureIndex)
}

func TestAnalyzeUndefinedIdentifierIsFatal(t *testing.T) {
	_, _, sink, ok := analyzeText(t, `
		func f() -> uint {
			return missing;
		}
	`)
	//
	assert.False(t, ok)
	assert.True(t, sink.HasFatal())
}

func TestAnalyzeUndefinedTypeIsFatal(t *testing.T) {
	_, _, sink, ok := analyzeText(t, `
		func f(x: Bogus) {
		}
	`)
	//
	assert.False(t, ok)
	assert.True(t, sink.HasFatal())
}

func TestAnalyzeTernaryRequiresMatchingBranchTypes(t *testing.T) {
	_, _, sink, ok := analyzeText(t, `
		func f(v: bool) -> uint {
			return v ? 1u : 2;
		}
	`)
	//
	assert.False(t, ok)
	assert.True(t, sink.HasFatal())
}

func TestAnalyzeModuleLevelGlobalsOrderedTopToBottom(t *testing.T) {
	_, _, sink, ok := analyzeText(t, `
		var a: uint = 1u;
		var b: uint = a + 1u;
	`)
	//
	assert.True(t, ok, "unexpected failure: %+v", sink.Records)
}

func TestAnalyzeModuleLevelGlobalForwardReferenceIsFatal(t *testing.T) {
	_, _, sink, ok := analyzeText(t, `
		var a: uint = b + 1u;
		var b: uint = 1u;
	`)
	//
	assert.False(t, ok)
	assert.True(t, sink.HasFatal())
}

// parseModule lexes and parses text as one module, failing the test on any
// lex/parse error.
func parseModule(t *testing.T, filename, text string) *ast.Module {
	t.Helper()
	//
	file := source.NewFile(filename, []byte(text))
	tokens, lexErrs := token.Lex(file)
	if len(lexErrs) != 0 {
		t.Fatalf("unexpected lex errors in %s: %v", filename, lexErrs)
	}
	//
	sink := diag.NewCollectingSink()
	mod, ok := parser.NewParser(file, tokens, sink).Parse()
	if !ok {
		t.Fatalf("unexpected parse failure in %s: %+v", filename, sink.Records)
	}
	//
	return mod
}

func TestAnalyzeImportedFunctionIsVisibleUnqualified(t *testing.T) {
	mathMod := parseModule(t, "math.stl", `
		module math;
		func square(x: uint) -> uint {
			return x * x;
		}
	`)
	mainMod := parseModule(t, "main.stl", `
		module main;
		import math;
		func f(x: uint) -> uint {
			return square(x);
		}
	`)
	//
	sink := diag.NewCollectingSink()
	_, ok := Analyze([]*ast.Module{mainMod, mathMod}, sink)
	//
	assert.True(t, ok, "unexpected failure: %+v", sink.Records)
}

func TestAnalyzeUndefinedImportIsFatal(t *testing.T) {
	mainMod := parseModule(t, "main.stl", `
		module main;
		import nosuchmodule;
		func f() {
		}
	`)
	//
	sink := diag.NewCollectingSink()
	_, ok := Analyze([]*ast.Module{mainMod}, sink)
	//
	assert.False(t, ok)
	assert.True(t, sink.HasFatal())
}
