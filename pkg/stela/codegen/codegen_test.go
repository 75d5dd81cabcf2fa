package codegen

import (
	"testing"

	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/backend"
	"github.com/stela-lang/stela/pkg/stela/backend/refbackend"
	"github.com/stela-lang/stela/pkg/stela/diag"
	"github.com/stela-lang/stela/pkg/stela/internal/assert"
	"github.com/stela-lang/stela/pkg/stela/link"
	"github.com/stela-lang/stela/pkg/stela/parser"
	"github.com/stela-lang/stela/pkg/stela/sema"
	"github.com/stela-lang/stela/pkg/stela/source"
	"github.com/stela-lang/stela/pkg/stela/token"
)

// compileAndRun lexes, parses, analyzes and generates text as a single
// module, links and JITs it, failing the test on any front-end or
// generation failure so a test failure here is attributable to codegen
// itself, not an earlier phase (mirrors sema's own analyzeText helper).
func compileAndRun(t *testing.T, text string) backend.ExecutionEngine {
	t.Helper()
	//
	file := source.NewFile("t.stl", []byte(text))
	sink := diag.NewCollectingSink()
	//
	tokens, lexErrs := token.Lex(file)
	if len(lexErrs) != 0 {
		t.Fatalf("unexpected lex errors: %v", lexErrs)
	}
	//
	mod, ok := parser.NewParser(file, tokens, sink).Parse()
	if !ok {
		t.Fatalf("unexpected parse failure: %+v", sink.Records)
	}
	//
	env, ok := sema.Analyze([]*ast.Module{mod}, sink)
	if !ok {
		t.Fatalf("unexpected analysis failure: %+v", sink.Records)
	}
	//
	bmod := refbackend.New()
	if !Generate(env, bmod, sink) {
		t.Fatalf("unexpected generate failure: %+v", sink.Records)
	}
	//
	if !link.Link(bmod, sink) {
		t.Fatalf("unexpected link failure: %+v", sink.Records)
	}
	//
	engine, ok := refbackend.JIT(bmod, sink)
	if !ok {
		t.Fatalf("unexpected JIT failure: %+v", sink.Records)
	}
	//
	return engine
}

func callEntry(t *testing.T, engine backend.ExecutionEngine, name string, args ...any) []any {
	t.Helper()
	//
	call, ok := engine.AddressOf(name)
	if !ok {
		t.Fatalf("no such exported function %q", name)
	}
	//
	return call(args)
}

func TestGenerateNonEmptyArrayLiteral(t *testing.T) {
	engine := compileAndRun(t, `
		extern func arr_len() -> uint {
			var a: [uint] = [1u, 2u, 3u];
			return size(a);
		}
	`)
	//
	results := callEntry(t, engine, "arr_len")
	assert.Equal(t, 1, len(results))
	assert.Equal(t, int64(3), results[0])
}

func TestGenerateArrayLiteralElementAccess(t *testing.T) {
	engine := compileAndRun(t, `
		extern func second() -> uint {
			var a: [uint] = [10u, 20u, 30u];
			return a[1];
		}
	`)
	//
	results := callEntry(t, engine, "second")
	assert.Equal(t, 1, len(results))
	assert.Equal(t, int64(20), results[0])
}

func TestGenerateStringLiteralLength(t *testing.T) {
	engine := compileAndRun(t, `
		extern func str_len() -> uint {
			var s: [char] = "hello";
			return size(s);
		}
	`)
	//
	results := callEntry(t, engine, "str_len")
	assert.Equal(t, 1, len(results))
	assert.Equal(t, int64(5), results[0])
}

func TestGenerateStringLiteralElementAccess(t *testing.T) {
	engine := compileAndRun(t, `
		extern func first_char() -> char {
			var s: [char] = "abc";
			return s[0];
		}
	`)
	//
	results := callEntry(t, engine, "first_char")
	assert.Equal(t, 1, len(results))
	assert.Equal(t, int64('a'), results[0])
}

func TestGenerateEmptyArrayLiteralHasZeroLength(t *testing.T) {
	engine := compileAndRun(t, `
		extern func empty_len() -> uint {
			var a: [uint] = make [uint]{};
			return size(a);
		}
	`)
	//
	results := callEntry(t, engine, "empty_len")
	assert.Equal(t, 1, len(results))
	assert.Equal(t, int64(0), results[0])
}

func TestGenerateClosureCapture(t *testing.T) {
	engine := compileAndRun(t, `
		extern func use_closure(n: uint) -> uint {
			var k: uint = n;
			var add: (uint)->uint = func(x: uint)->uint { return x + k; };
			return add(5u);
		}
	`)
	//
	results := callEntry(t, engine, "use_closure", int64(10))
	assert.Equal(t, 1, len(results))
	assert.Equal(t, int64(15), results[0])
}
