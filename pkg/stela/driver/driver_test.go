package driver

import (
	"testing"

	"github.com/stela-lang/stela/pkg/stela/diag"
	"github.com/stela-lang/stela/pkg/stela/internal/assert"
	"github.com/stela-lang/stela/pkg/stela/source"
)

func compileText(t *testing.T, cfg Config, text string) (*diag.CollectingSink, bool) {
	t.Helper()
	//
	file := source.NewFile("t.stl", []byte(text))
	sink := diag.NewCollectingSink()
	_, ok := Compile(cfg, []*source.File{file}, sink)
	//
	return sink, ok
}

func TestCompileFactorial(t *testing.T) {
	sink, ok := compileText(t, Config{}, `
		extern func fac(n: uint) -> uint {
			return n == 0u ? 1u : n * fac(n - 1u);
		}
	`)
	//
	assert.True(t, ok, "unexpected failure: %+v", sink.Records)
}

func TestCompileRejectsUndefinedReference(t *testing.T) {
	sink, ok := compileText(t, Config{}, `
		func f() -> uint {
			return undefined_name;
		}
	`)
	//
	assert.False(t, ok)
	assert.True(t, sink.HasFatal())
}

func TestCompileWithStdlibExposesMinMax(t *testing.T) {
	sink, ok := compileText(t, Config{Stdlib: true}, `
		extern func clamp(x: uint) -> uint {
			return min_uint(x, 10u);
		}
	`)
	//
	assert.True(t, ok, "unexpected failure: %+v", sink.Records)
}

func TestCompileWithoutStdlibRejectsUnknownBuiltin(t *testing.T) {
	sink, ok := compileText(t, Config{Stdlib: false}, `
		extern func clamp(x: uint) -> uint {
			return min_uint(x, 10u);
		}
	`)
	//
	assert.False(t, ok)
	assert.True(t, sink.HasFatal())
}

func TestCompileStrictPromotesUnusedWarningToFatal(t *testing.T) {
	sink, ok := compileText(t, Config{Strict: true}, `
		func f() {
			var unused: uint = 1u;
		}
	`)
	//
	assert.False(t, ok)
}

func TestRunEndToEndAddressOf(t *testing.T) {
	file := source.NewFile("t.stl", []byte(`
		extern func square(n: uint) -> uint {
			return n * n;
		}
	`))
	//
	sink := diag.NewCollectingSink()
	engine, ok := Compile(Config{}, []*source.File{file}, sink)
	assert.True(t, ok, "unexpected failure: %+v", sink.Records)
	//
	call, ok := engine.AddressOf("square")
	assert.True(t, ok, "expected exported function square")
	//
	results := call([]any{int64(6)})
	assert.Equal(t, 1, len(results))
	assert.Equal(t, int64(36), results[0])
}
