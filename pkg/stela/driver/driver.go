// Package driver implements STELA's conceptual compiler driver API (§6):
// tokenize -> parse -> create_symbols -> generate_ir -> jit, short-
// circuiting on the first fatal diagnostic, grounded on
// pkg/corset/compiler.go's CompileSourceFiles phase-sequencing.
package driver

import (
	_ "embed"

	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/backend"
	"github.com/stela-lang/stela/pkg/stela/backend/refbackend"
	"github.com/stela-lang/stela/pkg/stela/codegen"
	"github.com/stela-lang/stela/pkg/stela/diag"
	"github.com/stela-lang/stela/pkg/stela/link"
	"github.com/stela-lang/stela/pkg/stela/parser"
	"github.com/stela-lang/stela/pkg/stela/sema"
	"github.com/stela-lang/stela/pkg/stela/source"
	"github.com/stela-lang/stela/pkg/stela/token"
)

// stdlibSource is the embedded builtin-function prelude, a handful of
// extern functions (min/max/abs over uint/sint/real) that Compile makes
// visible to every user module when Config.Stdlib is set, grounded on
// go-corset's own `//go:embed stdlib.lisp` convention of shipping a small
// standard library as embedded source text rather than compiled-in Go
// values.
//
//go:embed stdlib/stdlib.stl
var stdlibSource string

// stdlibModuleName is the module name declared by stdlib.stl, and the name
// Compile adds an implicit `import` of to every user-supplied module.
const stdlibModuleName = "stdlib"

// Tokenize lexes one source file, forwarding any lexical error to sink as a
// fatal diag.Record (§7, "lexical... fatal") and reporting ok=false when the
// file could not be fully tokenized.
func Tokenize(file *source.File, sink diag.Sink) ([]token.Token, bool) {
	tokens, errs := token.Lex(file)
	if len(errs) > 0 {
		for _, e := range errs {
			sink.Emit(diag.Record{
				Priority: diag.Fatal,
				Category: diag.Lexical,
				Module:   file.Filename(),
				Span:     e.Span,
				Message:  e.Message,
			})
		}
		//
		return nil, false
	}
	//
	return tokens, true
}

// Parse consumes a module's token stream into its AST (§6).
func Parse(file *source.File, tokens []token.Token, sink diag.Sink) (*ast.Module, bool) {
	p := parser.NewParser(file, tokens, sink)
	return p.Parse()
}

// CreateSymbols runs semantic analysis over every module, in import-
// dependency order (§6, "after ordering by imports").
func CreateSymbols(modules []*ast.Module, sink diag.Sink) (*sema.Environment, bool) {
	return sema.Analyze(modules, sink)
}

// GenerateIR lowers a fully-analyzed Environment into one backend module
// (§6).
func GenerateIR(env *sema.Environment, mod backend.Module, sink diag.Sink) bool {
	return codegen.Generate(env, mod, sink)
}

// JIT verifies mod and hands it to the reference backend's execution
// engine (§6, "jit(module, sink) -> ExecutionEngine exposing
// address_of(name)").
func JIT(mod backend.Module, sink diag.Sink) (backend.ExecutionEngine, bool) {
	if !link.Link(mod, sink) {
		return nil, false
	}
	//
	return refbackend.JIT(mod, sink)
}

// Compile runs the whole pipeline over files end to end, short-circuiting
// on the first fatal diagnostic exactly as §7's propagation policy
// requires, and returns a ready-to-call execution engine on success.
func Compile(cfg Config, files []*source.File, sink diag.Sink) (backend.ExecutionEngine, bool) {
	env, ok := Check(cfg, files, sink)
	if !ok {
		return nil, false
	}
	//
	mod := refbackend.New()
	//
	if !GenerateIR(env, mod, sink) {
		return nil, false
	}
	//
	return JIT(mod, sink)
}

// Check runs the front end only — ParseModules followed by CreateSymbols,
// short-circuiting on the first failure — and applies Config.Strict,
// without generating IR or JIT-ing anything. This is the "stela check"
// subcommand's pipeline, and the common prefix driver.Compile builds on.
func Check(cfg Config, files []*source.File, sink diag.Sink) (*sema.Environment, bool) {
	modules, ok := ParseModules(cfg, files, sink)
	if !ok {
		return nil, false
	}
	//
	env, ok := CreateSymbols(modules, sink)
	if !ok {
		return nil, false
	}
	//
	if cfg.Strict && hasWarnings(sink) {
		return nil, false
	}
	//
	return env, true
}

// ParseModules tokenizes and parses every file into a module, prepending
// the embedded stdlib prelude and adding an implicit `import stdlib;` to
// each user module when Config.Stdlib is set (§[NEW] Configuration).
func ParseModules(cfg Config, files []*source.File, sink diag.Sink) ([]*ast.Module, bool) {
	modules := make([]*ast.Module, 0, len(files)+1)
	//
	if cfg.Stdlib {
		stdlib, ok := parseStdlib(sink)
		if !ok {
			return nil, false
		}
		//
		modules = append(modules, stdlib)
	}
	//
	for _, file := range files {
		tokens, ok := Tokenize(file, sink)
		if !ok {
			return nil, false
		}
		//
		m, ok := Parse(file, tokens, sink)
		if !ok {
			return nil, false
		}
		//
		if cfg.Stdlib && m.Name != stdlibModuleName {
			m.Imports = append(m.Imports, ast.NewImport(m.Span(), stdlibModuleName))
		}
		//
		modules = append(modules, m)
	}
	//
	return modules, true
}

// parseStdlib tokenizes and parses the embedded stdlib prelude. A failure
// here indicates a bug in this package's own embedded source, not a user
// error, but it is still routed through the ordinary Tokenize/Parse
// diagnostics path rather than panicking, so it surfaces the same way any
// other fatal compile diagnostic would.
func parseStdlib(sink diag.Sink) (*ast.Module, bool) {
	file := source.NewFile("<stdlib>", []byte(stdlibSource))
	//
	tokens, ok := Tokenize(file, sink)
	if !ok {
		return nil, false
	}
	//
	return Parse(file, tokens, sink)
}

// hasWarnings reports whether sink has accumulated any diag.Warning record
// when it is a diag.CollectingSink; other Sink implementations (e.g. a
// logrus-backed one with no memory of past records) can't be inspected this
// way, so Strict mode has no effect through them beyond what they already
// print. This mirrors §7's "Strict promotes unused-symbol warnings... to
// errors" by checking after the fact rather than threading a strict flag
// through every analyzer call.
func hasWarnings(sink diag.Sink) bool {
	cs, ok := sink.(*diag.CollectingSink)
	if !ok {
		return false
	}
	//
	for _, r := range cs.Records {
		if r.Priority == diag.Warning {
			return true
		}
	}
	//
	return false
}

