package codegen

import (
	"fmt"

	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/backend"
	"github.com/stela-lang/stela/pkg/stela/diag"
	"github.com/stela-lang/stela/pkg/stela/lifetime"
	"github.com/stela-lang/stela/pkg/stela/link"
	"github.com/stela-lang/stela/pkg/stela/sema"
)

// Generator lowers a fully-analyzed sema.Environment into one backend
// module (§4.6: "per-module IR assembled into one single backend module").
// Internal (non-extern) top-level functions and globals are qualified
// module.name.symbolId so two unrelated internal symbols sharing a source
// name never collide in the flat backend namespace (STELA permits
// overloading within one scope); extern symbols keep their bare declared
// name both so the host can call them naturally and so that re-declaring
// the same extern name from two modules is reported by the shared
// link.Linker as a duplicate definition.
type Generator struct {
	env  *sema.Environment
	mod  backend.Module
	sink diag.Sink

	lt    *lifetime.Emitter
	types *typeLowerer

	funcs       map[ast.SymbolId]backend.Function
	globals     map[ast.SymbolId]backend.Value
	globalTypes map[ast.SymbolId]ast.Type

	linker *link.Linker
	fatal  bool
}

// Generate lowers every module in env to mod, emitting diagnostics to sink.
// It reports whether generation succeeded (no fatal diagnostic raised).
// Duplicate `extern` definitions across modules are caught by handing each
// one to a shared link.Linker (§4.6) rather than generator-local state, so
// the same duplicate-name check the linker performs on the assembled module
// also applies while it's still being built up module by module.
func Generate(env *sema.Environment, mod backend.Module, sink diag.Sink) bool {
	lt := lifetime.NewEmitter(mod)
	g := &Generator{
		env:         env,
		mod:         mod,
		sink:        sink,
		lt:          lt,
		types:       newTypeLowerer(mod, lt),
		funcs:       make(map[ast.SymbolId]backend.Function),
		globals:     make(map[ast.SymbolId]backend.Value),
		globalTypes: make(map[ast.SymbolId]ast.Type),
		linker:      link.NewLinker(),
	}

	for _, m := range env.Modules {
		g.declareModule(m)
	}
	if g.fatal {
		return false
	}

	for _, m := range env.Modules {
		g.defineModule(m)
	}

	return !g.fatal
}

// qualify builds the flat backend-module name for an internal symbol.
func (g *Generator) qualify(module, name string, id ast.SymbolId) string {
	return fmt.Sprintf("%s.%s.%d", module, name, id)
}

// registerName reserves name for a newly-declared extern symbol, emitting a
// fatal diagnostic if it has already been claimed by an earlier declaration
// (§8's duplicate-function-definition scenario).
func (g *Generator) registerName(name string, span ast.Span) bool {
	if !g.linker.Declare(name) {
		g.fail(span, "duplicate external definition %q", name)
		return false
	}
	return true
}

func (g *Generator) fail(span ast.Span, format string, args ...any) {
	g.sink.Emit(diag.Record{
		Priority: diag.Fatal,
		Category: diag.Generate,
		Span:     span,
		Message:  fmt.Sprintf(format, args...),
	})
	g.fatal = true
}

func (g *Generator) declareModule(m *ast.Module) {
	for _, d := range m.Decls {
		switch decl := d.(type) {
		case *ast.FuncDecl:
			g.declareFunc(m, decl)
		case *ast.VarDecl:
			g.declareGlobal(m, decl)
		}
	}
}

func (g *Generator) defineModule(m *ast.Module) {
	for _, d := range m.Decls {
		switch decl := d.(type) {
		case *ast.FuncDecl:
			if decl.Body != nil {
				g.defineFunc(m, decl)
			}
		case *ast.VarDecl:
			g.defineGlobal(m, decl)
		}
	}
}

// funcParamTypes lowers a declaration's receiver+params to backend
// parameter types: a by-reference parameter is a pointer to its element
// type (the caller's storage address, passed without copying); a by-value
// parameter (scalar or aggregate) is its lowered type directly, spilled to
// a local alloca in the function prologue (see decl.go).
func (g *Generator) funcParamTypes(fd *ast.FuncDecl) []backend.Type {
	var params []backend.Type
	if fd.Receiver != nil {
		params = append(params, g.paramType(*fd.Receiver))
	}
	for _, p := range fd.Params {
		params = append(params, g.paramType(p))
	}
	return params
}

func (g *Generator) paramType(p ast.FuncParam) backend.Type {
	t := g.types.lower(p.Type)
	if p.ByReference {
		return g.mod.PointerType(t)
	}
	return t
}

func (g *Generator) declareFunc(m *ast.Module, fd *ast.FuncDecl) {
	params := g.funcParamTypes(fd)
	ret := g.types.lower(fd.Ret)

	name := fd.Name
	if !fd.Extern {
		name = g.qualify(m.Name, fd.Name, fd.ResolvedBinding())
	} else if !g.registerName(name, fd.Span()) {
		return
	}

	linkage := backend.Internal
	if fd.Extern {
		linkage = backend.External
	}

	fn := g.mod.DeclareFunction(name, params, ret, linkage)
	g.funcs[fd.ResolvedBinding()] = fn
}

func (g *Generator) declareGlobal(m *ast.Module, vd *ast.VarDecl) {
	t := g.resolveVarType(vd)
	bt := g.types.lower(t)

	name := g.qualify(m.Name, vd.Name, vd.ResolvedBinding())
	addr := g.mod.DeclareGlobal(name, bt, backend.Internal)
	g.globals[vd.ResolvedBinding()] = addr
	g.globalTypes[vd.ResolvedBinding()] = t
}

// resolveVarType returns a VarDecl's resolved type: its explicit annotation,
// or its initializer's resolved type when inferred.
func (g *Generator) resolveVarType(vd *ast.VarDecl) ast.Type {
	if vd.DeclaredType != nil {
		return vd.DeclaredType
	}
	return vd.Init.ResolvedType().Type
}
