package sema

import (
	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/diag"
	"github.com/stela-lang/stela/pkg/stela/modgraph"
)

// Analyze runs semantic analysis over every parsed module, in import-
// dependency order, accumulating every symbol into one shared Environment
// (§4.4). It stops at the first module that fails.
//
// Each module is processed in four passes so that forward references work
// the way §4.4.1/§4.4.2 require: type alias names are bound before any type
// is resolved, and function signatures are bound before any body is walked,
// so a function may call another declared later in the same module. Module-
// level `var`/`let` declarations are the one place order still matters: they
// are declared top-to-bottom, so a global's initializer may only reference
// globals declared earlier in the same module (an Open Question the
// specification leaves unresolved; this is the pragmatic reading of "walks
// the AST... in dependency order" applied one level down, to declarations
// within a module).
func Analyze(modules []*ast.Module, sink diag.Sink) (*Environment, bool) {
	ordered, ok := modgraph.Order(modules, sink)
	if !ok {
		return nil, false
	}
	//
	env := NewEnvironment()
	//
	for _, m := range ordered {
		if !analyzeModule(env, m, sink) {
			return env, false
		}
		//
		checkUnused(env, m, sink)
		env.Modules = append(env.Modules, m)
	}
	//
	return env, true
}

func analyzeModule(env *Environment, m *ast.Module, sink diag.Sink) bool {
	a := newAnalyzer(env, sink, m.Name)
	moduleScope := ast.NewScope(ast.NamespaceScope, m.Name, env.Root)
	m.Scope = moduleScope
	//
	// Every already-analyzed module named in m.Imports is guaranteed present
	// in env.Modules: modgraph.Order only returns an ordering once it has
	// confirmed every import resolves to a parsed module and the import
	// graph is acyclic, and this function only ever runs over that ordering
	// (§4.3, §6 "import NAME;").
	for _, imp := range m.Imports {
		for _, other := range env.Modules {
			if other.Name == imp.Name {
				moduleScope.AddImport(other.Scope)
				break
			}
		}
	}
	//
	for _, decl := range m.Decls {
		if alias, ok := decl.(*ast.TypeAliasDecl); ok {
			if !a.declareTypeAlias(moduleScope, alias) {
				return false
			}
		}
	}
	//
	for _, decl := range m.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok {
			if !a.declareFunc(moduleScope, fn) {
				return false
			}
		}
	}
	//
	for _, decl := range m.Decls {
		if v, ok := decl.(*ast.VarDecl); ok {
			if !a.analyzeVarDeclStmt(v, moduleScope) {
				return false
			}
		}
	}
	//
	for _, decl := range m.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}
		//
		fb := env.Arena.Get(fn.ResolvedBinding()).(*ast.FuncBinding)
		fnScope := ast.NewScope(ast.FunctionScope, m.Name, moduleScope)
		fnScope.SetOwner(fn.ResolvedBinding())
		fb.Scope = fnScope
		//
		a.declareParams(fnScope, fn.Receiver, fn.Params)
		//
		if !a.analyzeFuncBody(fn.Body, fnScope, fn.Ret) {
			return false
		}
	}
	//
	return true
}
