package sema

import (
	"fmt"

	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/diag"
)

// checkUnused walks every scope reachable from m's declarations, warning on
// any ObjectBinding that was never MarkReferenced (§7, "semantic... unused
// symbol (warning only)"). It never halts analysis: unused-symbol
// diagnostics are warnings, not fatal, per the taxonomy in §7.
func checkUnused(env *Environment, m *ast.Module, sink diag.Sink) {
	for _, decl := range m.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}
		//
		fb, ok := env.Arena.Get(fn.ResolvedBinding()).(*ast.FuncBinding)
		if !ok || fb.Scope == nil {
			continue
		}
		//
		warnUnusedInScope(env, fb.Scope, m.Name, sink)
		warnUnusedStmts(env, fn.Body.Stmts, m.Name, sink)
	}
}

// warnUnusedInScope warns on every ObjectBinding declared directly in scope
// (not its descendants) that was never referenced.
func warnUnusedInScope(env *Environment, scope *ast.Scope, module string, sink diag.Sink) {
	for _, name := range scope.Declared() {
		for _, id := range scope.Bindings(name) {
			ob, ok := env.Arena.Get(id).(*ast.ObjectBinding)
			if !ok || ob.IsReferenced() {
				continue
			}
			//
			sink.Emit(diag.Record{
				Priority: diag.Warning,
				Category: diag.Semantic,
				Module:   module,
				Span:     ob.DeclSite,
				Message:  fmt.Sprintf("unused symbol %q", name),
			})
		}
	}
}

// warnUnusedStmts recurses through every nested block scope a function body
// can introduce (if/while/for/switch arms), warning on each one's own
// locals.
func warnUnusedStmts(env *Environment, stmts []ast.Stmt, module string, sink diag.Sink) {
	for _, s := range stmts {
		warnUnusedStmt(env, s, module, sink)
	}
}

func warnUnusedStmt(env *Environment, s ast.Stmt, module string, sink diag.Sink) {
	switch v := s.(type) {
	case *ast.Block:
		warnUnusedInScope(env, v.Scope, module, sink)
		warnUnusedStmts(env, v.Stmts, module, sink)
	case *ast.If:
		warnUnusedStmt(env, v.Then, module, sink)
		if v.Else != nil {
			warnUnusedStmt(env, v.Else, module, sink)
		}
	case *ast.While:
		warnUnusedStmt(env, v.Body, module, sink)
	case *ast.For:
		if v.Init != nil {
			warnUnusedStmt(env, v.Init, module, sink)
		}
		warnUnusedStmt(env, v.Body, module, sink)
	case *ast.Switch:
		for _, c := range v.Cases {
			warnUnusedStmt(env, c.Body, module, sink)
		}
		if v.Default != nil {
			warnUnusedStmt(env, v.Default.Body, module, sink)
		}
	}
}
