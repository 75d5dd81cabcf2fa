// Package sema implements STELA's semantic analyzer (§4.4): scope and name
// resolution across modules, type resolution with strong/weak aliases,
// overload resolution with implicit receivers, closure capture analysis, and
// expression typing. Grounded on
// pkg/corset/compiler/{scope,resolver,typing}.go's ModuleScope/resolver/
// typing split, generalized from Corset's column/perspective bindings to
// STELA's Object/Func/Lambda/TypeAlias bindings.
package sema

import (
	"github.com/stela-lang/stela/pkg/stela/ast"
)

// Environment is the semantic analyzer's output: every symbol allocated
// across every module, the builtin root scope, and each module's own scope —
// the value the code generator reads from, matching SPEC_FULL.md's driver
// signature `create_symbols(asts, sink) -> Symbols`.
type Environment struct {
	Arena *ast.Arena
	// Root is the process-wide builtin namespace scope (§3, "Scopes form a
	// tree rooted at a process-wide builtin namespace").
	Root *ast.Scope
	// Modules are the analyzed modules, in the dependency order they were
	// supplied in.
	Modules []*ast.Module
}

// NewEnvironment constructs an environment with the builtin namespace scope
// populated (§2, "Builtin environment: register primitive types and builtin
// generics"). Primitive types need no scope entry — they're recognized
// directly from their keyword token by the parser, never looked up by name —
// so the only builtin registered here is the one builtin generic the
// specification names.
func NewEnvironment() *Environment {
	arena := ast.NewArena()
	root := ast.NewScope(ast.NamespaceScope, "", nil)
	//
	sizeOp := ast.NewBuiltinFuncBinding(ast.OpSize)
	sizeId := arena.Alloc(sizeOp)
	root.Bind(sizeOp.SymbolName(), sizeId)
	//
	return &Environment{Arena: arena, Root: root}
}
