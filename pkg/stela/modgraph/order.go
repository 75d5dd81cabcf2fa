// Package modgraph orders a set of parsed modules by their import
// declarations so that every module is compiled after everything it
// imports (§4.3).
package modgraph

import (
	"fmt"

	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/diag"
)

// CyclicImportError names the module at which a depth-first traversal
// re-entered a module already on its current path.
type CyclicImportError struct {
	Module string
}

func (e *CyclicImportError) Error() string {
	return fmt.Sprintf("cyclic import involving module %q", e.Module)
}

// MissingImportError names an import naming a module that was never parsed.
type MissingImportError struct {
	Importer, Missing string
}

func (e *MissingImportError) Error() string {
	return fmt.Sprintf("module %q imports undefined module %q", e.Importer, e.Missing)
}

const (
	unvisited uint8 = iota
	onStack
	done
)

// Order computes a compilation order over modules such that every module
// appears after all of its (transitive) imports, via depth-first
// post-order traversal with an "on stack" set for cycle detection (§4.3).
// Any diagnostic is also appended to sink as a fatal semantic error.
func Order(modules []*ast.Module, sink diag.Sink) ([]*ast.Module, bool) {
	var (
		byName = make(map[string]*ast.Module, len(modules))
		state  = make(map[string]uint8, len(modules))
		order  []*ast.Module
		ok     = true
	)
	//
	for _, m := range modules {
		byName[m.Name] = m
	}
	//
	var visit func(m *ast.Module) bool
	//
	visit = func(m *ast.Module) bool {
		switch state[m.Name] {
		case done:
			return true
		case onStack:
			sink.Emit(diag.Record{
				Priority: diag.Fatal, Category: diag.Semantic, Module: m.Name, Span: m.Span(),
				Message: (&CyclicImportError{m.Name}).Error(),
			})
			//
			return false
		}
		//
		state[m.Name] = onStack
		//
		for _, imp := range m.Imports {
			target, found := byName[imp.Name]
			if !found {
				sink.Emit(diag.Record{
					Priority: diag.Fatal, Category: diag.Semantic, Module: m.Name, Span: imp.Span(),
					Message: (&MissingImportError{m.Name, imp.Name}).Error(),
				})
				//
				return false
			}
			//
			if !visit(target) {
				return false
			}
		}
		//
		state[m.Name] = done
		order = append(order, m)
		//
		return true
	}
	//
	for _, m := range modules {
		if state[m.Name] == unvisited && !visit(m) {
			ok = false
		}
	}
	//
	return order, ok
}
