// Package ast defines STELA's abstract syntax tree. Every node category
// (type, expression, statement, assignment, declaration) is a tagged variant
// rather than a class hierarchy: each concrete node implements a small marker
// interface and callers type-switch on the concrete type, mirroring how the
// rest of this codebase favours plain data over virtual dispatch.
package ast

import "github.com/stela-lang/stela/pkg/stela/source"

// Span is the source location type used throughout this package.
type Span = source.Span

// Node is implemented by every AST node. It carries the node's source
// location, which every node in this tree has by construction (there is no
// side-table of locations keyed by node identity; see DESIGN.md).
type Node interface {
	Span() source.Span
}

// base is embedded by every concrete node to provide its Span() method.
type base struct {
	span source.Span
}

// Span returns the source location this node was parsed from.
func (b base) Span() source.Span { return b.span }
