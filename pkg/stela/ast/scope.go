package ast

// ScopeKind tags the kind of a Scope (§3).
type ScopeKind uint8

const (
	// NamespaceScope is the process-wide builtin namespace, or a module's
	// top-level scope.
	NamespaceScope ScopeKind = iota
	// BlockScope is an ordinary `{ ... }` block.
	BlockScope
	// FunctionScope holds a function's parameters and top-level locals.
	FunctionScope
	// FlowScope is a while/for/switch-case scope; break/continue resolve to
	// the nearest enclosing one (§4.4.5).
	FlowScope
	// ClosureScope is a lambda body's scope; crossing it is what triggers
	// capture analysis (§4.4.4).
	ClosureScope
)

// Scope is one node of the scope tree described in §3: a keyed multimap of
// name to symbol ids (preserving declaration order per name, for overload
// resolution), a kind tag, a parent link, the enclosing module's name, and
// for function/closure scopes the owning symbol.
type Scope struct {
	kind   ScopeKind
	module string
	parent *Scope
	// owner is the SymbolId of the Func/Lambda this scope belongs to, valid
	// only when kind is FunctionScope or ClosureScope.
	owner SymbolId
	names map[string][]SymbolId
	// order preserves the sequence in which names were first declared in
	// this scope, so diagnostics and dead-code passes can walk it
	// deterministically.
	order []string
	// imports are other modules' top-level scopes made visible, unqualified,
	// by this module's own `import NAME;` directives (§6). Only meaningful
	// on a NamespaceScope; checked by Lookup after this scope's own names,
	// one level deep (an imported module's own imports are not visible
	// transitively — the pragmatic reading of a specification that names no
	// qualification syntax and so never has to say).
	imports []*Scope
}

// NewScope constructs a scope of the given kind, nested under parent (nil
// for the root builtin namespace).
func NewScope(kind ScopeKind, module string, parent *Scope) *Scope {
	return &Scope{kind, module, parent, InvalidSymbol, make(map[string][]SymbolId), nil, nil}
}

// Kind returns this scope's kind tag.
func (s *Scope) Kind() ScopeKind { return s.kind }

// Module returns the name of the module this scope belongs to.
func (s *Scope) Module() string { return s.module }

// Parent returns the enclosing scope, or nil for the root.
func (s *Scope) Parent() *Scope { return s.parent }

// SetOwner records the Func/Lambda symbol this function/closure scope
// belongs to.
func (s *Scope) SetOwner(id SymbolId) { s.owner = id }

// Owner returns the owning symbol of a function/closure scope, or
// InvalidSymbol if none was set.
func (s *Scope) Owner() SymbolId { return s.owner }

// Bind inserts id under name in this scope, appending it to any existing
// overload set. Callers (pkg/stela/sema) are responsible for rejecting
// redeclarations that are not valid overloads before calling Bind.
func (s *Scope) Bind(name string, id SymbolId) {
	if _, ok := s.names[name]; !ok {
		s.order = append(s.order, name)
	}
	//
	s.names[name] = append(s.names[name], id)
}

// Bindings returns every symbol bound to name directly in this scope (not
// its ancestors), in declaration order. Overload resolution iterates this
// slice first-match (§4.4.3, Open Question: "must iterate in
// source-declaration order").
func (s *Scope) Bindings(name string) []SymbolId {
	return s.names[name]
}

// Declared reports the names bound directly in this scope, in declaration
// order.
func (s *Scope) Declared() []string {
	return s.order
}

// AddImport makes other's own top-level bindings visible, unqualified,
// within s (§4.3, "order modules"; §6, "import NAME;"). Meaningful only on a
// NamespaceScope — a module's own top-level scope.
func (s *Scope) AddImport(other *Scope) {
	s.imports = append(s.imports, other)
}

// Lookup searches this scope and its ancestors for name, consulting each
// NamespaceScope's own imported module scopes along the way, and returns the
// nearest enclosing scope's binding set (the first scope, innermost-out,
// that binds anything under that name) or nil if no scope does.
func (s *Scope) Lookup(name string) []SymbolId {
	for sc := s; sc != nil; sc = sc.parent {
		if ids, ok := sc.names[name]; ok {
			return ids
		}
		//
		for _, imp := range sc.imports {
			if ids, ok := imp.names[name]; ok {
				return ids
			}
		}
	}
	//
	return nil
}

// IsWithin reports whether s is other, or nested (directly or transitively)
// inside other.
func (s *Scope) IsWithin(other *Scope) bool {
	for sc := s; sc != nil; sc = sc.parent {
		if sc == other {
			return true
		}
	}
	//
	return false
}

// EnclosingFlow returns the nearest enclosing FlowScope, or nil if none
// encloses s (used to validate break/continue, §4.4.5).
func (s *Scope) EnclosingFlow() *Scope {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.kind == FlowScope {
			return sc
		}
		//
		if sc.kind == FunctionScope || sc.kind == ClosureScope {
			// A flow scope does not extend across a function/closure
			// boundary: a break/continue may not escape its own function.
			return nil
		}
	}
	//
	return nil
}

// EnclosingClosure returns the nearest enclosing ClosureScope, or nil if s
// is not nested inside one (used by capture analysis, §4.4.4).
func (s *Scope) EnclosingClosure() *Scope {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.kind == ClosureScope {
			return sc
		}
	}
	//
	return nil
}
