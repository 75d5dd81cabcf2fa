package ast

// Import is a single `import NAME;` directive.
type Import struct {
	base
	Name string
}

// NewImport constructs an import directive node.
func NewImport(span Span, name string) *Import {
	return &Import{base{span}, name}
}

// Module is the parsed form of one source file: its declared name (default
// "main" if no `module NAME;` directive is present), its import list, and
// its top-level declarations in source order (§6, "Input").
type Module struct {
	base
	Name    string
	Imports []*Import
	Decls   []Decl
	// Scope is the module's own top-level (NamespaceScope) scope, created by
	// the semantic analyzer and nested directly under the builtin
	// namespace.
	Scope *Scope
}

// NewModule constructs a parsed module node.
func NewModule(span Span, name string, imports []*Import, decls []Decl) *Module {
	return &Module{base{span}, name, imports, decls, nil}
}

// DefaultModuleName is used when a source file declares no `module NAME;`
// directive (§6).
const DefaultModuleName = "main"
