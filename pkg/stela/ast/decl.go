package ast

// Decl is the tagged-variant interface implemented by every declaration
// node: *FuncDecl, *VarDecl, *TypeAliasDecl, *BuiltinStubDecl. Each carries a
// back-reference to its resolved symbol (§3).
type Decl interface {
	Node
	// ResolvedBinding returns the SymbolId this declaration allocated, or
	// InvalidSymbol before semantic analysis has run.
	ResolvedBinding() SymbolId
	isDecl()
}

type declBase struct {
	base
	binding SymbolId
}

func (d *declBase) ResolvedBinding() SymbolId { return d.binding }
func (d *declBase) setBinding(id SymbolId)     { d.binding = id }

// FuncParam is one formal parameter of a function declaration or lambda
// literal.
type FuncParam struct {
	Name        string
	Type        Type
	ByReference bool // `inout` parameter
	Span        Span
}

// FuncDecl is a `func` (or `extern func`) declaration, optionally with a
// receiver clause `(ident: [inout] T)` before the name making it
// member-like (§6).
type FuncDecl struct {
	declBase
	Receiver *FuncParam // nil if this function has no receiver
	Name     string
	Params   []FuncParam
	Ret      Type
	Body     *Block // always set by the parser; every declaration has a body
	Extern   bool
}

// NewFuncDecl constructs a function declaration node.
func NewFuncDecl(span Span, receiver *FuncParam, name string, params []FuncParam, ret Type, body *Block, extern bool) *FuncDecl {
	return &FuncDecl{declBase{base: base{span}, binding: InvalidSymbol}, receiver, name, params, ret, body, extern}
}

func (*FuncDecl) isDecl() {}

// SetBinding records the FuncBinding/LambdaBinding allocated for this
// declaration.
func (d *FuncDecl) SetBinding(id SymbolId) { d.setBinding(id) }

// VarDecl is a `var` (mutable) or `let` (immutable) declaration. It doubles
// as a statement: a local `var`/`let` appearing inside a function body is
// parsed as a VarDecl used directly as a block statement, just as
// Assignment is a statement subcategory of Stmt (§3).
type VarDecl struct {
	declBase
	Name       string
	Mutability Mutability
	// DeclaredType is the explicit type annotation, or nil when the type is
	// to be inferred from Init.
	DeclaredType Type
	Init         Expr // nil if the declaration has no initializer
}

// NewVarDecl constructs a var/let declaration node.
func NewVarDecl(span Span, name string, mut Mutability, declaredType Type, init Expr) *VarDecl {
	return &VarDecl{declBase{base: base{span}, binding: InvalidSymbol}, name, mut, declaredType, init}
}

func (*VarDecl) isDecl() {}
func (*VarDecl) isStmt() {}

// SetBinding records the ObjectBinding allocated for this declaration.
func (d *VarDecl) SetBinding(id SymbolId) { d.setBinding(id) }

// TypeAliasDecl is a `type A = B;` (weak) or `type A B;` (strong)
// declaration.
type TypeAliasDecl struct {
	declBase
	Name   string
	Of     Type
	Strong bool
}

// NewTypeAliasDecl constructs a type-alias declaration node.
func NewTypeAliasDecl(span Span, name string, of Type, strong bool) *TypeAliasDecl {
	return &TypeAliasDecl{declBase{base: base{span}, binding: InvalidSymbol}, name, of, strong}
}

func (*TypeAliasDecl) isDecl() {}

// SetBinding records the TypeAliasBinding allocated for this declaration.
func (d *TypeAliasDecl) SetBinding(id SymbolId) { d.setBinding(id) }

// BuiltinStubDecl declares a builtin generic operation's signature so it
// participates in ordinary overload resolution alongside user functions
// (§2, "Builtin environment: register primitive types and builtin
// generics").
type BuiltinStubDecl struct {
	declBase
	Op     BuiltinOp
	Params []Type
	Ret    Type
}

// NewBuiltinStubDecl constructs a builtin-function stub declaration node.
func NewBuiltinStubDecl(span Span, op BuiltinOp, params []Type, ret Type) *BuiltinStubDecl {
	return &BuiltinStubDecl{declBase{base: base{span}, binding: InvalidSymbol}, op, params, ret}
}

func (*BuiltinStubDecl) isDecl() {}

// SetBinding records the BuiltinFuncBinding allocated for this declaration.
func (d *BuiltinStubDecl) SetBinding(id SymbolId) { d.setBinding(id) }
