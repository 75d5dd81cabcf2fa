package ast

// Binding is implemented by every resolved-symbol kind: *ObjectBinding,
// *FuncBinding, *LambdaBinding, *TypeAliasBinding, *BuiltinFuncBinding.
type Binding interface {
	// SymbolName returns the unqualified name this binding was declared
	// under.
	SymbolName() string
	isBinding()
}

// symbolBase is embedded by every Binding. Every symbol carries a
// referenced-flag used for dead-symbol (unused-variable) diagnostics.
type symbolBase struct {
	name       string
	referenced bool
}

// SymbolName implements Binding.
func (s *symbolBase) SymbolName() string { return s.name }

// MarkReferenced records that this symbol has been read or called at least
// once; used to suppress the unused-symbol warning.
func (s *symbolBase) MarkReferenced() { s.referenced = true }

// IsReferenced reports whether MarkReferenced has been called.
func (s *symbolBase) IsReferenced() bool { return s.referenced }

// ObjectBinding is a variable, parameter, or local.
type ObjectBinding struct {
	symbolBase
	Type ExprType
	// DeclSite is the span of the declaration that introduced this object,
	// used for "defined here" diagnostics and as the identity compared
	// against in closure capture analysis.
	DeclSite Span
}

// NewObjectBinding constructs a variable/parameter/local binding.
func NewObjectBinding(name string, t ExprType, declSite Span) *ObjectBinding {
	return &ObjectBinding{symbolBase{name: name}, t, declSite}
}

func (*ObjectBinding) isBinding() {}

// FuncBinding is a user-defined (or external) function: its signature and
// owning scope.
type FuncBinding struct {
	symbolBase
	Params []Param
	Ret    Type
	// Receiver is the implicit first parameter when this function was
	// declared with a receiver clause `(ident: [inout] T) name(...)`,
	// making it callable as `obj.name(...)`.
	Receiver *Param
	// Extern marks an externally-linked (exported) function.
	Extern bool
	// Scope is the function's own scope, holding its parameters and locals.
	Scope *Scope
}

// NewFuncBinding constructs a user/external function binding.
func NewFuncBinding(name string, params []Param, ret Type, receiver *Param, extern bool) *FuncBinding {
	return &FuncBinding{symbolBase{name: name}, params, ret, receiver, extern, nil}
}

func (*FuncBinding) isBinding() {}

// Signature returns the callable parameter list, with the receiver (if any)
// prepended, matching how a qualified call `obj.fn(args)` promotes obj to
// the first argument for overload resolution (§4.4.3, Receiver).
func (f *FuncBinding) Signature() []Param {
	if f.Receiver == nil {
		return f.Params
	}
	//
	sig := make([]Param, 0, len(f.Params)+1)
	sig = append(sig, *f.Receiver)
	sig = append(sig, f.Params...)
	//
	return sig
}

// Capture is one entry of a closure's ordered capture vector (§3, "Closure
// capture").
type Capture struct {
	Type Type
	// SourceObject is the captured object's own binding when this is a fresh
	// capture from the immediately enclosing scope.
	SourceObject *ObjectBinding
	// ParentCaptureIndex is the slot index within the parent closure's own
	// capture vector when this capture is transitive (i.e. relayed through
	// an intermediate closure boundary), or -1 for a fresh capture.
	ParentCaptureIndex int
}

// NoParentCapture is the ParentCaptureIndex sentinel meaning "not captured
// from a parent closure" (⟂ in §3).
const NoParentCapture = -1

// LambdaBinding is a closure: a FuncBinding plus its ordered capture list.
type LambdaBinding struct {
	FuncBinding
	Captures []Capture
}

// NewLambdaBinding constructs a closure binding with no captures yet;
// capture analysis appends to Captures as it walks the body.
func NewLambdaBinding(params []Param, ret Type) *LambdaBinding {
	return &LambdaBinding{*NewFuncBinding("", params, ret, nil, false), nil}
}

func (*LambdaBinding) isBinding() {}

// TypeAliasBinding implements ast.AliasTarget: a `type` declaration, strong
// or weak.
type TypeAliasBinding struct {
	symbolBase
	Of     Type
	Strong bool
}

// NewTypeAliasBinding constructs a type-alias binding.
func NewTypeAliasBinding(name string, of Type, strong bool) *TypeAliasBinding {
	return &TypeAliasBinding{symbolBase{name: name}, of, strong}
}

func (*TypeAliasBinding) isBinding() {}

// Target implements AliasTarget.
func (t *TypeAliasBinding) Target() Type { return t.Of }

// IsStrong implements AliasTarget.
func (t *TypeAliasBinding) IsStrong() bool { return t.Strong }

// BuiltinOp enumerates the builtin generic operations (§1, "builtin
// generics are the only parametric operations"). The specification names
// exactly one: size([T]) -> uint.
type BuiltinOp uint8

const (
	// OpSize computes an array's length: size([T]) -> uint.
	OpSize BuiltinOp = iota
)

// String returns the builtin's call-site spelling.
func (o BuiltinOp) String() string {
	return [...]string{"size"}[o]
}

// BuiltinFuncBinding is a reference to one of the compiler's builtin
// generic operations.
type BuiltinFuncBinding struct {
	symbolBase
	Op BuiltinOp
}

// NewBuiltinFuncBinding constructs a builtin-function binding.
func NewBuiltinFuncBinding(op BuiltinOp) *BuiltinFuncBinding {
	return &BuiltinFuncBinding{symbolBase{name: op.String()}, op}
}

func (*BuiltinFuncBinding) isBinding() {}

// SymbolId identifies a symbol within an Arena. This replaces raw
// pointer-valued back-references from AST to symbol (REDESIGN FLAGS,
// "Back-reference pointers -> arena+index"): an identifier node stores a
// SymbolId rather than a *Binding, so the AST and the symbol table can be
// serialized, compared, or walked without chasing live pointers through a
// cycle.
type SymbolId uint32

// InvalidSymbol is the SymbolId of an unresolved reference.
const InvalidSymbol SymbolId = ^SymbolId(0)

// Arena owns every symbol allocated while analyzing a compilation: all
// modules share one arena, so a cross-module reference is just another
// SymbolId.
type Arena struct {
	symbols []Binding
}

// NewArena constructs an empty symbol arena.
func NewArena() *Arena {
	return &Arena{}
}

// Alloc allocates b into the arena, returning its new id.
func (a *Arena) Alloc(b Binding) SymbolId {
	id := SymbolId(len(a.symbols))
	a.symbols = append(a.symbols, b)
	//
	return id
}

// Get returns the binding previously allocated at id. It panics if id is
// InvalidSymbol or out of range, since every live reference is expected to
// have been resolved by the time Get is called (i.e. after semantic
// analysis).
func (a *Arena) Get(id SymbolId) Binding {
	return a.symbols[id]
}

// Ref is a named reference to a symbol of kind T, resolved by arena index.
// T is typically a concrete binding pointer type (e.g. *ObjectBinding); Ref
// generalizes the shape of the reference across every kind of symbol an
// identifier, member access, or call can resolve to, the way the teacher
// codebase's Name[T Binding] does, but storing a SymbolId rather than T
// itself.
type Ref[T Binding] struct {
	name string
	id   SymbolId
}

// NewRef constructs an as-yet-unresolved reference to name.
func NewRef[T Binding](name string) Ref[T] {
	return Ref[T]{name, InvalidSymbol}
}

// Name returns the name this reference was parsed with.
func (r *Ref[T]) Name() string { return r.name }

// IsResolved reports whether Resolve has been called.
func (r *Ref[T]) IsResolved() bool { return r.id != InvalidSymbol }

// Resolve binds this reference to id.
func (r *Ref[T]) Resolve(id SymbolId) { r.id = id }

// Id returns the resolved SymbolId, or InvalidSymbol if unresolved.
func (r *Ref[T]) Id() SymbolId { return r.id }

// Lookup resolves r against arena and asserts the result is of kind T.
func Lookup[T Binding](arena *Arena, r Ref[T]) T {
	return arena.Get(r.id).(T)
}
