package ast

// Type is the tagged-variant interface implemented by every type node:
// *Builtin, *Array, *Func, *Named, *Struct, *User.
type Type interface {
	Node
	// Equal reports structural equality under the rules of §4.4.1: builtin
	// value equality, array element equality recursively, function
	// parameters equal pointwise (including by-value/by-reference mode) with
	// matching return type, struct fields equal pointwise as (name,type).
	// Both sides are expanded through weak aliases first by the caller
	// (sema's Analyzer.concreteType) - Equal itself assumes that has already
	// happened for Named operands.
	Equal(other Type) bool
	// BackendHandle returns the lowered backend type, or nil if this type has
	// not yet been lowered by the code generator.
	BackendHandle() any
	// SetBackendHandle records the lowered backend type. Called at most once
	// per type, by the code generator.
	SetBackendHandle(any)
	isType()
}

// handle is embedded by every Type variant to carry the backend type handle
// once lowered (see §4.5, "Types annotated with a back-end type handle once
// lowered").
type handle struct {
	backend any
}

func (h *handle) BackendHandle() any     { return h.backend }
func (h *handle) SetBackendHandle(v any) { h.backend = v }

// BuiltinKind enumerates the eight primitive types. The order here is the
// one used throughout the specification's data model; String indexes its
// keyword table by it, while IsArithmetic/IsBitwise/IsBool below test each
// kind explicitly.
type BuiltinKind uint8

const (
	Void BuiltinKind = iota
	Bool
	Byte
	Char
	Real
	Sint
	Uint
	Opaq
)

// String returns the keyword spelling of this builtin kind.
func (k BuiltinKind) String() string {
	return [...]string{"void", "bool", "byte", "char", "real", "sint", "uint", "opaq"}[k]
}

// IsArithmetic reports whether operator category "arithmetic" (+ - * / %)
// applies to this kind, per §4.4.3.
func (k BuiltinKind) IsArithmetic() bool {
	return k == Char || k == Real || k == Sint || k == Uint
}

// IsBitwise reports whether operator category "bitwise" (& | ^ ~ << >>)
// applies to this kind.
func (k BuiltinKind) IsBitwise() bool {
	return k == Byte || k == Uint
}

// IsBool reports whether operator category "boolean" (&& || !) applies to
// this kind.
func (k BuiltinKind) IsBool() bool {
	return k == Bool
}

// IsNumeric reports whether this kind supports equality and ordering.
func (k BuiltinKind) IsNumeric() bool {
	return k == Byte || k == Char || k == Real || k == Sint || k == Uint
}

// Builtin is one of the eight primitive types.
type Builtin struct {
	base
	handle
	Kind BuiltinKind
}

// NewBuiltin constructs a builtin type node.
func NewBuiltin(span Span, kind BuiltinKind) *Builtin {
	return &Builtin{base{span}, handle{}, kind}
}

func (*Builtin) isType() {}

// Equal implements Type.
func (b *Builtin) Equal(other Type) bool {
	o, ok := other.(*Builtin)
	return ok && o.Kind == b.Kind
}

// Array is a homogeneous sequence type.
type Array struct {
	base
	handle
	Elem Type
}

// NewArray constructs an array-of-Elem type node.
func NewArray(span Span, elem Type) *Array {
	return &Array{base{span}, handle{}, elem}
}

func (*Array) isType() {}

// Equal implements Type.
func (a *Array) Equal(other Type) bool {
	o, ok := other.(*Array)
	return ok && a.Elem.Equal(o.Elem)
}

// Param is one parameter of a Func type: its passing mode and type.
type Param struct {
	// ByReference marks an `inout` parameter, lowered to a pointer
	// parameter; otherwise the parameter is passed by value.
	ByReference bool
	Type        Type
}

// Func is a function-signature type: `(params) -> ret`.
type Func struct {
	base
	handle
	Params []Param
	Ret    Type
}

// NewFunc constructs a function-signature type node.
func NewFunc(span Span, params []Param, ret Type) *Func {
	return &Func{base{span}, handle{}, params, ret}
}

func (*Func) isType() {}

// Equal implements Type.
func (f *Func) Equal(other Type) bool {
	o, ok := other.(*Func)
	if !ok || len(f.Params) != len(o.Params) || !f.Ret.Equal(o.Ret) {
		return false
	}
	//
	for i := range f.Params {
		if f.Params[i].ByReference != o.Params[i].ByReference || !f.Params[i].Type.Equal(o.Params[i].Type) {
			return false
		}
	}
	//
	return true
}

// AliasTarget is implemented by the symbol a Named type resolves to (a
// TypeAlias binding; see pkg/stela/ast/symbol.go). Kept as a narrow
// interface here so types.go has no dependency on the concrete binding
// representation.
type AliasTarget interface {
	// Target returns the type this alias denotes.
	Target() Type
	// IsStrong reports whether this is a `type strong` alias (a fresh,
	// nominally distinct type) as opposed to `type weak` (transparent).
	IsStrong() bool
}

// Named is a reference to a type alias by name, resolved during semantic
// analysis.
type Named struct {
	base
	handle
	Name     string
	Resolved AliasTarget // nil until resolved
}

// NewNamed constructs an as-yet-unresolved named-type reference.
func NewNamed(span Span, name string) *Named {
	return &Named{base{span}, handle{}, name, nil}
}

func (*Named) isType() {}

// Equal implements Type. Named types compare equal to whatever their
// resolved alias expands to; sema's Analyzer.concreteType is expected to have
// already substituted weak aliases away before Equal is called on either
// side, so a Named surviving to this point can only be a strong alias,
// which is equal only to itself (by name identity of the resolved symbol).
func (n *Named) Equal(other Type) bool {
	o, ok := other.(*Named)
	return ok && n.Resolved != nil && o.Resolved != nil && n.Resolved == o.Resolved
}

// StructField is one field of a Struct type.
type StructField struct {
	Name string
	Type Type
	Span Span
}

// Struct is an anonymous structural record type: fields compare pointwise.
type Struct struct {
	base
	handle
	Fields []StructField
}

// NewStruct constructs a struct type node.
func NewStruct(span Span, fields []StructField) *Struct {
	return &Struct{base{span}, handle{}, fields}
}

func (*Struct) isType() {}

// Equal implements Type.
func (s *Struct) Equal(other Type) bool {
	o, ok := other.(*Struct)
	if !ok || len(s.Fields) != len(o.Fields) {
		return false
	}
	//
	for i := range s.Fields {
		if s.Fields[i].Name != o.Fields[i].Name || !s.Fields[i].Type.Equal(o.Fields[i].Type) {
			return false
		}
	}
	//
	return true
}

// UserField describes one field of a User type's layout.
type UserField struct {
	Name   string
	Type   Type
	Offset uint
}

// LifetimeAddr is the address of a generated (or FFI-supplied) lifetime
// operation function, set once the code generator has materialized it. Its
// concrete representation is owned by the backend package; ast only ever
// stores and compares it opaquely. The sentinel value TrivialOp denotes
// "byte-copy, no-op destructor" per §4.5.2.
type LifetimeAddr any

// TrivialOp is the sentinel LifetimeAddr meaning "this operation is a
// trivial byte-copy / no-op and needs no generated function".
var TrivialOp LifetimeAddr = struct{ trivial bool }{true}

// User is an opaque externally-defined composite type carrying its own
// lifetime/compare/bool-conversion operation addresses, used for values
// whose representation and behaviour is supplied outside the language (e.g.
// an FFI type). All six lifetime operations and the compare/bool addresses
// must be set before this type reaches code generation (see invariant in
// §3).
type User struct {
	base
	handle
	Fields      []UserField
	Size, Align uint

	Dtor, DefaultCtor, CopyCtor, CopyAssign, MoveCtor, MoveAssign LifetimeAddr
	Eq, Lt, Bool                                                  LifetimeAddr
}

// NewUser constructs a user type node with every operation address set to
// the trivial sentinel; callers fill in real addresses as they become
// available.
func NewUser(span Span, fields []UserField, size, align uint) *User {
	return &User{
		base: base{span}, handle: handle{}, Fields: fields, Size: size, Align: align,
		Dtor: TrivialOp, DefaultCtor: TrivialOp, CopyCtor: TrivialOp, CopyAssign: TrivialOp,
		MoveCtor: TrivialOp, MoveAssign: TrivialOp, Eq: TrivialOp, Lt: TrivialOp, Bool: TrivialOp,
	}
}

func (*User) isType() {}

// Equal implements Type. User types are compared by field layout, matching
// the struct rule (they differ from Struct only in carrying lifetime
// operation addresses rather than having them synthesized).
func (u *User) Equal(other Type) bool {
	o, ok := other.(*User)
	if !ok || len(u.Fields) != len(o.Fields) || u.Size != o.Size || u.Align != o.Align {
		return false
	}
	//
	for i := range u.Fields {
		if u.Fields[i].Name != o.Fields[i].Name || u.Fields[i].Offset != o.Fields[i].Offset ||
			!u.Fields[i].Type.Equal(o.Fields[i].Type) {
			return false
		}
	}
	//
	return true
}
