package ast

// Mutability is the `let` (not reassignable) vs `var` (reassignable) axis of
// an ExprType.
type Mutability uint8

const (
	// Let marks an immutable binding.
	Let Mutability = iota
	// Var marks a reassignable binding.
	Var
)

// AtMost reports whether m ≤ atMost under the ordering let ≤ var. Callable
// uses it as required.AtMost(supplied): a let requirement is met by either
// mutability, but a var requirement cannot be satisfied by a let.
func (m Mutability) AtMost(atMost Mutability) bool {
	return m <= atMost
}

// BindingMode is the value vs reference axis of an ExprType.
type BindingMode uint8

const (
	// ByValue marks an expression denoting an independent value.
	ByValue BindingMode = iota
	// ByReference marks an expression denoting a reference to existing
	// storage (e.g. an `inout` parameter, or an lvalue taken by reference).
	ByReference
)

// ExprType is the resolved type of an expression together with its
// mutability and binding axes, as defined in §3.
type ExprType struct {
	Type       Type
	Mutability Mutability
	Binding    BindingMode
}

// NewValueType constructs an ExprType for an ordinary by-value expression.
func NewValueType(t Type, mut Mutability) ExprType {
	return ExprType{t, mut, ByValue}
}

// NewReferenceType constructs an ExprType for a by-reference expression.
func NewReferenceType(t Type, mut Mutability) ExprType {
	return ExprType{t, mut, ByReference}
}

// Callable implements the common-call rule from §3: an argument `arg` may be
// passed where `param` is expected iff their types compare equal and either
// the parameter is by-value, or the parameter's mutability bounds the
// argument's mutability from above (let ≤ var).
func Callable(param, arg ExprType) bool {
	if !param.Type.Equal(arg.Type) {
		return false
	}
	//
	if param.Binding == ByValue {
		return true
	}
	//
	return param.Mutability.AtMost(arg.Mutability)
}
