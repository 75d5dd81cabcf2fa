// Package backend defines the external-collaborator interface the code
// generator lowers to (the Out-of-scope list in §1: "a concrete backend
// (LLVM or otherwise)") — an ordinary Go interface, the same shape as
// pkg/schema.Module[F]/pkg/ir's generic interfaces over a constraint
// backend rather than a concrete type. pkg/stela/backend/refbackend
// supplies the one implementation this repository ships: an in-memory
// instruction IR interpreted by a tree-walking execution engine, standing in
// for a real JIT.
package backend

import "github.com/stela-lang/stela/pkg/stela/diag"

// Linkage controls whether a function or global is visible outside the
// module that defines it (§4.5, "external-linkage if declared external,
// internal otherwise").
type Linkage int

const (
	// Internal marks a definition only callable/addressable within its own
	// module.
	Internal Linkage = iota
	// External marks a definition exported for other modules (and the host)
	// to call or take the address of.
	External
)

// Type is a lowered backend type handle (§4.5.1's IR layout column):
// opaque beyond the layout facts code generation needs to compute field
// offsets and array element strides.
type Type interface {
	// Size is this type's size in bytes.
	Size() int
	// Align is this type's required alignment in bytes.
	Align() int
	String() string
}

// Value is any operand an instruction can consume: a constant, a function
// parameter, a global's address, or the result of a prior instruction.
type Value interface {
	Type() Type
}

// BinOp enumerates the binary instruction opcodes the builder can emit.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	// Div and Mod pick signed/unsigned/float semantics from their operand
	// type (§4.5.1: Sint/Uint/Real are all distinct IR integer/float kinds).
	Div
	Mod
	And
	Or
	Xor
	Shl
	Shr
)

// CmpOp enumerates comparison opcodes; every one yields a 1-bit boolean
// value.
type CmpOp int

const (
	CmpEq CmpOp = iota
	CmpNeq
	CmpLt
	CmpLtEq
	CmpGt
	CmpGtEq
)

// UnOp enumerates unary instruction opcodes.
type UnOp int

const (
	Neg UnOp = iota
	Not
	BitNot
)

// TypeBuilder constructs the lowered type vocabulary a module needs (§4.5.1).
type TypeBuilder interface {
	VoidType() Type
	// IntType constructs a fixed-width integer type; signed distinguishes
	// Sint (signed) from Uint/Byte/Char/Bool (unsigned) per §4.5.1's bit
	// widths.
	IntType(bits int, signed bool) Type
	FloatType(bits int) Type
	PointerType(elem Type) Type
	// StructType constructs a packed record of fields in order (used for
	// Struct, and for the refcount/len/cap/data array header and the
	// refcount/dtor closure-data header of §4.5.1).
	StructType(fields []Type) Type
	// OpaqueType constructs a byte-array type of the given size/align, used
	// to lower a User type (§4.5.1).
	OpaqueType(size, align int) Type
	// FuncSigType constructs a bare function-pointer type (params, ret) —
	// not a definition, just the type of a value that can be called.
	FuncSigType(params []Type, ret Type) Type
}

// Module is a whole compiled program's backend IR: its functions, globals,
// and the ordered global constructor/destructor lists (§4.6).
type Module interface {
	TypeBuilder
	// DeclareFunction creates (or returns the existing declaration of) a
	// function. body is filled in by appending blocks via Function.NewBlock;
	// an external stub (no STELA body) is left with zero blocks.
	DeclareFunction(name string, params []Type, ret Type, linkage Linkage) Function
	// DeclareGlobal creates a global variable of type t, returning its
	// address as a Value.
	DeclareGlobal(name string, t Type, linkage Linkage) Value
	// AppendGlobalCtor registers a niladic internal function to run at
	// module load, in append order (§4.5, "ordered global-ctors list").
	AppendGlobalCtor(fn Function)
	// AppendGlobalDtor registers a niladic internal function to run at
	// module unload.
	AppendGlobalDtor(fn Function)
	// Verify checks every function is well-formed: every block reachable
	// from the entry terminates in exactly one terminator, every value is
	// used at its declared type (§4.6, "any verifier complaint is a fatal
	// internal error").
	Verify() []diag.Record
}

// Function is a function definition: its parameters and basic blocks.
type Function interface {
	Value
	Name() string
	Param(i int) Value
	// NewBlock appends a fresh, unterminated basic block and returns a
	// builder over it.
	NewBlock(label string) BasicBlock
	// Entry returns the function's first block, or nil if none has been
	// created yet (an external stub).
	Entry() BasicBlock
}

// BasicBlock is a straight-line instruction sequence ending in exactly one
// terminator (Br/CondBr/Ret/RetVoid/Unreachable/Panic). It is itself the
// builder for the instructions appended to it.
type BasicBlock interface {
	Builder
	Name() string
	// Terminated reports whether a terminator has already been emitted.
	Terminated() bool
}

// Builder emits instructions into the block it is called on (§4.5.4,
// §4.5.5's value/address/discard lowering all funnel through this).
type Builder interface {
	ConstInt(t Type, v int64) Value
	ConstFloat(t Type, v float64) Value
	// ConstNull constructs the zero value of a pointer/struct/array-header
	// type, used as a default-constructed closure/array before its lifetime
	// ctor runs.
	ConstNull(t Type) Value

	// Alloca reserves a stack slot of type t, returning its address.
	Alloca(t Type) Value
	Load(ptr Value) Value
	Store(ptr, v Value)

	BinOp(op BinOp, lhs, rhs Value) Value
	UnOp(op UnOp, v Value) Value
	Cmp(op CmpOp, lhs, rhs Value) Value
	// Convert casts v (a builtin-typed value) to to, per make's cast rule
	// (§6).
	Convert(v Value, to Type) Value

	// FieldPtr computes the address of field index within the struct/array-
	// header/closure-data value base points to.
	FieldPtr(base Value, index int) Value
	// ElemPtr computes base + index*sizeof(elem), the array data-pointer
	// arithmetic behind subscript and the bounds-check diamond (§4.5.3).
	ElemPtr(base, index Value) Value

	// HeapAlloc allocates n bytes on the backend's heap, for array/closure
	// headers and their data buffers.
	HeapAlloc(n Value) Value
	// HeapFree releases a HeapAlloc'd address.
	HeapFree(ptr Value)

	Call(fn Function, args []Value) Value
	// CallIndirect invokes fnPtr (a bare function-pointer value, e.g. from
	// a closure's function slot) against sig.
	CallIndirect(fnPtr Value, sig Type, args []Value) Value

	Br(target BasicBlock)
	CondBr(cond Value, then, els BasicBlock)
	// Likely hints that target is the expected branch outcome (§4.5.3, "the
	// in-bounds branch is hinted as likely"). A no-op for backends that
	// don't model branch weights.
	Likely(target BasicBlock)

	Ret(v Value)
	RetVoid()
	Unreachable()
	// Panic calls the runtime panic intrinsic with msg and terminates the
	// block with Unreachable (§4.5.3, §5.3).
	Panic(msg string)
}

// ExecutionEngine is the result of JIT-ing a verified module: callable entry
// points by name (§6, "jit(module, sink) → ExecutionEngine exposing
// address_of(name)").
type ExecutionEngine interface {
	// AddressOf returns a callable for the named exported function, or
	// false if no such function exists.
	AddressOf(name string) (func(args []any) []any, bool)
}
