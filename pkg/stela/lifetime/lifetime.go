// Package lifetime synthesizes the value-semantics operations every STELA
// type needs — default/copy/move construction, copy/move assignment,
// destruction, and the builtin comparison/truthiness conversions — and
// materializes the non-trivial ones as real backend functions, cached so
// each (operation, type) pair is emitted at most once no matter how many
// call sites need it (§4.5.2). Builtin types are the exception: their
// operations are cheap enough to inline at every call site rather than pay
// a call.
//
// The dispatch shape mirrors original_source's LifetimeExpr: one method per
// operation, switching on the operand's type category (builtin vs array vs
// closure vs struct vs user), with array/closure/struct categories each
// delegating to a per-type instantiated function rather than inlining.
package lifetime

import (
	"fmt"

	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/backend"
)

// Operation enumerates the lifetime/comparison operations a type can need.
type Operation int

const (
	Dtor Operation = iota
	DefaultCtor
	CopyCtor
	CopyAssign
	MoveCtor
	MoveAssign
	Eq
	Lt
	Bool
)

func (op Operation) String() string {
	return [...]string{
		"dtor", "defctor", "copyctor", "copyasgn", "movector", "moveasgn", "eq", "lt", "bool",
	}[op]
}

// ValueCategory mirrors the three C++-style value categories the code
// generator tags every expression with (§4.5.5): a prvalue's storage is the
// destination itself (no separate object to destroy), an xvalue's storage
// is moved-from-then-destroyed, and an lvalue is copied, leaving the source
// untouched.
type ValueCategory int

const (
	Prvalue ValueCategory = iota
	Xvalue
	Lvalue
)

// Glvalue reports whether cat denotes a generalized lvalue (has its own
// addressable storage distinct from the destination): lvalue or xvalue.
func (cat ValueCategory) Glvalue() bool { return cat != Prvalue }

// Emitter synthesizes and caches lifetime operations against one backend
// module.
type Emitter struct {
	mod   backend.Module
	insts map[string]backend.Function
	// byteT/voidT are reused across every array/closure header this emitter
	// builds.
	byteT backend.Type
	voidT backend.Type
}

// NewEmitter constructs an emitter that materializes instantiated
// operations into mod as they're first needed.
func NewEmitter(mod backend.Module) *Emitter {
	return &Emitter{
		mod:   mod,
		insts: make(map[string]backend.Function),
		byteT: mod.IntType(8, false),
		voidT: mod.VoidType(),
	}
}

// category classifies a type for dispatch purposes, expanding through type
// aliases first (§4.4.1's weak/strong alias rule governs assignability, not
// representation: both kinds share their target's physical layout).
type category int

const (
	catBuiltin category = iota
	catArray
	catClosure
	catStruct
	catUser
)

func underlying(t ast.Type) ast.Type {
	for {
		n, ok := t.(*ast.Named)
		if !ok || n.Resolved == nil {
			return t
		}
		//
		t = n.Resolved.Target()
	}
}

func classify(t ast.Type) (category, ast.Type) {
	u := underlying(t)
	//
	switch u.(type) {
	case *ast.Builtin:
		return catBuiltin, u
	case *ast.Array:
		return catArray, u
	case *ast.Func:
		return catClosure, u
	case *ast.Struct:
		return catStruct, u
	case *ast.User:
		return catUser, u
	}
	//
	panic(fmt.Sprintf("lifetime: unrecognised type %T", u))
}

// typeKey returns a canonical string identifying t's physical
// representation, used to deduplicate instantiated operations across
// structurally-identical types (e.g. two separately-written `[]uint`
// annotations must share one array destructor, not emit one each). User
// types are never materialized by this package (see user.go) so they never
// need a structural key.
func typeKey(t ast.Type) string {
	switch u := underlying(t).(type) {
	case *ast.Builtin:
		return u.Kind.String()
	case *ast.Array:
		return "[" + typeKey(u.Elem) + "]"
	case *ast.Func:
		s := "("
		for i, p := range u.Params {
			if i > 0 {
				s += ","
			}
			if p.ByReference {
				s += "&"
			}
			s += typeKey(p.Type)
		}
		return s + ")->" + typeKey(u.Ret)
	case *ast.Struct:
		s := "{"
		for i, f := range u.Fields {
			if i > 0 {
				s += ","
			}
			s += f.Name + ":" + typeKey(f.Type)
		}
		return s + "}"
	}
	//
	panic("lifetime: typeKey of a non-structural type")
}

// backendType resolves t's lowered backend handle, set by the code
// generator's type-lowering pass before any lifetime operation on t is
// requested.
func backendType(t ast.Type) backend.Type {
	h := underlying(t).BackendHandle()
	bt, ok := h.(backend.Type)
	if !ok {
		panic(fmt.Sprintf("lifetime: %v has no lowered backend type", t))
	}
	//
	return bt
}
