package lifetime

import (
	"fmt"

	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/backend"
)

// userAddr picks the LifetimeAddr for op off u: the storage operations
// (dtor/ctors/assigns) as well as the comparison/bool addresses that
// userUnaryValue/userBinaryValue look up through it.
func userAddr(u *ast.User, op Operation) ast.LifetimeAddr {
	switch op {
	case Dtor:
		return u.Dtor
	case DefaultCtor:
		return u.DefaultCtor
	case CopyCtor:
		return u.CopyCtor
	case CopyAssign:
		return u.CopyAssign
	case MoveCtor:
		return u.MoveCtor
	case MoveAssign:
		return u.MoveAssign
	case Eq:
		return u.Eq
	case Lt:
		return u.Lt
	case Bool:
		return u.Bool
	}
	panic(fmt.Sprintf("lifetime: %v is not a user-dispatchable operation", op))
}

// userFunc downcasts a non-trivial LifetimeAddr to the backend function it
// denotes. User.Dtor et al. are declared as the opaque ast.LifetimeAddr only
// to keep package ast free of a backend dependency; this package is where
// that opacity is unwrapped.
func userFunc(u *ast.User, op Operation) backend.Function {
	addr := userAddr(u, op)
	fn, ok := addr.(backend.Function)
	if !ok {
		panic(fmt.Sprintf("lifetime: user type's %v address is not a backend.Function (%T)", op, addr))
	}
	return fn
}

// userUnary emits a one-operand user-type operation (dtor or default-ctor).
func (e *Emitter) userUnary(b backend.Builder, op Operation, u *ast.User, dst backend.Value) {
	if userAddr(u, op) == ast.TrivialOp {
		switch op {
		case Dtor:
			// Nothing owned, nothing to release.
		case DefaultCtor:
			b.Store(dst, b.ConstNull(backendType(u)))
		default:
			panic(fmt.Sprintf("lifetime: %v has no trivial unary form", op))
		}
		return
	}
	b.Call(userFunc(u, op), []backend.Value{dst})
}

// userBinary emits a two-operand user-type operation (the four copy/move
// ctor/assign forms). A trivial user type has no resources of its own, so
// copy and move both reduce to a load/store of the whole representation;
// move additionally leaves src's slot untouched, since there is nothing to
// null out (a trivial type's default state IS its zero bit pattern, which
// the caller is free to re-default-construct independently).
func (e *Emitter) userBinary(b backend.Builder, op Operation, u *ast.User, dst, src backend.Value) {
	if userAddr(u, op) == ast.TrivialOp {
		switch op {
		case CopyCtor, MoveCtor, CopyAssign, MoveAssign:
			b.Store(dst, b.Load(src))
		default:
			panic(fmt.Sprintf("lifetime: %v has no trivial binary form", op))
		}
		return
	}
	b.Call(userFunc(u, op), []backend.Value{dst, src})
}

// userUnaryValue emits Bool for a user type. Unlike the storage operations
// above, a type offering no custom truthiness has no sensible trivial
// fallback, so sema is relied upon to reject bool-converting such a value
// before code generation ever reaches here.
func (e *Emitter) userUnaryValue(b backend.Builder, op Operation, u *ast.User, v backend.Value) backend.Value {
	if userAddr(u, op) == ast.TrivialOp {
		panic(fmt.Sprintf("lifetime: user type has no %v operation", op))
	}
	return b.Call(userFunc(u, op), []backend.Value{v})
}

// userBinaryValue emits Eq or Lt for a user type, with the same
// sema-guarantees-it's-supplied assumption as userUnaryValue.
func (e *Emitter) userBinaryValue(b backend.Builder, op Operation, u *ast.User, lhs, rhs backend.Value) backend.Value {
	if userAddr(u, op) == ast.TrivialOp {
		panic(fmt.Sprintf("lifetime: user type has no %v operation", op))
	}
	return b.Call(userFunc(u, op), []backend.Value{lhs, rhs})
}
