package lifetime

import (
	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/backend"
)

// DefaultConstruct initializes the storage at dst to t's zero/empty state.
func (e *Emitter) DefaultConstruct(b backend.Builder, t ast.Type, dst backend.Value) {
	switch cat, u := classify(t); cat {
	case catBuiltin:
		b.Store(dst, builtinZero(b, u))
	case catUser:
		e.userUnary(b, DefaultCtor, u, dst)
	default:
		b.Call(e.instance(DefaultCtor, t), []backend.Value{dst})
	}
}

// CopyConstruct initializes the storage at dst by copying *src, leaving src
// untouched.
func (e *Emitter) CopyConstruct(b backend.Builder, t ast.Type, dst, src backend.Value) {
	switch cat, u := classify(t); cat {
	case catBuiltin:
		b.Store(dst, b.Load(src))
	case catUser:
		e.userBinary(b, CopyCtor, u, dst, src)
	default:
		b.Call(e.instance(CopyCtor, t), []backend.Value{dst, src})
	}
}

// MoveConstruct initializes the storage at dst by transferring *src's
// resources, leaving src in its default state.
func (e *Emitter) MoveConstruct(b backend.Builder, t ast.Type, dst, src backend.Value) {
	switch cat, u := classify(t); cat {
	case catBuiltin:
		b.Store(dst, b.Load(src))
	case catUser:
		e.userBinary(b, MoveCtor, u, dst, src)
	default:
		b.Call(e.instance(MoveCtor, t), []backend.Value{dst, src})
	}
}

// CopyAssign replaces *dst's value with a copy of *src, first releasing
// whatever *dst previously held.
func (e *Emitter) CopyAssign(b backend.Builder, t ast.Type, dst, src backend.Value) {
	switch cat, u := classify(t); cat {
	case catBuiltin:
		b.Store(dst, b.Load(src))
	case catUser:
		e.userBinary(b, CopyAssign, u, dst, src)
	default:
		b.Call(e.instance(CopyAssign, t), []backend.Value{dst, src})
	}
}

// MoveAssign replaces *dst's value by transferring *src's resources, first
// releasing whatever *dst previously held and leaving src default-valued.
func (e *Emitter) MoveAssign(b backend.Builder, t ast.Type, dst, src backend.Value) {
	switch cat, u := classify(t); cat {
	case catBuiltin:
		b.Store(dst, b.Load(src))
	case catUser:
		e.userBinary(b, MoveAssign, u, dst, src)
	default:
		b.Call(e.instance(MoveAssign, t), []backend.Value{dst, src})
	}
}

// Destroy releases *dst's resources. A no-op for builtin types.
func (e *Emitter) Destroy(b backend.Builder, t ast.Type, dst backend.Value) {
	switch cat, u := classify(t); cat {
	case catBuiltin:
		// Builtins own no resources; nothing to do.
	case catUser:
		e.userUnary(b, Dtor, u, dst)
	default:
		b.Call(e.instance(Dtor, t), []backend.Value{dst})
	}
}

// EqOp computes *lhs == *rhs as a 0/1 boolean value.
func (e *Emitter) EqOp(b backend.Builder, t ast.Type, lhs, rhs backend.Value) backend.Value {
	switch cat, u := classify(t); cat {
	case catBuiltin:
		return b.Cmp(backend.CmpEq, b.Load(lhs), b.Load(rhs))
	case catUser:
		return e.userBinaryValue(b, Eq, u, lhs, rhs)
	default:
		return b.Call(e.instance(Eq, t), []backend.Value{lhs, rhs})
	}
}

// LtOp computes *lhs < *rhs as a 0/1 boolean value.
func (e *Emitter) LtOp(b backend.Builder, t ast.Type, lhs, rhs backend.Value) backend.Value {
	switch cat, u := classify(t); cat {
	case catBuiltin:
		return b.Cmp(backend.CmpLt, b.Load(lhs), b.Load(rhs))
	case catUser:
		return e.userBinaryValue(b, Lt, u, lhs, rhs)
	default:
		return b.Call(e.instance(Lt, t), []backend.Value{lhs, rhs})
	}
}

// BoolOp converts *v to a 0/1 boolean value (§4.5.2's per-category
// truthiness rule: nonzero for builtins, non-null function slot for
// closures).
func (e *Emitter) BoolOp(b backend.Builder, t ast.Type, v backend.Value) backend.Value {
	switch cat, u := classify(t); cat {
	case catBuiltin:
		zero := builtinZero(b, u)
		return b.Cmp(backend.CmpNeq, b.Load(v), zero)
	case catUser:
		return e.userUnaryValue(b, Bool, u, v)
	default:
		return b.Call(e.instance(Bool, t), []backend.Value{v})
	}
}

// Construct initializes the storage at dst from an expression's evaluated
// result, dispatching on its value category (§4.5.5): a prvalue's result
// object already IS dst so nothing further happens beyond the initial
// store/ctor, an xvalue is moved from (and its own destructor is skipped,
// since ownership transferred), and an lvalue is copied.
func (e *Emitter) Construct(b backend.Builder, t ast.Type, dst backend.Value, src backend.Value, cat ValueCategory) {
	switch cat {
	case Prvalue:
		// src already denotes dst's own storage for builtins (the value
		// itself), or the callee already constructed directly into dst for
		// aggregates; either way there is nothing left to do here.
		if bcat, _ := classify(t); bcat == catBuiltin {
			b.Store(dst, src)
		}
	case Lvalue:
		e.CopyConstruct(b, t, dst, src)
	case Xvalue:
		e.MoveConstruct(b, t, dst, src)
	}
}

// Assign replaces *dst's value from an expression's evaluated result,
// dispatching on value category the same way Construct does, except a
// prvalue source has its own temporary storage that must still be
// destroyed after the move (§4.5.5).
func (e *Emitter) Assign(b backend.Builder, t ast.Type, dst backend.Value, src backend.Value, cat ValueCategory) {
	switch cat {
	case Prvalue:
		if bcat, _ := classify(t); bcat == catBuiltin {
			b.Store(dst, src)
			return
		}
		//
		e.MoveAssign(b, t, dst, src)
		e.Destroy(b, t, src)
	case Lvalue:
		e.CopyAssign(b, t, dst, src)
	case Xvalue:
		e.MoveAssign(b, t, dst, src)
	}
}
