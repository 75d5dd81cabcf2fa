// Package codegen lowers a semantically-valid AST (pkg/stela/sema's output)
// to backend IR (§4.5): one function per declaration, by-reference
// parameters as pointer parameters, module-level variables as globals with
// synthesized ctor/dtor functions appended to the module's global-ctors/
// global-dtors lists, and every value-semantics operation routed through
// pkg/stela/lifetime.
package codegen

import (
	"fmt"

	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/backend"
	"github.com/stela-lang/stela/pkg/stela/lifetime"
)

// typeLowerer lowers ast.Type nodes to backend.Type, memoized by structural
// shape rather than by AST node identity (§4.5.1). lifetime.Emitter caches
// its instantiated operations the same way, keyed by a structural typeKey
// rather than by the ast.Type node that first requested them (see
// lifetime.instance) — so two separately-written but structurally-identical
// type occurrences (e.g. two `[uint]` annotations in different functions)
// must end up sharing the exact same backend.Type object. Otherwise the
// first occurrence's backend.Type gets baked into a lifetime-instantiated
// function's parameter type, and a second occurrence's independently-built
// (but structurally equal) backend.Type could fail to match it at a call
// site. Caching here by typeKey, and stamping every node that shares a shape
// with SetBackendHandle, keeps the two packages' notions of "the same type"
// in agreement.
type typeLowerer struct {
	mod backend.Module
	lt  *lifetime.Emitter

	cache      map[string]backend.Type
	inProgress map[string]bool
}

func newTypeLowerer(mod backend.Module, lt *lifetime.Emitter) *typeLowerer {
	return &typeLowerer{
		mod:        mod,
		lt:         lt,
		cache:      make(map[string]backend.Type),
		inProgress: make(map[string]bool),
	}
}

// underlying walks through resolved Named aliases to the concrete type node
// they denote — representation follows the alias target regardless of
// whether it's a weak or strong alias (§4.4.1: the weak/strong distinction
// governs assignability, not layout).
func underlying(t ast.Type) ast.Type {
	for {
		n, ok := t.(*ast.Named)
		if !ok || n.Resolved == nil {
			return t
		}
		t = n.Resolved.Target()
	}
}

// typeKey returns a canonical string identifying t's physical
// representation. Mirrors lifetime's unexported typeKey (same structural
// shape, so the two packages agree on what counts as "the same type"),
// extended to User types, which lifetime never materializes but codegen
// still has to lower to a concrete backend.Type for field-offset purposes.
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
	case *ast.User:
		s := fmt.Sprintf("user<%d,%d>{", u.Size, u.Align)
		for i, f := range u.Fields {
			if i > 0 {
				s += ","
			}
			s += fmt.Sprintf("%s@%d:%s", f.Name, f.Offset, typeKey(f.Type))
		}
		return s + "}"
	}
	panic(fmt.Sprintf("codegen: typeKey of unrecognised type %T", underlying(t)))
}

// lower returns t's lowered backend.Type, building it at most once per
// distinct structural shape and stamping every node sharing that shape
// (including t itself) with the resulting handle.
func (l *typeLowerer) lower(t ast.Type) backend.Type {
	u := underlying(t)
	if h, ok := u.BackendHandle().(backend.Type); ok {
		return h
	}

	key := typeKey(u)
	if bt, ok := l.cache[key]; ok {
		u.SetBackendHandle(bt)
		return bt
	}
	if l.inProgress[key] {
		panic(fmt.Sprintf("codegen: cyclic type definition involving %s", key))
	}
	l.inProgress[key] = true
	defer delete(l.inProgress, key)

	var bt backend.Type
	switch n := u.(type) {
	case *ast.Builtin:
		bt = l.lowerBuiltin(n)
	case *ast.Array:
		bt = l.lowerArray(n)
	case *ast.Func:
		bt = l.lowerFunc(n)
	case *ast.Struct:
		bt = l.lowerStruct(n)
	case *ast.User:
		bt = l.mod.OpaqueType(int(n.Size), int(n.Align))
	default:
		panic(fmt.Sprintf("codegen: cannot lower %T", u))
	}

	l.cache[key] = bt
	u.SetBackendHandle(bt)
	return bt
}

// lowerBuiltin implements §4.5.1's IR-layout column for the eight primitive
// kinds: Bool/Byte/Char/Opaq as 8-bit integers (Opaq carries no arithmetic or
// bitwise operators, so its width is a storage choice only — Byte is its
// closest analogue), Sint/Uint as 32-bit integers, Real as a 32-bit float.
func (l *typeLowerer) lowerBuiltin(b *ast.Builtin) backend.Type {
	switch b.Kind {
	case ast.Void:
		return l.mod.VoidType()
	case ast.Bool, ast.Byte, ast.Char, ast.Opaq:
		return l.mod.IntType(8, false)
	case ast.Sint:
		return l.mod.IntType(32, true)
	case ast.Uint:
		return l.mod.IntType(32, false)
	case ast.Real:
		return l.mod.FloatType(32)
	}
	panic(fmt.Sprintf("codegen: unrecognised builtin kind %v", b.Kind))
}

// lowerArray builds the pointer-to-refcounted-header representation
// pkg/stela/lifetime's array operations expect (lifetime/array.go's
// headerRefcount/headerLen/headerCap/headerData field order): a null header
// denotes the empty array and needs no allocation. Every header field is a
// uniform 64-bit integer rather than §4.5.1's mixed i64/i32/i32 split —
// arrays are never serialized or passed across an FFI boundary in this
// implementation, so the narrower cap/len widths buy nothing but an extra
// truncating conversion at every access, and lifetime's generated array code
// already commits to i64 throughout.
func (l *typeLowerer) lowerArray(a *ast.Array) backend.Type {
	elemT := l.lower(a.Elem)
	i64T := l.mod.IntType(64, true)
	hdr := l.mod.StructType([]backend.Type{i64T, i64T, i64T, l.mod.PointerType(elemT)})
	return l.mod.PointerType(hdr)
}

// lowerFunc builds the {fn, env} two-word closure representation, deferring
// to lifetime.Emitter for both halves so a closure's lowered type is
// guaranteed byte-identical to what lifetime's closure operations read and
// write: ClosureFnSigType needs every parameter and the return type already
// lowered, hence the explicit pass over Params/Ret first.
func (l *typeLowerer) lowerFunc(f *ast.Func) backend.Type {
	for _, p := range f.Params {
		l.lower(p.Type)
	}
	l.lower(f.Ret)
	return l.mod.StructType([]backend.Type{l.lt.ClosureFnSigType(f), l.lt.EnvHeaderPtrType()})
}

// lowerStruct lowers each field in declared order, matching the per-field
// dispatch order pkg/stela/lifetime's struct operations rely on.
func (l *typeLowerer) lowerStruct(s *ast.Struct) backend.Type {
	fields := make([]backend.Type, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = l.lower(f.Type)
	}
	return l.mod.StructType(fields)
}
