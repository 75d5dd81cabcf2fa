// Package refbackend is the one backend.Module implementation this
// repository ships: an in-memory instruction IR interpreted by a
// tree-walking execution engine, standing in for a real JIT (§1 lists
// "a concrete backend (LLVM or otherwise)" as out of scope; this
// package exists only so the compiler has something runnable to drive
// end-to-end tests against).
//
// The reference backend trades byte-exact memory layout for a simpler
// slot-granular model: every address is a pointer to a *cell, and every
// aggregate (struct, array buffer, closure data) is a slice of *cell rather
// than a flat byte buffer. HeapAlloc's size argument is therefore read as an
// element count, not a byte count, when this backend is the target; that is
// a property of this backend alone, not of the backend.Builder contract.
package refbackend

import (
	"fmt"

	"github.com/stela-lang/stela/pkg/stela/backend"
)

// rtype is the concrete backend.Type every constructor in this package
// produces.
type rtype struct {
	kind    typeKind
	bits    int     // intType/floatType width
	signed  bool    // intType signedness
	elem    *rtype  // pointerType's pointee
	fields  []*rtype // structType's fields in order
	size    int     // opaqueType's declared size
	align   int     // opaqueType's declared align
	params  []*rtype // funcSigType's parameter types
	ret     *rtype  // funcSigType's return type
}

type typeKind int

const (
	kindVoid typeKind = iota
	kindInt
	kindFloat
	kindPointer
	kindStruct
	kindOpaque
	kindFuncSig
)

func (t *rtype) Size() int {
	switch t.kind {
	case kindVoid:
		return 0
	case kindInt:
		return (t.bits + 7) / 8
	case kindFloat:
		return (t.bits + 7) / 8
	case kindPointer, kindFuncSig:
		return 8
	case kindStruct:
		n := 0
		for _, f := range t.fields {
			n += f.Size()
		}
		return n
	case kindOpaque:
		return t.size
	}
	return 0
}

func (t *rtype) Align() int {
	switch t.kind {
	case kindOpaque:
		return t.align
	case kindStruct:
		a := 1
		for _, f := range t.fields {
			if fa := f.Align(); fa > a {
				a = fa
			}
		}
		return a
	default:
		// Scalars and pointers: naturally aligned to their own size, with a
		// floor of 1 for the zero-size void type.
		if s := t.Size(); s > 0 {
			return s
		}
		return 1
	}
}

func (t *rtype) String() string {
	switch t.kind {
	case kindVoid:
		return "void"
	case kindInt:
		if t.signed {
			return fmt.Sprintf("i%d", t.bits)
		}
		return fmt.Sprintf("u%d", t.bits)
	case kindFloat:
		return fmt.Sprintf("f%d", t.bits)
	case kindPointer:
		return t.elem.String() + "*"
	case kindStruct:
		s := "{"
		for i, f := range t.fields {
			if i > 0 {
				s += ","
			}
			s += f.String()
		}
		return s + "}"
	case kindOpaque:
		return fmt.Sprintf("opaque(%d,%d)", t.size, t.align)
	case kindFuncSig:
		s := "("
		for i, p := range t.params {
			if i > 0 {
				s += ","
			}
			s += p.String()
		}
		return s + ")->" + t.ret.String()
	}
	return "?"
}

// Elem returns a pointer type's pointee, or nil if t is not a pointer.
func (t *rtype) Elem() *rtype {
	if t.kind != kindPointer {
		return nil
	}
	return t.elem
}

func (m *module) VoidType() backend.Type { return &rtype{kind: kindVoid} }

func (m *module) IntType(bits int, signed bool) backend.Type {
	return &rtype{kind: kindInt, bits: bits, signed: signed}
}

func (m *module) FloatType(bits int) backend.Type {
	return &rtype{kind: kindFloat, bits: bits}
}

func (m *module) PointerType(elem backend.Type) backend.Type {
	return &rtype{kind: kindPointer, elem: asRtype(elem)}
}

func (m *module) StructType(fields []backend.Type) backend.Type {
	fs := make([]*rtype, len(fields))
	for i, f := range fields {
		fs[i] = asRtype(f)
	}
	return &rtype{kind: kindStruct, fields: fs}
}

func (m *module) OpaqueType(size, align int) backend.Type {
	return &rtype{kind: kindOpaque, size: size, align: align}
}

func (m *module) FuncSigType(params []backend.Type, ret backend.Type) backend.Type {
	ps := make([]*rtype, len(params))
	for i, p := range params {
		ps[i] = asRtype(p)
	}
	return &rtype{kind: kindFuncSig, params: ps, ret: asRtype(ret)}
}

// asRtype downcasts a backend.Type known to have been produced by this
// package back to *rtype; every Type this backend ever hands out is one of
// its own, so the assertion cannot fail for well-behaved callers.
func asRtype(t backend.Type) *rtype {
	rt, ok := t.(*rtype)
	if !ok {
		panic(fmt.Sprintf("refbackend: foreign Type %T used with this module", t))
	}
	return rt
}
