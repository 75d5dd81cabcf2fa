package refbackend

import "github.com/stela-lang/stela/pkg/stela/backend"

// cell is a single mutable storage location: the unit every address in this
// backend points to. A scalar cell's val is an int64 (bools as 0/1) or a
// float64; an
// aggregate cell's (struct, array buffer, closure data) val is a []*cell,
// one per field/element/slot.
type cell struct {
	val any
}

// addrValue is the Value every address-producing instruction (Alloca,
// HeapAlloc, FieldPtr, ElemPtr, DeclareGlobal) evaluates to at run time.
type addrValue struct {
	typ backend.Type // always a pointer type
	c   *cell
}

func (a addrValue) Type() backend.Type { return a.typ }

// constValue is a literal int/float operand baked into the instruction
// stream at build time.
type constValue struct {
	typ backend.Type
	lit any // int64 or float64
}

func (c constValue) Type() backend.Type { return c.typ }

// paramValue names one of a function's incoming arguments.
type paramValue struct {
	typ   backend.Type
	index int
}

func (p paramValue) Type() backend.Type { return p.typ }

// regValue names the result register of a prior instruction within the same
// function, resolved against the executing call frame's register file.
type regValue struct {
	typ backend.Type
	id  int
}

func (r regValue) Type() backend.Type { return r.typ }

// funcValue is the Value a *function itself presents as (so a function can
// be passed around as a bare function-pointer operand, e.g. into a
// closure's function slot) and the Value ConstNull produces for a
// function-signature type, standing in for the "trapping stub" default
// closures point at.
type funcValue struct {
	typ  backend.Type
	fn   *function // nil for the null/trap sentinel
}

func (f *funcValue) Type() backend.Type { return f.typ }
