package codegen

import (
	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/backend"
)

// Array header field order, duplicated from (and must stay byte-identical
// to) lifetime/array.go's unexported headerRefcount/headerLen/headerCap/
// headerData constants — lifetime never exports its array-reading helpers,
// so subscript addressing reimplements the same null-header-aware length/
// data-pointer reads independently.
const (
	arrHeaderRefcount = 0
	arrHeaderLen      = 1
	arrHeaderCap      = 2
	arrHeaderData     = 3
)

// genArrayLen reads an array slot's length, branching around the header
// dereference since a null header (the empty array) has no length field —
// mirrors lifetime.Emitter.arrayLen's shape exactly (§4.5.3).
func (fg *funcGen) genArrayLen(arrAddr backend.Value, hdrPtrT backend.Type) backend.Value {
	i64T := fg.g.mod.IntType(64, true)
	hdr := fg.cur.Load(arrAddr)
	isNull := fg.cur.Cmp(backend.CmpEq, hdr, fg.cur.ConstNull(hdrPtrT))
	slot := fg.cur.Alloca(i64T)

	zeroB := fg.fn.NewBlock("len.zero")
	readB := fg.fn.NewBlock("len.read")
	doneB := fg.fn.NewBlock("len.done")
	fg.cur.CondBr(isNull, zeroB, readB)

	zeroB.Store(slot, zeroB.ConstInt(i64T, 0))
	zeroB.Br(doneB)
	readB.Store(slot, readB.Load(readB.FieldPtr(hdr, arrHeaderLen)))
	readB.Br(doneB)

	fg.cur = doneB
	return doneB.Load(slot)
}

// genArrayData reads an array slot's data pointer; only safe once the
// caller already knows the header is non-null.
func (fg *funcGen) genArrayData(arrAddr backend.Value) backend.Value {
	hdr := fg.cur.Load(arrAddr)
	return fg.cur.Load(fg.cur.FieldPtr(hdr, arrHeaderData))
}

// subscriptAddress lowers `object[index]`: a bounds-check diamond (§4.5.3,
// "the in-bounds branch is hinted as likely") trapping via Panic on a
// miss, yielding the in-bounds element's address on the likely path.
func (fg *funcGen) subscriptAddress(s *ast.Subscript) backend.Value {
	objType := underlying(s.Object.ResolvedType().Type)
	arr, ok := objType.(*ast.Array)
	if !ok {
		panic("codegen: subscript object is not an array")
	}
	hdrPtrT := fg.g.types.lower(s.Object.ResolvedType().Type)
	arrAddr := fg.genAddress(s.Object)

	i64T := fg.g.mod.IntType(64, true)
	idx := fg.genValue(s.Index)
	idx64 := fg.cur.Convert(idx, i64T)

	length := fg.genArrayLen(arrAddr, hdrPtrT)

	inRangeHigh := fg.cur.Cmp(backend.CmpLt, idx64, length)
	inBounds := inRangeHigh
	if idxKind, ok := underlying(s.Index.ResolvedType().Type).(*ast.Builtin); ok && idxKind.Kind == ast.Sint {
		nonNeg := fg.cur.Cmp(backend.CmpGtEq, idx64, fg.cur.ConstInt(i64T, 0))
		inBounds = fg.cur.BinOp(backend.And, nonNeg, inRangeHigh)
	}

	okB := fg.fn.NewBlock("subscript.ok")
	trapB := fg.fn.NewBlock("subscript.trap")
	fg.cur.CondBr(inBounds, okB, trapB)
	fg.cur.Likely(okB)

	trapB.Panic("Index out of bounds")

	elemT := fg.g.types.lower(arr.Elem)
	fg.cur = okB
	data := fg.genArrayData(arrAddr)
	dataTyped := okB.Convert(data, fg.g.mod.PointerType(elemT))
	return okB.ElemPtr(dataTyped, idx64)
}
