package lifetime

import (
	"fmt"

	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/backend"
)

// Array values are a pointer to a refcounted header allocated by the code
// generator's type-lowering pass as {refcount i64, len i64, cap i64, data
// *elem} (field order fixed by this package's headerRefcount/headerLen/
// headerCap/headerData constants); a nil header pointer is the empty array
// and needs no allocation at all. This package only ever reads the header
// through the Array type's own lowered backend.Type (backendType(t)),
// trusting codegen to have built it to that layout.
const (
	headerRefcount = 0
	headerLen      = 1
	headerCap      = 2
	headerData     = 3
)

func (e *Emitter) buildArrayOp(fn backend.Function, entry backend.BasicBlock, op Operation, a *ast.Array) {
	hdrPtrT := backendType(a)
	switch op {
	case DefaultCtor:
		entry.Store(fn.Param(0), entry.ConstNull(hdrPtrT))
		entry.RetVoid()
	case CopyCtor:
		e.buildArrayCopyCtor(fn, entry, hdrPtrT)
	case MoveCtor:
		e.buildArrayMoveCtor(fn, entry)
	case CopyAssign:
		dst, src := fn.Param(0), fn.Param(1)
		entry.Call(e.instance(Dtor, a), []backend.Value{dst})
		entry.Call(e.instance(CopyCtor, a), []backend.Value{dst, src})
		entry.RetVoid()
	case MoveAssign:
		dst, src := fn.Param(0), fn.Param(1)
		entry.Call(e.instance(Dtor, a), []backend.Value{dst})
		entry.Call(e.instance(MoveCtor, a), []backend.Value{dst, src})
		entry.RetVoid()
	case Dtor:
		e.buildArrayDtor(fn, entry, a, hdrPtrT)
	case Eq:
		e.buildArrayEq(fn, entry, a, hdrPtrT)
	case Lt:
		e.buildArrayLt(fn, entry, a, hdrPtrT)
	default:
		panic(fmt.Sprintf("lifetime: array types have no %v operation", op))
	}
}

func (e *Emitter) buildArrayCopyCtor(fn backend.Function, entry backend.BasicBlock, hdrPtrT backend.Type) {
	i64T := e.mod.IntType(64, true)
	dst, src := fn.Param(0), fn.Param(1)

	nullB := fn.NewBlock("arraycopy.null")
	incB := fn.NewBlock("arraycopy.inc")
	doneB := fn.NewBlock("arraycopy.done")

	hdr := entry.Load(src)
	isNull := entry.Cmp(backend.CmpEq, hdr, entry.ConstNull(hdrPtrT))
	entry.CondBr(isNull, nullB, incB)

	nullB.Store(dst, hdr)
	nullB.Br(doneB)

	rc := incB.FieldPtr(hdr, headerRefcount)
	old := incB.Load(rc)
	incB.Store(rc, incB.BinOp(backend.Add, old, incB.ConstInt(i64T, 1)))
	incB.Store(dst, hdr)
	incB.Br(doneB)

	doneB.RetVoid()
}

func (e *Emitter) buildArrayMoveCtor(fn backend.Function, entry backend.BasicBlock) {
	dst, src := fn.Param(0), fn.Param(1)
	hdr := entry.Load(src)
	entry.Store(dst, hdr)
	entry.Store(src, entry.ConstNull(hdr.Type()))
	entry.RetVoid()
}

// buildArrayDtor decrements the header's refcount, and on reaching zero
// destroys every element before freeing the data buffer and the header
// itself.
func (e *Emitter) buildArrayDtor(fn backend.Function, entry backend.BasicBlock, a *ast.Array, hdrPtrT backend.Type) {
	i64T := e.mod.IntType(64, true)
	dst := fn.Param(0)

	decB := fn.NewBlock("dtor.dec")
	freeB := fn.NewBlock("dtor.free")
	loopHead := fn.NewBlock("dtor.loop.head")
	loopBody := fn.NewBlock("dtor.loop.body")
	loopEnd := fn.NewBlock("dtor.loop.end")
	doneB := fn.NewBlock("dtor.done")

	hdr := entry.Load(dst)
	isNull := entry.Cmp(backend.CmpEq, hdr, entry.ConstNull(hdrPtrT))
	entry.CondBr(isNull, doneB, decB)

	rc := decB.FieldPtr(hdr, headerRefcount)
	newRc := decB.BinOp(backend.Sub, decB.Load(rc), decB.ConstInt(i64T, 1))
	decB.Store(rc, newRc)
	isZero := decB.Cmp(backend.CmpEq, newRc, decB.ConstInt(i64T, 0))
	decB.CondBr(isZero, freeB, doneB)

	lenPtr := freeB.FieldPtr(hdr, headerLen)
	dataPtrPtr := freeB.FieldPtr(hdr, headerData)
	length := freeB.Load(lenPtr)
	dataPtr := freeB.Load(dataPtrPtr)
	idxSlot := freeB.Alloca(i64T)
	freeB.Store(idxSlot, freeB.ConstInt(i64T, 0))
	freeB.Br(loopHead)

	idx := loopHead.Load(idxSlot)
	more := loopHead.Cmp(backend.CmpLt, idx, length)
	loopHead.CondBr(more, loopBody, loopEnd)
	loopHead.Likely(loopBody)

	elemAddr := loopBody.ElemPtr(dataPtr, idx)
	e.Destroy(loopBody, a.Elem, elemAddr)
	loopBody.Store(idxSlot, loopBody.BinOp(backend.Add, idx, loopBody.ConstInt(i64T, 1)))
	loopBody.Br(loopHead)

	loopEnd.HeapFree(dataPtr)
	loopEnd.HeapFree(hdr)
	loopEnd.Br(doneB)

	doneB.RetVoid()
}

func (e *Emitter) buildArrayEq(fn backend.Function, entry backend.BasicBlock, a *ast.Array, hdrPtrT backend.Type) {
	i64T := e.mod.IntType(64, true)
	boolT := e.mod.IntType(1, false)
	lhs, rhs := fn.Param(0), fn.Param(1)

	trueB := fn.NewBlock("arrayeq.true")
	falseB := fn.NewBlock("arrayeq.false")
	loopHead := fn.NewBlock("arrayeq.loop.head")
	loopBody := fn.NewBlock("arrayeq.loop.body")

	lLen, cur := e.arrayLen(fn, entry, lhs, hdrPtrT, i64T)
	rLen, cur := e.arrayLen(fn, cur, rhs, hdrPtrT, i64T)
	sameLen := cur.Cmp(backend.CmpEq, lLen, rLen)
	idxSlot := cur.Alloca(i64T)
	cur.Store(idxSlot, cur.ConstInt(i64T, 0))
	cur.CondBr(sameLen, loopHead, falseB)

	idx := loopHead.Load(idxSlot)
	more := loopHead.Cmp(backend.CmpLt, idx, lLen)
	loopHead.CondBr(more, loopBody, trueB)
	loopHead.Likely(loopBody)

	lData, rData := e.arrayData(loopBody, lhs, hdrPtrT), e.arrayData(loopBody, rhs, hdrPtrT)
	eqv := e.EqOp(loopBody, a.Elem, loopBody.ElemPtr(lData, idx), loopBody.ElemPtr(rData, idx))
	next := fn.NewBlock("arrayeq.next")
	loopBody.CondBr(eqv, next, falseB)
	next.Store(idxSlot, next.BinOp(backend.Add, idx, next.ConstInt(i64T, 1)))
	next.Br(loopHead)

	trueB.Ret(trueB.ConstInt(boolT, 1))
	falseB.Ret(falseB.ConstInt(boolT, 0))
}

// buildArrayLt compares elementwise up to the shorter length; the first
// differing element decides, and if one array is a strict prefix of the
// other the shorter one is less.
func (e *Emitter) buildArrayLt(fn backend.Function, entry backend.BasicBlock, a *ast.Array, hdrPtrT backend.Type) {
	i64T := e.mod.IntType(64, true)
	boolT := e.mod.IntType(1, false)
	lhs, rhs := fn.Param(0), fn.Param(1)

	trueB := fn.NewBlock("arraylt.true")
	falseB := fn.NewBlock("arraylt.false")
	loopHead := fn.NewBlock("arraylt.loop.head")
	loopBody := fn.NewBlock("arraylt.loop.body")
	tieB := fn.NewBlock("arraylt.tie")

	lLen, cur := e.arrayLen(fn, entry, lhs, hdrPtrT, i64T)
	rLen, cur := e.arrayLen(fn, cur, rhs, hdrPtrT, i64T)
	minLen := cur.Alloca(i64T)
	idxSlot := cur.Alloca(i64T)
	cur.Store(idxSlot, cur.ConstInt(i64T, 0))
	lSmaller := cur.Cmp(backend.CmpLt, lLen, rLen)
	pickL := fn.NewBlock("arraylt.minl")
	pickR := fn.NewBlock("arraylt.minr")
	cur.CondBr(lSmaller, pickL, pickR)
	pickL.Store(minLen, lLen)
	pickL.Br(loopHead)
	pickR.Store(minLen, rLen)
	pickR.Br(loopHead)

	idx := loopHead.Load(idxSlot)
	bound := loopHead.Load(minLen)
	more := loopHead.Cmp(backend.CmpLt, idx, bound)
	loopHead.CondBr(more, loopBody, tieB)
	loopHead.Likely(loopBody)

	lData, rData := e.arrayData(loopBody, lhs, hdrPtrT), e.arrayData(loopBody, rhs, hdrPtrT)
	lp, rp := loopBody.ElemPtr(lData, idx), loopBody.ElemPtr(rData, idx)
	ltLR := e.LtOp(loopBody, a.Elem, lp, rp)
	gtCheck := fn.NewBlock("arraylt.gt")
	loopBody.CondBr(ltLR, trueB, gtCheck)

	ltRL := e.LtOp(gtCheck, a.Elem, rp, lp)
	next := fn.NewBlock("arraylt.next")
	gtCheck.CondBr(ltRL, falseB, next)
	next.Store(idxSlot, next.BinOp(backend.Add, idx, next.ConstInt(i64T, 1)))
	next.Br(loopHead)

	// Equal up to the shorter length: the shorter array is less.
	tieB.Ret(tieB.Cmp(backend.CmpLt, lLen, rLen))
	trueB.Ret(trueB.ConstInt(boolT, 1))
	falseB.Ret(falseB.ConstInt(boolT, 0))
}

// arrayLen reads an array value's length, branching around the header
// dereference since a null header (the empty array) has no length field to
// read and must report 0 instead. fn is the function being built, so this
// can append the blocks the branch needs. The caller's own block ends here;
// it must keep building from the returned block.
func (e *Emitter) arrayLen(fn backend.Function, cur backend.BasicBlock, arr backend.Value, hdrPtrT, i64T backend.Type) (backend.Value, backend.BasicBlock) {
	hdr := cur.Load(arr)
	isNull := cur.Cmp(backend.CmpEq, hdr, cur.ConstNull(hdrPtrT))
	slot := cur.Alloca(i64T)

	zeroB := fn.NewBlock("len.zero")
	readB := fn.NewBlock("len.read")
	doneB := fn.NewBlock("len.done")
	cur.CondBr(isNull, zeroB, readB)

	zeroB.Store(slot, zeroB.ConstInt(i64T, 0))
	zeroB.Br(doneB)
	readB.Store(slot, readB.Load(readB.FieldPtr(hdr, headerLen)))
	readB.Br(doneB)

	return doneB.Load(slot), doneB
}

// arrayData reads an array value's data pointer. Only safe once the caller
// already knows the header is non-null (e.g. inside a loop body gated on
// index < length, since a null header's length is always 0).
func (e *Emitter) arrayData(b backend.Builder, arr backend.Value, hdrPtrT backend.Type) backend.Value {
	hdr := b.Load(arr)
	return b.Load(b.FieldPtr(hdr, headerData))
}
