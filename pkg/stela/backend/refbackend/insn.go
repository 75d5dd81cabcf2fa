package refbackend

import "github.com/stela-lang/stela/pkg/stela/backend"

type opcode int

const (
	// ConstInt/ConstFloat/ConstNull never reach the instruction stream: they
	// evaluate to a constValue/addrValue directly at build time, since they
	// have no side effect to sequence.
	opAlloca opcode = iota
	opLoad
	opStore
	opBinOp
	opUnOp
	opCmp
	opConvert
	opFieldPtr
	opElemPtr
	opHeapAlloc
	opHeapFree
	opCall
	opCallIndirect
	opBr
	opCondBr
	opLikely
	opRet
	opRetVoid
	opUnreachable
	opPanic
)

// instruction is this backend's one instruction representation: a tagged
// union over every Builder operation, keyed by op. Unused fields for a given
// op are simply left zero.
type instruction struct {
	op         opcode
	result     int
	resultType backend.Type

	operands []backend.Value

	binOp backend.BinOp
	unOp  backend.UnOp
	cmpOp backend.CmpOp

	allocType  backend.Type
	fieldIndex int

	callee   *function
	callSig  backend.Type

	then, els *block
	panicMsg  string
}

func (b *block) ConstInt(t backend.Type, v int64) backend.Value {
	return constValue{typ: t, lit: v}
}

func (b *block) ConstFloat(t backend.Type, v float64) backend.Value {
	return constValue{typ: t, lit: v}
}

func (b *block) ConstNull(t backend.Type) backend.Value {
	rt := asRtype(t)
	if rt.kind == kindFuncSig {
		return &funcValue{typ: t, fn: nil}
	}
	return addrValue{typ: t, c: nil}
}

func (b *block) Alloca(t backend.Type) backend.Value {
	id := b.newReg()
	pt := &rtype{kind: kindPointer, elem: asRtype(t)}
	b.emit(&instruction{op: opAlloca, result: id, resultType: pt, allocType: t})
	return regValue{typ: pt, id: id}
}

func (b *block) Load(ptr backend.Value) backend.Value {
	elem := asRtype(ptr.Type()).Elem()
	id := b.newReg()
	b.emit(&instruction{op: opLoad, result: id, resultType: elem, operands: []backend.Value{ptr}})
	return regValue{typ: elem, id: id}
}

func (b *block) Store(ptr, v backend.Value) {
	b.emit(&instruction{op: opStore, result: -1, operands: []backend.Value{ptr, v}})
}

func (b *block) BinOp(op backend.BinOp, lhs, rhs backend.Value) backend.Value {
	id := b.newReg()
	t := lhs.Type()
	b.emit(&instruction{op: opBinOp, result: id, resultType: t, binOp: op, operands: []backend.Value{lhs, rhs}})
	return regValue{typ: t, id: id}
}

func (b *block) UnOp(op backend.UnOp, v backend.Value) backend.Value {
	id := b.newReg()
	t := v.Type()
	b.emit(&instruction{op: opUnOp, result: id, resultType: t, unOp: op, operands: []backend.Value{v}})
	return regValue{typ: t, id: id}
}

func (b *block) Cmp(op backend.CmpOp, lhs, rhs backend.Value) backend.Value {
	id := b.newReg()
	bt := &rtype{kind: kindInt, bits: 1, signed: false}
	b.emit(&instruction{op: opCmp, result: id, resultType: bt, cmpOp: op, operands: []backend.Value{lhs, rhs}})
	return regValue{typ: bt, id: id}
}

func (b *block) Convert(v backend.Value, to backend.Type) backend.Value {
	id := b.newReg()
	b.emit(&instruction{op: opConvert, result: id, resultType: to, operands: []backend.Value{v}})
	return regValue{typ: to, id: id}
}

func (b *block) FieldPtr(base backend.Value, index int) backend.Value {
	fields := asRtype(base.Type()).Elem().fields
	pt := &rtype{kind: kindPointer, elem: fields[index]}
	id := b.newReg()
	b.emit(&instruction{op: opFieldPtr, result: id, resultType: pt, fieldIndex: index, operands: []backend.Value{base}})
	return regValue{typ: pt, id: id}
}

func (b *block) ElemPtr(base, index backend.Value) backend.Value {
	elem := asRtype(base.Type()).Elem()
	pt := &rtype{kind: kindPointer, elem: elem}
	id := b.newReg()
	b.emit(&instruction{op: opElemPtr, result: id, resultType: pt, operands: []backend.Value{base, index}})
	return regValue{typ: pt, id: id}
}

func (b *block) HeapAlloc(n backend.Value) backend.Value {
	byteT := &rtype{kind: kindInt, bits: 8, signed: false}
	pt := &rtype{kind: kindPointer, elem: byteT}
	id := b.newReg()
	b.emit(&instruction{op: opHeapAlloc, result: id, resultType: pt, operands: []backend.Value{n}})
	return regValue{typ: pt, id: id}
}

func (b *block) HeapFree(ptr backend.Value) {
	b.emit(&instruction{op: opHeapFree, result: -1, operands: []backend.Value{ptr}})
}

func (b *block) Call(fn backend.Function, args []backend.Value) backend.Value {
	f := fn.(*function)
	id := b.newReg()
	b.emit(&instruction{op: opCall, result: id, resultType: f.ret, callee: f, operands: args})
	if asRtype(f.ret).kind == kindVoid {
		return nil
	}
	return regValue{typ: f.ret, id: id}
}

func (b *block) CallIndirect(fnPtr backend.Value, sig backend.Type, args []backend.Value) backend.Value {
	ret := asRtype(sig).ret
	id := b.newReg()
	ops := append([]backend.Value{fnPtr}, args...)
	b.emit(&instruction{op: opCallIndirect, result: id, resultType: ret, callSig: sig, operands: ops})
	if ret.kind == kindVoid {
		return nil
	}
	return regValue{typ: ret, id: id}
}

func (b *block) Br(target backend.BasicBlock) {
	b.emit(&instruction{op: opBr, result: -1, then: target.(*block)})
	b.terminated = true
}

func (b *block) CondBr(cond backend.Value, then, els backend.BasicBlock) {
	b.emit(&instruction{op: opCondBr, result: -1, operands: []backend.Value{cond}, then: then.(*block), els: els.(*block)})
	b.terminated = true
}

func (b *block) Likely(target backend.BasicBlock) {
	b.emit(&instruction{op: opLikely, result: -1, then: target.(*block)})
}

func (b *block) Ret(v backend.Value) {
	b.emit(&instruction{op: opRet, result: -1, operands: []backend.Value{v}})
	b.terminated = true
}

func (b *block) RetVoid() {
	b.emit(&instruction{op: opRetVoid, result: -1})
	b.terminated = true
}

func (b *block) Unreachable() {
	b.emit(&instruction{op: opUnreachable, result: -1})
	b.terminated = true
}

func (b *block) Panic(msg string) {
	b.emit(&instruction{op: opPanic, result: -1, panicMsg: msg})
	b.terminated = true
}
