package refbackend

import (
	"fmt"

	"github.com/stela-lang/stela/pkg/stela/backend"
)

// frame is one function activation: its incoming arguments and the register
// file its instructions write into.
type frame struct {
	args []any
	regs map[int]any
}

// poison is the sentinel a freed cell's val is set to; any further Load or
// Store against it panics, surfacing use-after-free bugs in generated code
// instead of silently reading stale data.
type poison struct{}

var poisonVal = poison{}

// run executes fn against args, returning its result (empty for void).
func (m *module) run(fn *function, args []any) []any {
	if len(fn.blocks) == 0 {
		panic(fmt.Sprintf("stela: %q has no definition (external function called from the reference backend)", fn.name))
	}
	//
	fr := &frame{args: args, regs: make(map[int]any)}
	cur := fn.blocks[0]
	//
	for {
		var branch *block
		var ret []any
		retSet, branched := false, false
		//
		for _, in := range cur.insns {
			switch in.op {
			case opAlloca:
				fr.regs[in.result] = addrValue{typ: in.resultType, c: &cell{val: zeroOf(asRtype(in.allocType))}}
			case opLoad:
				ptr := m.eval(in.operands[0], fr).(addrValue)
				fr.regs[in.result] = readCell(ptr.c)
			case opStore:
				ptr := m.eval(in.operands[0], fr).(addrValue)
				v := m.eval(in.operands[1], fr)
				writeCell(ptr.c, v)
			case opBinOp:
				lhs := m.eval(in.operands[0], fr)
				rhs := m.eval(in.operands[1], fr)
				fr.regs[in.result] = evalBinOp(in.binOp, asRtype(in.operands[0].Type()), lhs, rhs)
			case opUnOp:
				v := m.eval(in.operands[0], fr)
				fr.regs[in.result] = evalUnOp(in.unOp, asRtype(in.operands[0].Type()), v)
			case opCmp:
				lhs := m.eval(in.operands[0], fr)
				rhs := m.eval(in.operands[1], fr)
				fr.regs[in.result] = evalCmp(in.cmpOp, asRtype(in.operands[0].Type()), lhs, rhs)
			case opConvert:
				v := m.eval(in.operands[0], fr)
				fr.regs[in.result] = convert(v, asRtype(in.resultType))
			case opFieldPtr:
				base := m.eval(in.operands[0], fr).(addrValue)
				cells := aggregateOf(base.c)
				fr.regs[in.result] = addrValue{typ: in.resultType, c: cells[in.fieldIndex]}
			case opElemPtr:
				base := m.eval(in.operands[0], fr).(addrValue)
				idx := toInt(m.eval(in.operands[1], fr))
				cells := aggregateOf(base.c)
				fr.regs[in.result] = addrValue{typ: in.resultType, c: cells[idx]}
			case opHeapAlloc:
				n := toInt(m.eval(in.operands[0], fr))
				byteT := &rtype{kind: kindInt, bits: 8, signed: false}
				cells := make([]*cell, n)
				for i := range cells {
					cells[i] = &cell{val: zeroOf(byteT)}
				}
				fr.regs[in.result] = addrValue{typ: in.resultType, c: &cell{val: cells}}
			case opHeapFree:
				ptr := m.eval(in.operands[0], fr).(addrValue)
				ptr.c.val = poisonVal
			case opCall:
				args := make([]any, len(in.operands))
				for i, o := range in.operands {
					args[i] = m.eval(o, fr)
				}
				//
				res := m.run(in.callee, args)
				if len(res) > 0 {
					fr.regs[in.result] = res[0]
				}
			case opCallIndirect:
				fnVal := m.eval(in.operands[0], fr)
				args := make([]any, len(in.operands)-1)
				for i, o := range in.operands[1:] {
					args[i] = m.eval(o, fr)
				}
				//
				res := m.callIndirect(fnVal, args)
				if len(res) > 0 {
					fr.regs[in.result] = res[0]
				}
			case opBr:
				branch, branched = in.then, true
			case opCondBr:
				cond := m.eval(in.operands[0], fr)
				if toBool(cond) {
					branch = in.then
				} else {
					branch = in.els
				}
				branched = true
			case opLikely:
				// Branch-weight hint only; has no runtime effect.
			case opRet:
				ret, retSet = []any{m.eval(in.operands[0], fr)}, true
			case opRetVoid:
				retSet = true
			case opUnreachable:
				panic("stela: reached unreachable code")
			case opPanic:
				panic("stela panic: " + in.panicMsg)
			}
		}
		//
		switch {
		case retSet:
			return ret
		case branched:
			cur = branch
		default:
			panic(fmt.Sprintf("stela: block %q in %q has no terminator", cur.name, fn.name))
		}
	}
}

func (m *module) callIndirect(fnVal any, args []any) []any {
	switch f := fnVal.(type) {
	case *function:
		return m.run(f, args)
	case *funcValue:
		if f.fn != nil {
			return m.run(f.fn, args)
		}
		panic("stela panic: called an uninitialized closure")
	default:
		panic(fmt.Sprintf("stela: indirect call through a non-function value %T", fnVal))
	}
}

func (m *module) eval(v backend.Value, fr *frame) any {
	switch t := v.(type) {
	case constValue:
		return t.lit
	case paramValue:
		return fr.args[t.index]
	case regValue:
		return fr.regs[t.id]
	case addrValue:
		return t
	case *funcValue:
		return t
	case *function:
		return t
	default:
		panic(fmt.Sprintf("stela: unrecognised operand value %T", v))
	}
}

func readCell(c *cell) any {
	if _, ok := c.val.(poison); ok {
		panic("stela panic: load through a freed pointer")
	}
	return c.val
}

func writeCell(c *cell, v any) {
	if _, ok := c.val.(poison); ok {
		panic("stela panic: store through a freed pointer")
	}
	c.val = deepClone(v)
}

func aggregateOf(c *cell) []*cell {
	if _, ok := c.val.(poison); ok {
		panic("stela panic: field/element access through a freed pointer")
	}
	//
	cells, ok := c.val.([]*cell)
	if !ok {
		panic("stela: field/element access on a non-aggregate value")
	}
	//
	return cells
}

// deepClone gives Store memcpy-like semantics for aggregates: the
// destination gets independent storage rather than aliasing the source's
// backing cells.
func deepClone(v any) any {
	cells, ok := v.([]*cell)
	if !ok {
		return v
	}
	//
	out := make([]*cell, len(cells))
	for i, c := range cells {
		out[i] = &cell{val: deepClone(c.val)}
	}
	//
	return out
}
