package refbackend

import "github.com/stela-lang/stela/pkg/stela/backend"

// function is this backend's backend.Function: a name, a parameter/return
// signature, and the basic blocks making up its body (empty for an external
// stub).
type function struct {
	mod     *module
	name    string
	params  []backend.Type
	ret     backend.Type
	linkage backend.Linkage
	blocks  []*block
	nextReg int
}

func (f *function) Type() backend.Type {
	return &rtype{kind: kindFuncSig, params: rtypes(f.params), ret: asRtype(f.ret)}
}

func rtypes(ts []backend.Type) []*rtype {
	out := make([]*rtype, len(ts))
	for i, t := range ts {
		out[i] = asRtype(t)
	}
	return out
}

func (f *function) Name() string { return f.name }

func (f *function) Param(i int) backend.Value {
	return paramValue{typ: f.params[i], index: i}
}

func (f *function) NewBlock(label string) backend.BasicBlock {
	b := &block{fn: f, name: label}
	f.blocks = append(f.blocks, b)
	return b
}

func (f *function) Entry() backend.BasicBlock {
	if len(f.blocks) == 0 {
		return nil
	}
	return f.blocks[0]
}

func (f *function) allocReg() int {
	id := f.nextReg
	f.nextReg++
	return id
}

// block is this backend's backend.BasicBlock: a straight-line instruction
// list, itself the Builder instructions are appended through.
type block struct {
	fn         *function
	name       string
	insns      []*instruction
	terminated bool
}

func (b *block) Name() string      { return b.name }
func (b *block) Terminated() bool  { return b.terminated }

func (b *block) emit(in *instruction) {
	b.insns = append(b.insns, in)
}

func (b *block) newReg() int {
	return b.fn.allocReg()
}
