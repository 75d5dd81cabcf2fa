package refbackend

import (
	"fmt"

	"github.com/stela-lang/stela/pkg/stela/backend"
	"github.com/stela-lang/stela/pkg/stela/diag"
)

// module is this backend's backend.Module.
type module struct {
	functions map[string]*function
	funcOrder []string
	globals   map[string]*cell
	globalTyp map[string]backend.Type
	ctors     []*function
	dtors     []*function
}

// New constructs an empty backend module, this package's one entry point
// into the backend.Module interface.
func New() backend.Module {
	return &module{
		functions: make(map[string]*function),
		globals:   make(map[string]*cell),
		globalTyp: make(map[string]backend.Type),
	}
}

func (m *module) DeclareFunction(name string, params []backend.Type, ret backend.Type, linkage backend.Linkage) backend.Function {
	if fn, ok := m.functions[name]; ok {
		return fn
	}
	fn := &function{mod: m, name: name, params: params, ret: ret, linkage: linkage}
	m.functions[name] = fn
	m.funcOrder = append(m.funcOrder, name)
	return fn
}

func (m *module) DeclareGlobal(name string, t backend.Type, linkage backend.Linkage) backend.Value {
	c, ok := m.globals[name]
	if !ok {
		c = &cell{val: zeroOf(asRtype(t))}
		m.globals[name] = c
		m.globalTyp[name] = t
	}
	pt := &rtype{kind: kindPointer, elem: asRtype(t)}
	return addrValue{typ: pt, c: c}
}

func (m *module) AppendGlobalCtor(fn backend.Function) {
	m.ctors = append(m.ctors, fn.(*function))
}

func (m *module) AppendGlobalDtor(fn backend.Function) {
	m.dtors = append(m.dtors, fn.(*function))
}

// Verify walks every defined function's blocks checking each ends in exactly
// one terminator and that every Br/CondBr target belongs to the same
// function — the structural minimum a real backend's verifier would also
// insist on before accepting a module for code generation (§4.6).
func (m *module) Verify() []diag.Record {
	var recs []diag.Record
	//
	fail := func(format string, args ...any) {
		recs = append(recs, diag.Record{
			Priority: diag.Fatal,
			Category: diag.Generate,
			Message:  fmt.Sprintf(format, args...),
		})
	}
	//
	for _, name := range m.funcOrder {
		fn := m.functions[name]
		if len(fn.blocks) == 0 {
			continue // external stub: no body to verify
		}
		//
		owned := make(map[*block]bool, len(fn.blocks))
		for _, b := range fn.blocks {
			owned[b] = true
		}
		//
		for _, b := range fn.blocks {
			if !b.terminated {
				fail("function %q: block %q has no terminator", fn.name, b.name)
				continue
			}
			//
			last := b.insns[len(b.insns)-1]
			switch last.op {
			case opBr:
				if !owned[last.then] {
					fail("function %q: block %q branches to a foreign block", fn.name, b.name)
				}
			case opCondBr:
				if !owned[last.then] || !owned[last.els] {
					fail("function %q: block %q conditionally branches to a foreign block", fn.name, b.name)
				}
			}
		}
	}
	//
	return recs
}

// zeroOf constructs the default-constructed runtime representation of t:
// a scalar zero for Builtin-lowered types, an all-zero aggregate otherwise.
func zeroOf(t *rtype) any {
	switch t.kind {
	case kindInt:
		return int64(0)
	case kindFloat:
		return float64(0)
	case kindPointer, kindFuncSig:
		return nil
	case kindStruct:
		cs := make([]*cell, len(t.fields))
		for i, f := range t.fields {
			cs[i] = &cell{val: zeroOf(f)}
		}
		return cs
	case kindOpaque:
		byteT := &rtype{kind: kindInt, bits: 8, signed: false}
		cs := make([]*cell, t.size)
		for i := range cs {
			cs[i] = &cell{val: zeroOf(byteT)}
		}
		return cs
	}
	return nil
}
