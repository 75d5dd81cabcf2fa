package refbackend

import (
	"github.com/stela-lang/stela/pkg/stela/backend"
	"github.com/stela-lang/stela/pkg/stela/diag"
)

// engine is this backend's backend.ExecutionEngine: a verified module ready
// to have its functions invoked by name.
type engine struct {
	mod *module
}

// JIT verifies m, runs its registered global constructors in append order,
// and returns an engine exposing every external function by name (§4.6,
// §6's "jit(module, sink) → ExecutionEngine"). It returns ok=false without
// an engine if verification fails; verifier complaints are sent to sink as
// fatal diagnostics.
func JIT(b backend.Module, sink diag.Sink) (backend.ExecutionEngine, bool) {
	m, ok := b.(*module)
	if !ok {
		sink.Emit(diag.Record{Priority: diag.Fatal, Category: diag.Generate, Message: "JIT: module was not produced by refbackend"})
		return nil, false
	}
	//
	if recs := m.Verify(); len(recs) > 0 {
		for _, r := range recs {
			sink.Emit(r)
		}
		return nil, false
	}
	//
	for _, ctor := range m.ctors {
		m.run(ctor, nil)
	}
	//
	return &engine{mod: m}, true
}

// AddressOf implements backend.ExecutionEngine.
func (e *engine) AddressOf(name string) (func(args []any) []any, bool) {
	fn, ok := e.mod.functions[name]
	if !ok || fn.linkage != backend.External {
		return nil, false
	}
	//
	return func(args []any) []any {
		return e.mod.run(fn, args)
	}, true
}

// Shutdown runs every registered global destructor in append order, the
// counterpart to JIT's constructor pass (§4.6). It is not part of the
// backend.ExecutionEngine interface since nothing describes the host
// unloading a module mid-process; callers that embed a long-lived engine
// (e.g. the driver's test harness) may call it explicitly at teardown.
func (e *engine) Shutdown() {
	for _, dtor := range e.mod.dtors {
		e.mod.run(dtor, nil)
	}
}
