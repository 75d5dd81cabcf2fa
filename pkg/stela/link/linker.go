// Package link implements STELA's module linker (§4.6): assembling the
// per-module backend IR the code generator writes into one shared
// backend.Module, rejecting duplicate externally-visible definitions, and
// handing the assembled module to the backend for verification. Grounded on
// pkg/asm/assembler/linker.go's Linker (a names map[string]bool guarding
// Register against re-declaration, plus an ordered component list).
package link

import (
	"github.com/stela-lang/stela/pkg/stela/backend"
	"github.com/stela-lang/stela/pkg/stela/diag"
)

// Linker tracks every externally-visible name claimed so far while the code
// generator declares functions and globals across modules. A flat backend
// module has one namespace, so two modules declaring the same `extern`
// symbol must collide here exactly as a genuine redefinition would (§8,
// "Compile func f(){} func f(){} ⇒ fatal redefinition").
type Linker struct {
	names map[string]bool
}

// NewLinker constructs an empty linker.
func NewLinker() *Linker {
	return &Linker{names: make(map[string]bool)}
}

// Declare claims name for one externally-visible definition, reporting false
// if it was already claimed by an earlier declaration.
func (l *Linker) Declare(name string) bool {
	if l.names[name] {
		return false
	}
	//
	l.names[name] = true
	//
	return true
}

// Link verifies the fully-populated module, reporting any verifier
// complaint to sink as a fatal diagnostic (§4.6, "any verifier complaint is
// a fatal internal error") and reporting whether the module is fit to hand
// to the backend for JIT.
func Link(mod backend.Module, sink diag.Sink) bool {
	recs := mod.Verify()
	//
	for _, r := range recs {
		sink.Emit(r)
	}
	//
	return len(recs) == 0
}
