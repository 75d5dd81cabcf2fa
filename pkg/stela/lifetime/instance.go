package lifetime

import (
	"fmt"

	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/backend"
)

// returnsValue reports whether op's instantiated function returns a value
// (Eq/Lt/Bool) as opposed to void (every storage operation).
func returnsValue(op Operation) bool {
	return op == Eq || op == Lt || op == Bool
}

// arity is the number of typed operands op's instantiated function takes:
// one for a destructor/default-ctor/bool-conversion, two for every copy/
// move/assign/comparison.
func arity(op Operation) int {
	if op == Dtor || op == DefaultCtor || op == Bool {
		return 1
	}
	return 2
}

// instance returns the backend function implementing op for t, building and
// caching it on first request (§4.5.2: each (operation, type) pair is
// materialized at most once). t must classify as array, closure, or struct —
// builtins are inlined by ops.go and users dispatch through their own stored
// addresses, so neither ever reaches here.
func (e *Emitter) instance(op Operation, t ast.Type) backend.Function {
	key := op.String() + ":" + typeKey(t)
	if fn, ok := e.insts[key]; ok {
		return fn
	}

	ptr := e.mod.PointerType(backendType(t))
	params := make([]backend.Type, arity(op))
	for i := range params {
		params[i] = ptr
	}

	ret := e.voidT
	if returnsValue(op) {
		ret = e.mod.IntType(1, false)
	}

	fn := e.mod.DeclareFunction("lifetime."+typeKey(t)+"."+op.String(), params, ret, backend.Internal)
	// Cache before filling the body: two instances of the same (op, type)
	// can never recurse into each other through well-formed STELA types
	// (the type graph is acyclic), but registering early keeps a stray
	// self-reference from spinning forever instead of sharing the one
	// definition.
	e.insts[key] = fn

	entry := fn.NewBlock("entry")
	_, u := classify(t)

	switch u.(type) {
	case *ast.Array:
		e.buildArrayOp(fn, entry, op, u.(*ast.Array))
	case *ast.Func:
		e.buildClosureOp(fn, entry, op, u.(*ast.Func))
	case *ast.Struct:
		e.buildStructOp(fn, entry, op, u.(*ast.Struct))
	default:
		panic(fmt.Sprintf("lifetime: %T cannot be instantiated", u))
	}

	return fn
}
