package lifetime

import (
	"fmt"

	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/backend"
)

// A closure value is the two-word struct {fn, env} codegen's type-lowering
// pass must build as backendType(funcType): field 0 is a bare function
// pointer of the closure's call signature, field 1 is *envHeader. This
// package owns envHeader's shape entirely (it is never named in source, so
// no external contract constrains it): {refcount i64, dtor: (ptr)->void}.
// The dtor, when present, is called with the env pointer itself as its sole
// argument — the specific lambda's generated destructor (built by codegen,
// not this package, one per capture site) knows how to reinterpret that
// pointer to reach the fields it captured.
const (
	closureFieldFn  = 0
	closureFieldEnv = 1

	envFieldRefcount = 0
	envFieldDtor     = 1
)

func (e *Emitter) ClosureFnSigType(f *ast.Func) backend.Type {
	params := make([]backend.Type, len(f.Params))
	for i, p := range f.Params {
		pt := backendType(p.Type)
		if p.ByReference {
			pt = e.mod.PointerType(pt)
		}
		params[i] = pt
	}
	return e.mod.FuncSigType(params, backendType(f.Ret))
}

func (e *Emitter) EnvDtorSigType() backend.Type {
	return e.mod.FuncSigType([]backend.Type{e.mod.PointerType(e.voidT)}, e.voidT)
}

func (e *Emitter) EnvHeaderPtrType() backend.Type {
	hdr := e.mod.StructType([]backend.Type{e.mod.IntType(64, true), e.EnvDtorSigType()})
	return e.mod.PointerType(hdr)
}

func (e *Emitter) buildClosureOp(fn backend.Function, entry backend.BasicBlock, op Operation, f *ast.Func) {
	switch op {
	case DefaultCtor:
		e.buildClosureDefaultCtor(fn, entry, f)
	case CopyCtor:
		e.buildClosureCopyCtor(fn, entry, f)
	case MoveCtor:
		e.buildClosureMoveCtor(fn, entry, f)
	case CopyAssign:
		dst, src := fn.Param(0), fn.Param(1)
		entry.Call(e.instance(Dtor, f), []backend.Value{dst})
		entry.Call(e.instance(CopyCtor, f), []backend.Value{dst, src})
		entry.RetVoid()
	case MoveAssign:
		dst, src := fn.Param(0), fn.Param(1)
		entry.Call(e.instance(Dtor, f), []backend.Value{dst})
		entry.Call(e.instance(MoveCtor, f), []backend.Value{dst, src})
		entry.RetVoid()
	case Dtor:
		e.buildClosureDtor(fn, entry, f)
	case Eq:
		e.buildClosureEq(fn, entry, f)
	case Bool:
		e.buildClosureBool(fn, entry, f)
	default:
		// Closures have no intrinsic order (§4.4.1 never lists `<` among their
		// supported operators); sema is relied upon to reject it before code
		// generation ever asks for this instance.
		panic(fmt.Sprintf("lifetime: closure types have no %v operation", op))
	}
}

func (e *Emitter) buildClosureDefaultCtor(fn backend.Function, entry backend.BasicBlock, f *ast.Func) {
	dst := fn.Param(0)
	fnSigT := e.ClosureFnSigType(f)
	entry.Store(entry.FieldPtr(dst, closureFieldFn), entry.ConstNull(fnSigT))
	entry.Store(entry.FieldPtr(dst, closureFieldEnv), entry.ConstNull(e.EnvHeaderPtrType()))
	entry.RetVoid()
}

func (e *Emitter) buildClosureCopyCtor(fn backend.Function, entry backend.BasicBlock, f *ast.Func) {
	i64T := e.mod.IntType(64, true)
	envPtrT := e.EnvHeaderPtrType()
	dst, src := fn.Param(0), fn.Param(1)

	nullB := fn.NewBlock("closurecopy.null")
	incB := fn.NewBlock("closurecopy.inc")
	doneB := fn.NewBlock("closurecopy.done")

	fnVal := entry.Load(entry.FieldPtr(src, closureFieldFn))
	entry.Store(entry.FieldPtr(dst, closureFieldFn), fnVal)

	env := entry.Load(entry.FieldPtr(src, closureFieldEnv))
	isNull := entry.Cmp(backend.CmpEq, env, entry.ConstNull(envPtrT))
	entry.CondBr(isNull, nullB, incB)

	nullB.Store(nullB.FieldPtr(dst, closureFieldEnv), env)
	nullB.Br(doneB)

	rc := incB.FieldPtr(env, envFieldRefcount)
	incB.Store(rc, incB.BinOp(backend.Add, incB.Load(rc), incB.ConstInt(i64T, 1)))
	incB.Store(incB.FieldPtr(dst, closureFieldEnv), env)
	incB.Br(doneB)

	doneB.RetVoid()
}

func (e *Emitter) buildClosureMoveCtor(fn backend.Function, entry backend.BasicBlock, f *ast.Func) {
	fnSigT := e.ClosureFnSigType(f)
	envPtrT := e.EnvHeaderPtrType()
	dst, src := fn.Param(0), fn.Param(1)

	fnVal := entry.Load(entry.FieldPtr(src, closureFieldFn))
	entry.Store(entry.FieldPtr(dst, closureFieldFn), fnVal)
	env := entry.Load(entry.FieldPtr(src, closureFieldEnv))
	entry.Store(entry.FieldPtr(dst, closureFieldEnv), env)

	entry.Store(entry.FieldPtr(src, closureFieldFn), entry.ConstNull(fnSigT))
	entry.Store(entry.FieldPtr(src, closureFieldEnv), entry.ConstNull(envPtrT))
	entry.RetVoid()
}

// buildClosureDtor releases the env header's refcount, and on reaching zero
// invokes its stored destructor (if any captured state needs releasing)
// before freeing the header itself.
func (e *Emitter) buildClosureDtor(fn backend.Function, entry backend.BasicBlock, f *ast.Func) {
	i64T := e.mod.IntType(64, true)
	envPtrT := e.EnvHeaderPtrType()
	dtorSigT := e.EnvDtorSigType()
	dst := fn.Param(0)

	decB := fn.NewBlock("closuredtor.dec")
	freeB := fn.NewBlock("closuredtor.free")
	callB := fn.NewBlock("closuredtor.call")
	reapB := fn.NewBlock("closuredtor.reap")
	doneB := fn.NewBlock("closuredtor.done")

	env := entry.Load(entry.FieldPtr(dst, closureFieldEnv))
	isNull := entry.Cmp(backend.CmpEq, env, entry.ConstNull(envPtrT))
	entry.CondBr(isNull, doneB, decB)

	rc := decB.FieldPtr(env, envFieldRefcount)
	newRc := decB.BinOp(backend.Sub, decB.Load(rc), decB.ConstInt(i64T, 1))
	decB.Store(rc, newRc)
	isZero := decB.Cmp(backend.CmpEq, newRc, decB.ConstInt(i64T, 0))
	decB.CondBr(isZero, freeB, doneB)

	dtorPtr := freeB.Load(freeB.FieldPtr(env, envFieldDtor))
	dtorIsNull := freeB.Cmp(backend.CmpEq, dtorPtr, freeB.ConstNull(dtorSigT))
	freeB.CondBr(dtorIsNull, reapB, callB)

	callB.CallIndirect(dtorPtr, dtorSigT, []backend.Value{env})
	callB.Br(reapB)

	reapB.HeapFree(env)
	reapB.Br(doneB)

	doneB.RetVoid()
}

// buildClosureEq compares closures by identity (same function, same
// captured environment) rather than by deep value — the simplest rule that
// doesn't require reasoning about a closure's opaque captured state from
// outside its generated code.
func (e *Emitter) buildClosureEq(fn backend.Function, entry backend.BasicBlock, f *ast.Func) {
	lhs, rhs := fn.Param(0), fn.Param(1)
	fnEq := entry.Cmp(backend.CmpEq,
		entry.Load(entry.FieldPtr(lhs, closureFieldFn)), entry.Load(entry.FieldPtr(rhs, closureFieldFn)))
	envEq := entry.Cmp(backend.CmpEq,
		entry.Load(entry.FieldPtr(lhs, closureFieldEnv)), entry.Load(entry.FieldPtr(rhs, closureFieldEnv)))
	entry.Ret(entry.BinOp(backend.And, fnEq, envEq))
}

// buildClosureBool implements §4.5.2's truthiness rule for closures: false
// only for a default-constructed (uninitialized) closure.
func (e *Emitter) buildClosureBool(fn backend.Function, entry backend.BasicBlock, f *ast.Func) {
	fnSigT := e.ClosureFnSigType(f)
	v := fn.Param(0)
	fnVal := entry.Load(entry.FieldPtr(v, closureFieldFn))
	entry.Ret(entry.Cmp(backend.CmpNeq, fnVal, entry.ConstNull(fnSigT)))
}
