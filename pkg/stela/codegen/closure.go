package codegen

import (
	"fmt"

	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/backend"
)

// captureStructType builds the backend shape of lb's own capture struct:
// {refcount i64, dtor fn-ptr, capture0, capture1, ...} — the first two
// fields match lifetime.Emitter.EnvHeaderPtrType()'s struct exactly, so a
// Convert to the generic env-header pointer type sees the same prefix
// lifetime's closure destructor logic reads.
func (g *Generator) captureStructType(lb *ast.LambdaBinding) backend.Type {
	fields := []backend.Type{g.mod.IntType(64, true), g.lt.EnvDtorSigType()}
	for _, c := range lb.Captures {
		fields = append(fields, g.types.lower(c.Type))
	}
	return g.mod.StructType(fields)
}

// getOrDefineLambda declares (once, memoized in g.funcs by the literal's
// own SymbolId) and generates the backend function for a lambda literal:
// declared params plus one hidden trailing env-pointer parameter, always
// typed as the generic env-header pointer (the prologue converts it to
// the specific capture-struct shape it needs).
func (g *Generator) getOrDefineLambda(lit *ast.LambdaLit, lb *ast.LambdaBinding) backend.Function {
	if fn, ok := g.funcs[lit.Binding]; ok {
		return fn
	}

	params := make([]backend.Type, 0, len(lit.Params)+1)
	for _, p := range lit.Params {
		t := g.types.lower(p.Type)
		if p.ByReference {
			t = g.mod.PointerType(t)
		}
		params = append(params, t)
	}
	params = append(params, g.lt.EnvHeaderPtrType())
	ret := g.types.lower(lit.Ret)

	name := fmt.Sprintf("lambda.%d", lit.Binding)
	fn := g.mod.DeclareFunction(name, params, ret, backend.Internal)
	g.funcs[lit.Binding] = fn

	g.defineLambdaBody(lit, lb, fn)
	return fn
}

// defineLambdaBody lowers a lambda's body in its own funcGen: declared
// parameters bind exactly as a top-level function's do (decl.go's
// bindParam), then every capture is bound into locals by reinterpreting
// the trailing env parameter as this lambda's own capture-struct pointer
// — after which genAddress(Ident...) resolves a captured name exactly the
// same way it resolves an ordinary local, with no special-casing anywhere
// else in expr.go/stmt.go.
func (g *Generator) defineLambdaBody(lit *ast.LambdaLit, lb *ast.LambdaBinding, fn backend.Function) {
	entry := fn.NewBlock("entry")
	fg := &funcGen{
		g:       g,
		fn:      fn,
		cur:     entry,
		retType: lit.Ret,
		locals:  make(map[*ast.ObjectBinding]backend.Value),
	}

	i := 0
	for _, p := range lit.Params {
		fg.bindParam(i, p, &lb.FuncBinding)
		i++
	}

	if len(lb.Captures) > 0 {
		capPtrT := g.mod.PointerType(g.captureStructType(lb))
		envParam := fn.Param(i)
		capAddr := entry.Convert(envParam, capPtrT)
		fg.capAddr = capAddr
		for idx, c := range lb.Captures {
			fg.locals[c.SourceObject] = entry.FieldPtr(capAddr, 2+idx)
		}
	}

	bodyScope := lit.Body.Scope
	fg.scopeStack = append(fg.scopeStack, bodyScope)
	for _, s := range lit.Body.Stmts {
		fg.genStmt(s)
		if fg.cur.Terminated() {
			break
		}
	}
	if !fg.cur.Terminated() {
		fg.destroyScopesUpTo(nil)
		fg.cur.RetVoid()
	}
}

// genLambdaInto builds a fresh closure value into dst: the generated
// callee function pointer, plus — when lb captures anything — a freshly
// heap-allocated capture struct (refcount 1, this lambda's own generated
// capture destructor) populated by copy-constructing each capture from its
// source address.
func (fg *funcGen) genLambdaInto(dst backend.Value, lit *ast.LambdaLit) {
	lb := fg.g.env.Arena.Get(lit.Binding).(*ast.LambdaBinding)
	fn := fg.g.getOrDefineLambda(lit, lb)
	envPtrT := fg.g.lt.EnvHeaderPtrType()

	fg.cur.Store(fg.cur.FieldPtr(dst, closureFieldFn), fn)

	if len(lb.Captures) == 0 {
		fg.cur.Store(fg.cur.FieldPtr(dst, closureFieldEnv), fg.cur.ConstNull(envPtrT))
		return
	}

	capStructT := fg.g.captureStructType(lb)
	capPtrT := fg.g.mod.PointerType(capStructT)
	i64T := fg.g.mod.IntType(64, true)

	capAddr := fg.cur.Convert(fg.cur.HeapAlloc(fg.cur.ConstInt(i64T, int64(2+len(lb.Captures)))), capPtrT)
	fg.cur.Store(fg.cur.FieldPtr(capAddr, 0), fg.cur.ConstInt(i64T, 1))
	dtor := fg.g.getOrDefineCaptureDtor(lit, lb, capPtrT)
	fg.cur.Store(fg.cur.FieldPtr(capAddr, 1), dtor)

	for i, c := range lb.Captures {
		var src backend.Value
		if c.ParentCaptureIndex == ast.NoParentCapture {
			var ok bool
			src, ok = fg.locals[c.SourceObject]
			if !ok {
				panic("codegen: captured variable has no known address in its enclosing scope")
			}
		} else {
			src = fg.cur.FieldPtr(fg.capAddr, 2+c.ParentCaptureIndex)
		}
		fg.g.lt.CopyConstruct(fg.cur, c.Type, fg.cur.FieldPtr(capAddr, 2+i), src)
	}

	fg.cur.Store(fg.cur.FieldPtr(dst, closureFieldEnv), fg.cur.Convert(capAddr, envPtrT))
}

// getOrDefineCaptureDtor generates (once per lambda literal) the env
// destructor lifetime's generic buildClosureDtor calls through the env's
// dtor field when a closure's refcount reaches zero: it destroys each
// capture field, in reverse order, then returns — buildClosureDtor itself
// frees the env struct's storage afterward, so this function never calls
// HeapFree.
func (g *Generator) getOrDefineCaptureDtor(lit *ast.LambdaLit, lb *ast.LambdaBinding, capPtrT backend.Type) backend.Function {
	name := fmt.Sprintf("lambda.%d.envdtor", lit.Binding)
	voidT := g.mod.VoidType()
	fn := g.mod.DeclareFunction(name, []backend.Type{g.mod.PointerType(voidT)}, voidT, backend.Internal)

	entry := fn.NewBlock("entry")
	capAddr := entry.Convert(fn.Param(0), capPtrT)
	for i := len(lb.Captures) - 1; i >= 0; i-- {
		c := lb.Captures[i]
		g.lt.Destroy(entry, c.Type, entry.FieldPtr(capAddr, 2+i))
	}
	entry.RetVoid()
	return fn
}
