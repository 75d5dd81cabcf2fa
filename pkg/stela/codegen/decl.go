package codegen

import (
	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/backend"
)

// funcGen lowers one function/lambda body: the per-function register state
// generator.go's top-level Generator doesn't need to track globally.
type funcGen struct {
	g   *Generator
	fn  backend.Function
	cur backend.BasicBlock

	retType ast.Type

	// locals maps every addressable ObjectBinding reachable from this body —
	// parameters, captures relayed into the prologue, and var/let/DeclAssign
	// locals as they're declared — to its stable backend storage address.
	// Keyed by the binding's own identity rather than its arena SymbolId
	// since a closure capture (ast.Capture) only carries a *ObjectBinding
	// pointer, never the id it was allocated under.
	locals map[*ast.ObjectBinding]backend.Value

	// scopeStack holds every ast.Scope currently open, outermost first,
	// mirroring sema's own scope nesting (§4.4.5's destructor-unwinding: a
	// scope's locals are destroyed, innermost first, whenever control leaves
	// it — by falling off the end of its block, or by break/continue/return
	// skipping past it).
	scopeStack []*ast.Scope

	// flow is a stack of enclosing loop/switch-case targets for Break and
	// Continue; its top is always the innermost construct (ast.Scope's own
	// EnclosingFlow rule).
	flow []flowTarget

	// capAddr is the address of a lambda body's own capture struct (nil for
	// a non-capturing lambda or a top-level function) — needed when a nested lambda literal relays a
	// capture from this closure's own captured state (capture.go's
	// ParentCaptureIndex) rather than from a fresh local.
	capAddr backend.Value
}

// flowTarget is the destination/boundary pair a Break or Continue inside a
// loop or switch case resolves against. continueTo means "fall through to
// the next case" inside a Switch (ast/stmt.go's Continue doc), not "repeat
// the loop" — only While/For give it loop-restart semantics.
type flowTarget struct {
	breakTo, continueTo             backend.BasicBlock
	breakBoundary, continueBoundary *ast.Scope
}

// destroyScope runs every live local/parameter this scope directly declared
// through lifetime.Destroy, in reverse declaration order — by-reference
// parameters are skipped, since an inout binding never owns what it refers
// to.
func (fg *funcGen) destroyScope(scope *ast.Scope) {
	names := scope.Declared()
	for i := len(names) - 1; i >= 0; i-- {
		ids := scope.Bindings(names[i])
		if len(ids) == 0 {
			continue
		}
		ob, ok := fg.g.env.Arena.Get(ids[0]).(*ast.ObjectBinding)
		if !ok {
			continue
		}
		if ob.Type.Binding == ast.ByReference {
			continue
		}
		addr, ok := fg.locals[ob]
		if !ok {
			continue
		}
		fg.g.lt.Destroy(fg.cur, ob.Type.Type, addr)
	}
}

// destroyScopesUpTo emits destructor calls for every scope from the
// innermost currently open down to, but not including, boundary (nil
// destroys the whole stack, including the function's own scope — used by
// Return). It never mutates scopeStack itself: the scopes it names stay
// logically open, since control may still fall back into them (e.g. a
// Break only abandons the loop, not the function it's nested in).
func (fg *funcGen) destroyScopesUpTo(boundary *ast.Scope) {
	for i := len(fg.scopeStack) - 1; i >= 0; i-- {
		s := fg.scopeStack[i]
		if s == boundary {
			return
		}
		fg.destroyScope(s)
	}
}

// genStmtsInScope pushes scope, lowers stmts in order, and — if control
// falls off the end rather than already having terminated the block via
// Return/Break/Continue/Terminate — destroys scope's own locals before
// popping it.
func (fg *funcGen) genStmtsInScope(scope *ast.Scope, stmts []ast.Stmt) {
	fg.scopeStack = append(fg.scopeStack, scope)
	for _, s := range stmts {
		fg.genStmt(s)
		if fg.cur.Terminated() {
			break
		}
	}
	if !fg.cur.Terminated() {
		fg.destroyScope(scope)
	}
	fg.scopeStack = fg.scopeStack[:len(fg.scopeStack)-1]
}

// defineFunc lowers a FuncDecl's body: bind receiver+params (by-reference
// params are used directly as the backend already passes their address; by-
// value params are spilled to an alloca so they have the same stable
// address every other local does), walk the body, and on fallthrough
// (void return) destroy everything still live and emit an implicit return.
func (g *Generator) defineFunc(m *ast.Module, fd *ast.FuncDecl) {
	fn := g.funcs[fd.ResolvedBinding()]
	entry := fn.NewBlock("entry")

	fb, _ := g.env.Arena.Get(fd.ResolvedBinding()).(*ast.FuncBinding)

	fg := &funcGen{
		g:       g,
		fn:      fn,
		cur:     entry,
		retType: fd.Ret,
		locals:  make(map[*ast.ObjectBinding]backend.Value),
	}

	i := 0
	if fd.Receiver != nil {
		fg.bindParam(i, *fd.Receiver, fb)
		i++
	}
	for _, p := range fd.Params {
		fg.bindParam(i, p, fb)
		i++
	}

	bodyScope := fd.Body.Scope
	fg.scopeStack = append(fg.scopeStack, bodyScope)
	for _, s := range fd.Body.Stmts {
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

// bindParam resolves the ObjectBinding a FuncDecl/receiver parameter was
// bound to (declareParams binds the receiver first, then params in declared
// order, by name, into the function's own scope — the same order
// Function.Param indexes by) and records its address in locals.
func (fg *funcGen) bindParam(index int, p ast.FuncParam, fb *ast.FuncBinding) {
	val := fg.fn.Param(index)
	if fb == nil {
		return
	}
	ids := fb.Scope.Bindings(p.Name)
	if len(ids) == 0 {
		return
	}
	ob, ok := fg.g.env.Arena.Get(ids[0]).(*ast.ObjectBinding)
	if !ok {
		return
	}
	if p.ByReference {
		fg.locals[ob] = val
		return
	}
	bt := fg.g.types.lower(p.Type)
	slot := fg.cur.Alloca(bt)
	fg.cur.Store(slot, val)
	fg.locals[ob] = slot
}

// defineGlobal synthesizes a niladic constructor (default-construct, or
// lower the initializer's value directly into the global's storage) and a
// niladic destructor for vd, appended to the module's global-ctors/-dtors
// lists (§4.5, "run in append order at module load/unload"). Every global
// gets both, even ones of builtin type, for whom lifetime.Destroy is
// already a no-op — defineGlobal does not check the type and simply always
// emits the (harmless) call.
func (g *Generator) defineGlobal(m *ast.Module, vd *ast.VarDecl) {
	id := vd.ResolvedBinding()
	t := g.globalTypes[id]
	addr := g.globals[id]

	ctorName := g.qualify(m.Name, vd.Name+".ctor", id)
	ctor := g.mod.DeclareFunction(ctorName, nil, g.types.lower(ast.NewBuiltin(ast.Span{}, ast.Void)), backend.Internal)
	centry := ctor.NewBlock("entry")
	cfg := &funcGen{g: g, fn: ctor, cur: centry, locals: make(map[*ast.ObjectBinding]backend.Value)}
	if vd.Init != nil {
		cfg.genConstructInto(addr, vd.Init, t)
	} else {
		g.lt.DefaultConstruct(centry, t, addr)
	}
	centry.RetVoid()
	g.mod.AppendGlobalCtor(ctor)

	dtorName := g.qualify(m.Name, vd.Name+".dtor", id)
	dtor := g.mod.DeclareFunction(dtorName, nil, g.types.lower(ast.NewBuiltin(ast.Span{}, ast.Void)), backend.Internal)
	dentry := dtor.NewBlock("entry")
	g.lt.Destroy(dentry, t, addr)
	dentry.RetVoid()
	g.mod.AppendGlobalDtor(dtor)
}
