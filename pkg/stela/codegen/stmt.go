package codegen

import (
	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/backend"
)

// genStmt lowers one statement, appending to fg.cur. Callers that walk a
// statement list (genStmtsInScope, the Switch/If/loop bodies below) must
// stop as soon as fg.cur.Terminated() — every remaining statement in that
// list is unreachable, and emitting into an already-terminated block is
// invalid.
func (fg *funcGen) genStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.Block:
		fg.genStmtsInScope(st.Scope, st.Stmts)
	case *ast.If:
		fg.genIf(st)
	case *ast.Switch:
		fg.genSwitch(st)
	case *ast.Return:
		fg.genReturn(st)
	case *ast.While:
		fg.genWhile(st)
	case *ast.For:
		fg.genFor(st)
	case *ast.Break:
		fg.genBreak()
	case *ast.Continue:
		fg.genContinue()
	case *ast.Terminate:
		fg.cur.Panic("terminate")
	case *ast.Empty:
	case *ast.VarDecl:
		fg.genVarDecl(st)
	case *ast.Assign:
		fg.genAssign(st)
	case *ast.IncDec:
		fg.genIncDec(st)
	case *ast.DeclAssign:
		fg.genDeclAssign(st)
	case *ast.ExprStmt:
		fg.genDiscard(st.Expr)
	default:
		panic("codegen: unhandled statement kind")
	}
}

func (fg *funcGen) genVarDecl(vd *ast.VarDecl) {
	ob := fg.g.env.Arena.Get(vd.ResolvedBinding()).(*ast.ObjectBinding)
	t := ob.Type.Type
	slot := fg.cur.Alloca(fg.g.types.lower(t))
	fg.locals[ob] = slot
	if vd.Init != nil {
		fg.genConstructInto(slot, vd.Init, t)
	} else {
		fg.g.lt.DefaultConstruct(fg.cur, t, slot)
	}
}

func (fg *funcGen) genDeclAssign(da *ast.DeclAssign) {
	ob := fg.g.env.Arena.Get(da.Binding).(*ast.ObjectBinding)
	t := ob.Type.Type
	slot := fg.cur.Alloca(fg.g.types.lower(t))
	fg.locals[ob] = slot
	fg.genConstructInto(slot, da.Expr, t)
}

func (fg *funcGen) genAssign(as *ast.Assign) {
	dst := fg.genAddress(as.Target)
	t := as.Target.ResolvedType().Type

	if as.Op == ast.AssignSet {
		fg.genAssignInto(dst, as.Rhs, t)
		return
	}

	old := fg.cur.Load(dst)
	rhs := fg.genValue(as.Rhs)
	fg.cur.Store(dst, fg.cur.BinOp(assignBinOp(as.Op), old, rhs))
}

func assignBinOp(op ast.AssignOp) backend.BinOp {
	switch op {
	case ast.AssignAdd:
		return backend.Add
	case ast.AssignSub:
		return backend.Sub
	case ast.AssignMul:
		return backend.Mul
	case ast.AssignDiv:
		return backend.Div
	case ast.AssignMod:
		return backend.Mod
	case ast.AssignOr:
		return backend.Or
	case ast.AssignAnd:
		return backend.And
	case ast.AssignXor:
		return backend.Xor
	case ast.AssignShl:
		return backend.Shl
	case ast.AssignShr:
		return backend.Shr
	}
	panic("codegen: unhandled compound-assignment operator")
}

func (fg *funcGen) genIncDec(inc *ast.IncDec) {
	addr := fg.genAddress(inc.Target)
	old := fg.cur.Load(addr)
	t := inc.Target.ResolvedType().Type
	bt := fg.g.types.lower(t)

	var one backend.Value
	if b, ok := underlying(t).(*ast.Builtin); ok && b.Kind == ast.Real {
		one = fg.cur.ConstFloat(bt, 1)
	} else {
		one = fg.cur.ConstInt(bt, 1)
	}

	op := backend.Add
	if !inc.Increment {
		op = backend.Sub
	}
	fg.cur.Store(addr, fg.cur.BinOp(op, old, one))
}

func (fg *funcGen) genReturn(r *ast.Return) {
	if r.Expr == nil {
		fg.destroyScopesUpTo(nil)
		fg.cur.RetVoid()
		return
	}

	t := fg.retType
	tmp := fg.cur.Alloca(fg.g.types.lower(t))
	fg.genConstructInto(tmp, r.Expr, t)
	v := fg.cur.Load(tmp)
	fg.destroyScopesUpTo(nil)
	fg.cur.Ret(v)
}

// genIf lowers if/else: both arms run in their own scope (destroyed on
// fallthrough to if.end by genStmtsInScope); if both arms always terminate,
// if.end is never reached by any edge, and the backend still requires
// every block to end in a terminator, so it's closed off with Unreachable.
func (fg *funcGen) genIf(i *ast.If) {
	cond := fg.genValue(i.Cond)

	thenB := fg.fn.NewBlock("if.then")
	var elseB backend.BasicBlock
	endB := fg.fn.NewBlock("if.end")

	if i.Else != nil {
		elseB = fg.fn.NewBlock("if.else")
		fg.cur.CondBr(cond, thenB, elseB)
	} else {
		fg.cur.CondBr(cond, thenB, endB)
	}

	reached := false

	fg.cur = thenB
	fg.genStmtsInScope(i.Then.Scope, i.Then.Stmts)
	if !fg.cur.Terminated() {
		fg.cur.Br(endB)
		reached = true
	}

	if i.Else != nil {
		fg.cur = elseB
		fg.genStmtsInScope(i.Else.Scope, i.Else.Stmts)
		if !fg.cur.Terminated() {
			fg.cur.Br(endB)
			reached = true
		}
	} else {
		reached = true
	}

	fg.cur = endB
	if !reached {
		endB.Unreachable()
	}
}

// genWhile lowers while: the body's own scope IS the loop's FlowScope
// (sema's analyzeStmt never wraps it in a further child scope), so
// break/continue both destroy it directly at the jump site — there is no
// separate loop-variable scope the way For has.
func (fg *funcGen) genWhile(w *ast.While) {
	condB := fg.fn.NewBlock("while.cond")
	bodyB := fg.fn.NewBlock("while.body")
	endB := fg.fn.NewBlock("while.end")

	fg.cur.Br(condB)

	fg.cur = condB
	cond := fg.genValue(w.Cond)
	fg.cur.CondBr(cond, bodyB, endB)
	fg.cur.Likely(bodyB)

	fg.flow = append(fg.flow, flowTarget{
		breakTo: endB, continueTo: condB,
		breakBoundary: w.Body.Scope.Parent(), continueBoundary: w.Body.Scope.Parent(),
	})
	fg.cur = bodyB
	fg.genStmtsInScope(w.Body.Scope, w.Body.Stmts)
	if !fg.cur.Terminated() {
		fg.cur.Br(condB)
	}
	fg.flow = fg.flow[:len(fg.flow)-1]

	fg.cur = endB
}

// genFor lowers for(init; cond; latch) body. forScope (the loop variable's
// own scope) is distinct from body.Scope (a BlockScope child of forScope):
// a dedicated for.exit block destroys forScope and then jumps to for.end.
// Both the ordinary condition-false exit and Break (after destroying the
// body's scopes at the break site) go through for.exit, so each path
// destroys forScope exactly once.
func (fg *funcGen) genFor(f *ast.For) {
	forScope := f.Body.Scope.Parent()

	fg.scopeStack = append(fg.scopeStack, forScope)
	if f.Init != nil {
		fg.genStmt(f.Init)
	}

	condB := fg.fn.NewBlock("for.cond")
	bodyB := fg.fn.NewBlock("for.body")
	latchB := fg.fn.NewBlock("for.latch")
	exitB := fg.fn.NewBlock("for.exit")
	endB := fg.fn.NewBlock("for.end")

	fg.cur.Br(condB)

	fg.cur = condB
	if f.Cond != nil {
		cond := fg.genValue(f.Cond)
		fg.cur.CondBr(cond, bodyB, exitB)
		fg.cur.Likely(bodyB)
	} else {
		fg.cur.Br(bodyB)
	}

	fg.destroyScopeInto(exitB, forScope)
	exitB.Br(endB)

	fg.flow = append(fg.flow, flowTarget{
		breakTo: exitB, continueTo: latchB,
		breakBoundary: forScope, continueBoundary: forScope,
	})
	fg.cur = bodyB
	fg.genStmtsInScope(f.Body.Scope, f.Body.Stmts)
	if !fg.cur.Terminated() {
		fg.cur.Br(latchB)
	}
	fg.flow = fg.flow[:len(fg.flow)-1]

	fg.cur = latchB
	if f.Latch != nil {
		fg.genStmt(f.Latch)
	}
	if !fg.cur.Terminated() {
		fg.cur.Br(condB)
	}

	fg.scopeStack = fg.scopeStack[:len(fg.scopeStack)-1]
	fg.cur = endB
}

// destroyScopeInto emits scope's destructors into block b (used for
// for.exit, which runs outside the normal fg.cur-threaded control flow).
func (fg *funcGen) destroyScopeInto(b backend.BasicBlock, scope *ast.Scope) {
	saved := fg.cur
	fg.cur = b
	fg.destroyScope(scope)
	fg.cur = saved
}

func (fg *funcGen) genBreak() {
	t := fg.flow[len(fg.flow)-1]
	fg.destroyScopesUpTo(t.breakBoundary)
	fg.cur.Br(t.breakTo)
}

func (fg *funcGen) genContinue() {
	t := fg.flow[len(fg.flow)-1]
	fg.destroyScopesUpTo(t.continueBoundary)
	fg.cur.Br(t.continueTo)
}

// genSwitch lowers switch(subject){cases}: the subject is copy/raw-
// constructed into a single owned temporary up front, then compared case
// by case. Each case is entered through a small gate block that destroys
// the subject exactly once before running the case body, so the subject
// is destroyed on every path regardless of which case matches or whether
// a case returns early. Falling off the end of a case body is an implicit
// break; `continue` inside a case jumps directly into the next case's
// body, bypassing its gate (the subject was already destroyed by whichever
// gate was entered first).
func (fg *funcGen) genSwitch(sw *ast.Switch) {
	t := sw.Subject.ResolvedType().Type
	subjTmp := fg.cur.Alloca(fg.g.types.lower(t))
	fg.genConstructInto(subjTmp, sw.Subject, t)

	endB := fg.fn.NewBlock("switch.end")

	n := len(sw.Cases)
	gates := make([]backend.BasicBlock, n)
	bodies := make([]backend.BasicBlock, n)
	for i := range sw.Cases {
		gates[i] = fg.fn.NewBlock("switch.gate")
		bodies[i] = fg.fn.NewBlock("switch.body")
	}
	var defaultGate, defaultBody backend.BasicBlock
	if sw.Default != nil {
		defaultGate = fg.fn.NewBlock("switch.default.gate")
		defaultBody = fg.fn.NewBlock("switch.default.body")
	}

	checks := make([]backend.BasicBlock, n)
	for i := range sw.Cases {
		checks[i] = fg.fn.NewBlock("switch.check")
	}

	if n > 0 {
		fg.cur.Br(checks[0])
	} else if sw.Default != nil {
		fg.cur.Br(defaultGate)
	} else {
		fg.cur.Br(endB)
	}

	for i, c := range sw.Cases {
		fg.cur = checks[i]
		caseAddr := fg.genAddress(c.Expr)
		eq := fg.g.lt.EqOp(fg.cur, t, subjTmp, caseAddr)
		var next backend.BasicBlock
		if i+1 < n {
			next = checks[i+1]
		} else if sw.Default != nil {
			next = defaultGate
		} else {
			next = endB
		}
		fg.cur.CondBr(eq, gates[i], next)
	}

	for i, c := range sw.Cases {
		fg.destroySwitchSubjectInto(gates[i], t, subjTmp)
		gates[i].Br(bodies[i])

		fg.flow = append(fg.flow, flowTarget{
			breakTo: endB, continueTo: nextBody(bodies, defaultBody, endB, i),
			breakBoundary: c.Body.Scope.Parent(), continueBoundary: c.Body.Scope.Parent(),
		})
		fg.cur = bodies[i]
		fg.genStmtsInScope(c.Body.Scope, c.Body.Stmts)
		if !fg.cur.Terminated() {
			fg.cur.Br(endB)
		}
		fg.flow = fg.flow[:len(fg.flow)-1]
	}

	if sw.Default != nil {
		fg.destroySwitchSubjectInto(defaultGate, t, subjTmp)
		defaultGate.Br(defaultBody)

		fg.flow = append(fg.flow, flowTarget{
			breakTo: endB, continueTo: endB,
			breakBoundary: sw.Default.Body.Scope.Parent(), continueBoundary: sw.Default.Body.Scope.Parent(),
		})
		fg.cur = defaultBody
		fg.genStmtsInScope(sw.Default.Body.Scope, sw.Default.Body.Stmts)
		if !fg.cur.Terminated() {
			fg.cur.Br(endB)
		}
		fg.flow = fg.flow[:len(fg.flow)-1]
	}

	fg.cur = endB
}

// nextBody returns the body block continue/fallthrough jumps into from
// case i: the next case's body, or the default's, or — past the last arm
// with no default — the switch's own end (continue there has nothing left
// to fall into, so it behaves like break).
func nextBody(bodies []backend.BasicBlock, defaultBody, endB backend.BasicBlock, i int) backend.BasicBlock {
	if i+1 < len(bodies) {
		return bodies[i+1]
	}
	if defaultBody != nil {
		return defaultBody
	}
	return endB
}

// destroySwitchSubjectInto destroys the switch subject (an unscoped, codegen-only
// temporary — not tied to any ast.Scope) into block b.
func (fg *funcGen) destroySwitchSubjectInto(b backend.BasicBlock, t ast.Type, subjTmp backend.Value) {
	saved := fg.cur
	fg.cur = b
	fg.g.lt.Destroy(fg.cur, t, subjTmp)
	fg.cur = saved
}
