package sema

import "github.com/stela-lang/stela/pkg/stela/ast"

// blockAlwaysReturns reports whether control can only leave b through a
// return (or switch/if arms that themselves always return), the flow
// analysis behind both §4.4.5's always_returns marking and its
// return-omission rule.
func blockAlwaysReturns(b *ast.Block) bool {
	if len(b.Stmts) == 0 {
		return false
	}
	//
	return stmtAlwaysReturns(b.Stmts[len(b.Stmts)-1])
}

func stmtAlwaysReturns(s ast.Stmt) bool {
	switch v := s.(type) {
	case *ast.Return:
		return true
	case *ast.Terminate:
		return true
	case *ast.If:
		return v.Else != nil && blockAlwaysReturns(v.Then) && blockAlwaysReturns(v.Else)
	case *ast.Switch:
		return v.AlwaysReturns
	default:
		return false
	}
}

func isVoidType(t ast.Type) bool {
	b, ok := t.(*ast.Builtin)
	return ok && b.Kind == ast.Void
}

// analyzeFuncBody types body against fnScope, then enforces the
// return-omission rule: return may be missing only when ret is void (§4.4.5).
func (a *Analyzer) analyzeFuncBody(body *ast.Block, fnScope *ast.Scope, ret ast.Type) bool {
	body.Scope = fnScope
	//
	for _, stmt := range body.Stmts {
		if !a.analyzeStmt(stmt, fnScope, ret) {
			return false
		}
	}
	//
	concreteRet, ok := a.concreteType(ret, fnScope)
	if !ok {
		return false
	}
	//
	if !isVoidType(concreteRet) && !blockAlwaysReturns(body) {
		a.fail(body.Span(), "missing return in function with non-void return type")
		return false
	}
	//
	return true
}

// analyzeChildBlock types a nested `{ ... }` in a fresh scope of kind under
// parent.
func (a *Analyzer) analyzeChildBlock(block *ast.Block, parent *ast.Scope, kind ast.ScopeKind, ret ast.Type) bool {
	child := ast.NewScope(kind, parent.Module(), parent)
	block.Scope = child
	//
	for _, stmt := range block.Stmts {
		if !a.analyzeStmt(stmt, child, ret) {
			return false
		}
	}
	//
	return true
}

func (a *Analyzer) analyzeStmt(stmt ast.Stmt, scope *ast.Scope, ret ast.Type) bool {
	switch s := stmt.(type) {
	case *ast.Block:
		return a.analyzeChildBlock(s, scope, ast.BlockScope, ret)
	case *ast.If:
		cond, ok := a.typeExpr(s.Cond, scope)
		if !ok {
			return false
		}
		//
		cc, ok := a.concreteType(cond.Type, scope)
		if !ok {
			return false
		}
		//
		if !isBuiltinKind(cc, ast.Bool) {
			a.fail(s.Cond.Span(), "'if' condition must be bool")
			return false
		}
		//
		if !a.analyzeChildBlock(s.Then, scope, ast.BlockScope, ret) {
			return false
		}
		//
		if s.Else != nil && !a.analyzeChildBlock(s.Else, scope, ast.BlockScope, ret) {
			return false
		}
		//
		return true
	case *ast.Switch:
		return a.analyzeSwitch(s, scope, ret)
	case *ast.Return:
		return a.analyzeReturn(s, scope, ret)
	case *ast.While:
		cond, ok := a.typeExpr(s.Cond, scope)
		if !ok {
			return false
		}
		//
		cc, ok := a.concreteType(cond.Type, scope)
		if !ok {
			return false
		}
		//
		if !isBuiltinKind(cc, ast.Bool) {
			a.fail(s.Cond.Span(), "'while' condition must be bool")
			return false
		}
		//
		return a.analyzeChildBlock(s.Body, scope, ast.FlowScope, ret)
	case *ast.For:
		return a.analyzeFor(s, scope, ret)
	case *ast.Break:
		if scope.EnclosingFlow() == nil {
			a.fail(s.Span(), "'break' outside of a loop or switch")
			return false
		}
		//
		return true
	case *ast.Continue:
		if scope.EnclosingFlow() == nil {
			a.fail(s.Span(), "'continue' outside of a loop or switch")
			return false
		}
		//
		return true
	case *ast.Terminate, *ast.Empty:
		return true
	case *ast.VarDecl:
		return a.analyzeVarDeclStmt(s, scope)
	case *ast.Assign:
		return a.analyzeAssign(s, scope)
	case *ast.IncDec:
		return a.analyzeIncDec(s, scope)
	case *ast.DeclAssign:
		return a.analyzeDeclAssign(s, scope)
	case *ast.ExprStmt:
		_, ok := a.typeExpr(s.Expr, scope)
		return ok
	default:
		a.fail(stmt.Span(), "internal: unhandled statement kind %T", stmt)
		return false
	}
}

func (a *Analyzer) analyzeSwitch(sw *ast.Switch, scope *ast.Scope, ret ast.Type) bool {
	subject, ok := a.typeExpr(sw.Subject, scope)
	if !ok {
		return false
	}
	//
	allReturn := sw.Default != nil
	//
	for i := range sw.Cases {
		c := &sw.Cases[i]
		//
		ct, ok := a.typeExpr(c.Expr, scope)
		if !ok {
			return false
		}
		//
		if !a.typesEqual(subject.Type, ct.Type, scope) {
			a.fail(c.Expr.Span(), "case value does not match the switch subject's type")
			return false
		}
		//
		if !a.analyzeChildBlock(c.Body, scope, ast.FlowScope, ret) {
			return false
		}
		//
		allReturn = allReturn && blockAlwaysReturns(c.Body)
	}
	//
	if sw.Default != nil {
		if !a.analyzeChildBlock(sw.Default.Body, scope, ast.FlowScope, ret) {
			return false
		}
		//
		allReturn = allReturn && blockAlwaysReturns(sw.Default.Body)
	}
	//
	sw.AlwaysReturns = allReturn
	//
	return true
}

func (a *Analyzer) analyzeReturn(r *ast.Return, scope *ast.Scope, ret ast.Type) bool {
	concreteRet, ok := a.concreteType(ret, scope)
	if !ok {
		return false
	}
	//
	if r.Expr == nil {
		if !isVoidType(concreteRet) {
			a.fail(r.Span(), "missing return value")
			return false
		}
		//
		return true
	}
	//
	if isVoidType(concreteRet) {
		a.fail(r.Span(), "void function must not return a value")
		return false
	}
	//
	value, ok := a.typeExpr(r.Expr, scope)
	if !ok {
		return false
	}
	//
	if !a.typesEqual(ret, value.Type, scope) {
		a.fail(r.Span(), "return value does not match the function's return type")
		return false
	}
	//
	return true
}

func (a *Analyzer) analyzeFor(f *ast.For, scope *ast.Scope, ret ast.Type) bool {
	forScope := ast.NewScope(ast.FlowScope, scope.Module(), scope)
	//
	if f.Init != nil && !a.analyzeStmt(f.Init, forScope, ret) {
		return false
	}
	//
	if f.Cond != nil {
		cond, ok := a.typeExpr(f.Cond, forScope)
		if !ok {
			return false
		}
		//
		cc, ok := a.concreteType(cond.Type, forScope)
		if !ok {
			return false
		}
		//
		if !isBuiltinKind(cc, ast.Bool) {
			a.fail(f.Cond.Span(), "'for' condition must be bool")
			return false
		}
	}
	//
	if f.Latch != nil && !a.analyzeStmt(f.Latch, forScope, ret) {
		return false
	}
	//
	return a.analyzeChildBlock(f.Body, forScope, ast.BlockScope, ret)
}

func (a *Analyzer) analyzeVarDeclStmt(v *ast.VarDecl, scope *ast.Scope) bool {
	var inferred *ast.ExprType
	//
	if v.Init != nil {
		t, ok := a.typeExpr(v.Init, scope)
		if !ok {
			return false
		}
		//
		if v.DeclaredType != nil {
			if !a.resolveType(v.DeclaredType, scope) {
				return false
			}
			//
			if !a.typesEqual(v.DeclaredType, t.Type, scope) {
				a.fail(v.Span(), "initializer does not match the declared type of %q", v.Name)
				return false
			}
		}
		//
		inferred = &t
	}
	//
	return a.declareVar(scope, v, inferred)
}

func (a *Analyzer) analyzeAssign(as *ast.Assign, scope *ast.Scope) bool {
	target, ok := a.typeExpr(as.Target, scope)
	if !ok {
		return false
	}
	//
	if target.Mutability != ast.Var {
		a.fail(as.Span(), "cannot assign to a 'let' binding")
		return false
	}
	//
	rhs, ok := a.typeExpr(as.Rhs, scope)
	if !ok {
		return false
	}
	//
	tc, ok := a.concreteType(target.Type, scope)
	if !ok {
		return false
	}
	//
	rc, ok := a.concreteType(rhs.Type, scope)
	if !ok {
		return false
	}
	//
	if as.Op == ast.AssignSet {
		if !tc.Equal(rc) {
			a.fail(as.Span(), "cannot assign mismatched types")
			return false
		}
		//
		return true
	}
	//
	if !tc.Equal(rc) {
		a.fail(as.Span(), "compound assignment requires matching operand types")
		return false
	}
	//
	if as.Op.IsShift() || as.Op == ast.AssignOr || as.Op == ast.AssignAnd || as.Op == ast.AssignXor {
		if !builtinSatisfies(tc, ast.BuiltinKind.IsBitwise) {
			a.fail(as.Span(), "bitwise compound assignment requires a byte/uint operand")
			return false
		}
		//
		return true
	}
	//
	if !builtinSatisfies(tc, ast.BuiltinKind.IsArithmetic) {
		a.fail(as.Span(), "arithmetic compound assignment requires a char/real/sint/uint operand")
		return false
	}
	//
	return true
}

func (a *Analyzer) analyzeIncDec(inc *ast.IncDec, scope *ast.Scope) bool {
	target, ok := a.typeExpr(inc.Target, scope)
	if !ok {
		return false
	}
	//
	if target.Mutability != ast.Var {
		a.fail(inc.Span(), "cannot increment/decrement a 'let' binding")
		return false
	}
	//
	tc, ok := a.concreteType(target.Type, scope)
	if !ok {
		return false
	}
	//
	if !builtinSatisfies(tc, ast.BuiltinKind.IsArithmetic) {
		a.fail(inc.Span(), "'++'/'--' require a char/real/sint/uint operand")
		return false
	}
	//
	return true
}

// analyzeDeclAssign handles `x := expr`. The new local is a reassignable
// `var` — `:=` has no syntax for marking it immutable, unlike an explicit
// `let` declaration.
func (a *Analyzer) analyzeDeclAssign(da *ast.DeclAssign, scope *ast.Scope) bool {
	if existing := scope.Bindings(da.Name); len(existing) > 0 {
		a.fail(da.Span(), "redefinition of %q", da.Name)
		return false
	}
	//
	t, ok := a.typeExpr(da.Expr, scope)
	if !ok {
		return false
	}
	//
	obj := ast.NewObjectBinding(da.Name, ast.NewValueType(t.Type, ast.Var), da.Span())
	id := a.env.Arena.Alloc(obj)
	scope.Bind(da.Name, id)
	a.noteDecl(scope, id)
	da.Binding = id
	//
	return true
}
