package sema

import (
	"fmt"

	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/diag"
)

// Analyzer walks one module's AST, mutating it in place to record resolved
// types and symbol back-references (§4.4, "The analyzer is not purely
// functional").
type Analyzer struct {
	env    *Environment
	sink   diag.Sink
	module string
	// declScope records which scope each ObjectBinding was declared in, used
	// by capture analysis (§4.4.4) to tell whether a referenced object lives
	// inside the referring closure or must be captured from an ancestor. Kept
	// here rather than on ast.Scope since it's purely an analysis-time
	// side-table, not part of the AST's own invariants.
	declScope map[SymbolId]*ast.Scope
}

type SymbolId = ast.SymbolId

func newAnalyzer(env *Environment, sink diag.Sink, module string) *Analyzer {
	return &Analyzer{env, sink, module, make(map[SymbolId]*ast.Scope)}
}

// noteDecl records that id (an ObjectBinding) was declared in scope.
func (a *Analyzer) noteDecl(scope *ast.Scope, id SymbolId) {
	a.declScope[id] = scope
}

func (a *Analyzer) fail(span ast.Span, format string, args ...any) {
	a.sink.Emit(diag.Record{
		Priority: diag.Fatal,
		Category: diag.Semantic,
		Module:   a.module,
		Span:     span,
		Message:  fmt.Sprintf(format, args...),
	})
}

// resolveNamed resolves a Named type to the TypeAliasBinding its name refers
// to within scope, caching the result on the node (§4.4.1).
func (a *Analyzer) resolveNamed(n *ast.Named, scope *ast.Scope) bool {
	if n.Resolved != nil {
		return true
	}
	//
	for _, id := range scope.Lookup(n.Name) {
		if alias, ok := a.env.Arena.Get(id).(*ast.TypeAliasBinding); ok {
			n.Resolved = alias
			return true
		}
	}
	//
	a.fail(n.Span(), "undefined type %q", n.Name)
	//
	return false
}

// concreteType recursively expands weak aliases, stopping at a strong alias
// or a non-Named type (§4.4.1, "the concrete type of T...").
func (a *Analyzer) concreteType(t ast.Type, scope *ast.Scope) (ast.Type, bool) {
	named, ok := t.(*ast.Named)
	if !ok {
		return t, true
	}
	//
	if !a.resolveNamed(named, scope) {
		return nil, false
	}
	//
	alias := named.Resolved.(*ast.TypeAliasBinding)
	if alias.Strong {
		return named, true
	}
	//
	return a.concreteType(alias.Of, scope)
}

// resolveType walks t structurally, resolving every Named type reachable
// within it against scope. Array/Func/Struct element types are resolved
// recursively; Builtin/User need no resolution.
func (a *Analyzer) resolveType(t ast.Type, scope *ast.Scope) bool {
	switch v := t.(type) {
	case *ast.Named:
		return a.resolveNamed(v, scope)
	case *ast.Array:
		return a.resolveType(v.Elem, scope)
	case *ast.Func:
		for _, p := range v.Params {
			if !a.resolveType(p.Type, scope) {
				return false
			}
		}
		//
		return a.resolveType(v.Ret, scope)
	case *ast.Struct:
		for i := range v.Fields {
			if !a.resolveType(v.Fields[i].Type, scope) {
				return false
			}
		}
		//
		return true
	default:
		return true
	}
}

// typesEqual compares a and b under §4.4.1's structural-equality rule,
// expanding weak aliases on both sides first.
func (a *Analyzer) typesEqual(x, y ast.Type, scope *ast.Scope) bool {
	cx, ok := a.concreteType(x, scope)
	if !ok {
		return false
	}
	//
	cy, ok := a.concreteType(y, scope)
	if !ok {
		return false
	}
	//
	return cx.Equal(cy)
}

// signaturesEqual compares two parameter lists under §4.4.2's overload
// rule: equal after strong-alias expansion, ignoring by-reference mode.
func (a *Analyzer) signaturesEqual(x, y []ast.Param, scope *ast.Scope) bool {
	if len(x) != len(y) {
		return false
	}
	//
	for i := range x {
		if !a.typesEqual(x[i].Type, y[i].Type, scope) {
			return false
		}
	}
	//
	return true
}

func paramsOf(fields []ast.FuncParam) []ast.Param {
	out := make([]ast.Param, len(fields))
	for i, f := range fields {
		out[i] = ast.Param{ByReference: f.ByReference, Type: f.Type}
	}
	//
	return out
}

// declareTypeAlias allocates a placeholder TypeAliasBinding for decl so
// forward references within the same module resolve, then fills in its
// target type.
func (a *Analyzer) declareTypeAlias(scope *ast.Scope, decl *ast.TypeAliasDecl) bool {
	if existing := scope.Bindings(decl.Name); len(existing) > 0 {
		a.fail(decl.Span(), "redefinition of %q", decl.Name)
		return false
	}
	//
	binding := ast.NewTypeAliasBinding(decl.Name, decl.Of, decl.Strong)
	id := a.env.Arena.Alloc(binding)
	scope.Bind(decl.Name, id)
	decl.SetBinding(id)
	//
	return true
}

// declareFunc inserts decl's FuncBinding into scope, enforcing §4.4.2's
// overload rule (same name, differing parameter lists after strong-alias
// expansion, ignoring mutability) and the receiver/struct-field collision
// rule.
func (a *Analyzer) declareFunc(scope *ast.Scope, decl *ast.FuncDecl) bool {
	if !a.resolveType(decl.Ret, scope) {
		return false
	}
	//
	var receiverParam *ast.Param
	//
	if decl.Receiver != nil {
		if !a.resolveType(decl.Receiver.Type, scope) {
			return false
		}
		//
		recv := ast.Param{ByReference: decl.Receiver.ByReference, Type: decl.Receiver.Type}
		receiverParam = &recv
		//
		if !a.checkReceiverFieldCollision(decl, scope) {
			return false
		}
	}
	//
	for _, p := range decl.Params {
		if !a.resolveType(p.Type, scope) {
			return false
		}
	}
	//
	params := paramsOf(decl.Params)
	//
	for _, id := range scope.Bindings(decl.Name) {
		existing, ok := a.env.Arena.Get(id).(*ast.FuncBinding)
		if !ok {
			a.fail(decl.Span(), "redefinition of %q as a different kind of symbol", decl.Name)
			return false
		}
		//
		if a.signaturesEqual(existing.Signature(), append(paramPtrSlice(receiverParam), params...), scope) {
			a.fail(decl.Span(), "redefinition of function %q with identical signature", decl.Name)
			return false
		}
	}
	//
	binding := ast.NewFuncBinding(decl.Name, params, decl.Ret, receiverParam, decl.Extern)
	id := a.env.Arena.Alloc(binding)
	scope.Bind(decl.Name, id)
	decl.SetBinding(id)
	//
	return true
}

func paramPtrSlice(p *ast.Param) []ast.Param {
	if p == nil {
		return nil
	}
	//
	return []ast.Param{*p}
}

// checkReceiverFieldCollision rejects a receiver-taking function whose name
// collides with a field of its receiver's concrete type (§4.4.2).
func (a *Analyzer) checkReceiverFieldCollision(decl *ast.FuncDecl, scope *ast.Scope) bool {
	concrete, ok := a.concreteType(decl.Receiver.Type, scope)
	if !ok {
		return false
	}
	//
	var fields []ast.StructField
	//
	switch t := concrete.(type) {
	case *ast.Struct:
		fields = t.Fields
	case *ast.Named:
		// A strong alias of a struct; compare by its target's shape.
		if st, ok := t.Resolved.(*ast.TypeAliasBinding); ok {
			if s, ok := st.Of.(*ast.Struct); ok {
				fields = s.Fields
			}
		}
	}
	//
	for _, f := range fields {
		if f.Name == decl.Name {
			a.fail(decl.Span(), "function %q collides with field %q of its receiver type", decl.Name, f.Name)
			return false
		}
	}
	//
	return true
}

// declareVar inserts decl's ObjectBinding into scope. The declared type is
// either the explicit annotation or inferred from the initializer's typed
// expression, which the caller must have already typed via typeExpr.
func (a *Analyzer) declareVar(scope *ast.Scope, decl *ast.VarDecl, inferred *ast.ExprType) bool {
	if existing := scope.Bindings(decl.Name); len(existing) > 0 {
		a.fail(decl.Span(), "redefinition of %q", decl.Name)
		return false
	}
	//
	var exprType ast.ExprType
	//
	switch {
	case decl.DeclaredType != nil:
		if !a.resolveType(decl.DeclaredType, scope) {
			return false
		}
		//
		exprType = ast.NewValueType(decl.DeclaredType, decl.Mutability)
	case inferred != nil:
		exprType = ast.NewValueType(inferred.Type, decl.Mutability)
	default:
		a.fail(decl.Span(), "cannot infer type of %q without an initializer or type annotation", decl.Name)
		return false
	}
	//
	binding := ast.NewObjectBinding(decl.Name, exprType, decl.Span())
	id := a.env.Arena.Alloc(binding)
	scope.Bind(decl.Name, id)
	a.noteDecl(scope, id)
	decl.SetBinding(id)
	//
	return true
}

// declareParams binds receiver (if any) and params as ObjectBindings in
// fnScope, giving each the pragmatic parameter mutability: by-value
// parameters are reassignable local copies (`var`), `inout` parameters are
// `var`-by-reference per §3's common-call rule (only a `var` argument
// satisfies a by-reference parameter, so the parameter itself behaves as one
// inside the body).
func (a *Analyzer) declareParams(fnScope *ast.Scope, receiver *ast.FuncParam, params []ast.FuncParam) {
	if receiver != nil {
		a.declareParam(fnScope, *receiver)
	}
	//
	for _, p := range params {
		a.declareParam(fnScope, p)
	}
}

func (a *Analyzer) declareParam(fnScope *ast.Scope, p ast.FuncParam) {
	binding := ast.ByValue
	if p.ByReference {
		binding = ast.ByReference
	}
	//
	obj := ast.NewObjectBinding(p.Name, ast.ExprType{Type: p.Type, Mutability: ast.Var, Binding: binding}, p.Span)
	id := a.env.Arena.Alloc(obj)
	fnScope.Bind(p.Name, id)
	a.noteDecl(fnScope, id)
}
