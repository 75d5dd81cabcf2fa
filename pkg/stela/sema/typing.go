package sema

import (
	"strings"

	"github.com/stela-lang/stela/pkg/stela/ast"
)

// classifyNumberKind infers a NumberLit's builtin kind from its literal text
// (§8's scenarios write `0u`, `1u`, `n-1u` throughout, so the lexer admits a
// trailing `u`/`U` unsigned suffix; §4.1's lexer prose only names the digit/
// '.'/e/E/x/X characters it shares with every other numeral). Absent a `u`
// suffix, a literal containing `.` or a non-hex exponent marker is `real`;
// everything else defaults to `sint`. Resolved here rather than in the
// lexer so the rule lives next to the rest of expression typing.
func classifyNumberKind(text string) ast.BuiltinKind {
	if strings.HasSuffix(text, "u") || strings.HasSuffix(text, "U") {
		return ast.Uint
	}
	//
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		return ast.Sint
	}
	//
	if strings.ContainsAny(text, ".eE") {
		return ast.Real
	}
	//
	return ast.Sint
}

// paramExprType synthesizes the ExprType a formal parameter imposes on its
// argument: by-value params accept anything (Callable ignores mutability for
// them); inout params require a `var` argument, since the callee may write
// through the reference (§3, the common-call rule).
func paramExprType(p ast.Param) ast.ExprType {
	if p.ByReference {
		return ast.NewReferenceType(p.Type, ast.Var)
	}
	//
	return ast.NewValueType(p.Type, ast.Let)
}

// typeExpr types expr bottom-up against scope, caching the result on the
// node and returning it (§4.4.3).
func (a *Analyzer) typeExpr(expr ast.Expr, scope *ast.Scope) (ast.ExprType, bool) {
	t, ok := a.typeExprUncached(expr, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	expr.SetResolvedType(t)
	//
	return t, true
}

func (a *Analyzer) typeExprUncached(expr ast.Expr, scope *ast.Scope) (ast.ExprType, bool) {
	switch e := expr.(type) {
	case *ast.NumberLit:
		return ast.NewValueType(ast.NewBuiltin(e.Span(), classifyNumberKind(e.Text)), ast.Let), true
	case *ast.BoolLit:
		return ast.NewValueType(ast.NewBuiltin(e.Span(), ast.Bool), ast.Let), true
	case *ast.CharLit:
		return ast.NewValueType(ast.NewBuiltin(e.Span(), ast.Char), ast.Let), true
	case *ast.StringLit:
		// Strings have no dedicated builtin kind (§3 lists eight builtins,
		// none of them "string"); a string literal is array-of-char, the
		// same refcounted container an explicit `[c1, c2, ...]` would build.
		return ast.NewValueType(ast.NewArray(e.Span(), ast.NewBuiltin(e.Span(), ast.Char)), ast.Let), true
	case *ast.Ident:
		return a.typeIdent(e, scope)
	case *ast.Binary:
		return a.typeBinary(e, scope)
	case *ast.Unary:
		return a.typeUnary(e, scope)
	case *ast.Ternary:
		return a.typeTernary(e, scope)
	case *ast.Call:
		return a.typeCall(e, scope)
	case *ast.Member:
		return a.typeMember(e, scope)
	case *ast.Subscript:
		return a.typeSubscript(e, scope)
	case *ast.Make:
		return a.typeMake(e, scope)
	case *ast.ArrayLit:
		return a.typeArrayLit(e, scope)
	case *ast.InitListLit:
		a.fail(e.Span(), "init-list literal may only appear as the argument of 'make'")
		return ast.ExprType{}, false
	case *ast.LambdaLit:
		return a.typeLambdaLit(e, scope)
	default:
		a.fail(expr.Span(), "internal: unhandled expression kind %T", expr)
		return ast.ExprType{}, false
	}
}

func (a *Analyzer) typeIdent(id *ast.Ident, scope *ast.Scope) (ast.ExprType, bool) {
	candidates := scope.Lookup(id.Name)
	if len(candidates) == 0 {
		a.fail(id.Span(), "undefined name %q", id.Name)
		return ast.ExprType{}, false
	}
	//
	symID := candidates[0]
	//
	switch b := a.env.Arena.Get(symID).(type) {
	case *ast.ObjectBinding:
		b.MarkReferenced()
		id.Definition.Resolve(symID)
		a.captureIfNeeded(scope, b, symID)
		return b.Type, true
	case *ast.FuncBinding:
		b.MarkReferenced()
		id.Definition.Resolve(symID)
		return ast.NewValueType(ast.NewFunc(id.Span(), b.Params, b.Ret), ast.Let), true
	case *ast.LambdaBinding:
		b.MarkReferenced()
		id.Definition.Resolve(symID)
		return ast.NewValueType(ast.NewFunc(id.Span(), b.Params, b.Ret), ast.Let), true
	default:
		a.fail(id.Span(), "%q does not denote a value", id.Name)
		return ast.ExprType{}, false
	}
}

func (a *Analyzer) typeBinary(b *ast.Binary, scope *ast.Scope) (ast.ExprType, bool) {
	left, ok := a.typeExpr(b.Left, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	right, ok := a.typeExpr(b.Right, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	lc, ok := a.concreteType(left.Type, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	rc, ok := a.concreteType(right.Type, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	switch {
	case b.Op.IsBoolCategory():
		if !isBuiltinKind(lc, ast.Bool) || !isBuiltinKind(rc, ast.Bool) {
			a.fail(b.Span(), "operator requires bool operands")
			return ast.ExprType{}, false
		}
		//
		return ast.NewValueType(ast.NewBuiltin(b.Span(), ast.Bool), ast.Let), true
	case b.Op.IsBitwiseCategory():
		if !builtinSatisfies(lc, ast.BuiltinKind.IsBitwise) || !lc.Equal(rc) {
			a.fail(b.Span(), "bitwise operator requires matching byte/uint operands")
			return ast.ExprType{}, false
		}
		//
		return ast.NewValueType(lc, ast.Let), true
	case b.Op.IsArithmeticCategory():
		if !builtinSatisfies(lc, ast.BuiltinKind.IsArithmetic) || !lc.Equal(rc) {
			a.fail(b.Span(), "arithmetic operator requires matching char/real/sint/uint operands")
			return ast.ExprType{}, false
		}
		//
		return ast.NewValueType(lc, ast.Let), true
	case b.Op.IsComparisonCategory():
		if !lc.Equal(rc) {
			a.fail(b.Span(), "comparison operands must have the same type")
			return ast.ExprType{}, false
		}
		//
		return ast.NewValueType(ast.NewBuiltin(b.Span(), ast.Bool), ast.Let), true
	default:
		a.fail(b.Span(), "internal: unhandled binary operator")
		return ast.ExprType{}, false
	}
}

func (a *Analyzer) typeUnary(u *ast.Unary, scope *ast.Scope) (ast.ExprType, bool) {
	operand, ok := a.typeExpr(u.Operand, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	c, ok := a.concreteType(operand.Type, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	switch u.Op {
	case ast.Not:
		if !isBuiltinKind(c, ast.Bool) {
			a.fail(u.Span(), "'!' requires a bool operand")
			return ast.ExprType{}, false
		}
		//
		return ast.NewValueType(ast.NewBuiltin(u.Span(), ast.Bool), ast.Let), true
	case ast.BitNot:
		if !builtinSatisfies(c, ast.BuiltinKind.IsBitwise) {
			a.fail(u.Span(), "'~' requires a byte/uint operand")
			return ast.ExprType{}, false
		}
		//
		return ast.NewValueType(c, ast.Let), true
	case ast.Neg:
		if !builtinSatisfies(c, ast.BuiltinKind.IsArithmetic) {
			a.fail(u.Span(), "unary '-' requires a char/real/sint/uint operand")
			return ast.ExprType{}, false
		}
		//
		return ast.NewValueType(c, ast.Let), true
	default:
		a.fail(u.Span(), "internal: unhandled unary operator")
		return ast.ExprType{}, false
	}
}

func (a *Analyzer) typeTernary(t *ast.Ternary, scope *ast.Scope) (ast.ExprType, bool) {
	cond, ok := a.typeExpr(t.Cond, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	cc, ok := a.concreteType(cond.Type, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	if !isBuiltinKind(cc, ast.Bool) {
		a.fail(t.Cond.Span(), "ternary condition must be bool")
		return ast.ExprType{}, false
	}
	//
	then, ok := a.typeExpr(t.Then, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	els, ok := a.typeExpr(t.Else, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	if !a.typesEqual(then.Type, els.Type, scope) {
		a.fail(t.Span(), "ternary branches must have the same type")
		return ast.ExprType{}, false
	}
	//
	return ast.NewValueType(then.Type, ast.Let), true
}

func (a *Analyzer) typeArrayLit(lit *ast.ArrayLit, scope *ast.Scope) (ast.ExprType, bool) {
	if len(lit.Elems) == 0 {
		a.fail(lit.Span(), "cannot infer the element type of an empty array literal")
		return ast.ExprType{}, false
	}
	//
	first, ok := a.typeExpr(lit.Elems[0], scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	for _, elem := range lit.Elems[1:] {
		t, ok := a.typeExpr(elem, scope)
		if !ok {
			return ast.ExprType{}, false
		}
		//
		if !a.typesEqual(first.Type, t.Type, scope) {
			a.fail(elem.Span(), "array literal elements must have the same type")
			return ast.ExprType{}, false
		}
	}
	//
	return ast.NewValueType(ast.NewArray(lit.Span(), first.Type), ast.Let), true
}

// structFieldsOf returns the field list of concrete's underlying aggregate
// shape, for member access, init-list construction, and the receiver/field
// collision check.
func structFieldsOf(concrete ast.Type) ([]ast.StructField, bool) {
	switch t := concrete.(type) {
	case *ast.Struct:
		return t.Fields, true
	case *ast.User:
		fields := make([]ast.StructField, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = ast.StructField{Name: f.Name, Type: f.Type}
		}
		//
		return fields, true
	case *ast.Named:
		if alias, ok := t.Resolved.(*ast.TypeAliasBinding); ok {
			return structFieldsOf(alias.Of)
		}
	}
	//
	return nil, false
}

func (a *Analyzer) typeMember(m *ast.Member, scope *ast.Scope) (ast.ExprType, bool) {
	object, ok := a.typeExpr(m.Object, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	concrete, ok := a.concreteType(object.Type, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	fields, ok := structFieldsOf(concrete)
	if !ok {
		a.fail(m.Span(), "member access requires a struct-shaped operand")
		return ast.ExprType{}, false
	}
	//
	for i, f := range fields {
		if f.Name == m.Field {
			m.FieldIndex = i
			return ast.ExprType{Type: f.Type, Mutability: object.Mutability, Binding: object.Binding}, true
		}
	}
	//
	a.fail(m.Span(), "no field %q", m.Field)
	return ast.ExprType{}, false
}

func (a *Analyzer) typeSubscript(s *ast.Subscript, scope *ast.Scope) (ast.ExprType, bool) {
	object, ok := a.typeExpr(s.Object, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	concrete, ok := a.concreteType(object.Type, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	arr, ok := concrete.(*ast.Array)
	if !ok {
		a.fail(s.Span(), "subscript requires an array operand")
		return ast.ExprType{}, false
	}
	//
	index, ok := a.typeExpr(s.Index, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	ic, ok := a.concreteType(index.Type, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	if !isBuiltinKind(ic, ast.Uint) && !isBuiltinKind(ic, ast.Sint) {
		a.fail(s.Index.Span(), "subscript index must be sint or uint")
		return ast.ExprType{}, false
	}
	//
	return ast.ExprType{Type: arr.Elem, Mutability: object.Mutability, Binding: object.Binding}, true
}

func (a *Analyzer) typeMake(m *ast.Make, scope *ast.Scope) (ast.ExprType, bool) {
	if !a.resolveType(m.TargetType, scope) {
		return ast.ExprType{}, false
	}
	//
	if m.Arg == nil {
		return ast.NewValueType(m.TargetType, ast.Let), true
	}
	//
	concrete, ok := a.concreteType(m.TargetType, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	if il, ok := m.Arg.(*ast.InitListLit); ok {
		return a.typeAggregateConstruct(m, concrete, il, scope)
	}
	//
	arg, ok := a.typeExpr(m.Arg, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	argConcrete, ok := a.concreteType(arg.Type, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	if targetB, tok := concrete.(*ast.Builtin); tok {
		argB, aok := argConcrete.(*ast.Builtin)
		if !aok || targetB.Kind == ast.Void || targetB.Kind == ast.Opaq ||
			argB.Kind == ast.Void || argB.Kind == ast.Opaq {
			a.fail(m.Span(), "'make' cast requires two non-void, non-opaque builtin types")
			return ast.ExprType{}, false
		}
		//
		return ast.NewValueType(m.TargetType, ast.Let), true
	}
	//
	// Single-argument aggregate construction: a copy of a value of the same
	// type.
	if !a.typesEqual(m.TargetType, arg.Type, scope) {
		a.fail(m.Span(), "'make' construction argument must match the target type")
		return ast.ExprType{}, false
	}
	//
	return ast.NewValueType(m.TargetType, ast.Let), true
}

func (a *Analyzer) typeAggregateConstruct(m *ast.Make, concrete ast.Type, il *ast.InitListLit, scope *ast.Scope) (ast.ExprType, bool) {
	switch t := concrete.(type) {
	case *ast.Array:
		for _, elem := range il.Elems {
			et, ok := a.typeExpr(elem, scope)
			if !ok {
				return ast.ExprType{}, false
			}
			//
			if !a.typesEqual(t.Elem, et.Type, scope) {
				a.fail(elem.Span(), "array element does not match %v", t.Elem)
				return ast.ExprType{}, false
			}
		}
		//
		return ast.NewValueType(m.TargetType, ast.Let), true
	default:
		fields, ok := structFieldsOf(concrete)
		if !ok {
			a.fail(m.Span(), "'make' with a brace initializer requires an array or struct-shaped target")
			return ast.ExprType{}, false
		}
		//
		if len(fields) != len(il.Elems) {
			a.fail(m.Span(), "expected %d field initializers, got %d", len(fields), len(il.Elems))
			return ast.ExprType{}, false
		}
		//
		for i, elem := range il.Elems {
			et, ok := a.typeExpr(elem, scope)
			if !ok {
				return ast.ExprType{}, false
			}
			//
			if !a.typesEqual(fields[i].Type, et.Type, scope) {
				a.fail(elem.Span(), "field %q does not match its declared type", fields[i].Name)
				return ast.ExprType{}, false
			}
		}
		//
		return ast.NewValueType(m.TargetType, ast.Let), true
	}
}

// isBuiltinKind reports whether t is the builtin kind k.
func isBuiltinKind(t ast.Type, k ast.BuiltinKind) bool {
	b, ok := t.(*ast.Builtin)
	return ok && b.Kind == k
}

// builtinSatisfies reports whether t is a builtin whose kind satisfies pred.
func builtinSatisfies(t ast.Type, pred func(ast.BuiltinKind) bool) bool {
	b, ok := t.(*ast.Builtin)
	return ok && pred(b.Kind)
}

func (a *Analyzer) typeLambdaLit(lit *ast.LambdaLit, scope *ast.Scope) (ast.ExprType, bool) {
	for i := range lit.Params {
		if !a.resolveType(lit.Params[i].Type, scope) {
			return ast.ExprType{}, false
		}
	}
	//
	if !a.resolveType(lit.Ret, scope) {
		return ast.ExprType{}, false
	}
	//
	params := paramsOf(lit.Params)
	binding := ast.NewLambdaBinding(params, lit.Ret)
	id := a.env.Arena.Alloc(binding)
	lit.Binding = id
	//
	closureScope := ast.NewScope(ast.ClosureScope, scope.Module(), scope)
	closureScope.SetOwner(id)
	binding.Scope = closureScope
	//
	a.declareParams(closureScope, nil, lit.Params)
	//
	if !a.analyzeFuncBody(lit.Body, closureScope, lit.Ret) {
		return ast.ExprType{}, false
	}
	//
	return ast.NewValueType(ast.NewFunc(lit.Span(), params, lit.Ret), ast.Let), true
}

// callable reports whether every argument in args is callable against the
// corresponding formal in params (§3, common-call rule), after a length
// check.
func callable(params []ast.Param, args []ast.ExprType) bool {
	if len(params) != len(args) {
		return false
	}
	//
	for i, p := range params {
		if !ast.Callable(paramExprType(p), args[i]) {
			return false
		}
	}
	//
	return true
}

func (a *Analyzer) typeArgs(args []ast.Expr, scope *ast.Scope) ([]ast.ExprType, bool) {
	types := make([]ast.ExprType, len(args))
	//
	for i, arg := range args {
		t, ok := a.typeExpr(arg, scope)
		if !ok {
			return nil, false
		}
		//
		types[i] = t
	}
	//
	return types, true
}

// typeCall implements §4.4.3's four-way call dispatch.
func (a *Analyzer) typeCall(call *ast.Call, scope *ast.Scope) (ast.ExprType, bool) {
	args, ok := a.typeArgs(call.Args, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	if member, ok := call.Callee.(*ast.Member); ok {
		return a.typeQualifiedCall(call, member, args, scope)
	}
	//
	if ident, ok := call.Callee.(*ast.Ident); ok {
		return a.typeNamedCall(call, ident, args, scope)
	}
	//
	return a.typeIndirectCall(call, call.Callee, args, scope)
}

func (a *Analyzer) typeQualifiedCall(call *ast.Call, member *ast.Member, args []ast.ExprType, scope *ast.Scope) (ast.ExprType, bool) {
	object, ok := a.typeExpr(member.Object, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	for _, id := range scope.Lookup(member.Field) {
		fb, ok := a.env.Arena.Get(id).(*ast.FuncBinding)
		if !ok || fb.Receiver == nil {
			continue
		}
		//
		if !ast.Callable(paramExprType(*fb.Receiver), object) {
			continue
		}
		//
		if !callable(fb.Params, args) {
			continue
		}
		//
		fb.MarkReferenced()
		call.Definition.Resolve(id)
		//
		return ast.NewValueType(fb.Ret, ast.Let), true
	}
	//
	a.fail(call.Span(), "no matching function %q for this receiver", member.Field)
	return ast.ExprType{}, false
}

func (a *Analyzer) typeNamedCall(call *ast.Call, ident *ast.Ident, args []ast.ExprType, scope *ast.Scope) (ast.ExprType, bool) {
	candidates := scope.Lookup(ident.Name)
	//
	for _, id := range candidates {
		fb, ok := a.env.Arena.Get(id).(*ast.FuncBinding)
		if !ok || fb.Receiver != nil {
			continue
		}
		//
		if !callable(fb.Params, args) {
			continue
		}
		//
		fb.MarkReferenced()
		ident.Definition.Resolve(id)
		call.Definition.Resolve(id)
		//
		return ast.NewValueType(fb.Ret, ast.Let), true
	}
	//
	for _, id := range candidates {
		bf, ok := a.env.Arena.Get(id).(*ast.BuiltinFuncBinding)
		if !ok {
			continue
		}
		//
		return a.typeBuiltinCall(call, bf, id, ident, args, scope)
	}
	//
	for _, id := range candidates {
		ob, ok := a.env.Arena.Get(id).(*ast.ObjectBinding)
		if !ok {
			continue
		}
		//
		concrete, ok := a.concreteType(ob.Type.Type, scope)
		if !ok {
			return ast.ExprType{}, false
		}
		//
		fn, ok := concrete.(*ast.Func)
		if !ok || !callable(fn.Params, args) {
			continue
		}
		//
		ob.MarkReferenced()
		ident.Definition.Resolve(id)
		a.captureIfNeeded(scope, ob, id)
		call.Indirect = true
		//
		return ast.NewValueType(fn.Ret, ast.Let), true
	}
	//
	a.fail(call.Span(), "undefined function %q", ident.Name)
	return ast.ExprType{}, false
}

// typeBuiltinCall type-checks a call dispatched to a builtin generic
// operation. `size([T]) -> uint` is the only one the specification names.
func (a *Analyzer) typeBuiltinCall(call *ast.Call, bf *ast.BuiltinFuncBinding, id ast.SymbolId, ident *ast.Ident, args []ast.ExprType, scope *ast.Scope) (ast.ExprType, bool) {
	switch bf.Op {
	case ast.OpSize:
		if len(args) != 1 {
			a.fail(call.Span(), "'size' takes exactly one argument")
			return ast.ExprType{}, false
		}
		//
		concrete, ok := a.concreteType(args[0].Type, scope)
		if !ok {
			return ast.ExprType{}, false
		}
		//
		if _, ok := concrete.(*ast.Array); !ok {
			a.fail(call.Span(), "'size' requires an array argument")
			return ast.ExprType{}, false
		}
		//
		ident.Definition.Resolve(id)
		call.Definition.Resolve(id)
		//
		return ast.NewValueType(ast.NewBuiltin(call.Span(), ast.Uint), ast.Let), true
	default:
		a.fail(call.Span(), "internal: unhandled builtin operation")
		return ast.ExprType{}, false
	}
}

func (a *Analyzer) typeIndirectCall(call *ast.Call, callee ast.Expr, args []ast.ExprType, scope *ast.Scope) (ast.ExprType, bool) {
	calleeType, ok := a.typeExpr(callee, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	concrete, ok := a.concreteType(calleeType.Type, scope)
	if !ok {
		return ast.ExprType{}, false
	}
	//
	fn, ok := concrete.(*ast.Func)
	if !ok {
		a.fail(call.Span(), "callee is not a function")
		return ast.ExprType{}, false
	}
	//
	if !callable(fn.Params, args) {
		a.fail(call.Span(), "no matching signature for this call")
		return ast.ExprType{}, false
	}
	//
	call.Indirect = true
	//
	return ast.NewValueType(fn.Ret, ast.Let), true
}
