package codegen

import (
	"strconv"
	"strings"

	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/backend"
)

// closure struct field order, matching lifetime/closure.go's unexported
// closureFieldFn/closureFieldEnv constants (types.go's lowerFunc builds the
// {fn, env} struct in exactly this order so the two packages agree).
const (
	closureFieldFn  = 0
	closureFieldEnv = 1
)

func isBuiltin(t ast.Type) bool {
	_, ok := underlying(t).(*ast.Builtin)
	return ok
}

func isVoidBuiltin(t ast.Type) bool {
	b, ok := underlying(t).(*ast.Builtin)
	return ok && b.Kind == ast.Void
}

// isPlace reports whether e denotes existing, addressable storage — an
// Ident naming a variable/parameter/capture, a Member, or a Subscript.
// An Ident naming a function/lambda directly is NOT a place: it has no
// storage of its own, so it is lowered as a prvalue constructing a fresh
// closure value (§4.4.3's typeIdent resolves a bare function name to its
// FuncBinding/LambdaBinding directly, not to an ObjectBinding).
func (fg *funcGen) isPlace(e ast.Expr) bool {
	switch id := e.(type) {
	case *ast.Ident:
		_, ok := fg.g.env.Arena.Get(id.Definition.Id()).(*ast.ObjectBinding)
		return ok
	case *ast.Member, *ast.Subscript:
		return true
	}
	return false
}

// genAddress returns e's address: e's own stable storage if it's a place,
// or a fresh temporary it was materialized into otherwise.
func (fg *funcGen) genAddress(e ast.Expr) backend.Value {
	switch ex := e.(type) {
	case *ast.Ident:
		if addr, ok := fg.identPlace(ex); ok {
			return addr
		}
	case *ast.Member:
		return fg.memberAddress(ex)
	case *ast.Subscript:
		return fg.subscriptAddress(ex)
	}

	t := e.ResolvedType().Type
	tmp := fg.cur.Alloca(fg.g.types.lower(t))
	fg.genRawValueInto(tmp, e, t)
	return tmp
}

// identPlace resolves an Ident naming an ObjectBinding to its stable
// storage address (a local, a relayed capture, or a module global).
func (fg *funcGen) identPlace(id *ast.Ident) (backend.Value, bool) {
	symID := id.Definition.Id()
	ob, ok := fg.g.env.Arena.Get(symID).(*ast.ObjectBinding)
	if !ok {
		return nil, false
	}
	if addr, ok := fg.locals[ob]; ok {
		return addr, true
	}
	if addr, ok := fg.g.globals[symID]; ok {
		return addr, true
	}
	panic("codegen: identifier resolved to an ObjectBinding with no known address")
}

// memberAddress lowers `object.field`: a struct field is a direct
// FieldPtr; a User (opaque FFI) field has no struct shape to index by
// field number, so it's reached by byte-offset pointer arithmetic over the
// object's storage instead.
func (fg *funcGen) memberAddress(m *ast.Member) backend.Value {
	objT := underlying(m.Object.ResolvedType().Type)
	objAddr := fg.genAddress(m.Object)

	if u, ok := objT.(*ast.User); ok {
		f := u.Fields[m.FieldIndex]
		fieldT := fg.g.types.lower(f.Type)
		byteT := fg.g.mod.IntType(8, false)
		bytePtr := fg.cur.Convert(objAddr, fg.g.mod.PointerType(byteT))
		i64T := fg.g.mod.IntType(64, true)
		off := fg.cur.ElemPtr(bytePtr, fg.cur.ConstInt(i64T, int64(f.Offset)))
		return fg.cur.Convert(off, fg.g.mod.PointerType(fieldT))
	}

	return fg.cur.FieldPtr(objAddr, m.FieldIndex)
}

// genValue returns e as an opaque Value — a properly refcount-bumped copy
// for an aggregate place, a plain Load for a builtin place, or a freshly
// materialized prvalue. Used wherever an actual Value (not a destination
// address) is structurally required: call arguments passed by value,
// scalar operator operands, conditions.
func (fg *funcGen) genValue(e ast.Expr) backend.Value {
	t := e.ResolvedType().Type
	bt := fg.g.types.lower(t)

	if fg.isPlace(e) {
		addr := fg.genAddress(e)
		if isBuiltin(t) {
			return fg.cur.Load(addr)
		}
		tmp := fg.cur.Alloca(bt)
		fg.g.lt.CopyConstruct(fg.cur, t, tmp, addr)
		return fg.cur.Load(tmp)
	}

	tmp := fg.cur.Alloca(bt)
	fg.genRawValueInto(tmp, e, t)
	return fg.cur.Load(tmp)
}

// genConstructInto builds e's value directly into the uninitialized
// storage dst: a copy-construct for a place, destination-passing
// construction otherwise.
func (fg *funcGen) genConstructInto(dst backend.Value, e ast.Expr, t ast.Type) {
	if fg.isPlace(e) {
		fg.g.lt.CopyConstruct(fg.cur, t, dst, fg.genAddress(e))
		return
	}
	fg.genRawValueInto(dst, e, t)
}

// genAssignInto overwrites dst's already-live value with e's: a copy-
// assign for a place (destroys dst's old value, then copy-constructs),
// or — for a prvalue — destroying the old value and constructing the new
// one directly in place, avoiding an extra temporary/move.
func (fg *funcGen) genAssignInto(dst backend.Value, e ast.Expr, t ast.Type) {
	if fg.isPlace(e) {
		fg.g.lt.CopyAssign(fg.cur, t, dst, fg.genAddress(e))
		return
	}
	fg.g.lt.Destroy(fg.cur, t, dst)
	fg.genRawValueInto(dst, e, t)
}

// genRawValueInto builds a non-place expression's value directly into dst
// (true destination-passing style — no intermediate temp-then-Store).
func (fg *funcGen) genRawValueInto(dst backend.Value, e ast.Expr, t ast.Type) {
	switch ex := e.(type) {
	case *ast.NumberLit:
		fg.cur.Store(dst, fg.numberLitValue(ex, t))
	case *ast.BoolLit:
		v := int64(0)
		if ex.Value {
			v = 1
		}
		fg.cur.Store(dst, fg.cur.ConstInt(fg.g.types.lower(t), v))
	case *ast.CharLit:
		fg.cur.Store(dst, fg.cur.ConstInt(fg.g.types.lower(t), int64(ex.Value)))
	case *ast.StringLit:
		fg.genStringLitInto(dst, ex)
	case *ast.ArrayLit:
		fg.genArrayLitInto(dst, ex, t)
	case *ast.InitListLit:
		fg.genInitListInto(dst, ex, t)
	case *ast.Binary:
		fg.cur.Store(dst, fg.genBinary(ex))
	case *ast.Unary:
		fg.cur.Store(dst, fg.genUnary(ex))
	case *ast.Ternary:
		fg.genTernaryInto(dst, ex, t)
	case *ast.Make:
		fg.genMakeInto(dst, ex, t)
	case *ast.Call:
		fg.cur.Store(dst, fg.genCall(ex))
	case *ast.LambdaLit:
		fg.genLambdaInto(dst, ex)
	case *ast.Ident:
		// A bare function/lambda name: construct a non-capturing closure
		// value referencing it (§4.4.3's Ident-as-FuncBinding case).
		fg.genFuncRefInto(dst, ex)
	default:
		panic("codegen: cannot lower expression as a prvalue")
	}
}

func (fg *funcGen) numberLitValue(lit *ast.NumberLit, t ast.Type) backend.Value {
	text := lit.Text
	bt := fg.g.types.lower(t)
	b, _ := underlying(t).(*ast.Builtin)
	if b != nil && b.Kind == ast.Real {
		f, _ := strconv.ParseFloat(text, 64)
		return fg.cur.ConstFloat(bt, f)
	}
	trimmed := strings.TrimSuffix(strings.TrimSuffix(text, "u"), "U")
	n, _ := strconv.ParseInt(trimmed, 0, 64)
	return fg.cur.ConstInt(bt, n)
}

func (fg *funcGen) genStringLitInto(dst backend.Value, s *ast.StringLit) {
	runes := []rune(s.Value)
	charT := fg.g.types.lower(ast.NewBuiltin(s.Span(), ast.Char))
	elems := make([]backend.Value, len(runes))
	for i, r := range runes {
		elems[i] = fg.cur.ConstInt(charT, int64(r))
	}
	fg.buildArrayInto(dst, charT, elems)
}

func (fg *funcGen) genArrayLitInto(dst backend.Value, lit *ast.ArrayLit, t ast.Type) {
	arr := underlying(t).(*ast.Array)
	elemT := fg.g.types.lower(arr.Elem)
	fg.buildArrayElemsInto(dst, arr.Elem, elemT, lit.Elems)
}

// buildArrayInto builds a fresh array from already-lowered scalar element
// values (used for string literals, whose char elements need no
// per-element lifetime dispatch).
func (fg *funcGen) buildArrayInto(dst backend.Value, elemT backend.Type, elems []backend.Value) {
	i64T := fg.g.mod.IntType(64, true)
	n := len(elems)
	if n == 0 {
		hdrPtrT := dst.Type()
		fg.cur.Store(dst, fg.cur.ConstNull(elemPtrElemOf(hdrPtrT)))
		return
	}

	hdrPtrT := elemPtrElemOf(dst.Type())
	hdr := fg.allocArrayHeader(hdrPtrT, int64(n))
	data := fg.cur.Convert(fg.cur.HeapAlloc(fg.cur.ConstInt(i64T, int64(n))), fg.g.mod.PointerType(elemT))
	for i, v := range elems {
		fg.cur.Store(fg.cur.ElemPtr(data, fg.cur.ConstInt(i64T, int64(i))), v)
	}
	fg.cur.Store(fg.cur.FieldPtr(hdr, arrHeaderData), data)
	fg.cur.Store(dst, hdr)
}

// elemPtrElemOf returns a pointer type's pointee type — used here to read
// back the header pointer type dst (itself `*header`) was declared with.
func elemPtrElemOf(t backend.Type) backend.Type {
	type elemer interface{ Elem() backend.Type }
	if e, ok := t.(elemer); ok {
		return e.Elem()
	}
	return t
}

// allocArrayHeader heap-allocates and populates a fresh array header
// (refcount 1, len=cap=n, data filled in by the caller) of hdrPtrT's
// pointee shape.
func (fg *funcGen) allocArrayHeader(hdrPtrT backend.Type, n int64) backend.Value {
	i64T := fg.g.mod.IntType(64, true)
	hdr := fg.cur.Convert(fg.cur.HeapAlloc(fg.cur.ConstInt(i64T, 4)), hdrPtrT)
	fg.cur.Store(fg.cur.FieldPtr(hdr, arrHeaderRefcount), fg.cur.ConstInt(i64T, 1))
	fg.cur.Store(fg.cur.FieldPtr(hdr, arrHeaderLen), fg.cur.ConstInt(i64T, n))
	fg.cur.Store(fg.cur.FieldPtr(hdr, arrHeaderCap), fg.cur.ConstInt(i64T, n))
	return hdr
}

// buildArrayElemsInto constructs each element via the normal place/prvalue
// construction rule (so an array-of-array or array-of-struct element is
// itself properly copy-constructed/built in place, bumping any nested
// refcounts exactly once).
func (fg *funcGen) buildArrayElemsInto(dst backend.Value, elemType ast.Type, elemT backend.Type, elems []ast.Expr) {
	i64T := fg.g.mod.IntType(64, true)
	n := len(elems)
	hdrPtrT := elemPtrElemOf(dst.Type())
	if n == 0 {
		fg.cur.Store(dst, fg.cur.ConstNull(hdrPtrT))
		return
	}

	hdr := fg.allocArrayHeader(hdrPtrT, int64(n))
	data := fg.cur.Convert(fg.cur.HeapAlloc(fg.cur.ConstInt(i64T, int64(n))), fg.g.mod.PointerType(elemT))
	for i, el := range elems {
		slot := fg.cur.ElemPtr(data, fg.cur.ConstInt(i64T, int64(i)))
		fg.genConstructInto(slot, el, elemType)
	}
	fg.cur.Store(fg.cur.FieldPtr(hdr, arrHeaderData), data)
	fg.cur.Store(dst, hdr)
}

func (fg *funcGen) genInitListInto(dst backend.Value, il *ast.InitListLit, t ast.Type) {
	fields, _ := structFieldsOf(underlying(t))
	for i, el := range il.Elems {
		slot := fg.cur.FieldPtr(dst, i)
		fg.genConstructInto(slot, el, fields[i].Type)
	}
}

// structFieldsOf mirrors sema's own field-listing rule for Struct/User
// targets — duplicated here (not exported by sema) since codegen needs the
// same field order to zip against an InitListLit's positional elements.
func structFieldsOf(t ast.Type) ([]ast.StructField, bool) {
	switch s := t.(type) {
	case *ast.Struct:
		return s.Fields, true
	case *ast.User:
		fields := make([]ast.StructField, len(s.Fields))
		for i, f := range s.Fields {
			fields[i] = ast.StructField{Name: f.Name, Type: f.Type}
		}
		return fields, true
	}
	return nil, false
}

func (fg *funcGen) genTernaryInto(dst backend.Value, te *ast.Ternary, t ast.Type) {
	cond := fg.genValue(te.Cond)
	thenB := fg.fn.NewBlock("ternary.then")
	elseB := fg.fn.NewBlock("ternary.else")
	endB := fg.fn.NewBlock("ternary.end")
	fg.cur.CondBr(cond, thenB, elseB)

	fg.cur = thenB
	fg.genConstructInto(dst, te.Then, t)
	fg.cur.Br(endB)

	fg.cur = elseB
	fg.genConstructInto(dst, te.Else, t)
	fg.cur.Br(endB)

	fg.cur = endB
}

// genMakeInto lowers `make T` / `make T(arg)` / `make T{...}` (§6):
// zero-argument default-construction, a builtin numeric cast, a single-
// argument same-type copy, or (via its own InitListLit/ArrayLit cases)
// aggregate brace-construction.
func (fg *funcGen) genMakeInto(dst backend.Value, m *ast.Make, t ast.Type) {
	if m.Arg == nil {
		fg.g.lt.DefaultConstruct(fg.cur, t, dst)
		return
	}
	if il, ok := m.Arg.(*ast.InitListLit); ok {
		// `make [T]{e1, e2, ...}` is the brace form of aggregate
		// construction (§6), and an array target takes it the same way
		// `[e1, e2, ...]` does — structFieldsOf only knows Struct/User
		// field layouts, not array element layout.
		if arr, ok := underlying(t).(*ast.Array); ok {
			elemT := fg.g.types.lower(arr.Elem)
			fg.buildArrayElemsInto(dst, arr.Elem, elemT, il.Elems)
			return
		}
		fg.genInitListInto(dst, il, t)
		return
	}
	if al, ok := m.Arg.(*ast.ArrayLit); ok {
		fg.genArrayLitInto(dst, al, t)
		return
	}

	if isBuiltin(t) {
		v := fg.genValue(m.Arg)
		fg.cur.Store(dst, fg.cur.Convert(v, fg.g.types.lower(t)))
		return
	}

	// Single-argument aggregate construction: a copy of a same-typed value.
	fg.genConstructInto(dst, m.Arg, t)
}

func (fg *funcGen) genFuncRefInto(dst backend.Value, id *ast.Ident) {
	fn := fg.resolveNamedFunc(id.Definition.Id())
	fg.cur.Store(fg.cur.FieldPtr(dst, closureFieldFn), fn)
	envPtrT := fg.g.lt.EnvHeaderPtrType()
	fg.cur.Store(fg.cur.FieldPtr(dst, closureFieldEnv), fg.cur.ConstNull(envPtrT))
}

func (fg *funcGen) resolveNamedFunc(id ast.SymbolId) backend.Function {
	fn, ok := fg.g.funcs[id]
	if !ok {
		panic("codegen: reference to an undeclared function")
	}
	return fn
}

// genBinary lowers a scalar (builtin-only) binary operator: short-circuit
// boolean operators as a branching diamond, comparisons routed through
// lifetime's Eq/Lt with algebraic derivation for the other five relations,
// everything else a direct backend BinOp.
func (fg *funcGen) genBinary(b *ast.Binary) backend.Value {
	if b.Op == ast.LogAnd || b.Op == ast.LogOr {
		return fg.genShortCircuit(b)
	}
	if b.Op.IsComparisonCategory() {
		return fg.genComparison(b)
	}

	lhs := fg.genValue(b.Left)
	rhs := fg.genValue(b.Right)
	if op, ok := shiftOrBitwise(b.Op); ok {
		return fg.cur.BinOp(op, lhs, rhs)
	}
	return fg.cur.BinOp(arithmeticOp(b.Op), lhs, rhs)
}

func shiftOrBitwise(op ast.BinOp) (backend.BinOp, bool) {
	switch op {
	case ast.BitOr:
		return backend.Or, true
	case ast.BitXor:
		return backend.Xor, true
	case ast.BitAnd:
		return backend.And, true
	case ast.ShiftL:
		return backend.Shl, true
	case ast.ShiftR:
		return backend.Shr, true
	}
	return 0, false
}

func arithmeticOp(op ast.BinOp) backend.BinOp {
	switch op {
	case ast.Add:
		return backend.Add
	case ast.Sub:
		return backend.Sub
	case ast.Mul:
		return backend.Mul
	case ast.Div:
		return backend.Div
	case ast.Mod:
		return backend.Mod
	}
	panic("codegen: not an arithmetic operator")
}

// genShortCircuit lowers && / || as a branching diamond rather than an
// eager BinOp, so the right operand's side effects don't run when the
// left operand already decides the result.
func (fg *funcGen) genShortCircuit(b *ast.Binary) backend.Value {
	boolT := fg.g.types.lower(ast.NewBuiltin(b.Span(), ast.Bool))
	result := fg.cur.Alloca(boolT)

	lhs := fg.genValue(b.Left)
	rhsB := fg.fn.NewBlock("shortcircuit.rhs")
	skipB := fg.fn.NewBlock("shortcircuit.skip")
	doneB := fg.fn.NewBlock("shortcircuit.done")

	if b.Op == ast.LogAnd {
		fg.cur.CondBr(lhs, rhsB, skipB)
	} else {
		fg.cur.CondBr(lhs, skipB, rhsB)
	}
	skipB.Store(result, lhs)
	skipB.Br(doneB)

	fg.cur = rhsB
	rhs := fg.genValue(b.Right)
	fg.cur.Store(result, rhs)
	fg.cur.Br(doneB)

	fg.cur = doneB
	return doneB.Load(result)
}

// genComparison routes equality/order operators through
// lifetime.Emitter.EqOp/LtOp, which take addresses and dispatch per the
// operand type's category (builtin Cmp, aggregate structural comparison,
// or an instantiated user/array/struct routine) — every relation other
// than == and < is derived algebraically so lifetime only needs to build
// two comparison instances per type.
func (fg *funcGen) genComparison(b *ast.Binary) backend.Value {
	t := b.Left.ResolvedType().Type
	lhs := fg.genAddress(b.Left)
	rhs := fg.genAddress(b.Right)

	switch b.Op {
	case ast.CmpEq:
		return fg.g.lt.EqOp(fg.cur, t, lhs, rhs)
	case ast.CmpNeq:
		eq := fg.g.lt.EqOp(fg.cur, t, lhs, rhs)
		return fg.cur.UnOp(backend.Not, eq)
	case ast.CmpLt:
		return fg.g.lt.LtOp(fg.cur, t, lhs, rhs)
	case ast.CmpGt:
		return fg.g.lt.LtOp(fg.cur, t, rhs, lhs)
	case ast.CmpLtEq:
		gt := fg.g.lt.LtOp(fg.cur, t, rhs, lhs)
		return fg.cur.UnOp(backend.Not, gt)
	case ast.CmpGtEq:
		lt := fg.g.lt.LtOp(fg.cur, t, lhs, rhs)
		return fg.cur.UnOp(backend.Not, lt)
	}
	panic("codegen: not a comparison operator")
}

func (fg *funcGen) genUnary(u *ast.Unary) backend.Value {
	v := fg.genValue(u.Operand)
	switch u.Op {
	case ast.Neg:
		return fg.cur.UnOp(backend.Neg, v)
	case ast.Not:
		return fg.cur.UnOp(backend.Not, v)
	case ast.BitNot:
		return fg.cur.UnOp(backend.BitNot, v)
	}
	panic("codegen: not a unary operator")
}
