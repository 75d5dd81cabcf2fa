package codegen

import (
	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/backend"
)

// genCall lowers a Call expression to the Value it produces (void for a
// call whose return type is void — callers that need the result only call
// genCall where one is expected; genDiscard handles the void/side-effect-
// only case directly, in stmt.go).
func (fg *funcGen) genCall(call *ast.Call) backend.Value {
	if member, ok := call.Callee.(*ast.Member); ok && !call.Indirect {
		return fg.genQualifiedCall(call, member)
	}
	if call.Indirect {
		return fg.genIndirectCall(call)
	}

	bind := fg.g.env.Arena.Get(call.Definition.Id())
	if bf, ok := bind.(*ast.BuiltinFuncBinding); ok {
		return fg.genBuiltinCall(call, bf)
	}
	fb := bind.(*ast.FuncBinding)
	return fg.genDirectCall(call, fb, nil)
}

// genQualifiedCall lowers `receiver.method(args...)`: the receiver is
// prepended as the callee's first (possibly by-reference) argument.
func (fg *funcGen) genQualifiedCall(call *ast.Call, member *ast.Member) backend.Value {
	fb := fg.g.env.Arena.Get(call.Definition.Id()).(*ast.FuncBinding)
	return fg.genDirectCall(call, fb, member.Object)
}

// genDirectCall lowers a statically-resolved call (free function or
// method) to fb, with recv (nil for a free function) supplying the
// receiver argument.
func (fg *funcGen) genDirectCall(call *ast.Call, fb *ast.FuncBinding, recv ast.Expr) backend.Value {
	fn := fg.resolveNamedFunc(call.Definition.Id())

	var args []backend.Value
	if recv != nil && fb.Receiver != nil {
		args = append(args, fg.passArg(recv, *fb.Receiver))
	}
	for i, a := range call.Args {
		args = append(args, fg.passArg(a, fb.Params[i]))
	}

	return fg.cur.Call(fn, args)
}

// genIndirectCall lowers a call through a first-class function value: the
// callee is evaluated to its {fn, env} pair, and env is appended as the
// backend function's hidden trailing parameter (§4.6's closure ABI).
func (fg *funcGen) genIndirectCall(call *ast.Call) backend.Value {
	calleeT := underlying(call.Callee.ResolvedType().Type).(*ast.Func)
	closureAddr := fg.genAddress(call.Callee)
	fnVal := fg.cur.Load(fg.cur.FieldPtr(closureAddr, closureFieldFn))
	envVal := fg.cur.Load(fg.cur.FieldPtr(closureAddr, closureFieldEnv))

	var args []backend.Value
	for i, a := range call.Args {
		args = append(args, fg.passArg(a, calleeT.Params[i]))
	}
	args = append(args, envVal)

	sig := fg.g.lt.ClosureFnSigType(calleeT)
	return fg.cur.CallIndirect(fnVal, sig, args)
}

// genBuiltinCall lowers a call to a compiler builtin generic operation —
// `size([T]) -> uint` is the only one the language defines — inline,
// without a real call.
func (fg *funcGen) genBuiltinCall(call *ast.Call, bf *ast.BuiltinFuncBinding) backend.Value {
	switch bf.Op {
	case ast.OpSize:
		arg := call.Args[0]
		hdrPtrT := fg.g.types.lower(arg.ResolvedType().Type)
		arrAddr := fg.genAddress(arg)
		length := fg.genArrayLen(arrAddr, hdrPtrT)
		uintT := fg.g.types.lower(ast.NewBuiltin(call.Span(), ast.Uint))
		return fg.cur.Convert(length, uintT)
	}
	panic("codegen: unhandled builtin call")
}

// passArg lowers one call argument per its parameter's passing mode: a
// by-reference parameter receives the argument's address directly (no
// copy — the callee observes and may mutate the caller's own storage); a
// by-value parameter receives a Value the callee takes ownership of.
func (fg *funcGen) passArg(e ast.Expr, p ast.Param) backend.Value {
	if p.ByReference {
		return fg.genAddress(e)
	}
	return fg.genValue(e)
}
