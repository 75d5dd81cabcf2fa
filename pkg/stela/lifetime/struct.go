package lifetime

import (
	"fmt"

	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/backend"
)

// buildStructOp fills fn's body for one instantiated struct operation,
// dispatching field by field in declared order (reverse order for the
// destructor, so fields are torn down in the opposite order they were built
// in, mirroring LifetimeExpr's per-field struct handling).
func (e *Emitter) buildStructOp(fn backend.Function, entry backend.BasicBlock, op Operation, s *ast.Struct) {
	switch op {
	case DefaultCtor:
		dst := fn.Param(0)
		b := entry
		for i, f := range s.Fields {
			e.DefaultConstruct(b, f.Type, b.FieldPtr(dst, i))
		}
		b.RetVoid()
	case CopyCtor, CopyAssign, MoveCtor, MoveAssign:
		dst, src := fn.Param(0), fn.Param(1)
		b := entry
		for i, f := range s.Fields {
			dp, sp := b.FieldPtr(dst, i), b.FieldPtr(src, i)
			switch op {
			case CopyCtor:
				e.CopyConstruct(b, f.Type, dp, sp)
			case MoveCtor:
				e.MoveConstruct(b, f.Type, dp, sp)
			case CopyAssign:
				e.CopyAssign(b, f.Type, dp, sp)
			case MoveAssign:
				e.MoveAssign(b, f.Type, dp, sp)
			}
		}
		b.RetVoid()
	case Dtor:
		dst := fn.Param(0)
		b := entry
		for i := len(s.Fields) - 1; i >= 0; i-- {
			e.Destroy(b, s.Fields[i].Type, b.FieldPtr(dst, i))
		}
		b.RetVoid()
	case Eq:
		e.buildStructEq(fn, entry, s)
	case Lt:
		e.buildStructLt(fn, entry, s)
	default:
		panic(fmt.Sprintf("lifetime: struct types have no %v operation", op))
	}
}

// buildStructEq short-circuits on the first unequal field (§4.4.1's struct
// equality: fields compared pairwise, all must match).
func (e *Emitter) buildStructEq(fn backend.Function, entry backend.BasicBlock, s *ast.Struct) {
	boolT := e.mod.IntType(1, false)
	lhs, rhs := fn.Param(0), fn.Param(1)

	match := fn.NewBlock("eq.match")
	mismatch := fn.NewBlock("eq.mismatch")

	cur := entry
	if len(s.Fields) == 0 {
		cur.Br(match)
	}
	for i, f := range s.Fields {
		pl, pr := cur.FieldPtr(lhs, i), cur.FieldPtr(rhs, i)
		eqv := e.EqOp(cur, f.Type, pl, pr)
		if i == len(s.Fields)-1 {
			cur.CondBr(eqv, match, mismatch)
			cur.Likely(match)
		} else {
			next := fn.NewBlock(fmt.Sprintf("eq.%d", i))
			cur.CondBr(eqv, next, mismatch)
			cur.Likely(next)
			cur = next
		}
	}

	match.Ret(match.ConstInt(boolT, 1))
	mismatch.Ret(mismatch.ConstInt(boolT, 0))
}

// buildStructLt implements lexicographic field-order comparison: the first
// field that differs between lhs and rhs decides the result.
func (e *Emitter) buildStructLt(fn backend.Function, entry backend.BasicBlock, s *ast.Struct) {
	boolT := e.mod.IntType(1, false)
	lhs, rhs := fn.Param(0), fn.Param(1)

	trueB := fn.NewBlock("lt.true")
	falseB := fn.NewBlock("lt.false")

	cur := entry
	if len(s.Fields) == 0 {
		cur.Br(falseB)
	}
	for i, f := range s.Fields {
		pl, pr := cur.FieldPtr(lhs, i), cur.FieldPtr(rhs, i)
		ltLR := e.LtOp(cur, f.Type, pl, pr)
		if i == len(s.Fields)-1 {
			cur.CondBr(ltLR, trueB, falseB)
			continue
		}
		//
		gt := fn.NewBlock(fmt.Sprintf("lt.gt.%d", i))
		cur.CondBr(ltLR, trueB, gt)
		//
		ltRL := e.LtOp(gt, f.Type, pr, pl)
		next := fn.NewBlock(fmt.Sprintf("lt.next.%d", i))
		gt.CondBr(ltRL, falseB, next)
		cur = next
	}

	trueB.Ret(trueB.ConstInt(boolT, 1))
	falseB.Ret(falseB.ConstInt(boolT, 0))
}
