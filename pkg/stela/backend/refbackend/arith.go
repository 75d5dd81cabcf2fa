package refbackend

import (
	"math"

	"github.com/stela-lang/stela/pkg/stela/backend"
)

// toInt coerces a scalar runtime value (int64, or a 0/1 bool encoded as
// int64) to a plain Go int, for use as an array/field index.
func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	//
	return 0
}

// toBool reports whether a scalar runtime value is non-zero (§4.5.2's
// builtin bool-conversion rule).
func toBool(v any) bool {
	switch n := v.(type) {
	case int64:
		return n != 0
	case float64:
		return n != 0
	case addrValue:
		return n.c != nil
	case *funcValue:
		return n.fn != nil
	case *function:
		return n != nil
	}
	//
	return false
}

func evalBinOp(op backend.BinOp, t *rtype, lhs, rhs any) any {
	if t.kind == kindFloat {
		a, b := lhs.(float64), rhs.(float64)
		//
		switch op {
		case backend.Add:
			return a + b
		case backend.Sub:
			return a - b
		case backend.Mul:
			return a * b
		case backend.Div:
			return a / b
		case backend.Mod:
			return math.Mod(a, b)
		}
		//
		panic("stela: bitwise operator applied to a float operand")
	}
	//
	a, b := lhs.(int64), rhs.(int64)
	//
	switch op {
	case backend.Add:
		return a + b
	case backend.Sub:
		return a - b
	case backend.Mul:
		return a * b
	case backend.Div:
		if t.signed {
			return a / b
		}
		return int64(uint64(a) / uint64(b))
	case backend.Mod:
		if t.signed {
			return a % b
		}
		return int64(uint64(a) % uint64(b))
	case backend.And:
		return a & b
	case backend.Or:
		return a | b
	case backend.Xor:
		return a ^ b
	case backend.Shl:
		return a << uint64(b)
	case backend.Shr:
		if t.signed {
			return a >> uint64(b)
		}
		return int64(uint64(a) >> uint64(b))
	}
	//
	panic("stela: unrecognised binary opcode")
}

func evalUnOp(op backend.UnOp, t *rtype, v any) any {
	switch op {
	case backend.Neg:
		if t.kind == kindFloat {
			return -v.(float64)
		}
		return -v.(int64)
	case backend.Not:
		return boolInt(!toBool(v))
	case backend.BitNot:
		return ^v.(int64)
	}
	//
	panic("stela: unrecognised unary opcode")
}

func evalCmp(op backend.CmpOp, t *rtype, lhs, rhs any) any {
	var less, equal bool
	//
	switch t.kind {
	case kindFloat:
		a, b := lhs.(float64), rhs.(float64)
		less, equal = a < b, a == b
	case kindPointer:
		a, _ := lhs.(addrValue)
		b, _ := rhs.(addrValue)
		equal = a.c == b.c
	case kindFuncSig:
		equal = funcIdentity(lhs) == funcIdentity(rhs)
	default:
		if t.signed {
			a, b := lhs.(int64), rhs.(int64)
			less, equal = a < b, a == b
		} else {
			a, b := uint64(lhs.(int64)), uint64(rhs.(int64))
			less, equal = a < b, a == b
		}
	}
	//
	switch op {
	case backend.CmpEq:
		return boolInt(equal)
	case backend.CmpNeq:
		return boolInt(!equal)
	case backend.CmpLt:
		return boolInt(less)
	case backend.CmpLtEq:
		return boolInt(less || equal)
	case backend.CmpGt:
		return boolInt(!less && !equal)
	case backend.CmpGtEq:
		return boolInt(!less)
	}
	//
	panic("stela: unrecognised comparison opcode")
}

// funcIdentity extracts the underlying *function a kindFuncSig value refers
// to, whether it arrived as a bare *function (a direct function reference,
// per eval's *function case) or wrapped in *funcValue (the null/trap
// sentinel ConstNull produces). Returns nil for the null sentinel.
func funcIdentity(v any) *function {
	switch f := v.(type) {
	case *function:
		return f
	case *funcValue:
		return f.fn
	}
	return nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// convert implements make's builtin cast rule (§6) plus the pointer
// bitcasts codegen uses to reinterpret a raw HeapAlloc buffer as a typed
// array/struct pointer.
func convert(v any, to *rtype) any {
	switch to.kind {
	case kindInt:
		switch n := v.(type) {
		case int64:
			return truncate(n, to)
		case float64:
			return truncate(int64(n), to)
		}
	case kindFloat:
		switch n := v.(type) {
		case int64:
			return float64(n)
		case float64:
			return n
		}
	case kindPointer, kindFuncSig:
		if addr, ok := v.(addrValue); ok {
			return addrValue{typ: to, c: addr.c}
		}
		return v
	}
	//
	return v
}

func truncate(n int64, to *rtype) int64 {
	if to.bits >= 64 {
		return n
	}
	//
	mask := int64(1)<<uint(to.bits) - 1
	n &= mask
	//
	if to.signed && n&(int64(1)<<uint(to.bits-1)) != 0 {
		n -= mask + 1
	}
	//
	return n
}
