package lifetime

import (
	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/backend"
)

// builtinZero constructs the zero value of a builtin type (§4.5.2: store/
// load are the whole operation — there is no aggregate to walk).
func builtinZero(b backend.Builder, t ast.Type) backend.Value {
	bt := backendType(t)
	kind := t.(*ast.Builtin).Kind
	//
	if kind == ast.Real {
		return b.ConstFloat(bt, 0)
	}
	//
	return b.ConstInt(bt, 0)
}
