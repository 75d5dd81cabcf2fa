package sema

import "github.com/stela-lang/stela/pkg/stela/ast"

// captureIfNeeded implements §4.4.4: when id (an Object) was declared
// outside the nearest enclosing closure scope and isn't a module-level
// global, it must be captured into that closure (and, transitively, into
// every closure boundary between here and where it's actually visible).
func (a *Analyzer) captureIfNeeded(scope *ast.Scope, obj *ast.ObjectBinding, id ast.SymbolId) {
	declScope, ok := a.declScope[id]
	if !ok || declScope.Kind() == ast.NamespaceScope {
		return
	}
	//
	innermost := scope.EnclosingClosure()
	if innermost == nil || declScope.IsWithin(innermost) {
		return
	}
	//
	a.ensureCapture(innermost, obj, declScope)
}

// ensureCapture returns the slot index of obj within closure's capture
// vector, appending a fresh (or transitively-relayed) entry if one doesn't
// already exist, recursing outward across further closure boundaries per
// the "parent_capture_index" chaining rule.
func (a *Analyzer) ensureCapture(closure *ast.Scope, obj *ast.ObjectBinding, declScope *ast.Scope) int {
	lambda := a.env.Arena.Get(closure.Owner()).(*ast.LambdaBinding)
	//
	for i, c := range lambda.Captures {
		if c.SourceObject == obj {
			return i
		}
	}
	//
	parentIndex := ast.NoParentCapture
	//
	if outer := closure.Parent().EnclosingClosure(); outer != nil && !declScope.IsWithin(outer) {
		parentIndex = a.ensureCapture(outer, obj, declScope)
	}
	//
	lambda.Captures = append(lambda.Captures, ast.Capture{
		Type:               obj.Type.Type,
		SourceObject:       obj,
		ParentCaptureIndex: parentIndex,
	})
	//
	return len(lambda.Captures) - 1
}
