package modgraph

import (
	"testing"

	"github.com/stela-lang/stela/pkg/stela/ast"
	"github.com/stela-lang/stela/pkg/stela/diag"
	"github.com/stela-lang/stela/pkg/stela/internal/assert"
	"github.com/stela-lang/stela/pkg/stela/source"
)

func mod(name string, imports ...string) *ast.Module {
	var imps []*ast.Import
	//
	for _, i := range imports {
		imps = append(imps, ast.NewImport(source.NewSpan(0, 0), i))
	}
	//
	return ast.NewModule(source.NewSpan(0, 0), name, imps, nil)
}

func TestOrderPlacesImportsBeforeImporter(t *testing.T) {
	a := mod("a")
	b := mod("b", "a")
	c := mod("c", "a", "b")
	sink := diag.NewCollectingSink()
	//
	order, ok := Order([]*ast.Module{c, b, a}, sink)
	assert.True(t, ok)
	assert.Equal(t, 3, len(order))
	assert.Equal(t, "a", order[0].Name)
	assert.Equal(t, "b", order[1].Name)
	assert.Equal(t, "c", order[2].Name)
}

func TestOrderDetectsCycle(t *testing.T) {
	a := mod("a", "b")
	b := mod("b", "a")
	sink := diag.NewCollectingSink()
	//
	_, ok := Order([]*ast.Module{a, b}, sink)
	assert.False(t, ok)
	assert.True(t, sink.HasFatal())
}

func TestOrderDetectsMissingImport(t *testing.T) {
	a := mod("a", "missing")
	sink := diag.NewCollectingSink()
	//
	_, ok := Order([]*ast.Module{a}, sink)
	assert.False(t, ok)
	assert.True(t, sink.HasFatal())
}
