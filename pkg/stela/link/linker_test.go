package link

import (
	"testing"

	"github.com/stela-lang/stela/pkg/stela/backend"
	"github.com/stela-lang/stela/pkg/stela/backend/refbackend"
	"github.com/stela-lang/stela/pkg/stela/diag"
	"github.com/stela-lang/stela/pkg/stela/internal/assert"
)

func TestLinkerDeclareRejectsDuplicateName(t *testing.T) {
	l := NewLinker()
	//
	assert.True(t, l.Declare("f"))
	assert.False(t, l.Declare("f"))
}

func TestLinkerDeclareAllowsDistinctNames(t *testing.T) {
	l := NewLinker()
	//
	assert.True(t, l.Declare("f"))
	assert.True(t, l.Declare("g"))
}

func TestLinkAcceptsEmptyModule(t *testing.T) {
	mod := refbackend.New()
	sink := diag.NewCollectingSink()
	//
	assert.True(t, Link(mod, sink))
	assert.True(t, len(sink.Records) == 0, "unexpected records: %+v", sink.Records)
}

// TestLinkRejectsUnterminatedBlock builds a function with one basic block
// that never emits a terminator, the structural defect Module.Verify is
// meant to catch (§4.6), and checks Link forwards the resulting diagnostic
// and reports failure.
func TestLinkRejectsUnterminatedBlock(t *testing.T) {
	mod := refbackend.New()
	fn := mod.DeclareFunction("bad", nil, mod.VoidType(), backend.Internal)
	fn.NewBlock("entry")
	//
	sink := diag.NewCollectingSink()
	ok := Link(mod, sink)
	//
	assert.False(t, ok)
	assert.True(t, len(sink.Records) > 0, "expected at least one diagnostic")
	assert.True(t, sink.HasFatal())
}
