package scope

import (
	"sync"
	"testing"

	"github.com/abdul-hamid-achik/attest/packages/core/ast"
	"github.com/abdul-hamid-achik/attest/packages/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndLookup(t *testing.T) {
	tbl := NewTable()
	ref := tbl.Set("x", 5)
	assert.Equal(t, ast.VarRef{Name: "x", Scope: 0}, ref)

	v, got, ok := tbl.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, 5, v)
	assert.Equal(t, ref, got)
}

func TestNestedScopeShadows(t *testing.T) {
	tbl := NewTable()
	tbl.Set("x", 1)

	inner := tbl.EnterScope()
	tbl.Set("x", 2)

	v, ref, ok := tbl.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, inner, ref.Scope)

	// the outer binding is still addressable by identity
	outer, ok := tbl.Get(ast.VarRef{Name: "x", Scope: 0})
	require.True(t, ok)
	assert.Equal(t, 1, outer)

	tbl.ExitScope()
	v, _, ok = tbl.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestPinResolvesEnclosingValue(t *testing.T) {
	tbl := NewTable()
	tbl.Set("x", 5)

	pin, err := tbl.Pin("x")
	require.NoError(t, err)
	assert.Equal(t, "x", pin.Name)
	assert.Equal(t, 5, pin.Value)
}

func TestPinUnboundName(t *testing.T) {
	tbl := NewTable()
	_, err := tbl.Pin("ghost")

	var ce *report.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Error(), "^ghost")
}

func TestMergeKeepsBindingOrder(t *testing.T) {
	tbl := NewTable()
	b := ast.NewBindings()
	b.Bind(ast.VarRef{Name: "a"}, 1)
	b.Bind(ast.VarRef{Name: "b"}, 2)
	tbl.Merge(b)

	refs := tbl.Refs()
	require.Len(t, refs, 2)
	assert.Equal(t, "a", refs[0].Name)
	assert.Equal(t, "b", refs[1].Name)

	v, _, ok := tbl.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestMergeNilIsNoop(t *testing.T) {
	tbl := NewTable()
	tbl.Merge(nil)
	assert.Equal(t, 0, tbl.Len())
}

func TestSnapshotFeedsCollector(t *testing.T) {
	tbl := NewTable()
	tbl.Set("x", 5)
	tbl.Set("y", "hi")

	snap := tbl.Snapshot()
	assert.Len(t, snap, 2)
	assert.Equal(t, 5, snap[ast.VarRef{Name: "x", Scope: 0}])
}

func TestConcurrentAccess(t *testing.T) {
	tbl := NewTable()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			tbl.SetRef(ast.VarRef{Name: "x", Scope: ast.ScopeID(n)}, n)
		}(i)
		go func() {
			defer wg.Done()
			tbl.Lookup("x")
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, tbl.Len())
}
