package scope

import (
	"sync"

	"github.com/abdul-hamid-achik/attest/packages/core/ast"
	"github.com/abdul-hamid-achik/attest/packages/report"
)

// Table is a unit's variable table. It is safe for concurrent use so
// helper goroutines and cleanup hooks can read it while the unit body
// writes.
type Table struct {
	mu     sync.RWMutex
	order  []ast.VarRef
	values map[ast.VarRef]any
	scopes []ast.ScopeID
	next   ast.ScopeID
}

// NewTable returns an empty table positioned in the root scope.
func NewTable() *Table {
	return &Table{
		values: make(map[ast.VarRef]any),
		scopes: []ast.ScopeID{0},
	}
}

// EnterScope opens a nested lexical scope and returns its identity.
// Variables set while the scope is open shadow same-named outer ones.
func (t *Table) EnterScope() ast.ScopeID {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.scopes = append(t.scopes, t.next)
	return t.next
}

// ExitScope closes the innermost scope. Its variables stay recorded, for
// diagnostics, but name lookup no longer resolves to them.
func (t *Table) ExitScope() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.scopes) > 1 {
		t.scopes = t.scopes[:len(t.scopes)-1]
	}
}

// Current returns the innermost open scope.
func (t *Table) Current() ast.ScopeID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.scopes[len(t.scopes)-1]
}

// Set binds name to value in the current scope.
func (t *Table) Set(name string, value any) ast.VarRef {
	t.mu.Lock()
	defer t.mu.Unlock()
	ref := ast.VarRef{Name: name, Scope: t.scopes[len(t.scopes)-1]}
	t.setLocked(ref, value)
	return ref
}

// SetRef binds an explicit variable identity.
func (t *Table) SetRef(ref ast.VarRef, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setLocked(ref, value)
}

func (t *Table) setLocked(ref ast.VarRef, value any) {
	if _, ok := t.values[ref]; !ok {
		t.order = append(t.order, ref)
	}
	t.values[ref] = value
}

// Get returns the value bound to an exact variable identity.
func (t *Table) Get(ref ast.VarRef) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[ref]
	return v, ok
}

// Lookup resolves name against the open scopes, innermost first.
func (t *Table) Lookup(name string) (any, ast.VarRef, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := len(t.scopes) - 1; i >= 0; i-- {
		ref := ast.VarRef{Name: name, Scope: t.scopes[i]}
		if v, ok := t.values[ref]; ok {
			return v, ref, true
		}
	}
	return nil, ast.VarRef{}, false
}

// Pin builds a pinned-reference pattern for name, resolved against the
// open scopes. A name bound nowhere is caller misuse, and is reported
// rather than silently matched against nil.
func (t *Table) Pin(name string) (*ast.Pin, error) {
	v, ref, ok := t.Lookup(name)
	if !ok {
		return nil, report.Config("pinned variable ^%s is not bound in the enclosing scope", name)
	}
	return ast.PinVar(ref.Name, ref.Scope, v), nil
}

// Merge rebinds a match's captured variables into the table, in the
// binding set's own order.
func (t *Table) Merge(b *ast.Bindings) {
	if b == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, binding := range b.All() {
		t.setLocked(binding.Ref, binding.Value)
	}
}

// Snapshot copies the table into the plain map the collector's
// enclosing-scope check takes.
func (t *Table) Snapshot() map[ast.VarRef]any {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[ast.VarRef]any, len(t.values))
	for ref, v := range t.values {
		out[ref] = v
	}
	return out
}

// Refs returns every bound variable identity in first-binding order.
func (t *Table) Refs() []ast.VarRef {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]ast.VarRef, len(t.order))
	copy(out, t.order)
	return out
}

// Len returns the number of distinct variables bound.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}
