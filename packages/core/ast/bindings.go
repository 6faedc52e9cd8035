package ast

import (
	"fmt"
	"strings"
)

// Binding is one recorded variable/value pair.
type Binding struct {
	Ref   VarRef
	Value any
}

// Bindings is an ordered set of variable bindings produced by a match.
// Order is first-occurrence order of the variables in the pattern. A
// variable bound again keeps its original position and takes the new value.
type Bindings struct {
	order  []VarRef
	values map[VarRef]any
}

// NewBindings returns an empty binding set.
func NewBindings() *Bindings {
	return &Bindings{values: make(map[VarRef]any)}
}

// Bind records value under ref.
func (b *Bindings) Bind(ref VarRef, value any) {
	if _, ok := b.values[ref]; !ok {
		b.order = append(b.order, ref)
	}
	b.values[ref] = value
}

// Get returns the value bound to ref.
func (b *Bindings) Get(ref VarRef) (any, bool) {
	v, ok := b.values[ref]
	return v, ok
}

// GetName returns the value bound to name, searching scopes from the most
// recently bound occurrence backwards.
func (b *Bindings) GetName(name string) (any, bool) {
	for i := len(b.order) - 1; i >= 0; i-- {
		if b.order[i].Name == name {
			return b.values[b.order[i]], true
		}
	}
	return nil, false
}

// Has reports whether ref is bound.
func (b *Bindings) Has(ref VarRef) bool {
	_, ok := b.values[ref]
	return ok
}

// Len returns the number of distinct variables bound.
func (b *Bindings) Len() int { return len(b.order) }

// All returns the bindings in order.
func (b *Bindings) All() []Binding {
	out := make([]Binding, len(b.order))
	for i, ref := range b.order {
		out[i] = Binding{Ref: ref, Value: b.values[ref]}
	}
	return out
}

// Refs returns the bound variable identities in order.
func (b *Bindings) Refs() []VarRef {
	out := make([]VarRef, len(b.order))
	copy(out, b.order)
	return out
}

func (b *Bindings) String() string {
	parts := make([]string, len(b.order))
	for i, ref := range b.order {
		parts[i] = fmt.Sprintf("%s = %s", ref, FormatValue(b.values[ref]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// FormatValue renders a runtime value the way diagnostics display it.
// Strings are quoted so "1" and 1 stay distinguishable.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return fmt.Sprintf("%q", x)
	case error:
		return fmt.Sprintf("%T(%q)", x, x.Error())
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}
