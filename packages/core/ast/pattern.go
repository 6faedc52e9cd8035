package ast

import (
	"fmt"
	"strings"
)

// ScopeID identifies one lexical scope inside a unit. Scope identities are
// allocated by the owning unit and are only meaningful within it.
type ScopeID int

// VarRef is a variable identity: the same name in two scopes is two
// distinct variables.
type VarRef struct {
	Name  string
	Scope ScopeID
}

func (r VarRef) String() string {
	if r.Scope == 0 {
		return r.Name
	}
	return fmt.Sprintf("%s@%d", r.Name, r.Scope)
}

// CompoundKind selects the shape a Compound pattern destructures.
type CompoundKind int

const (
	KindSlice  CompoundKind = iota // ordered elements, exact length
	KindMap                        // entry subset of a map value
	KindStruct                     // entry subset of exported struct fields
	KindEntry                      // one key/value pair inside a map or struct
)

func (k CompoundKind) String() string {
	switch k {
	case KindSlice:
		return "slice"
	case KindMap:
		return "map"
	case KindStruct:
		return "struct"
	case KindEntry:
		return "entry"
	default:
		return fmt.Sprintf("CompoundKind(%d)", int(k))
	}
}

// Pattern is one node of a match pattern. Patterns are immutable once
// constructed; matching them yields bindings but never mutates them.
type Pattern interface {
	// String renders the pattern the way diagnostics display it.
	String() string
	pattern()
}

// Lit matches when the value is strictly equal to Value.
type Lit struct {
	Value any
}

func (l *Lit) String() string { return FormatValue(l.Value) }
func (*Lit) pattern()         {}

// Var always matches and records the value under its variable identity.
type Var struct {
	Name  string
	Scope ScopeID
}

func (v *Var) Ref() VarRef    { return VarRef{Name: v.Name, Scope: v.Scope} }
func (v *Var) String() string { return v.Name }
func (*Var) pattern()         {}

// Wildcard always matches and records nothing.
type Wildcard struct{}

func (*Wildcard) String() string { return "_" }
func (*Wildcard) pattern()       {}

// Pin matches like a literal against a value resolved from the enclosing
// scope before matching began. A pin never rebinds.
type Pin struct {
	Name  string
	Scope ScopeID
	Value any
}

func (p *Pin) Ref() VarRef    { return VarRef{Name: p.Name, Scope: p.Scope} }
func (p *Pin) String() string { return "^" + p.Name }
func (*Pin) pattern()         {}

// Compound destructures a composite value. Children are matched in order,
// left to right. Map and struct compounds hold KindEntry children whose
// first child is the key (a Lit or Pin) and second the value pattern.
type Compound struct {
	Kind     CompoundKind
	Children []Pattern
}

func (c *Compound) String() string {
	parts := make([]string, len(c.Children))
	for i, ch := range c.Children {
		parts[i] = ch.String()
	}
	switch c.Kind {
	case KindSlice:
		return "[" + strings.Join(parts, ", ") + "]"
	case KindEntry:
		return strings.Join(parts, ": ")
	default:
		return "{" + strings.Join(parts, ", ") + "}"
	}
}

func (*Compound) pattern() {}

// Guarded attaches a boolean guard to an inner pattern. The guard runs only
// after the inner pattern matched, over the bindings it produced. Desc is
// the guard's source text for diagnostics; Refs names the variables the
// guard reads.
type Guarded struct {
	Pattern Pattern
	Guard   func(b *Bindings) bool
	Desc    string
	Refs    []VarRef
}

func (g *Guarded) String() string {
	desc := g.Desc
	if desc == "" {
		desc = "guard"
	}
	return g.Pattern.String() + " when " + desc
}

func (*Guarded) pattern() {}

// Literal builds a literal pattern.
func Literal(v any) *Lit { return &Lit{Value: v} }

// Bind builds a variable-binding pattern in the given scope.
func Bind(name string, scope ScopeID) *Var { return &Var{Name: name, Scope: scope} }

// Ignore builds a wildcard pattern.
func Ignore() *Wildcard { return &Wildcard{} }

// PinVar builds a pinned-variable pattern carrying its resolved value.
func PinVar(name string, scope ScopeID, value any) *Pin {
	return &Pin{Name: name, Scope: scope, Value: value}
}

// Slice builds an ordered, exact-length compound pattern.
func Slice(children ...Pattern) *Compound {
	return &Compound{Kind: KindSlice, Children: children}
}

// MapOf builds a map compound over the given entries.
func MapOf(entries ...*Compound) *Compound {
	return &Compound{Kind: KindMap, Children: entryList(entries)}
}

// StructOf builds a struct compound over the given field entries.
func StructOf(entries ...*Compound) *Compound {
	return &Compound{Kind: KindStruct, Children: entryList(entries)}
}

// Entry builds one key/value entry for a map compound.
func Entry(key, value Pattern) *Compound {
	return &Compound{Kind: KindEntry, Children: []Pattern{key, value}}
}

// Field builds one field entry for a struct compound.
func Field(name string, value Pattern) *Compound {
	return Entry(Literal(name), value)
}

// Guard wraps p with a guard function.
func Guard(p Pattern, desc string, fn func(b *Bindings) bool, refs ...VarRef) *Guarded {
	return &Guarded{Pattern: p, Guard: fn, Desc: desc, Refs: refs}
}

func entryList(entries []*Compound) []Pattern {
	children := make([]Pattern, len(entries))
	for i, e := range entries {
		children[i] = e
	}
	return children
}

// Walk visits p and its descendants in pre-order, the same order matching
// and collection use. fn returning false prunes the subtree.
func Walk(p Pattern, fn func(Pattern) bool) {
	if p == nil || !fn(p) {
		return
	}
	switch n := p.(type) {
	case *Compound:
		for _, ch := range n.Children {
			Walk(ch, fn)
		}
	case *Guarded:
		Walk(n.Pattern, fn)
	}
}

// ContainsGuard reports whether p has a Guarded node anywhere.
func ContainsGuard(p Pattern) bool {
	found := false
	Walk(p, func(n Pattern) bool {
		if _, ok := n.(*Guarded); ok {
			found = true
			return false
		}
		return true
	})
	return found
}
