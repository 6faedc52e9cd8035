package pattern

import (
	"fmt"
	"reflect"

	"github.com/abdul-hamid-achik/attest/packages/core/ast"
)

// Mismatch reports a failed match: the full root pattern and the full
// value, never an isolated fragment.
type Mismatch struct {
	Pattern ast.Pattern
	Value   any
}

func (m *Mismatch) String() string {
	return fmt.Sprintf("%s does not match %s", ast.FormatValue(m.Value), m.Pattern)
}

// Match destructures value against p. On success it returns the bindings
// in first-occurrence order; on failure it returns a Mismatch and no
// bindings at all, even when a prefix of the pattern matched.
//
// Matching is strict: literals and pins compare by same dynamic type plus
// deep equality, so 1 does not match 1.0. Guards run only after their
// inner pattern matched; a guard that panics counts as a non-match.
func Match(p ast.Pattern, value any) (*ast.Bindings, *Mismatch) {
	b := ast.NewBindings()
	if !match(p, value, b) {
		return nil, &Mismatch{Pattern: p, Value: value}
	}
	return b, nil
}

// Matches reports whether value matches p, ignoring bindings.
func Matches(p ast.Pattern, value any) bool {
	_, mm := Match(p, value)
	return mm == nil
}

func match(p ast.Pattern, value any, b *ast.Bindings) bool {
	switch n := p.(type) {
	case *ast.Lit:
		return Equal(n.Value, value)
	case *ast.Var:
		b.Bind(n.Ref(), value)
		return true
	case *ast.Wildcard:
		return true
	case *ast.Pin:
		return Equal(n.Value, value)
	case *ast.Compound:
		return matchCompound(n, value, b)
	case *ast.Guarded:
		if !match(n.Pattern, value, b) {
			return false
		}
		return runGuard(n.Guard, b)
	default:
		return false
	}
}

// runGuard evaluates a guard, treating a panic inside it as a non-match
// rather than an error.
func runGuard(guard func(*ast.Bindings) bool, b *ast.Bindings) (ok bool) {
	if guard == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return guard(b)
}

func matchCompound(c *ast.Compound, value any, b *ast.Bindings) bool {
	switch c.Kind {
	case ast.KindSlice:
		return matchSlice(c, value, b)
	case ast.KindMap:
		return matchMap(c, value, b)
	case ast.KindStruct:
		return matchStruct(c, value, b)
	default:
		// a bare entry has no meaning outside a map or struct compound
		return false
	}
}

func matchSlice(c *ast.Compound, value any, b *ast.Bindings) bool {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		return false
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	if rv.Len() != len(c.Children) {
		return false
	}
	for i, ch := range c.Children {
		if !match(ch, rv.Index(i).Interface(), b) {
			return false
		}
	}
	return true
}

// matchMap checks that every entry's key exists in the map and its value
// pattern matches. Keys the pattern does not mention are ignored.
func matchMap(c *ast.Compound, value any, b *ast.Bindings) bool {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.Map {
		return false
	}
	for _, ch := range c.Children {
		entry, ok := ch.(*ast.Compound)
		if !ok || entry.Kind != ast.KindEntry || len(entry.Children) != 2 {
			return false
		}
		key, ok := entryKey(entry)
		if !ok {
			return false
		}
		got, found := mapLookup(rv, key)
		if !found || !match(entry.Children[1], got, b) {
			return false
		}
	}
	return true
}

// matchStruct checks a subset of exported fields, dereferencing one level
// of pointer.
func matchStruct(c *ast.Compound, value any, b *ast.Bindings) bool {
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return false
	}
	for _, ch := range c.Children {
		entry, ok := ch.(*ast.Compound)
		if !ok || entry.Kind != ast.KindEntry || len(entry.Children) != 2 {
			return false
		}
		key, ok := entryKey(entry)
		if !ok {
			return false
		}
		name, ok := key.(string)
		if !ok {
			return false
		}
		field, ok := rv.Type().FieldByName(name)
		if !ok || field.PkgPath != "" {
			return false
		}
		if !match(entry.Children[1], rv.FieldByIndex(field.Index).Interface(), b) {
			return false
		}
	}
	return true
}

// entryKey resolves an entry's key child, which is always literal-like:
// a Lit or a Pin carrying its resolved value.
func entryKey(entry *ast.Compound) (any, bool) {
	switch k := entry.Children[0].(type) {
	case *ast.Lit:
		return k.Value, true
	case *ast.Pin:
		return k.Value, true
	default:
		return nil, false
	}
}

// mapLookup finds key in rv by strict equality over the map's own keys,
// so interface-keyed and concrete-keyed maps behave alike.
func mapLookup(rv reflect.Value, key any) (any, bool) {
	iter := rv.MapRange()
	for iter.Next() {
		if Equal(iter.Key().Interface(), key) {
			return iter.Value().Interface(), true
		}
	}
	return nil, false
}
