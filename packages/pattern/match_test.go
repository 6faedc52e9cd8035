package pattern

import (
	"testing"

	"github.com/abdul-hamid-achik/attest/packages/core/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchLiteral(t *testing.T) {
	tests := []struct {
		name    string
		pattern ast.Pattern
		value   any
		want    bool
	}{
		{"equal ints", ast.Literal(1), 1, true},
		{"unequal ints", ast.Literal(1), 2, false},
		{"int vs float", ast.Literal(1), 1.0, false},
		{"equal strings", ast.Literal("ok"), "ok", true},
		{"string vs int", ast.Literal("1"), 1, false},
		{"nil vs nil", ast.Literal(nil), nil, true},
		{"nil vs zero", ast.Literal(nil), 0, false},
		{"equal slices", ast.Literal([]int{1, 2}), []int{1, 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.pattern, tt.value))
		})
	}
}

func TestMatchVarBinds(t *testing.T) {
	b, mm := Match(ast.Bind("x", 0), 42)
	require.Nil(t, mm)
	v, ok := b.Get(ast.VarRef{Name: "x"})
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestMatchWildcard(t *testing.T) {
	b, mm := Match(ast.Ignore(), map[string]int{"any": 1})
	require.Nil(t, mm)
	assert.Equal(t, 0, b.Len())
}

func TestMatchPinIsLiteralNotBinding(t *testing.T) {
	pin := ast.PinVar("x", 0, 5)

	b, mm := Match(pin, 5)
	require.Nil(t, mm)
	assert.Equal(t, 0, b.Len(), "a pin never rebinds")

	_, mm = Match(pin, 6)
	require.NotNil(t, mm)
}

func TestMatchSlice(t *testing.T) {
	p := ast.Slice(ast.Literal(1), ast.Bind("x", 0), ast.Ignore())

	b, mm := Match(p, []any{1, "two", 3})
	require.Nil(t, mm)
	v, _ := b.Get(ast.VarRef{Name: "x"})
	assert.Equal(t, "two", v)

	_, mm = Match(p, []any{1, "two"})
	assert.NotNil(t, mm, "length must match exactly")

	_, mm = Match(p, []any{2, "two", 3})
	assert.NotNil(t, mm)

	_, mm = Match(p, "not a slice")
	assert.NotNil(t, mm)
}

func TestMatchSliceOfConcreteType(t *testing.T) {
	p := ast.Slice(ast.Literal(1), ast.Literal(2))
	assert.True(t, Matches(p, []int{1, 2}))
	assert.False(t, Matches(p, []int{2, 1}))
}

func TestMatchMapSubset(t *testing.T) {
	p := ast.MapOf(
		ast.Entry(ast.Literal("id"), ast.Bind("id", 0)),
		ast.Entry(ast.Literal("ok"), ast.Literal(true)),
	)
	value := map[string]any{"id": 7, "ok": true, "extra": "ignored"}

	b, mm := Match(p, value)
	require.Nil(t, mm)
	id, _ := b.Get(ast.VarRef{Name: "id"})
	assert.Equal(t, 7, id)

	_, mm = Match(p, map[string]any{"id": 7})
	assert.NotNil(t, mm, "missing key is a mismatch")

	_, mm = Match(p, map[string]any{"id": 7, "ok": false})
	assert.NotNil(t, mm)
}

func TestMatchMapPinnedKey(t *testing.T) {
	p := ast.MapOf(ast.Entry(ast.PinVar("k", 0, "id"), ast.Literal(7)))
	assert.True(t, Matches(p, map[string]int{"id": 7}))
	assert.False(t, Matches(p, map[string]int{"other": 7}))
}

type account struct {
	Name    string
	Balance int
	hidden  string
}

func TestMatchStructFields(t *testing.T) {
	p := ast.StructOf(
		ast.Field("Name", ast.Literal("ada")),
		ast.Field("Balance", ast.Bind("bal", 0)),
	)

	b, mm := Match(p, account{Name: "ada", Balance: 100, hidden: "x"})
	require.Nil(t, mm)
	bal, _ := b.Get(ast.VarRef{Name: "bal"})
	assert.Equal(t, 100, bal)

	// one level of pointer indirection is followed
	b, mm = Match(p, &account{Name: "ada", Balance: 3})
	require.Nil(t, mm)
	bal, _ = b.Get(ast.VarRef{Name: "bal"})
	assert.Equal(t, 3, bal)

	_, mm = Match(p, account{Name: "bob", Balance: 100})
	assert.NotNil(t, mm)

	_, mm = Match(ast.StructOf(ast.Field("hidden", ast.Ignore())), account{})
	assert.NotNil(t, mm, "unexported fields are unreachable")

	_, mm = Match(ast.StructOf(ast.Field("Missing", ast.Ignore())), account{})
	assert.NotNil(t, mm)

	_, mm = Match(p, (*account)(nil))
	assert.NotNil(t, mm)
}

func TestMatchNested(t *testing.T) {
	p := ast.MapOf(
		ast.Entry(ast.Literal("user"), ast.StructOf(
			ast.Field("Name", ast.Bind("name", 0)),
		)),
		ast.Entry(ast.Literal("tags"), ast.Slice(ast.Literal("a"), ast.Bind("second", 0))),
	)
	value := map[string]any{
		"user": account{Name: "ada"},
		"tags": []string{"a", "b"},
	}

	b, mm := Match(p, value)
	require.Nil(t, mm)
	name, _ := b.Get(ast.VarRef{Name: "name"})
	second, _ := b.Get(ast.VarRef{Name: "second"})
	assert.Equal(t, "ada", name)
	assert.Equal(t, "b", second)
}

func TestMatchGuard(t *testing.T) {
	ref := ast.VarRef{Name: "n"}
	p := ast.Guard(ast.Bind("n", 0), "n > 10", func(b *ast.Bindings) bool {
		v, _ := b.Get(ref)
		return v.(int) > 10
	}, ref)

	b, mm := Match(p, 11)
	require.Nil(t, mm)
	n, _ := b.Get(ref)
	assert.Equal(t, 11, n)

	_, mm = Match(p, 10)
	assert.NotNil(t, mm)
}

func TestMatchGuardRunsAfterInnerPattern(t *testing.T) {
	ran := false
	p := ast.Guard(ast.Literal(1), "", func(b *ast.Bindings) bool {
		ran = true
		return true
	})

	Match(p, 2)
	assert.False(t, ran, "guard must not run when the inner pattern fails")

	Match(p, 1)
	assert.True(t, ran)
}

func TestMatchGuardPanicIsNonMatch(t *testing.T) {
	p := ast.Guard(ast.Bind("n", 0), "n > 10", func(b *ast.Bindings) bool {
		v, _ := b.Get(ast.VarRef{Name: "n"})
		return v.(int) > 10 // panics on non-int
	}, ast.VarRef{Name: "n"})

	b, mm := Match(p, "not an int")
	assert.NotNil(t, mm)
	assert.Nil(t, b)
}

func TestMatchFailureDiscardsBindings(t *testing.T) {
	p := ast.Slice(ast.Bind("x", 0), ast.Literal(2))

	b, mm := Match(p, []int{1, 3})
	require.NotNil(t, mm)
	assert.Nil(t, b, "no partial bindings on failure")
}

func TestMismatchReportsWholePatternAndValue(t *testing.T) {
	p := ast.Slice(ast.Literal(1), ast.Bind("x", 0))
	_, mm := Match(p, []int{2, 2})
	require.NotNil(t, mm)
	assert.Same(t, p, mm.Pattern.(*ast.Compound))
	assert.Equal(t, []int{2, 2}, mm.Value)
	assert.Contains(t, mm.String(), "does not match")
}

func TestEqualStrictness(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"same ints", 1, 1, true},
		{"int vs int64", 1, int64(1), false},
		{"int vs float", 1, 1.0, false},
		{"both nil", nil, nil, true},
		{"nil vs value", nil, 0, false},
		{"deep slices", []int{1, 2}, []int{1, 2}, true},
		{"deep maps", map[string]int{"a": 1}, map[string]int{"a": 1}, true},
		{"string vs bytes", "a", []byte("a"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}
