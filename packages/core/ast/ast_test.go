package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatorString(t *testing.T) {
	tests := []struct {
		op   Operator
		want string
	}{
		{OpEqual, "=="},
		{OpNotEqual, "!="},
		{OpLess, "<"},
		{OpLessOrEqual, "<="},
		{OpGreater, ">"},
		{OpGreaterOrEqual, ">="},
		{OpStrictEqual, "==="},
		{OpStrictNotEqual, "!=="},
		{OpMatchRegex, "=~"},
		{OpIn, "in"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.String())
			assert.True(t, tt.op.Known())
		})
	}

	assert.False(t, Operator(99).Known())
}

func TestTermEvalOnce(t *testing.T) {
	calls := 0
	term := Thunk("compute()", func() any {
		calls++
		return 42
	})

	assert.False(t, term.Forced())
	assert.Equal(t, 42, term.Eval())
	assert.Equal(t, 42, term.Eval())
	assert.Equal(t, 42, term.Eval())
	assert.Equal(t, 1, calls)
	assert.True(t, term.Forced())
}

func TestTermLiteral(t *testing.T) {
	term := Value("3", 3)
	assert.True(t, term.IsLiteral())
	assert.True(t, term.Forced())
	assert.Equal(t, 3, term.Eval())
	assert.Equal(t, "3", term.Source())
}

func TestCallAllLiteral(t *testing.T) {
	fn := func(args []any) any { return true }

	call := OpaqueCall("ok", fn, "ok(1, x)", Value("1", 1), Thunk("x", func() any { return 2 }))
	assert.False(t, call.Call.AllLiteral())

	lit := OpaqueCall("ok", fn, "ok(1, 2)", Value("1", 1), Value("2", 2))
	assert.True(t, lit.Call.AllLiteral())
}

func TestPatternString(t *testing.T) {
	tests := []struct {
		name    string
		pattern Pattern
		want    string
	}{
		{"literal int", Literal(42), "42"},
		{"literal string", Literal("ok"), `"ok"`},
		{"literal nil", Literal(nil), "nil"},
		{"variable", Bind("x", 0), "x"},
		{"wildcard", Ignore(), "_"},
		{"pin", PinVar("x", 0, 5), "^x"},
		{"slice", Slice(Literal(1), Bind("rest", 0)), "[1, rest]"},
		{"map", MapOf(Entry(Literal("id"), Bind("id", 0))), `{"id": id}`},
		{"struct", StructOf(Field("Name", Literal("a"))), `{"Name": "a"}`},
		{
			"guarded",
			Guard(Bind("n", 0), "n > 10", func(b *Bindings) bool { return true }),
			"n when n > 10",
		},
		{
			"guarded without desc",
			Guard(Ignore(), "", nil),
			"_ when guard",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pattern.String())
		})
	}
}

func TestWalkOrder(t *testing.T) {
	p := Slice(
		Literal(1),
		MapOf(Entry(Literal("k"), Bind("v", 0))),
		Guard(Bind("g", 0), "", nil),
	)

	var seen []string
	Walk(p, func(n Pattern) bool {
		seen = append(seen, n.String())
		return true
	})

	require.Equal(t, []string{
		`[1, {"k": v}, g when guard]`,
		"1",
		`{"k": v}`,
		`"k": v`,
		`"k"`,
		"v",
		"g when guard",
		"g",
	}, seen)
}

func TestWalkPrune(t *testing.T) {
	p := Slice(MapOf(Entry(Literal("k"), Bind("v", 0))), Literal(2))

	var seen int
	Walk(p, func(n Pattern) bool {
		seen++
		c, isCompound := n.(*Compound)
		return !isCompound || c.Kind == KindSlice
	})

	// root slice, map (pruned), trailing literal
	assert.Equal(t, 3, seen)
}

func TestContainsGuard(t *testing.T) {
	assert.False(t, ContainsGuard(Slice(Literal(1), Bind("x", 0))))
	assert.True(t, ContainsGuard(Slice(Literal(1), Guard(Bind("x", 0), "", nil))))
	assert.True(t, ContainsGuard(Guard(Ignore(), "", nil)))
}

func TestBindingsOrderAndOverwrite(t *testing.T) {
	b := NewBindings()
	b.Bind(VarRef{Name: "a"}, 1)
	b.Bind(VarRef{Name: "b"}, 2)
	b.Bind(VarRef{Name: "a"}, 3)

	require.Equal(t, 2, b.Len())

	all := b.All()
	assert.Equal(t, "a", all[0].Ref.Name)
	assert.Equal(t, 3, all[0].Value)
	assert.Equal(t, "b", all[1].Ref.Name)

	v, ok := b.Get(VarRef{Name: "a"})
	require.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = b.Get(VarRef{Name: "missing"})
	assert.False(t, ok)
}

func TestBindingsScopesAreDistinct(t *testing.T) {
	b := NewBindings()
	b.Bind(VarRef{Name: "x", Scope: 0}, "outer")
	b.Bind(VarRef{Name: "x", Scope: 1}, "inner")

	assert.Equal(t, 2, b.Len())

	outer, ok := b.Get(VarRef{Name: "x", Scope: 0})
	require.True(t, ok)
	assert.Equal(t, "outer", outer)

	// name lookup prefers the most recently bound occurrence
	v, ok := b.GetName("x")
	require.True(t, ok)
	assert.Equal(t, "inner", v)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "nil"},
		{"int", 42, "42"},
		{"string quoted", "hi", `"hi"`},
		{"bool", false, "false"},
		{"slice", []int{1, 2}, "[1 2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.in))
		})
	}
}
