package ast

// Term is a single operand: its literal source text plus either a value
// known up front or a thunk the engine forces at most once. The memoized
// result is what every later read observes, so an operand's side effects
// happen once no matter how many diagnostics mention it.
type Term struct {
	src     string
	literal bool
	eval    func() any
	forced  bool
	value   any
}

// Value builds a literal term whose value is already known.
func Value(src string, v any) *Term {
	return &Term{src: src, literal: true, value: v, forced: true}
}

// Thunk builds a deferred term. fn runs the first time Eval is called.
func Thunk(src string, fn func() any) *Term {
	return &Term{src: src, eval: fn}
}

// Source returns the operand's source text.
func (t *Term) Source() string { return t.src }

// IsLiteral reports whether the operand was written as a literal.
func (t *Term) IsLiteral() bool { return t.literal }

// Eval forces the term. The underlying thunk runs at most once; repeated
// calls return the memoized value.
func (t *Term) Eval() any {
	if !t.forced {
		t.value = t.eval()
		t.forced = true
		t.eval = nil
	}
	return t.value
}

// Forced reports whether the term has been evaluated yet.
func (t *Term) Forced() bool { return t.forced }
