package ast

import "fmt"

// Operator identifies a comparison operator with framework-default semantics.
type Operator int

const (
	OpEqual          Operator = iota // ==  (loose, numeric-coercing)
	OpNotEqual                       // !=
	OpLess                           // <
	OpLessOrEqual                    // <=
	OpGreater                        // >
	OpGreaterOrEqual                 // >=
	OpStrictEqual                    // === (same type required)
	OpStrictNotEqual                 // !==
	OpMatchRegex                     // =~
	OpIn                             // membership
)

func (op Operator) String() string {
	switch op {
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	case OpLess:
		return "<"
	case OpLessOrEqual:
		return "<="
	case OpGreater:
		return ">"
	case OpGreaterOrEqual:
		return ">="
	case OpStrictEqual:
		return "==="
	case OpStrictNotEqual:
		return "!=="
	case OpMatchRegex:
		return "=~"
	case OpIn:
		return "in"
	default:
		return fmt.Sprintf("Operator(%d)", int(op))
	}
}

// Known reports whether op is one of the operators the engine understands.
func (op Operator) Known() bool {
	return op >= OpEqual && op <= OpIn
}

// Node is an assertable expression. The front-end that builds nodes decides
// which form an expression takes; the engine only interprets it. Nodes are
// immutable once constructed.
type Node interface {
	// Source returns the literal source text of the expression, carried
	// verbatim into diagnostics.
	Source() string
	node()
}

// Comparison is a binary expression under one of the known operators.
// Fallback, when set, is the whole expression as the caller compiled it and
// is evaluated instead of the operands whenever the operator has been
// rebound away from its framework default.
type Comparison struct {
	Op       Operator
	Left     *Term
	Right    *Term
	Fallback *Term
	Src      string
}

func (c *Comparison) Source() string { return c.Src }
func (*Comparison) node()            {}

// Match is a direct match expression: bind the pattern's variables against
// the value or fail. Guards are not permitted here.
type Match struct {
	Pattern Pattern
	Value   *Term
	Src     string
}

func (m *Match) Source() string { return m.Src }
func (*Match) node()            {}

// MatchPredicate is a boolean match test. It may carry guards and never
// exposes bindings to the surrounding scope.
type MatchPredicate struct {
	Pattern Pattern
	Value   *Term
	Src     string
}

func (m *MatchPredicate) Source() string { return m.Src }
func (*MatchPredicate) node()            {}

// Opaque is an expression the engine evaluates only for truthiness. When
// Call is non-nil the expression is a function call whose arguments are
// evaluated individually so diagnostics can report them.
type Opaque struct {
	Term *Term
	Call *Call
	Src  string
}

func (o *Opaque) Source() string { return o.Src }
func (*Opaque) node()            {}

// Call describes a function-call expression inside an Opaque node.
type Call struct {
	Name string
	Args []*Term
	Fn   func(args []any) any
}

// AllLiteral reports whether every argument is a literal. Calls over purely
// literal arguments gain nothing from per-argument diagnostics.
func (c *Call) AllLiteral() bool {
	for _, a := range c.Args {
		if !a.IsLiteral() {
			return false
		}
	}
	return true
}

// Compare builds a comparison node.
func Compare(op Operator, left, right *Term, src string) *Comparison {
	return &Comparison{Op: op, Left: left, Right: right, Src: src}
}

// NewMatch builds a direct match node.
func NewMatch(p Pattern, value *Term, src string) *Match {
	return &Match{Pattern: p, Value: value, Src: src}
}

// NewMatchPredicate builds a match-predicate node.
func NewMatchPredicate(p Pattern, value *Term, src string) *MatchPredicate {
	return &MatchPredicate{Pattern: p, Value: value, Src: src}
}

// OpaqueValue builds an opaque node around a single term.
func OpaqueValue(t *Term, src string) *Opaque {
	return &Opaque{Term: t, Src: src}
}

// OpaqueCall builds an opaque node around a call.
func OpaqueCall(name string, fn func(args []any) any, src string, args ...*Term) *Opaque {
	return &Opaque{Call: &Call{Name: name, Args: args, Fn: fn}, Src: src}
}
