package assertions

import (
	"github.com/abdul-hamid-achik/attest/packages/core/ast"
	"github.com/abdul-hamid-achik/attest/packages/pattern"
	"github.com/abdul-hamid-achik/attest/packages/report"
)

// Kind selects the assertion direction.
type Kind int

const (
	Assert Kind = iota
	Refute
)

func (k Kind) String() string {
	if k == Refute {
		return "refute"
	}
	return "assert"
}

// label is the message prefix a failed comparison of this kind uses.
func (k Kind) label() string {
	if k == Refute {
		return "Refute"
	}
	return "Assertion"
}

// Resolution reports whether op still carries the framework's default
// meaning at the call site. A shadowed operator loses the comparison
// rewrite and routes through the opaque path, since its semantics belong
// to the caller.
type Resolution func(op ast.Operator) bool

// DefaultResolution treats every operator as unshadowed.
func DefaultResolution(ast.Operator) bool { return true }

// Outcome is the result of a passed assertion. Value is what the
// assertion expression evaluated to; for the direct match form it is the
// matched value and Bindings holds the variables to merge into the
// caller's scope.
type Outcome struct {
	Value    any
	Bindings *ast.Bindings
}

// Plan is a classified assertion, ready to run. Classification never
// evaluates operands; Run evaluates each exactly once.
type Plan struct {
	kind Kind
	node ast.Node
	run  func() (*Outcome, error)
}

// Kind returns the plan's assertion direction.
func (p *Plan) Kind() Kind { return p.kind }

// Run executes the plan. A failed assertion returns a *report.Failure;
// a passed one returns its Outcome.
func (p *Plan) Run() (*Outcome, error) { return p.run() }

// Classify inspects node and builds the evaluation plan for it. Caller
// misuse (a guard in a direct match, refuting a direct match, a malformed
// pattern) is rejected here with a *report.ConfigError, before anything
// runs.
func Classify(kind Kind, node ast.Node, resolve Resolution) (*Plan, error) {
	if resolve == nil {
		resolve = DefaultResolution
	}
	switch n := node.(type) {
	case *ast.Comparison:
		if !n.Op.Known() || !resolve(n.Op) {
			// the operator means whatever the caller rebound it to
			fallback, err := shadowedFallback(n)
			if err != nil {
				return nil, err
			}
			return &Plan{kind: kind, node: node, run: func() (*Outcome, error) {
				return runOpaque(kind, fallback)
			}}, nil
		}
		return &Plan{kind: kind, node: node, run: func() (*Outcome, error) {
			return runComparison(kind, n)
		}}, nil
	case *ast.Match:
		if err := pattern.Validate(n.Pattern); err != nil {
			return nil, err
		}
		if ast.ContainsGuard(n.Pattern) {
			return nil, report.Config("guards are not allowed in a direct match assertion, use the match predicate form instead")
		}
		if kind == Refute {
			return nil, report.Config("the direct match form cannot be refuted, refute the match predicate form instead")
		}
		return &Plan{kind: kind, node: node, run: func() (*Outcome, error) {
			return runMatch(n)
		}}, nil
	case *ast.MatchPredicate:
		if err := pattern.Validate(n.Pattern); err != nil {
			return nil, err
		}
		return &Plan{kind: kind, node: node, run: func() (*Outcome, error) {
			return runMatchPredicate(kind, n)
		}}, nil
	case *ast.Opaque:
		return &Plan{kind: kind, node: node, run: func() (*Outcome, error) {
			return runOpaque(kind, n)
		}}, nil
	default:
		return nil, report.Config("unknown expression node %T", node)
	}
}

// Evaluate classifies and runs node in one step.
func Evaluate(kind Kind, node ast.Node, resolve Resolution) (*Outcome, error) {
	plan, err := Classify(kind, node, resolve)
	if err != nil {
		return nil, err
	}
	return plan.Run()
}

// shadowedFallback turns a comparison whose operator was rebound into the
// opaque expression the caller compiled for it.
func shadowedFallback(n *ast.Comparison) (*ast.Opaque, error) {
	if n.Fallback == nil {
		return nil, report.Config("operator %s is shadowed at the call site and the expression carries no fallback", n.Op)
	}
	return &ast.Opaque{Term: n.Fallback, Src: n.Src}, nil
}

func runComparison(kind Kind, n *ast.Comparison) (*Outcome, error) {
	left := n.Left.Eval()
	right := n.Right.Eval()

	// Asserting a strict inequality over two identical values almost
	// always means the author expected the sides to differ; the generic
	// operator message would only restate the obvious. This pre-check is
	// a readability heuristic, not part of the operator's meaning.
	if kind == Assert && strictInequality(n.Op) && pattern.Equal(left, right) {
		f := report.NewFailure("Comparison (using %s) failed, both sides are exactly equal", n.Op)
		f.Left = left
		f.Expr = n.Src
		f.Context = comparisonContext(n.Op)
		return nil, f
	}

	ok, problem := compare(n.Op, left, right)
	if problem != "" {
		f := report.NewFailure("%s", problem)
		f.Left = left
		f.Right = right
		f.Expr = n.Src
		f.Context = comparisonContext(n.Op)
		return nil, f
	}

	passed := ok
	if kind == Refute {
		passed = !ok
	}
	if !passed {
		f := report.NewFailure("%s with %s failed", kind.label(), n.Op)
		f.Left = left
		f.Right = right
		f.Expr = n.Src
		f.Context = comparisonContext(n.Op)
		return nil, f
	}
	return &Outcome{Value: ok}, nil
}

func comparisonContext(op ast.Operator) report.Context {
	if op == ast.OpStrictEqual || op == ast.OpStrictNotEqual {
		return report.ContextStrictEqual
	}
	return report.ContextEqual
}

// strictInequality reports whether op fails uninformatively when both
// sides are exactly equal.
func strictInequality(op ast.Operator) bool {
	switch op {
	case ast.OpLess, ast.OpGreater, ast.OpNotEqual, ast.OpStrictNotEqual:
		return true
	default:
		return false
	}
}

func runMatch(n *ast.Match) (*Outcome, error) {
	pins := pattern.Pins(n.Pattern)
	value := n.Value.Eval()

	bindings, mismatch := pattern.Match(n.Pattern, value)
	if mismatch != nil {
		f := report.NewFailure("match (=) failed")
		f.Left = n.Pattern.String()
		f.Right = value
		f.Expr = n.Src
		f.Context = report.ContextMatch
		f.Pins = pins
		return nil, f
	}
	return &Outcome{Value: value, Bindings: bindings}, nil
}

func runMatchPredicate(kind Kind, n *ast.MatchPredicate) (*Outcome, error) {
	pins := pattern.Pins(n.Pattern)
	value := n.Value.Eval()

	matched := pattern.Matches(n.Pattern, value)
	passed := matched
	if kind == Refute {
		passed = !matched
	}
	if !passed {
		var f *report.Failure
		if kind == Refute {
			f = report.NewFailure("match (match?) succeeded, but should have failed")
		} else {
			f = report.NewFailure("match (match?) failed")
		}
		f.Left = n.Pattern.String()
		f.Right = value
		f.Expr = n.Src
		f.Context = report.ContextMatch
		f.Pins = pins
		return nil, f
	}
	return &Outcome{Value: matched}, nil
}

func runOpaque(kind Kind, n *ast.Opaque) (*Outcome, error) {
	var value any
	var args []any
	showArgs := false

	switch {
	case n.Call != nil && !n.Call.AllLiteral():
		// Arguments go through temporaries so the diagnostic can show
		// what the call actually saw without re-running anything.
		args = make([]any, len(n.Call.Args))
		for i, a := range n.Call.Args {
			args[i] = a.Eval()
		}
		value = n.Call.Fn(args)
		showArgs = true
	case n.Call != nil:
		literal := make([]any, len(n.Call.Args))
		for i, a := range n.Call.Args {
			literal[i] = a.Eval()
		}
		value = n.Call.Fn(literal)
	default:
		value = n.Term.Eval()
	}

	passed := truthy(value)
	if kind == Refute {
		passed = !passed
	}
	if !passed {
		var f *report.Failure
		if kind == Refute {
			f = report.NewFailure("Expected false or nil, got %s", ast.FormatValue(value))
		} else {
			f = report.NewFailure("Expected truthy, got %s", ast.FormatValue(value))
		}
		f.Expr = n.Src
		if showArgs {
			f.Args = args
			f.HasArgs = true
		}
		return nil, f
	}
	return &Outcome{Value: value}, nil
}

// truthy follows the framework's truth rule: only false and nil are falsy.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}
