package report

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/attest/packages/core/ast"
	"github.com/abdul-hamid-achik/attest/packages/mailbox"
)

// Context tags which comparison shape a failure carries, so formatters
// know how to lay out its payload.
type Context int

const (
	ContextNone        Context = iota // plain truthiness failure
	ContextEqual                      // two comparable operands
	ContextStrictEqual                // operands compared without coercion
	ContextMatch                      // pattern, value and pins
	ContextMailbox                    // pattern, pins and a queue snapshot
)

func (c Context) String() string {
	switch c {
	case ContextNone:
		return "none"
	case ContextEqual:
		return "equal"
	case ContextStrictEqual:
		return "strict-equal"
	case ContextMatch:
		return "match"
	case ContextMailbox:
		return "mailbox"
	default:
		return fmt.Sprintf("Context(%d)", int(c))
	}
}

// noValue marks an operand slot that has no value, as opposed to one
// holding nil.
type noValue struct{}

func (noValue) String() string { return "<absent>" }

// NoValue is the absent-operand sentinel. Failure fields default to it so
// formatters can tell "no operand" from "operand was nil".
var NoValue any = noValue{}

// IsNoValue reports whether v is the absent-operand sentinel.
func IsNoValue(v any) bool {
	_, ok := v.(noValue)
	return ok
}

// PinnedVar is one pinned variable and the value it held when the pattern
// was built.
type PinnedVar struct {
	Name  string
	Value any
}

// Failure is a failed assertion with everything a formatter needs to
// reconstruct the call site. It implements error; rich payload fields stay
// structured so renderers decide the layout.
type Failure struct {
	Message  string
	Left     any
	Right    any
	Expr     string
	Context  Context
	Pins     []PinnedVar
	Args     []any
	HasArgs  bool
	Snapshot *mailbox.Snapshot
}

// NewFailure returns a Failure with both operand slots absent.
func NewFailure(format string, args ...any) *Failure {
	return &Failure{
		Message: fmt.Sprintf(format, args...),
		Left:    NoValue,
		Right:   NoValue,
	}
}

func (f *Failure) Error() string {
	var b strings.Builder
	b.WriteString(f.Message)
	if f.Expr != "" {
		fmt.Fprintf(&b, "\ncode:  %s", f.Expr)
	}
	if !IsNoValue(f.Left) {
		fmt.Fprintf(&b, "\nleft:  %s", ast.FormatValue(f.Left))
	}
	if !IsNoValue(f.Right) {
		fmt.Fprintf(&b, "\nright: %s", ast.FormatValue(f.Right))
	}
	if f.HasArgs {
		b.WriteString("\narguments:")
		for i, a := range f.Args {
			fmt.Fprintf(&b, "\n  #%d: %s", i+1, ast.FormatValue(a))
		}
	}
	if len(f.Pins) > 0 {
		b.WriteString("\npinned variables:")
		for _, p := range f.Pins {
			fmt.Fprintf(&b, "\n  %s = %s", p.Name, ast.FormatValue(p.Value))
		}
	}
	if f.Snapshot != nil {
		fmt.Fprintf(&b, "\nmailbox (%d queued", f.Snapshot.TotalCount)
		if f.Snapshot.Truncated {
			fmt.Fprintf(&b, ", showing %d most recent", len(f.Snapshot.Recent))
		}
		b.WriteString("):")
		if f.Snapshot.TotalCount == 0 {
			b.WriteString(" empty")
		}
		for _, msg := range f.Snapshot.Recent {
			fmt.Fprintf(&b, "\n  %s", ast.FormatValue(msg))
		}
	}
	return b.String()
}

// ConfigError is caller misuse detected before evaluation: invalid
// arguments, malformed patterns, impossible timeouts. It is never produced
// by a value legitimately failing an assertion.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

// Config builds a ConfigError.
func Config(format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// Origin is the call site a failure was raised from, when known.
type Origin struct {
	File string
	Line int
}

func (o Origin) IsZero() bool { return o.File == "" && o.Line == 0 }

func (o Origin) String() string {
	if o.IsZero() {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", o.File, o.Line)
}

// Located wraps an error with the call site it was raised from.
type Located struct {
	Err    error
	Origin Origin
}

func (l *Located) Error() string {
	if l.Origin.IsZero() {
		return l.Err.Error()
	}
	return fmt.Sprintf("%s: %s", l.Origin, l.Err.Error())
}

func (l *Located) Unwrap() error { return l.Err }

// Entry is one failure inside an Aggregate.
type Entry struct {
	Kind   string
	Err    error
	Origin Origin
}

// Aggregate collects the independent failures of one unit: the body's, plus
// any from its goroutines and cleanup hooks. Order is the order they were
// recorded.
type Aggregate struct {
	Entries []Entry
}

func (a *Aggregate) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d failures:", len(a.Entries))
	for i, e := range a.Entries {
		fmt.Fprintf(&b, "\n  %d) [%s] %s", i+1, e.Kind, indentTail(e.Err.Error()))
	}
	return b.String()
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (a *Aggregate) Unwrap() []error {
	errs := make([]error, len(a.Entries))
	for i, e := range a.Entries {
		errs[i] = e.Err
	}
	return errs
}

func indentTail(s string) string {
	return strings.ReplaceAll(s, "\n", "\n     ")
}
