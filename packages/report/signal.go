package report

import "fmt"

// ThrowSignal is a non-error control value thrown past stack frames. It is
// delivered by panicking and is only meaningful to a matching catch; an
// uncaught throw fails the unit that let it escape.
type ThrowSignal struct {
	Value any
}

func (s ThrowSignal) String() string { return fmt.Sprintf("throw(%v)", s.Value) }

// ExitSignal abandons the current unit of work with a reason.
type ExitSignal struct {
	Reason any
}

func (s ExitSignal) String() string { return fmt.Sprintf("exit(%v)", s.Reason) }

// Throw sends v up the stack as a throw signal.
func Throw(v any) {
	panic(ThrowSignal{Value: v})
}

// Exit abandons the current unit of work for the given reason.
func Exit(reason any) {
	panic(ExitSignal{Reason: reason})
}

// Framework reports whether a recovered panic value is one of the
// framework's own control values: assertion failures, configuration errors
// and signals. Catch helpers check for their own signal kind first and
// propagate every other framework value unchanged.
func Framework(v any) bool {
	switch v.(type) {
	case *Failure, *ConfigError, *Located, ThrowSignal, ExitSignal:
		return true
	default:
		return false
	}
}
