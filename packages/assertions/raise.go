package assertions

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"

	"github.com/abdul-hamid-achik/attest/packages/report"
)

// Raise runs op and expects it to panic with an error assignable to E,
// returning the condition for further inspection. A framework value
// escaping op (an assertion failure, a config error, a throw or exit
// signal) is re-panicked unchanged so the original diagnostic survives.
func Raise[E error](op func()) (E, error) {
	var zero E
	v, raised := capture(op)
	if !raised {
		return zero, report.NewFailure("expected %s exception but nothing was raised", typeName[E]())
	}
	if report.Framework(v) {
		panic(v)
	}
	cond, ok := v.(error)
	if !ok {
		return zero, report.NewFailure("expected %s exception but got a non-error panic: %v", typeName[E](), v)
	}
	var want E
	if errors.As(cond, &want) {
		return want, nil
	}
	return zero, report.NewFailure("expected %s exception but got %T (%s)", typeName[E](), cond, renderOrNote(cond))
}

// RaiseMessage is Raise plus a check of the condition's rendered message.
// want is an exact string or a *regexp.Regexp.
func RaiseMessage[E error](want any, op func()) (E, error) {
	cond, err := Raise[E](op)
	if err != nil {
		return cond, err
	}

	got, renderErr := renderMessage(cond)
	if renderErr != nil {
		// the condition itself blew up while producing its message;
		// report that, not a message mismatch
		return cond, report.NewFailure("got %s but it failed to produce a message: %v", typeName[E](), renderErr)
	}

	switch m := want.(type) {
	case string:
		if got != m {
			f := report.NewFailure("wrong message for %s", typeName[E]())
			f.Left = m
			f.Right = got
			f.Context = report.ContextEqual
			return cond, f
		}
	case *regexp.Regexp:
		if !m.MatchString(got) {
			f := report.NewFailure("wrong message for %s, expected a match of %s", typeName[E](), m)
			f.Right = got
			f.Context = report.ContextEqual
			return cond, f
		}
	default:
		return cond, report.Config("message matcher must be a string or *regexp.Regexp, got %T", want)
	}
	return cond, nil
}

// CatchThrow runs op and returns the value of the throw signal it lets
// escape. Any other panic, including a nested assertion failure, is
// re-panicked; completing normally is a failure.
func CatchThrow(op func()) (any, error) {
	v, raised := capture(op)
	if !raised {
		return nil, report.NewFailure("expected to catch throw, got nothing")
	}
	if sig, ok := v.(report.ThrowSignal); ok {
		return sig.Value, nil
	}
	panic(v)
}

// CatchExit mirrors CatchThrow for exit signals, returning the reason.
func CatchExit(op func()) (any, error) {
	v, raised := capture(op)
	if !raised {
		return nil, report.NewFailure("expected to catch exit, got nothing")
	}
	if sig, ok := v.(report.ExitSignal); ok {
		return sig.Reason, nil
	}
	panic(v)
}

// CatchPanic runs op and returns whatever non-framework value it panics
// with. Framework values keep propagating so assertion failures inside op
// are never mistaken for the panic under test.
func CatchPanic(op func()) (any, error) {
	v, raised := capture(op)
	if !raised {
		return nil, report.NewFailure("expected to catch panic, got nothing")
	}
	if report.Framework(v) {
		panic(v)
	}
	return v, nil
}

// capture runs op and reports the panic value it raised, if any.
func capture(op func()) (v any, raised bool) {
	defer func() {
		if r := recover(); r != nil {
			v = r
			raised = true
		}
	}()
	op()
	return nil, false
}

// renderMessage calls Error() under a recover so a panicking message
// renderer becomes a reportable error instead of tearing the unit down.
func renderMessage(err error) (msg string, renderErr error) {
	defer func() {
		if r := recover(); r != nil {
			renderErr = fmt.Errorf("panic in Error(): %v", r)
		}
	}()
	return err.Error(), nil
}

func renderOrNote(err error) string {
	msg, renderErr := renderMessage(err)
	if renderErr != nil {
		return fmt.Sprintf("<%v>", renderErr)
	}
	return msg
}

func typeName[E error]() string {
	t := reflect.TypeOf((*E)(nil)).Elem()
	return t.String()
}
