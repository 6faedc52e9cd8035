package assertions

import (
	"time"

	"github.com/abdul-hamid-achik/attest/packages/core/ast"
	"github.com/abdul-hamid-achik/attest/packages/mailbox"
	"github.com/abdul-hamid-achik/attest/packages/pattern"
	"github.com/abdul-hamid-achik/attest/packages/report"
)

// Default timeouts for the timed mailbox assertions, overridable per call
// and through configuration. Refute waits the full window every time, so
// its default is kept tighter.
const (
	DefaultAssertReceiveTimeout = 100 * time.Millisecond
	DefaultRefuteReceiveTimeout = 100 * time.Millisecond
)

// AssertReceive blocks until a message matching p arrives in m or timeout
// elapses. On success the matching message is consumed and returned with
// the bindings its variables captured; everything else stays queued in
// arrival order.
//
// When the deadline fires, delivery may have raced it: a matching message
// can be sitting in the queue even though the blocking wait never saw it.
// One synchronous re-scan decides which failure to report; the assertion
// fails either way, because the timeout contract was violated.
func AssertReceive(m *mailbox.Mailbox, p ast.Pattern, timeout time.Duration) (any, *ast.Bindings, error) {
	if err := receivePrecheck(p, timeout); err != nil {
		return nil, nil, err
	}
	pred := func(msg any) bool { return pattern.Matches(p, msg) }

	if msg, ok := m.Receive(pred, timeout); ok {
		bindings, _ := pattern.Match(p, msg)
		return msg, bindings, nil
	}
	return nil, nil, afterTimeout(m, p, timeout)
}

// afterTimeout runs the post-deadline re-check. A matching message found
// now arrived while the timeout was firing; that gets the race-specific
// failure. Otherwise the scan and the snapshot happen in one critical
// section, so the snapshot shows exactly the queue that failed to match.
func afterTimeout(m *mailbox.Mailbox, p ast.Pattern, timeout time.Duration) *report.Failure {
	pred := func(msg any) bool { return pattern.Matches(p, msg) }
	msg, found, snap := m.TryReceiveSnapshot(pred, mailbox.SnapshotLimit)
	if found {
		f := report.NewFailure("found message matching %s after %dms, it arrived after the timeout had already fired", p, timeout.Milliseconds())
		f.Left = msg
		f.Expr = p.String()
		f.Context = report.ContextMailbox
		f.Pins = pattern.Pins(p)
		return f
	}
	return noMessageFailure(p, timeout, snap)
}

// RefuteReceive asserts that no message matching p arrives in m within
// timeout. A matching arrival is the violation and is reported at once,
// carrying the offending message.
func RefuteReceive(m *mailbox.Mailbox, p ast.Pattern, timeout time.Duration) error {
	if err := receivePrecheck(p, timeout); err != nil {
		return err
	}
	pred := func(msg any) bool { return pattern.Matches(p, msg) }

	if msg, ok := m.Receive(pred, timeout); ok {
		return unexpectedMessageFailure(p, msg)
	}
	return nil
}

// AssertReceived is the zero-timeout form of AssertReceive: one
// non-blocking scan of messages already queued, no suspension.
func AssertReceived(m *mailbox.Mailbox, p ast.Pattern) (any, *ast.Bindings, error) {
	if err := receivePrecheck(p, 0); err != nil {
		return nil, nil, err
	}
	pred := func(msg any) bool { return pattern.Matches(p, msg) }

	msg, ok, snap := m.TryReceiveSnapshot(pred, mailbox.SnapshotLimit)
	if !ok {
		return nil, nil, noMessageFailure(p, 0, snap)
	}
	bindings, _ := pattern.Match(p, msg)
	return msg, bindings, nil
}

// RefuteReceived asserts that no message matching p is already queued.
func RefuteReceived(m *mailbox.Mailbox, p ast.Pattern) error {
	if err := receivePrecheck(p, 0); err != nil {
		return err
	}
	pred := func(msg any) bool { return pattern.Matches(p, msg) }

	if msg, ok := m.TryReceive(pred); ok {
		return unexpectedMessageFailure(p, msg)
	}
	return nil
}

func receivePrecheck(p ast.Pattern, timeout time.Duration) error {
	if timeout < 0 {
		return report.Config("receive timeout must be non-negative, got %v", timeout)
	}
	return pattern.Validate(p)
}

func noMessageFailure(p ast.Pattern, timeout time.Duration, snap mailbox.Snapshot) *report.Failure {
	var f *report.Failure
	if timeout > 0 {
		f = report.NewFailure("no message matching %s after %dms", p, timeout.Milliseconds())
	} else {
		f = report.NewFailure("no message matching %s in the mailbox", p)
	}
	f.Expr = p.String()
	f.Context = report.ContextMailbox
	f.Pins = pattern.Pins(p)
	f.Snapshot = &snap
	return f
}

func unexpectedMessageFailure(p ast.Pattern, msg any) *report.Failure {
	f := report.NewFailure("unexpectedly received message %s, which matched %s", ast.FormatValue(msg), p)
	f.Left = msg
	f.Expr = p.String()
	f.Context = report.ContextMailbox
	f.Pins = pattern.Pins(p)
	return f
}
