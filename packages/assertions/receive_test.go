package assertions

import (
	"testing"
	"time"

	"github.com/abdul-hamid-achik/attest/packages/core/ast"
	"github.com/abdul-hamid-achik/attest/packages/mailbox"
	"github.com/abdul-hamid-achik/attest/packages/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okPattern() ast.Pattern {
	return ast.Slice(ast.Literal("ok"), ast.Bind("x", 0))
}

func TestAssertReceiveAlreadyQueued(t *testing.T) {
	m := mailbox.New()
	m.Deliver([]any{"ok", 5})

	msg, bindings, err := AssertReceive(m, okPattern(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []any{"ok", 5}, msg)

	v, ok := bindings.Get(ast.VarRef{Name: "x"})
	require.True(t, ok)
	assert.Equal(t, 5, v)
}

func TestAssertReceiveWaitsForDelivery(t *testing.T) {
	m := mailbox.New()
	go func() {
		time.Sleep(20 * time.Millisecond)
		m.Deliver([]any{"ok", 1})
	}()

	start := time.Now()
	msg, _, err := AssertReceive(m, okPattern(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, []any{"ok", 1}, msg)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestAssertReceiveSkipsNonMatching(t *testing.T) {
	m := mailbox.New()
	m.Deliver("noise")
	m.Deliver([]any{"ok", 2})

	msg, _, err := AssertReceive(m, okPattern(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []any{"ok", 2}, msg)

	// the non-matching message is still queued
	assert.Equal(t, 1, m.Len())
}

func TestAssertReceiveTimeoutSnapshot(t *testing.T) {
	m := mailbox.New()
	for i := 0; i < 12; i++ {
		m.Deliver(i)
	}

	_, _, err := AssertReceive(m, ast.Literal("hello"), 20*time.Millisecond)

	var f *report.Failure
	require.ErrorAs(t, err, &f)
	assert.Contains(t, f.Message, "no message matching")
	assert.Equal(t, report.ContextMailbox, f.Context)

	require.NotNil(t, f.Snapshot)
	assert.Equal(t, 12, f.Snapshot.TotalCount)
	assert.True(t, f.Snapshot.Truncated)
	require.Len(t, f.Snapshot.Recent, mailbox.SnapshotLimit)
	assert.Equal(t, 11, f.Snapshot.Recent[0])
}

func TestAssertReceiveTimeoutCarriesPins(t *testing.T) {
	m := mailbox.New()

	pat := ast.Slice(ast.Literal("ok"), ast.PinVar("x", 0, 5))
	_, _, err := AssertReceive(m, pat, 10*time.Millisecond)

	var f *report.Failure
	require.ErrorAs(t, err, &f)
	require.Len(t, f.Pins, 1)
	assert.Equal(t, "x", f.Pins[0].Name)
	assert.Equal(t, 5, f.Pins[0].Value)
}

func TestAfterTimeoutReportsRace(t *testing.T) {
	// a message that slipped in while the timeout fired gets the
	// race-specific failure, not plain not-found
	m := mailbox.New()
	m.Deliver("hello")

	f := afterTimeout(m, ast.Literal("hello"), 50*time.Millisecond)
	require.NotNil(t, f)
	assert.Contains(t, f.Message, "found message matching")
	assert.Contains(t, f.Message, "after 50ms")
	assert.Equal(t, "hello", f.Left)
	assert.Nil(t, f.Snapshot)
}

func TestAfterTimeoutNoMatch(t *testing.T) {
	m := mailbox.New()
	m.Deliver("noise")

	f := afterTimeout(m, ast.Literal("hello"), 50*time.Millisecond)
	require.NotNil(t, f)
	assert.Contains(t, f.Message, "no message matching")
	require.NotNil(t, f.Snapshot)
	assert.Equal(t, 1, f.Snapshot.TotalCount)
}

func TestAssertReceiveNegativeTimeout(t *testing.T) {
	m := mailbox.New()
	_, _, err := AssertReceive(m, ast.Literal(1), -time.Millisecond)

	var ce *report.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Error(), "non-negative")
}

func TestRefuteReceivePassesQuietly(t *testing.T) {
	m := mailbox.New()
	m.Deliver("noise")

	start := time.Now()
	err := RefuteReceive(m, ast.Literal("bye"), 10*time.Millisecond)
	require.NoError(t, err)

	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 10*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
	assert.Equal(t, 1, m.Len())
}

func TestRefuteReceiveFailsOnMatch(t *testing.T) {
	m := mailbox.New()
	go func() {
		time.Sleep(5 * time.Millisecond)
		m.Deliver("bye")
	}()

	err := RefuteReceive(m, ast.Literal("bye"), time.Second)

	var f *report.Failure
	require.ErrorAs(t, err, &f)
	assert.Contains(t, f.Message, "unexpectedly received")
	assert.Equal(t, "bye", f.Left)
}

func TestAssertReceivedScansWithoutBlocking(t *testing.T) {
	m := mailbox.New()
	m.Deliver([]any{"ok", 7})

	start := time.Now()
	msg, bindings, err := AssertReceived(m, okPattern())
	require.NoError(t, err)
	assert.Equal(t, []any{"ok", 7}, msg)
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	v, _ := bindings.Get(ast.VarRef{Name: "x"})
	assert.Equal(t, 7, v)
}

func TestAssertReceivedEmpty(t *testing.T) {
	m := mailbox.New()
	_, _, err := AssertReceived(m, ast.Literal(1))

	var f *report.Failure
	require.ErrorAs(t, err, &f)
	assert.Contains(t, f.Message, "in the mailbox")
	require.NotNil(t, f.Snapshot)
	assert.Equal(t, 0, f.Snapshot.TotalCount)
}

func TestRefuteReceived(t *testing.T) {
	m := mailbox.New()
	require.NoError(t, RefuteReceived(m, ast.Literal("bye")))

	m.Deliver("bye")
	err := RefuteReceived(m, ast.Literal("bye"))

	var f *report.Failure
	require.ErrorAs(t, err, &f)
}

func TestReceiveGuardedPatternAllowed(t *testing.T) {
	m := mailbox.New()
	m.Deliver([]any{"ok", 1})
	m.Deliver([]any{"ok", 10})

	big := ast.Guard(okPattern(), "x > 5", func(b *ast.Bindings) bool {
		v, _ := b.Get(ast.VarRef{Name: "x"})
		n, _ := v.(int)
		return n > 5
	})

	msg, _, err := AssertReceive(m, big, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []any{"ok", 10}, msg)
	assert.Equal(t, 1, m.Len())
}
