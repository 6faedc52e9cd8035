package runner

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/attest/packages/assertions"
	"github.com/abdul-hamid-achik/attest/packages/core/ast"
	"github.com/abdul-hamid-achik/attest/packages/core/scope"
	"github.com/abdul-hamid-achik/attest/packages/mailbox"
	"github.com/abdul-hamid-achik/attest/packages/report"
	"golang.org/x/sync/errgroup"
)

// Unit is the per-test execution context: the variable table patterns pin
// against, the private mailbox the timed assertions watch, the helper
// goroutine group, and the failure list everything reports into.
//
// Assertion methods abort the unit body on failure by panicking with the
// located error; the runner recovers at the unit boundary and records it.
// Helper goroutines and cleanup hooks record without aborting anything
// else, so one unit can surface several independent failures.
type Unit struct {
	name  string
	cfg   *Config
	mbox  *mailbox.Mailbox
	vars  *scope.Table
	group *errgroup.Group

	mu       sync.Mutex
	failures []report.Entry
	cleanups []func()
}

func newUnit(name string, cfg *Config) *Unit {
	return &Unit{
		name:  name,
		cfg:   cfg,
		mbox:  mailbox.New(),
		vars:  scope.NewTable(),
		group: &errgroup.Group{},
	}
}

// Name returns the unit's name.
func (u *Unit) Name() string { return u.name }

// Mailbox returns the unit's private inbound queue. Other units and
// helper goroutines deliver into it; only this unit should receive.
func (u *Unit) Mailbox() *mailbox.Mailbox { return u.mbox }

// Vars returns the unit's variable table.
func (u *Unit) Vars() *scope.Table { return u.vars }

// Assert evaluates node and returns its value. A match form merges its
// captured bindings into the unit's variable table before returning the
// matched value.
func (u *Unit) Assert(node ast.Node) any {
	out, err := assertions.Evaluate(assertions.Assert, node, u.cfg.Resolution)
	if err != nil {
		u.abort(err)
	}
	u.vars.Merge(out.Bindings)
	return out.Value
}

// Refute evaluates node expecting it to be false.
func (u *Unit) Refute(node ast.Node) any {
	out, err := assertions.Evaluate(assertions.Refute, node, u.cfg.Resolution)
	if err != nil {
		u.abort(err)
	}
	return out.Value
}

// Pin resolves name in the unit's scope into a pinned-reference pattern.
func (u *Unit) Pin(name string) *ast.Pin {
	pin, err := u.vars.Pin(name)
	if err != nil {
		u.abort(err)
	}
	return pin
}

// AssertReceive waits for a message matching p, using the configured
// default timeout unless one is given. Captured bindings merge into the
// unit's variable table.
func (u *Unit) AssertReceive(p ast.Pattern, timeout ...time.Duration) any {
	msg, bindings, err := assertions.AssertReceive(u.mbox, p, pick(u.cfg.AssertReceiveTimeout, timeout))
	if err != nil {
		u.abort(err)
	}
	u.vars.Merge(bindings)
	return msg
}

// RefuteReceive asserts no message matching p arrives within the window.
func (u *Unit) RefuteReceive(p ast.Pattern, timeout ...time.Duration) {
	if err := assertions.RefuteReceive(u.mbox, p, pick(u.cfg.RefuteReceiveTimeout, timeout)); err != nil {
		u.abort(err)
	}
}

// AssertReceived asserts a matching message is already queued.
func (u *Unit) AssertReceived(p ast.Pattern) any {
	msg, bindings, err := assertions.AssertReceived(u.mbox, p)
	if err != nil {
		u.abort(err)
	}
	u.vars.Merge(bindings)
	return msg
}

// RefuteReceived asserts no matching message is already queued.
func (u *Unit) RefuteReceived(p ast.Pattern) {
	if err := assertions.RefuteReceived(u.mbox, p); err != nil {
		u.abort(err)
	}
}

// Check aborts the unit when err is non-nil. It adapts helpers that
// return errors, like the raise/catch family, to the abort-on-failure
// style of the other methods.
func (u *Unit) Check(err error) {
	if err != nil {
		u.abort(err)
	}
}

// Go runs fn on a helper goroutine joined at unit end. An error or a
// panic from fn is recorded as its own failure; it never tears down the
// process or masks the body's outcome.
func (u *Unit) Go(fn func() error) {
	u.group.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				u.record(entryFor(r, "goroutine"))
			}
		}()
		if err := fn(); err != nil {
			u.record(report.Entry{Kind: "goroutine", Err: err})
		}
		return nil
	})
}

// Cleanup registers fn to run after the unit body and its goroutines
// finish. Hooks run last-registered first; each failure is recorded
// independently.
func (u *Unit) Cleanup(fn func()) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.cleanups = append(u.cleanups, fn)
}

// abort records nothing itself: it panics with the failure wrapped in its
// call site so the unit boundary can classify and record it.
func (u *Unit) abort(err error) {
	panic(&report.Located{Err: err, Origin: callerOrigin(3)})
}

func (u *Unit) record(e report.Entry) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failures = append(u.failures, e)
}

func (u *Unit) snapshotFailures() []report.Entry {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]report.Entry, len(u.failures))
	copy(out, u.failures)
	return out
}

// runUnit drives one unit through body, goroutine join and cleanups,
// collecting every failure along the way.
func (r *Runner) runUnit(def UnitDef) *UnitResult {
	start := time.Now()
	u := newUnit(def.Name, r.config)

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				u.record(entryFor(rec, "assertion"))
			}
		}()
		def.Fn(u)
	}()

	_ = u.group.Wait() // goroutine failures were recorded as they happened

	cleanups := func() []func() {
		u.mu.Lock()
		defer u.mu.Unlock()
		return u.cleanups
	}()
	for i := len(cleanups) - 1; i >= 0; i-- {
		func(fn func()) {
			defer func() {
				if rec := recover(); rec != nil {
					u.record(entryFor(rec, "cleanup"))
				}
			}()
			fn()
		}(cleanups[i])
	}

	u.mbox.Close()

	failures := u.snapshotFailures()
	return &UnitResult{
		Name:     def.Name,
		Passed:   len(failures) == 0,
		Duration: time.Since(start),
		Failures: failures,
	}
}

// entryFor classifies a recovered value into a failure entry. where names
// which part of the unit raised it.
func entryFor(v any, where string) report.Entry {
	switch x := v.(type) {
	case *report.Located:
		e := entryFor(x.Err, where)
		e.Err = x.Err
		e.Origin = x.Origin
		return e
	case *report.Failure:
		return report.Entry{Kind: where, Err: x}
	case *report.ConfigError:
		return report.Entry{Kind: "config", Err: x}
	case report.ThrowSignal:
		return report.Entry{Kind: "throw", Err: fmt.Errorf("uncaught throw: %v", x.Value)}
	case report.ExitSignal:
		return report.Entry{Kind: "exit", Err: fmt.Errorf("exited: %v", x.Reason)}
	case error:
		return report.Entry{Kind: where, Err: x}
	default:
		return report.Entry{Kind: "panic", Err: fmt.Errorf("panic: %v", x)}
	}
}

func pick(fallback time.Duration, override []time.Duration) time.Duration {
	if len(override) > 0 {
		return override[0]
	}
	return fallback
}

func callerOrigin(skip int) report.Origin {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return report.Origin{}
	}
	return report.Origin{File: filepath.Base(file), Line: line}
}
