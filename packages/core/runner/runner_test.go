package runner

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/attest/packages/core/ast"
	"github.com/abdul-hamid-achik/attest/packages/core/config"
	"github.com/abdul-hamid-achik/attest/packages/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eq(left, right any) *ast.Comparison {
	return ast.Compare(ast.OpEqual,
		ast.Value("left", left), ast.Value("right", right),
		"assert left == right")
}

func TestNewRunner(t *testing.T) {
	t.Run("with nil config", func(t *testing.T) {
		r := NewRunner(nil)
		assert.NotNil(t, r)
		assert.Equal(t, DefaultConcurrency, r.config.Concurrency)
		assert.Greater(t, r.config.AssertReceiveTimeout, time.Duration(0))
	})

	t.Run("from file config", func(t *testing.T) {
		cfg := FromConfig(&config.Config{
			AssertReceiveTimeout: 250,
			RefuteReceiveTimeout: 30,
			Concurrency:          2,
			Bail:                 config.BoolPtr(true),
		})
		assert.Equal(t, 250*time.Millisecond, cfg.AssertReceiveTimeout)
		assert.Equal(t, 30*time.Millisecond, cfg.RefuteReceiveTimeout)
		assert.True(t, cfg.Bail)
		assert.Equal(t, 2, cfg.Concurrency)
	})
}

func TestRunCountsOutcomes(t *testing.T) {
	suite := &Suite{
		Name: "sample",
		Units: []UnitDef{
			{Name: "passes", Fn: func(u *Unit) { u.Assert(eq(1, 1)) }},
			{Name: "fails", Fn: func(u *Unit) { u.Assert(eq(1, 2)) }},
			{Name: "skipped", Skip: "not ready", Fn: func(u *Unit) {}},
		},
	}

	result := NewRunner(nil).Run(suite)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	assert.NotEmpty(t, result.RunID)
	require.Len(t, result.Results, 3)
}

func TestRunNameFilter(t *testing.T) {
	ran := 0
	suite := &Suite{Units: []UnitDef{
		{Name: "login works", Fn: func(u *Unit) { ran++ }},
		{Name: "logout works", Fn: func(u *Unit) { ran++ }},
	}}

	result := NewRunner(&Config{NameFilter: "login"}).Run(suite)
	assert.Equal(t, 1, ran)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "filtered out", result.Results[0].SkipReason)
}

func TestRunBailStopsSequential(t *testing.T) {
	ran := 0
	suite := &Suite{Units: []UnitDef{
		{Name: "first", Fn: func(u *Unit) { u.Assert(eq(1, 2)) }},
		{Name: "second", Fn: func(u *Unit) { ran++ }},
	}}

	result := NewRunner(&Config{Bail: true}).Run(suite)
	assert.Equal(t, 0, ran)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Results, 1)
}

func TestRunParallel(t *testing.T) {
	var ran atomic.Int32
	var units []UnitDef
	for i := 0; i < 8; i++ {
		units = append(units, UnitDef{Name: "unit", Fn: func(u *Unit) {
			ran.Add(1)
		}})
	}

	result := NewRunner(&Config{Parallel: true, Concurrency: 3}).Run(&Suite{Units: units})
	assert.Equal(t, int32(8), ran.Load())
	assert.Equal(t, 8, result.Passed)
}

func TestUnitFailureCarriesOrigin(t *testing.T) {
	suite := &Suite{Units: []UnitDef{
		{Name: "fails", Fn: func(u *Unit) { u.Assert(eq("a", "b")) }},
	}}

	result := NewRunner(nil).Run(suite)
	require.Len(t, result.Results[0].Failures, 1)

	entry := result.Results[0].Failures[0]
	assert.Equal(t, "assertion", entry.Kind)
	assert.Equal(t, "runner_test.go", entry.Origin.File)

	var f *report.Failure
	require.ErrorAs(t, entry.Err, &f)
	assert.Equal(t, "Assertion with == failed", f.Message)
}

func TestUnitMatchRebindsVariables(t *testing.T) {
	suite := &Suite{Units: []UnitDef{
		{Name: "match", Fn: func(u *Unit) {
			u.Assert(ast.NewMatch(
				ast.Slice(ast.Literal("ok"), ast.Bind("x", 0)),
				ast.Value("reply", []any{"ok", 5}),
				`assert {:ok, x} = reply`))

			// the captured variable now pins from the unit's scope
			u.Assert(ast.NewMatch(
				ast.Slice(ast.Literal("ok"), u.Pin("x")),
				ast.Value("again", []any{"ok", 5}),
				`assert {:ok, ^x} = again`))
		}},
	}}

	result := NewRunner(nil).Run(suite)
	require.True(t, result.Results[0].Passed, "failures: %v", result.Results[0].Err())
}

func TestUnitMailboxBetweenUnits(t *testing.T) {
	suite := &Suite{Units: []UnitDef{
		{Name: "receives from helper", Fn: func(u *Unit) {
			mbox := u.Mailbox()
			u.Go(func() error {
				mbox.Deliver([]any{"ok", 1})
				return nil
			})
			u.AssertReceive(ast.Slice(ast.Literal("ok"), ast.Ignore()), time.Second)
		}},
	}}

	result := NewRunner(nil).Run(suite)
	assert.True(t, result.Results[0].Passed, "failures: %v", result.Results[0].Err())
}

func TestUnitAggregatesIndependentFailures(t *testing.T) {
	suite := &Suite{Units: []UnitDef{
		{Name: "multi", Fn: func(u *Unit) {
			u.Cleanup(func() { panic(report.NewFailure("cleanup broke")) })
			u.Go(func() error { return errors.New("goroutine broke") })
			u.Assert(eq(1, 2))
		}},
	}}

	result := NewRunner(nil).Run(suite)
	res := result.Results[0]
	require.Len(t, res.Failures, 3)

	kinds := []string{res.Failures[0].Kind, res.Failures[1].Kind, res.Failures[2].Kind}
	assert.Contains(t, kinds, "assertion")
	assert.Contains(t, kinds, "goroutine")
	assert.Contains(t, kinds, "cleanup")

	var agg *report.Aggregate
	require.ErrorAs(t, res.Err(), &agg)
	assert.Len(t, agg.Entries, 3)
}

func TestUnitCleanupsRunLIFO(t *testing.T) {
	var order []int
	suite := &Suite{Units: []UnitDef{
		{Name: "cleanups", Fn: func(u *Unit) {
			u.Cleanup(func() { order = append(order, 1) })
			u.Cleanup(func() { order = append(order, 2) })
		}},
	}}

	NewRunner(nil).Run(suite)
	assert.Equal(t, []int{2, 1}, order)
}

func TestUnitCleanupRunsAfterFailure(t *testing.T) {
	cleaned := false
	suite := &Suite{Units: []UnitDef{
		{Name: "fails", Fn: func(u *Unit) {
			u.Cleanup(func() { cleaned = true })
			u.Assert(eq(1, 2))
		}},
	}}

	result := NewRunner(nil).Run(suite)
	assert.True(t, cleaned)
	assert.Equal(t, 1, result.Failed)
}

func TestUnitClassifiesSignals(t *testing.T) {
	tests := []struct {
		name string
		fn   UnitFunc
		kind string
	}{
		{"uncaught throw", func(u *Unit) { report.Throw("ball") }, "throw"},
		{"exit", func(u *Unit) { report.Exit("shutdown") }, "exit"},
		{"foreign panic", func(u *Unit) { panic("boom") }, "panic"},
		{"config error", func(u *Unit) {
			u.AssertReceive(ast.Literal(1), -time.Second)
		}, "config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewRunner(nil).Run(&Suite{Units: []UnitDef{{Name: "u", Fn: tt.fn}}})
			res := result.Results[0]
			require.Len(t, res.Failures, 1)
			assert.Equal(t, tt.kind, res.Failures[0].Kind)
		})
	}
}

func TestUnitCheckAdaptsErrorReturns(t *testing.T) {
	suite := &Suite{Units: []UnitDef{
		{Name: "check", Fn: func(u *Unit) {
			u.Check(report.NewFailure("explicit"))
		}},
	}}

	result := NewRunner(nil).Run(suite)
	require.Len(t, result.Results[0].Failures, 1)
}

func TestWarnOnBail(t *testing.T) {
	var warned []string
	cfg := &Config{Bail: true, Warn: func(format string, args ...any) {
		warned = append(warned, format)
	}}

	NewRunner(cfg).Run(&Suite{Units: []UnitDef{
		{Name: "fails", Fn: func(u *Unit) { u.Assert(eq(1, 2)) }},
	}})
	assert.NotEmpty(t, warned)
}
