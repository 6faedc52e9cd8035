package soak

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/abdul-hamid-achik/attest/packages/core/runner"
)

// Report is the aggregated outcome of a soak.
type Report struct {
	Iterations       int64
	FailedIterations int64
	Elapsed          time.Duration

	// Iteration latency percentiles.
	P50 time.Duration
	P95 time.Duration
	P99 time.Duration
	Max time.Duration

	// Per-unit stats, flakiest first.
	Units []UnitStats
}

// UnitStats counts one unit's outcomes across all iterations.
type UnitStats struct {
	Name     string
	Runs     int64
	Failures int64
}

// Flaky reports whether the unit both passed and failed during the soak.
func (u UnitStats) Flaky() bool {
	return u.Failures > 0 && u.Failures < u.Runs
}

// FailRate is the fraction of runs that failed.
func (u UnitStats) FailRate() float64 {
	if u.Runs == 0 {
		return 0
	}
	return float64(u.Failures) / float64(u.Runs)
}

type unitCounter struct {
	runs     atomic.Int64
	failures atomic.Int64
}

type metrics struct {
	iterations       atomic.Int64
	failedIterations atomic.Int64

	mu        sync.Mutex
	histogram *hdrhistogram.Histogram
	units     map[string]*unitCounter

	startTime time.Time
	endTime   time.Time
}

func newMetrics() *metrics {
	return &metrics{
		// 1us to 60s range, 3 significant digits
		histogram: hdrhistogram.New(1, 60_000_000, 3),
		units:     make(map[string]*unitCounter),
	}
}

func (m *metrics) start() { m.startTime = time.Now() }
func (m *metrics) stop()  { m.endTime = time.Now() }

func (m *metrics) recordRun(result *runner.RunResult, elapsed time.Duration) {
	m.iterations.Add(1)
	if result.Failed > 0 {
		m.failedIterations.Add(1)
	}

	latencyUs := elapsed.Microseconds()
	if latencyUs < 1 {
		latencyUs = 1
	}
	if latencyUs > 60_000_000 {
		latencyUs = 60_000_000
	}

	m.mu.Lock()
	_ = m.histogram.RecordValue(latencyUs)
	m.mu.Unlock()

	for _, r := range result.Results {
		if r.Skipped {
			continue
		}
		c := m.counter(r.Name)
		c.runs.Add(1)
		if !r.Passed {
			c.failures.Add(1)
		}
	}
}

func (m *metrics) counter(name string) *unitCounter {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.units[name]
	if !ok {
		c = &unitCounter{}
		m.units[name] = c
	}
	return c
}

func (m *metrics) report() *Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := &Report{
		Iterations:       m.iterations.Load(),
		FailedIterations: m.failedIterations.Load(),
		Elapsed:          m.endTime.Sub(m.startTime),
		P50:              time.Duration(m.histogram.ValueAtQuantile(50)) * time.Microsecond,
		P95:              time.Duration(m.histogram.ValueAtQuantile(95)) * time.Microsecond,
		P99:              time.Duration(m.histogram.ValueAtQuantile(99)) * time.Microsecond,
		Max:              time.Duration(m.histogram.Max()) * time.Microsecond,
	}

	for name, c := range m.units {
		r.Units = append(r.Units, UnitStats{
			Name:     name,
			Runs:     c.runs.Load(),
			Failures: c.failures.Load(),
		})
	}
	sort.Slice(r.Units, func(i, j int) bool {
		if r.Units[i].Failures != r.Units[j].Failures {
			return r.Units[i].Failures > r.Units[j].Failures
		}
		return r.Units[i].Name < r.Units[j].Name
	})
	return r
}
