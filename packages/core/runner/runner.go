package runner

import (
	"strings"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/attest/packages/assertions"
	"github.com/abdul-hamid-achik/attest/packages/core/config"
	"github.com/abdul-hamid-achik/attest/packages/report"
	"github.com/google/uuid"
)

const (
	// DefaultConcurrency is the default number of units running at once
	// in parallel mode.
	DefaultConcurrency = 5
)

// WarnFunc receives advisory conditions that are not failures.
type WarnFunc func(format string, args ...any)

// UnitFunc is a test unit's body.
type UnitFunc func(u *Unit)

// UnitDef names a unit inside a suite. A non-empty Skip marks the unit
// skipped with that reason, without running it.
type UnitDef struct {
	Name string
	Skip string
	Fn   UnitFunc
}

// Suite is an ordered collection of units.
type Suite struct {
	Name  string
	Units []UnitDef
}

// Config controls how a Runner executes suites.
type Config struct {
	Verbose              bool
	Bail                 bool
	NameFilter           string
	Parallel             bool
	Concurrency          int
	AssertReceiveTimeout time.Duration
	RefuteReceiveTimeout time.Duration
	Resolution           assertions.Resolution
	Warn                 WarnFunc
}

// FromConfig builds a runner Config from file configuration.
func FromConfig(c *config.Config) *Config {
	return &Config{
		Verbose:              c.GetVerbose(),
		Bail:                 c.GetBail(),
		NameFilter:           c.NameFilter,
		Parallel:             c.GetParallel(),
		Concurrency:          c.Concurrency,
		AssertReceiveTimeout: time.Duration(c.AssertReceiveTimeout) * time.Millisecond,
		RefuteReceiveTimeout: time.Duration(c.RefuteReceiveTimeout) * time.Millisecond,
	}
}

// Runner executes suites under one configuration.
type Runner struct {
	config *Config
}

func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.AssertReceiveTimeout <= 0 {
		cfg.AssertReceiveTimeout = assertions.DefaultAssertReceiveTimeout
	}
	if cfg.RefuteReceiveTimeout <= 0 {
		cfg.RefuteReceiveTimeout = assertions.DefaultRefuteReceiveTimeout
	}
	return &Runner{config: cfg}
}

// RunResult aggregates one suite execution. RunID correlates this run
// across output files and the history store.
type RunResult struct {
	Suite    string
	RunID    string
	Results  []*UnitResult
	Duration time.Duration
	Passed   int
	Failed   int
	Skipped  int
}

// UnitResult is one unit's outcome. Failures holds every independent
// failure the unit produced, in the order they were recorded.
type UnitResult struct {
	Name       string
	Passed     bool
	Skipped    bool
	SkipReason string
	Duration   time.Duration
	Failures   []report.Entry
}

// Err folds the unit's failures into a single error: nil when it passed,
// the lone failure when there was exactly one, an Aggregate otherwise.
func (r *UnitResult) Err() error {
	switch len(r.Failures) {
	case 0:
		return nil
	case 1:
		return r.Failures[0].Err
	default:
		return &report.Aggregate{Entries: r.Failures}
	}
}

// Run executes every unit in the suite and tallies the outcome.
func (r *Runner) Run(suite *Suite) *RunResult {
	start := time.Now()
	result := &RunResult{
		Suite: suite.Name,
		RunID: uuid.NewString(),
	}

	var selected []UnitDef
	for _, def := range suite.Units {
		if !r.shouldRun(def) {
			result.Results = append(result.Results, &UnitResult{
				Name:       def.Name,
				Skipped:    true,
				SkipReason: "filtered out",
			})
			result.Skipped++
			continue
		}
		if def.Skip != "" {
			result.Results = append(result.Results, &UnitResult{
				Name:       def.Name,
				Skipped:    true,
				SkipReason: def.Skip,
			})
			result.Skipped++
			continue
		}
		selected = append(selected, def)
	}

	if r.config.Parallel {
		for _, unitResult := range r.runParallel(selected) {
			result.Results = append(result.Results, unitResult)
			if unitResult.Passed {
				result.Passed++
			} else {
				result.Failed++
			}
		}
	} else {
		for _, def := range selected {
			unitResult := r.runUnit(def)
			result.Results = append(result.Results, unitResult)
			if unitResult.Passed {
				result.Passed++
			} else {
				result.Failed++
				if r.config.Bail {
					r.warn("bail: stopping after %s failed", def.Name)
					break
				}
			}
		}
	}

	result.Duration = time.Since(start)
	return result
}

func (r *Runner) runParallel(defs []UnitDef) []*UnitResult {
	results := make([]*UnitResult, len(defs))
	var wg sync.WaitGroup
	sem := make(chan struct{}, r.config.Concurrency)

	for i, def := range defs {
		wg.Add(1)
		sem <- struct{}{} // acquire semaphore

		go func(idx int, d UnitDef) {
			defer wg.Done()
			defer func() { <-sem }() // release semaphore

			results[idx] = r.runUnit(d)
		}(i, def)
	}

	wg.Wait()
	return results
}

func (r *Runner) shouldRun(def UnitDef) bool {
	if r.config.NameFilter == "" {
		return true
	}
	return strings.Contains(def.Name, r.config.NameFilter)
}

func (r *Runner) warn(format string, args ...any) {
	if r.config.Warn != nil {
		r.config.Warn(format, args...)
	}
}
