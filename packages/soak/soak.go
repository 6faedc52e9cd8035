// Package soak runs a suite repeatedly under a rate and concurrency
// budget, recording latency percentiles and per-unit flake counts. It is
// the engine behind `attest flaky --soak`-style investigations: a unit
// that fails some iterations but not others is flaky, not broken.
package soak

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/attest/packages/core/runner"
)

// Config controls how long and how hard the soak runs.
type Config struct {
	// Duration bounds the wall-clock time. Zero means no time bound.
	Duration time.Duration
	// Iterations bounds the number of suite executions. Zero means no
	// iteration bound. At least one of Duration and Iterations must be set.
	Iterations int
	// Rate throttles iterations per second. Zero means unthrottled.
	Rate float64
	// Concurrency is the number of suite executions in flight at once.
	Concurrency int
}

// Runner drives repeated executions of a suite.
type Runner struct {
	cfg     Config
	inner   *runner.Runner
	limiter *rate.Limiter
	sem     chan struct{}
}

// New returns a soak runner that executes suites through inner.
func New(cfg Config, inner *runner.Runner) (*Runner, error) {
	if cfg.Duration <= 0 && cfg.Iterations <= 0 {
		return nil, fmt.Errorf("soak needs a duration or an iteration bound")
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	s := &Runner{
		cfg:   cfg,
		inner: inner,
		sem:   make(chan struct{}, cfg.Concurrency),
	}
	if cfg.Rate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}
	return s, nil
}

// Run executes the suite until the configured bound is hit or ctx is
// cancelled, then returns the aggregated report. Cancellation is not an
// error; the report covers the iterations that completed.
func (s *Runner) Run(ctx context.Context, suite *runner.Suite) (*Report, error) {
	metrics := newMetrics()
	metrics.start()

	if s.cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Duration)
		defer cancel()
	}

	var wg sync.WaitGroup
	iteration := 0

loop:
	for s.cfg.Iterations <= 0 || iteration < s.cfg.Iterations {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				break
			}
		}
		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}

		iteration++
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-s.sem }()

			began := time.Now()
			result := s.inner.Run(suite)
			metrics.recordRun(result, time.Since(began))
		}()
	}

	wg.Wait()
	metrics.stop()
	return metrics.report(), nil
}
