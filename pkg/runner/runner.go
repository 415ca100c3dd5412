// Package runner schedules suite tests across a bounded pool of
// browser workers. Each worker owns at most one live session at a
// time; tests borrow a worker, run against its session and hand the
// worker back.
package runner

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/entrhq/gauntlet/pkg/config"
	"github.com/entrhq/gauntlet/pkg/logging"
	"github.com/entrhq/gauntlet/pkg/session"
)

// Test is one executable case. Fn receives the session bound to the
// worker the scheduler picked for this run.
type Test struct {
	Name string
	Fn   func(sess *session.Session) error
}

// Suite is an ordered collection of tests run under one configuration.
type Suite struct {
	Name  string
	Tests []Test
}

// Result is the outcome of one test, including how many executions it
// took when re-runs are enabled.
type Result struct {
	Name     string
	Worker   string
	Attempts int
	Err      error
	Duration time.Duration
}

// Failed reports whether the test ultimately failed.
func (r Result) Failed() bool { return r.Err != nil }

// Runner executes suites with up to cfg.Workers tests in flight.
type Runner struct {
	cfg      *config.Config
	registry *session.Registry
	logger   logrus.FieldLogger
}

// New returns a Runner scheduling over the registry. A nil logger
// discards output.
func New(cfg *config.Config, registry *session.Registry, logger logrus.FieldLogger) *Runner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Runner{cfg: cfg, registry: registry, logger: logger}
}

// Run executes every test in the suite and returns one result per
// test, in suite order. Concurrency is bounded by cfg.Workers; a test
// panic is converted to a failure instead of taking the process down.
// All sessions are closed before Run returns.
func (r *Runner) Run(suite Suite) []Result {
	workers := r.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	pool := make(chan string, workers)
	for i := 1; i <= workers; i++ {
		pool <- fmt.Sprintf("worker-%d", i)
	}

	r.logger.WithFields(logrus.Fields{
		"suite":   suite.Name,
		"tests":   len(suite.Tests),
		"workers": workers,
	}).Info("suite started")

	results := make([]Result, len(suite.Tests))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, test := range suite.Tests {
		i, test := i, test
		g.Go(func() error {
			worker := <-pool
			results[i] = r.runTest(worker, test)
			pool <- worker
			return nil
		})
	}
	_ = g.Wait()

	r.registry.CloseAll()
	r.logger.WithFields(logrus.Fields{
		"suite":  suite.Name,
		"failed": countFailed(results),
	}).Info("suite finished")
	return results
}

// runTest executes one test on the worker, re-running failures when
// the configuration asks for it. Every execution gets a fresh session;
// a failed run must not leak browser state into its re-run.
func (r *Runner) runTest(worker string, test Test) Result {
	runs := 1
	if r.cfg.RetryEnabled && r.cfg.RetryCount > 0 {
		runs += r.cfg.RetryCount
	}

	log := r.logger.WithFields(logrus.Fields{"test": test.Name, "worker": worker})
	start := time.Now()

	var err error
	attempts := 0
	for attempts < runs {
		attempts++
		log.WithField("attempt", attempts).Info("test started")

		err = r.execute(worker, test)
		if err == nil {
			break
		}
		log.WithError(err).WithField("attempt", attempts).Warn("test failed")
	}

	result := Result{
		Name:     test.Name,
		Worker:   worker,
		Attempts: attempts,
		Err:      err,
		Duration: time.Since(start),
	}
	if result.Failed() {
		log.WithError(err).Error("test failed permanently")
	} else {
		log.WithField("attempts", attempts).Info("test passed")
	}
	return result
}

// execute runs one attempt inside the registry's acquire/release
// bracket, converting panics into errors.
func (r *Runner) execute(worker string, test Test) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("test %s panicked: %v", test.Name, rec)
		}
	}()
	return r.registry.With(worker, r.cfg, test.Fn)
}

func countFailed(results []Result) int {
	n := 0
	for _, res := range results {
		if res.Failed() {
			n++
		}
	}
	return n
}
