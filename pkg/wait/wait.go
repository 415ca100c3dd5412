// Package wait provides the blocking predicate-polling primitive the
// interaction layer is built on.
//
// A predicate is any function returning a value or an error. Errors
// matched by the spec's Ignore set mean "not satisfied yet" and keep
// the poll loop running; any other error aborts immediately. When the
// timeout elapses the caller gets a *TimeoutError carrying the last
// observed failure.
package wait

import (
	"errors"
	"fmt"
	"time"
)

// DefaultPollInterval is the cadence between predicate evaluations
// when the spec does not set one.
const DefaultPollInterval = 500 * time.Millisecond

// ErrConditionNotMet is returned by predicates that evaluated cleanly
// but are not yet satisfied (e.g. an element exists but is hidden).
// It is always treated as ignorable, regardless of the spec's Ignore
// set.
var ErrConditionNotMet = errors.New("condition not met")

// Spec configures a single wait call. A Spec is consumed per call and
// holds no state between calls.
type Spec struct {
	// Timeout bounds the whole wait. Zero means a single evaluation.
	Timeout time.Duration

	// PollInterval is the pause between evaluations. Zero or negative
	// falls back to DefaultPollInterval.
	PollInterval time.Duration

	// Ignore reports whether a predicate error means "not satisfied
	// yet". A nil Ignore means every predicate error aborts the wait.
	Ignore func(error) bool
}

// TimeoutError reports that a wait elapsed without the predicate
// succeeding. LastErr is the most recent ignored failure, kept for
// diagnostics.
type TimeoutError struct {
	After   time.Duration
	LastErr error
}

func (e *TimeoutError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("wait timed out after %s: last failure: %v", e.After, e.LastErr)
	}
	return fmt.Sprintf("wait timed out after %s", e.After)
}

func (e *TimeoutError) Unwrap() error { return e.LastErr }

// Timeout marks the error as terminal for retry classification,
// mirroring net.Error.
func (e *TimeoutError) Timeout() bool { return true }

// Until polls pred at the spec's cadence until it succeeds, a
// non-ignored error occurs, or the timeout elapses. On success the
// value is returned immediately, without waiting out the interval.
func Until[T any](pred func() (T, error), spec Spec) (T, error) {
	var zero T

	interval := spec.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	deadline := time.Now().Add(spec.Timeout)
	var lastErr error
	for {
		v, err := pred()
		if err == nil {
			return v, nil
		}
		if !ignorable(err, spec.Ignore) {
			return zero, err
		}
		lastErr = err

		if !time.Now().Before(deadline) {
			return zero, &TimeoutError{After: spec.Timeout, LastErr: lastErr}
		}
		time.Sleep(interval)
	}
}

// True polls a boolean predicate until it reports true. A false result
// with a nil error counts as "not satisfied yet".
func True(pred func() (bool, error), spec Spec) error {
	_, err := Until(func() (struct{}, error) {
		ok, err := pred()
		if err != nil {
			return struct{}{}, err
		}
		if !ok {
			return struct{}{}, ErrConditionNotMet
		}
		return struct{}{}, nil
	}, spec)
	return err
}

func ignorable(err error, ignore func(error) bool) bool {
	if errors.Is(err, ErrConditionNotMet) {
		return true
	}
	return ignore != nil && ignore(err)
}
