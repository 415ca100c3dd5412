// Package retry wraps single browser interactions with bounded retry
// against transient driver errors.
package retry

import (
	"errors"
	"strings"
	"time"

	"github.com/tebeka/selenium"
)

// Defaults for the interaction retry policy.
const (
	DefaultMaxAttempts = 2
	DefaultBackoff     = 300 * time.Millisecond
)

// Policy bounds the retry behavior for one interaction. The zero
// value retries nothing; use Default for the standard policy.
type Policy struct {
	// MaxAttempts is the number of retries after the initial attempt.
	// A transiently failing action is executed MaxAttempts+1 times in
	// total before its error is returned.
	MaxAttempts int

	// Backoff is the fixed pause between attempts.
	Backoff time.Duration

	// Transient classifies errors that are worth retrying. Nil means
	// IsTransient.
	Transient func(error) bool

	// OnAttempt observes every attempt, successful or not. attempt is
	// 1-based; err is nil on success. Observation is the policy's only
	// side effect beyond the action itself.
	OnAttempt func(attempt int, err error)
}

// Default returns the standard interaction policy.
func Default() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Backoff:     DefaultBackoff,
	}
}

// Do executes action under the policy. Transient failures are retried
// with a fixed backoff until the attempt counter exceeds MaxAttempts;
// the original error is then returned unchanged. Non-transient errors
// are never retried.
func Do[T any](p Policy, action func() (T, error)) (T, error) {
	var zero T

	transient := p.Transient
	if transient == nil {
		transient = IsTransient
	}

	attempts := 0
	for {
		v, err := action()
		if p.OnAttempt != nil {
			p.OnAttempt(attempts+1, err)
		}
		if err == nil {
			return v, nil
		}
		if !transient(err) {
			return zero, err
		}

		attempts++
		if attempts > p.MaxAttempts {
			return zero, err
		}
		time.Sleep(p.Backoff)
	}
}

// Transient WebDriver error codes, per the W3C error taxonomy.
const (
	codeNoSuchElement    = "no such element"
	codeStaleReference   = "stale element reference"
	codeClickIntercepted = "element click intercepted"
)

// IsTransient reports whether err is a browser-state error expected to
// resolve on retry: the element is not present yet, the reference went
// stale, or the click was intercepted by an overlay.
//
// Wait timeouts are terminal even when the last observed failure was
// transient, so anything exposing Timeout() true is excluded first.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return false
	}

	var se *selenium.Error
	if errors.As(err, &se) {
		switch se.Err {
		case codeNoSuchElement, codeStaleReference, codeClickIntercepted:
			return true
		}
		return false
	}

	// Legacy (non-W3C) remote ends report flat message strings.
	msg := strings.ToLower(err.Error())
	for _, code := range []string{codeNoSuchElement, codeStaleReference, codeClickIntercepted} {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}
