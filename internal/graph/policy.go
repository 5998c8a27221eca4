package graph

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds a single Graph call, including reading the body.
const DefaultTimeout = 15 * time.Second

// BackoffFunc decides whether a failed attempt is retried and after how
// long. attempt starts at 1. status is 0 when err is a transport error.
type BackoffFunc func(attempt, status int, err error) (time.Duration, bool)

// Policy is the per-call timeout and retry strategy of a Client.
type Policy struct {
	// Timeout applies to each attempt separately. Zero means DefaultTimeout.
	Timeout time.Duration
	// Backoff is consulted after every unsuccessful attempt. nil means NoRetry.
	Backoff BackoffFunc
}

// NoRetry attempts every call exactly once.
func NoRetry(int, int, error) (time.Duration, bool) {
	return 0, false
}

// DefaultPolicy is one attempt per call with DefaultTimeout.
func DefaultPolicy() Policy {
	return Policy{Timeout: DefaultTimeout, Backoff: NoRetry}
}

// ExponentialBackoff retries transport errors, 429 and 5xx up to
// maxAttempts in total, waiting base, 2*base, 4*base, ... between attempts.
//
// POSTs to /feed and /media_publish are not idempotent on Facebook's side:
// a timed-out attempt may still have posted. Only use this where a rare
// duplicate post is acceptable.
func ExponentialBackoff(maxAttempts int, base time.Duration) BackoffFunc {
	return func(attempt, status int, err error) (time.Duration, bool) {
		if attempt >= maxAttempts {
			return 0, false
		}
		if err == nil && status != http.StatusTooManyRequests && status < 500 {
			return 0, false
		}
		return base << (attempt - 1), true
	}
}

func (p Policy) withDefaults() Policy {
	if p.Timeout <= 0 {
		p.Timeout = DefaultTimeout
	}
	if p.Backoff == nil {
		p.Backoff = NoRetry
	}
	return p
}
