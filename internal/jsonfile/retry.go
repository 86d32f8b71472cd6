package jsonfile

import "time"

// RetryPolicy is the bounded retry schedule for acquiring a file lock.
// Attempt n (0-based) waits MinBackoff*2^n, capped at MaxBackoff.
type RetryPolicy struct {
	Retries    int
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// DefaultRetryPolicy tolerates a writer holding the lock for a few hundred
// milliseconds.
var DefaultRetryPolicy = RetryPolicy{
	Retries:    3,
	MinBackoff: 50 * time.Millisecond,
	MaxBackoff: 200 * time.Millisecond,
}

// Backoff returns the wait before retry attempt n.
func (p RetryPolicy) Backoff(n int) time.Duration {
	d := p.MinBackoff
	for i := 0; i < n; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// Attempts is the total number of lock attempts, initial try included.
func (p RetryPolicy) Attempts() int {
	if p.Retries < 0 {
		return 1
	}
	return p.Retries + 1
}
