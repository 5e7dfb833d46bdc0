package sql

import (
	"fmt"
	"time"
)

const (
	// DefaultTimeout bounds a single HTTP attempt.
	DefaultTimeout = 10 * time.Second

	// DefaultRetryBackoff is the delay before the first retry.
	DefaultRetryBackoff = 250 * time.Millisecond
)

// Options controls request timing and retries.
type Options struct {
	// Timeout bounds each attempt, not the call as a whole. Zero means
	// DefaultTimeout.
	Timeout time.Duration

	// MaxRetries is the number of attempts made after the first one fails
	// with a retryable error. Zero disables retries.
	MaxRetries int

	// RetryBackoff is the base delay, doubled after every retry. Zero means
	// DefaultRetryBackoff.
	RetryBackoff time.Duration
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Timeout:      DefaultTimeout,
		MaxRetries:   0,
		RetryBackoff: DefaultRetryBackoff,
	}
}

func (o Options) withDefaults() (Options, error) {
	if o.Timeout < 0 || o.MaxRetries < 0 || o.RetryBackoff < 0 {
		return Options{}, fmt.Errorf("%w: timeout=%s max_retries=%d retry_backoff=%s",
			ErrInvalidOptions, o.Timeout, o.MaxRetries, o.RetryBackoff)
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.RetryBackoff == 0 {
		o.RetryBackoff = DefaultRetryBackoff
	}
	return o, nil
}
