package chat

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// MaxRetries bounds re-sends of a request that failed before any text arrived.
const MaxRetries = 3

// RetryableError is a transient upstream failure: a 429, a 5xx, an
// overloaded stream, or a transport error. StatusCode is 0 for the latter.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns the wait before retry n (0-indexed): 2^n seconds capped at
// 30s, plus up to half that again in jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	return base + time.Duration(rand.Int64N(int64(base)/2))
}
