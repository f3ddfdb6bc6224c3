// Package store keeps rendered output: job results and the synchronous
// render cache. Results live in memory for a single instance or in Redis when
// several instances share them.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a key is missing or expired.
var ErrNotFound = errors.New("store: not found")

// Store is a byte-value store with per-key expiry. A zero ttl means no expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, val []byte, ttl time.Duration) error
	// Delete removes key and reports whether it was present.
	Delete(ctx context.Context, key string) (bool, error)
	Close() error
}

// RetryableError wraps a transport failure that may succeed on retry.
type RetryableError struct {
	Op  string
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err carries a RetryableError.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// ResultKey names one output of a job ("content", "skeleton").
func ResultKey(jobID, part string) string {
	return "result:" + jobID + ":" + part
}

// RenderKey names a cached synchronous render.
func RenderKey(contentHash string, loading bool, output string) string {
	return fmt.Sprintf("render:%s:%t:%s", contentHash, loading, output)
}
