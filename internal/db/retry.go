package db

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Operation is a function that performs an action and returns an error if it fails.
type Operation func() error

// Retryable decides whether an error is worth another attempt.
type Retryable func(err error) bool

const DefaultMaxRetries = 3

// Try executes an operation with default retry settings. It retries duplicate
// key collisions (re-generated ids) and transient network hiccups, nothing else.
func Try(op Operation) error {
	return WithRetries(op, DefaultMaxRetries, IsRetryableMongoError)
}

// WithRetries executes an operation, retrying up to maxRetries times when the
// returned error satisfies the retryable predicate. A short incremental
// backoff is applied between attempts.
func WithRetries(op Operation, maxRetries int, retryable Retryable) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}
		if retryable(err) {
			time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
			continue
		}
		return err
	}
	return err
}

// IsRetryableMongoError reports whether an error from MongoDB is a duplicate
// key error (code 11000) or a driver-flagged transient network error.
func IsRetryableMongoError(err error) bool {
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	if mongo.IsNetworkError(err) {
		return true
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.HasErrorLabel("RetryableWriteError") {
		return true
	}
	return false
}
