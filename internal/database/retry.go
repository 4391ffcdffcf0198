// internal/database/retry.go
package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"time"
)

const (
	defaultRetryAttempts = 3
	baseRetryDelay       = 100 * time.Millisecond
)

// IsTransient reports whether an error is an infrastructure failure worth
// retrying. Business-rule errors never qualify.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Retry runs fn with exponential backoff, retrying only transient failures.
func Retry(ctx context.Context, fn func() error) error {
	delay := baseRetryDelay
	var err error

	for attempt := 0; attempt < defaultRetryAttempts; attempt++ {
		if err = fn(); err == nil || !IsTransient(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return err
}
