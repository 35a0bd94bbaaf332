// Package waitfor implements a retry-until-or-timeout primitive: poll a
// condition at a fixed interval until it holds, fails permanently, or a
// deadline elapses.
package waitfor

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff"
)

// ErrTimeout is returned (wrapped) when the deadline elapses before the
// condition holds.
var ErrTimeout = errors.New("wait timed out")

// Permanent marks an error as terminal so polling stops immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Until polls check every interval until it returns nil, returns a
// Permanent error, or timeout elapses. On timeout the last observed error
// is attached so the caller sees why the condition never held; a timeout is
// never reported as silent success.
func Until(ctx context.Context, interval, timeout time.Duration, check func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	op := func() error {
		err := check(ctx)
		if err != nil {
			var perm *backoff.PermanentError
			if errors.As(err, &perm) {
				lastErr = perm.Err
			} else {
				lastErr = err
			}
		}
		return err
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(interval), ctx)
	err := backoff.Retry(op, b)
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		if lastErr != nil {
			return &TimeoutError{Timeout: timeout, LastErr: lastErr}
		}
		return &TimeoutError{Timeout: timeout, LastErr: ctx.Err()}
	}

	// Retry unwraps Permanent errors itself; err is already the cause.
	return err
}

// TimeoutError reports an elapsed deadline together with the last error
// observed while polling.
type TimeoutError struct {
	Timeout time.Duration
	LastErr error
}

func (e *TimeoutError) Error() string {
	return "condition not met within " + e.Timeout.String() + ": " + e.LastErr.Error()
}

func (e *TimeoutError) Unwrap() error {
	return e.LastErr
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}
