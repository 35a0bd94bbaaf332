package waitfor

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestUntilSucceedsAfterPolling(t *testing.T) {
	calls := 0
	err := Until(context.Background(), time.Millisecond, time.Second, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not ready")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Until() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("check called %d times, want 3", calls)
	}
}

func TestUntilImmediateSuccess(t *testing.T) {
	calls := 0
	err := Until(context.Background(), time.Minute, time.Second, func(ctx context.Context) error {
		calls++
		return nil
	})

	if err != nil {
		t.Fatalf("Until() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("check called %d times, want 1 with no backoff", calls)
	}
}

func TestUntilTimeoutCarriesLastError(t *testing.T) {
	cause := errors.New("repository not materialized")
	err := Until(context.Background(), time.Millisecond, 20*time.Millisecond, func(ctx context.Context) error {
		return cause
	})

	if err == nil {
		t.Fatal("Until() = nil, want timeout error")
	}
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("errors.Is(err, ErrTimeout) = false for %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("timeout error does not carry the last observed error: %v", err)
	}
}

func TestUntilPermanentStopsEarly(t *testing.T) {
	cause := errors.New("access denied")
	calls := 0

	start := time.Now()
	err := Until(context.Background(), time.Millisecond, time.Minute, func(ctx context.Context) error {
		calls++
		return Permanent(cause)
	})

	if !errors.Is(err, cause) {
		t.Errorf("Until() = %v, want the permanent cause", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("a permanent failure must not be reported as a timeout")
	}
	if calls != 1 {
		t.Errorf("check called %d times, want 1", calls)
	}
	if time.Since(start) > 10*time.Second {
		t.Error("permanent failure did not stop the wait early")
	}
}

func TestUntilRespectsParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Until(ctx, time.Millisecond, time.Minute, func(ctx context.Context) error {
		return errors.New("still waiting")
	})

	if err == nil {
		t.Fatal("Until() = nil, want error after parent cancellation")
	}
}
