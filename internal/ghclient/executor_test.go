package ghclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	gh "github.com/google/go-github/v57/github"
)

func makeResp(status int, headers map[string]string) *gh.Response {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	return &gh.Response{Response: &http.Response{StatusCode: status, Header: h}}
}

// testExecutor returns an executor whose backoff sleeps are recorded
// instead of slept.
func testExecutor() (*Executor, *[]time.Duration) {
	var slept []time.Duration
	e := NewExecutor(NewGovernor(nil))
	e.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return e, &slept
}

func TestExecutorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		headers   map[string]string
		wantKind  Kind
		wantCalls int
	}{
		{
			name:      "404 is terminal, never retried",
			status:    http.StatusNotFound,
			wantKind:  KindNotFound,
			wantCalls: 1,
		},
		{
			name:      "403 with spent quota is quota exhausted",
			status:    http.StatusForbidden,
			headers:   map[string]string{"X-RateLimit-Remaining": "0", "X-RateLimit-Reset": "1764000000"},
			wantKind:  KindQuotaExhausted,
			wantCalls: 1,
		},
		{
			name:      "403 otherwise is forbidden",
			status:    http.StatusForbidden,
			wantKind:  KindForbidden,
			wantCalls: 1,
		},
		{
			name:      "422 is terminal unprocessable",
			status:    http.StatusUnprocessableEntity,
			wantKind:  KindUnprocessable,
			wantCalls: 1,
		},
		{
			name:      "500 retries to exhaustion",
			status:    http.StatusInternalServerError,
			wantKind:  KindRetriesExhausted,
			wantCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := testExecutor()
			calls := 0

			err := e.Do(context.Background(), "test op", func(ctx context.Context) (*gh.Response, error) {
				calls++
				return makeResp(tt.status, tt.headers), fmt.Errorf("HTTP %d", tt.status)
			})

			if !IsKind(err, tt.wantKind) {
				t.Errorf("Do() = %v, want kind %s", err, tt.wantKind)
			}
			if calls != tt.wantCalls {
				t.Errorf("call count = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestExecutorLinearBackoff(t *testing.T) {
	e, slept := testExecutor()

	err := e.Do(context.Background(), "flaky op", func(ctx context.Context) (*gh.Response, error) {
		return makeResp(http.StatusBadGateway, nil), errors.New("bad gateway")
	})

	if !IsKind(err, KindRetriesExhausted) {
		t.Fatalf("Do() = %v, want RetriesExhausted", err)
	}

	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("slept %d times, want %d", len(*slept), len(want))
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Errorf("sleep[%d] = %v, want %v", i, (*slept)[i], d)
		}
	}
}

func TestExecutorTransportFailureRetries(t *testing.T) {
	e, _ := testExecutor()
	calls := 0

	err := e.Do(context.Background(), "unreachable", func(ctx context.Context) (*gh.Response, error) {
		calls++
		return nil, errors.New("connection refused")
	})

	if !IsKind(err, KindRetriesExhausted) {
		t.Errorf("Do() = %v, want RetriesExhausted", err)
	}
	if calls != 3 {
		t.Errorf("call count = %d, want 3", calls)
	}
}

func TestExecutorRecoversMidRetry(t *testing.T) {
	e, _ := testExecutor()
	calls := 0

	err := e.Do(context.Background(), "recovering", func(ctx context.Context) (*gh.Response, error) {
		calls++
		if calls < 3 {
			return makeResp(http.StatusServiceUnavailable, nil), errors.New("unavailable")
		}
		return makeResp(http.StatusOK, nil), nil
	})

	if err != nil {
		t.Errorf("Do() = %v, want nil after recovery", err)
	}
	if calls != 3 {
		t.Errorf("call count = %d, want 3", calls)
	}
}

func TestExecutorAcceptedIsSuccess(t *testing.T) {
	e, _ := testExecutor()

	err := e.Do(context.Background(), "fork", func(ctx context.Context) (*gh.Response, error) {
		return makeResp(http.StatusAccepted, nil), &gh.AcceptedError{}
	})

	if err != nil {
		t.Errorf("Do() = %v, want nil for 202 Accepted", err)
	}
}

func TestExecutorFeedsGovernor(t *testing.T) {
	e, _ := testExecutor()

	err := e.Do(context.Background(), "read", func(ctx context.Context) (*gh.Response, error) {
		return makeResp(http.StatusOK, map[string]string{
			"X-RateLimit-Remaining": "4000",
			"X-RateLimit-Limit":     "5000",
			"X-RateLimit-Reset":     "1764000000",
		}), nil
	})
	if err != nil {
		t.Fatalf("Do() = %v, want nil", err)
	}

	snap, ok := e.governor.Snapshot()
	if !ok {
		t.Fatal("governor never observed the response headers")
	}
	if snap.Remaining != 4000 {
		t.Errorf("governor Remaining = %d, want 4000", snap.Remaining)
	}
}

func TestExecutorBlockedByGovernor(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e, _ := testExecutor()
	e.governor.now = func() time.Time { return base }
	e.governor.set(Snapshot{Remaining: 2, Limit: 5000, ResetAt: base.Add(time.Hour)})

	calls := 0
	err := e.Do(context.Background(), "gated", func(ctx context.Context) (*gh.Response, error) {
		calls++
		return makeResp(http.StatusOK, nil), nil
	})

	if !IsQuotaExhausted(err) {
		t.Errorf("Do() = %v, want QuotaExhausted from the governor", err)
	}
	if calls != 0 {
		t.Errorf("call count = %d, want 0 when the governor blocks", calls)
	}
}

func TestErrorReportsResetTime(t *testing.T) {
	e, _ := testExecutor()

	resetAt := time.Now().Add(30 * time.Minute).Unix()
	err := e.Do(context.Background(), "spent", func(ctx context.Context) (*gh.Response, error) {
		return makeResp(http.StatusForbidden, map[string]string{
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     fmt.Sprintf("%d", resetAt),
		}), errors.New("rate limit exceeded")
	})

	ghErr, ok := AsError(err)
	if !ok {
		t.Fatalf("Do() = %v, want *Error", err)
	}
	if ghErr.ResetAt.Unix() != resetAt {
		t.Errorf("ResetAt = %v, want unix %d", ghErr.ResetAt, resetAt)
	}
}
