package ghclient

import (
	"context"
	"errors"
	"net/http"
	"time"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/time/rate"

	"github.com/repolift/repolift/internal/log"
)

const (
	// defaultMaxAttempts is how many times a retryable call is tried.
	defaultMaxAttempts = 3

	// retryBaseDelay is multiplied by the attempt index for linear backoff.
	retryBaseDelay = 1 * time.Second

	// pacerRatePerSecond smooths concurrent callers so bursts do not land
	// on the API all at once even when quota is plentiful.
	pacerRatePerSecond = 8
)

// Executor wraps every outbound GitHub call with governor checks, quota
// header observation, failure classification, and bounded linear-backoff
// retry. Reads and writes share the same policy; the executor never
// deduplicates writes, so callers must supply idempotent targets.
type Executor struct {
	governor    *Governor
	maxAttempts int
	baseDelay   time.Duration
	pacer       *rate.Limiter

	// sleep is replaceable in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an executor gated by the given governor.
func NewExecutor(governor *Governor) *Executor {
	return &Executor{
		governor:    governor,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   retryBaseDelay,
		pacer:       rate.NewLimiter(rate.Limit(pacerRatePerSecond), pacerRatePerSecond),
		sleep:       sleepContext,
	}
}

// Do runs call until it succeeds, fails terminally, or exhausts its
// attempts. Every response's quota headers feed the governor before the
// outcome is classified, successful or not.
func (e *Executor) Do(ctx context.Context, op string, call func(ctx context.Context) (*gh.Response, error)) error {
	var lastErr error

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if err := e.governor.CheckBeforeCall(ctx); err != nil {
			return err
		}
		if err := e.pacer.Wait(ctx); err != nil {
			return err
		}

		resp, err := call(ctx)
		if resp != nil {
			e.governor.Observe(resp.Header)
		}
		if err == nil {
			return nil
		}

		// go-github surfaces 202 Accepted (e.g. fork scheduling) as an
		// error even though the request succeeded.
		var accepted *gh.AcceptedError
		if errors.As(err, &accepted) {
			return nil
		}

		if terminal := classify(op, resp, err); terminal != nil {
			return terminal
		}

		lastErr = err
		if attempt < e.maxAttempts {
			delay := time.Duration(attempt) * e.baseDelay
			log.Debug("transient failure, retrying",
				"op", op, "attempt", attempt, "delay", delay, "error", err)
			if serr := e.sleep(ctx, delay); serr != nil {
				return serr
			}
		}
	}

	return &Error{
		Kind: KindRetriesExhausted,
		Op:   op,
		Hint: "the service may be unstable, try again later",
		Err:  lastErr,
	}
}

// classify maps a failed response to a terminal error, or nil when the
// failure is retryable. Transport failures (no response at all) retry.
func classify(op string, resp *gh.Response, err error) *Error {
	if resp == nil {
		return nil
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return &Error{Kind: KindNotFound, Op: op, Status: resp.StatusCode, Err: err}

	case http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			resetAt := time.Time{}
			if reset, ok := headerInt(resp.Header, "X-RateLimit-Reset"); ok {
				resetAt = time.Unix(int64(reset), 0)
			}
			return &Error{
				Kind:    KindQuotaExhausted,
				Op:      op,
				Status:  resp.StatusCode,
				ResetAt: resetAt,
				Hint:    "wait for the rate limit window to reset",
				Err:     err,
			}
		}
		return &Error{
			Kind:   KindForbidden,
			Op:     op,
			Status: resp.StatusCode,
			Hint:   "the token may lack the repo scope or write access",
			Err:    err,
		}

	case http.StatusUnprocessableEntity:
		return &Error{Kind: KindUnprocessable, Op: op, Status: resp.StatusCode, Err: err}
	}

	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
