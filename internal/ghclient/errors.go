package ghclient

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failed GitHub interaction. The executor tags every
// failure with one of these; callers branch on the kind, never on raw
// transport errors.
type Kind string

const (
	// KindQuotaExhausted means the API quota is spent; retry after ResetAt.
	KindQuotaExhausted Kind = "quota_exhausted"

	// KindNotFound means the target resource does not exist (or the token
	// cannot see it, which GitHub reports identically).
	KindNotFound Kind = "not_found"

	// KindForbidden means the token lacks permission for the operation.
	// Only the contribution workflow may convert this into a recovery path.
	KindForbidden Kind = "forbidden"

	// KindUnprocessable means the API rejected the request as invalid
	// (HTTP 422), e.g. creating a ref that already exists.
	KindUnprocessable Kind = "unprocessable"

	// KindRetriesExhausted means a transient failure persisted through
	// every retry attempt.
	KindRetriesExhausted Kind = "retries_exhausted"

	// KindIdentityResolution means the authenticated user could not be
	// resolved; the token cannot act on anyone's behalf.
	KindIdentityResolution Kind = "identity_resolution_failed"

	// KindTimeout means a bounded wait elapsed before its condition held.
	KindTimeout Kind = "timeout_exceeded"
)

// Error is a structured GitHub interaction failure.
type Error struct {
	Kind    Kind
	Op      string    // short operation name, e.g. "create ref"
	Status  int       // HTTP status when one was received, else 0
	ResetAt time.Time // quota reset time, set for KindQuotaExhausted
	Hint    string    // human-readable remediation, e.g. required scopes
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Kind == KindQuotaExhausted && !e.ResetAt.IsZero() {
		msg = fmt.Sprintf("%s, resets at %s", msg, e.ResetAt.Format(time.RFC3339))
	}
	if e.Hint != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Hint)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError unwraps err to a *Error if one is in its chain.
func AsError(err error) (*Error, bool) {
	var ghErr *Error
	if errors.As(err, &ghErr) {
		return ghErr, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	ghErr, ok := AsError(err)
	return ok && ghErr.Kind == kind
}

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }

// IsForbidden reports whether err is a permission failure.
func IsForbidden(err error) bool { return IsKind(err, KindForbidden) }

// IsQuotaExhausted reports whether err is a spent-quota failure.
func IsQuotaExhausted(err error) bool { return IsKind(err, KindQuotaExhausted) }

// IsUnprocessable reports whether err is an HTTP 422 class failure.
func IsUnprocessable(err error) bool { return IsKind(err, KindUnprocessable) }
