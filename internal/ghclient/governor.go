package ghclient

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/repolift/repolift/internal/log"
)

const (
	// quotaSafetyThreshold is the remaining-request floor below which the
	// governor refuses new calls until the quota resets.
	quotaSafetyThreshold = 10

	// snapshotTTL is how long a quota snapshot is trusted before a
	// background refresh is triggered.
	snapshotTTL = 60 * time.Second

	// refreshTimeout bounds the background snapshot refresh call.
	refreshTimeout = 10 * time.Second
)

// Snapshot is the governor's cached view of the API quota.
type Snapshot struct {
	Remaining  int
	Limit      int
	ResetAt    time.Time
	ObservedAt time.Time
}

// stale reports whether the snapshot is older than its TTL.
func (s Snapshot) stale(now time.Time) bool {
	return now.Sub(s.ObservedAt) > snapshotTTL
}

// RefreshFunc fetches a fresh quota snapshot from the API. The governor
// calls it at most once at a time, off the request path.
type RefreshFunc func(ctx context.Context) (Snapshot, error)

// Governor gates outgoing API calls on the remaining request quota. A single
// instance is shared by every executor call and is safe for concurrent use.
type Governor struct {
	mu         sync.RWMutex
	snap       *Snapshot
	refresh    RefreshFunc
	refreshing atomic.Bool

	// now is replaceable in tests.
	now func() time.Time
}

// NewGovernor creates a governor. refresh may be nil, in which case stale
// snapshots are only ever replaced by header observations.
func NewGovernor(refresh RefreshFunc) *Governor {
	return &Governor{
		refresh: refresh,
		now:     time.Now,
	}
}

// CheckBeforeCall returns a KindQuotaExhausted error when a trusted snapshot
// shows the remaining quota below the safety threshold and the reset time has
// not passed. A stale or absent snapshot allows the call and triggers a
// background refresh; an unreachable quota endpoint never blocks traffic.
func (g *Governor) CheckBeforeCall(ctx context.Context) error {
	now := g.now()

	g.mu.RLock()
	snap := g.snap
	g.mu.RUnlock()

	if snap == nil || snap.stale(now) {
		g.refreshAsync()
		return nil
	}

	// A past reset time means the quota has replenished even though we have
	// not observed a fresh snapshot yet.
	if now.After(snap.ResetAt) {
		return nil
	}

	if snap.Remaining < quotaSafetyThreshold {
		return &Error{
			Kind:    KindQuotaExhausted,
			Op:      "quota check",
			ResetAt: snap.ResetAt,
			Hint:    "wait for the rate limit window to reset",
		}
	}

	return nil
}

// Observe updates the snapshot from response headers. This is the primary,
// free update path; it applies only when all three quota headers are present.
func (g *Governor) Observe(header http.Header) {
	remaining, okRemaining := headerInt(header, "X-RateLimit-Remaining")
	limit, okLimit := headerInt(header, "X-RateLimit-Limit")
	reset, okReset := headerInt(header, "X-RateLimit-Reset")
	if !okRemaining || !okLimit || !okReset {
		return
	}

	g.set(Snapshot{
		Remaining: remaining,
		Limit:     limit,
		ResetAt:   time.Unix(int64(reset), 0),
	})
}

// Snapshot returns a copy of the current snapshot, if one has been observed.
func (g *Governor) Snapshot() (Snapshot, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.snap == nil {
		return Snapshot{}, false
	}
	return *g.snap, true
}

// set stores a snapshot, stamping the observation time and enforcing the
// remaining <= limit invariant.
func (g *Governor) set(snap Snapshot) {
	if snap.Remaining > snap.Limit {
		snap.Remaining = snap.Limit
	}
	snap.ObservedAt = g.now()

	g.mu.Lock()
	g.snap = &snap
	g.mu.Unlock()
}

// refreshAsync kicks off a single-flight background refresh. Refresh
// failures are logged and otherwise ignored: a broken quota endpoint must
// not take down the primary request path.
func (g *Governor) refreshAsync() {
	if g.refresh == nil {
		return
	}
	if !g.refreshing.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer g.refreshing.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		snap, err := g.refresh(ctx)
		if err != nil {
			log.Warn("quota refresh failed, proceeding without a snapshot", "error", err)
			return
		}
		g.set(snap)
		log.Debug("quota snapshot refreshed",
			"remaining", snap.Remaining,
			"limit", snap.Limit,
			"resets_at", snap.ResetAt.Format(time.RFC3339))
	}()
}

func headerInt(header http.Header, key string) (int, bool) {
	v := header.Get(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
