package statesync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var ErrNotFound = errors.New("snapshot not found")
var ErrStoreUnavailable = errors.New("store unavailable")

// Store is the durable keyed record of canonical session state. Keys are
// session ids. Absence surfaces as ErrNotFound; transient failures as
// ErrStoreUnavailable (wrapped), the only class worth retrying.
type Store interface {
	Get(ctx context.Context, key string) (State, error)
	Put(ctx context.Context, key string, rec State) error
	Patch(ctx context.Context, key string, d Delta, writerID string, now time.Time) (State, error)
	Delete(ctx context.Context, key string) error
}

// ChangeEvent is one feed delivery: the record before and after a write.
type ChangeEvent struct {
	Old State
	New State
}

// Feed fans session changes out to subscribers: at-least-once, ordered
// per key, no cross-key ordering.
type Feed interface {
	Subscribe(ctx context.Context, key string) (<-chan ChangeEvent, func())
	Publish(key string, ev ChangeEvent)
}

// Propagator merges partial deltas into the store and lets the feed carry
// the merged snapshot to every replica. Optimistic, not transactional:
// components own disjoint field sets, so interleaved upserts stay safe.
type Propagator struct {
	store      Store
	feed       Feed
	log        *zap.Logger
	maxRetries int
	backoff    time.Duration
}

func NewPropagator(store Store, feed Feed, log *zap.Logger) *Propagator {
	return &Propagator{
		store:      store,
		feed:       feed,
		log:        log,
		maxRetries: 3,
		backoff:    50 * time.Millisecond,
	}
}

// Upsert performs the read-check-merge-write against the store and
// publishes the merged snapshot. A failed write never partially applies;
// only ErrStoreUnavailable is retried, with backoff.
func (p *Propagator) Upsert(ctx context.Context, sessionID string, d Delta, writerID string) (State, error) {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return State{}, ctx.Err()
			case <-time.After(p.backoff * time.Duration(attempt)):
			}
		}
		old, err := p.store.Get(ctx, sessionID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			if errors.Is(err, ErrStoreUnavailable) {
				lastErr = err
				continue
			}
			return State{}, fmt.Errorf("read snapshot: %w", err)
		}
		merged, err := p.store.Patch(ctx, sessionID, d, writerID, time.Now())
		if err != nil {
			if errors.Is(err, ErrStoreUnavailable) {
				lastErr = err
				p.log.Warn("snapshot patch retry",
					zap.String("session_id", sessionID),
					zap.Int("attempt", attempt+1))
				continue
			}
			return State{}, fmt.Errorf("patch snapshot: %w", err)
		}
		p.feed.Publish(sessionID, ChangeEvent{Old: old, New: merged})
		return merged, nil
	}
	return State{}, fmt.Errorf("upsert %s: %w", sessionID, lastErr)
}

// Subscribe yields the stream of merged snapshots for a session.
func (p *Propagator) Subscribe(ctx context.Context, sessionID string) (<-chan ChangeEvent, func()) {
	return p.feed.Subscribe(ctx, sessionID)
}

// Snapshot reads the current record, mapping absence to ErrNotFound so
// callers can treat it as "nothing to resume".
func (p *Propagator) Snapshot(ctx context.Context, sessionID string) (State, error) {
	return p.store.Get(ctx, sessionID)
}

// Forget drops a session's record once nothing references it.
func (p *Propagator) Forget(ctx context.Context, sessionID string) error {
	return p.store.Delete(ctx, sessionID)
}
