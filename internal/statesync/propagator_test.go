package statesync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// flakyStore fails Patch a fixed number of times before behaving.
type flakyStore struct {
	rec      State
	failures int
	patches  int
}

func (f *flakyStore) Get(ctx context.Context, key string) (State, error) {
	if f.rec.SessionID == "" {
		return State{}, ErrNotFound
	}
	return f.rec, nil
}

func (f *flakyStore) Put(ctx context.Context, key string, rec State) error {
	f.rec = rec
	return nil
}

func (f *flakyStore) Patch(ctx context.Context, key string, d Delta, writerID string, now time.Time) (State, error) {
	f.patches++
	if f.failures > 0 {
		f.failures--
		return State{}, fmt.Errorf("%w: connection reset", ErrStoreUnavailable)
	}
	cur := f.rec
	if cur.SessionID == "" {
		cur.SessionID = key
	}
	f.rec = Merge(cur, d, writerID, now)
	return f.rec, nil
}

func (f *flakyStore) Delete(ctx context.Context, key string) error {
	f.rec = State{}
	return nil
}

type captureFeed struct {
	events []ChangeEvent
}

func (c *captureFeed) Subscribe(ctx context.Context, key string) (<-chan ChangeEvent, func()) {
	ch := make(chan ChangeEvent)
	return ch, func() { close(ch) }
}

func (c *captureFeed) Publish(key string, ev ChangeEvent) {
	c.events = append(c.events, ev)
}

func TestPropagator_UpsertMergesAndPublishes(t *testing.T) {
	st := &flakyStore{}
	feed := &captureFeed{}
	p := NewPropagator(st, feed, zap.NewNop())

	merged, err := p.Upsert(context.Background(), "S1", Delta{Phase: Str("guessing")}, "phase_machine")
	require.NoError(t, err)
	require.Equal(t, "guessing", merged.Phase)
	require.Equal(t, "S1", merged.SessionID)

	require.Len(t, feed.events, 1)
	require.Equal(t, "guessing", feed.events[0].New.Phase)
	require.Empty(t, feed.events[0].Old.Phase)
}

func TestPropagator_RetriesOnlyStoreUnavailable(t *testing.T) {
	st := &flakyStore{failures: 2}
	feed := &captureFeed{}
	p := NewPropagator(st, feed, zap.NewNop())

	merged, err := p.Upsert(context.Background(), "S1", Delta{Phase: Str("voting")}, "phase_machine")
	require.NoError(t, err)
	require.Equal(t, "voting", merged.Phase)
	require.Equal(t, 3, st.patches)
	// nothing published for the failed attempts
	require.Len(t, feed.events, 1)
}

func TestPropagator_GivesUpAfterRetryBudget(t *testing.T) {
	st := &flakyStore{failures: 10}
	p := NewPropagator(st, &captureFeed{}, zap.NewNop())

	_, err := p.Upsert(context.Background(), "S1", Delta{Phase: Str("voting")}, "w")
	require.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestPropagator_SnapshotMapsAbsenceToNotFound(t *testing.T) {
	p := NewPropagator(&flakyStore{}, &captureFeed{}, zap.NewNop())
	_, err := p.Snapshot(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
