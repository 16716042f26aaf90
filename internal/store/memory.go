package store

import (
	"context"
	"sync"
	"time"

	"github.com/songclash/songclash-backend/internal/statesync"
)

// Memory is the in-process store + feed used for dev and tests. Same
// contract as the durable store, selected at startup.
type Memory struct {
	mu        sync.RWMutex
	snapshots map[string]statesync.State
	subs      map[string][]chan statesync.ChangeEvent
}

func NewMemory() *Memory {
	return &Memory{
		snapshots: make(map[string]statesync.State),
		subs:      make(map[string][]chan statesync.ChangeEvent),
	}
}

func (m *Memory) Get(ctx context.Context, key string) (statesync.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.snapshots[key]
	if !ok {
		return statesync.State{}, statesync.ErrNotFound
	}
	return rec, nil
}

func (m *Memory) Put(ctx context.Context, key string, rec statesync.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[key] = rec
	return nil
}

// Patch merges under the write lock, so per-key feed order matches write
// order.
func (m *Memory) Patch(ctx context.Context, key string, d statesync.Delta, writerID string, now time.Time) (statesync.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.snapshots[key] // absent treated as empty
	if cur.SessionID == "" {
		cur.SessionID = key
	}
	merged := statesync.Merge(cur, d, writerID, now)
	m.snapshots[key] = merged
	return merged, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, key)
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, key string) (<-chan statesync.ChangeEvent, func()) {
	ch := make(chan statesync.ChangeEvent, 16)
	m.mu.Lock()
	m.subs[key] = append(m.subs[key], ch)
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		subs := m.subs[key]
		for i, c := range subs {
			if c == ch {
				m.subs[key] = append(subs[:i], subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel
}

// Publish delivers in order per key. A subscriber that can't keep up is
// dropped rather than allowed to stall the rest.
func (m *Memory) Publish(key string, ev statesync.ChangeEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := m.subs[key]
	kept := subs[:0]
	for _, ch := range subs {
		select {
		case ch <- ev:
			kept = append(kept, ch)
		default:
			close(ch)
		}
	}
	m.subs[key] = kept
}
