package catalog

import (
	"context"
	"sync"

	"github.com/songclash/songclash-backend/internal/engine"
)

// Memory is the catalog fake for dev and tests: per-player queues, played
// tracks consumed per session.
type Memory struct {
	mu     sync.Mutex
	queues map[string][]Track         // playerID -> unconsumed tracks
	played map[string]map[string]bool // sessionID -> trackID
	byID   map[string]Track
}

func NewMemory() *Memory {
	return &Memory{
		queues: make(map[string][]Track),
		played: make(map[string]map[string]bool),
		byID:   make(map[string]Track),
	}
}

func (c *Memory) AddTrack(t Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queues[t.OwnerID] = append(c.queues[t.OwnerID], t)
	c.byID[t.ID] = t
}

func (c *Memory) NextTrack(ctx context.Context, sessionID, playerID string) (Track, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	used := c.played[sessionID]
	if used == nil {
		used = make(map[string]bool)
		c.played[sessionID] = used
	}
	for _, t := range c.queues[playerID] {
		if !used[t.ID] {
			used[t.ID] = true
			return t, nil
		}
	}
	return Track{}, engine.ErrNoSongsAvailable
}

func (c *Memory) Resolve(ctx context.Context, trackID string) (Track, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.byID[trackID]
	if !ok {
		return Track{}, engine.ErrNoSongsAvailable
	}
	return t, nil
}
