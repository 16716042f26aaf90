package directory

import (
	"context"
	"errors"
	"sync"
)

var ErrUnknownUser = errors.New("unknown user")

type Profile struct {
	UserID      string
	DisplayName string
	Online      bool
}

// Directory resolves a user identity to a profile.
type Directory interface {
	Resolve(ctx context.Context, userID string) (Profile, error)
}

// Memory is the in-process directory, fed by join handshakes and
// connect/disconnect events.
type Memory struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

func NewMemory() *Memory {
	return &Memory{profiles: make(map[string]Profile)}
}

func (d *Memory) Register(userID, displayName string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.profiles[userID]
	p.UserID = userID
	if displayName != "" {
		p.DisplayName = displayName
	}
	d.profiles[userID] = p
}

func (d *Memory) SetOnline(userID string, online bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.profiles[userID]
	if !ok {
		p = Profile{UserID: userID}
	}
	p.Online = online
	d.profiles[userID] = p
}

func (d *Memory) Resolve(ctx context.Context, userID string) (Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.profiles[userID]
	if !ok {
		return Profile{}, ErrUnknownUser
	}
	return p, nil
}
