package engine

import "time"

type SessionState string

const (
	SessionWaiting  SessionState = "waiting"
	SessionPlaying  SessionState = "playing"
	SessionPaused   SessionState = "paused"
	SessionFinished SessionState = "finished"
)

// Session is one game instance. It is owned by the phase machine: created
// once, mutated only through phase transitions.
type Session struct {
	ID         string
	HostID     string
	State      SessionState
	Config     Config
	Players    []string // join order, doubles as challenger order
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}

func NewSession(id, hostID string, cfg Config, now time.Time) Session {
	return Session{
		ID:        id,
		HostID:    hostID,
		State:     SessionWaiting,
		Config:    cfg,
		Players:   []string{hostID},
		CreatedAt: now,
	}
}

// AddPlayer registers a player while the session is still open for joins.
// Re-joining an existing player is a no-op so reconnects don't reshuffle
// the challenger order.
func (s Session) AddPlayer(playerID string) (Session, error) {
	if s.State != SessionWaiting {
		return s, ErrWrongSessionState
	}
	for _, p := range s.Players {
		if p == playerID {
			return s, nil
		}
	}
	s.Players = append(append([]string{}, s.Players...), playerID)
	return s, nil
}

// Start moves waiting -> playing. Requires at least two participants.
func (s Session) Start(now time.Time) (Session, error) {
	if s.State != SessionWaiting {
		return s, ErrWrongSessionState
	}
	if len(s.Players) < 2 {
		return s, ErrNotEnoughPlayers
	}
	s.State = SessionPlaying
	s.StartedAt = now
	return s, nil
}

func (s Session) Finish(now time.Time) Session {
	s.State = SessionFinished
	s.FinishedAt = now
	return s
}

func (s Session) HasPlayer(playerID string) bool {
	for _, p := range s.Players {
		if p == playerID {
			return true
		}
	}
	return false
}
