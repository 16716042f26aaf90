package engine

import (
	"context"
	"errors"
	"time"
)

// TrackSource hands out the next playable track for a player. It fails
// with ErrNoSongsAvailable once that player's catalog is exhausted.
type TrackSource interface {
	NextTrack(ctx context.Context, sessionID, playerID string) (string, error)
}

// ChallengerAt resolves the round-robin challenger for a turn index.
func ChallengerAt(order []string, turnIndex int) (string, bool) {
	if len(order) == 0 || turnIndex < 0 {
		return "", false
	}
	return order[turnIndex%len(order)], true
}

// GameComplete reports whether every player has been challenger for the
// configured number of rounds.
func GameComplete(order []string, turnIndex, rounds int) bool {
	if rounds < 1 {
		rounds = 1
	}
	return turnIndex >= len(order)*rounds
}

// Coordinator owns the turn lifecycle: picking the (challenger, track)
// pair, instantiating turns, and stamping completion.
type Coordinator struct {
	tracks TrackSource
}

func NewCoordinator(tracks TrackSource) *Coordinator {
	return &Coordinator{tracks: tracks}
}

// StartTurn creates the next turn. A challenger with an exhausted catalog
// is skipped, not fatal; the returned index points one past the turn that
// was actually started. ErrNoSongsAvailable comes back only when every
// remaining challenger is exhausted. prev guards the one-live-turn
// invariant.
func (c *Coordinator) StartTurn(ctx context.Context, sess Session, prev *Turn, turnIndex int, now time.Time) (Turn, int, error) {
	if prev != nil && prev.Live() {
		return Turn{}, turnIndex, ErrTurnInProgress
	}
	for !GameComplete(sess.Players, turnIndex, sess.Config.Rounds) {
		challenger, ok := ChallengerAt(sess.Players, turnIndex)
		if !ok {
			break
		}
		trackID, err := c.tracks.NextTrack(ctx, sess.ID, challenger)
		if errors.Is(err, ErrNoSongsAvailable) {
			turnIndex++
			continue
		}
		if err != nil {
			return Turn{}, turnIndex, err
		}
		t := NewTurn(sess.ID, turnIndex+1, challenger, trackID, sess.Config, now)
		return t, turnIndex + 1, nil
	}
	return Turn{}, turnIndex, ErrNoSongsAvailable
}

// CompleteTurn stamps the end of a turn. Safe to call twice; the first
// completion wins.
func (c *Coordinator) CompleteTurn(t Turn, now time.Time) Turn {
	if t.State == TurnCompleted {
		return t
	}
	t = t.Advance(TurnCompleted)
	t.CompletedAt = now
	t.Audio = t.Audio.pause(t.Audio.Position)
	return t
}
