package engine

import (
	"time"

	"github.com/google/uuid"
)

type TurnState string

const (
	TurnPlayingAudio TurnState = "playing_audio"
	TurnGuessing     TurnState = "guessing"
	TurnVoting       TurnState = "voting"
	TurnResults      TurnState = "results"
	TurnCompleted    TurnState = "completed"
)

var turnStateOrder = map[TurnState]int{
	TurnPlayingAudio: 0,
	TurnGuessing:     1,
	TurnVoting:       2,
	TurnResults:      3,
	TurnCompleted:    4,
}

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Guess is one player's answer for a turn. Immutable once recorded; a
// resubmission replaces the whole record rather than mutating it.
type Guess struct {
	ID          string
	TurnID      string
	PlayerID    string
	Text        string
	Confidence  Confidence
	SubmittedAt time.Time
}

// Vote selects an existing guess, or names no guess at all (empty GuessID
// means "no correct answer").
type Vote struct {
	VoterID string
	GuessID string
	CastAt  time.Time
}

type VotingResult struct {
	AcceptedGuessID string
	Votes           []Vote
	Completed       bool
}

// Turn is one round of play: one challenger, one track, the guesses and
// votes collected against it. At most one non-completed Turn exists per
// session.
type Turn struct {
	ID           string
	SessionID    string
	Number       int
	ChallengerID string
	TrackID      string
	State        TurnState
	Audio        AudioControl
	Guesses      []Guess
	Voting       VotingResult
	StartedAt    time.Time
	CompletedAt  time.Time
}

func NewTurn(sessionID string, number int, challengerID, trackID string, cfg Config, now time.Time) Turn {
	return Turn{
		ID:           uuid.NewString(),
		SessionID:    sessionID,
		Number:       number,
		ChallengerID: challengerID,
		TrackID:      trackID,
		State:        TurnPlayingAudio,
		Audio:        AudioControl{MaxPlays: cfg.MaxPlays},
		StartedAt:    now,
	}
}

// Advance moves the turn state strictly forward. Backward or repeated
// transitions are ignored so replayed snapshots can't rewind a turn.
func (t Turn) Advance(next TurnState) Turn {
	if turnStateOrder[next] > turnStateOrder[t.State] {
		t.State = next
	}
	return t
}

func (t Turn) Live() bool { return t.State != TurnCompleted }

func (t Turn) GuessByID(id string) (Guess, bool) {
	for _, g := range t.Guesses {
		if g.ID == id {
			return g, true
		}
	}
	return Guess{}, false
}

func (t Turn) GuessByPlayer(playerID string) (Guess, bool) {
	for _, g := range t.Guesses {
		if g.PlayerID == playerID {
			return g, true
		}
	}
	return Guess{}, false
}
