package engine

import (
	"time"

	"github.com/google/uuid"
)

// Aggregator runs the two sequential sub-protocols of a turn: guess
// collection, then voting.
type Aggregator struct {
	cfg Config
}

func NewAggregator(cfg Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// SubmitGuess records one guess per non-challenger participant. A second
// submission from the same player replaces the first (last write wins);
// submissions outside the guessing window fail with ErrPhaseClosed.
func (a *Aggregator) SubmitGuess(sess Session, t Turn, playerID, text string, conf Confidence, now time.Time) (Turn, error) {
	if t.State != TurnGuessing {
		return t, ErrPhaseClosed
	}
	if playerID == t.ChallengerID || !sess.HasPlayer(playerID) {
		return t, ErrUnauthorized
	}
	g := Guess{
		ID:          uuid.NewString(),
		TurnID:      t.ID,
		PlayerID:    playerID,
		Text:        text,
		Confidence:  conf,
		SubmittedAt: now,
	}
	guesses := make([]Guess, 0, len(t.Guesses)+1)
	for _, prior := range t.Guesses {
		if prior.PlayerID != playerID {
			guesses = append(guesses, prior)
		}
	}
	t.Guesses = append(guesses, g)
	return t, nil
}

// EligibleVoters is everyone except the challenger.
func (a *Aggregator) EligibleVoters(sess Session, t Turn) []string {
	voters := make([]string, 0, len(sess.Players))
	for _, p := range sess.Players {
		if p != t.ChallengerID {
			voters = append(voters, p)
		}
	}
	return voters
}

// CastVote records one vote per eligible voter; a repeat vote replaces the
// prior one. An empty guessID means "no correct answer". The first guess
// to reach the configured threshold is accepted and never displaced.
func (a *Aggregator) CastVote(sess Session, t Turn, voterID, guessID string, now time.Time) (Turn, error) {
	if t.State != TurnVoting {
		return t, ErrPhaseClosed
	}
	if voterID == t.ChallengerID || !sess.HasPlayer(voterID) {
		return t, ErrUnauthorized
	}
	if guessID != "" {
		g, ok := t.GuessByID(guessID)
		if !ok {
			return t, ErrUnknownGuess
		}
		if g.PlayerID == voterID && !a.cfg.AllowSelfVote {
			return t, ErrUnauthorized
		}
	}

	votes := make([]Vote, 0, len(t.Voting.Votes)+1)
	for _, v := range t.Voting.Votes {
		if v.VoterID != voterID {
			votes = append(votes, v)
		}
	}
	t.Voting.Votes = append(votes, Vote{VoterID: voterID, GuessID: guessID, CastAt: now})

	if t.Voting.AcceptedGuessID == "" && guessID != "" {
		if a.tally(t.Voting.Votes, guessID) >= a.cfg.VotesNeeded {
			t.Voting.AcceptedGuessID = guessID
		}
	}
	if t.Voting.AcceptedGuessID != "" || len(t.Voting.Votes) >= len(a.EligibleVoters(sess, t)) {
		t.Voting.Completed = true
	}
	return t, nil
}

func (a *Aggregator) tally(votes []Vote, guessID string) int {
	n := 0
	for _, v := range votes {
		if v.GuessID == guessID {
			n++
		}
	}
	return n
}

// AcceptedGuess resolves the winning guess, if voting produced one.
func (t Turn) AcceptedGuess() (Guess, bool) {
	if t.Voting.AcceptedGuessID == "" {
		return Guess{}, false
	}
	return t.GuessByID(t.Voting.AcceptedGuessID)
}
