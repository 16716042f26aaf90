package session

import (
	"context"

	"github.com/songclash/songclash-backend/internal/engine"
	"github.com/songclash/songclash-backend/internal/statesync"
)

// Project rebuilds the engine-side state from a delivered snapshot. Pure:
// the snapshot is the only input besides the session config, which is not
// part of the broadcast record.
func Project(rec statesync.State, cfg engine.Config) engine.State {
	sess := engine.Session{
		ID:      rec.SessionID,
		HostID:  rec.HostID,
		State:   engine.SessionState(rec.SessionState),
		Config:  cfg,
		Players: append([]string{}, rec.PlayerOrder...),
	}
	if sess.State == "" {
		sess.State = engine.SessionWaiting
	}
	st := engine.State{
		Session:        sess,
		TurnIndex:      rec.TurnIndex,
		Phase:          engine.Phase(rec.Phase),
		Scores:         map[string]int{},
		FailedAttempts: rec.FailedAttempts,
		RevealArtwork:  rec.RevealArtwork,
	}
	if st.Phase == "" {
		st.Phase = engine.PhasePreGameCountdown
	}
	for id, ps := range rec.Scores {
		st.Scores[id] = ps.Score
	}
	if rec.TurnID != "" {
		t := projectTurn(rec)
		st.Turn = &t
	}
	return st
}

func projectTurn(rec statesync.State) engine.Turn {
	t := engine.Turn{
		ID:           rec.TurnID,
		SessionID:    rec.SessionID,
		Number:       rec.TurnNumber,
		ChallengerID: rec.ChallengerID,
		TrackID:      rec.TrackID,
		State:        engine.TurnState(rec.TurnState),
		StartedAt:    rec.TurnStartedAt,
		Audio: engine.AudioControl{
			Playing:   rec.IsPlaying,
			Stopped:   rec.AudioStopped,
			PlayCount: rec.PlayCount,
			MaxPlays:  rec.MaxPlays,
			Position:  rec.Position,
			StartedAt: rec.AudioStartedAt,
		},
		Voting: engine.VotingResult{
			AcceptedGuessID: rec.AcceptedGuessID,
			Completed:       rec.VotingCompleted,
		},
	}
	for _, g := range rec.Guesses {
		t.Guesses = append(t.Guesses, engine.Guess{
			ID:          g.ID,
			TurnID:      rec.TurnID,
			PlayerID:    g.PlayerID,
			Text:        g.Text,
			Confidence:  engine.Confidence(g.Confidence),
			SubmittedAt: g.SubmittedAt,
		})
	}
	for _, v := range rec.Votes {
		t.Voting.Votes = append(t.Voting.Votes, engine.Vote{
			VoterID: v.VoterID,
			GuessID: v.GuessID,
			CastAt:  v.CastAt,
		})
	}
	return t
}

func guessEntries(guesses []engine.Guess) []statesync.GuessEntry {
	out := make([]statesync.GuessEntry, 0, len(guesses))
	for _, g := range guesses {
		out = append(out, statesync.GuessEntry{
			ID:          g.ID,
			PlayerID:    g.PlayerID,
			Text:        g.Text,
			Confidence:  string(g.Confidence),
			SubmittedAt: g.SubmittedAt,
		})
	}
	return out
}

func voteEntries(votes []engine.Vote) []statesync.VoteEntry {
	out := make([]statesync.VoteEntry, 0, len(votes))
	for _, v := range votes {
		out = append(out, statesync.VoteEntry{
			VoterID: v.VoterID,
			GuessID: v.GuessID,
			CastAt:  v.CastAt,
		})
	}
	return out
}

func audioDelta(a engine.AudioControl) statesync.Delta {
	return statesync.Delta{
		IsPlaying:      statesync.Bool(a.Playing),
		AudioStopped:   statesync.Bool(a.Stopped),
		PlayCount:      statesync.Int(a.PlayCount),
		MaxPlays:       statesync.Int(a.MaxPlays),
		Position:       statesync.Float(a.Position),
		AudioStartedAt: statesync.Time(a.StartedAt),
	}
}

func turnDelta(t engine.Turn, turnIndex int, defenderID string) statesync.Delta {
	d := audioDelta(t.Audio)
	d.TurnID = statesync.Str(t.ID)
	d.TurnNumber = statesync.Int(t.Number)
	d.TurnState = statesync.Str(string(t.State))
	d.ChallengerID = statesync.Str(t.ChallengerID)
	d.DefenderID = statesync.Str(defenderID)
	d.TrackID = statesync.Str(t.TrackID)
	d.TurnIndex = statesync.Int(turnIndex)
	d.TurnStartedAt = statesync.Time(t.StartedAt)
	d.Guesses = statesync.GuessList(guessEntries(t.Guesses))
	d.Votes = statesync.VoteList(voteEntries(t.Voting.Votes))
	d.AcceptedGuessID = statesync.Str(t.Voting.AcceptedGuessID)
	d.VotingCompleted = statesync.Bool(t.Voting.Completed)
	d.RevealArtwork = statesync.Bool(false)
	return d
}

// storeSessions adapts the propagator into the audio authority's session
// reader: every authorization re-reads the stored record, so a host
// migration takes effect on the very next call.
type storeSessions struct {
	prop *statesync.Propagator
	cfg  engine.Config
}

func (s storeSessions) Session(ctx context.Context, sessionID string) (engine.Session, error) {
	rec, err := s.prop.Snapshot(ctx, sessionID)
	if err != nil {
		return engine.Session{}, err
	}
	return Project(rec, s.cfg).Session, nil
}

func remainingMS(p engine.Phase, cfg engine.Config) int64 {
	return p.Duration(cfg).Milliseconds()
}
