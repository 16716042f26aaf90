package engine

import "time"

// ScoreDelta is an append-only score event. Deltas are merged downstream;
// the ledger never overwrites another player's total.
type ScoreDelta struct {
	PlayerID string
	Points   int
	TurnID   string
	Reason   string
	At       time.Time
}

// Award maps a resolved guess to points. Pure: all weights come from cfg.
func Award(cfg Config, accepted bool, conf Confidence, elapsed time.Duration) int {
	if !accepted {
		return 0
	}
	points := cfg.CorrectAward
	if conf == ConfidenceHigh && elapsed <= cfg.FastAnswerWindow {
		points += cfg.FastAnswerBonus
	}
	return points
}

// Ledger turns completed turns into score deltas.
type Ledger struct {
	cfg Config
}

func NewLedger(cfg Config) *Ledger {
	return &Ledger{cfg: cfg}
}

// Settle produces the deltas for a completed turn: the award for the
// accepted guesser plus an optional challenger bonus, or nothing when the
// turn resolved without a winner.
func (l *Ledger) Settle(t Turn) []ScoreDelta {
	g, ok := t.AcceptedGuess()
	if !ok {
		return nil
	}
	elapsed := g.SubmittedAt.Sub(t.StartedAt)
	deltas := []ScoreDelta{{
		PlayerID: g.PlayerID,
		Points:   Award(l.cfg, true, g.Confidence, elapsed),
		TurnID:   t.ID,
		Reason:   "correct_guess",
		At:       t.CompletedAt,
	}}
	if l.cfg.ChallengerBonus > 0 {
		deltas = append(deltas, ScoreDelta{
			PlayerID: t.ChallengerID,
			Points:   l.cfg.ChallengerBonus,
			TurnID:   t.ID,
			Reason:   "challenger_bonus",
			At:       t.CompletedAt,
		})
	}
	return deltas
}

// ApplyDeltas folds score events into per-player totals.
func ApplyDeltas(scores map[string]int, deltas []ScoreDelta) map[string]int {
	out := make(map[string]int, len(scores))
	for k, v := range scores {
		out[k] = v
	}
	for _, d := range deltas {
		out[d.PlayerID] += d.Points
	}
	return out
}
