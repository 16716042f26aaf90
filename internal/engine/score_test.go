package engine

import (
	"testing"
	"time"
)

func TestAward(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CorrectAward = 2
	cfg.FastAnswerBonus = 1
	cfg.FastAnswerWindow = 10 * time.Second

	cases := []struct {
		name     string
		accepted bool
		conf     Confidence
		elapsed  time.Duration
		want     int
	}{
		{"rejected earns nothing", false, ConfidenceHigh, time.Second, 0},
		{"plain correct", true, ConfidenceMedium, 20 * time.Second, 2},
		{"fast and confident earns bonus", true, ConfidenceHigh, 5 * time.Second, 3},
		{"fast but unsure, no bonus", true, ConfidenceLow, 5 * time.Second, 2},
		{"confident but slow, no bonus", true, ConfidenceHigh, 30 * time.Second, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Award(cfg, tc.accepted, tc.conf, tc.elapsed); got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestLedger_SettleAcceptedGuess(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChallengerBonus = 1
	ledger := NewLedger(cfg)

	start := time.Now()
	turn := NewTurn("S1", 1, "a", "track-1", cfg, start)
	turn.Guesses = []Guess{{
		ID: "g1", TurnID: turn.ID, PlayerID: "b",
		Text: "Song X", Confidence: ConfidenceMedium,
		SubmittedAt: start.Add(20 * time.Second),
	}}
	turn.Voting.AcceptedGuessID = "g1"
	turn.CompletedAt = start.Add(time.Minute)

	deltas := ledger.Settle(turn)
	if len(deltas) != 2 {
		t.Fatalf("want guesser award + challenger bonus, got %d deltas", len(deltas))
	}
	if deltas[0].PlayerID != "b" || deltas[0].Points != cfg.CorrectAward {
		t.Fatalf("guesser delta wrong: %+v", deltas[0])
	}
	if deltas[1].PlayerID != "a" || deltas[1].Points != 1 {
		t.Fatalf("challenger delta wrong: %+v", deltas[1])
	}
}

func TestLedger_NoWinnerNoDeltas(t *testing.T) {
	cfg := DefaultConfig()
	ledger := NewLedger(cfg)
	turn := NewTurn("S1", 1, "a", "track-1", cfg, time.Now())

	if deltas := ledger.Settle(turn); len(deltas) != 0 {
		t.Fatalf("unresolved turn must not change scores, got %+v", deltas)
	}
}

func TestApplyDeltas_AppendsWithoutClobbering(t *testing.T) {
	scores := map[string]int{"a": 3, "b": 1}
	deltas := []ScoreDelta{
		{PlayerID: "b", Points: 1},
		{PlayerID: "c", Points: 2},
	}
	got := ApplyDeltas(scores, deltas)
	if got["a"] != 3 || got["b"] != 2 || got["c"] != 2 {
		t.Fatalf("fold wrong: %+v", got)
	}
	if scores["b"] != 1 {
		t.Fatalf("input map mutated")
	}
}
