package engine

import (
	"testing"
	"time"
)

func TestPhase_TransitionTable(t *testing.T) {
	cases := []struct {
		from Phase
		to   Phase
		ok   bool
	}{
		{PhasePreGameCountdown, PhaseTurnCountdown, true},
		{PhaseTurnCountdown, PhaseAudioPlaying, true},
		{PhaseAudioPlaying, PhaseGuessing, true},
		{PhaseGuessing, PhaseVoting, true},
		{PhaseVoting, PhaseTurnResults, true},
		{PhaseTurnResults, PhasePreparingNext, true},
		{PhasePreparingNext, PhaseTurnCountdown, true},
		{PhasePreparingNext, PhaseGameFinished, true},
		// no skipping, no backwards
		{PhasePreGameCountdown, PhaseGuessing, false},
		{PhaseVoting, PhaseGuessing, false},
		{PhaseGameFinished, PhaseTurnCountdown, false},
		{PhaseAudioPlaying, PhaseVoting, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestNextPhase_LoopsWhileChallengersRemain(t *testing.T) {
	cfg := DefaultConfig()
	sess := testSession([]string{"a", "b", "c"}, cfg)

	st := NewState(sess)
	st.Phase = PhasePreparingNext
	st.TurnIndex = 2 // two of three have played
	if got := NextPhase(st); got != PhaseTurnCountdown {
		t.Fatalf("want loop to turn_countdown, got %s", got)
	}

	st.TurnIndex = 3 // round complete
	if got := NextPhase(st); got != PhaseGameFinished {
		t.Fatalf("want game_finished after full round, got %s", got)
	}
}

func TestNextPhase_MultiRound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rounds = 2
	sess := testSession([]string{"a", "b"}, cfg)

	st := NewState(sess)
	st.Phase = PhasePreparingNext
	st.TurnIndex = 2
	if got := NextPhase(st); got != PhaseTurnCountdown {
		t.Fatalf("round two should start, got %s", got)
	}
	st.TurnIndex = 4
	if got := NextPhase(st); got != PhaseGameFinished {
		t.Fatalf("want game_finished after both rounds, got %s", got)
	}
}

func TestPhaseDuration_ComesFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GuessSeconds = 7
	cfg.VoteSeconds = 9
	if d := PhaseGuessing.Duration(cfg); d != 7*time.Second {
		t.Fatalf("guessing duration: %v", d)
	}
	if d := PhaseVoting.Duration(cfg); d != 9*time.Second {
		t.Fatalf("voting duration: %v", d)
	}
	if d := PhaseGameFinished.Duration(cfg); d != 0 {
		t.Fatalf("finished phase has no budget, got %v", d)
	}
}
