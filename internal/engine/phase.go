package engine

import "time"

// Phase is the fine-grained orchestration state, one level below
// Session.State. Phases advance strictly forward; the only loop is
// preparing_next_turn -> turn_countdown while challengers remain.
type Phase string

const (
	PhasePreGameCountdown Phase = "pre_game_countdown"
	PhaseTurnCountdown    Phase = "turn_countdown"
	PhaseAudioPlaying     Phase = "audio_playing"
	PhaseGuessing         Phase = "guessing"
	PhaseVoting           Phase = "voting"
	PhaseTurnResults      Phase = "turn_results"
	PhasePreparingNext    Phase = "preparing_next_turn"
	PhaseGameFinished     Phase = "game_finished"
)

func (p Phase) String() string { return string(p) }

var phaseTransitions = map[Phase][]Phase{
	PhasePreGameCountdown: {PhaseTurnCountdown},
	PhaseTurnCountdown:    {PhaseAudioPlaying},
	PhaseAudioPlaying:     {PhaseGuessing},
	PhaseGuessing:         {PhaseVoting},
	PhaseVoting:           {PhaseTurnResults},
	PhaseTurnResults:      {PhasePreparingNext},
	PhasePreparingNext:    {PhaseTurnCountdown, PhaseGameFinished},
	PhaseGameFinished:     {},
}

func (p Phase) CanTransitionTo(target Phase) bool {
	for _, next := range phaseTransitions[p] {
		if next == target {
			return true
		}
	}
	return false
}

// Duration returns the time budget for a phase. Every phase has a bounded
// wait; a zero duration means the phase advances on the next tick unless a
// completion signal lands first.
func (p Phase) Duration(cfg Config) time.Duration {
	switch p {
	case PhasePreGameCountdown:
		return time.Duration(cfg.PreGameSeconds) * time.Second
	case PhaseTurnCountdown:
		return time.Duration(cfg.CountdownSeconds) * time.Second
	case PhaseAudioPlaying:
		return time.Duration(cfg.AudioSeconds) * time.Second
	case PhaseGuessing:
		return time.Duration(cfg.GuessSeconds) * time.Second
	case PhaseVoting:
		return time.Duration(cfg.VoteSeconds) * time.Second
	case PhaseTurnResults:
		return time.Duration(cfg.ResultsSeconds) * time.Second
	case PhasePreparingNext:
		return time.Duration(cfg.PrepareSeconds) * time.Second
	default:
		return 0
	}
}
