package engine

// State is one replica's projection of a session: everything the phase
// machine needs to decide its next transition. Replicas rebuild it from
// each delivered snapshot; the store round-trip is authoritative, never
// the local intent that produced a write.
type State struct {
	Session        Session
	Turn           *Turn
	TurnIndex      int
	Phase          Phase
	Scores         map[string]int
	FailedAttempts int
	RevealArtwork  bool
}

func NewState(sess Session) State {
	return State{
		Session: sess,
		Phase:   PhasePreGameCountdown,
		Scores:  map[string]int{},
	}
}

// NextPhase resolves the successor phase. preparing_next_turn is the only
// branch point: loop back while unplayed challengers remain, finish once
// every player has been challenger for the configured rounds.
func NextPhase(s State) Phase {
	switch s.Phase {
	case PhasePreGameCountdown:
		return PhaseTurnCountdown
	case PhaseTurnCountdown:
		return PhaseAudioPlaying
	case PhaseAudioPlaying:
		return PhaseGuessing
	case PhaseGuessing:
		return PhaseVoting
	case PhaseVoting:
		return PhaseTurnResults
	case PhaseTurnResults:
		return PhasePreparingNext
	case PhasePreparingNext:
		if GameComplete(s.Session.Players, s.TurnIndex, s.Session.Config.Rounds) {
			return PhaseGameFinished
		}
		return PhaseTurnCountdown
	default:
		return PhaseGameFinished
	}
}

// TurnStateFor maps a phase onto the turn sub-state it implies, for
// phases that touch the live turn.
func TurnStateFor(p Phase) (TurnState, bool) {
	switch p {
	case PhaseAudioPlaying:
		return TurnPlayingAudio, true
	case PhaseGuessing:
		return TurnGuessing, true
	case PhaseVoting:
		return TurnVoting, true
	case PhaseTurnResults:
		return TurnResults, true
	default:
		return "", false
	}
}
