package engine

import "time"

// Config carries the per-session tunables. Everything here is policy, not
// mechanism: components read these values but never hard-code them.
type Config struct {
	PreGameSeconds   int
	CountdownSeconds int
	ResultsSeconds   int
	PrepareSeconds   int
	GuessSeconds     int
	VoteSeconds      int
	AudioSeconds     int
	MaxPlays         int
	VotesNeeded      int
	Rounds           int
	AllowSelfVote    bool
	CountOffline     bool
	CorrectAward     int
	ChallengerBonus  int
	FastAnswerBonus  int
	FastAnswerWindow time.Duration
}

func DefaultConfig() Config {
	return Config{
		PreGameSeconds:   5,
		CountdownSeconds: 3,
		ResultsSeconds:   5,
		PrepareSeconds:   2,
		GuessSeconds:     45,
		VoteSeconds:      30,
		AudioSeconds:     30,
		MaxPlays:         3,
		VotesNeeded:      2,
		Rounds:           1,
		AllowSelfVote:    false,
		CountOffline:     true,
		CorrectAward:     1,
		ChallengerBonus:  0,
		FastAnswerBonus:  1,
		FastAnswerWindow: 10 * time.Second,
	}
}
