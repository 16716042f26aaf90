package statesync

import "time"

// PlayerScore is one row of the per-player score snapshot.
type PlayerScore struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Score       int    `json:"score"`
	Online      bool   `json:"online"`
}

type GuessEntry struct {
	ID          string    `json:"id"`
	PlayerID    string    `json:"player_id"`
	Text        string    `json:"text"`
	Confidence  string    `json:"confidence"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type VoteEntry struct {
	VoterID string    `json:"voter_id"`
	GuessID string    `json:"guess_id"` // empty = "no correct answer"
	CastAt  time.Time `json:"cast_at"`
}

// State is the broadcast projection of session+turn+scores: the single
// record exchanged over the change feed. It is merged field by field,
// never replaced wholesale, so concurrent partial writes from different
// components can't clobber each other.
type State struct {
	SessionID    string `json:"session_id"`
	SessionState string `json:"session_state"`
	HostID       string `json:"host_id"`

	Phase           string `json:"phase"`
	TimeRemainingMS int64  `json:"time_remaining_ms"`

	PlayerOrder []string               `json:"player_order"`
	TurnIndex   int                    `json:"turn_index"`
	Scores      map[string]PlayerScore `json:"scores"`

	TurnID       string `json:"turn_id"`
	TurnNumber   int    `json:"turn_number"`
	TurnState    string `json:"turn_state"`
	ChallengerID string `json:"challenger_id"`
	DefenderID   string `json:"defender_id"`
	TrackID      string `json:"track_id"`

	IsPlaying      bool      `json:"is_playing"`
	AudioStopped   bool      `json:"audio_stopped"`
	PlayCount      int       `json:"play_count"`
	MaxPlays       int       `json:"max_plays"`
	Position       float64   `json:"position"`
	AudioStartedAt time.Time `json:"audio_started_at"`

	Guesses         []GuessEntry `json:"guesses"`
	Votes           []VoteEntry  `json:"votes"`
	AcceptedGuessID string       `json:"accepted_guess_id"`
	VotingCompleted bool         `json:"voting_completed"`
	TurnStartedAt   time.Time    `json:"turn_started_at"`

	FailedAttempts int  `json:"failed_attempts"`
	RevealArtwork  bool `json:"reveal_artwork"`

	UpdatedBy string    `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Delta is a partial State: nil fields are untouched by the merge, set
// fields always win over the stored value. Each component only ever sets
// the fields it owns.
type Delta struct {
	SessionState *string
	HostID       *string

	Phase           *string
	TimeRemainingMS *int64

	PlayerOrder *[]string
	TurnIndex   *int
	Scores      map[string]PlayerScore

	TurnID       *string
	TurnNumber   *int
	TurnState    *string
	ChallengerID *string
	DefenderID   *string
	TrackID      *string

	IsPlaying      *bool
	AudioStopped   *bool
	PlayCount      *int
	MaxPlays       *int
	Position       *float64
	AudioStartedAt *time.Time

	Guesses         *[]GuessEntry
	Votes           *[]VoteEntry
	AcceptedGuessID *string
	VotingCompleted *bool
	TurnStartedAt   *time.Time

	FailedAttempts *int
	RevealArtwork  *bool
}

// Merge applies a delta onto a snapshot. Idempotent per field: applying
// the same delta twice yields the same record. Scores merge per player
// key so one component's write never erases another player's total.
func Merge(cur State, d Delta, writerID string, now time.Time) State {
	if d.SessionState != nil {
		cur.SessionState = *d.SessionState
	}
	if d.HostID != nil {
		cur.HostID = *d.HostID
	}
	if d.Phase != nil {
		cur.Phase = *d.Phase
	}
	if d.TimeRemainingMS != nil {
		cur.TimeRemainingMS = *d.TimeRemainingMS
	}
	if d.PlayerOrder != nil {
		cur.PlayerOrder = append([]string{}, (*d.PlayerOrder)...)
	}
	if d.TurnIndex != nil {
		cur.TurnIndex = *d.TurnIndex
	}
	if d.Scores != nil {
		merged := make(map[string]PlayerScore, len(cur.Scores)+len(d.Scores))
		for k, v := range cur.Scores {
			merged[k] = v
		}
		for k, v := range d.Scores {
			merged[k] = v
		}
		cur.Scores = merged
	}
	if d.TurnID != nil {
		cur.TurnID = *d.TurnID
	}
	if d.TurnNumber != nil {
		cur.TurnNumber = *d.TurnNumber
	}
	if d.TurnState != nil {
		cur.TurnState = *d.TurnState
	}
	if d.ChallengerID != nil {
		cur.ChallengerID = *d.ChallengerID
	}
	if d.DefenderID != nil {
		cur.DefenderID = *d.DefenderID
	}
	if d.TrackID != nil {
		cur.TrackID = *d.TrackID
	}
	if d.IsPlaying != nil {
		cur.IsPlaying = *d.IsPlaying
	}
	if d.AudioStopped != nil {
		cur.AudioStopped = *d.AudioStopped
	}
	if d.PlayCount != nil {
		cur.PlayCount = *d.PlayCount
	}
	if d.MaxPlays != nil {
		cur.MaxPlays = *d.MaxPlays
	}
	if d.Position != nil {
		cur.Position = *d.Position
	}
	if d.AudioStartedAt != nil {
		cur.AudioStartedAt = *d.AudioStartedAt
	}
	if d.Guesses != nil {
		cur.Guesses = append([]GuessEntry{}, (*d.Guesses)...)
	}
	if d.Votes != nil {
		cur.Votes = append([]VoteEntry{}, (*d.Votes)...)
	}
	if d.AcceptedGuessID != nil {
		cur.AcceptedGuessID = *d.AcceptedGuessID
	}
	if d.VotingCompleted != nil {
		cur.VotingCompleted = *d.VotingCompleted
	}
	if d.TurnStartedAt != nil {
		cur.TurnStartedAt = *d.TurnStartedAt
	}
	if d.FailedAttempts != nil {
		cur.FailedAttempts = *d.FailedAttempts
	}
	if d.RevealArtwork != nil {
		cur.RevealArtwork = *d.RevealArtwork
	}
	cur.UpdatedBy = writerID
	cur.UpdatedAt = now
	return cur
}

// Pointer helpers for building deltas.
func Str(s string) *string                   { return &s }
func Int(i int) *int                         { return &i }
func Int64(i int64) *int64                   { return &i }
func Bool(b bool) *bool                      { return &b }
func Float(f float64) *float64               { return &f }
func Time(t time.Time) *time.Time            { return &t }
func Strings(s []string) *[]string           { return &s }
func GuessList(g []GuessEntry) *[]GuessEntry { return &g }
func VoteList(v []VoteEntry) *[]VoteEntry    { return &v }
