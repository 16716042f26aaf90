package types

import "github.com/songclash/songclash-backend/internal/statesync"

// ClientMessage is everything a client can send over the socket.
//
// StartGame: {}
// PlayAudio / PauseAudio / StopAudio: position (seconds, pause/stop only)
// SubmitGuess: text, confidence ("low" | "medium" | "high")
// CastVote: guess_id ("" = no correct answer)
type ClientMessage struct {
	Type       string  `json:"type"`
	Text       string  `json:"text,omitempty"`
	Confidence string  `json:"confidence,omitempty"`
	GuessID    string  `json:"guess_id,omitempty"`
	Position   float64 `json:"position,omitempty"`
}

// ServerMessage is the single server->client frame: either a full state
// snapshot or an error.
type ServerMessage struct {
	Type    string           `json:"type"` // "StateSnapshot" | "Error"
	Version int              `json:"version,omitempty"`
	State   *statesync.State `json:"state,omitempty"`
	Error   string           `json:"error,omitempty"`
}
