package session

import (
	"github.com/songclash/songclash-backend/internal/engine"
	"github.com/songclash/songclash-backend/internal/statesync"
)

type Msg interface{ isMsg() }

// Join registers a client connection for a player. Outbox receives every
// snapshot; Errors (optional) receives rejections of this client's
// commands.
type Join struct {
	ClientID    string
	PlayerID    string
	DisplayName string
	Outbox      chan Snapshot
	Errors      chan string
}

func (Join) isMsg() {}

type Leave struct {
	ClientID string
	PlayerID string
}

func (Leave) isMsg() {}

// FromClient carries a validated client intent into the runtime.
type FromClient struct {
	ClientID string
	Cmd      Command
}

func (FromClient) isMsg() {}

// PrimeTimer arms the timer for the current phase. Mostly a test hook;
// phase entries arm their own timers.
type PrimeTimer struct{}

func (PrimeTimer) isMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isMsg() {}

type Shutdown struct{}

func (Shutdown) isMsg() {}

// timerFired is internal: a phase deadline elapsed. Stale generations are
// dropped.
type timerFired struct {
	gen int
}

func (timerFired) isMsg() {}

type CommandType string

const (
	CmdStartGame   CommandType = "StartGame"
	CmdPlayAudio   CommandType = "PlayAudio"
	CmdPauseAudio  CommandType = "PauseAudio"
	CmdStopAudio   CommandType = "StopAudio"
	CmdSubmitGuess CommandType = "SubmitGuess"
	CmdCastVote    CommandType = "CastVote"
)

type Command struct {
	Type       CommandType
	PlayerID   string
	Text       string
	Confidence string
	GuessID    string
	Position   float64
}

// Snapshot is what clients receive: the merged sync record plus a local
// delivery version.
type Snapshot struct {
	Version int
	State   statesync.State
}

// View reflects internal state for tests without data races.
type View struct {
	Version    int
	NumClients int
	Phase      engine.Phase
	State      statesync.State
}
