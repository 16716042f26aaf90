package engine

import "errors"

var ErrUnauthorized = errors.New("unauthorized")
var ErrReplayLimitExceeded = errors.New("no replays left")
var ErrPhaseClosed = errors.New("phase closed")
var ErrNoSongsAvailable = errors.New("no songs available")
var ErrNotEnoughPlayers = errors.New("not enough players")
var ErrTurnInProgress = errors.New("turn already in progress")
var ErrUnknownGuess = errors.New("unknown guess")
var ErrWrongSessionState = errors.New("wrong session state")
