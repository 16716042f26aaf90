package engine

import (
	"context"
	"fmt"
	"time"
)

// AudioControl is the playback sub-state embedded in a turn:
// idle -> playing -> (paused | stopped), with paused -> playing allowed
// until the play budget is spent.
type AudioControl struct {
	Playing   bool
	Stopped   bool
	PlayCount int
	MaxPlays  int
	Position  float64 // seconds into the track
	StartedAt time.Time
}

func (a AudioControl) start(now time.Time) (AudioControl, error) {
	if a.Stopped {
		return a, ErrPhaseClosed
	}
	if a.Playing {
		return a, nil
	}
	if a.PlayCount >= a.MaxPlays {
		return a, ErrReplayLimitExceeded
	}
	a.Playing = true
	a.PlayCount++
	a.StartedAt = now
	return a, nil
}

func (a AudioControl) pause(position float64) AudioControl {
	a.Playing = false
	a.Position = position
	return a
}

func (a AudioControl) stop(position float64) AudioControl {
	a.Playing = false
	a.Stopped = true
	a.Position = position
	return a
}

// SessionReader yields the authoritative session record. The authority
// re-reads it on every call rather than trusting a cached host identity,
// so a host migration can't leave a stale host in control.
type SessionReader interface {
	Session(ctx context.Context, sessionID string) (Session, error)
}

// AudioAuthority gatekeeps every playback mutation behind the session's
// host identity.
type AudioAuthority struct {
	sessions SessionReader
}

func NewAudioAuthority(sessions SessionReader) *AudioAuthority {
	return &AudioAuthority{sessions: sessions}
}

func (aa *AudioAuthority) authorize(ctx context.Context, sessionID, requesterID string) error {
	sess, err := aa.sessions.Session(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("fetch session: %w", err)
	}
	if sess.HostID != requesterID {
		return ErrUnauthorized
	}
	return nil
}

// Play starts or resumes playback. ErrReplayLimitExceeded is a normal
// terminal condition here, not a fault: callers surface "no repeats left".
func (aa *AudioAuthority) Play(ctx context.Context, sessionID, requesterID string, t Turn, now time.Time) (Turn, error) {
	if err := aa.authorize(ctx, sessionID, requesterID); err != nil {
		return t, err
	}
	audio, err := t.Audio.start(now)
	if err != nil {
		return t, err
	}
	t.Audio = audio
	return t, nil
}

func (aa *AudioAuthority) Pause(ctx context.Context, sessionID, requesterID string, t Turn, position float64) (Turn, error) {
	if err := aa.authorize(ctx, sessionID, requesterID); err != nil {
		return t, err
	}
	t.Audio = t.Audio.pause(position)
	return t, nil
}

// Stop ends playback for the turn for good. The stopped state is
// terminal; later play requests fail with ErrPhaseClosed.
func (aa *AudioAuthority) Stop(ctx context.Context, sessionID, requesterID string, t Turn, position float64) (Turn, error) {
	if err := aa.authorize(ctx, sessionID, requesterID); err != nil {
		return t, err
	}
	t.Audio = t.Audio.stop(position)
	return t, nil
}
