package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// stubTracks hands out numbered tracks and can run dry per player.
type stubTracks struct {
	served    map[string]int
	exhausted map[string]bool
}

func newStubTracks() *stubTracks {
	return &stubTracks{served: map[string]int{}, exhausted: map[string]bool{}}
}

func (s *stubTracks) NextTrack(ctx context.Context, sessionID, playerID string) (string, error) {
	if s.exhausted[playerID] {
		return "", ErrNoSongsAvailable
	}
	s.served[playerID]++
	return fmt.Sprintf("track-%s-%d", playerID, s.served[playerID]), nil
}

func testSession(players []string, cfg Config) Session {
	s := NewSession("S1", players[0], cfg, time.Now())
	for _, p := range players[1:] {
		s, _ = s.AddPlayer(p)
	}
	s, _ = s.Start(time.Now())
	return s
}

func TestCoordinator_RoundRobinVisitsEveryPlayerOncePerRound(t *testing.T) {
	orders := [][]string{
		{"a", "b"},
		{"a", "b", "c"},
		{"a", "b", "c", "d", "e"},
	}
	for _, order := range orders {
		t.Run(fmt.Sprintf("players=%d", len(order)), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Rounds = 2
			sess := testSession(order, cfg)
			coord := NewCoordinator(newStubTracks())

			idx := 0
			for round := 0; round < cfg.Rounds; round++ {
				seen := map[string]int{}
				for i := 0; i < len(order); i++ {
					turn, newIdx, err := coord.StartTurn(context.Background(), sess, nil, idx, time.Now())
					if err != nil {
						t.Fatalf("StartTurn: %v", err)
					}
					seen[turn.ChallengerID]++
					idx = newIdx
				}
				for _, p := range order {
					if seen[p] != 1 {
						t.Fatalf("round %d: player %s was challenger %d times", round, p, seen[p])
					}
				}
			}
			if !GameComplete(order, idx, cfg.Rounds) {
				t.Fatalf("expected game complete at index %d", idx)
			}
		})
	}
}

func TestCoordinator_SkipsExhaustedChallenger(t *testing.T) {
	cfg := DefaultConfig()
	sess := testSession([]string{"a", "b", "c"}, cfg)
	tracks := newStubTracks()
	tracks.exhausted["a"] = true
	coord := NewCoordinator(tracks)

	turn, newIdx, err := coord.StartTurn(context.Background(), sess, nil, 0, time.Now())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if turn.ChallengerID != "b" {
		t.Fatalf("want challenger b after skipping a, got %s", turn.ChallengerID)
	}
	if newIdx != 2 {
		t.Fatalf("want index 2 (a skipped, b played), got %d", newIdx)
	}
}

func TestCoordinator_AllExhaustedReportsNoSongs(t *testing.T) {
	cfg := DefaultConfig()
	sess := testSession([]string{"a", "b"}, cfg)
	tracks := newStubTracks()
	tracks.exhausted["a"] = true
	tracks.exhausted["b"] = true
	coord := NewCoordinator(tracks)

	_, _, err := coord.StartTurn(context.Background(), sess, nil, 0, time.Now())
	if !errors.Is(err, ErrNoSongsAvailable) {
		t.Fatalf("want ErrNoSongsAvailable, got %v", err)
	}
}

func TestCoordinator_RejectsSecondLiveTurn(t *testing.T) {
	cfg := DefaultConfig()
	sess := testSession([]string{"a", "b"}, cfg)
	coord := NewCoordinator(newStubTracks())

	turn, idx, err := coord.StartTurn(context.Background(), sess, nil, 0, time.Now())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	_, _, err = coord.StartTurn(context.Background(), sess, &turn, idx, time.Now())
	if !errors.Is(err, ErrTurnInProgress) {
		t.Fatalf("want ErrTurnInProgress, got %v", err)
	}

	done := coord.CompleteTurn(turn, time.Now())
	next, _, err := coord.StartTurn(context.Background(), sess, &done, idx, time.Now())
	if err != nil {
		t.Fatalf("unexpected err after completion: %v", err)
	}
	if next.ChallengerID != "b" {
		t.Fatalf("want challenger b, got %s", next.ChallengerID)
	}
}

func TestCompleteTurn_Idempotent(t *testing.T) {
	cfg := DefaultConfig()
	coord := NewCoordinator(newStubTracks())
	turn := NewTurn("S1", 1, "a", "track-1", cfg, time.Now())

	first := coord.CompleteTurn(turn, time.Now())
	second := coord.CompleteTurn(first, time.Now().Add(time.Minute))
	if !second.CompletedAt.Equal(first.CompletedAt) {
		t.Fatalf("second completion moved CompletedAt")
	}
}
