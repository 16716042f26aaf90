package catalog

import (
	"context"

	"github.com/songclash/songclash-backend/internal/engine"
)

// Track is the playable metadata behind a track reference.
type Track struct {
	ID         string
	OwnerID    string
	Title      string
	Artist     string
	PreviewURL string
	ArtworkURL string
}

// Catalog resolves a player's next unplayed track. Exhaustion surfaces as
// engine.ErrNoSongsAvailable; the turn coordinator treats it as a skip.
type Catalog interface {
	NextTrack(ctx context.Context, sessionID, playerID string) (Track, error)
	Resolve(ctx context.Context, trackID string) (Track, error)
}

// Source adapts a Catalog to the engine's track contract, which only
// needs the reference.
type Source struct {
	Catalog Catalog
}

func (s Source) NextTrack(ctx context.Context, sessionID, playerID string) (string, error) {
	t, err := s.Catalog.NextTrack(ctx, sessionID, playerID)
	if err != nil {
		return "", err
	}
	return t.ID, nil
}

var _ engine.TrackSource = Source{}
