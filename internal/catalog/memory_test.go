package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/songclash/songclash-backend/internal/engine"
)

func TestMemory_NextTrackConsumesPerSession(t *testing.T) {
	c := NewMemory()
	c.AddTrack(Track{ID: "t1", OwnerID: "A", Title: "first"})
	c.AddTrack(Track{ID: "t2", OwnerID: "A", Title: "second"})

	ctx := context.Background()
	got1, err := c.NextTrack(ctx, "S1", "A")
	if err != nil {
		t.Fatalf("first pick: %v", err)
	}
	got2, err := c.NextTrack(ctx, "S1", "A")
	if err != nil {
		t.Fatalf("second pick: %v", err)
	}
	if got1.ID != "t1" || got2.ID != "t2" {
		t.Fatalf("picks = %s, %s; want t1, t2", got1.ID, got2.ID)
	}

	if _, err := c.NextTrack(ctx, "S1", "A"); !errors.Is(err, engine.ErrNoSongsAvailable) {
		t.Fatalf("exhausted pick err = %v, want ErrNoSongsAvailable", err)
	}
}

func TestMemory_PlayedTrackingIsPerSession(t *testing.T) {
	c := NewMemory()
	c.AddTrack(Track{ID: "t1", OwnerID: "A"})

	ctx := context.Background()
	if _, err := c.NextTrack(ctx, "S1", "A"); err != nil {
		t.Fatalf("session one: %v", err)
	}
	// A different session starts fresh.
	if _, err := c.NextTrack(ctx, "S2", "A"); err != nil {
		t.Fatalf("session two: %v", err)
	}
	if _, err := c.NextTrack(ctx, "S1", "A"); !errors.Is(err, engine.ErrNoSongsAvailable) {
		t.Fatalf("replay in session one err = %v, want ErrNoSongsAvailable", err)
	}
}

func TestMemory_NextTrackUnknownPlayer(t *testing.T) {
	c := NewMemory()
	if _, err := c.NextTrack(context.Background(), "S1", "ghost"); !errors.Is(err, engine.ErrNoSongsAvailable) {
		t.Fatalf("err = %v, want ErrNoSongsAvailable", err)
	}
}

func TestMemory_Resolve(t *testing.T) {
	c := NewMemory()
	c.AddTrack(Track{ID: "t1", OwnerID: "A", Title: "Song", Artist: "Band", ArtworkURL: "http://art/1"})

	got, err := c.Resolve(context.Background(), "t1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Title != "Song" || got.Artist != "Band" {
		t.Fatalf("resolved = %+v", got)
	}
	if _, err := c.Resolve(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown track")
	}
}

func TestSource_AdaptsToTrackIDs(t *testing.T) {
	c := NewMemory()
	c.AddTrack(Track{ID: "t1", OwnerID: "A"})
	src := Source{Catalog: c}

	id, err := src.NextTrack(context.Background(), "S1", "A")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if id != "t1" {
		t.Fatalf("id = %q, want t1", id)
	}
}
