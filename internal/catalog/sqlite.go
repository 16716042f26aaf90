package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/songclash/songclash-backend/internal/engine"
)

type trackRow struct {
	ID         string `gorm:"primaryKey;size:64"`
	OwnerID    string `gorm:"size:64;index"`
	Title      string `gorm:"size:256"`
	Artist     string `gorm:"size:256"`
	PreviewURL string
	ArtworkURL string
}

func (trackRow) TableName() string { return "tracks" }

// playedRow marks a track as used within a session so the same song never
// plays twice in one game.
type playedRow struct {
	SessionID string `gorm:"primaryKey;size:64"`
	TrackID   string `gorm:"primaryKey;size:64"`
	PlayedAt  time.Time
}

func (playedRow) TableName() string { return "played_tracks" }

// SQLite is the track catalog backed by a local database.
type SQLite struct {
	db *gorm.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	if err := db.AutoMigrate(&trackRow{}, &playedRow{}); err != nil {
		return nil, fmt.Errorf("migrate catalog: %w", err)
	}
	return &SQLite{db: db}, nil
}

// AddTrack registers a track in a player's library.
func (c *SQLite) AddTrack(ctx context.Context, t Track) error {
	row := trackRow(t)
	if err := c.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("add track: %w", err)
	}
	return nil
}

// NextTrack picks the player's oldest track not yet played in this
// session and marks it played.
func (c *SQLite) NextTrack(ctx context.Context, sessionID, playerID string) (Track, error) {
	var row trackRow
	err := c.db.WithContext(ctx).
		Where("owner_id = ?", playerID).
		Where("id NOT IN (?)", c.db.Model(&playedRow{}).
			Select("track_id").Where("session_id = ?", sessionID)).
		Order("id").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Track{}, engine.ErrNoSongsAvailable
	}
	if err != nil {
		return Track{}, fmt.Errorf("next track for %s: %w", playerID, err)
	}
	mark := playedRow{SessionID: sessionID, TrackID: row.ID, PlayedAt: time.Now()}
	if err := c.db.WithContext(ctx).Create(&mark).Error; err != nil {
		return Track{}, fmt.Errorf("mark played: %w", err)
	}
	return Track(row), nil
}

func (c *SQLite) Resolve(ctx context.Context, trackID string) (Track, error) {
	var row trackRow
	err := c.db.WithContext(ctx).First(&row, "id = ?", trackID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Track{}, engine.ErrNoSongsAvailable
	}
	if err != nil {
		return Track{}, fmt.Errorf("resolve track %s: %w", trackID, err)
	}
	return Track(row), nil
}
