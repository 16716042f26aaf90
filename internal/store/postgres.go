package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/songclash/songclash-backend/internal/statesync"
)

// snapshotRow is the durable form of one session snapshot. The record is
// stored whole as JSON; merge semantics live in statesync, not in SQL.
type snapshotRow struct {
	SessionID string `gorm:"primaryKey;size:64"`
	Data      []byte `gorm:"type:jsonb;not null"`
	UpdatedBy string `gorm:"size:64"`
	UpdatedAt time.Time
}

func (snapshotRow) TableName() string { return "session_snapshots" }

// Postgres is the durable store. Change notification stays process-local:
// writes publish onto the injected feed after they commit.
type Postgres struct {
	db   *gorm.DB
	feed *Memory
}

func NewPostgres(dsn string, feed *Memory) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.AutoMigrate(&snapshotRow{}); err != nil {
		return nil, fmt.Errorf("migrate snapshots: %w", err)
	}
	return &Postgres{db: db, feed: feed}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) (statesync.State, error) {
	var row snapshotRow
	err := p.db.WithContext(ctx).First(&row, "session_id = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return statesync.State{}, statesync.ErrNotFound
	}
	if err != nil {
		return statesync.State{}, fmt.Errorf("%w: %v", statesync.ErrStoreUnavailable, err)
	}
	var rec statesync.State
	if err := json.Unmarshal(row.Data, &rec); err != nil {
		return statesync.State{}, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return rec, nil
}

func (p *Postgres) Put(ctx context.Context, key string, rec statesync.State) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}
	row := snapshotRow{SessionID: key, Data: data, UpdatedBy: rec.UpdatedBy, UpdatedAt: rec.UpdatedAt}
	err = p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("%w: %v", statesync.ErrStoreUnavailable, err)
	}
	return nil
}

// Patch runs the read-merge-write inside one transaction with a row lock,
// so two writers on the same key can't lose each other's fields.
func (p *Postgres) Patch(ctx context.Context, key string, d statesync.Delta, writerID string, now time.Time) (statesync.State, error) {
	var merged statesync.State
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row snapshotRow
		cur := statesync.State{SessionID: key}
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&row, "session_id = ?", key).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// absent treated as empty
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(row.Data, &cur); err != nil {
				return fmt.Errorf("decode snapshot %s: %w", key, err)
			}
		}
		merged = statesync.Merge(cur, d, writerID, now)
		data, err := json.Marshal(merged)
		if err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			UpdateAll: true,
		}).Create(&snapshotRow{
			SessionID: key,
			Data:      data,
			UpdatedBy: writerID,
			UpdatedAt: now,
		}).Error
	})
	if err != nil {
		return statesync.State{}, fmt.Errorf("%w: %v", statesync.ErrStoreUnavailable, err)
	}
	return merged, nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	err := p.db.WithContext(ctx).Delete(&snapshotRow{}, "session_id = ?", key).Error
	if err != nil {
		return fmt.Errorf("%w: %v", statesync.ErrStoreUnavailable, err)
	}
	return nil
}

func (p *Postgres) Subscribe(ctx context.Context, key string) (<-chan statesync.ChangeEvent, func()) {
	return p.feed.Subscribe(ctx, key)
}

func (p *Postgres) Publish(key string, ev statesync.ChangeEvent) {
	p.feed.Publish(key, ev)
}
