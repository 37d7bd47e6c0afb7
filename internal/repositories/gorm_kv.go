package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type KVEntry struct {
	Key       string    `gorm:"column:item_key;primaryKey;size:191"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (KVEntry) TableName() string {
	return "kv_entries"
}

// GormKeyValueStore keeps every key as one row of kv_entries.
type GormKeyValueStore struct {
	db *gorm.DB
}

func NewGormKeyValueStore(db *gorm.DB) (*GormKeyValueStore, error) {
	if db == nil {
		return nil, errors.New("repositories: nil db")
	}
	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv_entries: %w", err)
	}
	return &GormKeyValueStore{db: db}, nil
}

func (s *GormKeyValueStore) GetItem(ctx context.Context, key string) (string, error) {
	var entry KVEntry
	err := s.db.WithContext(ctx).Where("item_key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return entry.Value, nil
}

func (s *GormKeyValueStore) SetItem(ctx context.Context, key, value string) error {
	entry := KVEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *GormKeyValueStore) RemoveItem(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Where("item_key = ?", key).Delete(&KVEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Close is a no-op: the pool that owns the connection closes it.
func (s *GormKeyValueStore) Close() error {
	return nil
}
