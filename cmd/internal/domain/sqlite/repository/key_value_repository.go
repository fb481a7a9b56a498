package repository

import (
	"cityhospital/cmd/internal/domain/entity"
	"cityhospital/cmd/internal/utils"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultKeyValueRepository is the SQLite-backed durable store.
type DefaultKeyValueRepository struct {
	db *gorm.DB
}

func NewKeyValueRepository(db *gorm.DB) *DefaultKeyValueRepository {
	return &DefaultKeyValueRepository{db: db}
}

func (r *DefaultKeyValueRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var kv entity.KeyValue
	err := r.db.WithContext(ctx).First(&kv, "store_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: get %s: %w", key, err)
	}
	return []byte(kv.Value), true, nil
}

func (r *DefaultKeyValueRepository) Set(ctx context.Context, key string, value []byte) error {
	if err := upsert(r.db.WithContext(ctx), key, value); err != nil {
		return fmt.Errorf("sqlite: set %s: %w", key, err)
	}
	return nil
}

// Update reads keys and writes whatever fn returns inside one transaction.
// An error from fn rolls the transaction back.
func (r *DefaultKeyValueRepository) Update(ctx context.Context, keys []string, fn func(map[string][]byte) (map[string][]byte, error)) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []*entity.KeyValue
		if err := tx.Where("store_key IN ?", keys).Find(&rows).Error; err != nil {
			return fmt.Errorf("sqlite: read %v: %w", keys, err)
		}

		current := make(map[string][]byte, len(rows))
		for _, row := range rows {
			current[row.Key] = []byte(row.Value)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		for key, value := range next {
			if err := upsert(tx, key, value); err != nil {
				return fmt.Errorf("sqlite: write %s: %w", key, err)
			}
		}
		return nil
	})
}

func upsert(db *gorm.DB, key string, value []byte) error {
	kv := &entity.KeyValue{
		Key:       key,
		Value:     string(value),
		UpdatedAt: utils.NowUTC(),
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(kv).Error
}
