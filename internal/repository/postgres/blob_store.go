package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"myGreenMarketPersonalization/business/personalization"
)

// CREATE TABLE public.personalization_blobs (
//     blob_key   TEXT PRIMARY KEY,
//     blob       JSONB,
//     updated_at TIMESTAMPTZ
// );

type personalizationBlobRow struct {
	Key       string         `gorm:"column:blob_key;primaryKey"`
	Blob      datatypes.JSON `gorm:"column:blob;type:jsonb"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (personalizationBlobRow) TableName() string {
	return "personalization_blobs"
}

// BlobStore keeps personalization blobs in a single keyed table.
type BlobStore struct {
	DB *gorm.DB
}

var _ personalization.BlobStore = (*BlobStore)(nil)

func NewBlobStore(db *gorm.DB) *BlobStore {
	return &BlobStore{DB: db}
}

func (r *BlobStore) Migrate(ctx context.Context) error {
	if err := r.DB.WithContext(ctx).AutoMigrate(&personalizationBlobRow{}); err != nil {
		return fmt.Errorf("failed to migrate personalization_blobs: %w", err)
	}
	return nil
}

func (r *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var row personalizationBlobRow
	err := r.DB.WithContext(ctx).First(&row, "blob_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query personalization_blobs: %w", err)
	}

	if len(row.Blob) == 0 {
		return nil, nil
	}
	return []byte(row.Blob), nil
}

func (r *BlobStore) Set(ctx context.Context, key string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	return upsertBlob(r.DB.WithContext(ctx), key, blob)
}

func upsertBlob(db *gorm.DB, key string, blob []byte) error {
	row := personalizationBlobRow{
		Key:       key,
		Blob:      datatypes.JSON(blob),
		UpdatedAt: time.Now(),
	}

	if err := db.Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "blob_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"blob", "updated_at"}),
		},
	).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to upsert personalization_blobs: %w", err)
	}
	return nil
}

// Merge runs fn under a row lock. An empty placeholder row is inserted first
// so concurrent first writes to a key also serialize on the lock.
func (r *BlobStore) Merge(ctx context.Context, key string, fn personalization.MergeFunc) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		placeholder := personalizationBlobRow{Key: key, UpdatedAt: time.Now()}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&placeholder).Error; err != nil {
			return fmt.Errorf("failed to reserve personalization_blobs row: %w", err)
		}

		var row personalizationBlobRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&row, "blob_key = ?", key).Error; err != nil {
			return fmt.Errorf("failed to lock personalization_blobs row: %w", err)
		}

		var current []byte
		if len(row.Blob) > 0 {
			current = []byte(row.Blob)
		}

		next, err := fn(current)
		if err != nil {
			return fmt.Errorf("merge %s: %w", key, err)
		}

		return upsertBlob(tx, key, next)
	})
}

func (r *BlobStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Where("blob_key = ?", key).Delete(&personalizationBlobRow{}).Error; err != nil {
		return fmt.Errorf("failed to delete personalization_blobs: %w", err)
	}
	return nil
}
