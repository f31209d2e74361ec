package repository

import (
	"context"
	"fmt"

	"agrisense/internal/models"

	"gorm.io/gorm"
)

type ReadingRepository interface {
	// Append stores a new reading and returns its assigned id.
	Append(ctx context.Context, reading *models.Reading) (uint, error)
	// Latest returns up to limit readings, newest id first.
	Latest(ctx context.Context, limit int) ([]models.Reading, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

type readingRepository struct {
	db *gorm.DB
}

func NewReadingRepository(db *gorm.DB) ReadingRepository {
	return &readingRepository{db: db}
}

func (r *readingRepository) Append(ctx context.Context, reading *models.Reading) (uint, error) {
	if err := r.db.WithContext(ctx).Create(reading).Error; err != nil {
		return 0, fmt.Errorf("failed to insert reading: %w", err)
	}
	return reading.ID, nil
}

func (r *readingRepository) Latest(ctx context.Context, limit int) ([]models.Reading, error) {
	readings := make([]models.Reading, 0)
	if limit < 1 {
		return readings, nil
	}

	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&readings).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to query latest readings: %w", err)
	}
	return readings, nil
}

func (r *readingRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reading{}).
		Count(&count).
		Error
	return count, err
}

func (r *readingRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
