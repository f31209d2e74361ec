package repository

import (
	"context"
	"sync"

	"agrisense/internal/models"
)

// memoryRepository keeps readings in process. Used with DB_DRIVER=memory
// for local runs and by tests.
type memoryRepository struct {
	mu       sync.RWMutex
	readings []models.Reading
	nextID   uint
}

func NewMemoryReadingRepository() ReadingRepository {
	return &memoryRepository{nextID: 1}
}

func (r *memoryRepository) Append(ctx context.Context, reading *models.Reading) (uint, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	reading.ID = r.nextID
	r.nextID++
	r.readings = append(r.readings, *reading)
	return reading.ID, nil
}

func (r *memoryRepository) Latest(ctx context.Context, limit int) ([]models.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.Reading, 0, max(limit, 0))
	for i := len(r.readings) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, r.readings[i])
	}
	return result, nil
}

func (r *memoryRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.readings)), nil
}

func (r *memoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
