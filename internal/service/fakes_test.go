package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"agrisense/internal/models"
	"agrisense/internal/repository"
)

type fakeCache struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
}

var _ repository.CacheRepository = (*fakeCache)(nil)

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[key], nil
}

func (c *fakeCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal([]byte(val), dest)
}

func (c *fakeCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = string(data)
	return nil
}

func (c *fakeCache) Increment(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := strconv.ParseInt(c.values[key], 10, 64)
	n++
	c.values[key] = strconv.FormatInt(n, 10)
	return n, nil
}

var errStorage = errors.New("storage unavailable")

type failingRepo struct{}

func (failingRepo) Append(ctx context.Context, reading *models.Reading) (uint, error) {
	return 0, errStorage
}

func (failingRepo) Latest(ctx context.Context, limit int) ([]models.Reading, error) {
	return nil, errStorage
}

func (failingRepo) Count(ctx context.Context) (int64, error) { return 0, errStorage }

func (failingRepo) Ping(ctx context.Context) error { return errStorage }

func input(deviceID string, temp, humidity float64, soil int) models.ReadingInput {
	return models.ReadingInput{
		DeviceID:     &deviceID,
		Temperature:  &temp,
		Humidity:     &humidity,
		SoilMoisture: &soil,
	}
}
