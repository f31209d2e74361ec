package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"agrisense/internal/classifier"
	"agrisense/internal/models"
	"agrisense/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrInvalidReading = errors.New("invalid reading")
	ErrCacheDisabled  = errors.New("device state cache is disabled")
	ErrDeviceNotFound = errors.New("device not found")
)

type ReadingService interface {
	Ingest(ctx context.Context, input models.ReadingInput) (*models.Reading, error)
	// Latest returns up to limit readings, newest id first.
	Latest(ctx context.Context, limit int) ([]models.Reading, error)
	DeviceState(ctx context.Context, deviceID string) (*models.DeviceState, error)
}

type readingService struct {
	repo   repository.ReadingRepository
	cache  repository.CacheRepository
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*readingService)

// WithClock overrides the time source used for reading timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *readingService) {
		s.now = now
	}
}

// NewReadingService builds the ingest service. cache may be nil.
func NewReadingService(repo repository.ReadingRepository, cache repository.CacheRepository, logger *zap.Logger, opts ...Option) ReadingService {
	s := &readingService{
		repo:   repo,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *readingService) Ingest(ctx context.Context, input models.ReadingInput) (*models.Reading, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	reading := &models.Reading{
		Timestamp:    s.now().Format(models.TimestampLayout),
		DeviceID:     *input.DeviceID,
		Temperature:  *input.Temperature,
		Humidity:     *input.Humidity,
		SoilMoisture: *input.SoilMoisture,
	}
	reading.AlertStatus = classifier.Classify(reading.Temperature, reading.Humidity, reading.SoilMoisture)

	if _, err := s.repo.Append(ctx, reading); err != nil {
		return nil, fmt.Errorf("failed to store reading: %w", err)
	}

	s.logger.Debug("Reading stored",
		zap.Uint("id", reading.ID),
		zap.String("device_id", reading.DeviceID),
		zap.String("alert_status", reading.AlertStatus),
	)

	// The row is already durable; cache problems only cost the device snapshot.
	if s.cache != nil {
		if err := s.updateDeviceState(ctx, reading); err != nil {
			s.logger.Warn("Failed to update device state",
				zap.String("device_id", reading.DeviceID),
				zap.Error(err),
			)
		}
	}

	return reading, nil
}

func (s *readingService) Latest(ctx context.Context, limit int) ([]models.Reading, error) {
	readings, err := s.repo.Latest(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest readings: %w", err)
	}
	return readings, nil
}

func (s *readingService) DeviceState(ctx context.Context, deviceID string) (*models.DeviceState, error) {
	if s.cache == nil {
		return nil, ErrCacheDisabled
	}

	state := &models.DeviceState{DeviceID: deviceID}
	found, err := s.cache.GetJSON(ctx, lastReadingKey(deviceID), &state.LastReading)
	if err != nil {
		return nil, fmt.Errorf("failed to read device state: %w", err)
	}
	if !found {
		return nil, ErrDeviceNotFound
	}

	count, err := s.cache.Get(ctx, readingCountKey(deviceID))
	if err != nil {
		return nil, fmt.Errorf("failed to read device counter: %w", err)
	}
	if count != "" {
		state.Readings, err = strconv.ParseInt(count, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid device counter %q: %w", count, err)
		}
	}

	return state, nil
}

func (s *readingService) updateDeviceState(ctx context.Context, reading *models.Reading) error {
	if err := s.cache.SetJSON(ctx, lastReadingKey(reading.DeviceID), reading, 0); err != nil {
		return err
	}
	_, err := s.cache.Increment(ctx, readingCountKey(reading.DeviceID))
	return err
}

func validateInput(input models.ReadingInput) error {
	switch {
	case input.DeviceID == nil:
		return fmt.Errorf("%w: device_id is required", ErrInvalidReading)
	case input.Temperature == nil:
		return fmt.Errorf("%w: temperature is required", ErrInvalidReading)
	case input.Humidity == nil:
		return fmt.Errorf("%w: humidity is required", ErrInvalidReading)
	case input.SoilMoisture == nil:
		return fmt.Errorf("%w: soil_moisture is required", ErrInvalidReading)
	}
	return nil
}

func lastReadingKey(deviceID string) string {
	return "agrisense:device:" + deviceID + ":last"
}

func readingCountKey(deviceID string) string {
	return "agrisense:device:" + deviceID + ":count"
}
