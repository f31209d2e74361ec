package node

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"agrisense/internal/clients"

	"go.uber.org/zap"
)

var ErrSensorRead = errors.New("sensor read failed")

type Sensor interface {
	Read() (clients.Measurement, error)
}

type Submitter interface {
	Submit(ctx context.Context, m clients.Measurement) (string, error)
}

// SimulatedSensor produces plausible field readings and fails a fraction of reads.
type SimulatedSensor struct {
	deviceID    string
	failureRate float64

	mu   sync.Mutex
	rand *rand.Rand
}

func NewSimulatedSensor(deviceID string, failureRate float64, seed int64) *SimulatedSensor {
	return &SimulatedSensor{
		deviceID:    deviceID,
		failureRate: failureRate,
		rand:        rand.New(rand.NewSource(seed)),
	}
}

func (s *SimulatedSensor) Read() (clients.Measurement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rand.Float64() < s.failureRate {
		return clients.Measurement{}, ErrSensorRead
	}

	return clients.Measurement{
		DeviceID:     s.deviceID,
		Temperature:  round1(15 + s.rand.Float64()*35), // 15-50
		Humidity:     round1(30 + s.rand.Float64()*65), // 30-95
		SoilMoisture: s.rand.Intn(101),
	}, nil
}

func round1(v float64) float64 {
	return float64(int(v*10)) / 10
}

const DefaultInterval = 5 * time.Second

// Node reads the sensor on every tick and submits successful reads.
type Node struct {
	sensor   Sensor
	client   Submitter
	interval time.Duration
	logger   *zap.Logger
}

func NewNode(sensor Sensor, client Submitter, interval time.Duration, logger *zap.Logger) *Node {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Node{
		sensor:   sensor,
		client:   client,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled.
func (n *Node) Run(ctx context.Context) {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		n.Cycle(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Cycle performs one read-and-submit round. A failed read skips the round.
func (n *Node) Cycle(ctx context.Context) {
	m, err := n.sensor.Read()
	if err != nil {
		n.logger.Warn("Sensor read failed, skipping cycle", zap.Error(err))
		return
	}

	analysis, err := n.client.Submit(ctx, m)
	if err != nil {
		n.logger.Error("Failed to submit reading", zap.Error(err))
		return
	}

	n.logger.Info("Reading submitted",
		zap.String("device_id", m.DeviceID),
		zap.Float64("temperature", m.Temperature),
		zap.Float64("humidity", m.Humidity),
		zap.Int("soil_moisture", m.SoilMoisture),
		zap.String("analysis", analysis),
	)
}
