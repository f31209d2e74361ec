package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"agrisense/internal/clients"
	"agrisense/internal/node"
	"agrisense/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	appLogger, err := logger.NewLogger(getEnv("LOG_LEVEL", "info"), getEnv("LOG_FORMAT", "console"), "agrisense-node")
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer appLogger.Sync()

	deviceID := getEnv("NODE_DEVICE_ID", "esp32-01")
	serverURL := getEnv("NODE_SERVER_URL", "http://localhost:8080")
	interval, err := time.ParseDuration(getEnv("NODE_INTERVAL", node.DefaultInterval.String()))
	if err != nil || interval <= 0 {
		appLogger.Warn("Invalid NODE_INTERVAL, using default",
			zap.String("value", os.Getenv("NODE_INTERVAL")),
			zap.Duration("default", node.DefaultInterval),
		)
		interval = node.DefaultInterval
	}
	failureRate, err := strconv.ParseFloat(getEnv("NODE_FAILURE_RATE", "0.05"), 64)
	if err != nil {
		appLogger.Fatal("Invalid NODE_FAILURE_RATE", zap.Error(err))
	}

	sensor := node.NewSimulatedSensor(deviceID, failureRate, time.Now().UnixNano())
	n := node.NewNode(sensor, clients.NewSensorClient(serverURL), interval, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Sensor node started",
		zap.String("device_id", deviceID),
		zap.String("server", serverURL),
		zap.Duration("interval", interval),
	)
	n.Run(ctx)
	appLogger.Info("Sensor node stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
