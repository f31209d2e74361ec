package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	App struct {
		Port        string
		Debug       bool
		FrontendURL string
		ViewLimit   int
		RefreshSecs int
	}
	Log struct {
		Level  string
		Format string
	}
	DB struct {
		Driver   string // postgres, mysql or memory
		Host     string
		Port     string
		User     string
		Password string
		DBName   string
		SSLMode  string
	}
	Redis struct {
		Enabled  bool
		Host     string
		Port     string
		Password string
		DB       int
	}
	MQTT struct {
		Enabled       bool
		Broker        string
		ClientID      string
		Topic         string
		Username      string
		Password      string
		RetryInterval time.Duration
	}
	Export struct {
		Enabled   bool
		Interval  time.Duration
		OutputDir string
		Limit     int
	}
	RateLimit struct {
		Enabled           bool
		RequestsPerSecond int
		Burst             int
	}
}

func Load() *Config {
	cfg := &Config{}

	// App
	cfg.App.Port = getEnv("PORT", "8080")
	cfg.App.Debug = getEnvAsBool("DEBUG", false)
	cfg.App.FrontendURL = getEnv("FRONTEND_URL", "http://localhost:3000")
	cfg.App.ViewLimit = getEnvAsInt("VIEW_LIMIT", 20)
	cfg.App.RefreshSecs = getEnvAsInt("VIEW_REFRESH_SECONDS", 3)

	// Log
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	// DB
	cfg.DB.Driver = getEnv("DB_DRIVER", "postgres")
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.DBName = getEnv("DB_NAME", "agrisense")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	// Redis
	cfg.Redis.Enabled = getEnvAsBool("REDIS_ENABLED", false)
	cfg.Redis.Host = getEnv("REDIS_HOST", "localhost")
	cfg.Redis.Port = getEnv("REDIS_PORT", "6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", 0)

	// MQTT
	cfg.MQTT.Enabled = getEnvAsBool("MQTT_ENABLED", false)
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "agrisense-server")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "agrisense/readings")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.RetryInterval = getEnvAsDuration("MQTT_RETRY_INTERVAL", 5*time.Second)

	// Export
	cfg.Export.Enabled = getEnvAsBool("EXPORT_ENABLED", false)
	cfg.Export.Interval = getEnvAsDuration("EXPORT_INTERVAL", time.Hour)
	cfg.Export.OutputDir = getEnv("EXPORT_DIR", "./data/exports")
	cfg.Export.Limit = getEnvAsInt("EXPORT_LIMIT", 1000)

	// Rate Limit
	cfg.RateLimit.Enabled = getEnvAsBool("RATE_LIMIT_ENABLED", false)
	cfg.RateLimit.RequestsPerSecond = getEnvAsInt("RATE_LIMIT_RPS", 10)
	cfg.RateLimit.Burst = getEnvAsInt("RATE_LIMIT_BURST", 20)

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if dur, err := time.ParseDuration(value); err == nil && dur > 0 {
			return dur
		}
	}
	return defaultValue
}
