package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agrisense/internal/config"
	"agrisense/internal/handlers"
	"agrisense/internal/repository"
	"agrisense/internal/service"
	"agrisense/internal/worker"
	"agrisense/pkg/database"
	"agrisense/pkg/logger"
	"agrisense/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	appLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "agrisense")
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer appLogger.Sync()

	appLogger.Info("=== Agrisense Backend Starting ===")

	// Storage
	var readingRepo repository.ReadingRepository
	if cfg.DB.Driver == "memory" {
		appLogger.Warn("Using in-memory storage, readings are lost on restart")
		readingRepo = repository.NewMemoryReadingRepository()
	} else {
		db, err := database.Connect(database.Config{
			Driver:   cfg.DB.Driver,
			Host:     cfg.DB.Host,
			Port:     cfg.DB.Port,
			User:     cfg.DB.User,
			Password: cfg.DB.Password,
			DBName:   cfg.DB.DBName,
			SSLMode:  cfg.DB.SSLMode,
			Debug:    cfg.App.Debug,
		})
		if err != nil {
			appLogger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}()

		if err := database.Migrate(db); err != nil {
			appLogger.Fatal("Failed to migrate database", zap.Error(err))
		}
		appLogger.Info("Database ready", zap.String("driver", cfg.DB.Driver))

		readingRepo = repository.NewReadingRepository(db)
	}

	// Device state cache
	var cacheRepo repository.CacheRepository
	var cacheStats handlers.StatsFunc
	if cfg.Redis.Enabled {
		redisClient, err := redis.Connect(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()

		cacheRepo = repository.NewCacheRepository(redisClient)
		cacheStats = func(ctx context.Context) (map[string]string, error) {
			return redis.GetStats(ctx, redisClient)
		}
		appLogger.Info("Redis connected", zap.String("host", cfg.Redis.Host))
	}

	readingService := service.NewReadingService(readingRepo, cacheRepo, appLogger)
	exportService := service.NewExportService(readingRepo, cfg.Export.OutputDir, appLogger)

	// Background workers
	scheduler := worker.NewScheduler(appLogger)

	if cfg.MQTT.Enabled {
		scheduler.AddWorker(worker.NewMQTTWorker(worker.MQTTConfig{
			Broker:        cfg.MQTT.Broker,
			ClientID:      cfg.MQTT.ClientID,
			Topic:         cfg.MQTT.Topic,
			Username:      cfg.MQTT.Username,
			Password:      cfg.MQTT.Password,
			RetryInterval: cfg.MQTT.RetryInterval,
		}, readingService, appLogger))
		appLogger.Info("MQTT ingest enabled", zap.String("broker", cfg.MQTT.Broker), zap.String("topic", cfg.MQTT.Topic))
	}

	if cfg.Export.Enabled {
		scheduler.AddWorker(worker.NewExportWorker(exportService, cfg.Export.Interval, cfg.Export.Limit, appLogger))
		appLogger.Info("Export worker enabled", zap.Duration("interval", cfg.Export.Interval))
	}

	scheduler.Start()
	defer scheduler.Stop()

	// HTTP
	if cfg.App.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	routerOpts := handlers.RouterOptions{
		FrontendURL: cfg.App.FrontendURL,
		Logger:      appLogger,
	}
	if cfg.RateLimit.Enabled {
		routerOpts.IngestLimiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
		appLogger.Info("Ingest rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
	}

	r := handlers.NewRouter(
		routerOpts,
		handlers.NewReadingHandler(readingService, exportService, appLogger),
		handlers.NewDashboardHandler(readingService, readingRepo, cacheStats, cfg.App.ViewLimit, cfg.App.RefreshSecs, appLogger),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("Server starting", zap.String("addr", "http://localhost:"+cfg.App.Port))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	appLogger.Info("Server exited properly")
}
