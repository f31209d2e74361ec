package handlers

import (
	"context"
	"net/http"
	"time"

	"agrisense/internal/repository"
	"agrisense/internal/service"
	"agrisense/internal/view"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatsFunc reports cache server statistics. Nil when the cache is disabled.
type StatsFunc func(ctx context.Context) (map[string]string, error)

type DashboardHandler struct {
	service        service.ReadingService
	repo           repository.ReadingRepository
	cacheStats     StatsFunc
	viewLimit      int
	refreshSeconds int
	logger         *zap.Logger
}

func NewDashboardHandler(
	service service.ReadingService,
	repo repository.ReadingRepository,
	cacheStats StatsFunc,
	viewLimit int,
	refreshSeconds int,
	logger *zap.Logger,
) *DashboardHandler {
	if viewLimit < 1 {
		viewLimit = view.WindowSize
	}
	if refreshSeconds < 1 {
		refreshSeconds = view.RefreshSeconds
	}

	return &DashboardHandler{
		service:        service,
		repo:           repo,
		cacheStats:     cacheStats,
		viewLimit:      viewLimit,
		refreshSeconds: refreshSeconds,
		logger:         logger,
	}
}

// Dashboard handles GET /: the latest readings as an auto-refreshing table.
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	readings, err := h.service.Latest(c.Request.Context(), h.viewLimit)
	if err != nil {
		h.logger.Error("Failed to load dashboard readings", zap.Error(err))
		c.String(http.StatusInternalServerError, "failed to load readings")
		return
	}

	c.HTML(http.StatusOK, view.DashboardTemplate, view.NewPage(readings, h.refreshSeconds))
}

func (h *DashboardHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	database := "connected"
	if err := h.repo.Ping(ctx); err != nil {
		status = http.StatusServiceUnavailable
		database = "unavailable"
	}

	c.JSON(status, gin.H{
		"status":    http.StatusText(status),
		"database":  database,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// SystemStats handles GET /api/system/stats.
func (h *DashboardHandler) SystemStats(c *gin.Context) {
	ctx := c.Request.Context()

	count, err := h.repo.Count(ctx)
	if err != nil {
		h.logger.Error("Failed to count readings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count readings"})
		return
	}

	response := gin.H{
		"database": gin.H{"readings": count},
	}

	if h.cacheStats != nil {
		stats, err := h.cacheStats(ctx)
		if err != nil {
			h.logger.Warn("Failed to get cache stats", zap.Error(err))
		} else {
			response["redis"] = stats
		}
	}

	c.JSON(http.StatusOK, response)
}
