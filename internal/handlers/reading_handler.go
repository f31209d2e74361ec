package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"agrisense/internal/models"
	"agrisense/internal/service"
	"agrisense/internal/view"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxLatestLimit = 100

type ReadingHandler struct {
	service service.ReadingService
	exports service.ExportService
	logger  *zap.Logger
}

func NewReadingHandler(service service.ReadingService, exports service.ExportService, logger *zap.Logger) *ReadingHandler {
	return &ReadingHandler{
		service: service,
		exports: exports,
		logger:  logger,
	}
}

// Ingest handles POST /api/sensors.
func (h *ReadingHandler) Ingest(c *gin.Context) {
	var input models.ReadingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid reading",
			"message": err.Error(),
		})
		return
	}

	reading, err := h.service.Ingest(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidReading) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid reading",
				"message": err.Error(),
			})
			return
		}

		h.logger.Error("Failed to ingest reading", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to store reading",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"analysis": reading.AlertStatus,
	})
}

// Latest handles GET /api/sensors/latest. Rows come back oldest first.
func (h *ReadingHandler) Latest(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(view.WindowSize)))
	if err != nil || limit < 1 || limit > maxLatestLimit {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "limit must be an integer between 1 and 100",
		})
		return
	}

	readings, err := h.service.Latest(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to load latest readings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to load readings",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"readings": view.OrderForDisplay(readings),
		"count":    len(readings),
	})
}

// DeviceState handles GET /api/sensors/devices/:device_id/state.
func (h *ReadingHandler) DeviceState(c *gin.Context) {
	state, err := h.service.DeviceState(c.Request.Context(), c.Param("device_id"))
	switch {
	case errors.Is(err, service.ErrCacheDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDeviceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		h.logger.Error("Failed to load device state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load device state"})
	default:
		c.JSON(http.StatusOK, state)
	}
}

// Export handles GET /api/sensors/export.
func (h *ReadingHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.MaxExportRows)))

	var buf bytes.Buffer
	filename, contentType, err := h.exports.Stream(c.Request.Context(), format, limit, &buf)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedFormat) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "unsupported format, use 'csv' or 'xlsx'",
			})
			return
		}

		h.logger.Error("Failed to export readings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to export readings",
		})
		return
	}

	c.DataFromReader(http.StatusOK, int64(buf.Len()), contentType, &buf, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, filename),
	})
}
