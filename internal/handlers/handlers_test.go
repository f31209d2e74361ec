package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"agrisense/internal/classifier"
	"agrisense/internal/models"
	"agrisense/internal/repository"
	"agrisense/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type brokenRepo struct{}

func (brokenRepo) Append(ctx context.Context, reading *models.Reading) (uint, error) {
	return 0, errors.New("database is locked")
}

func (brokenRepo) Latest(ctx context.Context, limit int) ([]models.Reading, error) {
	return nil, errors.New("database is locked")
}

func (brokenRepo) Count(ctx context.Context) (int64, error) {
	return 0, errors.New("database is locked")
}

func (brokenRepo) Ping(ctx context.Context) error { return errors.New("database is locked") }

func setupRouter(t *testing.T, repo repository.ReadingRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	readingService := service.NewReadingService(repo, nil, logger)
	exportService := service.NewExportService(repo, t.TempDir(), logger)

	return NewRouter(
		RouterOptions{Logger: logger},
		NewReadingHandler(readingService, exportService, logger),
		NewDashboardHandler(readingService, repo, nil, 20, 3, logger),
	)
}

func postReading(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", "/api/sensors", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIngestRoute(t *testing.T) {
	repo := repository.NewMemoryReadingRepository()
	r := setupRouter(t, repo)

	w := postReading(r, `{"device_id": "esp32-01", "temperature": 50, "humidity": 90, "soil_moisture": 5}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "success", response["status"])
	assert.Equal(t, classifier.TempCritical+" | "+classifier.HumidityWarning+" | "+classifier.SoilCritical, response["analysis"])

	count, _ := repo.Count(context.Background())
	assert.Equal(t, int64(1), count)
}

func TestIngestRoute_ZeroValuesAccepted(t *testing.T) {
	r := setupRouter(t, repository.NewMemoryReadingRepository())

	w := postReading(r, `{"device_id": "esp32-01", "temperature": 0, "humidity": 0, "soil_moisture": 50}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"analysis":"Normal","status":"success"}`, w.Body.String())
}

func TestIngestRoute_ValidationFailures(t *testing.T) {
	bodies := map[string]string{
		"missing device":      `{"temperature": 20, "humidity": 50, "soil_moisture": 40}`,
		"missing temperature": `{"device_id": "a", "humidity": 50, "soil_moisture": 40}`,
		"missing soil":        `{"device_id": "a", "temperature": 20, "humidity": 50}`,
		"string temperature":  `{"device_id": "a", "temperature": "hot", "humidity": 50, "soil_moisture": 40}`,
		"fractional soil":     `{"device_id": "a", "temperature": 20, "humidity": 50, "soil_moisture": 40.5}`,
		"numeric device id":   `{"device_id": 7, "temperature": 20, "humidity": 50, "soil_moisture": 40}`,
		"not json":            `temperature=20`,
		"empty body":          ``,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			repo := repository.NewMemoryReadingRepository()
			r := setupRouter(t, repo)

			w := postReading(r, body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "invalid reading")
			count, _ := repo.Count(context.Background())
			assert.Equal(t, int64(0), count)
		})
	}
}

func TestIngestRoute_StorageFailure(t *testing.T) {
	r := setupRouter(t, brokenRepo{})

	w := postReading(r, `{"device_id": "a", "temperature": 20, "humidity": 50, "soil_moisture": 40}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, `{"error":"failed to store reading"}`, w.Body.String())
}

func TestDashboardRoute_LatestWindowOldestFirst(t *testing.T) {
	r := setupRouter(t, repository.NewMemoryReadingRepository())

	for i := 1; i <= 25; i++ {
		soil := 50
		if i == 24 {
			soil = 5
		}
		body := fmt.Sprintf(`{"device_id": "node-%02d", "temperature": 21.5, "humidity": 40, "soil_moisture": %d}`, i, soil)
		require.Equal(t, http.StatusOK, postReading(r, body).Code)
	}

	w := get(r, "/")

	assert.Equal(t, http.StatusOK, w.Code)
	html := w.Body.String()
	assert.Contains(t, html, `<meta http-equiv="refresh" content="3">`)
	assert.NotContains(t, html, "node-05")
	assert.Contains(t, html, "node-06")
	assert.Less(t, strings.Index(html, "node-06"), strings.Index(html, "node-25"))
	assert.Equal(t, 20, strings.Count(html, "<td>21.5</td>"))
	assert.Equal(t, 1, strings.Count(html, `class="critical"`))
}

func TestDashboardRoute_IdempotentRead(t *testing.T) {
	r := setupRouter(t, repository.NewMemoryReadingRepository())
	postReading(r, `{"device_id": "a", "temperature": 36, "humidity": 85, "soil_moisture": 40}`)

	first := get(r, "/").Body.String()
	second := get(r, "/").Body.String()

	assert.Equal(t, first, second)
}

func TestDashboardRoute_StorageFailure(t *testing.T) {
	r := setupRouter(t, brokenRepo{})

	w := get(r, "/")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLatestRoute_RoundTrip(t *testing.T) {
	r := setupRouter(t, repository.NewMemoryReadingRepository())
	postReading(r, `{"device_id": "greenhouse-1", "temperature": 23.456, "humidity": 61.2, "soil_moisture": 37}`)
	postReading(r, `{"device_id": "greenhouse-2", "temperature": -4.25, "humidity": 99.9, "soil_moisture": -3}`)

	w := get(r, "/api/sensors/latest")

	require.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Readings []models.Reading `json:"readings"`
		Count    int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, 2, response.Count)

	first := response.Readings[0]
	assert.Equal(t, uint(1), first.ID)
	assert.Equal(t, "greenhouse-1", first.DeviceID)
	assert.Equal(t, 23.456, first.Temperature)
	assert.Equal(t, 61.2, first.Humidity)
	assert.Equal(t, 37, first.SoilMoisture)
	assert.Equal(t, classifier.StatusNormal, first.AlertStatus)

	second := response.Readings[1]
	assert.Equal(t, -4.25, second.Temperature)
	assert.Equal(t, -3, second.SoilMoisture)
	assert.Equal(t, classifier.HumidityWarning+" | "+classifier.SoilCritical, second.AlertStatus)
}

func TestLatestRoute_InvalidLimit(t *testing.T) {
	r := setupRouter(t, repository.NewMemoryReadingRepository())

	for _, limit := range []string{"0", "101", "ten"} {
		w := get(r, "/api/sensors/latest?limit="+limit)
		assert.Equal(t, http.StatusBadRequest, w.Code, limit)
	}
}

func TestDeviceStateRoute_CacheDisabled(t *testing.T) {
	r := setupRouter(t, repository.NewMemoryReadingRepository())

	w := get(r, "/api/sensors/devices/esp32-01/state")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestExportRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	repo := repository.NewMemoryReadingRepository()
	exportDir := t.TempDir()
	readingService := service.NewReadingService(repo, nil, logger)
	r := NewRouter(
		RouterOptions{Logger: logger},
		NewReadingHandler(readingService, service.NewExportService(repo, exportDir, logger), logger),
		NewDashboardHandler(readingService, repo, nil, 20, 3, logger),
	)
	postReading(r, `{"device_id": "a", "temperature": 23.456, "humidity": 50, "soil_moisture": 40}`)

	w := get(r, "/api/sensors/export?format=csv")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Regexp(t, `attachment; filename="readings_export_\d{8}_\d{6}_[0-9a-f]{8}\.csv"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), "id,timestamp,device_id,temperature,humidity,soil_moisture,alert_status")
	assert.Contains(t, w.Body.String(), ",23.456,")

	w = get(r, "/api/sensors/export?format=xlsx")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.Greater(t, w.Body.Len(), 0)

	// downloads are streamed, nothing accumulates on disk
	entries, err := os.ReadDir(exportDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	w = get(r, "/api/sensors/export?format=pdf")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthRoute(t *testing.T) {
	w := get(setupRouter(t, repository.NewMemoryReadingRepository()), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"connected"`)

	w = get(setupRouter(t, brokenRepo{}), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSystemStatsRoute(t *testing.T) {
	r := setupRouter(t, repository.NewMemoryReadingRepository())
	postReading(r, `{"device_id": "a", "temperature": 20, "humidity": 50, "soil_moisture": 40}`)

	w := get(r, "/api/system/stats")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"database":{"readings":1}}`, w.Body.String())
}
