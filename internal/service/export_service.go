package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"agrisense/internal/models"
	"agrisense/internal/repository"
	"agrisense/internal/utils"
	"agrisense/internal/view"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MaxExportRows = 1000

const (
	csvContentType  = "text/csv"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

type ExportService interface {
	// Export writes the latest limit readings (oldest first) into the output
	// directory and returns the file path.
	Export(ctx context.Context, format string, limit int) (string, error)
	// Stream writes the same export to w and returns the download file name
	// and its content type. Nothing is written to disk.
	Stream(ctx context.Context, format string, limit int, w io.Writer) (filename, contentType string, err error)
}

type exportService struct {
	repo      repository.ReadingRepository
	outputDir string
	logger    *zap.Logger
}

func NewExportService(repo repository.ReadingRepository, outputDir string, logger *zap.Logger) ExportService {
	if outputDir == "" {
		outputDir = "./data/exports"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		logger.Warn("Failed to create export directory", zap.String("dir", outputDir), zap.Error(err))
	}

	return &exportService{
		repo:      repo,
		outputDir: outputDir,
		logger:    logger,
	}
}

func (s *exportService) Export(ctx context.Context, format string, limit int) (string, error) {
	records, err := s.records(ctx, format, limit)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.outputDir, exportFilename(format))
	switch format {
	case "csv":
		err = saveToCSV(path, records)
	default:
		err = utils.CreateExcelFile(path, records)
	}
	if err != nil {
		return "", fmt.Errorf("failed to write %s export: %w", format, err)
	}

	s.logger.Info("Readings exported",
		zap.String("format", format),
		zap.String("path", path),
		zap.Int("records", len(records)),
	)
	return path, nil
}

func (s *exportService) Stream(ctx context.Context, format string, limit int, w io.Writer) (string, string, error) {
	records, err := s.records(ctx, format, limit)
	if err != nil {
		return "", "", err
	}

	contentType := xlsxContentType
	switch format {
	case "csv":
		contentType = csvContentType
		err = writeCSV(w, records)
	default:
		err = utils.WriteExcel(w, records)
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to write %s export: %w", format, err)
	}

	return exportFilename(format), contentType, nil
}

func (s *exportService) records(ctx context.Context, format string, limit int) ([]models.Reading, error) {
	if format != "csv" && format != "xlsx" && format != "excel" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if limit < 1 || limit > MaxExportRows {
		limit = MaxExportRows
	}

	latest, err := s.repo.Latest(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get readings: %w", err)
	}
	return view.OrderForDisplay(latest), nil
}

// exportFilename is unique per call, even within the same second.
func exportFilename(format string) string {
	ext := "xlsx"
	if format == "csv" {
		ext = "csv"
	}
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("readings_export_%s_%s.%s", timestamp, uuid.NewString()[:8], ext)
}

func saveToCSV(path string, records []models.Reading) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return writeCSV(file, records)
}

func writeCSV(w io.Writer, records []models.Reading) error {
	writer := csv.NewWriter(w)

	header := []string{"id", "timestamp", "device_id", "temperature", "humidity", "soil_moisture", "alert_status"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			strconv.FormatUint(uint64(r.ID), 10),
			r.Timestamp,
			r.DeviceID,
			strconv.FormatFloat(r.Temperature, 'f', -1, 64),
			strconv.FormatFloat(r.Humidity, 'f', -1, 64),
			strconv.Itoa(r.SoilMoisture),
			r.AlertStatus,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
