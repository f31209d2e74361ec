package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"agrisense/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, ReadingRepository) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return sqlDB, mock, NewReadingRepository(db)
}

func TestAppend_Success(t *testing.T) {
	sqlDB, mock, repo := setupMockDB(t)
	defer sqlDB.Close()

	reading := &models.Reading{
		Timestamp:    "2026-10-19 12:00:00",
		DeviceID:     "node-1",
		Temperature:  24.5,
		Humidity:     55.2,
		SoilMoisture: 41,
		AlertStatus:  "Normal",
	}

	mock.ExpectQuery(`INSERT INTO "readings"`).
		WithArgs("2026-10-19 12:00:00", "node-1", 24.5, 55.2, 41, "Normal").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	id, err := repo.Append(context.Background(), reading)

	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
	assert.Equal(t, uint(7), reading.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_StorageError(t *testing.T) {
	sqlDB, mock, repo := setupMockDB(t)
	defer sqlDB.Close()

	mock.ExpectQuery(`INSERT INTO "readings"`).
		WillReturnError(errors.New("disk full"))

	_, err := repo.Append(context.Background(), &models.Reading{DeviceID: "node-1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatest_NewestFirst(t *testing.T) {
	sqlDB, mock, repo := setupMockDB(t)
	defer sqlDB.Close()

	columns := []string{"id", "timestamp", "device_id", "temperature", "humidity", "soil_moisture", "alert_status"}
	rows := sqlmock.NewRows(columns).
		AddRow(3, "2026-10-19 12:00:03", "node-1", 50.0, 90.0, 5, "CRITICAL: Temperature too high!").
		AddRow(2, "2026-10-19 12:00:02", "node-1", 20.0, 40.0, 30, "Normal")

	mock.ExpectQuery(`SELECT \* FROM "readings" ORDER BY id DESC LIMIT`).
		WillReturnRows(rows)

	readings, err := repo.Latest(context.Background(), 20)

	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, uint(3), readings[0].ID)
	assert.Equal(t, 5, readings[0].SoilMoisture)
	assert.Equal(t, uint(2), readings[1].ID)
	assert.Equal(t, "Normal", readings[1].AlertStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatest_NonPositiveLimitSkipsQuery(t *testing.T) {
	sqlDB, mock, repo := setupMockDB(t)
	defer sqlDB.Close()

	readings, err := repo.Latest(context.Background(), 0)

	require.NoError(t, err)
	assert.Empty(t, readings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatest_QueryError(t *testing.T) {
	sqlDB, mock, repo := setupMockDB(t)
	defer sqlDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "readings"`).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Latest(context.Background(), 20)

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCount(t *testing.T) {
	sqlDB, mock, repo := setupMockDB(t)
	defer sqlDB.Close()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "readings"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.Count(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
