package utils

import (
	"fmt"
	"io"
	"time"

	"agrisense/internal/classifier"
	"agrisense/internal/models"

	"github.com/xuri/excelize/v2"
)

const ReadingsSheet = "Readings"

// CreateExcelFile saves the readings workbook at filepath.
func CreateExcelFile(filepath string, records []models.Reading) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := fillReadingsWorkbook(f, records); err != nil {
		return err
	}
	return f.SaveAs(filepath)
}

// WriteExcel streams the readings workbook to w.
func WriteExcel(w io.Writer, records []models.Reading) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := fillReadingsWorkbook(f, records); err != nil {
		return err
	}
	return f.Write(w)
}

// fillReadingsWorkbook lays readings out on one sheet. Rows with a critical
// status get a red fill.
func fillReadingsWorkbook(f *excelize.File, records []models.Reading) error {
	// Reuse the default sheet so the workbook opens on the data
	if err := f.SetSheetName("Sheet1", ReadingsSheet); err != nil {
		return err
	}

	headers := []string{"ID", "Timestamp", "Device", "Temperature", "Humidity (%)", "Soil Moisture", "Alert Status"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(ReadingsSheet, cell, header); err != nil {
			return err
		}
	}

	criticalStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#FFCCCC"},
			Pattern: 1,
		},
		Font: &excelize.Font{Bold: true, Color: "#9C0006"},
	})
	if err != nil {
		return err
	}

	for rowIdx, record := range records {
		rowNum := rowIdx + 2 // header is row 1

		values := []interface{}{
			record.ID,
			record.Timestamp,
			record.DeviceID,
			record.Temperature,
			record.Humidity,
			record.SoilMoisture,
			record.AlertStatus,
		}
		if err := f.SetSheetRow(ReadingsSheet, fmt.Sprintf("A%d", rowNum), &values); err != nil {
			return err
		}

		if classifier.IsCritical(record.AlertStatus) {
			if err := f.SetCellStyle(ReadingsSheet, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("G%d", rowNum), criticalStyle); err != nil {
				return err
			}
		}
	}

	for i := 1; i <= len(headers); i++ {
		colName, _ := excelize.ColumnNumberToName(i)
		width := 16.0
		if i == len(headers) {
			width = 60
		}
		f.SetColWidth(ReadingsSheet, colName, colName, width)
	}

	createInfoSheet(f, records)

	f.SetActiveSheet(0)

	return nil
}

func createInfoSheet(f *excelize.File, records []models.Reading) {
	f.NewSheet("Info")

	critical := 0
	for _, r := range records {
		if classifier.IsCritical(r.AlertStatus) {
			critical++
		}
	}

	info := [][]interface{}{
		{"Report Generated", time.Now().Format(models.TimestampLayout)},
		{"Total Records", len(records)},
		{"Critical Records", critical},
	}
	if len(records) > 0 {
		info = append(info, []interface{}{"Time Range", fmt.Sprintf("%s to %s",
			records[0].Timestamp, records[len(records)-1].Timestamp)})
	}

	for i, row := range info {
		f.SetSheetRow("Info", fmt.Sprintf("A%d", i+1), &row)
	}
}
