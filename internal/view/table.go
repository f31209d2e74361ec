package view

import (
	"embed"
	"html/template"

	"agrisense/internal/classifier"
	"agrisense/internal/models"
)

const (
	// WindowSize is how many of the newest readings the dashboard shows.
	WindowSize = 20
	// RefreshSeconds is the client-side auto-refresh interval.
	RefreshSeconds = 3

	DashboardTemplate = "dashboard.tmpl"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

type TableRow struct {
	Timestamp    string
	DeviceID     string
	Temperature  float64
	Humidity     float64
	SoilMoisture int
	AlertStatus  string
	Critical     bool
}

type Page struct {
	Title          string
	RefreshSeconds int
	Rows           []TableRow
}

// OrderForDisplay turns a newest-first window into oldest-first order.
// The input slice is left untouched.
func OrderForDisplay(newestFirst []models.Reading) []models.Reading {
	ordered := make([]models.Reading, len(newestFirst))
	for i, r := range newestFirst {
		ordered[len(newestFirst)-1-i] = r
	}
	return ordered
}

// BuildRows shapes readings into table rows. Highlighting is decided by the
// stored status text, never by re-classifying the numbers.
func BuildRows(readings []models.Reading) []TableRow {
	rows := make([]TableRow, 0, len(readings))
	for _, r := range readings {
		rows = append(rows, TableRow{
			Timestamp:    r.Timestamp,
			DeviceID:     r.DeviceID,
			Temperature:  r.Temperature,
			Humidity:     r.Humidity,
			SoilMoisture: r.SoilMoisture,
			AlertStatus:  r.AlertStatus,
			Critical:     classifier.IsCritical(r.AlertStatus),
		})
	}
	return rows
}

func NewPage(newestFirst []models.Reading, refreshSeconds int) Page {
	return Page{
		Title:          "Field Sensor Dashboard",
		RefreshSeconds: refreshSeconds,
		Rows:           BuildRows(OrderForDisplay(newestFirst)),
	}
}

func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templatesFS, "templates/*.tmpl"))
}
