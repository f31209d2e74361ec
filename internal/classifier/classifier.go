package classifier

import "strings"

const (
	TempCritical    = "CRITICAL: Temperature too high!"
	TempWarning     = "WARNING: Temperature rising"
	HumidityWarning = "WARNING: High humidity"
	SoilCritical    = "CRITICAL: Soil moisture low - irrigation needed"

	StatusNormal = "Normal"
	Separator    = " | "

	// CriticalMarker is the substring the dashboard looks for to flag a row.
	CriticalMarker = "CRITICAL"
)

// Thresholds
const (
	TempCriticalAbove = 45.0
	TempWarningAbove  = 35.0
	HumidityAbove     = 80.0
	SoilBelow         = 20
)

// Classify maps a reading to its alert status. Messages are always ordered
// temperature, humidity, soil.
func Classify(temperature, humidity float64, soilMoisture int) string {
	var alerts []string

	if temperature > TempCriticalAbove {
		alerts = append(alerts, TempCritical)
	} else if temperature > TempWarningAbove {
		alerts = append(alerts, TempWarning)
	}

	if humidity > HumidityAbove {
		alerts = append(alerts, HumidityWarning)
	}

	if soilMoisture < SoilBelow {
		alerts = append(alerts, SoilCritical)
	}

	if len(alerts) == 0 {
		return StatusNormal
	}
	return strings.Join(alerts, Separator)
}

// IsCritical reports whether a stored status should be highlighted.
func IsCritical(status string) bool {
	return strings.Contains(status, CriticalMarker)
}
