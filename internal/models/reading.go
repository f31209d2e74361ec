package models

// TimestampLayout is the second-precision format of Reading.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// Reading is one stored sensor submission. Rows are append-only.
type Reading struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp    string  `gorm:"type:text;not null" json:"timestamp"`
	DeviceID     string  `gorm:"type:text;not null" json:"device_id"`
	Temperature  float64 `gorm:"type:double precision;not null" json:"temperature"`
	Humidity     float64 `gorm:"type:double precision;not null" json:"humidity"`
	SoilMoisture int     `gorm:"type:integer;not null" json:"soil_moisture"`
	AlertStatus  string  `gorm:"type:text;not null" json:"alert_status"`
}

func (Reading) TableName() string {
	return "readings"
}

// ReadingInput is the ingest payload shared by HTTP and MQTT. Pointer fields
// let zero values through while still rejecting missing keys.
type ReadingInput struct {
	DeviceID     *string  `json:"device_id" binding:"required"`
	Temperature  *float64 `json:"temperature" binding:"required"`
	Humidity     *float64 `json:"humidity" binding:"required"`
	SoilMoisture *int     `json:"soil_moisture" binding:"required"`
}
