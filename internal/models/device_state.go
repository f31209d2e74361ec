package models

// DeviceState is the hot per-device snapshot kept in the cache.
type DeviceState struct {
	DeviceID    string  `json:"device_id"`
	LastReading Reading `json:"last_reading"`
	Readings    int64   `json:"readings"`
}
