package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

type Measurement struct {
	DeviceID     string  `json:"device_id"`
	Temperature  float64 `json:"temperature"`
	Humidity     float64 `json:"humidity"`
	SoilMoisture int     `json:"soil_moisture"`
}

type submitResponse struct {
	Status   string `json:"status"`
	Analysis string `json:"analysis"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SensorClient posts readings to the ingest endpoint.
type SensorClient struct {
	client *resty.Client
}

func NewSensorClient(baseURL string) *SensorClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &SensorClient{client: client}
}

// Submit sends one measurement and returns the server's analysis.
func (c *SensorClient) Submit(ctx context.Context, m Measurement) (string, error) {
	var result submitResponse
	var apiErr errorResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(m).
		SetResult(&result).
		SetError(&apiErr).
		Post("/api/sensors")
	if err != nil {
		return "", fmt.Errorf("failed to submit reading: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("server rejected reading (status %d): %s", resp.StatusCode(), apiErr.Error)
	}

	if result.Status != "success" {
		return "", fmt.Errorf("unexpected ingest status %q", result.Status)
	}

	return result.Analysis, nil
}
