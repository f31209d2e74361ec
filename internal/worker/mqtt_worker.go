package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agrisense/internal/models"
	"agrisense/internal/service"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

type MQTTConfig struct {
	Broker   string
	ClientID string
	Topic    string
	Username string
	Password string
	// RetryInterval paces connection attempts while the broker is unreachable.
	RetryInterval time.Duration
}

const DefaultMQTTRetryInterval = 5 * time.Second

// MQTTWorker ingests readings published on a topic. Payloads use the same
// JSON shape as POST /api/sensors; the analysis is published to <topic>/analysis.
type MQTTWorker struct {
	client  mqtt.Client
	topic   string
	service service.ReadingService
	logger  *zap.Logger
}

type analysisMessage struct {
	Status   string `json:"status"`
	DeviceID string `json:"device_id"`
	Analysis string `json:"analysis"`
}

func clientOptions(cfg MQTTConfig) *mqtt.ClientOptions {
	retry := cfg.RetryInterval
	if retry <= 0 {
		retry = DefaultMQTTRetryInterval
	}

	// ConnectRetry covers the first connection, AutoReconnect the later ones.
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(retry).
		SetCleanSession(true).
		SetConnectTimeout(10 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	return opts
}

func NewMQTTWorker(cfg MQTTConfig, service service.ReadingService, logger *zap.Logger) *MQTTWorker {
	opts := clientOptions(cfg)

	w := &MQTTWorker{
		topic:   cfg.Topic,
		service: service,
		logger:  logger,
	}
	// resubscribe after every (re)connect
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		if token := c.Subscribe(w.topic, 1, w.onMessage); token.Wait() && token.Error() != nil {
			w.logger.Error("MQTT subscribe failed", zap.String("topic", w.topic), zap.Error(token.Error()))
			return
		}
		w.logger.Info("Listening for readings", zap.String("topic", w.topic))
	})
	w.client = mqtt.NewClient(opts)

	return w
}

func (w *MQTTWorker) Name() string {
	return "mqtt"
}

// Start returns immediately; the client keeps retrying until the broker
// accepts the connection or Stop is called.
func (w *MQTTWorker) Start() {
	token := w.client.Connect()
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			w.logger.Error("MQTT connection failed", zap.Error(err))
		}
	}()
}

func (w *MQTTWorker) Stop() {
	if w.client.IsConnected() {
		w.client.Unsubscribe(w.topic).WaitTimeout(time.Second)
	}
	// also aborts a pending connect retry loop
	w.client.Disconnect(250)
}

func (w *MQTTWorker) onMessage(client mqtt.Client, msg mqtt.Message) {
	reading, err := w.HandleMessage(msg.Payload())
	if err != nil {
		w.logger.Warn("MQTT reading rejected", zap.String("topic", msg.Topic()), zap.Error(err))
		return
	}

	ack, _ := json.Marshal(analysisMessage{
		Status:   "success",
		DeviceID: reading.DeviceID,
		Analysis: reading.AlertStatus,
	})
	client.Publish(w.topic+"/analysis", 0, false, ack)
}

// HandleMessage decodes and ingests one payload.
func (w *MQTTWorker) HandleMessage(payload []byte) (*models.Reading, error) {
	var input models.ReadingInput
	if err := json.Unmarshal(payload, &input); err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrInvalidReading, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return w.service.Ingest(ctx, input)
}
