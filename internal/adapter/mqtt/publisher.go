package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/sensor-telemetry-service/internal/config"
	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	qos            = 1
	publishTimeout = 5 * time.Second
)

// ErrNotConnected is returned by LoadBatch while the broker connection is down.
var ErrNotConnected = errors.New("mqtt client not connected")

// AlertMessage is the retained per-sensor alert state.
type AlertMessage struct {
	SensorID  string            `json:"sensorId"`
	Level     domain.AlertLevel `json:"level"`
	Color     string            `json:"color"`
	Hex       string            `json:"hex"`
	EmittedAt time.Time         `json:"emittedAt"`
}

// Publisher sends telemetry events to per-sensor MQTT topics.
// It implements pipeline.BatchLoader.
type Publisher struct {
	client paho.Client
	prefix string
	logger *slog.Logger
}

// NewPublisher configures an auto-reconnecting client for MQTT_BROKER_URL.
// Call Connect before the first LoadBatch.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	logger = logger.With("component", "mqtt-publisher")

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.MQTTBrokerURL)
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(5 * time.Second)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)

	opts.SetOnConnectHandler(func(_ paho.Client) {
		logger.Info("mqtt connected", "broker", cfg.MQTTBrokerURL)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	return &Publisher{
		client: paho.NewClient(opts),
		prefix: cfg.MQTTTopicPrefix,
		logger: logger,
	}
}

// Connect waits for the initial broker connection or ctx to end.
func (p *Publisher) Connect(ctx context.Context) error {
	token := p.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// TelemetryTopic returns the topic carrying a sensor's telemetry events.
func (p *Publisher) TelemetryTopic(sensorID string) string {
	return p.prefix + "/" + sensorID + "/telemetry"
}

// AlertTopic returns the retained topic carrying a sensor's current alert.
func (p *Publisher) AlertTopic(sensorID string) string {
	return p.prefix + "/" + sensorID + "/alert"
}

// LoadBatch publishes every event to its telemetry topic and refreshes the
// retained alert topic. It stops at the first failure.
func (p *Publisher) LoadBatch(ctx context.Context, events []domain.TelemetryEvent) error {
	if len(events) == 0 {
		return nil
	}
	if !p.client.IsConnectionOpen() {
		return ErrNotConnected
	}

	for i := range events {
		ev := &events[i]

		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal telemetry: %w", err)
		}
		if err := p.publish(ctx, p.TelemetryTopic(ev.SensorID), false, data); err != nil {
			return err
		}

		alert, err := json.Marshal(AlertMessage{
			SensorID:  ev.SensorID,
			Level:     ev.Alert.Level,
			Color:     ev.Alert.Color,
			Hex:       ev.Alert.Hex,
			EmittedAt: ev.EmittedAt,
		})
		if err != nil {
			return fmt.Errorf("marshal alert: %w", err)
		}
		if err := p.publish(ctx, p.AlertTopic(ev.SensorID), true, alert); err != nil {
			return err
		}
	}

	p.logger.Debug("telemetry published", "sink", "mqtt", "batch_size", len(events))
	return nil
}

func (p *Publisher) publish(ctx context.Context, topic string, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)

	timeout := publishTimeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(dl))
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker, letting in-flight messages drain for 250ms.
func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	p.logger.Info("mqtt disconnected")
	return nil
}
