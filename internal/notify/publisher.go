// Package notify publishes device alerts to an MQTT broker.
package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultPublishTimeout = 5 * time.Second
	defaultKeepAlive      = 30 * time.Second
	disconnectQuiesceMs   = 250
)

var (
	ErrConnectionFailed = errors.New("mqtt connection failed")
	ErrNotConnected     = errors.New("mqtt client not connected")
	ErrPublishFailed    = errors.New("mqtt publish failed")
)

// Config describes the broker connection. An empty BrokerURL disables
// publishing.
type Config struct {
	BrokerURL   string
	ClientID    string
	TopicPrefix string
	QoS         byte
}

// LowBatteryAlert is the JSON payload published for a smartwatch running low.
type LowBatteryAlert struct {
	DeviceID     string    `json:"device_id"`
	BatteryLevel int       `json:"battery_level"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}

// Publisher sends alerts to "<prefix>/devices/<id>/alerts/low_battery".
type Publisher struct {
	client pahomqtt.Client
	cfg    Config
}

// Connect dials the broker and waits up to defaultConnectTimeout for the
// session to come up.
func Connect(cfg Config) (*Publisher, error) {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		log.Printf("[MQTT] Connection lost: %v", err)
	})
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		log.Printf("[MQTT] Connected to %s", cfg.BrokerURL)
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return NewPublisher(client, cfg), nil
}

// NewPublisher wraps an existing client.
func NewPublisher(client pahomqtt.Client, cfg Config) *Publisher {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "devicecatalog"
	}
	return &Publisher{client: client, cfg: cfg}
}

// LowBatteryTopic returns the topic alerts for deviceID are published on.
func (p *Publisher) LowBatteryTopic(deviceID string) string {
	return fmt.Sprintf("%s/devices/%s/alerts/low_battery", strings.TrimSuffix(p.cfg.TopicPrefix, "/"), deviceID)
}

// PublishLowBattery publishes a non-retained low battery alert.
func (p *Publisher) PublishLowBattery(deviceID string, level int) error {
	if p.client == nil || !p.client.IsConnected() {
		return ErrNotConnected
	}

	payload, err := json.Marshal(LowBatteryAlert{
		DeviceID:     deviceID,
		BatteryLevel: level,
		Message:      fmt.Sprintf("Battery level is low. Current level is: %d%%", level),
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	token := p.client.Publish(p.LowBatteryTopic(deviceID), p.cfg.QoS, false, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	if p.client == nil {
		return nil
	}
	if p.client.IsConnected() {
		p.client.Disconnect(disconnectQuiesceMs)
	}
	return nil
}
