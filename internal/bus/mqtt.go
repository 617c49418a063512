// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// MQTTOptions configures an MQTT bus
type MQTTOptions struct {
	Broker         string // tcp://host:1883, ssl://host:8883, ws://host/mqtt
	ClientIDPrefix string
	Username       string
	Password       string
	QoS            byte
	ConnectTimeout time.Duration
	Logger         *slog.Logger
}

// MQTT carries topics over an MQTT broker.
// Subscriptions are restored automatically after a reconnect.
type MQTT struct {
	client  mqtt.Client
	qos     byte
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	subs   map[string]Handler
	closed bool
}

// ClientID builds a unique client id from prefix
func ClientID(prefix string) string {
	if prefix == "" {
		prefix = "tacbridge"
	}
	return prefix + "-" + uuid.NewString()
}

// NewMQTT connects to the broker and returns the bus
func NewMQTT(opts MQTTOptions) (*MQTT, error) {
	if opts.Broker == "" {
		return nil, errors.New("mqtt: broker address required")
	}
	if opts.QoS > 2 {
		return nil, fmt.Errorf("mqtt: invalid qos %d", opts.QoS)
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &MQTT{
		qos:     opts.QoS,
		timeout: opts.ConnectTimeout,
		logger:  logger.With("broker", opts.Broker),
		subs:    make(map[string]Handler),
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(ClientID(opts.ClientIDPrefix)).
		SetCleanSession(true).
		SetOrderMatters(true).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(30 * time.Second).
		SetConnectTimeout(opts.ConnectTimeout).
		SetOnConnectHandler(m.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			m.logger.Warn("mqtt connection lost", "error", err)
		})
	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
		clientOpts.SetPassword(opts.Password)
	}

	m.client = mqtt.NewClient(clientOpts)
	token := m.client.Connect()
	if !token.WaitTimeout(opts.ConnectTimeout) {
		return nil, fmt.Errorf("mqtt: connect to %s timed out", opts.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect to %s: %w", opts.Broker, err)
	}
	return m, nil
}

// onConnect restores every subscription after a (re)connect
func (m *MQTT) onConnect(c mqtt.Client) {
	m.mu.Lock()
	subs := make(map[string]Handler, len(m.subs))
	for topic, h := range m.subs {
		subs[topic] = h
	}
	m.mu.Unlock()

	m.logger.Info("mqtt connected", "subscriptions", len(subs))
	for topic, h := range subs {
		if err := m.subscribe(topic, h); err != nil {
			m.logger.Error("mqtt resubscribe failed", "topic", topic, "error", err)
		}
	}
}

func (m *MQTT) subscribe(topic string, h Handler) error {
	token := m.client.Subscribe(topic, m.qos, func(_ mqtt.Client, msg mqtt.Message) {
		h(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(m.timeout) {
		return fmt.Errorf("mqtt: subscribe %s timed out", topic)
	}
	return token.Error()
}

// Publish sends payload to topic and waits for the broker to accept it
func (m *MQTT) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return ErrClosed
	}

	token := m.client.Publish(topic, m.qos, false, payload)
	if !token.WaitTimeout(m.timeout) {
		return fmt.Errorf("mqtt: publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers h for topic. One handler per topic; a later call replaces it.
func (m *MQTT) Subscribe(topic string, h Handler) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.subs[topic] = h
	m.mu.Unlock()

	if !m.client.IsConnectionOpen() {
		// onConnect subscribes once the link is back
		return nil
	}
	return m.subscribe(topic, h)
}

// Close disconnects from the broker
func (m *MQTT) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.client.Disconnect(250)
	return nil
}
