// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads the bridge configuration from a YAML file, an optional
// .env file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Thermoquad/tacbridge/pkg/tac"
)

// Transport names
const (
	TransportMQTT = "mqtt" // all four topics on an MQTT broker
	TransportLink = "link" // control over WebSocket, device over serial
)

// Environment variables read after the file
const (
	EnvPassword     = "TACBRIDGE_PASSWORD"
	EnvMQTTPassword = "TACBRIDGE_MQTT_PASSWORD"
	EnvBroker       = "TACBRIDGE_BROKER"
	EnvLogLevel     = "TACBRIDGE_LOG_LEVEL"
)

// Config is the root configuration
type Config struct {
	Transport string    `yaml:"transport"`
	MQTT      MQTT      `yaml:"mqtt"`
	Serial    Serial    `yaml:"serial"`
	WebSocket WebSocket `yaml:"websocket"`
	Bridge    Bridge    `yaml:"bridge"`
	HTTP      HTTP      `yaml:"http"`
	Log       Log       `yaml:"log"`
}

// MQTT configures the broker connection
type MQTT struct {
	Broker         string `yaml:"broker"`
	ClientIDPrefix string `yaml:"client_id_prefix"`
	Username       string `yaml:"username"`
	Password       string `yaml:"-"` // environment only
	QoS            byte   `yaml:"qos"`
	Topics         Topics `yaml:"topics"`
}

// Topics names the four message flows. Used by every transport.
type Topics struct {
	ControlIn  string `yaml:"control_in"`
	DeviceIn   string `yaml:"device_in"`
	ControlOut string `yaml:"control_out"`
	DeviceOut  string `yaml:"device_out"`
}

// Serial configures the link to the firmware controller
type Serial struct {
	Port     string `yaml:"port"`
	Baud     int    `yaml:"baud"`
	Encoding string `yaml:"encoding"` // json | cbor
}

// WebSocket configures the link to the supervisory controller
type WebSocket struct {
	URL           string `yaml:"url"`
	Username      string `yaml:"username"`
	Password      string `yaml:"-"` // environment or prompt only
	SkipTLSVerify bool   `yaml:"skip_tls_verify"`
}

// Bridge configures the push handshake and parameter defaults
type Bridge struct {
	PushDelay time.Duration `yaml:"push_delay"`
	Defaults  Defaults      `yaml:"defaults"`
}

// Defaults are the gain and temperature limit values used until the control
// side sends its own
type Defaults struct {
	P    float64 `yaml:"p"`
	I    float64 `yaml:"i"`
	D    float64 `yaml:"d"`
	Tmin float64 `yaml:"tmin"`
	Tmax float64 `yaml:"tmax"`
}

// HTTP configures the status and metrics server. An empty listen address
// disables it.
type HTTP struct {
	Listen string `yaml:"listen"`
}

// Log configures logging
type Log struct {
	Level string `yaml:"level"`
}

// Default returns a configuration that runs against a local broker
func Default() *Config {
	return &Config{
		Transport: TransportMQTT,
		MQTT: MQTT{
			Broker:         "tcp://localhost:1883",
			ClientIDPrefix: "tacbridge",
			QoS:            1,
			Topics: Topics{
				ControlIn:  tac.TopicControlToBridge,
				DeviceIn:   tac.TopicDeviceToBridge,
				ControlOut: tac.TopicBridgeToControl,
				DeviceOut:  tac.TopicBridgeToDevice,
			},
		},
		Serial: Serial{
			Port:     "/dev/ttyUSB0",
			Baud:     115200,
			Encoding: tac.CodecNameJSON,
		},
		Bridge: Bridge{
			PushDelay: 2 * time.Second,
			Defaults: Defaults{
				P:    tac.DefaultP,
				I:    tac.DefaultI,
				D:    tac.DefaultD,
				Tmin: tac.DefaultTmin,
				Tmax: tac.DefaultTmax,
			},
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path uses the defaults only.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for callers that apply further overrides
func Read(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := cfg.Decode(f); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// Decode reads YAML from r into cfg. Unknown keys are rejected.
func (cfg *Config) Decode(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// LoadEnvFile loads variables from a .env file without overriding ones that
// are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides secrets and a few common settings from the environment
func (cfg *Config) ApplyEnv() {
	if val := os.Getenv(EnvPassword); val != "" {
		cfg.WebSocket.Password = val
	}
	if val := os.Getenv(EnvMQTTPassword); val != "" {
		cfg.MQTT.Password = val
	}
	if val := os.Getenv(EnvBroker); val != "" {
		cfg.MQTT.Broker = val
	}
	if val := os.Getenv(EnvLogLevel); val != "" {
		cfg.Log.Level = val
	}
}

// Validate reports the first configuration problem found
func (cfg *Config) Validate() error {
	switch cfg.Transport {
	case TransportMQTT:
		if cfg.MQTT.Broker == "" {
			return errors.New("mqtt.broker is required")
		}
		if cfg.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", cfg.MQTT.QoS)
		}
	case TransportLink:
		if cfg.Serial.Port == "" {
			return errors.New("serial.port is required")
		}
		if cfg.Serial.Baud <= 0 {
			return fmt.Errorf("serial.baud must be positive, got %d", cfg.Serial.Baud)
		}
		if cfg.WebSocket.URL == "" {
			return errors.New("websocket.url is required")
		}
	default:
		return fmt.Errorf("unknown transport %q (use %s or %s)", cfg.Transport, TransportMQTT, TransportLink)
	}

	t := cfg.MQTT.Topics
	for name, topic := range map[string]string{
		"control_in":  t.ControlIn,
		"device_in":   t.DeviceIn,
		"control_out": t.ControlOut,
		"device_out":  t.DeviceOut,
	} {
		if topic == "" {
			return fmt.Errorf("mqtt.topics.%s is empty", name)
		}
	}

	if _, err := tac.CodecByName(cfg.Serial.Encoding); err != nil {
		return fmt.Errorf("serial.encoding: %w", err)
	}
	if cfg.Bridge.PushDelay < 0 {
		return fmt.Errorf("bridge.push_delay must not be negative, got %s", cfg.Bridge.PushDelay)
	}
	if d := cfg.Bridge.Defaults; d.Tmin > d.Tmax {
		return fmt.Errorf("bridge.defaults: tmin %g is above tmax %g", d.Tmin, d.Tmax)
	}
	if _, err := cfg.LogLevel(); err != nil {
		return err
	}
	return nil
}

// DeviceCodec returns the codec selected for the device side
func (cfg *Config) DeviceCodec() (tac.Codec, error) {
	return tac.CodecByName(cfg.Serial.Encoding)
}

// ParameterDefaults returns the configured defaults as a parameter set
func (cfg *Config) ParameterDefaults() tac.ParameterSet {
	d := cfg.Bridge.Defaults
	return tac.ParameterSet{
		tac.ParamP:    d.P,
		tac.ParamI:    d.I,
		tac.ParamD:    d.D,
		tac.ParamTmin: d.Tmin,
		tac.ParamTmax: d.Tmax,
	}
}

// LogLevel parses the configured log level
func (cfg *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(cfg.Log.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
