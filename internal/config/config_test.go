// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/tacbridge/pkg/tac"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.MQTT.Topics.ControlIn != "Biobot_To_Tac1" || cfg.MQTT.Topics.DeviceOut != "Tac1_To_SerialNode" {
		t.Errorf("default topics = %+v", cfg.MQTT.Topics)
	}
	if cfg.Bridge.PushDelay != 2*time.Second {
		t.Errorf("PushDelay = %s, want 2s", cfg.Bridge.PushDelay)
	}

	ps := cfg.ParameterDefaults()
	if ps[tac.ParamP] != 7 || ps[tac.ParamI] != 1 || ps[tac.ParamD] != 0 || ps[tac.ParamTmin] != 0 || ps[tac.ParamTmax] != 55 {
		t.Errorf("ParameterDefaults() = %v", ps)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "tacbridge.yaml", `
transport: link
serial:
  port: /dev/ttyACM0
  baud: 9600
  encoding: cbor
websocket:
  url: wss://controller.local/ws
  username: admin
  skip_tls_verify: true
mqtt:
  topics:
    control_in: lab/in
bridge:
  push_delay: 1500ms
  defaults:
    tmax: 40
http:
  listen: ":9100"
log:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Transport != TransportLink {
		t.Errorf("Transport = %q", cfg.Transport)
	}
	if cfg.Serial.Port != "/dev/ttyACM0" || cfg.Serial.Baud != 9600 {
		t.Errorf("Serial = %+v", cfg.Serial)
	}
	if !cfg.WebSocket.SkipTLSVerify || cfg.WebSocket.Username != "admin" {
		t.Errorf("WebSocket = %+v", cfg.WebSocket)
	}
	if cfg.MQTT.Topics.ControlIn != "lab/in" || cfg.MQTT.Topics.DeviceIn != tac.TopicDeviceToBridge {
		t.Errorf("Topics = %+v, want control_in overridden and the rest default", cfg.MQTT.Topics)
	}
	if cfg.Bridge.PushDelay != 1500*time.Millisecond {
		t.Errorf("PushDelay = %s", cfg.Bridge.PushDelay)
	}
	if cfg.Bridge.Defaults.Tmax != 40 || cfg.Bridge.Defaults.P != tac.DefaultP {
		t.Errorf("Defaults = %+v", cfg.Bridge.Defaults)
	}
	if cfg.HTTP.Listen != ":9100" {
		t.Errorf("HTTP.Listen = %q", cfg.HTTP.Listen)
	}

	codec, err := cfg.DeviceCodec()
	if err != nil || codec.Name() != tac.CodecNameCBOR {
		t.Errorf("DeviceCodec() = %v, %v", codec, err)
	}
	if level, _ := cfg.LogLevel(); level != slog.LevelDebug {
		t.Errorf("LogLevel() = %v", level)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown key", "transprt: mqtt\n", "transprt"},
		{"bad yaml", "transport: [\n", "parse yaml"},
		{"bad transport", "transport: carrier-pigeon\n", "unknown transport"},
		{"negative delay", "bridge:\n  push_delay: -1s\n", "push_delay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "bad.yaml", tt.content))
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, "empty.yaml", "\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Transport != TransportMQTT {
		t.Errorf("Transport = %q, want default", cfg.Transport)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no broker", func(c *Config) { c.MQTT.Broker = "" }},
		{"qos", func(c *Config) { c.MQTT.QoS = 3 }},
		{"empty topic", func(c *Config) { c.MQTT.Topics.DeviceOut = "" }},
		{"encoding", func(c *Config) { c.Serial.Encoding = "xml" }},
		{"tmin above tmax", func(c *Config) { c.Bridge.Defaults.Tmin = 60 }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"link without url", func(c *Config) { c.Transport = TransportLink }},
		{"link without port", func(c *Config) {
			c.Transport = TransportLink
			c.WebSocket.URL = "ws://x"
			c.Serial.Port = ""
		}},
		{"link bad baud", func(c *Config) {
			c.Transport = TransportLink
			c.WebSocket.URL = "ws://x"
			c.Serial.Baud = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvPassword, "ws-secret")
	t.Setenv(EnvMQTTPassword, "mqtt-secret")
	t.Setenv(EnvBroker, "tcp://broker:1883")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.WebSocket.Password != "ws-secret" || cfg.MQTT.Password != "mqtt-secret" {
		t.Errorf("passwords not taken from environment: %+v %+v", cfg.WebSocket, cfg.MQTT)
	}
	if cfg.MQTT.Broker != "tcp://broker:1883" {
		t.Errorf("Broker = %q", cfg.MQTT.Broker)
	}
	if level, _ := cfg.LogLevel(); level != slog.LevelWarn {
		t.Errorf("LogLevel() = %v", level)
	}
}

func TestLoadEnvFile(t *testing.T) {
	const key = "TACBRIDGE_TEST_DOTENV"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := writeFile(t, ".env", key+"=from-file\n")
	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile failed: %v", err)
	}
	if got := os.Getenv(key); got != "from-file" {
		t.Errorf("%s = %q, want from-file", key, got)
	}

	if err := LoadEnvFile(filepath.Join(t.TempDir(), "none.env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
}
