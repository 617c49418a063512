// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/Thermoquad/tacbridge/internal/bridge"
	"github.com/Thermoquad/tacbridge/internal/bus"
	"github.com/Thermoquad/tacbridge/internal/config"
	"github.com/Thermoquad/tacbridge/internal/link"
	"github.com/Thermoquad/tacbridge/pkg/tac"
)

// topics returns the configured topic names
func topics(c *config.Config) bridge.Topics {
	t := c.MQTT.Topics
	return bridge.Topics{
		ControlIn:  t.ControlIn,
		DeviceIn:   t.DeviceIn,
		ControlOut: t.ControlOut,
		DeviceOut:  t.DeviceOut,
	}
}

// routes maps each configured topic to the message flow it carries
func routes(c *config.Config) map[string]tac.Route {
	t := topics(c)
	return map[string]tac.Route{
		t.ControlIn:  tac.RouteControlToBridge,
		t.DeviceIn:   tac.RouteDeviceToBridge,
		t.ControlOut: tac.RouteBridgeToControl,
		t.DeviceOut:  tac.RouteBridgeToDevice,
	}
}

// OpenBus connects the configured transport.
// Returns the bus and a human-readable description of the connection.
func OpenBus(c *config.Config, log *slog.Logger) (bus.Bus, string, error) {
	switch c.Transport {
	case config.TransportMQTT:
		password := c.MQTT.Password
		if c.MQTT.Username != "" {
			var err error
			password, err = GetPassword(password, "MQTT password")
			if err != nil {
				return nil, "", err
			}
		}

		b, err := bus.NewMQTT(bus.MQTTOptions{
			Broker:         c.MQTT.Broker,
			ClientIDPrefix: c.MQTT.ClientIDPrefix,
			Username:       c.MQTT.Username,
			Password:       password,
			QoS:            c.MQTT.QoS,
			Logger:         log,
		})
		if err != nil {
			return nil, "", err
		}
		return b, fmt.Sprintf("MQTT: %s (qos %d)", c.MQTT.Broker, c.MQTT.QoS), nil

	case config.TransportLink:
		password := c.WebSocket.Password
		if c.WebSocket.Username != "" {
			var err error
			password, err = GetPassword(password, "Password")
			if err != nil {
				return nil, "", err
			}
		}

		framing := link.FramingLines
		if c.Serial.Encoding == tac.CodecNameCBOR {
			framing = link.FramingCBOR
		}

		t := topics(c)
		b, err := bus.NewLink(bus.LinkOptions{
			Control: func() (link.Connection, error) {
				return link.OpenWebSocketConnection(c.WebSocket.URL, c.WebSocket.Username, password, c.WebSocket.SkipTLSVerify)
			},
			ControlIn:  t.ControlIn,
			ControlOut: t.ControlOut,
			Device: func() (link.Connection, error) {
				return link.OpenSerialConnection(c.Serial.Port, c.Serial.Baud, framing)
			},
			DeviceIn:  t.DeviceIn,
			DeviceOut: t.DeviceOut,
			Logger:    log,
		})
		if err != nil {
			return nil, "", err
		}
		return b, fmt.Sprintf("WebSocket: %s | Serial: %s @ %d baud", c.WebSocket.URL, c.Serial.Port, c.Serial.Baud), nil
	}

	return nil, "", fmt.Errorf("unknown transport %q", c.Transport)
}
