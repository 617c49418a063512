// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/tacbridge/internal/config"
)

var (
	configPath string
	envFile    string
	logLevel   string
	transport  string

	// MQTT flags
	brokerURL string

	// Serial connection flags
	portName string
	baudRate int
	encoding string

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool
)

// Loaded by the root command before any subcommand runs
var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tacbridge",
	Short: "Tac1 bioreactor protocol bridge",
	Long: `Tacbridge - Protocol bridge between a supervisory controller and the Tac1
bioreactor firmware.

The bridge receives configuration, calibration and run commands from the
supervisory controller, clamps parameters to the physical limits of the
reactor, and relays them to the firmware in its compact wire format. Device
telemetry and calibration results are relayed back in the descriptive format.

Transports:
  MQTT: --broker tcp://host:1883   (all four topics on one broker)
  Link: --url ws://host/path --port /dev/ttyUSB0
        (control side over WebSocket, device side over serial)

Giving --url or --port without --transport selects the link transport.

Passwords are never taken from flags. The WebSocket password is read from
TACBRIDGE_PASSWORD and the broker password from TACBRIDGE_MQTT_PASSWORD; both
may be set in a .env file. If a username is set without a password, the
password is prompted for interactively.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before the configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", "", "Transport: mqtt or link")

	// MQTT flags
	rootCmd.PersistentFlags().StringVar(&brokerURL, "broker", "", "MQTT broker URL")

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")
	rootCmd.PersistentFlags().StringVar(&encoding, "encoding", "", "Device wire encoding: json or cbor")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for broker or HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
}

// loadConfig reads the configuration file and environment, applies flag
// overrides and sets up logging
func loadConfig(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}

	c, err := config.Read(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, c)
	if err := c.Validate(); err != nil {
		return err
	}

	level, _ := c.LogLevel()
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg = c
	return nil
}

// applyFlags copies explicitly set flags over the loaded configuration
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("transport") {
		c.Transport = transport
	} else if flags.Changed("url") || flags.Changed("port") {
		c.Transport = config.TransportLink
	}
	if flags.Changed("log-level") {
		c.Log.Level = logLevel
	}
	if flags.Changed("broker") {
		c.MQTT.Broker = brokerURL
	}
	if flags.Changed("port") {
		c.Serial.Port = portName
	}
	if flags.Changed("baud") {
		c.Serial.Baud = baudRate
	}
	if flags.Changed("encoding") {
		c.Serial.Encoding = encoding
	}
	if flags.Changed("url") {
		c.WebSocket.URL = wsURL
	}
	if flags.Changed("no-ssl-verify") {
		c.WebSocket.SkipTLSVerify = wsNoSSLVerify
	}
	if flags.Changed("username") {
		if c.Transport == config.TransportMQTT {
			c.MQTT.Username = wsUsername
		} else {
			c.WebSocket.Username = wsUsername
		}
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
