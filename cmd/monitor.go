// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/tacbridge/internal/config"
	"github.com/Thermoquad/tacbridge/pkg/tac"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive TUI for watching and driving the bridge",
	Long: `Watch bridge traffic and reactor state in an interactive terminal UI.

The monitor subscribes to all four bridge topics and shows the latest
actual_values report, calibration values, the last parameter push, and an
event log. Commands typed at the prompt are published as the supervisory
controller would send them:

  start | stop
  cal 0 | cal 100
  set target_temperature=37 motor_speed=40 ...

Requires the mqtt transport.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if cfg.Transport != config.TransportMQTT {
		return fmt.Errorf("monitor requires the mqtt transport")
	}

	deviceCodec, err := cfg.DeviceCodec()
	if err != nil {
		return err
	}

	b, connInfo, err := OpenBus(cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	t := topics(cfg)
	encoder := tac.NewEncoder(tac.JSON)
	send := func(m tac.ControlMessage) error {
		data, err := encoder.EncodeControl(m)
		if err != nil {
			return err
		}
		return b.Publish(t.ControlIn, data)
	}

	m := newMonitorModel(connInfo, routes(cfg), deviceCodec, send)
	p := tea.NewProgram(m, tea.WithAltScreen())

	for _, topic := range []string{t.ControlIn, t.DeviceIn, t.ControlOut, t.DeviceOut} {
		err := b.Subscribe(topic, func(topic string, payload []byte) {
			p.Send(busMsg{topic: topic, payload: payload, at: time.Now()})
		})
		if err != nil {
			return err
		}
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
