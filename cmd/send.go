// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/tacbridge/internal/config"
	"github.com/Thermoquad/tacbridge/pkg/tac"
)

var (
	sendWatch       time.Duration
	sendTemperature float64
	sendTurbidity   float64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Publish one message to the bridge",
	Long: `Publish a single message on one of the bridge's inbound topics, as the
supervisory controller or the firmware would send it.

Control side:
  send config target_temperature=37 target_turbidity=50 ...
  send calibrate 100
  send start start|stop

Device side (simulating the firmware):
  send actual_values --temperature 36.5 --turbidity 12
  send calibration_result 0 512

With --watch, replies on the outbound topics are printed for the given
duration. Requires the mqtt transport.`,
}

var sendConfigCmd = &cobra.Command{
	Use:   "config name=value...",
	Short: "Send a configuration",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ps, err := parseParameters(args)
		if err != nil {
			return err
		}
		return sendControl(tac.ConfigMessage{Params: ps})
	},
}

var sendCalibrateCmd = &cobra.Command{
	Use:   "calibrate 0|100",
	Short: "Request a calibration point",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid calibration point %q", args[0])
		}
		return sendControl(tac.CalibrateMessage{Value: v})
	},
}

var sendStartCmd = &cobra.Command{
	Use:   "start start|stop",
	Short: "Start or stop the reactor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := parseRun(args[0])
		if err != nil {
			return err
		}
		return sendControl(tac.StartMessage{Run: run})
	},
}

var sendActualValuesCmd = &cobra.Command{
	Use:   "actual_values",
	Short: "Send measured values as the firmware",
	RunE: func(cmd *cobra.Command, args []string) error {
		var av tac.ActualValues
		if cmd.Flags().Changed("temperature") {
			av.Temperature = &sendTemperature
		}
		if cmd.Flags().Changed("turbidity") {
			av.Turbidity = &sendTurbidity
		}
		return sendDevice(av)
	},
}

var sendCalibrationResultCmd = &cobra.Command{
	Use:   "calibration_result 0|100 value",
	Short: "Send a calibration result as the firmware",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var point tac.CalibrationPoint
		switch args[0] {
		case "0":
			point = tac.CalibrationLow
		case "100":
			point = tac.CalibrationHigh
		default:
			return fmt.Errorf("invalid calibration point %q (use 0 or 100)", args[0])
		}
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid value %q", args[1])
		}
		return sendDevice(tac.CalibrationResult{Point: point, Value: v, Valid: true})
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.PersistentFlags().DurationVar(&sendWatch, "watch", 0, "Print outbound messages for this long after sending")

	sendActualValuesCmd.Flags().Float64Var(&sendTemperature, "temperature", 0, "Measured temperature")
	sendActualValuesCmd.Flags().Float64Var(&sendTurbidity, "turbidity", 0, "Measured turbidity")

	sendCmd.AddCommand(sendConfigCmd, sendCalibrateCmd, sendStartCmd, sendActualValuesCmd, sendCalibrationResultCmd)
}

func sendControl(m tac.ControlMessage) error {
	data, err := tac.NewEncoder(tac.JSON).EncodeControl(m)
	if err != nil {
		return err
	}
	fmt.Printf("-> %s\n", tac.FormatControlMessage(m))
	return publishAndWatch(cfg.MQTT.Topics.ControlIn, data)
}

func sendDevice(m tac.DeviceMessage) error {
	codec, err := cfg.DeviceCodec()
	if err != nil {
		return err
	}
	data, err := tac.NewEncoder(codec).EncodeDevice(m)
	if err != nil {
		return err
	}
	fmt.Printf("-> %s\n", tac.FormatDeviceMessage(m))
	return publishAndWatch(cfg.MQTT.Topics.DeviceIn, data)
}

func publishAndWatch(topic string, data []byte) error {
	if cfg.Transport != config.TransportMQTT {
		return fmt.Errorf("send requires the mqtt transport")
	}

	b, connInfo, err := OpenBus(cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()
	fmt.Printf("Connection: %s\n", connInfo)

	if sendWatch > 0 {
		deviceCodec, err := cfg.DeviceCodec()
		if err != nil {
			return err
		}
		t := topics(cfg)
		printer := newRawPrinter(cfg, deviceCodec)
		for _, out := range []string{t.ControlOut, t.DeviceOut} {
			if err := b.Subscribe(out, printer.handle); err != nil {
				return err
			}
		}
	}

	if err := b.Publish(topic, data); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	if sendWatch > 0 {
		time.Sleep(sendWatch)
	}
	return nil
}
