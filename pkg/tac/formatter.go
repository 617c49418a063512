// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tac

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// FormatOp returns the human-readable name for a device opcode
func FormatOp(op string) string {
	switch op {
	case OpStart:
		return "START"
	case OpCalibrate:
		return "CALIBRATE"
	case OpConfigMode:
		return "CONFIG_MODE"
	case OpParameters:
		return "PARAMETERS"
	default:
		return "UNKNOWN"
	}
}

// FormatAction returns the human-readable name for an action
func FormatAction(action string) string {
	switch action {
	case ActionConfig:
		return "CONFIG"
	case ActionCalibrate:
		return "CALIBRATE"
	case ActionStart:
		return "START"
	case ActionCalibrationResult:
		return "CALIBRATION_RESULT"
	case ActionActualValues:
		return "ACTUAL_VALUES"
	default:
		return "UNKNOWN"
	}
}

// FormatDeviceCommand formats a device-bound command into a single line
func FormatDeviceCommand(c DeviceCommand) string {
	name := FormatOp(c.Op())
	switch cmd := c.(type) {
	case StartCommand:
		if cmd.Params {
			return name + " run"
		}
		return name + " stop"
	case CalibrateCommand:
		return fmt.Sprintf("%s point=%d (%s)", name, cmd.Params, CalibrationPoint(cmd.Params))
	case ConfigModeCommand:
		if cmd.Params {
			return name + " enter"
		}
		return name + " leave"
	case ParameterPush:
		return fmt.Sprintf("%s T=%g (goal %g) U=%g (goal %g) R=%g (goal %g) M=%g (goal %g) P=%g I=%g D=%g Tmin=%g Tmax=%g",
			name, cmd.T, cmd.TG, cmd.U, cmd.UG, cmd.R, cmd.RG, cmd.M, cmd.MG, cmd.P, cmd.I, cmd.D, cmd.Tmin, cmd.Tmax)
	}
	return name
}

// FormatControlReport formats a control-bound report into a single line
func FormatControlReport(r ControlReport) string {
	name := FormatAction(r.ReportAction())
	switch rep := r.(type) {
	case CalibrationReport:
		switch {
		case rep.Turb0 != nil:
			return fmt.Sprintf("%s %s=%g", name, FieldTurb0, *rep.Turb0)
		case rep.Turb100 != nil:
			return fmt.Sprintf("%s %s=%g", name, FieldTurb100, *rep.Turb100)
		}
		return name + " (empty)"
	case StatusReport:
		return fmt.Sprintf("%s time=%d temp=%g/%s turb=%g/%s calib=[%g, %g]",
			name, rep.Time,
			rep.ActualTemperature, formatOptional(rep.TargetTemperature),
			rep.ActualTurbidity, formatOptional(rep.TargetTurbidity),
			rep.Turb0, rep.Turb100)
	}
	return name
}

// FormatControlMessage formats an inbound control request into a single line
func FormatControlMessage(m ControlMessage) string {
	name := FormatAction(m.Action())
	switch msg := m.(type) {
	case ConfigMessage:
		return name + " " + FormatParameters(msg.Params)
	case CalibrateMessage:
		return fmt.Sprintf("%s point=%v", name, msg.Value)
	case StartMessage:
		return fmt.Sprintf("%s run=%t", name, msg.Run)
	}
	return name
}

// FormatDeviceMessage formats an inbound device message into a single line
func FormatDeviceMessage(m DeviceMessage) string {
	name := FormatAction(m.Action())
	switch msg := m.(type) {
	case CalibrationResult:
		if !msg.Valid {
			return name + " (empty)"
		}
		return fmt.Sprintf("%s %s=%g", name, msg.Point.Field(), msg.Value)
	case ActualValues:
		return fmt.Sprintf("%s temp=%s turb=%s", name, formatOptional(msg.Temperature), formatOptional(msg.Turbidity))
	}
	return name
}

// FormatParameters formats a parameter set as sorted key=value pairs
func FormatParameters(ps ParameterSet) string {
	parts := make([]string, 0, len(ps))
	for _, k := range ps.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%g", k, ps[k]))
	}
	return strings.Join(parts, " ")
}

// FormatRaw formats any message seen on a topic, falling back to a generic dump
// when the payload does not decode as a known message for the route.
func FormatRaw(topic string, route Route, data []byte, d *Decoder, ts time.Time) string {
	timestamp := ts.Format("15:04:05.000")
	result := fmt.Sprintf("[%s] %-20s ", timestamp, topic)

	var line string
	switch route {
	case RouteControlToBridge:
		if m, err := d.DecodeControl(data); err == nil {
			line = FormatControlMessage(m)
		}
	case RouteDeviceToBridge:
		if m, err := d.DecodeDevice(data); err == nil {
			line = FormatDeviceMessage(m)
		}
	case RouteBridgeToDevice:
		if c, err := d.DecodeDeviceCommand(data); err == nil {
			line = FormatDeviceCommand(c)
		}
	case RouteBridgeToControl:
		if r, err := d.DecodeControlReport(data); err == nil {
			line = FormatControlReport(r)
		}
	}
	if line == "" {
		line = formatGeneric(data, d)
	}
	return result + line + "\n"
}

// formatGeneric dumps a payload as sorted key=value pairs, or as hex if it is not
// an object at all
func formatGeneric(data []byte, d *Decoder) string {
	obj, err := d.DecodeObject(data)
	if err != nil {
		var hex strings.Builder
		hex.WriteString("RAW ")
		for i, b := range data {
			if i > 0 && i%16 == 0 {
				hex.WriteString("\n    ")
			}
			fmt.Fprintf(&hex, "%02X ", b)
		}
		return strings.TrimRight(hex.String(), " ")
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, obj[k]))
	}
	return "? " + strings.Join(parts, " ")
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}
