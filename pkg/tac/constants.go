// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package tac provides a Go implementation of the Tac1 bioreactor message protocol.
//
// Tac1 sits between a supervisory controller (the control side) and the bioreactor
// firmware (the device side). The control side speaks a descriptive JSON schema with
// full field names; the device side speaks a compact schema keyed by single letters.
// This package provides typed messages for both directions, decoding, encoding,
// limit validation, and human-readable formatting.
package tac

// Default topic names
const (
	TopicControlToBridge = "Biobot_To_Tac1"
	TopicDeviceToBridge  = "SerialNode_To_Tac1"
	TopicBridgeToControl = "Tac1_To_Biobot"
	TopicBridgeToDevice  = "Tac1_To_SerialNode"
)

// Message keys shared by both schemas
const (
	KeyAction = "action"
	KeyParams = "params"
	KeyOp     = "a"
)

// Actions - Control side (Supervisor → Bridge)
const (
	ActionConfig    = "config"
	ActionCalibrate = "calibrate"
	ActionStart     = "start"
)

// Actions - Device side (Firmware → Bridge) and reports (Bridge → Supervisor)
const (
	ActionCalibrationResult = "calibration_result"
	ActionActualValues      = "actual_values"
)

// Device opcodes (Bridge → Firmware), carried in the "a" key
const (
	OpStart      = "s"
	OpCalibrate  = "c"
	OpConfigMode = "g"
	OpParameters = "p"
)

// Parameter names
const (
	ParamTargetTemperature     = "target_temperature"
	ParamTargetTurbidity       = "target_turbidity"
	ParamRefreshRate           = "refresh_rate"
	ParamMotorSpeed            = "motor_speed"
	ParamTargetTemperatureGoal = "target_temperature_goal"
	ParamTargetTurbidityGoal   = "target_turbidity_goal"
	ParamRefreshRateGoal       = "refresh_rate_goal"
	ParamMotorSpeedGoal        = "motor_speed_goal"
	ParamP                     = "P"
	ParamI                     = "I"
	ParamD                     = "D"
	ParamTmin                  = "Tmin"
	ParamTmax                  = "Tmax"
)

// Calibration, telemetry and report field names
const (
	FieldTurb0             = "turb_0"
	FieldTurb100           = "turb_100"
	FieldActualTemperature = "actual_temperature"
	FieldActualTurbidity   = "actual_turbidity"
	FieldTime              = "time"
)

// Physical limits
const (
	TurbidityMin     = 0.0
	TurbidityMax     = 100.0
	MotorSpeedMin    = 0.0
	MotorSpeedMax    = 100.0
	RefreshRateMin   = 100.0   // ms
	RefreshRateLimit = 10000.0 // ms, warn only
)

// Gain and temperature limit defaults
const (
	DefaultP    = 7.0
	DefaultI    = 1.0
	DefaultD    = 0.0
	DefaultTmin = 0.0
	DefaultTmax = 55.0
)

// RequiredParameters lists the parameters that have no default and must all be
// present before a parameter push, in reporting order.
var RequiredParameters = []string{
	ParamTargetTemperature,
	ParamTargetTurbidity,
	ParamRefreshRate,
	ParamMotorSpeed,
	ParamTargetTemperatureGoal,
	ParamTargetTurbidityGoal,
	ParamRefreshRateGoal,
	ParamMotorSpeedGoal,
}

// CalibrationPoint identifies one of the two turbidity reference points
type CalibrationPoint int

// Calibration point values, as carried on the wire
const (
	CalibrationLow  CalibrationPoint = 0
	CalibrationHigh CalibrationPoint = 100
)

// Field returns the calibration value field name for the point
func (c CalibrationPoint) Field() string {
	if c == CalibrationHigh {
		return FieldTurb100
	}
	return FieldTurb0
}

func (c CalibrationPoint) String() string {
	switch c {
	case CalibrationLow:
		return "LOW"
	case CalibrationHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// Channel identifies which side of the bridge a message travels on
type Channel int

// Channel values
const (
	ChannelControl Channel = iota
	ChannelDevice
)

func (c Channel) String() string {
	if c == ChannelDevice {
		return "device"
	}
	return "control"
}

// Route identifies one of the four message flows through the bridge
type Route int

// Route values
const (
	RouteControlToBridge Route = iota
	RouteDeviceToBridge
	RouteBridgeToControl
	RouteBridgeToDevice
)

// DefaultTopic returns the topic name conventionally used for the route
func (r Route) DefaultTopic() string {
	switch r {
	case RouteControlToBridge:
		return TopicControlToBridge
	case RouteDeviceToBridge:
		return TopicDeviceToBridge
	case RouteBridgeToControl:
		return TopicBridgeToControl
	default:
		return TopicBridgeToDevice
	}
}
