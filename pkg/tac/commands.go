// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tac

// Command builder functions create device commands and control reports with the
// correct opcode or action filled in.

// NewStartCommand creates a start/stop command (a='s')
func NewStartCommand(run bool) StartCommand {
	return StartCommand{A: OpStart, Params: run}
}

// NewCalibrateCommand creates a calibration request (a='c').
// CalibrationHigh asks for the 100% reference, CalibrationLow for the 0% reference.
func NewCalibrateCommand(point CalibrationPoint) CalibrateCommand {
	return CalibrateCommand{A: OpCalibrate, Params: int(point)}
}

// NewConfigModeCommand creates a configuration mode toggle (a='g').
// The device must be in configuration mode to accept a ParameterPush.
func NewConfigModeCommand(enabled bool) ConfigModeCommand {
	return ConfigModeCommand{A: OpConfigMode, Params: enabled}
}

// NewParameterPush creates a parameter push (a='p') from a complete set.
// Parameters absent from ps are sent as zero; callers check Complete first.
func NewParameterPush(ps ParameterSet) ParameterPush {
	return ParameterPush{
		A:    OpParameters,
		T:    ps[ParamTargetTemperature],
		U:    ps[ParamTargetTurbidity],
		R:    ps[ParamRefreshRate],
		M:    ps[ParamMotorSpeed],
		TG:   ps[ParamTargetTemperatureGoal],
		UG:   ps[ParamTargetTurbidityGoal],
		RG:   ps[ParamRefreshRateGoal],
		MG:   ps[ParamMotorSpeedGoal],
		P:    ps[ParamP],
		I:    ps[ParamI],
		D:    ps[ParamD],
		Tmin: ps[ParamTmin],
		Tmax: ps[ParamTmax],
	}
}

// NewCalibrationReport creates a report holding only the value for point
func NewCalibrationReport(point CalibrationPoint, value float64) CalibrationReport {
	r := CalibrationReport{Action: ActionCalibrationResult}
	if point == CalibrationHigh {
		r.Turb100 = &value
	} else {
		r.Turb0 = &value
	}
	return r
}

// NewStatusReport creates an actual_values report.
// Setpoints absent from ps are left out of the report.
func NewStatusReport(unixTime int64, ps ParameterSet, turb0, turb100, actualTemp, actualTurb float64) StatusReport {
	return StatusReport{
		Action:                ActionActualValues,
		Time:                  unixTime,
		TargetTemperature:     ps.Lookup(ParamTargetTemperature),
		TargetTurbidity:       ps.Lookup(ParamTargetTurbidity),
		RefreshRate:           ps.Lookup(ParamRefreshRate),
		MotorSpeed:            ps.Lookup(ParamMotorSpeed),
		TargetTemperatureGoal: ps.Lookup(ParamTargetTemperatureGoal),
		TargetTurbidityGoal:   ps.Lookup(ParamTargetTurbidityGoal),
		RefreshRateGoal:       ps.Lookup(ParamRefreshRateGoal),
		MotorSpeedGoal:        ps.Lookup(ParamMotorSpeedGoal),
		Turb0:                 turb0,
		Turb100:               turb100,
		ActualTemperature:     actualTemp,
		ActualTurbidity:       actualTurb,
	}
}
