// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tac

// ControlMessage is a decoded message from the control side.
// It is one of ConfigMessage, CalibrateMessage or StartMessage.
type ControlMessage interface {
	Action() string
	controlMessage()
}

// ConfigMessage carries parameters to merge into the parameter store
type ConfigMessage struct {
	Params ParameterSet
}

// CalibrateMessage requests a calibration at the point given by Value.
// Value is kept as received; only 0 and 100 name a calibration point.
type CalibrateMessage struct {
	Value interface{}
}

// StartMessage starts (Run true) or stops the device
type StartMessage struct {
	Run bool
}

func (ConfigMessage) Action() string    { return ActionConfig }
func (CalibrateMessage) Action() string { return ActionCalibrate }
func (StartMessage) Action() string     { return ActionStart }

func (ConfigMessage) controlMessage()    {}
func (CalibrateMessage) controlMessage() {}
func (StartMessage) controlMessage()     {}

// Point returns the requested calibration point.
// Returns false if Value is not 0 or 100. Boolean false counts as 0 and
// true as 1, so only false selects a point.
func (m CalibrateMessage) Point() (CalibrationPoint, bool) {
	v, ok := toNumber(m.Value)
	if !ok {
		return 0, false
	}
	switch v {
	case float64(CalibrationLow):
		return CalibrationLow, true
	case float64(CalibrationHigh):
		return CalibrationHigh, true
	}
	return 0, false
}

// DeviceMessage is a decoded message from the device side.
// It is one of CalibrationResult or ActualValues.
type DeviceMessage interface {
	Action() string
	deviceMessage()
}

// CalibrationResult carries the sensor reading measured at one calibration point.
// Valid is false when the device sent neither turb_0 nor turb_100.
type CalibrationResult struct {
	Point CalibrationPoint
	Value float64
	Valid bool
}

// ActualValues carries the latest measurements. Absent fields are nil.
type ActualValues struct {
	Temperature *float64
	Turbidity   *float64
}

func (CalibrationResult) Action() string { return ActionCalibrationResult }
func (ActualValues) Action() string      { return ActionActualValues }

func (CalibrationResult) deviceMessage() {}
func (ActualValues) deviceMessage()      {}

// DeviceCommand is an outbound message in the compact device schema
type DeviceCommand interface {
	Op() string
}

// StartCommand starts or stops the device: {a:'s', params: bool}
type StartCommand struct {
	A      string `json:"a"`
	Params bool   `json:"params"`
}

// CalibrateCommand requests a calibration point: {a:'c', params: 0|100}
type CalibrateCommand struct {
	A      string `json:"a"`
	Params int    `json:"params"`
}

// ConfigModeCommand enters or leaves configuration mode: {a:'g', params: bool}
type ConfigModeCommand struct {
	A      string `json:"a"`
	Params bool   `json:"params"`
}

// ParameterPush transfers a complete parameter set: {a:'p', t, u, r, m, ...}
type ParameterPush struct {
	A    string  `json:"a"`
	T    float64 `json:"t"`
	U    float64 `json:"u"`
	R    float64 `json:"r"`
	M    float64 `json:"m"`
	TG   float64 `json:"tg"`
	UG   float64 `json:"ug"`
	RG   float64 `json:"rg"`
	MG   float64 `json:"mg"`
	P    float64 `json:"p"`
	I    float64 `json:"i"`
	D    float64 `json:"d"`
	Tmin float64 `json:"Tmin"`
	Tmax float64 `json:"Tmax"`
}

func (c StartCommand) Op() string      { return c.A }
func (c CalibrateCommand) Op() string  { return c.A }
func (c ConfigModeCommand) Op() string { return c.A }
func (c ParameterPush) Op() string     { return c.A }

// Parameters expands the push back into a descriptive parameter set
func (c ParameterPush) Parameters() ParameterSet {
	return ParameterSet{
		ParamTargetTemperature:     c.T,
		ParamTargetTurbidity:       c.U,
		ParamRefreshRate:           c.R,
		ParamMotorSpeed:            c.M,
		ParamTargetTemperatureGoal: c.TG,
		ParamTargetTurbidityGoal:   c.UG,
		ParamRefreshRateGoal:       c.RG,
		ParamMotorSpeedGoal:        c.MG,
		ParamP:                     c.P,
		ParamI:                     c.I,
		ParamD:                     c.D,
		ParamTmin:                  c.Tmin,
		ParamTmax:                  c.Tmax,
	}
}

// ControlReport is an outbound message in the descriptive control schema
type ControlReport interface {
	ReportAction() string
}

// CalibrationReport forwards exactly one calibration value to the control side
type CalibrationReport struct {
	Action  string   `json:"action"`
	Turb0   *float64 `json:"turb_0,omitempty"`
	Turb100 *float64 `json:"turb_100,omitempty"`
}

// StatusReport combines setpoints, calibration and the latest measurements.
// Setpoints that were never configured are omitted.
type StatusReport struct {
	Action                string   `json:"action"`
	Time                  int64    `json:"time"`
	TargetTemperature     *float64 `json:"target_temperature,omitempty"`
	TargetTurbidity       *float64 `json:"target_turbidity,omitempty"`
	RefreshRate           *float64 `json:"refresh_rate,omitempty"`
	MotorSpeed            *float64 `json:"motor_speed,omitempty"`
	TargetTemperatureGoal *float64 `json:"target_temperature_goal,omitempty"`
	TargetTurbidityGoal   *float64 `json:"target_turbidity_goal,omitempty"`
	RefreshRateGoal       *float64 `json:"refresh_rate_goal,omitempty"`
	MotorSpeedGoal        *float64 `json:"motor_speed_goal,omitempty"`
	Turb0                 float64  `json:"turb_0"`
	Turb100               float64  `json:"turb_100"`
	ActualTemperature     float64  `json:"actual_temperature"`
	ActualTurbidity       float64  `json:"actual_turbidity"`
}

func (r CalibrationReport) ReportAction() string { return r.Action }
func (r StatusReport) ReportAction() string      { return r.Action }
