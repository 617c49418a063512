// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tac

import (
	"encoding/json"
	"testing"
)

func completeParameters() ParameterSet {
	ps := DefaultParameters()
	ps.Merge(ParameterSet{
		ParamTargetTemperature:     37,
		ParamTargetTurbidity:       50,
		ParamRefreshRate:           1000,
		ParamMotorSpeed:            40,
		ParamTargetTemperatureGoal: 30,
		ParamTargetTurbidityGoal:   20,
		ParamRefreshRateGoal:       2000,
		ParamMotorSpeedGoal:        10,
	})
	return ps
}

func TestEncodeCommand_JSON(t *testing.T) {
	tests := []struct {
		name string
		cmd  DeviceCommand
		want string
	}{
		{"start", NewStartCommand(true), `{"a":"s","params":true}`},
		{"stop", NewStartCommand(false), `{"a":"s","params":false}`},
		{"calibrate high", NewCalibrateCommand(CalibrationHigh), `{"a":"c","params":100}`},
		{"calibrate low", NewCalibrateCommand(CalibrationLow), `{"a":"c","params":0}`},
		{"config mode on", NewConfigModeCommand(true), `{"a":"g","params":true}`},
		{"config mode off", NewConfigModeCommand(false), `{"a":"g","params":false}`},
		{
			"parameter push",
			NewParameterPush(completeParameters()),
			`{"a":"p","t":37,"u":50,"r":1000,"m":40,"tg":30,"ug":20,"rg":2000,"mg":10,"p":7,"i":1,"d":0,"Tmin":0,"Tmax":55}`,
		},
	}

	enc := NewEncoder(JSON)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := enc.EncodeCommand(tt.cmd)
			if err != nil {
				t.Fatalf("EncodeCommand failed: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("EncodeCommand() = %s, want %s", data, tt.want)
			}
		})
	}
}

func TestEncodeCommand_Nil(t *testing.T) {
	if _, err := NewEncoder(JSON).EncodeCommand(nil); err == nil {
		t.Error("EncodeCommand(nil) should fail")
	}
}

func TestEncodeReport_Calibration(t *testing.T) {
	enc := NewEncoder(JSON)

	data, err := enc.EncodeReport(NewCalibrationReport(CalibrationLow, 0))
	if err != nil {
		t.Fatalf("EncodeReport failed: %v", err)
	}
	if string(data) != `{"action":"calibration_result","turb_0":0}` {
		t.Errorf("EncodeReport(low) = %s", data)
	}

	data, err = enc.EncodeReport(NewCalibrationReport(CalibrationHigh, 812.5))
	if err != nil {
		t.Fatalf("EncodeReport failed: %v", err)
	}
	if string(data) != `{"action":"calibration_result","turb_100":812.5}` {
		t.Errorf("EncodeReport(high) = %s", data)
	}
}

func TestEncodeReport_Status(t *testing.T) {
	enc := NewEncoder(JSON)
	report := NewStatusReport(1700000000, completeParameters(), 10, 900, 36.5, 48)

	data, err := enc.EncodeReport(report)
	if err != nil {
		t.Fatalf("EncodeReport failed: %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}

	want := map[string]float64{
		FieldTime:                  1700000000,
		ParamTargetTemperature:     37,
		ParamTargetTurbidity:       50,
		ParamRefreshRate:           1000,
		ParamMotorSpeed:            40,
		ParamTargetTemperatureGoal: 30,
		ParamTargetTurbidityGoal:   20,
		ParamRefreshRateGoal:       2000,
		ParamMotorSpeedGoal:        10,
		FieldTurb0:                 10,
		FieldTurb100:               900,
		FieldActualTemperature:     36.5,
		FieldActualTurbidity:       48,
	}
	if got[KeyAction] != ActionActualValues {
		t.Errorf("action = %v, want %s", got[KeyAction], ActionActualValues)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %g", k, got[k], v)
		}
	}
	if _, ok := got[ParamP]; ok {
		t.Error("status report should not carry gains")
	}
}

func TestEncodeReport_StatusOmitsUnknownSetpoints(t *testing.T) {
	data, err := NewEncoder(JSON).EncodeReport(NewStatusReport(1, DefaultParameters(), 0, 0, 20, 5))
	if err != nil {
		t.Fatalf("EncodeReport failed: %v", err)
	}
	want := `{"action":"actual_values","time":1,"turb_0":0,"turb_100":0,"actual_temperature":20,"actual_turbidity":5}`
	if string(data) != want {
		t.Errorf("EncodeReport() = %s, want %s", data, want)
	}
}

func TestEncodeControl_RoundTrip(t *testing.T) {
	enc := NewEncoder(JSON)
	dec := NewDecoder(JSON)

	data, err := enc.EncodeControl(ConfigMessage{Params: ParameterSet{ParamMotorSpeed: 55}})
	if err != nil {
		t.Fatalf("EncodeControl failed: %v", err)
	}
	msg, err := dec.DecodeControl(data)
	if err != nil {
		t.Fatalf("DecodeControl failed: %v", err)
	}
	if got := msg.(ConfigMessage).Params[ParamMotorSpeed]; got != 55 {
		t.Errorf("motor_speed = %g, want 55", got)
	}

	data, err = enc.EncodeControl(CalibrateMessage{Value: 100})
	if err != nil {
		t.Fatalf("EncodeControl failed: %v", err)
	}
	msg, err = dec.DecodeControl(data)
	if err != nil {
		t.Fatalf("DecodeControl failed: %v", err)
	}
	if p, ok := msg.(CalibrateMessage).Point(); !ok || p != CalibrationHigh {
		t.Errorf("Point() = %v, %v, want HIGH", p, ok)
	}
}

func TestDeviceCommand_CBORRoundTrip(t *testing.T) {
	enc := NewEncoder(CBOR)
	dec := NewDecoder(CBOR)

	push := NewParameterPush(completeParameters())
	data, err := enc.EncodeCommand(push)
	if err != nil {
		t.Fatalf("EncodeCommand failed: %v", err)
	}

	cmd, err := dec.DecodeDeviceCommand(data)
	if err != nil {
		t.Fatalf("DecodeDeviceCommand failed: %v", err)
	}
	got, ok := cmd.(ParameterPush)
	if !ok {
		t.Fatalf("command type = %T, want ParameterPush", cmd)
	}
	if got != push {
		t.Errorf("decoded push = %+v, want %+v", got, push)
	}

	data, err = enc.EncodeCommand(NewCalibrateCommand(CalibrationHigh))
	if err != nil {
		t.Fatalf("EncodeCommand failed: %v", err)
	}
	cmd, err = dec.DecodeDeviceCommand(data)
	if err != nil {
		t.Fatalf("DecodeDeviceCommand failed: %v", err)
	}
	if c, ok := cmd.(CalibrateCommand); !ok || c.Params != 100 {
		t.Errorf("decoded command = %#v, want calibrate 100", cmd)
	}
}

func TestCodecByName(t *testing.T) {
	for _, name := range []string{"", CodecNameJSON, CodecNameCBOR} {
		if _, err := CodecByName(name); err != nil {
			t.Errorf("CodecByName(%q) failed: %v", name, err)
		}
	}
	if _, err := CodecByName("msgpack"); err == nil {
		t.Error("CodecByName(msgpack) should fail")
	}
}

func TestEncodeDevice(t *testing.T) {
	enc := NewEncoder(JSON)
	temp := 21.5

	tests := []struct {
		name string
		msg  DeviceMessage
		want string
	}{
		{"low point", CalibrationResult{Point: CalibrationLow, Value: 512, Valid: true}, `{"action":"calibration_result","turb_0":512}`},
		{"high point", CalibrationResult{Point: CalibrationHigh, Value: 3, Valid: true}, `{"action":"calibration_result","turb_100":3}`},
		{"no value", CalibrationResult{}, `{"action":"calibration_result"}`},
		{"temperature only", ActualValues{Temperature: &temp}, `{"action":"actual_values","actual_temperature":21.5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := enc.EncodeDevice(tt.msg)
			if err != nil {
				t.Fatalf("EncodeDevice failed: %v", err)
			}
			// encoding/json sorts map keys
			if string(data) != tt.want {
				t.Errorf("EncodeDevice() = %s, want %s", data, tt.want)
			}
		})
	}

	if _, err := enc.EncodeDevice(nil); err == nil {
		t.Error("EncodeDevice(nil) should fail")
	}
}
