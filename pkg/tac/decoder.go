// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tac

import (
	"fmt"
)

// Decoder turns raw inbound bytes into typed messages.
// All presence and type checks happen here so the bridge only sees valid variants.
type Decoder struct {
	codec Codec
}

// NewDecoder creates a decoder for the given codec (JSON if nil)
func NewDecoder(codec Codec) *Decoder {
	if codec == nil {
		codec = JSON
	}
	return &Decoder{codec: codec}
}

// Codec returns the decoder's codec
func (d *Decoder) Codec() Codec {
	return d.codec
}

// DecodeObject decodes data into a generic key/value map
func (d *Decoder) DecodeObject(data []byte) (map[string]interface{}, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformed)
	}
	var obj map[string]interface{}
	if err := d.codec.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: expected an object", ErrMalformed)
	}
	return obj, nil
}

// actionOf returns the value of the action key.
// A present but non-string action is reported as unknown.
func actionOf(obj map[string]interface{}, key string) (string, error) {
	v, ok := obj[key]
	if !ok {
		return "", ErrMissingAction
	}
	action, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %v", ErrUnknownAction, v)
	}
	return action, nil
}

// DecodeControl decodes a message received from the control side
func (d *Decoder) DecodeControl(data []byte) (ControlMessage, error) {
	obj, err := d.DecodeObject(data)
	if err != nil {
		return nil, err
	}

	action, err := actionOf(obj, KeyAction)
	if err != nil {
		return nil, err
	}

	switch action {
	case ActionConfig, ActionCalibrate, ActionStart:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	params, ok := obj[KeyParams]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingParams, action)
	}

	switch action {
	case ActionConfig:
		ps, err := decodeParameterSet(params)
		if err != nil {
			return nil, err
		}
		return ConfigMessage{Params: ps}, nil

	case ActionCalibrate:
		return CalibrateMessage{Value: params}, nil

	default:
		// Anything other than true (or 1) stops the device
		return StartMessage{Run: isTrue(params)}, nil
	}
}

// decodeParameterSet converts a config params object into a ParameterSet.
// Booleans count as 1 and 0. One entry that is neither invalidates the whole set.
func decodeParameterSet(params interface{}) (ParameterSet, error) {
	var obj map[string]interface{}
	switch v := params.(type) {
	case map[string]interface{}:
		obj = v
	case map[interface{}]interface{}:
		obj = make(map[string]interface{}, len(v))
		for key, val := range v {
			k, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("%w: expected string parameter name, got %T", ErrInvalidParams, key)
			}
			obj[k] = val
		}
	default:
		return nil, fmt.Errorf("%w: config params must be an object, got %T", ErrInvalidParams, params)
	}

	ps := make(ParameterSet, len(obj))
	for name, raw := range obj {
		v, ok := toNumber(raw)
		if !ok {
			return nil, fmt.Errorf("%w: parameter %q is not numeric (%v)", ErrInvalidParams, name, raw)
		}
		ps[name] = v
	}
	return ps, nil
}

// DecodeDevice decodes a message received from the device side
func (d *Decoder) DecodeDevice(data []byte) (DeviceMessage, error) {
	obj, err := d.DecodeObject(data)
	if err != nil {
		return nil, err
	}

	action, err := actionOf(obj, KeyAction)
	if err != nil {
		return nil, err
	}

	switch action {
	case ActionCalibrationResult:
		// turb_0 wins if a device ever sends both
		for _, point := range []CalibrationPoint{CalibrationLow, CalibrationHigh} {
			raw, ok := obj[point.Field()]
			if !ok {
				continue
			}
			v, ok := toFloat(raw)
			if !ok {
				return nil, fmt.Errorf("%w: %s is not numeric (%v)", ErrInvalidParams, point.Field(), raw)
			}
			return CalibrationResult{Point: point, Value: v, Valid: true}, nil
		}
		return CalibrationResult{}, nil

	case ActionActualValues:
		var av ActualValues
		for _, field := range []struct {
			name string
			dst  **float64
		}{
			{FieldActualTemperature, &av.Temperature},
			{FieldActualTurbidity, &av.Turbidity},
		} {
			raw, ok := obj[field.name]
			if !ok {
				continue
			}
			v, ok := toFloat(raw)
			if !ok {
				return nil, fmt.Errorf("%w: %s is not numeric (%v)", ErrInvalidParams, field.name, raw)
			}
			*field.dst = &v
		}
		return av, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// DecodeDeviceCommand decodes a message the bridge sent to the device.
// Used by monitoring tools observing the device-bound topic.
func (d *Decoder) DecodeDeviceCommand(data []byte) (DeviceCommand, error) {
	obj, err := d.DecodeObject(data)
	if err != nil {
		return nil, err
	}
	op, err := actionOf(obj, KeyOp)
	if err != nil {
		return nil, err
	}

	var cmd DeviceCommand
	switch op {
	case OpStart:
		var c StartCommand
		err = d.codec.Unmarshal(data, &c)
		cmd = c
	case OpCalibrate:
		var c CalibrateCommand
		err = d.codec.Unmarshal(data, &c)
		cmd = c
	case OpConfigMode:
		var c ConfigModeCommand
		err = d.codec.Unmarshal(data, &c)
		cmd = c
	case OpParameters:
		var c ParameterPush
		err = d.codec.Unmarshal(data, &c)
		cmd = c
	default:
		return nil, fmt.Errorf("%w: opcode %q", ErrUnknownAction, op)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return cmd, nil
}

// DecodeControlReport decodes a message the bridge sent to the control side
func (d *Decoder) DecodeControlReport(data []byte) (ControlReport, error) {
	obj, err := d.DecodeObject(data)
	if err != nil {
		return nil, err
	}
	action, err := actionOf(obj, KeyAction)
	if err != nil {
		return nil, err
	}

	var report ControlReport
	switch action {
	case ActionCalibrationResult:
		var r CalibrationReport
		err = d.codec.Unmarshal(data, &r)
		report = r
	case ActionActualValues:
		var r StatusReport
		err = d.codec.Unmarshal(data, &r)
		report = r
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return report, nil
}
