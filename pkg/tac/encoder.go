// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tac

import (
	"fmt"
)

// Encoder encodes outbound messages for one side of the bridge.
type Encoder struct {
	codec Codec
}

// NewEncoder creates an encoder for the given codec (JSON if nil)
func NewEncoder(codec Codec) *Encoder {
	if codec == nil {
		codec = JSON
	}
	return &Encoder{codec: codec}
}

// Codec returns the encoder's codec
func (e *Encoder) Codec() Codec {
	return e.codec
}

// EncodeCommand encodes a device-bound command in the compact schema
func (e *Encoder) EncodeCommand(c DeviceCommand) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("nil device command")
	}
	data, err := e.codec.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s command: %w", FormatOp(c.Op()), err)
	}
	return data, nil
}

// EncodeReport encodes a control-bound report in the descriptive schema
func (e *Encoder) EncodeReport(r ControlReport) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("nil control report")
	}
	data, err := e.codec.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s report: %w", r.ReportAction(), err)
	}
	return data, nil
}

// EncodeControl encodes a control-side request, as the supervisor would send it
func (e *Encoder) EncodeControl(m ControlMessage) ([]byte, error) {
	var params interface{}
	switch msg := m.(type) {
	case ConfigMessage:
		params = map[string]float64(msg.Params)
	case CalibrateMessage:
		params = msg.Value
	case StartMessage:
		params = msg.Run
	default:
		return nil, fmt.Errorf("unsupported control message %T", m)
	}
	return e.codec.Marshal(map[string]interface{}{
		KeyAction: m.Action(),
		KeyParams: params,
	})
}

// EncodeDevice encodes a device-side message, as the firmware would send it
func (e *Encoder) EncodeDevice(m DeviceMessage) ([]byte, error) {
	obj := map[string]interface{}{}
	switch msg := m.(type) {
	case CalibrationResult:
		if msg.Valid {
			obj[msg.Point.Field()] = msg.Value
		}
	case ActualValues:
		if msg.Temperature != nil {
			obj[FieldActualTemperature] = *msg.Temperature
		}
		if msg.Turbidity != nil {
			obj[FieldActualTurbidity] = *msg.Turbidity
		}
	default:
		return nil, fmt.Errorf("unsupported device message %T", m)
	}
	obj[KeyAction] = m.Action()
	return e.codec.Marshal(obj)
}
