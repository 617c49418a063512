// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import "github.com/Thermoquad/tacbridge/pkg/tac"

// requestCalibration forwards a calibration request for the 0% or 100%
// reference point. Any other point is ignored.
func (r *Router) requestCalibration(m tac.CalibrateMessage) {
	point, ok := m.Point()
	if !ok {
		r.logger.Warn("ignoring calibration request", "params", m.Value)
		return
	}
	r.logger.Info("calibration requested", "point", point.String())
	r.publishDevice(tac.NewCalibrateCommand(point))
}

// applyCalibrationResult stores the measured reference value and forwards it
func (r *Router) applyCalibrationResult(m tac.CalibrationResult) {
	if !m.Valid {
		r.logger.Debug("calibration result without value")
		return
	}
	r.state.Calibration.Set(m.Point, m.Value)
	r.logger.Info("calibration result", "field", m.Point.Field(), "value", m.Value)
	r.publishControl(tac.NewCalibrationReport(m.Point, m.Value))
}
