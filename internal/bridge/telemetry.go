// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import "github.com/Thermoquad/tacbridge/pkg/tac"

// reportActualValues merges the measured values and reports them to the
// control side together with the setpoints and calibration
func (r *Router) reportActualValues(m tac.ActualValues) {
	if m.Temperature != nil {
		r.state.Actual.Temperature = *m.Temperature
		r.logger.Debug("actual temperature", "value", *m.Temperature)
	}
	if m.Turbidity != nil {
		r.state.Actual.Turbidity = *m.Turbidity
		r.logger.Debug("actual turbidity", "value", *m.Turbidity)
	}

	report := tac.NewStatusReport(
		r.clock.Now().Unix(),
		r.state.Params,
		r.state.Calibration.Turb0,
		r.state.Calibration.Turb100,
		r.state.Actual.Temperature,
		r.state.Actual.Turbidity,
	)
	r.publishControl(report)
}
