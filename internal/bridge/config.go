// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import "github.com/Thermoquad/tacbridge/pkg/tac"

// applyConfig merges params into the store. Once every required parameter is
// known, out-of-range values are clamped in place and the set is pushed.
func (r *Router) applyConfig(params tac.ParameterSet) error {
	r.state.Params.Merge(params)

	if missing := r.state.Params.Missing(); len(missing) > 0 {
		for _, name := range missing {
			r.logger.Warn("parameter not received", "param", name)
		}
		return &tac.IncompleteConfigError{Missing: missing}
	}

	findings := tac.ClampParameters(r.state.Params)
	for _, f := range findings {
		r.logger.Warn("parameter out of range",
			"param", f.Param,
			"value", f.Value,
			"bound", f.Bound,
			"clamped", f.Clamped,
			"message", f.Message)
	}
	r.stats.RecordValidation(findings)

	r.pushConfig(r.state.Params)
	return nil
}

// pushConfig runs the device configuration handshake: enter configuration
// mode, wait, send the parameters, leave configuration mode. A failed publish
// is logged and the sequence continues.
func (r *Router) pushConfig(params tac.ParameterSet) {
	r.publishDevice(tac.NewConfigModeCommand(true))
	r.clock.Sleep(r.pushDelay)
	r.publishDevice(tac.NewParameterPush(params))
	r.publishDevice(tac.NewConfigModeCommand(false))

	r.stats.RecordPush()
	r.logger.Info("configuration pushed", "params", tac.FormatParameters(params))
}
