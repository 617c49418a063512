// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tac

import "fmt"

// AnomalyType represents the kind of limit violation found in a parameter set
type AnomalyType int

const (
	AnomalyAboveMax AnomalyType = iota
	AnomalyBelowMin
	AnomalySlowRefresh
)

func (a AnomalyType) String() string {
	switch a {
	case AnomalyAboveMax:
		return "above_max"
	case AnomalyBelowMin:
		return "below_min"
	case AnomalySlowRefresh:
		return "slow_refresh"
	default:
		return "unknown"
	}
}

// ValidationError represents one out-of-range parameter.
// Clamped is true when the value was replaced by Bound.
type ValidationError struct {
	Type    AnomalyType
	Param   string
	Value   float64
	Bound   float64
	Clamped bool
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ClampParameters brings every range-limited parameter of a complete set within
// its physical limits, in place. Checks run in a fixed order: temperature,
// turbidity, refresh rate, motor speed. A refresh rate above RefreshRateLimit is
// reported but left unchanged.
// Returns one ValidationError per finding (empty if nothing was out of range).
func ClampParameters(ps ParameterSet) []ValidationError {
	errors := []ValidationError{}

	tmin, tmax := ps[ParamTmin], ps[ParamTmax]
	if e := clampRange(ps, ParamTargetTemperature, tmin, tmax, ParamTmin, ParamTmax); e != nil {
		errors = append(errors, *e)
	}

	if e := clampRange(ps, ParamTargetTurbidity, TurbidityMin, TurbidityMax, "", ""); e != nil {
		errors = append(errors, *e)
	}

	refresh := ps[ParamRefreshRate]
	if refresh > RefreshRateLimit {
		errors = append(errors, ValidationError{
			Type:    AnomalySlowRefresh,
			Param:   ParamRefreshRate,
			Value:   refresh,
			Bound:   RefreshRateLimit,
			Message: fmt.Sprintf("%s %g ms higher than %g ms", ParamRefreshRate, refresh, RefreshRateLimit),
			Details: map[string]interface{}{"value": refresh, "limit": RefreshRateLimit},
		})
	}
	if refresh < RefreshRateMin {
		ps[ParamRefreshRate] = RefreshRateMin
		errors = append(errors, ValidationError{
			Type:    AnomalyBelowMin,
			Param:   ParamRefreshRate,
			Value:   refresh,
			Bound:   RefreshRateMin,
			Clamped: true,
			Message: fmt.Sprintf("%s %g ms lower than %g ms, set to %g ms", ParamRefreshRate, refresh, RefreshRateMin, RefreshRateMin),
			Details: map[string]interface{}{"value": refresh, "min": RefreshRateMin},
		})
	}

	if e := clampRange(ps, ParamMotorSpeed, MotorSpeedMin, MotorSpeedMax, "", ""); e != nil {
		errors = append(errors, *e)
	}

	return errors
}

// clampRange clamps ps[name] to [lo, hi]. The upper bound is checked first.
// loName/hiName label bounds that come from other parameters.
func clampRange(ps ParameterSet, name string, lo, hi float64, loName, hiName string) *ValidationError {
	v := ps[name]
	switch {
	case v > hi:
		ps[name] = hi
		return &ValidationError{
			Type:    AnomalyAboveMax,
			Param:   name,
			Value:   v,
			Bound:   hi,
			Clamped: true,
			Message: fmt.Sprintf("%s %g higher than %s, set to %g", name, v, boundLabel(hiName, hi), hi),
			Details: map[string]interface{}{"value": v, "max": hi},
		}
	case v < lo:
		ps[name] = lo
		return &ValidationError{
			Type:    AnomalyBelowMin,
			Param:   name,
			Value:   v,
			Bound:   lo,
			Clamped: true,
			Message: fmt.Sprintf("%s %g lower than %s, set to %g", name, v, boundLabel(loName, lo), lo),
			Details: map[string]interface{}{"value": v, "min": lo},
		}
	}
	return nil
}

func boundLabel(name string, v float64) string {
	if name == "" {
		return fmt.Sprintf("%g", v)
	}
	return fmt.Sprintf("%s (%g)", name, v)
}
