// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package bridge holds the bridge state and the router that drives it from
// inbound control and device messages.
package bridge

import (
	"time"

	"github.com/Thermoquad/tacbridge/pkg/tac"
)

// Calibration holds the two-point turbidity calibration values
type Calibration struct {
	Turb0   float64 `json:"turb_0"`
	Turb100 float64 `json:"turb_100"`
}

// Set stores value for the given calibration point
func (c *Calibration) Set(point tac.CalibrationPoint, value float64) {
	if point == tac.CalibrationHigh {
		c.Turb100 = value
	} else {
		c.Turb0 = value
	}
}

// Actual holds the latest measured values reported by the device
type Actual struct {
	Temperature float64 `json:"actual_temperature"`
	Turbidity   float64 `json:"actual_turbidity"`
}

// State is the bridge's complete domain state. It is owned by a single Router
// and never shared between goroutines.
type State struct {
	Params      tac.ParameterSet
	Calibration Calibration
	Actual      Actual
	Running     bool
}

// NewState creates a state holding only the given default parameters
func NewState(defaults tac.ParameterSet) *State {
	params := tac.DefaultParameters()
	params.Merge(defaults)
	return &State{Params: params}
}

// Snapshot is an immutable copy of State published for readers outside the router
type Snapshot struct {
	Session     string           `json:"session"`
	Parameters  tac.ParameterSet `json:"parameters"`
	Missing     []string         `json:"missing,omitempty"`
	Calibration Calibration      `json:"calibration"`
	Actual      Actual           `json:"actual"`
	Running     bool             `json:"running"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Complete returns true if a parameter push could be sent from this snapshot
func (s *Snapshot) Complete() bool {
	return len(s.Missing) == 0
}

func (st *State) snapshot(session string, at time.Time) *Snapshot {
	return &Snapshot{
		Session:     session,
		Parameters:  st.Params.Clone(),
		Missing:     st.Params.Missing(),
		Calibration: st.Calibration,
		Actual:      st.Actual,
		Running:     st.Running,
		UpdatedAt:   at,
	}
}
