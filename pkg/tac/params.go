// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tac

import "sort"

// ParameterSet maps parameter names to numeric values
type ParameterSet map[string]float64

// DefaultParameters returns a parameter set holding only the gain and limit defaults
func DefaultParameters() ParameterSet {
	return ParameterSet{
		ParamP:    DefaultP,
		ParamI:    DefaultI,
		ParamD:    DefaultD,
		ParamTmin: DefaultTmin,
		ParamTmax: DefaultTmax,
	}
}

// Clone returns an independent copy of the set
func (ps ParameterSet) Clone() ParameterSet {
	out := make(ParameterSet, len(ps))
	for k, v := range ps {
		out[k] = v
	}
	return out
}

// Merge overwrites ps with every entry of other
func (ps ParameterSet) Merge(other ParameterSet) {
	for k, v := range other {
		ps[k] = v
	}
}

// Lookup returns a pointer to a copy of the named value, or nil when absent
func (ps ParameterSet) Lookup(name string) *float64 {
	v, ok := ps[name]
	if !ok {
		return nil
	}
	return &v
}

// Missing returns the required parameters absent from the set, in reporting order
func (ps ParameterSet) Missing() []string {
	var missing []string
	for _, name := range RequiredParameters {
		if _, ok := ps[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Complete returns true if every required parameter is present
func (ps ParameterSet) Complete() bool {
	return len(ps.Missing()) == 0
}

// Keys returns the parameter names in sorted order
func (ps ParameterSet) Keys() []string {
	keys := make([]string, 0, len(ps))
	for k := range ps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
