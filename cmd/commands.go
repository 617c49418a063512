// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Thermoquad/tacbridge/pkg/tac"
)

// parseParameters parses name=value pairs into a parameter set
func parseParameters(pairs []string) (tac.ParameterSet, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no parameters given (use name=value)")
	}
	ps := make(tac.ParameterSet, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q (use name=value)", pair)
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", name, err)
		}
		ps[name] = v
	}
	return ps, nil
}

// parseRun parses a start argument: start/on/true/1 or stop/off/false/0
func parseRun(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "start", "on", "true", "1", "run":
		return true, nil
	case "stop", "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid run state %q (use start or stop)", arg)
}

// parseControlLine parses one operator command line:
//
//	start | stop
//	cal <0|100>
//	set name=value ...
func parseControlLine(line string) (tac.ControlMessage, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	switch strings.ToLower(fields[0]) {
	case "start", "stop":
		run, _ := parseRun(fields[0])
		return tac.StartMessage{Run: run}, nil

	case "cal", "calibrate":
		if len(fields) != 2 {
			return nil, fmt.Errorf("usage: cal <0|100>")
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid calibration point %q", fields[1])
		}
		return tac.CalibrateMessage{Value: v}, nil

	case "set", "config":
		ps, err := parseParameters(fields[1:])
		if err != nil {
			return nil, err
		}
		return tac.ConfigMessage{Params: ps}, nil
	}
	return nil, fmt.Errorf("unknown command %q (use start, stop, cal or set)", fields[0])
}
