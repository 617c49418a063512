// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"testing"

	"github.com/Thermoquad/tacbridge/pkg/tac"
)

func TestParseParameters(t *testing.T) {
	ps, err := parseParameters([]string{"target_temperature=37", "motor_speed=12.5"})
	if err != nil {
		t.Fatalf("parseParameters failed: %v", err)
	}
	if ps[tac.ParamTargetTemperature] != 37 || ps[tac.ParamMotorSpeed] != 12.5 {
		t.Errorf("parameters = %v", ps)
	}

	for _, bad := range [][]string{nil, {"novalue"}, {"=3"}, {"x=abc"}} {
		if _, err := parseParameters(bad); err == nil {
			t.Errorf("parseParameters(%q) should fail", bad)
		}
	}
}

func TestParseControlLine(t *testing.T) {
	tests := []struct {
		line    string
		want    string // formatted message
		wantErr bool
	}{
		{"start", "START run=true", false},
		{"STOP", "START run=false", false},
		{"cal 100", "CALIBRATE point=100", false},
		{"calibrate 0", "CALIBRATE point=0", false},
		{"set target_turbidity=40", "CONFIG target_turbidity=40", false},
		{"", "", true},
		{"cal", "", true},
		{"cal high", "", true},
		{"set", "", true},
		{"dance", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			msg, err := parseControlLine(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseControlLine(%q) should fail", tt.line)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseControlLine(%q) failed: %v", tt.line, err)
			}
			if got := tac.FormatControlMessage(msg); got != tt.want {
				t.Errorf("parseControlLine(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseRun(t *testing.T) {
	for _, arg := range []string{"start", "ON", "true", "1"} {
		if run, err := parseRun(arg); err != nil || !run {
			t.Errorf("parseRun(%q) = %v, %v", arg, run, err)
		}
	}
	for _, arg := range []string{"stop", "off", "false", "0"} {
		if run, err := parseRun(arg); err != nil || run {
			t.Errorf("parseRun(%q) = %v, %v", arg, run, err)
		}
	}
	if _, err := parseRun("maybe"); err == nil {
		t.Error("parseRun(maybe) should fail")
	}
}
