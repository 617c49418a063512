// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/tacbridge/internal/config"
	"github.com/Thermoquad/tacbridge/pkg/tac"
)

func TestRawPrinter(t *testing.T) {
	var out []string
	p := newRawPrinter(config.Default(), tac.JSON)
	p.now = func() time.Time { return time.Date(2025, 1, 2, 12, 30, 45, 0, time.Local) }
	p.print = func(s string) { out = append(out, s) }

	tests := []struct {
		name    string
		topic   string
		payload string
		want    string
	}{
		{"control request", tac.TopicControlToBridge, `{"action":"start","params":true}`, "START run=true"},
		{"device message", tac.TopicDeviceToBridge, `{"action":"calibration_result","turb_0":512}`, "CALIBRATION_RESULT turb_0=512"},
		{"device command", tac.TopicBridgeToDevice, `{"a":"g","params":true}`, "CONFIG_MODE enter"},
		{"report", tac.TopicBridgeToControl, `{"action":"calibration_result","turb_100":900}`, "CALIBRATION_RESULT turb_100=900"},
		{"unknown action", tac.TopicControlToBridge, `{"action":"dance","params":1}`, "? action=dance params=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out = nil
			p.handle(tt.topic, []byte(tt.payload))
			if len(out) != 1 {
				t.Fatalf("printed %d lines, want 1", len(out))
			}
			if !strings.HasPrefix(out[0], "[12:30:45.000] "+tt.topic) {
				t.Errorf("prefix: %q", out[0])
			}
			if !strings.HasSuffix(out[0], tt.want+"\n") {
				t.Errorf("got %q, want suffix %q", out[0], tt.want)
			}
		})
	}
}
