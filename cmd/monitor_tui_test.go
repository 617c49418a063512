// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Thermoquad/tacbridge/internal/config"
	"github.com/Thermoquad/tacbridge/pkg/tac"
)

func newTestMonitor(send func(tac.ControlMessage) error) monitorModel {
	if send == nil {
		send = func(tac.ControlMessage) error { return nil }
	}
	return newMonitorModel("mqtt tcp://localhost:1883", routes(config.Default()), tac.JSON, send)
}

func feed(t *testing.T, m monitorModel, topic, payload string) monitorModel {
	t.Helper()
	next, _ := m.Update(busMsg{topic: topic, payload: []byte(payload), at: time.Now()})
	return next.(monitorModel)
}

func TestMonitorModel_DeviceCommands(t *testing.T) {
	m := newTestMonitor(nil)

	m = feed(t, m, tac.TopicBridgeToDevice, `{"a":"g","params":true}`)
	if !m.configMode {
		t.Error("config mode should be on")
	}

	m = feed(t, m, tac.TopicBridgeToDevice, `{"a":"p","t":37,"u":40,"r":1000,"m":50,"tg":37,"ug":40,"rg":1000,"mg":50,"p":7,"i":1,"d":0,"Tmin":0,"Tmax":55}`)
	if m.lastPush == nil {
		t.Fatal("parameter push not recorded")
	}
	if m.lastPush.T != 37 || m.lastPush.M != 50 {
		t.Errorf("push = %+v", *m.lastPush)
	}

	m = feed(t, m, tac.TopicBridgeToDevice, `{"a":"g","params":false}`)
	if m.configMode {
		t.Error("config mode should be off")
	}

	m = feed(t, m, tac.TopicBridgeToDevice, `{"a":"s","params":true}`)
	if m.running == nil || !*m.running {
		t.Error("reactor should be running")
	}

	if got := m.counts[tac.RouteBridgeToDevice]; got != 4 {
		t.Errorf("device command count = %d, want 4", got)
	}
	if len(m.events) != 4 {
		t.Errorf("events = %d, want 4", len(m.events))
	}
}

func TestMonitorModel_Reports(t *testing.T) {
	m := newTestMonitor(nil)

	m = feed(t, m, tac.TopicBridgeToControl, `{"action":"calibration_result","turb_100":900}`)
	if m.turb100 == nil || *m.turb100 != 900 {
		t.Errorf("turb100 = %v, want 900", m.turb100)
	}
	if m.turb0 != nil {
		t.Errorf("turb0 = %v, want unset", *m.turb0)
	}

	m = feed(t, m, tac.TopicBridgeToControl, `{"action":"actual_values","time":1700000000,"target_temperature":37,"turb_0":512,"turb_100":900,"actual_temperature":21.5,"actual_turbidity":30}`)
	if m.lastStatus == nil {
		t.Fatal("status report not recorded")
	}
	if m.lastStatus.ActualTemperature != 21.5 {
		t.Errorf("actual temperature = %v, want 21.5", m.lastStatus.ActualTemperature)
	}
	if m.turb0 == nil || *m.turb0 != 512 {
		t.Errorf("turb0 = %v, want 512", m.turb0)
	}

	view := m.View()
	for _, want := range []string{"TACBRIDGE - MONITOR", "21.50", "turb_0=512", "turb_100=900"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestMonitorModel_BadPayload(t *testing.T) {
	m := newTestMonitor(nil)

	m = feed(t, m, tac.TopicDeviceToBridge, `not json`)
	if len(m.events) != 1 || !m.events[0].isError {
		t.Fatalf("events = %+v, want one error entry", m.events)
	}

	m = feed(t, m, "some/other/topic", `{}`)
	if len(m.events) != 2 || !m.events[1].isError {
		t.Errorf("unknown topic should log an error")
	}
}

func TestMonitorModel_SendCommand(t *testing.T) {
	var sent []tac.ControlMessage
	m := newTestMonitor(func(msg tac.ControlMessage) error {
		sent = append(sent, msg)
		return nil
	})

	m.input.SetValue("cal 100")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(monitorModel)
	if cmd == nil {
		t.Fatal("enter should return a send command")
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}

	result := cmd().(sendResultMsg)
	if result.err != nil {
		t.Fatalf("send error: %v", result.err)
	}
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if got := tac.FormatControlMessage(sent[0]); got != "CALIBRATE point=100" {
		t.Errorf("sent %q", got)
	}

	next, _ = m.Update(result)
	m = next.(monitorModel)
	if len(m.events) != 1 || m.events[0].isError {
		t.Errorf("events = %+v, want one success entry", m.events)
	}
}

func TestMonitorModel_SendErrors(t *testing.T) {
	m := newTestMonitor(func(tac.ControlMessage) error {
		return errors.New("broker down")
	})

	tests := []struct {
		name  string
		input string
	}{
		{"unparseable", "frobnicate"},
		{"publish failure", "start"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.input.SetValue(tt.input)
			_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
			if cmd == nil {
				t.Fatal("enter should return a command")
			}
			result := cmd().(sendResultMsg)
			if result.err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestMonitorModel_LogLimit(t *testing.T) {
	m := newTestMonitor(nil)
	m.maxLogEntries = 3
	for i := 0; i < 5; i++ {
		m.addLogEntry("entry", false)
	}
	if len(m.events) != 3 {
		t.Errorf("events = %d, want 3", len(m.events))
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("aaaa bbbb cccc dddd eeee ffff", 20)
	for _, line := range strings.Split(got, "\n") {
		if len(line) > 20 {
			t.Errorf("line %q longer than 20", line)
		}
	}
	if strings.Join(strings.Fields(got), " ") != "aaaa bbbb cccc dddd eeee ffff" {
		t.Errorf("words lost: %q", got)
	}
}
