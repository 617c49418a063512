// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	humanize "github.com/dustin/go-humanize"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/tacbridge/pkg/tac"
)

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// Bridge traffic seen on one of the four topics
type busMsg struct {
	topic   string
	payload []byte
	at      time.Time
}

// Result of sending an operator command
type sendResultMsg struct {
	line string
	err  error
}

type monitorTickMsg time.Time

// monitorModel is the Bubble Tea model for the monitor TUI
type monitorModel struct {
	connInfo string
	send     func(tac.ControlMessage) error

	routes     map[string]tac.Route
	controlDec *tac.Decoder
	deviceDec  *tac.Decoder

	// Latest state as seen on the wire
	lastStatus   *tac.StatusReport
	lastStatusAt time.Time
	lastPush     *tac.ParameterPush
	running      *bool
	configMode   bool
	turb0        *float64
	turb100      *float64
	counts       map[tac.Route]int

	events        []eventLogEntry
	maxLogEntries int

	input    textinput.Model
	width    int
	height   int
	quitting bool
}

func newMonitorModel(connInfo string, routes map[string]tac.Route, deviceCodec tac.Codec, send func(tac.ControlMessage) error) monitorModel {
	ti := textinput.New()
	ti.Placeholder = "start | stop | cal 0 | cal 100 | set name=value ..."
	ti.CharLimit = 256
	ti.Width = 60
	ti.Focus()

	return monitorModel{
		connInfo:      connInfo,
		send:          send,
		routes:        routes,
		controlDec:    tac.NewDecoder(tac.JSON),
		deviceDec:     tac.NewDecoder(deviceCodec),
		counts:        make(map[tac.Route]int),
		events:        make([]eventLogEntry, 0),
		maxLogEntries: 200,
		input:         ti,
		width:         80,
		height:        24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(monitorTickCmd(), textinput.Blink)
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			return m, m.sendCmd(line)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case monitorTickMsg:
		return m, monitorTickCmd()

	case busMsg:
		m.handleBusMsg(msg)
		return m, nil

	case sendResultMsg:
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("send %q: %v", msg.line, msg.err), true)
		} else {
			m.addLogEntry(fmt.Sprintf("sent: %s", msg.line), false)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// sendCmd parses and publishes an operator command off the UI goroutine
func (m monitorModel) sendCmd(line string) tea.Cmd {
	parsed, err := parseControlLine(line)
	if err != nil {
		return func() tea.Msg { return sendResultMsg{line: line, err: err} }
	}
	send := m.send
	return func() tea.Msg {
		return sendResultMsg{line: tac.FormatControlMessage(parsed), err: send(parsed)}
	}
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	m.events = append(m.events, eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})

	// Keep only last N entries
	if len(m.events) > m.maxLogEntries {
		m.events = m.events[len(m.events)-m.maxLogEntries:]
	}
}

// handleBusMsg updates the view state from one message and logs it
func (m *monitorModel) handleBusMsg(msg busMsg) {
	route, known := m.routes[msg.topic]
	if !known {
		m.addLogEntry(fmt.Sprintf("%s: message on unexpected topic", msg.topic), true)
		return
	}
	m.counts[route]++

	var line string
	var err error

	switch route {
	case tac.RouteControlToBridge:
		var cm tac.ControlMessage
		if cm, err = m.controlDec.DecodeControl(msg.payload); err == nil {
			line = "control  > " + tac.FormatControlMessage(cm)
		}

	case tac.RouteDeviceToBridge:
		var dm tac.DeviceMessage
		if dm, err = m.deviceDec.DecodeDevice(msg.payload); err == nil {
			line = "device   > " + tac.FormatDeviceMessage(dm)
		}

	case tac.RouteBridgeToDevice:
		var c tac.DeviceCommand
		if c, err = m.deviceDec.DecodeDeviceCommand(msg.payload); err == nil {
			m.applyCommand(c)
			line = "> device   " + tac.FormatDeviceCommand(c)
		}

	case tac.RouteBridgeToControl:
		var r tac.ControlReport
		if r, err = m.controlDec.DecodeControlReport(msg.payload); err == nil {
			m.applyReport(r, msg.at)
			line = "> control  " + tac.FormatControlReport(r)
		}
	}

	if err != nil {
		m.addLogEntry(fmt.Sprintf("%s: %v", msg.topic, err), true)
		return
	}
	m.addLogEntry(line, false)
}

func (m *monitorModel) applyCommand(c tac.DeviceCommand) {
	switch cmd := c.(type) {
	case tac.StartCommand:
		run := cmd.Params
		m.running = &run
	case tac.ConfigModeCommand:
		m.configMode = cmd.Params
	case tac.ParameterPush:
		m.lastPush = &cmd
	}
}

func (m *monitorModel) applyReport(r tac.ControlReport, at time.Time) {
	switch rep := r.(type) {
	case tac.StatusReport:
		m.lastStatus = &rep
		m.lastStatusAt = at
		m.turb0 = &rep.Turb0
		m.turb100 = &rep.Turb100
	case tac.CalibrationReport:
		if rep.Turb0 != nil {
			m.turb0 = rep.Turb0
		}
		if rep.Turb100 != nil {
			m.turb100 = rep.Turb100
		}
	}
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("TACBRIDGE - MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Enter to send | Esc to quit", m.connInfo)))
	s.WriteString("\n\n")

	// Run state
	status := strings.Builder{}
	runState := warningStyle.Render("unknown")
	if m.running != nil {
		if *m.running {
			runState = valueStyle.Render("RUNNING")
		} else {
			runState = errorStyle.Render("STOPPED")
		}
	}
	configState := valueStyle.Render("off")
	if m.configMode {
		configState = warningStyle.Render("ON")
	}
	status.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		labelStyle.Render("Reactor:"), runState,
		labelStyle.Render("Config mode:"), configState,
	))

	// Latest report
	if m.lastStatus != nil {
		r := m.lastStatus
		status.WriteString(fmt.Sprintf("%s %s (target %s)   %s %s (target %s)\n",
			labelStyle.Render("Temperature:"), valueStyle.Render(fmt.Sprintf("%.2f", r.ActualTemperature)), formatSetpoint(r.TargetTemperature),
			labelStyle.Render("Turbidity:"), valueStyle.Render(fmt.Sprintf("%.2f", r.ActualTurbidity)), formatSetpoint(r.TargetTurbidity),
		))
		status.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			labelStyle.Render("Refresh rate:"), formatSetpoint(r.RefreshRate),
			labelStyle.Render("Motor speed:"), formatSetpoint(r.MotorSpeed),
		))
		status.WriteString(headerStyle.Render(fmt.Sprintf("report time %s, received %s",
			time.Unix(r.Time, 0).Format("15:04:05"),
			humanize.Time(m.lastStatusAt))))
		status.WriteString("\n")
	} else {
		status.WriteString(headerStyle.Render("(no actual_values report yet)"))
		status.WriteString("\n")
	}

	status.WriteString(fmt.Sprintf("%s turb_0=%s turb_100=%s",
		labelStyle.Render("Calibration:"), formatSetpoint(m.turb0), formatSetpoint(m.turb100),
	))
	s.WriteString(boxStyle.Render(status.String()))
	s.WriteString("\n\n")

	// Last parameter push
	if m.lastPush != nil {
		s.WriteString(labelStyle.Render("Last Parameter Push:"))
		s.WriteString("\n")
		s.WriteString(boxStyle.Render(wrapText(tac.FormatParameters(m.lastPush.Parameters()), m.width-8)))
		s.WriteString("\n\n")
	}

	// Traffic counters
	s.WriteString(headerStyle.Render(fmt.Sprintf("control>%d  device>%d  >device %d  >control %d",
		m.counts[tac.RouteControlToBridge], m.counts[tac.RouteDeviceToBridge],
		m.counts[tac.RouteBridgeToDevice], m.counts[tac.RouteBridgeToControl])))
	s.WriteString("\n")

	// Event log
	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - 20
	if logHeight < 5 {
		logHeight = 5
	}
	startIdx := len(m.events) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	logContent := strings.Builder{}
	if len(m.events) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.events); i++ {
			entry := m.events[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(timestamp), errorStyle.Render("✗ "+entry.message)))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(timestamp), entry.message))
			}
		}
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))
	s.WriteString("\n")

	s.WriteString(m.input.View())
	return s.String()
}

func formatSetpoint(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}

// wrapText breaks s on spaces so no line exceeds width
func wrapText(s string, width int) string {
	if width < 20 {
		width = 20
	}
	var lines []string
	line := ""
	for _, word := range strings.Fields(s) {
		if line != "" && len(line)+1+len(word) > width {
			lines = append(lines, line)
			line = word
			continue
		}
		if line != "" {
			line += " "
		}
		line += word
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
