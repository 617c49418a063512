// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Thermoquad/tacbridge/pkg/tac"
)

// Statistics tracks message counts and error rates. It is safe for concurrent
// use: the router writes while the metrics collector reads.
type Statistics struct {
	mu sync.Mutex

	startTime      time.Time
	lastUpdateTime time.Time

	controlMessages uint64
	deviceMessages  uint64
	validMessages   uint64
	pendingConfigs  uint64
	dropped         map[string]uint64 // by error kind
	clamped         map[string]uint64 // by parameter
	rateWarnings    uint64
	configPushes    uint64
	published       map[string]uint64 // by opcode or action
	publishErrors   uint64
}

// StatsSnapshot is a point-in-time copy of Statistics
type StatsSnapshot struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	ControlMessages uint64
	DeviceMessages  uint64
	ValidMessages   uint64
	PendingConfigs  uint64 // incomplete configs whose keys were kept
	Dropped         map[string]uint64
	Clamped         map[string]uint64
	RateWarnings    uint64
	ConfigPushes    uint64
	Published       map[string]uint64
	PublishErrors   uint64

	// Rates (calculated)
	MessageRate float64 // messages/sec
	ErrorRate   float64 // drops/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	s := &Statistics{}
	s.reset(time.Now())
	return s
}

// RecordInbound counts one inbound message and, if err is set, its drop reason.
// An incomplete config is pending, not dropped.
func (s *Statistics) RecordInbound(ch tac.Channel, err error) {
	var incomplete *tac.IncompleteConfigError

	s.mu.Lock()
	defer s.mu.Unlock()

	if ch == tac.ChannelDevice {
		s.deviceMessages++
	} else {
		s.controlMessages++
	}
	switch {
	case errors.As(err, &incomplete):
		s.pendingConfigs++
	case err != nil:
		s.dropped[tac.ErrorKind(err)]++
	default:
		s.validMessages++
	}
	s.lastUpdateTime = time.Now()
}

// RecordValidation counts clamp and warning findings
func (s *Statistics) RecordValidation(findings []tac.ValidationError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range findings {
		if f.Clamped {
			s.clamped[f.Param]++
		} else {
			s.rateWarnings++
		}
	}
}

// RecordPush counts one completed config push sequence
func (s *Statistics) RecordPush() {
	s.mu.Lock()
	s.configPushes++
	s.mu.Unlock()
}

// RecordPublish counts one outbound message by its opcode or action
func (s *Statistics) RecordPublish(kind string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.publishErrors++
		return
	}
	s.published[kind]++
}

// Snapshot returns a copy of the counters with rates calculated
func (s *Statistics) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		StartTime:       s.startTime,
		LastUpdateTime:  s.lastUpdateTime,
		ControlMessages: s.controlMessages,
		DeviceMessages:  s.deviceMessages,
		ValidMessages:   s.validMessages,
		PendingConfigs:  s.pendingConfigs,
		Dropped:         copyCounts(s.dropped),
		Clamped:         copyCounts(s.clamped),
		RateWarnings:    s.rateWarnings,
		ConfigPushes:    s.configPushes,
		Published:       copyCounts(s.published),
		PublishErrors:   s.publishErrors,
	}

	elapsed := time.Since(s.startTime).Seconds()
	if elapsed > 0 {
		snap.MessageRate = float64(snap.TotalMessages()) / elapsed
		snap.ErrorRate = float64(snap.TotalDropped()) / elapsed
	}
	return snap
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	s.mu.Lock()
	s.reset(time.Now())
	s.mu.Unlock()
}

func (s *Statistics) reset(now time.Time) {
	s.startTime = now
	s.lastUpdateTime = now
	s.controlMessages = 0
	s.deviceMessages = 0
	s.validMessages = 0
	s.pendingConfigs = 0
	s.dropped = map[string]uint64{}
	s.clamped = map[string]uint64{}
	s.rateWarnings = 0
	s.configPushes = 0
	s.published = map[string]uint64{}
	s.publishErrors = 0
}

func copyCounts(m map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// TotalMessages returns the number of inbound messages on both channels
func (s StatsSnapshot) TotalMessages() uint64 {
	return s.ControlMessages + s.DeviceMessages
}

// TotalDropped returns the number of dropped inbound messages
func (s StatsSnapshot) TotalDropped() uint64 {
	var n uint64
	for _, v := range s.Dropped {
		n += v
	}
	return n
}

// String returns a formatted statistics summary
func (s StatsSnapshot) String() string {
	total := s.TotalMessages()
	var validPercent, droppedPercent float64
	if total > 0 {
		validPercent = float64(s.ValidMessages) * 100.0 / float64(total)
		droppedPercent = float64(s.TotalDropped()) * 100.0 / float64(total)
	}

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", s.LastUpdateTime.Sub(s.StartTime).Seconds())
	result += fmt.Sprintf("Control Messages:%8d\n", s.ControlMessages)
	result += fmt.Sprintf("Device Messages: %8d\n", s.DeviceMessages)
	result += fmt.Sprintf("Valid Messages:  %8d (%.1f%%)\n", s.ValidMessages, validPercent)

	if s.PendingConfigs > 0 {
		result += fmt.Sprintf("Pending Configs: %8d\n", s.PendingConfigs)
	}
	if len(s.Dropped) > 0 {
		result += fmt.Sprintf("Dropped:         %8d (%.1f%%)\n", s.TotalDropped(), droppedPercent)
		for _, k := range sortedKeys(s.Dropped) {
			result += fmt.Sprintf("  %-16s %5d\n", k+":", s.Dropped[k])
		}
	}
	if len(s.Clamped) > 0 {
		result += "Clamped Values:\n"
		for _, k := range sortedKeys(s.Clamped) {
			result += fmt.Sprintf("  %-24s %5d\n", k+":", s.Clamped[k])
		}
	}
	if s.RateWarnings > 0 {
		result += fmt.Sprintf("Refresh Warnings:%8d\n", s.RateWarnings)
	}

	result += fmt.Sprintf("Config Pushes:   %8d\n", s.ConfigPushes)
	if s.PublishErrors > 0 {
		result += fmt.Sprintf("Publish Errors:  %8d\n", s.PublishErrors)
	}
	result += fmt.Sprintf("Message Rate:    %8.1f msgs/sec\n", s.MessageRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
