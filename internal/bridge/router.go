// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Thermoquad/tacbridge/internal/bus"
	"github.com/Thermoquad/tacbridge/pkg/tac"
)

// DefaultPushDelay is the pause the device needs between entering
// configuration mode and receiving the parameter push
const DefaultPushDelay = 2 * time.Second

// inboxSize bounds the number of inbound messages waiting for the router
const inboxSize = 64

// Topics names the four message flows through the bridge
type Topics struct {
	ControlIn  string
	DeviceIn   string
	ControlOut string
	DeviceOut  string
}

// DefaultTopics returns the topic names the supervisory controller and the
// serial node use
func DefaultTopics() Topics {
	return Topics{
		ControlIn:  tac.RouteControlToBridge.DefaultTopic(),
		DeviceIn:   tac.RouteDeviceToBridge.DefaultTopic(),
		ControlOut: tac.RouteBridgeToControl.DefaultTopic(),
		DeviceOut:  tac.RouteBridgeToDevice.DefaultTopic(),
	}
}

// Options configures a Router. Only Publisher is required.
type Options struct {
	Publisher    bus.Publisher
	Topics       Topics
	ControlCodec tac.Codec // defaults to JSON
	DeviceCodec  tac.Codec // defaults to JSON
	Clock        Clock
	PushDelay    time.Duration // zero selects DefaultPushDelay
	Defaults     tac.ParameterSet
	Stats        *Statistics
	Logger       *slog.Logger
	Session      string // defaults to a random UUID
}

// Router decodes inbound messages, drives the bridge state and publishes the
// resulting outbound messages. HandleControl and HandleDevice must not be called
// concurrently; Run serialises both channels onto one goroutine.
type Router struct {
	pub       bus.Publisher
	topics    Topics
	clock     Clock
	pushDelay time.Duration
	stats     *Statistics
	logger    *slog.Logger
	session   string

	controlDec *tac.Decoder
	controlEnc *tac.Encoder
	deviceDec  *tac.Decoder
	deviceEnc  *tac.Encoder

	state    *State
	snapshot atomic.Pointer[Snapshot]
}

// NewRouter creates a router with fresh state
func NewRouter(opts Options) (*Router, error) {
	if opts.Publisher == nil {
		return nil, errors.New("bridge: publisher is required")
	}
	if opts.PushDelay < 0 {
		return nil, fmt.Errorf("bridge: negative push delay %s", opts.PushDelay)
	}

	topics := opts.Topics
	defaults := DefaultTopics()
	if topics.ControlIn == "" {
		topics.ControlIn = defaults.ControlIn
	}
	if topics.DeviceIn == "" {
		topics.DeviceIn = defaults.DeviceIn
	}
	if topics.ControlOut == "" {
		topics.ControlOut = defaults.ControlOut
	}
	if topics.DeviceOut == "" {
		topics.DeviceOut = defaults.DeviceOut
	}

	controlCodec := opts.ControlCodec
	if controlCodec == nil {
		controlCodec = tac.JSON
	}
	deviceCodec := opts.DeviceCodec
	if deviceCodec == nil {
		deviceCodec = tac.JSON
	}

	r := &Router{
		pub:        opts.Publisher,
		topics:     topics,
		clock:      opts.Clock,
		pushDelay:  opts.PushDelay,
		stats:      opts.Stats,
		logger:     opts.Logger,
		session:    opts.Session,
		controlDec: tac.NewDecoder(controlCodec),
		controlEnc: tac.NewEncoder(controlCodec),
		deviceDec:  tac.NewDecoder(deviceCodec),
		deviceEnc:  tac.NewEncoder(deviceCodec),
		state:      NewState(opts.Defaults),
	}
	if r.clock == nil {
		r.clock = RealClock{}
	}
	if r.pushDelay == 0 {
		r.pushDelay = DefaultPushDelay
	}
	if r.stats == nil {
		r.stats = NewStatistics()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.session == "" {
		r.session = uuid.NewString()
	}
	r.logger = r.logger.With("session", r.session)

	r.storeSnapshot()
	return r, nil
}

// Topics returns the topic names the router uses
func (r *Router) Topics() Topics {
	return r.topics
}

// Snapshot returns the state as of the last processed message. Safe for
// concurrent use.
func (r *Router) Snapshot() *Snapshot {
	return r.snapshot.Load()
}

// Statistics returns the router's statistics tracker
func (r *Router) Statistics() *Statistics {
	return r.stats
}

func (r *Router) storeSnapshot() {
	r.snapshot.Store(r.state.snapshot(r.session, r.clock.Now()))
}

// HandleControl processes one message from the supervisory controller to
// completion, including every resulting publish and the config push delay.
// The returned error is the reason the message was dropped, if it was.
func (r *Router) HandleControl(data []byte) error {
	msg, err := r.controlDec.DecodeControl(data)
	if err != nil {
		r.drop(tac.ChannelControl, data, err)
		return err
	}

	switch m := msg.(type) {
	case tac.ConfigMessage:
		err = r.applyConfig(m.Params)
	case tac.CalibrateMessage:
		r.requestCalibration(m)
	case tac.StartMessage:
		r.setRunning(m.Run)
	}

	r.stats.RecordInbound(tac.ChannelControl, err)
	r.storeSnapshot()
	return err
}

// HandleDevice processes one message from the firmware controller to completion
func (r *Router) HandleDevice(data []byte) error {
	msg, err := r.deviceDec.DecodeDevice(data)
	if err != nil {
		r.drop(tac.ChannelDevice, data, err)
		return err
	}

	switch m := msg.(type) {
	case tac.CalibrationResult:
		r.applyCalibrationResult(m)
	case tac.ActualValues:
		r.reportActualValues(m)
	}

	r.stats.RecordInbound(tac.ChannelDevice, nil)
	r.storeSnapshot()
	return nil
}

func (r *Router) drop(ch tac.Channel, data []byte, err error) {
	r.stats.RecordInbound(ch, err)
	r.logger.Warn("dropping message", "channel", ch.String(), "error", err, "size", len(data))
}

type envelope struct {
	channel tac.Channel
	data    []byte
}

// Run subscribes to both inbound topics and processes messages one at a time
// in arrival order until ctx is cancelled
func (r *Router) Run(ctx context.Context, sub bus.Subscriber) error {
	inbox := make(chan envelope, inboxSize)

	enqueue := func(ch tac.Channel) bus.Handler {
		return func(_ string, payload []byte) {
			select {
			case inbox <- envelope{channel: ch, data: payload}:
			case <-ctx.Done():
			}
		}
	}

	if err := sub.Subscribe(r.topics.ControlIn, enqueue(tac.ChannelControl)); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.topics.ControlIn, err)
	}
	if err := sub.Subscribe(r.topics.DeviceIn, enqueue(tac.ChannelDevice)); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.topics.DeviceIn, err)
	}

	r.logger.Info("bridge running",
		"control_in", r.topics.ControlIn,
		"device_in", r.topics.DeviceIn)

	for {
		select {
		case <-ctx.Done():
			return nil
		case env := <-inbox:
			if env.channel == tac.ChannelDevice {
				r.HandleDevice(env.data)
			} else {
				r.HandleControl(env.data)
			}
		}
	}
}

// publishDevice encodes and publishes one device-bound command
func (r *Router) publishDevice(cmd tac.DeviceCommand) error {
	data, err := r.deviceEnc.EncodeCommand(cmd)
	if err == nil {
		err = r.pub.Publish(r.topics.DeviceOut, data)
	}
	r.stats.RecordPublish(cmd.Op(), err)
	if err != nil {
		r.logger.Error("publish to device failed", "op", cmd.Op(), "error", err)
		return err
	}
	r.logger.Debug("published to device", "command", tac.FormatDeviceCommand(cmd))
	return nil
}

// publishControl encodes and publishes one control-bound report
func (r *Router) publishControl(report tac.ControlReport) error {
	data, err := r.controlEnc.EncodeReport(report)
	if err == nil {
		err = r.pub.Publish(r.topics.ControlOut, data)
	}
	r.stats.RecordPublish(report.ReportAction(), err)
	if err != nil {
		r.logger.Error("publish to control failed", "action", report.ReportAction(), "error", err)
		return err
	}
	r.logger.Debug("published to control", "report", tac.FormatControlReport(report))
	return nil
}

func (r *Router) setRunning(run bool) {
	r.state.Running = run
	r.logger.Info("run state changed", "running", run)
	r.publishDevice(tac.NewStartCommand(run))
}
