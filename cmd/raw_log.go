// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/tacbridge/internal/bus"
	"github.com/Thermoquad/tacbridge/internal/config"
	"github.com/Thermoquad/tacbridge/pkg/tac"
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display all bridge traffic in human-readable format",
	Long: `Continuously decode and display messages on the four bridge topics as
they arrive, with timestamp, topic, and decoded content. Messages that do not
decode are shown as key=value pairs or a hex dump.

With the link transport only inbound traffic (from the WebSocket and the
serial port) is visible.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
}

// rawPrinter prints messages from any topic. Handlers may run on several
// transport goroutines, so output is serialised.
type rawPrinter struct {
	mu      sync.Mutex
	routes  map[string]tac.Route
	control *tac.Decoder
	device  *tac.Decoder
	now     func() time.Time
	print   func(string)
}

func newRawPrinter(c *config.Config, deviceCodec tac.Codec) *rawPrinter {
	return &rawPrinter{
		routes:  routes(c),
		control: tac.NewDecoder(tac.JSON),
		device:  tac.NewDecoder(deviceCodec),
		now:     time.Now,
		print:   func(s string) { fmt.Print(s) },
	}
}

func (p *rawPrinter) handle(topic string, payload []byte) {
	route := p.routes[topic]
	dec := p.control
	if route == tac.RouteDeviceToBridge || route == tac.RouteBridgeToDevice {
		dec = p.device
	}

	line := tac.FormatRaw(topic, route, payload, dec, p.now())

	p.mu.Lock()
	p.print(line)
	p.mu.Unlock()
}

func runRawLog(cmd *cobra.Command, args []string) error {
	deviceCodec, err := cfg.DeviceCodec()
	if err != nil {
		return err
	}

	b, connInfo, err := OpenBus(cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	fmt.Printf("Tacbridge - Raw Message Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	printer := newRawPrinter(cfg, deviceCodec)
	t := topics(cfg)
	for _, topic := range []string{t.ControlIn, t.DeviceIn, t.ControlOut, t.DeviceOut} {
		err := b.Subscribe(topic, printer.handle)
		if errors.Is(err, bus.ErrUnknownTopic) {
			continue
		}
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return nil
}
