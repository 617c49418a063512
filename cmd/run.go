// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/tacbridge/internal/bridge"
	"github.com/Thermoquad/tacbridge/internal/metrics"
)

var (
	httpListen string
	showStats  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bridge",
	Long: `Run the bridge between the supervisory controller and the firmware.

Each inbound message is handled to completion before the next one, on both
sides. A complete configuration is pushed to the firmware as:

  {"a":"g","params":true}     enter configuration mode
  (push delay, 2s by default)
  {"a":"p", t, u, r, m, ...}  parameters
  {"a":"g","params":false}    leave configuration mode

With --listen (or http.listen), the current state is served at /api/status,
statistics at /api/statistics and Prometheus metrics at /metrics.`,
	RunE: runBridge,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&httpListen, "listen", "", "Address for the status and metrics server (e.g. :9100)")
	runCmd.Flags().BoolVar(&showStats, "stats", true, "Print statistics on exit")
}

func runBridge(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("listen") {
		cfg.HTTP.Listen = httpListen
	}

	deviceCodec, err := cfg.DeviceCodec()
	if err != nil {
		return err
	}

	b, connInfo, err := OpenBus(cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	session := uuid.NewString()
	stats := bridge.NewStatistics()
	router, err := bridge.NewRouter(bridge.Options{
		Publisher:   b,
		Topics:      topics(cfg),
		DeviceCodec: deviceCodec,
		PushDelay:   cfg.Bridge.PushDelay,
		Defaults:    cfg.ParameterDefaults(),
		Stats:       stats,
		Logger:      logger,
		Session:     session,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.HTTP.Listen != "" {
		srv, err := metrics.NewServer(router, stats, logger)
		if err != nil {
			return err
		}
		go func() {
			if err := srv.Run(ctx, cfg.HTTP.Listen); err != nil {
				logger.Error("status server stopped", "error", err)
			}
		}()
	}

	fmt.Printf("Tacbridge - Protocol Bridge\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Device encoding: %s\n", deviceCodec.Name())
	fmt.Printf("Press Ctrl+C to exit\n\n")

	err = router.Run(ctx, b)

	if showStats {
		fmt.Print("\n" + stats.Snapshot().String())
	}
	return err
}
