// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package metrics exposes bridge statistics to Prometheus and serves the
// status API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Thermoquad/tacbridge/internal/bridge"
)

const namespace = "tacbridge"

// StatsSource provides a point-in-time copy of the bridge counters
type StatsSource interface {
	Snapshot() bridge.StatsSnapshot
}

// Collector converts bridge statistics to Prometheus metrics at scrape time
type Collector struct {
	source StatsSource

	messages      *prometheus.Desc
	dropped       *prometheus.Desc
	pending       *prometheus.Desc
	clamped       *prometheus.Desc
	rateWarnings  *prometheus.Desc
	configPushes  *prometheus.Desc
	published     *prometheus.Desc
	publishErrors *prometheus.Desc
	uptime        *prometheus.Desc
}

// NewCollector creates a collector reading from source
func NewCollector(source StatsSource) *Collector {
	return &Collector{
		source: source,
		messages: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "messages_received_total"),
			"Inbound messages by channel.",
			[]string{"channel"}, nil),
		dropped: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "messages_dropped_total"),
			"Inbound messages dropped, by reason.",
			[]string{"reason"}, nil),
		pending: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "configs_pending_total"),
			"Incomplete configs kept until the remaining parameters arrive.",
			nil, nil),
		clamped: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "parameters_clamped_total"),
			"Parameters replaced with a physical limit before a push.",
			[]string{"param"}, nil),
		rateWarnings: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "refresh_rate_warnings_total"),
			"Pushes carrying a refresh rate above the warning limit.",
			nil, nil),
		configPushes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "config_pushes_total"),
			"Completed configuration push sequences.",
			nil, nil),
		published: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "messages_published_total"),
			"Outbound messages by device opcode or control action.",
			[]string{"kind"}, nil),
		publishErrors: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "publish_errors_total"),
			"Outbound messages that failed to encode or publish.",
			nil, nil),
		uptime: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "uptime_seconds"),
			"Seconds since statistics were last reset.",
			nil, nil),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.messages
	ch <- c.dropped
	ch <- c.pending
	ch <- c.clamped
	ch <- c.rateWarnings
	ch <- c.configPushes
	ch <- c.published
	ch <- c.publishErrors
	ch <- c.uptime
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.messages, prometheus.CounterValue, float64(s.ControlMessages), "control")
	ch <- prometheus.MustNewConstMetric(c.messages, prometheus.CounterValue, float64(s.DeviceMessages), "device")
	for reason, n := range s.Dropped {
		ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(n), reason)
	}
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.CounterValue, float64(s.PendingConfigs))
	for param, n := range s.Clamped {
		ch <- prometheus.MustNewConstMetric(c.clamped, prometheus.CounterValue, float64(n), param)
	}
	ch <- prometheus.MustNewConstMetric(c.rateWarnings, prometheus.CounterValue, float64(s.RateWarnings))
	ch <- prometheus.MustNewConstMetric(c.configPushes, prometheus.CounterValue, float64(s.ConfigPushes))
	for kind, n := range s.Published {
		ch <- prometheus.MustNewConstMetric(c.published, prometheus.CounterValue, float64(n), kind)
	}
	ch <- prometheus.MustNewConstMetric(c.publishErrors, prometheus.CounterValue, float64(s.PublishErrors))
	ch <- prometheus.MustNewConstMetric(c.uptime, prometheus.GaugeValue, time.Since(s.StartTime).Seconds())
}
