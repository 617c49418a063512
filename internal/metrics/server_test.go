// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package metrics

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/tacbridge/internal/bridge"
	"github.com/Thermoquad/tacbridge/pkg/tac"
)

type staticState struct {
	snap *bridge.Snapshot
}

func (s staticState) Snapshot() *bridge.Snapshot { return s.snap }

func newTestServer(t *testing.T, snap *bridge.Snapshot) (*httptest.Server, *bridge.Statistics) {
	t.Helper()
	stats := bridge.NewStatistics()
	srv, err := NewServer(staticState{snap}, stats, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, stats
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestServer_Status(t *testing.T) {
	snap := &bridge.Snapshot{
		Session:     "abc",
		Parameters:  tac.ParameterSet{tac.ParamTargetTemperature: 37, tac.ParamTmax: 55},
		Calibration: bridge.Calibration{Turb0: 1, Turb100: 2},
		Actual:      bridge.Actual{Temperature: 36.5},
		Running:     true,
		UpdatedAt:   time.Unix(1700000000, 0).UTC(),
	}
	ts, _ := newTestServer(t, snap)

	code, body := get(t, ts.URL+"/api/status")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}

	var got struct {
		Session     string             `json:"session"`
		Parameters  map[string]float64 `json:"parameters"`
		Calibration map[string]float64 `json:"calibration"`
		Actual      map[string]float64 `json:"actual"`
		Running     bool               `json:"running"`
	}
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	if got.Session != "abc" || !got.Running {
		t.Errorf("status = %+v", got)
	}
	if got.Parameters["target_temperature"] != 37 {
		t.Errorf("parameters = %v", got.Parameters)
	}
	if got.Calibration["turb_100"] != 2 || got.Actual["actual_temperature"] != 36.5 {
		t.Errorf("calibration = %v, actual = %v", got.Calibration, got.Actual)
	}
}

func TestServer_StatusNotStarted(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	if code, _ := get(t, ts.URL+"/api/status"); code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", code)
	}
}

func TestServer_Metrics(t *testing.T) {
	ts, stats := newTestServer(t, &bridge.Snapshot{})

	stats.RecordInbound(tac.ChannelControl, nil)
	stats.RecordInbound(tac.ChannelControl, tac.ErrMalformed)
	stats.RecordInbound(tac.ChannelDevice, nil)
	stats.RecordValidation([]tac.ValidationError{{Param: tac.ParamMotorSpeed, Clamped: true}})
	stats.RecordPush()
	stats.RecordPublish(tac.OpParameters, nil)

	code, body := get(t, ts.URL+"/metrics")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}

	for _, want := range []string{
		`tacbridge_messages_received_total{channel="control"} 2`,
		`tacbridge_messages_received_total{channel="device"} 1`,
		`tacbridge_messages_dropped_total{reason="malformed"} 1`,
		`tacbridge_parameters_clamped_total{param="motor_speed"} 1`,
		`tacbridge_config_pushes_total 1`,
		`tacbridge_messages_published_total{kind="p"} 1`,
		`go_goroutines`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestServer_Statistics(t *testing.T) {
	ts, stats := newTestServer(t, &bridge.Snapshot{})
	stats.RecordInbound(tac.ChannelDevice, tac.ErrUnknownAction)

	code, body := get(t, ts.URL+"/api/statistics")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var got statisticsResponse
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Device != 1 || got.Dropped["unknown_action"] != 1 {
		t.Errorf("statistics = %+v", got)
	}
}

func TestServer_Healthz(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	code, body := get(t, ts.URL+"/healthz")
	if code != http.StatusOK || body != "ok\n" {
		t.Errorf("healthz = %d %q", code, body)
	}

	resp, err := http.Post(ts.URL+"/healthz", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST /healthz = %d, want 405", resp.StatusCode)
	}
}
