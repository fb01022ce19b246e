package monitoring

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMonitorHealthTransitions(t *testing.T) {
	m := NewMonitor(slog.New(slog.NewTextHandler(io.Discard, nil)))

	if !m.IsHealthy() {
		t.Error("Monitor without runs should be healthy")
	}
	if m.GetStatusSummary() != "No runs yet" {
		t.Errorf("Unexpected summary: %s", m.GetStatusSummary())
	}

	m.RecordCriticalFailure(errors.New("weather fetch failed"), time.Second)
	if m.IsHealthy() {
		t.Error("Monitor should be unhealthy after a critical failure")
	}

	m.RecordPartialFailure(errors.New("send rejected"), time.Second)
	if m.IsHealthy() {
		t.Error("Partial failure must not change health status")
	}

	m.RecordSuccess("image sent", time.Second)
	if !m.IsHealthy() {
		t.Error("Monitor should be healthy after success")
	}
	if !strings.Contains(m.GetStatusSummary(), "image sent") {
		t.Errorf("Summary should mention last outcome: %s", m.GetStatusSummary())
	}
}

func TestHealthHandler(t *testing.T) {
	m := NewMonitor(slog.New(slog.NewTextHandler(io.Discard, nil)))
	server := httptest.NewServer(NewHealthServer(m, "", slog.New(slog.NewTextHandler(io.Discard, nil))).Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	m.RecordCriticalFailure(errors.New("boom"), time.Millisecond)

	resp, err = http.Get(server.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "boom") {
		t.Errorf("Status should include failure: %s", body)
	}
}
