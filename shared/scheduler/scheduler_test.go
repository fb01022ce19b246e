package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"camwatch/shared/config"
)

type fakeMetrics string

func (f fakeMetrics) GetSummary() string { return string(f) }

type fakeAgent struct {
	err     error
	partial error
	runs    int
}

func (f *fakeAgent) Name() string      { return "Fake Agent" }
func (f *fakeAgent) Initialize() error { return nil }

func (f *fakeAgent) RunOnce(ctx context.Context, logger *slog.Logger, events *AgentEvents) error {
	f.runs++
	if f.err != nil {
		return f.err
	}
	if f.partial != nil {
		events.OnPartialFailure(f.partial, time.Millisecond)
	}
	events.OnSuccess(fakeMetrics("done"), time.Millisecond)
	return nil
}

func newTestScheduler(agent Agent) *Scheduler {
	cfg := &config.Config{Schedule: "0 */10 * * * *"}
	return New(cfg, agent, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRunOnceSuccess(t *testing.T) {
	agent := &fakeAgent{}
	s := newTestScheduler(agent)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if agent.runs != 1 {
		t.Errorf("Expected 1 run, got %d", agent.runs)
	}
	if !s.Monitor().IsHealthy() {
		t.Error("Expected healthy monitor after success")
	}
}

func TestRunOncePartialFailureStaysHealthy(t *testing.T) {
	s := newTestScheduler(&fakeAgent{partial: errors.New("send rejected")})

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !s.Monitor().IsHealthy() {
		t.Error("Partial failure must not mark the monitor unhealthy")
	}
}

func TestRunOnceFailure(t *testing.T) {
	sentinel := errors.New("fetch failed")
	s := newTestScheduler(&fakeAgent{err: sentinel})

	err := s.RunOnce(context.Background())
	if !errors.Is(err, sentinel) {
		t.Fatalf("Expected wrapped sentinel, got %v", err)
	}
	if s.Monitor().IsHealthy() {
		t.Error("Expected unhealthy monitor after failure")
	}
}
