package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/ingest"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
)

type mockRunner struct {
	mu      sync.Mutex
	reasons []model.Reason
	calls   chan struct{}
	err     error
}

func newMockRunner() *mockRunner {
	return &mockRunner{calls: make(chan struct{}, 16)}
}

func (m *mockRunner) Run(_ context.Context, reason model.Reason) (ingest.Summary, error) {
	m.mu.Lock()
	m.reasons = append(m.reasons, reason)
	m.mu.Unlock()
	m.calls <- struct{}{}
	return ingest.Summary{}, m.err
}

func (m *mockRunner) getReasons() []model.Reason {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Reason{}, m.reasons...)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestInterval(t *testing.T) {
	tests := []struct {
		name  string
		hours float64
		want  time.Duration
	}{
		{name: "default", hours: 2, want: 2 * time.Hour},
		{name: "fractional", hours: 0.5, want: 30 * time.Minute},
		{name: "below floor", hours: 0.1, want: MinInterval},
		{name: "exactly floor", hours: 10.0 / 60, want: MinInterval},
		{name: "zero", hours: 0, want: MinInterval},
		{name: "negative", hours: -3, want: MinInterval},
		{name: "not a number", hours: math.NaN(), want: MinInterval},
		{name: "large", hours: 1e6, want: 1e6 * time.Hour},
		{name: "beyond duration range", hours: 1e10, want: MaxInterval},
		{name: "infinite", hours: math.Inf(1), want: MaxInterval},
		{name: "negative infinite", hours: math.Inf(-1), want: MinInterval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Interval(tt.hours)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Interval(%v) mismatch (-want +got):\n%s", tt.hours, diff)
			}
		})
	}
}

func TestSchedulePeriod(t *testing.T) {
	s := New(newMockRunner(), discard)
	if diff := cmp.Diff(2*time.Hour, s.Period()); diff != "" {
		t.Errorf("default period mismatch (-want +got):\n%s", diff)
	}
	s.Schedule(6)
	s.Schedule(0.05)
	if diff := cmp.Diff(MinInterval, s.Period()); diff != "" {
		t.Errorf("period mismatch (-want +got):\n%s", diff)
	}
}

func TestRunFiresAlarm(t *testing.T) {
	runner := newMockRunner()
	s := New(runner, discard)
	s.setPeriod(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	for range 2 {
		select {
		case <-runner.calls:
		case <-time.After(2 * time.Second):
			t.Fatal("scheduled run did not fire")
		}
	}
	cancel()
	<-done

	for _, r := range runner.getReasons() {
		if r != model.ReasonAlarm {
			t.Errorf("unexpected reason %q", r)
		}
	}
}

func TestRescheduleReplacesTimer(t *testing.T) {
	runner := newMockRunner()
	s := New(runner, discard)
	s.setPeriod(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.setPeriod(20 * time.Millisecond)

	select {
	case <-runner.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("rescheduled run did not fire")
	}
}

func TestRunSurvivesRunnerError(t *testing.T) {
	runner := newMockRunner()
	runner.err = errors.New("store down")
	s := New(runner, discard)
	s.setPeriod(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	for range 2 {
		select {
		case <-runner.calls:
		case <-time.After(2 * time.Second):
			t.Fatal("scheduler stopped after runner error")
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New(newMockRunner(), discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
