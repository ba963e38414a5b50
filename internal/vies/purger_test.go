package vies

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (p *countingPurger) Purge(context.Context) (int64, error) {
	p.calls.Add(1)
	return 2, p.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPurger_StartPurgesImmediately(t *testing.T) {
	cache := &countingPurger{}
	p := NewPurger(cache, quietLogger())

	p.Start(context.Background())
	p.Stop()
	p.Stop()

	if cache.calls.Load() != 1 {
		t.Errorf("expected 1 purge, got %d", cache.calls.Load())
	}
}

func TestPurger_FailureDoesNotStopLoop(t *testing.T) {
	cache := &countingPurger{err: errors.New("db down")}
	p := NewPurger(cache, quietLogger())

	p.Start(context.Background())
	defer p.Stop()

	if cache.calls.Load() != 1 {
		t.Errorf("expected 1 purge attempt, got %d", cache.calls.Load())
	}
}

func TestUntilNextMidnightUTC(t *testing.T) {
	tests := []struct {
		now  time.Time
		want time.Duration
	}{
		{time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC), time.Hour},
		{time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 24 * time.Hour},
		{time.Date(2025, 12, 31, 12, 30, 0, 0, time.UTC), 11*time.Hour + 30*time.Minute},
		{time.Date(2025, 6, 1, 1, 0, 0, 0, time.FixedZone("CEST", 2*3600)), time.Hour},
	}

	for _, tt := range tests {
		if got := untilNextMidnightUTC(tt.now); got != tt.want {
			t.Errorf("untilNextMidnightUTC(%v) = %v, want %v", tt.now, got, tt.want)
		}
	}
}
