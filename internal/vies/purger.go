package vies

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// expiredPurger deletes expired cache entries.
type expiredPurger interface {
	Purge(ctx context.Context) (int64, error)
}

// Purger clears expired VIES checks at midnight UTC every day.
type Purger struct {
	cache  expiredPurger
	logger *slog.Logger

	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// NewPurger creates a purger for cache.
func NewPurger(cache expiredPurger, logger *slog.Logger) *Purger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Purger{
		cache:  cache,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Start purges once and then runs the daily loop in a goroutine.
func (p *Purger) Start(ctx context.Context) {
	p.purge(ctx)

	p.wg.Add(1)
	go p.loop()
}

// Stop signals the loop to exit and waits for it. Safe to call twice.
func (p *Purger) Stop() {
	p.once.Do(func() {
		p.logger.Info("stopping VIES cache purger")
		close(p.stopCh)
	})
	p.wg.Wait()
}

func (p *Purger) loop() {
	defer p.wg.Done()

	wait := untilNextMidnightUTC(time.Now())
	p.logger.Info("VIES cache purge scheduled", "in", wait.Round(time.Second).String())

	select {
	case <-time.After(wait):
	case <-p.stopCh:
		return
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		p.purge(ctx)
		cancel()

		select {
		case <-ticker.C:
		case <-p.stopCh:
			p.logger.Info("VIES cache purger stopped")
			return
		}
	}
}

func (p *Purger) purge(ctx context.Context) {
	n, err := p.cache.Purge(ctx)
	if err != nil {
		p.logger.Error("VIES cache purge failed", "error", err)
		return
	}
	p.logger.Info("VIES cache purged", "removed", n)
}

func untilNextMidnightUTC(now time.Time) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return next.Sub(now)
}
