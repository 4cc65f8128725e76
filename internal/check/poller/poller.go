// Package poller periodically sweeps pending checks and refreshes them from
// the provider, so checks converge even when nobody clicks refresh.
package poller

import (
	"context"
	"log/slog"
	"time"
)

// Refresher is the slice of the check service the poller needs.
type Refresher interface {
	RefreshPending(ctx context.Context, limit int) (int, error)
}

// Poller runs a refresh sweep on a fixed interval.
type Poller struct {
	refresher Refresher
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

// New constructs a Poller. batchSize bounds how many checks one sweep touches
// so a large backlog cannot monopolize the provider connection.
func New(refresher Refresher, interval time.Duration, batchSize int, logger *slog.Logger) *Poller {
	if batchSize <= 0 {
		batchSize = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		refresher: refresher,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run sweeps until ctx is cancelled. It blocks; callers run it in a goroutine.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.InfoContext(ctx, "status poller started",
		"interval", p.interval, "batch_size", p.batchSize)

	for {
		select {
		case <-ctx.Done():
			p.logger.InfoContext(ctx, "status poller stopped")
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

func (p *Poller) sweep(ctx context.Context) {
	start := time.Now()
	refreshed, err := p.refresher.RefreshPending(ctx, p.batchSize)
	if err != nil {
		p.logger.WarnContext(ctx, "poller sweep failed", "error", err)
		return
	}
	if refreshed > 0 {
		p.logger.InfoContext(ctx, "poller sweep finished",
			"refreshed", refreshed, "duration", time.Since(start))
	}
}
