package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Runner periodically drives every configured adapter through the
// orchestrator, one page at a time.
type Runner struct {
	interval time.Duration
	orch     *Orchestrator
	adapters []Adapter
	logger   *slog.Logger

	mu          sync.Mutex
	lastReports map[string]*BatchReport

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner creates a Runner over the given adapters.
func NewRunner(interval time.Duration, orch *Orchestrator, adapters []Adapter, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		interval:    interval,
		orch:        orch,
		adapters:    adapters,
		logger:      logger,
		lastReports: make(map[string]*BatchReport),
	}
}

// Start begins the sync loop. The first cycle runs immediately.
func (r *Runner) Start(ctx context.Context) error {
	if len(r.adapters) == 0 {
		return fmt.Errorf("no adapters configured")
	}
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.run()

	r.logger.Info("sync runner started",
		"adapters", len(r.adapters),
		"interval", r.interval,
	)
	return nil
}

// Stop gracefully shuts down.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("sync runner stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastReport returns the most recent report for an exchange, if any.
func (r *Runner) LastReport(exchange string) (*BatchReport, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.lastReports[exchange]
	return rep, ok
}

func (r *Runner) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Sync immediately on start.
	r.syncAll()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.syncAll()
		}
	}
}

// syncAll runs one full cycle across every adapter.
func (r *Runner) syncAll() {
	start := time.Now()
	for _, adapter := range r.adapters {
		if r.ctx.Err() != nil {
			return
		}
		if err := r.syncExchange(adapter); err != nil {
			r.logger.Error("exchange sync failed",
				"exchange", adapter.Exchange(),
				"err", err,
			)
		}
	}
	r.logger.Info("sync cycle complete", "duration", time.Since(start))
}

// syncExchange pages through one adapter. A fetch failure aborts the
// remaining pages of this exchange only; committed pages stay committed.
func (r *Runner) syncExchange(adapter Adapter) error {
	exchange := adapter.Exchange()
	cursor := ""

	for {
		payloads, next, err := adapter.FetchBatch(r.ctx, cursor)
		if err != nil {
			return fmt.Errorf("fetch batch (cursor %q): %w", cursor, err)
		}
		if len(payloads) == 0 && next == "" {
			return nil
		}

		report := r.orch.SyncBatch(r.ctx, exchange, payloads)

		r.mu.Lock()
		r.lastReports[exchange] = report
		r.mu.Unlock()

		if next == "" {
			return nil
		}
		cursor = next
	}
}
