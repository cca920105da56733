package sync

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/market-sync/internal/model"
	"github.com/rickgao/market-sync/internal/normalize"
	"github.com/rickgao/market-sync/internal/resolve"
	"github.com/rickgao/market-sync/internal/store"
)

// Storage is the store surface the orchestrator drives commits through.
type Storage interface {
	Get(ctx context.Context, marketID, exchange string) (*model.MarketRecord, error)
	Commit(ctx context.Context, decision resolve.Decision, rec *model.MarketRecord) (store.CommitResult, error)
}

// Config holds orchestrator settings.
type Config struct {
	Workers       int           // concurrent commits across distinct keys
	BatchDeadline time.Duration // overall deadline per batch (0 = none)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:       8,
		BatchDeadline: 5 * time.Minute,
	}
}

// Orchestrator pipelines raw payloads through normalize, resolve, commit.
type Orchestrator struct {
	cfg        Config
	normalizer *normalize.Normalizer
	storage    Storage
	logger     *slog.Logger
}

// New creates an Orchestrator.
func New(cfg Config, normalizer *normalize.Normalizer, storage Storage, logger *slog.Logger) *Orchestrator {
	if cfg.Workers < 1 {
		cfg.Workers = DefaultConfig().Workers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:        cfg,
		normalizer: normalizer,
		storage:    storage,
		logger:     logger,
	}
}

// item is one batch entry that survived normalization.
type item struct {
	rawID string
	rec   model.MarketRecord
}

// SyncBatch processes one batch of raw payloads from a single exchange.
// Every payload's fate lands in the returned report; per-record failures
// never abort siblings.
func (o *Orchestrator) SyncBatch(ctx context.Context, exchange string, raws []map[string]any) *BatchReport {
	c := newCollector(exchange)

	if o.cfg.BatchDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.BatchDeadline)
		defer cancel()
	}

	// Normalize everything up front: pure, fast, and it yields the keys
	// needed to keep same-key records ordered.
	groups := o.normalizeAndGroup(exchange, raws, c)

	c.setState(Processing)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)

	for _, group := range groups {
		g.Go(func() error {
			// Same-key records run sequentially in input order so a batch
			// never races against itself.
			for _, it := range group {
				o.processItem(gctx, it, c)
			}
			return nil
		})
	}
	g.Wait() // workers report, they never error

	report := c.finish()
	o.logger.Info("batch sync complete",
		"batch_id", report.BatchID,
		"exchange", exchange,
		"total", report.Total(),
		"inserted", report.Inserted,
		"updated", report.Updated,
		"unchanged", report.Unchanged,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"duration", time.Since(start),
	)
	return report
}

// normalizeAndGroup converts raw payloads to records, recording failures,
// and groups surviving records by identity key preserving input order.
func (o *Orchestrator) normalizeAndGroup(exchange string, raws []map[string]any, c *collector) [][]item {
	var groups [][]item
	index := make(map[string]int)

	for _, raw := range raws {
		rawID := normalize.RawIdentifier(raw)

		rec, err := o.normalizer.Normalize(exchange, raw)
		if err != nil {
			c.failed(rawID, failureKind(err), err)
			continue
		}

		it := item{rawID: rawID, rec: rec}
		key := rec.Key()
		if i, ok := index[key]; ok {
			groups[i] = append(groups[i], it)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, []item{it})
	}
	return groups
}

// processItem runs resolve+commit for one record and records its fate.
func (o *Orchestrator) processItem(ctx context.Context, it item, c *collector) {
	if ctx.Err() != nil {
		c.skipped(it.rawID)
		return
	}

	existing, err := o.storage.Get(ctx, it.rec.MarketID, it.rec.Exchange)
	if err != nil {
		if deadlineHit(ctx, err) {
			c.skipped(it.rawID)
			return
		}
		c.failed(it.rawID, failureKind(err), err)
		return
	}

	decision := resolve.Resolve(&it.rec, existing)
	if existing != nil {
		// Carry store-assigned fields so NoOp results report them.
		it.rec.ID = existing.ID
		it.rec.CreatedAt = existing.CreatedAt
		it.rec.UpdatedAt = existing.UpdatedAt
	}

	res, err := o.storage.Commit(ctx, decision, &it.rec)
	if err != nil {
		if deadlineHit(ctx, err) {
			c.skipped(it.rawID)
			return
		}
		c.failed(it.rawID, failureKind(err), err)
		return
	}

	switch res.Outcome {
	case store.Inserted:
		c.inserted()
	case store.Updated:
		c.updated()
	case store.Unchanged:
		c.unchanged()
	}
}

// deadlineHit reports whether the error is the batch deadline or
// cancellation rather than a record-level failure.
func deadlineHit(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

// failureKind classifies an error for the report.
func failureKind(err error) string {
	if kind, ok := normalize.KindOf(err); ok {
		return kind.String()
	}
	var ce *store.ConstraintError
	if errors.As(err, &ce) {
		return "constraint"
	}
	var te *store.TransientError
	if errors.As(err, &te) {
		return "transient_store"
	}
	return "commit"
}
