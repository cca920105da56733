package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/market-sync/internal/cache"
	"github.com/rickgao/market-sync/internal/model"
	"github.com/rickgao/market-sync/internal/resolve"
)

// DB is the subset of pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Outcome reports what a commit did.
type Outcome int

const (
	Inserted Outcome = iota
	Updated
	Unchanged
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	case Unchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// CommitResult reports the outcome of a single commit.
type CommitResult struct {
	Outcome   Outcome
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	Attempts  int
}

// Store is the markets store: the Upsert Committer plus the read surface.
type Store struct {
	db     DB
	cache  *cache.Cache // optional, nil disables
	retry  RetryConfig
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithCache installs the optional read-through cache.
func WithCache(c *cache.Cache) Option {
	return func(s *Store) { s.cache = c }
}

// WithRetryConfig overrides the commit retry bounds.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(s *Store) { s.retry = cfg }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a Store backed by the given database.
func New(db DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		retry:  DefaultRetryConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// contentColumns is the persisted column order for all caller-supplied
// fields. Delta field names from the resolver index into this set.
var contentColumns = []string{
	"name", "rules", "resolve_date", "resolve_time", "category", "subcategory",
	"tags", "description", "image_url", "liquidity", "volume", "extra",
}

// Commit applies a resolved decision for the record. NoOp issues no write.
// Insert and Update both run the atomic upsert so a concurrent first write
// for the same key degrades to last-write-wins instead of a constraint
// error. Transient failures are retried with bounded exponential backoff.
func (s *Store) Commit(ctx context.Context, decision resolve.Decision, rec *model.MarketRecord) (CommitResult, error) {
	if decision.Kind == resolve.NoOp {
		return CommitResult{
			Outcome:   Unchanged,
			ID:        rec.ID,
			CreatedAt: rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
		}, nil
	}

	if err := rec.Validate(); err != nil {
		return CommitResult{}, fmt.Errorf("malformed record %s: %w", rec.Key(), err)
	}

	sql, args := buildUpsert(rec, decision)

	var id uuid.UUID
	var createdAt, updatedAt time.Time

	attempts, err := withRetry(ctx, s.retry, s.logger, func(ctx context.Context) error {
		row := s.db.QueryRow(ctx, sql, args...)
		if err := row.Scan(&id, &createdAt, &updatedAt); err != nil {
			return classify(err)
		}
		return nil
	})
	if err != nil {
		return CommitResult{Attempts: attempts}, err
	}

	rec.ID = id
	rec.CreatedAt = createdAt
	rec.UpdatedAt = updatedAt

	if s.cache != nil {
		s.cache.Set(ctx, rec)
	}

	outcome := Inserted
	if decision.Kind == resolve.Update {
		outcome = Updated
	}

	s.logger.Debug("record committed",
		"key", rec.Key(),
		"outcome", outcome,
		"changed_fields", decision.Fields(),
		"attempts", attempts,
	)

	return CommitResult{
		Outcome:   outcome,
		ID:        id,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		Attempts:  attempts,
	}, nil
}

// buildUpsert renders the atomic insert-or-update statement. For Update
// decisions only the changed columns from the delta are written; for
// Insert decisions every content column is listed so a lost insert race
// still applies the full record. created_at is never part of the update
// set; updated_at always is.
func buildUpsert(rec *model.MarketRecord, decision resolve.Decision) (string, []any) {
	setCols := decision.Fields()
	if decision.Kind == resolve.Insert || len(setCols) == 0 {
		setCols = contentColumns
	}

	sql := `
		INSERT INTO markets (
			id, market_id, exchange,
			name, rules, resolve_date, resolve_time, category, subcategory,
			tags, description, image_url, liquidity, volume, extra,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7::time, $8, $9, $10, $11, $12, $13, $14, $15, now(), now())
		ON CONFLICT (market_id, exchange) DO UPDATE SET `
	for i, col := range setCols {
		if i > 0 {
			sql += ", "
		}
		sql += col + " = EXCLUDED." + col
	}
	sql += `, updated_at = now()
		RETURNING id, created_at, updated_at`

	args := []any{
		uuid.New(), rec.MarketID, rec.Exchange,
		rec.Name, nullIfEmpty(rec.Rules), nullIfZeroDate(rec.ResolveDate), nullIfEmpty(rec.ResolveTime),
		nullIfEmpty(rec.Category), nullIfEmpty(rec.Subcategory),
		rec.Tags, nullIfEmpty(rec.Description), nullIfEmpty(rec.ImageURL),
		rec.Liquidity, rec.Volume, extraOrNil(rec.Extra),
	}
	return sql, args
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullIfZeroDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func extraOrNil(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	return m
}

const selectColumns = `
	id, market_id, exchange, name, rules, resolve_date, resolve_time::text,
	category, subcategory, tags, description, image_url, liquidity, volume,
	extra, created_at, updated_at`

// Get returns the stored record for the key, or nil when absent. When a
// cache is installed, a cached copy short-circuits the query; the
// database remains authoritative on every miss.
//
// A cache hit may lag the database by up to the cache TTL. Because every
// commit refreshes the entry, a single syncer only ever reads its own
// last write; with multiple writers on one store, a stale hit can make
// resolution report NoOp for a change another writer already made, which
// self-corrects on the first read after the entry expires. Deployments
// that cannot tolerate that window should leave the cache disabled.
func (s *Store) Get(ctx context.Context, marketID, exchange string) (*model.MarketRecord, error) {
	if s.cache != nil {
		if rec, ok := s.cache.Get(ctx, marketID, exchange); ok {
			return rec, nil
		}
	}

	row := s.db.QueryRow(ctx,
		`SELECT`+selectColumns+` FROM markets WHERE market_id = $1 AND exchange = $2`,
		marketID, exchange)

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, rec)
	}
	return rec, nil
}

// scanRecord reads one row in selectColumns order.
func scanRecord(row pgx.Row) (*model.MarketRecord, error) {
	var rec model.MarketRecord
	var rules, resolveTime, category, subcategory, description, imageURL *string
	var resolveDate *time.Time

	err := row.Scan(
		&rec.ID, &rec.MarketID, &rec.Exchange, &rec.Name, &rules,
		&resolveDate, &resolveTime, &category, &subcategory, &rec.Tags,
		&description, &imageURL, &rec.Liquidity, &rec.Volume, &rec.Extra,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Rules = deref(rules)
	rec.ResolveTime = deref(resolveTime)
	rec.Category = deref(category)
	rec.Subcategory = deref(subcategory)
	rec.Description = deref(description)
	rec.ImageURL = deref(imageURL)
	if resolveDate != nil {
		rec.ResolveDate = *resolveDate
	}
	return &rec, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
