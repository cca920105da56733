package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/market-sync/internal/model"
	"github.com/rickgao/market-sync/internal/resolve"
)

// fakeRow implements pgx.Row.
type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

// fakeDB implements the DB interface for commit tests. Note: actual
// database round-trips are covered by integration environments, not here.
type fakeDB struct {
	queryRow func(sql string, args []any) pgx.Row
	calls    int
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("unexpected Exec")
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected Query")
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	db.calls++
	return db.queryRow(sql, args)
}

func successRow(id uuid.UUID, createdAt, updatedAt time.Time) pgx.Row {
	return fakeRow{scan: func(dest ...any) error {
		*(dest[0].(*uuid.UUID)) = id
		*(dest[1].(*time.Time)) = createdAt
		*(dest[2].(*time.Time)) = updatedAt
		return nil
	}}
}

func testRecord() *model.MarketRecord {
	liq := 100.0
	return &model.MarketRecord{
		MarketID:  "M1",
		Exchange:  model.ExchangeKalshi,
		Name:      "Will X happen?",
		Liquidity: &liq,
		Extra:     map[string]any{"foo": "bar"},
	}
}

func TestCommit_NoOpIssuesNoWrite(t *testing.T) {
	db := &fakeDB{}
	s := New(db, WithRetryConfig(fastRetry()))

	rec := testRecord()
	rec.UpdatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	res, err := s.Commit(context.Background(), resolve.Decision{Kind: resolve.NoOp}, rec)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if res.Outcome != Unchanged {
		t.Errorf("Outcome = %v, want Unchanged", res.Outcome)
	}
	if db.calls != 0 {
		t.Errorf("NoOp issued %d writes, want 0", db.calls)
	}
	if !res.UpdatedAt.Equal(rec.UpdatedAt) {
		t.Error("NoOp must not advance updated_at")
	}
}

func TestCommit_Insert(t *testing.T) {
	id := uuid.New()
	now := time.Now().UTC()
	db := &fakeDB{queryRow: func(sql string, args []any) pgx.Row {
		return successRow(id, now, now)
	}}
	s := New(db, WithRetryConfig(fastRetry()))

	rec := testRecord()
	res, err := s.Commit(context.Background(), resolve.Decision{Kind: resolve.Insert}, rec)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if res.Outcome != Inserted {
		t.Errorf("Outcome = %v, want Inserted", res.Outcome)
	}
	if res.ID != id {
		t.Errorf("ID = %v, want %v", res.ID, id)
	}
	if rec.ID != id || !rec.CreatedAt.Equal(now) || !rec.UpdatedAt.Equal(now) {
		t.Error("committed record should carry store-assigned fields")
	}
	if res.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", res.Attempts)
	}
}

func TestCommit_RetriesTransientThenSucceeds(t *testing.T) {
	id := uuid.New()
	now := time.Now().UTC()
	failures := 2
	db := &fakeDB{}
	db.queryRow = func(sql string, args []any) pgx.Row {
		if db.calls <= failures {
			return fakeRow{scan: func(dest ...any) error {
				return &pgconn.PgError{Code: "40001"}
			}}
		}
		return successRow(id, now, now)
	}
	s := New(db, WithRetryConfig(fastRetry()))

	res, err := s.Commit(context.Background(), resolve.Decision{Kind: resolve.Insert}, testRecord())
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if res.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", res.Attempts)
	}
}

func TestCommit_ConstraintErrorIsFatal(t *testing.T) {
	db := &fakeDB{queryRow: func(sql string, args []any) pgx.Row {
		return fakeRow{scan: func(dest ...any) error {
			return &pgconn.PgError{Code: "23514", ConstraintName: "markets_volume_check"}
		}}
	}}
	s := New(db, WithRetryConfig(fastRetry()))

	_, err := s.Commit(context.Background(), resolve.Decision{Kind: resolve.Insert}, testRecord())

	var ce *ConstraintError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want ConstraintError", err)
	}
	if db.calls != 1 {
		t.Errorf("constraint violation retried %d times, want 1 attempt", db.calls)
	}
}

func TestCommit_MalformedRecordRejectedBeforeWrite(t *testing.T) {
	db := &fakeDB{}
	s := New(db, WithRetryConfig(fastRetry()))

	rec := testRecord()
	rec.Name = ""

	if _, err := s.Commit(context.Background(), resolve.Decision{Kind: resolve.Insert}, rec); err == nil {
		t.Fatal("malformed record should fail")
	}
	if db.calls != 0 {
		t.Errorf("malformed record reached the database (%d calls)", db.calls)
	}
}

func TestBuildUpsert_InsertSetsAllContentColumns(t *testing.T) {
	sql, args := buildUpsert(testRecord(), resolve.Decision{Kind: resolve.Insert})

	for _, col := range contentColumns {
		want := col + " = EXCLUDED." + col
		if !strings.Contains(sql, want) {
			t.Errorf("insert upsert missing %q", want)
		}
	}
	if !strings.Contains(sql, "ON CONFLICT (market_id, exchange)") {
		t.Error("upsert must key on (market_id, exchange)")
	}
	if !strings.Contains(sql, "updated_at = now()") {
		t.Error("upsert must refresh updated_at")
	}
	if strings.Contains(sql, "created_at = ") {
		t.Error("upsert must never update created_at")
	}
	if len(args) != 15 {
		t.Errorf("args = %d, want 15", len(args))
	}
	if args[1] != "M1" || args[2] != "kalshi" {
		t.Errorf("identity args = %v/%v, want M1/kalshi", args[1], args[2])
	}
}

func TestBuildUpsert_UpdateSetsOnlyDelta(t *testing.T) {
	decision := resolve.Decision{
		Kind:  resolve.Update,
		Delta: []resolve.FieldChange{{Field: "liquidity"}, {Field: "extra"}},
	}
	sql, _ := buildUpsert(testRecord(), decision)

	if !strings.Contains(sql, "liquidity = EXCLUDED.liquidity") {
		t.Error("update upsert missing changed column liquidity")
	}
	if !strings.Contains(sql, "extra = EXCLUDED.extra") {
		t.Error("update upsert missing changed column extra")
	}
	if strings.Contains(sql, "name = EXCLUDED.name") {
		t.Error("update upsert must not set unchanged columns")
	}
}

func TestBuildUpsert_OptionalFieldsNulled(t *testing.T) {
	rec := testRecord() // rules, category etc. empty
	_, args := buildUpsert(rec, resolve.Decision{Kind: resolve.Insert})

	// rules ($5), resolve_date ($6), resolve_time ($7) must be NULL, not "".
	if args[4] != (*string)(nil) {
		t.Errorf("empty rules should encode as NULL, got %v", args[4])
	}
	if args[5] != (*time.Time)(nil) {
		t.Errorf("zero resolve_date should encode as NULL, got %v", args[5])
	}
	if args[6] != (*string)(nil) {
		t.Errorf("empty resolve_time should encode as NULL, got %v", args[6])
	}
}
