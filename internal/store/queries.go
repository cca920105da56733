package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/market-sync/internal/model"
)

// ListByExchange returns records for one exchange ordered by market_id,
// with optional paging (limit 0 = no limit).
func (s *Store) ListByExchange(ctx context.Context, exchange string, limit, offset int) ([]model.MarketRecord, error) {
	sql := `SELECT` + selectColumns + ` FROM markets WHERE exchange = $1 ORDER BY market_id`
	args := []any{exchange}
	if limit > 0 {
		sql += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, limit)
	}
	if offset > 0 {
		sql += fmt.Sprintf(" OFFSET $%d", len(args)+1)
		args = append(args, offset)
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(err)
	}
	return collectRecords(rows)
}

// ListByCategory returns records in a category, optionally restricted to
// one exchange (empty = all exchanges).
func (s *Store) ListByCategory(ctx context.Context, category, exchange string, limit int) ([]model.MarketRecord, error) {
	sql := `SELECT` + selectColumns + ` FROM markets WHERE category = $1`
	args := []any{category}
	if exchange != "" {
		sql += fmt.Sprintf(" AND exchange = $%d", len(args)+1)
		args = append(args, exchange)
	}
	sql += " ORDER BY exchange, market_id"
	if limit > 0 {
		sql += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(err)
	}
	return collectRecords(rows)
}

// ListResolvingBetween returns records whose resolve date falls in
// [from, to], ordered by resolve date. Records without a resolve date are
// never returned.
func (s *Store) ListResolvingBetween(ctx context.Context, from, to time.Time) ([]model.MarketRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT`+selectColumns+`
		 FROM markets
		 WHERE resolve_date BETWEEN $1 AND $2
		 ORDER BY resolve_date, exchange, market_id`,
		from, to)
	if err != nil {
		return nil, classify(err)
	}
	return collectRecords(rows)
}

// CountByExchange returns the number of stored records per exchange.
func (s *Store) CountByExchange(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.Query(ctx, `SELECT exchange, count(*) FROM markets GROUP BY exchange`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var exchange string
		var n int64
		if err := rows.Scan(&exchange, &n); err != nil {
			return nil, classify(err)
		}
		counts[exchange] = n
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return counts, nil
}

func collectRecords(rows pgx.Rows) ([]model.MarketRecord, error) {
	defer rows.Close()

	var out []model.MarketRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}
