// Package store implements the Upsert Committer and the query surface of
// the markets store.
//
// All writes go through a single atomic statement keyed on the
// (market_id, exchange) uniqueness constraint:
//
//	INSERT ... ON CONFLICT (market_id, exchange) DO UPDATE ...
//
// so concurrent commits for the same key resolve to last-write-wins
// without surfacing a constraint error. The committer owns both
// timestamps: created_at is written once and never touched again,
// updated_at is set to the database clock on every applied write.
//
// The persisted layout is the markets table:
//
//	id           uuid primary key
//	market_id    text not null
//	exchange     text not null
//	name         text not null
//	rules        text
//	resolve_date date
//	resolve_time time
//	category     text
//	subcategory  text
//	tags         text[]
//	description  text
//	image_url    text
//	liquidity    numeric check (liquidity >= 0)
//	volume       numeric check (volume >= 0)
//	extra        jsonb
//	created_at   timestamptz not null
//	updated_at   timestamptz not null
//	unique (market_id, exchange)
//
// with equality indexes on exchange, category, market_id and a range
// index on resolve_date. Table creation itself is handled by the
// operator's migration tooling, not by this package.
package store
