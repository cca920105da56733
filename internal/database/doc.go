// Package database provides connection pool management for the PostgreSQL
// markets store.
//
// The syncer keeps a single pgx pool; the pool is the only shared mutable
// resource between concurrent batch syncs.
package database
