// Package model defines shared data types used across the market sync engine.
//
// Conventions:
//   - Timestamps: time.Time in UTC, assigned by the store (never by callers)
//   - Optional decimals: *float64, nil when the exchange did not report them
//   - Record identity: (MarketID, Exchange) composite key
//   - IDs: uuid.UUID for the store-assigned row id
package model
