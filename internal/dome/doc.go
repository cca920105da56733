// Package dome provides the Dome API client used to pull market
// metadata from the exchanges it aggregates.
//
// Endpoints, per exchange prefix (kalshi, polymarket):
//   - GET /{exchange}/markets
//   - GET /{exchange}/markets/{market_id}
//
// Responses arrive in a few envelope variants (bare array, or a list
// under data/markets/results/items), so decoding is tolerant.
package dome
