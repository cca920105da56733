package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MarketRecord is the canonical representation of one market's metadata
// from one exchange. Records from every exchange are normalized into this
// shape before they reach the store.
type MarketRecord struct {
	// Identity
	MarketID string `json:"market_id"` // Exchange-local identifier (ticker, slug, condition id)
	Exchange string `json:"exchange"`  // Registered exchange tag (e.g., "kalshi", "polymarket")

	// Content
	Name        string         `json:"name"`                   // Display name / question (required)
	Rules       string         `json:"rules,omitempty"`        // Resolution rules text
	ResolveDate time.Time      `json:"resolve_date,omitzero"`  // Calendar date of resolution (zero = unknown)
	ResolveTime string         `json:"resolve_time,omitempty"` // Time-of-day of resolution, "HH:MM:SS" ("" = unknown)
	Category    string         `json:"category,omitempty"`     // Top-level taxonomy
	Subcategory string         `json:"subcategory,omitempty"`  // Second-level taxonomy
	Tags        []string       `json:"tags,omitempty"`         // Ordered tags as reported by the source
	Description string         `json:"description,omitempty"`  // Free-form description
	ImageURL    string         `json:"image_url,omitempty"`    // Market image
	Liquidity   *float64       `json:"liquidity,omitempty"`    // Reported liquidity, nil if not provided
	Volume      *float64       `json:"volume,omitempty"`       // Reported volume, nil if not provided
	Extra       map[string]any `json:"extra,omitempty"`        // Exchange-specific fields with no canonical slot

	// Store-assigned (never set by callers)
	ID        uuid.UUID `json:"id"`         // Row id, zero until first committed
	CreatedAt time.Time `json:"created_at"` // First commit time, immutable
	UpdatedAt time.Time `json:"updated_at"` // Last commit time, monotonically non-decreasing
}

// Key returns the composite identity key used for uniqueness and batching.
func (r *MarketRecord) Key() string {
	return r.Exchange + "/" + r.MarketID
}

// Validate checks the record invariants that must hold before storage.
func (r *MarketRecord) Validate() error {
	if r.MarketID == "" {
		return errors.New("market id is required")
	}
	if r.Exchange == "" {
		return errors.New("exchange is required")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Liquidity != nil && *r.Liquidity < 0 {
		return fmt.Errorf("liquidity must be >= 0, got %v", *r.Liquidity)
	}
	if r.Volume != nil && *r.Volume < 0 {
		return fmt.Errorf("volume must be >= 0, got %v", *r.Volume)
	}
	return nil
}
