// Package resolve decides how an incoming normalized record applies
// against the currently stored record for the same (market_id, exchange)
// key.
//
// Resolve is a pure function of its two inputs: identical inputs always
// yield an identical Decision, which is what makes commit retries
// idempotent. The incoming record always wins on conflicting fields
// (last-write-wins by ingestion time); Extra is replaced wholesale, never
// deep-merged, so stale keys cannot accumulate.
package resolve

import (
	"reflect"

	"github.com/rickgao/market-sync/internal/model"
)

// Kind is the outcome of conflict resolution.
type Kind int

const (
	// Insert means no stored record exists for the key.
	Insert Kind = iota
	// Update means a stored record exists and at least one field differs.
	Update
	// NoOp means a stored record exists and all content fields match.
	NoOp
)

func (k Kind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Update:
		return "update"
	case NoOp:
		return "noop"
	default:
		return "unknown"
	}
}

// FieldChange records one differing field for the audit trail. Field names
// are the store's column names.
type FieldChange struct {
	Field string
	Old   any
	New   any
}

// Decision is the result of resolving an incoming record against the
// stored state.
type Decision struct {
	Kind  Kind
	Delta []FieldChange // populated for Update, nil otherwise
}

// Fields returns the changed column names in a stable order.
func (d Decision) Fields() []string {
	if len(d.Delta) == 0 {
		return nil
	}
	out := make([]string, len(d.Delta))
	for i, change := range d.Delta {
		out[i] = change.Field
	}
	return out
}

// Resolve compares an incoming record with the existing stored record (nil
// when absent). Store-assigned fields (id, created_at, updated_at) are
// never compared.
func Resolve(incoming *model.MarketRecord, existing *model.MarketRecord) Decision {
	if existing == nil {
		return Decision{Kind: Insert}
	}

	delta := diff(incoming, existing)
	if len(delta) == 0 {
		return Decision{Kind: NoOp}
	}
	return Decision{Kind: Update, Delta: delta}
}

// diff lists content fields where the incoming record differs from the
// existing one. Order matches the persisted column order.
func diff(incoming, existing *model.MarketRecord) []FieldChange {
	var delta []FieldChange

	changed := func(field string, old, new any, equal bool) {
		if !equal {
			delta = append(delta, FieldChange{Field: field, Old: old, New: new})
		}
	}

	changed("name", existing.Name, incoming.Name, existing.Name == incoming.Name)
	changed("rules", existing.Rules, incoming.Rules, existing.Rules == incoming.Rules)
	changed("resolve_date", existing.ResolveDate, incoming.ResolveDate,
		existing.ResolveDate.Equal(incoming.ResolveDate))
	changed("resolve_time", existing.ResolveTime, incoming.ResolveTime,
		existing.ResolveTime == incoming.ResolveTime)
	changed("category", existing.Category, incoming.Category, existing.Category == incoming.Category)
	changed("subcategory", existing.Subcategory, incoming.Subcategory,
		existing.Subcategory == incoming.Subcategory)
	changed("tags", existing.Tags, incoming.Tags, stringsEqual(existing.Tags, incoming.Tags))
	changed("description", existing.Description, incoming.Description,
		existing.Description == incoming.Description)
	changed("image_url", existing.ImageURL, incoming.ImageURL, existing.ImageURL == incoming.ImageURL)
	changed("liquidity", existing.Liquidity, incoming.Liquidity,
		floatsEqual(existing.Liquidity, incoming.Liquidity))
	changed("volume", existing.Volume, incoming.Volume, floatsEqual(existing.Volume, incoming.Volume))
	changed("extra", existing.Extra, incoming.Extra, extraEqual(existing.Extra, incoming.Extra))

	return delta
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func floatsEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// extraEqual compares open maps structurally. Empty and nil are the same
// absence of data.
func extraEqual(a, b map[string]any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
