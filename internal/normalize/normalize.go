package normalize

import (
	"github.com/rickgao/market-sync/internal/model"
)

// mapper converts a raw payload into a record. Exchange and store-assigned
// fields are filled by Normalize, not by mappers.
type mapper func(f *fields) (model.MarketRecord, error)

// Normalizer converts raw exchange payloads into canonical records.
//
// Kalshi and Polymarket have dedicated field mappings; any other
// registered exchange falls back to the canonical field names, so adding
// a source is a registry entry, not a code change.
type Normalizer struct {
	registry *model.Registry
	mappers  map[string]mapper
}

// New creates a Normalizer gated on the given exchange registry.
func New(registry *model.Registry) *Normalizer {
	return &Normalizer{
		registry: registry,
		mappers: map[string]mapper{
			model.ExchangeKalshi:     mapKalshi,
			model.ExchangePolymarket: mapPolymarket,
		},
	}
}

// Normalize converts one raw payload from the given exchange into a
// canonical record. It never returns a partially populated record: on any
// failure the zero record and a typed *Error are returned.
func (n *Normalizer) Normalize(exchange string, raw map[string]any) (model.MarketRecord, error) {
	if !n.registry.Known(exchange) {
		return model.MarketRecord{}, &Error{Kind: UnknownExchange, Exchange: exchange,
			Detail: "exchange tag is not registered"}
	}

	m, ok := n.mappers[exchange]
	if !ok {
		m = mapGeneric
	}

	f := newFields(raw)
	rec, err := m(f)
	if err != nil {
		return model.MarketRecord{}, err
	}

	rec.Exchange = exchange
	rec.Extra = f.extra()

	if rec.MarketID == "" {
		return model.MarketRecord{}, &Error{Kind: MissingRequiredField, Exchange: exchange, Field: "market_id"}
	}
	if rec.Name == "" {
		return model.MarketRecord{}, &Error{Kind: MissingRequiredField, Exchange: exchange, Field: "name"}
	}
	if rec.Liquidity != nil && *rec.Liquidity < 0 {
		return model.MarketRecord{}, &Error{Kind: InvalidType, Exchange: exchange, Field: "liquidity",
			Detail: "must be >= 0"}
	}
	if rec.Volume != nil && *rec.Volume < 0 {
		return model.MarketRecord{}, &Error{Kind: InvalidType, Exchange: exchange, Field: "volume",
			Detail: "must be >= 0"}
	}

	return rec, nil
}

// RawIdentifier extracts a best-effort identifier from a raw payload for
// error reporting when normalization itself fails.
func RawIdentifier(raw map[string]any) string {
	f := newFields(raw)
	id := f.firstString("ticker", "slug", "condition_id", "token_id", "market_id", "id", "event_ticker", "event_id")
	if id == "" {
		return "<unidentified>"
	}
	return id
}

// mapGeneric maps payloads that already use the canonical field names.
func mapGeneric(f *fields) (model.MarketRecord, error) {
	var rec model.MarketRecord

	rec.MarketID = f.firstString("market_id", "id")
	rec.Name = f.firstString("name", "title")
	rec.Rules = f.firstString("rules")
	rec.Category = f.firstString("category")
	rec.Subcategory = f.firstString("subcategory")
	rec.Description = f.firstString("description")
	rec.ImageURL = f.firstString("image_url")
	rec.ResolveDate, rec.ResolveTime = f.firstTimestamp("resolve_date")
	if clock := f.firstString("resolve_time"); clock != "" {
		rec.ResolveTime = clock
	}

	tags, err := f.firstStrings("tags", "generic", "tags")
	if err != nil {
		return model.MarketRecord{}, err
	}
	rec.Tags = tags

	if rec.Liquidity, err = f.firstFloat("liquidity", "generic", "liquidity"); err != nil {
		return model.MarketRecord{}, err
	}
	if rec.Volume, err = f.firstFloat("volume", "generic", "volume"); err != nil {
		return model.MarketRecord{}, err
	}

	return rec, nil
}
