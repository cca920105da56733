package normalize

import (
	"github.com/rickgao/market-sync/internal/model"
)

// mapKalshi maps a Kalshi market payload. Kalshi reports markets by
// ticker, with taxonomy hung off the series, and prices/status fields that
// have no canonical slot (those land in Extra).
func mapKalshi(f *fields) (model.MarketRecord, error) {
	var rec model.MarketRecord

	rec.MarketID = f.firstString("ticker", "event_ticker", "market_id", "id", "event_id")
	rec.Name = f.firstString("title", "name", "event_title", "question")
	rec.Rules = f.firstString("rules", "subtitle", "description")
	rec.ResolveDate, rec.ResolveTime = f.firstTimestamp("expected_expiration_time", "expiration_time", "resolve_date")
	rec.Category = f.firstString("category", "series_ticker")
	rec.Subcategory = f.firstString("subcategory")
	rec.Description = f.firstString("description", "subtitle")
	rec.ImageURL = f.firstString("image_url", "image")

	tags, err := f.firstStrings("tags", model.ExchangeKalshi, "tags", "keywords")
	if err != nil {
		return model.MarketRecord{}, err
	}
	rec.Tags = tags

	if rec.Liquidity, err = f.firstFloat("liquidity", model.ExchangeKalshi, "liquidity"); err != nil {
		return model.MarketRecord{}, err
	}
	if rec.Volume, err = f.firstFloat("volume", model.ExchangeKalshi, "volume", "total_volume"); err != nil {
		return model.MarketRecord{}, err
	}

	return rec, nil
}
