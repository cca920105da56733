package normalize

import (
	"github.com/rickgao/market-sync/internal/model"
)

// mapPolymarket maps a Polymarket market payload. Polymarket identifies
// markets by slug (falling back to condition/token ids) and reports
// resolution as a single end-date timestamp.
func mapPolymarket(f *fields) (model.MarketRecord, error) {
	var rec model.MarketRecord

	rec.MarketID = f.firstString("slug", "condition_id", "token_id", "id", "market_id")
	rec.Name = f.firstString("question", "title", "name", "market_title")
	rec.Rules = f.firstString("description", "rules", "resolution_rules", "subtitle")
	rec.ResolveDate, rec.ResolveTime = f.firstTimestamp("resolution_date", "end_date", "end_date_iso")
	rec.Category = f.firstString("category", "group_item_title")
	rec.Subcategory = f.firstString("subcategory")
	rec.Description = f.firstString("description", "subtitle")
	rec.ImageURL = f.firstString("image_url", "image")

	tags, err := f.firstStrings("tags", model.ExchangePolymarket, "tags", "keywords")
	if err != nil {
		return model.MarketRecord{}, err
	}
	rec.Tags = tags

	if rec.Liquidity, err = f.firstFloat("liquidity", model.ExchangePolymarket, "liquidity", "liquidity_usd"); err != nil {
		return model.MarketRecord{}, err
	}
	if rec.Volume, err = f.firstFloat("volume", model.ExchangePolymarket, "volume", "volume_usd", "total_volume"); err != nil {
		return model.MarketRecord{}, err
	}

	return rec, nil
}
