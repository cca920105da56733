package dome

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// MarketsPage is one page of raw market payloads.
type MarketsPage struct {
	Markets []map[string]any
	Cursor  string
}

// GetMarketsOptions configures a GetMarkets request.
type GetMarketsOptions struct {
	Limit  int
	Cursor string
	Status string
}

// GetMarkets fetches a page of markets for one exchange.
func (c *Client) GetMarkets(ctx context.Context, exchange string, opts GetMarketsOptions) (*MarketsPage, error) {
	query := url.Values{}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Cursor != "" {
		query.Set("cursor", opts.Cursor)
	}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}

	body, err := c.get(ctx, "/"+exchange+"/markets", query)
	if err != nil {
		return nil, fmt.Errorf("get %s markets: %w", exchange, err)
	}

	page, err := decodeMarketsPage(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s markets: %w", exchange, err)
	}
	return page, nil
}

// GetMarketDetails fetches a single market's raw payload.
func (c *Client) GetMarketDetails(ctx context.Context, exchange, marketID string) (map[string]any, error) {
	body, err := c.get(ctx, "/"+exchange+"/markets/"+marketID, nil)
	if err != nil {
		return nil, fmt.Errorf("get %s market %s: %w", exchange, marketID, err)
	}

	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode %s market %s: %w", exchange, marketID, err)
	}
	for _, key := range []string{"data", "market"} {
		if nested, ok := envelope[key].(map[string]any); ok {
			return nested, nil
		}
	}
	return envelope, nil
}

// decodeMarketsPage handles the envelope variants the API returns: a
// bare array, or a list under markets/data/results/items, possibly one
// level deeper under items.
func decodeMarketsPage(body []byte) (*MarketsPage, error) {
	var bare []map[string]any
	if err := json.Unmarshal(body, &bare); err == nil {
		return &MarketsPage{Markets: bare}, nil
	}

	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}

	page := &MarketsPage{}
	for _, key := range []string{"markets", "data", "results", "items"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case []any:
			page.Markets = collectObjects(v)
		case map[string]any:
			if items, ok := v["items"].([]any); ok {
				page.Markets = collectObjects(items)
			}
		}
		break
	}

	for _, key := range []string{"cursor", "next_cursor", "next"} {
		if s, ok := envelope[key].(string); ok && s != "" {
			page.Cursor = s
			break
		}
	}
	return page, nil
}

func collectObjects(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}
