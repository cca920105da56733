package dome

import (
	"context"

	"github.com/rickgao/market-sync/internal/sync"
)

// MarketSource adapts the Dome markets endpoint for one exchange to the
// orchestrator's batch interface.
type MarketSource struct {
	client   *Client
	exchange string
	pageSize int
	status   string
}

var _ sync.Adapter = (*MarketSource)(nil)

// NewMarketSource creates a source for the given exchange prefix.
func NewMarketSource(client *Client, exchange string, pageSize int) *MarketSource {
	if pageSize <= 0 {
		pageSize = 500
	}
	return &MarketSource{
		client:   client,
		exchange: exchange,
		pageSize: pageSize,
	}
}

// WithStatus restricts fetches to markets in the given status.
func (s *MarketSource) WithStatus(status string) *MarketSource {
	s.status = status
	return s
}

func (s *MarketSource) Exchange() string { return s.exchange }

// FetchBatch pulls one page of raw payloads starting at cursor.
func (s *MarketSource) FetchBatch(ctx context.Context, cursor string) ([]map[string]any, string, error) {
	page, err := s.client.GetMarkets(ctx, s.exchange, GetMarketsOptions{
		Limit:  s.pageSize,
		Cursor: cursor,
		Status: s.status,
	})
	if err != nil {
		return nil, "", err
	}
	return page.Markets, page.Cursor, nil
}
