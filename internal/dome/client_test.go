package dome

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// fastClient returns a client pointed at the test server with the rate
// limiter effectively disabled.
func fastClient(url string, opts ...ClientOption) *Client {
	base := []ClientOption{
		WithMinRequestInterval(time.Nanosecond),
		WithRetries(3, time.Millisecond),
	}
	return NewClient(url, "test-key", append(base, opts...)...)
}

func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("https://api.domeapi.io", "test-key")

		if c.baseURL != "https://api.domeapi.io" {
			t.Errorf("baseURL = %q, want %q", c.baseURL, "https://api.domeapi.io")
		}
		if c.apiKey != "test-key" {
			t.Errorf("apiKey = %q, want %q", c.apiKey, "test-key")
		}
		if c.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 30*time.Second)
		}
		if c.maxRetries != 3 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 3)
		}
	})

	t.Run("trailing slash trimmed", func(t *testing.T) {
		c := NewClient("https://api.domeapi.io/", "")
		if c.baseURL != "https://api.domeapi.io" {
			t.Errorf("baseURL = %q, want trailing slash trimmed", c.baseURL)
		}
	})

	t.Run("with options", func(t *testing.T) {
		c := NewClient("https://api.domeapi.io", "",
			WithTimeout(5*time.Second),
			WithRetries(10, 500*time.Millisecond),
		)
		if c.httpClient.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 5*time.Second)
		}
		if c.maxRetries != 10 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 10)
		}
		if c.retryBackoff != 500*time.Millisecond {
			t.Errorf("retryBackoff = %v, want %v", c.retryBackoff, 500*time.Millisecond)
		}
	})
}

func TestAPIError(t *testing.T) {
	err := &APIError{StatusCode: 404, Message: "Not Found"}
	if got, want := err.Error(), "dome api error 404: Not Found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	tests := []struct {
		code      int
		retryable bool
	}{
		{500, true},
		{502, true},
		{503, true},
		{429, true},
		{400, false},
		{401, false},
		{404, false},
	}
	for _, tt := range tests {
		e := &APIError{StatusCode: tt.code}
		if e.IsRetryable() != tt.retryable {
			t.Errorf("IsRetryable(%d) = %v, want %v", tt.code, e.IsRetryable(), tt.retryable)
		}
	}
}

func TestGetMarkets(t *testing.T) {
	t.Run("enveloped response with cursor", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/kalshi/markets" {
				t.Errorf("path = %q, want /kalshi/markets", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
				t.Errorf("Authorization = %q, want Bearer test-key", got)
			}
			if got := r.URL.Query().Get("limit"); got != "2" {
				t.Errorf("limit = %q, want 2", got)
			}
			w.Write([]byte(`{"markets": [{"ticker": "A"}, {"ticker": "B"}], "cursor": "next-page"}`))
		}))
		defer server.Close()

		c := fastClient(server.URL)
		page, err := c.GetMarkets(context.Background(), "kalshi", GetMarketsOptions{Limit: 2})
		if err != nil {
			t.Fatalf("GetMarkets: %v", err)
		}
		if len(page.Markets) != 2 {
			t.Errorf("markets = %d, want 2", len(page.Markets))
		}
		if page.Markets[0]["ticker"] != "A" {
			t.Errorf("first ticker = %v, want A", page.Markets[0]["ticker"])
		}
		if page.Cursor != "next-page" {
			t.Errorf("cursor = %q, want next-page", page.Cursor)
		}
	})

	t.Run("bare array response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"slug": "x"}, {"slug": "y"}]`))
		}))
		defer server.Close()

		c := fastClient(server.URL)
		page, err := c.GetMarkets(context.Background(), "polymarket", GetMarketsOptions{})
		if err != nil {
			t.Fatalf("GetMarkets: %v", err)
		}
		if len(page.Markets) != 2 || page.Cursor != "" {
			t.Errorf("markets/cursor = %d/%q, want 2/empty", len(page.Markets), page.Cursor)
		}
	})

	t.Run("nested items envelope", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": {"items": [{"ticker": "Z"}]}, "next_cursor": "c2"}`))
		}))
		defer server.Close()

		c := fastClient(server.URL)
		page, err := c.GetMarkets(context.Background(), "kalshi", GetMarketsOptions{})
		if err != nil {
			t.Fatalf("GetMarkets: %v", err)
		}
		if len(page.Markets) != 1 {
			t.Fatalf("markets = %d, want 1", len(page.Markets))
		}
		if page.Cursor != "c2" {
			t.Errorf("cursor = %q, want c2", page.Cursor)
		}
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`{"markets": [{"ticker": "A"}]}`))
		}))
		defer server.Close()

		c := fastClient(server.URL)
		page, err := c.GetMarkets(context.Background(), "kalshi", GetMarketsOptions{})
		if err != nil {
			t.Fatalf("GetMarkets: %v", err)
		}
		if len(page.Markets) != 1 {
			t.Errorf("markets = %d, want 1", len(page.Markets))
		}
		if calls.Load() != 3 {
			t.Errorf("calls = %d, want 3", calls.Load())
		}
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		c := fastClient(server.URL)
		_, err := c.GetMarkets(context.Background(), "kalshi", GetMarketsOptions{})

		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
			t.Fatalf("err = %v, want 401 APIError", err)
		}
		if calls.Load() != 1 {
			t.Errorf("calls = %d, want 1", calls.Load())
		}
	})
}

func TestGetMarketDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/polymarket/markets/some-slug" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"data": {"slug": "some-slug", "question": "Will it?"}}`))
	}))
	defer server.Close()

	c := fastClient(server.URL)
	raw, err := c.GetMarketDetails(context.Background(), "polymarket", "some-slug")
	if err != nil {
		t.Fatalf("GetMarketDetails: %v", err)
	}
	if raw["question"] != "Will it?" {
		t.Errorf("question = %v, want unwrapped data object", raw["question"])
	}
}

func TestMarketSource(t *testing.T) {
	var cursors []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cursor := r.URL.Query().Get("cursor")
		cursors = append(cursors, cursor)
		if cursor == "" {
			w.Write([]byte(`{"markets": [{"ticker": "A"}], "cursor": "p2"}`))
			return
		}
		w.Write([]byte(`{"markets": [{"ticker": "B"}]}`))
	}))
	defer server.Close()

	source := NewMarketSource(fastClient(server.URL), "kalshi", 100)
	if source.Exchange() != "kalshi" {
		t.Errorf("Exchange() = %q, want kalshi", source.Exchange())
	}

	payloads, next, err := source.FetchBatch(context.Background(), "")
	if err != nil {
		t.Fatalf("FetchBatch: %v", err)
	}
	if len(payloads) != 1 || next != "p2" {
		t.Fatalf("payloads/next = %d/%q, want 1/p2", len(payloads), next)
	}

	payloads, next, err = source.FetchBatch(context.Background(), next)
	if err != nil {
		t.Fatalf("FetchBatch page 2: %v", err)
	}
	if len(payloads) != 1 || next != "" {
		t.Errorf("payloads/next = %d/%q, want 1/empty", len(payloads), next)
	}
	if len(cursors) != 2 || cursors[1] != "p2" {
		t.Errorf("cursors seen = %v, want [ p2]", cursors)
	}
}

func TestLimiterSpacesRequests(t *testing.T) {
	l := newLimiter(20*time.Millisecond, time.Second)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.wait(context.Background()); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("three requests took %v, want at least 40ms of spacing", elapsed)
	}
}

func TestLimiterIdleEarnsNoCredit(t *testing.T) {
	l := newLimiter(30*time.Millisecond, time.Second)

	if err := l.wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	// Idle longer than the delay, then fire twice back to back. The
	// second call must still be spaced from the first.
	time.Sleep(90 * time.Millisecond)

	start := time.Now()
	for i := 0; i < 2; i++ {
		if err := l.wait(context.Background()); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("two requests after idle took %v, want at least 30ms of spacing", elapsed)
	}
}

func TestLimiterBackoff(t *testing.T) {
	l := newLimiter(10*time.Millisecond, 40*time.Millisecond)

	l.throttled()
	l.throttled()
	l.throttled()
	if l.current != 40*time.Millisecond {
		t.Errorf("current = %v, want capped at 40ms", l.current)
	}

	l.succeeded()
	l.succeeded()
	l.succeeded()
	if l.current != 10*time.Millisecond {
		t.Errorf("current = %v, want back at minimum", l.current)
	}
}

func TestLimiterWaitHonorsContext(t *testing.T) {
	l := newLimiter(time.Hour, time.Hour)
	if err := l.wait(context.Background()); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}
