package sync

import "context"

// Adapter is the pull contract an exchange adapter exposes to the
// orchestrator. How the adapter authenticates or rate-limits against its
// exchange is its own concern.
type Adapter interface {
	// Exchange returns the registered exchange tag this adapter feeds.
	Exchange() string

	// FetchBatch returns one page of raw market payloads starting at
	// cursor (empty = first page) and the cursor for the next page
	// (empty = no more pages).
	FetchBatch(ctx context.Context, cursor string) (payloads []map[string]any, next string, err error)
}
