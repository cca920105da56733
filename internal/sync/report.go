package sync

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// State tracks a batch through its lifecycle. Completed is terminal;
// there is no rollback state because batches are append/merge, never
// all-or-nothing.
type State int

const (
	Pending State = iota
	Processing
	Completed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Processing:
		return "processing"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// RecordFailure describes one record that could not be applied, with
// enough context to inspect or retry it later.
type RecordFailure struct {
	RawID string `json:"raw_id"` // best-effort identifier from the raw payload
	Kind  string `json:"kind"`   // failure classification
	Err   string `json:"error"`
}

// BatchReport accounts for the fate of every record in one batch.
type BatchReport struct {
	BatchID  uuid.UUID `json:"batch_id"`
	Exchange string    `json:"exchange"`
	State    State     `json:"state"`

	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`

	Failures   []RecordFailure `json:"failures,omitempty"`
	SkippedIDs []string        `json:"skipped_ids,omitempty"` // re-submit exactly these
	StartedAt  time.Time       `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at,omitzero"`
}

// Total returns the number of input records the report accounts for.
func (r *BatchReport) Total() int {
	return r.Inserted + r.Updated + r.Unchanged + r.Failed + r.Skipped
}

// collector accumulates a report from concurrent workers.
type collector struct {
	mu     sync.Mutex
	report BatchReport
}

func newCollector(exchange string) *collector {
	return &collector{report: BatchReport{
		BatchID:   uuid.New(),
		Exchange:  exchange,
		State:     Pending,
		StartedAt: time.Now().UTC(),
	}}
}

func (c *collector) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.State = s
	if s == Completed {
		c.report.CompletedAt = time.Now().UTC()
	}
}

func (c *collector) inserted()  { c.add(func(r *BatchReport) { r.Inserted++ }) }
func (c *collector) updated()   { c.add(func(r *BatchReport) { r.Updated++ }) }
func (c *collector) unchanged() { c.add(func(r *BatchReport) { r.Unchanged++ }) }

func (c *collector) failed(rawID, kind string, err error) {
	c.add(func(r *BatchReport) {
		r.Failed++
		r.Failures = append(r.Failures, RecordFailure{RawID: rawID, Kind: kind, Err: err.Error()})
	})
}

func (c *collector) skipped(rawID string) {
	c.add(func(r *BatchReport) {
		r.Skipped++
		r.SkippedIDs = append(r.SkippedIDs, rawID)
	})
}

func (c *collector) add(fn func(*BatchReport)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.report)
}

func (c *collector) finish() *BatchReport {
	c.setState(Completed)
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.report
	return &out
}
