package sync

import (
	stdsync "sync"
	"testing"
)

func TestStateString(t *testing.T) {
	cases := []struct {
		state State
		want  string
	}{
		{Pending, "pending"},
		{Processing, "processing"},
		{Completed, "completed"},
		{State(99), "unknown"},
	}
	for _, tc := range cases {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("State(%d).String() = %q, want %q", tc.state, got, tc.want)
		}
	}
}

func TestCollectorAccountsUnderConcurrency(t *testing.T) {
	c := newCollector("kalshi")

	var wg stdsync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.inserted()
			c.updated()
			c.unchanged()
			c.skipped("id")
		}()
	}
	wg.Wait()

	report := c.finish()
	if report.Total() != 200 {
		t.Errorf("Total = %d, want 200", report.Total())
	}
	if len(report.SkippedIDs) != 50 {
		t.Errorf("SkippedIDs = %d, want 50", len(report.SkippedIDs))
	}
	if report.State != Completed {
		t.Errorf("State = %v, want Completed", report.State)
	}
	if report.CompletedAt.Before(report.StartedAt) {
		t.Error("CompletedAt must not precede StartedAt")
	}
}
