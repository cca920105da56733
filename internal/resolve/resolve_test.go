package resolve

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rickgao/market-sync/internal/model"
)

func baseRecord() *model.MarketRecord {
	liq := 100.0
	return &model.MarketRecord{
		MarketID:    "M1",
		Exchange:    model.ExchangeKalshi,
		Name:        "Will X happen?",
		Rules:       "Resolves YES if X.",
		ResolveDate: time.Date(2024, 11, 6, 0, 0, 0, 0, time.UTC),
		ResolveTime: "23:59:59",
		Category:    "Politics",
		Tags:        []string{"a", "b"},
		Liquidity:   &liq,
		Extra:       map[string]any{"foo": "bar"},
	}
}

func TestResolve_AbsentExistingYieldsInsert(t *testing.T) {
	d := Resolve(baseRecord(), nil)
	if d.Kind != Insert {
		t.Errorf("Kind = %v, want Insert", d.Kind)
	}
	if d.Delta != nil {
		t.Errorf("Delta = %v, want nil for Insert", d.Delta)
	}
}

func TestResolve_IdenticalYieldsNoOp(t *testing.T) {
	incoming := baseRecord()
	existing := baseRecord()

	// Store-assigned fields must not affect comparison.
	existing.ID = uuid.New()
	existing.CreatedAt = time.Now().Add(-time.Hour)
	existing.UpdatedAt = time.Now()

	d := Resolve(incoming, existing)
	if d.Kind != NoOp {
		t.Errorf("Kind = %v, want NoOp (delta %v)", d.Kind, d.Delta)
	}
}

func TestResolve_ChangedScalarYieldsUpdate(t *testing.T) {
	incoming := baseRecord()
	existing := baseRecord()
	newLiq := 150.0
	incoming.Liquidity = &newLiq

	d := Resolve(incoming, existing)
	if d.Kind != Update {
		t.Fatalf("Kind = %v, want Update", d.Kind)
	}
	if got := d.Fields(); !reflect.DeepEqual(got, []string{"liquidity"}) {
		t.Errorf("Fields() = %v, want [liquidity]", got)
	}
	if d.Delta[0].Old.(*float64) == nil || *d.Delta[0].Old.(*float64) != 100.0 {
		t.Errorf("Delta old = %v, want 100", d.Delta[0].Old)
	}
	if *d.Delta[0].New.(*float64) != 150.0 {
		t.Errorf("Delta new = %v, want 150", d.Delta[0].New)
	}
}

func TestResolve_MultipleChanges(t *testing.T) {
	incoming := baseRecord()
	existing := baseRecord()
	incoming.Name = "Will X really happen?"
	incoming.Tags = []string{"a", "b", "c"}
	incoming.Volume = nil // both nil already; no change
	existing.Description = "old text"

	d := Resolve(incoming, existing)
	if d.Kind != Update {
		t.Fatalf("Kind = %v, want Update", d.Kind)
	}
	want := []string{"name", "tags", "description"}
	if got := d.Fields(); !reflect.DeepEqual(got, want) {
		t.Errorf("Fields() = %v, want %v", got, want)
	}
}

func TestResolve_TagOrderIsSignificant(t *testing.T) {
	incoming := baseRecord()
	existing := baseRecord()
	incoming.Tags = []string{"b", "a"}

	d := Resolve(incoming, existing)
	if d.Kind != Update {
		t.Errorf("reordered tags should yield Update, got %v", d.Kind)
	}
}

func TestResolve_ExtraReplaceWholeMap(t *testing.T) {
	incoming := baseRecord()
	existing := baseRecord()
	incoming.Extra = map[string]any{"baz": float64(1)}

	d := Resolve(incoming, existing)
	if d.Kind != Update {
		t.Fatalf("Kind = %v, want Update", d.Kind)
	}
	if got := d.Fields(); !reflect.DeepEqual(got, []string{"extra"}) {
		t.Errorf("Fields() = %v, want [extra]", got)
	}
	// The delta carries the full replacement map, not a merge.
	newExtra := d.Delta[0].New.(map[string]any)
	if len(newExtra) != 1 || newExtra["baz"] != float64(1) {
		t.Errorf("Delta new = %v, want map[baz:1]", newExtra)
	}
}

func TestResolve_EmptyAndNilExtraAreEqual(t *testing.T) {
	incoming := baseRecord()
	existing := baseRecord()
	incoming.Extra = map[string]any{}
	existing.Extra = nil

	d := Resolve(incoming, existing)
	if d.Kind != NoOp {
		t.Errorf("empty vs nil extra should be NoOp, got %v (%v)", d.Kind, d.Delta)
	}
}

func TestResolve_IsDeterministic(t *testing.T) {
	incoming := baseRecord()
	existing := baseRecord()
	existing.Name = "old name"

	first := Resolve(incoming, existing)
	second := Resolve(incoming, existing)

	if first.Kind != second.Kind || !reflect.DeepEqual(first.Fields(), second.Fields()) {
		t.Error("identical inputs should yield identical decisions")
	}
}
