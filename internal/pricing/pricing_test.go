package pricing

import (
	"math"
	"testing"
)

func approx(t *testing.T, got, want float64, msg string) {
	t.Helper()
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

func TestCacheWriteRateDerived(t *testing.T) {
	p := ModelPricing{InputPerMTok: 3}

	// 1M cache-write tokens at a derived 3 * 1.25 rate.
	approx(t, p.Cost(0, 1_000_000, 0, 0), 3.75, "derived cache-write cost")
}

func TestCacheReadRateDerived(t *testing.T) {
	p := ModelPricing{InputPerMTok: 3}

	approx(t, p.Cost(0, 0, 1_000_000, 0), 0.30, "derived cache-read cost")
}

func TestExplicitCacheRatesWin(t *testing.T) {
	w, r := 6.0, 0.6
	p := ModelPricing{InputPerMTok: 3, CacheWritePerMTok: &w, CacheReadPerMTok: &r}

	approx(t, p.CacheWriteRate(), 6.0, "explicit cache-write rate")
	approx(t, p.CacheReadRate(), 0.6, "explicit cache-read rate")
}

func TestCost_AllComponents(t *testing.T) {
	p := ModelPricing{InputPerMTok: 3, OutputPerMTok: 15}

	got := p.Cost(300, 1_000_000, 2_000_000, 100)
	want := 300*3.0/1e6 + 3.75 + 2*0.30 + 100*15.0/1e6
	approx(t, got, want, "combined cost")
}

func TestTableLookup(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		model  string
		wantOK bool
	}{
		{"claude-sonnet-4-5", true},
		{"claude-sonnet-4-5-20250929", true}, // date stamp stripped
		{"gpt-5.3-codex", true},
		{"mystery-model-9000", false},
		{"claude-sonnet-4-5-dev", false}, // non-digit suffix is not a date stamp
	}

	for _, tt := range tests {
		if _, ok := table.Lookup(tt.model); ok != tt.wantOK {
			t.Errorf("Lookup(%q) ok = %v, want %v", tt.model, ok, tt.wantOK)
		}
	}
}

func TestTableLookup_DateStrippedRatesMatch(t *testing.T) {
	table := DefaultTable()

	stamped, ok := table.Lookup("claude-sonnet-4-5-20250929")
	if !ok {
		t.Fatal("stamped lookup failed")
	}
	if stamped.InputPerMTok != table["claude-sonnet-4-5"].InputPerMTok {
		t.Errorf("stamped rate %v != base rate %v",
			stamped.InputPerMTok, table["claude-sonnet-4-5"].InputPerMTok)
	}
}
