// Package pricing maps model identifiers to per-million-token rates and
// computes USD costs from token counts.
package pricing

import "strings"

// Rate multipliers used when a model's cache rates are not given
// explicitly. They approximate the typical vendor cache-pricing ratios.
const (
	cacheWriteMultiplier = 1.25
	cacheReadMultiplier  = 0.10
)

// ModelPricing holds per-million-token rates for one model. The cache
// rates are optional: when nil they are derived from the input rate, which
// lets a minimal table (input + output only) still price cached traffic.
type ModelPricing struct {
	InputPerMTok      float64
	OutputPerMTok     float64
	CacheWritePerMTok *float64
	CacheReadPerMTok  *float64
}

// CacheWriteRate returns the explicit cache-write rate, or derives one
// from the input rate.
func (p ModelPricing) CacheWriteRate() float64 {
	if p.CacheWritePerMTok != nil {
		return *p.CacheWritePerMTok
	}
	return p.InputPerMTok * cacheWriteMultiplier
}

// CacheReadRate returns the explicit cache-read rate, or derives one from
// the input rate.
func (p ModelPricing) CacheReadRate() float64 {
	if p.CacheReadPerMTok != nil {
		return *p.CacheReadPerMTok
	}
	return p.InputPerMTok * cacheReadMultiplier
}

// Cost computes the USD cost of the given token counts under this pricing.
func (p ModelPricing) Cost(inputTokens, cacheCreationTokens, cacheReadTokens, outputTokens int64) float64 {
	cost := float64(inputTokens) * p.InputPerMTok / 1_000_000
	cost += float64(cacheCreationTokens) * p.CacheWriteRate() / 1_000_000
	cost += float64(cacheReadTokens) * p.CacheReadRate() / 1_000_000
	cost += float64(outputTokens) * p.OutputPerMTok / 1_000_000
	return cost
}

// Table maps a model identifier to its pricing.
type Table map[string]ModelPricing

// Lookup finds pricing for a model identifier. Claude log entries carry a
// date-stamped identifier ("claude-sonnet-4-5-20250929"), so a miss falls
// back to the identifier with a trailing all-digit stamp removed.
func (t Table) Lookup(model string) (ModelPricing, bool) {
	if p, ok := t[model]; ok {
		return p, true
	}
	if i := strings.LastIndex(model, "-"); i > 0 {
		suffix := model[i+1:]
		if len(suffix) >= 8 && isAllDigits(suffix) {
			if p, ok := t[model[:i]]; ok {
				return p, true
			}
		}
	}
	return ModelPricing{}, false
}

func isAllDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

func rate(f float64) *float64 { return &f }

// DefaultTable returns the built-in rate table. The Claude entries carry
// explicit cache rates; the Codex entries rely on the derived ratios since
// OpenAI publishes only input and output rates for them.
func DefaultTable() Table {
	return Table{
		"claude-opus-4-5": {
			InputPerMTok: 5.00, OutputPerMTok: 25.00,
			CacheWritePerMTok: rate(6.25), CacheReadPerMTok: rate(0.50),
		},
		"claude-opus-4-1": {
			InputPerMTok: 15.00, OutputPerMTok: 75.00,
			CacheWritePerMTok: rate(18.75), CacheReadPerMTok: rate(1.50),
		},
		"claude-sonnet-4-5": {
			InputPerMTok: 3.00, OutputPerMTok: 15.00,
			CacheWritePerMTok: rate(3.75), CacheReadPerMTok: rate(0.30),
		},
		"claude-sonnet-4": {
			InputPerMTok: 3.00, OutputPerMTok: 15.00,
			CacheWritePerMTok: rate(3.75), CacheReadPerMTok: rate(0.30),
		},
		"claude-haiku-4-5": {
			InputPerMTok: 1.00, OutputPerMTok: 5.00,
			CacheWritePerMTok: rate(1.25), CacheReadPerMTok: rate(0.10),
		},
		"gpt-5.3-codex": {InputPerMTok: 1.25, OutputPerMTok: 10.00},
		"gpt-5.2":       {InputPerMTok: 1.25, OutputPerMTok: 10.00},
	}
}
