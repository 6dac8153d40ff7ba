// Package cost computes the total USD cost of one work unit by scanning
// its agent session logs and pricing the resulting token usage.
package cost

import (
	"github.com/timogilvie/agentcost/internal/config"
	"github.com/timogilvie/agentcost/internal/pricing"
	"github.com/timogilvie/agentcost/internal/session"
)

// Request identifies the work unit to price.
type Request struct {
	WorktreePath string
	BranchName   string
	// RepoDir is the primary checkout the worktree was created from. It is
	// recorded alongside saved results but never consulted by adapters:
	// scan correlation is worktree path + branch only.
	RepoDir   string
	AgentType string
}

// Options carries caller overrides. The zero value resolves everything
// from config and defaults.
type Options struct {
	// Pricing wins over the config-derived table when non-nil.
	Pricing   pricing.Table
	ClaudeDir string
	CodexDir  string
}

// ModelCost is one model's token usage plus its priced cost.
type ModelCost struct {
	session.ModelUsage
	CostUSD float64 `json:"costUsd"`
}

// Result is the priced summary for one work unit.
type Result struct {
	TotalCostUSD float64              `json:"totalCostUsd"`
	Models       map[string]ModelCost `json:"models"`
	SessionCount int                  `json:"sessionCount"`
	TurnCount    int                  `json:"turnCount"`
}

// Compute runs the full pipeline: adapter selection, log scan, pricing.
//
// It returns nil when no session data matches the work unit, and never an
// error: the computation runs inside a post-workflow hook whose failure
// must not abort the parent workflow, so every failure mode degrades to
// "no data" or a partial total. Repeated calls against unchanged logs
// produce identical results.
func Compute(req Request, opts Options) *Result {
	adapter := session.New(req.AgentType)
	switch a := adapter.(type) {
	case *session.CodexAdapter:
		a.Root = opts.CodexDir
	case *session.ClaudeAdapter:
		a.Root = opts.ClaudeDir
	}

	usage := adapter.Scan(session.ScanRequest{
		WorktreePath: req.WorktreePath,
		BranchName:   req.BranchName,
	})
	if usage == nil {
		return nil
	}

	table := opts.Pricing
	if table == nil {
		cfg, _ := config.Load() // defaults on any load failure
		table = cfg.PricingTable()
	}

	result := &Result{
		Models:       make(map[string]ModelCost, len(usage.Models)),
		SessionCount: usage.SessionCount,
		TurnCount:    usage.TurnCount,
	}
	for model, mu := range usage.Models {
		mc := ModelCost{ModelUsage: *mu}
		if p, ok := table.Lookup(model); ok {
			mc.CostUSD = p.Cost(mu.InputTokens, mu.CacheCreationTokens, mu.CacheReadTokens, mu.OutputTokens)
		}
		// Unpriced models keep zero cost but stay in the map, so the gap
		// is visible downstream instead of silently vanishing.
		result.Models[model] = mc
		result.TotalCostUSD += mc.CostUSD
	}
	return result
}
