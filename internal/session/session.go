// Package session discovers and parses coding-agent session logs for a
// single work unit (one git branch + worktree pairing). Each supported
// agent writes an incompatible log format with its own on-disk layout and
// correlation keys, so each format gets its own Adapter implementation.
package session

import "strings"

// ScanRequest identifies the work unit whose sessions should be found.
type ScanRequest struct {
	WorktreePath string
	BranchName   string
}

// ModelUsage holds accumulated token counts for one model. Counts only —
// pricing happens downstream.
type ModelUsage struct {
	InputTokens         int64 `json:"inputTokens"`
	CacheCreationTokens int64 `json:"cacheCreationTokens"`
	CacheReadTokens     int64 `json:"cacheReadTokens"`
	OutputTokens        int64 `json:"outputTokens"`
}

// UsageResult is a work unit's total token usage, grouped by model
// identifier. For the Claude adapter TurnCount >= SessionCount (many turns
// per session file); for the Codex adapter TurnCount == SessionCount (one
// cumulative snapshot per session).
type UsageResult struct {
	Models       map[string]*ModelUsage
	SessionCount int
	TurnCount    int
}

// Adapter scans one log format for a work unit's token usage.
//
// Scan returns nil when no matching data exists — nil is a signal, not an
// error. Implementations never return errors and never panic: unreadable
// files and unparseable lines are skipped and the scan continues. The scan
// runs inside a post-workflow hook whose failure must not abort the parent
// workflow.
type Adapter interface {
	Scan(req ScanRequest) *UsageResult
}

// New returns the adapter for an agent-type tag. Unrecognized or empty
// tags fall back to the Claude adapter: existing callers never set a tag
// for Claude work units, so the fallback is load-bearing compatibility.
func New(agentType string) Adapter {
	if strings.EqualFold(strings.TrimSpace(agentType), "codex") {
		return &CodexAdapter{}
	}
	return &ClaudeAdapter{}
}
