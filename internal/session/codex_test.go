package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeRollout writes one rollout file under root at a date-partitioned
// relative path.
func writeRollout(t *testing.T, root, rel string, lines ...string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func sessionMeta(cwd, branch string) string {
	return fmt.Sprintf(`{"type":"session_meta","payload":{"cwd":%q,"git":{"branch":%q}}}`, cwd, branch)
}

func turnContext(model string) string {
	return fmt.Sprintf(`{"type":"turn_context","payload":{"model":%q}}`, model)
}

func tokenCount(input, cached, output, reasoning int64) string {
	return fmt.Sprintf(`{"type":"event_msg","payload":{"type":"token_count","info":{"total_token_usage":{"input_tokens":%d,"cached_input_tokens":%d,"output_tokens":%d,"reasoning_output_tokens":%d}}}}`,
		input, cached, output, reasoning)
}

func TestCodexScan_CumulativeNotAdditive(t *testing.T) {
	worktree := t.TempDir()
	root := t.TempDir()
	writeRollout(t, root, "2026/08/29/rollout-1.jsonl",
		sessionMeta(worktree, "task/a"),
		turnContext("gpt-5.3-codex"),
		tokenCount(100, 0, 10, 0),
		tokenCount(500, 0, 50, 0),
		tokenCount(2000, 0, 200, 0),
	)

	adapter := &CodexAdapter{Root: root}
	result := adapter.Scan(ScanRequest{WorktreePath: worktree, BranchName: "task/a"})
	if result == nil {
		t.Fatal("Scan returned nil")
	}

	mu := result.Models["gpt-5.3-codex"]
	if mu == nil {
		t.Fatal("missing model entry")
	}
	if mu.InputTokens != 2000 {
		t.Errorf("InputTokens = %d, want 2000 (last snapshot, not 2600)", mu.InputTokens)
	}
	if mu.OutputTokens != 200 {
		t.Errorf("OutputTokens = %d, want 200", mu.OutputTokens)
	}
}

func TestCodexScan_MatchByCwd(t *testing.T) {
	worktree := t.TempDir()
	root := t.TempDir()
	writeRollout(t, root, "2026/08/29/rollout-1.jsonl",
		sessionMeta(worktree, "some-other-branch"),
		turnContext("gpt-5.3-codex"),
		tokenCount(100, 0, 10, 0),
	)

	adapter := &CodexAdapter{Root: root}
	result := adapter.Scan(ScanRequest{WorktreePath: worktree, BranchName: "task/a"})
	if result == nil {
		t.Fatal("Scan returned nil; cwd match alone should qualify the file")
	}
	if result.Models["gpt-5.3-codex"].InputTokens != 100 {
		t.Errorf("InputTokens = %d, want 100", result.Models["gpt-5.3-codex"].InputTokens)
	}
}

func TestCodexScan_MatchByBranch(t *testing.T) {
	root := t.TempDir()
	writeRollout(t, root, "2026/08/29/rollout-1.jsonl",
		sessionMeta("/somewhere/else", "task/a"),
		turnContext("gpt-5.3-codex"),
		tokenCount(100, 0, 10, 0),
	)

	adapter := &CodexAdapter{Root: root}
	result := adapter.Scan(ScanRequest{WorktreePath: t.TempDir(), BranchName: "task/a"})
	if result == nil {
		t.Fatal("Scan returned nil; branch match alone should qualify the file")
	}
}

func TestCodexScan_NonMatchingFilesSkipped(t *testing.T) {
	worktree := t.TempDir()
	root := t.TempDir()
	writeRollout(t, root, "2026/08/29/rollout-1.jsonl",
		sessionMeta(worktree, "task/a"),
		turnContext("gpt-5.3-codex"),
		tokenCount(100, 0, 10, 0),
	)
	writeRollout(t, root, "2026/08/30/rollout-2.jsonl",
		sessionMeta("/somewhere/else", "other-branch"),
		turnContext("gpt-5.3-codex"),
		tokenCount(999999, 0, 999999, 0),
	)

	adapter := &CodexAdapter{Root: root}
	result := adapter.Scan(ScanRequest{WorktreePath: worktree, BranchName: "task/a"})
	if result == nil {
		t.Fatal("Scan returned nil")
	}
	if got := result.Models["gpt-5.3-codex"].InputTokens; got != 100 {
		t.Errorf("InputTokens = %d, want 100 (non-matching file leaked in)", got)
	}
	if result.SessionCount != 1 {
		t.Errorf("SessionCount = %d, want 1", result.SessionCount)
	}
}

func TestCodexScan_NoTokenCountContributesNothing(t *testing.T) {
	worktree := t.TempDir()
	root := t.TempDir()
	writeRollout(t, root, "2026/08/29/rollout-1.jsonl",
		sessionMeta(worktree, "task/a"),
		turnContext("gpt-5.3-codex"),
		`{"type":"event_msg","payload":{"type":"agent_message","message":"hi"}}`,
	)

	adapter := &CodexAdapter{Root: root}
	if result := adapter.Scan(ScanRequest{WorktreePath: worktree, BranchName: "task/a"}); result != nil {
		t.Errorf("Scan = %+v, want nil when no matching file carries usage", result)
	}
}

func TestCodexScan_ModelSwitchKeepsLatest(t *testing.T) {
	worktree := t.TempDir()
	root := t.TempDir()
	writeRollout(t, root, "2026/08/29/rollout-1.jsonl",
		sessionMeta(worktree, "task/a"),
		turnContext("gpt-5.2"),
		tokenCount(100, 0, 10, 0),
		turnContext("gpt-5.3-codex"),
		tokenCount(500, 0, 50, 0),
	)

	adapter := &CodexAdapter{Root: root}
	result := adapter.Scan(ScanRequest{WorktreePath: worktree, BranchName: "task/a"})
	if result == nil {
		t.Fatal("Scan returned nil")
	}
	if _, ok := result.Models["gpt-5.2"]; ok {
		t.Error("usage attributed to superseded model gpt-5.2")
	}
	if result.Models["gpt-5.3-codex"].InputTokens != 500 {
		t.Errorf("InputTokens = %d, want 500", result.Models["gpt-5.3-codex"].InputTokens)
	}
}

func TestCodexScan_FieldMapping(t *testing.T) {
	worktree := t.TempDir()
	root := t.TempDir()
	writeRollout(t, root, "2026/08/29/rollout-1.jsonl",
		sessionMeta(worktree, "task/a"),
		turnContext("gpt-5.3-codex"),
		tokenCount(1000, 400, 300, 50),
	)

	adapter := &CodexAdapter{Root: root}
	result := adapter.Scan(ScanRequest{WorktreePath: worktree, BranchName: "task/a"})
	if result == nil {
		t.Fatal("Scan returned nil")
	}

	mu := result.Models["gpt-5.3-codex"]
	if mu.InputTokens != 1000 {
		t.Errorf("InputTokens = %d, want 1000", mu.InputTokens)
	}
	if mu.CacheReadTokens != 400 {
		t.Errorf("CacheReadTokens = %d, want 400 (cached_input_tokens)", mu.CacheReadTokens)
	}
	if mu.CacheCreationTokens != 0 {
		t.Errorf("CacheCreationTokens = %d, want 0 (no cache-write bucket)", mu.CacheCreationTokens)
	}
	if mu.OutputTokens != 350 {
		t.Errorf("OutputTokens = %d, want 350 (output + reasoning)", mu.OutputTokens)
	}
}

func TestCodexScan_OneTurnPerSession(t *testing.T) {
	worktree := t.TempDir()
	root := t.TempDir()
	writeRollout(t, root, "2026/08/29/rollout-1.jsonl",
		sessionMeta(worktree, "task/a"),
		turnContext("gpt-5.3-codex"),
		tokenCount(100, 0, 10, 0),
		tokenCount(200, 0, 20, 0),
	)
	writeRollout(t, root, "2026/08/30/rollout-2.jsonl",
		sessionMeta(worktree, "task/a"),
		turnContext("gpt-5.3-codex"),
		tokenCount(300, 0, 30, 0),
	)

	adapter := &CodexAdapter{Root: root}
	result := adapter.Scan(ScanRequest{WorktreePath: worktree, BranchName: "task/a"})
	if result == nil {
		t.Fatal("Scan returned nil")
	}
	if result.SessionCount != 2 || result.TurnCount != 2 {
		t.Errorf("counts = %d sessions / %d turns, want 2/2", result.SessionCount, result.TurnCount)
	}
	if result.TurnCount != result.SessionCount {
		t.Errorf("invariant violated: TurnCount %d != SessionCount %d", result.TurnCount, result.SessionCount)
	}
	if got := result.Models["gpt-5.3-codex"].InputTokens; got != 500 {
		t.Errorf("InputTokens = %d, want 500 (200 + 300, last snapshot per file)", got)
	}
}

func TestCodexScan_UnparseableHeaderSkipped(t *testing.T) {
	worktree := t.TempDir()
	root := t.TempDir()
	writeRollout(t, root, "2026/08/29/rollout-bad.jsonl",
		`garbage first line`,
		tokenCount(999, 0, 999, 0),
	)
	writeRollout(t, root, "2026/08/29/rollout-good.jsonl",
		sessionMeta(worktree, "task/a"),
		turnContext("gpt-5.3-codex"),
		tokenCount(100, 0, 10, 0),
	)

	adapter := &CodexAdapter{Root: root}
	result := adapter.Scan(ScanRequest{WorktreePath: worktree, BranchName: "task/a"})
	if result == nil {
		t.Fatal("Scan returned nil")
	}
	if got := result.Models["gpt-5.3-codex"].InputTokens; got != 100 {
		t.Errorf("InputTokens = %d, want 100", got)
	}
}

func TestCodexScan_NoModelContext(t *testing.T) {
	worktree := t.TempDir()
	root := t.TempDir()
	writeRollout(t, root, "2026/08/29/rollout-1.jsonl",
		sessionMeta(worktree, "task/a"),
		tokenCount(100, 0, 10, 0),
	)

	adapter := &CodexAdapter{Root: root}
	result := adapter.Scan(ScanRequest{WorktreePath: worktree, BranchName: "task/a"})
	if result == nil {
		t.Fatal("Scan returned nil")
	}
	if result.Models["unknown"] == nil {
		t.Errorf("usage without turn_context should be keyed under %q, got %v", "unknown", result.Models)
	}
}

func TestSamePath(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"/tmp/x", "/tmp/x", true},
		{"/tmp/x/", "/tmp/x", true},
		{"/tmp/x/../x", "/tmp/x", true},
		{"/tmp/x", "/tmp/y", false},
	}

	for _, tt := range tests {
		if got := samePath(tt.a, tt.b); got != tt.want {
			t.Errorf("samePath(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
