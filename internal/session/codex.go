package session

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
)

// Byte patterns gating the full unmarshal of rollout lines.
var (
	patTurnContext = []byte(`"turn_context"`)
	patTokenCount  = []byte(`"token_count"`)
)

// CodexAdapter reads Codex CLI rollout logs. The on-disk layout is
// date-partitioned (~/.codex/sessions/YYYY/MM/DD/rollout-*.jsonl) rather
// than path-encoded, so discovery walks the whole tree and sniffs each
// file's first line — a session_meta record — to decide whether the
// session belongs to the work unit. Files that fail the header check are
// never fully parsed.
type CodexAdapter struct {
	// Root overrides the default ~/.codex/sessions log root.
	Root string
}

type codexEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type codexSessionMeta struct {
	Cwd string        `json:"cwd"`
	Git *codexGitInfo `json:"git"`
}

type codexGitInfo struct {
	Branch string `json:"branch"`
}

type codexTurnContext struct {
	Model string `json:"model"`
}

type codexEventMsg struct {
	Type string          `json:"type"`
	Info *codexTokenInfo `json:"info"`
}

type codexTokenInfo struct {
	TotalTokenUsage *codexTokenUsage `json:"total_token_usage"`
}

type codexTokenUsage struct {
	InputTokens           int64 `json:"input_tokens"`
	CachedInputTokens     int64 `json:"cached_input_tokens"`
	OutputTokens          int64 `json:"output_tokens"`
	ReasoningOutputTokens int64 `json:"reasoning_output_tokens"`
}

func (a *CodexAdapter) root() string {
	if a.Root != "" {
		return a.Root
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".codex", "sessions")
}

// Scan enumerates every rollout file under the log root, header-matches
// each against the work unit, and fully parses only the matches. Every
// usage-bearing matching file is exactly one session and one turn.
func (a *CodexAdapter) Scan(req ScanRequest) *UsageResult {
	root := a.root()
	if root == "" {
		return nil
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil
	}

	result := &UsageResult{Models: make(map[string]*ModelUsage)}

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".jsonl" {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if !matchesWorkUnit(path, req) {
			return nil
		}

		model, usage := parseRollout(path)
		if usage == nil {
			return nil // matched session, but it never reported token usage
		}

		mu := result.Models[model]
		if mu == nil {
			mu = &ModelUsage{}
			result.Models[model] = mu
		}
		mu.InputTokens += usage.InputTokens
		mu.CacheCreationTokens += usage.CacheCreationTokens
		mu.CacheReadTokens += usage.CacheReadTokens
		mu.OutputTokens += usage.OutputTokens
		result.SessionCount++
		result.TurnCount++
		return nil
	})

	if len(result.Models) == 0 {
		return nil
	}
	return result
}

// matchesWorkUnit reads only the first line of a rollout file and checks
// the session_meta record against the request: same working directory, or
// same git branch. The rest of the file stays unread.
func matchesWorkUnit(path string, req ScanRequest) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	line, err := bufio.NewReaderSize(f, 64*1024).ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return false
	}

	var event codexEvent
	if err := json.Unmarshal(bytes.TrimSpace(line), &event); err != nil {
		return false
	}
	if event.Type != "session_meta" {
		return false
	}
	var meta codexSessionMeta
	if err := json.Unmarshal(event.Payload, &meta); err != nil {
		return false
	}

	if meta.Cwd != "" && samePath(meta.Cwd, req.WorktreePath) {
		return true
	}
	return meta.Git != nil && meta.Git.Branch != "" && meta.Git.Branch == req.BranchName
}

// samePath reports whether two paths refer to the same location,
// tolerating symlinks (macOS /tmp vs /private/tmp and similar).
func samePath(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ra, err1 := filepath.EvalSymlinks(a)
	rb, err2 := filepath.EvalSymlinks(b)
	return err1 == nil && err2 == nil && ra == rb
}

// parseRollout fully parses one matching rollout file. Codex reports token
// usage as a running cumulative total, so only the last token_count event
// matters; summing the snapshots would multiply-count every earlier turn.
// The model comes from the most recent turn_context record, since a
// session can switch models mid-stream. Codex has no separate cache-write
// bucket, so CacheCreationTokens stays 0.
func parseRollout(path string) (model string, usage *ModelUsage) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil
	}
	defer func() { _ = f.Close() }()

	model = "unknown"
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 2*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if !bytes.Contains(line, patTurnContext) && !bytes.Contains(line, patTokenCount) {
			continue
		}

		var event codexEvent
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}

		switch event.Type {
		case "turn_context":
			var tc codexTurnContext
			if json.Unmarshal(event.Payload, &tc) == nil && tc.Model != "" {
				model = tc.Model
			}
		case "event_msg":
			var msg codexEventMsg
			if json.Unmarshal(event.Payload, &msg) != nil {
				continue
			}
			if msg.Type != "token_count" || msg.Info == nil || msg.Info.TotalTokenUsage == nil {
				continue
			}
			t := msg.Info.TotalTokenUsage
			usage = &ModelUsage{
				InputTokens:     t.InputTokens,
				CacheReadTokens: t.CachedInputTokens,
				OutputTokens:    t.OutputTokens + t.ReasoningOutputTokens,
			}
		}
	}
	return model, usage
}
