package session

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// Byte patterns for the cheap prefilter before a full unmarshal.
var (
	patAssistant1 = []byte(`"type":"assistant"`)
	patAssistant2 = []byte(`"type": "assistant"`)
)

// ClaudeAdapter reads Claude Code session logs. Claude encodes the session
// working directory into the project directory name, so discovery is a
// single lookup under the log root. Every branch worked on from one
// project logs into the same directory, so correlation to a work unit is
// by the per-turn gitBranch tag.
type ClaudeAdapter struct {
	// Root overrides the default ~/.claude/projects log root.
	Root string
}

type claudeEntry struct {
	Type      string         `json:"type"`
	GitBranch string         `json:"gitBranch"`
	Message   *claudeMessage `json:"message"`
}

type claudeMessage struct {
	Model string       `json:"model"`
	Usage *claudeUsage `json:"usage"`
}

type claudeUsage struct {
	InputTokens              int64 `json:"input_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
}

func (a *ClaudeAdapter) root() string {
	if a.Root != "" {
		return a.Root
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude", "projects")
}

// encodeProjectDir mirrors Claude Code's path encoding: the absolute
// worktree path with separators replaced by dashes.
// "/Users/x/repos/proj" -> "-Users-x-repos-proj"
func encodeProjectDir(worktreePath string) string {
	return strings.ReplaceAll(filepath.Clean(worktreePath), string(filepath.Separator), "-")
}

// Scan walks the work unit's project directory and sums token usage across
// every assistant turn tagged with the requested branch. Turn records carry
// incremental per-turn deltas, so accumulation is additive. Returns nil
// when the directory is absent or no turn matches the branch.
func (a *ClaudeAdapter) Scan(req ScanRequest) *UsageResult {
	root := a.root()
	if root == "" {
		return nil
	}
	projectDir := filepath.Join(root, encodeProjectDir(req.WorktreePath))
	info, err := os.Stat(projectDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	result := &UsageResult{Models: make(map[string]*ModelUsage)}

	_ = filepath.WalkDir(projectDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".jsonl" {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		turns := scanClaudeFile(path, req.BranchName, result.Models)
		if turns > 0 {
			result.SessionCount++
			result.TurnCount += turns
		}
		return nil
	})

	if len(result.Models) == 0 {
		return nil
	}
	return result
}

// scanClaudeFile accumulates qualifying turns from one JSONL session file
// into models and returns how many turns qualified. A failure costs at most
// this one file, never the whole scan.
func scanClaudeFile(path, branch string, models map[string]*ModelUsage) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer func() { _ = f.Close() }()

	turns := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 2*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if !bytes.Contains(line, patAssistant1) && !bytes.Contains(line, patAssistant2) {
			continue
		}

		var entry claudeEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue // malformed or truncated line, often a file mid-write
		}
		if entry.Type != "assistant" || entry.GitBranch != branch {
			continue
		}
		if entry.Message == nil || entry.Message.Usage == nil {
			continue
		}

		u := entry.Message.Usage
		mu := models[entry.Message.Model]
		if mu == nil {
			mu = &ModelUsage{}
			models[entry.Message.Model] = mu
		}
		mu.InputTokens += u.InputTokens
		mu.CacheCreationTokens += u.CacheCreationInputTokens
		mu.CacheReadTokens += u.CacheReadInputTokens
		mu.OutputTokens += u.OutputTokens
		turns++
	}
	// scanner.Err is deliberately not surfaced: a partial read still counts.
	return turns
}
