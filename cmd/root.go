package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/timogilvie/agentcost/internal/cli"
	"github.com/timogilvie/agentcost/internal/config"
	"github.com/timogilvie/agentcost/internal/cost"
	"github.com/timogilvie/agentcost/internal/store"
)

var (
	flagBranch    string
	flagAgent     string
	flagRepo      string
	flagClaudeDir string
	flagCodexDir  string
	flagJSON      bool
	flagSave      bool
)

var rootCmd = &cobra.Command{
	Use:   "agentcost [worktree]",
	Short: "Cost accounting for coding-agent work units",
	Long: "Compute what one agent-driven branch cost by reading Claude Code " +
		"and Codex session logs and applying a per-model pricing table.",
	Args: cobra.MaximumNArgs(1),
	RunE: runCost,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagBranch, "branch", "b", "", "Branch name (default: the worktree's HEAD)")
	rootCmd.PersistentFlags().StringVarP(&flagAgent, "agent", "a", "", "Agent type: claude or codex (default: from config)")
	rootCmd.PersistentFlags().StringVar(&flagRepo, "repo", "", "Primary repository checkout (default: the worktree)")
	rootCmd.PersistentFlags().StringVar(&flagClaudeDir, "claude-dir", "", "Claude Code log root (default ~/.claude/projects)")
	rootCmd.PersistentFlags().StringVar(&flagCodexDir, "codex-dir", "", "Codex log root (default ~/.codex/sessions)")
	rootCmd.Flags().BoolVar(&flagJSON, "json", false, "Emit the result as JSON")
	rootCmd.Flags().BoolVar(&flagSave, "save", false, "Record the result in the history ledger")
}

// buildRequest assembles the cost request from flags, config, and the
// worktree itself.
func buildRequest(args []string) (cost.Request, cost.Options, error) {
	worktree := "."
	if len(args) > 0 {
		worktree = args[0]
	}
	abs, err := filepath.Abs(worktree)
	if err != nil {
		return cost.Request{}, cost.Options{}, fmt.Errorf("resolving worktree: %w", err)
	}

	cfg, _ := config.Load()

	branch := flagBranch
	if branch == "" {
		branch = detectBranch(abs)
	}
	if branch == "" {
		return cost.Request{}, cost.Options{}, fmt.Errorf("cannot determine branch for %s; pass --branch", abs)
	}

	agent := flagAgent
	if agent == "" {
		agent = cfg.General.DefaultAgent
	}

	repo := flagRepo
	if repo == "" {
		repo = abs
	}

	claudeDir := flagClaudeDir
	if claudeDir == "" {
		claudeDir = cfg.Logs.ClaudeDir
	}
	codexDir := flagCodexDir
	if codexDir == "" {
		codexDir = cfg.Logs.CodexDir
	}

	req := cost.Request{
		WorktreePath: abs,
		BranchName:   branch,
		RepoDir:      repo,
		AgentType:    agent,
	}
	opts := cost.Options{
		ClaudeDir: claudeDir,
		CodexDir:  codexDir,
	}
	return req, opts, nil
}

// detectBranch reads HEAD from the worktree's .git, following the gitdir
// indirection that linked worktrees use. Returns "" for detached HEAD or
// anything unreadable; the caller demands --branch in that case.
func detectBranch(worktree string) string {
	gitPath := filepath.Join(worktree, ".git")
	info, err := os.Stat(gitPath)
	if err != nil {
		return ""
	}

	gitDir := gitPath
	if !info.IsDir() {
		// Linked worktree: .git is a file containing "gitdir: <path>".
		data, err := os.ReadFile(gitPath)
		if err != nil {
			return ""
		}
		line := strings.TrimSpace(string(data))
		const prefix = "gitdir:"
		if !strings.HasPrefix(line, prefix) {
			return ""
		}
		gitDir = strings.TrimSpace(strings.TrimPrefix(line, prefix))
		if !filepath.IsAbs(gitDir) {
			gitDir = filepath.Join(worktree, gitDir)
		}
	}

	head, err := os.ReadFile(filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return ""
	}
	ref := strings.TrimSpace(string(head))
	const refPrefix = "ref: refs/heads/"
	if strings.HasPrefix(ref, refPrefix) {
		return strings.TrimPrefix(ref, refPrefix)
	}
	return ""
}

func runCost(_ *cobra.Command, args []string) error {
	req, opts, err := buildRequest(args)
	if err != nil {
		return err
	}

	result := cost.Compute(req, opts)

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if result == nil {
			fmt.Println("null")
			return nil
		}
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
	} else if result == nil {
		fmt.Printf("\n  No session data found for %s on branch %s.\n\n",
			req.WorktreePath, req.BranchName)
		return nil
	} else {
		renderResult(req, result)
	}

	if flagSave && result != nil {
		if err := saveResult(req, result); err != nil {
			// History is best-effort; the cost itself already printed.
			fmt.Fprintln(os.Stderr, cli.Warn(fmt.Sprintf("  warning: saving history: %v", err)))
		}
	}
	return nil
}

func renderResult(req cost.Request, result *cost.Result) {
	models := make([]string, 0, len(result.Models))
	for model := range result.Models {
		models = append(models, model)
	}
	sort.Slice(models, func(i, j int) bool {
		return result.Models[models[i]].CostUSD > result.Models[models[j]].CostUSD
	})

	rows := make([][]string, 0, len(models)+2)
	for _, model := range models {
		mc := result.Models[model]
		rows = append(rows, []string{
			model,
			cli.FormatTokens(mc.InputTokens),
			cli.FormatTokens(mc.CacheCreationTokens),
			cli.FormatTokens(mc.CacheReadTokens),
			cli.FormatTokens(mc.OutputTokens),
			cli.FormatCost(mc.CostUSD),
		})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"TOTAL", "", "", "", "", cli.FormatCost(result.TotalCostUSD)})

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("WORK UNIT COST  %s", req.BranchName)))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "By Model",
		Headers: []string{"Model", "Input", "Cache W", "Cache R", "Output", "Cost"},
		Rows:    rows,
	}))
	fmt.Printf("  %s sessions · %s turns · total %s\n\n",
		cli.FormatNumber(int64(result.SessionCount)),
		cli.FormatNumber(int64(result.TurnCount)),
		cli.Cost(cli.FormatCost(result.TotalCostUSD)))
}

func saveResult(req cost.Request, result *cost.Result) error {
	ledger, err := store.Open(store.DefaultPath())
	if err != nil {
		return err
	}
	defer func() { _ = ledger.Close() }()
	return ledger.Save(req, result)
}
