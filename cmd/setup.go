package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/timogilvie/agentcost/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg, _ := config.Load()

	agent := cfg.General.DefaultAgent
	if agent == "" {
		agent = "claude"
	}
	claudeDir := cfg.Logs.ClaudeDir
	codexDir := cfg.Logs.CodexDir

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default agent").
				Description("Used when no --agent flag is given").
				Options(
					huh.NewOption("Claude Code", "claude"),
					huh.NewOption("Codex", "codex"),
				).
				Value(&agent),
			huh.NewInput().
				Title("Claude log root").
				Description("Leave blank for ~/.claude/projects").
				Value(&claudeDir),
			huh.NewInput().
				Title("Codex log root").
				Description("Leave blank for ~/.codex/sessions").
				Value(&codexDir),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	cfg.General.DefaultAgent = agent
	cfg.Logs.ClaudeDir = claudeDir
	cfg.Logs.CodexDir = codexDir

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\n  Saved to %s\n\n", config.ConfigPath())
	return nil
}
