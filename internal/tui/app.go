// Package tui provides a minimal interactive view of one work unit's cost.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/timogilvie/agentcost/internal/cli"
	"github.com/timogilvie/agentcost/internal/cost"
)

type scanDoneMsg struct {
	result *cost.Result
}

// App is the bubbletea model for the work-unit cost dashboard.
type App struct {
	req      cost.Request
	opts     cost.Options
	spin     spinner.Model
	result   *cost.Result
	scanning bool
}

// NewApp builds the dashboard for one work unit. The scan runs as a tea
// command once the program starts.
func NewApp(req cost.Request, opts cost.Options) App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(cli.ColorAccent)

	return App{
		req:      req,
		opts:     opts,
		spin:     s,
		scanning: true,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.spin.Tick, a.scanCmd())
}

func (a App) scanCmd() tea.Cmd {
	req, opts := a.req, a.opts
	return func() tea.Msg {
		return scanDoneMsg{result: cost.Compute(req, opts)}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return a, tea.Quit
		case "r":
			if !a.scanning {
				a.scanning = true
				a.result = nil
				return a, tea.Batch(a.spin.Tick, a.scanCmd())
			}
		}

	case scanDoneMsg:
		a.scanning = false
		a.result = msg.result
		return a, nil

	case spinner.TickMsg:
		if a.scanning {
			var cmd tea.Cmd
			a.spin, cmd = a.spin.Update(msg)
			return a, cmd
		}
	}

	return a, nil
}

func (a App) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(cli.RenderTitle(fmt.Sprintf("WORK UNIT COST  %s", a.req.BranchName)))
	b.WriteString("\n\n")

	switch {
	case a.scanning:
		b.WriteString(fmt.Sprintf("  %s Scanning session logs...\n", a.spin.View()))

	case a.result == nil:
		b.WriteString("  No session data found for this work unit.\n")
		b.WriteString(cli.Muted(fmt.Sprintf("  worktree: %s\n", a.req.WorktreePath)))

	default:
		b.WriteString(renderBreakdown(a.result))
	}

	b.WriteString("\n")
	b.WriteString(cli.Muted("  r rescan · q quit\n"))
	return b.String()
}

func renderBreakdown(res *cost.Result) string {
	models := make([]string, 0, len(res.Models))
	for model := range res.Models {
		models = append(models, model)
	}
	sort.Slice(models, func(i, j int) bool {
		return res.Models[models[i]].CostUSD > res.Models[models[j]].CostUSD
	})

	rows := make([][]string, 0, len(models)+2)
	for _, model := range models {
		mc := res.Models[model]
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
	rows = append(rows, []string{"TOTAL", "", "", "", "", cli.FormatCost(res.TotalCostUSD)})

	var b strings.Builder
	b.WriteString(cli.RenderTable(cli.Table{
		Title:   "By Model",
		Headers: []string{"Model", "Input", "Cache W", "Cache R", "Output", "Cost"},
		Rows:    rows,
	}))
	b.WriteString(fmt.Sprintf("  %s · %s\n",
		cli.Muted(fmt.Sprintf("%d sessions · %d turns", res.SessionCount, res.TurnCount)),
		cli.Cost(cli.FormatCost(res.TotalCostUSD))))
	return b.String()
}
