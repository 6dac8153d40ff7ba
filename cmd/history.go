package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timogilvie/agentcost/internal/cli"
	"github.com/timogilvie/agentcost/internal/store"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved work-unit costs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "Maximum rows to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	path := store.DefaultPath()
	if _, err := os.Stat(path); err != nil {
		fmt.Println("\n  No history yet. Run `agentcost --save` to record a work unit.")
		return nil
	}

	ledger, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer func() { _ = ledger.Close() }()

	entries, err := ledger.Recent(flagHistoryLimit)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("\n  No history yet. Run `agentcost --save` to record a work unit.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	var total float64
	for _, e := range entries {
		rows = append(rows, []string{
			e.Branch,
			e.Agent,
			fmt.Sprintf("%d", e.SessionCount),
			fmt.Sprintf("%d", e.TurnCount),
			e.ComputedAt.Local().Format("2006-01-02 15:04"),
			cli.FormatCost(e.TotalCostUSD),
		})
		total += e.TotalCostUSD
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"TOTAL", "", "", "", "", cli.FormatCost(total)})

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Work Unit History",
		Headers: []string{"Branch", "Agent", "Sessions", "Turns", "Computed", "Cost"},
		Rows:    rows,
	}))
	fmt.Println()

	return nil
}
