package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/timogilvie/agentcost/internal/cli"
	"github.com/timogilvie/agentcost/internal/config"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show the effective pricing table",
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(_ *cobra.Command, _ []string) error {
	cfg, _ := config.Load()
	table := cfg.PricingTable()

	models := make([]string, 0, len(table))
	for model := range table {
		models = append(models, model)
	}
	sort.Strings(models)

	rows := make([][]string, 0, len(models))
	for _, model := range models {
		p := table[model]

		cacheWrite := fmt.Sprintf("$%.2f", p.CacheWriteRate())
		if p.CacheWritePerMTok == nil {
			cacheWrite += "*"
		}
		cacheRead := fmt.Sprintf("$%.2f", p.CacheReadRate())
		if p.CacheReadPerMTok == nil {
			cacheRead += "*"
		}

		rows = append(rows, []string{
			model,
			fmt.Sprintf("$%.2f", p.InputPerMTok),
			fmt.Sprintf("$%.2f", p.OutputPerMTok),
			cacheWrite,
			cacheRead,
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Pricing (USD per MTok)",
		Headers: []string{"Model", "Input", "Output", "Cache Write", "Cache Read"},
		Rows:    rows,
	}))
	fmt.Println(cli.Muted("  * derived from the input rate (write ×1.25, read ×0.10)"))
	fmt.Println()

	return nil
}
