package main

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stockpulse/internal/indicator"
	"stockpulse/internal/model"
	"stockpulse/internal/series"
)

var metricsRange string

var metricsCmd = &cobra.Command{
	Use:   "metrics <symbol>",
	Short: "Compute the indicator snapshot over synthetic history",
	Long: `Compute every indicator for a symbol over its deterministic synthetic
history and print the snapshot as JSON. Unavailable values print as null.

Ranges: 1w (7 bars), 1m (30), 3m (60), 6m (90), anything else 120.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := strings.ToUpper(args[0])
		bars := series.SyntheticBars(symbol, metricsRange, time.Now())
		snap := indicator.Snapshot(indicator.InputOf(model.Series{Symbol: symbol, Bars: bars}))

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(model.NewMetricsUpdate(symbol, nil, snap))
	},
}

func init() {
	rootCmd.AddCommand(metricsCmd)
	metricsCmd.Flags().StringVarP(&metricsRange, "range", "r", "1y", "history range: 1w, 1m, 3m, 6m, 1y")
}
