package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"stockpulse/config"
	"stockpulse/internal/quote"
)

var quoteTrending int

var quoteCmd = &cobra.Command{
	Use:   "quote [symbol...]",
	Short: "Fetch quotes, falling back to synthetic values",
	Long: `Fetch one quote per symbol from the configured quote API. Symbols
that cannot be fetched get a synthetic quote flagged "synthetic": true.

Examples:
  stockpulse quote AAPL MSFT
  stockpulse quote --trending 5`,
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
	quoteCmd.Flags().IntVarP(&quoteTrending, "trending", "t", 0, "print the first N trending stocks instead")
}

func runQuote(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && quoteTrending <= 0 {
		return fmt.Errorf("at least one symbol or --trending is required")
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	acc := quote.New(quote.Config{
		BaseURL: cfg.Quote.URL,
		Token:   cfg.Quote.Token,
		Timeout: cfg.Quote.Timeout,
	}, nil, log)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	if quoteTrending > 0 {
		return enc.Encode(quote.NewTrending(acc, nil, log).Top(cmd.Context(), quoteTrending))
	}
	for _, sym := range args {
		if err := enc.Encode(acc.Get(cmd.Context(), strings.ToUpper(sym))); err != nil {
			return err
		}
	}
	return nil
}
