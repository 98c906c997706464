package main

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "stockpulse",
	Short: "Real-time market data fan-out and technical indicators",
	Long: `stockpulse keeps one streaming connection to an upstream trade feed,
fans ticks out to subscribers per symbol, and recomputes RSI, EMA, MACD,
Bollinger Bands, ATR, VWAP and Fibonacci levels on every tick.

Configuration is read from the YAML file given by --config, then .env,
then the environment (FEED_URL, FEED_TOKEN, REDIS_ADDR, ...).`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "stockpulse.yaml", "path to YAML config (optional)")
}
