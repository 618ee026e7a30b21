package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gnss-analyzer/internal/config"
)

var configPath string

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gnss-analyzer",
		Short: "Position accuracy and time-to-first-fix analysis for NMEA receiver logs",
		Long: `gnss-analyzer reads an NMEA log recorded by a static receiver and reports
time to first fix, CEP50, CEP95 and RMS horizontal error against a surveyed
reference point.

Commands:
  analyze    Analyse one log and write the summary, report and plot series
  summary    Quick inspection of a log without a reference point
  simulate   Write a synthetic log for a cold start at a known point`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config (optional)")

	root.AddCommand(newAnalyzeCmd(), newSummaryCmd(), newSimulateCmd())
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
