package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/maggiexgao/explain-my-bills/internal/config"
	"github.com/maggiexgao/explain-my-bills/internal/exitcode"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "billbench",
	Short: "Medical bill benchmark and totals reconciliation engine",
	Long:  "Prices extracted bill line items against a reference fee schedule, reconciles document totals, and reports whether a bill-level comparison is trustworthy.",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("BILLBENCH_DB_URL"), "Postgres connection string (or set BILLBENCH_DB_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitcode.UsageError)
	}
}
