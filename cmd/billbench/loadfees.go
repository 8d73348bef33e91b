package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maggiexgao/explain-my-bills/internal/db"
	"github.com/maggiexgao/explain-my-bills/internal/exitcode"
	"github.com/maggiexgao/explain-my-bills/internal/ingest"
	"github.com/maggiexgao/explain-my-bills/internal/logging"
)

var loadfeesCmd = &cobra.Command{
	Use:   "loadfees",
	Short: "Load a fee schedule Parquet file into the database",
	RunE:  runLoadfees,
}

func init() {
	f := loadfeesCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Path to fee schedule Parquet file (required)")
	f.BoolVar(&cfg.Force, "force", false, "Reload even if file SHA already exists")
	f.BoolVar(&cfg.KeepStaging, "keep-staging", false, "Keep staging rows after transform")
	f.BoolVar(&cfg.ActivateYear, "activate-year", false, "Mark the newest loaded year as the active schedule year")
	_ = loadfeesCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(loadfeesCmd)
}

func runLoadfees(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if err := cfg.ValidateLoad(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	summary, err := ingest.Run(ctx, pool, log, &cfg)
	if err != nil {
		if pe, ok := err.(*ingest.PipelineError); ok {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("fee schedule load failed")
			switch pe.Phase {
			case "preflight":
				os.Exit(exitcode.ValidationError)
			case "stage":
				os.Exit(exitcode.CopyError)
			default:
				os.Exit(exitcode.TransformError)
			}
		}
		log.Error().Err(err).Msg("fee schedule load failed")
		os.Exit(exitcode.TransformError)
	}

	if summary.AlreadyLoaded {
		fmt.Println("File already loaded; nothing to do (use --force to reload).")
		return nil
	}
	fmt.Printf("Load complete: %d rows staged, %d rows in fee schedule\n",
		summary.RowsStaged, summary.RowsServing)
	return nil
}
