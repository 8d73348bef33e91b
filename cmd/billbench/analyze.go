package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maggiexgao/explain-my-bills/internal/analyze"
	"github.com/maggiexgao/explain-my-bills/internal/db"
	"github.com/maggiexgao/explain-my-bills/internal/exitcode"
	"github.com/maggiexgao/explain-my-bills/internal/intake"
	"github.com/maggiexgao/explain-my-bills/internal/logging"
	"github.com/maggiexgao/explain-my-bills/internal/model"
	"github.com/maggiexgao/explain-my-bills/internal/normalize"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Benchmark an extracted bill against the reference fee schedule",
	RunE:  runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&cfg.InputPath, "file", "", "Path to extracted bill JSON (required)")
	f.IntVar(&cfg.Year, "year", 0, "Fee schedule year to price against (required)")
	f.StringVar(&cfg.ZIP, "zip", "", "Service ZIP code for locality adjustment")
	f.StringVar(&cfg.State, "state", "", "Service state for locality adjustment")
	f.BoolVar(&cfg.Facility, "facility", false, "Price with facility rates")
	f.StringVar(&cfg.PolicyPath, "policy", "", "Path to YAML policy overrides")
	f.BoolVar(&cfg.JSON, "json", false, "Emit the full report as JSON")
	_ = analyzeCmd.MarkFlagRequired("file")
	_ = analyzeCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if err := cfg.ValidateAnalyze(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	if cfg.DSN == "" {
		log.Error().Msg("--dsn or BILLBENCH_DB_URL is required")
		os.Exit(exitcode.UsageError)
	}
	if err := cfg.LoadPolicy(); err != nil {
		log.Error().Err(err).Msg("policy validation failed")
		os.Exit(exitcode.UsageError)
	}

	data, err := os.ReadFile(cfg.InputPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to read input")
		os.Exit(exitcode.ValidationError)
	}

	doc, err := intake.Parse(data)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse extracted bill")
		os.Exit(exitcode.ValidationError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	store := db.NewScheduleStore(pool)
	report, err := analyze.Run(ctx, store, log, cfg.Policy, doc, analyze.Request{
		Year:            cfg.Year,
		Geography:       model.Geography{ZIP: cfg.ZIP, State: cfg.State},
		FacilityDefault: cfg.Facility,
	})
	if err != nil {
		log.Error().Err(err).Msg("analysis failed")
		os.Exit(exitcode.AnalyzeError)
	}

	if cfg.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			log.Error().Err(err).Msg("failed to encode report")
			os.Exit(exitcode.AnalyzeError)
		}
		return nil
	}

	printReport(report)
	return nil
}

func printReport(r *model.AnalysisReport) {
	fmt.Printf("=== billbench analysis %s ===\n", r.RunID)
	fmt.Printf("Year requested: %d\n\n", r.YearRequested)

	fmt.Println("Line items:")
	for _, line := range r.Lines {
		code := line.Item.Code.Key()
		if code == "" && line.Item.Rejection != nil {
			code = line.Item.Rejection.Token
		}
		fmt.Printf("  %-12s %s\n", code, line.Fee.Status)
		if billed, ok := line.Item.Billed(); ok {
			fmt.Printf("    billed:    %s x %d\n", normalize.FormatCents(billed), line.Item.Units)
		}
		if line.Fee.FeeTotalCents != nil {
			fmt.Printf("    reference: %s (%s)\n",
				normalize.FormatCents(*line.Fee.FeeTotalCents), line.Fee.Locality)
		}
		if line.MultipleOfReference != nil {
			fmt.Printf("    multiple:  %.2fx\n", *line.MultipleOfReference)
		}
		for _, note := range line.Notes {
			fmt.Printf("    note: %s\n", note)
		}
	}

	if len(r.RejectedTokens) > 0 {
		fmt.Println("\nRejected code tokens:")
		for _, rej := range r.RejectedTokens {
			fmt.Printf("  %-12s %s\n", rej.Token, rej.Reason)
		}
	}

	fmt.Printf("\nDocument class: %s\n", r.Reconciliation.DocClass)
	printTotals(&r.Reconciliation.Totals)

	c := &r.Comparison
	fmt.Printf("\nReadiness: %s\n", c.Status)
	fmt.Printf("  %s\n", c.Explanation)
	if c.CanComputeMultiple && c.Multiple != nil {
		fmt.Printf("  %s (%s) vs %s (%s): %.2fx\n",
			normalize.FormatCents(*c.NumeratorCents), c.NumeratorLabel,
			normalize.FormatCents(*c.DenominatorCents), c.DenominatorLabel,
			*c.Multiple)
	}
	fmt.Printf("  coverage: %d/%d items matched (%.0f%%)\n",
		c.Coverage.ItemsMatched, c.Coverage.ItemsExtracted, c.Coverage.CoveragePct)
	for _, w := range c.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}

func printTotals(t *model.StructuredTotals) {
	fmt.Println("Totals:")
	slots := []struct {
		name  string
		total *model.DetectedTotal
	}{
		{"total charges", t.TotalCharges},
		{"patient responsibility", t.PatientResponsibility},
		{"amount due", t.AmountDue},
		{"insurance paid", t.InsurancePaid},
		{"payments/adjustments", t.PaymentsAdjustments},
		{"allowed amount", t.AllowedAmount},
	}
	for _, s := range slots {
		if s.total == nil {
			continue
		}
		fmt.Printf("  %-24s %s (%s confidence)\n",
			s.name, normalize.FormatCents(s.total.ValueCents), s.total.Confidence)
	}
	if t.LineItemSumCents != nil {
		fmt.Printf("  %-24s %s (from %d items)\n",
			"line item sum", normalize.FormatCents(*t.LineItemSumCents), t.LineItemsSummed)
	}
	for _, note := range t.Notes {
		fmt.Printf("  note: %s\n", note)
	}
}
