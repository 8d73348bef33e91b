package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/maggiexgao/explain-my-bills/internal/db"
	"github.com/maggiexgao/explain-my-bills/internal/exitcode"
	"github.com/maggiexgao/explain-my-bills/internal/logging"
	embedsql "github.com/maggiexgao/explain-my-bills/internal/sql"
)

var loadgpciCmd = &cobra.Command{
	Use:   "loadgpci",
	Short: "Load GPCI locality factors and ZIP-to-locality mappings from CSV",
	RunE:  runLoadgpci,
}

func init() {
	f := loadgpciCmd.Flags()
	f.StringVar(&cfg.GPCIPath, "gpci", "", "Path to GPCI locality CSV (locality_code,locality_name,state,is_state_default,work_gpci,pe_gpci,mp_gpci)")
	f.StringVar(&cfg.ZIPMapPath, "zipmap", "", "Path to ZIP mapping CSV (zip_prefix,locality_code)")
	rootCmd.AddCommand(loadgpciCmd)
}

func runLoadgpci(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if cfg.GPCIPath == "" && cfg.ZIPMapPath == "" {
		log.Error().Msg("at least one of --gpci or --zipmap is required")
		os.Exit(exitcode.UsageError)
	}
	if cfg.DSN == "" {
		log.Error().Msg("--dsn or BILLBENCH_DB_URL is required")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	if cfg.GPCIPath != "" {
		n, err := loadGPCIFile(ctx, pool, cfg.GPCIPath)
		if err != nil {
			log.Error().Err(err).Msg("GPCI load failed")
			os.Exit(exitcode.CopyError)
		}
		log.Info().Int("localities", n).Msg("GPCI localities upserted")
	}

	if cfg.ZIPMapPath != "" {
		n, err := loadZIPMapFile(ctx, pool, cfg.ZIPMapPath)
		if err != nil {
			log.Error().Err(err).Msg("ZIP mapping load failed")
			os.Exit(exitcode.CopyError)
		}
		log.Info().Int("mappings", n).Msg("ZIP mappings upserted")
	}

	return nil
}

func loadGPCIFile(ctx context.Context, pool *pgxpool.Pool, path string) (int, error) {
	rows, err := readCSV(path, 7)
	if err != nil {
		return 0, err
	}
	count := 0
	for i, rec := range rows {
		isDefault, err := strconv.ParseBool(strings.TrimSpace(rec[3]))
		if err != nil {
			return count, fmt.Errorf("row %d: bad is_state_default %q: %w", i+1, rec[3], err)
		}
		gpcis := make([]float64, 3)
		for j, col := range rec[4:7] {
			v, err := strconv.ParseFloat(strings.TrimSpace(col), 64)
			if err != nil {
				return count, fmt.Errorf("row %d: bad GPCI value %q: %w", i+1, col, err)
			}
			gpcis[j] = v
		}
		_, err = pool.Exec(ctx, embedsql.UpsertGPCILocality,
			strings.TrimSpace(rec[0]), strings.TrimSpace(rec[1]),
			strings.ToUpper(strings.TrimSpace(rec[2])), isDefault,
			gpcis[0], gpcis[1], gpcis[2],
		)
		if err != nil {
			return count, fmt.Errorf("row %d: upsert locality: %w", i+1, err)
		}
		count++
	}
	return count, nil
}

func loadZIPMapFile(ctx context.Context, pool *pgxpool.Pool, path string) (int, error) {
	rows, err := readCSV(path, 2)
	if err != nil {
		return 0, err
	}
	count := 0
	for i, rec := range rows {
		prefix := strings.TrimSpace(rec[0])
		if len(prefix) != 3 {
			return count, fmt.Errorf("row %d: zip_prefix must be 3 digits, got %q", i+1, prefix)
		}
		_, err = pool.Exec(ctx, embedsql.UpsertZIPLocality, prefix, strings.TrimSpace(rec[1]))
		if err != nil {
			return count, fmt.Errorf("row %d: upsert zip mapping: %w", i+1, err)
		}
		count++
	}
	return count, nil
}

// readCSV reads all records, skipping a header row when the first field is
// not numeric-looking, and enforces a minimum column count.
func readCSV(path string, minCols int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out [][]string
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(rec) < minCols {
			return nil, fmt.Errorf("csv row has %d columns, need %d", len(rec), minCols)
		}
		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(rec[0]), "locality_code") ||
				strings.EqualFold(strings.TrimSpace(rec[0]), "zip_prefix") {
				continue
			}
		}
		out = append(out, rec)
	}
	return out, nil
}
