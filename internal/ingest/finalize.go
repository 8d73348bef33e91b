package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	embedsql "github.com/maggiexgao/explain-my-bills/internal/sql"
)

// Finalize marks the schedule file as loaded, refreshes planner stats, and
// optionally activates the newest year the batch carried as the serving year.
func Finalize(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, scheduleFileID int64, batchID uuid.UUID, activateYear bool) (time.Duration, error) {
	start := time.Now()

	if _, err := pool.Exec(ctx, embedsql.UpdateFileStatus, scheduleFileID, "loaded"); err != nil {
		return 0, fmt.Errorf("update status to loaded: %w", err)
	}

	if _, err := pool.Exec(ctx, embedsql.AnalyzeReference); err != nil {
		return 0, fmt.Errorf("analyze reference: %w", err)
	}
	log.Info().Msg("ANALYZE complete")

	if activateYear {
		// Staging rows survive until cleanup, so the batch max is still here.
		var year *int
		if err := pool.QueryRow(ctx, embedsql.BatchMaxYear, batchID).Scan(&year); err != nil {
			return 0, fmt.Errorf("find batch max year: %w", err)
		}
		if year == nil {
			log.Warn().Msg("no staged rows in batch; skipping year activation")
		} else {
			if _, err := pool.Exec(ctx, embedsql.ActivateYear, *year); err != nil {
				return 0, fmt.Errorf("activate year %d: %w", *year, err)
			}
			log.Info().Int("year", *year).Msg("schedule year activated")
		}
	}

	return time.Since(start), nil
}
