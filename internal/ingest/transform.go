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

// TransformResult holds metrics from the staging-to-serving upsert.
type TransformResult struct {
	RowsUpserted int64
	Duration     time.Duration
}

// Transform upserts deduplicated staging rows into ref.fee_schedule.
// Duplicate (code, modifier, year) rows within a batch resolve to the
// earliest source row.
func Transform(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, batchID uuid.UUID) (*TransformResult, error) {
	start := time.Now()

	tag, err := pool.Exec(ctx, embedsql.TransformStage, batchID)
	if err != nil {
		return nil, fmt.Errorf("transform stage: %w", err)
	}

	dur := time.Since(start)
	rows := tag.RowsAffected()

	log.Info().
		Int64("rows_upserted", rows).
		Str("duration", dur.String()).
		Float64("rows_per_sec", float64(rows)/dur.Seconds()).
		Msg("transform complete")

	return &TransformResult{
		RowsUpserted: rows,
		Duration:     dur,
	}, nil
}
