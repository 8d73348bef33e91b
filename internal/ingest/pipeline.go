package ingest

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/maggiexgao/explain-my-bills/internal/config"
	"github.com/maggiexgao/explain-my-bills/internal/model"
	embedsql "github.com/maggiexgao/explain-my-bills/internal/sql"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Run executes the full fee schedule load: preflight → stage → transform →
// finalize → cleanup.
func Run(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, cfg *config.Config) (*model.LoadSummary, error) {
	// Phase 1: Preflight
	log.Info().Str("file", cfg.FilePath).Msg("starting preflight")
	pf, err := Preflight(ctx, pool, log, cfg.FilePath, cfg.Force)
	if err != nil {
		return nil, &PipelineError{Phase: "preflight", Err: err}
	}

	if pf.AlreadyLoaded {
		log.Info().
			Int64("schedule_file_id", pf.ScheduleFileID).
			Str("sha256", pf.FileSHA256).
			Msg("file already loaded, skipping (use --force to reload)")
		return &model.LoadSummary{
			FilePath:       pf.FilePath,
			FileSHA256:     pf.FileSHA256,
			ScheduleFileID: pf.ScheduleFileID,
			LoadBatchID:    pf.LoadBatchID.String(),
			AlreadyLoaded:  true,
		}, nil
	}

	// Phase 2: Stage
	log.Info().Msg("starting staging")
	if _, err := pool.Exec(ctx, embedsql.UpdateFileStatus, pf.ScheduleFileID, "staging"); err != nil {
		return nil, &PipelineError{Phase: "stage", Err: err}
	}

	stageResult, err := Stage(ctx, pool, log, pf)
	if err != nil {
		markFailed(ctx, pool, pf.ScheduleFileID)
		return nil, &PipelineError{Phase: "stage", Err: err}
	}

	// Phase 3: Transform
	log.Info().Msg("starting transform")
	transformResult, err := Transform(ctx, pool, log, pf.LoadBatchID)
	if err != nil {
		markFailed(ctx, pool, pf.ScheduleFileID)
		return nil, &PipelineError{Phase: "transform", Err: err}
	}

	// Phase 4: Finalize
	log.Info().Msg("finalizing")
	if _, err := Finalize(ctx, pool, log, pf.ScheduleFileID, pf.LoadBatchID, cfg.ActivateYear); err != nil {
		markFailed(ctx, pool, pf.ScheduleFileID)
		return nil, &PipelineError{Phase: "finalize", Err: err}
	}

	// Phase 5: Cleanup staging
	if !cfg.KeepStaging {
		log.Info().Msg("cleaning up staging")
		if err := Cleanup(ctx, pool, log, pf.LoadBatchID); err != nil {
			log.Warn().Err(err).Msg("staging cleanup failed (non-fatal)")
		}
	}

	summary := &model.LoadSummary{
		FilePath:       pf.FilePath,
		FileSHA256:     pf.FileSHA256,
		ScheduleFileID: pf.ScheduleFileID,
		LoadBatchID:    pf.LoadBatchID.String(),
		RowsRead:       stageResult.RowsRead,
		RowsStaged:     stageResult.RowsStaged,
		RowsRejected:   stageResult.RowsRejected,
		RowsServing:    transformResult.RowsUpserted,
	}

	log.Info().
		Int64("rows_read", summary.RowsRead).
		Int64("rows_staged", summary.RowsStaged).
		Int64("rows_serving", summary.RowsServing).
		Int64("rows_rejected", summary.RowsRejected).
		Msg("fee schedule load complete")

	return summary, nil
}

func markFailed(ctx context.Context, pool *pgxpool.Pool, scheduleFileID int64) {
	_, _ = pool.Exec(ctx, embedsql.UpdateFileStatus, scheduleFileID, "failed")
}
