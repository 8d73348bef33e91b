package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/maggiexgao/explain-my-bills/internal/normalize"
	"github.com/maggiexgao/explain-my-bills/internal/parquetread"
	embedsql "github.com/maggiexgao/explain-my-bills/internal/sql"
)

// PreflightResult holds all context resolved during the preflight phase.
type PreflightResult struct {
	// FilePath is the original path passed to Preflight, stored as-is.
	FilePath string
	// FileSHA256 is the hex-encoded SHA-256 digest of the file.
	FileSHA256 string
	// FileSize is the file size in bytes from os.Stat.
	FileSize int64
	// ScheduleFileID is the DB primary key for this schedule file record,
	// inserted or refreshed by the registration upsert.
	ScheduleFileID int64
	// LoadBatchID is a freshly generated UUIDv4 that uniquely identifies this
	// load run, used to tag staged rows for later transform/cleanup.
	LoadBatchID uuid.UUID
	// NumRows is the total row count reported by the Parquet file metadata.
	NumRows int64
	// AlreadyLoaded is true when the file's sha256 already exists with status
	// "loaded" and force mode is off, signaling the pipeline can skip it.
	AlreadyLoaded bool
}

// Preflight opens the file, computes SHA-256, validates the schema, and
// registers the schedule file.
func Preflight(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, filePath string, force bool) (*PreflightResult, error) {
	start := time.Now()

	sha, err := normalize.FileHash(filePath)
	if err != nil {
		return nil, fmt.Errorf("preflight hash: %w", err)
	}

	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("preflight stat: %w", err)
	}

	reader, err := parquetread.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("preflight open: %w", err)
	}
	defer reader.Close()

	if err := parquetread.ValidateSchema(reader.Schema()); err != nil {
		return nil, fmt.Errorf("preflight validate: %w", err)
	}

	numRows := reader.NumRows()

	log.Info().
		Str("file", filepath.Base(filePath)).
		Str("sha256", sha).
		Int64("rows", numRows).
		Dur("duration", time.Since(start)).
		Msg("preflight complete")

	var (
		scheduleFileID int64
		status         string
	)
	err = pool.QueryRow(ctx, embedsql.RegisterScheduleFile,
		filepath.Base(filePath), sha, stat.Size(),
	).Scan(&scheduleFileID, &status)
	if err != nil {
		return nil, fmt.Errorf("preflight register file: %w", err)
	}

	alreadyLoaded := status == "loaded" && !force
	if status == "loaded" && force {
		if _, err := pool.Exec(ctx, embedsql.UpdateFileStatus, scheduleFileID, "registered"); err != nil {
			return nil, fmt.Errorf("preflight reset status: %w", err)
		}
	}

	return &PreflightResult{
		FilePath:       filePath,
		FileSHA256:     sha,
		FileSize:       stat.Size(),
		ScheduleFileID: scheduleFileID,
		LoadBatchID:    uuid.New(),
		NumRows:        numRows,
		AlreadyLoaded:  alreadyLoaded,
	}, nil
}
