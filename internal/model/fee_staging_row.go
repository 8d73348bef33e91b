package model

import "github.com/google/uuid"

// FeeStagingRow is the normalized, DB-ready representation of one fee
// schedule row. Fee values are stored as int64 cents.
type FeeStagingRow struct {
	LoadBatchID    uuid.UUID
	ScheduleFileID int64

	SourceRowNumber int64
	SourceRowHash   []byte

	Year        int32
	Code        string
	Modifier    *string
	Description string
	StatusCode  *string

	WorkRVU     *float64
	FacPERVU    *float64
	NonFacPERVU *float64
	MPRVU       *float64

	FacFeeCents    *int64
	NonFacFeeCents *int64

	ConversionFactor *float64
}

// FeeStagingColumns returns the staging table column names in COPY order.
func FeeStagingColumns() []string {
	return []string{
		"load_batch_id",
		"schedule_file_id",
		"source_row_number",
		"source_row_hash",
		"year",
		"code",
		"modifier",
		"description",
		"status_code",
		"work_rvu",
		"fac_pe_rvu",
		"non_fac_pe_rvu",
		"mp_rvu",
		"fac_fee_cents",
		"non_fac_fee_cents",
		"conversion_factor",
	}
}

// CopyValues returns the row values in the same order as FeeStagingColumns(),
// suitable for pgx CopyFromSource.
func (r *FeeStagingRow) CopyValues() []any {
	return []any{
		r.LoadBatchID,
		r.ScheduleFileID,
		r.SourceRowNumber,
		r.SourceRowHash,
		r.Year,
		r.Code,
		r.Modifier,
		r.Description,
		r.StatusCode,
		r.WorkRVU,
		r.FacPERVU,
		r.NonFacPERVU,
		r.MPRVU,
		r.FacFeeCents,
		r.NonFacFeeCents,
		r.ConversionFactor,
	}
}

// LoadSummary captures metrics from a single fee schedule load run.
type LoadSummary struct {
	FilePath       string
	FileSHA256     string
	ScheduleFileID int64
	LoadBatchID    string
	RowsRead       int64
	RowsStaged     int64
	RowsRejected   int64
	RowsServing    int64
	AlreadyLoaded  bool
}
