package normalize

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/maggiexgao/explain-my-bills/internal/model"
)

// ToFeeStagingRow converts a Parquet-read RVUParquetRow into a normalized
// FeeStagingRow. Rows without a usable code or year are rejected here so the
// serving table only ever holds addressable rows.
func ToFeeStagingRow(row *model.RVUParquetRow, batchID uuid.UUID, scheduleFileID int64, rowNum int64) (*model.FeeStagingRow, error) {
	code := strings.ToUpper(strings.TrimSpace(row.HCPCSCode))
	code = nonAlphanum.ReplaceAllString(code, "")
	if code == "" {
		return nil, fmt.Errorf("row %d: empty code", rowNum)
	}
	if row.Year <= 0 {
		return nil, fmt.Errorf("row %d: missing year", rowNum)
	}

	s := &model.FeeStagingRow{
		LoadBatchID:    batchID,
		ScheduleFileID: scheduleFileID,

		SourceRowNumber: rowNum,

		Year:        row.Year,
		Code:        code,
		Modifier:    normalizeModifier(row.Modifier),
		Description: strings.TrimSpace(row.Description),
		StatusCode:  optUpper(row.StatusCode),

		WorkRVU:     row.WorkRVU,
		FacPERVU:    row.FacPERVU,
		NonFacPERVU: row.NonFacPERVU,
		MPRVU:       row.MPRVU,

		FacFeeCents:    DollarsToCents(row.FacFee),
		NonFacFeeCents: DollarsToCents(row.NonFacFee),

		ConversionFactor: row.ConversionFactor,
	}

	s.SourceRowHash = RowHashFromValues(rowNum,
		fmt.Sprintf("%d", row.Year),
		code,
		derefStr(s.Modifier),
		s.Description,
	)
	return s, nil
}

func normalizeModifier(v *string) *string {
	if v == nil {
		return nil
	}
	m := strings.ToUpper(strings.TrimSpace(*v))
	m = nonAlphanum.ReplaceAllString(m, "")
	if m == "" {
		return nil
	}
	return &m
}

func optUpper(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.ToUpper(strings.TrimSpace(*v))
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
