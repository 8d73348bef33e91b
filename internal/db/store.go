package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maggiexgao/explain-my-bills/internal/schedule"
	embedsql "github.com/maggiexgao/explain-my-bills/internal/sql"
)

// ScheduleStore is the Postgres-backed reference data store. All queries are
// read-only; pgxpool makes it safe for the engine's parallel lookups.
type ScheduleStore struct {
	pool *pgxpool.Pool
}

func NewScheduleStore(pool *pgxpool.Pool) *ScheduleStore {
	return &ScheduleStore{pool: pool}
}

func (s *ScheduleStore) FeeRow(ctx context.Context, code string, year int, modifier string) (*schedule.FeeRow, error) {
	var (
		row        schedule.FeeRow
		statusCode *string
		workRVU    *float64
		facPE      *float64
		nonFacPE   *float64
		mpRVU      *float64
		cf         *float64
	)
	err := s.pool.QueryRow(ctx, embedsql.FeeRow, code, year, modifier).Scan(
		&row.Year, &row.Code, &row.Modifier, &row.Description, &statusCode,
		&workRVU, &facPE, &nonFacPE, &mpRVU,
		&row.FacFeeCents, &row.NonFacFeeCents, &cf,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, schedule.ErrNotFound
		}
		return nil, fmt.Errorf("query fee row: %w", err)
	}
	row.StatusCode = deref(statusCode)
	row.WorkRVU = derefF(workRVU)
	row.FacPERVU = derefF(facPE)
	row.NonFacPERVU = derefF(nonFacPE)
	row.MPRVU = derefF(mpRVU)
	row.ConversionFactor = derefF(cf)
	return &row, nil
}

func (s *ScheduleStore) LatestYear(ctx context.Context) (int, error) {
	var year *int
	if err := s.pool.QueryRow(ctx, embedsql.LatestYear).Scan(&year); err != nil {
		return 0, fmt.Errorf("query latest year: %w", err)
	}
	if year == nil {
		return 0, schedule.ErrNotFound
	}
	return *year, nil
}

func (s *ScheduleStore) LocalityByZIP(ctx context.Context, zip string) (*schedule.LocalityRow, error) {
	return s.locality(ctx, embedsql.LocalityByZIP, zip)
}

func (s *ScheduleStore) LocalityByState(ctx context.Context, state string) (*schedule.LocalityRow, error) {
	return s.locality(ctx, embedsql.LocalityByState, state)
}

func (s *ScheduleStore) locality(ctx context.Context, query, arg string) (*schedule.LocalityRow, error) {
	var row schedule.LocalityRow
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&row.LocalityCode, &row.LocalityName, &row.State,
		&row.WorkGPCI, &row.PEGPCI, &row.MPGPCI,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, schedule.ErrNotFound
		}
		return nil, fmt.Errorf("query locality: %w", err)
	}
	return &row, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefF(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

var _ schedule.Store = (*ScheduleStore)(nil)
