// Package schedule resolves validated service codes against a government
// reference fee schedule, applying year, modifier, and geography fallback.
package schedule

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store lookups when no row exists. Any other
// error means the store itself could not be read, which callers must surface
// as "data unavailable" rather than "not in schedule".
var ErrNotFound = errors.New("schedule: not found")

// FeeRow is one fee-schedule entry for a (code, modifier, year).
type FeeRow struct {
	Year        int
	Code        string
	Modifier    string
	Description string

	// StatusCode is the schedule's payability indicator ("A" active,
	// "B" bundled, "C" carrier-priced, "I" informational). Empty when the
	// source extract carried none.
	StatusCode string

	WorkRVU     float64
	FacPERVU    float64
	NonFacPERVU float64
	MPRVU       float64

	// Directly stored national fee amounts, preferred over the RVU formula
	// when present.
	FacFeeCents    *int64
	NonFacFeeCents *int64

	ConversionFactor float64
}

// LocalityRow carries the GPCI triplet for one pricing locality.
type LocalityRow struct {
	LocalityCode string
	LocalityName string
	State        string

	WorkGPCI float64
	PEGPCI   float64
	MPGPCI   float64
}

// Store is the read-only reference data source. Implementations must be safe
// for concurrent use; the engine resolves line items in parallel.
type Store interface {
	// FeeRow looks up (code, year, modifier); modifier may be empty.
	FeeRow(ctx context.Context, code string, year int, modifier string) (*FeeRow, error)
	// LatestYear reports the most recent year with any schedule data.
	LatestYear(ctx context.Context) (int, error)
	// LocalityByZIP matches a 5-digit ZIP by its 3-digit prefix.
	LocalityByZIP(ctx context.Context, zip string) (*LocalityRow, error)
	// LocalityByState returns the state-level locality row.
	LocalityByState(ctx context.Context, state string) (*LocalityRow, error)
}
