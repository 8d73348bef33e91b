package model

import "time"

// LineItem is one billed service handed to the engine. It is never mutated
// after intake; enrichment (e.g. an inferred facility flag) produces a copy.
// Money is int64 cents; a nil BilledCents means "not extracted", which is
// distinct from an explicit zero.
type LineItem struct {
	Code        ServiceCode
	Rejection   *CodeRejection // set when the raw token failed validation
	Description string
	BilledCents *int64
	Units       int32 // positive; intake clamps non-positive values to 1
	ServiceDate *time.Time
	IsFacility  bool
}

// Billed reports the billed amount and whether one was extracted.
func (li LineItem) Billed() (int64, bool) {
	if li.BilledCents == nil {
		return 0, false
	}
	return *li.BilledCents, true
}

// BilledTotalCents returns billed amount x units, or ok=false when no billed
// amount was extracted.
func (li LineItem) BilledTotalCents() (int64, bool) {
	if li.BilledCents == nil {
		return 0, false
	}
	units := li.Units
	if units <= 0 {
		units = 1
	}
	return *li.BilledCents * int64(units), true
}
