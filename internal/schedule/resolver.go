package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/maggiexgao/explain-my-bills/internal/model"
	"github.com/maggiexgao/explain-my-bills/internal/normalize"
)

// Resolver answers reference-fee lookups for a single analysis run. The
// latest available year is fetched once at construction and scoped to this
// resolver, never cached process-wide, so concurrent analyses cannot
// contaminate each other.
type Resolver struct {
	store      Store
	log        zerolog.Logger
	latestYear int // 0 when the store holds no data at all
}

// NewResolver creates a per-analysis resolver. A store read failure is
// returned to the caller, who should mark every line "data unavailable"
// rather than fail the whole request.
func NewResolver(ctx context.Context, store Store, log zerolog.Logger) (*Resolver, error) {
	latest, err := store.LatestYear(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &Resolver{store: store, log: log}, nil
		}
		return nil, fmt.Errorf("query latest schedule year: %w", err)
	}
	return &Resolver{store: store, log: log, latestYear: latest}, nil
}

// LatestYear reports the most recent year the schedule covers, 0 when empty.
func (r *Resolver) LatestYear() int { return r.latestYear }

type gpciTriplet struct {
	work, pe, mp float64
}

var nationalGPCI = gpciTriplet{work: 1.0, pe: 1.0, mp: 1.0}

// Resolve runs the fallback state machine for one line item:
// exact (code, year, modifier) -> no-modifier -> both again at the latest
// year. Every fallback taken is recorded in the result, never silent.
// Units multiply the fee exactly once, here at the top level.
func (r *Resolver) Resolve(ctx context.Context, code model.ServiceCode, yearRequested int, geo model.Geography, isFacility bool, units int32) model.ReferenceFeeResult {
	if units <= 0 {
		units = 1
	}
	res := model.ReferenceFeeResult{
		Code:          code,
		Units:         units,
		YearRequested: yearRequested,
		YearUsed:      yearRequested,
		Locality:      model.TierNational,
	}

	row, modFallback, err := r.lookup(ctx, code, yearRequested)
	if err != nil && !errors.Is(err, ErrNotFound) {
		res.Status = model.MatchUnavailable
		res.UnavailableNote = fmt.Sprintf("reference data store unreachable: %v", err)
		return res
	}
	if row == nil && r.latestYear != 0 && r.latestYear != yearRequested {
		row, modFallback, err = r.lookup(ctx, code, r.latestYear)
		if err != nil && !errors.Is(err, ErrNotFound) {
			res.Status = model.MatchUnavailable
			res.UnavailableNote = fmt.Sprintf("reference data store unreachable: %v", err)
			return res
		}
		if row != nil {
			res.UsedYearFallback = true
			res.YearUsed = r.latestYear
			res.FallbackNote = fmt.Sprintf("no %d schedule entry for %s; using %d rates",
				yearRequested, code.Code, r.latestYear)
		}
	}
	if row == nil {
		res.Status = model.MatchMissing
		return res
	}

	res.Description = row.Description
	res.Bundled = row.StatusCode == "B"
	if modFallback {
		res.UsedModifierFallback = true
		note := fmt.Sprintf("modifier %s not separately listed for %s; using base code rate",
			code.Modifier, code.Code)
		if res.FallbackNote != "" {
			res.FallbackNote += "; " + note
		} else {
			res.FallbackNote = note
		}
	}

	feeCents, priced, reason := r.price(ctx, row, geo, isFacility, &res)
	if !priced {
		res.Status = model.MatchNotPriced
		res.NotPricedReason = reason
		return res
	}
	if feeCents <= 0 {
		// A zero or negative computed fee would produce a bogus multiple.
		res.Status = model.MatchNotPriced
		res.NotPricedReason = "computed reference fee is not positive"
		return res
	}

	res.Status = model.MatchFound
	total := feeCents * int64(units)
	res.FeePerUnitCents = &feeCents
	res.FeeTotalCents = &total
	return res
}

// lookup tries (code, year, modifier) then (code, year, "") when a modifier
// was present. The second return reports whether the modifier was dropped.
func (r *Resolver) lookup(ctx context.Context, code model.ServiceCode, year int) (*FeeRow, bool, error) {
	row, err := r.store.FeeRow(ctx, code.Code, year, code.Modifier)
	if err == nil {
		return row, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	if code.Modifier == "" {
		return nil, false, ErrNotFound
	}
	row, err = r.store.FeeRow(ctx, code.Code, year, "")
	if err == nil {
		return row, true, nil
	}
	return nil, false, err
}

// price determines priceability and computes the per-unit fee in cents.
// Preference order: directly stored fee, then the GPCI-adjusted RVU formula.
func (r *Resolver) price(ctx context.Context, row *FeeRow, geo model.Geography, isFacility bool, res *model.ReferenceFeeResult) (int64, bool, string) {
	direct := row.NonFacFeeCents
	if isFacility {
		direct = row.FacFeeCents
	}
	if direct != nil && *direct > 0 {
		res.Locality = model.TierNational
		res.LocalityName = "national fee schedule amount"
		return *direct, true, ""
	}

	peRVU := row.NonFacPERVU
	if isFacility {
		peRVU = row.FacPERVU
	}
	hasRVU := row.WorkRVU > 0 || peRVU > 0 || row.MPRVU > 0
	if !hasRVU {
		if row.StatusCode == "B" {
			return 0, false, "bundled code, not separately payable"
		}
		return 0, false, "schedule row carries no RVU or fee data"
	}
	if row.ConversionFactor <= 0 {
		return 0, false, "schedule row carries no conversion factor"
	}

	gpci := r.resolveGeography(ctx, geo, res)
	fee := (row.WorkRVU*gpci.work + peRVU*gpci.pe + row.MPRVU*gpci.mp) * row.ConversionFactor
	return normalize.RoundCents(fee), true, ""
}

// resolveGeography walks ZIP-prefix -> state -> national. A locality store
// failure degrades to the next tier with a log line instead of failing the
// line item; the fee is still a valid national estimate.
func (r *Resolver) resolveGeography(ctx context.Context, geo model.Geography, res *model.ReferenceFeeResult) gpciTriplet {
	if geo.ZIP != "" {
		loc, err := r.store.LocalityByZIP(ctx, geo.ZIP)
		switch {
		case err == nil:
			res.Locality = model.TierZIP
			res.LocalityName = loc.LocalityName
			return gpciTriplet{work: loc.WorkGPCI, pe: loc.PEGPCI, mp: loc.MPGPCI}
		case !errors.Is(err, ErrNotFound):
			r.log.Warn().Err(err).Str("zip", geo.ZIP).Msg("zip locality lookup failed, degrading")
		}
	}
	if geo.State != "" {
		loc, err := r.store.LocalityByState(ctx, geo.State)
		switch {
		case err == nil:
			res.Locality = model.TierState
			res.LocalityName = loc.LocalityName
			return gpciTriplet{work: loc.WorkGPCI, pe: loc.PEGPCI, mp: loc.MPGPCI}
		case !errors.Is(err, ErrNotFound):
			r.log.Warn().Err(err).Str("state", geo.State).Msg("state locality lookup failed, degrading")
		}
	}
	res.Locality = model.TierNational
	res.LocalityName = "national averages"
	return nationalGPCI
}
