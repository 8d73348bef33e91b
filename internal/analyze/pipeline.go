// Package analyze runs the full engine over one extracted bill: code
// validation, parallel reference-fee resolution, totals reconciliation, and
// the readiness gate.
package analyze

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/maggiexgao/explain-my-bills/internal/config"
	"github.com/maggiexgao/explain-my-bills/internal/intake"
	"github.com/maggiexgao/explain-my-bills/internal/model"
	"github.com/maggiexgao/explain-my-bills/internal/normalize"
	"github.com/maggiexgao/explain-my-bills/internal/readiness"
	"github.com/maggiexgao/explain-my-bills/internal/schedule"
	"github.com/maggiexgao/explain-my-bills/internal/totals"
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

// Request is the caller-supplied context for one analysis.
type Request struct {
	Year      int
	Geography model.Geography
	// FacilityDefault applies to line items whose facility context the
	// document did not state.
	FacilityDefault bool
}

// Run executes the analysis pipeline. Bad input never fails the run: every
// per-line problem becomes a reported outcome on the line, and the worst
// case overall is a "not possible to compare" verdict with its reason.
func Run(ctx context.Context, store schedule.Store, log zerolog.Logger, policy config.Policy, doc *intake.Document, req Request) (*model.AnalysisReport, error) {
	if doc == nil {
		return nil, &PipelineError{Phase: "intake", Err: fmt.Errorf("nil document")}
	}
	start := time.Now()

	items, rejected := buildLineItems(doc, req)
	log.Info().
		Int("items", len(items)).
		Int("rejected_tokens", len(rejected)).
		Int("total_candidates", len(doc.Candidates)).
		Msg("intake complete")

	fees := resolveAll(ctx, store, log, policy, items, req)

	lines := make([]model.ReportLine, len(items))
	for i, it := range items {
		lines[i] = assembleLine(it, fees[i])
	}

	rec := totals.NewReconciler(policy).Reconcile(doc.Text, doc.Candidates, items)
	comparison := readiness.NewGate(policy).Assess(lines, rec)

	report := &model.AnalysisReport{
		RunID:          uuid.NewString(),
		GeneratedAt:    time.Now().UTC(),
		YearRequested:  req.Year,
		Geography:      req.Geography,
		Lines:          lines,
		RejectedTokens: rejected,
		Reconciliation: rec,
		Comparison:     comparison,
	}

	log.Info().
		Str("run_id", report.RunID).
		Str("status", comparison.Status.String()).
		Bool("can_compute_multiple", comparison.CanComputeMultiple).
		Float64("coverage_pct", comparison.Coverage.CoveragePct).
		Dur("duration", time.Since(start)).
		Msg("analysis complete")
	return report, nil
}

// buildLineItems validates every code token and enriches facility context.
// Items whose token fails validation are retained with their rejection so
// the report can show why they were excluded from pricing.
func buildLineItems(doc *intake.Document, req Request) ([]model.LineItem, []model.CodeRejection) {
	items := make([]model.LineItem, 0, len(doc.Items))
	var rejected []model.CodeRejection

	hasRevenueCodes := false
	for _, raw := range doc.Items {
		if sc, _ := normalize.ValidateCode(raw.CodeToken); sc != nil && sc.System == model.SystemRevenue {
			hasRevenueCodes = true
			break
		}
	}

	for _, raw := range doc.Items {
		item := model.LineItem{
			Description: raw.Description,
			BilledCents: raw.BilledCents,
			Units:       raw.Units,
			ServiceDate: raw.ServiceDate,
		}
		if item.Units <= 0 {
			item.Units = 1
		}
		switch {
		case raw.Facility != nil:
			item.IsFacility = *raw.Facility
		default:
			// Revenue-coded documents are institutional bills.
			item.IsFacility = req.FacilityDefault || hasRevenueCodes
		}

		sc, rej := normalize.ValidateCode(raw.CodeToken)
		if rej != nil {
			item.Code = model.ServiceCode{Raw: raw.CodeToken}
			item.Rejection = rej
			rejected = append(rejected, *rej)
		} else {
			item.Code = *sc
		}
		items = append(items, item)
	}
	return items, rejected
}

// resolveAll prices every line item. Lookups run in parallel bounded by
// policy; results are written by index so output order always matches input
// order. A resolver construction failure (store unreachable) marks every
// line "data unavailable" instead of failing the request.
func resolveAll(ctx context.Context, store schedule.Store, log zerolog.Logger, policy config.Policy, items []model.LineItem, req Request) []model.ReferenceFeeResult {
	fees := make([]model.ReferenceFeeResult, len(items))

	resolver, err := schedule.NewResolver(ctx, store, log)
	if err != nil {
		log.Warn().Err(err).Msg("reference store unavailable, marking all lines")
		for i, it := range items {
			fees[i] = model.ReferenceFeeResult{
				Code:            it.Code,
				Status:          model.MatchUnavailable,
				Units:           it.Units,
				YearRequested:   req.Year,
				YearUsed:        req.Year,
				UnavailableNote: fmt.Sprintf("reference data store unreachable: %v", err),
			}
		}
		return fees
	}

	sem := make(chan struct{}, policy.MaxParallelLookups)
	var wg sync.WaitGroup
	for i := range items {
		if items[i].Rejection != nil {
			// Invalid codes are excluded from pricing entirely.
			fees[i] = model.ReferenceFeeResult{
				Code:          items[i].Code,
				Status:        model.MatchMissing,
				Units:         items[i].Units,
				YearRequested: req.Year,
				YearUsed:      req.Year,
			}
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			fees[i] = resolver.Resolve(ctx, items[i].Code, req.Year, req.Geography, items[i].IsFacility, items[i].Units)
		}(i)
	}
	wg.Wait()
	return fees
}

// assembleLine attaches human-readable notes and the per-line multiple.
// A missing billed amount always yields a nil multiple; it is never zero.
func assembleLine(item model.LineItem, fee model.ReferenceFeeResult) model.ReportLine {
	ln := model.ReportLine{Item: item, Fee: fee}

	if item.Rejection != nil {
		ln.Notes = append(ln.Notes, fmt.Sprintf("invalid code %q: %s", item.Rejection.Token, item.Rejection.Reason))
		return ln
	}
	if fee.FallbackNote != "" {
		ln.Notes = append(ln.Notes, fee.FallbackNote)
	}
	switch fee.Status {
	case model.MatchNotPriced:
		ln.Notes = append(ln.Notes, fmt.Sprintf("not priced: %s", fee.NotPricedReason))
	case model.MatchMissing:
		ln.Notes = append(ln.Notes, "code not found in the reference schedule for any year tried")
	case model.MatchUnavailable:
		ln.Notes = append(ln.Notes, fee.UnavailableNote)
	}
	if fee.Bundled {
		ln.Notes = append(ln.Notes, "schedule marks this code as bundled")
	}

	billed, ok := item.BilledTotalCents()
	if ok && billed > 0 && fee.Status == model.MatchFound && fee.FeeTotalCents != nil && *fee.FeeTotalCents > 0 {
		mult := float64(billed) / float64(*fee.FeeTotalCents)
		ln.MultipleOfReference = &mult
	}
	return ln
}
