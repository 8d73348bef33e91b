// Package readiness decides whether a bill-to-reference multiple may be
// shown at all, and with which numerator/denominator pairing.
package readiness

import (
	"fmt"

	"github.com/maggiexgao/explain-my-bills/internal/config"
	"github.com/maggiexgao/explain-my-bills/internal/model"
	"github.com/maggiexgao/explain-my-bills/internal/normalize"
)

// Gate is the top-level policy component. Paths are evaluated in strict
// priority order and the first match wins: a weaker pairing must never be
// chosen while a stronger one is available.
type Gate struct {
	policy config.Policy
}

func NewGate(policy config.Policy) *Gate {
	return &Gate{policy: policy}
}

// Assess classifies readiness from the per-line fee results and the
// reconciled totals.
func (g *Gate) Assess(lines []model.ReportLine, rec model.TotalsReconciliation) model.ComparisonModel {
	cov := coverage(lines)
	m := model.ComparisonModel{Status: model.NotPossible, Coverage: cov}

	// Path 1: matched items. Lines with both a positive billed amount and a
	// positive reference fee pair scope-consistently line by line.
	var numer, denom int64
	matched := 0
	yearFallback := false
	for _, ln := range lines {
		billed, ok := ln.Item.BilledTotalCents()
		if !ok || billed <= 0 {
			continue
		}
		if ln.Fee.Status != model.MatchFound || ln.Fee.FeeTotalCents == nil || *ln.Fee.FeeTotalCents <= 0 {
			continue
		}
		numer += billed
		denom += *ln.Fee.FeeTotalCents
		matched++
		yearFallback = yearFallback || ln.Fee.UsedYearFallback
	}
	if matched >= 1 {
		m.Status = model.ReadyMatchedItems
		m.CanComputeMultiple = true
		mult := float64(numer) / float64(denom)
		m.Multiple = &mult
		m.NumeratorCents = &numer
		m.NumeratorLabel = fmt.Sprintf("billed amounts for %d matched items", matched)
		m.DenominatorCents = &denom
		m.DenominatorLabel = fmt.Sprintf("reference fees for %d matched items", matched)
		m.Explanation = "billed amounts compared against reference fees for the same line items"
		if matched < cov.ItemsExtracted {
			m.Warnings = append(m.Warnings, fmt.Sprintf(
				"%d of %d extracted items excluded from the comparison (no billed amount or no reference match)",
				cov.ItemsExtracted-matched, cov.ItemsExtracted))
		}
		if yearFallback {
			m.Warnings = append(m.Warnings, "some reference fees use a different schedule year than requested")
		}
		return m
	}

	var pricedDenom int64
	priced := 0
	for _, ln := range lines {
		if ln.Fee.Status == model.MatchFound && ln.Fee.FeeTotalCents != nil {
			pricedDenom += *ln.Fee.FeeTotalCents
			priced++
		}
	}

	var docTotal *model.DetectedTotal
	if t := rec.Totals.TotalCharges; t != nil && t.Source == model.SourceExtraction {
		docTotal = t
	}
	balance := rec.Totals.PatientResponsibility
	if balance == nil {
		balance = rec.Totals.AmountDue
	}

	// Path 2: document total against the priced subset, only when enough of
	// the bill was matched for the pairing to represent it.
	if docTotal != nil && priced >= 1 && cov.CoveragePct >= g.policy.CoverageThresholdPct {
		m.Status = model.ReadyDocumentTotal
		m.CanComputeMultiple = true
		numer := docTotal.ValueCents
		mult := float64(numer) / float64(pricedDenom)
		m.Multiple = &mult
		m.NumeratorCents = &numer
		m.NumeratorLabel = fmt.Sprintf("document total charges (%s)", docTotal.Label)
		m.DenominatorCents = &pricedDenom
		m.DenominatorLabel = fmt.Sprintf("reference fees for %d priced items", priced)
		m.Explanation = "document-stated total charges compared against the summed reference fees of priced items"
		m.Warnings = append(m.Warnings, fmt.Sprintf(
			"document total covers the whole bill but only %d of %d items were priced (%.0f%% coverage)",
			priced, cov.ItemsExtracted, cov.CoveragePct))
		return m
	}

	// Path 3: a patient-owes balance is the only money found. A
	// post-insurance balance cannot be compared to a pre-insurance
	// reference, so the multiple is forbidden, not approximated.
	if balance != nil && docTotal == nil && rec.Totals.LineItemSumCents == nil {
		m.Status = model.LimitedBalanceOnly
		m.NumeratorLabel = fmt.Sprintf("patient balance (%s)", balance.Label)
		v := balance.ValueCents
		m.NumeratorCents = &v
		m.Explanation = fmt.Sprintf(
			"only a patient balance of %s was detected; a post-insurance balance is not comparable to pre-insurance reference prices",
			normalize.FormatCents(balance.ValueCents))
		m.Warnings = append(m.Warnings, "scope mismatch: post-insurance balance vs pre-insurance reference")
		return m
	}

	// Path 4: reference data exists, the bill side is empty.
	if priced >= 1 && docTotal == nil && rec.Totals.LineItemSumCents == nil && balance == nil {
		m.Status = model.LimitedNoBilledAmounts
		m.DenominatorCents = &pricedDenom
		m.DenominatorLabel = fmt.Sprintf("reference fees for %d priced items", priced)
		m.Explanation = "reference fees were found but no billed amount or total was detected on the document"
		return m
	}

	// Path 5: both sides exist but too little of the bill was matched for a
	// multiple to represent it.
	billedSideExists := docTotal != nil || rec.Totals.LineItemSumCents != nil
	if billedSideExists && priced >= 1 && cov.CoveragePct < g.policy.CoverageThresholdPct {
		m.Status = model.LimitedLowCoverage
		m.Explanation = fmt.Sprintf(
			"only %.0f%% of extracted items matched a priceable reference fee (threshold %.0f%%); a multiple would misrepresent the bill",
			cov.CoveragePct, g.policy.CoverageThresholdPct)
		m.Warnings = append(m.Warnings, m.Explanation)
		return m
	}

	m.Explanation = "no pairing of billed amounts and reference fees was possible"
	return m
}

func coverage(lines []model.ReportLine) model.CoverageStats {
	cov := model.CoverageStats{ItemsExtracted: len(lines)}
	for _, ln := range lines {
		if ln.Item.Rejection == nil {
			cov.ItemsValid++
		}
		if _, ok := ln.Item.Billed(); ok {
			cov.ItemsBilled++
		}
		if ln.Fee.Status == model.MatchFound {
			cov.ItemsMatched++
		}
	}
	if cov.ItemsExtracted > 0 {
		cov.CoveragePct = 100 * float64(cov.ItemsMatched) / float64(cov.ItemsExtracted)
	}
	return cov
}
