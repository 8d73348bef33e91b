package totals

import (
	"fmt"
	"math"

	"github.com/maggiexgao/explain-my-bills/internal/config"
	"github.com/maggiexgao/explain-my-bills/internal/model"
	"github.com/maggiexgao/explain-my-bills/internal/normalize"
)

// Normalizer turns raw total candidates plus line items into StructuredTotals
// under the financial guardrails. All rules live here, applied identically to
// every candidate regardless of which upstream source produced it.
type Normalizer struct {
	policy config.Policy
}

func NewNormalizer(policy config.Policy) *Normalizer {
	return &Normalizer{policy: policy}
}

// Normalize vets every candidate, keeps the best survivor per semantic slot
// (higher confidence wins; on a tie the later candidate replaces the earlier,
// since extractors emit refinements after first guesses), derives a line-item
// sum when the document offers no reliable total charges, and cross-checks
// the derived sum against any stated total.
func (n *Normalizer) Normalize(cands []Candidate, items []model.LineItem) model.StructuredTotals {
	var st model.StructuredTotals

	for _, c := range cands {
		dt, note := vet(c, n.policy)
		if note != "" {
			st.Notes = append(st.Notes, note)
		}
		if dt == nil {
			continue
		}
		cur := st.Slot(c.Slot)
		if cur == nil || dt.Confidence >= cur.Confidence {
			st.SetSlot(c.Slot, dt)
		}
	}

	n.deriveLineItemSum(&st, items)
	n.crossCheck(&st)
	return st
}

// deriveLineItemSum sums billed x units over line items with a positive
// billed amount. A single line item is not a reliable signal of the whole
// bill, so the policy minimum (default 2) must qualify before the sum is
// proposed; confidence is medium from the medium floor (default 3) upward,
// low below it.
func (n *Normalizer) deriveLineItemSum(st *model.StructuredTotals, items []model.LineItem) {
	var sum int64
	var count int
	for _, it := range items {
		total, ok := it.BilledTotalCents()
		if !ok || total <= 0 {
			continue
		}
		sum += total
		count++
	}
	if count < n.policy.MinDerivedItems {
		return
	}

	st.LineItemSumCents = &sum
	st.LineItemsSummed = count

	if st.TotalCharges != nil {
		return // a stated total wins; the sum stays for cross-checking
	}

	conf := model.ConfidenceLow
	if count >= n.policy.MediumConfidenceItems {
		conf = model.ConfidenceMedium
	}
	st.TotalCharges = &model.DetectedTotal{
		ValueCents: sum,
		Confidence: conf,
		Label:      fmt.Sprintf("sum of %d line items", count),
		Evidence:   fmt.Sprintf("derived: %d line items with billed amounts totaling %s", count, normalize.FormatCents(sum)),
		Source:     model.SourceDerivedFromLines,
	}
	st.Notes = append(st.Notes, fmt.Sprintf(
		"no acceptable total charges stated on document; derived %s from %d line items at %s confidence",
		normalize.FormatCents(sum), count, conf))
}

// crossCheck flags a derived sum that disagrees with a stated document total
// beyond the policy tolerance. A mismatch is noted, never fatal: partial
// extraction of line items is common and the note tells the reader which
// number covers what.
func (n *Normalizer) crossCheck(st *model.StructuredTotals) {
	if st.LineItemSumCents == nil || st.TotalCharges == nil || st.TotalCharges.Source != model.SourceExtraction {
		return
	}
	stated := st.TotalCharges.ValueCents
	derived := *st.LineItemSumCents
	if stated == 0 {
		return
	}
	diff := math.Abs(float64(derived-stated)) / math.Abs(float64(stated))
	if diff > n.policy.SumMismatchTolerance {
		st.Notes = append(st.Notes, fmt.Sprintf(
			"line items sum to %s but the document states total charges of %s (%.1f%% apart); extraction may have missed lines",
			normalize.FormatCents(derived), normalize.FormatCents(stated), diff*100))
	}
}
