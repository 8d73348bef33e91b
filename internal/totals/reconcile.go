package totals

import (
	"fmt"

	"github.com/maggiexgao/explain-my-bills/internal/config"
	"github.com/maggiexgao/explain-my-bills/internal/model"
	"github.com/maggiexgao/explain-my-bills/internal/normalize"
)

// Reconciler wraps the Normalizer with document classification and
// comparison-total selection.
type Reconciler struct {
	policy config.Policy
	norm   *Normalizer
}

func NewReconciler(policy config.Policy) *Reconciler {
	return &Reconciler{policy: policy, norm: NewNormalizer(policy)}
}

// producer is one named source of a comparison-basis total. Producers are
// tried in declaration order; the first that yields a total wins. Keeping
// them as a flat ordered list keeps the priority rule in one testable place
// instead of scattered per-source conditionals.
type producer struct {
	name    string
	basis   model.ComparisonBasis
	limited bool
	get     func(st *model.StructuredTotals) *model.DetectedTotal
}

var comparisonProducers = []producer{
	{
		name:  "allowed amount",
		basis: model.BasisAllowedAmount,
		get:   func(st *model.StructuredTotals) *model.DetectedTotal { return st.AllowedAmount },
	},
	{
		name:  "total charges",
		basis: model.BasisTotalCharges,
		get: func(st *model.StructuredTotals) *model.DetectedTotal {
			if st.TotalCharges != nil && st.TotalCharges.Source == model.SourceExtraction {
				return st.TotalCharges
			}
			return nil
		},
	},
	{
		name:  "line item sum",
		basis: model.BasisLineItemSum,
		get: func(st *model.StructuredTotals) *model.DetectedTotal {
			if st.TotalCharges != nil && st.TotalCharges.Source == model.SourceDerivedFromLines {
				return st.TotalCharges
			}
			return nil
		},
	},
	{
		// A patient-owes balance is the weakest basis: post-insurance money
		// against a pre-insurance reference is a scope mismatch, so this
		// tier always marks the result limited.
		name:    "patient balance",
		basis:   model.BasisPatientBalance,
		limited: true,
		get: func(st *model.StructuredTotals) *model.DetectedTotal {
			if st.PatientResponsibility != nil {
				return st.PatientResponsibility
			}
			return st.AmountDue
		},
	},
}

// Reconcile classifies the document, normalizes every total candidate, and
// picks one comparison-basis total with an explanation.
func (r *Reconciler) Reconcile(docText string, cands []Candidate, items []model.LineItem) model.TotalsReconciliation {
	st := r.norm.Normalize(cands, items)
	class := Classify(docText, items)
	r.applyClassWeighting(class, &st)

	rec := model.TotalsReconciliation{Totals: st, DocClass: class}
	for _, p := range comparisonProducers {
		if dt := p.get(&rec.Totals); dt != nil {
			rec.ComparisonTotal = dt
			rec.Basis = p.basis
			rec.LimitedComparability = p.limited
			rec.Totals.Notes = append(rec.Totals.Notes, fmt.Sprintf(
				"comparison basis: %s %s (%s confidence)",
				p.name, normalize.FormatCents(dt.ValueCents), dt.Confidence))
			break
		}
	}
	return rec
}

// applyClassWeighting nudges slot confidence based on what kind of document
// this is. Classification adjusts confidence only; it never adds or removes
// a detected value.
func (r *Reconciler) applyClassWeighting(class model.DocClass, st *model.StructuredTotals) {
	switch class {
	case model.DocEOB:
		// An EOB states the allowed amount authoritatively.
		if st.AllowedAmount != nil && st.AllowedAmount.Confidence == model.ConfidenceMedium {
			st.AllowedAmount.Confidence = model.ConfidenceHigh
			st.Notes = append(st.Notes, "allowed amount confidence raised: document is an insurer EOB")
		}
	case model.DocPaymentReceipt:
		// Receipts describe money already paid, not the bill's scope.
		if st.TotalCharges != nil && st.TotalCharges.Confidence == model.ConfidenceHigh {
			st.TotalCharges.Confidence = model.ConfidenceMedium
			st.Notes = append(st.Notes, "total charges confidence lowered: document is a payment receipt")
		}
	}
}
