package model

// DetectedTotal is one surviving total candidate. Candidates that fail a
// guardrail are dropped, not stored; the rejection is recorded as an audit
// note on StructuredTotals instead.
type DetectedTotal struct {
	ValueCents int64
	Confidence Confidence
	Label      string // as found on the document
	Evidence   string // source text snippet backing the value
	Source     TotalSource
}

// StructuredTotals is the reconciled set of at most one DetectedTotal per
// semantic slot. A nil slot means "not detected" -- absence is never
// represented as a zero value.
type StructuredTotals struct {
	TotalCharges          *DetectedTotal
	PatientResponsibility *DetectedTotal
	AmountDue             *DetectedTotal
	InsurancePaid         *DetectedTotal
	PaymentsAdjustments   *DetectedTotal
	AllowedAmount         *DetectedTotal

	// LineItemSumCents is the derived sum of billed x units over qualifying
	// line items, nil when fewer than the policy minimum qualified.
	LineItemSumCents *int64
	LineItemsSummed  int

	// Notes is the audit trail: guardrail rejections, derivations, and
	// cross-check mismatches.
	Notes []string
}

// Slot returns the detected total for the given semantic slot.
func (st *StructuredTotals) Slot(s TotalSlot) *DetectedTotal {
	switch s {
	case SlotTotalCharges:
		return st.TotalCharges
	case SlotPatientResponsibility:
		return st.PatientResponsibility
	case SlotAmountDue:
		return st.AmountDue
	case SlotInsurancePaid:
		return st.InsurancePaid
	case SlotPaymentsAdjustments:
		return st.PaymentsAdjustments
	default:
		return st.AllowedAmount
	}
}

// SetSlot stores a detected total in the given semantic slot.
func (st *StructuredTotals) SetSlot(s TotalSlot, t *DetectedTotal) {
	switch s {
	case SlotTotalCharges:
		st.TotalCharges = t
	case SlotPatientResponsibility:
		st.PatientResponsibility = t
	case SlotAmountDue:
		st.AmountDue = t
	case SlotInsurancePaid:
		st.InsurancePaid = t
	case SlotPaymentsAdjustments:
		st.PaymentsAdjustments = t
	default:
		st.AllowedAmount = t
	}
}

// ComparisonBasis names which selection tier supplied the comparison total.
type ComparisonBasis int

const (
	BasisNone ComparisonBasis = iota
	BasisAllowedAmount
	BasisTotalCharges
	BasisLineItemSum
	BasisPatientBalance
)

func (b ComparisonBasis) String() string {
	switch b {
	case BasisAllowedAmount:
		return "allowed_amount"
	case BasisTotalCharges:
		return "total_charges"
	case BasisLineItemSum:
		return "line_item_sum"
	case BasisPatientBalance:
		return "patient_balance"
	default:
		return "none"
	}
}

// TotalsReconciliation is the reconciler's full output: structured totals
// plus the document classification and the chosen comparison-basis total.
type TotalsReconciliation struct {
	Totals   StructuredTotals
	DocClass DocClass

	// ComparisonTotal is the best bill-side total for benchmarking, chosen
	// by the tiered selector; nil when nothing survived the guardrails.
	ComparisonTotal *DetectedTotal
	Basis           ComparisonBasis

	// LimitedComparability marks a patient-balance basis: a post-insurance
	// balance is not scope-compatible with a pre-insurance reference price.
	LimitedComparability bool
}
