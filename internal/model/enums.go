package model

// CodeSystem identifies which billing code family a token was recognized as.
// A ServiceCode is either fully recognized (system != SystemUnknown) or it
// carries a rejection reason; there is no partially-valid state.
type CodeSystem int

const (
	SystemUnknown CodeSystem = iota
	SystemCPT                // 5-digit numeric procedure code
	SystemHCPCS              // 1 letter + 4 digits
	SystemRevenue            // bare 4-digit revenue code
)

func (s CodeSystem) String() string {
	switch s {
	case SystemCPT:
		return "cpt"
	case SystemHCPCS:
		return "hcpcs"
	case SystemRevenue:
		return "revenue"
	default:
		return "unknown"
	}
}

// MatchStatus is the outcome of a reference-fee lookup for one line.
// The first three are mutually exclusive and exhaustive for a store that
// answered; MatchUnavailable means the store itself could not be read and
// must never be collapsed into MatchMissing.
type MatchStatus int

const (
	// MatchMissing means no schedule row existed for any year tried.
	MatchMissing MatchStatus = iota
	// MatchFound means a priced row was found; FeePerUnitCents > 0.
	MatchFound
	// MatchNotPriced means a row exists but carries no usable RVU or fee
	// data (bundled, carrier-priced, informational codes).
	MatchNotPriced
	// MatchUnavailable means the reference store could not be queried.
	MatchUnavailable
)

func (m MatchStatus) String() string {
	switch m {
	case MatchFound:
		return "matched"
	case MatchNotPriced:
		return "exists_but_not_priced"
	case MatchUnavailable:
		return "data_unavailable"
	default:
		return "missing"
	}
}

// LocalityTier records which geographic tier supplied the GPCI multipliers.
type LocalityTier int

const (
	TierNational LocalityTier = iota // GPCI defaults of 1.0
	TierState                        // state-level locality row
	TierZIP                          // ZIP-prefix locality row
)

func (t LocalityTier) String() string {
	switch t {
	case TierZIP:
		return "locally_adjusted"
	case TierState:
		return "state_estimate"
	default:
		return "national_estimate"
	}
}

// Confidence grades an extracted or derived value.
type Confidence int

const (
	ConfidenceLow Confidence = iota
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	default:
		return "low"
	}
}

// TotalSource records where a surviving total candidate came from.
type TotalSource int

const (
	SourceExtraction TotalSource = iota
	SourceDerivedFromLines
)

func (s TotalSource) String() string {
	if s == SourceDerivedFromLines {
		return "derived_from_line_items"
	}
	return "extraction"
}

// TotalSlot is one of the semantic totals a bill can state.
type TotalSlot int

const (
	SlotTotalCharges TotalSlot = iota
	SlotPatientResponsibility
	SlotAmountDue
	SlotInsurancePaid
	SlotPaymentsAdjustments
	SlotAllowedAmount
)

func (s TotalSlot) String() string {
	switch s {
	case SlotTotalCharges:
		return "total_charges"
	case SlotPatientResponsibility:
		return "patient_responsibility"
	case SlotAmountDue:
		return "amount_due"
	case SlotInsurancePaid:
		return "insurance_paid"
	case SlotPaymentsAdjustments:
		return "payments_adjustments"
	default:
		return "allowed_amount"
	}
}

// DocClass is the detected document type. Classification only informs
// confidence weighting; it never blocks extraction.
type DocClass int

const (
	DocUnknown DocClass = iota
	DocItemizedStatement
	DocSummaryStatement
	DocEOB
	DocPortalSummary
	DocPaymentReceipt
	DocHospitalSummary
)

func (d DocClass) String() string {
	switch d {
	case DocItemizedStatement:
		return "itemized_statement"
	case DocSummaryStatement:
		return "summary_statement"
	case DocEOB:
		return "insurer_eob"
	case DocPortalSummary:
		return "portal_summary"
	case DocPaymentReceipt:
		return "payment_receipt"
	case DocHospitalSummary:
		return "hospital_summary"
	default:
		return "unknown"
	}
}

// ReadinessStatus is the readiness gate's verdict, in strict priority order.
// A later (weaker) status must never be returned when an earlier one applies.
type ReadinessStatus int

const (
	NotPossible ReadinessStatus = iota
	ReadyMatchedItems
	ReadyDocumentTotal
	LimitedBalanceOnly
	LimitedNoBilledAmounts
	LimitedLowCoverage
)

func (r ReadinessStatus) String() string {
	switch r {
	case ReadyMatchedItems:
		return "ready_matched_items"
	case ReadyDocumentTotal:
		return "ready_document_total"
	case LimitedBalanceOnly:
		return "limited_balance_only"
	case LimitedNoBilledAmounts:
		return "limited_no_billed_amounts"
	case LimitedLowCoverage:
		return "limited_low_coverage"
	default:
		return "not_possible"
	}
}
