package model

// CoverageStats counts how much of the extracted bill could be benchmarked.
type CoverageStats struct {
	ItemsExtracted int // all line items handed to the engine
	ItemsValid     int // items whose code passed validation
	ItemsMatched   int // items with a priced reference fee
	ItemsBilled    int // items with an extracted billed amount
	// CoveragePct is ItemsMatched / ItemsExtracted in percent, 0 when
	// nothing was extracted.
	CoveragePct float64
}

// ComparisonModel is the readiness gate's verdict: whether a bill-to-reference
// multiple may be shown, and with which exact numerator/denominator pairing.
// Computed fresh per analysis; never persisted.
type ComparisonModel struct {
	Status             ReadinessStatus
	CanComputeMultiple bool
	Multiple           *float64

	NumeratorCents   *int64
	NumeratorLabel   string
	DenominatorCents *int64
	DenominatorLabel string

	Coverage CoverageStats
	// Warnings are scope caveats (partial coverage, year fallback in the
	// denominator, limited comparability). Explanation states why the
	// chosen path was taken, or why none was possible.
	Warnings    []string
	Explanation string
}
