package model

// Geography is the billing context used to pick GPCI multipliers.
// Either field may be empty; the resolver degrades ZIP -> state -> national.
type Geography struct {
	ZIP   string // 5-digit ZIP; matched by 3-digit prefix
	State string // 2-letter state code
}

// ReferenceFeeResult is the outcome of one reference-fee lookup.
//
// Invariants, enforced by the resolver:
//   - Status == MatchFound implies FeePerUnitCents != nil and > 0.
//   - Status == MatchNotPriced implies fee fields are nil and
//     NotPricedReason is set.
//   - Status == MatchMissing or MatchUnavailable implies fee fields are nil.
type ReferenceFeeResult struct {
	Code ServiceCode

	Status          MatchStatus
	FeePerUnitCents *int64
	FeeTotalCents   *int64 // FeePerUnitCents x units, applied once, here only
	Units           int32

	YearRequested        int
	YearUsed             int
	UsedYearFallback     bool
	UsedModifierFallback bool
	// FallbackNote states in plain language why a fallback tier was taken.
	// Never empty when either fallback flag is set.
	FallbackNote string

	Locality     LocalityTier
	LocalityName string

	Bundled         bool
	NotPricedReason string
	UnavailableNote string

	Description string
}
