package model

import "time"

// ReportLine pairs one input line item with its pricing outcome and the
// per-line multiple of reference (nil whenever billed amount or reference
// fee is absent -- a missing billed amount is never treated as zero).
type ReportLine struct {
	Item LineItem
	Fee  ReferenceFeeResult

	MultipleOfReference *float64
	Notes               []string
}

// AnalysisReport is the aggregate result exposed to the presentation layer:
// per-line fee results in input order, the reconciled totals with their
// audit trail, and the bill-level comparison verdict.
type AnalysisReport struct {
	RunID       string
	GeneratedAt time.Time

	YearRequested int
	Geography     Geography

	Lines          []ReportLine
	RejectedTokens []CodeRejection

	Reconciliation TotalsReconciliation
	Comparison     ComparisonModel
}
