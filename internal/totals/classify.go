package totals

import (
	"strings"

	"github.com/maggiexgao/explain-my-bills/internal/model"
	"github.com/maggiexgao/explain-my-bills/internal/normalize"
)

// docSignal is one weighted keyword vote for a document class.
type docSignal struct {
	class   model.DocClass
	keyword string // matched against normalized document text
	weight  int
}

var docSignals = []docSignal{
	{model.DocEOB, "explanation of benefits", 5},
	{model.DocEOB, "this is not a bill", 5},
	{model.DocEOB, "allowed amount", 2},
	{model.DocEOB, "claim number", 2},
	{model.DocEOB, "deductible", 1},

	{model.DocItemizedStatement, "itemized", 4},
	{model.DocItemizedStatement, "description of service", 2},
	{model.DocItemizedStatement, "cpt", 2},
	{model.DocItemizedStatement, "qty", 1},
	{model.DocItemizedStatement, "units", 1},

	{model.DocSummaryStatement, "balance forward", 3},
	{model.DocSummaryStatement, "statement date", 2},
	{model.DocSummaryStatement, "statement", 1},
	{model.DocSummaryStatement, "amount due", 1},

	{model.DocPortalSummary, "mychart", 4},
	{model.DocPortalSummary, "patient portal", 4},
	{model.DocPortalSummary, "visit summary", 2},

	{model.DocPaymentReceipt, "thank you for your payment", 5},
	{model.DocPaymentReceipt, "payment received", 4},
	{model.DocPaymentReceipt, "receipt", 3},

	{model.DocHospitalSummary, "revenue code", 4},
	{model.DocHospitalSummary, "rev code", 3},
	{model.DocHospitalSummary, "room and board", 2},
}

// classifyThreshold is the minimum winning score; below it the document
// stays DocUnknown rather than being forced into a weak class.
const classifyThreshold = 3

// Classify scores the document text against weighted keywords and returns
// the best class. Revenue-coded line items vote for the hospital summary
// class. Classification only informs confidence weighting downstream; it
// never blocks extraction.
func Classify(text string, items []model.LineItem) model.DocClass {
	norm := normalize.NormalizeLabel(text)
	scores := make(map[model.DocClass]int)

	for _, sig := range docSignals {
		if norm != "" && strings.Contains(norm, sig.keyword) {
			scores[sig.class] += sig.weight
		}
	}
	for _, it := range items {
		if it.Code.System == model.SystemRevenue {
			scores[model.DocHospitalSummary] += 2
			break
		}
	}

	best := model.DocUnknown
	bestScore := 0
	for class, score := range scores {
		if score > bestScore || (score == bestScore && class < best) {
			best, bestScore = class, score
		}
	}
	if bestScore < classifyThreshold {
		return model.DocUnknown
	}
	return best
}
