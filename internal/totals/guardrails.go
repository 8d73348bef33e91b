package totals

import (
	"fmt"
	"strings"

	"github.com/maggiexgao/explain-my-bills/internal/config"
	"github.com/maggiexgao/explain-my-bills/internal/model"
	"github.com/maggiexgao/explain-my-bills/internal/normalize"
)

// Candidate is one raw total offered by upstream extraction, before any
// guardrail has vetted it. Either ValueCents (already numeric) or RawValue
// (unparsed text) carries the amount.
type Candidate struct {
	Slot       model.TotalSlot
	RawValue   string
	ValueCents *int64
	Label      string
	Evidence   string
	Confidence model.Confidence
}

// chargesVocab marks pre-insurance, charges-style labels.
var chargesVocab = []string{
	"total charges",
	"total charge",
	"billed amount",
	"amount billed",
	"total billed",
	"gross charges",
	"charges",
	"billed",
}

// balanceVocab marks post-insurance, patient-owes-style labels. A candidate
// offered as total charges whose label matches any of these is mislabeled
// extraction and must be rejected: letting a balance masquerade as charges
// reverses the meaning of the whole comparison.
var balanceVocab = []string{
	"balance due",
	"balance",
	"amount due",
	"now due",
	"due now",
	"patient responsibility",
	"patient owes",
	"you owe",
	"you pay",
	"pay this amount",
	"please pay",
	"amount you owe",
}

var allowedVocab = []string{
	"allowed amount",
	"allowed",
	"plan approved",
	"approved amount",
}

var insurancePaidVocab = []string{
	"insurance paid",
	"insurer paid",
	"plan paid",
	"paid by insurance",
	"payments received from insurance",
}

func labelMatchesAny(label string, vocab []string) bool {
	norm := normalize.NormalizeLabel(label)
	if norm == "" {
		return false
	}
	for _, w := range vocab {
		if strings.Contains(norm, w) {
			return true
		}
	}
	return false
}

// LabelLooksLikeCharges reports whether a label uses charges-style vocabulary.
func LabelLooksLikeCharges(label string) bool { return labelMatchesAny(label, chargesVocab) }

// LabelLooksLikeBalance reports whether a label uses balance-style vocabulary.
func LabelLooksLikeBalance(label string) bool { return labelMatchesAny(label, balanceVocab) }

// SlotForLabel guesses the semantic slot for an unslotted candidate from its
// label. The balance check runs before the charges check: "balance due"
// contains no charges vocabulary, but a combined label like "total balance
// due" must land on the balance side.
func SlotForLabel(label string) (model.TotalSlot, bool) {
	switch {
	case labelMatchesAny(label, allowedVocab):
		return model.SlotAllowedAmount, true
	case labelMatchesAny(label, insurancePaidVocab):
		return model.SlotInsurancePaid, true
	case LabelLooksLikeBalance(label):
		return model.SlotAmountDue, true
	case LabelLooksLikeCharges(label):
		return model.SlotTotalCharges, true
	default:
		return model.SlotTotalCharges, false
	}
}

// vet applies every guardrail to one candidate. It returns the surviving
// DetectedTotal, or nil plus an audit note explaining the rejection.
func vet(c Candidate, policy config.Policy) (*model.DetectedTotal, string) {
	var cents int64
	switch {
	case c.ValueCents != nil:
		cents = *c.ValueCents
	default:
		v, ok := normalize.ParseMoney(c.RawValue)
		if !ok {
			return nil, fmt.Sprintf("%s candidate %q not parseable as currency, treated as not detected",
				c.Slot, c.RawValue)
		}
		cents = v
	}

	// Directional label guardrail: never let a post-insurance balance
	// masquerade as pre-insurance total charges.
	if c.Slot == model.SlotTotalCharges {
		if LabelLooksLikeBalance(c.Label) {
			return nil, fmt.Sprintf("total charges candidate rejected: label %q is balance-style", c.Label)
		}
		if !LabelLooksLikeCharges(c.Label) {
			return nil, fmt.Sprintf("total charges candidate rejected: label %q does not resemble charges vocabulary", c.Label)
		}
	}

	if cents == 0 {
		if c.Confidence == model.ConfidenceHigh && normalize.ContainsZeroToken(c.Evidence) {
			return accepted(c, cents), ""
		}
		return nil, fmt.Sprintf("%s candidate rejected: zero value without explicit zero in evidence", c.Slot)
	}

	if cents < 0 && c.Slot != model.SlotPaymentsAdjustments {
		return nil, fmt.Sprintf("%s candidate rejected: negative value %s",
			c.Slot, normalize.FormatCents(cents))
	}

	abs := cents
	if abs < 0 {
		abs = -abs
	}
	if abs < policy.TinyTotalFloorCents && c.Confidence != model.ConfidenceHigh {
		return nil, fmt.Sprintf("%s candidate rejected: %s below plausibility floor at %s confidence",
			c.Slot, normalize.FormatCents(cents), c.Confidence)
	}

	return accepted(c, cents), ""
}

func accepted(c Candidate, cents int64) *model.DetectedTotal {
	return &model.DetectedTotal{
		ValueCents: cents,
		Confidence: c.Confidence,
		Label:      c.Label,
		Evidence:   c.Evidence,
		Source:     model.SourceExtraction,
	}
}
