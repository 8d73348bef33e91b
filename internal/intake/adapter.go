// Package intake is the adapter boundary between upstream extraction output
// and the engine's fixed records. Upstream emits the same semantic fields
// under many names and shapes; every "guess the shape" rule lives here and
// nowhere else.
package intake

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/maggiexgao/explain-my-bills/internal/model"
	"github.com/maggiexgao/explain-my-bills/internal/normalize"
	"github.com/maggiexgao/explain-my-bills/internal/totals"
)

// RawLineItem is one extracted billed service before code validation.
type RawLineItem struct {
	CodeToken   string
	Description string
	BilledCents *int64
	Units       int32
	ServiceDate *time.Time
	Facility    *bool // nil when the document did not say
}

// Document is the engine-ready view of one extraction payload.
type Document struct {
	Text       string
	Items      []RawLineItem
	Candidates []totals.Candidate
}

// Field-name aliases observed across extraction versions. First match wins.
var (
	codeKeys        = []string{"code", "cpt", "cpt_code", "hcpcs", "hcpcs_code", "procedure_code", "service_code", "raw_code"}
	descriptionKeys = []string{"description", "desc", "service", "service_description", "name"}
	billedKeys      = []string{"billed_amount", "billed", "amount", "charge", "charges", "line_total"}
	unitsKeys       = []string{"units", "quantity", "qty", "count"}
	dateKeys        = []string{"service_date", "date_of_service", "dos", "date"}
	facilityKeys    = []string{"is_facility", "facility", "facility_context"}
	textKeys        = []string{"document_text", "raw_text", "text", "ocr_text"}
	lineItemKeys    = []string{"line_items", "lines", "items", "services"}
	totalsKeys      = []string{"totals", "total_candidates", "amounts"}

	valueKeys      = []string{"value", "amount", "total"}
	labelKeys      = []string{"label", "field_label", "name"}
	evidenceKeys   = []string{"evidence", "source_text", "snippet", "text"}
	confidenceKeys = []string{"confidence", "score"}
	slotKeys       = []string{"slot", "field", "type", "kind"}
)

var slotAliases = map[string]model.TotalSlot{
	"total_charges":          model.SlotTotalCharges,
	"total charges":          model.SlotTotalCharges,
	"charges":                model.SlotTotalCharges,
	"total_billed":           model.SlotTotalCharges,
	"billed_amount":          model.SlotTotalCharges,
	"gross_charges":          model.SlotTotalCharges,
	"patient_responsibility": model.SlotPatientResponsibility,
	"patient responsibility": model.SlotPatientResponsibility,
	"patient_owes":           model.SlotPatientResponsibility,
	"amount_due":             model.SlotAmountDue,
	"amount due":             model.SlotAmountDue,
	"balance_due":            model.SlotAmountDue,
	"balance":                model.SlotAmountDue,
	"due":                    model.SlotAmountDue,
	"insurance_paid":         model.SlotInsurancePaid,
	"insurer_paid":           model.SlotInsurancePaid,
	"plan_paid":              model.SlotInsurancePaid,
	"paid_by_insurance":      model.SlotInsurancePaid,
	"payments":               model.SlotPaymentsAdjustments,
	"adjustments":            model.SlotPaymentsAdjustments,
	"payments_adjustments":   model.SlotPaymentsAdjustments,
	"allowed_amount":         model.SlotAllowedAmount,
	"allowed":                model.SlotAllowedAmount,
}

// Parse maps an extraction payload into a Document. Unknown fields are
// ignored; missing values stay nil ("not detected"), never zero.
func Parse(data []byte) (*Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("parse extraction payload: %w", err)
	}

	doc := &Document{}
	doc.Text, _ = firstString(top, textKeys)

	if raw, ok := firstRaw(top, lineItemKeys); ok {
		var objs []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &objs); err != nil {
			return nil, fmt.Errorf("parse line items: %w", err)
		}
		for _, obj := range objs {
			doc.Items = append(doc.Items, parseLineItem(obj))
		}
	}

	if raw, ok := firstRaw(top, totalsKeys); ok {
		cands, err := parseTotals(raw)
		if err != nil {
			return nil, err
		}
		doc.Candidates = cands
	}
	return doc, nil
}

func parseLineItem(obj map[string]json.RawMessage) RawLineItem {
	item := RawLineItem{Units: 1}
	item.CodeToken, _ = firstString(obj, codeKeys)
	item.Description, _ = firstString(obj, descriptionKeys)

	if cents, ok := firstMoney(obj, billedKeys); ok {
		item.BilledCents = &cents
	}
	if u, ok := firstNumber(obj, unitsKeys); ok && u > 0 {
		item.Units = int32(u)
	}
	if s, ok := firstString(obj, dateKeys); ok {
		item.ServiceDate = normalize.ParseDate(s)
	}
	if b, ok := firstBool(obj, facilityKeys); ok {
		item.Facility = &b
	}
	return item
}

// parseTotals accepts both shapes upstream has emitted: a list of candidate
// objects, or a map of slot name to value/object.
func parseTotals(raw json.RawMessage) ([]totals.Candidate, error) {
	var list []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		var cands []totals.Candidate
		for _, obj := range list {
			if c, ok := parseCandidate(obj, ""); ok {
				cands = append(cands, c)
			}
		}
		return cands, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("parse totals: neither list nor object shape: %w", err)
	}
	var cands []totals.Candidate
	for key, val := range obj {
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(val, &nested); err == nil {
			if c, ok := parseCandidate(nested, key); ok {
				cands = append(cands, c)
			}
			continue
		}
		// Bare number or string under a slot key.
		if c, ok := bareCandidate(key, val); ok {
			cands = append(cands, c)
		}
	}
	return cands, nil
}

func parseCandidate(obj map[string]json.RawMessage, slotHint string) (totals.Candidate, bool) {
	c := totals.Candidate{Confidence: model.ConfidenceMedium}

	slotName := slotHint
	if s, ok := firstString(obj, slotKeys); ok {
		slotName = s
	}
	c.Label, _ = firstString(obj, labelKeys)
	c.Evidence, _ = firstString(obj, evidenceKeys)

	slot, ok := resolveSlot(slotName, c.Label)
	if !ok {
		return c, false
	}
	c.Slot = slot

	if s, ok := firstString(obj, confidenceKeys); ok {
		c.Confidence = parseConfidence(s)
	} else if f, ok := firstNumber(obj, confidenceKeys); ok {
		c.Confidence = confidenceFromScore(f)
	}

	if s, ok := firstString(obj, valueKeys); ok {
		c.RawValue = s
		return c, true
	}
	if f, ok := firstNumber(obj, valueKeys); ok {
		cents := normalize.RoundCents(f)
		c.ValueCents = &cents
		return c, true
	}
	return c, false
}

func bareCandidate(key string, val json.RawMessage) (totals.Candidate, bool) {
	slot, ok := resolveSlot(key, "")
	if !ok {
		return totals.Candidate{}, false
	}
	c := totals.Candidate{Slot: slot, Label: key, Confidence: model.ConfidenceMedium}

	var s string
	if err := json.Unmarshal(val, &s); err == nil {
		c.RawValue = s
		return c, true
	}
	var f float64
	if err := json.Unmarshal(val, &f); err == nil {
		cents := normalize.RoundCents(f)
		c.ValueCents = &cents
		return c, true
	}
	return c, false
}

// resolveSlot maps a slot name through the alias table, falling back to
// label vocabulary when upstream gave no usable slot name.
func resolveSlot(name, label string) (model.TotalSlot, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if slot, ok := slotAliases[key]; ok {
		return slot, true
	}
	if label != "" {
		return totals.SlotForLabel(label)
	}
	return model.SlotTotalCharges, false
}

func parseConfidence(s string) model.Confidence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return model.ConfidenceHigh
	case "low":
		return model.ConfidenceLow
	default:
		return model.ConfidenceMedium
	}
}

func confidenceFromScore(f float64) model.Confidence {
	switch {
	case f >= 0.8:
		return model.ConfidenceHigh
	case f >= 0.5:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// ---- raw message probing ----

func firstRaw(obj map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

func firstString(obj map[string]json.RawMessage, keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			var s string
			if err := json.Unmarshal(v, &s); err == nil && strings.TrimSpace(s) != "" {
				return s, true
			}
		}
	}
	return "", false
}

func firstNumber(obj map[string]json.RawMessage, keys []string) (float64, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			var f float64
			if err := json.Unmarshal(v, &f); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// firstMoney accepts a number (dollars) or a currency string.
func firstMoney(obj map[string]json.RawMessage, keys []string) (int64, bool) {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || string(v) == "null" {
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err == nil {
			return normalize.RoundCents(f), true
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if cents, ok := normalize.ParseMoney(s); ok {
				return cents, true
			}
		}
	}
	return 0, false
}

func firstBool(obj map[string]json.RawMessage, keys []string) (bool, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			var b bool
			if err := json.Unmarshal(v, &b); err == nil {
				return b, true
			}
		}
	}
	return false, false
}
