package intake

import (
	"testing"

	"github.com/maggiexgao/explain-my-bills/internal/model"
)

func TestParseListShapedTotals(t *testing.T) {
	payload := []byte(`{
		"document_text": "Itemized statement",
		"line_items": [
			{"code": "99213", "description": "Office visit", "billed_amount": "$250.00", "units": 1},
			{"cpt_code": "J1100", "charge": 5.0, "qty": 4, "is_facility": true}
		],
		"totals": [
			{"slot": "total_charges", "value": "$270.00", "label": "Total Charges", "confidence": "high", "evidence": "TOTAL CHARGES $270.00"},
			{"type": "balance_due", "amount": 80.0, "label": "Balance Due", "score": 0.9}
		]
	}`)

	doc, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Text != "Itemized statement" {
		t.Errorf("text = %q", doc.Text)
	}

	if len(doc.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(doc.Items))
	}
	it := doc.Items[0]
	if it.CodeToken != "99213" || it.BilledCents == nil || *it.BilledCents != 25000 || it.Units != 1 {
		t.Errorf("item 0 = %+v", it)
	}
	it = doc.Items[1]
	if it.CodeToken != "J1100" || *it.BilledCents != 500 || it.Units != 4 {
		t.Errorf("item 1 = %+v", it)
	}
	if it.Facility == nil || !*it.Facility {
		t.Errorf("item 1 facility = %v, want true", it.Facility)
	}

	if len(doc.Candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(doc.Candidates))
	}
	c := doc.Candidates[0]
	if c.Slot != model.SlotTotalCharges || c.RawValue != "$270.00" || c.Confidence != model.ConfidenceHigh {
		t.Errorf("candidate 0 = %+v", c)
	}
	c = doc.Candidates[1]
	if c.Slot != model.SlotAmountDue {
		t.Errorf("candidate 1 slot = %v, want amount due", c.Slot)
	}
	if c.ValueCents == nil || *c.ValueCents != 8000 {
		t.Errorf("candidate 1 cents = %v, want 8000", c.ValueCents)
	}
	if c.Confidence != model.ConfidenceHigh {
		t.Errorf("score 0.9 must map to high confidence, got %v", c.Confidence)
	}
}

func TestParseMapShapedTotals(t *testing.T) {
	payload := []byte(`{
		"items": [{"service_code": "99213"}],
		"totals": {
			"total_charges": {"value": 450.0, "label": "Total Charges", "confidence": "medium"},
			"amount_due": "$80.00",
			"insurance_paid": 120.5
		}
	}`)

	doc, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Candidates) != 3 {
		t.Fatalf("candidates = %d, want 3: %+v", len(doc.Candidates), doc.Candidates)
	}

	bySlot := make(map[model.TotalSlot]int)
	for _, c := range doc.Candidates {
		bySlot[c.Slot]++
	}
	for _, slot := range []model.TotalSlot{model.SlotTotalCharges, model.SlotAmountDue, model.SlotInsurancePaid} {
		if bySlot[slot] != 1 {
			t.Errorf("slot %v count = %d, want 1", slot, bySlot[slot])
		}
	}
}

func TestParseSlotFromLabelVocabulary(t *testing.T) {
	// No usable slot name: the label vocabulary decides.
	payload := []byte(`{
		"totals": [
			{"label": "Patient Responsibility", "value": "$95.00"},
			{"label": "Allowed Amount", "value": "$310.00"}
		]
	}`)
	doc, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(doc.Candidates))
	}
	if doc.Candidates[0].Slot != model.SlotAmountDue {
		t.Errorf("slot 0 = %v, want the balance side", doc.Candidates[0].Slot)
	}
	if doc.Candidates[1].Slot != model.SlotAllowedAmount {
		t.Errorf("slot 1 = %v, want allowed amount", doc.Candidates[1].Slot)
	}
}

func TestParseMissingValuesStayAbsent(t *testing.T) {
	payload := []byte(`{
		"lines": [{"code": "99213"}],
		"totals": [{"slot": "total_charges", "label": "Total Charges"}]
	}`)
	doc, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Items[0].BilledCents != nil {
		t.Error("a missing billed amount must stay nil, never zero")
	}
	if doc.Items[0].Units != 1 {
		t.Errorf("units default = %d, want 1", doc.Items[0].Units)
	}
	if len(doc.Candidates) != 0 {
		t.Errorf("a candidate without a value must be dropped, got %+v", doc.Candidates)
	}
}

func TestParseGarbage(t *testing.T) {
	if _, err := Parse([]byte(`[1,2,3]`)); err == nil {
		t.Error("a non-object payload must fail")
	}
	if _, err := Parse([]byte(`{"line_items": "nope"}`)); err == nil {
		t.Error("malformed line items must fail")
	}
}
