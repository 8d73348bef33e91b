package totals

import (
	"testing"

	"github.com/maggiexgao/explain-my-bills/internal/config"
	"github.com/maggiexgao/explain-my-bills/internal/model"
)

func TestReconcileBasisPriority(t *testing.T) {
	r := NewReconciler(config.DefaultPolicy())

	charges := Candidate{Slot: model.SlotTotalCharges, ValueCents: i64(45000), Label: "Total Charges", Confidence: model.ConfidenceHigh}
	allowed := Candidate{Slot: model.SlotAllowedAmount, ValueCents: i64(30000), Label: "Allowed Amount", Confidence: model.ConfidenceHigh}
	balance := Candidate{Slot: model.SlotAmountDue, ValueCents: i64(8000), Label: "Amount Due", Confidence: model.ConfidenceHigh}

	// Allowed amount beats everything else.
	rec := r.Reconcile("", []Candidate{charges, allowed, balance}, nil)
	if rec.Basis != model.BasisAllowedAmount || rec.ComparisonTotal.ValueCents != 30000 {
		t.Fatalf("basis = %v/%+v, want allowed amount", rec.Basis, rec.ComparisonTotal)
	}
	if rec.LimitedComparability {
		t.Error("allowed amount is fully comparable")
	}

	// Without an allowed amount, stated charges win.
	rec = r.Reconcile("", []Candidate{charges, balance}, nil)
	if rec.Basis != model.BasisTotalCharges || rec.ComparisonTotal.ValueCents != 45000 {
		t.Fatalf("basis = %v/%+v, want total charges", rec.Basis, rec.ComparisonTotal)
	}

	// Without stated money at all, the derived line-item sum steps in.
	items := []model.LineItem{billedItem(10000, 1), billedItem(5000, 1)}
	rec = r.Reconcile("", nil, items)
	if rec.Basis != model.BasisLineItemSum || rec.ComparisonTotal.ValueCents != 15000 {
		t.Fatalf("basis = %v/%+v, want line item sum", rec.Basis, rec.ComparisonTotal)
	}
}

func TestReconcileBalanceOnlyIsLimited(t *testing.T) {
	r := NewReconciler(config.DefaultPolicy())
	rec := r.Reconcile("", []Candidate{{
		Slot:       model.SlotAmountDue,
		ValueCents: i64(8000),
		Label:      "Balance Due",
		Confidence: model.ConfidenceHigh,
	}}, nil)

	if rec.Basis != model.BasisPatientBalance {
		t.Fatalf("basis = %v, want patient balance", rec.Basis)
	}
	if !rec.LimitedComparability {
		t.Error("a patient balance basis must always be marked limited")
	}
}

func TestReconcilePatientResponsibilityBeforeAmountDue(t *testing.T) {
	r := NewReconciler(config.DefaultPolicy())
	rec := r.Reconcile("", []Candidate{
		{Slot: model.SlotAmountDue, ValueCents: i64(8000), Label: "Amount Due", Confidence: model.ConfidenceHigh},
		{Slot: model.SlotPatientResponsibility, ValueCents: i64(7500), Label: "Patient Responsibility", Confidence: model.ConfidenceHigh},
	}, nil)
	if rec.ComparisonTotal == nil || rec.ComparisonTotal.ValueCents != 7500 {
		t.Fatalf("patient responsibility must be preferred within the balance tier, got %+v", rec.ComparisonTotal)
	}
}

func TestReconcileNothingSurvives(t *testing.T) {
	r := NewReconciler(config.DefaultPolicy())
	rec := r.Reconcile("", nil, nil)
	if rec.ComparisonTotal != nil || rec.Basis != model.BasisNone {
		t.Fatalf("empty input must yield no comparison total, got %v/%+v", rec.Basis, rec.ComparisonTotal)
	}
}

func TestReconcileEOBRaisesAllowedConfidence(t *testing.T) {
	r := NewReconciler(config.DefaultPolicy())
	text := "Explanation of Benefits. This is not a bill. Allowed amount shown below."
	rec := r.Reconcile(text, []Candidate{{
		Slot:       model.SlotAllowedAmount,
		ValueCents: i64(30000),
		Label:      "Allowed Amount",
		Confidence: model.ConfidenceMedium,
	}}, nil)

	if rec.DocClass != model.DocEOB {
		t.Fatalf("class = %v, want EOB", rec.DocClass)
	}
	if rec.Totals.AllowedAmount.Confidence != model.ConfidenceHigh {
		t.Errorf("EOB must raise a medium allowed amount to high, got %v", rec.Totals.AllowedAmount.Confidence)
	}
}

func TestReconcileReceiptLowersChargesConfidence(t *testing.T) {
	r := NewReconciler(config.DefaultPolicy())
	text := "Thank you for your payment. Receipt #2231."
	rec := r.Reconcile(text, []Candidate{{
		Slot:       model.SlotTotalCharges,
		ValueCents: i64(45000),
		Label:      "Total Charges",
		Confidence: model.ConfidenceHigh,
	}}, nil)

	if rec.DocClass != model.DocPaymentReceipt {
		t.Fatalf("class = %v, want payment receipt", rec.DocClass)
	}
	if rec.Totals.TotalCharges.Confidence != model.ConfidenceMedium {
		t.Errorf("a receipt must lower high total charges to medium, got %v", rec.Totals.TotalCharges.Confidence)
	}
}
