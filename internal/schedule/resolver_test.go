package schedule

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/maggiexgao/explain-my-bills/internal/model"
)

func i64(v int64) *int64 { return &v }

func cpt(code, modifier string) model.ServiceCode {
	return model.ServiceCode{Code: code, Modifier: modifier, System: model.SystemCPT}
}

func newTestResolver(t *testing.T, store Store) *Resolver {
	t.Helper()
	r, err := NewResolver(context.Background(), store, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return r
}

func TestResolveDirectFee(t *testing.T) {
	store := NewMemoryStore()
	store.AddFee(FeeRow{
		Year: 2025, Code: "99213", Description: "Office visit, established patient",
		NonFacFeeCents: i64(9250), FacFeeCents: i64(6800),
	})
	r := newTestResolver(t, store)

	res := r.Resolve(context.Background(), cpt("99213", ""), 2025, model.Geography{}, false, 1)
	if res.Status != model.MatchFound {
		t.Fatalf("status = %v, want matched", res.Status)
	}
	if *res.FeePerUnitCents != 9250 || *res.FeeTotalCents != 9250 {
		t.Errorf("fee = %d/%d, want 9250/9250", *res.FeePerUnitCents, *res.FeeTotalCents)
	}
	if res.Locality != model.TierNational {
		t.Errorf("locality = %v, want national for a directly stored fee", res.Locality)
	}
	if res.UsedYearFallback || res.UsedModifierFallback {
		t.Errorf("unexpected fallback flags: %+v", res)
	}

	// Facility pricing picks the facility amount.
	res = r.Resolve(context.Background(), cpt("99213", ""), 2025, model.Geography{}, true, 1)
	if *res.FeePerUnitCents != 6800 {
		t.Errorf("facility fee = %d, want 6800", *res.FeePerUnitCents)
	}
}

func TestResolveUnitsMultiplyOnce(t *testing.T) {
	store := NewMemoryStore()
	store.AddFee(FeeRow{Year: 2025, Code: "J1100", NonFacFeeCents: i64(125)})
	r := newTestResolver(t, store)

	res := r.Resolve(context.Background(), cpt("J1100", ""), 2025, model.Geography{}, false, 4)
	if *res.FeePerUnitCents != 125 {
		t.Errorf("per-unit fee = %d, want 125", *res.FeePerUnitCents)
	}
	if *res.FeeTotalCents != 500 {
		t.Errorf("total fee = %d, want 500", *res.FeeTotalCents)
	}
}

func TestResolveGPCIFormula(t *testing.T) {
	store := NewMemoryStore()
	store.AddFee(FeeRow{
		Year: 2025, Code: "99214",
		WorkRVU: 1.92, NonFacPERVU: 1.56, MPRVU: 0.1,
		ConversionFactor: 32.74,
	})
	store.AddZIPLocality("941", LocalityRow{
		LocalityName: "San Francisco, CA", State: "CA",
		WorkGPCI: 1.1, PEGPCI: 1.3, MPGPCI: 0.6,
	})
	store.AddStateLocality("CA", LocalityRow{
		LocalityName: "California statewide", State: "CA",
		WorkGPCI: 1.05, PEGPCI: 1.15, MPGPCI: 0.7,
	})
	r := newTestResolver(t, store)

	// ZIP tier: (1.92*1.1 + 1.56*1.3 + 0.1*0.6) * 32.74 = 137.508 dollars.
	res := r.Resolve(context.Background(), cpt("99214", ""), 2025, model.Geography{ZIP: "94110", State: "CA"}, false, 1)
	if res.Status != model.MatchFound {
		t.Fatalf("status = %v, want matched", res.Status)
	}
	if res.Locality != model.TierZIP {
		t.Errorf("locality = %v, want zip tier", res.Locality)
	}
	if *res.FeePerUnitCents != 13751 {
		t.Errorf("zip fee = %d, want 13751", *res.FeePerUnitCents)
	}

	// No ZIP match degrades to the state tier.
	res = r.Resolve(context.Background(), cpt("99214", ""), 2025, model.Geography{ZIP: "10001", State: "CA"}, false, 1)
	if res.Locality != model.TierState {
		t.Errorf("locality = %v, want state tier", res.Locality)
	}

	// No geography at all prices with national averages.
	res = r.Resolve(context.Background(), cpt("99214", ""), 2025, model.Geography{}, false, 1)
	if res.Locality != model.TierNational {
		t.Errorf("locality = %v, want national tier", res.Locality)
	}
	// (1.92 + 1.56 + 0.1) * 32.74 = 117.21 dollars.
	if *res.FeePerUnitCents != 11721 {
		t.Errorf("national fee = %d, want 11721", *res.FeePerUnitCents)
	}
}

func TestResolveYearFallback(t *testing.T) {
	store := NewMemoryStore()
	store.AddFee(FeeRow{Year: 2026, Code: "99213", NonFacFeeCents: i64(9400)})
	r := newTestResolver(t, store)

	res := r.Resolve(context.Background(), cpt("99213", ""), 2024, model.Geography{}, false, 1)
	if res.Status != model.MatchFound {
		t.Fatalf("status = %v, want matched", res.Status)
	}
	if !res.UsedYearFallback {
		t.Fatal("UsedYearFallback = false, want true")
	}
	if res.YearRequested != 2024 || res.YearUsed != 2026 {
		t.Errorf("years = %d/%d, want requested 2024, used 2026", res.YearRequested, res.YearUsed)
	}
	if !strings.Contains(res.FallbackNote, "2024") || !strings.Contains(res.FallbackNote, "2026") {
		t.Errorf("fallback note %q must name both years", res.FallbackNote)
	}
}

func TestResolveModifierFallback(t *testing.T) {
	store := NewMemoryStore()
	store.AddFee(FeeRow{Year: 2025, Code: "99213", NonFacFeeCents: i64(9250)})
	store.AddFee(FeeRow{Year: 2025, Code: "27130", Modifier: "80", NonFacFeeCents: i64(30000)})
	r := newTestResolver(t, store)

	// Modifier entry missing, base code priced instead.
	res := r.Resolve(context.Background(), cpt("99213", "25"), 2025, model.Geography{}, false, 1)
	if res.Status != model.MatchFound {
		t.Fatalf("status = %v, want matched", res.Status)
	}
	if !res.UsedModifierFallback {
		t.Error("UsedModifierFallback = false, want true")
	}
	if !strings.Contains(res.FallbackNote, "25") {
		t.Errorf("fallback note %q must name the dropped modifier", res.FallbackNote)
	}

	// Exact modifier entry is used directly, no fallback.
	res = r.Resolve(context.Background(), cpt("27130", "80"), 2025, model.Geography{}, false, 1)
	if res.UsedModifierFallback {
		t.Error("exact modifier match must not report a fallback")
	}
	if *res.FeePerUnitCents != 30000 {
		t.Errorf("fee = %d, want the modifier-specific rate", *res.FeePerUnitCents)
	}
}

func TestResolveExistsButNotPriced(t *testing.T) {
	store := NewMemoryStore()
	store.AddFee(FeeRow{Year: 2025, Code: "99499", Description: "Unlisted E/M service"})
	store.AddFee(FeeRow{Year: 2025, Code: "90460", StatusCode: "B"})
	store.AddFee(FeeRow{Year: 2025, Code: "99050", WorkRVU: 0.5}) // RVUs but no conversion factor
	r := newTestResolver(t, store)

	res := r.Resolve(context.Background(), cpt("99499", ""), 2025, model.Geography{}, false, 1)
	if res.Status != model.MatchNotPriced {
		t.Fatalf("status = %v, want exists_but_not_priced, never missing or matched", res.Status)
	}
	if res.FeePerUnitCents != nil || res.FeeTotalCents != nil {
		t.Error("a not-priced result must carry no fee")
	}
	if res.NotPricedReason == "" {
		t.Error("NotPricedReason must explain the outcome")
	}

	res = r.Resolve(context.Background(), cpt("90460", ""), 2025, model.Geography{}, false, 1)
	if res.Status != model.MatchNotPriced || !strings.Contains(res.NotPricedReason, "bundled") {
		t.Errorf("bundled code: status=%v reason=%q", res.Status, res.NotPricedReason)
	}
	if !res.Bundled {
		t.Error("Bundled flag must be set for status code B")
	}

	res = r.Resolve(context.Background(), cpt("99050", ""), 2025, model.Geography{}, false, 1)
	if res.Status != model.MatchNotPriced || !strings.Contains(res.NotPricedReason, "conversion factor") {
		t.Errorf("no CF: status=%v reason=%q", res.Status, res.NotPricedReason)
	}
}

func TestResolveMissing(t *testing.T) {
	store := NewMemoryStore()
	store.AddFee(FeeRow{Year: 2025, Code: "99213", NonFacFeeCents: i64(9250)})
	r := newTestResolver(t, store)

	res := r.Resolve(context.Background(), cpt("99999", ""), 2025, model.Geography{}, false, 1)
	if res.Status != model.MatchMissing {
		t.Fatalf("status = %v, want missing", res.Status)
	}
	if res.FeePerUnitCents != nil {
		t.Error("a missing result must carry no fee")
	}
}

func TestResolveIdempotent(t *testing.T) {
	store := NewMemoryStore()
	store.AddFee(FeeRow{Year: 2026, Code: "99213", NonFacFeeCents: i64(9400)})
	r := newTestResolver(t, store)

	a := r.Resolve(context.Background(), cpt("99213", "25"), 2024, model.Geography{}, false, 2)
	b := r.Resolve(context.Background(), cpt("99213", "25"), 2024, model.Geography{}, false, 2)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same inputs produced different results:\n%+v\n%+v", a, b)
	}
}

// failingStore errors on every call, simulating an unreachable database.
type failingStore struct{ err error }

func (f *failingStore) FeeRow(context.Context, string, int, string) (*FeeRow, error) {
	return nil, f.err
}
func (f *failingStore) LatestYear(context.Context) (int, error)           { return 0, f.err }
func (f *failingStore) LocalityByZIP(context.Context, string) (*LocalityRow, error) {
	return nil, f.err
}
func (f *failingStore) LocalityByState(context.Context, string) (*LocalityRow, error) {
	return nil, f.err
}

func TestNewResolverStoreFailure(t *testing.T) {
	_, err := NewResolver(context.Background(), &failingStore{err: errors.New("connection refused")}, zerolog.Nop())
	if err == nil {
		t.Fatal("NewResolver must surface a store failure so the caller can mark lines unavailable")
	}
}

func TestNewResolverEmptyStore(t *testing.T) {
	r := newTestResolver(t, NewMemoryStore())
	if r.LatestYear() != 0 {
		t.Errorf("LatestYear = %d, want 0 for an empty store", r.LatestYear())
	}
	res := r.Resolve(context.Background(), cpt("99213", ""), 2025, model.Geography{}, false, 1)
	if res.Status != model.MatchMissing {
		t.Errorf("status = %v, want missing when the schedule is empty", res.Status)
	}
}

func TestResolveStoreErrorMidRun(t *testing.T) {
	store := NewMemoryStore()
	store.AddFee(FeeRow{Year: 2025, Code: "99213", NonFacFeeCents: i64(9250)})
	r := newTestResolver(t, store)

	// Swap in a failing store after construction to simulate a connection
	// dropping between the latest-year fetch and the per-line lookups.
	r.store = &failingStore{err: errors.New("connection reset")}
	res := r.Resolve(context.Background(), cpt("99213", ""), 2025, model.Geography{}, false, 1)
	if res.Status != model.MatchUnavailable {
		t.Fatalf("status = %v, want data_unavailable, never missing", res.Status)
	}
	if res.UnavailableNote == "" {
		t.Error("UnavailableNote must explain the outcome")
	}
}

// A locality store failure degrades geography but still prices the line.
type flakyLocalityStore struct {
	*MemoryStore
	err error
}

func (f *flakyLocalityStore) LocalityByZIP(context.Context, string) (*LocalityRow, error) {
	return nil, f.err
}

func TestResolveLocalityFailureDegrades(t *testing.T) {
	mem := NewMemoryStore()
	mem.AddFee(FeeRow{
		Year: 2025, Code: "99214",
		WorkRVU: 1.92, NonFacPERVU: 1.56, MPRVU: 0.1,
		ConversionFactor: 32.74,
	})
	store := &flakyLocalityStore{MemoryStore: mem, err: errors.New("timeout")}
	r := newTestResolver(t, store)

	res := r.Resolve(context.Background(), cpt("99214", ""), 2025, model.Geography{ZIP: "94110"}, false, 1)
	if res.Status != model.MatchFound {
		t.Fatalf("status = %v, want matched despite locality failure", res.Status)
	}
	if res.Locality != model.TierNational {
		t.Errorf("locality = %v, want national after degrading", res.Locality)
	}
}
