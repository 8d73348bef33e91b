package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if err := p.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if p.CoverageThresholdPct != 70 || p.SumMismatchTolerance != 0.03 || p.TinyTotalFloorCents != 100 {
		t.Errorf("unexpected defaults: %+v", p)
	}
}

func TestLoadPolicyOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	data := []byte("coverage_threshold_pct: 50\nmax_parallel_lookups: 2\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{PolicyPath: path}
	if err := cfg.LoadPolicy(); err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	if cfg.Policy.CoverageThresholdPct != 50 {
		t.Errorf("coverage threshold = %v, want the file override", cfg.Policy.CoverageThresholdPct)
	}
	if cfg.Policy.MaxParallelLookups != 2 {
		t.Errorf("max parallel lookups = %d, want 2", cfg.Policy.MaxParallelLookups)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Policy.SumMismatchTolerance != 0.03 {
		t.Errorf("tolerance = %v, want the default", cfg.Policy.SumMismatchTolerance)
	}
}

func TestLoadPolicyNoFile(t *testing.T) {
	cfg := &Config{}
	if err := cfg.LoadPolicy(); err != nil {
		t.Fatalf("LoadPolicy without a path must use defaults: %v", err)
	}
	if cfg.Policy != DefaultPolicy() {
		t.Errorf("policy = %+v, want defaults", cfg.Policy)
	}
}

func TestLoadPolicyRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	if err := os.WriteFile(path, []byte("coverage_threshold_pct: 150\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := &Config{PolicyPath: path}
	if err := cfg.LoadPolicy(); err == nil {
		t.Fatal("an out-of-range threshold must be rejected")
	}
}

func TestPolicyValidate(t *testing.T) {
	bad := []func(*Policy){
		func(p *Policy) { p.CoverageThresholdPct = -1 },
		func(p *Policy) { p.SumMismatchTolerance = -0.1 },
		func(p *Policy) { p.TinyTotalFloorCents = -1 },
		func(p *Policy) { p.MinDerivedItems = 0 },
		func(p *Policy) { p.MediumConfidenceItems = 1 },
		func(p *Policy) { p.MaxParallelLookups = 0 },
	}
	for i, mutate := range bad {
		p := DefaultPolicy()
		mutate(&p)
		if err := p.Validate(); err == nil {
			t.Errorf("case %d: %+v must not validate", i, p)
		}
	}
}

func TestValidateAnalyze(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bill.json")
	if err := os.WriteFile(input, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{InputPath: input, Year: 2025}
	if err := cfg.ValidateAnalyze(); err != nil {
		t.Errorf("valid analyze config rejected: %v", err)
	}

	cfg = &Config{Year: 2025}
	if err := cfg.ValidateAnalyze(); err == nil {
		t.Error("missing input path must be rejected")
	}

	cfg = &Config{InputPath: input}
	if err := cfg.ValidateAnalyze(); err == nil {
		t.Error("missing year must be rejected")
	}
}
