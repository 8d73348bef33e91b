package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds the engine's guardrail thresholds. The numbers are policy,
// not law: the defaults follow the most defensive historical variant, and a
// YAML file can override them per deployment.
type Policy struct {
	// CoverageThresholdPct is the minimum percent of extracted line items
	// that must be priced before a document-total comparison is allowed.
	CoverageThresholdPct float64 `yaml:"coverage_threshold_pct"`
	// SumMismatchTolerance is the relative difference between a derived
	// line-item sum and a stated document total that triggers an audit note.
	SumMismatchTolerance float64 `yaml:"sum_mismatch_tolerance"`
	// TinyTotalFloorCents rejects near-zero totals below this floor unless
	// extraction confidence is high.
	TinyTotalFloorCents int64 `yaml:"tiny_total_floor_cents"`
	// MinDerivedItems is how many qualifying line items a derived total
	// needs before it is proposed at all.
	MinDerivedItems int `yaml:"min_derived_items"`
	// MediumConfidenceItems is the item count at which a derived total is
	// graded medium instead of low.
	MediumConfidenceItems int `yaml:"medium_confidence_items"`
	// MaxParallelLookups bounds concurrent fee-schedule lookups per analysis.
	MaxParallelLookups int `yaml:"max_parallel_lookups"`
}

// DefaultPolicy returns the defensive defaults.
func DefaultPolicy() Policy {
	return Policy{
		CoverageThresholdPct:  70,
		SumMismatchTolerance:  0.03,
		TinyTotalFloorCents:   100,
		MinDerivedItems:       2,
		MediumConfidenceItems: 3,
		MaxParallelLookups:    8,
	}
}

// Validate checks policy values for internal consistency.
func (p Policy) Validate() error {
	if p.CoverageThresholdPct < 0 || p.CoverageThresholdPct > 100 {
		return fmt.Errorf("coverage_threshold_pct must be within [0,100], got %v", p.CoverageThresholdPct)
	}
	if p.SumMismatchTolerance < 0 {
		return fmt.Errorf("sum_mismatch_tolerance must be non-negative, got %v", p.SumMismatchTolerance)
	}
	if p.TinyTotalFloorCents < 0 {
		return fmt.Errorf("tiny_total_floor_cents must be non-negative, got %d", p.TinyTotalFloorCents)
	}
	if p.MinDerivedItems < 1 {
		return fmt.Errorf("min_derived_items must be at least 1, got %d", p.MinDerivedItems)
	}
	if p.MediumConfidenceItems < p.MinDerivedItems {
		return fmt.Errorf("medium_confidence_items (%d) must be >= min_derived_items (%d)",
			p.MediumConfidenceItems, p.MinDerivedItems)
	}
	if p.MaxParallelLookups < 1 {
		return fmt.Errorf("max_parallel_lookups must be at least 1, got %d", p.MaxParallelLookups)
	}
	return nil
}

// Config holds all runtime configuration for a billbench run.
type Config struct {
	DSN       string
	LogFormat string // "text" or "json"

	Policy     Policy
	PolicyPath string

	// analyze
	InputPath string
	ZIP       string
	State     string
	Year      int
	Facility  bool
	JSON      bool

	// loadfees / loadgpci
	FilePath     string
	GPCIPath     string
	ZIPMapPath   string
	Force        bool
	KeepStaging  bool
	ActivateYear bool
}

// LoadPolicy merges an optional YAML policy file over the defaults.
// Only keys present in the file override; absent keys keep their defaults.
func (c *Config) LoadPolicy() error {
	c.Policy = DefaultPolicy()
	if c.PolicyPath == "" {
		return nil
	}
	data, err := os.ReadFile(c.PolicyPath)
	if err != nil {
		return fmt.Errorf("read policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &c.Policy); err != nil {
		return fmt.Errorf("parse policy file: %w", err)
	}
	return c.Policy.Validate()
}

// ValidateAnalyze checks fields required by the analyze command.
func (c *Config) ValidateAnalyze() error {
	if c.InputPath == "" {
		return fmt.Errorf("--file is required")
	}
	if _, err := os.Stat(c.InputPath); err != nil {
		return fmt.Errorf("input not accessible: %w", err)
	}
	if c.Year <= 0 {
		return fmt.Errorf("--year is required")
	}
	return nil
}

// ValidateLoad checks fields required by the loadfees command.
func (c *Config) ValidateLoad() error {
	if c.FilePath == "" {
		return fmt.Errorf("--file is required")
	}
	if _, err := os.Stat(c.FilePath); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	if c.DSN == "" {
		return fmt.Errorf("--dsn or BILLBENCH_DB_URL is required")
	}
	return nil
}
